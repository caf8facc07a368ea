package games

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CrashFirstTick    = time.Second
	CrashTickInterval = 700 * time.Millisecond
)

var crashStep = decimal.NewFromFloat(0.10)

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

type realTimer struct{ t *time.Timer }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

func (t realTimer) Stop() bool { return t.t.Stop() }

func RealClock() Clock {
	return realClock{}
}

type crashBucket struct {
	weight float64
	low    float64
	high   float64
}

var crashBuckets = []crashBucket{
	{weight: 0.5, low: 1.10, high: 2.00},
	{weight: 0.3, low: 2.00, high: 5.00},
	{weight: 0.2, low: 5.00, high: 10.00},
}

// SampleCrashPoint picks a bucket with the first draw and a uniform point inside it with the
// second, rounded to two decimals.
func SampleCrashPoint(src Source) decimal.Decimal {
	src = sourceOrDefault(src)
	roll := src.Float64()
	bucket := crashBuckets[len(crashBuckets)-1]
	acc := 0.0
	for _, b := range crashBuckets {
		acc += b.weight
		if roll < acc {
			bucket = b
			break
		}
	}
	point := bucket.low + src.Float64()*(bucket.high-bucket.low)
	return decimal.NewFromFloat(point).Round(2)
}

type CrashState string

const (
	CrashWaiting   CrashState = "waiting"
	CrashRunning   CrashState = "running"
	CrashCrashed   CrashState = "crashed"
	CrashCashedOut CrashState = "cashed_out"
	CrashStopped   CrashState = "stopped"
)

type CrashOptions struct {
	Clock     Clock
	OnTick    func(multiplier decimal.Decimal)
	OnResolve func(outcome Outcome)
}

// Crash is a live round. The ticker and CashOut race on mu; whichever takes it first while
// the round is running decides the outcome.
type Crash struct {
	mu         sync.Mutex
	clock      Clock
	onTick     func(decimal.Decimal)
	onResolve  func(Outcome)
	wager      int64
	point      decimal.Decimal
	multiplier decimal.Decimal
	state      CrashState
	timer      Timer
	startedAt  time.Time
	outcome    Outcome
}

func NewCrash(src Source, wager int64, opts CrashOptions) *Crash {
	return newCrash(SampleCrashPoint(src), wager, opts)
}

func newCrash(point decimal.Decimal, wager int64, opts CrashOptions) *Crash {
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}
	return &Crash{
		clock:      clock,
		onTick:     opts.OnTick,
		onResolve:  opts.OnResolve,
		wager:      wager,
		point:      point,
		multiplier: decimal.NewFromInt(1),
		state:      CrashWaiting,
	}
}

func (c *Crash) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CrashWaiting {
		return c.stateError()
	}
	c.state = CrashRunning
	c.startedAt = c.clock.Now()
	c.timer = c.clock.AfterFunc(CrashFirstTick, c.tick)
	return nil
}

func (c *Crash) tick() {
	c.mu.Lock()
	if c.state != CrashRunning {
		c.mu.Unlock()
		return
	}
	c.multiplier = c.multiplier.Add(crashStep)
	if c.multiplier.GreaterThanOrEqual(c.point) {
		c.state = CrashCrashed
		c.timer = nil
		c.outcome = lost(GameCrash, KindCrashed, c.wager)
		outcome := c.outcome
		c.mu.Unlock()
		if c.onResolve != nil {
			c.onResolve(outcome)
		}
		return
	}
	multiplier := c.multiplier
	c.timer = c.clock.AfterFunc(CrashTickInterval, c.tick)
	c.mu.Unlock()
	if c.onTick != nil {
		c.onTick(multiplier)
	}
}

// CashOut locks in wager × current multiplier if the round has not crashed yet.
func (c *Crash) CashOut() (Outcome, error) {
	c.mu.Lock()
	if c.state != CrashRunning {
		err := c.stateError()
		c.mu.Unlock()
		return Outcome{}, err
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.state = CrashCashedOut
	c.outcome = settle(GameCrash, KindCashedOut, c.wager, c.multiplier)
	outcome := c.outcome
	c.mu.Unlock()
	if c.onResolve != nil {
		c.onResolve(outcome)
	}
	return outcome, nil
}

// Stop halts a round that has not resolved, leaving no outcome. It reports whether it
// stopped the round; false means the round had already crashed or cashed out.
func (c *Crash) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CrashRunning && c.state != CrashWaiting {
		return false
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.state = CrashStopped
	return true
}

func (c *Crash) stateError() error {
	switch c.state {
	case CrashCrashed, CrashCashedOut, CrashStopped:
		return ErrGameOver
	default:
		return ErrInvalidAction
	}
}

func (c *Crash) State() CrashState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Crash) Multiplier() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.multiplier
}

func (c *Crash) Point() decimal.Decimal {
	return c.point
}

func (c *Crash) Wager() int64 {
	return c.wager
}

func (c *Crash) Outcome() (Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case CrashCrashed, CrashCashedOut:
		return c.outcome, true
	default:
		return Outcome{}, false
	}
}
