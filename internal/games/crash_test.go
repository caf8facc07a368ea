package games

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCrashCashOutBeforePoint(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	var ticks []string
	var resolved []Outcome
	game := newCrash(decimal.RequireFromString("1.50"), 100, CrashOptions{
		Clock:     clock,
		OnTick:    func(m decimal.Decimal) { ticks = append(ticks, m.StringFixed(2)) },
		OnResolve: func(o Outcome) { resolved = append(resolved, o) },
	})
	if err := game.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if clock.lastDelay() != CrashFirstTick {
		t.Fatalf("expected first tick after %s, got %s", CrashFirstTick, clock.lastDelay())
	}
	clock.Advance(CrashFirstTick)
	if clock.lastDelay() != CrashTickInterval {
		t.Fatalf("expected tick interval %s, got %s", CrashTickInterval, clock.lastDelay())
	}
	for i := 0; i < 3; i++ {
		clock.Advance(CrashTickInterval)
	}
	if got := game.Multiplier().StringFixed(2); got != "1.40" {
		t.Fatalf("expected 1.40, got %s (ticks %v)", got, ticks)
	}
	outcome, err := game.CashOut()
	if err != nil {
		t.Fatalf("cash out: %v", err)
	}
	if outcome.Kind != KindCashedOut || outcome.Winnings != 140 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	clock.Advance(CrashTickInterval)
	if game.State() != CrashCashedOut {
		t.Fatalf("tick after cash out changed state to %s", game.State())
	}
	if len(resolved) != 1 {
		t.Fatalf("expected one resolve callback, got %d", len(resolved))
	}
}

func TestCrashReachesPoint(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	var resolved []Outcome
	game := newCrash(decimal.RequireFromString("1.50"), 100, CrashOptions{
		Clock:     clock,
		OnResolve: func(o Outcome) { resolved = append(resolved, o) },
	})
	_ = game.Start()
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
	}
	if game.State() != CrashCrashed {
		t.Fatalf("expected crashed, got %s", game.State())
	}
	if len(resolved) != 1 || resolved[0].Kind != KindCrashed || resolved[0].Winnings != 0 {
		t.Fatalf("unexpected resolution %+v", resolved)
	}
	if _, err := game.CashOut(); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
}

func TestCrashCashOutAtStartReturnsWager(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	game := newCrash(decimal.RequireFromString("3.00"), 100, CrashOptions{Clock: clock})
	if _, err := game.CashOut(); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction before start, got %v", err)
	}
	_ = game.Start()
	outcome, err := game.CashOut()
	if err != nil || outcome.Winnings != 100 || outcome.Profit() != 0 {
		t.Fatalf("expected wager back, got %+v %v", outcome, err)
	}
}

func TestCrashResolvesOnce(t *testing.T) {
	for i := 0; i < 50; i++ {
		clock := &fakeClock{now: time.Unix(0, 0)}
		var resolves int32
		game := newCrash(decimal.RequireFromString("1.10"), 100, CrashOptions{
			Clock:     clock,
			OnResolve: func(Outcome) { atomic.AddInt32(&resolves, 1) },
		})
		_ = game.Start()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			clock.Advance(CrashFirstTick)
		}()
		go func() {
			defer wg.Done()
			_, _ = game.CashOut()
		}()
		wg.Wait()

		if got := atomic.LoadInt32(&resolves); got != 1 {
			t.Fatalf("expected exactly one resolution, got %d", got)
		}
		state := game.State()
		if state != CrashCrashed && state != CrashCashedOut {
			t.Fatalf("unexpected terminal state %s", state)
		}
	}
}

func TestCrashStopHaltsTicker(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	game := newCrash(decimal.RequireFromString("5.00"), 100, CrashOptions{Clock: clock})
	_ = game.Start()
	if !game.Stop() {
		t.Fatalf("expected a running round to stop")
	}
	clock.Advance(CrashFirstTick)
	if !game.Multiplier().Equal(decimal.NewFromInt(1)) {
		t.Fatalf("ticker ran after stop: %s", game.Multiplier())
	}
	if _, ok := game.Outcome(); ok {
		t.Fatalf("stopped round must not report an outcome")
	}
	if _, err := game.CashOut(); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver after stop, got %v", err)
	}
}

func TestCrashStopAfterResolution(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	game := newCrash(decimal.RequireFromString("1.10"), 100, CrashOptions{Clock: clock})
	_ = game.Start()
	clock.Advance(CrashFirstTick)
	if game.Stop() {
		t.Fatalf("stop must not report a crashed round as stopped")
	}
	if game.State() != CrashCrashed {
		t.Fatalf("expected crashed, got %s", game.State())
	}
}

func TestSampleCrashPointBuckets(t *testing.T) {
	cases := []struct {
		floats []float64
		want   string
	}{
		{[]float64{0.0, 0.0}, "1.10"},
		{[]float64{0.49, 1.0}, "2.00"},
		{[]float64{0.6, 0.5}, "3.50"},
		{[]float64{0.9, 0.5}, "7.50"},
	}
	for _, tc := range cases {
		got := SampleCrashPoint(&scriptedSource{floats: tc.floats})
		if got.StringFixed(2) != tc.want {
			t.Fatalf("floats %v: expected %s, got %s", tc.floats, tc.want, got.StringFixed(2))
		}
	}

	low := decimal.RequireFromString("1.10")
	high := decimal.RequireFromString("10.00")
	for i := 0; i < 1000; i++ {
		point := SampleCrashPoint(nil)
		if point.LessThan(low) || point.GreaterThan(high) {
			t.Fatalf("crash point out of range: %s", point)
		}
		if !point.Equal(point.Round(2)) {
			t.Fatalf("crash point not rounded: %s", point)
		}
	}
}
