package casino

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"croupier/internal/games"
	"croupier/internal/storage"
)

type fakeLedger struct {
	mu         sync.Mutex
	start      int64
	balances   map[string]int64
	stats      map[string]int64
	records    []storage.GameRecord
	debits     int
	failCredit bool
}

func newFakeLedger(start int64) *fakeLedger {
	return &fakeLedger{start: start, balances: map[string]int64{}, stats: map[string]int64{}}
}

func (l *fakeLedger) Balance(_ context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.balances[userID]; !ok {
		l.balances[userID] = l.start
	}
	return l.balances[userID], nil
}

func (l *fakeLedger) Credit(_ context.Context, userID string, amount int64, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failCredit {
		return errors.New("ledger offline")
	}
	l.balances[userID] += amount
	return nil
}

func (l *fakeLedger) Debit(_ context.Context, userID string, amount int64, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[userID] < amount {
		return storage.ErrInsufficientBalance
	}
	l.debits++
	l.balances[userID] -= amount
	return nil
}

func (l *fakeLedger) IncrementStat(_ context.Context, userID, stat string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats[userID+"|"+stat] += amount
	return nil
}

func (l *fakeLedger) RecordGame(_ context.Context, record storage.GameRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record)
	return nil
}

func (l *fakeLedger) stat(userID, stat string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats[userID+"|"+stat]
}

func (l *fakeLedger) lastRecord() storage.GameRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.records) == 0 {
		return storage.GameRecord{}
	}
	return l.records[len(l.records)-1]
}

type fakeSettings struct {
	settings storage.GuildSettings
}

func (f fakeSettings) GetGuildSettings(_ context.Context, guildID string, _ storage.GuildSettings) (storage.GuildSettings, error) {
	result := f.settings
	result.GuildID = guildID
	return result, nil
}

type scriptedSource struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
}

func (s *scriptedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *scriptedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

// unshuffled makes NewDeck keep suit/rank order, so the deal is K♣ J♣ to the player
// and Q♣ 10♣ to the dealer, with 9♣ next.
func unshuffled() []int {
	ints := make([]int, 0, 51)
	for i := 51; i > 0; i-- {
		ints = append(ints, i)
	}
	return ints
}

type fakeTimer struct {
	stop atomic.Bool
	fn   func()
}

func (t *fakeTimer) Stop() bool {
	t.stop.Store(true)
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) AfterFunc(_ time.Duration, fn func()) games.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{fn: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	pending := append([]*fakeTimer{}, f.timers...)
	f.timers = nil
	f.mu.Unlock()
	for _, timer := range pending {
		if timer.stop.Load() {
			continue
		}
		timer.fn()
	}
}

func newTestService(ledger *fakeLedger, src games.Source, clock games.Clock) *Service {
	return NewService(ledger, Options{
		Source: src,
		Clock:  clock,
		Logger: zap.NewNop(),
	})
}

var alice = Player{GuildID: "g1", UserID: "alice"}

var bob = Player{GuildID: "g1", UserID: "bob"}
