package casino

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"croupier/internal/games"
	"croupier/internal/modules/audit"
	"croupier/internal/storage"
)

func TestPlaySlotsSettlesAndRecords(t *testing.T) {
	ledger := newFakeLedger(1000)
	service := newTestService(ledger, &scriptedSource{ints: []int{4, 4, 4}}, nil)

	result, err := service.PlaySlots(context.Background(), alice, 100)
	if err != nil {
		t.Fatalf("play slots: %v", err)
	}
	if result.Reels.String() != "💎💎💎" || result.Outcome.Winnings != 1000 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Balance != 1900 {
		t.Fatalf("expected balance 1900, got %d", result.Balance)
	}
	if ledger.stat("alice", storage.StatTotalBet) != 100 ||
		ledger.stat("alice", storage.StatTotalWon) != 1000 ||
		ledger.stat("alice", storage.StatGamesPlayed) != 1 {
		t.Fatalf("unexpected stats %v", ledger.stats)
	}
	record := ledger.lastRecord()
	if record.Game != "slots" || record.Outcome != "win" || record.GuildID != "g1" {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestBigWinAnnouncementDoesNotDelaySettlement(t *testing.T) {
	ledger := newFakeLedger(1000)
	recorder := audit.NewLogger(ledger, zap.NewNop())
	release := make(chan struct{})
	recorder.SetNotifier(5, func(context.Context, storage.GameRecord) { <-release })
	service := NewService(ledger, Options{
		Source:   &scriptedSource{ints: []int{4, 4, 4}},
		Recorder: recorder,
		Logger:   zap.NewNop(),
	})

	done := make(chan SlotsResult, 1)
	go func() {
		result, _ := service.PlaySlots(context.Background(), alice, 100)
		done <- result
	}()
	select {
	case result := <-done:
		if result.Outcome.Winnings != 1000 || result.Balance != 1900 {
			t.Fatalf("unexpected result %+v", result)
		}
	case <-time.After(time.Second):
		t.Fatalf("settlement waited on the big win announcement")
	}
	close(release)
	recorder.Wait()
}

func TestBetValidationHappensBeforeDebit(t *testing.T) {
	ledger := newFakeLedger(1000)
	service := newTestService(ledger, nil, nil)
	ctx := context.Background()

	if _, err := service.PlayDice(ctx, alice, 5); !errors.Is(err, ErrBetTooSmall) {
		t.Fatalf("expected ErrBetTooSmall, got %v", err)
	}
	if _, err := service.PlayDice(ctx, alice, 200000); !errors.Is(err, ErrBetTooLarge) {
		t.Fatalf("expected ErrBetTooLarge, got %v", err)
	}
	if _, err := service.PlayDice(ctx, alice, 2000); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if ledger.debits != 0 || len(ledger.records) != 0 {
		t.Fatalf("rejected bets touched the ledger: debits=%d records=%d", ledger.debits, len(ledger.records))
	}
	if balance, _ := service.Balance(ctx, "alice"); balance != 1000 {
		t.Fatalf("balance changed to %d", balance)
	}
}

func TestGuildSettingsTightenLimits(t *testing.T) {
	ledger := newFakeLedger(10000)
	service := NewService(ledger, Options{
		Settings: fakeSettings{settings: storage.GuildSettings{MinBet: 50, MaxBet: 500, Enabled: true}},
		Logger:   zap.NewNop(),
	})
	ctx := context.Background()

	if _, err := service.PlaySlots(ctx, alice, 20); !errors.Is(err, ErrBetTooSmall) {
		t.Fatalf("expected guild minimum to apply, got %v", err)
	}
	if _, err := service.PlaySlots(ctx, alice, 600); !errors.Is(err, ErrBetTooLarge) {
		t.Fatalf("expected guild maximum to apply, got %v", err)
	}

	disabled := NewService(ledger, Options{Settings: fakeSettings{}, Logger: zap.NewNop()})
	if _, err := disabled.PlaySlots(ctx, alice, 100); !errors.Is(err, ErrCasinoDisabled) {
		t.Fatalf("expected ErrCasinoDisabled, got %v", err)
	}
}

func TestDiceScenario(t *testing.T) {
	ledger := newFakeLedger(1000)
	service := newTestService(ledger, &scriptedSource{ints: []int{5, 1}}, nil)

	result, err := service.PlayDice(context.Background(), alice, 50)
	if err != nil {
		t.Fatalf("play dice: %v", err)
	}
	if result.PlayerRoll != 6 || result.DealerRoll != 2 {
		t.Fatalf("unexpected rolls %d vs %d", result.PlayerRoll, result.DealerRoll)
	}
	if result.Outcome.Winnings != 100 || result.Outcome.Profit() != 50 || result.Balance != 1050 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCoinflipRejectsUnknownSide(t *testing.T) {
	ledger := newFakeLedger(1000)
	service := newTestService(ledger, nil, nil)
	if _, err := service.PlayCoinflip(context.Background(), alice, 100, games.CoinSide("edge")); !errors.Is(err, games.ErrInvalidChoice) {
		t.Fatalf("expected ErrInvalidChoice, got %v", err)
	}
	result, err := service.PlayCoinflip(context.Background(), alice, 100, games.Heads)
	if err != nil {
		t.Fatalf("coinflip: %v", err)
	}
	if result.Landed != games.Heads && result.Landed != games.Tails {
		t.Fatalf("unexpected side %q", result.Landed)
	}
}

func TestCreditFailureIsReportedAndRecorded(t *testing.T) {
	ledger := newFakeLedger(1000)
	ledger.failCredit = true
	service := newTestService(ledger, &scriptedSource{ints: []int{4, 4, 4}}, nil)

	result, err := service.PlaySlots(context.Background(), alice, 100)
	if !errors.Is(err, ErrCreditFailed) {
		t.Fatalf("expected ErrCreditFailed, got %v", err)
	}
	if result.Outcome.Winnings != 1000 {
		t.Fatalf("outcome should still report winnings owed, got %+v", result.Outcome)
	}
	if record := ledger.lastRecord(); record.Outcome != storage.OutcomeCreditFailed {
		t.Fatalf("expected credit_failed record, got %+v", record)
	}
	if ledger.stat("alice", storage.StatTotalWon) != 0 {
		t.Fatalf("uncredited winnings counted as won")
	}
}

func TestRateLimiter(t *testing.T) {
	ledger := newFakeLedger(1000)
	service := NewService(ledger, Options{Limiter: NewWindowLimiter(2, time.Minute), Logger: zap.NewNop()})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := service.PlayDice(ctx, alice, 10); err != nil {
			t.Fatalf("bet %d: %v", i, err)
		}
	}
	if _, err := service.PlayDice(ctx, alice, 10); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if _, err := service.PlayDice(ctx, bob, 10); err != nil {
		t.Fatalf("other users must not share the budget: %v", err)
	}
}

func TestWindowLimiterSlides(t *testing.T) {
	limiter := NewWindowLimiter(1, 2*time.Second)
	now := time.Unix(100, 0)
	limiter.now = func() time.Time { return now }

	if ok, _ := limiter.Allow(context.Background(), "u"); !ok {
		t.Fatalf("first hit should pass")
	}
	if ok, _ := limiter.Allow(context.Background(), "u"); ok {
		t.Fatalf("second hit inside window should fail")
	}
	now = now.Add(3 * time.Second)
	if ok, _ := limiter.Allow(context.Background(), "u"); !ok {
		t.Fatalf("hit after window should pass")
	}
	now = now.Add(3 * time.Second)
	limiter.Sweep()
	if len(limiter.hits) != 0 {
		t.Fatalf("sweep left %d users", len(limiter.hits))
	}
}
