package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"croupier/internal/storage"
)

type memoryStore struct {
	records []storage.GameRecord
	err     error
}

func (m *memoryStore) RecordGame(_ context.Context, record storage.GameRecord) error {
	m.records = append(m.records, record)
	return m.err
}

func TestLoggerPersistsAndNotifiesBigWins(t *testing.T) {
	store := &memoryStore{}
	logger := NewLogger(store, zap.NewNop())

	var (
		mu       sync.Mutex
		notified []storage.GameRecord
	)
	logger.SetNotifier(10, func(_ context.Context, record storage.GameRecord) {
		mu.Lock()
		notified = append(notified, record)
		mu.Unlock()
	})

	ctx := context.Background()
	_ = logger.Log(ctx, storage.GameRecord{GuildID: "g1", UserID: "u1", Game: "slots", Outcome: "win", Wager: 100, Winnings: 1000})
	_ = logger.Log(ctx, storage.GameRecord{GuildID: "g1", UserID: "u1", Game: "dice", Outcome: "win", Wager: 100, Winnings: 200})
	_ = logger.Log(ctx, storage.GameRecord{GuildID: "g1", UserID: "u1", Game: "slots", Outcome: storage.OutcomeCreditFailed, Wager: 10, Winnings: 500})

	logger.Wait()

	if len(store.records) != 3 {
		t.Fatalf("expected 3 persisted records, got %d", len(store.records))
	}
	if store.records[0].CreatedAt.IsZero() {
		t.Fatalf("timestamp not set")
	}
	if len(notified) != 1 || notified[0].Winnings != 1000 {
		t.Fatalf("unexpected notifications %+v", notified)
	}
}

func TestLoggerReturnsStoreError(t *testing.T) {
	store := &memoryStore{err: errors.New("disk full")}
	logger := NewLogger(store, zap.NewNop())
	if err := logger.Log(context.Background(), storage.GameRecord{Game: "crash"}); err == nil {
		t.Fatalf("expected store error to surface")
	}
}

func TestLogDoesNotWaitForNotifier(t *testing.T) {
	logger := NewLogger(&memoryStore{}, zap.NewNop())
	release := make(chan struct{})
	delivered := make(chan storage.GameRecord, 1)
	logger.SetNotifier(5, func(ctx context.Context, record storage.GameRecord) {
		<-release
		if ctx.Err() != nil {
			t.Errorf("notifier context ended early: %v", ctx.Err())
		}
		delivered <- record
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- logger.Log(ctx, storage.GameRecord{GuildID: "g1", UserID: "u1", Game: "slots", Outcome: "win", Wager: 100, Winnings: 1000})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("log: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Log blocked on a slow notifier")
	}
	// the round's context ending must not cut the announcement short
	cancel()
	close(release)
	logger.Wait()

	select {
	case record := <-delivered:
		if record.Winnings != 1000 {
			t.Fatalf("unexpected record %+v", record)
		}
	default:
		t.Fatalf("notifier never ran")
	}
}
