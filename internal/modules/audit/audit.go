package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"croupier/internal/storage"
)

type GameStore interface {
	RecordGame(ctx context.Context, record storage.GameRecord) error
}

// Logger persists finished rounds, mirrors them to zap and hands big wins to the notifier.
type Logger struct {
	store          GameStore
	logger         *zap.Logger
	bigWinMultiple float64
	notify         func(context.Context, storage.GameRecord)
	pending        sync.WaitGroup
}

// notifyTimeout bounds one announcement, which runs detached from the player's round.
const notifyTimeout = 15 * time.Second

func NewLogger(store GameStore, logger *zap.Logger) *Logger {
	return &Logger{store: store, logger: logger}
}

// SetNotifier registers fn for rounds paying at least multiple times the wager.
func (l *Logger) SetNotifier(multiple float64, fn func(context.Context, storage.GameRecord)) {
	l.bigWinMultiple = multiple
	l.notify = fn
}

func (l *Logger) Log(ctx context.Context, record storage.GameRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	var err error
	if l.store != nil {
		err = l.store.RecordGame(ctx, record)
	}
	level := zap.InfoLevel
	if record.Outcome == storage.OutcomeCreditFailed {
		level = zap.ErrorLevel
	}
	l.logger.Check(level, "game").Write(
		zap.String("guild_id", record.GuildID),
		zap.String("user_id", record.UserID),
		zap.String("game", record.Game),
		zap.String("outcome", record.Outcome),
		zap.Int64("wager", record.Wager),
		zap.Int64("winnings", record.Winnings),
		zap.String("details", record.Details),
	)
	if l.notify != nil && IsBigWin(record, l.bigWinMultiple) {
		notify := l.notify
		l.pending.Add(1)
		go func() {
			defer l.pending.Done()
			notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
			defer cancel()
			notify(notifyCtx, record)
		}()
	}
	return err
}

// Wait blocks until every dispatched announcement has returned.
func (l *Logger) Wait() {
	l.pending.Wait()
}

func IsBigWin(record storage.GameRecord, multiple float64) bool {
	if multiple <= 0 || record.Wager <= 0 || record.Outcome == storage.OutcomeCreditFailed {
		return false
	}
	return float64(record.Winnings) >= float64(record.Wager)*multiple
}
