// Package casino runs rounds against the ledger: bet validation, debit, resolution, credit,
// telemetry and the registry of interactive sessions.
package casino

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"croupier/internal/games"
	"croupier/internal/storage"
)

// Ledger is the account store the service settles against.
type Ledger interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Credit(ctx context.Context, userID string, amount int64, reason string) error
	Debit(ctx context.Context, userID string, amount int64, reason string) error
	IncrementStat(ctx context.Context, userID, stat string, amount int64) error
	RecordGame(ctx context.Context, record storage.GameRecord) error
}

// Recorder receives finished rounds. The audit logger implements it.
type Recorder interface {
	Log(ctx context.Context, record storage.GameRecord) error
}

type SettingsReader interface {
	GetGuildSettings(ctx context.Context, guildID string, defaults storage.GuildSettings) (storage.GuildSettings, error)
}

type Limits struct {
	MinBet int64
	MaxBet int64
}

var DefaultLimits = Limits{MinBet: 10, MaxBet: 100000}

type Player struct {
	GuildID string
	UserID  string
}

type Options struct {
	Limits     Limits
	Source     games.Source
	Clock      games.Clock
	Limiter    Limiter
	Recorder   Recorder
	Settings   SettingsReader
	SessionTTL time.Duration
	Logger     *zap.Logger
}

type Service struct {
	ledger   Ledger
	recorder Recorder
	settings SettingsReader
	limiter  Limiter
	sessions *Registry
	src      games.Source
	clock    games.Clock
	limits   Limits
	logger   *zap.Logger
}

// Result is what a settled round leaves behind.
type Result struct {
	Outcome games.Outcome
	Balance int64
}

func NewService(ledger Ledger, opts Options) *Service {
	if opts.Limits.MinBet <= 0 {
		opts.Limits.MinBet = DefaultLimits.MinBet
	}
	if opts.Limits.MaxBet <= 0 {
		opts.Limits.MaxBet = DefaultLimits.MaxBet
	}
	if opts.Source == nil {
		opts.Source = games.DefaultSource()
	}
	if opts.Clock == nil {
		opts.Clock = games.RealClock()
	}
	if opts.Limiter == nil {
		opts.Limiter = allowAll{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Service{
		ledger:   ledger,
		recorder: opts.Recorder,
		settings: opts.Settings,
		limiter:  opts.Limiter,
		src:      opts.Source,
		clock:    opts.Clock,
		limits:   opts.Limits,
		logger:   opts.Logger,
	}
	s.sessions = NewRegistry(opts.Clock, opts.SessionTTL, s.abandon)
	return s
}

func (s *Service) Sessions() *Registry {
	return s.sessions
}

func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	return s.ledger.Balance(ctx, userID)
}

// LimitsFor returns the global limits tightened by the guild's own, if any.
func (s *Service) LimitsFor(ctx context.Context, guildID string) (Limits, error) {
	limits := s.limits
	if s.settings == nil || guildID == "" {
		return limits, nil
	}
	settings, err := s.settings.GetGuildSettings(ctx, guildID, storage.GuildSettings{Enabled: true})
	if err != nil {
		return Limits{}, fmt.Errorf("load guild settings: %w", err)
	}
	if !settings.Enabled {
		return Limits{}, ErrCasinoDisabled
	}
	if settings.MinBet > limits.MinBet {
		limits.MinBet = settings.MinBet
	}
	if settings.MaxBet > 0 && settings.MaxBet < limits.MaxBet {
		limits.MaxBet = settings.MaxBet
	}
	return limits, nil
}

// placeBet validates the wager and charges it. Nothing is mutated unless every check passes.
func (s *Service) placeBet(ctx context.Context, p Player, game games.Game, wager int64) error {
	limits, err := s.LimitsFor(ctx, p.GuildID)
	if err != nil {
		return err
	}
	if wager < limits.MinBet {
		return fmt.Errorf("%w: minimum is %d", ErrBetTooSmall, limits.MinBet)
	}
	if wager > limits.MaxBet {
		return fmt.Errorf("%w: maximum is %d", ErrBetTooLarge, limits.MaxBet)
	}
	balance, err := s.ledger.Balance(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if wager > balance {
		return ErrInsufficientBalance
	}

	allowed, err := s.limiter.Allow(ctx, p.UserID)
	if err != nil {
		s.logger.Warn("rate limiter unavailable", zap.String("user_id", p.UserID), zap.Error(err))
	} else if !allowed {
		return ErrRateLimited
	}

	if err := s.ledger.Debit(ctx, p.UserID, wager, "bet:"+string(game)); err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return ErrInsufficientBalance
		}
		return fmt.Errorf("debit wager: %w", err)
	}
	return nil
}

// settle credits winnings, bumps telemetry and records the round. A failed credit is returned
// wrapped in ErrCreditFailed; telemetry failures are only logged.
func (s *Service) settle(ctx context.Context, p Player, outcome games.Outcome, details string) (Result, error) {
	var creditErr error
	if outcome.Winnings > 0 {
		if err := s.ledger.Credit(ctx, p.UserID, outcome.Winnings, "win:"+string(outcome.Game)); err != nil {
			creditErr = fmt.Errorf("%w: %v", ErrCreditFailed, err)
			s.logger.Error("credit failed",
				zap.String("guild_id", p.GuildID),
				zap.String("user_id", p.UserID),
				zap.String("game", string(outcome.Game)),
				zap.Int64("owed", outcome.Winnings),
				zap.Error(err),
			)
		}
	}

	s.bumpStat(ctx, p.UserID, storage.StatTotalBet, outcome.Wager)
	if outcome.Winnings > 0 && creditErr == nil {
		s.bumpStat(ctx, p.UserID, storage.StatTotalWon, outcome.Winnings)
	}
	s.bumpStat(ctx, p.UserID, storage.StatGamesPlayed, 1)

	kind := string(outcome.Kind)
	if creditErr != nil {
		kind = storage.OutcomeCreditFailed
	}
	s.record(ctx, storage.GameRecord{
		GuildID:  p.GuildID,
		UserID:   p.UserID,
		Game:     string(outcome.Game),
		Outcome:  kind,
		Wager:    outcome.Wager,
		Winnings: outcome.Winnings,
		Details:  details,
	})

	result := Result{Outcome: outcome}
	balance, err := s.ledger.Balance(ctx, p.UserID)
	if err != nil {
		s.logger.Warn("balance refresh failed", zap.String("user_id", p.UserID), zap.Error(err))
	} else {
		result.Balance = balance
	}
	return result, creditErr
}

func (s *Service) bumpStat(ctx context.Context, userID, stat string, amount int64) {
	if err := s.ledger.IncrementStat(ctx, userID, stat, amount); err != nil {
		s.logger.Warn("stat update failed", zap.String("user_id", userID), zap.String("stat", stat), zap.Error(err))
	}
}

func (s *Service) record(ctx context.Context, record storage.GameRecord) {
	var err error
	if s.recorder != nil {
		err = s.recorder.Log(ctx, record)
	} else {
		err = s.ledger.RecordGame(ctx, record)
	}
	if err != nil {
		s.logger.Warn("game record failed", zap.String("game", record.Game), zap.String("user_id", record.UserID), zap.Error(err))
	}
}

// Shutdown abandons every round still in play and stops live crash tickers.
func (s *Service) Shutdown() int {
	return s.sessions.Drain()
}

// abandon runs for sessions the sweeper or Shutdown evicts. The wager stays with the house.
func (s *Service) abandon(session *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wager := session.wager()
	s.logger.Info("session abandoned",
		zap.String("session_id", session.ID),
		zap.String("game", string(session.Game)),
		zap.String("user_id", session.Owner.UserID),
		zap.Int64("wager", wager),
	)
	s.bumpStat(ctx, session.Owner.UserID, storage.StatTotalBet, wager)
	s.bumpStat(ctx, session.Owner.UserID, storage.StatGamesPlayed, 1)
	s.record(ctx, storage.GameRecord{
		GuildID: session.Owner.GuildID,
		UserID:  session.Owner.UserID,
		Game:    string(session.Game),
		Outcome: storage.OutcomeAbandoned,
		Wager:   wager,
	})
}
