// Package postgres is the PostgreSQL ledger. It mirrors the SQLite store method for method so
// either can back the casino service.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"croupier/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	pool            *pgxpool.Pool
	startingBalance int64
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return &Store{pool: pool, startingBalance: storage.DefaultStartingBalance}, nil
}

func (s *Store) WithStartingBalance(amount int64) {
	if amount >= 0 {
		s.startingBalance = amount
	}
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Migrate(ctx context.Context) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return err
	}
	var files []string
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := migrations.ReadFile(path.Join("migrations", file))
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
	}
	return nil
}

func (s *Store) Balance(ctx context.Context, userID string) (int64, error) {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (user_id, balance) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, s.startingBalance); err != nil {
		return 0, fmt.Errorf("open account: %w", err)
	}
	var balance int64
	if err := s.pool.QueryRow(ctx, `SELECT balance FROM accounts WHERE user_id = $1`, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

func (s *Store) Credit(ctx context.Context, userID string, amount int64, reason string) error {
	if amount <= 0 {
		return storage.ErrInvalidAmount
	}
	return s.applyDelta(ctx, userID, amount, reason)
}

func (s *Store) Debit(ctx context.Context, userID string, amount int64, reason string) error {
	if amount <= 0 {
		return storage.ErrInvalidAmount
	}
	return s.applyDelta(ctx, userID, -amount, reason)
}

func (s *Store) applyDelta(ctx context.Context, userID string, delta int64, reason string) error {
	if _, err := s.Balance(ctx, userID); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance); err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if balance+delta < 0 {
		return storage.ErrInsufficientBalance
	}
	if _, err := tx.Exec(ctx, `
		UPDATE accounts SET balance = balance + $2, updated_at = NOW() WHERE user_id = $1
	`, userID, delta); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (user_id, delta, reason) VALUES ($1, $2, $3)
	`, userID, delta, reason); err != nil {
		return fmt.Errorf("record ledger entry: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Store) IncrementStat(ctx context.Context, userID, stat string, amount int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_stats (user_id, stat, value) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, stat) DO UPDATE SET value = user_stats.value + EXCLUDED.value
	`, userID, stat, amount)
	return err
}

func (s *Store) Stats(ctx context.Context, userID string) (storage.UserStats, error) {
	rows, err := s.pool.Query(ctx, `SELECT stat, value FROM user_stats WHERE user_id = $1`, userID)
	if err != nil {
		return storage.UserStats{}, err
	}
	defer rows.Close()

	values := map[string]int64{}
	for rows.Next() {
		var stat string
		var value int64
		if err := rows.Scan(&stat, &value); err != nil {
			return storage.UserStats{}, err
		}
		values[stat] = value
	}
	return storage.StatsFromMap(values), rows.Err()
}

func (s *Store) TopBalances(ctx context.Context, limit int) ([]storage.Account, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, balance FROM accounts ORDER BY balance DESC, user_id ASC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.Account, error) {
		var account storage.Account
		err := row.Scan(&account.UserID, &account.Balance)
		return account, err
	})
}

func (s *Store) RecordGame(ctx context.Context, record storage.GameRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO game_log (guild_id, user_id, game, outcome, wager, winnings, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, record.GuildID, record.UserID, record.Game, record.Outcome, record.Wager, record.Winnings, record.Details, record.CreatedAt)
	return err
}

func (s *Store) ListGameLog(ctx context.Context, guildID string, since time.Time) ([]storage.GameRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, guild_id, user_id, game, outcome, wager, winnings, details, created_at
		FROM game_log
		WHERE guild_id = $1 AND created_at >= $2
		ORDER BY created_at DESC, id DESC
	`, guildID, since)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.GameRecord, error) {
		var record storage.GameRecord
		err := row.Scan(&record.ID, &record.GuildID, &record.UserID, &record.Game, &record.Outcome,
			&record.Wager, &record.Winnings, &record.Details, &record.CreatedAt)
		return record, err
	})
}

func (s *Store) CleanupGameLog(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	tag, err := s.pool.Exec(ctx, `DELETE FROM game_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) GetGuildSettings(ctx context.Context, guildID string, defaults storage.GuildSettings) (storage.GuildSettings, error) {
	result := defaults
	result.GuildID = guildID
	err := s.pool.QueryRow(ctx, `
		SELECT casino_channel, min_bet, max_bet, enabled FROM guild_settings WHERE guild_id = $1
	`, guildID).Scan(&result.CasinoChannel, &result.MinBet, &result.MaxBet, &result.Enabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return result, nil
		}
		return storage.GuildSettings{}, err
	}
	return result, nil
}

func (s *Store) UpsertGuildSettings(ctx context.Context, settings storage.GuildSettings) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO guild_settings (guild_id, casino_channel, min_bet, max_bet, enabled)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guild_id) DO UPDATE SET
			casino_channel = EXCLUDED.casino_channel,
			min_bet = EXCLUDED.min_bet,
			max_bet = EXCLUDED.max_bet,
			enabled = EXCLUDED.enabled
	`, settings.GuildID, settings.CasinoChannel, settings.MinBet, settings.MaxBet, settings.Enabled)
	return err
}
