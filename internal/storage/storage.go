package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const DefaultStartingBalance int64 = 1000

type Store struct {
	db              *sql.DB
	startingBalance int64
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)
	return &Store{db: db, startingBalance: DefaultStartingBalance}, nil
}

func (s *Store) WithStartingBalance(amount int64) {
	if amount >= 0 {
		s.startingBalance = amount
	}
}

func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Migrate() error {
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
		if _, err := s.db.Exec(string(content)); err != nil {
			if isIgnorableMigrationError(err) {
				continue
			}
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
	}
	return nil
}

// Balance returns the user's balance, opening the account with the starting balance on first use.
func (s *Store) Balance(ctx context.Context, userID string) (int64, error) {
	now := time.Now().Unix()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, balance, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING
	`, userID, s.startingBalance, now, now); err != nil {
		return 0, fmt.Errorf("open account: %w", err)
	}

	var balance int64
	if err := s.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE user_id = ?`, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

func (s *Store) Credit(ctx context.Context, userID string, amount int64, reason string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.applyDelta(ctx, userID, amount, reason)
}

// Debit removes amount from the balance and refuses to go negative.
func (s *Store) Debit(ctx context.Context, userID string, amount int64, reason string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.applyDelta(ctx, userID, -amount, reason)
}

func (s *Store) applyDelta(ctx context.Context, userID string, delta int64, reason string) (err error) {
	if _, err = s.Balance(ctx, userID); err != nil {
		return err
	}

	now := time.Now().Unix()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var balance int64
	if err = tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE user_id = ?`, userID).Scan(&balance); err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if balance+delta < 0 {
		err = ErrInsufficientBalance
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance + ?, updated_at = ? WHERE user_id = ?
	`, delta, now, userID); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (user_id, delta, reason, created_at) VALUES (?, ?, ?, ?)
	`, userID, delta, reason, now); err != nil {
		return fmt.Errorf("record ledger entry: %w", err)
	}
	return tx.Commit()
}

func (s *Store) IncrementStat(ctx context.Context, userID, stat string, amount int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_stats (user_id, stat, value) VALUES (?, ?, ?)
		ON CONFLICT(user_id, stat) DO UPDATE SET value = value + excluded.value
	`, userID, stat, amount)
	return err
}

func (s *Store) Stats(ctx context.Context, userID string) (UserStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT stat, value FROM user_stats WHERE user_id = ?`, userID)
	if err != nil {
		return UserStats{}, err
	}
	defer rows.Close()

	values := map[string]int64{}
	for rows.Next() {
		var stat string
		var value int64
		if err := rows.Scan(&stat, &value); err != nil {
			return UserStats{}, err
		}
		values[stat] = value
	}
	return StatsFromMap(values), rows.Err()
}

func (s *Store) TopBalances(ctx context.Context, limit int) ([]Account, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, balance FROM accounts ORDER BY balance DESC, user_id ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var account Account
		if err := rows.Scan(&account.UserID, &account.Balance); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (s *Store) RecordGame(ctx context.Context, record GameRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_log (guild_id, user_id, game, outcome, wager, winnings, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, record.GuildID, record.UserID, record.Game, record.Outcome, record.Wager, record.Winnings, record.Details, record.CreatedAt.Unix())
	return err
}

func (s *Store) ListGameLog(ctx context.Context, guildID string, since time.Time) ([]GameRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, user_id, game, outcome, wager, winnings, details, created_at
		FROM game_log
		WHERE guild_id = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC
	`, guildID, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []GameRecord
	for rows.Next() {
		var record GameRecord
		var created int64
		if err := rows.Scan(&record.ID, &record.GuildID, &record.UserID, &record.Game, &record.Outcome,
			&record.Wager, &record.Winnings, &record.Details, &created); err != nil {
			return nil, err
		}
		record.CreatedAt = time.Unix(created, 0)
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Store) CleanupGameLog(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result, err := s.db.ExecContext(ctx, `DELETE FROM game_log WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *Store) GetGuildSettings(ctx context.Context, guildID string, defaults GuildSettings) (GuildSettings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT casino_channel, min_bet, max_bet, enabled
		FROM guild_settings WHERE guild_id = ?`, guildID)

	result := defaults
	result.GuildID = guildID

	var enabled int
	err := row.Scan(&result.CasinoChannel, &result.MinBet, &result.MaxBet, &enabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, nil
		}
		return GuildSettings{}, err
	}
	result.Enabled = enabled == 1
	return result, nil
}

func (s *Store) UpsertGuildSettings(ctx context.Context, settings GuildSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guild_settings (guild_id, casino_channel, min_bet, max_bet, enabled)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			casino_channel = excluded.casino_channel,
			min_bet = excluded.min_bet,
			max_bet = excluded.max_bet,
			enabled = excluded.enabled
	`,
		settings.GuildID,
		settings.CasinoChannel,
		settings.MinBet,
		settings.MaxBet,
		boolToInt(settings.Enabled),
	)
	return err
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func isIgnorableMigrationError(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "duplicate column name") || strings.Contains(message, "already exists")
}
