package storage

import (
	"errors"
	"time"
)

const (
	StatTotalBet    = "casino_total_bet"
	StatTotalWon    = "casino_total_won"
	StatGamesPlayed = "casino_games_played"
)

// Record outcomes that are not game Kinds.
const (
	OutcomeCreditFailed = "credit_failed"
	OutcomeAbandoned    = "abandoned"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

type GameRecord struct {
	ID        int64
	GuildID   string
	UserID    string
	Game      string
	Outcome   string
	Wager     int64
	Winnings  int64
	Details   string
	CreatedAt time.Time
}

type Account struct {
	UserID  string
	Balance int64
}

type UserStats struct {
	TotalBet    int64
	TotalWon    int64
	GamesPlayed int64
}

func (s UserStats) Net() int64 {
	return s.TotalWon - s.TotalBet
}

// GuildSettings are per-guild overrides. Zero bet limits mean "use the global limit".
type GuildSettings struct {
	GuildID       string
	CasinoChannel string
	MinBet        int64
	MaxBet        int64
	Enabled       bool
}

// StatsFromMap builds UserStats from raw stat rows.
func StatsFromMap(values map[string]int64) UserStats {
	return UserStats{
		TotalBet:    values[StatTotalBet],
		TotalWon:    values[StatTotalWon],
		GamesPlayed: values[StatGamesPlayed],
	}
}
