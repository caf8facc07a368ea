package analytics

import (
	"context"
	"sort"
	"time"

	"croupier/internal/storage"
)

type GameLog interface {
	ListGameLog(ctx context.Context, guildID string, since time.Time) ([]storage.GameRecord, error)
}

type Service struct {
	store GameLog
}

func New(store GameLog) *Service {
	return &Service{store: store}
}

type GameSummary struct {
	Game     string
	Rounds   int
	Wagered  int64
	PaidOut  int64
	HouseNet int64
}

type Report struct {
	Since      time.Time
	Rounds     int
	Players    int
	Wagered    int64
	PaidOut    int64
	HouseNet   int64
	ByGame     []GameSummary
	ByOutcome  map[string]int
	BiggestWin storage.GameRecord
}

// Report aggregates the guild's game log since the given time.
func (s *Service) Report(ctx context.Context, guildID string, since time.Time) (Report, error) {
	records, err := s.store.ListGameLog(ctx, guildID, since)
	if err != nil {
		return Report{}, err
	}

	report := Report{Since: since, ByOutcome: make(map[string]int)}
	games := make(map[string]*GameSummary)
	players := make(map[string]struct{})
	for _, record := range records {
		report.Rounds++
		report.Wagered += record.Wager
		report.PaidOut += record.Winnings
		report.ByOutcome[record.Outcome]++
		players[record.UserID] = struct{}{}

		summary, ok := games[record.Game]
		if !ok {
			summary = &GameSummary{Game: record.Game}
			games[record.Game] = summary
		}
		summary.Rounds++
		summary.Wagered += record.Wager
		summary.PaidOut += record.Winnings

		if record.Winnings-record.Wager > report.BiggestWin.Winnings-report.BiggestWin.Wager {
			report.BiggestWin = record
		}
	}
	report.Players = len(players)
	report.HouseNet = report.Wagered - report.PaidOut

	for _, summary := range games {
		summary.HouseNet = summary.Wagered - summary.PaidOut
		report.ByGame = append(report.ByGame, *summary)
	}
	sort.Slice(report.ByGame, func(i, j int) bool {
		if report.ByGame[i].Rounds != report.ByGame[j].Rounds {
			return report.ByGame[i].Rounds > report.ByGame[j].Rounds
		}
		return report.ByGame[i].Game < report.ByGame[j].Game
	})
	return report, nil
}
