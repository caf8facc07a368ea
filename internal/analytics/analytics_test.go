package analytics

import (
	"context"
	"testing"
	"time"

	"croupier/internal/storage"
)

func TestReportAggregatesGameLog(t *testing.T) {
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	records := []storage.GameRecord{
		{GuildID: "g1", UserID: "u1", Game: "slots", Outcome: "win", Wager: 100, Winnings: 1000},
		{GuildID: "g1", UserID: "u1", Game: "slots", Outcome: "lose", Wager: 100},
		{GuildID: "g1", UserID: "u2", Game: "dice", Outcome: "push", Wager: 50, Winnings: 50},
		{GuildID: "g2", UserID: "u3", Game: "crash", Outcome: "crashed", Wager: 500},
	}
	for _, record := range records {
		if err := store.RecordGame(ctx, record); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	report, err := New(store).Report(ctx, "g1", time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Rounds != 3 || report.Players != 2 {
		t.Fatalf("unexpected totals %+v", report)
	}
	if report.Wagered != 250 || report.PaidOut != 1050 || report.HouseNet != -800 {
		t.Fatalf("unexpected money totals %+v", report)
	}
	if len(report.ByGame) != 2 || report.ByGame[0].Game != "slots" || report.ByGame[0].HouseNet != -800 {
		t.Fatalf("unexpected per-game summary %+v", report.ByGame)
	}
	if report.ByOutcome["win"] != 1 || report.ByOutcome["push"] != 1 {
		t.Fatalf("unexpected outcome counts %+v", report.ByOutcome)
	}
	if report.BiggestWin.Winnings != 1000 {
		t.Fatalf("unexpected biggest win %+v", report.BiggestWin)
	}
}
