package bot

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"croupier/internal/analytics"
	"croupier/internal/casino"
	"croupier/internal/config"
	"croupier/internal/games"
	"croupier/internal/storage"
)

func testBot() *Bot {
	return &Bot{cfg: config.DefaultConfig()}
}

func emptyMinesView(d games.Difficulty) casino.MinesView {
	cells := make([][]casino.Cell, d.Size)
	for i := range cells {
		cells[i] = make([]casino.Cell, d.Size)
	}
	return casino.MinesView{SessionID: "s1", Difficulty: d, Wager: 100, Cells: cells, TotalSafe: d.TotalSafe()}
}

func countButtons(components []discordgo.MessageComponent) int {
	total := 0
	for _, component := range components {
		row, ok := component.(discordgo.ActionsRow)
		if !ok {
			continue
		}
		if len(row.Components) > 5 {
			return -1
		}
		total += len(row.Components)
	}
	return total
}

func TestMinesComponentsFitButtonCap(t *testing.T) {
	cases := []struct {
		difficulty games.Difficulty
		buttons    int
		separate   bool
	}{
		{games.Easy, 10, false},
		{games.Medium, 17, false},
		{games.Hard, 25, true},
	}
	for _, tc := range cases {
		board, separate := minesComponents(emptyMinesView(tc.difficulty))
		if separate != tc.separate {
			t.Fatalf("%s: expected separate=%t", tc.difficulty.Name, tc.separate)
		}
		if got := countButtons(board); got != tc.buttons {
			t.Fatalf("%s: expected %d buttons, got %d", tc.difficulty.Name, tc.buttons, got)
		}
		if len(board) > 5 {
			t.Fatalf("%s: too many rows %d", tc.difficulty.Name, len(board))
		}
	}
}

func TestMinesComponentsClearedWhenSettled(t *testing.T) {
	view := emptyMinesView(games.Medium)
	view.Result = &casino.Result{}
	board, separate := minesComponents(view)
	if len(board) != 0 || separate {
		t.Fatalf("expected no components for a settled board")
	}
}

func TestMinesCashOutDisabledUntilReveal(t *testing.T) {
	view := emptyMinesView(games.Easy)
	if !minesCashOutButton(view).Disabled {
		t.Fatalf("expected cash-out disabled before any reveal")
	}
	view.SafeRevealed = 1
	if minesCashOutButton(view).Disabled {
		t.Fatalf("expected cash-out enabled after a reveal")
	}
}

func TestBlackjackEmbedHidesHoleCard(t *testing.T) {
	b := testBot()
	view := casino.BlackjackView{
		SessionID: "s1",
		Wager:     100,
		Player:    []games.Card{{Rank: "9", Suit: "♠"}, {Rank: "7", Suit: "♥"}},
		Dealer:    []games.Card{{Rank: "K", Suit: "♣"}, {Rank: "Q", Suit: "♦"}},
		State:     games.BlackjackPlayerTurn,
	}
	embed := b.blackjackEmbed(view)
	dealer := embed.Fields[1]
	if strings.Contains(dealer.Value, "Q♦") {
		t.Fatalf("hole card leaked: %q", dealer.Value)
	}
	if !strings.Contains(dealer.Name, "10 + ?") {
		t.Fatalf("expected partial dealer total, got %q", dealer.Name)
	}
	if len(blackjackComponents(view)) != 1 {
		t.Fatalf("expected action buttons while in play")
	}

	view.Result = &casino.Result{Outcome: games.Outcome{Game: games.GameBlackjack, Kind: games.KindLose, Wager: 100}}
	embed = b.blackjackEmbed(view)
	if !strings.Contains(embed.Fields[1].Value, "Q♦") {
		t.Fatalf("expected hole card after resolution, got %q", embed.Fields[1].Value)
	}
	if len(blackjackComponents(view)) != 0 {
		t.Fatalf("expected no buttons after resolution")
	}
}

func TestErrorTextMapsTaxonomy(t *testing.T) {
	cases := map[error]string{
		casino.ErrInsufficientBalance:                      "enough chips",
		fmt.Errorf("%w: minimum 10", casino.ErrBetTooSmall): "table limits",
		casino.ErrRateLimited:                              "too fast",
		casino.ErrNotSessionOwner:                          "someone else",
		games.ErrGameOver:                                  "round is over",
		fmt.Errorf("credit: %w", casino.ErrCreditFailed):    "could not be paid",
		errors.New("boom"):                                 "Something went wrong",
	}
	for err, want := range cases {
		if got := errorText(err); !strings.Contains(got, want) {
			t.Fatalf("errorText(%v) = %q, want it to mention %q", err, got, want)
		}
	}
}

func TestWithCreditWarningOnlyOnCreditFailure(t *testing.T) {
	embed := &discordgo.MessageEmbed{}
	if got := withCreditWarning(embed, casino.ErrRateLimited); len(got.Fields) != 0 {
		t.Fatalf("unexpected warning for unrelated error")
	}
	if got := withCreditWarning(embed, fmt.Errorf("x: %w", casino.ErrCreditFailed)); len(got.Fields) != 1 {
		t.Fatalf("expected payout warning field")
	}
}

func TestEffectiveLimitsTightenOnly(t *testing.T) {
	b := testBot()
	settings := storage.GuildSettings{GuildID: "g1", Enabled: true, MinBet: 5, MaxBet: 500}
	limits := b.effectiveLimits(settings)
	if limits.MinBet != b.cfg.Casino.MinBet || limits.MaxBet != 500 {
		t.Fatalf("unexpected limits %+v", limits)
	}
}

func TestReportEmbedListsOutcomes(t *testing.T) {
	report := analytics.Report{
		Rounds:    4,
		ByOutcome: map[string]int{"win": 1, "lose": 2, "abandoned": 1},
	}
	embed := testBot().reportEmbed(report, 7)
	var outcomes *discordgo.MessageEmbedField
	for _, field := range embed.Fields {
		if field.Name == "By outcome" {
			outcomes = field
		}
	}
	if outcomes == nil {
		t.Fatalf("missing outcome breakdown in %+v", embed.Fields)
	}
	want := "abandoned: 1\nLoss: 2\nWin: 1"
	if outcomes.Value != want {
		t.Fatalf("expected %q, got %q", want, outcomes.Value)
	}
}
