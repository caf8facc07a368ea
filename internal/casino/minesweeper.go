package casino

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"croupier/internal/games"
)

type Cell struct {
	Revealed bool
	Mine     bool
}

// MinesView is a board snapshot. Mine positions are only filled in once the round is over.
type MinesView struct {
	SessionID    string
	Difficulty   games.Difficulty
	Wager        int64
	Cells        [][]Cell
	SafeRevealed int
	TotalSafe    int
	Multiplier   decimal.Decimal
	State        games.MinesState
	Result       *Result
}

func minesView(id string, game *games.Minesweeper) MinesView {
	d := game.Difficulty()
	over := game.State() != games.MinesInProgress
	cells := make([][]Cell, d.Size)
	for row := 0; row < d.Size; row++ {
		cells[row] = make([]Cell, d.Size)
		for col := 0; col < d.Size; col++ {
			cells[row][col] = Cell{
				Revealed: game.Revealed(row, col),
				Mine:     (over || game.Revealed(row, col)) && game.IsMine(row, col),
			}
		}
	}
	return MinesView{
		SessionID:    id,
		Difficulty:   d,
		Wager:        game.Wager(),
		Cells:        cells,
		SafeRevealed: game.SafeRevealed(),
		TotalSafe:    d.TotalSafe(),
		Multiplier:   game.Multiplier(),
		State:        game.State(),
	}
}

func (s *Service) StartMinesweeper(ctx context.Context, p Player, wager int64, difficulty games.Difficulty) (MinesView, error) {
	if difficulty.Size <= 0 {
		return MinesView{}, games.ErrInvalidChoice
	}
	if err := s.placeBet(ctx, p, games.GameMinesweeper, wager); err != nil {
		return MinesView{}, err
	}
	game := games.NewMinesweeper(s.src, difficulty, wager)
	session := s.sessions.add(p, games.GameMinesweeper)
	session.mines = game
	return minesView(session.ID, game), nil
}

func (s *Service) MinesReveal(ctx context.Context, p Player, sessionID string, row, col int) (MinesView, error) {
	return s.minesAction(ctx, p, sessionID, func(game *games.Minesweeper) error {
		return game.Reveal(row, col)
	})
}

func (s *Service) MinesCashOut(ctx context.Context, p Player, sessionID string) (MinesView, error) {
	return s.minesAction(ctx, p, sessionID, func(game *games.Minesweeper) error {
		_, err := game.CashOut()
		return err
	})
}

func (s *Service) minesAction(ctx context.Context, p Player, sessionID string, action func(*games.Minesweeper) error) (MinesView, error) {
	session, err := s.sessions.acquire(sessionID, p.UserID, games.GameMinesweeper)
	if err != nil {
		return MinesView{}, err
	}
	defer session.mu.Unlock()

	game := session.mines
	if err := action(game); err != nil {
		return minesView(session.ID, game), err
	}
	view := minesView(session.ID, game)
	outcome, ok := game.Outcome()
	if !ok {
		return view, nil
	}
	session.done = true
	s.sessions.remove(session.ID)
	details := fmt.Sprintf("difficulty=%s revealed=%d/%d", game.Difficulty().Name, game.SafeRevealed(), game.Difficulty().TotalSafe())
	result, err := s.settle(ctx, p, outcome, details)
	view.Result = &result
	return view, err
}
