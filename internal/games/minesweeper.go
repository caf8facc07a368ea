package games

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Difficulty struct {
	Name          string
	Size          int
	Mines         int
	MaxMultiplier decimal.Decimal
}

var (
	Easy   = Difficulty{Name: "easy", Size: 3, Mines: 3, MaxMultiplier: decimal.NewFromFloat(1.5)}
	Medium = Difficulty{Name: "medium", Size: 4, Mines: 6, MaxMultiplier: decimal.NewFromInt(2)}
	Hard   = Difficulty{Name: "hard", Size: 5, Mines: 10, MaxMultiplier: decimal.NewFromInt(3)}
)

func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

func ParseDifficulty(value string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "easy":
		return Easy, nil
	case "medium", "":
		return Medium, nil
	case "hard":
		return Hard, nil
	default:
		return Difficulty{}, ErrInvalidChoice
	}
}

func (d Difficulty) TotalSafe() int {
	return d.Size*d.Size - d.Mines
}

type MinesState string

const (
	MinesInProgress MinesState = "in_progress"
	MinesCleared    MinesState = "cleared"
	MinesExploded   MinesState = "exploded"
	MinesCashedOut  MinesState = "cashed_out"
)

type Minesweeper struct {
	difficulty   Difficulty
	wager        int64
	mines        [][]bool
	revealed     [][]bool
	safeRevealed int
	state        MinesState
	outcome      Outcome
}

// NewMinesweeper places exactly d.Mines mines by rejection sampling.
func NewMinesweeper(src Source, d Difficulty, wager int64) *Minesweeper {
	src = sourceOrDefault(src)
	m := newMinesweeper(d, wager)
	placed := 0
	for placed < d.Mines {
		row := src.IntN(d.Size)
		col := src.IntN(d.Size)
		if m.mines[row][col] {
			continue
		}
		m.mines[row][col] = true
		placed++
	}
	return m
}

func newMinesweeper(d Difficulty, wager int64) *Minesweeper {
	m := &Minesweeper{
		difficulty: d,
		wager:      wager,
		mines:      make([][]bool, d.Size),
		revealed:   make([][]bool, d.Size),
		state:      MinesInProgress,
	}
	for i := 0; i < d.Size; i++ {
		m.mines[i] = make([]bool, d.Size)
		m.revealed[i] = make([]bool, d.Size)
	}
	return m
}

// Reveal opens one cell. Revealing an already opened cell changes nothing.
func (m *Minesweeper) Reveal(row, col int) error {
	if m.state != MinesInProgress {
		return ErrGameOver
	}
	if row < 0 || col < 0 || row >= m.difficulty.Size || col >= m.difficulty.Size {
		return ErrOutOfBounds
	}
	if m.revealed[row][col] {
		return nil
	}
	m.revealed[row][col] = true
	if m.mines[row][col] {
		m.state = MinesExploded
		m.outcome = lost(GameMinesweeper, KindExploded, m.wager)
		return nil
	}
	m.safeRevealed++
	if m.safeRevealed == m.difficulty.TotalSafe() {
		m.state = MinesCleared
		m.outcome = settle(GameMinesweeper, KindCleared, m.wager, m.difficulty.MaxMultiplier)
	}
	return nil
}

func (m *Minesweeper) CashOut() (Outcome, error) {
	if m.state != MinesInProgress {
		return Outcome{}, ErrGameOver
	}
	if m.safeRevealed == 0 {
		return Outcome{}, ErrNothingRevealed
	}
	m.state = MinesCashedOut
	m.outcome = settle(GameMinesweeper, KindCashedOut, m.wager, m.Multiplier())
	return m.outcome, nil
}

// Multiplier interpolates linearly between 1.0 and the tier maximum by cleared fraction.
func (m *Minesweeper) Multiplier() decimal.Decimal {
	one := decimal.NewFromInt(1)
	total := m.difficulty.TotalSafe()
	if total <= 0 {
		return one
	}
	fraction := decimal.NewFromInt(int64(m.safeRevealed)).Div(decimal.NewFromInt(int64(total)))
	return one.Add(fraction.Mul(m.difficulty.MaxMultiplier.Sub(one)))
}

func (m *Minesweeper) Difficulty() Difficulty { return m.difficulty }

func (m *Minesweeper) Wager() int64 { return m.wager }

func (m *Minesweeper) State() MinesState { return m.state }

func (m *Minesweeper) SafeRevealed() int { return m.safeRevealed }

func (m *Minesweeper) Revealed(row, col int) bool {
	if row < 0 || col < 0 || row >= m.difficulty.Size || col >= m.difficulty.Size {
		return false
	}
	return m.revealed[row][col]
}

// IsMine is for rendering; callers should only expose it once the game is over.
func (m *Minesweeper) IsMine(row, col int) bool {
	if row < 0 || col < 0 || row >= m.difficulty.Size || col >= m.difficulty.Size {
		return false
	}
	return m.mines[row][col]
}

func (m *Minesweeper) Outcome() (Outcome, bool) {
	if m.state == MinesInProgress {
		return Outcome{}, false
	}
	return m.outcome, true
}
