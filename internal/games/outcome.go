package games

import (
	"errors"

	"github.com/shopspring/decimal"
)

type Game string

const (
	GameSlots       Game = "slots"
	GameBlackjack   Game = "blackjack"
	GameCoinflip    Game = "coinflip"
	GameDice        Game = "dice"
	GameMinesweeper Game = "minesweeper"
	GameCrash       Game = "crash"
)

type Kind string

const (
	KindWin       Kind = "win"
	KindLose      Kind = "lose"
	KindPush      Kind = "push"
	KindBust      Kind = "bust"
	KindBlackjack Kind = "blackjack"
	KindCleared   Kind = "cleared"
	KindExploded  Kind = "exploded"
	KindCashedOut Kind = "cashed_out"
	KindCrashed   Kind = "crashed"
)

var (
	ErrInvalidAction   = errors.New("action not allowed in current state")
	ErrGameOver        = errors.New("game already resolved")
	ErrOutOfBounds     = errors.New("cell out of bounds")
	ErrNothingRevealed = errors.New("reveal at least one cell before cashing out")
	ErrInvalidChoice   = errors.New("invalid choice")
)

// Outcome is the terminal classification of a round. Multiplier is zero for losing kinds.
type Outcome struct {
	Game       Game
	Kind       Kind
	Wager      int64
	Multiplier decimal.Decimal
	Winnings   int64
}

func (o Outcome) Profit() int64 {
	return o.Winnings - o.Wager
}

func (o Outcome) Won() bool {
	return o.Winnings > o.Wager
}

func payout(wager int64, multiplier decimal.Decimal) int64 {
	if wager <= 0 || multiplier.Sign() <= 0 {
		return 0
	}
	return decimal.NewFromInt(wager).Mul(multiplier).Floor().IntPart()
}

func settle(game Game, kind Kind, wager int64, multiplier decimal.Decimal) Outcome {
	return Outcome{
		Game:       game,
		Kind:       kind,
		Wager:      wager,
		Multiplier: multiplier,
		Winnings:   payout(wager, multiplier),
	}
}

func lost(game Game, kind Kind, wager int64) Outcome {
	return Outcome{Game: game, Kind: kind, Wager: wager, Multiplier: decimal.Zero}
}
