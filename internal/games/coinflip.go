package games

import (
	"strings"

	"github.com/shopspring/decimal"
)

type CoinSide string

const (
	Heads CoinSide = "heads"
	Tails CoinSide = "tails"
)

var evenMoney = decimal.NewFromInt(2)

var push = decimal.NewFromInt(1)

func ParseCoinSide(value string) (CoinSide, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "heads", "h":
		return Heads, nil
	case "tails", "t":
		return Tails, nil
	default:
		return "", ErrInvalidChoice
	}
}

func FlipCoin(src Source) CoinSide {
	if sourceOrDefault(src).IntN(2) == 0 {
		return Heads
	}
	return Tails
}

func ResolveCoinflip(pick, landed CoinSide, wager int64) Outcome {
	if pick == landed {
		return settle(GameCoinflip, KindWin, wager, evenMoney)
	}
	return lost(GameCoinflip, KindLose, wager)
}

func RollDie(src Source) int {
	return sourceOrDefault(src).IntN(6) + 1
}

// ResolveDice compares the player's roll against the dealer's. Ties return the wager.
func ResolveDice(player, dealer int, wager int64) Outcome {
	switch {
	case player > dealer:
		return settle(GameDice, KindWin, wager, evenMoney)
	case player < dealer:
		return lost(GameDice, KindLose, wager)
	default:
		return settle(GameDice, KindPush, wager, push)
	}
}
