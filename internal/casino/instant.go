package casino

import (
	"context"
	"fmt"

	"croupier/internal/games"
)

type SlotsResult struct {
	Result
	Reels games.Reels
}

type CoinflipResult struct {
	Result
	Pick   games.CoinSide
	Landed games.CoinSide
}

type DiceResult struct {
	Result
	PlayerRoll int
	DealerRoll int
}

func (s *Service) PlaySlots(ctx context.Context, p Player, wager int64) (SlotsResult, error) {
	if err := s.placeBet(ctx, p, games.GameSlots, wager); err != nil {
		return SlotsResult{}, err
	}
	reels := games.SpinSlots(s.src)
	outcome := games.ResolveSlots(reels, wager)
	result, err := s.settle(ctx, p, outcome, reels.String())
	return SlotsResult{Result: result, Reels: reels}, err
}

func (s *Service) PlayCoinflip(ctx context.Context, p Player, wager int64, pick games.CoinSide) (CoinflipResult, error) {
	if pick != games.Heads && pick != games.Tails {
		return CoinflipResult{}, games.ErrInvalidChoice
	}
	if err := s.placeBet(ctx, p, games.GameCoinflip, wager); err != nil {
		return CoinflipResult{}, err
	}
	landed := games.FlipCoin(s.src)
	outcome := games.ResolveCoinflip(pick, landed, wager)
	result, err := s.settle(ctx, p, outcome, fmt.Sprintf("pick=%s landed=%s", pick, landed))
	return CoinflipResult{Result: result, Pick: pick, Landed: landed}, err
}

func (s *Service) PlayDice(ctx context.Context, p Player, wager int64) (DiceResult, error) {
	if err := s.placeBet(ctx, p, games.GameDice, wager); err != nil {
		return DiceResult{}, err
	}
	player := games.RollDie(s.src)
	dealer := games.RollDie(s.src)
	outcome := games.ResolveDice(player, dealer, wager)
	result, err := s.settle(ctx, p, outcome, fmt.Sprintf("player=%d dealer=%d", player, dealer))
	return DiceResult{Result: result, PlayerRoll: player, DealerRoll: dealer}, err
}
