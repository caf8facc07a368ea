package casino

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"croupier/internal/games"
)

// BlackjackView is a snapshot of a hand for rendering. Result is set once the hand resolved.
type BlackjackView struct {
	SessionID   string
	Wager       int64
	Player      []games.Card
	Dealer      []games.Card
	PlayerValue int
	DealerValue int
	State       games.BlackjackState
	CanDouble   bool
	Result      *Result
}

// HoleHidden reports whether the dealer's second card should be drawn face down.
func (v BlackjackView) HoleHidden() bool {
	return v.Result == nil
}

func blackjackView(id string, game *games.Blackjack) BlackjackView {
	return BlackjackView{
		SessionID:   id,
		Wager:       game.Wager(),
		Player:      game.PlayerHand(),
		Dealer:      game.DealerHand(),
		PlayerValue: games.HandValue(game.PlayerHand()),
		DealerValue: games.HandValue(game.DealerHand()),
		State:       game.State(),
		CanDouble:   game.CanDouble(),
	}
}

func handDetails(game *games.Blackjack) string {
	return fmt.Sprintf("player=%s dealer=%s doubled=%t",
		joinCards(game.PlayerHand()), joinCards(game.DealerHand()), game.Doubled())
}

func joinCards(cards []games.Card) string {
	parts := make([]string, len(cards))
	for i, card := range cards {
		parts[i] = card.String()
	}
	return strings.Join(parts, ",")
}

func (s *Service) StartBlackjack(ctx context.Context, p Player, wager int64) (BlackjackView, error) {
	if err := s.placeBet(ctx, p, games.GameBlackjack, wager); err != nil {
		return BlackjackView{}, err
	}
	game := games.NewBlackjack(s.src, wager)
	if outcome, ok := game.Outcome(); ok {
		view := blackjackView("", game)
		result, err := s.settle(ctx, p, outcome, handDetails(game))
		view.Result = &result
		return view, err
	}

	session := s.sessions.add(p, games.GameBlackjack)
	session.blackjack = game
	return blackjackView(session.ID, game), nil
}

func (s *Service) BlackjackHit(ctx context.Context, p Player, sessionID string) (BlackjackView, error) {
	return s.blackjackAction(ctx, p, sessionID, func(session *Session) error {
		return session.blackjack.Hit()
	})
}

func (s *Service) BlackjackStand(ctx context.Context, p Player, sessionID string) (BlackjackView, error) {
	return s.blackjackAction(ctx, p, sessionID, func(session *Session) error {
		return session.blackjack.Stand()
	})
}

// BlackjackDouble charges the extra stake first. If that fails the hand carries on undoubled.
func (s *Service) BlackjackDouble(ctx context.Context, p Player, sessionID string) (BlackjackView, error) {
	return s.blackjackAction(ctx, p, sessionID, func(session *Session) error {
		game := session.blackjack
		if !game.CanDouble() {
			return games.ErrInvalidAction
		}
		extra := game.Wager()
		if err := s.ledger.Debit(ctx, p.UserID, extra, "double:"+string(games.GameBlackjack)); err != nil {
			if errors.Is(err, ErrInsufficientBalance) {
				return ErrInsufficientBalance
			}
			return fmt.Errorf("debit double: %w", err)
		}
		return game.Double()
	})
}

func (s *Service) blackjackAction(ctx context.Context, p Player, sessionID string, action func(*Session) error) (BlackjackView, error) {
	session, err := s.sessions.acquire(sessionID, p.UserID, games.GameBlackjack)
	if err != nil {
		return BlackjackView{}, err
	}
	defer session.mu.Unlock()

	game := session.blackjack
	if err := action(session); err != nil {
		return blackjackView(session.ID, game), err
	}

	view := blackjackView(session.ID, game)
	outcome, ok := game.Outcome()
	if !ok {
		return view, nil
	}
	session.done = true
	s.sessions.remove(session.ID)
	result, err := s.settle(ctx, p, outcome, handDetails(game))
	view.Result = &result
	return view, err
}
