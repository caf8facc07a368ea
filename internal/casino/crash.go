package casino

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"croupier/internal/games"
)

type CrashView struct {
	SessionID  string
	Wager      int64
	Multiplier decimal.Decimal
	State      games.CrashState
	// CrashPoint is only filled once the round is over.
	CrashPoint decimal.Decimal
	Result     *Result
}

// CrashHooks let the caller redraw the round. Both run on the timer goroutine.
type CrashHooks struct {
	OnTick  func(view CrashView)
	OnCrash func(view CrashView, err error)
}

func crashView(id string, game *games.Crash) CrashView {
	view := CrashView{
		SessionID:  id,
		Wager:      game.Wager(),
		Multiplier: game.Multiplier(),
		State:      game.State(),
	}
	if view.State == games.CrashCrashed || view.State == games.CrashCashedOut {
		view.CrashPoint = game.Point()
	}
	return view
}

func (s *Service) StartCrash(ctx context.Context, p Player, wager int64, hooks CrashHooks) (CrashView, error) {
	if err := s.placeBet(ctx, p, games.GameCrash, wager); err != nil {
		return CrashView{}, err
	}

	session := s.sessions.add(p, games.GameCrash)
	game := games.NewCrash(s.src, wager, games.CrashOptions{
		Clock: s.clock,
		OnTick: func(decimal.Decimal) {
			if hooks.OnTick != nil {
				hooks.OnTick(crashView(session.ID, session.crash))
			}
		},
		OnResolve: func(outcome games.Outcome) {
			result, err := s.finishCrash(session, outcome)
			if outcome.Kind == games.KindCrashed && hooks.OnCrash != nil {
				view := crashView(session.ID, session.crash)
				view.Result = &result
				hooks.OnCrash(view, err)
			}
		},
	})
	session.mu.Lock()
	session.crash = game
	drained := session.done
	session.mu.Unlock()
	if drained {
		return CrashView{}, ErrSessionNotFound
	}

	if err := game.Start(); err != nil {
		s.sessions.remove(session.ID)
		return CrashView{}, err
	}
	return crashView(session.ID, game), nil
}

// CrashCashOut races the ticker for the round. The settlement runs inside the resolve
// callback, so by the time CashOut returns the result is stored on the session.
func (s *Service) CrashCashOut(ctx context.Context, p Player, sessionID string) (CrashView, error) {
	session, err := s.sessions.lookup(sessionID, p.UserID, games.GameCrash)
	if err != nil {
		return CrashView{}, err
	}
	session.mu.Lock()
	game := session.crash
	session.mu.Unlock()
	if game == nil {
		return CrashView{}, ErrSessionNotFound
	}

	if _, err := game.CashOut(); err != nil {
		return crashView(session.ID, game), err
	}

	session.mu.Lock()
	result, settleErr := session.settled, session.settleErr
	session.mu.Unlock()

	view := crashView(session.ID, game)
	view.Result = result
	return view, settleErr
}

func (s *Service) finishCrash(session *Session, outcome games.Outcome) (Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.sessions.remove(session.ID)
	details := fmt.Sprintf("point=%s multiplier=%s", session.crash.Point().StringFixed(2), session.crash.Multiplier().StringFixed(2))
	result, err := s.settle(ctx, session.Owner, outcome, details)

	session.mu.Lock()
	session.done = true
	session.settled = &result
	session.settleErr = err
	session.mu.Unlock()
	return result, err
}
