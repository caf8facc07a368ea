package casino

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"croupier/internal/games"
)

const DefaultSessionTTL = 180 * time.Second

// Session is one interactive round owned by a single player. Exactly one of the game
// pointers is set, matching Game.
type Session struct {
	ID    string
	Owner Player
	Game  games.Game

	mu        sync.Mutex
	done      bool
	blackjack *games.Blackjack
	mines     *games.Minesweeper
	crash     *games.Crash
	settled   *Result
	settleErr error
}

func (s *Session) wager() int64 {
	switch {
	case s.blackjack != nil:
		return s.blackjack.Wager()
	case s.mines != nil:
		return s.mines.Wager()
	case s.crash != nil:
		return s.crash.Wager()
	default:
		return 0
	}
}

type Registry struct {
	mu       sync.Mutex
	clock    games.Clock
	ttl      time.Duration
	sessions map[string]*Session
	touched  map[string]time.Time
	onEvict  func(*Session)
}

func NewRegistry(clock games.Clock, ttl time.Duration, onEvict func(*Session)) *Registry {
	if clock == nil {
		clock = games.RealClock()
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		clock:    clock,
		ttl:      ttl,
		sessions: make(map[string]*Session),
		touched:  make(map[string]time.Time),
		onEvict:  onEvict,
	}
}

func (r *Registry) add(owner Player, game games.Game) *Session {
	session := &Session{ID: uuid.NewString(), Owner: owner, Game: game}
	r.mu.Lock()
	r.sessions[session.ID] = session
	r.touched[session.ID] = r.clock.Now()
	r.mu.Unlock()
	return session
}

// acquire returns the session locked for the caller. The caller must unlock it.
func (r *Registry) acquire(id, userID string, game games.Game) (*Session, error) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if !ok || session.Game != game {
		r.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if session.Owner.UserID != userID {
		r.mu.Unlock()
		return nil, ErrNotSessionOwner
	}
	r.touched[id] = r.clock.Now()
	r.mu.Unlock()

	session.mu.Lock()
	if session.done {
		session.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// lookup is acquire without taking the session lock.
func (r *Registry) lookup(id, userID string, game games.Game) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.Game != game {
		return nil, ErrSessionNotFound
	}
	if session.Owner.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	r.touched[id] = r.clock.Now()
	return session, nil
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	delete(r.touched, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle longer than the TTL and returns how many it dropped.
// Crash rounds are skipped: their own timer always resolves them.
func (r *Registry) Sweep() int {
	cutoff := r.clock.Now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, session := range r.sessions {
		if session.Game == games.GameCrash {
			continue
		}
		if r.touched[id].Before(cutoff) {
			expired = append(expired, session)
			delete(r.sessions, id)
			delete(r.touched, id)
		}
	}
	r.mu.Unlock()

	evicted := 0
	for _, session := range expired {
		session.mu.Lock()
		if session.done {
			session.mu.Unlock()
			continue
		}
		session.done = true
		session.mu.Unlock()
		evicted++
		if r.onEvict != nil {
			r.onEvict(session)
		}
	}
	return evicted
}

// Drain evicts every open session, live crash rounds included, and returns how many it
// abandoned. Crash rounds that resolve on their own while draining settle normally.
func (r *Registry) Drain() int {
	r.mu.Lock()
	open := make([]*Session, 0, len(r.sessions))
	for id, session := range r.sessions {
		open = append(open, session)
		delete(r.sessions, id)
		delete(r.touched, id)
	}
	r.mu.Unlock()

	evicted := 0
	for _, session := range open {
		session.mu.Lock()
		crash := session.crash
		session.mu.Unlock()
		if crash != nil && !crash.Stop() {
			continue
		}

		session.mu.Lock()
		if session.done {
			session.mu.Unlock()
			continue
		}
		session.done = true
		session.mu.Unlock()
		evicted++
		if r.onEvict != nil {
			r.onEvict(session)
		}
	}
	return evicted
}

func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
