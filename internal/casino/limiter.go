package casino

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter caps how many bets a user can place per window.
type Limiter interface {
	Allow(ctx context.Context, userID string) (bool, error)
}

// WindowLimiter keeps a sliding window of bet timestamps per user in process.
type WindowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

func (l *WindowLimiter) Allow(_ context.Context, userID string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	hits := prune(l.hits[userID], now.Add(-l.window))
	if len(hits) >= l.limit {
		l.hits[userID] = hits
		return false, nil
	}
	l.hits[userID] = append(hits, now)
	return true, nil
}

// Sweep drops users with no hits inside the window.
func (l *WindowLimiter) Sweep() {
	cutoff := l.now().Add(-l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for user, hits := range l.hits {
		hits = prune(hits, cutoff)
		if len(hits) == 0 {
			delete(l.hits, user)
			continue
		}
		l.hits[user] = hits
	}
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for _, hit := range hits {
		if hit.After(cutoff) {
			break
		}
		idx++
	}
	return hits[idx:]
}

// RedisLimiter shares the bet budget across bot shards with INCR + EXPIRE.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "croupier:ratelimit:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	key := l.prefix + userID
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check rate limit: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("set rate limit expiry: %w", err)
		}
	}
	return count <= int64(l.limit), nil
}

type allowAll struct{}

func (allowAll) Allow(context.Context, string) (bool, error) { return true, nil }
