package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Fixed window per IP and purpose
	windowDuration  = time.Minute
	requestsPerWindow = 10
)

// Limiter throttles abusive call volume on sensitive endpoints using a
// Redis fixed window per client IP and purpose ("login", "register", ...).
// With a nil client the limiter is a no-op, so the API works without
// Redis in development.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Allow records a request for ip/purpose and reports whether it is within
// the window budget.
func (l *Limiter) Allow(ctx context.Context, ip, purpose string) (bool, error) {
	if l.client == nil {
		return true, nil
	}

	key := fmt.Sprintf("ratelimit:%s:%s", purpose, ip)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// First hit in the window starts the clock
	if count == 1 {
		if err := l.client.Expire(ctx, key, windowDuration).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit TTL: %w", err)
		}
	}

	return count <= requestsPerWindow, nil
}
