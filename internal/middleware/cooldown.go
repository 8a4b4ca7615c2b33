package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/vidgate/server/internal/logging"
)

// CooldownStore tracks the most recent playback start per key. TryAcquire
// returns false while a previous acquisition is still inside ttl.
type CooldownStore interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// MemoryCooldown is the per-instance fallback store. Best effort only: in a
// multi-instance deployment each process keeps its own window, so use the
// Redis store there.
type MemoryCooldown struct {
	mu   sync.Mutex
	last map[string]time.Time
}

// NewMemoryCooldown creates an in-memory cooldown store.
func NewMemoryCooldown() *MemoryCooldown {
	return &MemoryCooldown{last: make(map[string]time.Time)}
}

// TryAcquire records the attempt unless the previous one is still cooling down.
func (m *MemoryCooldown) TryAcquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if prev, ok := m.last[key]; ok && now.Sub(prev) < ttl {
		return false, nil
	}

	// Opportunistic sweep so abandoned tokens don't pile up.
	if len(m.last) > 4096 {
		for k, t := range m.last {
			if now.Sub(t) >= ttl {
				delete(m.last, k)
			}
		}
	}

	m.last[key] = now
	return true, nil
}

// RedisCooldown shares the cooldown window across instances via SET NX PX.
type RedisCooldown struct {
	client goredis.UniversalClient
}

// NewRedisCooldown creates a Redis-backed cooldown store.
func NewRedisCooldown(client goredis.UniversalClient) *RedisCooldown {
	return &RedisCooldown{client: client}
}

// TryAcquire sets the key only if absent, expiring after ttl.
func (r *RedisCooldown) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, "cooldown:"+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown setnx: %w", err)
	}
	return ok, nil
}

// PlaybackCooldown throttles playback starts per token. Requests carrying a
// Range header are follow-ups of an in-flight playback and always pass;
// only the initial request of a session is subject to the cooldown. A
// failing store lets the request through: the cooldown is a courtesy
// throttle, not an access control.
func PlaybackCooldown(store CooldownStore, cooldown time.Duration, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cooldown <= 0 || r.Header.Get("Range") != "" {
				next.ServeHTTP(w, r)
				return
			}

			key := chi.URLParam(r, "token")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, err := store.TryAcquire(r.Context(), key, cooldown)
			if err != nil {
				logger.WithError(err).Warn("cooldown store unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				retryAfter := int(cooldown.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				respondWithError(w, http.StatusTooManyRequests, "too many playback starts, retry shortly")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
