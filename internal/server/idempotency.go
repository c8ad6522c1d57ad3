package server

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	idempotencyKeyPrefix = "idem:"
	idempotencyKeyTTL    = 24 * time.Hour
)

// IdempotencyStore claims a key once; later claims of the same key fail
// until the key is released.
type IdempotencyStore interface {
	SetIdempotency(ctx context.Context, key string) (bool, error)
	ReleaseIdempotency(ctx context.Context, key string) error
}

type RedisIdempotency struct {
	client *redis.Client
}

func NewRedisIdempotency(client *redis.Client) *RedisIdempotency {
	return &RedisIdempotency{client: client}
}

func (r *RedisIdempotency) SetIdempotency(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, idempotencyKeyTTL).Result()
}

func (r *RedisIdempotency) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}

// idempotencyMiddleware rejects a repeated mutating call carrying the same
// Idempotency-Key. Calls without the header, and all calls while the store is
// unavailable, pass through. A call that does not succeed gives its key back
// so the client can retry it.
func (s *Server) idempotencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(idempotencyHeader)
		if s.Idempotency == nil || key == "" || r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key = actorFrom(r.Context()).ID + ":" + key
		fresh, err := s.Idempotency.SetIdempotency(r.Context(), key)
		if err != nil {
			s.logger.Warn("idempotency store unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if !fresh {
			respondError(w, http.StatusConflict, "Duplicate request")
			return
		}

		wrapped := newResponseWriterWrapper(w, false)
		next.ServeHTTP(wrapped, r)
		if status := wrapped.GetStatusCode(); status >= 200 && status < 300 {
			return
		}
		if err := s.Idempotency.ReleaseIdempotency(context.WithoutCancel(r.Context()), key); err != nil {
			s.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(err))
		}
	})
}
