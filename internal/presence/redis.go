package presence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "presence:"
	DefaultTTL = 6 * time.Hour
)

// RedisMirror stores, per user and surface, the set of sessions looking at
// it. Sets expire after ttl so sessions of a crashed instance do not keep a
// user marked present forever.
type RedisMirror struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisMirror(client *redis.Client, ttl time.Duration) *RedisMirror {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisMirror{client: client, ttl: ttl}
}

func presenceKey(userID, surface string) string {
	return keyPrefix + userID + ":" + surface
}

func (m *RedisMirror) Add(ctx context.Context, userID, sessionID, surface string) error {
	key := presenceKey(userID, surface)
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, sessionID)
		pipe.Expire(ctx, key, m.ttl)
		return nil
	})
	return err
}

func (m *RedisMirror) Remove(ctx context.Context, userID, sessionID, surface string) error {
	return m.client.SRem(ctx, presenceKey(userID, surface), sessionID).Err()
}

func (m *RedisMirror) Observing(ctx context.Context, userID, surface string) (bool, error) {
	n, err := m.client.SCard(ctx, presenceKey(userID, surface)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
