package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "freightbid:board"

type boardChange struct {
	Origin    string `json:"origin"`
	RequestID int64  `json:"requestId"`
}

// RedisInvalidator keeps the board caches of all API instances in step over
// Redis pub/sub. Only request ids travel; receivers re-read the request, so
// the order messages arrive in does not matter.
type RedisInvalidator struct {
	client   *redis.Client
	channel  string
	instance string
	logger   *zap.Logger
}

func NewRedisInvalidator(client *redis.Client, channel string, logger *zap.Logger) *RedisInvalidator {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisInvalidator{
		client:   client,
		channel:  channel,
		instance: uuid.NewString(),
		logger:   logger,
	}
}

func (r *RedisInvalidator) Invalidate(ctx context.Context, requestID int64) error {
	payload, err := json.Marshal(boardChange{Origin: r.instance, RequestID: requestID})
	if err != nil {
		return fmt.Errorf("encode board change: %w", err)
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

// Run applies changes published by other instances to board until ctx ends.
// The board is reloaded once subscribed so nothing committed before the
// subscription is missed.
func (r *RedisInvalidator) Run(ctx context.Context, board *BoardCache) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	if err := board.Reload(ctx); err != nil {
		r.logger.Error("board reload after subscribe failed", zap.Error(err))
	}
	r.logger.Info("board invalidator subscribed", zap.String("channel", r.channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.apply(ctx, board, msg.Payload)
		}
	}
}

func (r *RedisInvalidator) apply(ctx context.Context, board *BoardCache, payload string) {
	var change boardChange
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		r.logger.Error("malformed board change", zap.Error(err))
		return
	}
	if change.Origin == r.instance {
		return
	}
	if err := board.Refresh(ctx, change.RequestID); err != nil {
		r.logger.Warn("board refresh failed", zap.Int64("request_id", change.RequestID), zap.Error(err))
	}
}
