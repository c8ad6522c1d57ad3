package live

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "freightbid:live"

// RedisBroker fans live events out to every API instance over Redis pub/sub.
type RedisBroker struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisBroker(client *redis.Client, channel string, logger *zap.Logger) *RedisBroker {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroker{client: client, channel: channel, logger: logger}
}

func (b *RedisBroker) Publish(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Run delivers every envelope published on the channel to hub until ctx ends.
func (b *RedisBroker) Run(ctx context.Context, hub *Hub) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.logger.Info("live broker subscribed", zap.String("channel", b.channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Error("malformed live envelope", zap.Error(err))
				continue
			}
			hub.Deliver(env)
		}
	}
}
