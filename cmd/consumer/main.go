package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/logger"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

const groupID = "freightbid-event-consumer-group"

// consumer tails the domain event stream and logs every event. It is a
// debugging aid for the outbox relay.
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile}).Named("consumer")
	defer func() { _ = log.Sync() }()

	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required")
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        groupID,
		Topic:          cfg.KafkaTopic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Error("failed to close kafka reader", zap.Error(err))
		}
	}()

	log.Info("consumer connected", zap.String("topic", cfg.KafkaTopic), zap.Strings("brokers", cfg.KafkaBrokers))

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("shutdown signal received, stopping consumer")
				return
			}
			log.Error("failed to read message", zap.Error(err))
			time.Sleep(5 * time.Second)
			continue
		}

		var ev repository.DomainEventPayload
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			log.Warn("undecodable event", zap.Int64("offset", m.Offset), zap.Error(err))
			continue
		}
		log.Info("domain event",
			zap.String("type", ev.Type),
			zap.Time("occurred_at", ev.OccurredAt),
			zap.Int64("request_id", ev.RequestID),
			zap.Int64("offer_id", ev.OfferID),
			zap.String("container_id", ev.ContainerID),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.String("key", string(m.Key)),
			zap.ByteString("data", ev.Data),
		)
	}
}
