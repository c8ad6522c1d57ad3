package kafka

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Producer interface {
	SendMessage(ctx context.Context, topic string, key []byte, value []byte) error
	Close() error
}

// ConsoleProducer logs messages instead of sending them; used when no brokers are configured.
type ConsoleProducer struct {
	logger *zap.Logger
}

func NewConsoleProducer(logger *zap.Logger) Producer {
	logger.Info("initialized console event producer")
	return &ConsoleProducer{logger: logger}
}

func (p *ConsoleProducer) SendMessage(ctx context.Context, topic string, key []byte, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.Info("event stream message",
		zap.String("topic", topic),
		zap.ByteString("key", key),
		zap.ByteString("value", value),
	)
	return nil
}

func (p *ConsoleProducer) Close() error {
	p.logger.Info("closing console event producer")
	return nil
}

// KafkaProducer writes messages to Kafka. The topic is chosen per message.
type KafkaProducer struct {
	writer *kafkago.Writer
}

func NewKafkaProducer(brokers []string) *KafkaProducer {
	return &KafkaProducer{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *KafkaProducer) SendMessage(ctx context.Context, topic string, key []byte, value []byte) error {
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
