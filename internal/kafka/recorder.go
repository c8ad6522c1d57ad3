package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

const DefaultTopic = "freightbid.events"

// Recorder writes every domain event to the outbox in the emitting
// transaction; the Publisher relays it to the event stream later.
type Recorder struct {
	topic string
	clock func() time.Time
}

func NewRecorder(topic string, clock func() time.Time) *Recorder {
	if topic == "" {
		topic = DefaultTopic
	}
	if clock == nil {
		clock = time.Now
	}
	return &Recorder{topic: topic, clock: clock}
}

func (r *Recorder) Dispatch(ctx context.Context, tx storage.Tx, events ...domain.Event) error {
	for _, ev := range events {
		payload, key, err := r.encode(ev)
		if err != nil {
			return err
		}
		task := &repository.OutboxTask{
			Topic:   r.topic,
			Key:     key,
			Payload: payload,
		}
		if err := tx.CreateOutboxTask(ctx, task); err != nil {
			return fmt.Errorf("failed to record %s event: %w", ev.Kind(), err)
		}
	}
	return nil
}

// encode builds the message body; events of one request share a key so they
// stay ordered within a partition.
func (r *Recorder) encode(ev domain.Event) (json.RawMessage, string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode %s event: %w", ev.Kind(), err)
	}

	msg := repository.DomainEventPayload{
		Type:       ev.Kind(),
		OccurredAt: r.clock().UTC(),
		Data:       data,
	}
	switch e := ev.(type) {
	case domain.RequestCreated:
		msg.RequestID = e.Request.ID
	case domain.OfferSubmitted:
		msg.RequestID, msg.OfferID, msg.ContainerID = e.Request.ID, e.Offer.ID, e.Offer.ContainerID
	case domain.OfferWithdrawn:
		msg.RequestID, msg.OfferID, msg.ContainerID = e.Request.ID, e.Offer.ID, e.Offer.ContainerID
	case domain.OfferPriceUpdated:
		msg.RequestID, msg.OfferID = e.Request.ID, e.Offer.ID
	case domain.OfferDecided:
		msg.RequestID, msg.OfferID, msg.ContainerID = e.Request.ID, e.Offer.ID, e.Offer.ContainerID
	case domain.RequestFulfilled:
		msg.RequestID, msg.OfferID = e.Request.ID, e.WinningOffer.ID
	case domain.RequestExpired:
		msg.RequestID = e.Request.ID
	case domain.ResaleListed:
		msg.RequestID, msg.OfferID = e.Request.ID, e.SourceOffer.ID
	case domain.ResaleCancelled:
		msg.RequestID, msg.OfferID = e.Request.ID, e.SourceOffer.ID
	case domain.ContainerStatusChanged:
		msg.ContainerID = e.Container.ID
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode %s payload: %w", ev.Kind(), err)
	}
	key := msg.ContainerID
	if msg.RequestID != 0 {
		key = strconv.FormatInt(msg.RequestID, 10)
	}
	return body, key, nil
}
