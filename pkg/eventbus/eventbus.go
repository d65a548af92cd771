package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/richxcame/bus-booking/pkg/logger"
)

// Event is the envelope published on every subject.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// Handler processes a received event. Returning an error leaves the message
// to NATS redelivery semantics (core NATS: at-most-once, so handlers log and
// absorb their own failures).
type Handler func(ctx context.Context, event *Event) error

// Bus is a thin NATS-backed publish/subscribe bus.
type Bus struct {
	nc *nats.Conn
}

// Connect establishes a NATS connection with sane reconnect behaviour.
func Connect(url string) (*Bus, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}
	return &Bus{nc: nc}, nil
}

// Publish marshals data into an Event envelope and publishes it on subject.
func (b *Bus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	event := Event{
		ID:         uuid.New(),
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := b.nc.Publish(subject, raw); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a queue subscription for subject.
func (b *Bus) Subscribe(ctx context.Context, subject, queue string, handler Handler) error {
	_, err := b.nc.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Error("eventbus: malformed event",
				zap.String("subject", subject),
				zap.Error(err))
			return
		}
		if err := handler(ctx, &event); err != nil {
			logger.Error("eventbus: handler failed",
				zap.String("subject", subject),
				zap.String("event_id", event.ID.String()),
				zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return nil
}

// Healthy reports whether the underlying connection is usable.
func (b *Bus) Healthy() error {
	if b == nil || b.nc == nil || !b.nc.IsConnected() {
		return fmt.Errorf("nats connection is down")
	}
	return nil
}

// Close drains and closes the connection.
func (b *Bus) Close() {
	if b != nil && b.nc != nil {
		_ = b.nc.Drain()
	}
}
