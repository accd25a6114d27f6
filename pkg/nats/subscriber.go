package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler processes one event. Returning an error asks for redelivery.
type EventHandler func(ctx context.Context, event events.Event) error

type Subscriber struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	cc     jetstream.ConsumeContext
	logger logger.ILogger
}

func NewSubscriber(url string, log logger.ILogger) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js, logger: log}, nil
}

// Subscribe attaches a durable consumer to subject and dispatches every
// message to handler until Close.
func (s *Subscriber) Subscribe(ctx context.Context, subject, durableName string, handler EventHandler) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		event, err := Decode(msg.Data())
		if err != nil {
			s.logger.Error(moduleName, "Dropping malformed event", map[string]interface{}{
				"subject": msg.Subject(),
				"error":   err.Error(),
			})
			_ = msg.Term()
			return
		}

		if err := handler(ctx, event); err != nil {
			s.logger.Warn(moduleName, "Handler failed, requesting redelivery", map[string]interface{}{
				"subject": msg.Subject(),
				"error":   err.Error(),
			})
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	s.cc = cc

	s.logger.Info(moduleName, "Subscribed", map[string]interface{}{
		"subject": subject,
		"durable": durableName,
	})
	return nil
}

// Decode parses a message published by Publisher.
func Decode(data []byte) (events.BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.BaseEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if env.Type == "" {
		return events.BaseEvent{}, fmt.Errorf("event has no type")
	}
	if env.Data == nil {
		env.Data = map[string]interface{}{}
	}
	return events.BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}

func (s *Subscriber) Close() {
	if s.cc != nil {
		s.cc.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
