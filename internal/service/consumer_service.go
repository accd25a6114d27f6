package service

import (
	"context"
	"encoding/json"

	"golf-concierge-be/internal/dto"
	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

const consumerModule = "EventConsumer"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// EventForwarder ships events off the process, e.g. to NATS JetStream.
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	forwarder  EventForwarder
	audit      logger.ILogger
	logger     logger.ILogger
}

// NewConsumerService drains the domain event topic into the audit log and,
// when forwarder is non-nil, onward to it.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	forwarder EventForwarder,
	audit logger.ILogger,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		forwarder:  forwarder,
		audit:      audit,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.DomainEventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Type == "" {
		cs.logger.Error(consumerModule, "Dropping malformed domain event", map[string]interface{}{
			"message_id": msg.UUID,
		})
		msg.Ack()
		return
	}

	cs.audit.Info(consumerModule, payload.Type, map[string]interface{}{
		"session_id":  payload.SessionID,
		"occurred_at": payload.OccurredAt,
		"data":        payload.Data,
	})

	if cs.forwarder != nil {
		data := payload.Data
		if data == nil {
			data = map[string]interface{}{}
		}
		data["session_id"] = payload.SessionID
		event := events.BaseEvent{Type: payload.Type, Data: data, OccurredAt: payload.OccurredAt}

		// Forwarding is best-effort; a down broker must not stall the bus.
		if err := cs.forwarder.Publish(ctx, event); err != nil {
			cs.logger.Warn(consumerModule, "Failed to forward domain event", map[string]interface{}{
				"type":  payload.Type,
				"error": err.Error(),
			})
		}
	}

	msg.Ack()
}
