package service

import (
	"context"
	"encoding/json"
	"fmt"

	"golf-concierge-be/internal/dto"
	"golf-concierge-be/pkg/events"
	"golf-concierge-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

// Publish puts event on the in-process bus, tagged with the caller's session.
func (p *publisherService) Publish(ctx context.Context, event events.Event) error {
	sid, _ := store.SessionIDFrom(ctx)
	payload, err := json.Marshal(dto.DomainEventMessage{
		Type:       event.EventType(),
		SessionID:  sid,
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("marshal domain event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.publisher.Publish(p.topicName, msg); err != nil {
		return fmt.Errorf("publish domain event: %w", err)
	}
	return nil
}
