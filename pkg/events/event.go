package events

import "time"

const (
	QuizStarted    = "QUIZ_STARTED"
	QuizCompleted  = "QUIZ_COMPLETED"
	ChatAnswered   = "CHAT_ANSWERED"
	CoursesMatched = "COURSES_MATCHED"
)

// Event defines the contract for all domain events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "QUIZ_STARTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

// New stamps an event with the current time.
func New(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
