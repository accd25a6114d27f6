package nats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golf-concierge-be/pkg/events"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "golf.events.QUIZ_STARTED", Subject(events.QuizStarted))
}

func TestDecodeRoundTrip(t *testing.T) {
	at := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	data, err := json.Marshal(envelope{Type: events.CoursesMatched, Data: map[string]interface{}{"count": 3}, OccurredAt: at})
	require.NoError(t, err)

	ev, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, events.CoursesMatched, ev.EventType())
	assert.Equal(t, float64(3), ev.Payload()["count"])
	assert.True(t, at.Equal(ev.Timestamp()))
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode([]byte(`{"data":{}}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)

	ev, err := Decode([]byte(`{"type":"X"}`))
	require.NoError(t, err)
	assert.NotNil(t, ev.Payload())
}
