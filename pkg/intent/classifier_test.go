package intent

import (
	"testing"

	"golf-concierge-be/pkg/quiz"
	"golf-concierge-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateAwaitingAnswer(t *testing.T) *store.ConversationState {
	t.Helper()
	st := store.NewConversationState("sid")
	require.NoError(t, st.AskQuestion("quiz-1", &quiz.Question{
		ID:      "q1",
		Options: []quiz.Option{{Label: "a"}, {Label: "b"}, {Label: "c"}},
	}))
	return st
}

func TestClassify(t *testing.T) {
	idle := store.NewConversationState("sid")
	answering := stateAwaitingAnswer(t)
	awaitingLoc := store.NewConversationState("sid")
	awaitingLoc.Stage = store.StageAwaitingLocation
	awaitingWhen := store.NewConversationState("sid")
	awaitingWhen.Stage = store.StageAwaitingAvailability

	tests := []struct {
		name  string
		text  string
		state *store.ConversationState
		want  Intent
	}{
		{"cancel idle", "cancel", idle, Intent{Kind: KindCancel}},
		{"cancel mid quiz", " Stop! ", answering, Intent{Kind: KindCancel}},
		{"quit", "quit", awaitingLoc, Intent{Kind: KindCancel}},
		{"start quiz", "Can I take the quiz?", idle, Intent{Kind: KindStart}},
		{"find course", "find me a golf course", idle, Intent{Kind: KindStart}},
		{"start ignored while answering", "start quiz", answering, Intent{Kind: KindHelp}},
		{"bare number", "2", answering, Intent{Kind: KindPick, Index: 1}},
		{"hash number", "#3", answering, Intent{Kind: KindPick, Index: 2}},
		{"option prefix", "option 1", answering, Intent{Kind: KindPick, Index: 0}},
		{"pick prefix", "Pick 2.", answering, Intent{Kind: KindPick, Index: 1}},
		{"number without question", "2", idle, Intent{Kind: KindFreeText, Text: "2"}},
		{"when sentinel", "__WHEN__:tomorrow", awaitingWhen, Intent{Kind: KindDate, When: "tomorrow"}},
		{"free text when", "this weekend works", awaitingWhen, Intent{Kind: KindDate, When: "this weekend works"}},
		{"show links", "Show links", idle, Intent{Kind: KindShowLinks}},
		{"sources", "sources", answering, Intent{Kind: KindShowLinks}},
		{"free text", "What is a links course?", idle, Intent{Kind: KindFreeText, Text: "What is a links course?"}},
		{"nil state free text", "hello", nil, Intent{Kind: KindFreeText, Text: "hello"}},
		{"chatter mid quiz", "hmm not sure", answering, Intent{Kind: KindHelp}},
		{"empty", "   ", idle, Intent{Kind: KindHelp}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text, tt.state))
		})
	}
}

func TestClassifyLocationCapture(t *testing.T) {
	st := store.NewConversationState("sid")
	st.Stage = store.StageAwaitingLocation

	got := Classify("__LOCATION__:35.19,-79.47|Pinehurst, NC", st)
	require.Equal(t, KindLocation, got.Kind)
	assert.Equal(t, "Pinehurst, NC", got.Location.Name)
	assert.True(t, got.Location.HasCoords)
	assert.InDelta(t, 35.19, got.Location.Latitude, 1e-9)
	assert.InDelta(t, -79.47, got.Location.Longitude, 1e-9)

	got = Classify("somewhere near Scottsdale, AZ please", st)
	require.Equal(t, KindLocation, got.Kind)
	assert.Equal(t, "Scottsdale, AZ", got.Location.Name)
	assert.False(t, got.Location.HasCoords)

	got = Classify("Austin", st)
	require.Equal(t, KindLocation, got.Kind)
	assert.Equal(t, "Austin", got.Location.Name)

	got = Classify("__LOCATION__:999,1|Nowhere", nil)
	require.Equal(t, KindLocation, got.Kind)
	assert.False(t, got.Location.HasCoords)
}

func TestClassifyDoesNotMutateState(t *testing.T) {
	st := stateAwaitingAnswer(t)
	before := *st
	_ = Classify("cancel", st)
	_ = Classify("2", st)
	assert.Equal(t, before.Stage, st.Stage)
	assert.Equal(t, before.CurrentQuestion, st.CurrentQuestion)
}
