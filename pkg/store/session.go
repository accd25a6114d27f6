package store

import (
	"context"
	"errors"
	"time"

	"golf-concierge-be/pkg/preference"
	"golf-concierge-be/pkg/quiz"
)

var ErrInvalidState = errors.New("conversation state is inconsistent")

// MaxShownLinks bounds ConversationState.LastShownLinks.
const MaxShownLinks = 8

// Stage is where the conversation sits in the quiz flow.
type Stage string

const (
	StageIdle                 Stage = "IDLE"
	StageAwaitingLocation     Stage = "AWAITING_LOCATION"
	StageAwaitingAvailability Stage = "AWAITING_AVAILABILITY"
	StageAwaitingAnswer       Stage = "AWAITING_ANSWER"
)

type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	HasCoords bool    `json:"has_coords"`
}

type AvailabilityWindow struct {
	Label string    `json:"label"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
}

type Link struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ConversationState is everything remembered about one browser session.
type ConversationState struct {
	SessionID string `json:"session_id"`
	Stage     Stage  `json:"stage"`

	// Quiz progress. CurrentQuestion != nil implies QuizSessionID != "".
	QuizSessionID     string            `json:"quiz_session_id,omitempty"`
	CurrentQuestion   *quiz.Question    `json:"current_question,omitempty"`
	AnsweredQuestions map[string]int    `json:"answered_questions,omitempty"`
	Scores            preference.Vector `json:"scores"`
	LastProfile       *quiz.Profile     `json:"last_profile,omitempty"`

	CachedLocation     *Location           `json:"cached_location,omitempty"`
	CachedAvailability *AvailabilityWindow `json:"cached_availability,omitempty"`
	LastShownLinks     []Link              `json:"last_shown_links,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversationState returns an idle state with neutral scores.
func NewConversationState(sessionID string) *ConversationState {
	return &ConversationState{
		SessionID:         sessionID,
		Stage:             StageIdle,
		AnsweredQuestions: map[string]int{},
		Scores:            preference.Neutral(),
	}
}

// QuizActive reports whether a quiz is in progress, including onboarding.
func (s *ConversationState) QuizActive() bool {
	return s.Stage != StageIdle && s.Stage != ""
}

// AwaitingAnswer reports whether a numeric reply would answer a question.
func (s *ConversationState) AwaitingAnswer() bool {
	return s.Stage == StageAwaitingAnswer && s.CurrentQuestion != nil
}

// AskQuestion records the question the player must answer next.
func (s *ConversationState) AskQuestion(quizSessionID string, q *quiz.Question) error {
	if quizSessionID == "" || q == nil {
		return ErrInvalidState
	}
	s.QuizSessionID = quizSessionID
	s.CurrentQuestion = q
	s.Stage = StageAwaitingAnswer
	if s.AnsweredQuestions == nil {
		s.AnsweredQuestions = map[string]int{}
	}
	return nil
}

// RecordAnswers replaces quiz progress with what the quiz service returned.
func (s *ConversationState) RecordAnswers(answers map[string]int, scores map[string]float64) {
	s.AnsweredQuestions = make(map[string]int, len(answers))
	for k, v := range answers {
		s.AnsweredQuestions[k] = v
	}
	s.Scores = preference.FromMap(scores)
}

// ResetQuiz drops quiz progress and returns to idle. Cached location and
// availability survive so a restarted quiz can skip onboarding.
func (s *ConversationState) ResetQuiz() {
	s.Stage = StageIdle
	s.QuizSessionID = ""
	s.CurrentQuestion = nil
	s.AnsweredQuestions = map[string]int{}
	s.Scores = preference.Neutral()
}

// RememberLinks keeps at most MaxShownLinks, newest first, unique by URL.
func (s *ConversationState) RememberLinks(links []Link) {
	seen := make(map[string]bool)
	out := make([]Link, 0, MaxShownLinks)
	for _, l := range append(append([]Link{}, links...), s.LastShownLinks...) {
		if l.URL == "" || seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		out = append(out, l)
		if len(out) == MaxShownLinks {
			break
		}
	}
	s.LastShownLinks = out
}

// Validate checks the quiz invariants.
func (s *ConversationState) Validate() error {
	if s.SessionID == "" {
		return ErrInvalidState
	}
	if s.CurrentQuestion != nil && s.QuizSessionID == "" {
		return ErrInvalidState
	}
	if s.Stage == StageAwaitingAnswer && s.CurrentQuestion == nil {
		return ErrInvalidState
	}
	if len(s.LastShownLinks) > MaxShownLinks {
		return ErrInvalidState
	}
	return nil
}

// SessionStore persists conversation state keyed by session id.
type SessionStore interface {
	// Get returns (nil, false, nil) when nothing is stored for id.
	Get(ctx context.Context, id string) (*ConversationState, bool, error)
	Set(ctx context.Context, state *ConversationState) error
	Clear(ctx context.Context, id string) error
}

type sessionIDKey struct{}

// WithSessionID attaches the caller's session id to ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFrom returns the session id attached by WithSessionID.
func SessionIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey{}).(string)
	return id, ok && id != ""
}
