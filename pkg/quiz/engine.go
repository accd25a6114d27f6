package quiz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golf-concierge-be/pkg/preference"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Engine runs the quiz in-process. It keeps no answers of its own: callers
// send prior answers and scores with every submission, as they would to the
// remote service. Only issued session ids are remembered.
type Engine struct {
	bank     *Bank
	sessions *cache.Cache
}

var _ Client = (*Engine)(nil)

func NewEngine(bank *Bank, sessionTTL time.Duration) *Engine {
	if sessionTTL <= 0 {
		sessionTTL = 6 * time.Hour
	}
	return &Engine{
		bank:     bank,
		sessions: cache.New(sessionTTL, 30*time.Minute),
	}
}

// MaxQuestions is the most questions one quiz asks before completing.
func (e *Engine) MaxQuestions() int {
	return e.bank.MaxQuestions
}

func (e *Engine) Start(ctx context.Context, req StartRequest) (*StartResponse, error) {
	if strings.TrimSpace(req.Location) == "" {
		return &StartResponse{NeedsLocation: true}, nil
	}
	if strings.TrimSpace(req.When) == "" {
		return &StartResponse{NeedsWhen: true}, nil
	}

	first, ok := e.bank.Next(nil)
	if !ok {
		return nil, fmt.Errorf("%w: empty question bank", ErrUnavailable)
	}

	sessionID := uuid.NewString()
	e.sessions.Set(sessionID, req, cache.DefaultExpiration)

	return &StartResponse{SessionID: sessionID, Question: &first}, nil
}

func (e *Engine) SubmitAnswer(ctx context.Context, req AnswerRequest) (*AnswerResponse, error) {
	if _, ok := e.sessions.Get(req.SessionID); !ok {
		return nil, ErrUnknownSession
	}

	q, ok := e.bank.Get(req.QuestionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, req.QuestionID)
	}
	if _, done := req.PriorAnswers[q.ID]; done {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyAnswered, q.ID)
	}
	if req.OptionIndex < 0 || req.OptionIndex >= len(q.Options) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidOption, req.OptionIndex, len(q.Options))
	}

	scores := preference.FromMap(req.PriorScores)
	for d, delta := range q.Options[req.OptionIndex].Effects {
		if err := scores.Add(d, delta); err != nil {
			return nil, err
		}
	}

	answers := make(map[string]int, len(req.PriorAnswers)+1)
	for id, idx := range req.PriorAnswers {
		answers[id] = idx
	}
	answers[q.ID] = req.OptionIndex

	// Keep the session alive while the player is still answering.
	e.sessions.Set(req.SessionID, true, cache.DefaultExpiration)

	res := &AnswerResponse{
		Answers: answers,
		Scores:  scores.Map(),
	}

	next, more := e.bank.Next(answers)
	if !more || len(answers) >= e.bank.MaxQuestions {
		e.sessions.Delete(req.SessionID)
		res.Complete = true
		res.Profile = BuildProfile(scores)
		return res, nil
	}

	res.Question = &next
	return res, nil
}

func (e *Engine) Question(ctx context.Context, id string) (*Question, error) {
	q, ok := e.bank.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
	}
	return &q, nil
}
