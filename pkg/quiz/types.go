package quiz

import (
	"context"
	"errors"

	"golf-concierge-be/pkg/preference"
)

var (
	ErrUnavailable      = errors.New("quiz service unavailable")
	ErrUnknownSession   = errors.New("unknown quiz session")
	ErrUnknownQuestion  = errors.New("unknown quiz question")
	ErrInvalidOption    = errors.New("option index out of range")
	ErrAlreadyAnswered  = errors.New("question already answered")
	ErrMalformedPayload = errors.New("malformed quiz payload")
)

// Option is a single answer choice. Effects are score deltas applied to the
// profile when the option is chosen; they never leave the engine.
type Option struct {
	Label   string                           `json:"label" yaml:"label"`
	Effects map[preference.Dimension]float64 `json:"-" yaml:"effects"`
}

type Question struct {
	ID       string   `json:"id" yaml:"id"`
	Text     string   `json:"text" yaml:"text"`
	Options  []Option `json:"options" yaml:"options"`
	Priority float64  `json:"-" yaml:"priority"`
}

// Touches returns the dimensions any option of q moves.
func (q Question) Touches() []preference.Dimension {
	seen := make(map[preference.Dimension]bool)
	var out []preference.Dimension
	for _, d := range preference.Dimensions {
		for _, o := range q.Options {
			if _, ok := o.Effects[d]; ok && !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}

type StartRequest struct {
	Location string `json:"location,omitempty"`
	When     string `json:"when,omitempty"`
}

// StartResponse carries exactly one of: a question with its session, a
// request for the player's location, or a request for their availability.
type StartResponse struct {
	SessionID     string    `json:"session_id,omitempty"`
	Question      *Question `json:"question,omitempty"`
	NeedsLocation bool      `json:"needs_location,omitempty"`
	NeedsWhen     bool      `json:"needs_when,omitempty"`
}

type AnswerRequest struct {
	SessionID    string             `json:"session_id" validate:"required"`
	QuestionID   string             `json:"question_id" validate:"required"`
	OptionIndex  int                `json:"option_index" validate:"gte=0"`
	PriorAnswers map[string]int     `json:"prior_answers,omitempty"`
	PriorScores  map[string]float64 `json:"prior_scores,omitempty"`
}

type AnswerResponse struct {
	Question *Question          `json:"question,omitempty"`
	Answers  map[string]int     `json:"answers"`
	Scores   map[string]float64 `json:"scores"`
	Complete bool               `json:"complete"`
	Profile  *Profile           `json:"profile,omitempty"`
}

type Profile struct {
	Scores        map[string]float64  `json:"scores"`
	Normalized    map[string]float64  `json:"normalized"`
	Archetype     string              `json:"archetype"`
	TopDimensions []preference.Ranked `json:"top_dimensions"`
}

// Client is the quiz lifecycle contract shared by the remote microservice
// and the in-process engine.
type Client interface {
	Start(ctx context.Context, req StartRequest) (*StartResponse, error)
	SubmitAnswer(ctx context.Context, req AnswerRequest) (*AnswerResponse, error)
	Question(ctx context.Context, id string) (*Question, error)
}

var archetypes = map[preference.Dimension]string{
	preference.Difficulty:       "The Competitor",
	preference.Variety:          "The Explorer",
	preference.StrategicPenal:   "The Strategist",
	preference.PhysicalDemand:   "The Walker",
	preference.WeatherTolerance: "The All-Weather Golfer",
	preference.Conditions:       "The Purist",
	preference.Amenities:        "The Clubhouse Regular",
	preference.Service:          "The Country-Club Golfer",
	preference.Value:            "The Value Hunter",
	preference.Aesthetics:       "The Scenic Wanderer",
}

// BuildProfile summarises final scores. All ten dimensions are always present.
func BuildProfile(v preference.Vector) *Profile {
	v = v.Clamped()
	top := v.Top(3)
	archetype := "The All-Rounder"
	if len(top) > 0 && top[0].Score > preference.NeutralScore {
		archetype = archetypes[top[0].Dimension]
	}
	return &Profile{
		Scores:        v.Map(),
		Normalized:    v.Normalized(),
		Archetype:     archetype,
		TopDimensions: top,
	}
}
