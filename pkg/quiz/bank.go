package quiz

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"golf-concierge-be/pkg/preference"

	"gopkg.in/yaml.v3"
)

//go:embed bank.yaml
var defaultBank []byte

const defaultMaxQuestions = 8

// Bank is an ordered set of questions. Order is the tie-breaker for
// next-question selection.
type Bank struct {
	MaxQuestions int        `yaml:"max_questions"`
	Questions    []Question `yaml:"questions"`

	index map[string]int
}

// DefaultBank returns the embedded question bank.
func DefaultBank() (*Bank, error) {
	return LoadBank(bytes.NewReader(defaultBank))
}

// LoadBankFile reads a bank from a YAML file on disk.
func LoadBankFile(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open quiz bank: %w", err)
	}
	defer f.Close()
	return LoadBank(f)
}

func LoadBank(r io.Reader) (*Bank, error) {
	var b Bank
	if err := yaml.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode quiz bank: %w", err)
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *Bank) validate() error {
	if len(b.Questions) == 0 {
		return fmt.Errorf("quiz bank has no questions")
	}
	if b.MaxQuestions <= 0 {
		b.MaxQuestions = defaultMaxQuestions
	}
	if b.MaxQuestions > len(b.Questions) {
		b.MaxQuestions = len(b.Questions)
	}

	b.index = make(map[string]int, len(b.Questions))
	for i, q := range b.Questions {
		if q.ID == "" {
			return fmt.Errorf("quiz bank question %d has no id", i)
		}
		if _, dup := b.index[q.ID]; dup {
			return fmt.Errorf("quiz bank has duplicate question id %q", q.ID)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("question %q needs at least two options", q.ID)
		}
		for _, o := range q.Options {
			for d := range o.Effects {
				if !d.IsValid() {
					return fmt.Errorf("question %q references unknown dimension %q", q.ID, d)
				}
			}
		}
		b.index[q.ID] = i
	}
	return nil
}

// Get returns the question with the given id.
func (b *Bank) Get(id string) (Question, bool) {
	i, ok := b.index[id]
	if !ok {
		return Question{}, false
	}
	return b.Questions[i], true
}

const coverageWeight = 1.0

// Next picks the unanswered question with the highest
// priority + Σ coverageWeight/(1+coverage[dim]) over the dimensions it touches,
// where coverage counts answered questions touching that dimension.
// Returns false when every question has been answered.
func (b *Bank) Next(answered map[string]int) (Question, bool) {
	coverage := make(map[preference.Dimension]int)
	for id := range answered {
		q, ok := b.Get(id)
		if !ok {
			continue
		}
		for _, d := range q.Touches() {
			coverage[d]++
		}
	}

	best := -1
	bestScore := 0.0
	for i, q := range b.Questions {
		if _, done := answered[q.ID]; done {
			continue
		}
		score := q.Priority
		for _, d := range q.Touches() {
			score += coverageWeight / float64(1+coverage[d])
		}
		if best == -1 || score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best == -1 {
		return Question{}, false
	}
	return b.Questions[best], true
}
