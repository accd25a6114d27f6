package synth

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/pkg/llm"
	"golf-concierge-be/pkg/render"
	"golf-concierge-be/pkg/retrieval"
)

const moduleName = "Synthesizer"

// RefusalMessage is the reply when nothing relevant was found at all.
const RefusalMessage = "Sorry, I couldn't find anything on our site about that. Try rephrasing, or say \"quiz\" and I'll match you with a course."

const relatedPagesHeading = "I couldn't put together a confident answer, but these pages look relevant:"

var ErrInsufficientContext = errors.New("model reported insufficient context")

type Answer struct {
	Markdown  string
	HTML      template.HTML
	Citations []render.Citation
}

type Synthesizer struct {
	llm    llm.LLMProvider
	logger logger.ILogger
}

func NewSynthesizer(provider llm.LLMProvider, log logger.ILogger) *Synthesizer {
	return &Synthesizer{llm: provider, logger: log}
}

// Answer asks the model for a grounded reply over passages.
func (s *Synthesizer) Answer(ctx context.Context, query string, history []llm.Message, passages []retrieval.Passage) (*Answer, error) {
	if len(passages) == 0 {
		return nil, ErrInsufficientContext
	}

	msgs := NewPromptBuilder(query, passages, history).Messages()
	reply, err := s.llm.Chat(ctx, msgs, llm.WithTemperature(0.2), llm.WithMaxTokens(600))
	if err != nil {
		return nil, fmt.Errorf("llm chat: %w", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" || strings.Contains(reply, InsufficientContext) {
		return nil, ErrInsufficientContext
	}

	urls := make([]string, len(passages))
	for i, p := range passages {
		urls[i] = p.SourceURL
	}
	linked, cited := render.LinkCitations(reply, urls)

	citations := make([]render.Citation, 0, len(cited))
	for _, n := range cited {
		p := passages[n-1]
		citations = append(citations, render.Citation{Number: n, URL: p.SourceURL, Title: p.Title})
	}

	return &Answer{
		Markdown:  reply,
		HTML:      render.Markdown(linked),
		Citations: citations,
	}, nil
}

// Compose applies the fallback policy: a cited answer when the model can
// ground one, otherwise the relevant pages, otherwise the refusal.
func (s *Synthesizer) Compose(ctx context.Context, query string, history []llm.Message, res *retrieval.Result) *render.Response {
	if res.Empty() {
		return render.Text(RefusalMessage)
	}

	links := toRenderLinks(res.Links)
	if len(res.Passages) == 0 {
		return &render.Response{LinksHeading: relatedPagesHeading, Links: links}
	}

	answer, err := s.Answer(ctx, query, history, res.Passages)
	if err != nil {
		level := s.logger.Warn
		if errors.Is(err, ErrInsufficientContext) {
			level = s.logger.Info
		}
		level(moduleName, "Falling back to related pages", map[string]interface{}{
			"error":    err.Error(),
			"passages": len(res.Passages),
		})
		return &render.Response{LinksHeading: relatedPagesHeading, Links: links}
	}

	heading := "Sources:"
	if len(answer.Citations) > 0 {
		heading = "More reading:"
	}
	return &render.Response{
		Answer:       answer.HTML,
		Citations:    answer.Citations,
		LinksHeading: heading,
		Links:        uncited(links, answer.Citations),
	}
}

func toRenderLinks(in []retrieval.Link) []render.Link {
	out := make([]render.Link, len(in))
	for i, l := range in {
		out[i] = render.Link{URL: l.URL, Title: l.Title}
	}
	return out
}

func uncited(links []render.Link, citations []render.Citation) []render.Link {
	cited := make(map[string]bool, len(citations))
	for _, c := range citations {
		cited[c.URL] = true
	}
	var out []render.Link
	for _, l := range links {
		if !cited[l.URL] {
			out = append(out, l)
		}
	}
	return out
}
