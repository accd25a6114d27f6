package synth

import (
	"context"
	"errors"
	"testing"

	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/pkg/llm"
	"golf-concierge-be/pkg/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply string
	err   error
	got   []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.got = history
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

var passages = []retrieval.Passage{
	{SourceURL: "https://golf.example/fescue", Title: "Fescue", Text: "Fescue plays firm and fast."},
	{SourceURL: "https://golf.example/wind", Title: "Wind", Text: "Coastal wind favours low shots."},
}

func TestComposeRefusesWhenNothingFound(t *testing.T) {
	s := NewSynthesizer(&fakeLLM{}, logger.NewNopLogger())
	resp := s.Compose(context.Background(), "q", nil, &retrieval.Result{})
	assert.Equal(t, []string{RefusalMessage}, resp.Paragraphs)
	assert.Empty(t, resp.Links)
	assert.Empty(t, resp.Answer)

	resp = s.Compose(context.Background(), "q", nil, nil)
	assert.Equal(t, []string{RefusalMessage}, resp.Paragraphs)
}

func TestComposeListsLinksWithoutPassages(t *testing.T) {
	f := &fakeLLM{reply: "should not be called"}
	s := NewSynthesizer(f, logger.NewNopLogger())
	resp := s.Compose(context.Background(), "q", nil, &retrieval.Result{Links: []retrieval.Link{{URL: "https://golf.example/a", Title: "A"}}})
	assert.Nil(t, f.got)
	assert.Empty(t, resp.Answer)
	require.Len(t, resp.Links, 1)
	assert.Equal(t, relatedPagesHeading, resp.LinksHeading)
}

func TestComposeFallsBackOnLLMFailure(t *testing.T) {
	res := &retrieval.Result{Passages: passages, Links: []retrieval.Link{{URL: passages[0].SourceURL}, {URL: passages[1].SourceURL}}}

	for _, f := range []*fakeLLM{
		{err: errors.New("timeout")},
		{reply: "INSUFFICIENT_CONTEXT"},
		{reply: "   "},
	} {
		resp := NewSynthesizer(f, logger.NewNopLogger()).Compose(context.Background(), "what about bermuda?", nil, res)
		assert.Empty(t, resp.Answer)
		assert.Len(t, resp.Links, 2)
		assert.Equal(t, relatedPagesHeading, resp.LinksHeading)
	}
}

func TestComposeAnswerWithCitations(t *testing.T) {
	f := &fakeLLM{reply: "Expect firm turf [1] and wind [2]."}
	s := NewSynthesizer(f, logger.NewNopLogger())
	res := &retrieval.Result{
		Passages: passages,
		Links: []retrieval.Link{
			{URL: passages[0].SourceURL}, {URL: passages[1].SourceURL}, {URL: "https://golf.example/extra", Title: "Extra"},
		},
	}

	resp := s.Compose(context.Background(), "How does links golf play?", []llm.Message{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}}, res)

	assert.Contains(t, string(resp.Answer), `href="https://golf.example/fescue"`)
	require.Len(t, resp.Citations, 2)
	assert.Equal(t, 2, resp.Citations[1].Number)
	require.Len(t, resp.Links, 1)
	assert.Equal(t, "https://golf.example/extra", resp.Links[0].URL)

	require.Len(t, f.got, 4)
	assert.Equal(t, llm.RoleSystem, f.got[0].Role)
	assert.Contains(t, f.got[0].Content, InsufficientContext)
	assert.Contains(t, f.got[3].Content, "[2] Wind (https://golf.example/wind)")
	assert.Contains(t, f.got[3].Content, "How does links golf play?")
}
