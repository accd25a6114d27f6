package openai

import (
	"context"
	"fmt"
	"strings"

	"golf-concierge-be/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	model  string
	client *goopenai.Client
}

var _ llm.LLMProvider = &OpenAIProvider{}

// NewOpenAIProvider builds a provider for OpenAI or any server speaking its
// chat completions API when baseURL is set.
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = goopenai.GPT4oMini
	}
	return &OpenAIProvider{
		model:  model,
		client: goopenai.NewClientWithConfig(cfg),
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.Apply(llm.Options{Model: p.model, Temperature: 0.2}, options...)

	msgs := make([]goopenai.ChatCompletionMessage, len(history))
	for i, m := range history {
		msgs[i] = goopenai.ChatCompletionMessage{
			Role:    llm.NormalizeRole(m.Role),
			Content: m.Content,
		}
	}

	req := goopenai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    msgs,
		Temperature: float32(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", llm.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}
