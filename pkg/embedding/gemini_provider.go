package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1/models/%s:embedContent"

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Model    string        `json:"model"`
	Content  geminiContent `json:"content"`
	TaskType string        `json:"task_type,omitempty"`
}

type GeminiProvider struct {
	ApiKey   string
	Model    string
	endpoint string
	client   *http.Client
}

func NewGeminiProvider(apiKey string) *GeminiProvider {
	return &GeminiProvider{
		ApiKey:   apiKey,
		Model:    "text-embedding-004",
		endpoint: geminiEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	body, err := json.Marshal(geminiRequest{
		Model:    p.Model,
		Content:  geminiContent{Parts: []geminiPart{{Text: text}}},
		TaskType: taskType,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf(p.endpoint, p.Model), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request: %w", err)
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error from gemini response, code %d, body %s", res.StatusCode, string(resByte))
	}

	var out EmbeddingResponse
	if err := json.Unmarshal(resByte, &out); err != nil {
		return nil, fmt.Errorf("decode gemini embedding: %w", err)
	}
	if len(out.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding from gemini")
	}
	return &out, nil
}
