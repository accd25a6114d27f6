package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golf-concierge-be/pkg/embedding"
)

const (
	DefaultBaseURL = "https://api.jina.ai/v1/embeddings"
	DefaultModel   = "jina-embeddings-v3"
)

// Jina v3 adapters; queries and site passages embed asymmetrically.
var tasks = map[string]string{
	embedding.TaskRetrievalQuery:    "retrieval.query",
	embedding.TaskRetrievalDocument: "retrieval.passage",
}

type JinaProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Task       string   `json:"task,omitempty"`
	Dimensions int      `json:"dimensions"`
	Normalized bool     `json:"normalized"`
	Input      []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Detail string `json:"detail,omitempty"`
}

// NewJinaProvider builds a provider for the hosted API. Empty baseURL or
// model fall back to the defaults.
func NewJinaProvider(apiKey, baseURL, model string) *JinaProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &JinaProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *JinaProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	body, err := json.Marshal(embeddingRequest{
		Model:      p.model,
		Task:       tasks[taskType],
		Dimensions: embedding.Dimensions,
		Normalized: true,
		Input:      []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jina request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read jina response: %w", err)
	}

	var out embeddingResponse
	if jsonErr := json.Unmarshal(raw, &out); jsonErr != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("failed to decode response: %w", jsonErr)
	}
	if resp.StatusCode != http.StatusOK {
		msg := out.Detail
		if msg == "" {
			msg = string(raw)
		}
		return nil, fmt.Errorf("jina api error (status %d): %s", resp.StatusCode, msg)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embeddings from jina api")
	}
	if got := len(out.Data[0].Embedding); got != embedding.Dimensions {
		return nil, fmt.Errorf("jina returned %d dimensions, want %d", got, embedding.Dimensions)
	}

	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{
			Values: embedding.Normalize(out.Data[0].Embedding),
		},
	}, nil
}
