package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// JinaReranker calls the Jina rerank API.
type JinaReranker struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
	Detail string `json:"detail,omitempty"`
}

func NewJinaReranker(apiKey, baseURL, model string) *JinaReranker {
	if baseURL == "" {
		baseURL = "https://api.jina.ai/v1/rerank"
	}
	if model == "" {
		model = "jina-reranker-v2-base-multilingual"
	}
	return &JinaReranker{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *JinaReranker) Rerank(ctx context.Context, query string, documents []string) ([]int, error) {
	payload, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: documents,
		TopN:      len(documents),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jina rerank error (status %d): %s", resp.StatusCode, string(body))
	}

	var out rerankResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}
	if len(out.Results) == 0 {
		return nil, fmt.Errorf("empty rerank results")
	}

	order := make([]int, len(out.Results))
	for i, res := range out.Results {
		order[i] = res.Index
	}
	return order, nil
}
