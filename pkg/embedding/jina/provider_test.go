package jina

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golf-concierge-be/pkg/embedding"
)

func TestGenerateSendsTaskAndDimensions(t *testing.T) {
	var got embeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		vec := make([]float32, embedding.Dimensions)
		vec[0] = 2
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": vec}},
		})
	}))
	defer srv.Close()

	p := NewJinaProvider("secret", srv.URL, "")
	res, err := p.Generate(context.Background(), "links golf near Bandon", embedding.TaskRetrievalQuery)
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, "retrieval.query", got.Task)
	assert.Equal(t, embedding.Dimensions, got.Dimensions)
	assert.Equal(t, []string{"links golf near Bandon"}, got.Input)
	require.Len(t, res.Embedding.Values, embedding.Dimensions)
	assert.InDelta(t, 1.0, res.Embedding.Values[0], 1e-6)
}

func TestGenerateErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/denied":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
		case "/short":
			_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.1,0.2]}]}`))
		default:
			_, _ = w.Write([]byte(`{"data":[]}`))
		}
	}))
	defer srv.Close()

	_, err := NewJinaProvider("k", srv.URL+"/denied", "").Generate(context.Background(), "x", embedding.TaskRetrievalDocument)
	assert.ErrorContains(t, err, "invalid api key")

	_, err = NewJinaProvider("k", srv.URL+"/short", "").Generate(context.Background(), "x", embedding.TaskRetrievalDocument)
	assert.ErrorContains(t, err, "dimensions")

	_, err = NewJinaProvider("k", srv.URL+"/empty", "").Generate(context.Background(), "x", embedding.TaskRetrievalDocument)
	assert.ErrorContains(t, err, "empty embeddings")
}
