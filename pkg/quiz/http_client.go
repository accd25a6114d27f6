package quiz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient talks to a remote quiz microservice. One attempt per call.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Start(ctx context.Context, req StartRequest) (*StartResponse, error) {
	var res StartResponse
	if err := c.do(ctx, http.MethodPost, "/start", req, &res); err != nil {
		return nil, err
	}
	if !res.NeedsLocation && !res.NeedsWhen && (res.Question == nil || res.SessionID == "") {
		return nil, fmt.Errorf("%w: start returned neither a question nor an onboarding step", ErrMalformedPayload)
	}
	return &res, nil
}

func (c *HTTPClient) SubmitAnswer(ctx context.Context, req AnswerRequest) (*AnswerResponse, error) {
	var res AnswerResponse
	if err := c.do(ctx, http.MethodPost, "/answer", req, &res); err != nil {
		return nil, err
	}
	if res.Complete && res.Profile == nil {
		return nil, fmt.Errorf("%w: complete without profile", ErrMalformedPayload)
	}
	if !res.Complete && res.Question == nil {
		return nil, fmt.Errorf("%w: answer returned no next question", ErrMalformedPayload)
	}
	return &res, nil
}

func (c *HTTPClient) Question(ctx context.Context, id string) (*Question, error) {
	var q Question
	if err := c.do(ctx, http.MethodGet, "/question/"+url.PathEscape(id), nil, &q); err != nil {
		return nil, err
	}
	if q.ID == "" {
		return nil, fmt.Errorf("%w: question without id", ErrMalformedPayload)
	}
	return &q, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal quiz request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create quiz request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, path)
	case resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: %s", ErrUnknownSession, path)
	case resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d, body: %s", ErrUnavailable, resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}
