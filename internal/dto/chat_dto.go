package dto

import "golf-concierge-be/pkg/quiz"

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
}

// LatestUserMessage returns the content of the last user turn.
func (r *ChatRequest) LatestUserMessage() (string, bool) {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content, true
		}
	}
	return "", false
}

type ChatResponse struct {
	HTML    string        `json:"html"`
	Profile *quiz.Profile `json:"profile,omitempty"`
}

type ResetResponse struct {
	Reset bool `json:"reset"`
}
