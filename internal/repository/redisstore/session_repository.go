package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golf-concierge-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "gc:session:"

// SessionRepository stores conversation state as JSON under prefixed keys.
type SessionRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSessionRepository returns a store backed by client. A ttl of zero
// keeps keys until they are cleared.
func NewSessionRepository(client *redis.Client, prefix string, ttl time.Duration) *SessionRepository {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &SessionRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *SessionRepository) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*store.ConversationState, bool, error) {
	val, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get session: %w", err)
	}

	var state store.ConversationState
	if err := json.Unmarshal(val, &state); err != nil {
		// A corrupt entry is treated as a fresh session.
		return nil, false, nil
	}
	return &state, true, nil
}

func (r *SessionRepository) Set(ctx context.Context, state *store.ConversationState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	state.UpdatedAt = time.Now()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(state.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
