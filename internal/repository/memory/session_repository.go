package memory

import (
	"context"
	"time"

	"golf-concierge-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps conversation state in process memory. A ttl of
// zero keeps sessions for the lifetime of the process.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	expiration := ttl
	if ttl <= 0 {
		expiration = cache.NoExpiration
	}
	// Expired items are purged every 10 minutes
	c := cache.New(expiration, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*store.ConversationState, bool, error) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.ConversationState), true, nil
	}
	return nil, false, nil
}

func (r *SessionRepository) Set(ctx context.Context, state *store.ConversationState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	state.UpdatedAt = time.Now()
	r.cache.Set(state.SessionID, state, cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Clear(ctx context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}

// Count reports how many sessions are held, expired ones included until
// the next purge.
func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
