package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"keywordpulse/pkg/logger"
)

// Registry keeps at most a fixed number of sessions in memory. A session expires once it has not
// been read or written for the configured TTL, and the least recently used one is evicted first
// when the registry is full.
type Registry struct {
	cache *expirable.LRU[string, *Session]
	ttl   time.Duration
	now   func() time.Time
	log   *logger.Logger
}

func NewRegistry(maxSessions int, ttl time.Duration) *Registry {
	r := &Registry{
		ttl: ttl,
		now: time.Now,
		log: logger.GetLogger().Component("session_registry"),
	}
	r.cache = expirable.NewLRU[string, *Session](maxSessions, r.onEvict, ttl)
	return r
}

// Create stores a fresh session under a random id.
func (r *Registry) Create() *Session {
	s := New(uuid.NewString(), r.now())
	r.cache.Add(s.ID, s)
	r.log.WithField("session_id", s.ID).Debug("Session created")
	return s
}

// Get returns the session and renews its expiry.
func (r *Registry) Get(id string) (*Session, error) {
	s, ok := r.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	// expirable.LRU only renews on Add.
	r.cache.Add(id, s)
	return s, nil
}

func (r *Registry) Remove(id string) bool {
	return r.cache.Remove(id)
}

func (r *Registry) Len() int {
	return r.cache.Len()
}

func (r *Registry) onEvict(id string, _ *Session) {
	r.log.WithField("session_id", id).Debug("Session evicted")
}
