package session

import (
	"sync"
	"time"

	"github.com/huynhducanh/portfolio/backend/internal/model/chat"
)

// Registry tracks the chat widget connections currently known to the relay.
// Every method is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Session
	now      func() time.Time
}

// NewRegistry builds an empty registry. A nil clock means time.Now.
func NewRegistry(clock func() time.Time) *Registry {
	if clock == nil {
		clock = time.Now
	}
	return &Registry{
		sessions: make(map[string]*chat.Session),
		now:      clock,
	}
}

// Register creates the session for connectionID, or updates the existing
// entry in place (display name and liveness) when already known.
func (r *Registry) Register(connectionID, displayName string) chat.Session {
	now := r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[connectionID]; ok {
		existing.DisplayName = displayName
		existing.LastActive = now
		return *existing
	}

	s := &chat.Session{
		ConnectionID: connectionID,
		DisplayName:  displayName,
		ConnectedAt:  now,
		LastActive:   now,
	}
	r.sessions[connectionID] = s
	return *s
}

// Touch refreshes the liveness timestamp. Unknown ids are ignored.
func (r *Registry) Touch(connectionID string) {
	now := r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[connectionID]; ok {
		s.LastActive = now
	}
}

// SetActivity records the page and activity label the visitor reported.
func (r *Registry) SetActivity(connectionID, page, activity string) {
	now := r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[connectionID]; ok {
		s.LastActive = now
		s.CurrentPage = page
		s.Activity = activity
	}
}

// Remove deletes the session and returns its last state.
func (r *Registry) Remove(connectionID string) (chat.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return chat.Session{}, false
	}
	delete(r.sessions, connectionID)
	return *s, true
}

// Get returns a copy of the session.
func (r *Registry) Get(connectionID string) (chat.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connectionID]
	if !ok {
		return chat.Session{}, false
	}
	return *s, true
}

// IsKnown reports whether connectionID is registered.
func (r *Registry) IsKnown(connectionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[connectionID]
	return ok
}

// All returns a snapshot of every session, in no particular order.
func (r *Registry) All() []chat.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]chat.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle removes sessions whose last activity is more than timeout
// before now and returns them.
func (r *Registry) EvictIdle(now time.Time, timeout time.Duration) []chat.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []chat.Session
	for id, s := range r.sessions {
		if now.Sub(s.LastActive) > timeout {
			evicted = append(evicted, *s)
			delete(r.sessions, id)
		}
	}
	return evicted
}
