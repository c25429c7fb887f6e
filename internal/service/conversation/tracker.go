package conversation

import (
	"fmt"
	"sync"
	"time"

	"github.com/huynhducanh/portfolio/backend/internal/model/chat"
)

// Tracker keeps the active conversations relayed to the AI service.
// Every method is safe for concurrent use.
type Tracker struct {
	mu            sync.RWMutex
	conversations map[string]*chat.Conversation
	now           func() time.Time

	idMu      sync.Mutex
	lastStamp int64
}

// NewTracker builds an empty tracker. A nil clock means time.Now.
func NewTracker(clock func() time.Time) *Tracker {
	if clock == nil {
		clock = time.Now
	}
	return &Tracker{
		conversations: make(map[string]*chat.Conversation),
		now:           clock,
	}
}

// NewID generates a conversation id from the current time and the owning
// connection id. Timestamps are forced to be strictly increasing so ids stay
// unique for the lifetime of the process even within one clock tick.
func (t *Tracker) NewID(ownerConnectionID string) string {
	ts := t.now().UnixNano()

	t.idMu.Lock()
	if ts <= t.lastStamp {
		ts = t.lastStamp + 1
	}
	t.lastStamp = ts
	t.idMu.Unlock()

	return fmt.Sprintf("conv_%d_%s", ts, ownerConnectionID)
}

// Ensure returns the conversation with id, creating it with a zero message
// count when absent. Existing entries are returned untouched.
func (t *Tracker) Ensure(id, ownerConnectionID, title string, ctx chat.Context) chat.Conversation {
	now := t.now().UTC()

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.conversations[id]; ok {
		return *existing
	}

	if ctx == "" {
		ctx = chat.DefaultContext
	}

	c := &chat.Conversation{
		ID:           id,
		ConnectionID: ownerConnectionID,
		Title:        title,
		Context:      ctx,
		StartedAt:    now,
	}
	t.conversations[id] = c
	return *c
}

// RecordMessage increments the message count and bumps the activity time.
// Unknown ids are ignored since a message may race with eviction.
func (t *Tracker) RecordMessage(id string) {
	now := t.now().UTC()

	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.conversations[id]; ok {
		c.MessageCount++
		c.LastActivity = now
	}
}

// End removes the conversation and returns its last state.
func (t *Tracker) End(id string) (chat.Conversation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.conversations[id]
	if !ok {
		return chat.Conversation{}, false
	}
	delete(t.conversations, id)
	return *c, true
}

// EndAllOwnedBy removes every conversation owned by connectionID.
func (t *Tracker) EndAllOwnedBy(connectionID string) []chat.Conversation {
	t.mu.Lock()
	defer t.mu.Unlock()

	var removed []chat.Conversation
	for id, c := range t.conversations {
		if c.ConnectionID == connectionID {
			removed = append(removed, *c)
			delete(t.conversations, id)
		}
	}
	return removed
}

// IsIdleSince reports whether the conversation saw no activity for more
// than timeout before now. Unknown ids are not idle.
func (t *Tracker) IsIdleSince(id string, now time.Time, timeout time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c, ok := t.conversations[id]
	if !ok {
		return false
	}
	return now.Sub(c.LastSeen()) > timeout
}

// Get returns a copy of the conversation.
func (t *Tracker) Get(id string) (chat.Conversation, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c, ok := t.conversations[id]
	if !ok {
		return chat.Conversation{}, false
	}
	return *c, true
}

// All returns a snapshot of every conversation, in no particular order.
func (t *Tracker) All() []chat.Conversation {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]chat.Conversation, 0, len(t.conversations))
	for _, c := range t.conversations {
		out = append(out, *c)
	}
	return out
}

// Len returns the number of tracked conversations.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.conversations)
}

// EvictIdle removes conversations idle for more than timeout and returns them.
func (t *Tracker) EvictIdle(now time.Time, timeout time.Duration) []chat.Conversation {
	t.mu.Lock()
	defer t.mu.Unlock()

	var evicted []chat.Conversation
	for id, c := range t.conversations {
		if now.Sub(c.LastSeen()) > timeout {
			evicted = append(evicted, *c)
			delete(t.conversations, id)
		}
	}
	return evicted
}
