package conversation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huynhducanh/portfolio/backend/internal/model/chat"
	"github.com/huynhducanh/portfolio/backend/internal/service/conversation"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time           { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTracker() (*conversation.Tracker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	return conversation.NewTracker(clock.Now), clock
}

func TestEnsureCreatesOnceAndReturnsExisting(t *testing.T) {
	tr, clock := newTracker()

	created := tr.Ensure("c1", "conn-1", "Projects", chat.ContextTechnical)
	assert.Equal(t, 0, created.MessageCount)
	assert.Equal(t, clock.now, created.StartedAt)
	assert.True(t, created.LastActivity.IsZero())

	tr.RecordMessage("c1")
	again := tr.Ensure("c1", "conn-2", "Other", chat.ContextGeneral)
	assert.Equal(t, "conn-1", again.ConnectionID)
	assert.Equal(t, "Projects", again.Title)
	assert.Equal(t, chat.ContextTechnical, again.Context)
	assert.Equal(t, 1, again.MessageCount)
	assert.Equal(t, 1, tr.Len())
}

func TestEnsureDefaultsContext(t *testing.T) {
	tr, _ := newTracker()
	c := tr.Ensure("c1", "conn-1", "", "")
	assert.Equal(t, chat.ContextPortfolio, c.Context)
}

func TestRecordMessageIncrementsByOne(t *testing.T) {
	tr, clock := newTracker()
	tr.Ensure("c1", "conn-1", "", chat.ContextPortfolio)

	for i := 1; i <= 3; i++ {
		clock.Advance(time.Second)
		tr.RecordMessage("c1")
		got, ok := tr.Get("c1")
		require.True(t, ok)
		assert.Equal(t, i, got.MessageCount)
		assert.Equal(t, clock.now, got.LastActivity)
	}
}

func TestRecordMessageOnUnknownIsNoop(t *testing.T) {
	tr, _ := newTracker()
	tr.RecordMessage("ghost")
	assert.Zero(t, tr.Len())
}

func TestEndReturnsPriorValue(t *testing.T) {
	tr, _ := newTracker()
	tr.Ensure("c1", "conn-1", "Custom", chat.ContextPortfolio)

	prev, ok := tr.End("c1")
	require.True(t, ok)
	assert.Equal(t, "Custom", prev.Title)

	_, ok = tr.End("c1")
	assert.False(t, ok)
}

func TestEndAllOwnedBy(t *testing.T) {
	tr, _ := newTracker()
	tr.Ensure("a1", "conn-a", "", "")
	tr.Ensure("a2", "conn-a", "", "")
	tr.Ensure("b1", "conn-b", "", "")

	removed := tr.EndAllOwnedBy("conn-a")
	assert.Len(t, removed, 2)
	for _, c := range tr.All() {
		assert.NotEqual(t, "conn-a", c.ConnectionID)
	}
	assert.Equal(t, 1, tr.Len())
}

func TestIsIdleSinceFallsBackToStartedAt(t *testing.T) {
	tr, clock := newTracker()
	start := clock.now
	timeout := 30 * time.Minute
	tr.Ensure("c1", "conn-1", "", "")

	assert.False(t, tr.IsIdleSince("c1", start.Add(timeout), timeout))
	assert.True(t, tr.IsIdleSince("c1", start.Add(timeout+time.Second), timeout))

	clock.Advance(20 * time.Minute)
	tr.RecordMessage("c1")
	assert.False(t, tr.IsIdleSince("c1", start.Add(timeout+time.Second), timeout))
	assert.False(t, tr.IsIdleSince("ghost", start.Add(time.Hour), timeout))
}

func TestEvictIdle(t *testing.T) {
	tr, clock := newTracker()
	start := clock.now
	timeout := 30 * time.Minute
	tr.Ensure("stale", "conn-1", "", "")
	clock.Advance(10 * time.Minute)
	tr.Ensure("fresh", "conn-1", "", "")

	evicted := tr.EvictIdle(start.Add(timeout+time.Second), timeout)
	require.Len(t, evicted, 1)
	assert.Equal(t, "stale", evicted[0].ID)

	_, ok := tr.Get("fresh")
	assert.True(t, ok)
}

func TestNewIDUniqueWithinOneTick(t *testing.T) {
	tr, _ := newTracker()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := tr.NewID("conn-1")
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
		assert.Contains(t, id, "conn-1")
	}
}
