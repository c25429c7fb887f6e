package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huynhducanh/portfolio/backend/internal/service/session"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time           { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newRegistry() (*session.Registry, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	return session.NewRegistry(clock.Now), clock
}

func TestRegisterIsIdempotentAndLastNameWins(t *testing.T) {
	reg, clock := newRegistry()

	first := reg.Register("conn-1", "Alice")
	clock.Advance(time.Minute)
	second := reg.Register("conn-1", "Alicia")

	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, "Alicia", second.DisplayName)
	assert.Equal(t, first.ConnectedAt, second.ConnectedAt)
	assert.Equal(t, clock.now, second.LastActive)

	got, ok := reg.Get("conn-1")
	require.True(t, ok)
	assert.Equal(t, "Alicia", got.DisplayName)
}

func TestMutationsOnUnknownConnectionAreNoops(t *testing.T) {
	reg, _ := newRegistry()

	reg.Touch("ghost")
	reg.SetActivity("ghost", "/projects", "reading")

	assert.False(t, reg.IsKnown("ghost"))
	assert.Zero(t, reg.Len())

	_, removed := reg.Remove("ghost")
	assert.False(t, removed)
}

func TestTouchAndSetActivity(t *testing.T) {
	reg, clock := newRegistry()
	reg.Register("conn-1", "")

	clock.Advance(2 * time.Minute)
	reg.Touch("conn-1")
	got, _ := reg.Get("conn-1")
	assert.Equal(t, clock.now, got.LastActive)

	clock.Advance(time.Minute)
	reg.SetActivity("conn-1", "/skills", "scrolling")
	got, _ = reg.Get("conn-1")
	assert.Equal(t, "/skills", got.CurrentPage)
	assert.Equal(t, "scrolling", got.Activity)
	assert.Equal(t, clock.now, got.LastActive)
}

func TestRemoveReturnsPreviousSession(t *testing.T) {
	reg, _ := newRegistry()
	reg.Register("conn-1", "Bob")

	prev, ok := reg.Remove("conn-1")
	require.True(t, ok)
	assert.Equal(t, "Bob", prev.DisplayName)
	assert.False(t, reg.IsKnown("conn-1"))
}

func TestAllReturnsSnapshot(t *testing.T) {
	reg, _ := newRegistry()
	reg.Register("a", "A")
	reg.Register("b", "B")

	all := reg.All()
	require.Len(t, all, 2)

	all[0].DisplayName = "mutated"
	for _, s := range reg.All() {
		assert.NotEqual(t, "mutated", s.DisplayName)
	}
}

func TestEvictIdleBoundary(t *testing.T) {
	reg, clock := newRegistry()
	start := clock.now
	reg.Register("conn-1", "")
	timeout := 30 * time.Minute

	assert.Empty(t, reg.EvictIdle(start.Add(timeout-time.Second), timeout))
	assert.Empty(t, reg.EvictIdle(start.Add(timeout), timeout))
	assert.True(t, reg.IsKnown("conn-1"))

	evicted := reg.EvictIdle(start.Add(timeout+time.Second), timeout)
	require.Len(t, evicted, 1)
	assert.Equal(t, "conn-1", evicted[0].ConnectionID)
	assert.False(t, reg.IsKnown("conn-1"))
}
