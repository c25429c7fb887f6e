package relay

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huynhducanh/portfolio/backend/internal/config"
	"github.com/huynhducanh/portfolio/backend/internal/model/chat"
	"github.com/huynhducanh/portfolio/backend/internal/service/conversation"
	"github.com/huynhducanh/portfolio/backend/internal/service/session"
)

func testRelayConfig() config.RelayConfig {
	return config.RelayConfig{
		SweepInterval:       5 * time.Minute,
		SessionTimeout:      30 * time.Minute,
		ConversationTimeout: 30 * time.Minute,
	}
}

func TestSweepSessionBoundary(t *testing.T) {
	clock := newFakeClock()
	sessions := session.NewRegistry(clock.Now)
	conversations := conversation.NewTracker(clock.Now)
	reaper := NewReaper(sessions, conversations, testRelayConfig(), zerolog.Nop(), clock.Now)

	sessions.Register("conn-1", "Alice")
	lastActive := clock.Now()
	timeout := testRelayConfig().SessionTimeout

	result := reaper.Sweep(lastActive.Add(timeout - time.Second))
	assert.Equal(t, SweepResult{}, result)
	assert.True(t, sessions.IsKnown("conn-1"))

	result = reaper.Sweep(lastActive.Add(timeout + time.Second))
	assert.Equal(t, 1, result.Sessions)
	assert.False(t, sessions.IsKnown("conn-1"))
}

func TestSweepConversationsUseLastActivityOrStart(t *testing.T) {
	clock := newFakeClock()
	sessions := session.NewRegistry(clock.Now)
	conversations := conversation.NewTracker(clock.Now)

	cfg := testRelayConfig()
	cfg.ConversationTimeout = 10 * time.Minute
	reaper := NewReaper(sessions, conversations, cfg, zerolog.Nop(), clock.Now)

	start := clock.Now()
	conversations.Ensure("quiet", "conn-1", "", chat.ContextPortfolio)
	conversations.Ensure("busy", "conn-1", "", chat.ContextPortfolio)

	clock.Advance(8 * time.Minute)
	conversations.RecordMessage("busy")

	result := reaper.Sweep(start.Add(11 * time.Minute))
	assert.Equal(t, 1, result.Conversations)

	_, ok := conversations.Get("quiet")
	assert.False(t, ok)
	_, ok = conversations.Get("busy")
	assert.True(t, ok)
}

func TestConversationTimeoutDefaultsToSessionTimeout(t *testing.T) {
	cfg := testRelayConfig()
	cfg.ConversationTimeout = 0

	reaper := NewReaper(session.NewRegistry(nil), conversation.NewTracker(nil), cfg, zerolog.Nop(), nil)
	assert.Equal(t, cfg.SessionTimeout, reaper.cfg.ConversationTimeout)
}

func TestReaperStartRejectsNonPositiveInterval(t *testing.T) {
	cfg := testRelayConfig()
	cfg.SweepInterval = 0

	reaper := NewReaper(session.NewRegistry(nil), conversation.NewTracker(nil), cfg, zerolog.Nop(), nil)
	assert.Error(t, reaper.Start())
}

func TestReaperRunsOnSchedule(t *testing.T) {
	clock := newFakeClock()
	sessions := session.NewRegistry(clock.Now)
	conversations := conversation.NewTracker(clock.Now)

	cfg := testRelayConfig()
	cfg.SweepInterval = time.Second
	reaper := NewReaper(sessions, conversations, cfg, zerolog.Nop(), clock.Now)

	sessions.Register("conn-1", "")
	clock.Advance(time.Hour)

	require.NoError(t, reaper.Start())
	require.NoError(t, reaper.Start())

	assert.Eventually(t, func() bool {
		return !sessions.IsKnown("conn-1")
	}, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reaper.Stop(ctx)
	reaper.Stop(ctx)
}
