package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/huynhducanh/portfolio/backend/internal/config"
	"github.com/huynhducanh/portfolio/backend/internal/logging"
	"github.com/huynhducanh/portfolio/backend/internal/metrics"
	"github.com/huynhducanh/portfolio/backend/internal/service/conversation"
	"github.com/huynhducanh/portfolio/backend/internal/service/session"
)

// SweepResult counts what one sweep evicted.
type SweepResult struct {
	Sessions      int
	Conversations int
}

// Reaper periodically evicts idle sessions and conversations. Eviction is
// silent: no events are sent to clients.
type Reaper struct {
	sessions      *session.Registry
	conversations *conversation.Tracker
	cfg           config.RelayConfig
	logger        zerolog.Logger
	now           func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewReaper builds a stopped reaper. A nil clock means time.Now.
func NewReaper(sessions *session.Registry, conversations *conversation.Tracker, cfg config.RelayConfig, logger zerolog.Logger, clock func() time.Time) *Reaper {
	if clock == nil {
		clock = time.Now
	}
	if cfg.ConversationTimeout <= 0 {
		cfg.ConversationTimeout = cfg.SessionTimeout
	}
	return &Reaper{
		sessions:      sessions,
		conversations: conversations,
		cfg:           cfg,
		logger:        logging.WithComponent(logger, "reaper"),
		now:           clock,
	}
}

// Start schedules the sweep every cfg.SweepInterval.
func (r *Reaper) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}
	if r.cfg.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", r.cfg.SweepInterval)
	}

	c := cron.New()
	if _, err := c.AddFunc("@every "+r.cfg.SweepInterval.String(), func() {
		r.Sweep(r.now())
	}); err != nil {
		return fmt.Errorf("schedule idle sweep: %w", err)
	}
	c.Start()

	r.cron = c
	r.running = true
	r.logger.Info().
		Dur("interval", r.cfg.SweepInterval).
		Dur("session_timeout", r.cfg.SessionTimeout).
		Dur("conversation_timeout", r.cfg.ConversationTimeout).
		Msg("idle reaper started")
	return nil
}

// Stop cancels the schedule and waits for a running sweep, or for ctx.
func (r *Reaper) Stop(ctx context.Context) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	done := r.cron.Stop()
	r.running = false
	r.mu.Unlock()

	select {
	case <-done.Done():
		r.logger.Info().Msg("idle reaper stopped")
	case <-ctx.Done():
		r.logger.Warn().Msg("idle reaper stop timed out")
	}
}

// Sweep evicts everything idle for longer than its timeout as of now.
func (r *Reaper) Sweep(now time.Time) SweepResult {
	sessions := r.sessions.EvictIdle(now, r.cfg.SessionTimeout)
	for _, s := range sessions {
		r.logger.Debug().Str("connection_id", s.ConnectionID).Msg("evicted idle session")
	}

	conversations := r.conversations.EvictIdle(now, r.cfg.ConversationTimeout)
	for _, c := range conversations {
		r.logger.Debug().Str("conversation_id", c.ID).Int("messages", c.MessageCount).Msg("evicted idle conversation")
	}

	result := SweepResult{Sessions: len(sessions), Conversations: len(conversations)}
	metrics.Evictions.WithLabelValues("session").Add(float64(result.Sessions))
	metrics.Evictions.WithLabelValues("conversation").Add(float64(result.Conversations))
	metrics.ActiveSessions.Set(float64(r.sessions.Len()))
	metrics.ActiveConversations.Set(float64(r.conversations.Len()))

	if result.Sessions > 0 || result.Conversations > 0 {
		r.logger.Info().
			Int("sessions", result.Sessions).
			Int("conversations", result.Conversations).
			Msg("idle sweep evicted entries")
	}
	return result
}
