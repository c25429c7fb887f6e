package realtime

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/huynhducanh/portfolio/backend/internal/service/conversation"
	"github.com/huynhducanh/portfolio/backend/internal/service/session"
	"github.com/huynhducanh/portfolio/backend/pkg/utils"
)

// Stats is the relay snapshot served by GET /api/realtime/stats.
type Stats struct {
	ConnectedUsers      int    `json:"connectedUsers"`
	ActiveConversations int    `json:"activeConversations"`
	TotalConnections    int    `json:"totalConnections"`
	Timestamp           string `json:"timestamp"`
}

// StatsHandler reports relay occupancy.
type StatsHandler struct {
	sessions      *session.Registry
	conversations *conversation.Tracker
	hub           *Hub
}

// NewStatsHandler creates the stats handler.
func NewStatsHandler(sessions *session.Registry, conversations *conversation.Tracker, hub *Hub) *StatsHandler {
	return &StatsHandler{sessions: sessions, conversations: conversations, hub: hub}
}

// RegisterRoutes mounts the stats endpoint.
func (h *StatsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.handleStats)
}

func (h *StatsHandler) handleStats(w http.ResponseWriter, _ *http.Request) {
	utils.RespondSuccess(w, http.StatusOK, Stats{
		ConnectedUsers:      h.sessions.Len(),
		ActiveConversations: h.conversations.Len(),
		TotalConnections:    h.hub.Len(),
		Timestamp:           time.Now().UTC().Format(time.RFC3339),
	})
}
