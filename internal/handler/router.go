package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/huynhducanh/portfolio/backend/internal/apperr"
	"github.com/huynhducanh/portfolio/backend/internal/config"
	aihandler "github.com/huynhducanh/portfolio/backend/internal/handler/ai"
	"github.com/huynhducanh/portfolio/backend/internal/handler/realtime"
	middlewarePkg "github.com/huynhducanh/portfolio/backend/internal/middleware"
	"github.com/huynhducanh/portfolio/backend/internal/service/conversation"
	"github.com/huynhducanh/portfolio/backend/internal/service/session"
	"github.com/huynhducanh/portfolio/backend/internal/service/upstream"
	"github.com/huynhducanh/portfolio/backend/pkg/utils"
)

// Deps are the collaborators the router exposes over HTTP.
type Deps struct {
	Config        config.ServerConfig
	AI            upstream.Service
	Hub           *realtime.Hub
	Dispatcher    realtime.Dispatcher
	Sessions      *session.Registry
	Conversations *conversation.Tracker
	Logger        zerolog.Logger
	StartedAt     time.Time
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.AccessLog(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.Config.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, apperr.NotFound("Route not found"), deps.Config.DevMode)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusMethodNotAllowed, apperr.Payload{Error: "Method Not Allowed"})
	})

	startedAt := deps.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(startedAt).Seconds(),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	realtime.NewWebSocketHandler(deps.Hub, deps.Dispatcher, deps.Config.AllowedOrigins, deps.Logger).RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		api.Route("/ai", aihandler.New(deps.AI, deps.Config.DevMode, deps.Logger).RegisterRoutes)
		api.Route("/realtime", realtime.NewStatsHandler(deps.Sessions, deps.Conversations, deps.Hub).RegisterRoutes)
	})

	return r
}
