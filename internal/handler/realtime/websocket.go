package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/huynhducanh/portfolio/backend/internal/apperr"
	"github.com/huynhducanh/portfolio/backend/internal/logging"
	"github.com/huynhducanh/portfolio/backend/internal/model/chat"
)

// Dispatcher consumes inbound events for a connection.
type Dispatcher interface {
	Handle(ctx context.Context, connectionID string, in chat.Inbound)
	Disconnect(connectionID, reason string)
}

// WebSocketHandler upgrades chat widget connections and pumps their events
// through the dispatcher.
type WebSocketHandler struct {
	hub        *Hub
	dispatcher Dispatcher
	upgrader   websocket.Upgrader
	logger     zerolog.Logger
}

// NewWebSocketHandler creates the /ws handler. An empty allowedOrigins list
// accepts any origin.
func NewWebSocketHandler(hub *Hub, dispatcher Dispatcher, allowedOrigins []string, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logging.WithComponent(logger, "websocket"),
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("upgrade failed")
		return
	}

	c := newClient(uuid.NewString(), conn)
	h.hub.add(c)
	go h.hub.writePump(c)

	logger := h.logger.With().Str("connection_id", c.id).Logger()
	logger.Info().
		Str("remote_addr", r.RemoteAddr).
		Int64("total_connections", h.hub.TotalConnections()).
		Msg("user connected")

	reason := "transport close"
	defer func() {
		h.hub.remove(c)
		h.dispatcher.Disconnect(c.id, reason)
	}()

	// chat handling outlives the connection: a disconnect never aborts an
	// in-flight AI call
	detached := context.WithoutCancel(r.Context())

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			reason = closeReason(err)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.Debug().Err(err).Msg("read error")
			}
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var in chat.Inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			logger.Debug().Err(err).Int("bytes", len(raw)).Msg("malformed envelope")
			h.hub.Emit(c.id, errorEvent(c.id, "data", "Malformed event envelope"))
			continue
		}

		if in.Type == chat.EventAIMessage {
			go h.dispatcher.Handle(detached, c.id, in)
			continue
		}
		h.dispatcher.Handle(r.Context(), c.id, in)
	}
}

func closeReason(err error) string {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway:
			return "client namespace disconnect"
		default:
			return "transport error"
		}
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "ping timeout"
	}
	return "transport close"
}

func errorEvent(connectionID, field, message string) chat.Outbound {
	event := chat.NewOutbound(chat.EventError, apperr.PayloadOf(apperr.Validation(apperr.FieldError{
		Field:   field,
		Message: message,
	}), false))
	event.ConnectionID = connectionID
	return event
}

// originChecker allows same-host requests, requests without an Origin
// header, and the configured origins.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}

	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(strings.ToLower(origin), "/")] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
