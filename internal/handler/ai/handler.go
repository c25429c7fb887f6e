package ai

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/huynhducanh/portfolio/backend/internal/apperr"
	"github.com/huynhducanh/portfolio/backend/internal/logging"
	"github.com/huynhducanh/portfolio/backend/internal/model/chat"
	"github.com/huynhducanh/portfolio/backend/internal/model/profile"
	"github.com/huynhducanh/portfolio/backend/internal/relay"
	"github.com/huynhducanh/portfolio/backend/internal/service/upstream"
	"github.com/huynhducanh/portfolio/backend/pkg/utils"
)

const maxBodyBytes = 64 << 10

// Handler serves the stateless HTTP path to the AI service. One request is
// one relay cycle; no session or conversation tracking happens here.
type Handler struct {
	ai     upstream.Service
	dev    bool
	logger zerolog.Logger
}

// New creates the AI HTTP handler. dev exposes error detail in responses.
func New(ai upstream.Service, dev bool, logger zerolog.Logger) *Handler {
	return &Handler{
		ai:     ai,
		dev:    dev,
		logger: logging.WithComponent(logger, "ai_http"),
	}
}

// RegisterRoutes mounts the AI routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/conversations/{id}", h.handleGetConversation)
	r.Post("/conversations", h.handleCreateConversation)
	r.Get("/capabilities", h.handleCapabilities)
	r.Get("/health", h.handleHealth)
	r.Post("/suggestions", h.handleSuggestions)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.ChatRequest
	if err := decodeBody(r, &req); err != nil {
		utils.RespondError(w, err, h.dev)
		return
	}

	message, convContext, err := relay.ValidateChat(req)
	if err != nil {
		utils.RespondError(w, err, h.dev)
		return
	}

	resp, err := h.ai.Chat(r.Context(), upstream.ChatRequest{
		Message:        message,
		ConversationID: req.ConversationID,
		Context:        string(convContext),
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("chat request failed")
		utils.RespondError(w, err, h.dev)
		return
	}

	utils.RespondSuccess(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	conv, err := h.ai.FetchConversation(r.Context(), id)
	if err != nil {
		h.logger.Warn().Err(err).Str("conversation_id", id).Msg("fetch conversation failed")
		utils.RespondError(w, err, h.dev)
		return
	}

	utils.RespondSuccess(w, http.StatusOK, conv)
}

func (h *Handler) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Context string `json:"context"`
	}
	if err := decodeBody(r, &req); err != nil {
		utils.RespondError(w, err, h.dev)
		return
	}

	convContext, ok := chat.ParseContext(req.Context)
	if !ok {
		utils.RespondError(w, apperr.Validation(apperr.FieldError{
			Field:   "context",
			Message: "Context must be one of: portfolio, general, technical",
			Value:   req.Context,
		}), h.dev)
		return
	}

	title := req.Title
	if title == "" {
		title = chat.DefaultConversationTitle
	}

	conv, err := h.ai.CreateConversation(r.Context(), title, string(convContext))
	if err != nil {
		h.logger.Warn().Err(err).Msg("create conversation failed")
		utils.RespondError(w, err, h.dev)
		return
	}

	utils.RespondSuccess(w, http.StatusOK, conv)
}

func (h *Handler) handleCapabilities(w http.ResponseWriter, _ *http.Request) {
	utils.RespondSuccess(w, http.StatusOK, profile.DefaultCapabilities())
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339)

	health, err := h.ai.Health(r.Context())
	if err != nil {
		utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"data": map[string]any{
				"ai_service_status": "disconnected",
				"error":             apperr.From(err).Message,
				"timestamp":         now,
			},
		})
		return
	}

	utils.RespondSuccess(w, http.StatusOK, map[string]any{
		"ai_service_status": "connected",
		"ai_service_health": health,
		"timestamp":         now,
	})
}

// handleSuggestions masks AI failures as success with the fixed list and
// a fallback marker.
func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Context string `json:"context"`
		Topic   string `json:"topic"`
	}
	if err := decodeBody(r, &req); err != nil {
		utils.RespondError(w, err, h.dev)
		return
	}
	if req.Context == "" {
		req.Context = string(chat.DefaultContext)
	}
	if req.Topic == "" {
		req.Topic = "general"
	}

	out, err := h.ai.Suggestions(r.Context(), req.Context, req.Topic)
	if err != nil {
		h.logger.Warn().Err(err).Msg("suggestions unavailable, serving fallback")
		utils.RespondSuccess(w, http.StatusOK, upstream.Suggestions{
			Suggestions: profile.FallbackSuggestions(),
			Fallback:    true,
		})
		return
	}

	utils.RespondSuccess(w, http.StatusOK, out)
}

// decodeBody reads an optional JSON body. An empty body leaves dst zeroed.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Validation(apperr.FieldError{Field: "body", Message: "Invalid JSON body"})
	}
	return nil
}
