package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/huynhducanh/portfolio/backend/internal/apperr"
	"github.com/huynhducanh/portfolio/backend/internal/logging"
	"github.com/huynhducanh/portfolio/backend/internal/metrics"
	"github.com/huynhducanh/portfolio/backend/internal/model/chat"
	"github.com/huynhducanh/portfolio/backend/internal/model/profile"
	"github.com/huynhducanh/portfolio/backend/internal/service/conversation"
	"github.com/huynhducanh/portfolio/backend/internal/service/session"
	"github.com/huynhducanh/portfolio/backend/internal/service/upstream"
)

// isoMillis matches the ISO-8601 timestamps the chat widget parses.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Feedback ratings are optional; when present they must fall in this range.
const (
	MinRating = 0
	MaxRating = 5
)

// Emitter delivers outbound events. Emitting to an unknown or closed
// connection must be a silent no-op.
type Emitter interface {
	Emit(connectionID string, event chat.Outbound)
	Broadcast(event chat.Outbound)
}

// Options tune the dispatcher.
type Options struct {
	// WelcomeFromUpstream asks the AI service for welcome suggestions.
	WelcomeFromUpstream bool
	// DevMode exposes error detail in error events.
	DevMode bool
	Profile profile.Profile
	Clock   func() time.Time
}

// Dispatcher turns inbound chat events into store updates, AI service calls
// and outbound events. It keeps no per-connection state of its own.
type Dispatcher struct {
	sessions      *session.Registry
	conversations *conversation.Tracker
	ai            upstream.Service
	emitter       Emitter
	logger        zerolog.Logger
	opts          Options
}

// NewDispatcher wires a dispatcher around injected stores.
func NewDispatcher(sessions *session.Registry, conversations *conversation.Tracker, ai upstream.Service, emitter Emitter, logger zerolog.Logger, opts Options) *Dispatcher {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Profile.Email == "" {
		opts.Profile = profile.Seed()
	}
	return &Dispatcher{
		sessions:      sessions,
		conversations: conversations,
		ai:            ai,
		emitter:       emitter,
		logger:        logging.WithComponent(logger, "relay"),
		opts:          opts,
	}
}

// Handle decodes an inbound envelope and routes it. Malformed payloads and
// unknown event types are answered with an error event.
func (d *Dispatcher) Handle(ctx context.Context, connectionID string, in chat.Inbound) {
	metrics.RelayEvents.WithLabelValues(eventLabel(in.Type)).Inc()

	switch in.Type {
	case chat.EventRegister:
		var req chat.RegisterRequest
		if d.decode(connectionID, in, &req) {
			d.Register(ctx, connectionID, req)
		}
	case chat.EventAIMessage:
		var req chat.ChatRequest
		if d.decode(connectionID, in, &req) {
			d.Chat(ctx, connectionID, req)
		}
	case chat.EventStartConversation:
		var req chat.StartConversationRequest
		if d.decode(connectionID, in, &req) {
			d.StartConversation(connectionID, req)
		}
	case chat.EventEndConversation:
		var req chat.EndConversationRequest
		if d.decode(connectionID, in, &req) {
			d.EndConversation(connectionID, req)
		}
	case chat.EventUserActivity:
		var req chat.ActivityRequest
		if d.decode(connectionID, in, &req) {
			d.Activity(connectionID, req)
		}
	case chat.EventFeedback:
		var req chat.FeedbackRequest
		if d.decode(connectionID, in, &req) {
			d.Feedback(connectionID, req)
		}
	default:
		d.emitError(connectionID, apperr.Validation(apperr.FieldError{
			Field:   "type",
			Message: "Unknown event type",
			Value:   in.Type,
		}))
	}
}

// Register upserts the session and sends the welcome payload.
func (d *Dispatcher) Register(ctx context.Context, connectionID string, req chat.RegisterRequest) {
	name := strings.TrimSpace(req.Name)
	d.sessions.Register(connectionID, name)
	metrics.ActiveSessions.Set(float64(d.sessions.Len()))

	if name == "" {
		name = "Anonymous"
	}
	d.logger.Info().Str("connection_id", connectionID).Str("name", name).Msg("user registered")

	d.emit(connectionID, chat.EventWelcome, chat.WelcomePayload{
		Message:     profile.WelcomeMessage,
		Suggestions: d.welcomeSuggestions(ctx),
	})
}

// Chat relays one message to the AI service. Upstream failures never
// escape: the sender always gets an ai_response event.
func (d *Dispatcher) Chat(ctx context.Context, connectionID string, req chat.ChatRequest) {
	message, convContext, err := ValidateChat(req)
	if err != nil {
		d.emitError(connectionID, err)
		return
	}

	d.sessions.Touch(connectionID)
	d.emit(connectionID, chat.EventTyping, chat.TypingPayload{Typing: true})

	resp, err := d.ai.Chat(ctx, upstream.ChatRequest{
		Message:        message,
		ConversationID: req.ConversationID,
		Context:        string(convContext),
		UserID:         connectionID,
	})

	d.emit(connectionID, chat.EventTyping, chat.TypingPayload{Typing: false})

	if err != nil {
		metrics.ChatOutcomes.WithLabelValues(string(apperr.KindOf(err))).Inc()
		d.logger.Warn().Err(err).Str("connection_id", connectionID).Msg("ai service error, sending fallback")

		contact := d.opts.Profile.Contact()
		d.emit(connectionID, chat.EventResponse, chat.ResponsePayload{
			Success:     false,
			Error:       profile.ApologyMessage,
			Fallback:    true,
			ContactInfo: &contact,
		})
		return
	}

	metrics.ChatOutcomes.WithLabelValues("ok").Inc()
	d.emit(connectionID, chat.EventResponse, chat.ResponsePayload{
		Success:   true,
		Data:      resp,
		Timestamp: d.opts.Clock().UTC().Format(isoMillis),
	})

	conversationID := resp.ConversationID
	if conversationID == "" {
		conversationID = req.ConversationID
	}
	if conversationID == "" {
		conversationID = d.conversations.NewID(connectionID)
	}

	d.conversations.Ensure(conversationID, connectionID, "", convContext)
	d.conversations.RecordMessage(conversationID)
	metrics.ActiveConversations.Set(float64(d.conversations.Len()))
}

// StartConversation opens (or reuses) a tracked conversation.
func (d *Dispatcher) StartConversation(connectionID string, req chat.StartConversationRequest) {
	convContext, ok := chat.ParseContext(req.Context)
	if !ok {
		d.emitError(connectionID, invalidContext(req.Context))
		return
	}

	d.sessions.Touch(connectionID)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = chat.DefaultConversationTitle
	}

	id := req.ConversationID
	if id == "" {
		id = d.conversations.NewID(connectionID)
	}

	d.conversations.Ensure(id, connectionID, title, convContext)
	metrics.ActiveConversations.Set(float64(d.conversations.Len()))

	d.emit(connectionID, chat.EventConversationStarted, chat.ConversationStartedPayload{
		ConversationID: id,
		Title:          title,
	})
}

// EndConversation drops a conversation. The acknowledgement is sent whether
// or not the conversation was tracked.
func (d *Dispatcher) EndConversation(connectionID string, req chat.EndConversationRequest) {
	if req.ConversationID == "" {
		d.emitError(connectionID, apperr.Validation(apperr.FieldError{
			Field:   "conversation_id",
			Message: "Conversation ID is required",
		}))
		return
	}

	d.sessions.Touch(connectionID)

	if conv, ok := d.conversations.End(req.ConversationID); ok {
		d.logger.Info().
			Str("conversation_id", conv.ID).
			Int("messages", conv.MessageCount).
			Msg("conversation ended")
	}
	metrics.ActiveConversations.Set(float64(d.conversations.Len()))

	d.emit(connectionID, chat.EventConversationEnded, chat.ConversationEndedPayload{
		ConversationID: req.ConversationID,
		Timestamp:      d.opts.Clock().UTC().Format(isoMillis),
	})
}

// Activity records the page and activity the visitor reports.
func (d *Dispatcher) Activity(connectionID string, req chat.ActivityRequest) {
	d.sessions.SetActivity(connectionID, req.Page, req.Activity)
}

// Feedback logs a rating and acknowledges it.
func (d *Dispatcher) Feedback(connectionID string, req chat.FeedbackRequest) {
	if req.Rating != nil && (*req.Rating < MinRating || *req.Rating > MaxRating) {
		d.emitError(connectionID, apperr.Validation(apperr.FieldError{
			Field:   "rating",
			Message: fmt.Sprintf("Rating must be between %d and %d", MinRating, MaxRating),
			Value:   *req.Rating,
		}))
		return
	}

	d.sessions.Touch(connectionID)
	logEvent := d.logger.Info().
		Str("connection_id", connectionID).
		Str("conversation_id", req.ConversationID).
		Str("comment", req.Comment)
	if req.Rating != nil {
		logEvent = logEvent.Int("rating", *req.Rating)
	}
	logEvent.Msg("feedback received")

	d.emit(connectionID, chat.EventFeedbackReceived, chat.AckPayload{
		Success: true,
		Message: "Thank you for your feedback!",
	})
}

// Disconnect forgets the session and every conversation it owns. Nothing is
// emitted since the connection is gone.
func (d *Dispatcher) Disconnect(connectionID, reason string) {
	logEvent := d.logger.Info().Str("connection_id", connectionID).Str("reason", reason)
	if sess, ok := d.sessions.Remove(connectionID); ok {
		logEvent = logEvent.Dur("connected_for", d.opts.Clock().Sub(sess.ConnectedAt).Round(time.Second))
	}

	ended := d.conversations.EndAllOwnedBy(connectionID)
	logEvent.Int("conversations_ended", len(ended)).Msg("user disconnected")

	metrics.ActiveSessions.Set(float64(d.sessions.Len()))
	metrics.ActiveConversations.Set(float64(d.conversations.Len()))
}

// Shutdown tells every connection the server is going away.
func (d *Dispatcher) Shutdown(message string) {
	d.emitter.Broadcast(chat.NewOutbound(chat.EventServerShutdown, chat.AckPayload{Success: true, Message: message}))
}

func (d *Dispatcher) welcomeSuggestions(ctx context.Context) []string {
	if !d.opts.WelcomeFromUpstream {
		return profile.FallbackSuggestions()
	}

	out, err := d.ai.Suggestions(ctx, string(chat.DefaultContext), "general")
	if err != nil || out == nil || len(out.Suggestions) == 0 {
		if err != nil {
			d.logger.Debug().Err(err).Msg("welcome suggestions unavailable, using defaults")
		}
		return profile.FallbackSuggestions()
	}
	return out.Suggestions
}

func (d *Dispatcher) decode(connectionID string, in chat.Inbound, dst any) bool {
	if len(in.Data) == 0 || string(in.Data) == "null" {
		return true
	}
	if err := json.Unmarshal(in.Data, dst); err != nil {
		d.emitError(connectionID, apperr.Validation(apperr.FieldError{
			Field:   "data",
			Message: "Malformed event payload",
		}))
		return false
	}
	return true
}

func (d *Dispatcher) emit(connectionID, eventType string, data any) {
	event := chat.NewOutbound(eventType, data)
	event.ConnectionID = connectionID
	d.emitter.Emit(connectionID, event)
}

func (d *Dispatcher) emitError(connectionID string, err error) {
	d.emit(connectionID, chat.EventError, apperr.PayloadOf(err, d.opts.DevMode))
}

// ValidateChat trims the message and checks its length and context.
func ValidateChat(req chat.ChatRequest) (string, chat.Context, error) {
	var fields []apperr.FieldError

	message := strings.TrimSpace(req.Message)
	switch n := utf8.RuneCountInString(message); {
	case n == 0:
		fields = append(fields, apperr.FieldError{Field: "message", Message: "Message is required"})
	case n > chat.MaxMessageLength:
		fields = append(fields, apperr.FieldError{Field: "message", Message: "Message must be between 1 and 1000 characters", Value: n})
	}

	convContext, ok := chat.ParseContext(req.Context)
	if !ok {
		fields = append(fields, invalidContext(req.Context).Fields...)
	}

	if len(fields) > 0 {
		return "", "", apperr.Validation(fields...)
	}
	return message, convContext, nil
}

func invalidContext(raw string) *apperr.Error {
	return apperr.Validation(apperr.FieldError{
		Field:   "context",
		Message: "Context must be one of: portfolio, general, technical",
		Value:   raw,
	})
}

func eventLabel(eventType string) string {
	switch eventType {
	case chat.EventRegister, chat.EventAIMessage, chat.EventStartConversation,
		chat.EventEndConversation, chat.EventUserActivity, chat.EventFeedback:
		return eventType
	default:
		return "unknown"
	}
}
