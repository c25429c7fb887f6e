package chat

import (
	"encoding/json"
	"time"
)

// Inbound event types sent by the chat widget.
const (
	EventRegister          = "register"
	EventAIMessage         = "ai_message"
	EventStartConversation = "start_conversation"
	EventEndConversation   = "end_conversation"
	EventUserActivity      = "user_activity"
	EventFeedback          = "feedback"
)

// Outbound event types emitted to the chat widget.
const (
	EventWelcome             = "welcome"
	EventTyping              = "ai_typing"
	EventResponse            = "ai_response"
	EventConversationStarted = "conversation_started"
	EventConversationEnded   = "conversation_ended"
	EventFeedbackReceived    = "feedback_received"
	EventError               = "error"
	EventServerShutdown      = "server_shutdown"
)

// MaxMessageLength bounds a chat message, counted in characters.
const MaxMessageLength = 1000

// Inbound is the envelope of every client event.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Outbound is the envelope of every server event.
type Outbound struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId,omitempty"`
	Data         any    `json:"data,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// NewOutbound stamps an outbound event with the current time.
func NewOutbound(eventType string, data any) Outbound {
	return Outbound{Type: eventType, Data: data, Timestamp: time.Now().Unix()}
}

// RegisterRequest is the payload of a register event.
type RegisterRequest struct {
	Name string `json:"name"`
}

// ChatRequest is the payload of an ai_message event and of POST /chat.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	Context        string `json:"context,omitempty"`
}

// StartConversationRequest is the payload of a start_conversation event.
type StartConversationRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Title          string `json:"title,omitempty"`
	Context        string `json:"context,omitempty"`
}

// EndConversationRequest is the payload of an end_conversation event.
type EndConversationRequest struct {
	ConversationID string `json:"conversation_id"`
}

// ActivityRequest is the payload of a user_activity event.
type ActivityRequest struct {
	Page     string `json:"page,omitempty"`
	Activity string `json:"activity,omitempty"`
}

// FeedbackRequest is the payload of a feedback event.
type FeedbackRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Rating         *int   `json:"rating,omitempty"`
	Comment        string `json:"comment,omitempty"`
}

// ContactInfo is the collateral attached to degraded replies.
type ContactInfo struct {
	Email    string `json:"email"`
	LinkedIn string `json:"linkedin"`
}

// WelcomePayload greets a freshly registered connection.
type WelcomePayload struct {
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
}

// TypingPayload toggles the typing indicator.
type TypingPayload struct {
	Typing bool `json:"typing"`
}

// ResponsePayload carries either the upstream reply or the degraded fallback.
type ResponsePayload struct {
	Success     bool         `json:"success"`
	Data        any          `json:"data,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Error       string       `json:"error,omitempty"`
	Fallback    bool         `json:"fallback,omitempty"`
	ContactInfo *ContactInfo `json:"contactInfo,omitempty"`
}

// ConversationStartedPayload acknowledges start_conversation.
type ConversationStartedPayload struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
}

// ConversationEndedPayload acknowledges end_conversation.
type ConversationEndedPayload struct {
	ConversationID string `json:"conversation_id"`
	Timestamp      string `json:"timestamp"`
}

// AckPayload acknowledges fire-and-forget events such as feedback.
type AckPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
