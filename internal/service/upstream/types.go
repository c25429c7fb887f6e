package upstream

import "context"

// Service is the contract of the AI backend the relay talks to.
type Service interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	FetchConversation(ctx context.Context, id string) (*Conversation, error)
	CreateConversation(ctx context.Context, title, convContext string) (*Conversation, error)
	Suggestions(ctx context.Context, convContext, topic string) (*Suggestions, error)
	Health(ctx context.Context) (map[string]any, error)
}

// ChatRequest is forwarded to POST /api/chat.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	Context        string `json:"context"`
	UserID         string `json:"user_id,omitempty"`
}

// ChatResponse is the AI service reply, passed to clients unchanged.
type ChatResponse struct {
	Response       string   `json:"response"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Context        string   `json:"context,omitempty"`
	Timestamp      string   `json:"timestamp,omitempty"`
	TokensUsed     *int     `json:"tokens_used,omitempty"`
	ResponseTime   *float64 `json:"response_time,omitempty"`
	Suggestions    []string `json:"suggestions,omitempty"`
	Fallback       bool     `json:"fallback,omitempty"`
	Error          bool     `json:"error,omitempty"`
}

// Message is one transcript turn as reported by the AI service.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Conversation is the AI service view of a conversation. Timestamps are kept
// as the service formats them.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title,omitempty"`
	Context      string    `json:"context,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	CreatedAt    string    `json:"created_at,omitempty"`
	LastActivity string    `json:"last_activity,omitempty"`
	MessageCount int       `json:"message_count"`
	Messages     []Message `json:"messages,omitempty"`
}

// Suggestions lists follow-up prompts for the chat widget.
type Suggestions struct {
	Suggestions []string `json:"suggestions"`
	Context     string   `json:"context,omitempty"`
	Topic       string   `json:"topic,omitempty"`
	Fallback    bool     `json:"fallback,omitempty"`
}
