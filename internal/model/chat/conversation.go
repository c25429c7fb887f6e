package chat

import "time"

// Context tags the subject area of a conversation.
type Context string

const (
	ContextPortfolio Context = "portfolio"
	ContextGeneral   Context = "general"
	ContextTechnical Context = "technical"
)

// DefaultContext applies when a client leaves the context empty.
const DefaultContext = ContextPortfolio

// DefaultConversationTitle names explicitly started conversations without a title.
const DefaultConversationTitle = "New Conversation"

// ParseContext validates a client supplied context tag. The empty string maps
// to DefaultContext.
func ParseContext(raw string) (Context, bool) {
	switch Context(raw) {
	case "":
		return DefaultContext, true
	case ContextPortfolio, ContextGeneral, ContextTechnical:
		return Context(raw), true
	default:
		return "", false
	}
}

// Conversation tracks one logical chat thread relayed to the AI service.
type Conversation struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"userId"`
	Title        string    `json:"title,omitempty"`
	Context      Context   `json:"context"`
	StartedAt    time.Time `json:"startedAt"`
	LastActivity time.Time `json:"lastActivity,omitzero"`
	MessageCount int       `json:"messageCount"`
}

// LastSeen is the reference point for idle checks: the last recorded
// activity, or the start time when no message was relayed yet.
func (c Conversation) LastSeen() time.Time {
	if c.LastActivity.IsZero() {
		return c.StartedAt
	}
	return c.LastActivity
}
