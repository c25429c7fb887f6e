package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/huynhducanh/portfolio/backend/internal/analysis/topic"
	"github.com/huynhducanh/portfolio/backend/internal/apperr"
	"github.com/huynhducanh/portfolio/backend/internal/config"
	"github.com/huynhducanh/portfolio/backend/internal/logging"
	"github.com/huynhducanh/portfolio/backend/internal/model/chat"
	"github.com/huynhducanh/portfolio/backend/internal/model/profile"
	chatservice "github.com/huynhducanh/portfolio/backend/internal/service/chat"
	"github.com/huynhducanh/portfolio/backend/internal/service/upstream"
)

// Assistant answers portfolio questions in-process. Without a completer it
// replies from the keyword topic classifier.
type Assistant struct {
	completer   Completer
	transcripts *chatservice.Service
	profile     profile.Profile
	backend     config.Backend
	logger      zerolog.Logger
	now         func() time.Time
}

var _ upstream.Service = (*Assistant)(nil)

// New picks a completer for cfg.Backend. Missing credentials are not an
// error: the assistant then runs on canned replies.
func New(ctx context.Context, cfg config.AIConfig, transcripts *chatservice.Service, p profile.Profile, logger zerolog.Logger) (*Assistant, error) {
	logger = logging.WithComponent(logger, "assistant").With().Str("backend", string(cfg.Backend)).Logger()

	var completer Completer
	switch cfg.Backend {
	case config.BackendArk:
		if !cfg.ArkEnabled() {
			logger.Warn().Msg("ark credentials not provided, using fallback responses")
			break
		}
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		chainCompleter, err := NewChainCompleter(ctx, chatModel)
		if err != nil {
			return nil, err
		}
		completer = chainCompleter
	case config.BackendOpenAI:
		if !cfg.OpenAIEnabled() {
			logger.Warn().Msg("OPENAI_API_KEY not provided, using fallback responses")
			break
		}
		completer = NewOpenAICompleter(cfg)
	default:
		return nil, fmt.Errorf("backend %q is not served in-process", cfg.Backend)
	}

	a := NewAssistant(completer, transcripts, p, logger)
	a.backend = cfg.Backend
	return a, nil
}

// NewAssistant wires an assistant from its parts. completer may be nil.
func NewAssistant(completer Completer, transcripts *chatservice.Service, p profile.Profile, logger zerolog.Logger) *Assistant {
	if transcripts == nil {
		transcripts = chatservice.NewService(chatservice.DefaultTranscriptLimit)
	}
	return &Assistant{
		completer:   completer,
		transcripts: transcripts,
		profile:     p,
		logger:      logger,
		now:         time.Now,
	}
}

// ModelAvailable reports whether replies come from a language model.
func (a *Assistant) ModelAvailable() bool {
	return a.completer != nil
}

// Chat answers one message and records both turns in the transcript.
func (a *Assistant) Chat(ctx context.Context, req upstream.ChatRequest) (*upstream.ChatResponse, error) {
	start := a.now()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperr.Validation(apperr.FieldError{Field: "message", Message: "Message is required"})
	}

	convContext, ok := chat.ParseContext(req.Context)
	if !ok {
		return nil, apperr.Validation(apperr.FieldError{Field: "context", Message: "Invalid context", Value: req.Context})
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = newConversationID()
	}

	label := topic.Classify(message)
	resp := &upstream.ChatResponse{
		ConversationID: conversationID,
		Context:        string(convContext),
		Suggestions:    topic.Suggestions(string(label)),
	}

	tokens := 0
	if a.completer == nil {
		resp.Response = topic.Reply(label)
		resp.Fallback = true
	} else {
		history := a.transcripts.Recent(ctx, conversationID, historyLimit)
		completion, err := a.completer.Complete(ctx, BuildSystemPrompt(a.profile, convContext), history, message)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, apperr.Timeout("AI model request timed out", err)
			}
			a.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("model completion failed")
			return nil, apperr.Upstream(http.StatusBadGateway, "AI model request failed")
		}
		resp.Response = completion.Content
		tokens = completion.TokensUsed
	}

	if err := a.transcripts.Append(ctx, conversationID, convContext,
		chat.Message{Role: chat.RoleUser, Content: message},
		chat.Message{Role: chat.RoleAssistant, Content: resp.Response},
	); err != nil {
		a.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to record transcript")
	}

	finished := a.now()
	elapsed := finished.Sub(start).Seconds()
	resp.Timestamp = finished.UTC().Format(time.RFC3339)
	resp.TokensUsed = &tokens
	resp.ResponseTime = &elapsed

	a.logger.Debug().
		Str("conversation_id", conversationID).
		Str("topic", string(label)).
		Bool("fallback", resp.Fallback).
		Int("tokens", tokens).
		Msg("assistant replied")
	return resp, nil
}

// FetchConversation returns a stored transcript.
func (a *Assistant) FetchConversation(ctx context.Context, id string) (*upstream.Conversation, error) {
	thread, err := a.transcripts.GetThread(ctx, id)
	if err != nil {
		if errors.Is(err, chatservice.ErrConversationNotFound) {
			return nil, apperr.NotFound("Conversation not found")
		}
		return nil, apperr.Internal("load conversation", err)
	}
	return toConversation(thread), nil
}

// CreateConversation opens an empty transcript with a fresh id.
func (a *Assistant) CreateConversation(ctx context.Context, title, convContext string) (*upstream.Conversation, error) {
	if title == "" {
		title = chat.DefaultConversationTitle
	}
	parsed, ok := chat.ParseContext(convContext)
	if !ok {
		return nil, apperr.Validation(apperr.FieldError{Field: "context", Message: "Invalid context", Value: convContext})
	}

	thread, err := a.transcripts.CreateThread(ctx, newConversationID(), title, parsed, "")
	if err != nil {
		return nil, apperr.Internal("create conversation", err)
	}
	return toConversation(thread), nil
}

// Suggestions returns topic-specific follow-up prompts.
func (a *Assistant) Suggestions(_ context.Context, convContext, topicHint string) (*upstream.Suggestions, error) {
	if convContext == "" {
		convContext = string(chat.DefaultContext)
	}
	if topicHint == "" {
		topicHint = "general"
	}
	return &upstream.Suggestions{
		Suggestions: topic.Suggestions(topicHint),
		Context:     convContext,
		Topic:       topicHint,
	}, nil
}

// Health reports the in-process assistant state.
func (a *Assistant) Health(_ context.Context) (map[string]any, error) {
	return map[string]any{
		"status":               "healthy",
		"backend":              string(a.backend),
		"model_available":      a.ModelAvailable(),
		"knowledge_base":       a.profile.Name != "",
		"conversations_active": a.transcripts.Len(),
	}, nil
}

func toConversation(thread chatservice.Thread) *upstream.Conversation {
	conv := &upstream.Conversation{
		ID:           thread.ID,
		Title:        thread.Title,
		Context:      string(thread.Context),
		UserID:       thread.UserID,
		CreatedAt:    thread.CreatedAt.Format(time.RFC3339),
		MessageCount: len(thread.Messages),
		Messages:     make([]upstream.Message, 0, len(thread.Messages)),
	}
	if !thread.LastActivity.IsZero() {
		conv.LastActivity = thread.LastActivity.Format(time.RFC3339)
	}
	for _, msg := range thread.Messages {
		conv.Messages = append(conv.Messages, upstream.Message{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp.Format(time.RFC3339),
		})
	}
	return conv
}

func newConversationID() string {
	return "conv_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
