package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"

	"github.com/huynhducanh/portfolio/backend/internal/config"
	"github.com/huynhducanh/portfolio/backend/internal/model/chat"
)

// historyLimit is the number of prior turns sent to the model.
const historyLimit = 10

// Completion is a single model answer.
type Completion struct {
	Content    string
	TokensUsed int
}

// Completer produces an assistant reply from a system prompt, recent history
// and the new user query.
type Completer interface {
	Complete(ctx context.Context, system string, history []chat.Message, query string) (Completion, error)
}

// ChainCompleter runs an eino prompt + chat model chain.
type ChainCompleter struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewChainCompleter compiles the chat chain around chatModel.
func NewChainCompleter(ctx context.Context, chatModel model.ChatModel) (*ChainCompleter, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}
	return &ChainCompleter{chain: runnable}, nil
}

// Complete invokes the compiled chain.
func (c *ChainCompleter) Complete(ctx context.Context, system string, history []chat.Message, query string) (Completion, error) {
	input := map[string]any{
		"system":  system,
		"history": toSchemaMessages(history),
		"query":   query,
	}

	resp, err := c.chain.Invoke(ctx, input)
	if err != nil {
		return Completion{}, fmt.Errorf("failed to run AI chain: %w", err)
	}

	out := Completion{Content: resp.Content}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		out.TokensUsed = resp.ResponseMeta.Usage.TotalTokens
	}
	return out, nil
}

// OpenAICompleter calls the OpenAI chat completions API.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAICompleter builds a completer from the OpenAI settings in cfg.
func NewOpenAICompleter(cfg config.AIConfig) *OpenAICompleter {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}

	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.OpenAIModel,
		maxTokens:   cfg.OpenAIMaxTokens,
		temperature: cfg.OpenAITemperature,
	}
}

// Complete sends one chat completion request.
func (c *OpenAICompleter) Complete(ctx context.Context, system string, history []chat.Message, query string) (Completion, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, msg := range trimHistory(history) {
		role := openai.ChatMessageRoleUser
		if msg.Role == chat.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: query})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, errors.New("openai returned no choices")
	}

	return Completion{
		Content:    resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func toSchemaMessages(messages []chat.Message) []*schema.Message {
	trimmed := trimHistory(messages)
	if len(trimmed) == 0 {
		return nil
	}

	history := make([]*schema.Message, 0, len(trimmed))
	for _, msg := range trimmed {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}

func trimHistory(messages []chat.Message) []chat.Message {
	if len(messages) > historyLimit {
		return messages[len(messages)-historyLimit:]
	}
	return messages
}
