package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/huynhducanh/portfolio/backend/internal/apperr"
	"github.com/huynhducanh/portfolio/backend/internal/config"
	"github.com/huynhducanh/portfolio/backend/internal/logging"
	"github.com/huynhducanh/portfolio/backend/internal/metrics"
)

const maxErrorBody = 64 << 10

// Client calls the external AI service over HTTP. Each call is a single
// attempt bounded by the timeout configured for its operation.
type Client struct {
	baseURL    string
	cfg        config.UpstreamConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client for the AI service at cfg.BaseURL.
func NewClient(cfg config.UpstreamConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logging.WithComponent(logger, "upstream"),
	}
}

// Chat relays a user message and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Context == "" {
		req.Context = "portfolio"
	}

	var resp ChatResponse
	if err := c.do(ctx, "chat", c.cfg.ChatTimeout, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchConversation loads a conversation and its history.
func (c *Client) FetchConversation(ctx context.Context, id string) (*Conversation, error) {
	var conv Conversation
	path := "/api/conversations/" + url.PathEscape(id)
	if err := c.do(ctx, "fetch_conversation", c.cfg.ConversationTimeout, http.MethodGet, path, nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// CreateConversation opens a conversation on the AI service.
func (c *Client) CreateConversation(ctx context.Context, title, convContext string) (*Conversation, error) {
	if title == "" {
		title = "New Conversation"
	}
	if convContext == "" {
		convContext = "portfolio"
	}

	body := map[string]string{"title": title, "context": convContext}

	var conv Conversation
	if err := c.do(ctx, "create_conversation", c.cfg.ConversationTimeout, http.MethodPost, "/api/conversations", body, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// Suggestions asks the AI service for follow-up prompts. Failures are
// returned as-is; substituting a fallback list is the caller's decision.
func (c *Client) Suggestions(ctx context.Context, convContext, topic string) (*Suggestions, error) {
	if convContext == "" {
		convContext = "portfolio"
	}
	if topic == "" {
		topic = "general"
	}

	query := url.Values{}
	query.Set("context", convContext)
	query.Set("topic", topic)

	var out Suggestions
	if err := c.do(ctx, "suggestions", c.cfg.SuggestionTimeout, http.MethodGet, "/api/chat/suggestions?"+query.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health returns the AI service health document.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	if err := c.do(ctx, "health", c.cfg.HealthTimeout, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op string, timeout time.Duration, method, path string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(apperr.KindOf(err))
		}
		metrics.UpstreamLatency.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return apperr.Internal("encode upstream request", marshalErr)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperr.Internal("build upstream request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		classified := classify(op, err)
		c.logger.Warn().Err(err).Str("operation", op).Str("kind", string(apperr.KindOf(classified))).Msg("ai service call failed")
		return classified
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return classify(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := errorDetail(raw)
		c.logger.Warn().Int("status", resp.StatusCode).Str("operation", op).Str("detail", message).Msg("ai service returned an error")
		return apperr.Upstream(resp.StatusCode, message)
	}

	if out == nil {
		return nil
	}
	if err := decodeBody(raw, out); err != nil {
		return apperr.Internal("decode upstream response", err)
	}
	return nil
}

func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Timeout(fmt.Sprintf("AI service %s timed out", op), err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.Timeout(fmt.Sprintf("AI service %s timed out", op), err)
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return apperr.Unavailable("AI service is currently unavailable", err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return apperr.Unavailable("AI service is currently unavailable", err)
	}

	if errors.Is(err, context.Canceled) {
		return apperr.Internal("AI service request canceled", err)
	}

	return apperr.Unavailable("AI service is currently unavailable", err)
}

// decodeBody unwraps the {"success": ..., "data": ...} envelope some AI
// service routes use before decoding into out.
func decodeBody(raw []byte, out any) error {
	var envelope struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Success != nil {
		if len(envelope.Data) > 0 && string(envelope.Data) != "null" {
			raw = envelope.Data
		}
	}
	return json.Unmarshal(raw, out)
}

func errorDetail(raw []byte) string {
	if len(raw) > maxErrorBody {
		raw = raw[:maxErrorBody]
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			switch v := body[key].(type) {
			case string:
				if v != "" {
					return v
				}
			case nil:
			default:
				if encoded, err := json.Marshal(v); err == nil {
					return string(encoded)
				}
			}
		}
	}
	return "AI service error"
}
