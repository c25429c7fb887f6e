package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Backend selects which implementation answers upstream AI calls.
type Backend string

const (
	// BackendHTTP forwards every call to the external AI service.
	BackendHTTP Backend = "http"
	// BackendArk answers in-process through an Ark chat model.
	BackendArk Backend = "ark"
	// BackendOpenAI answers in-process through the OpenAI API.
	BackendOpenAI Backend = "openai"
)

// Config aggregates every setting of the service.
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Relay    RelayConfig
	AI       AIConfig
	Log      LogConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	upstream, err := loadUpstreamConfig()
	if err != nil {
		return nil, err
	}

	relay, err := loadRelayConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Upstream: upstream,
		Relay:    relay,
		AI:       ai,
		Log:      loadLogConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	DevMode        bool
	AllowedOrigins []string
}

func loadServerConfig() (ServerConfig, error) {
	addr, err := parseAddr(os.Getenv("PORT"))
	if err != nil {
		return ServerConfig{}, err
	}

	dev, err := parseBoolEnv("DEV_MODE", strings.EqualFold(strings.TrimSpace(os.Getenv("APP_ENV")), "development"))
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		Addr:           addr,
		DevMode:        dev,
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
	}, nil
}

func parseAddr(raw string) (string, error) {
	port := strings.TrimSpace(raw)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are accepted as-is.
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// UpstreamConfig describes the external AI service and its call deadlines.
type UpstreamConfig struct {
	BaseURL             string
	ChatTimeout         time.Duration
	ConversationTimeout time.Duration
	SuggestionTimeout   time.Duration
	HealthTimeout       time.Duration
}

func loadUpstreamConfig() (UpstreamConfig, error) {
	chat, err := parseDurationEnv("AI_CHAT_TIMEOUT", 30*time.Second)
	if err != nil {
		return UpstreamConfig{}, err
	}
	conversation, err := parseDurationEnv("AI_CONVERSATION_TIMEOUT", 10*time.Second)
	if err != nil {
		return UpstreamConfig{}, err
	}
	suggestion, err := parseDurationEnv("AI_SUGGESTION_TIMEOUT", 15*time.Second)
	if err != nil {
		return UpstreamConfig{}, err
	}
	health, err := parseDurationEnv("AI_HEALTH_TIMEOUT", 5*time.Second)
	if err != nil {
		return UpstreamConfig{}, err
	}

	return UpstreamConfig{
		BaseURL:             strings.TrimRight(getEnvOrDefault("AI_SERVICE_URL", "http://localhost:8000"), "/"),
		ChatTimeout:         chat,
		ConversationTimeout: conversation,
		SuggestionTimeout:   suggestion,
		HealthTimeout:       health,
	}, nil
}

// RelayConfig holds the realtime relay bookkeeping knobs.
type RelayConfig struct {
	SweepInterval       time.Duration
	SessionTimeout      time.Duration
	ConversationTimeout time.Duration
	WelcomeFromUpstream bool
}

func loadRelayConfig() (RelayConfig, error) {
	interval, err := parseDurationEnv("RELAY_SWEEP_INTERVAL", 5*time.Minute)
	if err != nil {
		return RelayConfig{}, err
	}
	sessionTimeout, err := parseDurationEnv("RELAY_SESSION_TIMEOUT", 30*time.Minute)
	if err != nil {
		return RelayConfig{}, err
	}
	conversationTimeout, err := parseDurationEnv("RELAY_CONVERSATION_TIMEOUT", sessionTimeout)
	if err != nil {
		return RelayConfig{}, err
	}
	welcome, err := parseBoolEnv("RELAY_WELCOME_FROM_AI", false)
	if err != nil {
		return RelayConfig{}, err
	}

	return RelayConfig{
		SweepInterval:       interval,
		SessionTimeout:      sessionTimeout,
		ConversationTimeout: conversationTimeout,
		WelcomeFromUpstream: welcome,
	}, nil
}

// AIConfig selects the upstream backend and carries model credentials for
// the in-process backends.
type AIConfig struct {
	Backend Backend

	ArkAPIKey      string
	ArkAccessKey   string
	ArkSecretKey   string
	ArkModel       string
	ArkBaseURL     string
	ArkRegion      string
	ArkTemperature *float64
	ArkTopP        *float64
	ArkMaxTokens   *int

	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	OpenAIMaxTokens   int
	OpenAITemperature float32
}

// ArkEnabled reports whether the Ark credentials are complete.
func (c AIConfig) ArkEnabled() bool {
	return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
}

// OpenAIEnabled reports whether an OpenAI key was supplied.
func (c AIConfig) OpenAIEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// NewChatModel builds an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.ArkEnabled() {
		return nil, fmt.Errorf("ark credentials missing: set ARK_MODEL with ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY")
	}

	var temperature *float32
	if c.ArkTemperature != nil {
		val := float32(*c.ArkTemperature)
		temperature = &val
	}

	var topP *float32
	if c.ArkTopP != nil {
		val := float32(*c.ArkTopP)
		topP = &val
	}

	var maxTokens *int
	if c.ArkMaxTokens != nil {
		val := *c.ArkMaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.ArkBaseURL,
		Region:      c.ArkRegion,
		APIKey:      c.ArkAPIKey,
		AccessKey:   c.ArkAccessKey,
		SecretKey:   c.ArkSecretKey,
		Model:       c.ArkModel,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	backend := Backend(strings.ToLower(getEnvOrDefault("AI_BACKEND", string(BackendHTTP))))
	switch backend {
	case BackendHTTP, BackendArk, BackendOpenAI:
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_BACKEND value %q: want http, ark or openai", backend)
	}

	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	openAIMaxTokens := 150
	if override, err := parseOptionalIntEnv("OPENAI_MAX_TOKENS"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		openAIMaxTokens = *override
	}

	openAITemperature := float32(0.7)
	if override, err := parseOptionalFloatEnv("OPENAI_TEMPERATURE"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		openAITemperature = float32(*override)
	}

	return AIConfig{
		Backend:           backend,
		ArkAPIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:          strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		ArkTemperature:    temperature,
		ArkTopP:           topP,
		ArkMaxTokens:      maxTokens,
		OpenAIAPIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:       getEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIBaseURL:     strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		OpenAIMaxTokens:   openAIMaxTokens,
		OpenAITemperature: openAITemperature,
	}, nil
}

// LogConfig controls the root logger.
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

// parseDurationEnv accepts Go durations ("90s") or a bare number of seconds.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	var val time.Duration
	if secs, err := strconv.Atoi(raw); err == nil {
		val = time.Duration(secs) * time.Second
	} else {
		val, err = time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
		}
	}

	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
