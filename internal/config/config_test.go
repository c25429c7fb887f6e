package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"PORT", "DEV_MODE", "APP_ENV", "ALLOWED_ORIGINS",
	"AI_SERVICE_URL", "AI_CHAT_TIMEOUT", "AI_CONVERSATION_TIMEOUT", "AI_SUGGESTION_TIMEOUT", "AI_HEALTH_TIMEOUT",
	"RELAY_SWEEP_INTERVAL", "RELAY_SESSION_TIMEOUT", "RELAY_CONVERSATION_TIMEOUT", "RELAY_WELCOME_FROM_AI",
	"AI_BACKEND", "ARK_API_KEY", "ARK_MODEL", "ARK_TEMPERATURE", "OPENAI_API_KEY", "OPENAI_MAX_TOKENS",
	"LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Server.DevMode)
	assert.Empty(t, cfg.Server.AllowedOrigins)

	assert.Equal(t, "http://localhost:8000", cfg.Upstream.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Upstream.ChatTimeout)
	assert.Equal(t, 10*time.Second, cfg.Upstream.ConversationTimeout)
	assert.Equal(t, 15*time.Second, cfg.Upstream.SuggestionTimeout)
	assert.Equal(t, 5*time.Second, cfg.Upstream.HealthTimeout)

	assert.Equal(t, 5*time.Minute, cfg.Relay.SweepInterval)
	assert.Equal(t, 30*time.Minute, cfg.Relay.SessionTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Relay.ConversationTimeout)
	assert.False(t, cfg.Relay.WelcomeFromUpstream)

	assert.Equal(t, BackendHTTP, cfg.AI.Backend)
	assert.Equal(t, "gpt-3.5-turbo", cfg.AI.OpenAIModel)
	assert.Equal(t, 150, cfg.AI.OpenAIMaxTokens)
	assert.InDelta(t, 0.7, cfg.AI.OpenAITemperature, 0.0001)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("APP_ENV", "development")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://example.dev ,")
	t.Setenv("AI_SERVICE_URL", "http://ai.internal:8000/")
	t.Setenv("AI_CHAT_TIMEOUT", "45")
	t.Setenv("RELAY_SWEEP_INTERVAL", "90s")
	t.Setenv("RELAY_SESSION_TIMEOUT", "10m")
	t.Setenv("AI_BACKEND", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.True(t, cfg.Server.DevMode)
	assert.Equal(t, []string{"http://localhost:3000", "https://example.dev"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "http://ai.internal:8000", cfg.Upstream.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Upstream.ChatTimeout)
	assert.Equal(t, 90*time.Second, cfg.Relay.SweepInterval)
	assert.Equal(t, 10*time.Minute, cfg.Relay.SessionTimeout)
	// conversation timeout follows the session timeout unless set on its own
	assert.Equal(t, 10*time.Minute, cfg.Relay.ConversationTimeout)
	assert.Equal(t, BackendOpenAI, cfg.AI.Backend)
	assert.True(t, cfg.AI.OpenAIEnabled())
}

func TestDevModeFlagWinsOverAppEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "development")
	t.Setenv("DEV_MODE", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Server.DevMode)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":                  "80 80",
		"AI_CHAT_TIMEOUT":       "soon",
		"RELAY_SESSION_TIMEOUT": "-5m",
		"AI_BACKEND":            "mainframe",
		"DEV_MODE":              "maybe",
		"ARK_TEMPERATURE":       "warm",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestArkEnabled(t *testing.T) {
	assert.False(t, AIConfig{ArkAPIKey: "k"}.ArkEnabled())
	assert.True(t, AIConfig{ArkAPIKey: "k", ArkModel: "m"}.ArkEnabled())
	assert.True(t, AIConfig{ArkAccessKey: "a", ArkSecretKey: "s", ArkModel: "m"}.ArkEnabled())
	assert.False(t, AIConfig{ArkAccessKey: "a", ArkModel: "m"}.ArkEnabled())
}
