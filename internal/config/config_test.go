package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SLACK_SIGNING_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "5001", cfg.Port)
	require.Equal(t, "ko", cfg.Locale)
	require.Equal(t, "gpt-4.1-nano", cfg.OpenAIModel)
	require.Equal(t, 60*time.Second, cfg.OpenAITimeout)
	require.Equal(t, 2, cfg.MaxAttempts)
	require.Equal(t, 1000, cfg.MaxInputLength)
	require.Equal(t, 3, cfg.MinFieldLength)
	require.Equal(t, 10, cfg.HistorySize)
	require.Equal(t, 5000, cfg.LogBufferSize)
	require.Equal(t, "debug", cfg.LogStoreLevel)
	require.Equal(t, HistoryMemory, cfg.HistoryBackend)
	require.Equal(t, "/scenario", cfg.SlackCommand)
	require.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	require.False(t, cfg.UseParamStore())
	require.False(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "development")
	t.Setenv("OPENAI_TIMEOUT", "15s")
	t.Setenv("HISTORY_BACKEND", " Redis ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.True(t, cfg.IsDevelopment())
	require.Equal(t, 15*time.Second, cfg.OpenAITimeout)
	require.Equal(t, HistoryRedis, cfg.HistoryBackend)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_ParamStoreSkipsInlineSecrets(t *testing.T) {
	t.Setenv("PARAM_PREFIX", "/scenario-bot")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SLACK_SIGNING_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.UseParamStore())
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secrets":      {"OPENAI_API_KEY": "", "SLACK_SIGNING_SECRET": ""},
		"zero attempts":        {"MAX_ATTEMPTS": "0"},
		"unknown backend":      {"HISTORY_BACKEND": "sqlite"},
		"dynamodb needs table": {"HISTORY_BACKEND": "dynamodb"},
		"bad duration":         {"OPENAI_TIMEOUT": "soon"},
		"bad int":              {"HISTORY_SIZE": "ten"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}
