package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvWeatherAPIKey, EnvTelegramToken, EnvDiscordToken, EnvOpenAIKey, EnvGoal} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultGoal, cfg.App.Goal)
	assert.Equal(t, "metric", cfg.Steps.Units)
	assert.Equal(t, 10*time.Second, cfg.Steps.Timeout.Duration)
	assert.Equal(t, 30*time.Minute, cfg.Watch.Interval.Duration)

	missing, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, cfg, missing)
}

func TestLoad_JSON(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", `{
		"app": {"goal": "weather summary"},
		"steps": {"weather_api_key": "abc", "timeout": "3s"},
		"providers": {"openai": {"api_key": "k", "model": "gpt-4o-mini", "enabled": true}},
		"gateways": {"telegram": {"token": "t", "enabled": true, "allowed_chats": ["42"]}}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "weather summary", cfg.App.Goal)
	assert.Equal(t, "abc", cfg.Steps.WeatherAPIKey)
	assert.Equal(t, 3*time.Second, cfg.Steps.Timeout.Duration)
	assert.Equal(t, "https://api.spacexdata.com/v4", cfg.Steps.SpaceXBaseURL, "unset fields keep defaults")

	name, p := cfg.GetDefaultProvider()
	assert.Equal(t, "openai", name)
	assert.Equal(t, "gpt-4o-mini", p.Model)

	tg, ok := cfg.GetGatewayConfig("telegram")
	require.True(t, ok)
	assert.Equal(t, []string{"42"}, tg.AllowedChats)
	_, ok = cfg.GetGatewayConfig("discord")
	assert.False(t, ok)
}

func TestLoad_JSONUnknownField(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "config.json", `{"memory": {"path": "x.db"}}`))
	assert.Error(t, err)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
steps:
  units: imperial
  requests_per_second: 0.5
watch:
  interval: 5m
  chat_id: "99"
policy:
  denied_patterns:
    - "(?i)ignore previous"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "imperial", cfg.Steps.Units)
	assert.Equal(t, 0.5, cfg.Steps.RequestsPerSecond)
	assert.Equal(t, 5*time.Minute, cfg.Watch.Interval.Duration)
	assert.Equal(t, "99", cfg.Watch.ChatID)
	assert.Equal(t, []string{"(?i)ignore previous"}, cfg.Policy.DeniedPatterns)
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.toml", `
[app]
prompts_dir = "/etc/liftoff/prompts"

[steps]
timeout = "1500ms"
burst = 3

[gateways.discord]
token = "d"
enabled = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/liftoff/prompts", cfg.App.PromptsDir)
	assert.Equal(t, 1500*time.Millisecond, cfg.Steps.Timeout.Duration)
	assert.Equal(t, 3, cfg.Steps.Burst)
	_, ok := cfg.GetGatewayConfig("discord")
	assert.True(t, ok)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "config.ini", "a=b"))
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvWeatherAPIKey, "from-env")
	t.Setenv(EnvGoal, "spacex only")
	t.Setenv(EnvTelegramToken, "tg-env")
	t.Setenv(EnvOpenAIKey, "sk-env")

	path := writeFile(t, "config.json", `{
		"steps": {"weather_api_key": "from-file"},
		"gateways": {"telegram": {"enabled": true}}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err, "the env token satisfies the enabled gateway")
	assert.Equal(t, "from-env", cfg.Steps.WeatherAPIKey)
	assert.Equal(t, "spacex only", cfg.App.Goal)
	assert.Equal(t, "tg-env", cfg.Gateways["telegram"].Token)
	assert.Equal(t, "sk-env", cfg.Providers["openai"].APIKey)
	assert.False(t, cfg.Providers["openai"].Enabled)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Steps.Timeout = Duration{}
	cfg.Steps.RequestsPerSecond = -1
	cfg.Steps.Units = "kelvin"
	cfg.Gateways["telegram"] = GatewayConfig{Enabled: true}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"steps.timeout", "steps.requests_per_second", "steps.units", "gateways.telegram"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestDuration_InvalidValue(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "config.json", `{"steps": {"timeout": "soon"}}`))
	assert.ErrorContains(t, err, "invalid duration")
}

func TestLoad_ExampleFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.Providers["openai"].Model)
	assert.Equal(t, 30*time.Minute, cfg.Watch.Interval.Duration)
	name, _ := cfg.GetDefaultProvider()
	assert.Empty(t, name)
}
