package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const DefaultGoal = "Find the next SpaceX launch, check weather at that location, then summarize if it may be delayed."

// Environment variables that override file values.
const (
	EnvWeatherAPIKey = "OPENWEATHER_API_KEY"
	EnvTelegramToken = "TELEGRAM_BOT_TOKEN"
	EnvDiscordToken  = "DISCORD_BOT_TOKEN"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvGoal          = "LIFTOFF_GOAL"
)

type Config struct {
	App       AppConfig                 `json:"app" yaml:"app" toml:"app"`
	Steps     StepsConfig               `json:"steps" yaml:"steps" toml:"steps"`
	Providers map[string]ProviderConfig `json:"providers" yaml:"providers" toml:"providers"`
	Gateways  map[string]GatewayConfig  `json:"gateways" yaml:"gateways" toml:"gateways"`
	Watch     WatchConfig               `json:"watch" yaml:"watch" toml:"watch"`
	Policy    PolicyConfig              `json:"policy" yaml:"policy" toml:"policy"`
	Logging   LoggingConfig             `json:"logging" yaml:"logging" toml:"logging"`
}

type AppConfig struct {
	Name       string `json:"name" yaml:"name" toml:"name"`
	Goal       string `json:"goal" yaml:"goal" toml:"goal"`
	PromptsDir string `json:"prompts_dir" yaml:"prompts_dir" toml:"prompts_dir"`
}

// StepsConfig configures the concrete pipeline steps and their HTTP client.
type StepsConfig struct {
	SpaceXBaseURL     string   `json:"spacex_base_url" yaml:"spacex_base_url" toml:"spacex_base_url"`
	WeatherBaseURL    string   `json:"weather_base_url" yaml:"weather_base_url" toml:"weather_base_url"`
	WeatherAPIKey     string   `json:"weather_api_key" yaml:"weather_api_key" toml:"weather_api_key"`
	Units             string   `json:"units" yaml:"units" toml:"units"`
	Timeout           Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
	RequestsPerSecond float64  `json:"requests_per_second" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int      `json:"burst" yaml:"burst" toml:"burst"`
	UserAgent         string   `json:"user_agent" yaml:"user_agent" toml:"user_agent"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key" toml:"api_key"`
	Model   string `json:"model" yaml:"model" toml:"model"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
}

type GatewayConfig struct {
	Token        string   `json:"token" yaml:"token" toml:"token"`
	Enabled      bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	AllowedChats []string `json:"allowed_chats,omitempty" yaml:"allowed_chats,omitempty" toml:"allowed_chats,omitempty"`
}

// WatchConfig drives the periodic report pushed by the watch command.
type WatchConfig struct {
	Interval Duration `json:"interval" yaml:"interval" toml:"interval"`
	Gateway  string   `json:"gateway" yaml:"gateway" toml:"gateway"`
	ChatID   string   `json:"chat_id" yaml:"chat_id" toml:"chat_id"`
}

type PolicyConfig struct {
	DeniedPatterns []string `json:"denied_patterns" yaml:"denied_patterns" toml:"denied_patterns"`
	MaxGoalLength  int      `json:"max_goal_length" yaml:"max_goal_length" toml:"max_goal_length"`
}

type LoggingConfig struct {
	Events     bool   `json:"events" yaml:"events" toml:"events"`
	LLMLogPath string `json:"llm_log_path,omitempty" yaml:"llm_log_path,omitempty" toml:"llm_log_path,omitempty"`
}

// Duration reads "10s"-style strings from every supported format.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:       "liftoff",
			Goal:       DefaultGoal,
			PromptsDir: "./prompts",
		},
		Steps: StepsConfig{
			SpaceXBaseURL:     "https://api.spacexdata.com/v4",
			WeatherBaseURL:    "https://api.openweathermap.org/data/2.5/weather",
			Units:             "metric",
			Timeout:           Duration{10 * time.Second},
			RequestsPerSecond: 5,
			Burst:             1,
			UserAgent:         "liftoff/0.1",
		},
		Providers: map[string]ProviderConfig{},
		Gateways:  map[string]GatewayConfig{},
		Watch: WatchConfig{
			Interval: Duration{30 * time.Minute},
			Gateway:  "telegram",
		},
		Policy: PolicyConfig{
			MaxGoalLength: 500,
		},
		Logging: LoggingConfig{
			Events: true,
		},
	}
}

// Load reads path over the defaults, choosing the decoder by extension, then
// applies environment overrides. An empty path or a missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Printf("Config file %s not found, using defaults", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvWeatherAPIKey); v != "" {
		c.Steps.WeatherAPIKey = v
	}
	if v := os.Getenv(EnvGoal); v != "" {
		c.App.Goal = v
	}
	if v := os.Getenv(EnvTelegramToken); v != "" {
		c.setGatewayToken("telegram", v)
	}
	if v := os.Getenv(EnvDiscordToken); v != "" {
		c.setGatewayToken("discord", v)
	}
	if v := os.Getenv(EnvOpenAIKey); v != "" {
		if c.Providers == nil {
			c.Providers = map[string]ProviderConfig{}
		}
		p := c.Providers["openai"]
		p.APIKey = v
		c.Providers["openai"] = p
	}
}

// setGatewayToken fills the token only; enabling a gateway stays a file decision.
func (c *Config) setGatewayToken(name, token string) {
	if c.Gateways == nil {
		c.Gateways = map[string]GatewayConfig{}
	}
	g := c.Gateways[name]
	g.Token = token
	c.Gateways[name] = g
}

var validUnits = map[string]bool{"metric": true, "imperial": true, "standard": true}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Steps.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("steps.timeout must be positive, got %s", c.Steps.Timeout))
	}
	if c.Steps.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("steps.requests_per_second must be positive, got %g", c.Steps.RequestsPerSecond))
	}
	if c.Steps.Burst < 1 {
		errs = append(errs, fmt.Errorf("steps.burst must be at least 1, got %d", c.Steps.Burst))
	}
	if !validUnits[c.Steps.Units] {
		errs = append(errs, fmt.Errorf("steps.units must be metric, imperial or standard, got %q", c.Steps.Units))
	}
	if c.Watch.Interval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("watch.interval must be positive, got %s", c.Watch.Interval))
	}
	if c.Policy.MaxGoalLength < 0 {
		errs = append(errs, fmt.Errorf("policy.max_goal_length must not be negative, got %d", c.Policy.MaxGoalLength))
	}
	for name, g := range c.Gateways {
		if g.Enabled && g.Token == "" {
			errs = append(errs, fmt.Errorf("gateways.%s is enabled but has no token", name))
		}
	}
	return errors.Join(errs...)
}

// GetDefaultProvider returns the first enabled provider by name.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p := c.Providers[name]; p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetGatewayConfig returns the named gateway if it is enabled and has a token.
func (c *Config) GetGatewayConfig(name string) (GatewayConfig, bool) {
	g, ok := c.Gateways[name]
	if ok && g.Enabled && g.Token != "" {
		return g, true
	}
	return GatewayConfig{}, false
}
