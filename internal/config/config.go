package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the BittyScout pipeline.
type Config struct {
	DBPath       string
	Schedule     string // cron spec for the daemon, e.g. "@every 6h"
	Sources      []SourceConfig
	Match        MatchConfig
	Scoring      ScoringConfig
	Notification NotificationConfig
	RateLimit    RateLimitConfig
}

// SourceConfig describes a single job board to ingest.
type SourceConfig struct {
	Name       string `yaml:"name"`     // display name, e.g. company
	Platform   string `yaml:"platform"` // "greenhouse", "lever", "recruitee", "adzuna"
	BoardToken string `yaml:"board_token"`
	Query      string `yaml:"query"`   // adzuna search terms
	Country    string `yaml:"country"` // adzuna country code
	Enabled    bool   `yaml:"enabled"`
}

// MatchConfig is the optional ingestion gate. Empty lists match everything.
type MatchConfig struct {
	Keywords        []string `yaml:"keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	Locations       []string `yaml:"locations"`
	RemotePolicy    string   `yaml:"remote_policy"` // "any", "remote_only", "hybrid_ok"
}

// ProviderConfig holds one chat-completions endpoint.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// ScoringConfig wires the primary/fallback provider chain and the two
// classification stages' model choices.
type ScoringConfig struct {
	Primary       ProviderConfig
	Fallback      ProviderConfig
	MaxRetries    int           // retries on the primary after the first failure
	BaseDelay     time.Duration // first retry delay, doubled per attempt
	TriageModel   string        // primary-provider model for the cheap pass
	AnalysisModel string        // primary-provider model for the deep pass
	BatchLimit    int           // max postings per classification run, 0 = all
}

// NotificationConfig selects the digest channel and its settings.
type NotificationConfig struct {
	Channel    string      `yaml:"channel"`     // "console", "discord" or "email"
	WebhookURL string      `yaml:"webhook_url"` // discord webhook
	Email      EmailConfig `yaml:"email"`
}

// EmailConfig holds Brevo transactional email settings.
type EmailConfig struct {
	APIKey      string `yaml:"api_key"`
	SenderName  string `yaml:"sender_name"`
	SenderEmail string `yaml:"sender_email"`
	Recipient   string `yaml:"recipient"`
}

// RateLimitConfig controls board-level rate limiting.
type RateLimitConfig struct {
	MinDelay          time.Duration
	PlatformOverrides map[string]time.Duration
}

// MinDelayFor returns the configured delay for the given platform, falling
// back to MinDelay.
func (r RateLimitConfig) MinDelayFor(platform string) time.Duration {
	if d, ok := r.PlatformOverrides[platform]; ok {
		return d
	}
	return r.MinDelay
}

const (
	defaultGroqBaseURL       = "https://api.groq.com/openai/v1"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultTriageModel       = "llama-3.1-8b-instant"
	defaultAnalysisModel     = "llama-3.3-70b-versatile"
	defaultFallbackModel     = "mistralai/mistral-7b-instruct"
)

// rawConfig is used for YAML unmarshaling (snake_case fields, durations as strings).
type rawConfig struct {
	DBPath       string             `yaml:"db_path"`
	Schedule     string             `yaml:"schedule"`
	Sources      []SourceConfig     `yaml:"sources"`
	Match        MatchConfig        `yaml:"match"`
	Scoring      rawScoringConfig   `yaml:"scoring"`
	Notification NotificationConfig `yaml:"notification"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
}

type rawScoringConfig struct {
	Primary       rawProviderConfig `yaml:"primary"`
	Fallback      rawProviderConfig `yaml:"fallback"`
	MaxRetries    *int              `yaml:"max_retries"`
	BaseDelay     string            `yaml:"base_delay"`
	TriageModel   string            `yaml:"triage_model"`
	AnalysisModel string            `yaml:"analysis_model"`
	BatchLimit    int               `yaml:"batch_limit"`
}

type rawProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

type rawRateLimitConfig struct {
	MinDelay          string            `yaml:"min_delay"`
	PlatformOverrides map[string]string `yaml:"platform_overrides"`
}

// Load reads and parses the YAML config file at path, expands environment
// variables, validates, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand ${VAR} references so API keys stay in the environment.
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		DBPath:       raw.DBPath,
		Schedule:     raw.Schedule,
		Sources:      raw.Sources,
		Match:        raw.Match,
		Notification: raw.Notification,
	}

	if cfg.DBPath == "" {
		cfg.DBPath = "bittyscout.db"
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 6h"
	}
	if cfg.Match.RemotePolicy == "" {
		cfg.Match.RemotePolicy = "any"
	}

	cfg.Scoring, err = parseScoring(raw.Scoring)
	if err != nil {
		return nil, err
	}

	cfg.RateLimit, err = parseRateLimit(raw.RateLimit)
	if err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseProvider(raw rawProviderConfig, defaultBaseURL, defaultModel string) (ProviderConfig, error) {
	p := ProviderConfig{
		BaseURL: raw.BaseURL,
		APIKey:  raw.APIKey,
		Model:   raw.Model,
		Timeout: 30 * time.Second,
	}
	if p.BaseURL == "" {
		p.BaseURL = defaultBaseURL
	}
	if p.Model == "" {
		p.Model = defaultModel
	}
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return ProviderConfig{}, fmt.Errorf("parse provider timeout %q: %w", raw.Timeout, err)
		}
		p.Timeout = d
	}
	return p, nil
}

func parseScoring(raw rawScoringConfig) (ScoringConfig, error) {
	var (
		sc  ScoringConfig
		err error
	)

	sc.Primary, err = parseProvider(raw.Primary, defaultGroqBaseURL, defaultAnalysisModel)
	if err != nil {
		return ScoringConfig{}, fmt.Errorf("scoring.primary: %w", err)
	}
	sc.Fallback, err = parseProvider(raw.Fallback, defaultOpenRouterBaseURL, defaultFallbackModel)
	if err != nil {
		return ScoringConfig{}, fmt.Errorf("scoring.fallback: %w", err)
	}

	sc.MaxRetries = 2
	if raw.MaxRetries != nil {
		sc.MaxRetries = *raw.MaxRetries
	}

	sc.BaseDelay = 2 * time.Second
	if raw.BaseDelay != "" {
		d, err := time.ParseDuration(raw.BaseDelay)
		if err != nil {
			return ScoringConfig{}, fmt.Errorf("parse scoring.base_delay %q: %w", raw.BaseDelay, err)
		}
		sc.BaseDelay = d
	}

	sc.TriageModel = raw.TriageModel
	if sc.TriageModel == "" {
		sc.TriageModel = defaultTriageModel
	}
	sc.AnalysisModel = raw.AnalysisModel
	if sc.AnalysisModel == "" {
		sc.AnalysisModel = defaultAnalysisModel
	}
	sc.BatchLimit = raw.BatchLimit

	return sc, nil
}

func parseRateLimit(raw rawRateLimitConfig) (RateLimitConfig, error) {
	rl := RateLimitConfig{
		MinDelay:          2 * time.Second,
		PlatformOverrides: make(map[string]time.Duration),
	}
	if raw.MinDelay != "" {
		d, err := time.ParseDuration(raw.MinDelay)
		if err != nil {
			return RateLimitConfig{}, fmt.Errorf("parse rate_limit.min_delay %q: %w", raw.MinDelay, err)
		}
		rl.MinDelay = d
	}
	for platform, s := range raw.PlatformOverrides {
		d, err := time.ParseDuration(s)
		if err != nil {
			return RateLimitConfig{}, fmt.Errorf("parse rate_limit.platform_overrides[%q]: %w", platform, err)
		}
		rl.PlatformOverrides[platform] = d
	}
	return rl, nil
}

func validate(cfg *Config) error {
	enabled := 0
	for _, s := range cfg.Sources {
		if !s.Enabled {
			continue
		}
		enabled++
		switch s.Platform {
		case "greenhouse", "lever", "recruitee":
			if s.BoardToken == "" {
				return fmt.Errorf("source %q: board_token is required for %s", s.Name, s.Platform)
			}
		case "adzuna":
			if s.Query == "" {
				return fmt.Errorf("source %q: query is required for adzuna", s.Name)
			}
		default:
			return fmt.Errorf("source %q: unsupported platform %q", s.Name, s.Platform)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	switch cfg.Match.RemotePolicy {
	case "any", "remote_only", "hybrid_ok":
	default:
		return fmt.Errorf("match.remote_policy must be any, remote_only or hybrid_ok, got %q", cfg.Match.RemotePolicy)
	}

	if cfg.Scoring.MaxRetries < 0 {
		return fmt.Errorf("scoring.max_retries must be >= 0, got %d", cfg.Scoring.MaxRetries)
	}

	switch cfg.Notification.Channel {
	case "", "console":
	case "discord":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when channel is \"discord\"")
		}
	case "email":
		e := cfg.Notification.Email
		if e.APIKey == "" || e.SenderEmail == "" || e.Recipient == "" {
			return fmt.Errorf("notification.email requires api_key, sender_email and recipient")
		}
	default:
		return fmt.Errorf("notification.channel must be console, discord or email, got %q", cfg.Notification.Channel)
	}

	return nil
}
