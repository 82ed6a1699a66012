package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bittyscout/bittyscout/internal/adapter"
	"github.com/bittyscout/bittyscout/internal/classify"
	"github.com/bittyscout/bittyscout/internal/config"
	"github.com/bittyscout/bittyscout/internal/matcher"
	"github.com/bittyscout/bittyscout/internal/model"
	"github.com/bittyscout/bittyscout/internal/notifier"
	"github.com/bittyscout/bittyscout/internal/ratelimit"
	"github.com/bittyscout/bittyscout/internal/retry"
	"github.com/bittyscout/bittyscout/internal/scoring"
	"github.com/bittyscout/bittyscout/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "bittyscout",
	Short: "Job scout — scrape, classify, notify",
	Long:  "BittyScout ingests postings from job boards, classifies them with a two-stage LLM pipeline, and sends digests of the relevant ones.",
	// Default to `run` so that `bittyscout` with no args does one full pass.
	RunE: runPipelineCmd,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: BITTYSCOUT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > BITTYSCOUT_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("BITTYSCOUT_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func openStore(cfg *config.Config, logger *slog.Logger) (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store %q: %w", cfg.DBPath, err)
	}
	logger.Debug("store opened", "path", cfg.DBPath)
	return st, nil
}

func createSource(src config.SourceConfig, httpClient *http.Client, logger *slog.Logger) (model.Source, bool) {
	switch src.Platform {
	case "greenhouse":
		return adapter.NewGreenhouseAdapter(src.BoardToken, src.Name, httpClient), true
	case "lever":
		return adapter.NewLeverAdapter(src.BoardToken, src.Name, httpClient), true
	case "recruitee":
		return adapter.NewRecruiteeAdapter(src.BoardToken, src.Name, httpClient), true
	case "adzuna":
		appID := os.Getenv("ADZUNA_APP_ID")
		appKey := os.Getenv("ADZUNA_APP_KEY")
		return adapter.NewAdzunaAdapter(appID, appKey, src.Country, src.Query, httpClient), true
	default:
		logger.Warn("unsupported platform, skipping", "source", src.Name, "platform", src.Platform)
		return nil, false
	}
}

// buildSources creates one decorated Source per enabled config entry:
// adapter → retry → shared per-platform rate limiter. The onlyPlatform
// filter narrows to a single platform when non-empty (scrape --source).
func buildSources(cfg *config.Config, onlyPlatform string, httpClient *http.Client, logger *slog.Logger) []model.Source {
	limiter := ratelimit.NewPlatformRateLimiter(cfg.RateLimit.MinDelayFor)

	var sources []model.Source
	for _, src := range cfg.Sources {
		if !src.Enabled {
			continue
		}
		if onlyPlatform != "" && src.Platform != onlyPlatform {
			continue
		}

		s, ok := createSource(src, httpClient, logger)
		if !ok {
			continue
		}

		s = retry.NewRetrySource(s, 2, 5*time.Second, logger)
		s = ratelimit.NewRateLimitedSource(s, limiter)
		sources = append(sources, s)
		logger.Info("registered source", "name", src.Name, "platform", src.Platform)
	}
	return sources
}

func buildGate(cfg *config.Config) *matcher.KeywordMatcher {
	return matcher.NewKeywordMatcher(
		cfg.Match.Keywords,
		cfg.Match.ExcludeKeywords,
		cfg.Match.Locations,
		cfg.Match.RemotePolicy,
	)
}

// setupNotifier builds the configured digest channel. The channelOverride
// (notify --channel) takes precedence over the config value.
func setupNotifier(cfg *config.Config, channelOverride string, httpClient *http.Client, logger *slog.Logger) (model.Notifier, error) {
	channel := cfg.Notification.Channel
	if channelOverride != "" {
		channel = channelOverride
	}

	switch channel {
	case "", "console":
		return notifier.NewConsoleNotifier(logger), nil
	case "discord":
		if cfg.Notification.WebhookURL == "" {
			return nil, fmt.Errorf("notification.webhook_url is required for the discord channel")
		}
		logger.Info("using discord notifier")
		return notifier.NewDiscordNotifier(cfg.Notification.WebhookURL, httpClient, logger), nil
	case "email":
		e := cfg.Notification.Email
		logger.Info("using email notifier", "recipient", e.Recipient)
		return notifier.NewEmailNotifier(e.APIKey, e.SenderEmail, e.SenderName, e.Recipient, httpClient, logger)
	default:
		return nil, fmt.Errorf("unknown notification channel %q", channel)
	}
}

// newClassifyEngine wires the provider chain and the two-stage engine.
func newClassifyEngine(cfg *config.Config, st *store.SQLiteStore, logger *slog.Logger) *classify.Engine {
	sc := cfg.Scoring
	providers := []scoring.Provider{
		scoring.NewChatProvider("primary", sc.Primary.BaseURL, sc.Primary.APIKey, sc.Primary.Model,
			&http.Client{Timeout: sc.Primary.Timeout}),
		scoring.NewChatProvider("fallback", sc.Fallback.BaseURL, sc.Fallback.APIKey, sc.Fallback.Model,
			&http.Client{Timeout: sc.Fallback.Timeout}),
	}
	client := scoring.NewClient(providers, sc.MaxRetries, sc.BaseDelay, logger)
	return classify.NewEngine(st, client, scoring.FailureSentinel, sc.TriageModel, sc.AnalysisModel, logger)
}
