package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bittyscout/bittyscout/internal/config"
	"github.com/bittyscout/bittyscout/internal/ingest"
	"github.com/bittyscout/bittyscout/internal/store"
)

var scrapePlatform string

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch postings from all enabled sources",
	Long:  "Fetches postings from every enabled job board and upserts them into the record store.",
	RunE:  runScrapeCmd,
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapePlatform, "source", "", "only scrape this platform (greenhouse, lever, recruitee, adzuna)")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrapeCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := scrape(ctx, cfg, st, scrapePlatform, logger); err != nil {
		logger.Error("scrape failed", "error", err)
		os.Exit(1)
	}
	return nil
}

// scrape runs one ingestion pass over the configured sources.
func scrape(ctx context.Context, cfg *config.Config, st *store.SQLiteStore, onlyPlatform string, logger *slog.Logger) error {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	sources := buildSources(cfg, onlyPlatform, httpClient, logger)
	if len(sources) == 0 {
		return fmt.Errorf("no sources to scrape")
	}

	runner := ingest.NewRunner(sources, st, buildGate(cfg), logger)
	results := runner.Run(ctx)

	totalSeen, totalAdded := 0, 0
	for _, r := range results {
		totalSeen += r.Seen
		totalAdded += r.Added
	}
	logger.Info("scrape complete", "sources", len(results), "seen", totalSeen, "added", totalAdded)
	return nil
}
