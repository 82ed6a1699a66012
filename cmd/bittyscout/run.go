package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bittyscout/bittyscout/internal/config"
	"github.com/bittyscout/bittyscout/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full pipeline pass",
	Long:  "Scrapes all sources, classifies new postings, and sends the digest, then exits.",
	RunE:  runPipelineCmd,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipelineCmd(cmd *cobra.Command, args []string) error {
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

	if err := pipelinePass(ctx, cfg, st, logger); err != nil {
		logger.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
	logger.Info("pipeline pass complete")
	return nil
}

// pipelinePass is one scrape → classify → notify cycle. Used by both the
// one-shot run command and the cron daemon.
func pipelinePass(ctx context.Context, cfg *config.Config, st *store.SQLiteStore, logger *slog.Logger) error {
	if err := scrape(ctx, cfg, st, "", logger); err != nil {
		return err
	}
	if err := classifyPass(ctx, cfg, st, 0, logger); err != nil {
		return err
	}
	return notifyPass(ctx, cfg, st, "", logger)
}
