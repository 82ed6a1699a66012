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

var classifyLimit int

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Run the two-stage relevance classification",
	Long:  "Classifies unclassified postings: a cheap triage pass, then a deep analysis pass for the ones that survive.",
	RunE:  runClassifyCmd,
}

func init() {
	classifyCmd.Flags().IntVar(&classifyLimit, "limit", 0, "max postings to classify this run (0 = config batch_limit)")
	rootCmd.AddCommand(classifyCmd)
}

func runClassifyCmd(cmd *cobra.Command, args []string) error {
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

	if err := classifyPass(ctx, cfg, st, classifyLimit, logger); err != nil {
		logger.Error("classification failed", "error", err)
		os.Exit(1)
	}
	return nil
}

// classifyPass runs one classification batch. A zero limit falls back to the
// configured batch limit.
func classifyPass(ctx context.Context, cfg *config.Config, st *store.SQLiteStore, limit int, logger *slog.Logger) error {
	if limit <= 0 {
		limit = cfg.Scoring.BatchLimit
	}

	engine := newClassifyEngine(cfg, st, logger)
	summary, err := engine.Run(ctx, limit)
	if err != nil {
		return err
	}

	logger.Info("classification complete",
		"processed", summary.Processed,
		"triage_passed", summary.TriagePassed,
		"relevant", summary.Relevant,
		"failed", summary.Failed,
	)
	return nil
}
