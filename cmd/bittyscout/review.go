package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bittyscout/bittyscout/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse classified postings interactively (TUI)",
	Long:  "Launches a split-pane TUI showing relevant and rejected postings sorted by score.",
	RunE:  runReviewCmd,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReviewCmd(cmd *cobra.Command, args []string) error {
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

	postings, err := st.FetchClassified(ctx, 0)
	if err != nil {
		logger.Error("failed to load postings", "error", err)
		os.Exit(1)
	}
	if len(postings) == 0 {
		logger.Info("no classified postings yet, run scrape and classify first")
		return nil
	}

	return review.Run(postings)
}
