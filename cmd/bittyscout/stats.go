package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print record store counts",
	RunE:  runStatsCmd,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStatsCmd(cmd *cobra.Command, args []string) error {
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

	// Counts are diagnostic only; a failed read degrades to zeros.
	counts, err := st.Stats(ctx)
	if err != nil {
		logger.Warn("failed to read stats, reporting zeros", "error", err)
	}

	fmt.Printf("total         %d\n", counts.Total)
	fmt.Printf("unclassified  %d\n", counts.Unclassified)
	fmt.Printf("relevant      %d\n", counts.Relevant)
	fmt.Printf("notified      %d\n", counts.Notified)
	return nil
}
