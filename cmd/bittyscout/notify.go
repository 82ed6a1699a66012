package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bittyscout/bittyscout/internal/config"
	"github.com/bittyscout/bittyscout/internal/notifier"
	"github.com/bittyscout/bittyscout/internal/store"
)

var notifyChannel string

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a digest of relevant postings",
	Long:  "Builds a digest of relevant postings that have not been sent yet and delivers it on the configured channel.",
	RunE:  runNotifyCmd,
}

func init() {
	notifyCmd.Flags().StringVar(&notifyChannel, "channel", "", "override the configured channel (console, discord, email)")
	rootCmd.AddCommand(notifyCmd)
}

func runNotifyCmd(cmd *cobra.Command, args []string) error {
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

	if err := notifyPass(ctx, cfg, st, notifyChannel, logger); err != nil {
		logger.Error("notification failed", "error", err)
		os.Exit(1)
	}
	return nil
}

// notifyPass drains the relevant-unnotified queue into one digest delivery.
func notifyPass(ctx context.Context, cfg *config.Config, st *store.SQLiteStore, channelOverride string, logger *slog.Logger) error {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	n, err := setupNotifier(cfg, channelOverride, httpClient, logger)
	if err != nil {
		return err
	}

	sel := notifier.NewSelector(st, n, logger)
	_, err = sel.Run(ctx)
	return err
}
