package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Pipeline is one full scrape → classify → notify pass.
type Pipeline interface {
	Run(ctx context.Context) error
}

// PipelineFunc adapts a plain function to the Pipeline interface.
type PipelineFunc func(ctx context.Context) error

func (f PipelineFunc) Run(ctx context.Context) error { return f(ctx) }

// Scheduler runs the pipeline on a cron spec (e.g. "@every 6h").
// Overlapping runs are skipped: if a pass is still going when the next
// tick fires, the tick is dropped.
type Scheduler struct {
	cron     *cron.Cron
	pipeline Pipeline
	spec     string
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// New creates a scheduler for the given cron spec.
func New(spec string, pipeline Pipeline, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		pipeline: pipeline,
		spec:     spec,
		logger:   logger,
	}
}

// Start registers the pipeline and starts the cron loop. It also runs one
// pass immediately so a fresh install does not wait for the first tick.
// Blocks until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("register cron spec %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec)

	s.runOnce(ctx)

	<-ctx.Done()
	s.logger.Info("scheduler stopping")

	// Stop accepting new ticks and wait for a running pass to finish.
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("previous pipeline pass still running, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if ctx.Err() != nil {
		return
	}
	if err := s.pipeline.Run(ctx); err != nil {
		s.logger.Error("pipeline pass failed", "error", err)
	}
}
