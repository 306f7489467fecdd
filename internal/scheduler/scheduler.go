package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Ingester re-reads example-note paths into the index.
type Ingester interface {
	Ingest(ctx context.Context, paths []string) (files int, added int, err error)
}

// Scheduler periodically re-ingests a fixed set of paths so files dropped
// into a watched folder get indexed without a restart.
type Scheduler struct {
	cron     *cron.Cron
	ingester Ingester
	paths    []string
	timeout  time.Duration
	logger   *slog.Logger
}

// New parses schedule (standard five-field cron or @every/@hourly descriptors).
func New(schedule string, paths []string, ingester Ingester, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ingester: ingester,
		paths:    paths,
		timeout:  30 * time.Minute,
		logger:   logger,
	}
	if _, err := s.cron.AddFunc(schedule, func() { _ = s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("ingest schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	s.logger.Info("ingest scheduler started", "paths", s.paths)
	s.cron.Start()
}

// Stop halts the schedule and waits for a running ingest to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// RunOnce performs a single re-ingest.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	start := time.Now()
	files, added, err := s.ingester.Ingest(ctx, s.paths)
	if err != nil {
		s.logger.Error("scheduled ingest failed", "error", err)
		return err
	}
	s.logger.Info("scheduled ingest finished", "files", files, "added", added, "took", time.Since(start))
	return nil
}
