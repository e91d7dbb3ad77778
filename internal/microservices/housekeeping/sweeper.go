// Package housekeeping runs the cleaning-window sweeper that returns tables to empty.
package housekeeping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crustalyst/internal/common/logger"
)

// Releaser moves tables whose cleaning window has elapsed back to empty.
type Releaser interface {
	ReleaseExpired(ctx context.Context) (int, error)
}

type SweeperInterface interface {
	Sweep(ctx context.Context) (int, error)
	Run(ctx context.Context) error
}

type Sweeper struct {
	tables Releaser
	lg     *logger.Logger

	WorkerName string
	Every      time.Duration
}

func NewSweeper(tables Releaser, workerName string, every time.Duration, lg *logger.Logger) *Sweeper {
	if every <= 0 {
		every = 15 * time.Second
	}
	if lg == nil {
		lg = logger.New("housekeeping")
	}
	return &Sweeper{tables: tables, lg: lg, WorkerName: workerName, Every: every}
}

// Sweep runs one pass. The database clock decides what has expired.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	n, err := s.tables.ReleaseExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to release expired tables: %w", err)
	}
	if n > 0 {
		s.lg.Info("cleaning_sweep_done", map[string]any{"worker": s.WorkerName, "released": n})
	}
	return n, nil
}

// Run sweeps once at start and then every s.Every until ctx is cancelled.
// A failed pass is logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	if strings.TrimSpace(s.WorkerName) == "" {
		return fmt.Errorf("worker name is empty")
	}
	s.lg.Info("sweeper_started", map[string]any{"worker": s.WorkerName, "every": s.Every.String()})

	t := time.NewTicker(s.Every)
	defer t.Stop()
	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.lg.Error("cleaning_sweep_failed", err, map[string]any{"worker": s.WorkerName})
		}
		select {
		case <-ctx.Done():
			s.lg.Info("graceful_shutdown", map[string]any{"worker": s.WorkerName})
			return nil
		case <-t.C:
		}
	}
}
