package app

import (
	"context"
	"time"

	"crustalyst/internal/common/logger"
)

const maxRestartDelay = 30 * time.Second

// Supervise keeps fn running until ctx is cancelled. Every return of fn is
// logged under action and followed by a restart after a doubling delay capped
// at 30s. It returns nil once ctx is done, so a best-effort worker never takes
// its errgroup down with it.
func Supervise(ctx context.Context, lg *logger.Logger, action string, delay time.Duration, fn func(context.Context) error) error {
	if delay <= 0 {
		delay = time.Second
	}
	wait := delay
	for {
		started := time.Now()
		err := fn(ctx)
		if ctx.Err() != nil {
			return nil
		}
		// долго проработал: начинаем паузы заново
		if time.Since(started) > maxRestartDelay {
			wait = delay
		}
		fields := map[string]any{"retry_in": wait.String()}
		if err != nil {
			fields["error"] = err.Error()
		}
		lg.Warn(action, fields)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
		if wait *= 2; wait > maxRestartDelay {
			wait = maxRestartDelay
		}
	}
}
