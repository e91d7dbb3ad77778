package housekeeping

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crustalyst/internal/common/logger"
)

type fakeReleaser struct {
	calls atomic.Int32
	n     int
	err   error
}

func (f *fakeReleaser) ReleaseExpired(context.Context) (int, error) {
	f.calls.Add(1)
	return f.n, f.err
}

func TestSweep(t *testing.T) {
	s := NewSweeper(&fakeReleaser{n: 2}, "sweeper-1", time.Second, logger.NewNop())
	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	s = NewSweeper(&fakeReleaser{err: errors.New("db down")}, "sweeper-1", time.Second, logger.NewNop())
	_, err = s.Sweep(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	rel := &fakeReleaser{err: errors.New("flaky")}
	s := NewSweeper(rel, "sweeper-1", 10*time.Millisecond, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return rel.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRun_RequiresName(t *testing.T) {
	s := NewSweeper(&fakeReleaser{}, " ", time.Second, logger.NewNop())
	assert.Error(t, s.Run(context.Background()))
}
