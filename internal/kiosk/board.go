package kiosk

import (
	"context"
	"sync"
	"time"

	"crustalyst/internal/common/logger"
	"crustalyst/internal/domain"
)

// TableBoard keeps a snapshot of all tables in sync through the realtime feed,
// with polling as a backup. Both paths may refresh at once; the last fetch wins.
type TableBoard struct {
	api      API
	poll     time.Duration
	fallback time.Duration
	lg       *logger.Logger

	mu       sync.RWMutex
	tables   []domain.Table
	selected int
	lastErr  error
	onUpdate func([]domain.Table)

	pollMu     sync.Mutex
	stopPoll   context.CancelFunc
	pollPeriod time.Duration
}

func NewTableBoard(api API, cfg Config) *TableBoard {
	return &TableBoard{
		api:      api,
		poll:     cfg.PollInterval,
		fallback: cfg.FallbackPollInterval,
		lg:       logger.New("table-board"),
	}
}

// OnUpdate registers a callback invoked after every refresh.
func (b *TableBoard) OnUpdate(fn func([]domain.Table)) {
	b.mu.Lock()
	b.onUpdate = fn
	b.mu.Unlock()
}

// Refresh fetches every table. On failure the snapshot becomes empty.
func (b *TableBoard) Refresh(ctx context.Context) {
	tables, err := b.api.Tables(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		b.lg.Warn("tables_fetch_failed", map[string]any{"error": err.Error()})
		tables = nil
	}
	b.mu.Lock()
	b.tables = tables
	b.lastErr = err
	fn := b.onUpdate
	b.mu.Unlock()
	if fn != nil {
		fn(b.Tables())
	}
}

// Run does the initial fetch, starts the backup poller and subscribes to
// table_status. It blocks until ctx is cancelled.
func (b *TableBoard) Run(ctx context.Context) error {
	b.Refresh(ctx)
	b.startPolling(ctx, b.poll, true)

	sub := Subscription{Tables: []string{domain.TableStatusTable}, Event: domain.EventAll}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.api.Subscribe(ctx, sub, func(f domain.RealtimeFrame) { b.handleFrame(ctx, f) })
	}()

	<-ctx.Done()
	b.stopPolling()
	<-done
	return nil
}

func (b *TableBoard) handleFrame(ctx context.Context, f domain.RealtimeFrame) {
	switch {
	case f.Type == "change":
		b.Refresh(ctx)
	case f.Status == domain.StatusSubscribed:
		b.stopPolling()
	case f.Status == domain.StatusClosed, f.Status == domain.StatusChannelError:
		b.lg.Warn("realtime_fallback_polling", map[string]any{"status": f.Status})
		b.startPolling(ctx, b.fallback, false)
	}
}

// startPolling starts a poller unless one already runs (replace=false) or
// swaps the running one (replace=true).
func (b *TableBoard) startPolling(ctx context.Context, every time.Duration, replace bool) {
	b.pollMu.Lock()
	defer b.pollMu.Unlock()
	if b.stopPoll != nil {
		if !replace {
			return
		}
		b.stopPoll()
	}
	pctx, cancel := context.WithCancel(ctx)
	b.stopPoll = cancel
	b.pollPeriod = every
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-pctx.Done():
				return
			case <-t.C:
				b.Refresh(pctx)
			}
		}
	}()
}

func (b *TableBoard) stopPolling() {
	b.pollMu.Lock()
	defer b.pollMu.Unlock()
	if b.stopPoll != nil {
		b.stopPoll()
		b.stopPoll = nil
		b.pollPeriod = 0
	}
}

// Polling returns the active poll period, zero when no poller runs.
func (b *TableBoard) Polling() time.Duration {
	b.pollMu.Lock()
	defer b.pollMu.Unlock()
	return b.pollPeriod
}

func (b *TableBoard) Tables() []domain.Table {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]domain.Table(nil), b.tables...)
}

func (b *TableBoard) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastErr
}

// Available lists tables a customer may pick.
func (b *TableBoard) Available() []domain.Table {
	return b.filter(func(t domain.Table) bool { return t.Status == domain.TableEmpty })
}

// Others lists everything not pickable.
func (b *TableBoard) Others() []domain.Table {
	return b.filter(func(t domain.Table) bool { return t.Status != domain.TableEmpty })
}

func (b *TableBoard) filter(keep func(domain.Table) bool) []domain.Table {
	out := make([]domain.Table, 0)
	for _, t := range b.Tables() {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// Select marks an empty table as the customer's choice. Selecting any other
// table has no effect and reports false.
func (b *TableBoard) Select(id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tables {
		if t.ID == id && t.Status == domain.TableEmpty {
			b.selected = id
			return true
		}
	}
	return false
}

func (b *TableBoard) Selected() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selected
}

// Confirm claims the selected table and clears the selection.
func (b *TableBoard) Confirm(ctx context.Context) (domain.Table, error) {
	id := b.Selected()
	if id == 0 {
		return domain.Table{}, domain.ErrTableUnavailable
	}
	t, err := b.api.ClaimTable(ctx, id)
	if err != nil {
		return domain.Table{}, err
	}
	b.mu.Lock()
	b.selected = 0
	b.mu.Unlock()
	b.Refresh(ctx)
	return t, nil
}
