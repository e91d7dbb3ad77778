// Package events turns service writes into change events on the broker.
package events

import (
	"context"
	"sync"
	"time"

	"crustalyst/internal/common/logger"
	"crustalyst/internal/common/metrics"
	"crustalyst/internal/domain"
)

const publishTimeout = 3 * time.Second

// Emitter publishes best-effort: a failed publish is logged and counted, never
// returned, so the database write that triggered it stands. A nil Emitter is a no-op.
type Emitter struct {
	pub domain.ChangePublisher
	lg  *logger.Logger
	m   *metrics.Metrics
}

func NewEmitter(pub domain.ChangePublisher, lg *logger.Logger, m *metrics.Metrics) *Emitter {
	if lg == nil {
		lg = logger.NewNop()
	}
	return &Emitter{pub: pub, lg: lg, m: m}
}

func (e *Emitter) Emit(ctx context.Context, table string, event domain.EventType, newRow, oldRow any) {
	if e == nil || e.pub == nil {
		return
	}
	ev, err := domain.NewChangeEvent(table, event, newRow, oldRow)
	if err != nil {
		e.lg.Error("change_event_encode_failed", err, map[string]any{"table": table, "event": string(event)})
		e.m.EventDropped(table)
		return
	}

	// запрос клиента может уже завершиться, публикуем со своим таймаутом
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := e.pub.Publish(pctx, ev); err != nil {
		e.lg.WithContext(ctx).Warn("change_event_publish_failed", map[string]any{
			"table": table, "event": string(event), "error": err.Error(),
		})
		e.m.EventDropped(table)
		return
	}
	e.m.EventPublished(table)
}

// Recorder keeps published events in memory. Useful in tests and as a sink
// when the broker is disabled.
type Recorder struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
	Err    error
}

func (r *Recorder) Publish(_ context.Context, ev domain.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Events() []domain.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ChangeEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Keys returns "<table>.<event>" for every recorded event in order.
func (r *Recorder) Keys() []string {
	evs := r.Events()
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.RoutingKey()
	}
	return out
}
