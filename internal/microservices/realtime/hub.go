// Package realtime fans change events from the broker out to websocket subscribers.
package realtime

import (
	"context"

	"github.com/gorilla/websocket"

	"crustalyst/internal/common/logger"
	"crustalyst/internal/common/metrics"
	"crustalyst/internal/domain"
)

const sendBuffer = 32

// client is one websocket subscription.
type client struct {
	id      string
	conn    *websocket.Conn
	send    chan domain.RealtimeFrame
	tables  map[string]bool
	event   domain.EventType
	tableID int
}

func (c *client) wants(ev domain.ChangeEvent) bool {
	if !c.tables[ev.Table] || !ev.Matches(ev.Table, c.event) {
		return false
	}
	if c.tableID != 0 {
		if id, ok := ev.RowTableID(); ok && id != c.tableID {
			return false
		}
	}
	return true
}

func (c *client) tableNames() []string {
	out := make([]string, 0, len(c.tables))
	for _, t := range knownTables {
		if c.tables[t] {
			out = append(out, t)
		}
	}
	return out
}

func statusFrame(status string, tables []string) domain.RealtimeFrame {
	return domain.RealtimeFrame{Type: "status", Status: status, Tables: tables}
}

// Hub owns the subscriber set. Only Run touches clients.
type Hub struct {
	clients    map[*client]struct{}
	broadcast  chan domain.ChangeEvent
	register   chan *client
	unregister chan *client
	done       chan struct{}
	lg         *logger.Logger
	m          *metrics.Metrics
}

func NewHub(lg *logger.Logger, m *metrics.Metrics) *Hub {
	if lg == nil {
		lg = logger.New("realtime")
	}
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan domain.ChangeEvent, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		lg:         lg,
		m:          m,
	}
}

// Run serves register/unregister/broadcast until ctx is cancelled, then sends
// CLOSED to every subscriber.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c, domain.StatusClosed)
			}
			h.lg.Info("realtime_hub_stopped", nil)
			return nil

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.m.ClientConnected()
			h.lg.Debug("realtime_client_registered", map[string]any{"client_id": c.id, "tables": c.tableNames()})

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c, "")
			}

		case ev := <-h.broadcast:
			for c := range h.clients {
				if !c.wants(ev) {
					continue
				}
				ev := ev
				select {
				case c.send <- domain.RealtimeFrame{Type: "change", Change: &ev}:
				default:
					// клиент не успевает читать
					h.lg.Warn("realtime_client_too_slow", map[string]any{"client_id": c.id})
					h.drop(c, "")
				}
			}
		}
	}
}

// drop removes c and closes its queue; status, when set, is the last frame it gets.
func (h *Hub) drop(c *client, status string) {
	delete(h.clients, c)
	if status != "" {
		select {
		case c.send <- statusFrame(status, c.tableNames()):
		default:
		}
	}
	close(c.send)
	h.m.ClientDisconnected()
}

// Publish hands ev to the hub. It satisfies domain.ChangePublisher so the hub
// can also sit directly behind an events.Emitter.
func (h *Hub) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	select {
	case h.broadcast <- ev:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) add(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
