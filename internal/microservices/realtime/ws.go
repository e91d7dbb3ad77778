package realtime

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"crustalyst/internal/common/httpx"
	"crustalyst/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var knownTables = []string{
	domain.TableStatusTable,
	domain.MenuItemsTable,
	domain.OrdersTable,
	domain.OrderItemsTable,
	domain.StaffNotificationsTable,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func Routes(h *Hub, r chi.Router) {
	r.Get("/realtime", h.ServeWS)
}

// ServeWS upgrades GET /realtime?table=<name>[&table=...][&event=*][&table_id=<id>].
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	c, err := parseSubscription(r)
	if err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.lg.WithContext(r.Context()).Warn("realtime_upgrade_failed", map[string]any{"error": err.Error()})
		return
	}
	c.conn = conn
	c.send <- statusFrame(domain.StatusSubscribed, c.tableNames())
	if !h.add(c) {
		c.send <- statusFrame(domain.StatusClosed, c.tableNames())
		close(c.send)
		h.writePump(c)
		return
	}
	go h.writePump(c)
	h.readPump(c)
}

func parseSubscription(r *http.Request) (*client, error) {
	q := r.URL.Query()
	c := &client{
		id:     uuid.NewString(),
		send:   make(chan domain.RealtimeFrame, sendBuffer),
		tables: make(map[string]bool),
		event:  domain.EventAll,
	}
	for _, t := range q["table"] {
		if !known(t) {
			return nil, fmt.Errorf("unknown table %q", t)
		}
		c.tables[t] = true
	}
	if len(c.tables) == 0 {
		return nil, fmt.Errorf("at least one table is required")
	}
	switch ev := domain.EventType(q.Get("event")); ev {
	case "", domain.EventAll:
	case domain.EventInsert, domain.EventUpdate, domain.EventDelete:
		c.event = ev
	default:
		return nil, fmt.Errorf("unknown event %q", ev)
	}
	if s := q.Get("table_id"); s != "" {
		c.tableID = httpx.AtoiDefault(s, 0)
		if c.tableID <= 0 {
			return nil, fmt.Errorf("invalid table_id %q", s)
		}
	}
	return c, nil
}

func known(table string) bool {
	for _, t := range knownTables {
		if t == table {
			return true
		}
	}
	return false
}

// readPump only watches for the peer going away; subscribers do not send data.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				h.lg.Debug("realtime_write_failed", map[string]any{"client_id": c.id, "error": err.Error()})
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
