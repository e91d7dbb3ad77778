package kiosk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"

	"crustalyst/internal/common/auth"
	"crustalyst/internal/domain"
)

// Subscription selects which changes a kiosk listens to. TableID narrows
// rows that carry a table_id.
type Subscription struct {
	Tables  []string
	Event   domain.EventType
	TableID int
}

func (s Subscription) query(apiKey string) url.Values {
	q := url.Values{}
	for _, t := range s.Tables {
		q.Add("table", t)
	}
	ev := s.Event
	if ev == "" {
		ev = domain.EventAll
	}
	q.Set("event", string(ev))
	if s.TableID > 0 {
		q.Set("table_id", strconv.Itoa(s.TableID))
	}
	q.Set(auth.APIKeyHeader, apiKey)
	return q
}

// Subscribe streams frames to fn until ctx is cancelled or the connection
// ends. A connection that fails or drops without a CLOSED frame is reported to
// fn as CHANNEL_ERROR. There is no reconnect: the caller's polling covers it.
func (c *Client) Subscribe(ctx context.Context, sub Subscription, fn func(domain.RealtimeFrame)) error {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/realtime"
	u.RawQuery = sub.query(c.apiKey).Encode()

	hdr := http.Header{}
	hdr.Set(auth.APIKeyHeader, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), hdr)
	if err != nil {
		fn(domain.RealtimeFrame{Type: "status", Status: domain.StatusChannelError, Tables: sub.Tables})
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	closed := false
	for {
		var f domain.RealtimeFrame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !closed {
				fn(domain.RealtimeFrame{Type: "status", Status: domain.StatusChannelError, Tables: sub.Tables})
				c.lg.Warn("realtime_channel_error", map[string]any{"tables": sub.Tables, "error": err.Error()})
				return err
			}
			return nil
		}
		if f.Type == "status" && f.Status == domain.StatusClosed {
			closed = true
		}
		fn(f)
	}
}
