package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Names of the tables a change event can refer to.
const (
	TableStatusTable        = "table_status"
	MenuItemsTable          = "menu_items"
	OrdersTable             = "orders"
	OrderItemsTable         = "order_items"
	StaffNotificationsTable = "staff_notifications"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	EventAll    EventType = "*"
)

// Subscription states reported to realtime clients.
const (
	StatusSubscribed   = "SUBSCRIBED"
	StatusClosed       = "CLOSED"
	StatusChannelError = "CHANNEL_ERROR"
)

type ChangeEvent struct {
	Table           string          `json:"table"`
	Event           EventType       `json:"event"`
	New             json.RawMessage `json:"new,omitempty"`
	Old             json.RawMessage `json:"old,omitempty"`
	CommitTimestamp time.Time       `json:"commit_timestamp"`
}

func NewChangeEvent(table string, event EventType, newRow, oldRow any) (ChangeEvent, error) {
	ev := ChangeEvent{Table: table, Event: event, CommitTimestamp: time.Now().UTC()}
	if newRow != nil {
		b, err := json.Marshal(newRow)
		if err != nil {
			return ChangeEvent{}, err
		}
		ev.New = b
	}
	if oldRow != nil {
		b, err := json.Marshal(oldRow)
		if err != nil {
			return ChangeEvent{}, err
		}
		ev.Old = b
	}
	return ev, nil
}

func (e ChangeEvent) RoutingKey() string { return e.Table + "." + string(e.Event) }

// Matches reports whether the event belongs to table and event; "*" matches any event.
func (e ChangeEvent) Matches(table string, event EventType) bool {
	if e.Table != table {
		return false
	}
	return event == "" || event == EventAll || event == e.Event
}

// RowTableID extracts "table_id" from the new row, falling back to the old one.
func (e ChangeEvent) RowTableID() (int, bool) {
	for _, raw := range []json.RawMessage{e.New, e.Old} {
		if len(raw) == 0 {
			continue
		}
		var row struct {
			TableID *int `json:"table_id"`
		}
		if err := json.Unmarshal(raw, &row); err == nil && row.TableID != nil {
			return *row.TableID, true
		}
	}
	return 0, false
}

// RealtimeFrame is one websocket message: either a subscription status or a change.
type RealtimeFrame struct {
	Type   string       `json:"type"` // status | change
	Status string       `json:"status,omitempty"`
	Tables []string     `json:"tables,omitempty"`
	Change *ChangeEvent `json:"change,omitempty"`
}

type ChangePublisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}
