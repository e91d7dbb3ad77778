package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableStatus_Display(t *testing.T) {
	cases := map[TableStatus]DisplayStatus{
		TableEmpty:        DisplayEmpty,
		TableReserved:     DisplayReserved,
		TableOccupied:     DisplayOccupied,
		TableCleaning:     DisplayCleaning,
		TableCallingStaff: DisplayOccupied,
		"":                DisplayEmpty,
		"broken":          DisplayEmpty,
	}
	for in, want := range cases {
		assert.Equal(t, want, in.Display(), string(in))
	}
}

func TestParseTableStatus(t *testing.T) {
	st, err := ParseTableStatus("calling_staff")
	require.NoError(t, err)
	assert.Equal(t, TableCallingStaff, st)

	_, err = ParseTableStatus("Occupied")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestOrderStatus_Partitions(t *testing.T) {
	for _, s := range []OrderStatus{OrderOrdered, OrderCooking, OrderReadyToServe} {
		assert.True(t, s.Ongoing(), s)
		assert.False(t, s.Finished(), s)
	}
	for _, s := range []OrderStatus{OrderCompleted, OrderCancelled} {
		assert.True(t, s.Finished(), s)
		assert.False(t, s.Ongoing(), s)
	}
	assert.False(t, OrderPending.Ongoing())
	assert.False(t, OrderPending.Finished())

	st, err := ParseOrderStatus("Ready to Serve")
	require.NoError(t, err)
	assert.Equal(t, OrderReadyToServe, st)
	_, err = ParseOrderStatus("ready")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestOrderItem_LineTotal(t *testing.T) {
	it := OrderItem{UnitPrice: decimal.RequireFromString("14.95"), Quantity: 3}
	assert.Equal(t, "44.85", it.LineTotal().StringFixed(2))
}

func TestChangeEvent(t *testing.T) {
	ev, err := NewChangeEvent(OrdersTable, EventInsert, map[string]any{"id": 9, "table_id": 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, "orders.INSERT", ev.RoutingKey())
	assert.Nil(t, ev.Old)

	assert.True(t, ev.Matches(OrdersTable, EventAll))
	assert.True(t, ev.Matches(OrdersTable, ""))
	assert.True(t, ev.Matches(OrdersTable, EventInsert))
	assert.False(t, ev.Matches(OrdersTable, EventUpdate))
	assert.False(t, ev.Matches(OrderItemsTable, EventAll))

	id, ok := ev.RowTableID()
	assert.True(t, ok)
	assert.Equal(t, 4, id)
}

func TestChangeEvent_RowTableIDFromOld(t *testing.T) {
	ev := ChangeEvent{Table: OrdersTable, Event: EventDelete, Old: json.RawMessage(`{"id":1,"table_id":7}`)}
	id, ok := ev.RowTableID()
	assert.True(t, ok)
	assert.Equal(t, 7, id)

	_, ok = ChangeEvent{New: json.RawMessage(`{"id":1}`)}.RowTableID()
	assert.False(t, ok)
}

func TestFallbackMenu_FreshCopy(t *testing.T) {
	a := FallbackMenu()
	require.Len(t, a, 1)
	assert.Equal(t, "14.95", a[0].Price.StringFixed(2))

	a[0].Name = "changed"
	assert.Equal(t, "Assorted House-made Cheese (S)", FallbackMenu()[0].Name)
}
