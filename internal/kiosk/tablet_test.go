package kiosk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crustalyst/internal/domain"
)

func newTabletAPI() *fakeAPI {
	return &fakeAPI{
		tables: []domain.Table{table(3, domain.TableOccupied)},
		menu: []domain.MenuItem{
			menuItem(2, "Burrata", "Appetizers & Salads", "12.50"),
			menuItem(4, "Margherita", "Pizza", "13.00"),
		},
		categories: []string{"All", "Appetizers & Salads", "Pizza"},
		history:    domain.History{TableID: 3, SessionTotal: decimal.NewFromInt(20)},
		submitResp: domain.CreateOrderResponse{OrderID: 7, Status: domain.OrderOrdered, TotalAmount: decimal.NewFromInt(26), SessionTotal: decimal.NewFromInt(46)},
	}
}

func TestTablet_LoadAndFilter(t *testing.T) {
	tab := NewTablet(newTabletAPI(), 3)
	require.NoError(t, tab.Load(context.Background()))

	assert.Equal(t, 3, tab.Table().ID)
	assert.Len(t, tab.VisibleMenu(), 2)
	tab.SetCategory("Pizza")
	require.Len(t, tab.VisibleMenu(), 1)
	assert.Equal(t, "Margherita", tab.VisibleMenu()[0].Name)
	assert.Equal(t, "20", tab.SessionTotal().String())
}

func TestTablet_LoadMissingTable(t *testing.T) {
	tab := NewTablet(newTabletAPI(), 99)
	assert.ErrorIs(t, tab.Load(context.Background()), domain.ErrTableNotFound)
}

func TestTablet_MenuFailureUsesFallback(t *testing.T) {
	api := newTabletAPI()
	api.menuErr = errors.New("offline")
	tab := NewTablet(api, 3)
	require.NoError(t, tab.Load(context.Background()))

	menu := tab.VisibleMenu()
	require.Len(t, menu, 1)
	assert.Equal(t, "14.95", menu[0].Price.StringFixed(2))
	assert.Equal(t, []string{"All", menu[0].Category}, tab.Categories())
}

func TestTablet_SendOrder(t *testing.T) {
	api := newTabletAPI()
	tab := NewTablet(api, 3)
	require.NoError(t, tab.Load(context.Background()))

	_, sent, err := tab.SendOrder(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, sent, "empty cart is a no-op")
	assert.Empty(t, api.submitted)

	tab.Cart().Add(api.menu[1])
	tab.Cart().Add(api.menu[1])
	api.history.SessionTotal = decimal.NewFromInt(46)

	resp, sent, err := tab.SendOrder(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 7, resp.OrderID)
	assert.True(t, tab.Cart().Empty())
	assert.Equal(t, "46", tab.SessionTotal().String())
	require.Len(t, api.submitted, 1)
	assert.Equal(t, 2, api.submitted[0].Items[0].Quantity)
}

func TestTablet_Exit(t *testing.T) {
	api := newTabletAPI()
	tab := NewTablet(api, 3)
	require.NoError(t, tab.Load(context.Background()))
	tab.Cart().Add(api.menu[0])

	report, err := tab.Exit(context.Background(), "admin123")
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.OrdersDeleted)
	assert.True(t, tab.Cart().Empty())
	assert.True(t, tab.SessionTotal().IsZero())

	api.exitErr = domain.ErrInvalidPassword
	_, err = tab.Exit(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)
}

func TestTablet_WatchRefreshesHistory(t *testing.T) {
	ev, err := domain.NewChangeEvent(domain.OrdersTable, domain.EventUpdate, map[string]any{"id": 7, "table_id": 3}, nil)
	require.NoError(t, err)
	api := newTabletAPI()
	api.frames = []domain.RealtimeFrame{{Type: "change", Change: &ev}}
	api.subscribed = make(chan Subscription, 1)
	tab := NewTablet(api, 3)

	api.history.SessionTotal = decimal.NewFromInt(99)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = tab.Watch(ctx) }()

	sub := <-api.subscribed
	assert.Equal(t, 3, sub.TableID)
	assert.ElementsMatch(t, []string{"orders", "order_items"}, sub.Tables)
	assert.Eventually(t, func() bool { return tab.SessionTotal().Equal(decimal.NewFromInt(99)) }, time.Second, 5*time.Millisecond)
	cancel()
}

func TestTablet_CallStaffAndBill(t *testing.T) {
	tab := NewTablet(newTabletAPI(), 3)
	n, err := tab.CallStaff(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, n.TableID)

	bill, err := tab.Bill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "30", bill.Outstanding.String())
}

func TestTablet_OnHistory(t *testing.T) {
	tab := NewTablet(newTabletAPI(), 3)
	var seen []domain.History
	tab.OnHistory(func(h domain.History) { seen = append(seen, h) })

	tab.RefreshHistory(context.Background())
	require.Len(t, seen, 1)
	assert.Equal(t, "20", seen[0].SessionTotal.String())
}
