package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crustalyst/internal/common/httpx"
	"crustalyst/internal/domain"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"api", "housekeeping", "notifier", "migrate", "tables", "tablet"})

	api, _, err := root.Find([]string{"api"})
	require.NoError(t, err)
	sweeper := api.Flags().Lookup("sweeper")
	require.NotNil(t, sweeper)
	assert.Equal(t, "true", sweeper.DefValue)
}

func TestTablesCmd_PrintsBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/tables", r.URL.Path)
		httpx.WriteJSON(w, http.StatusOK, []domain.Table{
			{ID: 1, Number: 1, Capacity: 2, Status: domain.TableOccupied, DisplayStatus: domain.DisplayOccupied},
			{ID: 2, Number: 2, Capacity: 4, Status: domain.TableEmpty, DisplayStatus: domain.DisplayEmpty},
		})
	}))
	defer srv.Close()
	t.Setenv("CRUSTALYST_KIOSK_API_URL", srv.URL)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"tables"})
	require.NoError(t, root.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Empty", "available tables come first")
	assert.Contains(t, lines[2], "Occupied")
}

func tabletAPI(t *testing.T, submitted *domain.CreateOrderRequest) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/api/v1/tables/3", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, domain.Table{ID: 3, Number: 3, Status: domain.TableOccupied})
	})
	r.Get("/api/v1/menu", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, []domain.MenuItem{
			{ID: 4, Name: "Margherita", Category: "Pizza", Price: decimal.NewFromInt(13), IsAvailable: true},
			{ID: 9, Name: "Lemonade", Category: "Drinks", Price: decimal.RequireFromString("4.50"), IsAvailable: true},
		})
	})
	r.Get("/api/v1/menu/categories", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, []string{"All", "Drinks", "Pizza"})
	})
	r.Get("/api/v1/tables/3/orders", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, domain.History{TableID: 3, SessionTotal: decimal.NewFromInt(30)})
	})
	r.Post("/api/v1/tables/3/orders", func(w http.ResponseWriter, req *http.Request) {
		assert.NoError(t, json.NewDecoder(req.Body).Decode(submitted))
		httpx.WriteJSON(w, http.StatusCreated, domain.CreateOrderResponse{
			OrderID: 11, Status: domain.OrderOrdered, TotalAmount: decimal.RequireFromString("30.50"), SessionTotal: decimal.RequireFromString("60.50"),
		})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	t.Setenv("CRUSTALYST_KIOSK_API_URL", srv.URL)
	return srv
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTabletCmd_Menu(t *testing.T) {
	tabletAPI(t, &domain.CreateOrderRequest{})

	out, err := runRoot(t, "tablet", "--table", "3", "menu", "--category", "Drinks")
	require.NoError(t, err)
	assert.Contains(t, out, "Lemonade")
	assert.NotContains(t, out, "Margherita")
}

func TestTabletCmd_Order(t *testing.T) {
	var got domain.CreateOrderRequest
	tabletAPI(t, &got)

	out, err := runRoot(t, "tablet", "--table", "3", "order", "4:2", "9", "--notes", "no ice")
	require.NoError(t, err)
	assert.Contains(t, out, "order 11 Ordered: 30.50 (session 60.50)")

	require.Len(t, got.Items, 2)
	assert.Equal(t, 4, got.Items[0].MenuItemID)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, 1, got.Items[1].Quantity)
	assert.Equal(t, "no ice", got.Notes)
}

func TestTabletCmd_OrderUnknownItem(t *testing.T) {
	tabletAPI(t, &domain.CreateOrderRequest{})

	_, err := runRoot(t, "tablet", "--table", "3", "order", "77")
	assert.ErrorContains(t, err, "menu item 77 is not on the menu")
}

func TestTabletCmd_NeedsTable(t *testing.T) {
	_, err := runRoot(t, "tablet", "menu")
	assert.Error(t, err)
}
