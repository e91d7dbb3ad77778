package kiosk

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"crustalyst/internal/common/logger"
	"crustalyst/internal/domain"
)

// Tablet is the ordering surface of one claimed table.
type Tablet struct {
	api     API
	tableID int
	cart    *Cart
	lg      *logger.Logger

	mu         sync.RWMutex
	table      domain.Table
	menu       []domain.MenuItem
	categories []string
	category   string
	history    domain.History
	onHistory  func(domain.History)
}

func NewTablet(api API, tableID int) *Tablet {
	return &Tablet{
		api:      api,
		tableID:  tableID,
		cart:     &Cart{},
		lg:       logger.New("tablet"),
		category: domain.MenuCategoryAll,
	}
}

func (t *Tablet) Cart() *Cart { return t.cart }

// Load fetches the table, menu, categories and history. Only a missing table
// is an error; the rest degrade to the fallback menu and empty lists.
func (t *Tablet) Load(ctx context.Context) error {
	table, err := t.api.Table(ctx, t.tableID)
	if err != nil {
		return err
	}

	menu, err := t.api.Menu(ctx)
	if err != nil {
		t.lg.Warn("menu_fetch_failed", map[string]any{"table_id": t.tableID, "error": err.Error()})
		menu = domain.FallbackMenu()
	}
	cats, err := t.api.Categories(ctx)
	if err != nil || len(cats) == 0 {
		cats = categoriesOf(menu)
	}

	t.mu.Lock()
	t.table = table
	t.menu = menu
	t.categories = cats
	t.mu.Unlock()

	t.RefreshHistory(ctx)
	return nil
}

func categoriesOf(menu []domain.MenuItem) []string {
	out := []string{domain.MenuCategoryAll}
	seen := map[string]bool{}
	for _, it := range menu {
		if !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	return out
}

// OnHistory registers a callback invoked after every history refresh.
func (t *Tablet) OnHistory(fn func(domain.History)) {
	t.mu.Lock()
	t.onHistory = fn
	t.mu.Unlock()
}

func (t *Tablet) RefreshHistory(ctx context.Context) {
	h, err := t.api.History(ctx, t.tableID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		t.lg.Warn("history_fetch_failed", map[string]any{"table_id": t.tableID, "error": err.Error()})
		h = domain.History{TableID: t.tableID, SessionTotal: t.SessionTotal()}
	}
	t.mu.Lock()
	t.history = h
	fn := t.onHistory
	t.mu.Unlock()
	if fn != nil {
		fn(h)
	}
}

func (t *Tablet) Table() domain.Table {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.table
}

func (t *Tablet) Categories() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.categories...)
}

func (t *Tablet) SetCategory(c string) {
	if c == "" {
		c = domain.MenuCategoryAll
	}
	t.mu.Lock()
	t.category = c
	t.mu.Unlock()
}

// VisibleMenu is the menu filtered by the active category.
func (t *Tablet) VisibleMenu() []domain.MenuItem {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.MenuItem, 0, len(t.menu))
	for _, it := range t.menu {
		if t.category == domain.MenuCategoryAll || it.Category == t.category {
			out = append(out, it)
		}
	}
	return out
}

func (t *Tablet) History() domain.History {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.history
}

func (t *Tablet) SessionTotal() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.history.SessionTotal
}

// SendOrder submits the cart. An empty cart is a no-op and reports false.
func (t *Tablet) SendOrder(ctx context.Context, notes string) (domain.CreateOrderResponse, bool, error) {
	if t.cart.Empty() {
		return domain.CreateOrderResponse{}, false, nil
	}
	resp, err := t.api.SubmitOrder(ctx, t.tableID, t.cart.Request(notes))
	if err != nil {
		return domain.CreateOrderResponse{}, false, err
	}
	t.cart.Clear()
	t.mu.Lock()
	t.history.SessionTotal = resp.SessionTotal
	t.mu.Unlock()
	t.RefreshHistory(ctx)
	return resp, true, nil
}

func (t *Tablet) CallStaff(ctx context.Context, message string) (domain.StaffNotification, error) {
	return t.api.CallStaff(ctx, t.tableID, message)
}

func (t *Tablet) Bill(ctx context.Context) (domain.Bill, error) {
	return t.api.Bill(ctx, t.tableID)
}

// Exit runs the staff-password cleanup and drops local state.
func (t *Tablet) Exit(ctx context.Context, password string) (domain.CleanupReport, error) {
	report, err := t.api.ExitTable(ctx, t.tableID, password)
	if err != nil {
		return domain.CleanupReport{}, err
	}
	t.cart.Clear()
	t.mu.Lock()
	t.history = domain.History{TableID: t.tableID, SessionTotal: decimal.Zero}
	t.mu.Unlock()
	return report, nil
}

// Watch refreshes history on order and order item changes for this table
// until ctx is cancelled or the feed drops.
func (t *Tablet) Watch(ctx context.Context) error {
	sub := Subscription{
		Tables:  []string{domain.OrdersTable, domain.OrderItemsTable},
		Event:   domain.EventAll,
		TableID: t.tableID,
	}
	return t.api.Subscribe(ctx, sub, func(f domain.RealtimeFrame) {
		if f.Type == "change" {
			t.RefreshHistory(ctx)
		}
	})
}
