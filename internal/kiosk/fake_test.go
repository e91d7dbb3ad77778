package kiosk

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"crustalyst/internal/domain"
)

// fakeAPI serves canned data; frames are replayed by Subscribe, which then
// blocks until ctx is done.
type fakeAPI struct {
	mu         sync.Mutex
	tables     []domain.Table
	tablesErr  error
	tableCalls atomic.Int32
	menu       []domain.MenuItem
	menuErr    error
	categories []string
	history    domain.History
	historyErr error
	submitted  []domain.CreateOrderRequest
	submitResp domain.CreateOrderResponse
	claimed    []int
	exitErr    error
	frames     []domain.RealtimeFrame
	subscribed chan Subscription
}

func (f *fakeAPI) Tables(context.Context) ([]domain.Table, error) {
	f.tableCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Table(nil), f.tables...), f.tablesErr
}

func (f *fakeAPI) Table(_ context.Context, id int) (domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tables {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Table{}, domain.ErrTableNotFound
}

func (f *fakeAPI) ClaimTable(_ context.Context, id int) (domain.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tables {
		if t.ID == id && t.Status == domain.TableEmpty {
			f.tables[i].Status = domain.TableOccupied
			f.claimed = append(f.claimed, id)
			return f.tables[i], nil
		}
	}
	return domain.Table{}, domain.ErrTableUnavailable
}

func (f *fakeAPI) ExitTable(_ context.Context, id int, password string) (domain.CleanupReport, error) {
	if f.exitErr != nil {
		return domain.CleanupReport{}, f.exitErr
	}
	return domain.CleanupReport{TableID: id, OrdersDeleted: 2, ItemsDeleted: 5}, nil
}

func (f *fakeAPI) Menu(context.Context) ([]domain.MenuItem, error) { return f.menu, f.menuErr }

func (f *fakeAPI) Categories(context.Context) ([]string, error) {
	if f.menuErr != nil {
		return nil, f.menuErr
	}
	return f.categories, nil
}

func (f *fakeAPI) History(context.Context, int) (domain.History, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, f.historyErr
}

func (f *fakeAPI) SubmitOrder(_ context.Context, _ int, req domain.CreateOrderRequest) (domain.CreateOrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, req)
	return f.submitResp, nil
}

func (f *fakeAPI) CallStaff(_ context.Context, tableID int, message string) (domain.StaffNotification, error) {
	return domain.StaffNotification{ID: 1, TableID: tableID, Message: message, Status: domain.NotificationPending}, nil
}

func (f *fakeAPI) Bill(_ context.Context, tableID int) (domain.Bill, error) {
	return domain.Bill{TableID: tableID, SessionTotal: decimal.NewFromInt(30), Outstanding: decimal.NewFromInt(30)}, nil
}

func (f *fakeAPI) Subscribe(ctx context.Context, sub Subscription, fn func(domain.RealtimeFrame)) error {
	if f.subscribed != nil {
		f.subscribed <- sub
	}
	for _, fr := range f.frames {
		fn(fr)
	}
	<-ctx.Done()
	return nil
}

func table(id int, status domain.TableStatus) domain.Table {
	return domain.Table{ID: id, Number: id, Status: status, DisplayStatus: status.Display(), Capacity: 4}
}

func menuItem(id int, name, category, price string) domain.MenuItem {
	return domain.MenuItem{ID: id, Name: name, Category: category, Price: decimal.RequireFromString(price), IsAvailable: true}
}
