package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"crustalyst/internal/common/auth"
	"crustalyst/internal/common/events"
	"crustalyst/internal/common/logger"
	"crustalyst/internal/common/metrics"
	"crustalyst/internal/domain"
	"crustalyst/internal/microservices/order/repository"
)

const (
	actorKiosk = "kiosk"
	actorStaff = "staff"
)

type OrderServiceInterface interface {
	Submit(ctx context.Context, tableID int, req domain.CreateOrderRequest) (domain.CreateOrderResponse, error)
	History(ctx context.Context, tableID int) (domain.History, error)
	Bill(ctx context.Context, tableID int) (domain.Bill, error)
	Checkout(ctx context.Context, tableID int, req domain.CheckoutRequest) (domain.Receipt, error)
	UpdateOrderStatus(ctx context.Context, id int, status string) (domain.Order, error)
	UpdateOrderItemStatus(ctx context.Context, id int, status string) (domain.OrderItem, error)
}

type Options struct {
	HistoryLimit int
	Metrics      *metrics.Metrics
	Logger       *logger.Logger
}

type OrderService struct {
	repo         repository.OrderRepositoryInterface
	emitter      *events.Emitter
	historyLimit int
	m            *metrics.Metrics
	lg           *logger.Logger
}

func NewOrderService(repo repository.OrderRepositoryInterface, emitter *events.Emitter, opts Options) *OrderService {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 50
	}
	if opts.Logger == nil {
		opts.Logger = logger.New("order")
	}
	return &OrderService{repo: repo, emitter: emitter, historyLimit: opts.HistoryLimit, m: opts.Metrics, lg: opts.Logger}
}

// Submit prices the lines from the menu and stores the order as Ordered.
func (s *OrderService) Submit(ctx context.Context, tableID int, req domain.CreateOrderRequest) (domain.CreateOrderResponse, error) {
	// 1. Basic validation
	if len(req.Items) == 0 {
		return domain.CreateOrderResponse{}, domain.ErrEmptyOrder
	}
	ids := make([]int, 0, len(req.Items))
	seen := make(map[int]bool, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return domain.CreateOrderResponse{}, fmt.Errorf("menu item %d: %w", line.MenuItemID, domain.ErrInvalidQuantity)
		}
		if !seen[line.MenuItemID] {
			seen[line.MenuItemID] = true
			ids = append(ids, line.MenuItemID)
		}
	}

	// 2. Resolve prices, calculate total
	menu, err := s.repo.MenuItems(ctx, ids)
	if err != nil {
		return domain.CreateOrderResponse{}, err
	}
	order := domain.Order{TableID: tableID, Status: domain.OrderOrdered, Notes: req.Notes}
	total := decimal.Zero
	for _, line := range req.Items {
		m, ok := menu[line.MenuItemID]
		if !ok {
			return domain.CreateOrderResponse{}, fmt.Errorf("menu item %d does not exist: %w", line.MenuItemID, domain.ErrItemUnavailable)
		}
		if !m.IsAvailable {
			return domain.CreateOrderResponse{}, fmt.Errorf("%s: %w", m.Name, domain.ErrItemUnavailable)
		}
		it := domain.OrderItem{
			MenuItemID:          m.ID,
			Name:                m.Name,
			Quantity:            line.Quantity,
			UnitPrice:           m.Price,
			SpecialInstructions: line.SpecialInstructions,
			Status:              domain.OrderOrdered,
		}
		total = total.Add(it.LineTotal())
		order.Items = append(order.Items, it)
	}
	order.TotalAmount = total

	// 3. Save order in database
	created, err := s.repo.Create(ctx, order, actorKiosk)
	if err != nil {
		return domain.CreateOrderResponse{}, fmt.Errorf("failed to save order: %w", err)
	}

	// 4. Publish changes
	head := created
	head.Items = nil
	s.emitter.Emit(ctx, domain.OrdersTable, domain.EventInsert, head, nil)
	for _, it := range created.Items {
		s.emitter.Emit(ctx, domain.OrderItemsTable, domain.EventInsert, it, nil)
	}
	s.m.OrderSubmitted(total.InexactFloat64())

	session, err := s.repo.SessionTotal(ctx, tableID)
	if err != nil {
		s.lg.WithContext(ctx).Warn("session_total_failed", map[string]any{"table_id": tableID, "error": err.Error()})
		session = total
	}
	s.lg.WithContext(ctx).Info("order_submitted", map[string]any{
		"order_id": created.ID,
		"table_id": tableID,
		"items":    len(created.Items),
		"total":    total.StringFixed(2),
	})
	return domain.CreateOrderResponse{
		OrderID:      created.ID,
		Status:       created.Status,
		TotalAmount:  total,
		SessionTotal: session,
	}, nil
}

// History returns the newest orders of the table with their lines split into
// ongoing and finished. Pending lines belong to neither. The session total
// matches the bill, so it may include orders beyond the listed ones.
func (s *OrderService) History(ctx context.Context, tableID int) (domain.History, error) {
	h := domain.History{TableID: tableID, Orders: []domain.Order{}, Ongoing: []domain.HistoryItem{}, Finished: []domain.HistoryItem{}}

	orders, err := s.repo.ListByTable(ctx, tableID, s.historyLimit+1)
	if err != nil {
		return h, err
	}
	if len(orders) > s.historyLimit {
		orders = orders[:s.historyLimit]
		h.Truncated = true
	}
	if h.SessionTotal, err = s.repo.SessionTotal(ctx, tableID); err != nil {
		return h, err
	}
	if len(orders) == 0 {
		return h, nil
	}

	ids := make([]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := s.repo.ItemsForOrders(ctx, ids)
	if err != nil {
		return h, err
	}
	byOrder := make(map[int][]domain.OrderItem, len(orders))
	for _, it := range items {
		if it.Name == "" {
			it.Name = fmt.Sprintf("Item #%d", it.MenuItemID)
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}

	for _, o := range orders {
		o.Items = byOrder[o.ID]
		h.Orders = append(h.Orders, o)
		for _, it := range o.Items {
			hi := domain.HistoryItem{
				OrderID:             o.ID,
				MenuItemID:          it.MenuItemID,
				Name:                it.Name,
				Price:               it.UnitPrice,
				Quantity:            it.Quantity,
				SpecialInstructions: it.SpecialInstructions,
				Status:              it.Status,
				Timestamp:           o.CreatedAt,
			}
			switch {
			case it.Status.Ongoing():
				h.Ongoing = append(h.Ongoing, hi)
			case it.Status.Finished():
				h.Finished = append(h.Finished, hi)
			}
		}
	}
	return h, nil
}

func (s *OrderService) Bill(ctx context.Context, tableID int) (domain.Bill, error) {
	t, err := s.repo.BillTotals(ctx, tableID)
	if err != nil {
		return domain.Bill{}, err
	}
	return domain.Bill{
		TableID:      tableID,
		Orders:       t.Orders,
		SessionTotal: t.SessionTotal,
		Paid:         t.Paid,
		Outstanding:  t.Outstanding(),
	}, nil
}

// settle prices a checkout against the bill. Card and QR payments without a
// tendered amount are taken for the exact balance.
func settle(t repository.BillTotals, req domain.CheckoutRequest) (domain.Payment, error) {
	due := t.Outstanding()
	if !due.IsPositive() {
		return domain.Payment{}, domain.ErrNothingToPay
	}
	tendered := req.Tendered
	if tendered.IsZero() && req.Method != "cash" {
		tendered = due
	}
	if tendered.LessThan(due) {
		return domain.Payment{}, fmt.Errorf("tendered %s, due %s: %w", tendered.StringFixed(2), due.StringFixed(2), domain.ErrInsufficientPayment)
	}
	return domain.Payment{
		Amount:    due,
		Tendered:  tendered,
		ChangeDue: tendered.Sub(due),
		Method:    req.Method,
	}, nil
}

// Checkout settles the outstanding balance. The balance is read under the
// table lock taken by the repository.
func (s *OrderService) Checkout(ctx context.Context, tableID int, req domain.CheckoutRequest) (domain.Receipt, error) {
	p, completed, err := s.repo.Checkout(ctx, tableID, func(t repository.BillTotals) (domain.Payment, error) {
		return settle(t, req)
	}, actor(ctx))
	if err != nil {
		return domain.Receipt{}, err
	}
	if completed > 0 {
		s.emitter.Emit(ctx, domain.OrdersTable, domain.EventUpdate, map[string]any{"table_id": tableID, "status": domain.OrderCompleted}, nil)
	}
	s.lg.WithContext(ctx).Info("table_checked_out", map[string]any{
		"table_id":   tableID,
		"payment_id": p.ID,
		"amount":     p.Amount.StringFixed(2),
		"method":     p.Method,
		"completed":  completed,
	})
	return domain.Receipt{
		PaymentID:       p.ID,
		TableID:         tableID,
		Amount:          p.Amount,
		Tendered:        p.Tendered,
		ChangeDue:       p.ChangeDue,
		Method:          p.Method,
		OrdersCompleted: completed,
	}, nil
}

// UpdateOrderStatus writes any valid status regardless of the current one.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id int, status string) (domain.Order, error) {
	st, err := domain.ParseOrderStatus(status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order status %q: %w", status, err)
	}
	o, err := s.repo.UpdateStatus(ctx, id, st, actor(ctx))
	if err != nil {
		return domain.Order{}, err
	}
	s.emitter.Emit(ctx, domain.OrdersTable, domain.EventUpdate, o, nil)
	s.lg.WithContext(ctx).Info("order_status_changed", map[string]any{"order_id": id, "status": st})
	return o, nil
}

func (s *OrderService) UpdateOrderItemStatus(ctx context.Context, id int, status string) (domain.OrderItem, error) {
	st, err := domain.ParseOrderStatus(status)
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("order item status %q: %w", status, err)
	}
	it, err := s.repo.UpdateItemStatus(ctx, id, st)
	if err != nil {
		return domain.OrderItem{}, err
	}
	s.emitter.Emit(ctx, domain.OrderItemsTable, domain.EventUpdate, it, nil)
	return it, nil
}

// actor names who made a change for order_status_log.
func actor(ctx context.Context) string {
	if c, ok := auth.ClaimsFrom(ctx); ok && c.Subject != "" {
		return c.Subject
	}
	return actorStaff
}
