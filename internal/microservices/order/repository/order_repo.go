package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"crustalyst/internal/common/db"
	"crustalyst/internal/domain"
)

type OrderRepositoryInterface interface {
	MenuItems(ctx context.Context, ids []int) (map[int]domain.MenuItem, error)
	Create(ctx context.Context, order domain.Order, changedBy string) (domain.Order, error)
	ListByTable(ctx context.Context, tableID, limit int) ([]domain.Order, error)
	ItemsForOrders(ctx context.Context, orderIDs []int) ([]domain.OrderItem, error)
	SessionTotal(ctx context.Context, tableID int) (decimal.Decimal, error)
	BillTotals(ctx context.Context, tableID int) (BillTotals, error)
	Checkout(ctx context.Context, tableID int, settle SettleFunc, changedBy string) (domain.Payment, int, error)
	UpdateStatus(ctx context.Context, id int, status domain.OrderStatus, changedBy string) (domain.Order, error)
	UpdateItemStatus(ctx context.Context, id int, status domain.OrderStatus) (domain.OrderItem, error)
}

// BillTotals is the raw material of a bill: non-cancelled orders and what was
// paid since the table was last occupied.
type BillTotals struct {
	Orders       int
	SessionTotal decimal.Decimal
	Paid         decimal.Decimal
}

// Outstanding is what is left to pay, never negative.
func (b BillTotals) Outstanding() decimal.Decimal {
	out := b.SessionTotal.Sub(b.Paid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// SettleFunc turns the bill, as seen under the table lock, into the payment to
// store. An error aborts the checkout.
type SettleFunc func(BillTotals) (domain.Payment, error)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(conn *sql.DB) OrderRepositoryInterface {
	return &OrderRepository{db: conn}
}

const orderColumns = `id, table_id, status, total_amount, notes, created_at, updated_at`

const itemColumns = `oi.id, oi.order_id, oi.menu_item_id, COALESCE(m.name, ''), oi.quantity, oi.unit_price, oi.special_instructions, oi.status`

const ongoingStatuses = `('Ordered', 'Cooking', 'Ready to Serve')`

func scanOrder(s db.Scanner) (domain.Order, error) {
	var o domain.Order
	err := s.Scan(&o.ID, &o.TableID, &o.Status, &o.TotalAmount, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func scanItem(s db.Scanner) (domain.OrderItem, error) {
	var it domain.OrderItem
	err := s.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Quantity, &it.UnitPrice, &it.SpecialInstructions, &it.Status)
	return it, err
}

func (r *OrderRepository) MenuItems(ctx context.Context, ids []int) (map[int]domain.MenuItem, error) {
	out := make(map[int]domain.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args := db.InClause(`SELECT id, name, price, category, is_available FROM menu_items WHERE id IN `, 1, ids)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to look up menu prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.Category, &m.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		out[m.ID] = m
	}
	return out, rows.Err()
}

// Create inserts the order, its items and the first status-log row in one transaction.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order, changedBy string) (domain.Order, error) {
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM table_status WHERE id = $1)`, order.TableID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check table %d: %w", order.TableID, err)
		}
		if !exists {
			return domain.ErrTableNotFound
		}

		// 1. Insert order
		err := tx.QueryRowContext(ctx, `
			INSERT INTO orders (table_id, status, total_amount, notes)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at`,
			order.TableID, order.Status, order.TotalAmount, order.Notes,
		).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		// 2. Insert order items
		for i := range order.Items {
			it := &order.Items[i]
			it.OrderID = order.ID
			err := tx.QueryRowContext(ctx, `
				INSERT INTO order_items (order_id, menu_item_id, quantity, unit_price, special_instructions, status)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id`,
				order.ID, it.MenuItemID, it.Quantity, it.UnitPrice, it.SpecialInstructions, it.Status,
			).Scan(&it.ID)
			if err != nil {
				return fmt.Errorf("failed to insert order item %d: %w", it.MenuItemID, err)
			}
		}

		// 3. Insert into order_status_log
		return logStatus(ctx, tx, order.ID, order.Status, changedBy)
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func logStatus(ctx context.Context, q db.Querier, orderID int, status domain.OrderStatus, changedBy string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by)
		VALUES ($1, $2, $3)`, orderID, status, changedBy)
	if err != nil {
		return fmt.Errorf("failed to insert order status log: %w", err)
	}
	return nil
}

func (r *OrderRepository) ListByTable(ctx context.Context, tableID, limit int) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE table_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, tableID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of table %d: %w", tableID, err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ItemsForOrders returns the lines of the given orders; Name is empty when the
// menu item no longer exists.
func (r *OrderRepository) ItemsForOrders(ctx context.Context, orderIDs []int) ([]domain.OrderItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	query, args := db.InClause(`
		SELECT `+itemColumns+`
		FROM order_items oi
		LEFT JOIN menu_items m ON m.id = oi.menu_item_id
		WHERE oi.order_id IN `, 1, orderIDs)
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY oi.order_id DESC, oi.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *OrderRepository) SessionTotal(ctx context.Context, tableID int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM orders WHERE table_id = $1 AND status <> 'Cancelled'`, tableID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute session total: %w", err)
	}
	return total, nil
}

func (r *OrderRepository) BillTotals(ctx context.Context, tableID int) (BillTotals, error) {
	return billTotals(ctx, r.db, tableID)
}

const billQuery = `
	SELECT
		EXISTS(SELECT 1 FROM table_status WHERE id = $1),
		(SELECT COUNT(*) FROM orders WHERE table_id = $1 AND status <> 'Cancelled'),
		(SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE table_id = $1 AND status <> 'Cancelled'),
		(SELECT COALESCE(SUM(p.amount), 0)
		   FROM payments p
		   JOIN table_status t ON t.id = p.table_id
		  WHERE p.table_id = $1
		    AND p.created_at >= COALESCE(t.occupied_since, 'epoch'::timestamptz))`

func billTotals(ctx context.Context, q db.Querier, tableID int) (BillTotals, error) {
	var (
		b      BillTotals
		exists bool
	)
	err := q.QueryRowContext(ctx, billQuery, tableID).Scan(&exists, &b.Orders, &b.SessionTotal, &b.Paid)
	if err != nil {
		return BillTotals{}, fmt.Errorf("failed to compute bill of table %d: %w", tableID, err)
	}
	if !exists {
		return BillTotals{}, domain.ErrTableNotFound
	}
	return b, nil
}

// Checkout locks the table row, recomputes the bill inside the transaction and
// lets settle price the payment, so two concurrent checkouts cannot both pay
// the same balance. It then completes the table's ongoing orders and items and
// returns the stored payment and the number of orders completed.
func (r *OrderRepository) Checkout(ctx context.Context, tableID int, settle SettleFunc, changedBy string) (domain.Payment, int, error) {
	var (
		p         domain.Payment
		completed []int
	)
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var locked int
		err := tx.QueryRowContext(ctx, `SELECT id FROM table_status WHERE id = $1 FOR UPDATE`, tableID).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrTableNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock table %d: %w", tableID, err)
		}

		totals, err := billTotals(ctx, tx, tableID)
		if err != nil {
			return err
		}
		if p, err = settle(totals); err != nil {
			return err
		}
		p.TableID = tableID

		err = tx.QueryRowContext(ctx, `
			INSERT INTO payments (table_id, amount, tendered, change_due, method)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			p.TableID, p.Amount, p.Tendered, p.ChangeDue, p.Method,
		).Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}

		rows, err := tx.QueryContext(ctx, `
			UPDATE orders SET status = 'Completed', updated_at = now()
			WHERE table_id = $1 AND status IN `+ongoingStatuses+`
			RETURNING id`, p.TableID)
		if err != nil {
			return fmt.Errorf("failed to complete orders: %w", err)
		}
		for rows.Next() {
			var id int
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			completed = append(completed, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE order_items SET status = 'Completed', updated_at = now()
			WHERE status IN `+ongoingStatuses+`
			  AND order_id IN (SELECT id FROM orders WHERE table_id = $1)`, p.TableID)
		if err != nil {
			return fmt.Errorf("failed to complete order items: %w", err)
		}

		for _, id := range completed {
			if err := logStatus(ctx, tx, id, domain.OrderCompleted, changedBy); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Payment{}, 0, err
	}
	return p, len(completed), nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int, status domain.OrderStatus, changedBy string) (domain.Order, error) {
	var o domain.Order
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		o, err = scanOrder(tx.QueryRowContext(ctx, `
			UPDATE orders SET status = $2, updated_at = now()
			WHERE id = $1
			RETURNING `+orderColumns, id, status))
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to update order %d: %w", id, err)
		}
		return logStatus(ctx, tx, id, status, changedBy)
	})
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *OrderRepository) UpdateItemStatus(ctx context.Context, id int, status domain.OrderStatus) (domain.OrderItem, error) {
	row := r.db.QueryRowContext(ctx, `
		WITH oi AS (
			UPDATE order_items SET status = $2, updated_at = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT `+itemColumns+`
		FROM oi
		LEFT JOIN menu_items m ON m.id = oi.menu_item_id`, id, status)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.OrderItem{}, domain.ErrOrderItemNotFound
	}
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("failed to update order item %d: %w", id, err)
	}
	return it, nil
}
