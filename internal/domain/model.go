package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TableStatus string

const (
	TableEmpty        TableStatus = "empty"
	TableReserved     TableStatus = "reserved"
	TableOccupied     TableStatus = "occupied"
	TableCleaning     TableStatus = "cleaning"
	TableCallingStaff TableStatus = "calling_staff"
)

// DisplayStatus is the customer-facing label of a table.
type DisplayStatus string

const (
	DisplayEmpty    DisplayStatus = "Empty"
	DisplayReserved DisplayStatus = "Reserved"
	DisplayOccupied DisplayStatus = "Occupied"
	DisplayCleaning DisplayStatus = "Cleaning"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableEmpty, TableReserved, TableOccupied, TableCleaning, TableCallingStaff:
		return true
	}
	return false
}

// Display maps a stored status to its label. A table calling staff is shown
// as occupied; unknown values fall back to Empty.
func (s TableStatus) Display() DisplayStatus {
	switch s {
	case TableReserved:
		return DisplayReserved
	case TableOccupied, TableCallingStaff:
		return DisplayOccupied
	case TableCleaning:
		return DisplayCleaning
	default:
		return DisplayEmpty
	}
}

func ParseTableStatus(s string) (TableStatus, error) {
	st := TableStatus(s)
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

type OrderStatus string

const (
	OrderPending      OrderStatus = "Pending"
	OrderOrdered      OrderStatus = "Ordered"
	OrderCooking      OrderStatus = "Cooking"
	OrderReadyToServe OrderStatus = "Ready to Serve"
	OrderCompleted    OrderStatus = "Completed"
	OrderCancelled    OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderOrdered, OrderCooking, OrderReadyToServe, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Ongoing reports whether the kitchen still owes something for this status.
func (s OrderStatus) Ongoing() bool {
	return s == OrderOrdered || s == OrderCooking || s == OrderReadyToServe
}

func (s OrderStatus) Finished() bool {
	return s == OrderCompleted || s == OrderCancelled
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

type NotificationStatus string

const (
	NotificationPending  NotificationStatus = "Pending"
	NotificationResolved NotificationStatus = "Resolved"
)

type Table struct {
	ID                int           `json:"id"`
	Number            int           `json:"table_id"`
	Status            TableStatus   `json:"status"`
	DisplayStatus     DisplayStatus `json:"display_status"`
	Capacity          int           `json:"capacity"`
	LastUpdated       time.Time     `json:"last_updated"`
	OccupiedSince     *time.Time    `json:"occupied_since,omitempty"`
	EstimatedFreeTime *time.Time    `json:"estimated_free_time,omitempty"`
	CleaningUntil     *time.Time    `json:"cleaning_until,omitempty"`
}

type MenuItem struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category"`
	IsPopular   bool            `json:"is_popular"`
	IsAvailable bool            `json:"is_available"`
}

type Order struct {
	ID          int             `json:"id"`
	TableID     int             `json:"table_id"`
	Status      OrderStatus     `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Notes       string          `json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Items       []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	ID                  int             `json:"id"`
	OrderID             int             `json:"order_id"`
	MenuItemID          int             `json:"menu_item_id"`
	Name                string          `json:"name,omitempty"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	SpecialInstructions string          `json:"special_instructions"`
	Status              OrderStatus     `json:"status"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type StaffNotification struct {
	ID         int                `json:"id"`
	TableID    int                `json:"table_id"`
	Message    string             `json:"message"`
	Status     NotificationStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	ResolvedAt *time.Time         `json:"resolved_at,omitempty"`
}

type StatusLogEntry struct {
	OrderID   int         `json:"order_id"`
	Status    OrderStatus `json:"status"`
	ChangedBy string      `json:"changed_by"`
	ChangedAt time.Time   `json:"changed_at"`
	Notes     string      `json:"notes,omitempty"`
}

type Payment struct {
	ID        int             `json:"id"`
	TableID   int             `json:"table_id"`
	Amount    decimal.Decimal `json:"amount"`
	Tendered  decimal.Decimal `json:"tendered"`
	ChangeDue decimal.Decimal `json:"change_due"`
	Method    string          `json:"method"`
	CreatedAt time.Time       `json:"created_at"`
}
