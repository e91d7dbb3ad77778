package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateOrderItem struct {
	MenuItemID          int    `json:"menu_item_id" validate:"gt=0"`
	Quantity            int    `json:"quantity" validate:"gt=0,lte=99"`
	SpecialInstructions string `json:"special_instructions,omitempty" validate:"max=500"`
}

type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items" validate:"dive"`
	Notes string            `json:"notes,omitempty" validate:"max=500"`
}

type CreateOrderResponse struct {
	OrderID      int             `json:"order_id"`
	Status       OrderStatus     `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	SessionTotal decimal.Decimal `json:"session_total"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

type CallStaffRequest struct {
	Message string `json:"message,omitempty" validate:"max=280"`
}

type PasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

type AvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

type CheckoutRequest struct {
	Tendered decimal.Decimal `json:"tendered"`
	Method   string          `json:"method" validate:"required,oneof=cash card qr"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
}

// HistoryItem is one order line as the tablet shows it in the history panel.
type HistoryItem struct {
	OrderID             int             `json:"order_id"`
	MenuItemID          int             `json:"menu_item_id"`
	Name                string          `json:"name"`
	Price               decimal.Decimal `json:"price"`
	Quantity            int             `json:"quantity"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	Status              OrderStatus     `json:"status"`
	Timestamp           time.Time       `json:"timestamp"`
}

type History struct {
	TableID      int             `json:"table_id"`
	Orders       []Order         `json:"orders"`
	Ongoing      []HistoryItem   `json:"ongoing"`
	Finished     []HistoryItem   `json:"finished"`
	SessionTotal decimal.Decimal `json:"session_total"`
	// Truncated is set when the table has more orders than Orders lists.
	// SessionTotal always covers all of them.
	Truncated bool `json:"truncated,omitempty"`
}

type Bill struct {
	TableID      int             `json:"table_id"`
	Orders       int             `json:"orders"`
	SessionTotal decimal.Decimal `json:"session_total"`
	Paid         decimal.Decimal `json:"paid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
}

type Receipt struct {
	PaymentID       int             `json:"payment_id"`
	TableID         int             `json:"table_id"`
	Amount          decimal.Decimal `json:"amount"`
	Tendered        decimal.Decimal `json:"tendered"`
	ChangeDue       decimal.Decimal `json:"change_due"`
	Method          string          `json:"method"`
	OrdersCompleted int             `json:"orders_completed"`
}

type CleanupReport struct {
	TableID       int             `json:"table_id"`
	OrdersDeleted int64           `json:"orders_deleted"`
	ItemsDeleted  int64           `json:"items_deleted"`
	SessionTotal  decimal.Decimal `json:"session_total"`
	Warnings      []string        `json:"warnings,omitempty"`
}

type MenuSection struct {
	Category string     `json:"category"`
	Items    []MenuItem `json:"items"`
}
