package models

import (
	"time"

	"github.com/shopspring/decimal"

	"crustalyst/internal/domain"
)

// OrderView is what a tablet shows when tracking one order.
type OrderView struct {
	OrderID             int                `json:"order_id"`
	TableID             int                `json:"table_id"`
	Status              domain.OrderStatus `json:"status"`
	TotalAmount         decimal.Decimal    `json:"total_amount"`
	ItemsTotal          int                `json:"items_total"`
	ItemsReady          int                `json:"items_ready"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
	EstimatedCompletion *time.Time         `json:"estimated_completion,omitempty"` // created_at + prep time while ongoing
}

type Timeline struct {
	OrderID int                     `json:"order_id"`
	Events  []domain.StatusLogEntry `json:"events"`
}
