package domain

import "errors"

var (
	ErrInvalidStatus       = errors.New("invalid status")
	ErrTableNotFound       = errors.New("table not found")
	ErrTableUnavailable    = errors.New("table is not available")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderItemNotFound   = errors.New("order item not found")
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrItemUnavailable     = errors.New("menu item is not available")
	ErrEmptyOrder          = errors.New("order has no items")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrNotificationMissing = errors.New("staff notification not found")
	ErrInsufficientPayment = errors.New("tendered amount does not cover the outstanding balance")
	ErrNothingToPay        = errors.New("nothing to pay")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidPassword     = errors.New("incorrect password")
)
