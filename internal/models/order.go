package models

import "time"

// OrderStatus values.
const (
	OrderStatusCreated = "created"
)

// MinOrderAmount is the smallest accepted amount in minor units (paise).
const MinOrderAmount = 100

// Order is a merchant's intent to collect a payment. Immutable once
// created; payments reference it and inherit amount and currency.
type Order struct {
	ID         string    `json:"id"`
	MerchantID string    `json:"merchant_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Receipt    string    `json:"receipt,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// PublicOrder is the unauthenticated view served to the checkout page.
type PublicOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}
