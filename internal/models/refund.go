package models

import "time"

// RefundStatus values.
const (
	RefundStatusPending   = "pending"
	RefundStatusProcessed = "processed"
)

// Refund returns part or all of a successful payment. For a given
// payment, sum(refund.amount) never exceeds payment.amount.
type Refund struct {
	ID          string     `json:"id"`
	PaymentID   string     `json:"payment_id"`
	MerchantID  string     `json:"merchant_id"`
	Amount      int64      `json:"amount"`
	Reason      string     `json:"reason,omitempty"`
	Status      string     `json:"status"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// PublicRefund is the snapshot carried in refund webhook events.
type PublicRefund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}
