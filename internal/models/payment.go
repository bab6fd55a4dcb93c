package models

import "time"

// Payment methods.
const (
	PaymentMethodUPI  = "upi"
	PaymentMethodCard = "card"
)

// PaymentStatus values. A payment transitions exactly once from pending
// to a terminal value.
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// Error set on declined payments.
const (
	ErrorCodePaymentFailed        = "PAYMENT_FAILED"
	ErrorDescriptionPaymentFailed = "Payment declined by bank"
)

// Payment is one attempt to pay an order. Method-specific fields (VPA,
// card network, last 4) are stored but never included in webhook payloads.
type Payment struct {
	ID               string    `json:"id"`
	OrderID          string    `json:"order_id"`
	MerchantID       string    `json:"merchant_id"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Method           string    `json:"method"`
	Status           string    `json:"status"`
	VPA              string    `json:"vpa,omitempty"`
	CardNetwork      string    `json:"card_network,omitempty"`
	CardLast4        string    `json:"card_last4,omitempty"`
	Captured         bool      `json:"captured"`
	ErrorCode        string    `json:"error_code,omitempty"`
	ErrorDescription string    `json:"error_description,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PublicPayment is the snapshot of a payment's public fields carried in
// webhook events and served on the polling endpoint.
type PublicPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
}

// Public returns the payment's public snapshot.
func (p *Payment) Public() PublicPayment {
	return PublicPayment{
		ID:       p.ID,
		OrderID:  p.OrderID,
		Amount:   p.Amount,
		Currency: p.Currency,
		Status:   p.Status,
		Method:   p.Method,
	}
}
