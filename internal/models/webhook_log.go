package models

import (
	"encoding/json"
	"time"
)

// Webhook event names.
const (
	EventPaymentSuccess  = "payment.success"
	EventPaymentFailed   = "payment.failed"
	EventRefundProcessed = "refund.processed"
)

// WebhookLogStatus values. One row is appended per delivery attempt;
// the row for an attempt ends in success or failed.
const (
	WebhookLogStatusPending = "pending"
	WebhookLogStatusSuccess = "success"
	WebhookLogStatusFailed  = "failed"
)

// MaxWebhookAttempts bounds delivery retries per logical event.
const MaxWebhookAttempts = 5

// WebhookLog records one delivery attempt of an event to a merchant.
type WebhookLog struct {
	ID            string          `json:"id"`
	MerchantID    string          `json:"merchant_id"`
	Event         string          `json:"event"`
	Payload       json.RawMessage `json:"payload"`
	Status        string          `json:"status"`
	Attempts      int             `json:"attempts"`
	ResponseCode  *int            `json:"response_code,omitempty"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
