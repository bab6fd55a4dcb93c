package models

import "time"

// Merchant is an API tenant. Webhook fields are optional: a merchant
// without a webhook URL has not opted into event delivery.
type Merchant struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	APIKey        string    `json:"api_key"`
	APISecret     string    `json:"-"`
	WebhookURL    string    `json:"webhook_url,omitempty"`
	WebhookSecret string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}
