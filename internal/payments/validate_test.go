package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateVPA(t *testing.T) {
	tests := []struct {
		name  string
		vpa   string
		valid bool
	}{
		{"simple", "alice@upi", true},
		{"with dots", "alice.kumar@oksbi", true},
		{"with underscore and dash", "alice_k-1@ybl", true},
		{"digits", "9876543210@paytm", true},
		{"missing handle", "alice@", false},
		{"missing local part", "@upi", false},
		{"no at sign", "aliceupi", false},
		{"two at signs", "alice@ok@sbi", false},
		{"space in local part", "alice kumar@upi", false},
		{"special char in handle", "alice@ok-sbi", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateVPA(tt.vpa))
		})
	}
}

func TestValidateLuhn(t *testing.T) {
	tests := []struct {
		name   string
		number string
		valid  bool
	}{
		{"visa test card", "4242424242424242", true},
		{"visa with spaces", "4242 4242 4242 4242", true},
		{"visa with dashes", "4242-4242-4242-4242", true},
		{"visa bad checksum", "4242424242424241", false},
		{"visa 16 digit", "4111111111111111", true},
		{"visa 19 digit", "4012888888881881", true},
		{"mastercard", "5555555555554444", true},
		{"amex 15 digit", "378282246310005", true},
		{"rupay", "6011111111111117", true},
		{"too short", "424242424242", false},
		{"too long", "42424242424242424242", false},
		{"letters", "4242abcd42424242", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateLuhn(tt.number))
		})
	}
}

func TestCardNetwork(t *testing.T) {
	tests := []struct {
		name    string
		number  string
		network string
	}{
		{"visa", "4242424242424242", NetworkVisa},
		{"mastercard 55", "5555555555554444", NetworkMastercard},
		{"mastercard 51", "5105105105105100", NetworkMastercard},
		{"amex 37", "378282246310005", NetworkAmex},
		{"amex 34", "340000000000009", NetworkAmex},
		{"rupay 60", "6011111111111117", NetworkRupay},
		{"rupay 65", "6521111111111117", NetworkRupay},
		{"rupay 81", "8112345678901239", NetworkRupay},
		{"unknown prefix", "9999999999999999", NetworkUnknown},
		{"mastercard out of range", "5655555555554444", NetworkUnknown},
		{"too short", "4", NetworkUnknown},
		{"empty", "", NetworkUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.network, CardNetwork(tt.number))
		})
	}
}

func TestCardLast4(t *testing.T) {
	assert.Equal(t, "4242", CardLast4("4242424242424242"))
	assert.Equal(t, "1881", CardLast4("4012 8888 8888 1881"))
	assert.Equal(t, "123", CardLast4("123"))
}
