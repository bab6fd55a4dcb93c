package payments

import (
	"regexp"
	"strings"
)

// Card networks classified by leading digits.
const (
	NetworkVisa       = "visa"
	NetworkMastercard = "mastercard"
	NetworkAmex       = "amex"
	NetworkRupay      = "rupay"
	NetworkUnknown    = "unknown"
)

var (
	vpaPattern    = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9]+$`)
	digitsPattern = regexp.MustCompile(`^\d+$`)
)

// ValidateVPA reports whether s is a well-formed UPI virtual payment
// address (local@domain, alphanumeric/._- local part).
func ValidateVPA(s string) bool {
	return vpaPattern.MatchString(s)
}

// cleanCardNumber strips spaces and dashes.
func cleanCardNumber(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(number)
}

// ValidateLuhn reports whether number is a 13-19 digit string passing the
// Luhn checksum. Spaces and dashes are ignored.
func ValidateLuhn(number string) bool {
	num := cleanCardNumber(number)
	if !digitsPattern.MatchString(num) {
		return false
	}
	if len(num) < 13 || len(num) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(num) - 1; i >= 0; i-- {
		d := int(num[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// CardNetwork classifies a card number by its leading digits:
// 4 -> visa, 51-55 -> mastercard, 34|37 -> amex, 60|65|81-89 -> rupay.
func CardNetwork(number string) string {
	num := cleanCardNumber(number)
	if len(num) < 2 {
		return NetworkUnknown
	}
	switch {
	case num[0] == '4':
		return NetworkVisa
	case num[0] == '5' && num[1] >= '1' && num[1] <= '5':
		return NetworkMastercard
	case num[0] == '3' && (num[1] == '4' || num[1] == '7'):
		return NetworkAmex
	case strings.HasPrefix(num, "60"), strings.HasPrefix(num, "65"),
		num[0] == '8' && num[1] >= '1' && num[1] <= '9':
		return NetworkRupay
	}
	return NetworkUnknown
}

// CardLast4 returns the last four digits of a cleaned card number.
func CardLast4(number string) string {
	num := cleanCardNumber(number)
	if len(num) < 4 {
		return num
	}
	return num[len(num)-4:]
}
