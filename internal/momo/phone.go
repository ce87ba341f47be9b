package momo

import (
	"strings"

	"github.com/karibuapp/payout/internal/models"
)

// country prefix of all destination numbers
const countryPrefix = "255"

const msisdnLen = 12

// operator hint by MSISDN prefix. Vodacom is the default family: the
// provider auto-detects it from the prefix, so no hint is sent.
var operatorPrefixes = map[string]string{
	"74": "", "75": "", "76": "",
	"68": "airtel", "69": "airtel", "78": "airtel",
	"65": "tigo", "67": "tigo", "71": "tigo",
	"61": "halopesa", "62": "halopesa",
}

// NormalizePhone normalizes raw phone number to country-prefixed MSISDN
// form, e.g. "0744 123 456" -> "255744123456". It is applied before every
// external call, independent of how the user entered the number.
func NormalizePhone(raw string) (string, error) {
	var sb strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
			// separators are dropped
		default:
			return "", models.ErrInvalidPhone
		}
	}

	digits := sb.String()

	switch {
	case len(digits) == msisdnLen && strings.HasPrefix(digits, countryPrefix):
		// already normalized
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		digits = countryPrefix + digits[1:]
	case len(digits) == 9:
		digits = countryPrefix + digits
	default:
		return "", models.ErrInvalidPhone
	}

	if _, ok := operatorPrefixes[digits[3:5]]; !ok {
		return "", models.ErrInvalidPhone
	}

	return digits, nil
}

// OperatorHint returns the operator identifier to forward to the provider
// for a normalized MSISDN, or empty string for the default family.
func OperatorHint(msisdn string) string {
	if len(msisdn) != msisdnLen {
		return ""
	}
	return operatorPrefixes[msisdn[3:5]]
}
