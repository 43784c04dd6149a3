package utils

import (
	"regexp"
	"strings"
	"unicode"
)

const CountryCode = "254"

var visitorPhoneRe = regexp.MustCompile(`^\d{9,10}$`)

// DigitsOnly drops every non-digit rune.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone reduces a Kenyan number to its local form without the
// trunk prefix: "0712345678", "+254712345678" and "712345678" all become
// "712345678". Numbers with fewer than 9 digits are rejected.
func NormalizePhone(raw string) (string, bool) {
	digits := DigitsOnly(raw)
	if strings.HasPrefix(digits, CountryCode) && len(digits) == len(CountryCode)+9 {
		digits = digits[len(CountryCode):]
	}
	if len(digits) < 9 || len(digits) > 10 {
		return "", false
	}
	return strings.TrimPrefix(digits, "0"), true
}

// WhatsAppNumber renders the international form used in wa.me links.
func WhatsAppNumber(normalized string) string {
	return CountryCode + normalized
}

// IsValidVisitorPhone accepts 9 or 10 bare digits.
func IsValidVisitorPhone(phone string) bool {
	return visitorPhoneRe.MatchString(phone)
}

// StripSpaces removes all whitespace.
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
