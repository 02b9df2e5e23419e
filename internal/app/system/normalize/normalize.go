// Package normalize trims and canonicalizes user-entered values before they
// are validated or stored.
package normalize

import (
	"strings"
	"unicode"
)

// Email trims whitespace and lowercases.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses inner whitespace. Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// RollNumber trims and uppercases; roll numbers are printed in caps on ID cards.
func RollNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// BloodGroup uppercases and removes inner spaces ("ab +" -> "AB+").
func BloodGroup(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

// Phone keeps a leading '+' and the digits; spaces, dashes and brackets go.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// QueryParam trims a query or form value. Case is preserved.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Filter treats "all" (any case) as no filter and returns "".
func Filter(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}
