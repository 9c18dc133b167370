// internal/app/system/inputval/inputval.go

// Package inputval holds small input validators shared by the feature
// handlers.
package inputval

import (
	"net/mail"
	"strings"
)

// IsValidEmail reports whether s parses as a bare RFC 5322 address
// (display-name forms are rejected).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// mail.ParseAddress accepts "Name <a@b>"; only the bare form is valid here.
	return addr.Address == s
}

// NonEmpty reports whether every value is non-blank after trimming.
func NonEmpty(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
