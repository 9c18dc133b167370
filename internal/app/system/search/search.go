// internal/app/system/search/search.go

// Package search implements the substring matching used by roster list
// filters.
package search

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Matches reports whether the query matches any of the candidate
// values, case-insensitively. An empty query matches everything so
// callers can apply it unconditionally.
func Matches(query string, values ...string) bool {
	q := text.Fold(query)
	if q == "" {
		return true
	}
	for _, v := range values {
		if strings.Contains(text.Fold(v), q) {
			return true
		}
	}
	return false
}
