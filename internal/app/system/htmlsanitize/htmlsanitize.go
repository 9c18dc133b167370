// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize strips unsafe HTML from user-authored content
// (post bodies, assignment descriptions) before it is stored.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var policy = bluemonday.UGCPolicy()

// Sanitize returns s with scripts, event handlers, and other unsafe markup
// removed. Plain text passes through unchanged.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}
