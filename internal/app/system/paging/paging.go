// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows returned by paged lists.
const PageSize = 50

// MaxPageSize caps the client-requested limit.
const MaxPageSize = 200

// Page holds a parsed limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

// Parse extracts the "limit" and "offset" query parameters, clamping
// them to sane values. Absent or invalid parameters fall back to the
// defaults.
func Parse(r *http.Request) Page {
	p := Page{Limit: PageSize}

	if s := query.Get(r, "limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Limit = n
			if p.Limit > MaxPageSize {
				p.Limit = MaxPageSize
			}
		}
	}
	if s := query.Get(r, "offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Offset = n
		}
	}
	return p
}

// Window applies the page to an already-filtered slice. The result
// aliases rows, so callers must not mutate it.
func Window[T any](rows []T, p Page) []T {
	if p.Offset >= len(rows) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[p.Offset:end]
}
