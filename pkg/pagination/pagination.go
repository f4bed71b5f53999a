package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const MaxLimit = 500

// Params holds optional paging parameters. A zero Limit means the caller
// did not ask for paging and the full list is returned.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts ?limit and ?offset from the request.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 0 {
		limit = 0
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 || limit == 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Enabled reports whether the caller asked for a page.
func (p Params) Enabled() bool {
	return p.Limit > 0
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Enabled() && p.Offset+p.Limit < total
}

// SetHeaders exposes the page window on the response when paging is on.
func (p Params) SetHeaders(c echo.Context, total int) {
	if !p.Enabled() {
		return
	}
	h := c.Response().Header()
	h.Set("X-Total-Count", strconv.Itoa(total))
	h.Set("X-Limit", strconv.Itoa(p.Limit))
	h.Set("X-Offset", strconv.Itoa(p.Offset))
	h.Set("X-Has-More", strconv.FormatBool(p.HasNext(total)))
}

// Slice returns the page window of items. Lists served from the cache are
// paged in memory with it.
func Slice[T any](items []T, p Params) []T {
	if !p.Enabled() {
		return items
	}
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}
