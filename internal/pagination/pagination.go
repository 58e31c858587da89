// Package pagination implements keyset pagination: an opaque integer
// cursor, a bounded ordered range query, and page assembly with
// overfetch-by-one next-page detection.
//
// Every feed in the service pages the same way. A page of size n runs its
// query with LIMIT n+1 and a strict bound on the sort column (id < cursor
// descending, id > cursor ascending), so the cursor row itself is never
// repeated and rows are never skipped within a static dataset. There is no
// cross-page snapshot: rows inserted or removed between two page fetches
// may shift results, which is accepted.
package pagination

import (
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"
)

// NoCursor is the sentinel for "no keyset bound": the first page starts at
// the top of the order. Using a sentinel instead of re-deriving max(id)+1
// keeps the default idempotent under concurrent deletes.
const NoCursor int64 = 0

// Order is the direction of the sort column.
type Order string

const (
	OrderDesc Order = "DESC"
	OrderAsc  Order = "ASC"
)

// ParseCursor decodes the client-supplied cursor. An empty string means
// NoCursor; anything non-numeric is a client error.
func ParseCursor(raw string) (int64, error) {
	if raw == "" {
		return NoCursor, nil
	}

	c, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || c <= 0 {
		return 0, fmt.Errorf("invalid cursor %q", raw)
	}

	return c, nil
}

// ParsePageSize decodes the client-supplied page size, falling back to the
// feed's default when absent. Zero, negative, or non-numeric values are
// client errors rather than silently clamped.
func ParsePageSize(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid page_size %q", raw)
	}

	return n, nil
}

// Keyset describes one bounded page of a keyset-paginated query.
type Keyset struct {
	// Column is the sort column, qualified if the query has joins
	// (e.g. "p.id"). It must be strictly monotonic across rows.
	Column   string
	Cursor   int64
	PageSize int
	Order    Order
}

// Apply adds the keyset bound, ordering, and overfetch limit to the query.
// The bound is strict so the cursor row is excluded from the next page.
func (k Keyset) Apply(b sq.SelectBuilder) sq.SelectBuilder {
	order := k.Order
	if order == "" {
		order = OrderDesc
	}

	if k.Cursor != NoCursor {
		if order == OrderAsc {
			b = b.Where(sq.Gt{k.Column: k.Cursor})
		} else {
			b = b.Where(sq.Lt{k.Column: k.Cursor})
		}
	}

	return b.
		OrderBy(k.Column + " " + string(order)).
		Limit(uint64(k.PageSize) + 1)
}

// Page is one assembled page of a feed.
type Page[T any] struct {
	Items   []T
	HasNext bool

	// Cursor is the sort value of the last item, set only when another
	// page exists.
	Cursor *int64
}

// Assemble turns the overfetched rows into a page: if the extra row came
// back there is a next page and the row is dropped; the next cursor is the
// key of the last remaining row. key extracts the sort value used by the
// query's Keyset.
func Assemble[T any](rows []T, pageSize int, key func(T) int64) Page[T] {
	p := Page[T]{Items: rows}

	if len(rows) == pageSize+1 {
		p.HasNext = true
		p.Items = rows[:pageSize]

		c := key(p.Items[len(p.Items)-1])
		p.Cursor = &c
	}

	if p.Items == nil {
		p.Items = []T{}
	}

	return p
}
