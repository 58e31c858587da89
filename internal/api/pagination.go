package api

import (
	"net/http"

	"github.com/writtenhq/written/internal/pagination"
	"github.com/writtenhq/written/internal/written"
)

// Per-feed default page sizes. Each feed declares its own; an explicit
// page_size in the request overrides it.
const (
	titlePageSize      = 4
	scrapPageSize      = 5
	subscribedPageSize = 5
	userPageSize       = 10
	writerListPageSize = 10
)

// pageArgs parses cursor and page_size from an HTTP request. Malformed
// values are the client's fault, never silently defaulted.
func pageArgs(r *http.Request, defaultSize int) (written.PageArgs, error) {
	query := r.URL.Query()

	cursor, err := pagination.ParseCursor(query.Get("cursor"))
	if err != nil {
		return written.PageArgs{}, written.ErrInvalidPage
	}

	size, err := pagination.ParsePageSize(query.Get("page_size"), defaultSize)
	if err != nil {
		return written.PageArgs{}, written.ErrInvalidPage
	}

	return written.PageArgs{Cursor: cursor, PageSize: size}, nil
}

// titleFeedArgs additionally parses the title listing filters. Enumerated
// values fail closed: anything outside the declared set is rejected.
func titleFeedArgs(r *http.Request) (written.TitleFeedArgs, error) {
	page, err := pageArgs(r, titlePageSize)
	if err != nil {
		return written.TitleFeedArgs{}, err
	}

	query := r.URL.Query()
	args := written.TitleFeedArgs{
		PageArgs: page,
		Time:     written.TimeAll,
		Order:    written.OrderRecent,
		Query:    query.Get("query"),
	}

	if raw := query.Get("time"); raw != "" {
		args.Time = written.TimeWindow(raw)
		if !args.Time.Valid() {
			return written.TitleFeedArgs{}, written.ErrInvalidFilter
		}
	}

	if raw := query.Get("order"); raw != "" {
		args.Order = written.TitleOrder(raw)
		if !args.Order.Valid() {
			return written.TitleFeedArgs{}, written.ErrInvalidFilter
		}
	}

	switch raw := query.Get("only_official"); raw {
	case "":
	case "true", "false":
		official := raw == "true"
		args.OnlyOfficial = &official
	default:
		return written.TitleFeedArgs{}, written.ErrInvalidFilter
	}

	return args, nil
}
