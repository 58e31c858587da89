package written

import "time"

// PageArgs bound a single page request. Cursor is the exclusive keyset
// bound; pagination.NoCursor means the page starts at the top of the order.
type PageArgs struct {
	Cursor   int64
	PageSize int
}

// TimeWindow restricts a title listing to recently created titles.
type TimeWindow string

const (
	TimeAll   TimeWindow = "all"
	TimeDay   TimeWindow = "day"
	TimeWeek  TimeWindow = "week"
	TimeMonth TimeWindow = "month"
)

func (w TimeWindow) Valid() bool {
	switch w {
	case TimeAll, TimeDay, TimeWeek, TimeMonth:
		return true
	}
	return false
}

// Since returns the lower created_at bound for the window relative to now.
// The second return is false for TimeAll, which has no bound.
func (w TimeWindow) Since(now time.Time) (time.Time, bool) {
	switch w {
	case TimeDay:
		return now.AddDate(0, 0, -1), true
	case TimeWeek:
		return now.AddDate(0, 0, -7), true
	case TimeMonth:
		return now.AddDate(0, -1, 0), true
	}
	return time.Time{}, false
}

// TitleOrder is the listing direction for titles.
type TitleOrder string

const (
	OrderRecent TitleOrder = "recent"
	OrderOldest TitleOrder = "oldest"
)

func (o TitleOrder) Valid() bool {
	return o == OrderRecent || o == OrderOldest
}

// TitleFeedArgs are the filters for the title listing. The sort key is the
// title id in both directions; Time only constrains created_at.
type TitleFeedArgs struct {
	PageArgs

	Time         TimeWindow
	Order        TitleOrder
	OnlyOfficial *bool
	Query        string // case-sensitive substring match on the name
}

type (
	// PostingRow is a posting denormalized with its writer and title,
	// produced by the feed joins rather than per-row lookups.
	PostingRow struct {
		ID        int64     `db:"id"`
		WriterID  int64     `db:"writer_id"`
		Nickname  string    `db:"nickname"`
		TitleName string    `db:"title"`
		Content   string    `db:"content"`
		Alignment Alignment `db:"alignment"`
		IsPublic  bool      `db:"is_public"`
		CreatedAt time.Time `db:"created_at"`
	}

	// ScrappedPostingRow carries the scrap id alongside the posting, since
	// the scrapped feed paginates over scraps.
	ScrappedPostingRow struct {
		PostingRow

		ScrapID int64 `db:"scrap_id"`
	}

	// WriterRow is one entry of the subscribed-writers or subscribers lists.
	WriterRow struct {
		SubscriptionID int64  `db:"subscription_id"`
		UserID         int64  `db:"user_id"`
		Nickname       string `db:"nickname"`
		Description    string `db:"description"`
	}
)
