package api

import (
	"time"

	"github.com/writtenhq/written/internal/pagination"
	"github.com/writtenhq/written/internal/written"
)

type WriterRef struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
}

type PostingResp struct {
	ID        int64     `json:"id"`
	Writer    WriterRef `json:"writer"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Alignment string    `json:"alignment"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
}

func apiPosting(row written.PostingRow) PostingResp {
	return PostingResp{
		ID:        row.ID,
		Writer:    WriterRef{ID: row.WriterID, Nickname: row.Nickname},
		Title:     row.TitleName,
		Content:   row.Content,
		Alignment: string(row.Alignment),
		IsPublic:  row.IsPublic,
		CreatedAt: row.CreatedAt,
	}
}

func apiPostings[T any](items []T, f func(T) PostingResp) []PostingResp {
	out := make([]PostingResp, 0, len(items))
	for _, item := range items {
		out = append(out, f(item))
	}
	return out
}

type TitleResp struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	IsOfficial bool      `json:"is_official"`
	CreatedAt  time.Time `json:"created_at"`
}

func apiTitle(t written.Title) TitleResp {
	return TitleResp{
		ID:         t.ID,
		Name:       t.Name,
		IsOfficial: t.IsOfficial,
		CreatedAt:  t.CreatedAt,
	}
}

type WriterResp struct {
	ID          int64  `json:"id"`
	Nickname    string `json:"nickname"`
	Description string `json:"description"`
}

func apiWriters(rows []written.WriterRow) []WriterResp {
	out := make([]WriterResp, 0, len(rows))
	for _, row := range rows {
		out = append(out, WriterResp{
			ID:          row.UserID,
			Nickname:    row.Nickname,
			Description: row.Description,
		})
	}
	return out
}

// One list envelope per feed; the item key differs by feed kind.
type (
	PostingListResp struct {
		Postings []PostingResp `json:"postings"`
		HasNext  bool          `json:"has_next"`
		Cursor   *int64        `json:"cursor"`
	}

	StoredPostingListResp struct {
		StoredPostings []PostingResp `json:"stored_postings"`
		HasNext        bool          `json:"has_next"`
		Cursor         *int64        `json:"cursor"`
	}

	TitleListResp struct {
		Titles  []TitleResp `json:"titles"`
		HasNext bool        `json:"has_next"`
		Cursor  *int64      `json:"cursor"`
	}

	WriterListResp struct {
		Writers []WriterResp `json:"writers"`
		HasNext bool         `json:"has_next"`
		Cursor  *int64       `json:"cursor"`
	}

	SubscriberListResp struct {
		Subscribers []WriterResp `json:"subscribers"`
		HasNext     bool         `json:"has_next"`
		Cursor      *int64       `json:"cursor"`
	}
)

func apiPostingList(page pagination.Page[written.PostingRow]) PostingListResp {
	return PostingListResp{
		Postings: apiPostings(page.Items, apiPosting),
		HasNext:  page.HasNext,
		Cursor:   page.Cursor,
	}
}
