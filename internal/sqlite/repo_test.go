package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/writtenhq/written/internal/migrations"
	"github.com/writtenhq/written/internal/written"
)

func newTestRepo(t *testing.T) Repo {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Every connection to :memory: gets its own database, so keep the
	// pool to a single one.
	db.SetMaxOpenConns(1)

	require.NoError(t, migrations.Run(db))

	return New(db)
}

func seedUser(t *testing.T, r Repo, nickname string) written.User {
	t.Helper()

	usr, err := r.CreateUser(context.Background(), "fb-"+nickname, nickname, nickname)
	require.NoError(t, err)
	return usr
}

func seedTitle(t *testing.T, r Repo, name string) written.Title {
	t.Helper()

	title, err := r.CreateTitle(context.Background(), name)
	require.NoError(t, err)
	return title
}

func seedPosting(t *testing.T, r Repo, titleID, writerID int64, public bool) written.Posting {
	t.Helper()

	p, err := r.CreatePosting(context.Background(), written.Posting{
		TitleID:   titleID,
		WriterID:  writerID,
		Content:   fmt.Sprintf("posting under title %d", titleID),
		Alignment: written.AlignmentLeft,
		IsPublic:  public,
	})
	require.NoError(t, err)
	return p
}

func TestPostingsByTitlePagination(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
		usr = seedUser(t, r, "writer")
	)
	title := seedTitle(t, r, "t1")

	ids := make([]int64, 0, 5)
	for range 5 {
		ids = append(ids, seedPosting(t, r, title.ID, usr.ID, true).ID)
	}

	// First page: the two most recent, and a cursor pointing at the
	// fourth-most-recent boundary.
	page, err := r.PostingsByTitle(ctx, title.ID, written.PageArgs{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasNext)
	assert.Equal(t, ids[4], page.Items[0].ID)
	assert.Equal(t, ids[3], page.Items[1].ID)
	require.NotNil(t, page.Cursor)
	assert.Equal(t, ids[3], *page.Cursor)

	page, err = r.PostingsByTitle(ctx, title.ID, written.PageArgs{Cursor: *page.Cursor, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasNext)
	assert.Equal(t, ids[2], page.Items[0].ID)
	assert.Equal(t, ids[1], page.Items[1].ID)

	page, err = r.PostingsByTitle(ctx, title.ID, written.PageArgs{Cursor: *page.Cursor, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.False(t, page.HasNext)
	assert.Nil(t, page.Cursor)
	assert.Equal(t, ids[0], page.Items[0].ID)
}

func TestPostingsByTitleNoDuplicatesNoGaps(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
		usr = seedUser(t, r, "writer")
	)
	title := seedTitle(t, r, "t1")

	want := make(map[int64]bool)
	for range 13 {
		want[seedPosting(t, r, title.ID, usr.ID, true).ID] = true
	}

	// Walking the whole feed page by page yields every row exactly once.
	got := make(map[int64]bool)
	args := written.PageArgs{PageSize: 4}
	for {
		page, err := r.PostingsByTitle(ctx, title.ID, args)
		require.NoError(t, err)
		for _, row := range page.Items {
			assert.False(t, got[row.ID], "row %d returned twice", row.ID)
			got[row.ID] = true
		}
		if !page.HasNext {
			break
		}
		args.Cursor = *page.Cursor
	}

	assert.Equal(t, want, got)
}

func TestPostingsByTitleUnknownTitle(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.PostingsByTitle(context.Background(), 999, written.PageArgs{PageSize: 4})
	assert.ErrorIs(t, err, written.ErrTitleNotFound)
}

func TestPostingsByTitleHidesPrivate(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
		usr = seedUser(t, r, "writer")
	)
	title := seedTitle(t, r, "t1")

	seedPosting(t, r, title.ID, usr.ID, true)
	seedPosting(t, r, title.ID, usr.ID, false)

	page, err := r.PostingsByTitle(ctx, title.ID, written.PageArgs{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].IsPublic)
}

func TestPostingsByUserVisibilitySplit(t *testing.T) {
	var (
		ctx    = context.Background()
		r      = newTestRepo(t)
		writer = seedUser(t, r, "writer")
		reader = seedUser(t, r, "reader")
	)
	title := seedTitle(t, r, "t1")

	seedPosting(t, r, title.ID, writer.ID, true)
	seedPosting(t, r, title.ID, writer.ID, false)

	// The owner sees everything.
	page, err := r.PostingsByUser(ctx, writer.ID, writer.ID, written.PageArgs{PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	// Everyone else only sees public rows.
	page, err = r.PostingsByUser(ctx, writer.ID, reader.ID, written.PageArgs{PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	// Anonymous too.
	page, err = r.PostingsByUser(ctx, writer.ID, 0, written.PageArgs{PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestPostingRowDenormalization(t *testing.T) {
	var (
		ctx    = context.Background()
		r      = newTestRepo(t)
		writer = seedUser(t, r, "jane")
	)
	title := seedTitle(t, r, "daily prompt")
	p := seedPosting(t, r, title.ID, writer.ID, true)

	row, err := r.PostingDetail(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane", row.Nickname)
	assert.Equal(t, "daily prompt", row.TitleName)
	assert.Equal(t, writer.ID, row.WriterID)
}

func TestScrapCascadeOnPrivacyFlip(t *testing.T) {
	var (
		ctx    = context.Background()
		r      = newTestRepo(t)
		writer = seedUser(t, r, "writer")
		reader = seedUser(t, r, "reader")
	)
	title := seedTitle(t, r, "t1")
	p := seedPosting(t, r, title.ID, writer.ID, true)

	require.NoError(t, r.CreateScrap(ctx, reader.ID, p.ID))

	page, err := r.ScrappedPostings(ctx, reader.ID, written.PageArgs{PageSize: 5})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	// Flipping the posting private removes the scrap with it.
	private := false
	_, err = r.UpdatePosting(ctx, p.ID, written.UpdatePostingArgs{IsPublic: &private})
	require.NoError(t, err)

	page, err = r.ScrappedPostings(ctx, reader.ID, written.PageArgs{PageSize: 5})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	// Re-publishing does not restore it.
	public := true
	_, err = r.UpdatePosting(ctx, p.ID, written.UpdatePostingArgs{IsPublic: &public})
	require.NoError(t, err)

	page, err = r.ScrappedPostings(ctx, reader.ID, written.PageArgs{PageSize: 5})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestScrapConflicts(t *testing.T) {
	var (
		ctx    = context.Background()
		r      = newTestRepo(t)
		writer = seedUser(t, r, "writer")
		reader = seedUser(t, r, "reader")
	)
	title := seedTitle(t, r, "t1")
	p := seedPosting(t, r, title.ID, writer.ID, true)

	require.NoError(t, r.CreateScrap(ctx, reader.ID, p.ID))
	assert.ErrorIs(t, r.CreateScrap(ctx, reader.ID, p.ID), written.ErrAlreadyScrapped)

	require.NoError(t, r.DeleteScrap(ctx, reader.ID, p.ID))
	assert.ErrorIs(t, r.DeleteScrap(ctx, reader.ID, p.ID), written.ErrNotScrapped)
}

func TestScrapPrivatePosting(t *testing.T) {
	var (
		ctx    = context.Background()
		r      = newTestRepo(t)
		writer = seedUser(t, r, "writer")
		reader = seedUser(t, r, "reader")
	)
	title := seedTitle(t, r, "t1")
	p := seedPosting(t, r, title.ID, writer.ID, false)

	assert.ErrorIs(t, r.CreateScrap(ctx, reader.ID, p.ID), written.ErrPostingNotFound)
}

func TestScrappedFeedCursorDomain(t *testing.T) {
	var (
		ctx    = context.Background()
		r      = newTestRepo(t)
		writer = seedUser(t, r, "writer")
		reader = seedUser(t, r, "reader")
	)
	title := seedTitle(t, r, "t1")

	p1 := seedPosting(t, r, title.ID, writer.ID, true)
	p2 := seedPosting(t, r, title.ID, writer.ID, true)

	// Scrapped in reverse posting order: the feed follows scrap recency,
	// not posting recency.
	require.NoError(t, r.CreateScrap(ctx, reader.ID, p2.ID))
	require.NoError(t, r.CreateScrap(ctx, reader.ID, p1.ID))

	page, err := r.ScrappedPostings(ctx, reader.ID, written.PageArgs{PageSize: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, p1.ID, page.Items[0].ID)
	assert.True(t, page.HasNext)

	page, err = r.ScrappedPostings(ctx, reader.ID, written.PageArgs{Cursor: *page.Cursor, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, p2.ID, page.Items[0].ID)
}

func TestSubscriptionLifecycle(t *testing.T) {
	var (
		ctx    = context.Background()
		r      = newTestRepo(t)
		writer = seedUser(t, r, "writer")
		reader = seedUser(t, r, "reader")
	)

	require.NoError(t, r.Subscribe(ctx, reader.ID, writer.ID))
	assert.ErrorIs(t, r.Subscribe(ctx, reader.ID, writer.ID), written.ErrAlreadySubscribed)

	require.NoError(t, r.Unsubscribe(ctx, reader.ID, writer.ID))
	assert.ErrorIs(t, r.Unsubscribe(ctx, reader.ID, writer.ID), written.ErrNotSubscribed)

	// Re-subscribing reactivates the original row instead of adding one.
	require.NoError(t, r.Subscribe(ctx, reader.ID, writer.ID))

	var n int
	require.NoError(t, r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = ? AND writer_id = ?;`, reader.ID, writer.ID))
	assert.Equal(t, 1, n)
}

func TestSubscribeUnknownWriter(t *testing.T) {
	r := newTestRepo(t)
	reader := seedUser(t, r, "reader")

	assert.ErrorIs(t, r.Subscribe(context.Background(), reader.ID, 999), written.ErrUserNotFound)
}

func TestSubscribedPostingsFeed(t *testing.T) {
	var (
		ctx      = context.Background()
		r        = newTestRepo(t)
		followed = seedUser(t, r, "followed")
		other    = seedUser(t, r, "other")
		reader   = seedUser(t, r, "reader")
	)
	title := seedTitle(t, r, "t1")

	seedPosting(t, r, title.ID, followed.ID, true)
	seedPosting(t, r, title.ID, followed.ID, false) // private: never in the feed
	seedPosting(t, r, title.ID, other.ID, true)     // not followed

	require.NoError(t, r.Subscribe(ctx, reader.ID, followed.ID))

	page, err := r.SubscribedPostings(ctx, reader.ID, written.PageArgs{PageSize: 5})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, followed.ID, page.Items[0].WriterID)
	assert.True(t, page.Items[0].IsPublic)

	// An inactive subscription drops the writer from the feed.
	require.NoError(t, r.Unsubscribe(ctx, reader.ID, followed.ID))

	page, err = r.SubscribedPostings(ctx, reader.ID, written.PageArgs{PageSize: 5})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestSubscribedWritersAndSubscribers(t *testing.T) {
	var (
		ctx    = context.Background()
		r      = newTestRepo(t)
		writer = seedUser(t, r, "writer")
		a      = seedUser(t, r, "reader-a")
		b      = seedUser(t, r, "reader-b")
	)

	require.NoError(t, r.Subscribe(ctx, a.ID, writer.ID))
	require.NoError(t, r.Subscribe(ctx, b.ID, writer.ID))

	writers, err := r.SubscribedWriters(ctx, a.ID, written.PageArgs{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, writers.Items, 1)
	assert.Equal(t, "writer", writers.Items[0].Nickname)

	subs, err := r.Subscribers(ctx, writer.ID, written.PageArgs{PageSize: 10})
	require.NoError(t, err)
	require.Len(t, subs.Items, 2)
	// Most recent subscription first.
	assert.Equal(t, "reader-b", subs.Items[0].Nickname)
	assert.Equal(t, "reader-a", subs.Items[1].Nickname)
}

func TestTitleListingFilters(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
	)

	seedTitle(t, r, "morning pages")
	official := seedTitle(t, r, "Daily Official")
	_, err := r.db.ExecContext(ctx, `UPDATE titles SET is_official = 1 WHERE id = ?;`, official.ID)
	require.NoError(t, err)
	seedTitle(t, r, "night pages")

	yes := true
	page, err := r.Titles(ctx, written.TitleFeedArgs{
		PageArgs:     written.PageArgs{PageSize: 4},
		Time:         written.TimeAll,
		Order:        written.OrderRecent,
		OnlyOfficial: &yes,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, official.ID, page.Items[0].ID)

	// Substring match is case-sensitive: "pages" hits two, "Pages" none.
	page, err = r.Titles(ctx, written.TitleFeedArgs{
		PageArgs: written.PageArgs{PageSize: 4},
		Time:     written.TimeAll,
		Order:    written.OrderRecent,
		Query:    "pages",
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = r.Titles(ctx, written.TitleFeedArgs{
		PageArgs: written.PageArgs{PageSize: 4},
		Time:     written.TimeAll,
		Order:    written.OrderRecent,
		Query:    "Pages",
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestTitleListingTimeWindow(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
	)

	stale := seedTitle(t, r, "stale")
	_, err := r.db.ExecContext(ctx, `UPDATE titles SET created_at = datetime('now', '-3 days') WHERE id = ?;`, stale.ID)
	require.NoError(t, err)
	fresh := seedTitle(t, r, "fresh")

	// The day window drops the backdated title.
	page, err := r.Titles(ctx, written.TitleFeedArgs{
		PageArgs: written.PageArgs{PageSize: 4},
		Time:     written.TimeDay,
		Order:    written.OrderRecent,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, fresh.ID, page.Items[0].ID)

	// The week window reaches back far enough to include it.
	page, err = r.Titles(ctx, written.TitleFeedArgs{
		PageArgs: written.PageArgs{PageSize: 4},
		Time:     written.TimeWeek,
		Order:    written.OrderRecent,
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestTitleListingOrder(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
	)

	first := seedTitle(t, r, "first")
	second := seedTitle(t, r, "second")
	third := seedTitle(t, r, "third")

	page, err := r.Titles(ctx, written.TitleFeedArgs{
		PageArgs: written.PageArgs{PageSize: 2},
		Time:     written.TimeAll,
		Order:    written.OrderOldest,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, first.ID, page.Items[0].ID)
	assert.Equal(t, second.ID, page.Items[1].ID)
	assert.True(t, page.HasNext)

	page, err = r.Titles(ctx, written.TitleFeedArgs{
		PageArgs: written.PageArgs{Cursor: *page.Cursor, PageSize: 2},
		Time:     written.TimeAll,
		Order:    written.OrderOldest,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, third.ID, page.Items[0].ID)
	assert.False(t, page.HasNext)
}

func TestTitleNameConflict(t *testing.T) {
	r := newTestRepo(t)

	seedTitle(t, r, "t1")
	_, err := r.CreateTitle(context.Background(), "t1")
	assert.ErrorIs(t, err, written.ErrTitleNameTaken)
}

func TestTodayTitle(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
	)

	_, err := r.TodayTitle(ctx)
	assert.ErrorIs(t, err, written.ErrTitleNotFound)

	seedTitle(t, r, "unofficial")
	older := seedTitle(t, r, "older official")
	newer := seedTitle(t, r, "newer official")
	for _, id := range []int64{older.ID, newer.ID} {
		_, err := r.db.ExecContext(ctx, `UPDATE titles SET is_official = 1 WHERE id = ?;`, id)
		require.NoError(t, err)
	}

	today, err := r.TodayTitle(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, today.ID)
}

func TestCreateUserConflicts(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
	)

	_, err := r.CreateUser(ctx, "fb-1", "jane", "jane")
	require.NoError(t, err)

	_, err = r.CreateUser(ctx, "fb-1", "jane", "janeagain")
	assert.ErrorIs(t, err, written.ErrAlreadySignedUp)

	_, err = r.CreateUser(ctx, "fb-2", "other", "jane")
	assert.ErrorIs(t, err, written.ErrNicknameTaken)
}

func TestFirstPostedAtSetOnce(t *testing.T) {
	var (
		ctx = context.Background()
		r   = newTestRepo(t)
		usr = seedUser(t, r, "writer")
	)
	title := seedTitle(t, r, "t1")

	profile, err := r.Profile(ctx, usr.ID)
	require.NoError(t, err)
	assert.False(t, profile.FirstPostedAt.Valid)

	seedPosting(t, r, title.ID, usr.ID, true)

	profile, err = r.Profile(ctx, usr.ID)
	require.NoError(t, err)
	require.True(t, profile.FirstPostedAt.Valid)
	first := profile.FirstPostedAt.Time

	seedPosting(t, r, title.ID, usr.ID, true)

	profile, err = r.Profile(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, first, profile.FirstPostedAt.Time)
}

func TestUpdateProfileNicknameConflict(t *testing.T) {
	var (
		ctx   = context.Background()
		r     = newTestRepo(t)
		jane  = seedUser(t, r, "jane")
		other = seedUser(t, r, "other")
	)

	taken := "jane"
	_, err := r.UpdateProfile(ctx, other.ID, written.UpdateProfileArgs{Nickname: &taken})
	assert.ErrorIs(t, err, written.ErrNicknameTaken)

	// Setting your own nickname to itself is fine.
	_, err = r.UpdateProfile(ctx, jane.ID, written.UpdateProfileArgs{Nickname: &taken})
	assert.NoError(t, err)
}
