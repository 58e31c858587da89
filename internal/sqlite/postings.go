package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/writtenhq/written/internal/pagination"
	"github.com/writtenhq/written/internal/written"
)

// The join every posting feed is built from: a posting with its writer's
// nickname and its title's name, so no per-row lookups happen later.
func selectPostingRows() sq.SelectBuilder {
	return sq.Select(
		"p.id",
		"p.writer_id",
		"pr.nickname",
		"t.name AS title",
		"p.content",
		"p.alignment",
		"p.is_public",
		"p.created_at",
	).
		From("postings AS p").
		Join("profiles AS pr ON pr.user_id = p.writer_id").
		Join("titles AS t ON t.id = p.title_id")
}

func (r Repo) CreatePosting(ctx context.Context, p written.Posting) (written.Posting, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return written.Posting{}, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	var titleID int64
	err = tx.GetContext(ctx, &titleID, `SELECT id FROM titles WHERE id = ?;`, p.TitleID)
	if errors.Is(err, sql.ErrNoRows) {
		return written.Posting{}, written.ErrTitleNotFound
	}
	if err != nil {
		return written.Posting{}, fmt.Errorf("error checking title: %w", err)
	}

	const insert = `INSERT INTO postings (title_id, writer_id, content, alignment, is_public)
	VALUES (?, ?, ?, ?, ?);`
	res, err := tx.ExecContext(ctx, insert, p.TitleID, p.WriterID, p.Content, p.Alignment, p.IsPublic)
	if err != nil {
		return written.Posting{}, fmt.Errorf("error creating posting: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return written.Posting{}, fmt.Errorf("error fetching posting id: %w", err)
	}

	// A user's first posting stamps their profile, once.
	const stamp = `UPDATE profiles SET first_posted_at = CURRENT_TIMESTAMP
	WHERE user_id = ? AND first_posted_at IS NULL;`
	if _, err := tx.ExecContext(ctx, stamp, p.WriterID); err != nil {
		return written.Posting{}, fmt.Errorf("error stamping first posting: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return written.Posting{}, fmt.Errorf("error committing posting: %w", err)
	}

	return r.Posting(ctx, id)
}

func (r Repo) Posting(ctx context.Context, id int64) (written.Posting, error) {
	const q = `SELECT * FROM postings WHERE id = ?;`

	var p written.Posting
	err := r.db.GetContext(ctx, &p, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return written.Posting{}, written.ErrPostingNotFound
	}
	if err != nil {
		return written.Posting{}, fmt.Errorf("error selecting posting: %w", err)
	}

	return p, nil
}

func (r Repo) PostingDetail(ctx context.Context, id int64) (written.PostingRow, error) {
	query, args, err := selectPostingRows().Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return written.PostingRow{}, fmt.Errorf("error generating SQL query: %w", err)
	}

	var row written.PostingRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return written.PostingRow{}, written.ErrPostingNotFound
	}
	if err != nil {
		return written.PostingRow{}, fmt.Errorf("error selecting posting: %w", err)
	}

	return row, nil
}

func (r Repo) UpdatePosting(ctx context.Context, id int64, args written.UpdatePostingArgs) (written.Posting, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return written.Posting{}, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	var current written.Posting
	err = tx.GetContext(ctx, &current, `SELECT * FROM postings WHERE id = ?;`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return written.Posting{}, written.ErrPostingNotFound
	}
	if err != nil {
		return written.Posting{}, fmt.Errorf("error selecting posting: %w", err)
	}

	b := sq.Update("postings").Where(sq.Eq{"id": id}).Set("updated_at", sq.Expr("CURRENT_TIMESTAMP"))
	if args.Content != nil {
		b = b.Set("content", *args.Content)
	}
	if args.Alignment != nil {
		b = b.Set("alignment", *args.Alignment)
	}
	if args.IsPublic != nil {
		b = b.Set("is_public", *args.IsPublic)
	}

	query, queryArgs, err := b.ToSql()
	if err != nil {
		return written.Posting{}, fmt.Errorf("error generating SQL query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, queryArgs...); err != nil {
		return written.Posting{}, fmt.Errorf("error updating posting: %w", err)
	}

	// Turning a public posting private removes every scrap of it in the
	// same transaction: a private posting must never stay bookmarked.
	// Going public again does not restore them.
	if args.IsPublic != nil && current.IsPublic && !*args.IsPublic {
		if _, err := tx.ExecContext(ctx, `DELETE FROM scraps WHERE posting_id = ?;`, id); err != nil {
			return written.Posting{}, fmt.Errorf("error cascading scraps: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return written.Posting{}, fmt.Errorf("error committing posting update: %w", err)
	}

	return r.Posting(ctx, id)
}

func (r Repo) DeletePosting(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM postings WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("error deleting posting: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deleted rows: %w", err)
	}
	if n == 0 {
		return written.ErrPostingNotFound
	}

	return nil
}

func (r Repo) PostingsByTitle(ctx context.Context, titleID int64, page written.PageArgs) (pagination.Page[written.PostingRow], error) {
	if _, err := r.Title(ctx, titleID); err != nil {
		return pagination.Page[written.PostingRow]{}, err
	}

	b := selectPostingRows().Where(sq.Eq{
		"p.title_id":  titleID,
		"p.is_public": true,
	})

	return r.postingPage(ctx, b, page)
}

func (r Repo) PostingsByUser(ctx context.Context, userID, viewerID int64, page written.PageArgs) (pagination.Page[written.PostingRow], error) {
	if _, err := r.User(ctx, userID); err != nil {
		return pagination.Page[written.PostingRow]{}, err
	}

	b := selectPostingRows().Where(sq.Eq{"p.writer_id": userID})

	// The writer sees their whole stream, everyone else only public rows.
	if viewerID != userID {
		b = b.Where(sq.Eq{"p.is_public": true})
	}

	return r.postingPage(ctx, b, page)
}

func (r Repo) SubscribedPostings(ctx context.Context, userID int64, page written.PageArgs) (pagination.Page[written.PostingRow], error) {
	b := selectPostingRows().
		Join("subscriptions AS sub ON sub.writer_id = p.writer_id AND sub.subscriber_id = ? AND sub.is_active = 1", userID).
		Where(sq.Eq{"p.is_public": true})

	return r.postingPage(ctx, b, page)
}

func (r Repo) ScrappedPostings(ctx context.Context, userID int64, page written.PageArgs) (pagination.Page[written.ScrappedPostingRow], error) {
	b := selectPostingRows().
		Column("s.id AS scrap_id").
		Join("scraps AS s ON s.posting_id = p.id").
		Where(sq.Eq{"s.user_id": userID})

	// The cursor domain is the scrap, not the posting: the feed is ordered
	// by when the user scrapped, and scrap ids are monotonic with that.
	ks := pagination.Keyset{
		Column:   "s.id",
		Cursor:   page.Cursor,
		PageSize: page.PageSize,
		Order:    pagination.OrderDesc,
	}

	query, args, err := ks.Apply(b).ToSql()
	if err != nil {
		return pagination.Page[written.ScrappedPostingRow]{}, fmt.Errorf("error generating SQL query: %w", err)
	}

	var rows []written.ScrappedPostingRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return pagination.Page[written.ScrappedPostingRow]{}, fmt.Errorf("error selecting scrapped postings: %w", err)
	}

	return pagination.Assemble(rows, page.PageSize, func(row written.ScrappedPostingRow) int64 { return row.ScrapID }), nil
}

func (r Repo) postingPage(ctx context.Context, b sq.SelectBuilder, page written.PageArgs) (pagination.Page[written.PostingRow], error) {
	ks := pagination.Keyset{
		Column:   "p.id",
		Cursor:   page.Cursor,
		PageSize: page.PageSize,
		Order:    pagination.OrderDesc,
	}

	query, args, err := ks.Apply(b).ToSql()
	if err != nil {
		return pagination.Page[written.PostingRow]{}, fmt.Errorf("error generating SQL query: %w", err)
	}

	var rows []written.PostingRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return pagination.Page[written.PostingRow]{}, fmt.Errorf("error selecting postings: %w", err)
	}

	return pagination.Assemble(rows, page.PageSize, func(row written.PostingRow) int64 { return row.ID }), nil
}
