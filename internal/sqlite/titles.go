package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/writtenhq/written/internal/pagination"
	"github.com/writtenhq/written/internal/written"
)

func (r Repo) CreateTitle(ctx context.Context, name string) (written.Title, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return written.Title{}, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	// The check and insert share a transaction so a concurrent duplicate
	// still surfaces as the coded conflict, not a raw constraint failure.
	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM titles WHERE name = ?;`, name); err != nil {
		return written.Title{}, fmt.Errorf("error checking for existing title: %w", err)
	}
	if n > 0 {
		return written.Title{}, written.ErrTitleNameTaken
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO titles (name) VALUES (?);`, name)
	if err != nil {
		return written.Title{}, fmt.Errorf("error creating title: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return written.Title{}, fmt.Errorf("error fetching title id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return written.Title{}, fmt.Errorf("error committing title: %w", err)
	}

	return r.Title(ctx, id)
}

func (r Repo) Title(ctx context.Context, id int64) (written.Title, error) {
	const q = `SELECT * FROM titles WHERE id = ?;`

	var t written.Title
	err := r.db.GetContext(ctx, &t, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return written.Title{}, written.ErrTitleNotFound
	}
	if err != nil {
		return written.Title{}, fmt.Errorf("error selecting title: %w", err)
	}

	return t, nil
}

func (r Repo) TitleByName(ctx context.Context, name string) (written.Title, error) {
	const q = `SELECT * FROM titles WHERE name = ?;`

	var t written.Title
	err := r.db.GetContext(ctx, &t, q, name)
	if errors.Is(err, sql.ErrNoRows) {
		return written.Title{}, written.ErrTitleNotFound
	}
	if err != nil {
		return written.Title{}, fmt.Errorf("error selecting title: %w", err)
	}

	return t, nil
}

func (r Repo) TodayTitle(ctx context.Context) (written.Title, error) {
	const q = `SELECT * FROM titles WHERE is_official = 1 ORDER BY id DESC LIMIT 1;`

	var t written.Title
	err := r.db.GetContext(ctx, &t, q)
	if errors.Is(err, sql.ErrNoRows) {
		return written.Title{}, written.ErrTitleNotFound
	}
	if err != nil {
		return written.Title{}, fmt.Errorf("error selecting today's title: %w", err)
	}

	return t, nil
}

func (r Repo) Titles(ctx context.Context, args written.TitleFeedArgs) (pagination.Page[written.Title], error) {
	b := sq.Select("id", "name", "is_official", "created_at", "updated_at").From("titles")

	if args.OnlyOfficial != nil {
		b = b.Where(sq.Eq{"is_official": *args.OnlyOfficial})
	}
	if since, ok := args.Time.Since(time.Now().UTC()); ok {
		// CURRENT_TIMESTAMP stores "YYYY-MM-DD HH:MM:SS", so the bound is
		// formatted the same way to compare exactly.
		b = b.Where(sq.GtOrEq{"created_at": since.Format("2006-01-02 15:04:05")})
	}
	if args.Query != "" {
		// LIKE is case-insensitive for ASCII in sqlite; instr keeps the
		// substring match case-sensitive.
		b = b.Where(sq.Expr("instr(name, ?) > 0", args.Query))
	}

	order := pagination.OrderDesc
	if args.Order == written.OrderOldest {
		order = pagination.OrderAsc
	}

	ks := pagination.Keyset{
		Column:   "id",
		Cursor:   args.Cursor,
		PageSize: args.PageSize,
		Order:    order,
	}

	query, queryArgs, err := ks.Apply(b).ToSql()
	if err != nil {
		return pagination.Page[written.Title]{}, fmt.Errorf("error generating SQL query: %w", err)
	}

	var titles []written.Title
	if err := r.db.SelectContext(ctx, &titles, query, queryArgs...); err != nil {
		return pagination.Page[written.Title]{}, fmt.Errorf("error selecting titles: %w", err)
	}

	return pagination.Assemble(titles, args.PageSize, func(t written.Title) int64 { return t.ID }), nil
}
