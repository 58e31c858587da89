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

// Subscribe follows a writer. A brand-new subscription is active and usable
// immediately; re-subscribing after an unsubscribe reactivates the existing
// row, so the (subscriber, writer) pair never gets a second row.
func (r Repo) Subscribe(ctx context.Context, subscriberID, writerID int64) error {
	if _, err := r.User(ctx, writerID); err != nil {
		return err
	}

	const q = `SELECT * FROM subscriptions WHERE subscriber_id = ? AND writer_id = ?;`

	var sub written.Subscription
	err := r.db.GetContext(ctx, &sub, q, subscriberID, writerID)
	if errors.Is(err, sql.ErrNoRows) {
		const insert = `INSERT INTO subscriptions (subscriber_id, writer_id, is_active) VALUES (?, ?, 1);`
		if _, err := r.db.ExecContext(ctx, insert, subscriberID, writerID); err != nil {
			return fmt.Errorf("error creating subscription: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("error selecting subscription: %w", err)
	}

	if sub.IsActive {
		return written.ErrAlreadySubscribed
	}

	const reactivate = `UPDATE subscriptions SET is_active = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?;`
	if _, err := r.db.ExecContext(ctx, reactivate, sub.ID); err != nil {
		return fmt.Errorf("error reactivating subscription: %w", err)
	}

	return nil
}

func (r Repo) Unsubscribe(ctx context.Context, subscriberID, writerID int64) error {
	if _, err := r.User(ctx, writerID); err != nil {
		return err
	}

	const q = `UPDATE subscriptions SET is_active = 0, updated_at = CURRENT_TIMESTAMP
	WHERE subscriber_id = ? AND writer_id = ? AND is_active = 1;`

	res, err := r.db.ExecContext(ctx, q, subscriberID, writerID)
	if err != nil {
		return fmt.Errorf("error deactivating subscription: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking updated rows: %w", err)
	}
	if n == 0 {
		return written.ErrNotSubscribed
	}

	return nil
}

func (r Repo) SubscribedWriters(ctx context.Context, subscriberID int64, page written.PageArgs) (pagination.Page[written.WriterRow], error) {
	b := selectWriterRows("sub.writer_id").Where(sq.Eq{"sub.subscriber_id": subscriberID})
	return r.writerPage(ctx, b, page)
}

func (r Repo) Subscribers(ctx context.Context, writerID int64, page written.PageArgs) (pagination.Page[written.WriterRow], error) {
	b := selectWriterRows("sub.subscriber_id").Where(sq.Eq{"sub.writer_id": writerID})
	return r.writerPage(ctx, b, page)
}

// joinOn is the subscription side being listed: the writer column for a
// "who I follow" list, the subscriber column for a "who follows me" list.
func selectWriterRows(joinOn string) sq.SelectBuilder {
	return sq.Select(
		"sub.id AS subscription_id",
		"u.id AS user_id",
		"pr.nickname",
		"pr.description",
	).
		From("subscriptions AS sub").
		Join("users AS u ON u.id = " + joinOn).
		Join("profiles AS pr ON pr.user_id = u.id").
		Where(sq.Eq{"sub.is_active": true})
}

func (r Repo) writerPage(ctx context.Context, b sq.SelectBuilder, page written.PageArgs) (pagination.Page[written.WriterRow], error) {
	ks := pagination.Keyset{
		Column:   "sub.id",
		Cursor:   page.Cursor,
		PageSize: page.PageSize,
		Order:    pagination.OrderDesc,
	}

	query, args, err := ks.Apply(b).ToSql()
	if err != nil {
		return pagination.Page[written.WriterRow]{}, fmt.Errorf("error generating SQL query: %w", err)
	}

	var rows []written.WriterRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return pagination.Page[written.WriterRow]{}, fmt.Errorf("error selecting writers: %w", err)
	}

	return pagination.Assemble(rows, page.PageSize, func(row written.WriterRow) int64 { return row.SubscriptionID }), nil
}
