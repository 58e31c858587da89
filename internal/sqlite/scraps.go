package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/writtenhq/written/internal/written"
)

func (r Repo) CreateScrap(ctx context.Context, userID, postingID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	var posting written.Posting
	err = tx.GetContext(ctx, &posting, `SELECT * FROM postings WHERE id = ?;`, postingID)
	if errors.Is(err, sql.ErrNoRows) {
		return written.ErrPostingNotFound
	}
	if err != nil {
		return fmt.Errorf("error selecting posting: %w", err)
	}
	// Private postings can't be scrapped; they look absent to everyone
	// but the writer.
	if !posting.IsPublic {
		return written.ErrPostingNotFound
	}

	// Checked in the same transaction as the insert so a concurrent
	// duplicate still gets the coded conflict.
	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM scraps WHERE user_id = ? AND posting_id = ?;`, userID, postingID); err != nil {
		return fmt.Errorf("error checking for existing scrap: %w", err)
	}
	if n > 0 {
		return written.ErrAlreadyScrapped
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO scraps (user_id, posting_id) VALUES (?, ?);`, userID, postingID); err != nil {
		return fmt.Errorf("error creating scrap: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing scrap: %w", err)
	}

	return nil
}

func (r Repo) DeleteScrap(ctx context.Context, userID, postingID int64) error {
	if _, err := r.Posting(ctx, postingID); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM scraps WHERE user_id = ? AND posting_id = ?;`, userID, postingID)
	if err != nil {
		return fmt.Errorf("error deleting scrap: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deleted rows: %w", err)
	}
	if n == 0 {
		return written.ErrNotScrapped
	}

	return nil
}
