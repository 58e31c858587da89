package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/writtenhq/written/internal/written"
)

func (r Repo) CreateUser(ctx context.Context, facebookID, username, nickname string) (written.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return written.User{}, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	// Uniqueness checks are done up front so the caller gets the right
	// errorcode instead of a raw constraint failure.
	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE facebook_id = ?;`, facebookID); err != nil {
		return written.User{}, fmt.Errorf("error checking for existing user: %w", err)
	}
	if n > 0 {
		return written.User{}, written.ErrAlreadySignedUp
	}

	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM profiles WHERE nickname = ?;`, nickname); err != nil {
		return written.User{}, fmt.Errorf("error checking for existing nickname: %w", err)
	}
	if n > 0 {
		return written.User{}, written.ErrNicknameTaken
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO users (facebook_id, username) VALUES (?, ?);`, facebookID, username)
	if err != nil {
		return written.User{}, fmt.Errorf("error creating user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return written.User{}, fmt.Errorf("error fetching user id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO profiles (user_id, nickname) VALUES (?, ?);`, id, nickname); err != nil {
		return written.User{}, fmt.Errorf("error creating profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return written.User{}, fmt.Errorf("error committing user: %w", err)
	}

	return r.User(ctx, id)
}

func (r Repo) User(ctx context.Context, id int64) (written.User, error) {
	const q = `SELECT * FROM users WHERE id = ?;`

	var usr written.User
	err := r.db.GetContext(ctx, &usr, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return written.User{}, written.ErrUserNotFound
	}
	if err != nil {
		return written.User{}, fmt.Errorf("error selecting user: %w", err)
	}

	return usr, nil
}

func (r Repo) UserByFacebookID(ctx context.Context, facebookID string) (written.User, error) {
	const q = `SELECT * FROM users WHERE facebook_id = ?;`

	var usr written.User
	err := r.db.GetContext(ctx, &usr, q, facebookID)
	if errors.Is(err, sql.ErrNoRows) {
		return written.User{}, written.ErrUserNotFound
	}
	if err != nil {
		return written.User{}, fmt.Errorf("error selecting user: %w", err)
	}

	return usr, nil
}

func (r Repo) Profile(ctx context.Context, userID int64) (written.Profile, error) {
	const q = `SELECT * FROM profiles WHERE user_id = ?;`

	var p written.Profile
	err := r.db.GetContext(ctx, &p, q, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return written.Profile{}, written.ErrUserNotFound
	}
	if err != nil {
		return written.Profile{}, fmt.Errorf("error selecting profile: %w", err)
	}

	return p, nil
}

func (r Repo) UpdateProfile(ctx context.Context, userID int64, args written.UpdateProfileArgs) (written.Profile, error) {
	if args.Nickname != nil {
		var n int
		const q = `SELECT COUNT(*) FROM profiles WHERE nickname = ? AND user_id != ?;`
		if err := r.db.GetContext(ctx, &n, q, *args.Nickname, userID); err != nil {
			return written.Profile{}, fmt.Errorf("error checking for existing nickname: %w", err)
		}
		if n > 0 {
			return written.Profile{}, written.ErrNicknameTaken
		}

		if _, err := r.db.ExecContext(ctx, `UPDATE profiles SET nickname = ? WHERE user_id = ?;`, *args.Nickname, userID); err != nil {
			return written.Profile{}, fmt.Errorf("error updating nickname: %w", err)
		}
	}

	if args.Description != nil {
		if _, err := r.db.ExecContext(ctx, `UPDATE profiles SET description = ? WHERE user_id = ?;`, *args.Description, userID); err != nil {
			return written.Profile{}, fmt.Errorf("error updating description: %w", err)
		}
	}

	return r.Profile(ctx, userID)
}
