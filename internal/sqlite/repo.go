// Package sqlite implements the written.Repository over sqlx.
package sqlite

import (
	"github.com/jmoiron/sqlx"

	"github.com/writtenhq/written/internal/written"
)

// Ensure Repo implements the Repository interface
var _ written.Repository = (*Repo)(nil)

type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Repo {
	return Repo{db: db}
}
