package store

import (
	"context"
	"database/sql"
)

// The store methods take these narrow interfaces instead of *sqlx.DB or
// *sqlx.Tx directly, so the same code runs inside and outside an atomic
// context.

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type DB interface {
	Execer
	Getter
	Selecter
}
