package db

import (
	"context"

	"RestyAPI/internal/model"

	"github.com/Masterminds/squirrel"
)

// Dialect is what the query compiler needs to know about a backend.
type Dialect struct {
	Name        string
	Placeholder squirrel.PlaceholderFormat
	// ILike is the case-insensitive LIKE operator of the backend.
	ILike string
}

var (
	PostgresDialect = Dialect{Name: "postgres", Placeholder: squirrel.Dollar, ILike: "ILIKE"}
	// SQLite LIKE is already case-insensitive for ASCII.
	SQLiteDialect = Dialect{Name: "sqlite", Placeholder: squirrel.Question, ILike: "LIKE"}
)

// Backend executes compiled SQL and returns rows keyed by column name.
type Backend interface {
	Dialect() Dialect
	Query(ctx context.Context, sql string, args ...any) ([]model.Row, error)
	Ping(ctx context.Context) error
	Close()
}
