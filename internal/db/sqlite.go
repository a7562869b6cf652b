package db

import (
	"context"
	"database/sql"
	"fmt"

	"RestyAPI/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a Backend on database/sql with the go-sqlite3 driver.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens path; ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = ":memory:"
	}
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// an in-memory database lives only as long as its single connection
	conn.SetMaxOpenConns(1)
	return &SQLite{db: conn}, nil
}

func (s *SQLite) Dialect() Dialect { return SQLiteDialect }

// DB exposes the handle for schema setup and migrations.
func (s *SQLite) DB() *sql.DB { return s.db }

// Exec runs a statement without results.
func (s *SQLite) Exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *SQLite) Query(ctx context.Context, query string, args ...any) ([]model.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []model.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(model.Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() { _ = s.db.Close() }
