package query

import (
	"context"
	"testing"

	"RestyAPI/internal/db"
	"RestyAPI/internal/model"
)

const usersYAML = `
name: users
table: users
columns:
  id: int
  username: string
  rating: int
fields: [id, username, rating]
id_field: id
order_by: [id, rating]
search_by: [username]
filter_by:
  rating: ["=", ">", "<"]
  id: ["="]
page_size: 2
`

type userRow struct {
	id       int
	username string
	rating   int
}

var scenarioRows = []userRow{{1, "a", 5}, {2, "b", 20}, {3, "c", 15}}

func mustDescriptor(t *testing.T, src string) *model.Descriptor {
	t.Helper()
	def, err := model.ParseDefinition([]byte(src))
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	reg, err := model.NewRegistry(def)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	got, _ := reg.Get(def.Name)
	return &got.Descriptor
}

func usersBackend(t *testing.T, rows []userRow) *db.SQLite {
	t.Helper()
	backend, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(backend.Close)

	ctx := context.Background()
	if err := backend.Exec(ctx, `CREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT NOT NULL, rating INTEGER NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for _, r := range rows {
		if err := backend.Exec(ctx, `INSERT INTO users (id, username, rating) VALUES (?, ?, ?)`, r.id, r.username, r.rating); err != nil {
			t.Fatalf("insert %v: %v", r, err)
		}
	}
	return backend
}

// countingBackend records how many statements reached the database.
type countingBackend struct {
	db.Backend
	calls int
}

func (c *countingBackend) Query(ctx context.Context, sql string, args ...any) ([]model.Row, error) {
	c.calls++
	return c.Backend.Query(ctx, sql, args...)
}

func strptr(s string) *string { return &s }

func ids(t *testing.T, items []map[string]any) []int64 {
	t.Helper()
	out := make([]int64, 0, len(items))
	for _, it := range items {
		id, ok := it["id"].(int64)
		if !ok {
			t.Fatalf("id has type %T", it["id"])
		}
		out = append(out, id)
	}
	return out
}
