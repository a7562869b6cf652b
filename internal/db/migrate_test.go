package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeMigrations(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"0001_users.up.sql":   "CREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT NOT NULL);\nINSERT INTO users (id, username) VALUES (1, 'alice');",
		"0001_users.down.sql": "DROP TABLE users;",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestSQLiteMigrationsUpAndDown(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	m, err := NewSQLiteMigrator(s, writeMigrations(t))
	require.NoError(t, err)

	require.NoError(t, ApplyMigrations(m, false))
	rows, err := s.Query(context.Background(), "SELECT id, username FROM users")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "alice", rows[0]["username"])

	// second run has nothing to do
	require.NoError(t, ApplyMigrations(m, false))

	require.NoError(t, ApplyMigrations(m, true))
	_, err = s.Query(context.Background(), "SELECT id FROM users")
	require.Error(t, err)
}
