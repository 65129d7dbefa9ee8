package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/xorgen/dialect/sql"
	"github.com/syssam/xorgen/sink"
)

const testPlan = `
seed: 5
tables:
  - entity: Post
    rows: 3
    columns:
      - {name: id, kind: counter, args: [-1]}
      - {name: author_id, kind: to_one, listen: id, args: [1, "1,100:2"]}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testPlan), 0o644))
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--plan", path))
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Plan is valid. Found 1 tables:")
	assert.Contains(t, out, "posts (id, author_id; driver id; at most 3 rows)")
}

func TestRunCommandOut(t *testing.T) {
	file := filepath.Join(t.TempDir(), "rows.msgpack")
	out, err := execute(t, "run", "--out", file, "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "posts")

	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()
	records, err := sink.ReadRecords(f)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"id", "author_id"}, records[0].Columns)
	assert.Equal(t, []any{int64(3), int64(2)}, records[3].Values)
}

func TestRunCommandSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "posts.db")
	drv, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer drv.Close()
	_, err = drv.DB().ExecContext(t.Context(), "CREATE TABLE posts (id INTEGER PRIMARY KEY, author_id INTEGER)")
	require.NoError(t, err)

	_, err = execute(t, "run", "--driver", "sqlite", "--dsn", dsn, "--no-progress", "--out", "")
	require.NoError(t, err)
	var n int
	require.NoError(t, drv.DB().QueryRowContext(t.Context(), "SELECT count(*) FROM posts").Scan(&n))
	assert.Equal(t, 3, n)
}

func TestValidateCommandSchema(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "posts.db")
	drv, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer drv.Close()
	_, err = drv.DB().ExecContext(t.Context(), "CREATE TABLE posts (id INTEGER PRIMARY KEY, title TEXT NOT NULL)")
	require.NoError(t, err)

	out, err := execute(t, "validate", "--driver", "sqlite", "--dsn", dsn)
	require.Error(t, err)
	assert.ErrorContains(t, err, "posts.author_id: column does not exist")
	assert.Contains(t, out, "posts.title: NOT NULL column without a default is not generated")
}

func TestKindsCommand(t *testing.T) {
	out, err := execute(t, "kinds")
	require.NoError(t, err)
	assert.Contains(t, out, "collection_owner\n")
}

func TestNewLogger(t *testing.T) {
	ctx := t.Context()
	assert.False(t, newLogger(0, false).Enabled(ctx, -4))
	assert.True(t, newLogger(0, false).Enabled(ctx, 4))
	assert.True(t, newLogger(1, false).Enabled(ctx, 0))
	assert.True(t, newLogger(2, false).Enabled(ctx, -4))
	assert.False(t, newLogger(2, true).Enabled(ctx, 4))
}
