package document

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testRow struct {
	id       string
	text     any
	metadata any
}

// createTestDB writes a documents database into a temp dir and returns its path.
func createTestDB(t *testing.T, rows ...testRow) string {
	t.Helper()
	return createTestDBAt(t, filepath.Join(t.TempDir(), "docs.db"), rows...)
}

// createTestDBAt writes a documents database at path; parent directories are created.
func createTestDBAt(t *testing.T, path string, rows ...testRow) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	dsn := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	db, err := sql.Open("sqlite", dsn.String())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE documents (id TEXT PRIMARY KEY, text TEXT, metadata TEXT)`)
	require.NoError(t, err)

	for _, row := range rows {
		_, err := db.Exec(`INSERT INTO documents (id, text, metadata) VALUES (?, ?, ?)`,
			row.id, row.text, row.metadata)
		require.NoError(t, err)
	}
	return path
}

// openTestRepo opens a read-only repo over rows and closes it on cleanup.
func openTestRepo(t *testing.T, rows ...testRow) *Repo {
	t.Helper()

	repo, err := Open(context.Background(), Config{Path: createTestDB(t, rows...)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func sampleRows() []testRow {
	return []testRow{
		{id: "Turing", text: "Alan Turing was a mathematician.\nHe worked at Bletchley", metadata: `{"born":1912,"field":"cs"}`},
		{id: "Lovelace", text: "Ada Lovelace wrote the first program.", metadata: `{"born":1815}`},
		{id: "Cafe\u0301", text: "A small coffee place.", metadata: nil}, // stored in NFD
		{id: "Babbage", text: nil, metadata: `null`},
		{id: "Broken", text: "x", metadata: `{"born":`},
	}
}
