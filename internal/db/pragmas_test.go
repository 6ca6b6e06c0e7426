package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/drawin/internal/sketch"
	"github.com/banshee-data/drawin/internal/testutil"
)

// wantPragmas are the values PRAGMA queries report for the settings in
// pragmas. synchronous NORMAL reads back as 1 and temp_store MEMORY as 2.
var wantPragmas = map[string]string{
	"journal_mode": "wal",
	"busy_timeout": "5000",
	"synchronous":  "1",
	"temp_store":   "2",
}

func assertPragmas(t *testing.T, db *DB) {
	t.Helper()
	for name, want := range wantPragmas {
		var got string
		require.NoError(t, db.QueryRow("PRAGMA "+name).Scan(&got), name)
		assert.Equal(t, want, got, name)
	}
}

func TestPragmas_SurviveRecording(t *testing.T) {
	db, _ := setupTestDB(t)
	stroke := testutil.SunStroke()

	_, err := db.RecordClassification(stroke, classify(t, stroke))
	require.NoError(t, err)

	assertPragmas(t, db)
}

func TestPragmas_ReopenedHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	stroke := testutil.SunStroke()

	db, err := NewDB(path)
	require.NoError(t, err)
	id, err := db.RecordClassification(stroke, classify(t, stroke))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// the migrate command opens the file this way
	reopened, err := OpenDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	assertPragmas(t, reopened)
	got, err := reopened.Sketch(id)
	require.NoError(t, err)
	assert.Equal(t, sketch.Sun, got.Category)
	assert.Len(t, got.Points, len(stroke))
}
