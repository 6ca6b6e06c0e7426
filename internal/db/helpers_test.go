package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/drawin/internal/timeutil"
)

// testEpoch is the mock clock start used by setupTestDB.
var testEpoch = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

// setupTestDB creates a migrated database in a temp dir with a mock clock.
func setupTestDB(t *testing.T) (*DB, *timeutil.MockClock) {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock := timeutil.NewMockClock(testEpoch)
	db.Clock = clock
	return db, clock
}
