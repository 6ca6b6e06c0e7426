package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/drawin/internal/capture"
	"github.com/banshee-data/drawin/internal/db"
	"github.com/banshee-data/drawin/internal/fsutil"
	"github.com/banshee-data/drawin/internal/render"
	"github.com/banshee-data/drawin/internal/sketch"
	"github.com/banshee-data/drawin/internal/timeutil"
)

var testEpoch = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	server *Server
	mux    *http.ServeMux
	db     *db.DB
	fs     *fsutil.MemoryFileSystem
	clock  *timeutil.MockClock
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.NewDB(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	clock := timeutil.NewMockClock(testEpoch)
	database.Clock = clock
	memfs := fsutil.NewMemoryFileSystem()
	classifier := sketch.NewShapeClassifier()
	exporter := &render.Exporter{FS: memfs, Clock: clock, Dir: "exports"}

	server := NewServer(database, capture.NewRegistry(classifier, clock), classifier, exporter)
	return &testEnv{server: server, mux: server.ServeMux(), db: database, fs: memfs, clock: clock}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, w)["error"]
}
