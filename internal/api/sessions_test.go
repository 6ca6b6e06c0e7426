package api

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/drawin/internal/capture"
	"github.com/banshee-data/drawin/internal/sketch"
	"github.com/banshee-data/drawin/internal/testutil"
)

func createTestSession(t *testing.T, env *testEnv) string {
	t.Helper()
	w := env.do(httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, w.Code)
	snap := decodeBody[capture.Snapshot](t, w)
	require.NotEmpty(t, snap.ID)
	return snap.ID
}

func sessionPost(t *testing.T, env *testEnv, id, action string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return env.do(testutil.NewJSONRequest(t, http.MethodPost, "/api/sessions/"+id+"/"+action, body))
}

// drawStroke sends stroke as begin, moves and end, returning the end response.
func drawStroke(t *testing.T, env *testEnv, id string, stroke sketch.Stroke) classifyResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, sessionPost(t, env, id, "begin", stroke[0]).Code)
	for _, p := range stroke[1:] {
		require.Equal(t, http.StatusOK, sessionPost(t, env, id, "move", p).Code)
	}
	w := sessionPost(t, env, id, "end", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeBody[classifyResponse](t, w)
}

func TestSession_RecognisedWorkflow(t *testing.T) {
	env := setupTestServer(t)
	id := createTestSession(t, env)

	end := drawStroke(t, env, id, testutil.SunStroke())
	assert.Equal(t, StatusClassified, end.Status)
	assert.Equal(t, sketch.Sun, end.Category)
	assert.Equal(t, 36, end.PointCount)

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/guess", nil))
	require.Equal(t, http.StatusOK, w.Code)
	guess := decodeBody[guessResponse](t, w)
	assert.Equal(t, sketch.Sun, guess.Category)
	assert.Equal(t, "Creo que es un sol. ¡Haz clic en Transformar!", guess.Message)

	w = sessionPost(t, env, id, "transform", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tr := decodeBody[transformResponse](t, w)
	assert.Equal(t, "/api/render?category=sun&format=png", tr.RenderURL)

	w = sessionPost(t, env, id, "save", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decodeBody[saveResponse](t, w)
	assert.Equal(t, "exports/Drawin_sun_20240501-093000.png", saved.Path)
	assert.True(t, env.fs.Exists(saved.Path))

	stored, err := env.db.Sketch(saved.SketchID)
	require.NoError(t, err)
	assert.Equal(t, sketch.Sun, stored.Category)
	assert.Equal(t, sketch.RuleRoundBlob, stored.Rule)
	assert.False(t, stored.Manual)
	assert.Len(t, stored.Points, 36)

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeBody[capture.Snapshot](t, w)
	assert.True(t, snap.Transformed)
	assert.Equal(t, sketch.RuleRoundBlob, snap.Rule)
}

func TestSession_UnrecognisedNeedsChoice(t *testing.T) {
	env := setupTestServer(t)
	id := createTestSession(t, env)

	end := drawStroke(t, env, id, testutil.LineStroke())
	assert.Equal(t, StatusUnclassified, end.Status)

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/guess", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, capture.ErrNeedsDisambiguation.Error(), errorMessage(t, w))

	w = sessionPost(t, env, id, "transform", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = sessionPost(t, env, id, "choose", map[string]string{"category": "dragon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = sessionPost(t, env, id, "choose", map[string]string{"category": "gato"})
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeBody[capture.Snapshot](t, w)
	assert.Equal(t, sketch.Cat, snap.Guess)
	assert.True(t, snap.Manual)

	w = sessionPost(t, env, id, "save", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "save before transform")

	require.Equal(t, http.StatusOK, sessionPost(t, env, id, "transform", nil).Code)
	w = sessionPost(t, env, id, "save", nil)
	require.Equal(t, http.StatusOK, w.Code)
	saved := decodeBody[saveResponse](t, w)

	stored, err := env.db.Sketch(saved.SketchID)
	require.NoError(t, err)
	assert.Equal(t, sketch.Cat, stored.Category)
	assert.True(t, stored.Manual)
}

func TestSession_EndEdgeCases(t *testing.T) {
	env := setupTestServer(t)
	id := createTestSession(t, env)

	w := sessionPost(t, env, id, "end", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "no stroke in progress")

	// Moves without a begin are ignored.
	w = sessionPost(t, env, id, "move", testutil.Pt(1, 1))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decodeBody[capture.Snapshot](t, w).Points)

	require.Equal(t, http.StatusOK, sessionPost(t, env, id, "begin", testutil.Pt(1, 1)).Code)
	require.Equal(t, http.StatusOK, sessionPost(t, env, id, "move", testutil.Pt(2, 2)).Code)
	w = sessionPost(t, env, id, "end", nil)
	require.Equal(t, http.StatusOK, w.Code)
	end := decodeBody[classifyResponse](t, w)
	assert.Equal(t, StatusInsufficientData, end.Status)
	assert.Equal(t, 2, end.PointCount)

	w = sessionPost(t, env, id, "clear", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decodeBody[capture.Snapshot](t, w).Points)

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/guess", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, capture.ErrNothingDrawn.Error(), errorMessage(t, w))
}

func TestSession_Routing(t *testing.T) {
	env := setupTestServer(t)
	id := createTestSession(t, env)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"list not supported", http.MethodGet, "/api/sessions", http.StatusMethodNotAllowed},
		{"missing id", http.MethodGet, "/api/sessions/", http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/api/sessions/nope", http.StatusNotFound},
		{"unknown action", http.MethodPost, "/api/sessions/" + id + "/fly", http.StatusNotFound},
		{"too deep", http.MethodPost, "/api/sessions/" + id + "/end/now", http.StatusNotFound},
		{"get on action", http.MethodGet, "/api/sessions/" + id + "/end", http.StatusMethodNotAllowed},
		{"post on guess", http.MethodPost, "/api/sessions/" + id + "/guess", http.StatusMethodNotAllowed},
		{"put on session", http.MethodPut, "/api/sessions/" + id, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}

	w := sessionPost(t, env, id, "begin", map[string]string{"x": "left"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSession_Delete(t *testing.T) {
	env := setupTestServer(t)
	id := createTestSession(t, env)

	w := env.do(httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, env.server.registry.Len())

	w = env.do(httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSession_SaveWithoutExporter(t *testing.T) {
	env := setupTestServer(t)
	env.server.exporter = nil
	id := createTestSession(t, env)

	drawStroke(t, env, id, testutil.SunStroke())
	require.Equal(t, http.StatusOK, sessionPost(t, env, id, "transform", nil).Code)
	w := sessionPost(t, env, id, "save", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSession_ConcurrentEnd(t *testing.T) {
	env := setupTestServer(t)
	id := createTestSession(t, env)

	stroke := testutil.SunStroke()
	require.Equal(t, http.StatusOK, sessionPost(t, env, id, "begin", stroke[0]).Code)
	for _, p := range stroke[1:] {
		require.Equal(t, http.StatusOK, sessionPost(t, env, id, "move", p).Code)
	}

	const n = 8
	reqs := make([]*http.Request, n)
	for i := range reqs {
		reqs[i] = testutil.NewJSONRequest(t, http.MethodPost, "/api/sessions/"+id+"/end", nil)
	}
	codes := make([]int, n)
	bodies := make([]*httptest.ResponseRecorder, n)
	var wg sync.WaitGroup
	for i := range reqs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bodies[i] = env.do(reqs[i])
			codes[i] = bodies[i].Code
		}(i)
	}
	wg.Wait()

	ok := 0
	for i, code := range codes {
		switch code {
		case http.StatusOK:
			ok++
			end := decodeBody[classifyResponse](t, bodies[i])
			assert.Equal(t, StatusClassified, end.Status)
			assert.Equal(t, sketch.Sun, end.Category)
		default:
			assert.Equal(t, http.StatusConflict, code)
			assert.Equal(t, capture.ErrNotDrawing.Error(), errorMessage(t, bodies[i]))
		}
	}
	assert.Equal(t, 1, ok, "exactly one end analyses the stroke")
}

func TestSession_PointOutOfRange(t *testing.T) {
	env := setupTestServer(t)
	id := createTestSession(t, env)

	for _, action := range []string{"begin", "move"} {
		w := sessionPost(t, env, id, action, map[string]float64{"x": 1e308, "y": 0})
		assert.Equal(t, http.StatusBadRequest, w.Code, action)
		assert.Contains(t, errorMessage(t, w), "coordinate out of range")
	}
	w := env.do(httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decodeBody[capture.Snapshot](t, w).Points)
}
