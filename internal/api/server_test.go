package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/drawin/internal/monitoring"
	"github.com/banshee-data/drawin/internal/sketch"
	"github.com/banshee-data/drawin/internal/testutil"
	"github.com/banshee-data/drawin/internal/version"
)

func TestStatusCodeColor(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, colorBoldGreen + "200" + colorReset},
		{204, colorBoldGreen + "204" + colorReset},
		{304, colorYellow + "304" + colorReset},
		{404, colorBoldRed + "404" + colorReset},
		{500, colorBoldRed + "500" + colorReset},
		{100, "100"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusCodeColor(tt.code))
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var ops bytes.Buffer
	monitoring.SetLogWriters(monitoring.LogWriters{Ops: &ops})
	t.Cleanup(func() { monitoring.SetLogWriters(monitoring.DefaultLogWriters()) })

	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/version?x=1", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	line := ops.String()
	assert.Contains(t, line, statusCodeColor(http.StatusTeapot))
	assert.Contains(t, line, "GET")
	assert.Contains(t, line, colorCyan+"/api/version?x=1"+colorReset)
	assert.Contains(t, line, "ms")
}

func TestLoggingResponseWriter_Flush(t *testing.T) {
	w := httptest.NewRecorder()
	lrw := &loggingResponseWriter{w, http.StatusOK}
	lrw.Flush()
	assert.True(t, w.Flushed)
}

func TestListCategories(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.Equal(t, http.StatusOK, w.Code)

	got := decodeBody[[]categoryInfo](t, w)
	require.Len(t, got, int(sketch.NumCategories)-1)
	assert.Equal(t, categoryInfo{Category: sketch.Sun, Spanish: "sol"}, got[0])
	assert.Equal(t, sketch.Boat, got[len(got)-1].Category)

	w = env.do(httptest.NewRequest(http.MethodPost, "/api/categories", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestShowVersion(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/version", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, version.Current(sketch.ModelVersion), decodeBody[version.Info](t, w))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		points     sketch.Stroke
		wantStatus string
		wantCat    sketch.Category
		wantRule   string
	}{
		{"sun", testutil.SunStroke(), StatusClassified, sketch.Sun, sketch.RuleRoundBlob},
		{"car", testutil.CarStroke(), StatusClassified, sketch.Car, sketch.RuleWideBlob},
		{"line", testutil.LineStroke(), StatusUnclassified, sketch.Unclassified, ""},
		{"two points", sketch.Stroke{testutil.Pt(1, 1), testutil.Pt(2, 2)}, StatusInsufficientData, sketch.Unclassified, ""},
		{"empty", nil, StatusInsufficientData, sketch.Unclassified, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestServer(t)
			req := testutil.NewJSONRequest(t, http.MethodPost, "/api/classify", map[string]any{"points": tt.points})
			w := env.do(req)
			testutil.AssertStatusCode(t, w.Code, http.StatusOK)

			got := decodeBody[classifyResponse](t, w)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantCat, got.Category)
			assert.Equal(t, tt.wantRule, got.Rule)
			assert.Equal(t, sketch.ModelVersion, got.Model)
			assert.Equal(t, len(tt.points), got.PointCount)
			assert.Empty(t, got.SketchID)
			if tt.wantStatus == StatusInsufficientData {
				assert.Nil(t, got.Features)
				assert.Empty(t, got.Trace)
			} else {
				require.NotNil(t, got.Features)
				assert.Len(t, got.Features.Angles, len(tt.points)-2)
				assert.NotEmpty(t, got.Trace)
			}
		})
	}
}

func TestClassify_SpanishLabel(t *testing.T) {
	env := setupTestServer(t)
	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/classify", map[string]any{"points": testutil.SunStroke()})
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"label_es":"sol"`)
	assert.Contains(t, w.Body.String(), `"category":"sun"`)
}

func TestClassify_Record(t *testing.T) {
	env := setupTestServer(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/classify", map[string]any{
		"points": testutil.SunStroke(),
		"record": true,
	})
	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[classifyResponse](t, w)
	require.NotEmpty(t, got.SketchID)

	stored, err := env.db.Sketch(got.SketchID)
	require.NoError(t, err)
	assert.Equal(t, sketch.Sun, stored.Category)
	assert.Equal(t, testutil.SunStroke(), stored.Points)

	// Short strokes are never recorded.
	req = testutil.NewJSONRequest(t, http.MethodPost, "/api/classify", map[string]any{
		"points": sketch.Stroke{testutil.Pt(1, 1)},
		"record": true,
	})
	w = env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[classifyResponse](t, w).SketchID)

	all, err := env.db.Sketches(10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestClassify_BadRequests(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"empty body", http.MethodPost, "", http.StatusBadRequest},
		{"not json", http.MethodPost, "points", http.StatusBadRequest},
		{"unknown field", http.MethodPost, `{"pts": []}`, http.StatusBadRequest},
		{"bad point", http.MethodPost, `{"points": [{"x": "a", "y": 1}]}`, http.StatusBadRequest},
		{"overflowing coordinates", http.MethodPost, `{"points": [{"x": 1e308, "y": 0}, {"x": 1e308, "y": 1}, {"x": -1e308, "y": 2}, {"x": 1e308, "y": 3}]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/classify", strings.NewReader(tt.body))
			w := env.do(req)
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, errorMessage(t, w))
		})
	}
}

func TestClassify_Metrics(t *testing.T) {
	env := setupTestServer(t)
	metrics := monitoring.NewMetrics()
	env.server.SetMetrics(metrics)

	for _, stroke := range []sketch.Stroke{testutil.SunStroke(), testutil.SunStroke(), testutil.LineStroke()} {
		w := env.do(testutil.NewJSONRequest(t, http.MethodPost, "/api/classify", map[string]any{"points": stroke}))
		require.Equal(t, http.StatusOK, w.Code)
	}
	env.do(httptest.NewRequest(http.MethodGet, "/api/render?category=sun&format=svg", nil))

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	out := rec.Body.String()
	assert.Contains(t, out, `drawin_classifier_classifications_total{category="sun",rule="round-blob",status="classified"} 2`)
	assert.Contains(t, out, `drawin_classifier_classifications_total{category="unclassified",rule="none",status="unclassified"} 1`)
	assert.Contains(t, out, `drawin_render_renders_total{category="sun",format="svg"} 1`)
}
