// Package api serves the classifier, the sketch history and drawing sessions
// over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/banshee-data/drawin/internal/capture"
	"github.com/banshee-data/drawin/internal/db"
	"github.com/banshee-data/drawin/internal/httputil"
	"github.com/banshee-data/drawin/internal/monitoring"
	"github.com/banshee-data/drawin/internal/render"
	"github.com/banshee-data/drawin/internal/serialmux"
	"github.com/banshee-data/drawin/internal/sketch"
	"github.com/banshee-data/drawin/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// DefaultListLimit is the page size of GET /api/sketches without ?limit.
const DefaultListLimit = 100

// DefaultRenderConcurrency bounds how many pictures and plots are rasterised
// at once.
const DefaultRenderConcurrency = 4

// Classification statuses reported by the classify and session end routes.
const (
	StatusClassified       = "classified"
	StatusUnclassified     = "unclassified"
	StatusInsufficientData = "insufficient_data"
)

type Server struct {
	db         *db.DB
	registry   *capture.Registry
	classifier *sketch.ShapeClassifier
	exporter   *render.Exporter

	// set by AttachDevice
	m      serialmux.SerialMuxInterface
	status *serialmux.DeviceStatus

	metrics *monitoring.Metrics
	renders *semaphore.Weighted

	// ListLimit is the default number of sketches listed.
	ListLimit int
}

func NewServer(db *db.DB, registry *capture.Registry, classifier *sketch.ShapeClassifier, exporter *render.Exporter) *Server {
	if classifier == nil {
		classifier = sketch.NewShapeClassifier()
	}
	if registry == nil {
		registry = capture.NewRegistry(classifier, nil)
	}
	return &Server{
		db:         db,
		registry:   registry,
		classifier: classifier,
		exporter:   exporter,
		renders:    semaphore.NewWeighted(DefaultRenderConcurrency),
		ListLimit:  DefaultListLimit,
	}
}

// SetMetrics makes the server count classifications and renders in m.
func (s *Server) SetMetrics(m *monitoring.Metrics) {
	s.metrics = m
}

// acquireRender waits for a render slot. It reports false, having written
// the response, when the request goes away first.
func (s *Server) acquireRender(w http.ResponseWriter, r *http.Request) bool {
	if err := s.renders.Acquire(r.Context(), 1); err != nil {
		monitoring.Diagf("render slot not acquired: %v", err)
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "render cancelled")
		return false
	}
	return true
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Opsf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/categories", s.listCategories)
	mux.HandleFunc("/api/classify", s.classify)
	mux.HandleFunc("/api/sketches", s.listSketches)
	mux.HandleFunc("/api/sketches/", s.handleSketchByID)
	mux.HandleFunc("/api/render", s.renderCategory)
	mux.HandleFunc("/api/sessions", s.createSession)
	mux.HandleFunc("/api/sessions/", s.handleSessionByID)
	mux.HandleFunc("/api/charts/categories", s.categoryChart)
	mux.HandleFunc("/api/version", s.showVersion)
	mux.HandleFunc("/api/device", s.showDevice)
	mux.HandleFunc("/api/device/command", s.sendCommandHandler)
	return mux
}

type categoryInfo struct {
	Category sketch.Category `json:"category"`
	Spanish  string          `json:"label_es"`
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	cats := sketch.Categories()
	out := make([]categoryInfo, len(cats))
	for i, c := range cats {
		out[i] = categoryInfo{Category: c, Spanish: c.Spanish()}
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, version.Current(s.classifier.ModelVersion))
}

type featuresResponse struct {
	Box         sketch.BoundingBox `json:"box"`
	Width       float64            `json:"width"`
	Height      float64            `json:"height"`
	AspectRatio float64            `json:"aspect_ratio"`
	Circularity float64            `json:"circularity"`
	Centroid    sketch.Point       `json:"centroid"`
	Angles      []float64          `json:"angles"`
}

// classifyResponse is the JSON form of a ClassificationResult.
type classifyResponse struct {
	Status     string               `json:"status"`
	Category   sketch.Category      `json:"category"`
	Spanish    string               `json:"label_es,omitempty"`
	Rule       string               `json:"rule,omitempty"`
	Model      string               `json:"model"`
	PointCount int                  `json:"point_count"`
	Features   *featuresResponse    `json:"features,omitempty"`
	Trace      []sketch.RuleOutcome `json:"trace,omitempty"`
	SketchID   string               `json:"sketch_id,omitempty"`
}

func newClassifyResponse(result sketch.ClassificationResult, err error) classifyResponse {
	resp := classifyResponse{
		Status:     StatusClassified,
		Category:   result.Category,
		Spanish:    result.Category.Spanish(),
		Rule:       result.Rule,
		Model:      result.Model,
		PointCount: result.PointCount,
	}
	if errors.Is(err, sketch.ErrInsufficientData) {
		resp.Status = StatusInsufficientData
		return resp
	}
	if result.Category == sketch.Unclassified {
		resp.Status = StatusUnclassified
	}
	f := result.Features
	resp.Features = &featuresResponse{
		Box:         f.Box,
		Width:       f.Width,
		Height:      f.Height,
		AspectRatio: f.AspectRatio,
		Circularity: f.Circularity,
		Centroid:    f.Centroid,
		Angles:      f.Angles,
	}
	resp.Trace = result.Trace
	return resp
}

func (s *Server) observe(resp classifyResponse) {
	s.metrics.ObserveClassification(resp.Status, resp.Category.String(), resp.Rule, resp.PointCount)
}

type classifyRequest struct {
	Points sketch.Stroke `json:"points"`
	// Record stores the stroke in the sketch history when it was analysed.
	Record bool `json:"record,omitempty"`
}

// classify handles POST /api/classify. Short strokes are not an error: the
// response reports status insufficient_data.
func (s *Server) classify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req classifyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := req.Points.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	result, err := s.classifier.ClassifyStroke(req.Points)
	if err != nil && !errors.Is(err, sketch.ErrInsufficientData) {
		httputil.InternalServerError(w, err.Error())
		return
	}
	resp := newClassifyResponse(result, err)
	s.observe(resp)

	if req.Record && err == nil {
		id, err := s.db.RecordClassification(req.Points, result)
		if err != nil {
			monitoring.Opsf("failed to record classification: %v", err)
			httputil.InternalServerError(w, "failed to record sketch")
			return
		}
		resp.SketchID = id
	}
	httputil.WriteJSONOK(w, resp)
}
