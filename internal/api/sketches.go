package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/banshee-data/drawin/internal/db"
	"github.com/banshee-data/drawin/internal/httputil"
	"github.com/banshee-data/drawin/internal/monitoring"
	"github.com/banshee-data/drawin/internal/render"
	"github.com/banshee-data/drawin/internal/sketch"
)

// listSketches handles GET /api/sketches?limit=N
func (s *Server) listSketches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit := s.ListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	sketches, err := s.db.Sketches(limit)
	if err != nil {
		monitoring.Opsf("Error listing sketches: %v", err)
		httputil.InternalServerError(w, "failed to list sketches")
		return
	}
	httputil.WriteJSONOK(w, sketches)
}

// handleSketchByID handles /api/sketches/:id and its sub-resources.
func (s *Server) handleSketchByID(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/sketches/"), "/")
	id := strings.TrimSpace(pathParts[0])
	if id == "" {
		httputil.BadRequest(w, "missing sketch ID")
		return
	}

	if len(pathParts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.getSketch(w, id)
		case http.MethodDelete:
			s.deleteSketch(w, id)
		default:
			httputil.MethodNotAllowed(w)
		}
		return
	}

	switch {
	case len(pathParts) == 2 && pathParts[1] == "category":
		if r.Method != http.MethodPost {
			httputil.MethodNotAllowed(w)
			return
		}
		s.setSketchCategory(w, r, id)
	case len(pathParts) == 2 && pathParts[1] == "plot":
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w)
			return
		}
		s.plotSketch(w, r, id)
	default:
		httputil.NotFound(w, "not found")
	}
}

// writeDBError maps a db error onto a response.
func writeDBError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, "sketch not found")
		return
	}
	monitoring.Opsf("Error %s: %v", op, err)
	httputil.InternalServerError(w, "failed "+op)
}

func (s *Server) getSketch(w http.ResponseWriter, id string) {
	sk, err := s.db.Sketch(id)
	if err != nil {
		writeDBError(w, "fetching sketch", err)
		return
	}
	httputil.WriteJSONOK(w, sk)
}

func (s *Server) deleteSketch(w http.ResponseWriter, id string) {
	if err := s.db.DeleteSketch(id); err != nil {
		writeDBError(w, "deleting sketch", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryRequest struct {
	Category string `json:"category"`
}

// setSketchCategory handles POST /api/sketches/:id/category, the manual
// correction of a stored classification.
func (s *Server) setSketchCategory(w http.ResponseWriter, r *http.Request, id string) {
	var req categoryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	cat, err := sketch.ParseCategory(req.Category)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := s.db.SetCategory(id, cat); err != nil {
		writeDBError(w, "updating sketch", err)
		return
	}
	s.getSketch(w, id)
}

// plotSketch handles GET /api/sketches/:id/plot
func (s *Server) plotSketch(w http.ResponseWriter, r *http.Request, id string) {
	sk, err := s.db.Sketch(id)
	if err != nil {
		writeDBError(w, "fetching sketch", err)
		return
	}

	f, err := sketch.ExtractFeatures(sk.Points)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	result := sketch.ClassificationResult{
		Category:   sk.Category,
		Rule:       sk.Rule,
		Model:      sk.ModelVersion,
		PointCount: sk.PointCount,
		Features:   f,
	}
	if !s.acquireRender(w, r) {
		return
	}
	defer s.renders.Release(1)

	p, err := render.PlotStroke(f, result)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := render.WritePlot(&buf, p); err != nil {
		monitoring.Opsf("Error plotting sketch %s: %v", id, err)
		httputil.InternalServerError(w, "failed to plot sketch")
		return
	}
	httputil.WriteBytes(w, render.FormatPNG.ContentType(), buf.Bytes())
}

// renderCategory handles GET /api/render?category=sun&format=png
func (s *Server) renderCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	cat, err := sketch.ParseCategory(q.Get("category"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	format, err := render.ParseFormat(q.Get("format"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	if !s.acquireRender(w, r) {
		return
	}
	defer s.renders.Release(1)

	var buf bytes.Buffer
	if err := render.Write(&buf, cat, format); err != nil {
		if errors.Is(err, render.ErrNoRenderer) {
			httputil.BadRequest(w, err.Error())
			return
		}
		monitoring.Opsf("Error rendering %s: %v", cat, err)
		httputil.InternalServerError(w, fmt.Sprintf("failed to render %s", cat))
		return
	}
	s.metrics.ObserveRender(cat.String(), string(format))
	httputil.WriteBytes(w, format.ContentType(), buf.Bytes())
}
