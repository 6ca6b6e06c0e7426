package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/banshee-data/drawin/internal/capture"
	"github.com/banshee-data/drawin/internal/httputil"
	"github.com/banshee-data/drawin/internal/monitoring"
	"github.com/banshee-data/drawin/internal/sketch"
)

// createSession handles POST /api/sessions
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	sess := s.registry.Create()
	monitoring.Diagf("created session %s (%d live)", sess.ID(), s.registry.Len())
	httputil.WriteJSON(w, http.StatusCreated, sess.Snapshot())
}

// handleSessionByID handles /api/sessions/:id and /api/sessions/:id/:action
func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	id := strings.TrimSpace(pathParts[0])
	if id == "" {
		httputil.BadRequest(w, "missing session ID")
		return
	}
	if len(pathParts) > 2 {
		httputil.NotFound(w, "not found")
		return
	}

	sess, ok := s.registry.Get(id)
	if !ok {
		httputil.NotFound(w, "session not found")
		return
	}

	if len(pathParts) == 1 {
		switch r.Method {
		case http.MethodGet:
			httputil.WriteJSONOK(w, sess.Snapshot())
		case http.MethodDelete:
			s.registry.Delete(id)
			w.WriteHeader(http.StatusNoContent)
		default:
			httputil.MethodNotAllowed(w)
		}
		return
	}

	action := pathParts[1]
	if action == "guess" {
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w)
			return
		}
		s.sessionGuess(w, sess)
		return
	}
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	switch action {
	case "begin":
		s.sessionPoint(w, r, sess, sess.Begin)
	case "move":
		s.sessionPoint(w, r, sess, sess.Move)
	case "end":
		s.sessionEnd(w, sess)
	case "clear":
		sess.Clear()
		httputil.WriteJSONOK(w, sess.Snapshot())
	case "choose":
		s.sessionChoose(w, r, sess)
	case "transform":
		s.sessionTransform(w, sess)
	case "save":
		s.sessionSave(w, sess)
	default:
		httputil.NotFound(w, "unknown session action "+action)
	}
}

// writeSessionError maps the capture workflow errors onto 409 Conflict.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, capture.ErrNothingDrawn),
		errors.Is(err, capture.ErrNeedsDisambiguation),
		errors.Is(err, capture.ErrNoGuess),
		errors.Is(err, capture.ErrNotTransformed),
		errors.Is(err, capture.ErrNotDrawing):
		httputil.WriteJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, sketch.ErrUnknownCategory),
		errors.Is(err, sketch.ErrCoordinateRange):
		httputil.BadRequest(w, err.Error())
	default:
		monitoring.Opsf("session error: %v", err)
		httputil.InternalServerError(w, err.Error())
	}
}

func (s *Server) sessionPoint(w http.ResponseWriter, r *http.Request, sess *capture.Session, apply func(sketch.Point)) {
	var p sketch.Point
	if err := httputil.DecodeJSON(r, &p); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := p.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	apply(p)
	httputil.WriteJSONOK(w, sess.Snapshot())
}

// sessionEnd finishes the stroke and reports its classification.
func (s *Server) sessionEnd(w http.ResponseWriter, sess *capture.Session) {
	result, err := sess.End()
	if err != nil && !errors.Is(err, sketch.ErrInsufficientData) {
		writeSessionError(w, err)
		return
	}
	resp := newClassifyResponse(result, err)
	s.observe(resp)
	httputil.WriteJSONOK(w, resp)
}

type guessResponse struct {
	Category sketch.Category `json:"category"`
	Spanish  string          `json:"label_es"`
	Message  string          `json:"message"`
}

func (s *Server) sessionGuess(w http.ResponseWriter, sess *capture.Session) {
	cat, err := sess.Guess()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	httputil.WriteJSONOK(w, guessResponse{
		Category: cat,
		Spanish:  cat.Spanish(),
		Message:  fmt.Sprintf("Creo que es un %s. ¡Haz clic en Transformar!", cat.Spanish()),
	})
}

func (s *Server) sessionChoose(w http.ResponseWriter, r *http.Request, sess *capture.Session) {
	var req categoryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if _, err := sess.Choose(req.Category); err != nil {
		writeSessionError(w, err)
		return
	}
	httputil.WriteJSONOK(w, sess.Snapshot())
}

type transformResponse struct {
	Category  sketch.Category `json:"category"`
	Spanish   string          `json:"label_es"`
	RenderURL string          `json:"render_url"`
}

func (s *Server) sessionTransform(w http.ResponseWriter, sess *capture.Session) {
	cat, err := sess.Transform()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	q := url.Values{"category": {cat.String()}, "format": {"png"}}
	httputil.WriteJSONOK(w, transformResponse{
		Category:  cat,
		Spanish:   cat.Spanish(),
		RenderURL: "/api/render?" + q.Encode(),
	})
}

type saveResponse struct {
	Category sketch.Category `json:"category"`
	Path     string          `json:"path"`
	SketchID string          `json:"sketch_id,omitempty"`
}

// sessionSave exports the transformed picture and stores the stroke in the
// sketch history. A user choice that differs from the automatic guess is
// stored as a manual correction.
func (s *Server) sessionSave(w http.ResponseWriter, sess *capture.Session) {
	cat, err := sess.Exportable()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if s.exporter == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}

	path, err := s.exporter.Save(cat)
	if err != nil {
		monitoring.Opsf("Error exporting session %s: %v", sess.ID(), err)
		httputil.InternalServerError(w, "failed to export drawing")
		return
	}
	resp := saveResponse{Category: cat, Path: path}

	stroke := sess.Stroke()
	if s.db != nil && len(stroke) > 0 {
		result, ok := sess.Result()
		if !ok {
			result = sketch.ClassificationResult{Model: s.classifier.ModelVersion, PointCount: len(stroke)}
		}
		id, err := s.db.RecordClassification(stroke, result)
		if err == nil && result.Category != cat {
			err = s.db.SetCategory(id, cat)
		}
		if err != nil {
			monitoring.Opsf("Error recording session %s: %v", sess.ID(), err)
			httputil.InternalServerError(w, "failed to record sketch")
			return
		}
		resp.SketchID = id
	}
	httputil.WriteJSONOK(w, resp)
}
