// Package capture turns pointer input into completed strokes and tracks the
// guess/transform/save workflow of one drawing surface.
package capture

import (
	"errors"
	"sync"
	"time"

	"github.com/banshee-data/drawin/internal/monitoring"
	"github.com/banshee-data/drawin/internal/sketch"
	"github.com/banshee-data/drawin/internal/timeutil"
)

var (
	// ErrNothingDrawn is returned when a guess is requested on an empty surface.
	ErrNothingDrawn = errors.New("nothing drawn yet")
	// ErrNeedsDisambiguation means the cascade found no category and the user
	// must name the drawing.
	ErrNeedsDisambiguation = errors.New("drawing not recognised, choose a category")
	// ErrNoGuess is returned by Transform before any category is known.
	ErrNoGuess = errors.New("no category guessed or chosen yet")
	// ErrNotTransformed is returned when exporting before Transform.
	ErrNotTransformed = errors.New("drawing has not been transformed yet")
	// ErrNotDrawing is returned by End when no stroke is in progress.
	ErrNotDrawing = errors.New("no stroke in progress")
)

// Session is the state of one drawing surface. Methods are safe for
// concurrent use.
type Session struct {
	mu sync.Mutex

	id         string
	classifier *sketch.ShapeClassifier
	clock      timeutil.Clock

	stroke      sketch.Stroke
	drawing     bool
	result      *sketch.ClassificationResult
	guess       sketch.Category
	manual      bool
	transformed bool

	createdAt time.Time
	updatedAt time.Time
}

// Snapshot is a point-in-time copy of a Session for reporting.
type Snapshot struct {
	ID          string          `json:"id"`
	Points      int             `json:"points"`
	Drawing     bool            `json:"drawing"`
	Guess       sketch.Category `json:"guess"`
	Rule        string          `json:"rule,omitempty"`
	Manual      bool            `json:"manual"`
	Transformed bool            `json:"transformed"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewSession creates an empty session. A nil clock uses the wall clock.
func NewSession(id string, classifier *sketch.ShapeClassifier, clock timeutil.Clock) *Session {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if classifier == nil {
		classifier = sketch.NewShapeClassifier()
	}
	now := clock.Now()
	return &Session{id: id, classifier: classifier, clock: clock, createdAt: now, updatedAt: now}
}

func (s *Session) ID() string { return s.id }

// Begin starts a new stroke at p, discarding the previous stroke and guess.
func (s *Session) Begin(p sketch.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stroke = sketch.Stroke{p}
	s.drawing = true
	s.result = nil
	s.guess = sketch.Unclassified
	s.manual = false
	s.transformed = false
	s.touch()
	monitoring.Tracef("session %s: begin at %s", s.id, p)
}

// Move appends p to the stroke being drawn. It is ignored when no stroke is
// in progress.
func (s *Session) Move(p sketch.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.drawing {
		return
	}
	s.stroke = append(s.stroke, p)
	s.touch()
	monitoring.Tracef("session %s: move to %s (%d points)", s.id, p, len(s.stroke))
}

// End finishes the stroke and, when it is long enough, classifies it once.
// It returns ErrNotDrawing when no stroke was in progress, and the error of
// ClassifyStroke (ErrInsufficientData for short strokes) when the stroke was
// not analysed; the session then has no guess. The analysed stroke is
// result.Features.Points, taken under the same lock.
func (s *Session) End() (sketch.ClassificationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.drawing {
		return sketch.ClassificationResult{}, ErrNotDrawing
	}
	s.drawing = false
	s.touch()

	r, err := s.classifier.ClassifyStroke(s.stroke)
	if err != nil {
		monitoring.Diagf("session %s: %d point stroke not analysed: %v", s.id, len(s.stroke), err)
		return r, err
	}
	s.result = &r
	s.guess = r.Category
	return r, nil
}

// Clear empties the surface.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stroke = nil
	s.drawing = false
	s.result = nil
	s.guess = sketch.Unclassified
	s.manual = false
	s.transformed = false
	s.touch()
}

// Guess returns the current category. ErrNothingDrawn is returned for an
// empty surface and ErrNeedsDisambiguation when the drawing was not
// recognised (or was too short to analyse).
func (s *Session) Guess() (sketch.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.stroke) == 0 {
		return sketch.Unclassified, ErrNothingDrawn
	}
	if s.guess == sketch.Unclassified {
		return sketch.Unclassified, ErrNeedsDisambiguation
	}
	return s.guess, nil
}

// Choose sets the category by name, English or Spanish. Names outside the
// vocabulary leave the session unchanged and return an error wrapping
// sketch.ErrUnknownCategory.
func (s *Session) Choose(name string) (sketch.Category, error) {
	c, err := sketch.ParseCategory(name)
	if err != nil {
		return sketch.Unclassified, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.guess = c
	s.manual = true
	s.touch()
	monitoring.Diagf("session %s: user chose %s", s.id, c)
	return c, nil
}

// Transform marks the drawing as replaced by the rendering of the current
// category and returns that category.
func (s *Session) Transform() (sketch.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.guess == sketch.Unclassified {
		return sketch.Unclassified, ErrNoGuess
	}
	s.transformed = true
	s.touch()
	return s.guess, nil
}

// Exportable returns the category to export, or ErrNotTransformed.
func (s *Session) Exportable() (sketch.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.transformed {
		return sketch.Unclassified, ErrNotTransformed
	}
	return s.guess, nil
}

func (s *Session) Transformed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transformed
}

// Stroke returns a copy of the current stroke.
func (s *Session) Stroke() sketch.Stroke {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stroke.Clone()
}

// Result returns the last automatic classification, if any.
func (s *Session) Result() (sketch.ClassificationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return sketch.ClassificationResult{}, false
	}
	return *s.result, true
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.id,
		Points:      len(s.stroke),
		Drawing:     s.drawing,
		Guess:       s.guess,
		Manual:      s.manual,
		Transformed: s.transformed,
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
	if s.result != nil && !s.manual {
		snap.Rule = s.result.Rule
	}
	return snap
}

// touch must be called with mu held.
func (s *Session) touch() {
	s.updatedAt = s.clock.Now()
}
