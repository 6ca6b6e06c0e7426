package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/drawin/internal/monitoring"
	"github.com/banshee-data/drawin/internal/sketch"
)

// Recorder persists the outcome of a completed stroke.
type Recorder interface {
	RecordClassification(stroke sketch.Stroke, result sketch.ClassificationResult) (string, error)
}

// Pipeline drives a Session from digitiser lines.
type Pipeline struct {
	Session  *Session
	Recorder Recorder // optional

	// OnResult, if set, is called after every analysed stroke with the
	// stored sketch ID ("" without a Recorder).
	OnResult func(id string, result sketch.ClassificationResult)
}

// NewPipeline creates a pipeline feeding session and recording every
// analysed stroke to rec, which may be nil.
func NewPipeline(session *Session, rec Recorder) *Pipeline {
	return &Pipeline{Session: session, Recorder: rec}
}

// HandleLine applies one digitiser line. Lines that are not pen events are
// returned as errors and leave the session unchanged.
func (p *Pipeline) HandleLine(line string) error {
	ev, err := ParsePenEvent(line)
	if err != nil {
		return err
	}

	switch ev.Action {
	case PenDown:
		p.Session.Begin(ev.Point)
	case PenMove:
		p.Session.Move(ev.Point)
	case PenUp:
		if ev.HasPos {
			p.Session.Move(ev.Point)
		}
		return p.finish()
	}
	return nil
}

func (p *Pipeline) finish() error {
	result, err := p.Session.End()
	switch {
	case errors.Is(err, ErrNotDrawing), errors.Is(err, sketch.ErrInsufficientData):
		return nil
	case err != nil:
		return fmt.Errorf("classify pen stroke: %w", err)
	}

	id := ""
	if p.Recorder != nil {
		id, err = p.Recorder.RecordClassification(result.Features.Points, result)
		if err != nil {
			return fmt.Errorf("record classification: %w", err)
		}
	}
	monitoring.Opsf("pen stroke of %d points classified as %s (sketch %s)", result.PointCount, result.Category, id)
	if p.OnResult != nil {
		p.OnResult(id, result)
	}
	return nil
}

// Run consumes lines until ctx is cancelled or lines is closed. Malformed
// lines and recording failures are logged and skipped.
func (p *Pipeline) Run(ctx context.Context, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := p.HandleLine(line); err != nil {
				monitoring.Diagf("pen pipeline: %v", err)
			}
		}
	}
}
