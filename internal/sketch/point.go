package sketch

import (
	"errors"
	"fmt"
	"math"
)

// MaxCoordinate bounds the magnitude of a coordinate. Beyond it sums and
// differences of positions can overflow to Inf.
const MaxCoordinate = 1e150

// ErrCoordinateRange is returned for points that are not finite or exceed
// MaxCoordinate.
var ErrCoordinateRange = errors.New("coordinate out of range")

// Point is a single pointer sample in surface coordinates. The drawing
// surface is 500x500 with y growing downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%.1f, %.1f)", p.X, p.Y)
}

// Validate reports ErrCoordinateRange when either coordinate is NaN, infinite
// or larger in magnitude than MaxCoordinate.
func (p Point) Validate() error {
	for _, v := range [2]float64{p.X, p.Y} {
		if math.IsNaN(v) || math.Abs(v) > MaxCoordinate {
			return fmt.Errorf("%w: %g", ErrCoordinateRange, v)
		}
	}
	return nil
}

// Stroke is the ordered sequence of samples of one continuous pointer drag,
// in drawing order.
type Stroke []Point

// Clone returns a copy that shares no backing array with s.
func (s Stroke) Clone() Stroke {
	if s == nil {
		return nil
	}
	out := make(Stroke, len(s))
	copy(out, s)
	return out
}

// Validate checks every point of the stroke.
func (s Stroke) Validate() error {
	for i, p := range s {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}
	return nil
}

// coords splits the stroke into parallel x and y slices.
func (s Stroke) coords() (xs, ys []float64) {
	xs = make([]float64, len(s))
	ys = make([]float64, len(s))
	for i, p := range s {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return xs, ys
}
