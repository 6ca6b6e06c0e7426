package sketch

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MinStrokePoints is the shortest stroke that is analysed at all.
const MinStrokePoints = 3

// StraightAngle is the vertex angle of a point that does not turn. It is also
// reported for points adjacent to a zero-length segment, whose direction is
// undefined.
const StraightAngle = 180.0

// ErrInsufficientData is returned for strokes with fewer than MinStrokePoints
// samples. It is an expected outcome ("no guess yet"), not a failure.
var ErrInsufficientData = errors.New("stroke too short to analyse")

// BoundingBox is the axis-aligned extent of a stroke.
type BoundingBox struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
}

// FeatureSet holds the geometric descriptors of one completed stroke. It is
// computed once per stroke and never mutated afterwards.
type FeatureSet struct {
	Box         BoundingBox
	Width       float64
	Height      float64
	AspectRatio float64 // Width / Height; 1.0 when Height is 0
	Centroid    Point

	// Distances[i] is the Euclidean distance of point i from Centroid.
	Distances []float64

	// Circularity is the mean absolute deviation of Distances from their
	// mean. Near 0 for a uniform-radius outline, large when irregular.
	Circularity float64

	// Angles[i] is the vertex angle in degrees at point i+1, in [0, 180].
	// 180 is a straight continuation, values near 0 a sharp reversal.
	Angles []float64

	// Points is a private copy of the stroke for the predicates that need
	// raw positions (mirror symmetry, upper-half roundness).
	Points Stroke
}

// ExtractFeatures computes the FeatureSet of a completed stroke. Points
// outside MaxCoordinate return ErrCoordinateRange.
func ExtractFeatures(stroke Stroke) (FeatureSet, error) {
	if len(stroke) < MinStrokePoints {
		return FeatureSet{}, ErrInsufficientData
	}
	if err := stroke.Validate(); err != nil {
		return FeatureSet{}, err
	}

	pts := stroke.Clone()
	xs, ys := pts.coords()

	f := FeatureSet{
		Box: BoundingBox{
			MinX: floats.Min(xs),
			MaxX: floats.Max(xs),
			MinY: floats.Min(ys),
			MaxY: floats.Max(ys),
		},
		Points: pts,
	}
	f.Width = f.Box.MaxX - f.Box.MinX
	f.Height = f.Box.MaxY - f.Box.MinY

	// A perfectly flat stroke is treated as square. A subnormal height can
	// still overflow the ratio, so it saturates at MaxFloat64.
	if f.Height != 0 {
		f.AspectRatio = math.Min(f.Width/f.Height, math.MaxFloat64)
	} else {
		f.AspectRatio = 1.0
	}

	f.Centroid, f.Distances, f.Circularity = radialSpread(pts)
	f.Angles = vertexAngles(pts)
	return f, nil
}

// radialSpread returns the centroid of pts, each point's distance from it and
// the mean absolute deviation of those distances.
func radialSpread(pts Stroke) (centroid Point, distances []float64, circularity float64) {
	if len(pts) == 0 {
		return Point{}, nil, 0
	}
	xs, ys := pts.coords()
	centroid = Point{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)}

	distances = make([]float64, len(pts))
	for i, p := range pts {
		distances[i] = math.Hypot(p.X-centroid.X, p.Y-centroid.Y)
	}
	avg := stat.Mean(distances, nil)

	deviations := make([]float64, len(distances))
	for i, d := range distances {
		deviations[i] = math.Abs(d - avg)
	}
	return centroid, distances, stat.Mean(deviations, nil)
}

// vertexAngles returns the angle at every interior point of pts.
func vertexAngles(pts Stroke) []float64 {
	if len(pts) < MinStrokePoints {
		return nil
	}
	angles := make([]float64, 0, len(pts)-2)
	for i := 1; i < len(pts)-1; i++ {
		angles = append(angles, vertexAngle(pts[i-1], pts[i], pts[i+1]))
	}
	return angles
}

// vertexAngle is the angle at b between the segments back to a and on to c,
// folded into [0, 180].
func vertexAngle(a, b, c Point) float64 {
	if a == b || b == c {
		return StraightAngle
	}
	back := math.Atan2(a.Y-b.Y, a.X-b.X)
	ahead := math.Atan2(c.Y-b.Y, c.X-b.X)
	deg := math.Abs((ahead - back) * 180 / math.Pi)
	if deg > 180 {
		deg = 360 - deg
	}
	return deg
}

// countAngles returns how many angles satisfy keep.
func countAngles(angles []float64, keep func(float64) bool) int {
	n := 0
	for _, a := range angles {
		if keep(a) {
			n++
		}
	}
	return n
}
