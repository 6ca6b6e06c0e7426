// Package testutil provides shared test utilities and stroke fixtures.
//
// The fixtures generate strokes on the 500x500 drawing surface (y grows
// downwards) whose classification under the standard cascade is known.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/drawin/internal/sketch"
)

// Circle returns n points evenly spaced on a circle of radius r around
// (cx, cy), starting at angle 0. The stroke is not closed.
func Circle(cx, cy, r float64, n int) sketch.Stroke {
	return Ellipse(cx, cy, r, r, n)
}

// Ellipse returns n points evenly spaced in parameter on an axis-aligned
// ellipse with radii rx and ry.
func Ellipse(cx, cy, rx, ry float64, n int) sketch.Stroke {
	pts := make(sketch.Stroke, n)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = sketch.Point{X: cx + rx*math.Cos(t), Y: cy + ry*math.Sin(t)}
	}
	return pts
}

// Star returns a closed five-pointed star outline of 11 points alternating
// between the inner radius (even indices) and the outer radius, starting at
// 126 degrees.
func Star(cx, cy, outer, inner float64) sketch.Stroke {
	pts := make(sketch.Stroke, 11)
	for k := range pts {
		r := outer
		if k%2 == 0 {
			r = inner
		}
		rad := (126 + 36*float64(k)) * math.Pi / 180
		pts[k] = sketch.Point{X: cx + r*math.Cos(rad), Y: cy + r*math.Sin(rad)}
	}
	return pts
}

// Polyline samples the segments between consecutive vertices with steps
// points per segment and finishes on the last vertex.
func Polyline(steps int, vertices ...sketch.Point) sketch.Stroke {
	if len(vertices) == 0 {
		return nil
	}
	pts := make(sketch.Stroke, 0, (len(vertices)-1)*steps+1)
	for i := 0; i+1 < len(vertices); i++ {
		a, b := vertices[i], vertices[i+1]
		for s := 0; s < steps; s++ {
			t := float64(s) / float64(steps)
			pts = append(pts, sketch.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t})
		}
	}
	return append(pts, vertices[len(vertices)-1])
}

// Heart returns n points of the classic parametric heart curve scaled by
// scale, point up on the surface.
func Heart(cx, cy, scale float64, n int) sketch.Stroke {
	pts := make(sketch.Stroke, n)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / float64(n)
		s := math.Sin(t)
		pts[i] = sketch.Point{
			X: cx + scale*16*s*s*s,
			Y: cy - scale*(13*math.Cos(t)-5*math.Cos(2*t)-2*math.Cos(3*t)-math.Cos(4*t)),
		}
	}
	return pts
}

// Pt is shorthand for a sketch.Point literal.
func Pt(x, y float64) sketch.Point {
	return sketch.Point{X: x, Y: y}
}

// Named fixtures with a known category under the standard cascade.

// SunStroke is a 36 point circle of radius 100 in the middle of the surface.
func SunStroke() sketch.Stroke { return Circle(250, 250, 100, 36) }

// CarStroke is a 2:1 wide ellipse.
func CarStroke() sketch.Stroke { return Ellipse(250, 250, 100, 50, 36) }

// TreeStroke is a tall, narrow ellipse.
func TreeStroke() sketch.Stroke { return Ellipse(250, 250, 40, 100, 36) }

// HouseStroke is an L with a short return stroke: two right-angled corners.
func HouseStroke() sketch.Stroke {
	return Polyline(6, Pt(100, 100), Pt(100, 400), Pt(200, 400), Pt(200, 300))
}

// StarStroke is a zigzag with five sharp turns.
func StarStroke() sketch.Stroke {
	return Polyline(3, Pt(100, 300), Pt(150, 100), Pt(200, 300), Pt(250, 100),
		Pt(300, 300), Pt(350, 100), Pt(400, 300))
}

// HeartStroke is a 60 point parametric heart.
func HeartStroke() sketch.Stroke { return Heart(250, 250, 8, 60) }

// BalloonStroke is a small loop with a long diagonal string.
func BalloonStroke() sketch.Stroke {
	pts := make(sketch.Stroke, 0, 40)
	for i := 0; i < 25; i++ {
		rad := (90 + 15*float64(i)) * math.Pi / 180
		pts = append(pts, Pt(150+40*math.Cos(rad), 150+40*math.Sin(rad)))
	}
	for k := 1; k <= 15; k++ {
		pts = append(pts, Pt(150+15*float64(k), 190+15*float64(k)))
	}
	return pts
}

// FishStroke is a slanted body line that doubles back into a tail.
func FishStroke() sketch.Stroke {
	pts := make(sketch.Stroke, 0, 14)
	for k := 0; k < 10; k++ {
		pts = append(pts, Pt(100+20*float64(k), 300-8*float64(k)))
	}
	return append(pts, Pt(200, 200), Pt(300, 150), Pt(120, 180), Pt(400, 120))
}

// LineStroke is a three point horizontal line that matches no rule.
func LineStroke() sketch.Stroke {
	return sketch.Stroke{Pt(100, 200), Pt(200, 200), Pt(300, 200)}
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// NewJSONRequest creates a test HTTP request with body encoded as JSON.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		AssertNoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}
