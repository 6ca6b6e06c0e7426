package render

import (
	"image/color"
	"math"

	"gonum.org/v1/plot/vg"
)

// ovalSegments is the number of straight segments used to approximate an
// ellipse outline.
const ovalSegments = 72

// style is a fill/outline pair. A nil colour skips that part.
type style struct {
	fill    color.Color
	outline color.Color
	width   float64
}

// painter draws on a vg.Canvas using surface coordinates: origin top-left,
// y growing downwards, Size units square.
type painter struct {
	c vg.Canvas
}

func (p painter) pt(x, y float64) vg.Point {
	return vg.Point{X: vg.Length(x), Y: vg.Length(Size - y)}
}

// path builds a polyline through coords given as x0, y0, x1, y1, ...
func (p painter) path(closed bool, coords ...float64) vg.Path {
	var path vg.Path
	for i := 0; i+1 < len(coords); i += 2 {
		pt := p.pt(coords[i], coords[i+1])
		if i == 0 {
			path.Move(pt)
		} else {
			path.Line(pt)
		}
	}
	if closed {
		path.Close()
	}
	return path
}

func (p painter) draw(path vg.Path, s style) {
	if s.fill != nil {
		p.c.SetColor(s.fill)
		p.c.Fill(path)
	}
	if s.outline != nil && s.width > 0 {
		p.c.SetColor(s.outline)
		p.c.SetLineWidth(vg.Length(s.width))
		p.c.Stroke(path)
	}
}

// oval draws the ellipse inscribed in the box (x0, y0)-(x1, y1).
func (p painter) oval(x0, y0, x1, y1 float64, s style) {
	cx, cy := (x0+x1)/2, (y0+y1)/2
	rx, ry := (x1-x0)/2, (y1-y0)/2
	coords := make([]float64, 0, 2*ovalSegments)
	for i := 0; i < ovalSegments; i++ {
		t := 2 * math.Pi * float64(i) / ovalSegments
		coords = append(coords, cx+rx*math.Cos(t), cy+ry*math.Sin(t))
	}
	p.draw(p.path(true, coords...), s)
}

// rect draws the axis-aligned rectangle (x0, y0)-(x1, y1).
func (p painter) rect(x0, y0, x1, y1 float64, s style) {
	p.draw(p.path(true, x0, y0, x1, y0, x1, y1, x0, y1), s)
}

func (p painter) polygon(s style, coords ...float64) {
	p.draw(p.path(true, coords...), s)
}

func (p painter) line(clr color.Color, width float64, coords ...float64) {
	p.draw(p.path(false, coords...), style{outline: clr, width: width})
}
