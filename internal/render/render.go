// Package render draws the canned picture of each category and exports it.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/banshee-data/drawin/internal/sketch"
)

// Size is the side of the drawing surface in points. PNG output uses 72 dpi
// so one point is one pixel.
const Size = 500

// Format is an output image format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

var (
	// ErrNoRenderer is returned for categories without a picture, which is
	// only Unclassified.
	ErrNoRenderer = errors.New("no rendering for category")
	// ErrUnknownFormat is returned for unsupported output formats.
	ErrUnknownFormat = errors.New("unknown image format")
)

// ParseFormat accepts "png" or "svg"; an empty string means PNG.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPNG, nil
	case FormatPNG, FormatSVG:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

type drawFunc func(p painter)

var renderers = [sketch.NumCategories]drawFunc{
	sketch.Sun:       drawSun,
	sketch.Moon:      drawMoon,
	sketch.House:     drawHouse,
	sketch.Tree:      drawTree,
	sketch.Car:       drawCar,
	sketch.Person:    drawPerson,
	sketch.Cat:       drawCat,
	sketch.Dog:       drawDog,
	sketch.Flower:    drawFlower,
	sketch.Star:      drawStar,
	sketch.Heart:     drawHeart,
	sketch.Balloon:   drawBalloon,
	sketch.Fish:      drawFish,
	sketch.Butterfly: drawButterfly,
	sketch.Boat:      drawBoat,
}

// HasRenderer reports whether cat has a picture.
func HasRenderer(cat sketch.Category) bool {
	return cat.Valid() && renderers[cat] != nil
}

// Render clears c to white and draws the picture of cat on it. c must be at
// least Size points square.
func Render(c vg.Canvas, cat sketch.Category) error {
	if !HasRenderer(cat) {
		return fmt.Errorf("%w %s", ErrNoRenderer, cat)
	}
	p := painter{c: c}
	c.Push()
	defer c.Pop()
	p.rect(0, 0, Size, Size, style{fill: color.White})
	renderers[cat](p)
	return nil
}

// Write renders cat in the given format to w.
func Write(w io.Writer, cat sketch.Category, format Format) error {
	var canvas vg.CanvasWriterTo
	switch format {
	case FormatPNG:
		canvas = vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(Size, Size), vgimg.UseDPI(72))}
	case FormatSVG:
		canvas = vgsvg.New(Size, Size)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := Render(canvas, cat); err != nil {
		return err
	}
	if _, err := canvas.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}

var (
	paleGray  = color.RGBA{0xf0, 0xf0, 0xf0, 0xff}
	skinTone  = color.RGBA{0xff, 0xd6, 0x99, 0xff}
	houseWall = colornames.Gold
	dogBrown  = colornames.Saddlebrown
	tkBrown   = color.RGBA{0xa5, 0x2a, 0x2a, 0xff}
)

func drawSun(p painter) {
	p.oval(150, 150, 350, 350, style{colornames.Yellow, colornames.Orange, 2})
	for deg := 0; deg < 360; deg += 30 {
		rad := float64(deg) * math.Pi / 180
		p.line(colornames.Orange, 3,
			250+110*math.Cos(rad), 250+110*math.Sin(rad),
			250+140*math.Cos(rad), 250+140*math.Sin(rad))
	}
}

func drawMoon(p painter) {
	p.oval(175, 150, 325, 300, style{paleGray, colornames.Gray, 2})
	p.oval(200, 150, 300, 300, style{color.White, color.White, 1})
}

func drawHouse(p painter) {
	p.rect(175, 250, 325, 350, style{houseWall, tkBrown, 2})
	// roof
	p.polygon(style{colornames.Red, tkBrown, 2}, 160, 250, 340, 250, 250, 170)
	// door
	p.rect(230, 280, 270, 350, style{tkBrown, color.Black, 1})
	// windows
	p.rect(190, 270, 220, 300, style{colornames.Skyblue, color.Black, 1})
	p.rect(280, 270, 310, 300, style{colornames.Skyblue, color.Black, 1})
}

func drawTree(p painter) {
	p.rect(235, 300, 265, 350, style{tkBrown, color.Black, 1})
	p.oval(150, 200, 350, 300, style{colornames.Green, colornames.Darkgreen, 2})
}

func drawCar(p painter) {
	p.rect(150, 250, 350, 280, style{colornames.Red, color.Black, 2})
	p.rect(180, 230, 320, 250, style{colornames.Red, color.Black, 2})
	// wheels
	p.oval(160, 270, 190, 300, style{color.Black, color.Black, 1})
	p.oval(310, 270, 340, 300, style{color.Black, color.Black, 1})
}

func drawPerson(p painter) {
	p.oval(225, 150, 275, 200, style{skinTone, color.Black, 1})
	p.line(color.Black, 2, 250, 200, 250, 275)
	// arms
	p.line(color.Black, 2, 250, 225, 190, 240)
	p.line(color.Black, 2, 250, 225, 310, 240)
	// legs
	p.line(color.Black, 2, 250, 275, 220, 320)
	p.line(color.Black, 2, 250, 275, 280, 320)
}

func drawCat(p painter) {
	fur := style{colornames.Gray, color.Black, 1}
	p.oval(200, 180, 300, 280, fur)
	p.polygon(fur, 210, 180, 230, 140, 250, 180)
	p.polygon(fur, 250, 180, 270, 140, 290, 180)
	p.oval(225, 210, 235, 220, style{colornames.Green, color.Black, 1})
	p.oval(265, 210, 275, 220, style{colornames.Green, color.Black, 1})
	p.polygon(style{colornames.Pink, color.Black, 1}, 245, 230, 255, 230, 250, 240)
	p.line(color.Black, 1, 250, 240, 250, 250)
	p.line(color.Black, 1, 250, 250, 230, 260)
	p.line(color.Black, 1, 250, 250, 270, 260)
}

func drawDog(p painter) {
	fur := style{dogBrown, color.Black, 1}
	p.oval(200, 180, 300, 280, fur)
	p.oval(200, 180, 240, 220, fur)
	p.oval(260, 180, 300, 220, fur)
	black := style{color.Black, color.Black, 1}
	p.oval(225, 210, 235, 220, black)
	p.oval(265, 210, 275, 220, black)
	p.oval(245, 230, 255, 240, black)
	p.line(color.Black, 1, 250, 240, 250, 250)
	p.line(color.Black, 1, 250, 250, 230, 255)
	p.line(color.Black, 1, 250, 250, 270, 255)
}

func drawFlower(p painter) {
	p.line(colornames.Green, 3, 250, 250, 250, 350)
	leaf := style{colornames.Green, colornames.Darkgreen, 1}
	p.oval(200, 270, 230, 300, leaf)
	p.oval(270, 300, 300, 330, leaf)
	p.oval(200, 200, 300, 300, style{colornames.Yellow, colornames.Orange, 2})
	for deg := 0; deg < 360; deg += 45 {
		rad := float64(deg) * math.Pi / 180
		p.line(colornames.Pink, 3,
			250+50*math.Cos(rad), 250+50*math.Sin(rad),
			250+80*math.Cos(rad), 250+80*math.Sin(rad))
	}
}

func drawStar(p painter) {
	coords := make([]float64, 0, 20)
	for i := 0; i < 5; i++ {
		outer := float64(90+72*i) * math.Pi / 180
		inner := float64(126+72*i) * math.Pi / 180
		coords = append(coords,
			250+80*math.Cos(outer), 250+80*math.Sin(outer),
			250+30*math.Cos(inner), 250+30*math.Sin(inner))
	}
	p.polygon(style{colornames.Yellow, colornames.Gold, 2}, coords...)
}

// heartScale enlarges the unit parametric heart to roughly the size of the
// other pictures.
const heartScale = 8

func drawHeart(p painter) {
	coords := make([]float64, 0, 2*63)
	for i := 0; i < 628; i += 10 {
		t := float64(i) / 100
		s := math.Sin(t)
		coords = append(coords,
			250+heartScale*16*s*s*s,
			250-heartScale*(13*math.Cos(t)-5*math.Cos(2*t)-2*math.Cos(3*t)-math.Cos(4*t)))
	}
	p.polygon(style{colornames.Red, colornames.Darkred, 2}, coords...)
}

func drawBalloon(p painter) {
	p.oval(200, 150, 300, 250, style{colornames.Red, colornames.Darkred, 2})
	p.line(colornames.Gray, 1, 250, 250, 250, 300)
	p.rect(230, 300, 270, 310, style{tkBrown, color.Black, 1})
}

func drawFish(p painter) {
	body := style{colornames.Orange, color.Black, 1}
	p.oval(200, 200, 300, 250, body)
	p.polygon(body, 300, 225, 330, 200, 330, 250)
	p.oval(210, 215, 220, 225, style{color.Black, color.Black, 1})
	// fins
	p.polygon(body, 230, 225, 250, 210, 270, 225)
	p.polygon(body, 230, 225, 250, 240, 270, 225)
}

func drawButterfly(p painter) {
	p.line(color.Black, 3, 250, 200, 250, 300)
	upper := style{colornames.Purple, color.Black, 1}
	p.oval(150, 150, 250, 250, upper)
	p.oval(250, 150, 350, 250, upper)
	lower := style{colornames.Blue, color.Black, 1}
	p.oval(170, 220, 250, 300, lower)
	p.oval(250, 220, 330, 300, lower)
	// antennae
	p.line(color.Black, 1, 250, 200, 230, 170)
	p.line(color.Black, 1, 250, 200, 270, 170)
}

func drawBoat(p painter) {
	p.polygon(style{tkBrown, color.Black, 2}, 200, 300, 300, 300, 280, 270, 220, 270)
	// sail
	p.polygon(style{color.White, color.Black, 1}, 250, 270, 250, 200, 300, 270)
	p.line(tkBrown, 3, 250, 270, 250, 180)
	// flag
	p.rect(250, 180, 270, 190, style{colornames.Red, color.Black, 1})
}
