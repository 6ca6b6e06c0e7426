package render

import (
	"fmt"
	"image/color"
	"io"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/drawin/internal/sketch"
)

// PlotStroke builds a debug plot of a raw stroke with its bounding box and
// centroid. The y axis is inverted to match the drawing surface.
func PlotStroke(f sketch.FeatureSet, result sketch.ClassificationResult) (*plot.Plot, error) {
	if len(f.Points) == 0 {
		return nil, sketch.ErrInsufficientData
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%s) - %d points", result.Category, ruleLabel(result.Rule), len(f.Points))
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}

	strokePts := make(plotter.XYs, len(f.Points))
	for i, pt := range f.Points {
		strokePts[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	strokeLine, err := plotter.NewLine(strokePts)
	if err != nil {
		return nil, fmt.Errorf("stroke line: %w", err)
	}
	strokeLine.Width = vg.Points(2)
	strokeLine.Color = color.Black

	box := f.Box
	boxLine, err := plotter.NewLine(plotter.XYs{
		{X: box.MinX, Y: box.MinY}, {X: box.MaxX, Y: box.MinY},
		{X: box.MaxX, Y: box.MaxY}, {X: box.MinX, Y: box.MaxY},
		{X: box.MinX, Y: box.MinY},
	})
	if err != nil {
		return nil, fmt.Errorf("bounding box: %w", err)
	}
	boxLine.Width = vg.Points(1)
	boxLine.Color = colornames.Gray
	boxLine.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	centroid, err := plotter.NewScatter(plotter.XYs{{X: f.Centroid.X, Y: f.Centroid.Y}})
	if err != nil {
		return nil, fmt.Errorf("centroid: %w", err)
	}
	centroid.GlyphStyle.Color = colornames.Red
	centroid.GlyphStyle.Shape = draw.CrossGlyph{}
	centroid.GlyphStyle.Radius = vg.Points(5)

	p.Add(boxLine, strokeLine, centroid)
	p.Legend.Add("stroke", strokeLine)
	p.Legend.Add("bounding box", boxLine)
	p.Legend.Add(fmt.Sprintf("centroid (circularity %.1f)", f.Circularity), centroid)
	p.Legend.Top = true
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePlot encodes p as a PNG of 6x6 inches.
func WritePlot(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(6*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("plot writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}

func ruleLabel(rule string) string {
	if rule == "" {
		return "no rule"
	}
	return rule
}
