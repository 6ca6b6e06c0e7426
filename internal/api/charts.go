package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/drawin/internal/httputil"
	"github.com/banshee-data/drawin/internal/monitoring"
	"github.com/banshee-data/drawin/internal/sketch"
)

// categoryChart renders the stored sketches per category as a bar chart.
// ?format=json returns the counts instead.
func (s *Server) categoryChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	counts, err := s.db.CategoryCounts()
	if err != nil {
		monitoring.Opsf("Error counting categories: %v", err)
		httputil.InternalServerError(w, "failed to count categories")
		return
	}
	if r.URL.Query().Get("format") == "json" {
		httputil.WriteJSONOK(w, counts)
		return
	}

	var byCategory [sketch.NumCategories]int
	total := 0
	for _, c := range counts {
		byCategory[c.Category] = c.Count
		total += c.Count
	}

	// Every category gets a bar, unclassified last.
	order := append(sketch.Categories(), sketch.Unclassified)
	x := make([]string, len(order))
	y := make([]opts.BarData, len(order))
	for i, c := range order {
		x[i] = c.String()
		y[i] = opts.BarData{Name: c.String(), Value: byCategory[c]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "600px", PageTitle: "drawin"}),
		charts.WithTitleOpts(opts.Title{Title: "Sketches by category", Subtitle: fmt.Sprintf("%d sketches", total)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("sketches", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.PageTitle = "drawin"
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
