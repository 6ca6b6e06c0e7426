package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/banshee-data/drawin/internal/config"
	"github.com/banshee-data/drawin/internal/httputil"
	"github.com/banshee-data/drawin/internal/sketch"
)

// classifyClient posts strokes in -server mode. Tests swap it for a mock.
var classifyClient httputil.HTTPClient = &http.Client{Timeout: 10 * time.Second}

// parseStroke accepts either a bare JSON array of points or an object with
// a "points" array.
func parseStroke(data []byte) (sketch.Stroke, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("no stroke given")
	}
	if data[0] == '[' {
		var stroke sketch.Stroke
		if err := json.Unmarshal(data, &stroke); err != nil {
			return nil, fmt.Errorf("invalid stroke: %w", err)
		}
		return stroke, nil
	}
	var req struct {
		Points sketch.Stroke `json:"points"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid stroke: %w", err)
	}
	return req.Points, nil
}

// classifyOutput is what the classify command prints with -json.
type classifyOutput struct {
	Status     string          `json:"status"`
	Category   sketch.Category `json:"category"`
	Spanish    string          `json:"label_es,omitempty"`
	Rule       string          `json:"rule,omitempty"`
	Model      string          `json:"model"`
	PointCount int             `json:"point_count"`
	SketchID   string          `json:"sketch_id,omitempty"`
}

func (o classifyOutput) String() string {
	switch o.Status {
	case "insufficient_data":
		return fmt.Sprintf("insufficient data: %d points, need at least %d", o.PointCount, sketch.MinStrokePoints)
	case "unclassified":
		return fmt.Sprintf("unclassified (%d points, %s)", o.PointCount, o.Model)
	}
	return fmt.Sprintf("%s (%s) rule=%s points=%d model=%s", o.Category, o.Spanish, o.Rule, o.PointCount, o.Model)
}

func classifyLocal(stroke sketch.Stroke) (classifyOutput, error) {
	sc := sketch.NewShapeClassifier()
	result, err := sc.ClassifyStroke(stroke)
	out := classifyOutput{
		Status:     "classified",
		Category:   result.Category,
		Spanish:    result.Category.Spanish(),
		Rule:       result.Rule,
		Model:      result.Model,
		PointCount: result.PointCount,
	}
	switch {
	case errors.Is(err, sketch.ErrInsufficientData):
		out.Status = "insufficient_data"
	case err != nil:
		return classifyOutput{}, err
	case result.Category == sketch.Unclassified:
		out.Status = "unclassified"
	}
	return out, nil
}

func classifyRemote(ctx context.Context, server string, stroke sketch.Stroke, record bool) (classifyOutput, error) {
	url := strings.TrimRight(server, "/") + "/api/classify"
	in := map[string]any{"points": stroke, "record": record}
	var out classifyOutput
	if err := httputil.PostJSON(ctx, classifyClient, url, in, &out); err != nil {
		return classifyOutput{}, err
	}
	return out, nil
}

func runClassify(args []string, _ *config.Config, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", "", "Classify on a running drawin server, e.g. http://localhost:8080")
	record := fs.Bool("record", false, "Store the sketch on the server (requires -server)")
	asJSON := fs.Bool("json", false, "Print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *record && *server == "" {
		return errors.New("-record requires -server")
	}

	in := stdin
	if fs.NArg() > 0 && fs.Arg(0) != "-" {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	data, err := io.ReadAll(io.LimitReader(in, httputil.MaxBodyBytes))
	if err != nil {
		return fmt.Errorf("read stroke: %w", err)
	}
	stroke, err := parseStroke(data)
	if err != nil {
		return err
	}

	var out classifyOutput
	if *server != "" {
		out, err = classifyRemote(context.Background(), *server, stroke, *record)
	} else {
		out, err = classifyLocal(stroke)
	}
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	fmt.Fprintln(stdout, out)
	return nil
}
