package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/drawin/internal/config"
	"github.com/banshee-data/drawin/internal/render"
	"github.com/banshee-data/drawin/internal/security"
	"github.com/banshee-data/drawin/internal/sketch"
)

func runRender(args []string, cfg *config.Config, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	category := fs.String("category", "", "Category to draw, English or Spanish (required)")
	format := fs.String("format", "png", "Output format: png or svg")
	output := fs.String("o", "", "Output file, - for stdout (default: a timestamped PNG in -export-dir)")
	exportDir := fs.String("export-dir", cfg.GetExportDir(), "Directory for timestamped exports")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *category == "" {
		return errors.New("-category is required")
	}

	cat, err := sketch.ParseCategory(*category)
	if err != nil {
		return err
	}
	f, err := render.ParseFormat(*format)
	if err != nil {
		return err
	}

	switch *output {
	case "":
		if f != render.FormatPNG {
			return errors.New("exports are PNG only, use -o for SVG")
		}
		path, err := render.NewExporter(*exportDir).Save(cat)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, path)
		return nil
	case "-":
		return render.Write(stdout, cat, f)
	}

	if err := security.ValidateOutputPath(*output, *exportDir); err != nil {
		return err
	}
	file, err := os.Create(*output)
	if err != nil {
		return err
	}
	if err := render.Write(file, cat, f); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	fmt.Fprintln(stdout, *output)
	return nil
}
