// Command drawin classifies freehand drawings and serves the classifier,
// the sketch history and the pen digitiser over HTTP.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/drawin/internal/config"
	"github.com/banshee-data/drawin/internal/db"
	"github.com/banshee-data/drawin/internal/serialmux"
	"github.com/banshee-data/drawin/internal/version"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "drawin: %v\n", err)
		}
		os.Exit(1)
	}
}

// run dispatches to a subcommand. With no command it serves.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("drawin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to a JSON config file (default "+config.DefaultConfigPath+" when present)")
	showVersion := fs.Bool("version", false, "Print version and exit")
	fs.Usage = func() { printUsage(stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	command := "serve"
	rest := fs.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	switch command {
	case "serve":
		return runServe(rest, cfg, stderr)
	case "classify":
		return runClassify(rest, cfg, stdin, stdout, stderr)
	case "render":
		return runRender(rest, cfg, stdout, stderr)
	case "migrate":
		return runMigrate(rest, cfg, stdout, stderr)
	case "ports":
		return runPorts(stdout)
	case "version":
		fmt.Fprintln(stdout, version.String())
		return nil
	case "help":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		printUsage(stderr)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `drawin - freehand drawing classifier

Usage: drawin [-config file] <command> [options]

Commands:
  serve      Run the HTTP API and pen digitiser pipeline (default)
  classify   Classify a stroke read from a JSON file or stdin
  render     Write the picture of a category as PNG or SVG
  migrate    Manage the sketch database schema (up, down, status, force)
  ports      List serial ports available for a digitiser
  version    Show version
  help       Show this help message

Run 'drawin <command> -h' for the options of a command.
`)
}

// loadConfig reads path, or the defaults file when path is empty and the
// file exists. Without either every setting takes its default.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err != nil {
			return config.DefaultConfig(), nil
		}
		path = config.DefaultConfigPath
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func runMigrate(args []string, cfg *config.Config, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", cfg.GetDBPath(), "Path to the sketch database")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return db.RunMigrateCommand(stdout, fs.Args(), *dbPath)
}

func runPorts(stdout io.Writer) error {
	ports, err := serialmux.AvailablePorts()
	if err != nil {
		return fmt.Errorf("list serial ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Fprintln(stdout, "No serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(stdout, p)
	}
	return nil
}
