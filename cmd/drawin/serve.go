package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/drawin/internal/api"
	"github.com/banshee-data/drawin/internal/capture"
	"github.com/banshee-data/drawin/internal/config"
	"github.com/banshee-data/drawin/internal/db"
	"github.com/banshee-data/drawin/internal/monitoring"
	"github.com/banshee-data/drawin/internal/render"
	"github.com/banshee-data/drawin/internal/serialmux"
	"github.com/banshee-data/drawin/internal/sketch"
	"github.com/banshee-data/drawin/internal/timeutil"
	"github.com/banshee-data/drawin/internal/version"
)

// serveOptions are the serve settings after flags are applied over config.
type serveOptions struct {
	Listen       string
	DBPath       string
	ExportDir    string
	ListLimit    int
	RequestLog   bool
	TraceLog     bool
	SerialPort   string
	Port         serialmux.PortOptions
	MockSerial   bool
	MockInterval time.Duration
}

func parseServeFlags(args []string, cfg *config.Config, stderr io.Writer) (serveOptions, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	listen := fs.String("listen", cfg.GetListen(), "Listen address")
	dbPath := fs.String("db", cfg.GetDBPath(), "Path to the sketch database")
	exportDir := fs.String("export-dir", cfg.GetExportDir(), "Directory for saved pictures")
	port := fs.String("port", cfg.GetSerialPort(), "Serial port of the pen digitiser (empty to disable)")
	baud := fs.Int("baud", cfg.GetSerialBaudRate(), "Serial baud rate")
	devMode := fs.Bool("dev", cfg.GetMockSerial(), "Replay a demo drawing instead of reading a digitiser")
	trace := fs.Bool("trace", cfg.GetTraceLog(), "Log every pen sample")
	if err := fs.Parse(args); err != nil {
		return serveOptions{}, errUsage
	}
	if fs.NArg() > 0 {
		return serveOptions{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if *listen == "" {
		return serveOptions{}, errors.New("listen address is required")
	}

	portOpts, err := serialmux.PortOptions{
		BaudRate: *baud,
		DataBits: cfg.GetSerialDataBits(),
		StopBits: cfg.GetSerialStopBits(),
		Parity:   cfg.GetSerialParity(),
	}.Normalise()
	if err != nil {
		return serveOptions{}, fmt.Errorf("serial options: %w", err)
	}

	return serveOptions{
		Listen:       *listen,
		DBPath:       *dbPath,
		ExportDir:    *exportDir,
		ListLimit:    cfg.GetSketchListLimit(),
		RequestLog:   cfg.GetRequestLog(),
		TraceLog:     *trace,
		SerialPort:   *port,
		Port:         portOpts,
		MockSerial:   *devMode,
		MockInterval: cfg.GetMockInterval(),
	}, nil
}

// newSerialMux picks the digitiser source: the demo replay in dev mode, the
// configured port, or nothing.
func newSerialMux(opts serveOptions) (serialmux.SerialMuxInterface, error) {
	switch {
	case opts.MockSerial:
		monitoring.Opsf("dev mode: replaying demo drawing every %s", opts.MockInterval)
		return serialmux.NewMockSerialMux(serialmux.DemoScript(), opts.MockInterval, timeutil.RealClock{}), nil
	case opts.SerialPort != "":
		m, err := serialmux.NewRealSerialMux(opts.SerialPort, opts.Port)
		if err != nil {
			return nil, fmt.Errorf("failed to open digitiser: %w", err)
		}
		monitoring.Opsf("digitiser on %s (%s)", opts.SerialPort, opts.Port)
		return m, nil
	default:
		monitoring.Opsf("no digitiser configured")
		return serialmux.NewDisabledSerialMux(), nil
	}
}

func runServe(args []string, cfg *config.Config, stderr io.Writer) error {
	opts, err := parseServeFlags(args, cfg, stderr)
	if err != nil {
		return err
	}

	writers := monitoring.DefaultLogWriters()
	if opts.TraceLog {
		writers.Trace = os.Stderr
	}
	monitoring.SetLogWriters(writers)
	monitoring.Opsf("starting %s", version.String())

	database, err := db.NewDB(opts.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	digitiser, err := newSerialMux(opts)
	if err != nil {
		return err
	}
	defer digitiser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	classifier := sketch.NewShapeClassifier()
	registry := capture.NewRegistry(classifier, timeutil.RealClock{})
	status := &serialmux.DeviceStatus{}

	server := api.NewServer(database, registry, classifier, render.NewExporter(opts.ExportDir))
	server.ListLimit = opts.ListLimit
	server.AttachDevice(digitiser, status)
	metrics := monitoring.NewMetrics()
	server.SetMetrics(metrics)

	mux := server.ServeMux()
	mux.Handle("/metrics", metrics.Handler())
	digitiser.AttachAdminRoutes(mux)
	if err := database.AttachAdminRoutes(mux); err != nil {
		return fmt.Errorf("failed to attach db admin routes: %w", err)
	}

	var wg sync.WaitGroup

	// run the monitor routine to manage IO on the serial port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := digitiser.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			monitoring.Opsf("failed to monitor serial port: %v", err)
		}
		monitoring.Opsf("monitor routine terminated")
	}()

	// pen strokes from the digitiser are drawn on their own session
	penSession := registry.Create()
	monitoring.Opsf("digitiser session %s", penSession.ID())
	wg.Add(1)
	go func() {
		defer wg.Done()
		pipeline := capture.NewPipeline(penSession, database)
		if err := pipeline.Run(ctx, serialmux.PenLines(ctx, digitiser, status)); err != nil && !errors.Is(err, context.Canceled) {
			monitoring.Opsf("pen pipeline stopped: %v", err)
		}
		monitoring.Opsf("pen pipeline terminated")
	}()

	handler := metrics.Middleware(mux)
	if opts.RequestLog {
		handler = api.LoggingMiddleware(handler)
	}
	httpServer := &http.Server{
		Addr:              opts.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		monitoring.Opsf("listening on %s", opts.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	monitoring.Opsf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		monitoring.Opsf("HTTP server shutdown error: %v", err)
		if err := httpServer.Close(); err != nil {
			monitoring.Opsf("HTTP server force close error: %v", err)
		}
	}

	wg.Wait()
	monitoring.Opsf("Graceful shutdown complete")

	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	default:
		return nil
	}
}
