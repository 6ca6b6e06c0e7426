// Package monitoring holds the process-wide diagnostic log streams.
//
// Three streams are kept apart so that operators can silence the chatty
// ones without losing lifecycle events:
//
//	ops   actionable warnings, errors, startup and shutdown
//	diag  day-to-day diagnostics such as which rule classified a stroke
//	trace high-frequency telemetry (individual pen samples)
//
// Streams are disabled until SetLogWriters is called with a non-nil writer.
package monitoring

import (
	"io"
	"log"
	"os"
	"sync"
)

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

var (
	mu          sync.RWMutex
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures all three logging streams at once.
// Pass nil for any writer to disable that stream.
func SetLogWriters(w LogWriters) {
	mu.Lock()
	defer mu.Unlock()
	opsLogger = newLogger(w.Ops)
	diagLogger = newLogger(w.Diag)
	traceLogger = newLogger(w.Trace)
}

// DefaultLogWriters sends ops and diag to stderr and leaves trace off.
func DefaultLogWriters() LogWriters {
	return LogWriters{Ops: os.Stderr, Diag: os.Stderr}
}

func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, "[drawin] ", log.LstdFlags|log.Lmicroseconds)
}

// Opsf logs to the ops stream.
func Opsf(format string, args ...interface{}) {
	emit(&opsLogger, format, args...)
}

// Diagf logs to the diag stream.
func Diagf(format string, args ...interface{}) {
	emit(&diagLogger, format, args...)
}

// Tracef logs to the trace stream.
func Tracef(format string, args ...interface{}) {
	emit(&traceLogger, format, args...)
}

func emit(target **log.Logger, format string, args ...interface{}) {
	mu.RLock()
	l := *target
	mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}
