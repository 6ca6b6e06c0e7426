package serialmux

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/banshee-data/drawin/internal/capture"
	"github.com/banshee-data/drawin/internal/monitoring"
	"github.com/banshee-data/drawin/internal/sketch"
	"github.com/banshee-data/drawin/internal/timeutil"
)

// MockSerialPort is a digitiser stand-in that replays a script of lines.
// Commands written to it are recorded.
type MockSerialPort struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu       sync.Mutex
	commands []string

	done      chan struct{}
	closeOnce sync.Once
}

func (m *MockSerialPort) Read(p []byte) (int, error) { return m.r.Read(p) }

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := strings.TrimRight(string(p), "\r\n")
	m.commands = append(m.commands, cmd)
	monitoring.Diagf("mock digitiser received %q", cmd)
	return len(p), nil
}

func (m *MockSerialPort) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.w.Close()
	})
	return nil
}

// Commands returns the commands written so far.
func (m *MockSerialPort) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

// NewMockSerialMux creates a SerialMux whose port emits one script line per
// tick of clock, looping over the script until the mux is closed.
func NewMockSerialMux(script []string, interval time.Duration, clock timeutil.Clock) *SerialMux[*MockSerialPort] {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	r, w := io.Pipe()
	port := &MockSerialPort{r: r, w: w, done: make(chan struct{})}

	// Created before the goroutine starts so that mock clocks see it.
	ticker := clock.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		if len(script) == 0 {
			<-port.done
			return
		}
		for i := 0; ; i = (i + 1) % len(script) {
			select {
			case <-port.done:
				return
			case <-ticker.C():
			}
			if _, err := io.WriteString(w, script[i]+"\n"); err != nil {
				return
			}
		}
	}()

	return NewSerialMux(port)
}

// DemoScript draws a sun, a star and a scribble the cascade cannot name,
// as digitiser lines.
func DemoScript() []string {
	var lines []string
	stroke := func(s sketch.Stroke) {
		for i, p := range s {
			action := capture.PenMove
			if i == 0 {
				action = capture.PenDown
			}
			lines = append(lines, capture.PenEvent{Action: action, Point: p, HasPos: true}.String())
		}
		lines = append(lines, capture.PenEvent{Action: capture.PenUp}.String())
	}

	lines = append(lines, "# demo digitiser ready")

	var sun sketch.Stroke
	for k := 0; k < 36; k++ {
		a := float64(k) * 10 * math.Pi / 180
		sun = append(sun, sketch.Point{X: round1(250 + 100*math.Cos(a)), Y: round1(250 + 100*math.Sin(a))})
	}
	stroke(sun)

	stroke(sketch.Stroke{
		{X: 100, Y: 300}, {X: 130, Y: 100}, {X: 160, Y: 300}, {X: 190, Y: 100},
		{X: 220, Y: 300}, {X: 250, Y: 100}, {X: 280, Y: 300}, {X: 310, Y: 100},
		{X: 340, Y: 300}, {X: 370, Y: 100}, {X: 400, Y: 300},
	})

	stroke(sketch.Stroke{{X: 100, Y: 200}, {X: 200, Y: 200}, {X: 300, Y: 200}})

	lines = append(lines, `{"battery": 0.87}`)
	return lines
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// TestableSerialPort implements SerialPorter with configurable behaviour for testing.
type TestableSerialPort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port
	WriteBuffer *bytes.Buffer

	// ReadError is returned by the next Read call if set
	ReadError error

	// WriteError is returned by the next Write call if set
	WriteError error

	// CloseError is returned by Close if set
	CloseError error

	// Closed indicates whether Close was called
	Closed bool

	// BlockReads makes Read wait for data or Close instead of returning EOF
	BlockReads bool

	readCond *sync.Cond
}

// NewTestableSerialPort creates a new TestableSerialPort for testing.
func NewTestableSerialPort() *TestableSerialPort {
	tsp := &TestableSerialPort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
	tsp.readCond = sync.NewCond(&tsp.mu)
	return tsp
}

var errPortClosed = errors.New("serial port closed")

func (t *TestableSerialPort) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}
	for t.BlockReads && !t.Closed && t.ReadBuffer.Len() == 0 {
		t.readCond.Wait()
	}
	if t.Closed {
		return 0, errPortClosed
	}
	return t.ReadBuffer.Read(p)
}

func (t *TestableSerialPort) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Closed {
		return 0, errPortClosed
	}
	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}
	return t.WriteBuffer.Write(p)
}

func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Closed = true
	t.readCond.Broadcast()
	return t.CloseError
}

// AddReadData adds data to be returned by subsequent Read calls.
func (t *TestableSerialPort) AddReadData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadBuffer.WriteString(data)
	t.readCond.Broadcast()
}

// Written returns all data written to the port.
func (t *TestableSerialPort) Written() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.WriteBuffer.String()
}
