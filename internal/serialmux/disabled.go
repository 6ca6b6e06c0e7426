package serialmux

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"tailscale.com/tsweb"
)

// ErrNoDigitiser is returned by the disabled mux for anything that needs a
// pen digitiser.
var ErrNoDigitiser = errors.New("no digitiser configured")

// DisabledSerialMux stands in for the digitiser when drawin runs without one.
// Browser sessions still work; PenLines on it yields nothing and closes when
// its context ends or the mux is closed.
type DisabledSerialMux struct {
	mu     sync.Mutex
	subs   map[string]chan string
	closed bool
}

func NewDisabledSerialMux() *DisabledSerialMux {
	return &DisabledSerialMux{subs: make(map[string]chan string)}
}

// Attached reports whether m talks to a real or mock digitiser.
func Attached(m SerialMuxInterface) bool {
	if m == nil {
		return false
	}
	_, disabled := m.(*DisabledSerialMux)
	return !disabled
}

// Subscribe hands out a channel that never carries a line. After Close the
// channel comes back already closed.
func (d *DisabledSerialMux) Subscribe() (string, chan string) {
	id, ch := randomID(), make(chan string)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		close(ch)
	} else {
		d.subs[id] = ch
	}
	return id, ch
}

func (d *DisabledSerialMux) Unsubscribe(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ch, ok := d.subs[id]; ok {
		delete(d.subs, id)
		close(ch)
	}
}

func (d *DisabledSerialMux) SendCommand(string) error { return ErrNoDigitiser }

// Initialise succeeds only when there is nothing to send.
func (d *DisabledSerialMux) Initialise(commands ...string) error {
	if len(commands) > 0 {
		return ErrNoDigitiser
	}
	return nil
}

func (d *DisabledSerialMux) Monitor(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (d *DisabledSerialMux) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for id, ch := range d.subs {
		delete(d.subs, id)
		close(ch)
	}
	return nil
}

// AttachAdminRoutes mounts the same command endpoint as the real mux so the
// debug console reports the missing device instead of a 404.
func (d *DisabledSerialMux) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.HandleSilentFunc("send-command-api", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, ErrNoDigitiser.Error(), http.StatusServiceUnavailable)
	})
}
