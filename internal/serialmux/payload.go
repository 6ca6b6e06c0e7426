package serialmux

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/banshee-data/drawin/internal/capture"
	"github.com/banshee-data/drawin/internal/monitoring"
)

// PayloadKind is the coarse type of one digitiser line.
type PayloadKind string

const (
	PayloadPen     PayloadKind = "pen"
	PayloadStatus  PayloadKind = "status"
	PayloadUnknown PayloadKind = "unknown"
)

// ClassifyPayload separates pen events from device status output. Status
// lines are JSON objects or '#' comments; anything else that is not a valid
// pen event is unknown.
func ClassifyPayload(payload string) PayloadKind {
	line := strings.TrimSpace(payload)
	switch {
	case line == "":
		return PayloadUnknown
	case strings.HasPrefix(line, "{"), strings.HasPrefix(line, "#"):
		return PayloadStatus
	}
	if _, err := capture.ParsePenEvent(line); err == nil {
		return PayloadPen
	}
	return PayloadUnknown
}

// DeviceStatus accumulates the key/value status reports of the digitiser.
type DeviceStatus struct {
	mu     sync.Mutex
	values map[string]any
}

// Update merges a JSON status line. Comment lines are only logged.
func (d *DeviceStatus) Update(payload string) error {
	line := strings.TrimSpace(payload)
	if strings.HasPrefix(line, "#") {
		monitoring.Diagf("digitiser: %s", strings.TrimSpace(strings.TrimPrefix(line, "#")))
		return nil
	}

	var values map[string]any
	if err := json.Unmarshal([]byte(line), &values); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.values == nil {
		d.values = make(map[string]any)
	}
	for k, v := range values {
		d.values[k] = v
	}
	monitoring.Diagf("digitiser status: %s", line)
	return nil
}

// Snapshot returns a copy of the latest status values.
func (d *DeviceStatus) Snapshot() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]any, len(d.values))
	for k, v := range d.values {
		out[k] = v
	}
	return out
}

// PenLines subscribes to mux and returns a channel carrying its pen lines.
// The channel is closed when ctx is done or the mux drops the subscription.
// Status lines update status, which may be nil; unknown lines are traced and
// dropped.
func PenLines(ctx context.Context, mux SerialMuxInterface, status *DeviceStatus) <-chan string {
	id, lines := mux.Subscribe()
	out := make(chan string, subscriberBuffer)

	go func() {
		defer close(out)
		defer mux.Unsubscribe(id)

		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-lines:
				if !ok {
					return
				}
				switch ClassifyPayload(line) {
				case PayloadPen:
					select {
					case out <- line:
					case <-ctx.Done():
						return
					}
				case PayloadStatus:
					if status == nil {
						continue
					}
					if err := status.Update(line); err != nil {
						monitoring.Diagf("bad digitiser status %q: %v", line, err)
					}
				default:
					monitoring.Tracef("ignoring digitiser line %q", line)
				}
			}
		}
	}()
	return out
}
