package capture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/drawin/internal/sketch"
)

// PenAction is the kind of a digitiser event.
type PenAction byte

const (
	PenDown PenAction = 'D'
	PenMove PenAction = 'M'
	PenUp   PenAction = 'U'
)

// PenEvent is one parsed digitiser line.
type PenEvent struct {
	Action PenAction
	Point  sketch.Point
	HasPos bool
}

// ParsePenEvent parses one line of the digitiser protocol:
//
//	D,x,y   pen down at (x, y)
//	M,x,y   pen moved to (x, y)
//	U       pen lifted
//	U,x,y   pen lifted at (x, y)
//
// Surrounding whitespace is ignored and the action letter is case-insensitive.
func ParsePenEvent(line string) (PenEvent, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) == 0 || len(fields[0]) != 1 {
		return PenEvent{}, fmt.Errorf("malformed pen event %q", line)
	}

	ev := PenEvent{Action: PenAction(strings.ToUpper(fields[0])[0])}
	switch ev.Action {
	case PenDown, PenMove:
		if len(fields) != 3 {
			return PenEvent{}, fmt.Errorf("pen event %q: want %c,x,y", line, ev.Action)
		}
	case PenUp:
		if len(fields) == 1 {
			return ev, nil
		}
		if len(fields) != 3 {
			return PenEvent{}, fmt.Errorf("pen event %q: want U or U,x,y", line)
		}
	default:
		return PenEvent{}, fmt.Errorf("unknown pen action %q", fields[0])
	}

	x, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return PenEvent{}, fmt.Errorf("pen event %q: bad x: %w", line, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return PenEvent{}, fmt.Errorf("pen event %q: bad y: %w", line, err)
	}
	ev.Point = sketch.Point{X: x, Y: y}
	if err := ev.Point.Validate(); err != nil {
		return PenEvent{}, fmt.Errorf("pen event %q: %w", line, err)
	}
	ev.HasPos = true
	return ev, nil
}

// String formats the event back into the line protocol.
func (e PenEvent) String() string {
	if !e.HasPos {
		return string(e.Action)
	}
	return fmt.Sprintf("%c,%s,%s", e.Action,
		strconv.FormatFloat(e.Point.X, 'f', -1, 64),
		strconv.FormatFloat(e.Point.Y, 'f', -1, 64))
}
