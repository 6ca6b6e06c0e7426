package serialmux

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/drawin/internal/capture"
	"github.com/banshee-data/drawin/internal/sketch"
	"github.com/banshee-data/drawin/internal/timeutil"
)

func TestMockSerialMux_ReplaysScriptOnTicks(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC))
	mux := NewMockSerialMux([]string{"D,1,1", "U"}, 20*time.Millisecond, clock)
	_, ch := mux.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mux.Monitor(ctx)

	for _, want := range []string{"D,1,1", "U", "D,1,1"} {
		clock.Advance(20 * time.Millisecond)
		assert.Equal(t, want, recv(t, ch))
	}

	require.NoError(t, mux.Close())
}

func TestMockSerialMux_RecordsCommands(t *testing.T) {
	mux := NewMockSerialMux(nil, time.Second, timeutil.NewMockClock(time.Time{}))
	defer mux.Close()

	require.NoError(t, mux.Initialise("R", "S50"))
	assert.Equal(t, []string{"R", "S50"}, mux.port.Commands())
}

func TestMockSerialMux_CloseEndsMonitor(t *testing.T) {
	mux := NewMockSerialMux(DemoScript(), time.Hour, timeutil.NewMockClock(time.Time{}))

	done := make(chan error, 1)
	go func() { done <- mux.Monitor(context.Background()) }()

	require.NoError(t, mux.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Monitor did not return after Close")
	}
}

func TestDemoScript_Classifies(t *testing.T) {
	sc := sketch.NewShapeClassifier()
	session := capture.NewSession("demo", sc, nil)
	pipeline := capture.NewPipeline(session, nil)

	var got []sketch.Category
	pipeline.OnResult = func(_ string, r sketch.ClassificationResult) {
		got = append(got, r.Category)
	}
	for _, line := range DemoScript() {
		if ClassifyPayload(line) == PayloadPen {
			require.NoError(t, pipeline.HandleLine(line))
		}
	}

	assert.Equal(t, []sketch.Category{sketch.Sun, sketch.Star, sketch.Unclassified}, got)
}
