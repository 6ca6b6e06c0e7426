package serialmux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestPortOptions_Normalise(t *testing.T) {
	tests := []struct {
		name string
		in   PortOptions
		want PortOptions
	}{
		{"defaults", PortOptions{}, PortOptions{BaudRate: 19200, DataBits: 8, StopBits: 1, Parity: "N"}},
		{"negative baud", PortOptions{BaudRate: -5}, PortOptions{BaudRate: 19200, DataBits: 8, StopBits: 1, Parity: "N"}},
		{"explicit", PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "E"}, PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "E"}},
		{"parity word", PortOptions{Parity: " odd "}, PortOptions{BaudRate: 19200, DataBits: 8, StopBits: 1, Parity: "O"}},
		{"parity none", PortOptions{Parity: "none"}, PortOptions{BaudRate: 19200, DataBits: 8, StopBits: 1, Parity: "N"}},
		{"five data bits", PortOptions{DataBits: 5}, PortOptions{BaudRate: 19200, DataBits: 5, StopBits: 1, Parity: "N"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalise()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPortOptions_Normalise_Invalid(t *testing.T) {
	for _, in := range []PortOptions{
		{DataBits: 4},
		{DataBits: 9},
		{StopBits: 3},
		{Parity: "mark"},
	} {
		_, err := in.Normalise()
		assert.Error(t, err, "%+v", in)
	}
}

func TestPortOptions_Equal(t *testing.T) {
	assert.True(t, PortOptions{}.Equal(PortOptions{BaudRate: 19200, DataBits: 8, StopBits: 1, Parity: "none"}))
	assert.False(t, PortOptions{BaudRate: 9600}.Equal(PortOptions{}))
	assert.False(t, PortOptions{Parity: "E"}.Equal(PortOptions{Parity: "O"}))
	assert.False(t, PortOptions{DataBits: 9}.Equal(PortOptions{DataBits: 9}))
}

func TestPortOptions_String(t *testing.T) {
	opts, err := PortOptions{}.Normalise()
	require.NoError(t, err)
	assert.Equal(t, "19200 8N1", opts.String())
}

func TestPortOptions_SerialMode(t *testing.T) {
	tests := []struct {
		in   PortOptions
		want serial.Mode
	}{
		{PortOptions{}, serial.Mode{BaudRate: 19200, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}},
		{PortOptions{Parity: "E"}, serial.Mode{BaudRate: 19200, DataBits: 8, Parity: serial.EvenParity, StopBits: serial.OneStopBit}},
		{PortOptions{Parity: "O", StopBits: 2}, serial.Mode{BaudRate: 19200, DataBits: 8, Parity: serial.OddParity, StopBits: serial.TwoStopBits}},
	}
	for _, tt := range tests {
		mode, err := tt.in.SerialMode()
		require.NoError(t, err)
		assert.Equal(t, tt.want, *mode)
	}

	_, err := PortOptions{StopBits: 3}.SerialMode()
	assert.Error(t, err)
}
