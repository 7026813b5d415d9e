package rtty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLine is a test double for outputLine that records calls without
// requiring GPIO hardware or the gpio-sim kernel module.
type mockLine struct {
	value  int
	closed bool
}

func (m *mockLine) SetValue(v int) error {
	m.value = v
	return nil
}

func (m *mockLine) Close() error {
	m.closed = true
	return nil
}

// TestOpenPTTEmpty verifies that no spec means no keying, not an error.
func TestOpenPTTEmpty(t *testing.T) {
	var p, err = OpenPTT("")
	require.NoError(t, err)

	assert.NoError(t, p.On())
	assert.NoError(t, p.Off())
	assert.NoError(t, p.Close())
}

// TestOpenPTTBadSpecs walks the malformed spec variants.
func TestOpenPTTBadSpecs(t *testing.T) {
	var specs = []string{
		"GPIO:",            // no line number
		"GPIO:seventeen",   // not a number
		"GPIO:chip1:x",     // named chip, bad number
		"/dev/ttyUSB0",     // no signal
		"/dev/ttyUSB0:CTS", // not an output signal
	}

	for _, spec := range specs {
		var _, err = OpenPTT(spec)
		assert.Error(t, err, "spec %q", spec)
	}
}

// TestGPIOPTTLevels verifies that keying drives the line high and
// unkeying drives it low.
func TestGPIOPTTLevels(t *testing.T) {
	var mock = new(mockLine)
	var p = &gpioPTT{line: mock}

	require.NoError(t, p.On())
	assert.Equal(t, 1, mock.value, "line should be high when PTT is active")

	require.NoError(t, p.Off())
	assert.Equal(t, 0, mock.value, "line should be low when PTT is inactive")
}

// TestGPIOPTTClose verifies that closing unkeys first, so an exiting
// program never leaves the transmitter keyed.
func TestGPIOPTTClose(t *testing.T) {
	var mock = new(mockLine)
	var p = &gpioPTT{line: mock}

	require.NoError(t, p.On())
	require.NoError(t, p.Close())

	assert.Equal(t, 0, mock.value, "close must drop the line")
	assert.True(t, mock.closed)
}
