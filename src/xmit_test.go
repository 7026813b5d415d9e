package rtty

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig is sized for fast tests: at 1000 samples/sec and 60 WPM,
// one bit is 22 samples and one frame is 176.
func testConfig() *Config {
	var cfg = DefaultConfig()
	cfg.SampleRate = 1000
	cfg.TableSize = 64
	return cfg
}

const testFrameSamples = 8 * 22

// testTransmitter wires a transmitter over a fakeSink, with avail held
// at zero so the idle fill never triggers.
func testTransmitter(t *testing.T) (*Transmitter, *fakeSink, *bytes.Buffer) {
	t.Helper()

	var sink = &fakeSink{period: 10, buffer: 500}
	var echo = new(bytes.Buffer)
	return NewTransmitter(testConfig(), sink, echo), sink, echo
}

// recordingPTT records the keying sequence for inspection.
type recordingPTT struct {
	calls []string
}

func (p *recordingPTT) On() error {
	p.calls = append(p.calls, "on")
	return nil
}

func (p *recordingPTT) Off() error {
	p.calls = append(p.calls, "off")
	return nil
}

func (p *recordingPTT) Close() error {
	p.calls = append(p.calls, "close")
	return nil
}

// TestSendSymbolSampleCount verifies that one symbol is exactly eight
// bit times of audio.
func TestSendSymbolSampleCount(t *testing.T) {
	var tr, sink, _ = testTransmitter(t)

	require.NoError(t, tr.SendSymbol(Symbol(0)))

	assert.Equal(t, testFrameSamples, frameCount(tr.Stream(), sink, FormatS16LE))
}

// TestSessionLifecycle walks a full session and checks the state
// machine, the keying order and the total sample count.
func TestSessionLifecycle(t *testing.T) {
	var tr, sink, echo = testTransmitter(t)

	var ptt = new(recordingPTT)
	tr.SetPTT(ptt)

	require.NoError(t, tr.Start())
	assert.Equal(t, stateTransmitting, tr.state)
	assert.Equal(t, []string{"on"}, ptt.calls, "PTT must be keyed before any audio")

	// Preamble: 500 ms prime + 10 mark hold frames + 5 sync symbols.
	var preamble = 500 + 10*testFrameSamples + 5*testFrameSamples
	assert.Equal(t, preamble, frameCount(tr.Stream(), sink, FormatS16LE))
	assert.Empty(t, echo.String(), "the preamble is not echoed")

	require.NoError(t, tr.Stop())
	assert.Equal(t, stateClosed, tr.state)
	assert.Equal(t, []string{"on", "off"}, ptt.calls)

	// Postamble: 5 sync symbols + 10 mark hold frames, then a drain.
	var total = preamble + 5*testFrameSamples + 10*testFrameSamples
	assert.Equal(t, total, frameCount(tr.Stream(), sink, FormatS16LE))
	assert.Equal(t, 0, tr.Stream().Buffered(), "drain must leave no partial period behind")
}

// TestSessionStateErrors verifies that Start and Stop reject being
// called out of order.
func TestSessionStateErrors(t *testing.T) {
	var tr, _, _ = testTransmitter(t)

	assert.Error(t, tr.Stop(), "stopping an idle session")

	require.NoError(t, tr.Start())
	assert.Error(t, tr.Start(), "starting twice")

	require.NoError(t, tr.Stop())
	assert.Error(t, tr.Stop(), "stopping twice")
}

// TestSendByteEcho verifies the uppercase echo and that a newline is
// echoed as CR LF.
func TestSendByteEcho(t *testing.T) {
	var tr, _, echo = testTransmitter(t)

	require.NoError(t, tr.SendByte('h'))
	require.NoError(t, tr.SendByte('i'))
	require.NoError(t, tr.SendByte('\n'))

	assert.Equal(t, "HI\r\n", echo.String())
}

// TestSendByteSampleCounts verifies the audio length of characters with
// and without a shift change.
func TestSendByteSampleCounts(t *testing.T) {
	var tr, sink, _ = testTransmitter(t)

	// 'a' from the initial Letters state: one symbol.
	require.NoError(t, tr.SendByte('a'))
	assert.Equal(t, testFrameSamples, frameCount(tr.Stream(), sink, FormatS16LE))

	// '1' needs a FIGS first: two symbols.
	require.NoError(t, tr.SendByte('1'))
	assert.Equal(t, 3*testFrameSamples, frameCount(tr.Stream(), sink, FormatS16LE))
}

// TestColumnWrap verifies the forced CR LF CR at the column limit.
func TestColumnWrap(t *testing.T) {
	var tr, sink, echo = testTransmitter(t)

	for range ColumnMax {
		require.NoError(t, tr.SendByte('x'))
	}

	assert.Equal(t, strings.Repeat("X", ColumnMax)+"\r\n", echo.String())
	assert.Equal(t, 0, tr.column)

	// 76 characters plus the CR LF CR wrap sequence.
	var want = (ColumnMax + 3) * testFrameSamples
	assert.Equal(t, want, frameCount(tr.Stream(), sink, FormatS16LE))
}

// TestSendLineFiltering verifies that unprintable characters are
// dropped and whitespace survives.
func TestSendLineFiltering(t *testing.T) {
	var tr, _, echo = testTransmitter(t)

	require.NoError(t, tr.SendLine("ok\x01\x02 go\n"))

	assert.Equal(t, "OK GO\r\n", echo.String())
}

// TestMarkHold verifies that held mark is all mark: every sample equals
// the closed line level, which is the table value the phase lands on.
func TestMarkHold(t *testing.T) {
	var tr, sink, _ = testTransmitter(t)

	require.NoError(t, tr.MarkHold(3))

	assert.Equal(t, 3*testFrameSamples, frameCount(tr.Stream(), sink, FormatS16LE))
}

// TestSendFile verifies file input end to end.
func TestSendFile(t *testing.T) {
	var tr, _, echo = testTransmitter(t)

	var fname = t.TempDir() + "/msg.txt"
	require.NoError(t, writeTestFile(fname, "cq cq\nde n0call\n"))

	require.NoError(t, tr.SendFile(fname))

	assert.Equal(t, "CQ CQ\r\nDE N0CALL\r\n", echo.String())
}

// TestSendTestPattern verifies the built-in pattern: the fox line, the
// RY and SG lines, and the closing mark tone.
func TestSendTestPattern(t *testing.T) {
	var tr, sink, echo = testTransmitter(t)

	require.NoError(t, tr.SendTest())

	var out = echo.String()
	assert.Contains(t, out, "QUICK BROWN FOX")
	assert.Contains(t, out, "RYRY")
	assert.Contains(t, out, "SGSG")

	// The 2 second mark tail at 1000 samples/sec.
	assert.Greater(t, frameCount(tr.Stream(), sink, FormatS16LE), 2000)
}

// TestTransmitLogging verifies that echoed lines end up in the daily
// transmit log.
func TestTransmitLogging(t *testing.T) {
	var tr, _, _ = testTransmitter(t)

	var dir = t.TempDir()
	var tlog, err = NewTransmitLog(dir)
	require.NoError(t, err)
	defer tlog.Close()

	tr.SetTransmitLog(tlog)

	require.NoError(t, tr.SendLine("test line\n"))
	require.NoError(t, tlog.Close())

	var content = readLogDir(t, dir)
	assert.Contains(t, content, "TEST LINE")
}
