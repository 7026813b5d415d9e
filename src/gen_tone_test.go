package rtty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// testOscillator builds an oscillator over a fresh fakeSink at full
// volume.  periodFrames of 1 makes every generated sample visible at
// the sink individually.
func testOscillator(rate int, tabSize int, periodFrames int) (*Oscillator, *fakeSink, *SampleStream) {
	var sink = &fakeSink{period: periodFrames, buffer: rate / 2}
	var stream = NewSampleStream(sink, FormatS16LE)
	var osc = NewOscillator(NewToneTable(tabSize, 100), rate, stream)
	return osc, sink, stream
}

// TestToneTableEndpoints verifies the cosine shape: full positive at
// phase zero, full negative at the half table.
func TestToneTableEndpoints(t *testing.T) {
	var table = NewToneTable(8, 100)

	require.Len(t, table, 8)
	assert.Equal(t, int16(32767), table[0])
	assert.Equal(t, int16(-32767), table[4])
	assert.Equal(t, int16(0), table[2])
}

// TestToneTableVolume verifies linear volume scaling and that zero
// volume yields silence.
func TestToneTableVolume(t *testing.T) {
	var half = NewToneTable(8, 50)
	assert.InDelta(t, 16383, int(half[0]), 1)

	var mute = NewToneTable(8, 0)
	for _, v := range mute {
		assert.Equal(t, int16(0), v)
	}
}

// TestToneDuration verifies the sample count floors: duration times
// rate over 1000, discarding the fraction.
func TestToneDuration(t *testing.T) {
	var osc, sink, stream = testOscillator(1000, 16, 10)

	require.NoError(t, osc.Tone(500, 22))
	assert.Equal(t, 22, frameCount(stream, sink, FormatS16LE))

	// 7 ms at 999 samples/sec is 6.993 samples; the fraction is dropped.
	osc, sink, stream = testOscillator(999, 16, 10)
	require.NoError(t, osc.Tone(100, 7))
	assert.Equal(t, 6, frameCount(stream, sink, FormatS16LE))
}

// TestToneZeroDuration verifies that zero and negative durations
// produce nothing and leave the phase untouched.
func TestToneZeroDuration(t *testing.T) {
	var osc, sink, stream = testOscillator(1000, 16, 10)

	var before = osc.Phase()
	require.NoError(t, osc.Tone(500, 0))
	require.NoError(t, osc.Tone(500, -5))

	assert.Equal(t, before, osc.Phase())
	assert.Equal(t, 0, frameCount(stream, sink, FormatS16LE))
}

// TestPhaseContinuityAcrossFrequencyChange verifies the invariant the
// whole oscillator design exists for: switching tones must not jump the
// phase.  The first sample after a switch continues from exactly where
// the previous tone left the table index.
func TestPhaseContinuityAcrossFrequencyChange(t *testing.T) {
	var osc, sink, _ = testOscillator(1000, 64, 1)

	require.NoError(t, osc.Tone(210, 37))
	var afterFirst = osc.Phase()
	var n1 = len(samplesOf(sink))

	require.NoError(t, osc.Tone(380, 23))
	var afterSecond = osc.Phase()

	require.NoError(t, osc.Tone(210, 11))

	var samples = samplesOf(sink)
	assert.Equal(t, osc.table[afterFirst.Index], samples[n1],
		"first sample of the new tone must continue from the stored index")

	var n2 = n1 + 23
	assert.Equal(t, osc.table[afterSecond.Index], samples[n2],
		"switching back must also continue from the stored index")
}

// TestPhaseExactness runs a long tone and checks the final table index
// against the ideal real-valued phase.  The integer carry keeps the
// accumulated error below a couple of table entries no matter the
// length.
func TestPhaseExactness(t *testing.T) {
	const (
		rate = 8000
		tab  = 128
		freq = 950
		n    = 30000 // samples, 3.75 seconds
	)

	var osc, _, _ = testOscillator(rate, tab, 100)

	// 30000 samples at 8000/sec is 3750 ms exactly.
	require.NoError(t, osc.Tone(freq, n*1000/rate))

	var ideal = freq * tab * n / rate % tab
	var got = osc.Phase().Index

	var delta = got - ideal
	if delta < 0 {
		delta = -delta
	}
	if delta > tab/2 {
		delta = tab - delta
	}

	assert.LessOrEqual(t, delta, 2, "accumulated phase error after %d samples", n)
}

// Test_Oscillator_PhaseBounds generates random tones and checks that
// the accumulator invariants hold: index inside the table, carry inside
// [0, rate).
func Test_Oscillator_PhaseBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var rate = rapid.IntRange(5000, 48000).Draw(t, "rate")
		var tab = rapid.SampledFrom([]int{2, 16, 128, 8192}).Draw(t, "tab")

		var osc, _, _ = testOscillator(rate, tab, 100)

		for range rapid.IntRange(1, 4).Draw(t, "tones") {
			var freq = rapid.IntRange(500, 3000).Draw(t, "freq")
			var ms = rapid.IntRange(1, 50).Draw(t, "ms")

			require.NoError(t, osc.Tone(freq, ms))

			var p = osc.Phase()
			assert.GreaterOrEqual(t, p.Index, 0)
			assert.Less(t, p.Index, tab)
			assert.GreaterOrEqual(t, p.Carry, 0)
			assert.Less(t, p.Carry, rate)
		}
	})
}
