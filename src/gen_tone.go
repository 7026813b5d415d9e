package rtty

/*------------------------------------------------------------------
 *
 * Purpose:	Generate tones by direct digital synthesis for the FSK
 *		transmit signal.
 *
 * Description:	A table of one cosine cycle is scanned with an integer
 *		step derived from the requested frequency.  The division
 *		remainder is carried between samples, Bresenham style, so
 *		the long run frequency error stays below one table entry
 *		no matter how long the tone runs.  Floating point phase
 *		accumulation would drift over a minutes long transmission
 *		and FSK demodulators at the far end notice.
 *
 *		The phase state survives frequency changes.  Switching
 *		between the mark and space tones must not produce a phase
 *		jump, or the signal sprays clicks across the band.
 *
 *---------------------------------------------------------------*/

import (
	"math"

	"github.com/charmbracelet/log"
)

const (
	MinToneTableSize     = 2
	MaxToneTableSize     = 65536
	DefaultToneTableSize = 8192

	toneAmplitude = 32767
)

// PhaseState is the DDS phase accumulator.  Index is the position in
// the tone table; Carry is the fractional step error in the range
// (-sampleRate, sampleRate).  It is owned by exactly one Oscillator
// and lives for the whole session.  It is never reset on a frequency
// change; that is the phase continuity invariant.
type PhaseState struct {
	Index int
	Carry int
}

// NewToneTable builds the cosine lookup table, scaled once by the
// volume percentage.  The table is immutable afterwards; changing the
// volume means building a new table.
func NewToneTable(size int, volume int) []int16 {
	var table = make([]int16, size)

	for i := range table {
		var v = int(float64(volume) / 100.0 * toneAmplitude * math.Cos(2*math.Pi*float64(i)/float64(size)))

		// 16 bit samples must fit in -32768 .. +32767.
		if v > 32767 {
			log.Warn("Excessive amplitude is being clipped", "value", v)
			v = 32767
		} else if v < -32768 {
			log.Warn("Excessive amplitude is being clipped", "value", v)
			v = -32768
		}

		table[i] = int16(v)
	}

	return table
}

// Oscillator produces PCM samples for tones of a given frequency and
// duration, pushing them into a SampleStream.
type Oscillator struct {
	table      []int16
	sampleRate int
	phase      PhaseState
	stream     *SampleStream
}

func NewOscillator(table []int16, sampleRate int, stream *SampleStream) *Oscillator {
	return &Oscillator{
		table:      table,
		sampleRate: sampleRate,
		// Seed the error accumulator at half the rate so the first
		// fractional step lands mid interval.
		phase:  PhaseState{Index: 0, Carry: sampleRate / 2},
		stream: stream,
	}
}

// Phase returns a copy of the current phase accumulator.
func (o *Oscillator) Phase() PhaseState {
	return o.phase
}

// Tone appends durationMs worth of samples at freqHz to the stream,
// flushing full periods through to the sink as they fill.  A zero or
// negative duration is a no-op.
func (o *Oscillator) Tone(freqHz int, durationMs int) error {
	if durationMs <= 0 {
		return nil
	}

	var (
		nsamples = durationMs * o.sampleRate / 1000
		tabsize  = len(o.table)
		step     = freqHz * tabsize / o.sampleRate
		rem      = freqHz*tabsize - step*o.sampleRate
	)

	for ; nsamples > 0; nsamples-- {
		if err := o.stream.WriteSample(o.table[o.phase.Index]); err != nil {
			return err
		}

		var advance = step

		o.phase.Carry -= rem
		if o.phase.Carry < 0 {
			o.phase.Carry += o.sampleRate
			advance++
		}

		o.phase.Index = (o.phase.Index + advance) % tabsize
	}

	return nil
}
