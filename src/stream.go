package rtty

/*------------------------------------------------------------------
 *
 * Purpose:	Accumulate generated samples into device periods and
 *		keep the sink fed.
 *
 * Description:	The sink accepts writes in units of exactly one
 *		negotiated period.  Samples are quantized into a fixed
 *		period buffer which is reused for every write; when it
 *		fills, it is pushed to the sink.
 *
 *		An underrun is the one recoverable failure: the sink is
 *		reset and the same period is submitted again.  A second
 *		underrun on the same period means the device is not
 *		keeping up at all and the session ends.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

// SampleStream quantizes samples into one period's worth of frames and
// hands completed periods to the sink.
type SampleStream struct {
	sink   Sink
	format SampleFormat

	period []byte // exactly one period of frames, reused
	n      int    // bytes filled so far

	underruns int
}

func NewSampleStream(sink Sink, format SampleFormat) *SampleStream {
	return &SampleStream{
		sink:   sink,
		format: format,
		period: make([]byte, sink.PeriodFrames()*format.BytesPerFrame()),
	}
}

// WriteSample quantizes one sample into the period buffer, flushing to
// the sink when the period is full.
func (s *SampleStream) WriteSample(v int16) error {
	switch s.format {
	case FormatU8:
		s.period[s.n] = byte(128 + int(v)>>8)
		s.n++
	case FormatS16LE:
		s.period[s.n] = byte(v)
		s.period[s.n+1] = byte(v >> 8)
		s.n += 2
	}

	if s.n >= len(s.period) {
		return s.flush()
	}
	return nil
}

func (s *SampleStream) flush() error {
	s.n = 0

	var err = s.sink.WritePeriod(s.period)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUnderrun) {
		return err
	}

	s.underruns++
	log.Warn("Sink underrun, resetting", "count", s.underruns)

	if resetErr := s.sink.Reset(); resetErr != nil {
		return fmt.Errorf("recovering from underrun: %w", resetErr)
	}

	// Resubmit the same period once.  The buffer contents are intact;
	// only the fill index was cleared.
	if err = s.sink.WritePeriod(s.period); err != nil {
		return fmt.Errorf("resubmit after underrun: %w", err)
	}
	return nil
}

// Buffered reports how many frames are waiting in the partial period.
func (s *SampleStream) Buffered() int {
	return s.n / s.format.BytesPerFrame()
}

// Underruns reports how many sink underruns were recovered.
func (s *SampleStream) Underruns() int {
	return s.underruns
}

// NeedsFill reports whether more than half of the sink's buffer has
// drained.  Past that watermark the feeder should inject idle tone
// before waiting on input again, so the device is never starved for
// longer than one period.
func (s *SampleStream) NeedsFill() (bool, error) {
	var avail, err = s.sink.Avail()
	if err != nil {
		return false, err
	}
	return avail > s.sink.BufferFrames()/2, nil
}

// Drain pads any partial period with silence and flushes it, so file
// sinks do not lose the tail of the last frame.
func (s *SampleStream) Drain() error {
	if s.n == 0 {
		return nil
	}

	for s.n < len(s.period) {
		switch s.format {
		case FormatU8:
			s.period[s.n] = 128
			s.n++
		case FormatS16LE:
			s.period[s.n] = 0
			s.period[s.n+1] = 0
			s.n += 2
		}
	}

	return s.flush()
}
