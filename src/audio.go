package rtty

/*------------------------------------------------------------------
 *
 * Purpose:	Interface to the audio output device, historically
 *		called a "sound card".
 *
 * Description:	The rest of the pipeline only needs three things from
 *		a sink: accept exactly one period of frames, report how
 *		much of its buffer has drained, and recover after an
 *		underrun.  The PortAudio implementation below talks to
 *		the default playback device; wavfile.go provides a file
 *		backed alternative.
 *
 *		Period size is negotiated once at open: 100 ms worth of
 *		frames, with a 500 ms total buffer target.  Big enough to
 *		ride out scheduling hiccups, small enough that keying
 *		stays responsive.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

// ErrUnderrun reports that the device consumed its whole buffer before
// the write arrived.  It is the only recoverable sink failure.
var ErrUnderrun = errors.New("audio sink underrun")

// SampleFormat selects how samples are quantized on their way to the
// sink.
type SampleFormat int

const (
	FormatU8    SampleFormat = iota // 8 bit unsigned, 128 + high byte
	FormatS16LE                     // 16 bit signed little endian
)

// BytesPerFrame is the size of one mono sample frame in this format.
func (f SampleFormat) BytesPerFrame() int {
	if f == FormatU8 {
		return 1
	}
	return 2
}

// Sink is an audio output accepting PCM frames in a format negotiated
// once at session start.
type Sink interface {
	// WritePeriod submits exactly one period of frames.  ErrUnderrun
	// is recoverable via Reset; anything else is fatal.
	WritePeriod(period []byte) error

	// Avail reports how many frames of buffer space are free.  The
	// feeder uses it for the idle fill high watermark.
	Avail() (int, error)

	// Reset recovers the device after an underrun.
	Reset() error

	PeriodFrames() int
	BufferFrames() int

	Close() error
}

// PortAudioSink plays through the default output device using the
// blocking PortAudio API, mono, at the configured rate and format.
type PortAudioSink struct {
	stream *portaudio.Stream
	format SampleFormat
	rate   int
	period int // frames per write
	buffer int // total frames the device side may hold

	buf16 []int16
	buf8  []uint8

	written int64 // frames submitted since Start
	started time.Time
}

// OpenPortAudio initializes PortAudio and opens the default playback
// stream.  Any failure here means the sink is unavailable and the
// session must not start.
func OpenPortAudio(cfg *Config) (*PortAudioSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: initialize: %w", err)
	}

	var s = &PortAudioSink{
		format: cfg.Format(),
		rate:   cfg.SampleRate,
		period: cfg.SampleRate / 10,
		buffer: cfg.SampleRate / 2,
	}

	var err error

	switch s.format {
	case FormatU8:
		s.buf8 = make([]uint8, s.period)
		s.stream, err = portaudio.OpenDefaultStream(0, 1, float64(s.rate), s.period, &s.buf8)
	case FormatS16LE:
		s.buf16 = make([]int16, s.period)
		s.stream, err = portaudio.OpenDefaultStream(0, 1, float64(s.rate), s.period, &s.buf16)
	}

	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("audio: open playback stream: %w", err)
	}

	if err = s.stream.Start(); err != nil {
		_ = s.stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("audio: start playback stream: %w", err)
	}

	s.started = time.Now()

	return s, nil
}

func (s *PortAudioSink) WritePeriod(period []byte) error {
	switch s.format {
	case FormatU8:
		for i := range s.buf8 {
			s.buf8[i] = period[i]
		}
	case FormatS16LE:
		for i := range s.buf16 {
			s.buf16[i] = int16(period[2*i]) | int16(period[2*i+1])<<8
		}
	}

	var err = s.stream.Write()
	s.written += int64(s.period)

	if err == portaudio.OutputUnderflowed {
		return ErrUnderrun
	}
	if err != nil {
		return fmt.Errorf("audio: write period: %w", err)
	}
	return nil
}

// Avail estimates free buffer space from wall clock drain: the device
// plays written frames back in real time, so whatever has not yet
// elapsed is still queued.
func (s *PortAudioSink) Avail() (int, error) {
	var elapsed = int64(time.Since(s.started).Seconds() * float64(s.rate))

	var queued = s.written - elapsed
	if queued < 0 {
		queued = 0
	}

	var avail = s.buffer - int(queued)
	if avail < 0 {
		avail = 0
	}
	return avail, nil
}

// Reset recovers from an underrun: abandon whatever the stream was
// doing and start it again.
func (s *PortAudioSink) Reset() error {
	if err := s.stream.Abort(); err != nil {
		return fmt.Errorf("audio: abort for reset: %w", err)
	}
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("audio: restart after reset: %w", err)
	}

	s.written = 0
	s.started = time.Now()

	return nil
}

func (s *PortAudioSink) PeriodFrames() int { return s.period }
func (s *PortAudioSink) BufferFrames() int { return s.buffer }

func (s *PortAudioSink) Close() error {
	var stopErr = s.stream.Stop()
	var closeErr = s.stream.Close()
	var termErr = portaudio.Terminate()

	if stopErr != nil {
		return fmt.Errorf("audio: stop: %w", stopErr)
	}
	if closeErr != nil {
		return fmt.Errorf("audio: close: %w", closeErr)
	}
	if termErr != nil {
		return fmt.Errorf("audio: terminate: %w", termErr)
	}
	return nil
}
