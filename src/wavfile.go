package rtty

/*------------------------------------------------------------------
 *
 * Purpose:	Write the generated signal to a .WAV file instead of a
 *		sound device.
 *
 * Description:	Useful for checking the signal in an editor, feeding a
 *		decoder, or transmitting later.  The header is written
 *		with zero sizes at open and patched when the file is
 *		closed, once the data length is known.
 *
 *---------------------------------------------------------------*/

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

type wavHeader struct {
	Riff            [4]byte // "RIFF"
	Filesize        int32   // file length - 8
	Wave            [4]byte // "WAVE"
	Fmt             [4]byte // "fmt "
	Fmtsize         int32   // 16
	Wformattag      int16   // 1 for PCM
	Nchannels       int16   // 1 for mono
	Nsamplespersec  int32   // sampling freq, Hz
	Navgbytespersec int32   // = Nblockalign * Nsamplespersec
	Nblockalign     int16   // = Wbitspersample / 8 * Nchannels
	Wbitspersample  int16   // 16 or 8
	Data            [4]byte // "data"
	Datasize        int32   // number of bytes following
}

const wavHeaderSize = 44

// WAVSink implements Sink on top of a file.  It never underruns and
// never needs an idle fill.
type WAVSink struct {
	f      *os.File
	w      *bufio.Writer
	hdr    wavHeader
	bytes  int64
	period int
	buffer int
}

// OpenWAVFile creates the output file and writes a provisional header.
func OpenWAVFile(fname string, cfg *Config) (*WAVSink, error) {
	var f, createErr = os.Create(fname) //nolint:gosec // User-supplied output file from CLI
	if createErr != nil {
		return nil, fmt.Errorf("wav: create %s: %w", fname, createErr)
	}

	var s = &WAVSink{
		f:      f,
		w:      bufio.NewWriter(f),
		period: cfg.SampleRate / 10,
		buffer: cfg.SampleRate / 2,
	}

	s.hdr.Riff = [4]byte{'R', 'I', 'F', 'F'}
	s.hdr.Wave = [4]byte{'W', 'A', 'V', 'E'}
	s.hdr.Fmt = [4]byte{'f', 'm', 't', ' '}
	s.hdr.Fmtsize = 16
	s.hdr.Wformattag = 1
	s.hdr.Nchannels = 1
	s.hdr.Nsamplespersec = int32(cfg.SampleRate)
	s.hdr.Wbitspersample = int16(cfg.Bits)
	s.hdr.Nblockalign = s.hdr.Wbitspersample / 8 * s.hdr.Nchannels
	s.hdr.Navgbytespersec = int32(s.hdr.Nblockalign) * s.hdr.Nsamplespersec
	s.hdr.Data = [4]byte{'d', 'a', 't', 'a'}

	if err := binary.Write(s.w, binary.LittleEndian, s.hdr); err != nil {
		f.Close()
		return nil, fmt.Errorf("wav: write header: %w", err)
	}

	return s, nil
}

func (s *WAVSink) WritePeriod(period []byte) error {
	var n, err = s.w.Write(period)
	s.bytes += int64(n)
	if err != nil {
		return fmt.Errorf("wav: write period: %w", err)
	}
	return nil
}

// Avail always reports zero free space: a file cannot starve, so the
// feeder never injects idle tone.
func (s *WAVSink) Avail() (int, error) {
	return 0, nil
}

func (s *WAVSink) Reset() error { return nil }

func (s *WAVSink) PeriodFrames() int { return s.period }
func (s *WAVSink) BufferFrames() int { return s.buffer }

// Close flushes the data and rewrites the header with the real sizes.
func (s *WAVSink) Close() error {
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return fmt.Errorf("wav: flush: %w", err)
	}

	s.hdr.Datasize = int32(s.bytes)
	s.hdr.Filesize = int32(s.bytes + wavHeaderSize - 8)

	if _, err := s.f.Seek(0, 0); err != nil {
		s.f.Close()
		return fmt.Errorf("wav: seek for header patch: %w", err)
	}
	if err := binary.Write(s.f, binary.LittleEndian, s.hdr); err != nil {
		s.f.Close()
		return fmt.Errorf("wav: patch header: %w", err)
	}

	if err := s.f.Close(); err != nil {
		return fmt.Errorf("wav: close: %w", err)
	}
	return nil
}
