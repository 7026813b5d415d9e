package rtty

/*------------------------------------------------------------------
 *
 * Purpose:	Assemble the transmit pipeline and run a session:
 *		preamble, content, postamble.
 *
 * Description:	Characters go through the Baudot codec, each symbol is
 *		framed, and each frame bit keys the oscillator to the
 *		mark or space tone for one bit time.  Printable
 *		characters are echoed uppercase to a status writer as a
 *		side effect.
 *
 *		A session moves Idle -> Preamble -> Transmitting ->
 *		Postamble -> Closed.  The preamble and postamble send
 *		the traditional NULL NULL LTRS CR LF sequence so the
 *		receiving teleprinter is synchronized and in a known
 *		shift state at both ends of the transmission.
 *
 *---------------------------------------------------------------*/

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

type sessionState int

const (
	stateIdle sessionState = iota
	statePreamble
	stateTransmitting
	statePostamble
	stateClosed
)

const (
	// primeMs of mark tone loads the sink buffer before the first
	// frame, so the session cannot underrun at the starting line.
	primeMs = 500

	// markHoldFrames of CLOSED (all mark) bracket a transmission,
	// the equivalent of letting the loop idle before typing.
	markHoldFrames = 10
)

// syncSequence establishes receiver synchronization.  Sent through the
// same pipeline as ordinary content.
var syncSequence = []Symbol{SymbolNull, SymbolNull, SymbolShiftDown, SymbolCR, SymbolLF}

// Transmitter owns one transmit session end to end.
type Transmitter struct {
	cfg    *Config
	codec  *Codec
	osc    *Oscillator
	stream *SampleStream
	ptt    PTT
	echo   io.Writer
	tlog   *TransmitLog

	state   sessionState
	column  int
	lineBuf []byte // echoed characters of the current line, for the transmit log
}

// NewTransmitter builds the pipeline over an open sink.  Echoed
// characters go to echo (normally stdout).
func NewTransmitter(cfg *Config, sink Sink, echo io.Writer) *Transmitter {
	var stream = NewSampleStream(sink, cfg.Format())

	return &Transmitter{
		cfg:    cfg,
		codec:  NewCodec(),
		osc:    NewOscillator(NewToneTable(cfg.TableSize, cfg.Volume), cfg.SampleRate, stream),
		stream: stream,
		ptt:    nonePTT{},
		echo:   echo,
	}
}

// SetPTT installs transmitter keying, replacing the default no-op.
func (t *Transmitter) SetPTT(p PTT) {
	t.ptt = p
}

// SetTransmitLog installs an optional session log.
func (t *Transmitter) SetTransmitLog(l *TransmitLog) {
	t.tlog = l
}

// Oscillator exposes the tone generator for the keyboard idle fill.
func (t *Transmitter) Oscillator() *Oscillator {
	return t.osc
}

// Stream exposes the sample stream for watermark checks.
func (t *Transmitter) Stream() *SampleStream {
	return t.stream
}

// Start keys the transmitter and sends the preamble.
func (t *Transmitter) Start() error {
	if t.state != stateIdle {
		return fmt.Errorf("session already started")
	}

	if err := t.ptt.On(); err != nil {
		return fmt.Errorf("keying transmitter: %w", err)
	}

	t.state = statePreamble

	if err := t.osc.Tone(t.cfg.MarkHz(), primeMs); err != nil {
		return err
	}
	if err := t.MarkHold(markHoldFrames); err != nil {
		return err
	}
	if err := t.sendSync(); err != nil {
		return err
	}

	t.state = stateTransmitting

	return nil
}

// Stop sends the postamble, drains the stream and unkeys.
func (t *Transmitter) Stop() error {
	if t.state != stateTransmitting {
		return fmt.Errorf("session not transmitting")
	}

	t.state = statePostamble

	if err := t.sendSync(); err != nil {
		return err
	}
	if err := t.MarkHold(markHoldFrames); err != nil {
		return err
	}
	if err := t.stream.Drain(); err != nil {
		return err
	}

	t.flushLineLog()

	if err := t.ptt.Off(); err != nil {
		log.Warn("Unkeying transmitter failed", "err", err)
	}

	t.state = stateClosed

	if n := t.stream.Underruns(); n > 0 {
		log.Info("Session finished with recovered underruns", "count", n)
	}

	return nil
}

func (t *Transmitter) sendSync() error {
	for _, sym := range syncSequence {
		if err := t.SendSymbol(sym); err != nil {
			return err
		}
	}

	// The sequence put LTRS on the air; keep the codec in step.
	t.codec.Reset()

	return nil
}

// SendSymbol keys one framed symbol: a 0 bit selects the space tone,
// a 1 bit the mark tone, each for one bit time.  Once begun, a frame
// always completes.
func (t *Transmitter) SendSymbol(sym Symbol) error {
	var frame = sym.Frame()

	for _, bit := range frame {
		var freq = t.cfg.SpaceHz()
		if bit != 0 {
			freq = t.cfg.MarkHz()
		}

		if err := t.osc.Tone(freq, t.cfg.BitDelayMs()); err != nil {
			return err
		}
	}

	return nil
}

// MarkHold sends n CLOSED frames, a steady mark tone framed like any
// other symbol.
func (t *Transmitter) MarkHold(n int) error {
	for i := 0; i < n; i++ {
		if err := t.SendSymbol(SymbolClosed); err != nil {
			return err
		}
	}
	return nil
}

// SendByte transmits one character: codec, frames, tones, and the
// uppercase status echo.  Wraps the line when the column limit is hit.
func (t *Transmitter) SendByte(ch byte) error {
	for _, sym := range t.codec.Encode(ch) {
		if err := t.SendSymbol(sym); err != nil {
			return err
		}
	}

	if echoable(ch) {
		t.column++

		if ch == '\n' || ch == '\r' {
			t.column = 0
			fmt.Fprint(t.echo, "\r\n")
			t.flushLineLog()
		} else {
			var up = upperASCII(ch)
			fmt.Fprintf(t.echo, "%c", up)
			t.lineBuf = append(t.lineBuf, up)
		}
	}

	if t.column >= ColumnMax {
		for _, sym := range []Symbol{SymbolCR, SymbolLF, SymbolCR} {
			if err := t.SendSymbol(sym); err != nil {
				return err
			}
		}
		fmt.Fprint(t.echo, "\r\n")
		t.flushLineLog()
		t.column = 0
	}

	return nil
}

// SendLine transmits the sendable characters of a line, skipping
// anything unprintable other than whitespace.
func (t *Transmitter) SendLine(line string) error {
	for i := 0; i < len(line); i++ {
		if !echoable(line[i]) {
			continue
		}
		if err := t.SendByte(line[i]); err != nil {
			return err
		}
	}
	return nil
}

// SendFile transmits a text file line by line.
func (t *Transmitter) SendFile(name string) error {
	var f, openErr = os.Open(name) //nolint:gosec // User-supplied input file from CLI
	if openErr != nil {
		return fmt.Errorf("opening input file: %w", openErr)
	}
	defer f.Close()

	var scanner = bufio.NewScanner(f)
	for scanner.Scan() {
		if err := t.SendLine(scanner.Text() + "\n"); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input file: %w", err)
	}
	return nil
}

// SendTest transmits the traditional test pattern, then holds the mark
// tone for two seconds.
func (t *Transmitter) SendTest() error {
	var lines = []string{
		"the quick brown fox jumped over the lazy dog's back 1234567890\n",
		"ryryryryryryryryryryryryryryryryryryryryryryryryryryryryryryry\n",
		"sgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsgsg\n",
		"ryryryryryryryryryryryryryryryryryryryryryryryryryryryryryryry\n",
	}

	for _, line := range lines {
		if err := t.SendLine(line); err != nil {
			return err
		}
	}

	return t.osc.Tone(t.cfg.MarkHz(), 2000)
}

func (t *Transmitter) flushLineLog() {
	if t.tlog == nil || len(t.lineBuf) == 0 {
		t.lineBuf = t.lineBuf[:0]
		return
	}

	if err := t.tlog.Record(string(t.lineBuf)); err != nil {
		log.Warn("Transmit log write failed", "err", err)
	}

	t.lineBuf = t.lineBuf[:0]
}

// echoable is isspace || isalnum || ispunct over ASCII.
func echoable(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return ch >= '!' && ch <= '~'
}

func upperASCII(ch byte) byte {
	if ch >= 'a' && ch <= 'z' {
		return ch - 'a' + 'A'
	}
	return ch
}
