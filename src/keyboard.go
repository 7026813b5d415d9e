package rtty

/*------------------------------------------------------------------
 *
 * Purpose:	Live keyboard operation: transmit characters as they are
 *		typed.
 *
 * Description:	The terminal goes to raw mode so each keystroke arrives
 *		immediately.  Reads time out every 100 ms; on a timeout
 *		the sink's buffer level is checked and, past the high
 *		watermark, a short burst of mark tone is injected so the
 *		device never starves while the operator thinks.
 *
 *		Ctrl-C or Ctrl-D ends the session.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pkg/term"
)

const (
	keyReadTimeout = 100 * time.Millisecond

	// idleFillMs of mark tone per injection, 1.5 periods, enough to
	// ride out another read timeout.
	idleFillMs = 150

	keyCtrlC = 0x03
	keyCtrlD = 0x04
)

// keyboardInput is the slice of term.Term the session loop needs, so
// tests can substitute a scripted fake.
type keyboardInput interface {
	Read(p []byte) (int, error)
	SetReadTimeout(d time.Duration) error
}

// Keyboard runs a live session on the controlling terminal.
func Keyboard(t *Transmitter) error {
	var tty, err = term.Open("/dev/tty", term.RawMode)
	if err != nil {
		return fmt.Errorf("keyboard: opening terminal: %w", err)
	}
	defer tty.Restore() //nolint:errcheck
	defer tty.Close()   //nolint:errcheck

	return KeyboardIO(t, tty)
}

// KeyboardIO is the session loop over any raw character source.
func KeyboardIO(t *Transmitter, in keyboardInput) error {
	if err := in.SetReadTimeout(keyReadTimeout); err != nil {
		return fmt.Errorf("keyboard: setting read timeout: %w", err)
	}

	if err := t.Start(); err != nil {
		return err
	}

	var buf [1]byte

	for {
		var n, err = in.Read(buf[:])

		// A timed out read surfaces as zero bytes or io.EOF,
		// depending on the layer that noticed first.  Either way the
		// operator is idle: top up the buffer if it is running low.
		if n == 0 || errors.Is(err, io.EOF) {
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("keyboard: read: %w", err)
			}

			var low, fillErr = t.Stream().NeedsFill()
			if fillErr != nil {
				return fillErr
			}
			if low {
				if toneErr := t.Oscillator().Tone(t.cfg.MarkHz(), idleFillMs); toneErr != nil {
					return toneErr
				}
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("keyboard: read: %w", err)
		}

		var ch = buf[0]

		if ch == keyCtrlC || ch == keyCtrlD {
			break
		}

		// Raw mode delivers Enter as CR; send it as a newline so the
		// codec emits the CR LF pair.
		if ch == '\r' {
			ch = '\n'
		}

		if err = t.SendByte(ch); err != nil {
			return err
		}
	}

	return t.Stop()
}
