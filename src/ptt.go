package rtty

/*------------------------------------------------------------------
 *
 * Purpose:	Key the transmitter for the duration of a session.
 *
 * Description:	Three ways of doing nothing to a radio:
 *
 *		  (none)		audio only, no keying
 *		  GPIO:17		a GPIO output line, active high
 *		  /dev/ttyUSB0:RTS	a serial control signal
 *
 *		The GPIO form optionally names the chip:
 *		GPIO:gpiochip1:4.  The serial form accepts RTS or DTR.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"
)

// PTT keys and unkeys the transmitter.
type PTT interface {
	On() error
	Off() error
	Close() error
}

// nonePTT is the default: audio only.
type nonePTT struct{}

func (nonePTT) On() error    { return nil }
func (nonePTT) Off() error   { return nil }
func (nonePTT) Close() error { return nil }

// OpenPTT parses a keying spec and opens the hardware behind it.  An
// empty spec yields the no-op implementation.
func OpenPTT(spec string) (PTT, error) {
	if spec == "" {
		return nonePTT{}, nil
	}

	if strings.HasPrefix(strings.ToUpper(spec), "GPIO:") {
		return openGPIOPTT(spec[len("GPIO:"):])
	}

	return openSerialPTT(spec)
}

/*------------------------------------------------------------------
 * GPIO keying, via the character device interface.
 *---------------------------------------------------------------*/

// outputLine is the slice of gpiocdev.Line we use, so tests can
// substitute a fake.
type outputLine interface {
	SetValue(value int) error
	Close() error
}

type gpioPTT struct {
	line outputLine
}

func openGPIOPTT(spec string) (PTT, error) {
	var chip = "gpiochip0"
	var offsetStr = spec

	if i := strings.IndexByte(spec, ':'); i >= 0 {
		chip = spec[:i]
		offsetStr = spec[i+1:]
	}

	var offset, err = strconv.Atoi(offsetStr)
	if err != nil {
		return nil, fmt.Errorf("ptt: bad GPIO line number %q: %w", offsetStr, err)
	}

	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("ptt: requesting %s line %d: %w", chip, offset, err)
	}

	return &gpioPTT{line: line}, nil
}

func (p *gpioPTT) On() error {
	if err := p.line.SetValue(1); err != nil {
		return fmt.Errorf("ptt: setting GPIO high: %w", err)
	}
	return nil
}

func (p *gpioPTT) Off() error {
	if err := p.line.SetValue(0); err != nil {
		return fmt.Errorf("ptt: setting GPIO low: %w", err)
	}
	return nil
}

func (p *gpioPTT) Close() error {
	var offErr = p.Off()
	var closeErr = p.line.Close()
	if offErr != nil {
		return offErr
	}
	return closeErr
}

/*------------------------------------------------------------------
 * Serial control signal keying: RTS or DTR on a tty.
 *---------------------------------------------------------------*/

type serialPTT struct {
	f   *os.File
	bit int // unix.TIOCM_RTS or unix.TIOCM_DTR
}

func openSerialPTT(spec string) (PTT, error) {
	var i = strings.LastIndexByte(spec, ':')
	if i < 0 {
		return nil, fmt.Errorf("ptt: spec %q needs the form device:RTS or device:DTR", spec)
	}

	var dev = spec[:i]
	var bit int

	switch strings.ToUpper(spec[i+1:]) {
	case "RTS":
		bit = unix.TIOCM_RTS
	case "DTR":
		bit = unix.TIOCM_DTR
	default:
		return nil, fmt.Errorf("ptt: signal in %q must be RTS or DTR", spec)
	}

	var f, err = os.OpenFile(dev, os.O_RDWR|unix.O_NOCTTY, 0) //nolint:gosec // User-supplied device path from CLI
	if err != nil {
		return nil, fmt.Errorf("ptt: opening %s: %w", dev, err)
	}

	var p = &serialPTT{f: f, bit: bit}

	// Start unkeyed; the device may power up with the line asserted.
	if err = p.Off(); err != nil {
		f.Close()
		return nil, err
	}

	return p, nil
}

func (p *serialPTT) set(on bool) error {
	var bits, err = unix.IoctlGetInt(int(p.f.Fd()), unix.TIOCMGET)
	if err != nil {
		return fmt.Errorf("ptt: TIOCMGET on %s: %w", p.f.Name(), err)
	}

	if on {
		bits |= p.bit
	} else {
		bits &^= p.bit
	}

	if err = unix.IoctlSetInt(int(p.f.Fd()), unix.TIOCMSET, bits); err != nil {
		return fmt.Errorf("ptt: TIOCMSET on %s: %w", p.f.Name(), err)
	}
	return nil
}

func (p *serialPTT) On() error  { return p.set(true) }
func (p *serialPTT) Off() error { return p.set(false) }

func (p *serialPTT) Close() error {
	var offErr = p.Off()
	var closeErr = p.f.Close()
	if offErr != nil {
		return offErr
	}
	return closeErr
}
