package rtty

/*------------------------------------------------------------------
 *
 * Purpose:	Save transmitted text to a log file.
 *
 * Description:	Daily file names are generated in the configured
 *		directory, one timestamped line per transmitted line.
 *		The file is kept open between lines; we don't open and
 *		close for every one.  When the date changes the current
 *		file is closed and a new one opened.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// TransmitLog appends transmitted lines to daily files under dir.
type TransmitLog struct {
	dir   string
	f     *os.File
	fname string // name of the currently open file
}

// NewTransmitLog prepares the log directory, creating it if the parent
// exists.  We don't create multiple levels like "mkdir -p".
func NewTransmitLog(dir string) (*TransmitLog, error) {
	var stat, statErr = os.Stat(dir)

	switch {
	case statErr == nil && !stat.IsDir():
		return nil, fmt.Errorf("transmit log location %q is not a directory", dir)
	case statErr != nil:
		if err := os.Mkdir(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating transmit log location: %w", err)
		}
		log.Info("Transmit log location created", "dir", dir)
	}

	return &TransmitLog{dir: dir}, nil
}

// Record appends one transmitted line, opening or rolling the daily
// file as needed.
func (l *TransmitLog) Record(line string) error {
	var now = time.Now().UTC()

	var fname, err = strftime.Format("%Y%m%d.log", now)
	if err != nil {
		return fmt.Errorf("transmit log name: %w", err)
	}

	if l.f != nil && fname != l.fname {
		l.f.Close()
		l.f = nil
	}

	if l.f == nil {
		var full = filepath.Join(l.dir, fname)

		var f, openErr = os.OpenFile(full, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644) //nolint:gosec // Log path derives from user config
		if openErr != nil {
			return fmt.Errorf("opening transmit log: %w", openErr)
		}

		l.f = f
		l.fname = fname
	}

	var stamp, _ = strftime.Format("%H:%M:%S", now)

	if _, err = fmt.Fprintf(l.f, "%s %s\n", stamp, line); err != nil {
		return fmt.Errorf("writing transmit log: %w", err)
	}
	return nil
}

func (l *TransmitLog) Close() error {
	if l.f == nil {
		return nil
	}
	var err = l.f.Close()
	l.f = nil
	return err
}
