package rtty

/*------------------------------------------------------------------
 *
 * Purpose:	Runtime configuration: defaults, optional YAML file,
 *		validation.
 *
 * Description:	Everything is checked before a session starts.  An out
 *		of range value is fatal; there is no clamping and no
 *		guessing.
 *
 *---------------------------------------------------------------*/

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfig marks a configuration parameter outside its accepted
// range.  Callers test with errors.Is.
var ErrConfig = errors.New("invalid configuration")

const (
	DefaultSampleRate = 44100
	DefaultFreqLow    = 950
	DefaultShiftHz    = 170
	DefaultVolume     = 100
	DefaultBits       = 16
	DefaultWPM        = 60

	// ColumnMax is where a line is forced to wrap with CR LF.
	ColumnMax = 76
)

// bitDelayMs maps the WPM presets to the per-bit tone duration.
//
//	22 ms = 45 baud, 60 WPM
//	20 ms = 50 baud, 66 WPM
//	18 ms = 56.9 baud, 75 WPM
//	13 ms = 74 baud, 100 WPM
var bitDelayMs = map[int]int{
	60:  22,
	66:  20,
	75:  18,
	100: 13,
}

// Config holds every tunable of a transmit session.
type Config struct {
	WPM        int    `yaml:"wpm"`
	ShiftHz    int    `yaml:"shift"`
	FreqLow    int    `yaml:"freq"`
	Volume     int    `yaml:"volume"`
	Bits       int    `yaml:"bits"`
	SampleRate int    `yaml:"sample_rate"`
	TableSize  int    `yaml:"table_size"`
	PTT        string `yaml:"ptt"`
	LogDir     string `yaml:"log_dir"`
}

func DefaultConfig() *Config {
	return &Config{
		WPM:        DefaultWPM,
		ShiftHz:    DefaultShiftHz,
		FreqLow:    DefaultFreqLow,
		Volume:     DefaultVolume,
		Bits:       DefaultBits,
		SampleRate: DefaultSampleRate,
		TableSize:  DefaultToneTableSize,
	}
}

// LoadConfig reads a YAML settings file over the defaults.  Unknown
// keys are rejected so a typo does not silently fall back to a
// default.
func LoadConfig(path string) (*Config, error) {
	var cfg = DefaultConfig()

	var data, readErr = os.ReadFile(path) //nolint:gosec // User-supplied config path from CLI
	if readErr != nil {
		return nil, fmt.Errorf("reading config: %w", readErr)
	}

	var dec = yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks every parameter range.  Called once, before any
// audio device is opened.
func (c *Config) Validate() error {
	if _, ok := bitDelayMs[c.WPM]; !ok {
		return fmt.Errorf("%w: wpm must be 60, 66, 75 or 100, not %d", ErrConfig, c.WPM)
	}

	switch c.ShiftHz {
	case 170, 425, 850:
	default:
		return fmt.Errorf("%w: shift must be 170, 425 or 850, not %d", ErrConfig, c.ShiftHz)
	}

	if c.FreqLow < 500 || c.FreqLow > 3000 {
		return fmt.Errorf("%w: freq must be in 500..3000, not %d", ErrConfig, c.FreqLow)
	}

	if c.Volume < 0 || c.Volume > 100 {
		return fmt.Errorf("%w: volume must be in 0..100, not %d", ErrConfig, c.Volume)
	}

	if c.Bits != 8 && c.Bits != 16 {
		return fmt.Errorf("%w: bits must be 8 or 16, not %d", ErrConfig, c.Bits)
	}

	if c.SampleRate < 5000 || c.SampleRate > 48000 {
		return fmt.Errorf("%w: sample rate must be in 5000..48000, not %d", ErrConfig, c.SampleRate)
	}

	if c.TableSize < MinToneTableSize || c.TableSize > MaxToneTableSize {
		return fmt.Errorf("%w: table size must be in %d..%d, not %d", ErrConfig, MinToneTableSize, MaxToneTableSize, c.TableSize)
	}

	return nil
}

// BitDelayMs is the duration of one transmitted bit.
func (c *Config) BitDelayMs() int {
	return bitDelayMs[c.WPM]
}

// SpaceHz is the low tone, keyed for a 0 bit.
func (c *Config) SpaceHz() int {
	return c.FreqLow
}

// MarkHz is the high tone, keyed for a 1 bit and held while idle.
func (c *Config) MarkHz() int {
	return c.FreqLow + c.ShiftHz
}

func (c *Config) Format() SampleFormat {
	if c.Bits == 8 {
		return FormatU8
	}
	return FormatS16LE
}
