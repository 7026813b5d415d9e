package rtty

/*------------------------------------------------------------------
 *
 * Name:	rttygen
 *
 * Purpose:	Generate RTTY (Baudot / ITA2) audio from text.
 *
 * Description:	Text comes from the keyboard, a file, the command line,
 *		or a built-in test pattern.  Audio goes to the default
 *		playback device or a .WAV file.
 *
 * Examples:	Live keyboard session at the defaults (45 baud, 170 Hz
 *		shift, 950 Hz space tone):
 *
 *			rttygen -k
 *
 *		Test pattern to a file for checking with a decoder:
 *
 *			rttygen -t -o test.wav
 *
 *		Send a file, keying the rig over a serial line:
 *
 *			rttygen -f cq.txt --ptt /dev/ttyUSB0:RTS
 *
 *------------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

func RttygenMain() {
	var configFile = pflag.StringP("config", "c", "", "Read settings from YAML file.")
	var keyboard = pflag.BoolP("keyboard", "k", false, "Live keyboard session; transmit as you type.")
	var testData = pflag.BoolP("test-data", "t", false, "Send the built-in test pattern.")
	var inputFile = pflag.StringP("input-file", "f", "", "Send the contents of a text file.")
	var outputFile = pflag.StringP("output-file", "o", "", "Send output to .wav file instead of the sound device.")
	var wpm = pflag.IntP("wpm", "w", DefaultWPM, "Sending speed: 60, 66, 75 or 100 WPM.")
	var shift = pflag.IntP("shift", "s", DefaultShiftHz, "Mark / space shift in Hz: 170, 425 or 850.")
	var freq = pflag.IntP("freq", "F", DefaultFreqLow, "Space (low) tone frequency in Hz.")
	var volume = pflag.IntP("volume", "v", DefaultVolume, "Volume in range of 0 - 100%.")
	var bits = pflag.IntP("bits", "b", DefaultBits, "8 bit audio rather than 16.")
	var sampleRate = pflag.IntP("sample-rate", "r", DefaultSampleRate, "Audio sample rate.")
	var ptt = pflag.String("ptt", "", "Key the transmitter: GPIO:n, GPIO:chip:n, device:RTS or device:DTR.")
	var logDir = pflag.String("log-dir", "", "Save transmitted text to daily files in this directory.")
	var verbose = pflag.Bool("verbose", false, "Debug level logging.")
	var version = pflag.Bool("version", false, "Print version and exit.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - Generate RTTY (Baudot) audio from text.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [text ...]\n", os.Args[0])
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Any remaining arguments are joined with spaces and transmitted.\n")
		fmt.Fprintf(os.Stderr, "Pick one input: -k, -t, -f or message text.\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Example:  rttygen -k\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "    Live session on the sound card.  In keyboard mode Ctrl-C or\n")
		fmt.Fprintf(os.Stderr, "    Ctrl-D ends the transmission cleanly.\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Example:  rttygen -t -o x.wav\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "    Test pattern into x.wav with all defaults: 45 baud, 170 Hz\n")
		fmt.Fprintf(os.Stderr, "    shift, tones at 950 and 1120 Hz.\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Example:  rttygen -w 100 -s 850 CQ CQ CQ DE N0CALL\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "    One message at 74 baud with wide shift.\n")
	}

	// !!! PARSE !!!
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(1)
	}

	if *version {
		printVersion(*verbose)
		os.Exit(0)
	}

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	var cfg = DefaultConfig()

	if *configFile != "" {
		var loaded, err = LoadConfig(*configFile)
		if err != nil {
			log.Fatal("Config file error", "err", err)
		}
		cfg = loaded
	}

	// Explicit command line options win over the config file.
	if pflag.CommandLine.Changed("wpm") {
		cfg.WPM = *wpm
	}
	if pflag.CommandLine.Changed("shift") {
		cfg.ShiftHz = *shift
	}
	if pflag.CommandLine.Changed("freq") {
		cfg.FreqLow = *freq
	}
	if pflag.CommandLine.Changed("volume") {
		cfg.Volume = *volume
	}
	if pflag.CommandLine.Changed("bits") {
		cfg.Bits = *bits
	}
	if pflag.CommandLine.Changed("sample-rate") {
		cfg.SampleRate = *sampleRate
	}
	if pflag.CommandLine.Changed("ptt") {
		cfg.PTT = *ptt
	}
	if pflag.CommandLine.Changed("log-dir") {
		cfg.LogDir = *logDir
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid settings", "err", err)
	}

	var message = strings.Join(pflag.Args(), " ")

	var inputs = 0
	for _, chosen := range []bool{*keyboard, *testData, *inputFile != "", message != ""} {
		if chosen {
			inputs++
		}
	}
	if inputs != 1 {
		fmt.Fprintf(os.Stderr, "Pick exactly one input: -k, -t, -f or message text.\n\n")
		pflag.Usage()
		os.Exit(1)
	}

	log.Debug("Session settings",
		"wpm", cfg.WPM,
		"space_hz", cfg.SpaceHz(),
		"mark_hz", cfg.MarkHz(),
		"rate", cfg.SampleRate,
		"bits", cfg.Bits)

	var sink Sink
	var err error

	if *outputFile != "" {
		sink, err = OpenWAVFile(*outputFile, cfg)
	} else {
		sink, err = OpenPortAudio(cfg)
	}
	if err != nil {
		log.Fatal("Opening audio output", "err", err)
	}

	var t = NewTransmitter(cfg, sink, os.Stdout)

	pttDev, err := OpenPTT(cfg.PTT)
	if err != nil {
		sink.Close()
		log.Fatal("Opening PTT", "err", err)
	}
	t.SetPTT(pttDev)

	if cfg.LogDir != "" {
		var tlog, logErr = NewTransmitLog(cfg.LogDir)
		if logErr != nil {
			log.Fatal("Opening transmit log", "err", logErr)
		}
		defer tlog.Close()
		t.SetTransmitLog(tlog)
	}

	err = runSession(t, *keyboard, *testData, *inputFile, message)

	if closeErr := pttDev.Close(); closeErr != nil {
		log.Warn("Closing PTT", "err", closeErr)
	}
	if closeErr := sink.Close(); closeErr != nil {
		log.Warn("Closing audio output", "err", closeErr)
	}

	if err != nil {
		if errors.Is(err, ErrUnderrun) {
			log.Fatal("Audio device cannot keep up; try a lower sample rate", "err", err)
		}
		log.Fatal("Session failed", "err", err)
	}
}

// runSession dispatches to the chosen input mode.  Keyboard mode owns
// its own start and stop; the one-shot modes are bracketed here.
func runSession(t *Transmitter, keyboard bool, testData bool, inputFile string, message string) error {
	if keyboard {
		return Keyboard(t)
	}

	if err := t.Start(); err != nil {
		return err
	}

	var err error
	switch {
	case testData:
		err = t.SendTest()
	case inputFile != "":
		err = t.SendFile(inputFile)
	default:
		err = t.SendLine(message + "\n")
	}

	if err != nil {
		return err
	}
	return t.Stop()
}
