package main

/*------------------------------------------------------------------
 *
 * Purpose:	Main program for "rttygen" which includes:
 *
 *			ASCII to Baudot (ITA2) encoding.
 *			Start/stop frame generation.
 *			Dual tone FSK synthesis via a lookup table DDS.
 *			Sound card or .WAV file output.
 *			Live keyboard, file, message and test inputs.
 *			Optional GPIO or serial PTT keying.
 *
 *---------------------------------------------------------------*/

import (
	rtty "github.com/doismellburning/rttygen/src"
)

func main() {
	rtty.RttygenMain()
}
