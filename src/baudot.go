package rtty

/*------------------------------------------------------------------
 *
 * Purpose:	Translate text into Baudot (ITA2) symbols and turn each
 *		symbol into the start/data/stop bit frame that goes on
 *		the air.
 *
 * Description:	ITA2 is a 5 bit code with two shift states.  The 26
 *		letter code points are shared with digits and punctuation;
 *		which meaning applies depends on whether the last shift
 *		symbol sent was LTRS or FIGS.  The codec tracks that
 *		state and emits a shift symbol only when the required
 *		shift differs from the current one.
 *
 *		Each symbol is transmitted as a start bit (space), the
 *		five data bits, and 1.5 stop bits (mark).  We send two
 *		full stop slots so every frame has the same length,
 *		which keeps the sample pipeline rate-exact.
 *
 *---------------------------------------------------------------*/

// Symbol is one entry of the 34 value Baudot symbol set.  Values 0-25
// are the shared letter/figure code points, 26-31 are controls, and
// 32/33 are the open and closed line conditions.
type Symbol byte

const (
	SymbolNull      Symbol = 26
	SymbolLF        Symbol = 27
	SymbolSpace     Symbol = 28
	SymbolCR        Symbol = 29
	SymbolShiftUp   Symbol = 30 // FIGS
	SymbolShiftDown Symbol = 31 // LTRS
	SymbolOpen      Symbol = 32 // open line, continuous space
	SymbolClosed    Symbol = 33 // closed line, continuous mark

	numSymbols = 34
)

// Shift is the teleprinter shift state.
type Shift int

const (
	Letters Shift = iota
	Figures
)

func (s Shift) String() string {
	if s == Figures {
		return "FIGS"
	}
	return "LTRS"
}

// figsCode maps every character that lives in the figures shift to its
// code point.  Digits and punctuation go through this one table so
// shift handling cannot diverge between character classes.
var figsCode = map[byte]Symbol{
	'-':  0,
	'?':  1,
	':':  2,
	'$':  3,
	'3':  4,
	7:    6, // BEL
	'8':  8,
	'\'': 9,
	'`':  9,
	'(':  10,
	')':  11,
	'.':  12,
	',':  13,
	'9':  14,
	'0':  15,
	'1':  16,
	'4':  17,
	'5':  19,
	'7':  20,
	';':  21,
	'2':  22,
	'/':  23,
	'6':  24,
	'"':  25,
}

// Codec converts a byte stream into Baudot symbols, tracking the shift
// state across calls.  A session starts in Letters.
type Codec struct {
	shift Shift
}

func NewCodec() *Codec {
	return &Codec{shift: Letters}
}

// Shift reports the current shift state.
func (c *Codec) Shift() Shift {
	return c.shift
}

// Reset returns the codec to the Letters state.  Called after a sync
// sequence puts a LTRS symbol on the air outside of Encode.
func (c *Codec) Reset() {
	c.shift = Letters
}

// Encode translates one character into its transmission symbols,
// prepending a shift symbol when the character needs the other shift
// state.  Every byte value has a defined result; anything with no
// reasonable mapping becomes NULL.
func (c *Codec) Encode(ch byte) []Symbol {
	if code, ok := figsCode[ch]; ok {
		return c.shifted(Figures, code)
	}

	switch {
	case ch >= 'A' && ch <= 'Z':
		return c.shifted(Letters, Symbol(ch-'A'))
	case ch >= 'a' && ch <= 'z':
		return c.shifted(Letters, Symbol(ch-'a'))
	case ch == ' ':
		return []Symbol{SymbolSpace}
	case ch == '\n':
		// A new line is always both carriage return and line feed,
		// regardless of shift state.
		return []Symbol{SymbolCR, SymbolLF}
	case ch >= byte(SymbolNull) && ch <= byte(SymbolClosed):
		// Already a control symbol value.  Pass through.
		return []Symbol{Symbol(ch)}
	}

	return []Symbol{SymbolNull}
}

func (c *Codec) shifted(want Shift, code Symbol) []Symbol {
	if c.shift == want {
		return []Symbol{code}
	}

	c.shift = want

	if want == Figures {
		return []Symbol{SymbolShiftUp, code}
	}
	return []Symbol{SymbolShiftDown, code}
}

// Frame is the fixed 8 slot bit pattern for one symbol:
// {start=0, d0..d4, stop=1, stop=1}.
type Frame [8]byte

// frameTable holds the canonical bit patterns.  Values are the ITA2
// constant set and must not be "corrected".
var frameTable = [numSymbols]Frame{
	{0, 1, 1, 0, 0, 0, 1, 1}, // A
	{0, 1, 0, 0, 1, 1, 1, 1}, // B
	{0, 0, 1, 1, 1, 0, 1, 1}, // C
	{0, 1, 0, 0, 1, 0, 1, 1}, // D
	{0, 1, 0, 0, 0, 0, 1, 1}, // E / 3
	{0, 1, 0, 1, 1, 0, 1, 1}, // F
	{0, 0, 1, 0, 1, 1, 1, 1}, // G
	{0, 0, 0, 1, 0, 1, 1, 1}, // H
	{0, 0, 1, 1, 0, 0, 1, 1}, // I / 8
	{0, 1, 1, 0, 1, 0, 1, 1}, // J
	{0, 1, 1, 1, 1, 0, 1, 1}, // K
	{0, 0, 1, 0, 0, 1, 1, 1}, // L
	{0, 0, 0, 1, 1, 1, 1, 1}, // M / .
	{0, 0, 0, 1, 1, 0, 1, 1}, // N
	{0, 0, 0, 0, 1, 1, 1, 1}, // O / 9
	{0, 0, 1, 1, 0, 1, 1, 1}, // P / 0
	{0, 1, 1, 1, 0, 1, 1, 1}, // Q / 1
	{0, 0, 1, 0, 1, 0, 1, 1}, // R / 4
	{0, 1, 0, 1, 0, 0, 1, 1}, // S
	{0, 0, 0, 0, 0, 1, 1, 1}, // T / 5
	{0, 1, 1, 1, 0, 0, 1, 1}, // U / 7
	{0, 0, 1, 1, 1, 1, 1, 1}, // V
	{0, 1, 1, 0, 0, 1, 1, 1}, // W / 2
	{0, 1, 0, 1, 1, 1, 1, 1}, // X / /
	{0, 1, 0, 1, 0, 1, 1, 1}, // Y / 6
	{0, 1, 0, 0, 0, 1, 1, 1}, // Z
	{0, 0, 0, 0, 0, 0, 1, 1}, // NULL
	{0, 0, 1, 0, 0, 0, 1, 1}, // LF
	{0, 0, 0, 1, 0, 0, 1, 1}, // SPACE
	{0, 0, 0, 0, 1, 0, 1, 1}, // CR
	{0, 1, 1, 0, 1, 1, 1, 1}, // SHIFT_UP (FIGS)
	{0, 1, 1, 1, 1, 1, 1, 1}, // SHIFT_DOWN (LTRS)
	{0, 0, 0, 0, 0, 0, 0, 0}, // open line
	{1, 1, 1, 1, 1, 1, 1, 1}, // closed line
}

// Frame returns the bit pattern for one symbol.  Pure table lookup;
// out of range values fall back to NULL rather than failing.
func (s Symbol) Frame() Frame {
	if int(s) < numSymbols {
		return frameTable[s]
	}
	return frameTable[SymbolNull]
}
