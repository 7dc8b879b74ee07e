// Package kfmt provides a minimal, allocation-free Printf implementation that
// can be used before the Go runtime has been fully initialized.
package kfmt

import "io"

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	// singleByte is a shared buffer for emitting individual characters
	// without triggering a string-to-slice conversion (which allocates).
	singleByte = []byte(" ")

	// numBuf is a shared scratch buffer for formatting numbers. 64 bytes
	// cover a uint64 rendered in base 2.
	numBuf [64]byte

	// earlyBuffer captures Printf output generated before an output sink
	// is attached.
	earlyBuffer ringBuffer

	// outputSink is the io.Writer where Printf sends its output. While
	// nil, output is redirected to earlyBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the target for calls to Printf to w and drains any
// output accumulated in the early boot buffer into it. Passing nil reverts
// Printf output to the early boot buffer.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyBuffer)
	}
}

// Printf formats its arguments and writes the result to the active output
// sink. It supports a subset of the fmt.Printf verbs:
//
//	%s  string or []byte
//	%c  single byte character
//	%t  "true" or "false"
//	%o  integer, base 8
//	%d  integer, base 10
//	%x  integer, base 16 with lower-case digits
//
// An optional decimal width may precede the verb; string and base-10 values
// shorter than the width are left-padded with spaces while base-16 values are
// left-padded with zeroes.
//
// Printf accepts all built-in integer types but performs no Stringer
// detection: itables may not be initialized when it runs, and reflection
// would pull in runtime allocation paths that must stay unused until the
// memory manager is up.
func Printf(format string, args ...interface{}) {
	Fprintf(sink(), format, args...)
}

// Fprintf behaves like Printf but writes the formatted output to w.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex int
		width    int
	)

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			emitByte(w, format[i])
			continue
		}

		// Scan optional width digits until we hit a verb
		width = 0
		i++
		if i < len(format) && format[i] == '%' {
			emitByte(w, '%')
			continue
		}
		for ; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}

		if i == len(format) {
			doWrite(w, errNoVerb)
			return
		}

		verb := format[i]
		switch verb {
		case 's', 'c', 't', 'o', 'd', 'x':
		default:
			doWrite(w, errNoVerb)
			continue
		}

		if argIndex >= len(args) {
			doWrite(w, errMissingArg)
			continue
		}

		switch verb {
		case 's':
			fmtString(w, args[argIndex], width)
		case 'c':
			fmtChar(w, args[argIndex])
		case 't':
			fmtBool(w, args[argIndex])
		case 'o':
			fmtInt(w, args[argIndex], 8, width)
		case 'd':
			fmtInt(w, args[argIndex], 10, width)
		case 'x':
			fmtInt(w, args[argIndex], 16, width)
		}
		argIndex++
	}

	for ; argIndex < len(args); argIndex++ {
		doWrite(w, errExtraArg)
	}
}

func sink() io.Writer {
	if outputSink == nil {
		return &earlyBuffer
	}
	return outputSink
}

// emitByte writes a single byte through the shared buffer to avoid the
// allocation that slicing a string would trigger.
func emitByte(w io.Writer, b byte) {
	singleByte[0] = b
	doWrite(w, singleByte)
}

func doWrite(w io.Writer, p []byte) {
	w.Write(p)
}

func fmtBool(w io.Writer, v interface{}) {
	bVal, ok := v.(bool)
	if !ok {
		doWrite(w, errWrongArgType)
		return
	}

	if bVal {
		doWrite(w, trueValue)
	} else {
		doWrite(w, falseValue)
	}
}

func fmtChar(w io.Writer, v interface{}) {
	switch c := v.(type) {
	case byte:
		emitByte(w, c)
	case rune:
		emitByte(w, byte(c))
	default:
		doWrite(w, errWrongArgType)
	}
}

func fmtString(w io.Writer, v interface{}, width int) {
	switch sVal := v.(type) {
	case string:
		padWith(w, ' ', width-len(sVal))
		for i := 0; i < len(sVal); i++ {
			emitByte(w, sVal[i])
		}
	case []byte:
		padWith(w, ' ', width-len(sVal))
		doWrite(w, sVal)
	default:
		doWrite(w, errWrongArgType)
	}
}

func fmtInt(w io.Writer, v interface{}, base, width int) {
	var uVal uint64

	switch iVal := v.(type) {
	case uint8:
		uVal = uint64(iVal)
	case uint16:
		uVal = uint64(iVal)
	case uint32:
		uVal = uint64(iVal)
	case uint64:
		uVal = iVal
	case uint:
		uVal = uint64(iVal)
	case uintptr:
		uVal = uint64(iVal)
	case int8:
		uVal = uint64(iVal)
	case int16:
		uVal = uint64(iVal)
	case int32:
		uVal = uint64(iVal)
	case int64:
		uVal = uint64(iVal)
	case int:
		uVal = uint64(iVal)
	default:
		doWrite(w, errWrongArgType)
		return
	}

	digits := 0
	for rem := uVal; ; rem /= uint64(base) {
		digit := rem % uint64(base)
		if digit < 10 {
			numBuf[len(numBuf)-1-digits] = byte('0' + digit)
		} else {
			numBuf[len(numBuf)-1-digits] = byte('a' + digit - 10)
		}
		digits++
		if rem < uint64(base) {
			break
		}
	}

	padChar := byte(' ')
	if base == 16 {
		padChar = '0'
	}
	padWith(w, padChar, width-digits)

	doWrite(w, numBuf[len(numBuf)-digits:])
}

func padWith(w io.Writer, pad byte, count int) {
	for ; count > 0; count-- {
		emitByte(w, pad)
	}
}
