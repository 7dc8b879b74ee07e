package kfmt

import (
	"bytes"
	"testing"
)

func TestPrintf(t *testing.T) {
	specs := []struct {
		format string
		args   []interface{}
		exp    string
	}{
		{"no formatting", nil, "no formatting"},
		{"%s and %s", []interface{}{"foo", []byte("bar")}, "foo and bar"},
		{"%5s", []interface{}{"abc"}, "  abc"},
		{"%c%c", []interface{}{byte('o'), 'k'}, "ok"},
		{"%t %t", []interface{}{true, false}, "true false"},
		{"%d", []interface{}{0}, "0"},
		{"%d", []interface{}{-1}, "18446744073709551615"},
		{"%3d", []interface{}{42}, " 42"},
		{"%o", []interface{}{uint8(0o777 & 0xff)}, "377"},
		{"%o", []interface{}{uintptr(0o246135654321)}, "246135654321"},
		{"%x", []interface{}{uint64(0xbadf00d)}, "badf00d"},
		{"%10x", []interface{}{uint32(0xf00)}, "0000000f00"},
		{"100%% sure", nil, "100% sure"},
		{"%d", nil, "(MISSING)"},
		{"", []interface{}{"extra"}, "%!(EXTRA)"},
		{"%d", []interface{}{"nan"}, "%!(WRONGTYPE)"},
		{"%t", []interface{}{1}, "%!(WRONGTYPE)"},
		{"%s", []interface{}{42}, "%!(WRONGTYPE)"},
		{"%q", []interface{}{"unsupported verb"}, "%!(NOVERB)%!(EXTRA)"},
	}

	var buf bytes.Buffer
	for specIndex, spec := range specs {
		buf.Reset()
		Fprintf(&buf, spec.format, spec.args...)

		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected output %q; got %q", specIndex, spec.exp, got)
		}
	}
}

func TestPrintfIntTypes(t *testing.T) {
	specs := []struct {
		arg interface{}
		exp string
	}{
		{uint8(8), "8"},
		{uint16(16), "16"},
		{uint32(32), "32"},
		{uint64(64), "64"},
		{uint(1), "1"},
		{uintptr(4096), "4096"},
		{int8(-8), "18446744073709551608"},
		{int16(16), "16"},
		{int32(32), "32"},
		{int64(64), "64"},
		{int(123), "123"},
	}

	var buf bytes.Buffer
	for specIndex, spec := range specs {
		buf.Reset()
		Fprintf(&buf, "%d", spec.arg)

		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected output %q; got %q", specIndex, spec.exp, got)
		}
	}
}

func TestEarlyOutputBuffering(t *testing.T) {
	defer func() {
		SetOutputSink(nil)
		earlyBuffer.rIndex = 0
		earlyBuffer.wIndex = 0
	}()

	SetOutputSink(nil)
	Printf("buffered: %d\n", 123)

	// Attaching a sink must drain the early buffer into it
	var buf bytes.Buffer
	SetOutputSink(&buf)

	if exp, got := "buffered: 123\n", buf.String(); got != exp {
		t.Fatalf("expected attaching an output sink to drain %q from the early buffer; got %q", exp, got)
	}

	Printf("direct: %d\n", 456)
	if exp, got := "buffered: 123\ndirect: 456\n", buf.String(); got != exp {
		t.Fatalf("expected output %q; got %q", exp, got)
	}
}
