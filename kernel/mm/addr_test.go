package mm

import (
	"runtime"
	"testing"
	"unsafe"
)

func TestNewVirtualAddress(t *testing.T) {
	if runtime.GOARCH != "amd64" {
		t.Skip("test requires amd64 runtime; skipping")
	}

	specs := []struct {
		input     uintptr
		canonical bool
	}{
		{0, true},
		{0x0000_7fff_ffff_ffff, true},
		{0xffff_8000_0000_0000, true},
		{0xffff_eaaa_aaaa_aaaa, true},
		{0xffff_ffff_ffff_f000, true},
		{0x0000_8000_0000_0000, false},
		{0xffff_7aaa_aaaa_aaaa, false},
		{0x0001_0000_0000_0000, false},
	}

	for specIndex, spec := range specs {
		func() {
			defer func() {
				if err := recover(); err != nil && spec.canonical {
					t.Errorf("[spec %d] unexpected panic for canonical address %x: %v", specIndex, spec.input, err)
				} else if err == nil && !spec.canonical {
					t.Errorf("[spec %d] expected NewVirtualAddress(%x) to panic", specIndex, spec.input)
				}
			}()

			addr := NewVirtualAddress(spec.input)
			if got := uintptr(addr); got != spec.input {
				t.Errorf("[spec %d] expected raw round-trip to be the identity; got %x", specIndex, got)
			}
		}()
	}
}

func TestTruncateVirtualAddress(t *testing.T) {
	if runtime.GOARCH != "amd64" {
		t.Skip("test requires amd64 runtime; skipping")
	}

	specs := []struct {
		input uintptr
		exp   VirtualAddress
	}{
		// canonical inputs pass through unchanged
		{0xffff_eaaa_aaaa_aaaa, VirtualAddress(0xffff_eaaa_aaaa_aaaa)},
		{0x0000_7fff_ffff_ffff, VirtualAddress(0x0000_7fff_ffff_ffff)},
		// bit 47 is sign-extended into bits 48-63
		{0xffff_7aaa_aaaa_aaaa, VirtualAddress(0x0000_7aaa_aaaa_aaaa)},
		{0x0000_8000_0000_0000, VirtualAddress(0xffff_8000_0000_0000)},
	}

	for specIndex, spec := range specs {
		got := TruncateVirtualAddress(spec.input)
		if got != spec.exp {
			t.Errorf("[spec %d] expected TruncateVirtualAddress(%x) to return %x; got %x", specIndex, spec.input, spec.exp, got)
		}

		// truncated addresses must satisfy the canonical constructor
		NewVirtualAddress(uintptr(got))
	}
}

func TestVirtualAddressPtrRoundTrip(t *testing.T) {
	var dummy uint64

	addr := VirtualAddressFromPtr(unsafe.Pointer(&dummy))
	if got := addr.Ptr(); got != unsafe.Pointer(&dummy) {
		t.Fatalf("expected pointer round-trip to be the identity; got %v", got)
	}
}

func TestPhysicalAddressAlignUp(t *testing.T) {
	for _, align := range []uintptr{1, 2, 8, 512, PageSize, 1 << 21} {
		for _, addr := range []PhysicalAddress{0, 1, 0x1300, 0x2000, 0x3283_2929_1234_1323} {
			got := addr.AlignUp(align)

			if got < addr {
				t.Errorf("expected %x.AlignUp(%x) >= %x; got %x", addr, align, addr, got)
			}

			if uintptr(got)%align != 0 {
				t.Errorf("expected %x.AlignUp(%x) to be a multiple of %x; got %x", addr, align, align, got)
			}

			if delta := uintptr(got - addr); delta >= align {
				t.Errorf("expected %x.AlignUp(%x) to round up by less than %x; got delta %x", addr, align, align, delta)
			}
		}
	}

	if exp, got := PhysicalAddress(0x3283_2929_1234_2000), PhysicalAddress(0x3283_2929_1234_1323).AlignUp(4096); got != exp {
		t.Errorf("expected AlignUp(4096) to return %x; got %x", exp, got)
	}
}

func TestPhysicalAddressAlignUpPanicsOnNonPowerOfTwo(t *testing.T) {
	defer func() {
		if err := recover(); err == nil {
			t.Fatal("expected AlignUp with a non power-of-two alignment to panic")
		}
	}()

	PhysicalAddress(0x1300).AlignUp(3)
}

func TestPhysicalAddressFrameRoundTrip(t *testing.T) {
	for _, frame := range []Frame{0, 1, 0x1f, 0xbadf00} {
		addr := PhysicalAddressFromFrame(frame)

		if got := addr.Frame(); got != frame {
			t.Errorf("expected frame round-trip for frame %x to be the identity; got %x", frame, got)
		}

		// addresses within the frame map back to the same frame
		if got := addr.Add(PageSize - 1).Frame(); got != frame {
			t.Errorf("expected last byte of frame %x to map back to it; got %x", frame, got)
		}
	}
}
