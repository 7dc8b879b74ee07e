// Package mm provides the address, frame, page and memory region types shared
// by the physical and virtual memory managers.
package mm

import (
	"math/bits"
	"unsafe"
)

// VirtualAddress describes a canonical virtual memory address: bits 48-63
// must be copies of bit 47 as required by 48-bit addressing. The constructors
// are the only places that enforce canonical form; all other code may treat a
// VirtualAddress value as known-good.
type VirtualAddress uintptr

// NewVirtualAddress wraps addr after verifying it is in canonical form.
// Passing a non-canonical address indicates a kernel logic bug and panics.
func NewVirtualAddress(addr uintptr) VirtualAddress {
	if !isCanonical(addr) {
		panic("mm: attempt to create non-canonical virtual address")
	}
	return VirtualAddress(addr)
}

// TruncateVirtualAddress wraps addr, forcibly sign-extending bit 47 into the
// upper 16 bits so that the result is always canonical.
func TruncateVirtualAddress(addr uintptr) VirtualAddress {
	return VirtualAddress(uintptr(int64(uint64(addr)<<16) >> 16))
}

// VirtualAddressFromPtr returns the canonical virtual address of ptr.
// Pointers produced by the running kernel are canonical by construction.
func VirtualAddressFromPtr(ptr unsafe.Pointer) VirtualAddress {
	return NewVirtualAddress(uintptr(ptr))
}

// Ptr returns this address as an untyped pointer.
func (v VirtualAddress) Ptr() unsafe.Pointer {
	return unsafe.Pointer(uintptr(v))
}

// Page returns the page that contains this address.
func (v VirtualAddress) Page() Page {
	return PageFromAddress(uintptr(v))
}

// isCanonical returns true if the upper 17 bits of addr are all zeroes or
// all ones, i.e. bits 48-63 replicate bit 47.
func isCanonical(addr uintptr) bool {
	return bits.LeadingZeros64(uint64(addr)) > 16 || bits.LeadingZeros64(^uint64(addr)) > 16
}

// PhysicalAddress describes an arbitrary physical memory address. Physical
// addresses carry no canonical-form constraint and are totally ordered by
// their numeric value.
type PhysicalAddress uintptr

// PhysicalAddressFromFrame returns the address of the first byte of frame.
func PhysicalAddressFromFrame(frame Frame) PhysicalAddress {
	return PhysicalAddress(frame.Address())
}

// Frame returns the physical frame that contains this address.
func (p PhysicalAddress) Frame() Frame {
	return FrameFromAddress(uintptr(p))
}

// Add returns the address offset bytes above this one.
func (p PhysicalAddress) Add(offset uintptr) PhysicalAddress {
	return p + PhysicalAddress(offset)
}

// AlignUp returns the smallest address greater than or equal to this one that
// is a multiple of align. The alignment must be a power of two; any other
// value indicates a kernel logic bug and panics. The computation biases the
// address before masking so that it cannot overflow for already-aligned
// values near the top of the address space.
func (p PhysicalAddress) AlignUp(align uintptr) PhysicalAddress {
	if bits.OnesCount64(uint64(align)) != 1 {
		panic("mm: alignment is not a power of two")
	}
	return PhysicalAddress((uintptr(p) + align - 1) &^ (align - 1))
}
