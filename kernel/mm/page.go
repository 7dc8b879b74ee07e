package mm

import (
	"math"

	"github.com/emlaufer/juntos/kernel"
)

// Frame describes a physical memory page index.
type Frame uintptr

const (
	// InvalidFrame is returned by frame allocators when
	// they fail to reserve the requested frame.
	InvalidFrame = Frame(math.MaxUint64)
)

// Valid returns true if this is a valid frame.
func (f Frame) Valid() bool {
	return f != InvalidFrame
}

// Address returns a pointer to the physical memory address pointed to by this Frame.
func (f Frame) Address() uintptr {
	return uintptr(f << PageShift)
}

// FrameFromAddress returns a Frame that corresponds to the given physical
// address. This function can handle both page-aligned and not aligned
// addresses. In the latter case, the input address will be rounded down to
// the frame that contains it.
func FrameFromAddress(physAddr uintptr) Frame {
	return Frame((physAddr & ^(PageSize - 1)) >> PageShift)
}

// Page describes a virtual memory page index.
type Page uintptr

// Address returns a pointer to the virtual memory address pointed to by this Page.
func (p Page) Address() uintptr {
	return uintptr(p << PageShift)
}

// VirtualAddress returns the canonical virtual address of the first byte of
// this page.
func (p Page) VirtualAddress() VirtualAddress {
	return TruncateVirtualAddress(p.Address())
}

// TableIndex returns the 9-bit page table index encoded in this page number
// for the given paging level. Level 4 selects an entry in the top-most table
// (bits 27-35 of the page number), level 1 an entry in the final table (bits
// 0-8). Each index mirrors the 512-entry table width at every level.
func (p Page) TableIndex(level int) uintptr {
	return (uintptr(p) >> (uintptr(level-1) * 9)) & 0o777
}

// PageFromAddress returns a Page that corresponds to the given virtual
// address. This function can handle both page-aligned and not aligned virtual
// addresses. In the latter case, the input address will be rounded down to the
// page that contains it.
func PageFromAddress(virtAddr uintptr) Page {
	return Page((virtAddr & ^(PageSize - 1)) >> PageShift)
}

// FrameAllocator is the capability required for reserving and releasing
// physical frames. The physical memory manager provides interchangeable
// strategy implementations behind this interface.
//
// AllocFrame reserves the next available frame, returning an error when the
// allocator is exhausted. FreeFrame releases a frame previously returned by
// AllocFrame on the same allocator; releasing a foreign or already-free frame
// is a contract violation that panics.
type FrameAllocator interface {
	AllocFrame() (Frame, *kernel.Error)
	FreeFrame(frame Frame)
}

var (
	// frameAllocator tracks the allocator registered for the current boot
	// phase via SetFrameAllocator.
	frameAllocator FrameAllocator
)

// SetFrameAllocator registers the frame allocator for the current boot phase.
// Code that needs a frame but does not care about the backing strategy uses
// AllocFrame/FreeFrame which delegate to the registered allocator.
func SetFrameAllocator(alloc FrameAllocator) { frameAllocator = alloc }

// AllocFrame allocates a new physical frame using the currently registered
// frame allocator.
func AllocFrame() (Frame, *kernel.Error) { return frameAllocator.AllocFrame() }

// FreeFrame releases a frame back to the currently registered frame allocator.
func FreeFrame(frame Frame) { frameAllocator.FreeFrame(frame) }
