package pmm

import (
	"github.com/emlaufer/juntos/kernel"
	"github.com/emlaufer/juntos/kernel/mm"
	"github.com/emlaufer/juntos/kernel/sync"
)

var errBitmapAllocOutOfMemory = &kernel.Error{Module: "pmm", Message: "out of memory"}

// BitmapAllocator is a frame allocator that tracks the allocation state of
// every frame in its arena with a fixed-capacity bitmap. It supports both
// allocation and deallocation and serves as the kernel's general-purpose
// allocator once the boot sequence hands it an arena.
//
// The bitmap capacity may exceed the arena's frame count; the reverse is also
// possible for large arenas, in which case the frames past the bitmap
// capacity are simply never handed out. Every allocation therefore
// re-checks the arena bounds instead of trusting the bitmap alone.
type BitmapAllocator struct {
	lock sync.Spinlock

	bitmap fixedBitmap
	arena  mm.MemoryRegion

	initialized bool
}

// Init hands the allocator the arena it manages. Each allocator instance can
// be initialized exactly once; a second call indicates a kernel logic bug and
// panics.
func (alloc *BitmapAllocator) Init(arena mm.MemoryRegion) {
	alloc.lock.Acquire()
	defer alloc.lock.Release()

	if alloc.initialized {
		panic("pmm: bitmap allocator arena already initialized")
	}

	alloc.arena = arena
	alloc.initialized = true
}

// firstFrame returns the first page-aligned frame inside the arena. Bitmap
// index 0 corresponds to this frame.
func (alloc *BitmapAllocator) firstFrame() mm.Frame {
	return alloc.arena.FirstFrame()
}

// endFrame returns the first frame past the end of the arena.
func (alloc *BitmapAllocator) endFrame() mm.Frame {
	return alloc.arena.End().Frame()
}

// AllocFrame reserves the free frame closest to the start of the arena and
// returns it. It returns an error when no free frame exists, leaving the
// allocator state untouched.
func (alloc *BitmapAllocator) AllocFrame() (mm.Frame, *kernel.Error) {
	alloc.lock.Acquire()
	defer alloc.lock.Release()

	index, ok := alloc.bitmap.FirstUnset()
	if !ok {
		return mm.InvalidFrame, errBitmapAllocOutOfMemory
	}

	frame := alloc.firstFrame() + mm.Frame(index)
	if frame >= alloc.endFrame() {
		return mm.InvalidFrame, errBitmapAllocOutOfMemory
	}

	alloc.bitmap.Set(index)
	return frame, nil
}

// FreeFrame releases a frame previously returned by AllocFrame or
// AllocRegion. Releasing a frame outside the arena or one that is not
// currently allocated indicates a kernel logic bug and panics.
func (alloc *BitmapAllocator) FreeFrame(frame mm.Frame) {
	alloc.lock.Acquire()
	defer alloc.lock.Release()

	if frame < alloc.firstFrame() || frame >= alloc.endFrame() {
		panic("pmm: attempt to free frame outside of arena")
	}

	index := uintptr(frame - alloc.firstFrame())
	if !alloc.bitmap.IsSet(index) {
		panic("pmm: attempt to free unallocated frame")
	}

	alloc.bitmap.Unset(index)
}

// AllocRegion reserves the first contiguous run of frames covering size bytes
// and returns it as a region. It is used for carving out sub-arenas that
// other allocators or subsystems manage on their own. The size must be a
// multiple of the page size; any other value indicates a kernel logic bug and
// panics. An error is returned when no suitable run exists.
func (alloc *BitmapAllocator) AllocRegion(size uintptr) (mm.MemoryRegion, *kernel.Error) {
	if size&(mm.PageSize-1) != 0 {
		panic("pmm: allocation size is not a multiple of the page size")
	}

	alloc.lock.Acquire()
	defer alloc.lock.Release()

	numFrames := size >> mm.PageShift
	start, ok := alloc.bitmap.ContiguousRange(numFrames)
	if !ok {
		return mm.MemoryRegion{}, errBitmapAllocOutOfMemory
	}

	if alloc.firstFrame()+mm.Frame(start+numFrames) > alloc.endFrame() {
		return mm.MemoryRegion{}, errBitmapAllocOutOfMemory
	}

	for index := start; index < start+numFrames; index++ {
		alloc.bitmap.Set(index)
	}

	return mm.MemoryRegion{
		Base: mm.PhysicalAddressFromFrame(alloc.firstFrame() + mm.Frame(start)),
		Size: size,
	}, nil
}
