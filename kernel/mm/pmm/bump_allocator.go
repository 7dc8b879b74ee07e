package pmm

import (
	"github.com/emlaufer/juntos/kernel"
	"github.com/emlaufer/juntos/kernel/mm"
	"github.com/emlaufer/juntos/kernel/sync"
)

var errBumpAllocOutOfMemory = &kernel.Error{Module: "pmm", Message: "out of memory"}

// BumpAllocator is a frame allocator that hands out the whole frames of a
// sequence of free memory regions in monotonically increasing order. It is
// used to bootstrap the kernel before the bitmap allocator can take over.
//
// Due to the way that the allocator works, it is not possible to free
// allocated frames. Once the kernel is properly initialized, frame
// reservations are handed over to the bitmap allocator which does support
// freeing.
type BumpAllocator struct {
	lock sync.Spinlock

	freeRegions []mm.MemoryRegion
	regionIndex int

	// nextFrame and framesLeft form the cursor into the page sequence of
	// the current region.
	nextFrame  mm.Frame
	framesLeft uintptr

	initialized bool
}

// Init hands the allocator the sequence of free regions it draws frames
// from. Each allocator instance can be initialized exactly once; a second
// call indicates a kernel logic bug and panics.
func (alloc *BumpAllocator) Init(freeRegions []mm.MemoryRegion) {
	alloc.lock.Acquire()
	defer alloc.lock.Release()

	if alloc.initialized {
		panic("pmm: bump allocator regions already initialized")
	}

	alloc.freeRegions = freeRegions
	alloc.initialized = true
	alloc.loadRegion()
}

// loadRegion points the frame cursor at the current region. Regions too
// small to contain a whole frame yield a zero framesLeft causing AllocFrame
// to skip over them.
func (alloc *BumpAllocator) loadRegion() {
	if alloc.regionIndex >= len(alloc.freeRegions) {
		return
	}

	region := alloc.freeRegions[alloc.regionIndex]
	alloc.nextFrame = region.FirstFrame()
	alloc.framesLeft = region.FrameCount()
}

// AllocFrame reserves the next frame of the current region, advancing to the
// next free region when the current one is exhausted. Once every region has
// been consumed the allocator permanently reports an out of memory error.
func (alloc *BumpAllocator) AllocFrame() (mm.Frame, *kernel.Error) {
	alloc.lock.Acquire()
	defer alloc.lock.Release()

	for alloc.regionIndex < len(alloc.freeRegions) {
		if alloc.framesLeft > 0 {
			frame := alloc.nextFrame
			alloc.nextFrame++
			alloc.framesLeft--
			return frame, nil
		}

		alloc.regionIndex++
		alloc.loadRegion()
	}

	return mm.InvalidFrame, errBumpAllocOutOfMemory
}

// FreeFrame always panics: the bump allocation strategy is intentionally
// incapable of reclaiming frames.
func (alloc *BumpAllocator) FreeFrame(_ mm.Frame) {
	panic("pmm: bump allocator cannot free frames")
}
