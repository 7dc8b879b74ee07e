package pmm

import (
	"github.com/emlaufer/juntos/kernel"
	"github.com/emlaufer/juntos/kernel/mm"
)

// OwnedFrame couples an allocated frame with a release obligation back to
// the allocator that produced it. As Go provides no destructors, holders
// must call Release exactly once when they are done with the frame; the
// producing allocator's bookkeeping catches a second release (or a release
// of a frame it never handed out) and panics.
type OwnedFrame struct {
	frame mm.Frame
	alloc mm.FrameAllocator
}

// AllocOwned reserves a frame from alloc and stamps it with the release
// obligation to the same allocator.
func AllocOwned(alloc mm.FrameAllocator) (OwnedFrame, *kernel.Error) {
	frame, err := alloc.AllocFrame()
	if err != nil {
		return OwnedFrame{frame: mm.InvalidFrame}, err
	}

	return OwnedFrame{frame: frame, alloc: alloc}, nil
}

// Frame returns the underlying frame.
func (f OwnedFrame) Frame() mm.Frame {
	return f.frame
}

// Address returns the physical address of the first byte of the frame.
func (f OwnedFrame) Address() mm.PhysicalAddress {
	return mm.PhysicalAddressFromFrame(f.frame)
}

// Release returns the frame to the allocator that produced it.
func (f OwnedFrame) Release() {
	f.alloc.FreeFrame(f.frame)
}
