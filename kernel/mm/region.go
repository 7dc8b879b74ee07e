package mm

// MemoryRegion describes an exclusively owned, contiguous physical memory
// range [Base, Base+Size). Regions are value types; the mutating operations
// (Take) are defined on pointers and never produce two regions that alias the
// same bytes.
type MemoryRegion struct {
	Base PhysicalAddress
	Size uintptr
}

// End returns the first address past the end of this region.
func (r MemoryRegion) End() PhysicalAddress {
	return r.Base.Add(r.Size)
}

// Take removes amount bytes from the beginning of this region and returns
// them as a new region. Taking more bytes than the region holds indicates a
// kernel logic bug and panics.
func (r *MemoryRegion) Take(amount uintptr) MemoryRegion {
	if amount > r.Size {
		panic("mm: take amount exceeds region size")
	}

	taken := MemoryRegion{Base: r.Base, Size: amount}
	r.Base = r.Base.Add(amount)
	r.Size -= amount
	return taken
}

// Contains returns true if this region fully contains other.
func (r MemoryRegion) Contains(other MemoryRegion) bool {
	return r.Base <= other.Base && other.End() <= r.End()
}

// ContainsFrame returns true if frame lies entirely within this region.
func (r MemoryRegion) ContainsFrame(frame Frame) bool {
	frameStart := PhysicalAddress(frame.Address())
	return r.Base <= frameStart && frameStart.Add(PageSize) <= r.End()
}

// Intersection returns the overlap between this region and other. The second
// return value is false when the regions do not overlap; regions that merely
// touch at an edge do not overlap.
func (r MemoryRegion) Intersection(other MemoryRegion) (MemoryRegion, bool) {
	base := r.Base
	if other.Base > base {
		base = other.Base
	}

	end := r.End()
	if otherEnd := other.End(); otherEnd < end {
		end = otherEnd
	}

	if end <= base {
		return MemoryRegion{}, false
	}
	return MemoryRegion{Base: base, Size: uintptr(end - base)}, true
}

// Subtract removes the part of this region that overlaps other and returns
// the leftover pieces in ascending address order together with their count.
// The overlap classifies into exactly one of four shapes:
//
//   - no overlap: this region is returned unchanged
//   - interior overlap: the leftover head and tail pieces are returned
//   - head overlap: only the leftover tail piece is returned
//   - tail overlap: only the leftover head piece is returned
//
// Zero-length leftovers are suppressed, so an interior overlap that touches
// one or both region edges produces one or zero pieces.
func (r MemoryRegion) Subtract(other MemoryRegion) ([2]MemoryRegion, int) {
	var pieces [2]MemoryRegion

	overlap, ok := r.Intersection(other)
	if !ok {
		pieces[0] = r
		return pieces, 1
	}

	count := 0
	if overlap.Base > r.Base {
		pieces[count] = MemoryRegion{Base: r.Base, Size: uintptr(overlap.Base - r.Base)}
		count++
	}
	if overlapEnd := overlap.End(); overlapEnd < r.End() {
		pieces[count] = MemoryRegion{Base: overlapEnd, Size: uintptr(r.End() - overlapEnd)}
		count++
	}

	return pieces, count
}

// FirstFrame returns the first whole frame inside this region. Regions too
// small to cover a full page-aligned frame have no frames; callers must
// consult FrameCount before using the returned value.
func (r MemoryRegion) FirstFrame() Frame {
	return r.Base.AlignUp(PageSize).Frame()
}

// FrameCount returns the number of whole frames contained in this region.
func (r MemoryRegion) FrameCount() uintptr {
	firstFrameAddr := r.Base.AlignUp(PageSize)
	lastFrameEnd := PhysicalAddress(uintptr(r.End()) &^ (PageSize - 1))
	if lastFrameEnd <= firstFrameAddr {
		return 0
	}
	return uintptr(lastFrameEnd-firstFrameAddr) >> PageShift
}
