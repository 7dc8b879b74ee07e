package vmm

import (
	"unsafe"

	"github.com/emlaufer/juntos/kernel"
	"github.com/emlaufer/juntos/kernel/mm"
)

var (
	// tableForAddrFn converts a recursively mapped table address into a
	// page table pointer. It is used by tests to substitute fake tables
	// for the MMU-translated ones. When compiling the kernel this
	// function will be automatically inlined.
	tableForAddrFn = func(tableAddr uintptr) *pageTable {
		return (*pageTable)(unsafe.Pointer(tableAddr))
	}

	errNoHugePageSupport = &kernel.Error{Module: "vmm", Message: "huge pages are not supported"}
)

// pageTable describes a page table at any level of the paging hierarchy.
// Table contents are always accessed through their recursively mapped
// virtual addresses so the MMU resolves the physical frame that backs them.
type pageTable struct {
	entries [pageTableEntryCount]pageTableEntry
}

// nextTableAddr returns the recursively mapped virtual address of the table
// pointed to by the entry at index. Shifting the table's own virtual address
// right by the pointer width and merging the entry index before shifting back
// into the address bits strips one level of indirection from the recursive
// mapping, which makes the MMU resolve one table further down the hierarchy.
func (pt *pageTable) nextTableAddr(index uintptr) uintptr {
	return ((uintptr(unsafe.Pointer(pt)) >> mm.PointerShift) | index) << mm.PageShift
}

// nextTable returns the table pointed to by the entry at index or an error
// when the entry does not point to a present, non-huge table.
func (pt *pageTable) nextTable(index uintptr, errMissing *kernel.Error) (*pageTable, *kernel.Error) {
	entry := pt.entries[index]
	if !entry.HasFlags(FlagPresent) {
		return nil, errMissing
	}
	if entry.HasFlags(FlagHugePage) {
		return nil, errNoHugePageSupport
	}

	return tableForAddrFn(pt.nextTableAddr(index)), nil
}

// createNextTable returns the table pointed to by the entry at index,
// allocating, mapping and clearing a fresh frame for it when the entry is not
// present. Intermediate tables are always mapped writable and user-accessible;
// access control is enforced by the leaf entry flags.
func (pt *pageTable) createNextTable(index uintptr, alloc mm.FrameAllocator) (*pageTable, *kernel.Error) {
	entry := &pt.entries[index]
	if entry.HasFlags(FlagPresent) {
		if entry.HasFlags(FlagHugePage) {
			return nil, errNoHugePageSupport
		}
		return tableForAddrFn(pt.nextTableAddr(index)), nil
	}

	frame, err := alloc.AllocFrame()
	if err != nil {
		return nil, err
	}

	*entry = 0
	entry.SetFrame(frame)
	entry.SetFlags(FlagPresent | FlagRW | FlagUserAccessible)

	// The new table becomes reachable through the recursive mapping once
	// the entry is present; it still holds whatever the frame contained.
	next := tableForAddrFn(pt.nextTableAddr(index))
	kernel.Memset(uintptr(unsafe.Pointer(next)), 0, mm.PageSize)

	return next, nil
}
