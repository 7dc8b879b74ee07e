package vmm

const (
	// pageLevels indicates the number of page table levels supported by
	// the amd64 architecture.
	pageLevels = 4

	// pageTableEntryCount is the number of entries in a page table at
	// any level. Each entry is indexed by 9 bits of the virtual address.
	pageTableEntryCount = 512

	// ptePhysPageMask is a mask that allows us to extract the physical
	// memory address pointed to by a page table entry. For this
	// particular architecture, bits 12-51 contain the physical memory
	// address.
	ptePhysPageMask = uintptr(0x000ffffffffff000)

	// pdtVirtualAddr is a special virtual address that exploits the
	// recursive mapping installed in the last PDT entry to access the
	// PDT (P4) table through the MMU's own translation mechanism. With
	// every page level index set to 511 the MMU keeps following the last
	// P4 entry for all page levels, landing back on the P4.
	pdtVirtualAddr = uintptr(0xfffffffffffff000)
)

const (
	// FlagPresent is set when the page is available in memory and not
	// swapped out.
	FlagPresent PageTableEntryFlag = 1 << iota

	// FlagRW is set if the page can be written to.
	FlagRW

	// FlagUserAccessible is set if user-mode processes can access this
	// page. If not set only kernel code can access this page.
	FlagUserAccessible

	// FlagWriteThroughCaching implies write-through caching when set and
	// write-back caching if cleared.
	FlagWriteThroughCaching

	// FlagDoNotCache prevents this page from being cached if set.
	FlagDoNotCache

	// FlagAccessed is set by the CPU when this page is accessed.
	FlagAccessed

	// FlagDirty is set by the CPU when this page is modified.
	FlagDirty

	// FlagHugePage is set when using 2Mb pages instead of 4K pages.
	FlagHugePage

	// FlagGlobal if set, prevents the TLB from flushing the cached memory
	// address for this page when swapping page tables by updating the CR3
	// register.
	FlagGlobal

	// FlagNoExecute if set, indicates that a page contains
	// non-executable code.
	FlagNoExecute = 1 << 63
)
