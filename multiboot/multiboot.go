// Package multiboot provides access to the information passed by a
// multiboot2-compliant boot loader. The kernel only consumes the memory map
// tag; all other tags are skipped over.
package multiboot

import "unsafe"

// infoData points to the boot loader-provided multiboot info section.
var infoData uintptr

// info describes the multiboot info section header.
type info struct {
	// Total size of the multiboot info section.
	totalSize uint32

	// Always set to zero; reserved for future use.
	reserved uint32
}

type tagType uint32

// nolint
const (
	tagSectionEnd tagType = iota
	tagBootCmdLine
	tagBootLoaderName
	tagModules
	tagBasicMemoryInfo
	tagBiosBootDevice
	tagMemoryMap
	tagVbeInfo
	tagFramebufferInfo
	tagElfSymbols
	tagApmTable
)

// tagHeader precedes the contents of each tag. Tags always begin at 8-byte
// aligned addresses; the size field excludes the alignment padding.
type tagHeader struct {
	tagType tagType
	size    uint32
}

// mmapHeader describes the layout of the entries in the memory map tag.
type mmapHeader struct {
	entrySize    uint32
	entryVersion uint32
}

// MemoryEntryType defines the type of a MemoryMapEntry.
type MemoryEntryType uint32

const (
	// MemAvailable indicates that the memory region is available for use.
	MemAvailable MemoryEntryType = iota + 1

	// MemReserved indicates that the memory region is not available for use.
	MemReserved

	// MemAcpiReclaimable indicates a memory region that holds ACPI info
	// that can be reused by the OS.
	MemAcpiReclaimable

	// MemNvs indicates memory that must be preserved when hibernating.
	MemNvs

	// Any value >= memUnknown will be mapped to MemReserved.
	memUnknown
)

// String implements fmt.Stringer for MemoryEntryType.
func (t MemoryEntryType) String() string {
	switch t {
	case MemAvailable:
		return "available"
	case MemReserved:
		return "reserved"
	case MemAcpiReclaimable:
		return "ACPI (reclaimable)"
	case MemNvs:
		return "NVS"
	default:
		return "unknown"
	}
}

// MemoryMapEntry describes a memory region entry, namely its physical
// address, its length and its type.
type MemoryMapEntry struct {
	// The physical address for this memory region.
	PhysAddress uint64

	// The length of the memory region.
	Length uint64

	// The type of this entry.
	Type MemoryEntryType
}

// MemRegionVisitor defines a visitor function that gets invoked by
// VisitMemRegions for each memory region provided by the boot loader. The
// visitor must return true to continue or false to abort the scan.
type MemRegionVisitor func(*MemoryMapEntry) bool

// SetInfoPtr updates the internal multiboot information pointer to the given
// value. This function must be invoked before invoking any other function
// exported by this package.
func SetInfoPtr(ptr uintptr) {
	infoData = ptr
}

// InfoRegion returns the physical address and total size of the multiboot
// info section. The kernel must not hand out the frames backing it while the
// boot loader data is still being consumed. A zero size is reported when no
// info pointer has been set.
func InfoRegion() (uintptr, uint32) {
	if infoData == 0 {
		return 0, 0
	}

	return infoData, (*info)(unsafe.Pointer(infoData)).totalSize
}

// VisitMemRegions invokes the supplied visitor for each memory region
// defined by the multiboot info data received from the boot loader.
func VisitMemRegions(visitor MemRegionVisitor) {
	curPtr, size := findTagByType(tagMemoryMap)
	if size == 0 {
		return
	}

	// curPtr points to the memory map header (2 dwords long)
	ptrMapHeader := (*mmapHeader)(unsafe.Pointer(curPtr))
	endPtr := curPtr + uintptr(size)
	curPtr += 8

	for curPtr != endPtr {
		entry := (*MemoryMapEntry)(unsafe.Pointer(curPtr))

		// Mark unknown entry types as reserved
		if entry.Type == 0 || entry.Type > memUnknown {
			entry.Type = MemReserved
		}

		if !visitor(entry) {
			return
		}

		curPtr += uintptr(ptrMapHeader.entrySize)
	}
}

// VisitAvailableRegions invokes the supplied visitor for each memory region
// that the boot loader reports as available for use, skipping entries of any
// other type.
func VisitAvailableRegions(visitor MemRegionVisitor) {
	VisitMemRegions(func(entry *MemoryMapEntry) bool {
		if entry.Type != MemAvailable {
			return true
		}

		return visitor(entry)
	})
}

// findTagByType scans the multiboot info data looking for the start of the
// tag with the specified type. It returns a pointer to the tag contents and
// the content length excluding the tag header, or (0, 0) when the info data
// does not contain such a tag.
func findTagByType(tagType tagType) (uintptr, uint32) {
	var ptrTagHeader *tagHeader

	curPtr := infoData + 8
	for ptrTagHeader = (*tagHeader)(unsafe.Pointer(curPtr)); ptrTagHeader.tagType != tagSectionEnd; ptrTagHeader = (*tagHeader)(unsafe.Pointer(curPtr)) {
		if ptrTagHeader.tagType == tagType {
			return curPtr + 8, ptrTagHeader.size - 8
		}

		// Tags are aligned at 8-byte aligned addresses
		curPtr += uintptr(int32(ptrTagHeader.size+7) & ^7)
	}

	return 0, 0
}
