// Package pmm implements the kernel's physical frame allocators.
package pmm

import (
	"github.com/emlaufer/juntos/kernel"
	"github.com/emlaufer/juntos/kernel/kfmt"
	"github.com/emlaufer/juntos/kernel/mm"
	"github.com/emlaufer/juntos/multiboot"
)

// maxFreeRegions bounds the number of free region entries that Init can
// track. Memory maps reported by real boot loaders contain a handful of
// entries so the fixed capacity is not a practical limitation.
const maxFreeRegions = 16

var (
	// earlyAllocator is the bump allocator used for frame allocations
	// before the bitmap allocator receives its arena.
	earlyAllocator BumpAllocator

	// bitmapAllocator is the standard allocator used by the kernel.
	bitmapAllocator BitmapAllocator

	// freeRegionList is the backing storage for the free region slices
	// handed to the allocators; Init runs before dynamic memory exists.
	freeRegionList [maxFreeRegions]mm.MemoryRegion

	errPmmNoUsableMemory = &kernel.Error{Module: "pmm", Message: "no usable memory regions reported by the boot loader"}

	// visitMemRegionsFn and infoRegionFn are overridden by tests to mock
	// calls to the multiboot package.
	visitMemRegionsFn = multiboot.VisitMemRegions
	infoRegionFn      = multiboot.InfoRegion
)

// Init sets up the kernel physical memory allocation sub-system using the
// memory map reported by the boot loader and the physical extents of the
// loaded kernel image.
//
// The available memory map entries are carved with region arithmetic so that
// the frames backing the kernel image and the multiboot info section are
// never handed out. The largest leftover region becomes the bitmap
// allocator's arena while the remaining regions seed the early bump
// allocator. Each allocator is registered with the mm package as its boot
// phase begins; once Init returns, the bitmap allocator serves all frame
// requests.
func Init(kernelStart, kernelEnd uintptr) *kernel.Error {
	printMemoryMap(kernelStart, kernelEnd)

	// Round the reserved extents outwards to whole pages
	reserved := [2]mm.MemoryRegion{pageRoundedRegion(kernelStart, kernelEnd)}
	reservedCount := 1
	if infoAddr, infoSize := infoRegionFn(); infoSize != 0 {
		reserved[1] = pageRoundedRegion(infoAddr, infoAddr+uintptr(infoSize))
		reservedCount = 2
	}

	regionCount := 0
	visitMemRegionsFn(func(entry *multiboot.MemoryMapEntry) bool {
		if entry.Type != multiboot.MemAvailable || entry.Length < uint64(mm.PageSize) {
			return true
		}

		free := mm.MemoryRegion{
			Base: mm.PhysicalAddress(entry.PhysAddress),
			Size: uintptr(entry.Length),
		}

		// Subtracting a region from a piece yields up to two leftover
		// pieces, so carving both reserved regions out of an entry
		// yields at most three.
		var pieces [3]mm.MemoryRegion
		pieces[0] = free
		pieceCount := 1

		for i := 0; i < reservedCount; i++ {
			var next [3]mm.MemoryRegion
			nextCount := 0
			for j := 0; j < pieceCount; j++ {
				sub, subCount := pieces[j].Subtract(reserved[i])
				for k := 0; k < subCount; k++ {
					next[nextCount] = sub[k]
					nextCount++
				}
			}
			pieces, pieceCount = next, nextCount
		}

		for i := 0; i < pieceCount; i++ {
			if regionCount == maxFreeRegions {
				kfmt.Printf("[pmm] warning: too many free memory regions; ignoring the rest\n")
				return false
			}

			freeRegionList[regionCount] = pieces[i]
			regionCount++
		}

		return true
	})

	if regionCount == 0 {
		return errPmmNoUsableMemory
	}

	// The largest free region becomes the bitmap allocator arena. Move it
	// to the end of the list so the early allocator can own a contiguous
	// prefix; the two allocators must never share frames.
	largest := 0
	for i := 1; i < regionCount; i++ {
		if freeRegionList[i].Size > freeRegionList[largest].Size {
			largest = i
		}
	}
	freeRegionList[largest], freeRegionList[regionCount-1] = freeRegionList[regionCount-1], freeRegionList[largest]
	arena := freeRegionList[regionCount-1]

	earlyAllocator.Init(freeRegionList[:regionCount-1])
	mm.SetFrameAllocator(&earlyAllocator)

	bitmapAllocator.Init(arena)
	mm.SetFrameAllocator(&bitmapAllocator)

	kfmt.Printf("[pmm] bitmap allocator arena: [0x%10x - 0x%10x]\n", uintptr(arena.Base), uintptr(arena.End()))
	return nil
}

// pageRoundedRegion returns the region covering [start, end) rounded
// outwards to whole pages.
func pageRoundedRegion(start, end uintptr) mm.MemoryRegion {
	region := mm.MemoryRegion{Base: mm.PhysicalAddress(start &^ (mm.PageSize - 1))}
	region.Size = uintptr(mm.PhysicalAddress(end).AlignUp(mm.PageSize) - region.Base)
	return region
}

// printMemoryMap logs the memory region information provided by the boot
// loader together with the kernel image extents.
func printMemoryMap(kernelStart, kernelEnd uintptr) {
	kfmt.Printf("[pmm] system memory map:\n")

	var totalFree uint64
	visitMemRegionsFn(func(entry *multiboot.MemoryMapEntry) bool {
		kfmt.Printf("\t[0x%10x - 0x%10x], size: %10d, type: %s\n", entry.PhysAddress, entry.PhysAddress+entry.Length, entry.Length, entry.Type.String())

		if entry.Type == multiboot.MemAvailable {
			totalFree += entry.Length
		}
		return true
	})

	kfmt.Printf("[pmm] free memory: %dKb\n", totalFree/1024)
	kfmt.Printf("[pmm] kernel loaded at 0x%x - 0x%x\n", kernelStart, kernelEnd)
}
