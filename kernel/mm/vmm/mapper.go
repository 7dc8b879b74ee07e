package vmm

import (
	"github.com/emlaufer/juntos/kernel"
	"github.com/emlaufer/juntos/kernel/mm"
)

var (
	// ErrInvalidMapping is returned when trying to lookup a virtual
	// memory address that is not yet mapped.
	ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "virtual address does not point to a mapped physical page"}

	errL3TableNotMapped = &kernel.Error{Module: "vmm", Message: "L3 page table not mapped"}
	errL2TableNotMapped = &kernel.Error{Module: "vmm", Message: "L2 page table not mapped"}
	errL1TableNotMapped = &kernel.Error{Module: "vmm", Message: "L1 page table not mapped"}

	// missingTableErr maps the level of an absent intermediate table to
	// the error reported for it.
	missingTableErr = [pageLevels]*kernel.Error{
		1: errL1TableNotMapped,
		2: errL2TableNotMapped,
		3: errL3TableNotMapped,
	}
)

// Mapper edits the mappings of a page directory table. Mapper methods do not
// synchronize access to the tables nor do they flush the TLB; both are the
// responsibility of ActivePageTable.Modify which hands out Mapper values to
// its callers.
type Mapper struct {
	pdt *pageTable
}

// Map establishes a mapping between a virtual page and a physical memory
// frame. Missing page tables at each intermediate paging level are allocated
// on the fly using the supplied physical frame allocator.
func (m *Mapper) Map(page mm.Page, frame mm.Frame, flags PageTableEntryFlag, alloc mm.FrameAllocator) *kernel.Error {
	var err *kernel.Error

	table := m.pdt
	for level := pageLevels; level > 1; level-- {
		if table, err = table.createNextTable(page.TableIndex(level), alloc); err != nil {
			return err
		}
	}

	entry := &table.entries[page.TableIndex(1)]
	*entry = 0
	entry.SetFrame(frame)
	entry.SetFlags(flags | FlagPresent)
	return nil
}

// MapNoAlloc establishes a mapping between a virtual page and a physical
// memory frame using only the page tables that already exist. An absent
// intermediate table makes the mapping fail with an error identifying the
// missing level.
func (m *Mapper) MapNoAlloc(page mm.Page, frame mm.Frame, flags PageTableEntryFlag) *kernel.Error {
	table, err := m.leafTable(page)
	if err != nil {
		return err
	}

	entry := &table.entries[page.TableIndex(1)]
	*entry = 0
	entry.SetFrame(frame)
	entry.SetFlags(flags | FlagPresent)
	return nil
}

// Unmap removes the mapping for a virtual page. The intermediate tables that
// served the mapping are left in place for future mappings; only the leaf
// entry is cleared. Unmapping a page that is not mapped is an error.
func (m *Mapper) Unmap(page mm.Page) *kernel.Error {
	table, err := m.leafTable(page)
	if err != nil {
		return err
	}

	entry := &table.entries[page.TableIndex(1)]
	if !entry.HasFlags(FlagPresent) {
		return ErrInvalidMapping
	}

	*entry = 0
	return nil
}

// Translate returns the physical address that corresponds to the supplied
// virtual address or ErrInvalidMapping if the virtual address does not
// correspond to a mapped physical address.
func (m *Mapper) Translate(virtAddr mm.VirtualAddress) (mm.PhysicalAddress, *kernel.Error) {
	table, err := m.leafTable(virtAddr.Page())
	if err != nil {
		return 0, ErrInvalidMapping
	}

	entry := table.entries[virtAddr.Page().TableIndex(1)]
	if !entry.HasFlags(FlagPresent) {
		return 0, ErrInvalidMapping
	}

	return mm.PhysicalAddressFromFrame(entry.Frame()).Add(uintptr(virtAddr) & (mm.PageSize - 1)), nil
}

// leafTable walks the existing tables down to the L1 table covering page.
func (m *Mapper) leafTable(page mm.Page) (*pageTable, *kernel.Error) {
	var err *kernel.Error

	table := m.pdt
	for level := pageLevels; level > 1; level-- {
		if table, err = table.nextTable(page.TableIndex(level), missingTableErr[level-1]); err != nil {
			return nil, err
		}
	}

	return table, nil
}
