package vmm

import (
	"github.com/emlaufer/juntos/kernel"
	"github.com/emlaufer/juntos/kernel/cpu"
	"github.com/emlaufer/juntos/kernel/kfmt"
	"github.com/emlaufer/juntos/kernel/mm"
	"github.com/emlaufer/juntos/kernel/sync"
)

var (
	// flushTLBFn is used by tests to override calls to cpu.FlushTLB
	// which will cause a fault if called in user-mode.
	flushTLBFn = cpu.FlushTLB

	// kernelPageTable edits the PDT the boot loader handed to the
	// kernel; it is bound by Init and shared by all cores.
	kernelPageTable ActivePageTable
)

// ActivePageTable provides synchronized editing of the currently active page
// directory table. All table accesses go through the recursive mapping
// installed in the last PDT entry, so the editing methods only ever touch
// virtual addresses that the MMU resolves to the right physical frames.
type ActivePageTable struct {
	lock sync.Spinlock
	pdt  *pageTable
}

// Init binds the kernel page table editor to the currently active PDT via
// its recursive mapping.
func Init() *kernel.Error {
	kernelPageTable.pdt = tableForAddrFn(pdtVirtualAddr)
	kfmt.Printf("[vmm] editing active page table via recursive mapping at 0x%16x\n", pdtVirtualAddr)
	return nil
}

// ActiveTable returns the editor for the currently active page directory
// table. Init must have been called first.
func ActiveTable() *ActivePageTable {
	return &kernelPageTable
}

// Modify invokes fn with a Mapper for the active page directory table while
// holding the table lock. The TLB is flushed after fn returns so that every
// mapping edit made through the Mapper is visible to subsequent memory
// accesses; stale entries for unmapped pages never survive a Modify call.
func (apt *ActivePageTable) Modify(fn func(*Mapper) *kernel.Error) *kernel.Error {
	apt.lock.Acquire()
	defer apt.lock.Release()
	defer flushTLBFn()

	mapper := Mapper{pdt: apt.pdt}
	return fn(&mapper)
}

// Translate returns the physical address that the active page directory
// table maps the supplied virtual address to.
func (apt *ActivePageTable) Translate(virtAddr mm.VirtualAddress) (mm.PhysicalAddress, *kernel.Error) {
	apt.lock.Acquire()
	defer apt.lock.Release()

	mapper := Mapper{pdt: apt.pdt}
	return mapper.Translate(virtAddr)
}
