package vmm

import (
	"testing"

	"github.com/emlaufer/juntos/kernel"
	"github.com/emlaufer/juntos/kernel/cpu"
	"github.com/emlaufer/juntos/kernel/mm"
)

func TestActivePageTableModify(t *testing.T) {
	defer installFakeTables()()
	defer resetActiveTableState()

	var flushCount int
	flushTLBFn = func() { flushCount++ }

	if err := Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	apt := ActiveTable()
	if apt.pdt != tableForAddrFn(pdtVirtualAddr) {
		t.Fatal("expected the active table to edit the recursively mapped PDT")
	}

	// The TLB is flushed even when the closure makes no edits.
	if err := apt.Modify(func(_ *Mapper) *kernel.Error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flushCount != 1 {
		t.Fatalf("expected one TLB flush; got %d", flushCount)
	}

	// Errors from the closure propagate and still flush.
	errModify := &kernel.Error{Module: "test", Message: "modify failed"}
	if err := apt.Modify(func(_ *Mapper) *kernel.Error { return errModify }); err != errModify {
		t.Fatalf("expected the closure error to propagate; got %v", err)
	}
	if flushCount != 2 {
		t.Fatalf("expected two TLB flushes; got %d", flushCount)
	}

	// The table lock is free again after Modify returns.
	if !apt.lock.TryToAcquire() {
		t.Fatal("expected the table lock to be released after Modify")
	}
	apt.lock.Release()
}

func TestActivePageTableMapUnmapTranslate(t *testing.T) {
	defer installFakeTables()()
	defer resetActiveTableState()

	var flushCount int
	flushTLBFn = func() { flushCount++ }

	if err := Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var (
		alloc = stubFrameAllocator{nextFrame: 0x10}
		apt   = ActiveTable()
		page  = testPage()
	)

	err := apt.Modify(func(mapper *Mapper) *kernel.Error {
		return mapper.Map(page, 0xbeef, FlagRW, &alloc)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	virtAddr := mm.VirtualAddress(uintptr(page.VirtualAddress()) + 0x42)
	addr, err := apt.Translate(virtAddr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp := mm.PhysicalAddress(0xbeef000 + 0x42); addr != exp {
		t.Fatalf("expected translation to return 0x%x; got 0x%x", uintptr(exp), uintptr(addr))
	}

	err = apt.Modify(func(mapper *Mapper) *kernel.Error {
		return mapper.Unmap(page)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err = apt.Translate(virtAddr); err != ErrInvalidMapping {
		t.Fatalf("expected translation of an unmapped page to fail; got %v", err)
	}

	if flushCount != 2 {
		t.Fatalf("expected one TLB flush per Modify call; got %d", flushCount)
	}
}

func resetActiveTableState() {
	flushTLBFn = cpu.FlushTLB
	kernelPageTable = ActivePageTable{}
}
