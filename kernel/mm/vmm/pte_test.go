package vmm

import (
	"testing"

	"github.com/emlaufer/juntos/kernel/mm"
)

func TestPageTableEntryFlags(t *testing.T) {
	var entry pageTableEntry

	if entry.HasAnyFlag(FlagPresent | FlagRW) {
		t.Error("expected HasAnyFlag to return false for an empty entry")
	}

	entry.SetFlags(FlagPresent | FlagRW)

	if !entry.HasFlags(FlagPresent | FlagRW) {
		t.Error("expected HasFlags to return true for the set flags")
	}
	if entry.HasFlags(FlagPresent | FlagRW | FlagNoExecute) {
		t.Error("expected HasFlags to return false when any flag is missing")
	}
	if !entry.HasAnyFlag(FlagRW | FlagNoExecute) {
		t.Error("expected HasAnyFlag to return true when at least one flag is set")
	}

	entry.ClearFlags(FlagRW)

	if entry.HasAnyFlag(FlagRW) {
		t.Error("expected HasAnyFlag to return false for a cleared flag")
	}
	if !entry.HasFlags(FlagPresent) {
		t.Error("expected remaining flags to survive ClearFlags")
	}
}

func TestPageTableEntryFrame(t *testing.T) {
	var entry pageTableEntry

	entry.SetFlags(FlagPresent | FlagNoExecute)
	entry.SetFrame(0xbadf00d)

	if got := entry.Frame(); got != 0xbadf00d {
		t.Errorf("expected entry frame to be 0xbadf00d; got 0x%x", uintptr(got))
	}
	if !entry.HasFlags(FlagPresent | FlagNoExecute) {
		t.Error("expected SetFrame to preserve the entry flags")
	}

	// Overwriting the frame must not accumulate stale address bits.
	entry.SetFrame(0x1)
	if got := entry.Frame(); got != 0x1 {
		t.Errorf("expected entry frame to be 0x1; got 0x%x", uintptr(got))
	}

	if addr := mm.PhysicalAddressFromFrame(entry.Frame()); addr != 0x1000 {
		t.Errorf("expected frame address to be 0x1000; got 0x%x", uintptr(addr))
	}
}
