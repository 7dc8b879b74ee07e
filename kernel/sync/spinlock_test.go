package sync

import "testing"

func TestSpinlockAcquireRelease(t *testing.T) {
	var sl Spinlock

	sl.Acquire()
	if sl.state != 1 {
		t.Error("expected lock state to be 1 after call to Acquire()")
	}

	sl.Release()
	if sl.state != 0 {
		t.Error("expected lock state to be 0 after call to Release()")
	}
}

func TestSpinlockTryToAcquire(t *testing.T) {
	var sl Spinlock

	if !sl.TryToAcquire() {
		t.Error("expected TryToAcquire() to succeed on a free lock")
	}

	if sl.TryToAcquire() {
		t.Error("expected TryToAcquire() to fail on a held lock")
	}

	sl.Release()

	if !sl.TryToAcquire() {
		t.Error("expected TryToAcquire() to succeed after the lock was released")
	}
}
