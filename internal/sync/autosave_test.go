package sync

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestAutosaverCoalescesRapidTouches(t *testing.T) {
	var fires atomic.Int32
	a := NewAutosaver(40*time.Millisecond, 0, func() { fires.Add(1) })
	defer a.Stop()

	// Ten rapid edits within one quiet window.
	for i := 0; i < 10; i++ {
		a.Touch()
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(120 * time.Millisecond)
	if got := fires.Load(); got != 1 {
		t.Fatalf("expected exactly 1 flush for coalesced edits, got %d", got)
	}
}

func TestAutosaverFiresPerQuietWindow(t *testing.T) {
	var fires atomic.Int32
	a := NewAutosaver(20*time.Millisecond, 0, func() { fires.Add(1) })
	defer a.Stop()

	a.Touch()
	time.Sleep(80 * time.Millisecond)
	a.Touch()
	time.Sleep(80 * time.Millisecond)

	if got := fires.Load(); got != 2 {
		t.Fatalf("expected 2 flushes for 2 separated edits, got %d", got)
	}
}

func TestAutosaverCancelDropsPendingFlush(t *testing.T) {
	var fires atomic.Int32
	a := NewAutosaver(30*time.Millisecond, 0, func() { fires.Add(1) })
	defer a.Stop()

	a.Touch()
	if !a.Pending() {
		t.Fatal("expected a pending flush after Touch")
	}
	a.Cancel()
	if a.Pending() {
		t.Fatal("expected no pending flush after Cancel")
	}

	time.Sleep(90 * time.Millisecond)
	if got := fires.Load(); got != 0 {
		t.Fatalf("cancelled flush must not fire, got %d", got)
	}
}

func TestAutosaverStopRefusesFurtherTouches(t *testing.T) {
	var fires atomic.Int32
	a := NewAutosaver(20*time.Millisecond, 0, func() { fires.Add(1) })

	a.Touch()
	a.Stop()
	a.Touch()

	time.Sleep(80 * time.Millisecond)
	if got := fires.Load(); got != 0 {
		t.Fatalf("stopped autosaver must not flush, got %d", got)
	}
	if a.Pending() {
		t.Fatal("stopped autosaver must not report pending work")
	}
}

func TestAutosaverMaxDeferralForcesFlush(t *testing.T) {
	var fires atomic.Int32
	a := NewAutosaver(50*time.Millisecond, 120*time.Millisecond, func() { fires.Add(1) })
	defer a.Stop()

	// Touch faster than the quiet period for longer than the ceiling:
	// without MaxDeferral this would never flush.
	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		a.Touch()
		time.Sleep(10 * time.Millisecond)
	}

	if got := fires.Load(); got == 0 {
		t.Fatal("deferral ceiling must force a flush under continuous edits")
	}
}

func TestAutosaverZeroQuietUsesDefault(t *testing.T) {
	a := NewAutosaver(0, 0, func() {})
	defer a.Stop()
	if a.quiet != DefaultQuietPeriod {
		t.Fatalf("expected default quiet period %v, got %v", DefaultQuietPeriod, a.quiet)
	}
}
