package services

import (
	"testing"
	"time"
)

func TestDedupLedger_SuppressesWithinWindow(t *testing.T) {
	l := NewDedupLedger(100 * time.Millisecond)
	fp := Fingerprint("ImageApproved", []byte(`{"status":"approved"}`))

	if !l.Observe(fp) {
		t.Fatal("first observation should pass")
	}
	if l.Observe(fp) {
		t.Error("second observation within window should be suppressed")
	}
}

func TestDedupLedger_ExpiresAfterWindow(t *testing.T) {
	l := NewDedupLedger(50 * time.Millisecond)
	fp := Fingerprint("ImageApproved", []byte(`{"status":"approved"}`))

	if !l.Observe(fp) {
		t.Fatal("first observation should pass")
	}
	if l.Observe(fp) {
		t.Fatal("duplicate within window should be suppressed")
	}

	time.Sleep(120 * time.Millisecond)
	if !l.Observe(fp) {
		t.Error("observation after window expiry should pass again")
	}
}

func TestDedupLedger_DistinctFingerprintsPass(t *testing.T) {
	l := NewDedupLedger(time.Second)
	a := Fingerprint("ImageApproved", []byte(`{"status":"approved"}`))
	b := Fingerprint("ImageApproved", []byte(`{"status":"rejected"}`))
	c := Fingerprint("ShiftGenerated", []byte(`{"status":"approved"}`))

	if a == b || a == c {
		t.Fatal("fingerprints should differ for different inputs")
	}
	if !l.Observe(a) || !l.Observe(b) || !l.Observe(c) {
		t.Error("distinct fingerprints should all pass")
	}
}

func TestDedupLedger_EntriesRemoveThemselves(t *testing.T) {
	l := NewDedupLedger(30 * time.Millisecond)
	l.Observe(Fingerprint("A", []byte("1")))
	l.Observe(Fingerprint("B", []byte("2")))
	if got := l.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	time.Sleep(100 * time.Millisecond)
	if got := l.Len(); got != 0 {
		t.Errorf("Len after expiry = %d, want 0", got)
	}
}

func TestDedupLedger_ZeroWindowUsesDefault(t *testing.T) {
	l := NewDedupLedger(0)
	if l.window != DefaultDedupWindow {
		t.Errorf("window = %v, want %v", l.window, DefaultDedupWindow)
	}
}
