package expiration_test

import (
	"testing"
	"time"

	"github.com/krisalay/flightcache/expiration"
	"github.com/krisalay/flightcache/types"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newEntry(ttl time.Duration) *types.Entry[string] {
	return types.NewEntry[string]("k", "v", nil, t0, ttl)
}

// ================= AFTER WRITE =================

func TestAfterWriteDeadlineIsFixed(t *testing.T) {
	s := expiration.AfterWrite[string]{}
	ent := newEntry(10 * time.Second)

	if s.Expired(ent, t0) {
		t.Fatal("entry expired at its own creation time")
	}
	if s.Expired(ent, t0.Add(10*time.Second-time.Nanosecond)) {
		t.Fatal("entry expired before its deadline")
	}

	// Reads record access but never move the deadline.
	read := t0.Add(9 * time.Second)
	s.OnAccess(ent, read)
	if got := ent.LastAccessedAt(); !got.Equal(read) {
		t.Fatalf("LastAccessedAt() = %v, want %v", got, read)
	}
	if !s.Expired(ent, t0.Add(10*time.Second)) {
		t.Fatal("entry still live at its deadline despite a recent read")
	}
}

// ================= AFTER ACCESS =================

func TestAfterAccessSlidesDeadline(t *testing.T) {
	s := expiration.AfterAccess[string]{}
	ent := newEntry(10 * time.Second)

	read := t0.Add(8 * time.Second)
	s.OnAccess(ent, read)

	if got, want := ent.ExpiresAt(), read.Add(10*time.Second); !got.Equal(want) {
		t.Fatalf("ExpiresAt() = %v, want %v", got, want)
	}
	if s.Expired(ent, t0.Add(15*time.Second)) {
		t.Fatal("entry expired inside its slid window")
	}
	if !s.Expired(ent, read.Add(10*time.Second)) {
		t.Fatal("entry still live a full TTL after its last read")
	}
}

// ================= ENTRY DEADLINES =================

func TestEntryRemaining(t *testing.T) {
	ent := newEntry(10 * time.Second)

	if got := ent.Remaining(t0.Add(4 * time.Second)); got != 6*time.Second {
		t.Fatalf("Remaining() = %v, want 6s", got)
	}
	if got := ent.Remaining(t0.Add(12 * time.Second)); got != -2*time.Second {
		t.Fatalf("Remaining() past the deadline = %v, want -2s", got)
	}
}

func TestEntryRefreshSlot(t *testing.T) {
	ent := newEntry(10 * time.Second)

	if !ent.StartRefresh() {
		t.Fatal("first StartRefresh() returned false")
	}
	if ent.StartRefresh() {
		t.Fatal("second StartRefresh() returned true while the slot was held")
	}
	ent.EndRefresh()
	if !ent.StartRefresh() {
		t.Fatal("StartRefresh() after release returned false")
	}
}
