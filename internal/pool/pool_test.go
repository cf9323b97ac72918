package pool

import "testing"

func summaryAt(slot uint64) RequestSummary {
	return RequestSummary{RequestSlot: slot, Status: Pending}
}

func TestNewRejectsZeroMaxSize(t *testing.T) {
	var sub [32]byte
	if _, err := New(sub, 1, 0); err == nil {
		t.Fatal("expected InvalidPoolSize for max_size=0")
	}
}

func TestNextIndexStartsAtZeroAndNeverReuses(t *testing.T) {
	var sub [32]byte
	p, err := New(sub, 1, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if idx := p.NextIndex(); idx != 0 {
		t.Fatalf("first next_index = %d, want 0", idx)
	}
	if err := p.Add(0, summaryAt(100)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if idx := p.NextIndex(); idx != 1 {
		t.Fatalf("next_index after add(0) = %d, want 1", idx)
	}
	if err := p.Add(1, summaryAt(100)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := p.Transition(1, Expired); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if idx := p.NextIndex(); idx != 2 {
		t.Fatalf("next_index must not reuse a transitioned index: got %d, want 2", idx)
	}
}

func TestAddRejectsOverCapacity(t *testing.T) {
	var sub [32]byte
	p, err := New(sub, 1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Add(0, summaryAt(1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := p.Add(1, summaryAt(1)); err == nil {
		t.Fatal("expected PoolCapacityExceeded on second add with max_size=1")
	}
}

func TestFindMissingReturnsNotFound(t *testing.T) {
	var sub [32]byte
	p, err := New(sub, 1, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Find(42); err == nil {
		t.Fatal("expected RequestNotFound")
	}
}

func TestTransitionOnlyFromPending(t *testing.T) {
	var sub [32]byte
	p, err := New(sub, 1, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Add(0, summaryAt(1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := p.Transition(0, Fulfilled); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	if err := p.Transition(0, Cancelled); err == nil {
		t.Fatal("expected error transitioning a terminal status again")
	}
}

func TestCleanExpiredIsIdempotent(t *testing.T) {
	var sub [32]byte
	p, err := New(sub, 1, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Add(0, summaryAt(100)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	currentSlot := uint64(100 + DefaultExpirySlots + 1)
	n := p.CleanExpired(currentSlot, DefaultExpirySlots)
	if n != 1 {
		t.Fatalf("first clean_expired = %d, want 1", n)
	}
	n2 := p.CleanExpired(currentSlot, DefaultExpirySlots)
	if n2 != 0 {
		t.Fatalf("second clean_expired = %d, want 0 (idempotent)", n2)
	}
	s, err := p.Find(0)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if s.Status != Expired {
		t.Fatalf("status = %v, want Expired", s.Status)
	}
}

func TestIndicesAreAscending(t *testing.T) {
	var sub [32]byte
	p, err := New(sub, 1, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, idx := range []uint32{3, 0, 1, 2} {
		if err := p.Add(idx, summaryAt(1)); err != nil {
			t.Fatalf("Add(%d): %v", idx, err)
		}
	}
	got := p.Indices()
	want := []uint32{0, 1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("len(indices) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("indices[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
