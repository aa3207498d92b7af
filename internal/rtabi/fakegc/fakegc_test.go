package fakegc

import "testing"

func TestNewAllocatesDistinctAddresses(t *testing.T) {
	h := NewHeap(0)
	a, err := h.New(nil, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := h.New(nil, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct addresses, got %d twice", a)
	}
}

func TestNewReturnsNilOnExhaustion(t *testing.T) {
	h := NewHeap(8)
	addr, err := h.New(nil, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if addr != 0 {
		t.Fatalf("expected a nil (0) address on exhaustion, got %d", addr)
	}
}

func TestHeapFindFastLocatesContainingAllocation(t *testing.T) {
	h := NewHeap(0)
	base, _ := h.New(nil, 32)
	owner, ok := h.HeapFindFast(base + 4)
	if !ok || owner != base {
		t.Fatalf("HeapFindFast(base+4) = (%d, %v), want (%d, true)", owner, ok, base)
	}
	if _, ok := h.HeapFindFast(base + 1000); ok {
		t.Fatal("HeapFindFast should not find an address outside any allocation")
	}
}

func TestUpdateCountsAsBarrierCall(t *testing.T) {
	h := NewHeap(0)
	base, _ := h.New(nil, 16)
	h.Update(base, 0, 0xABC)
	h.UpdateRef(base, 0xDEF)
	if got := h.BarrierCalls(); got != 2 {
		t.Fatalf("BarrierCalls() = %d, want 2", got)
	}
}
