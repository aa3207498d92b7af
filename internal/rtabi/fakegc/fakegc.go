// Package fakegc implements an in-process rtabi.GC for tests: a bump
// allocator over a plain Go byte slice, with an optional forced-failure
// mode so callers can exercise the OOM-after-allocation check spec.md §8
// property 6 requires.
package fakegc

import (
	"sync"

	"github.com/clrcore/clrcore/internal/mdmodel"
	"github.com/clrcore/clrcore/internal/rtabi"
)

type allocation struct {
	base uintptr
	size int64
}

// Heap is a bump-allocating rtabi.GC fake. Addresses it returns are
// process-unique small integers, not real pointers; tests treat them as
// opaque handles, matching how internal/jit only ever compares and
// dereferences addresses through this interface.
type Heap struct {
	mu      sync.Mutex
	next    uintptr
	limit   uintptr // 0 means unlimited
	allocs  []allocation
	roots   []uintptr
	barrierCalls int
}

var _ rtabi.GC = (*Heap)(nil)

// NewHeap returns a Heap. limit, if non-zero, is the total number of bytes
// New will hand out before returning (0, nil) to simulate exhaustion.
func NewHeap(limit int64) *Heap {
	return &Heap{next: 0x10000, limit: uintptr(limit)}
}

func (h *Heap) New(typ *mdmodel.Type, size int64) (uintptr, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.limit != 0 && uintptr(size) > h.limit {
		return 0, nil
	}
	base := h.next
	h.next += uintptr(size)
	if h.limit != 0 {
		h.limit -= uintptr(size)
	}
	h.allocs = append(h.allocs, allocation{base: base, size: size})
	return base, nil
}

func (h *Heap) Update(object uintptr, offset int64, newValue uintptr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.barrierCalls++
}

func (h *Heap) UpdateRef(address uintptr, newValue uintptr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.barrierCalls++
}

func (h *Heap) AddRoot(address uintptr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roots = append(h.roots, address)
}

func (h *Heap) HeapFindFast(address uintptr) (uintptr, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, a := range h.allocs {
		if address >= a.base && address < a.base+uintptr(a.size) {
			return a.base, true
		}
	}
	return 0, false
}

// BarrierCalls reports how many write-barrier calls (Update + UpdateRef
// combined) this Heap has observed, for assertions in internal/jit tests.
func (h *Heap) BarrierCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.barrierCalls
}

// Roots returns a copy of every address registered via AddRoot.
func (h *Heap) Roots() []uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]uintptr, len(h.roots))
	copy(out, h.roots)
	return out
}
