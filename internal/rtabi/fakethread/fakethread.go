// Package fakethread implements an in-process rtabi.Threading for tests,
// backed directly by the Go standard library's sync primitives -- this is
// the one place a bare-stdlib implementation is correct rather than a gap:
// the real collaborator is the host OS threading layer itself (spec.md §1
// places it out of scope), so there is no third-party library to wire in
// for a fake that exists purely to let single-process tests exercise
// monitor/mutex/TLS call sites.
package fakethread

import (
	"sync"

	"github.com/clrcore/clrcore/internal/rtabi"
)

// Runtime is an in-process rtabi.Threading backed by a map of per-object
// sync.Mutex values and a process-global map for TLS slots (real
// thread-locals would be per-OS-thread; tests run single-threaded against
// a shared map instead, which is observably equivalent for the call
// patterns internal/jit and internal/driver exercise). Its monitors are
// plain sync.Mutex values and are not reentrant: a second MonitorEnter on
// the same object before the matching MonitorExit blocks.
type Runtime struct {
	mu       sync.Mutex
	monitors map[uintptr]*sync.Mutex
	tls      map[int]uintptr
}

var _ rtabi.Threading = (*Runtime)(nil)

// NewRuntime returns a Runtime.
func NewRuntime() *Runtime {
	return &Runtime{
		monitors: make(map[uintptr]*sync.Mutex),
		tls:      make(map[int]uintptr),
	}
}

func (r *Runtime) monitorFor(object uintptr) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.monitors[object]
	if !ok {
		m = &sync.Mutex{}
		r.monitors[object] = m
	}
	return m
}

func (r *Runtime) MonitorEnter(object uintptr) { r.monitorFor(object).Lock() }
func (r *Runtime) MonitorExit(object uintptr)  { r.monitorFor(object).Unlock() }

func (r *Runtime) NewMutex() rtabi.Mutex { return &sync.Mutex{} }

func (r *Runtime) TLSGet(slot int) (uintptr, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.tls[slot]
	return v, ok
}

func (r *Runtime) TLSSet(slot int, value uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tls[slot] = value
}

func (r *Runtime) NewBarrier(count int) rtabi.Barrier {
	wg := &sync.WaitGroup{}
	wg.Add(count)
	return waitGroupBarrier{wg}
}

type waitGroupBarrier struct{ wg *sync.WaitGroup }

func (b waitGroupBarrier) Done() { b.wg.Done() }
func (b waitGroupBarrier) Wait() { b.wg.Wait() }
