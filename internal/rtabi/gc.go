// Package rtabi models spec.md §6's external collaborators that the JIT
// translator calls into but does not implement: the garbage collector ABI
// and the threading ABI. Both are Go interfaces with one in-process fake
// implementation each for tests, exactly the role the teacher's own
// external-boundary packages play — spec.md §1 places the real GC and host
// threading primitives out of scope ("only its barrier ABI matters here").
package rtabi

import "github.com/clrcore/clrcore/internal/mdmodel"

// GC is the garbage-collector ABI spec.md §6 specifies: allocation, write
// barriers, root registration, and the conservative-pointer lookup used by
// exact-stack-free collectors to classify an address. internal/jit holds
// one GC and calls it at every allocation site, field/byref store of a
// managed pointer, and local-root declaration.
type GC interface {
	// New allocates size bytes for an instance of typ and returns its
	// object pointer, or (nil, nil) on allocation failure -- spec.md §8
	// property 6 requires every call site to branch on this nil result
	// via an OOM check, not to treat it as an error return.
	New(typ *mdmodel.Type, size int64) (uintptr, error)

	// Update is the write barrier for storing newValue into the field at
	// offset within a heap object.
	Update(object uintptr, offset int64, newValue uintptr)

	// UpdateRef is the write barrier for storing newValue through a byref
	// that may itself point into the heap (an interior pointer), used for
	// `stind`-shaped managed-pointer stores where the destination is not
	// known to be a field slot.
	UpdateRef(address uintptr, newValue uintptr)

	// AddRoot registers address as a GC root, used for JIT-managed storage
	// the collector cannot otherwise discover (e.g. a thread-local scratch
	// slot used across a safepoint).
	AddRoot(address uintptr)

	// HeapFindFast returns the object that contains address, or 0 if
	// address does not fall within any live allocation.
	HeapFindFast(address uintptr) (uintptr, bool)
}
