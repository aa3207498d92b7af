package jit

import "github.com/clrcore/clrcore/internal/mir"

// Runtime helper symbols the translator's emitted MIR calls into. These
// name spec.md §6's external collaborators (the GC ABI, plus a handful of
// small memory/box helpers a real CLR runtime also exports): internal/jit
// never implements them, only references them by name; internal/driver
// declares them as module externs before linking, per spec.md §5.
const (
	externGCNew       = "clr_gc_new"
	externGCUpdate    = "clr_gc_update"
	externGCUpdateRef = "clr_gc_update_ref"
	externGCAddRoot   = "clr_gc_add_root"

	externMemcpy     = "clr_rt_memcpy"
	externZeroMemory = "clr_rt_zeromemory"
	externBox        = "clr_rt_box"
	externUnboxAny   = "clr_rt_unbox_any"
	externIsInstance = "clr_rt_isinst"
	externCastClass  = "clr_rt_castclass"
	externNewArray   = "clr_rt_newarr"
	externArrayBoundsCheck = "clr_rt_array_bounds_check"
	externThrow      = "clr_rt_throw"
	externRethrow    = "clr_rt_rethrow"
)

// Externs lists every runtime helper symbol this package's translations
// reference, with its prototype, so internal/driver can declare them on a
// module before linking without internal/jit exporting its MIR emission
// details. Values is the exported entry point; callers range over it.
var Externs = map[string]*mir.Proto{
	externGCNew:       {Params: []mir.Type{mir.Ptr, mir.I64}, Results: []mir.Type{mir.Ptr, mir.Ptr}},
	externGCUpdate:    {Params: []mir.Type{mir.Ptr, mir.I64, mir.Ptr}, Results: []mir.Type{mir.Ptr}},
	externGCUpdateRef: {Params: []mir.Type{mir.Ptr, mir.Ptr}, Results: []mir.Type{mir.Ptr}},
	externGCAddRoot:   {Params: []mir.Type{mir.Ptr}, Results: []mir.Type{mir.Ptr}},

	externMemcpy:           {Params: []mir.Type{mir.Ptr, mir.Ptr, mir.I64}, Results: []mir.Type{mir.Ptr}},
	externZeroMemory:       {Params: []mir.Type{mir.Ptr, mir.I64}, Results: []mir.Type{mir.Ptr}},
	externBox:              {Params: []mir.Type{mir.Ptr, mir.Ptr}, Results: []mir.Type{mir.Ptr, mir.Ptr}},
	externUnboxAny:         {Params: []mir.Type{mir.Ptr, mir.Ptr}, Results: []mir.Type{mir.Ptr, mir.Ptr}},
	externIsInstance:       {Params: []mir.Type{mir.Ptr, mir.Ptr}, Results: []mir.Type{mir.Ptr, mir.Ptr}},
	externCastClass:        {Params: []mir.Type{mir.Ptr, mir.Ptr}, Results: []mir.Type{mir.Ptr, mir.Ptr}},
	externNewArray:         {Params: []mir.Type{mir.Ptr, mir.I64}, Results: []mir.Type{mir.Ptr, mir.Ptr}},
	externArrayBoundsCheck: {Params: []mir.Type{mir.Ptr, mir.I64}, Results: []mir.Type{mir.Ptr}},
	externThrow:            {Params: []mir.Type{mir.Ptr}, Results: []mir.Type{mir.Ptr}},
	externRethrow:          {Params: []mir.Type{}, Results: []mir.Type{mir.Ptr}},
}
