package mir

import (
	"strings"
	"testing"
)

func buildAddTwoConstants(t *testing.T) *Module {
	t.Helper()
	m := NewModule("TestAssembly")
	proto := &Proto{Results: []Type{I32}}
	fn, err := m.NewFunction("M.Add", proto)
	if err != nil {
		t.Fatalf("NewFunction: %v", err)
	}

	b := NewBuilder(fn)
	b.Block("entry")
	two := b.Const(I32, 2)
	three := b.Const(I32, 3)
	sum := b.BinOp(OpAdd, I32, two, three)
	b.Ret(sum)

	if err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return m
}

func TestBuilderProducesAddAndRet(t *testing.T) {
	m := buildAddTwoConstants(t)
	fn := m.Functions["M.Add"]
	if len(fn.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(fn.Blocks))
	}
	blk := fn.Blocks[0]
	if len(blk.Instrs) != 3 {
		t.Fatalf("got %d instructions, want 3 (two consts + add)", len(blk.Instrs))
	}
	if blk.Instrs[2].Op != OpAdd {
		t.Fatalf("third instruction is %v, want OpAdd", blk.Instrs[2].Op)
	}
	if blk.Term.Kind != TermRet {
		t.Fatalf("terminator is %v, want TermRet", blk.Term.Kind)
	}
}

func TestDuplicateFunctionNameErrors(t *testing.T) {
	m := NewModule("Dup")
	proto := &Proto{Results: []Type{I32}}
	if _, err := m.NewFunction("M.F", proto); err != nil {
		t.Fatalf("first NewFunction: %v", err)
	}
	if _, err := m.NewFunction("M.F", proto); err == nil {
		t.Fatal("expected an error declaring the same function name twice")
	}
}

func TestFunctionAddressBeforeLinkErrors(t *testing.T) {
	m := buildAddTwoConstants(t)
	if _, err := m.FunctionAddress("M.Add"); err == nil {
		t.Fatal("expected an error resolving an address before Link")
	}
}

// TestPrintIsDeterministic covers spec.md §8 property 4: two builds from
// identical inputs print identical MIR text.
func TestPrintIsDeterministic(t *testing.T) {
	m1 := buildAddTwoConstants(t)
	m2 := buildAddTwoConstants(t)

	out1 := NewPrinter().Print(m1)
	out2 := NewPrinter().Print(m2)
	if out1 != out2 {
		t.Fatalf("non-deterministic MIR text:\n--- 1 ---\n%s\n--- 2 ---\n%s", out1, out2)
	}
	if !strings.Contains(out1, "add") || !strings.Contains(out1, "ret") {
		t.Fatalf("printed MIR missing expected instructions:\n%s", out1)
	}
}

func TestBlockParamsSupportBranchMerge(t *testing.T) {
	m := NewModule("Merge")
	proto := &Proto{Results: []Type{I32}}
	fn, _ := m.NewFunction("M.Merge", proto)
	b := NewBuilder(fn)

	b.Block("entry")
	cond := b.Const(I32, 1)
	b.CondBr(cond, "then", nil, "else", nil)

	b.Block("then")
	one := b.Const(I32, 1)
	b.Br("join", one)

	b.Block("else")
	zero := b.Const(I32, 0)
	b.Br("join", zero)

	params := b.Block("join", I32)
	if len(params) != 1 {
		t.Fatalf("join block should declare 1 param, got %d", len(params))
	}
	b.Ret(params[0])

	if err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}
