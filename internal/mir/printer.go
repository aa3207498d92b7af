package mir

import (
	"bytes"
	"fmt"
	"sort"
)

// Printer renders a Module as deterministic text, satisfying spec.md §8
// property 4: "JIT of a method is deterministic: given equal metadata and
// body bytes, the MIR text output is equal modulo stable unique-name
// generation seeded from the method identity." Grounded on the teacher's
// CodePrinter (internal/prettyprinter/code_printer.go): a bytes.Buffer with
// an indent counter, no third-party pretty-printing library, since the
// teacher never reaches for one either.
type Printer struct {
	buf    bytes.Buffer
	indent int
}

// NewPrinter returns an empty Printer.
func NewPrinter() *Printer { return &Printer{} }

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("  ")
	}
}

func (p *Printer) line(format string, args ...interface{}) {
	p.writeIndent()
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteByte('\n')
}

// Print renders m. Functions, their blocks, and each block's instructions
// are emitted in the deterministic order they were declared/appended in
// (map iteration is never used for anything that affects output order).
func (p *Printer) Print(m *Module) string {
	p.line("module %s", m.Name)

	for _, name := range sortedKeys(m.BSS) {
		p.line("bss %s %d", name, m.BSS[name])
	}
	for _, name := range sortedKeys(m.Externs) {
		p.line("extern func %s %s", name, protoString(m.Externs[name]))
	}
	for _, name := range sortedKeys(m.ExternData) {
		p.line("extern data %s %s", name, m.ExternData[name])
	}

	for _, name := range orderedFunctionNames(m) {
		p.printFunction(m.Functions[name])
	}

	return p.buf.String()
}

func orderedFunctionNames(m *Module) []string {
	names := make([]string, 0, len(m.Functions))
	for name := range m.Functions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return m.Functions[names[i]].id < m.Functions[names[j]].id
	})
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func protoString(p *Proto) string {
	var b bytes.Buffer
	b.WriteByte('(')
	for i, t := range p.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	if p.Variadic {
		b.WriteString(", ...")
	}
	b.WriteString(") -> (")
	for i, t := range p.Results {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (p *Printer) printFunction(fn *Function) {
	p.line("func %s %s {", fn.Name, protoString(fn.Proto))
	p.indent++
	for _, blk := range fn.Blocks {
		p.printBlock(blk)
	}
	p.indent--
	p.line("}")
}

func (p *Printer) printBlock(blk *Block) {
	p.writeIndent()
	fmt.Fprintf(&p.buf, "%s(", blk.Label)
	for i, v := range blk.Params {
		if i > 0 {
			p.buf.WriteString(", ")
		}
		fmt.Fprintf(&p.buf, "%s %s", valueString(v), blk.ParamTypes[i])
	}
	p.buf.WriteString("):\n")

	p.indent++
	for _, ins := range blk.Instrs {
		p.printInstr(ins)
	}
	p.printTerminator(blk.Term)
	p.indent--
}

func valueString(v Value) string {
	return fmt.Sprintf("v%d.%d", v.fn, v.id)
}

func (p *Printer) printInstr(ins Instr) {
	p.writeIndent()
	if len(ins.Results) > 0 {
		for i, r := range ins.Results {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.buf.WriteString(valueString(r))
		}
		p.buf.WriteString(" = ")
	}
	p.buf.WriteString(ins.Op.String())
	if ins.Symbol != "" {
		fmt.Fprintf(&p.buf, " %s", ins.Symbol)
	}
	if ins.Op == OpConst {
		fmt.Fprintf(&p.buf, " %s %d", ins.Type, ins.Imm)
	} else if len(ins.Results) == 1 && ins.Op != OpCall && ins.Op != OpCallInd {
		fmt.Fprintf(&p.buf, " %s", ins.Type)
	}
	for _, a := range ins.Args {
		fmt.Fprintf(&p.buf, " %s", valueString(a))
	}
	if ins.Op == OpGEP {
		fmt.Fprintf(&p.buf, " +%d", ins.Imm)
	}
	p.buf.WriteByte('\n')
}

func (p *Printer) printTerminator(t Terminator) {
	p.writeIndent()
	switch t.Kind {
	case TermBr:
		fmt.Fprintf(&p.buf, "br %s%s\n", t.Target, argsString(t.TargetArgs))
	case TermCondBr:
		fmt.Fprintf(&p.buf, "condbr %s, %s%s, %s%s\n", valueString(t.Cond),
			t.TrueLabel, argsString(t.TrueArgs), t.FalseLabel, argsString(t.FalseArgs))
	case TermRet:
		fmt.Fprintf(&p.buf, "ret%s\n", argsString(t.RetVals))
	case TermUnreachable:
		p.buf.WriteString("unreachable\n")
	default:
		p.buf.WriteString("<no-terminator>\n")
	}
}

func argsString(vals []Value) string {
	if len(vals) == 0 {
		return ""
	}
	var b bytes.Buffer
	b.WriteString("(")
	for i, v := range vals {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(valueString(v))
	}
	b.WriteString(")")
	return b.String()
}
