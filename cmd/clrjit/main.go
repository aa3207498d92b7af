// Command clrjit is the developer-facing entry point for the metadata
// materializer and CIL-to-MIR JIT core in internal/driver. It has no
// managed-code execution surface of its own (spec.md §1 places the PE
// loader, the native code generator and the GC out of scope) -- every
// subcommand here drives the core against the in-memory fakes
// (internal/mdsource.InMemoryProducer, internal/mir/fake,
// internal/rtabi/fakegc, internal/rtabi/fakethread) the rest of this
// module also uses for tests, and exists to make that pipeline runnable
// and inspectable from a terminal.
//
// Grounded on cmd/funxy/main.go's hand-rolled os.Args subcommand dispatch
// (no flag package, a small `switch os.Args[1]` over named verbs), kept in
// the teacher's own style rather than introducing a CLI framework dependency
// the teacher itself never reaches for.
package main

import (
	"fmt"
	"os"

	"github.com/clrcore/clrcore/internal/config"
	"github.com/clrcore/clrcore/internal/driver"
	"github.com/clrcore/clrcore/internal/mdsource"
	"github.com/clrcore/clrcore/internal/mir"
	"github.com/clrcore/clrcore/internal/mir/fake"
	"github.com/clrcore/clrcore/internal/rtabi/fakegc"
	"github.com/clrcore/clrcore/internal/rtabi/fakethread"
	"github.com/mattn/go-isatty"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command>\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  dump-tables   decode a fixture's in-memory metadata rows and print its type graph\n")
	fmt.Fprintf(os.Stderr, "  version       print the clrcore version\n")
	fmt.Fprintf(os.Stderr, "\nReads ./clrjit.yaml for run options (initLocalsStrict, assemblySearchPaths,\nverifierEnabled) if present; see internal/driver.Options.\n")
}

// loadRunOptions reads ./clrjit.yaml (if present) and applies it to
// internal/config's package-level vars, the same "config file feeds
// package vars at startup" wiring the teacher's own cmd/funxy/main.go does
// for its IsTestMode/IsLSPMode toggles.
func loadRunOptions() driver.Options {
	opts, err := driver.LoadOptions("clrjit.yaml")
	if err != nil {
		fmt.Fprintln(os.Stderr, colorize("31", "clrjit.yaml: "+err.Error()))
		os.Exit(2)
	}
	config.InitLocalsRequired = opts.InitLocalsRequired()
	return opts
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "version", "-version", "--version":
		fmt.Println(config.Version)
	case "dump-tables":
		runDumpTables()
	case "-help", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", os.Args[0], os.Args[1])
		usage()
		os.Exit(2)
	}
}

// colorize wraps s in an ANSI color code only when stdout is a real
// terminal, exactly the role github.com/mattn/go-isatty plays in the
// teacher's own builtins_term.go for deciding whether to emit escape
// sequences at all.
func colorize(code, s string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

// runDumpTables loads demoProducer() through the full driver pipeline --
// setup/fill, JIT, link against the fake code generator, vtable
// publication -- and prints the resulting MIR module text plus a summary
// of the loaded type graph. It exists to give a human something to run
// and look at without a real PE/metadata producer (out of scope per
// spec.md §1).
func runDumpTables() {
	opts := loadRunOptions()
	if len(opts.AssemblySearchPaths) > 0 {
		fmt.Println(colorize("36", fmt.Sprintf("assembly search paths: %v (not yet consulted: spec.md §1 scopes the multi-assembly resolver out)", opts.AssemblySearchPaths)))
	}

	d := driver.New(fakegc.NewHeap(0), fakethread.NewRuntime())

	asm, err := d.Load(demoProducer())
	if err != nil {
		fmt.Fprintln(os.Stderr, colorize("31", "load error: "+err.Error()))
		os.Exit(1)
	}
	if err := d.DeclareExterns(); err != nil {
		fmt.Fprintln(os.Stderr, colorize("31", "declare-externs error: "+err.Error()))
		os.Exit(1)
	}
	if err := d.JITAssembly(); err != nil {
		fmt.Fprintln(os.Stderr, colorize("31", "JIT error: "+err.Error()))
		os.Exit(1)
	}

	gen := fake.NewGenerator(0x10000)
	if err := d.Link(gen.Gen); err != nil {
		fmt.Fprintln(os.Stderr, colorize("31", "link error: "+err.Error()))
		os.Exit(1)
	}
	if err := d.PublishVTables(); err != nil {
		fmt.Fprintln(os.Stderr, colorize("31", "vtable publish error: "+err.Error()))
		os.Exit(1)
	}

	fmt.Println(colorize("32", fmt.Sprintf("assembly %q: %d type(s)", asm.Name, len(asm.DefinedTypes))))
	fmt.Print(mir.NewPrinter().Print(d.Module()))
}

// demoProducer describes a single static method,
//
//	class Demo.Program : System.Object {
//	    static int32 Answer() { return 2 + 3; }
//	}
//
// the CIL-level shape of spec.md §8 scenario S1.
func demoProducer() *mdsource.InMemoryProducer {
	objectRef := mdsource.NewToken(mdsource.TypeRef, 1)
	const methodPublicStatic = 0x6 | 0x10 // public (access code 6), static

	return &mdsource.InMemoryProducer{
		AssemblyRowV: mdsource.AssemblyRow{Name: "Demo"},
		TypeRefRows: []mdsource.TypeRefRow{
			{Token: objectRef, ResolutionScope: "mscorlib", Namespace: "System", Name: "Object"},
		},
		MethodRows: []mdsource.MethodDefRow{
			{
				Token: mdsource.NewToken(mdsource.MethodDef, 1), Name: "Answer",
				Flags:     methodPublicStatic,
				Signature: []byte{0x00, 0x00, 0x08}, // DEFAULT, 0 params, Int32 return
				Body: &mdsource.MethodBodyRow{
					CIL:        []byte{0x18, 0x19, 0x58, 0x2A}, // ldc.i4.2 ldc.i4.3 add ret
					MaxStack:   2,
					InitLocals: true,
				},
			},
		},
		TypeDefRows: []mdsource.TypeDefRow{
			{
				Token:       mdsource.NewToken(mdsource.TypeDef, 1),
				Namespace:   "Demo",
				Name:        "Program",
				Extends:     objectRef,
				MethodList:  mdsource.NewToken(mdsource.MethodDef, 1),
				MethodCount: 1,
			},
		},
	}
}
