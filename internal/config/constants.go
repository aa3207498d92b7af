// Package config holds clrcore's package-level run options, in the same
// flat package-level-var style the teacher repo uses for its own
// configuration (internal/config.Version, IsTestMode): no config struct
// threaded through every call, a handful of process-wide toggles set once
// at startup by cmd/clrjit and read everywhere else.
package config

// Version is the current clrcore version, set at build time via
// -ldflags, mirroring the teacher's own Version var.
var Version = "0.1.0"

// InitLocalsRequired mirrors spec.md §9's open question on the
// !InitLocals method body: this core rejects such bodies by default (see
// DESIGN.md's Open Question decisions). internal/jit.Translate consults
// this var directly; cmd/clrjit's clrjit.yaml loader (internal/driver.Options)
// is the only thing that flips it away from the default.
var InitLocalsRequired = true

// MaxStackDepth is a configured depth limit for the abstract evaluation
// stack. No package reads it: internal/jit does not bound its stack by
// this value.
var MaxStackDepth = 1024

// IsTestMode indicates the process is running under `go test`, set once
// at startup the same way the teacher's own IsTestMode is.
var IsTestMode = false
