// Package engine is corejit's public façade: it wires
// internal/config, internal/jit, and internal/jit/codemem behind the
// small "host to orchestrator" surface a host embedding corejit needs
// (register the runtime's helper table, register host builtins,
// register a compiled module, and look up a callable function), the
// way wazero's top-level package wraps internal/engine/wazevo behind
// wazero.Runtime/CompiledModule.
package engine

import (
	"context"
	"fmt"
	"runtime"

	"github.com/silkjs/corejit/internal/config"
	"github.com/silkjs/corejit/internal/diag"
	"github.com/silkjs/corejit/internal/ir"
	"github.com/silkjs/corejit/internal/jit"
	"github.com/silkjs/corejit/internal/jit/codemem"
	corejitrt "github.com/silkjs/corejit/internal/runtime"
)

// Engine is one JIT session: a runtime.Handle bound to a host-supplied
// Helpers table, an Orchestrator holding every module and host function
// registered against it, and a codemem.Arena backing any coroutine
// frame's Scratch buffer the running code allocates.
type Engine struct {
	cfg   config.EngineConfig
	rt    corejitrt.Handle
	orc   *jit.Orchestrator
	arena codemem.Arena
}

// New returns an Engine configured by cfg. Callers typically follow
// this with RegisterRuntimeFunctions before compiling or running
// anything, since every opcode lowering to a HelperID call dereferences
// rt.Helpers.
func New(cfg config.EngineConfig) *Engine {
	return &Engine{
		cfg: cfg,
		orc: jit.NewOrchestrator(),
	}
}

// NewDefault is New(config.Default()), corejit's zero-configuration
// entry point.
func NewDefault() *Engine {
	return New(config.Default())
}

// RegisterRuntimeFunctions attaches the host's implementation of every
// ir.HelperID the JIT's generated code calls into (ToBoolean,
// CreateClosure, GetValue, NewTypeError, ...). Equivalent to the
// embedding API's register_runtime_functions(table).
func (e *Engine) RegisterRuntimeFunctions(helpers corejitrt.Helpers) {
	e.rt.Helpers = helpers
}

// RegisterHostFunction registers a Go-implemented builtin under name,
// retrievable through LookupHostFunction; compiled code does not look
// host functions up. Equivalent to register_host_function(func_id, ptr);
// corejit addresses host functions by name rather than by a numeric
// func_id since internal/jit's refTable already owns numeric identity
// for closures.
func (e *Engine) RegisterHostFunction(name string, fn corejitrt.Lambda) {
	e.orc.RegisterHostFunction(name, fn)
}

// LookupHostFunction returns a previously registered host builtin.
func (e *Engine) LookupHostFunction(name string) (corejitrt.Lambda, bool) {
	return e.orc.LookupHostFunction(name)
}

// RegisterModule verifies and compiles every function in mod, making
// each one reachable afterward through GetNativeFunction. Equivalent to
// register_module(module).
func (e *Engine) RegisterModule(ctx context.Context, mod *ir.Module) (*jit.CompiledModule, error) {
	if e.rt.Helpers == nil {
		return nil, diag.Errorf(diag.KindLink, "engine.RegisterModule", "RegisterRuntimeFunctions must run before RegisterModule")
	}
	return e.orc.RegisterModule(ctx, mod)
}

// GetNativeFunction resolves idx (the index ir.Module.AddFunction
// handed back while building mod) against a module previously
// registered under name. Equivalent to get_native_function(func_id).
func (e *Engine) GetNativeFunction(name string, idx uint32) (corejitrt.Lambda, bool) {
	cm, ok := e.orc.LookupModule(name)
	if !ok {
		return nil, false
	}
	return cm.Lookup(idx)
}

// Handle returns the runtime.Handle every compiled Lambda expects as
// its first argument, carrying the registered Helpers table.
func (e *Engine) Handle() *corejitrt.Handle { return &e.rt }

// Arena returns the engine's codemem arena, which host code allocating
// a coroutine's Scratch buffer should draw from instead of a bare Go
// slice, so every suspended frame's backing memory is tracked for
// Close.
func (e *Engine) Arena() *codemem.Arena { return &e.arena }

// Close releases every page the engine's arena handed out for
// coroutine scratch buffers.
func (e *Engine) Close() error { return e.arena.Close() }

// DataLayout and TargetTriple mirror the embedding API's
// data_layout()/target_triple() queries. They describe the host
// process's own GOARCH/GOOS rather than a real LLVM data layout string,
// since internal/jit has no native codegen tier to target (see
// internal/jit's doc comment) — callers that branch on these are
// expecting a string identifying "what machine is this JIT tied to",
// and the honest answer here is "none; it interprets IR directly on
// whatever runs the host Go binary."
func (e *Engine) DataLayout() string {
	return fmt.Sprintf("corejit-interp-%s-%s", runtime.GOARCH, runtime.GOOS)
}

func (e *Engine) TargetTriple() string {
	return fmt.Sprintf("%s-unknown-%s", runtime.GOARCH, runtime.GOOS)
}
