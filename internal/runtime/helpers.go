package runtime

import (
	"context"
	"unsafe"
)

// Lambda is the signature every compiled function shares, matching
// spec.md §6.4: (runtime handle, closure-captures-or-coroutine-frame
// context, argument count, argument vector, return-value slot) -> Status.
// ctx is either a *[]*Capture (when the lambda is an ordinary function
// called through a Closure) or a *CoroutineFrame (when it is the body of
// a generator/async function resumed by the scheduler); which one it is
// is determined entirely by the compiled function itself, since the
// frontend knows at compile time whether the source function is a
// coroutine.
type Lambda func(rt *Handle, ctx unsafe.Pointer, argc int, argv []Value, retv *Value) Status

// Handle is the opaque per-compilation runtime handle threaded through
// every Lambda call as `rt`. The host constructs one per JIT instance
// and it is never interpreted by emitted code; it exists purely so
// Helpers methods can recover per-instance state (heaps, promise queue)
// without relying on globals.
type Handle struct {
	// Helpers is the table of host-provided functions emitted code
	// calls into. Stored here (rather than passed as a second implicit
	// argument) so a single *Handle pointer is all emitted code needs
	// to carry.
	Helpers Helpers
	// UserData is opaque storage for the host's own runtime object
	// (value heap, capture heap, promise scheduler, object table).
	UserData interface{}
}

// Helpers is the contract every host runtime helper from spec.md §6.1
// must satisfy. The JIT Orchestrator (internal/jit) dispatches each
// runtime call's ir.HelperID to the matching method, so emitted calls
// reach it regardless of how the host chose to implement it.
type Helpers interface {
	// ToBoolean implements ECMAScript ToBoolean for a heterogeneous
	// value. The IR Builder only calls this when the operand's static
	// type is Any; statically-typed operands are constant-folded
	// without a call (spec.md §4.2 item 7).
	ToBoolean(rt *Handle, v *Value) bool
	// ToNumeric implements ECMAScript ToNumber (sub-BigInt).
	ToNumeric(rt *Handle, v *Value) float64
	// ToInt32 implements ECMAScript ToInt32.
	ToInt32(rt *Handle, v float64) int32
	// ToUint32 implements ECMAScript ToUint32.
	ToUint32(rt *Handle, v float64) uint32
	// IsLooselyEqual implements `==` on operands of unknown type.
	IsLooselyEqual(rt *Handle, a, b *Value) bool
	// IsStrictlyEqual implements the `===` fallback used when the two
	// operands' static types are not both known to match or mismatch.
	IsStrictlyEqual(rt *Handle, a, b *Value) bool

	// CreateCapture allocates a capture cell pointing at variable.
	CreateCapture(rt *Handle, variable *Variable) *Capture
	// CreateClosure allocates a closure plus a capture table of size
	// numCaptures; the caller (emitted code) fills the table in after
	// this returns.
	CreateClosure(rt *Handle, fn Lambda, numCaptures uint16) *Closure
	// CreateCoroutine allocates the heap frame for a generator/async
	// function.
	CreateCoroutine(rt *Handle, closure *Closure, numLocals, scratchLen uint16) *CoroutineFrame

	// RegisterPromise, AwaitPromise, ResumePromise, and
	// EmitPromiseResolved implement the promise-scheduler hooks a
	// compiled async function's Suspend/resume path calls into.
	RegisterPromise(rt *Handle) (promiseID uint64)
	AwaitPromise(rt *Handle, promiseID uint64, coro *CoroutineFrame)
	ResumePromise(ctx context.Context, rt *Handle, promiseID uint64) Value
	EmitPromiseResolved(rt *Handle, promiseID uint64, v *Value)

	// CreateObject, GetValue, SetValue, CreateDataProperty, and
	// CopyDataProperties implement JavaScript object property access.
	CreateObject(rt *Handle) Value
	GetValue(rt *Handle, obj *Value, key *Value) Value
	SetValue(rt *Handle, obj *Value, key *Value, v *Value)
	CreateDataProperty(rt *Handle, obj *Value, key *Value, v *Value)
	CopyDataProperties(rt *Handle, dst *Value, src *Value)

	// NewTypeError constructs a TypeError value for emitted code to
	// raise, e.g. when a Call opcode's target is not a Closure.
	NewTypeError(rt *Handle, message string) Value
	// NewReferenceError constructs a ReferenceError value.
	NewReferenceError(rt *Handle, message string) Value

	// StringConstant materializes the module's index-th interned string
	// literal as a Value. Compiled code never builds strings at runtime
	// from raw bytes; the constant table is the ir.Module's interned
	// strings, filled by InternString while the module is built.
	StringConstant(rt *Handle, index uint32) Value

	// Assert is a debug-build check; a false condition aborts with msg.
	Assert(rt *Handle, condition bool, msg string)
}
