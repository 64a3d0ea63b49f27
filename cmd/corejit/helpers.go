package main

import (
	"context"
	"fmt"

	"github.com/silkjs/corejit/internal/jit/codemem"
	"github.com/silkjs/corejit/internal/runtime"
)

// demoHelpers is a minimal runtime.Helpers good enough to drive the
// Number/Boolean-only scenarios this binary ships (spec.md's own scope
// stops at the JIT core; a full property/object model, string coercion
// table, and promise scheduler belong to a host embedding corejit, not
// to this core). Every method that a real host would back with an
// object model or microtask queue does the smallest honest thing it
// can instead of panicking, so scenarios that merely create objects or
// register promises don't crash; ToNumeric intentionally panics on a
// non-Number operand, since none of the scenarios below ever coerce a
// string or object and a silent wrong answer would be worse than a
// loud failure.
type demoHelpers struct {
	strings []string
	arena   *codemem.Arena
}

func (h *demoHelpers) ToBoolean(rt *runtime.Handle, v *runtime.Value) bool {
	switch v.Kind {
	case runtime.TagBoolean:
		return v.AsBool()
	case runtime.TagNumber:
		return v.AsNumber() != 0
	default:
		return !v.Kind.Nullish()
	}
}

func (h *demoHelpers) ToNumeric(rt *runtime.Handle, v *runtime.Value) float64 {
	if v.Kind != runtime.TagNumber {
		panic(fmt.Sprintf("demoHelpers: ToNumeric on non-Number value (kind %d)", v.Kind))
	}
	return v.AsNumber()
}

func (h *demoHelpers) ToInt32(rt *runtime.Handle, v float64) int32   { return int32(int64(v)) }
func (h *demoHelpers) ToUint32(rt *runtime.Handle, v float64) uint32 { return uint32(int32(int64(v))) }

func (h *demoHelpers) IsLooselyEqual(rt *runtime.Handle, a, b *runtime.Value) bool {
	return a.Kind == b.Kind && a.Holder == b.Holder
}

func (h *demoHelpers) IsStrictlyEqual(rt *runtime.Handle, a, b *runtime.Value) bool {
	return a.Kind == b.Kind && a.Holder == b.Holder
}

func (h *demoHelpers) CreateCapture(rt *runtime.Handle, variable *runtime.Variable) *runtime.Capture {
	return &runtime.Capture{Target: variable}
}

func (h *demoHelpers) CreateClosure(rt *runtime.Handle, fn runtime.Lambda, numCaptures uint16) *runtime.Closure {
	return &runtime.Closure{Fn: fn, CapturesLen: numCaptures, Captures: make([]*runtime.Capture, numCaptures)}
}

func (h *demoHelpers) CreateCoroutine(rt *runtime.Handle, closure *runtime.Closure, numLocals, scratchLen uint16) *runtime.CoroutineFrame {
	var scratch []byte
	if scratchLen > 0 {
		buf, err := h.arena.Alloc(int(scratchLen))
		if err != nil {
			panic(fmt.Sprintf("demoHelpers: allocating %d scratch bytes: %v", scratchLen, err))
		}
		scratch = buf
	}
	return &runtime.CoroutineFrame{Closure: closure, NumLocals: numLocals, ScratchLen: scratchLen, Scratch: scratch}
}

func (h *demoHelpers) RegisterPromise(rt *runtime.Handle) uint64 { return 0 }
func (h *demoHelpers) AwaitPromise(rt *runtime.Handle, promiseID uint64, coro *runtime.CoroutineFrame) {
}
func (h *demoHelpers) ResumePromise(ctx context.Context, rt *runtime.Handle, promiseID uint64) runtime.Value {
	return runtime.Undefined()
}
func (h *demoHelpers) EmitPromiseResolved(rt *runtime.Handle, promiseID uint64, v *runtime.Value) {}

func (h *demoHelpers) CreateObject(rt *runtime.Handle) runtime.Value {
	return runtime.Value{Kind: runtime.TagObject}
}
func (h *demoHelpers) GetValue(rt *runtime.Handle, obj, key *runtime.Value) runtime.Value {
	return runtime.Undefined()
}
func (h *demoHelpers) SetValue(rt *runtime.Handle, obj, key, v *runtime.Value)           {}
func (h *demoHelpers) CreateDataProperty(rt *runtime.Handle, obj, key, v *runtime.Value) {}
func (h *demoHelpers) CopyDataProperties(rt *runtime.Handle, dst, src *runtime.Value)    {}

func (h *demoHelpers) NewTypeError(rt *runtime.Handle, message string) runtime.Value {
	fmt.Println("TypeError:", message)
	return runtime.Value{Kind: runtime.TagObject}
}
func (h *demoHelpers) NewReferenceError(rt *runtime.Handle, message string) runtime.Value {
	fmt.Println("ReferenceError:", message)
	return runtime.Value{Kind: runtime.TagObject}
}

func (h *demoHelpers) StringConstant(rt *runtime.Handle, index uint32) runtime.Value {
	return runtime.Value{Kind: runtime.TagString, Holder: uint64(index)}
}

func (h *demoHelpers) Assert(rt *runtime.Handle, condition bool, msg string) {
	if !condition {
		panic("demoHelpers: assertion failed: " + msg)
	}
}
