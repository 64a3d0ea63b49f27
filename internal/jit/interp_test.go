package jit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silkjs/corejit/internal/builder"
	"github.com/silkjs/corejit/internal/ir"
	"github.com/silkjs/corejit/internal/runtime"
)

// fakeHelpers implements runtime.Helpers with the minimum real behavior
// the tests below exercise; the other methods return fixed stub values.
// ToNumeric panics on a non-Number value and Assert on a false
// condition, so a test that reaches either fails loudly.
type fakeHelpers struct{}

func (fakeHelpers) ToBoolean(rt *runtime.Handle, v *runtime.Value) bool {
	switch v.Kind {
	case runtime.TagBoolean:
		return v.AsBool()
	case runtime.TagNumber:
		return v.AsNumber() != 0
	default:
		return !v.Kind.Nullish()
	}
}

func (fakeHelpers) ToNumeric(rt *runtime.Handle, v *runtime.Value) float64 {
	if v.Kind != runtime.TagNumber {
		panic("fakeHelpers: ToNumeric called on a non-Number value")
	}
	return v.AsNumber()
}

func (fakeHelpers) ToInt32(rt *runtime.Handle, v float64) int32   { return int32(v) }
func (fakeHelpers) ToUint32(rt *runtime.Handle, v float64) uint32 { return uint32(int32(v)) }

func (fakeHelpers) IsLooselyEqual(rt *runtime.Handle, a, b *runtime.Value) bool {
	return a.Kind == b.Kind && a.Holder == b.Holder
}
func (fakeHelpers) IsStrictlyEqual(rt *runtime.Handle, a, b *runtime.Value) bool {
	return a.Kind == b.Kind && a.Holder == b.Holder
}

func (fakeHelpers) CreateCapture(rt *runtime.Handle, variable *runtime.Variable) *runtime.Capture {
	return &runtime.Capture{Target: variable}
}
func (fakeHelpers) CreateClosure(rt *runtime.Handle, fn runtime.Lambda, numCaptures uint16) *runtime.Closure {
	return &runtime.Closure{Fn: fn, CapturesLen: numCaptures, Captures: make([]*runtime.Capture, numCaptures)}
}
func (fakeHelpers) CreateCoroutine(rt *runtime.Handle, closure *runtime.Closure, numLocals, scratchLen uint16) *runtime.CoroutineFrame {
	return &runtime.CoroutineFrame{Closure: closure, NumLocals: numLocals, ScratchLen: scratchLen}
}

func (fakeHelpers) RegisterPromise(rt *runtime.Handle) uint64 { return 1 }
func (fakeHelpers) AwaitPromise(rt *runtime.Handle, promiseID uint64, coro *runtime.CoroutineFrame) {
}
func (fakeHelpers) ResumePromise(ctx context.Context, rt *runtime.Handle, promiseID uint64) runtime.Value {
	return runtime.Undefined()
}
func (fakeHelpers) EmitPromiseResolved(rt *runtime.Handle, promiseID uint64, v *runtime.Value) {}

func (fakeHelpers) CreateObject(rt *runtime.Handle) runtime.Value {
	return runtime.Value{Kind: runtime.TagObject}
}
func (fakeHelpers) GetValue(rt *runtime.Handle, obj, key *runtime.Value) runtime.Value {
	return runtime.Undefined()
}
func (fakeHelpers) SetValue(rt *runtime.Handle, obj, key, v *runtime.Value)           {}
func (fakeHelpers) CreateDataProperty(rt *runtime.Handle, obj, key, v *runtime.Value) {}
func (fakeHelpers) CopyDataProperties(rt *runtime.Handle, dst, src *runtime.Value)    {}

func (fakeHelpers) NewTypeError(rt *runtime.Handle, message string) runtime.Value {
	return runtime.Value{Kind: runtime.TagObject}
}
func (fakeHelpers) NewReferenceError(rt *runtime.Handle, message string) runtime.Value {
	return runtime.Value{Kind: runtime.TagObject}
}
func (fakeHelpers) StringConstant(rt *runtime.Handle, index uint32) runtime.Value {
	return runtime.Value{Kind: runtime.TagString, Holder: uint64(index)}
}
func (fakeHelpers) Assert(rt *runtime.Handle, condition bool, msg string) {
	if !condition {
		panic("fakeHelpers: assertion failed: " + msg)
	}
}

func newTestHandle() *runtime.Handle {
	return &runtime.Handle{Helpers: fakeHelpers{}}
}

// add(a, b) { return a + b; }
func TestOrchestratorRunsSimpleReturn(t *testing.T) {
	mod := ir.NewModule("m")
	bld := builder.New(mod, "add", 2, false)
	bld.PushScope()

	bld.Reference(1, runtime.Locator{Kind: runtime.LocatorArgument, Index: 0})
	bld.Dereference(false)
	bld.Reference(2, runtime.Locator{Kind: runtime.LocatorArgument, Index: 1})
	bld.Dereference(false)
	bld.Add()
	bld.Return(1)

	bld.PopScope(nil)
	idx := bld.EndFunction()

	orc := NewOrchestrator()
	cm, err := orc.RegisterModule(context.Background(), mod)
	require.NoError(t, err)

	fn, ok := cm.Lookup(idx)
	require.True(t, ok)

	rt := newTestHandle()
	argv := []runtime.Value{runtime.Number(3), runtime.Number(4)}
	var retv runtime.Value

	status := fn(rt, nil, len(argv), argv, &retv)
	require.Equal(t, runtime.StatusNormal, status.Kind())
	require.Equal(t, runtime.TagNumber, retv.Kind)
	require.Equal(t, 7.0, retv.AsNumber())
}

// if (cond) { return 1; } else { return 2; }
func TestOrchestratorRunsIfElse(t *testing.T) {
	mod := ir.NewModule("m")
	bld := builder.New(mod, "f", 1, false)
	bld.PushScope()

	bld.Reference(1, runtime.Locator{Kind: runtime.LocatorArgument, Index: 0})
	bld.Dereference(false)
	bld.ToBoolean()
	elseBlk, _ := bld.IfElseStatement()
	bld.PushNumber(1)
	bld.Return(1)
	bld.Else(elseBlk)
	bld.PushNumber(2)
	bld.Return(1)
	bld.EndIf()

	bld.PopScope(nil)
	idx := bld.EndFunction()

	orc := NewOrchestrator()
	cm, err := orc.RegisterModule(context.Background(), mod)
	require.NoError(t, err)
	fn, ok := cm.Lookup(idx)
	require.True(t, ok)

	rt := newTestHandle()

	var retv runtime.Value
	argv := []runtime.Value{runtime.Bool(true)}
	status := fn(rt, nil, len(argv), argv, &retv)
	require.Equal(t, runtime.StatusNormal, status.Kind())
	require.Equal(t, 1.0, retv.AsNumber())

	argv = []runtime.Value{runtime.Bool(false)}
	status = fn(rt, nil, len(argv), argv, &retv)
	require.Equal(t, runtime.StatusNormal, status.Kind())
	require.Equal(t, 2.0, retv.AsNumber())
}

// outer() { let x = 42; function inner() { return x; } return inner(); }
func TestOrchestratorRunsClosureCapture(t *testing.T) {
	mod := ir.NewModule("m")

	innerBld := builder.New(mod, "inner", 0, false)
	innerBld.PushScope()
	captured := runtime.Locator{Kind: runtime.LocatorCapture, Index: 0}
	innerBld.Reference(1, captured)
	innerBld.Dereference(false)
	innerBld.Return(1)
	innerBld.PopScope(nil)
	innerID := innerBld.EndFunction()

	local := runtime.Locator{Kind: runtime.LocatorLocal, Index: 0}
	outerBld := builder.New(mod, "outer", 0, false)
	outerBld.PushScope()

	outerBld.PushNumber(42)
	outerBld.DeclareMutable(local, 1)
	outerBld.CreateCapture(local)

	outerBld.PushFunction(innerID)
	outerBld.Reference(1, local)
	outerBld.Dereference(false)
	outerBld.Closure(false, 1)

	outerBld.Arguments(0)
	outerBld.Call(0)
	outerBld.Return(1)

	outerBld.PopScope([]runtime.Locator{local})
	outerID := outerBld.EndFunction()

	orc := NewOrchestrator()
	cm, err := orc.RegisterModule(context.Background(), mod)
	require.NoError(t, err)

	outerFn, ok := cm.Lookup(outerID)
	require.True(t, ok)

	rt := newTestHandle()
	var retv runtime.Value
	status := outerFn(rt, nil, 0, nil, &retv)
	require.Equal(t, runtime.StatusNormal, status.Kind())
	require.Equal(t, runtime.TagNumber, retv.Kind)
	require.Equal(t, 42.0, retv.AsNumber())
}

// try { throw 7; } finally { } — no catch clause at all, so the thrown
// value must propagate past the finally block instead of completing
// normally.
func TestOrchestratorTryFinallyWithoutCatchPropagatesException(t *testing.T) {
	mod := ir.NewModule("m")
	bld := builder.New(mod, "g", 0, false)
	bld.PushScope()

	bld.Try()
	bld.PushNumber(7)
	bld.Throw()
	bld.Catch(false)
	bld.Finally()
	bld.TryEnd()

	bld.PushNumber(123)
	bld.Return(1)

	bld.PopScope(nil)
	idx := bld.EndFunction()

	orc := NewOrchestrator()
	cm, err := orc.RegisterModule(context.Background(), mod)
	require.NoError(t, err)
	fn, ok := cm.Lookup(idx)
	require.True(t, ok)

	rt := newTestHandle()
	var retv runtime.Value
	status := fn(rt, nil, 0, nil, &retv)
	require.Equal(t, runtime.StatusException, status.Kind())
	require.Equal(t, runtime.TagNumber, retv.Kind)
	require.Equal(t, 7.0, retv.AsNumber())
}

// try { throw 10; } catch (e) { try {} finally {} ; y = e + 1; } finally {}
// — a nested try/finally with nothing to throw, compiled inside a real
// catch clause. The nested TryEnd reads the live status register, so
// the catch clause handling the outer exception must reset it to
// Normal; otherwise the nested try reads the outer exception's leftover
// status and misroutes away from `y = e + 1`.
func TestOrchestratorCatchResetsStatusForNestedTry(t *testing.T) {
	mod := ir.NewModule("m")
	bld := builder.New(mod, "f", 0, false)
	bld.PushScope()

	yLocal := runtime.Locator{Kind: runtime.LocatorLocal, Index: 0}
	eLocal := runtime.Locator{Kind: runtime.LocatorLocal, Index: 1}
	bld.PushNumber(0)
	bld.DeclareMutable(yLocal, 1)

	bld.Try()
	bld.PushNumber(10)
	bld.Throw()
	bld.Catch(true)
	bld.Exception()
	bld.DeclareMutable(eLocal, 2)

	bld.PushScope()
	bld.Try()
	bld.Catch(false)
	bld.Finally()
	bld.TryEnd()
	bld.PopScope(nil)

	bld.Reference(1, yLocal)
	bld.Reference(2, eLocal)
	bld.Dereference(false)
	bld.PushNumber(1)
	bld.Add()
	bld.Assignment()
	bld.Discard()

	bld.Finally()
	bld.TryEnd()

	bld.Reference(1, yLocal)
	bld.Dereference(false)
	bld.Return(1)

	bld.PopScope(nil)
	idx := bld.EndFunction()

	orc := NewOrchestrator()
	cm, err := orc.RegisterModule(context.Background(), mod)
	require.NoError(t, err)
	fn, ok := cm.Lookup(idx)
	require.True(t, ok)

	rt := newTestHandle()
	var retv runtime.Value
	status := fn(rt, nil, 0, nil, &retv)
	require.Equal(t, runtime.StatusNormal, status.Kind())
	require.Equal(t, runtime.TagNumber, retv.Kind)
	require.Equal(t, 11.0, retv.AsNumber())
}
