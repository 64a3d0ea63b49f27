package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silkjs/corejit/internal/builder"
	"github.com/silkjs/corejit/internal/config"
	"github.com/silkjs/corejit/internal/ir"
	"github.com/silkjs/corejit/internal/jit/codemem"
	corejitrt "github.com/silkjs/corejit/internal/runtime"
)

// stubHelpers is a minimal runtime.Helpers: the module below calls only
// ToNumeric (adding two Any items goes through it); the other methods
// return fixed stub values.
type stubHelpers struct{}

func (stubHelpers) ToBoolean(rt *corejitrt.Handle, v *corejitrt.Value) bool { return v.AsBool() }
func (stubHelpers) ToNumeric(rt *corejitrt.Handle, v *corejitrt.Value) float64 {
	return v.AsNumber()
}
func (stubHelpers) ToInt32(rt *corejitrt.Handle, v float64) int32   { return int32(v) }
func (stubHelpers) ToUint32(rt *corejitrt.Handle, v float64) uint32 { return uint32(int32(v)) }
func (stubHelpers) IsLooselyEqual(rt *corejitrt.Handle, a, b *corejitrt.Value) bool {
	return a.Kind == b.Kind && a.Holder == b.Holder
}
func (stubHelpers) IsStrictlyEqual(rt *corejitrt.Handle, a, b *corejitrt.Value) bool {
	return a.Kind == b.Kind && a.Holder == b.Holder
}
func (stubHelpers) CreateCapture(rt *corejitrt.Handle, variable *corejitrt.Variable) *corejitrt.Capture {
	return &corejitrt.Capture{Target: variable}
}
func (stubHelpers) CreateClosure(rt *corejitrt.Handle, fn corejitrt.Lambda, numCaptures uint16) *corejitrt.Closure {
	return &corejitrt.Closure{Fn: fn, CapturesLen: numCaptures, Captures: make([]*corejitrt.Capture, numCaptures)}
}
func (stubHelpers) CreateCoroutine(rt *corejitrt.Handle, closure *corejitrt.Closure, numLocals, scratchLen uint16) *corejitrt.CoroutineFrame {
	return &corejitrt.CoroutineFrame{Closure: closure, NumLocals: numLocals, ScratchLen: scratchLen}
}
func (stubHelpers) RegisterPromise(rt *corejitrt.Handle) uint64 { return 0 }
func (stubHelpers) AwaitPromise(rt *corejitrt.Handle, promiseID uint64, coro *corejitrt.CoroutineFrame) {
}
func (stubHelpers) ResumePromise(ctx context.Context, rt *corejitrt.Handle, promiseID uint64) corejitrt.Value {
	return corejitrt.Undefined()
}
func (stubHelpers) EmitPromiseResolved(rt *corejitrt.Handle, promiseID uint64, v *corejitrt.Value) {}
func (stubHelpers) CreateObject(rt *corejitrt.Handle) corejitrt.Value {
	return corejitrt.Value{Kind: corejitrt.TagObject}
}
func (stubHelpers) GetValue(rt *corejitrt.Handle, obj, key *corejitrt.Value) corejitrt.Value {
	return corejitrt.Undefined()
}
func (stubHelpers) SetValue(rt *corejitrt.Handle, obj, key, v *corejitrt.Value)           {}
func (stubHelpers) CreateDataProperty(rt *corejitrt.Handle, obj, key, v *corejitrt.Value) {}
func (stubHelpers) CopyDataProperties(rt *corejitrt.Handle, dst, src *corejitrt.Value)    {}
func (stubHelpers) NewTypeError(rt *corejitrt.Handle, message string) corejitrt.Value {
	return corejitrt.Value{Kind: corejitrt.TagObject}
}
func (stubHelpers) NewReferenceError(rt *corejitrt.Handle, message string) corejitrt.Value {
	return corejitrt.Value{Kind: corejitrt.TagObject}
}
func (stubHelpers) StringConstant(rt *corejitrt.Handle, index uint32) corejitrt.Value {
	return corejitrt.Value{Kind: corejitrt.TagString, Holder: uint64(index)}
}
func (stubHelpers) Assert(rt *corejitrt.Handle, condition bool, msg string) {
	if !condition {
		panic("engine test: assertion failed: " + msg)
	}
}

func TestEngineRejectsModuleRegistrationWithoutRuntimeFunctions(t *testing.T) {
	e := NewDefault()
	mod := ir.NewModule("m")
	_, err := e.RegisterModule(context.Background(), mod)
	require.Error(t, err)
}

func TestEngineRunsRegisteredModule(t *testing.T) {
	e := New(config.Default())
	e.RegisterRuntimeFunctions(stubHelpers{})

	mod := ir.NewModule("double")
	bld := builder.New(mod, "double", 1, false)
	bld.PushScope()
	bld.Reference(1, corejitrt.Locator{Kind: corejitrt.LocatorArgument, Index: 0})
	bld.Dereference(false)
	bld.Duplicate()
	bld.Add()
	bld.Return(1)
	bld.PopScope(nil)
	idx := bld.EndFunction()

	cm, err := e.RegisterModule(context.Background(), mod)
	require.NoError(t, err)
	require.Equal(t, "double", cm.Name)

	fn, ok := e.GetNativeFunction("double", idx)
	require.True(t, ok)

	argv := []corejitrt.Value{corejitrt.Number(21)}
	var retv corejitrt.Value
	status := fn(e.Handle(), nil, len(argv), argv, &retv)
	require.Equal(t, corejitrt.StatusNormal, status.Kind())
	require.Equal(t, 42.0, retv.AsNumber())

	require.NotEmpty(t, e.DataLayout())
	require.NotEmpty(t, e.TargetTriple())
	require.NoError(t, e.Close())
}

// arenaHelpers is stubHelpers with CreateCoroutine wired to the
// engine's own Arena, the way cmd/corejit's demoHelpers draws a
// suspended frame's Scratch buffer from it instead of a bare Go slice.
type arenaHelpers struct {
	stubHelpers
	arena *codemem.Arena
}

func (h arenaHelpers) CreateCoroutine(rt *corejitrt.Handle, closure *corejitrt.Closure, numLocals, scratchLen uint16) *corejitrt.CoroutineFrame {
	scratch, err := h.arena.Alloc(int(scratchLen))
	if err != nil {
		panic(err)
	}
	return &corejitrt.CoroutineFrame{Closure: closure, NumLocals: numLocals, ScratchLen: scratchLen, Scratch: scratch}
}

func TestEngineArenaBacksCoroutineScratch(t *testing.T) {
	e := New(config.Default())
	e.RegisterRuntimeFunctions(arenaHelpers{arena: e.Arena()})
	defer e.Close()

	closure := &corejitrt.Closure{}
	frame := e.Handle().Helpers.CreateCoroutine(e.Handle(), closure, 2, 64)
	require.Len(t, frame.Scratch, 64)
}
