package builder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silkjs/corejit/internal/ir"
	"github.com/silkjs/corejit/internal/runtime"
)

// add(a, b) { return a + b; }
func TestBuilderCompilesSimpleReturn(t *testing.T) {
	mod := ir.NewModule("m")
	bld := New(mod, "add", 2, false)
	bld.PushScope()

	bld.Reference(1, runtime.Locator{Kind: runtime.LocatorArgument, Index: 0})
	bld.Dereference(false)
	bld.Reference(2, runtime.Locator{Kind: runtime.LocatorArgument, Index: 1})
	bld.Dereference(false)
	bld.Add()
	bld.Return(1)

	bld.PopScope(nil)
	idx := bld.EndFunction()
	require.Equal(t, uint32(0), idx)
	require.Len(t, mod.Functions, 1)
	require.NoError(t, ir.Verify(mod.Functions[0]))
}

// if (cond) { return 1; } else { return 2; }
func TestBuilderCompilesIfElse(t *testing.T) {
	mod := ir.NewModule("m")
	bld := New(mod, "f", 1, false)
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
	require.NoError(t, ir.Verify(mod.Functions[idx]))
}

// while (cond) { if (skip) continue; if (stop) break; }
func TestBuilderCompilesWhileWithBreakAndContinue(t *testing.T) {
	mod := ir.NewModule("m")
	bld := New(mod, "f", 1, false)
	bld.PushScope()

	bld.LoopInit()
	bld.Reference(1, runtime.Locator{Kind: runtime.LocatorArgument, Index: 0})
	bld.Dereference(false)
	bld.ToBoolean()
	bld.LoopTest()
	bld.LoopBody()

	bld.PushBoolean(true)
	bld.ToBoolean()
	after := bld.IfStatement()
	bld.Continue(0)
	bld.EndIf()
	_ = after

	bld.PushBoolean(false)
	bld.ToBoolean()
	after2 := bld.IfStatement()
	bld.Break(0)
	bld.EndIf()
	_ = after2

	bld.LoopNext()
	bld.LoopEnd(0)

	bld.PopScope(nil)
	idx := bld.EndFunction()
	require.NoError(t, ir.Verify(mod.Functions[idx]))
}

// try { throw 1; } catch (e) { } finally { }
func TestBuilderCompilesTryCatchFinally(t *testing.T) {
	mod := ir.NewModule("m")
	bld := New(mod, "f", 0, false)
	bld.PushScope()

	bld.Try()
	bld.PushNumber(1)
	bld.Throw()
	bld.Catch(true)
	bld.Finally()
	bld.TryEnd()

	bld.PopScope(nil)
	idx := bld.EndFunction()
	require.NoError(t, ir.Verify(mod.Functions[idx]))
}

// calling a non-function value raises a TypeError instead of crashing.
func TestBuilderCallChecksClosureKind(t *testing.T) {
	mod := ir.NewModule("m")
	bld := New(mod, "f", 1, false)
	bld.PushScope()

	bld.Arguments(0)
	bld.Reference(1, runtime.Locator{Kind: runtime.LocatorArgument, Index: 0})
	bld.Dereference(false)
	bld.Call(0)
	bld.Return(1)

	bld.PopScope(nil)
	idx := bld.EndFunction()
	require.NoError(t, ir.Verify(mod.Functions[idx]))
}

// a closure captures an outer local declared in the enclosing scope.
func TestBuilderClosureCapturesOuterLocal(t *testing.T) {
	mod := ir.NewModule("m")
	inner := ir.NewFunction(ir.Signature{Name: "inner"})
	innerID := mod.AddFunction(inner)

	bld := New(mod, "outer", 0, false)
	bld.PushScope()

	local := runtime.Locator{Kind: runtime.LocatorLocal, Index: 0}
	bld.PushNumber(42)
	bld.DeclareMutable(local, 1)
	bld.CreateCapture(local)

	bld.PushFunction(innerID)
	bld.Reference(1, local)
	bld.Dereference(false)
	bld.Closure(false, 1)
	bld.Return(1)

	bld.PopScope([]runtime.Locator{local})
	idx := bld.EndFunction()
	require.NoError(t, ir.Verify(mod.Functions[idx]))
}

// outer: while (a) { inner: while (b) { continue outer; break inner; } }
func TestBuilderLabelledContinueAndBreak(t *testing.T) {
	mod := ir.NewModule("m")
	bld := New(mod, "f", 2, false)
	bld.PushScope()

	const outerSym, innerSym uint32 = 10, 20

	bld.LabelStart(outerSym)
	bld.LoopInit()
	bld.Reference(1, runtime.Locator{Kind: runtime.LocatorArgument, Index: 0})
	bld.Dereference(false)
	bld.ToBoolean()
	bld.LoopTest()
	bld.LoopBody()

	bld.LabelStart(innerSym)
	bld.LoopInit()
	bld.Reference(2, runtime.Locator{Kind: runtime.LocatorArgument, Index: 1})
	bld.Dereference(false)
	bld.ToBoolean()
	bld.LoopTest()
	bld.LoopBody()

	bld.Continue(outerSym)
	bld.Break(innerSym)

	bld.LoopNext()
	bld.LoopEnd(1)

	bld.LoopNext()
	bld.LoopEnd(1)

	bld.PopScope(nil)
	idx := bld.EndFunction()
	require.NoError(t, ir.Verify(mod.Functions[idx]))
}
