package flow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silkjs/corejit/internal/ir"
)

func newFn() *ir.Function { return ir.NewFunction(ir.Signature{Name: "f"}) }

func TestScopePropagatesReturnedAndThrown(t *testing.T) {
	fn := newFn()
	var s Stack
	s.PushFunction(Function{fn.Locals, fn.Entry, fn.Entry, fn.Entry})
	s.PushScope(Scope{Init: fn.Entry, Hoisted: fn.Entry, Block: fn.Entry, Cleanup: fn.Entry})
	s.PushScope(Scope{Init: fn.Entry, Hoisted: fn.Entry, Block: fn.Entry, Cleanup: fn.Entry})

	s.SetReturned()
	inner := s.PopScope()
	require.True(t, inner.Returned)
	require.True(t, s.ScopeFrame().Returned)

	s.PushScope(Scope{Init: fn.Entry, Hoisted: fn.Entry, Block: fn.Entry, Cleanup: fn.Entry})
	s.SetThrown()
	s.PopScope()
	require.True(t, s.ScopeFrame().Thrown)

	s.PopScope()
	s.PopFunction()
}

func TestExceptionPropagatesThrownToEnclosingScope(t *testing.T) {
	fn := newFn()
	var s Stack
	s.PushFunction(Function{fn.Locals, fn.Entry, fn.Entry, fn.Entry})
	s.PushScope(Scope{Init: fn.Entry, Hoisted: fn.Entry, Block: fn.Entry, Cleanup: fn.Entry})
	s.PushException(Exception{Try: fn.Entry, Catch: fn.Entry, Finally: fn.Entry, End: fn.Entry})

	s.SetThrown()
	e := s.PopException()
	require.True(t, e.Thrown)
	require.True(t, s.ScopeFrame().Thrown)
}

func TestSetContinueTargetBackfillsUnresolvedChain(t *testing.T) {
	var s Stack
	resolved := &ir.BasicBlock{}
	next := &ir.BasicBlock{}
	s.PushContinueTarget(resolved, 0) // an outer loop, already resolved
	s.PushContinueTarget(nil, 1)      // labelled loop awaiting its next-block
	s.PushContinueTarget(nil, 0)      // innermost unlabelled loop, same next-block

	s.SetContinueTarget(next)

	targets := s.ContinueTargets()
	require.Same(t, next, targets[2].Block)
	require.Same(t, next, targets[1].Block)
	require.Same(t, resolved, targets[0].Block, "already-resolved outer entry is left untouched")
}

func TestBreakTargetStackOrder(t *testing.T) {
	var s Stack
	b1, b2 := &ir.BasicBlock{}, &ir.BasicBlock{}
	s.PushBreakTarget(b1, 0)
	s.PushBreakTarget(b2, 7)

	top := s.PopBreakTarget()
	require.Same(t, b2, top.Block)
	require.Equal(t, uint32(7), top.Symbol)

	next := s.PopBreakTarget()
	require.Same(t, b1, next.Block)
}
