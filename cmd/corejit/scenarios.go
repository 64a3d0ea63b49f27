package main

import (
	"github.com/silkjs/corejit/internal/builder"
	"github.com/silkjs/corejit/internal/ir"
	"github.com/silkjs/corejit/internal/runtime"
)

// scenario bundles a built module, the function index to call, and the
// arguments to call it with. Each one corresponds to an end-to-end
// scenario spec.md uses to state the JIT core's testable properties:
// recursion through a self-referencing closure, closure state surviving
// across repeated calls, try/catch/finally completion routing, loop
// continue, and switch fallthrough.
type scenario struct {
	name string
	mod  *ir.Module
	fn   uint32
	argv []runtime.Value
	want float64
}

func scenarios() []scenario {
	return []scenario{
		fibonacciScenario(),
		closureCounterScenario(),
		tryCatchFinallyScenario(),
		loopContinueScenario(),
		switchFallthroughScenario(),
	}
}

// fibonacciScenario builds:
//
//	function fib(n) { if (n < 2) return n; return fib(n - 1) + fib(n - 2); }
//	function fibMain(n) { const fib = <closure over itself>; return fib(n); }
//
// Every call in this design goes through a boxed Closure value — there
// is no direct function-table call opcode — so a recursive top-level
// function has to capture itself: fibMain declares a local, captures it
// before it's ever assigned, builds fib's closure against that capture,
// and only then assigns the closure back into the same local. fib's own
// body reaches itself through capture slot 0, the same way any other
// nested function reads a variable from its enclosing scope.
func fibonacciScenario() scenario {
	mod := ir.NewModule("fibonacci")

	nArg := runtime.Locator{Kind: runtime.LocatorArgument, Index: 0}
	selfCap := runtime.Locator{Kind: runtime.LocatorCapture, Index: 0}

	fib := builder.New(mod, "fib", 1, false)
	fib.PushScope()

	fib.Reference(1, nArg)
	fib.Dereference(false)
	fib.PushNumber(2)
	fib.Lt()
	fib.IfStatement()
	fib.Reference(1, nArg)
	fib.Dereference(false)
	fib.Return(1)
	fib.EndIf()

	fib.Reference(2, selfCap)
	fib.Dereference(false)
	fib.Arguments(1)
	fib.Reference(1, nArg)
	fib.Dereference(false)
	fib.PushNumber(1)
	fib.Sub()
	fib.Argument(0)
	fib.Call(1)

	fib.Reference(2, selfCap)
	fib.Dereference(false)
	fib.Arguments(1)
	fib.Reference(1, nArg)
	fib.Dereference(false)
	fib.PushNumber(2)
	fib.Sub()
	fib.Argument(0)
	fib.Call(1)

	fib.Add()
	fib.Return(1)

	fib.PopScope(nil)
	fibID := fib.EndFunction()

	fibLocal := runtime.Locator{Kind: runtime.LocatorLocal, Index: 0}
	main := builder.New(mod, "fibMain", 1, false)
	main.PushScope()

	main.PushUndefined()
	main.DeclareMutable(fibLocal, 1)
	main.CreateCapture(fibLocal)

	main.Reference(1, fibLocal)
	main.PushFunction(fibID)
	main.Reference(1, fibLocal)
	main.Dereference(false)
	main.Closure(false, 1)
	main.Assignment()
	main.Discard()

	main.Reference(1, fibLocal)
	main.Dereference(false)
	main.Arguments(1)
	main.Reference(2, runtime.Locator{Kind: runtime.LocatorArgument, Index: 0})
	main.Dereference(false)
	main.Argument(0)
	main.Call(1)
	main.Return(1)

	main.PopScope([]runtime.Locator{fibLocal})
	mainID := main.EndFunction()

	return scenario{
		name: "fibonacci(10) via a self-capturing recursive closure",
		mod:  mod,
		fn:   mainID,
		argv: []runtime.Value{runtime.Number(10)},
		want: 55,
	}
}

// closureCounterScenario builds:
//
//	function increment() { count = count + 1; return count; }
//	function makeCounter() { let count = 0; return increment (capturing count); }
//	function counterMain() { const c = makeCounter(); c(); c(); return c(); }
//
// demonstrating that a captured local survives makeCounter's own frame
// going away and is shared (not copied) across three separate calls
// through the same closure.
func closureCounterScenario() scenario {
	mod := ir.NewModule("counter")

	countCap := runtime.Locator{Kind: runtime.LocatorCapture, Index: 0}
	increment := builder.New(mod, "increment", 0, false)
	increment.PushScope()
	increment.Reference(1, countCap)
	increment.Reference(1, countCap)
	increment.Dereference(false)
	increment.PushNumber(1)
	increment.Add()
	increment.Assignment()
	increment.Discard()
	increment.Reference(1, countCap)
	increment.Dereference(false)
	increment.Return(1)
	increment.PopScope(nil)
	incrementID := increment.EndFunction()

	countLocal := runtime.Locator{Kind: runtime.LocatorLocal, Index: 0}
	makeCounter := builder.New(mod, "makeCounter", 0, false)
	makeCounter.PushScope()
	makeCounter.PushNumber(0)
	makeCounter.DeclareMutable(countLocal, 1)
	makeCounter.CreateCapture(countLocal)
	makeCounter.PushFunction(incrementID)
	makeCounter.Reference(1, countLocal)
	makeCounter.Dereference(false)
	makeCounter.Closure(false, 1)
	makeCounter.Return(1)
	makeCounter.PopScope([]runtime.Locator{countLocal})
	makeCounterID := makeCounter.EndFunction()

	counterLocal := runtime.Locator{Kind: runtime.LocatorLocal, Index: 0}
	main := builder.New(mod, "counterMain", 0, false)
	main.PushScope()

	main.PushFunction(makeCounterID)
	main.Closure(false, 0)
	main.Arguments(0)
	main.Call(0)
	main.DeclareMutable(counterLocal, 1)

	for i := 0; i < 3; i++ {
		main.Reference(1, counterLocal)
		main.Dereference(false)
		main.Arguments(0)
		main.Call(0)
		if i < 2 {
			main.Discard()
		}
	}
	main.Return(1)

	main.PopScope([]runtime.Locator{counterLocal})
	mainID := main.EndFunction()

	return scenario{
		name: "closure counter called three times",
		mod:  mod,
		fn:   mainID,
		argv: nil,
		want: 3,
	}
}

// tryCatchFinallyScenario builds:
//
//	function tryCatchFinally() {
//	  let y;
//	  try { throw 10; } catch (e) { y = e + 1; } finally {}
//	  return y;
//	}
func tryCatchFinallyScenario() scenario {
	mod := ir.NewModule("trycatch")
	bld := builder.New(mod, "tryCatchFinally", 0, false)
	bld.PushScope()

	yLocal := runtime.Locator{Kind: runtime.LocatorLocal, Index: 0}
	eLocal := runtime.Locator{Kind: runtime.LocatorLocal, Index: 1}
	bld.PushUndefined()
	bld.DeclareMutable(yLocal, 1)

	bld.Try()
	bld.PushNumber(10)
	bld.Throw()
	bld.Catch(true)
	bld.Exception()
	bld.DeclareMutable(eLocal, 2)

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

	return scenario{
		name: "try/throw/catch(e)/finally binds the thrown value",
		mod:  mod,
		fn:   idx,
		argv: nil,
		want: 11,
	}
}

// loopContinueScenario builds:
//
//	function loopContinue() {
//	  let sum = 0;
//	  for (let i = 0; i < 5; i = i + 1) {
//	    if (i == 2) continue;
//	    sum = sum + i;
//	  }
//	  return sum;
//	}
//
// skipping i == 2 so the total is 0+1+3+4 = 8, exercising Continue
// against LoopBody's next-iteration target.
func loopContinueScenario() scenario {
	mod := ir.NewModule("loop")
	bld := builder.New(mod, "loopContinue", 0, false)
	bld.PushScope()

	sumLocal := runtime.Locator{Kind: runtime.LocatorLocal, Index: 0}
	iLocal := runtime.Locator{Kind: runtime.LocatorLocal, Index: 1}
	bld.PushNumber(0)
	bld.DeclareMutable(sumLocal, 1)
	bld.PushNumber(0)
	bld.DeclareMutable(iLocal, 2)

	bld.LoopInit()
	bld.Reference(2, iLocal)
	bld.Dereference(false)
	bld.PushNumber(5)
	bld.Lt()
	bld.LoopTest()
	bld.LoopBody()

	bld.Reference(2, iLocal)
	bld.Dereference(false)
	bld.PushNumber(2)
	bld.StrictEqual()
	bld.IfStatement()
	bld.Continue(0)
	bld.EndIf()

	bld.Reference(1, sumLocal)
	bld.Reference(1, sumLocal)
	bld.Dereference(false)
	bld.Reference(2, iLocal)
	bld.Dereference(false)
	bld.Add()
	bld.Assignment()
	bld.Discard()

	bld.LoopNext()
	bld.Reference(2, iLocal)
	bld.Reference(2, iLocal)
	bld.Dereference(false)
	bld.PushNumber(1)
	bld.Add()
	bld.Assignment()
	bld.Discard()
	bld.LoopEnd(0)

	bld.Reference(1, sumLocal)
	bld.Dereference(false)
	bld.Return(1)

	bld.PopScope(nil)
	idx := bld.EndFunction()

	return scenario{
		name: "for-loop with continue skips i == 2",
		mod:  mod,
		fn:   idx,
		argv: nil,
		want: 8,
	}
}

// switchFallthroughScenario builds:
//
//	function switchFallthrough(x) {
//	  let y;
//	  switch (x) {
//	    case 1:
//	    case 2:
//	      y = 10;
//	      break;
//	    default:
//	      y = 99;
//	  }
//	  return y;
//	}
//
// called with x == 1, which falls through case 1's empty body into
// case 2's, landing on y = 10 rather than the default.
func switchFallthroughScenario() scenario {
	mod := ir.NewModule("switchmod")
	bld := builder.New(mod, "switchFallthrough", 1, false)
	bld.PushScope()

	yLocal := runtime.Locator{Kind: runtime.LocatorLocal, Index: 0}
	xArg := runtime.Locator{Kind: runtime.LocatorArgument, Index: 0}
	bld.PushUndefined()
	bld.DeclareMutable(yLocal, 1)

	bld.Reference(2, xArg)
	bld.Dereference(false)
	discr := bld.CaseBlock()

	bld.PushNumber(1)
	case1Body := bld.CaseClause(discr)

	bld.PushNumber(2)
	case2Body := bld.CaseClause(discr)

	lastTestBlock := bld.IRBuilder().CurrentBlock()
	defaultBody := bld.IRBuilder().CreateBlock()
	bld.DefaultClause(defaultBody)

	bld.IRBuilder().SetCurrentBlock(case1Body)
	bld.CaseEnd(case2Body)

	bld.IRBuilder().SetCurrentBlock(case2Body)
	bld.Reference(1, yLocal)
	bld.PushNumber(10)
	bld.Assignment()
	bld.Discard()
	bld.Break(0)

	bld.IRBuilder().SetCurrentBlock(defaultBody)
	bld.Reference(1, yLocal)
	bld.PushNumber(99)
	bld.Assignment()
	bld.Discard()
	bld.Break(0)

	bld.Switch(lastTestBlock, 0)

	bld.Reference(1, yLocal)
	bld.Dereference(false)
	bld.Return(1)

	bld.PopScope(nil)
	idx := bld.EndFunction()

	return scenario{
		name: "switch(1) falls through case 1 into case 2",
		mod:  mod,
		fn:   idx,
		argv: []runtime.Value{runtime.Number(1)},
		want: 10,
	}
}
