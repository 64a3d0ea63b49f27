package builder

import (
	"github.com/silkjs/corejit/internal/ir"
	"github.com/silkjs/corejit/internal/runtime"
)

// pendingArgv tracks the outgoing argv buffer a Call is being assembled
// into, between Arguments(argc) and Call(argc).
type pendingArgv struct {
	buf  ir.Value
	argc uint16
}

// Arguments allocates an argc-length argv buffer for the call about to
// be assembled (spec.md §4.2 item 10).
func (bld *Builder) Arguments(argc uint16) {
	instr := bld.b.AllocateInstruction().AsArgvAlloc(bld.b, argc)
	bld.b.Insert(instr)
	bld.argv = append(bld.argv, pendingArgv{buf: instr.Return(), argc: argc})
}

// Argument stores the top stack item into argv[index] of the innermost
// pending Arguments buffer.
func (bld *Builder) Argument(index uint16) {
	top := bld.pop()
	boxed := bld.materializeAny(top)
	cur := &bld.argv[len(bld.argv)-1]
	bld.b.Insert(bld.b.AllocateInstruction().AsArgvStore(cur.buf, index, boxed))
}

// Call pops the innermost argv buffer and a closure reference, loads the
// closure's Lambda and capture table, invokes it, and pushes the Any
// result, copied out of retv into a slot of its own so a later call
// cannot overwrite it. A Kind mismatch (the popped value isn't
// actually a Closure) raises a TypeError through the current exception
// block rather than invoking garbage, resolving spec.md §9's open
// question in favor of a real thrown exception.
func (bld *Builder) Call(argc uint16) {
	pending := bld.argv[len(bld.argv)-1]
	bld.argv = bld.argv[:len(bld.argv)-1]

	closureItem := bld.pop()
	closureAddr := bld.materializeAny(closureItem)

	kind := bld.b.AllocateInstruction().AsUnboxKind(bld.b, closureAddr)
	bld.b.Insert(kind)
	expected := bld.b.AllocateInstruction().AsIconst32(bld.b, int32(runtime.TagClosure))
	bld.b.Insert(expected)
	isClosure := bld.b.AllocateInstruction().AsIEq(bld.b, kind.Return(), expected.Return())
	bld.b.Insert(isClosure)

	okBlk := bld.b.CreateBlock()
	badBlk := bld.b.CreateBlock()
	bld.b.Insert(bld.b.AllocateInstruction().AsCondBr(isClosure.Return(), okBlk, badBlk))

	bld.b.SetCurrentBlock(badBlk)
	msgIdx := bld.Module.InternString("value is not a function")
	msgIdxInstr := bld.b.AllocateInstruction().AsIconst32(bld.b, int32(msgIdx))
	bld.b.Insert(msgIdxInstr)
	msg := bld.b.AllocateInstruction().AsRuntimeCall(bld.b, ir.HelperNewTypeError, ir.TypePtr, msgIdxInstr.Return())
	bld.b.Insert(msg)
	retv := bld.retvAddr()
	bld.b.Insert(bld.b.AllocateInstruction().AsCopyValue(retv, msg.Return()))
	bld.storeStatus(runtime.StatusException)
	bld.throwTo(bld.flow.ExceptionBlock())

	bld.b.SetCurrentBlock(okBlk)
	retv2 := bld.retvAddr()
	callInstr := bld.b.AllocateInstruction().AsCall(bld.b, closureAddr, pending.buf, retv2, argc)
	bld.b.Insert(callInstr)

	normalBlk := bld.b.CreateBlock()
	exceptionBlk := bld.b.CreateBlock()
	statusIsException := bld.b.AllocateInstruction()
	excConst := bld.b.AllocateInstruction().AsIconst32(bld.b, int32(runtime.StatusException))
	bld.b.Insert(excConst)
	statusIsException.AsIEq(bld.b, callInstr.Return(), excConst.Return())
	bld.b.Insert(statusIsException)
	bld.b.Insert(bld.b.AllocateInstruction().AsCondBr(statusIsException.Return(), exceptionBlk, normalBlk))

	bld.b.SetCurrentBlock(exceptionBlk)
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(bld.flow.ExceptionBlock()))

	bld.b.SetCurrentBlock(normalBlk)
	result := bld.b.InsertAlloca()
	bld.b.Insert(bld.b.AllocateInstruction().AsCopyValue(result, retv2))
	bld.push(anyItem(result))
}

func (bld *Builder) retvAddr() ir.Value {
	instr := bld.b.AllocateInstruction().AsRetvAddr(bld.b)
	bld.b.Insert(instr)
	return instr.Return()
}

// throwTo is the common tail of a thrown TypeError/ReferenceError: mark
// the scope thrown and jump to target. The caller stores retv and the
// Exception status first.
func (bld *Builder) throwTo(target *ir.BasicBlock) {
	bld.flow.SetThrown()
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(target))
	bld.startDeadcodeBlock()
}

// --- Closure creation and capture machinery (spec.md §4.2) -----------------

// Closure pops numCaptures capture references and a Function item, calls
// create_closure, stores each capture pointer into the returned table,
// and pushes the resulting closure. declarationFlag routes the
// create_closure call into the scope's hoisted block when true, so
// function declarations are visible before the scope's first statement.
func (bld *Builder) Closure(declarationFlag bool, numCaptures uint16) {
	captures := make([]Item, numCaptures)
	for i := int(numCaptures) - 1; i >= 0; i-- {
		captures[i] = bld.pop()
	}
	fnItem := bld.pop()
	if fnItem.Kind != ItemFunction {
		panic("builder: Closure without a Function item on the stack")
	}

	saved := bld.b.CurrentBlock()
	if declarationFlag {
		bld.b.SetCurrentBlock(bld.flow.ScopeFrame().Hoisted)
	}

	funcRef := bld.b.AllocateInstruction().AsFuncRef(bld.b, fnItem.FuncID)
	bld.b.Insert(funcRef)
	create := bld.b.AllocateInstruction().AsRuntimeCall(bld.b, ir.HelperCreateClosure, ir.TypePtr, funcRef.Return(), numCaptureImm(bld, numCaptures))
	bld.b.Insert(create)

	for i, capItem := range captures {
		capAddr := bld.materializeAny(capItem)
		bld.b.Insert(bld.b.AllocateInstruction().AsStoreCaptureSlot(create.Return(), uint16(i), capAddr))
	}

	if declarationFlag {
		bld.b.SetCurrentBlock(saved)
	}
	bld.push(anyItem(create.Return()))
}

func numCaptureImm(bld *Builder, n uint16) ir.Value {
	instr := bld.b.AllocateInstruction().AsIconst32(bld.b, int32(n))
	bld.b.Insert(instr)
	return instr.Return()
}

// CreateCapture tags locator as captured: on the current scope's init
// block it emits create_capture(&variable) and records the resulting
// pointer so every later Reference/Dereference of locator resolves
// through the capture instead of the raw stack slot.
func (bld *Builder) CreateCapture(locator runtime.Locator) {
	saved := bld.b.CurrentBlock()
	bld.b.SetCurrentBlock(bld.flow.ScopeFrame().Init)

	variableAddr := bld.resolveAddr(&Reference{Locator: locator})
	call := bld.b.AllocateInstruction().AsRuntimeCall(bld.b, ir.HelperCreateCapture, ir.TypePtr, variableAddr)
	bld.b.Insert(call)
	bld.captures[locator] = call.Return()

	bld.b.SetCurrentBlock(saved)
}

// EscapeVariable is emitted into the scope's cleanup block for every
// locator captured within it: it copies the live Variable into the
// Capture's escaped field and rewrites target so outer closures keep
// observing the latest value after the frame is gone.
func (bld *Builder) EscapeVariable(locator runtime.Locator) {
	capAddr, ok := bld.captures[locator]
	if !ok {
		return
	}
	bld.b.Insert(bld.b.AllocateInstruction().AsEscapeCapture(capAddr))
}
