// Package builder is the per-function frontend described in spec.md
// §4.2: it receives opcodes in source order (one public method per
// opcode family) and emits a well-formed internal/ir.Function, driving
// an internal/flow.Stack to resolve cleanup/exception targets as it
// goes. Grounded on the shape of the original compiler's Compiler class
// (llvmir/compiler.cc), translated from direct LLVMIRBuilder calls into
// calls against internal/ir.Builder.
package builder

import (
	"fmt"

	"github.com/silkjs/corejit/internal/flow"
	"github.com/silkjs/corejit/internal/ir"
	"github.com/silkjs/corejit/internal/ir/pass"
	"github.com/silkjs/corejit/internal/runtime"
)

// Builder compiles one JavaScript function body into one internal/ir.Function.
type Builder struct {
	Module *ir.Module
	fn     *ir.Function
	b      *ir.Builder
	flow   flow.Stack

	stack []Item

	// argv holds the stack of in-progress outgoing call argument
	// buffers between Arguments(argc) and the matching Call(argc); a
	// stack rather than a single slot because argument expressions can
	// themselves contain nested calls.
	argv []pendingArgv

	// captures maps a captured local's Locator to the Ptr of the
	// runtime.Capture the scope's init block allocated for it (spec.md
	// §4.2: "a map from locator -> capture pointer").
	captures map[runtime.Locator]ir.Value

	// locals maps an uncaptured local's Locator to the Ptr its first
	// resolveAddr call allocated, so every later Reference to the same
	// locator resolves to the same stack slot instead of a fresh one
	// (each Reference() call otherwise builds a brand new *Reference with
	// no memory of earlier resolutions).
	locals map[runtime.Locator]ir.Value

	// pendingUpdateRef holds the Reference a compound-assignment
	// operator (`x += y`) captured on Dereference, so the later
	// Assignment call can complete the read-modify-write without the
	// frontend re-resolving the locator.
	pendingUpdateRef *Reference

	// pendingLabels holds label symbols seen since the last loop/switch
	// started, in source order (`outer: inner: while(...)` pushes both).
	// The next LoopTest/LoopBody/CaseBlock tags its break/continue
	// targets with each pending symbol in addition to 0, then drains the
	// slice, so `continue outer;`/`break inner;` resolve to the same
	// blocks the construct's own unlabelled break/continue would without
	// needing a forward-reference patch-up once the construct closes.
	pendingLabels []uint32

	// loopNextBlk stacks the next-iteration block each open loop created
	// in LoopBody, so the matching LoopNext can find it without the
	// flow.Stack's generic LoopBody payload carrying IR-builder-specific
	// bookkeeping.
	loopNextBlk []*ir.BasicBlock

	// status and flowSelector back the function's shared status/flow-
	// selector registers (spec.md §4.3), allocated lazily on first use.
	status, flowSelector ir.Value
}

// New starts compiling a new function named name into mod, with
// paramsLen parameters and isCoroutine matching whether the source
// function is a generator/async function (spec.md §6.4).
func New(mod *ir.Module, name string, paramsLen uint16, isCoroutine bool) *Builder {
	fn := ir.NewFunction(ir.Signature{Name: name, ParamsLen: paramsLen, IsCoroutine: isCoroutine})
	bld := &Builder{
		Module:   mod,
		fn:       fn,
		b:        ir.NewBuilder(fn),
		captures: map[runtime.Locator]ir.Value{},
		locals:   map[runtime.Locator]ir.Value{},
	}

	body := bld.b.CreateBlock()
	ret := bld.b.CreateBlock()
	bld.flow.PushFunction(flow.Function{
		Locals: fn.Locals,
		Args:   fn.Entry,
		Body:   body,
		Return: ret,
	})
	bld.b.Insert(bld.b.AllocateInstruction().AsJump(body))
	bld.b.SetCurrentBlock(body)
	return bld
}

// EndFunction closes out compilation: the function's Return block loads
// retv's status (or Normal if nothing ever stored one, i.e. an empty
// body) and returns it, the IR is verified, the optimizer pipeline runs,
// and the finished function is registered in Module. Returns the
// function's index in Module, the funcID a sibling OpFuncRef uses.
func (bld *Builder) EndFunction() uint32 {
	root := bld.flow.PopFunction()

	bld.b.SetCurrentBlock(root.Return)
	status := bld.statusSlot()
	loaded := bld.b.AllocateInstruction().AsLoadI32(bld.b, status)
	bld.b.Insert(loaded)
	bld.b.Insert(bld.b.AllocateInstruction().AsReturn(loaded.Return()))

	// Every OpAlloca has been emitted by now; close Locals out with its
	// fallthrough into Entry, matching the single required terminator
	// invariant every other block already carries.
	bld.fn.Locals.InsertInstruction(bld.b.AllocateInstruction().AsJump(bld.fn.Entry))

	if err := ir.Verify(bld.fn); err != nil {
		panic("builder: " + err.Error())
	}
	pass.Run(bld.fn)

	return bld.Module.AddFunction(bld.fn)
}

// Discard drops an expression-statement's value (an assignment or call
// used as a whole statement pushes its result the same as it would as a
// sub-expression; the frontend calls Discard to throw that result away
// once it knows no enclosing expression will consume it).
func (bld *Builder) Discard() { bld.pop() }

func (bld *Builder) push(it Item)   { bld.stack = append(bld.stack, it) }
func (bld *Builder) pop() Item {
	if len(bld.stack) == 0 {
		panic("builder: operand stack underflow")
	}
	it := bld.stack[len(bld.stack)-1]
	bld.stack = bld.stack[:len(bld.stack)-1]
	return it
}

// Duplicate implements the `Duplicate` opcode the Assignment family
// (spec.md §4.2 item 8) lowers `x OP= y` through.
func (bld *Builder) Duplicate() {
	top := bld.stack[len(bld.stack)-1]
	bld.push(top)
}

// --- 1. Constants ----------------------------------------------------------

func (bld *Builder) PushUndefined() { bld.push(Item{Kind: ItemUndefined}) }
func (bld *Builder) PushNull()      { bld.push(Item{Kind: ItemNull}) }

func (bld *Builder) PushBoolean(v bool) {
	imm := int32(0)
	if v {
		imm = 1
	}
	instr := bld.b.AllocateInstruction().AsIconst32(bld.b, imm)
	bld.b.Insert(instr)
	bld.push(booleanItem(instr.Return()))
}

func (bld *Builder) PushNumber(v float64) {
	instr := bld.b.AllocateInstruction().AsFconst(bld.b, v)
	bld.b.Insert(instr)
	bld.push(numberItem(instr.Return()))
}

// PushString interns s in the module's string table and pushes the
// boxed constant; strings are never materialized byte-by-byte by
// emitted code (spec.md §6.1's StringConstant helper handles it).
func (bld *Builder) PushString(s string) {
	index := bld.Module.InternString(s)
	idxInstr := bld.b.AllocateInstruction().AsIconst32(bld.b, int32(index))
	bld.b.Insert(idxInstr)
	call := bld.b.AllocateInstruction().AsRuntimeCall(bld.b, ir.HelperStringConstant, ir.TypePtr, idxInstr.Return())
	bld.b.Insert(call)
	bld.push(anyItem(call.Return()))
}

// PushFunction pushes an unrealized reference to module function funcID;
// Closure() later turns it into a callable value.
func (bld *Builder) PushFunction(funcID uint32) {
	bld.push(Item{Kind: ItemFunction, FuncID: funcID})
}

// --- 2/3. References and Dereference ---------------------------------------

// Reference pushes an L-value descriptor for locator, identified for
// diagnostics by symbol.
func (bld *Builder) Reference(symbol uint32, locator runtime.Locator) {
	bld.push(Item{Kind: ItemReference, Ref: &Reference{Locator: locator, Symbol: symbol}})
}

// Dereference pops a Reference and pushes Any(*Value) addressing its
// slot; any other item kind passes through unchanged. captureUpdate
// should be true when compiling the read side of a compound-assignment
// operator, so Assignment can later complete the write-back without
// re-resolving the locator.
func (bld *Builder) Dereference(captureUpdate bool) {
	top := bld.pop()
	if top.Kind != ItemReference {
		bld.push(top)
		return
	}
	addr := bld.resolveAddr(top.Ref)
	if captureUpdate {
		bld.pendingUpdateRef = top.Ref
	}
	bld.push(anyItem(addr))
}

func (bld *Builder) resolveAddr(ref *Reference) ir.Value {
	if ref.Addr.Valid() {
		return ref.Addr
	}
	switch ref.Locator.Kind {
	case runtime.LocatorArgument:
		instr := bld.b.AllocateInstruction().AsArgAddr(bld.b, ref.Locator.Index)
		bld.b.Insert(instr)
		ref.Addr = instr.Return()
	case runtime.LocatorLocal:
		if capturePtr, ok := bld.captures[ref.Locator]; ok {
			// CreateCapture has already run for this locator: every
			// later Reference/Dereference observes the shared binding
			// through the capture's Target rather than the raw stack
			// slot, so inner closures and the declaring scope alike
			// always read the same live value.
			ref.Addr = capturePtr
		} else if addr, ok := bld.locals[ref.Locator]; ok {
			ref.Addr = addr
		} else {
			ref.Addr = bld.b.InsertAlloca()
			bld.locals[ref.Locator] = ref.Addr
		}
	case runtime.LocatorCapture:
		if capturePtr, ok := bld.captures[ref.Locator]; ok {
			ref.Addr = capturePtr
		} else {
			instr := bld.b.AllocateInstruction().AsCaptureAddr(bld.b, ref.Locator.Index)
			bld.b.Insert(instr)
			ref.Addr = instr.Return()
		}
	default:
		panic(fmt.Sprintf("builder: unresolved locator kind %d", ref.Locator.Kind))
	}
	return ref.Addr
}

// --- materializing items to a boxed *Value ----------------------------------

func (bld *Builder) materializeAny(it Item) ir.Value {
	switch it.Kind {
	case ItemAny:
		return it.Any
	case ItemUndefined:
		instr := bld.b.AllocateInstruction().AsBoxUndefined(bld.b)
		bld.b.Insert(instr)
		return instr.Return()
	case ItemNull:
		instr := bld.b.AllocateInstruction().AsBoxNull(bld.b)
		bld.b.Insert(instr)
		return instr.Return()
	case ItemBoolean:
		instr := bld.b.AllocateInstruction().AsBoxBool(bld.b, it.Bool)
		bld.b.Insert(instr)
		return instr.Return()
	case ItemNumber:
		instr := bld.b.AllocateInstruction().AsBoxNumber(bld.b, it.Number)
		bld.b.Insert(instr)
		return instr.Return()
	case ItemReference:
		return bld.materializeAny(anyItem(bld.resolveAddr(it.Ref)))
	default:
		panic(fmt.Sprintf("builder: cannot materialize item kind %d", it.Kind))
	}
}

// --- 9. Variable declarations ------------------------------------------------

// DeclareImmutable writes value into the local slot named by locator
// with FlagInitialized|FlagDeletable-free immutable flags, per spec.md
// §4.2 item 9.
func (bld *Builder) DeclareImmutable(locator runtime.Locator, symbol uint32) {
	bld.declare(locator, symbol, runtime.FlagInitialized, false)
}

func (bld *Builder) DeclareMutable(locator runtime.Locator, symbol uint32) {
	bld.declare(locator, symbol, runtime.FlagInitialized|runtime.FlagMutable, false)
}

// DeclareFunction and DeclareClosure write into the scope's hoisted
// block rather than the current insertion point, so hoisted bindings are
// visible before the scope's first statement runs.
func (bld *Builder) DeclareFunction(locator runtime.Locator, symbol uint32) {
	bld.declare(locator, symbol, runtime.FlagInitialized|runtime.FlagMutable, true)
}

func (bld *Builder) DeclareClosure(locator runtime.Locator, symbol uint32) {
	bld.declare(locator, symbol, runtime.FlagInitialized|runtime.FlagMutable, true)
}

func (bld *Builder) declare(locator runtime.Locator, symbol uint32, flags runtime.VariableFlag, hoisted bool) {
	value := bld.pop()
	boxed := bld.materializeAny(value)

	var addr ir.Value
	if hoisted {
		saved := bld.b.CurrentBlock()
		bld.b.SetCurrentBlock(bld.flow.ScopeFrame().Hoisted)
		addr = bld.resolveAddr(&Reference{Locator: locator})
		bld.emitDeclareWrites(addr, boxed, flags, symbol)
		bld.b.SetCurrentBlock(saved)
		return
	}
	addr = bld.resolveAddr(&Reference{Locator: locator})
	bld.emitDeclareWrites(addr, boxed, flags, symbol)
}

func (bld *Builder) emitDeclareWrites(addr, boxed ir.Value, flags runtime.VariableFlag, symbol uint32) {
	bld.b.Insert(bld.b.AllocateInstruction().AsCopyValue(addr, boxed))
	bld.b.Insert(bld.b.AllocateInstruction().AsAssignFlags(addr, uint8(flags), symbol))
}

// --- Assignment --------------------------------------------------------------

// Assignment pops a value and a Reference (or consumes the one captured
// by a prior Dereference(true) for a compound-assignment operator), and
// writes the value into the reference's slot. The slot's flags are left
// untouched; DeclareMutable/DeclareImmutable own the Flags/Symbol write.
func (bld *Builder) Assignment() {
	value := bld.pop()
	boxed := bld.materializeAny(value)

	var ref *Reference
	if bld.pendingUpdateRef != nil {
		ref = bld.pendingUpdateRef
		bld.pendingUpdateRef = nil
	} else {
		top := bld.pop()
		if top.Kind != ItemReference {
			panic("builder: Assignment without a Reference on the stack")
		}
		ref = top.Ref
	}
	addr := bld.resolveAddr(ref)
	bld.b.Insert(bld.b.AllocateInstruction().AsCopyValue(addr, boxed))
	bld.push(anyItem(boxed))
}

// Function exposes the in-progress IR function, mainly for tests and
// internal/jit's compilation driver.
func (bld *Builder) Function() *ir.Function { return bld.fn }
func (bld *Builder) IRBuilder() *ir.Builder  { return bld.b }
func (bld *Builder) Flow() *flow.Stack       { return &bld.flow }
