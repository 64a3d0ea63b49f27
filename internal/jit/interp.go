package jit

import (
	"context"
	"math"
	"sync"
	"unsafe"

	"github.com/silkjs/corejit/internal/diag"
	"github.com/silkjs/corejit/internal/ir"
	"github.com/silkjs/corejit/internal/runtime"
)

// refTable hands out small integer handles for *runtime.Closure values
// that must survive a boxed runtime.Value round trip. OpCopyValue only
// copies a Value's Kind/Holder fields, so a closure assigned into a
// variable and later read back can't carry a live Go pointer through
// Holder without hiding it from the garbage collector; Holder carries a
// refTable handle instead, and the table itself keeps the *Closure
// reachable for as long as the orchestrator that created it is.
type refTable struct {
	mu   sync.Mutex
	objs []*runtime.Closure
}

func (t *refTable) put(c *runtime.Closure) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.objs = append(t.objs, c)
	return uint64(len(t.objs) - 1)
}

func (t *refTable) get(id uint64) *runtime.Closure {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.objs[id]
}

// ptrCell is what a TypePtr register actually holds during
// interpretation. Only the fields the producing instruction populated
// are non-nil; a native backend would enforce the same contract through its
// type system instead of a nil check.
type ptrCell struct {
	val     *runtime.Value
	vrb     *runtime.Variable
	argv    *[]runtime.Value
	capture *runtime.Capture
	closure *runtime.Closure
	coro    *runtime.CoroutineFrame
}

func asValue(op string, c *ptrCell) *runtime.Value {
	if c == nil || c.val == nil {
		diag.Fatalf("jit: %s: ptr register does not address a Value", op)
	}
	return c.val
}

func asVariable(op string, c *ptrCell) *runtime.Variable {
	if c == nil || c.vrb == nil {
		diag.Fatalf("jit: %s: ptr register does not address a Variable", op)
	}
	return c.vrb
}

func asArgv(op string, c *ptrCell) *[]runtime.Value {
	if c == nil || c.argv == nil {
		diag.Fatalf("jit: %s: ptr register is not an argv buffer", op)
	}
	return c.argv
}

func asCapture(op string, c *ptrCell) *runtime.Capture {
	if c == nil || c.capture == nil {
		diag.Fatalf("jit: %s: ptr register is not a Capture", op)
	}
	return c.capture
}

func asCoroutine(op string, c *ptrCell) *runtime.CoroutineFrame {
	if c == nil || c.coro == nil {
		diag.Fatalf("jit: %s: ptr register is not a CoroutineFrame", op)
	}
	return c.coro
}

// compileFunction lowers fn into a runtime.Lambda that interprets its
// basic blocks directly rather than emitting native code (internal/jit's
// doc comment explains the tradeoff). funcs is the module-wide function
// table shared by every sibling Lambda; it is fully populated by the
// time any of them actually runs, so create_closure can resolve an
// OpFuncRef to a function declared later in source order.
func compileFunction(fn *ir.Function, mod *ir.Module, funcs []runtime.Lambda, refs *refTable) runtime.Lambda {
	return func(rt *runtime.Handle, ctx unsafe.Pointer, argc int, argv []runtime.Value, retv *runtime.Value) runtime.Status {
		var captures []*runtime.Capture
		switch {
		case fn.Signature.IsCoroutine:
			if ctx != nil {
				if cf := (*runtime.CoroutineFrame)(ctx); cf.Closure != nil {
					captures = cf.Closure.Captures
				}
			}
		case ctx != nil:
			captures = *(*[]*runtime.Capture)(ctx)
		}
		fr := &frame{
			rt: rt, mod: mod, fn: fn, funcs: funcs, refs: refs,
			argv: argv, retv: retv, captures: captures,
			regs: make(map[uint32]interface{}, 16),
		}
		return fr.run()
	}
}

// frame is one activation of compileFunction's interpreter: the mutable
// register file plus everything an instruction needs from the calling
// convention (spec.md §6.4).
type frame struct {
	rt       *runtime.Handle
	mod      *ir.Module
	fn       *ir.Function
	funcs    []runtime.Lambda
	refs     *refTable
	argv     []runtime.Value
	retv     *runtime.Value
	captures []*runtime.Capture
	regs     map[uint32]interface{}
}

func (fr *frame) setI32(v ir.Value, x int32)    { fr.regs[v.ID()] = x }
func (fr *frame) setI64(v ir.Value, x int64)    { fr.regs[v.ID()] = x }
func (fr *frame) setF64(v ir.Value, x float64)  { fr.regs[v.ID()] = x }
func (fr *frame) setPtr(v ir.Value, c *ptrCell) { fr.regs[v.ID()] = c }

func (fr *frame) i32(v ir.Value) int32 {
	x, ok := fr.regs[v.ID()].(int32)
	if !ok {
		diag.Fatalf("jit: %s not bound to an i32 register", v)
	}
	return x
}

func (fr *frame) i64(v ir.Value) int64 {
	x, ok := fr.regs[v.ID()].(int64)
	if !ok {
		diag.Fatalf("jit: %s not bound to an i64 register", v)
	}
	return x
}

func (fr *frame) f64(v ir.Value) float64 {
	x, ok := fr.regs[v.ID()].(float64)
	if !ok {
		diag.Fatalf("jit: %s not bound to an f64 register", v)
	}
	return x
}

func (fr *frame) ptr(v ir.Value) *ptrCell {
	c, ok := fr.regs[v.ID()].(*ptrCell)
	if !ok {
		diag.Fatalf("jit: %s not bound to a ptr register", v)
	}
	return c
}

// asClosure recovers the *runtime.Closure a Ptr register addresses,
// either directly (the register was just produced by create_closure, in
// the same basic block) or by unboxing the refTable handle a prior
// OpCopyValue round trip left in Holder.
func (fr *frame) asClosure(op string, c *ptrCell) *runtime.Closure {
	if c == nil {
		diag.Fatalf("jit: %s: nil ptr register", op)
	}
	if c.closure != nil {
		return c.closure
	}
	if c.val != nil && c.val.Kind == runtime.TagClosure {
		return fr.refs.get(c.val.Holder)
	}
	diag.Fatalf("jit: %s: ptr register is not a Closure", op)
	return nil
}

// run walks fn's basic blocks starting at Locals, which EndFunction
// always chains into Entry once every Alloca has been emitted, and
// returns as soon as an OpReturn terminator executes.
func (fr *frame) run() runtime.Status {
	blk := fr.fn.Locals
	for {
		var next *ir.BasicBlock
		for instr := blk.Root(); instr != nil; instr = instr.Next() {
			switch instr.Opcode() {
			case ir.OpJump:
				t, _ := instr.Targets()
				next = t
			case ir.OpCondBr:
				v1, _, _ := instr.Args()
				thenBlk, elseBlk := instr.Targets()
				if fr.i32(v1) != 0 {
					next = thenBlk
				} else {
					next = elseBlk
				}
			case ir.OpReturn:
				v1, _, _ := instr.Args()
				return runtime.Status(uint32(fr.i32(v1)))
			case ir.OpUnreachable:
				diag.Fatalf("jit: reached unreachable block in function %q", fr.fn.Signature.Name)
			default:
				fr.step(instr)
			}
		}
		if next == nil {
			diag.Fatalf("jit: block %s in function %q fell through without a terminator", blk.Name(), fr.fn.Signature.Name)
		}
		blk = next
	}
}

func boolI32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// step executes every non-terminator opcode.
func (fr *frame) step(instr *ir.Instruction) {
	switch instr.Opcode() {
	case ir.OpIconst32:
		fr.setI32(instr.Return(), int32(uint32(instr.Imm())))
	case ir.OpFconst:
		fr.setF64(instr.Return(), math.Float64frombits(instr.Imm()))

	case ir.OpBoxUndefined:
		v := runtime.Undefined()
		fr.setPtr(instr.Return(), &ptrCell{val: &v})
	case ir.OpBoxNull:
		v := runtime.Null()
		fr.setPtr(instr.Return(), &ptrCell{val: &v})
	case ir.OpBoxBool:
		v1, _, _ := instr.Args()
		v := runtime.Bool(fr.i32(v1) != 0)
		fr.setPtr(instr.Return(), &ptrCell{val: &v})
	case ir.OpBoxNumber:
		v1, _, _ := instr.Args()
		v := runtime.Number(fr.f64(v1))
		fr.setPtr(instr.Return(), &ptrCell{val: &v})
	case ir.OpBoxHeapRef:
		v1, _, _ := instr.Args()
		v := runtime.Value{Kind: runtime.Tag(instr.Tag()), Holder: uint64(fr.i64(v1))}
		fr.setPtr(instr.Return(), &ptrCell{val: &v})
	case ir.OpUnboxBool:
		v1, _, _ := instr.Args()
		fr.setI32(instr.Return(), boolI32(asValue("unbox_bool", fr.ptr(v1)).AsBool()))
	case ir.OpUnboxNumber:
		v1, _, _ := instr.Args()
		fr.setF64(instr.Return(), asValue("unbox_number", fr.ptr(v1)).AsNumber())
	case ir.OpUnboxKind:
		v1, _, _ := instr.Args()
		fr.setI32(instr.Return(), int32(asValue("unbox_kind", fr.ptr(v1)).Kind))
	case ir.OpUnboxHolder:
		v1, _, _ := instr.Args()
		fr.setI64(instr.Return(), int64(asValue("unbox_holder", fr.ptr(v1)).Holder))

	case ir.OpAlloca:
		vrb := &runtime.Variable{}
		fr.setPtr(instr.Return(), &ptrCell{val: &vrb.Value, vrb: vrb})
	case ir.OpArgAddr:
		idx := int(instr.Imm())
		if idx >= len(fr.argv) {
			diag.Fatalf("jit: arg_addr #%d out of range (argc=%d)", idx, len(fr.argv))
		}
		fr.setPtr(instr.Return(), &ptrCell{val: &fr.argv[idx]})
	case ir.OpCaptureAddr:
		idx := int(instr.Imm())
		if idx >= len(fr.captures) {
			diag.Fatalf("jit: capture_addr #%d out of range (len=%d)", idx, len(fr.captures))
		}
		tgt := fr.captures[idx].Target
		fr.setPtr(instr.Return(), &ptrCell{val: &tgt.Value, vrb: tgt})
	case ir.OpRetvAddr:
		fr.setPtr(instr.Return(), &ptrCell{val: fr.retv})
	case ir.OpCopyValue:
		v1, v2, _ := instr.Args()
		*asValue("copy_value dst", fr.ptr(v1)) = *asValue("copy_value src", fr.ptr(v2))
	case ir.OpAssignFlags:
		v1, _, _ := instr.Args()
		vrb := asVariable("assign_flags", fr.ptr(v1))
		vrb.Flags = runtime.VariableFlag(byte(instr.Imm()))
		vrb.Symbol = uint32(instr.Imm() >> 8)
	case ir.OpLoadI32:
		v1, _, _ := instr.Args()
		fr.setI32(instr.Return(), int32(uint32(asValue("load_i32", fr.ptr(v1)).Holder)))
	case ir.OpStoreI32:
		v1, v2, _ := instr.Args()
		asValue("store_i32", fr.ptr(v1)).Holder = uint64(uint32(fr.i32(v2)))

	case ir.OpFAdd:
		v1, v2, _ := instr.Args()
		fr.setF64(instr.Return(), fr.f64(v1)+fr.f64(v2))
	case ir.OpFSub:
		v1, v2, _ := instr.Args()
		fr.setF64(instr.Return(), fr.f64(v1)-fr.f64(v2))
	case ir.OpFMul:
		v1, v2, _ := instr.Args()
		fr.setF64(instr.Return(), fr.f64(v1)*fr.f64(v2))
	case ir.OpFDiv:
		v1, v2, _ := instr.Args()
		fr.setF64(instr.Return(), fr.f64(v1)/fr.f64(v2))
	case ir.OpFRem:
		v1, v2, _ := instr.Args()
		fr.setF64(instr.Return(), math.Mod(fr.f64(v1), fr.f64(v2)))
	case ir.OpFNeg:
		v1, _, _ := instr.Args()
		fr.setF64(instr.Return(), -fr.f64(v1))

	case ir.OpBAnd:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), fr.i32(v1)&fr.i32(v2))
	case ir.OpBOr:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), fr.i32(v1)|fr.i32(v2))
	case ir.OpBXor:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), fr.i32(v1)^fr.i32(v2))
	case ir.OpBNot:
		v1, _, _ := instr.Args()
		fr.setI32(instr.Return(), ^fr.i32(v1))
	case ir.OpShl:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), fr.i32(v1)<<(uint32(fr.i32(v2))&31))
	case ir.OpShr:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), fr.i32(v1)>>(uint32(fr.i32(v2))&31))
	case ir.OpUShr:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), int32(uint32(fr.i32(v1))>>(uint32(fr.i32(v2))&31)))

	case ir.OpIEq:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), boolI32(fr.i32(v1) == fr.i32(v2)))
	case ir.OpINe:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), boolI32(fr.i32(v1) != fr.i32(v2)))
	case ir.OpILt:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), boolI32(fr.i32(v1) < fr.i32(v2)))
	case ir.OpILe:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), boolI32(fr.i32(v1) <= fr.i32(v2)))
	case ir.OpIGt:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), boolI32(fr.i32(v1) > fr.i32(v2)))
	case ir.OpIGe:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), boolI32(fr.i32(v1) >= fr.i32(v2)))

	case ir.OpFEq:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), boolI32(fr.f64(v1) == fr.f64(v2)))
	case ir.OpFNe:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), boolI32(fr.f64(v1) != fr.f64(v2)))
	case ir.OpFLt:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), boolI32(fr.f64(v1) < fr.f64(v2)))
	case ir.OpFLe:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), boolI32(fr.f64(v1) <= fr.f64(v2)))
	case ir.OpFGt:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), boolI32(fr.f64(v1) > fr.f64(v2)))
	case ir.OpFGe:
		v1, v2, _ := instr.Args()
		fr.setI32(instr.Return(), boolI32(fr.f64(v1) >= fr.f64(v2)))

	case ir.OpRuntimeCall:
		fr.runtimeCall(instr)

	case ir.OpFuncRef:
		fr.setI32(instr.Return(), int32(instr.Imm()))
	case ir.OpArgvAlloc:
		buf := make([]runtime.Value, instr.Imm())
		fr.setPtr(instr.Return(), &ptrCell{argv: &buf})
	case ir.OpArgvStore:
		v1, v2, _ := instr.Args()
		idx := int(instr.Imm())
		(*asArgv("argv_store", fr.ptr(v1)))[idx] = *asValue("argv_store", fr.ptr(v2))
	case ir.OpCall:
		fr.doCall(instr)
	case ir.OpStoreCaptureSlot:
		v1, v2, _ := instr.Args()
		idx := int(instr.Imm())
		closure := fr.asClosure("store_capture_slot", fr.ptr(v1))
		closure.Captures[idx] = asCapture("store_capture_slot", fr.ptr(v2))
	case ir.OpEscapeCapture:
		v1, _, _ := instr.Args()
		asCapture("escape_capture", fr.ptr(v1)).Escape()

	default:
		diag.Fatalf("jit: unhandled opcode %s", instr.Opcode())
	}
}

func (fr *frame) doCall(instr *ir.Instruction) {
	v1, v2, v3 := instr.Args()
	closure := fr.asClosure("call", fr.ptr(v1))
	argv := *asArgv("call", fr.ptr(v2))
	retv := asValue("call", fr.ptr(v3))
	status := closure.Fn(fr.rt, unsafe.Pointer(&closure.Captures), len(argv), argv, retv)
	fr.setI32(instr.Return(), int32(status))
}

// runtimeCall dispatches one OpRuntimeCall to the matching
// runtime.Helpers method, converting operands and boxing results the
// way a native backend's calling convention would.
func (fr *frame) runtimeCall(instr *ir.Instruction) {
	args := instr.VarArgs()
	switch instr.Helper() {
	case ir.HelperToBoolean:
		v := asValue("to_boolean", fr.ptr(args[0]))
		fr.setI32(instr.Return(), boolI32(fr.rt.Helpers.ToBoolean(fr.rt, v)))
	case ir.HelperToNumeric:
		// arith.go's bitwise-result widening reuses this helper on an
		// already-numeric I32 register rather than a boxed Value; treat
		// that case as a plain widen instead of a host call.
		if args[0].Type() == ir.TypePtr {
			v := asValue("to_numeric", fr.ptr(args[0]))
			fr.setF64(instr.Return(), fr.rt.Helpers.ToNumeric(fr.rt, v))
		} else {
			fr.setF64(instr.Return(), float64(fr.i32(args[0])))
		}
	case ir.HelperToInt32:
		fr.setI32(instr.Return(), fr.rt.Helpers.ToInt32(fr.rt, fr.f64(args[0])))
	case ir.HelperToUint32:
		fr.setI32(instr.Return(), int32(fr.rt.Helpers.ToUint32(fr.rt, fr.f64(args[0]))))
	case ir.HelperIsLooselyEqual:
		a := asValue("is_loosely_equal", fr.ptr(args[0]))
		b := asValue("is_loosely_equal", fr.ptr(args[1]))
		fr.setI32(instr.Return(), boolI32(fr.rt.Helpers.IsLooselyEqual(fr.rt, a, b)))
	case ir.HelperIsStrictlyEqual:
		a := asValue("is_strictly_equal", fr.ptr(args[0]))
		b := asValue("is_strictly_equal", fr.ptr(args[1]))
		fr.setI32(instr.Return(), boolI32(fr.rt.Helpers.IsStrictlyEqual(fr.rt, a, b)))

	case ir.HelperCreateCapture:
		vrb := asVariable("create_capture", fr.ptr(args[0]))
		c := fr.rt.Helpers.CreateCapture(fr.rt, vrb)
		fr.setPtr(instr.Return(), &ptrCell{val: &c.Target.Value, vrb: c.Target, capture: c})
	case ir.HelperCreateClosure:
		funcID := uint32(fr.i32(args[0]))
		numCaptures := uint16(fr.i32(args[1]))
		if int(funcID) >= len(fr.funcs) {
			diag.Fatalf("jit: create_closure: func index %d out of range", funcID)
		}
		closure := fr.rt.Helpers.CreateClosure(fr.rt, fr.funcs[funcID], numCaptures)
		v := runtime.Value{Kind: runtime.TagClosure, Holder: fr.refs.put(closure)}
		fr.setPtr(instr.Return(), &ptrCell{val: &v, closure: closure})
	case ir.HelperCreateCoroutine:
		closure := fr.asClosure("create_coroutine", fr.ptr(args[0]))
		numLocals := uint16(fr.i32(args[1]))
		scratchLen := uint16(fr.i32(args[2]))
		coro := fr.rt.Helpers.CreateCoroutine(fr.rt, closure, numLocals, scratchLen)
		fr.setPtr(instr.Return(), &ptrCell{coro: coro})

	case ir.HelperRegisterPromise:
		fr.setI64(instr.Return(), int64(fr.rt.Helpers.RegisterPromise(fr.rt)))
	case ir.HelperAwaitPromise:
		id := uint64(fr.i64(args[0]))
		coro := asCoroutine("await_promise", fr.ptr(args[1]))
		fr.rt.Helpers.AwaitPromise(fr.rt, id, coro)
	case ir.HelperResumePromise:
		id := uint64(fr.i64(args[0]))
		v := fr.rt.Helpers.ResumePromise(context.Background(), fr.rt, id)
		fr.setPtr(instr.Return(), &ptrCell{val: &v})
	case ir.HelperEmitPromiseResolved:
		id := uint64(fr.i64(args[0]))
		v := asValue("emit_promise_resolved", fr.ptr(args[1]))
		fr.rt.Helpers.EmitPromiseResolved(fr.rt, id, v)

	case ir.HelperCreateObject:
		v := fr.rt.Helpers.CreateObject(fr.rt)
		fr.setPtr(instr.Return(), &ptrCell{val: &v})
	case ir.HelperGetValue:
		obj := asValue("get_value", fr.ptr(args[0]))
		key := asValue("get_value", fr.ptr(args[1]))
		v := fr.rt.Helpers.GetValue(fr.rt, obj, key)
		fr.setPtr(instr.Return(), &ptrCell{val: &v})
	case ir.HelperSetValue:
		obj := asValue("set_value", fr.ptr(args[0]))
		key := asValue("set_value", fr.ptr(args[1]))
		v := asValue("set_value", fr.ptr(args[2]))
		fr.rt.Helpers.SetValue(fr.rt, obj, key, v)
	case ir.HelperCreateDataProperty:
		obj := asValue("create_data_property", fr.ptr(args[0]))
		key := asValue("create_data_property", fr.ptr(args[1]))
		v := asValue("create_data_property", fr.ptr(args[2]))
		fr.rt.Helpers.CreateDataProperty(fr.rt, obj, key, v)
	case ir.HelperCopyDataProperties:
		dst := asValue("copy_data_properties", fr.ptr(args[0]))
		src := asValue("copy_data_properties", fr.ptr(args[1]))
		fr.rt.Helpers.CopyDataProperties(fr.rt, dst, src)

	case ir.HelperNewTypeError:
		idx := uint32(fr.i32(args[0]))
		v := fr.rt.Helpers.NewTypeError(fr.rt, fr.mod.Strings[idx])
		fr.setPtr(instr.Return(), &ptrCell{val: &v})
	case ir.HelperNewReferenceError:
		idx := uint32(fr.i32(args[0]))
		v := fr.rt.Helpers.NewReferenceError(fr.rt, fr.mod.Strings[idx])
		fr.setPtr(instr.Return(), &ptrCell{val: &v})
	case ir.HelperStringConstant:
		idx := uint32(fr.i32(args[0]))
		v := fr.rt.Helpers.StringConstant(fr.rt, idx)
		fr.setPtr(instr.Return(), &ptrCell{val: &v})
	case ir.HelperAssert:
		cond := fr.i32(args[0]) != 0
		idx := uint32(fr.i32(args[1]))
		fr.rt.Helpers.Assert(fr.rt, cond, fr.mod.Strings[idx])

	default:
		diag.Fatalf("jit: unhandled helper %s", instr.Helper())
	}
}
