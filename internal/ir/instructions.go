package ir

import (
	"fmt"
	"math"
	"strings"
)

// Opcode identifies the operation an Instruction performs. The set is
// deliberately small: unlike a general-purpose compiler IR this one only
// ever needs to express what a JavaScript function body's control- and
// data-flow lowers to, per spec.md §4.2 and §6.
type Opcode byte

const (
	OpInvalid Opcode = iota

	// --- constants -----------------------------------------------------
	OpIconst32 // imm i32 -> I32
	OpFconst   // immF64 -> F64

	// --- boxing / unboxing ----------------------------------------------
	// Box* materialize a transient runtime.Value in a freshly Alloca'd
	// slot and return its address. Unbox* read a runtime.Value's fields
	// back out into raw registers.
	OpBoxUndefined    // () -> Ptr
	OpBoxNull         // () -> Ptr
	OpBoxBool         // (I32) -> Ptr
	OpBoxNumber       // (F64) -> Ptr
	OpBoxHeapRef      // tagImm, (I64 holder) -> Ptr; wraps a Closure/Object/Promise/string pointer
	OpUnboxBool       // (Ptr) -> I32
	OpUnboxNumber     // (Ptr) -> F64
	OpUnboxKind       // (Ptr) -> I32, the runtime.Tag byte widened to i32
	OpUnboxHolder     // (Ptr) -> I64, the raw 64-bit Holder

	// --- memory ----------------------------------------------------------
	OpAlloca      // () -> Ptr, one per declared Variable/transient slot
	OpArgAddr     // argIndexImm -> Ptr, address of argv[argIndexImm]
	OpCaptureAddr // captureIndexImm -> Ptr, a fresh load of captures[i].Target
	OpRetvAddr    // () -> Ptr, address of the function's shared retv slot
	OpCopyValue   // (dst Ptr, src Ptr) -> (), copies a 16-byte runtime.Value
	OpAssignFlags // flagsImm, symbolImm, (addr Ptr) -> (), Variable metadata write
	OpLoadI32     // (addr Ptr) -> I32, raw scalar load (status/flow-selector registers)
	OpStoreI32    // (addr Ptr, val I32) -> (), raw scalar store

	// --- arithmetic (F64) -------------------------------------------------
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFRem
	OpFNeg

	// --- bitwise (I32, after ToInt32/ToUint32) -----------------------------
	OpBAnd
	OpBOr
	OpBXor
	OpBNot
	OpShl
	OpShr
	OpUShr

	// --- integer compare (I32,I32 -> I32 bool) -----------------------------
	OpIEq
	OpINe
	OpILt
	OpILe
	OpIGt
	OpIGe

	// --- float compare (F64,F64 -> I32 bool) -------------------------------
	OpFEq
	OpFNe
	OpFLt
	OpFLe
	OpFGt
	OpFGe

	// --- runtime helper dispatch -------------------------------------------
	// OpRuntimeCall invokes one Helpers method, named by a HelperID
	// immediate rather than one opcode per helper; args are carried in
	// the variadic operand list.
	OpRuntimeCall

	// --- closures / calls ---------------------------------------------------
	OpFuncRef         // funcIDImm -> I32, references a Module function by index
	OpArgvAlloc       // argcImm -> Ptr, allocates an argc-length argv buffer
	OpArgvStore       // indexImm, (argv Ptr, src Ptr) -> (), argv[index] = *src
	OpCall            // (closure Ptr, argv Ptr, retv Ptr), argcImm -> I32 Status
	OpStoreCaptureSlot // indexImm, (closure Ptr, capture Ptr) -> (), closure.Captures[index] = capture
	OpEscapeCapture    // (capture Ptr) -> (), capture.Escape()

	// --- control flow -------------------------------------------------------
	OpJump        // (target) -> (), unconditional terminator
	OpCondBr      // (cond I32) (thenTarget, elseTarget) -> (), terminator
	OpReturn      // (status I32) -> (), terminator
	OpUnreachable // () -> (), terminator for provably-dead blocks
)

var opcodeNames = [...]string{
	OpInvalid:         "invalid",
	OpIconst32:        "iconst32",
	OpFconst:          "fconst",
	OpBoxUndefined:    "box_undefined",
	OpBoxNull:         "box_null",
	OpBoxBool:         "box_bool",
	OpBoxNumber:       "box_number",
	OpBoxHeapRef:      "box_heap_ref",
	OpUnboxBool:       "unbox_bool",
	OpUnboxNumber:     "unbox_number",
	OpUnboxKind:       "unbox_kind",
	OpUnboxHolder:     "unbox_holder",
	OpAlloca:          "alloca",
	OpArgAddr:         "arg_addr",
	OpCaptureAddr:     "capture_addr",
	OpRetvAddr:        "retv_addr",
	OpCopyValue:       "copy_value",
	OpAssignFlags:     "assign_flags",
	OpLoadI32:         "load_i32",
	OpStoreI32:        "store_i32",
	OpFAdd:            "fadd",
	OpFSub:            "fsub",
	OpFMul:            "fmul",
	OpFDiv:            "fdiv",
	OpFRem:            "frem",
	OpFNeg:            "fneg",
	OpBAnd:            "band",
	OpBOr:             "bor",
	OpBXor:            "bxor",
	OpBNot:            "bnot",
	OpShl:             "shl",
	OpShr:             "shr",
	OpUShr:            "ushr",
	OpIEq:             "ieq",
	OpINe:             "ine",
	OpILt:             "ilt",
	OpILe:             "ile",
	OpIGt:             "igt",
	OpIGe:             "ige",
	OpFEq:             "feq",
	OpFNe:             "fne",
	OpFLt:             "flt",
	OpFLe:             "fle",
	OpFGt:             "fgt",
	OpFGe:             "fge",
	OpRuntimeCall:     "runtime_call",
	OpFuncRef:         "func_ref",
	OpArgvAlloc:       "argv_alloc",
	OpArgvStore:       "argv_store",
	OpCall:            "call",
	OpStoreCaptureSlot: "store_capture_slot",
	OpEscapeCapture:    "escape_capture",
	OpJump:            "jump",
	OpCondBr:          "cond_br",
	OpReturn:          "return",
	OpUnreachable:     "unreachable",
}

func (o Opcode) String() string {
	if int(o) < len(opcodeNames) && opcodeNames[o] != "" {
		return opcodeNames[o]
	}
	return fmt.Sprintf("opcode(%d)", o)
}

// HelperID names a runtime.Helpers method an OpRuntimeCall invokes. Kept
// as a small enum (rather than a string) so the JIT orchestrator can
// dispatch with a jump table instead of a map lookup.
type HelperID byte

const (
	HelperInvalid HelperID = iota
	HelperToBoolean
	HelperToNumeric
	HelperToInt32
	HelperToUint32
	HelperIsLooselyEqual
	HelperIsStrictlyEqual
	HelperCreateCapture
	HelperCreateClosure
	HelperCreateCoroutine
	HelperRegisterPromise
	HelperAwaitPromise
	HelperResumePromise
	HelperEmitPromiseResolved
	HelperCreateObject
	HelperGetValue
	HelperSetValue
	HelperCreateDataProperty
	HelperCopyDataProperties
	HelperNewTypeError
	HelperNewReferenceError
	HelperStringConstant
	HelperAssert
)

var helperNames = [...]string{
	HelperInvalid:             "invalid",
	HelperToBoolean:           "to_boolean",
	HelperToNumeric:           "to_numeric",
	HelperToInt32:             "to_int32",
	HelperToUint32:            "to_uint32",
	HelperIsLooselyEqual:      "is_loosely_equal",
	HelperIsStrictlyEqual:     "is_strictly_equal",
	HelperCreateCapture:       "create_capture",
	HelperCreateClosure:       "create_closure",
	HelperCreateCoroutine:     "create_coroutine",
	HelperRegisterPromise:     "register_promise",
	HelperAwaitPromise:        "await_promise",
	HelperResumePromise:       "resume_promise",
	HelperEmitPromiseResolved: "emit_promise_resolved",
	HelperCreateObject:        "create_object",
	HelperGetValue:            "get_value",
	HelperSetValue:            "set_value",
	HelperCreateDataProperty:  "create_data_property",
	HelperCopyDataProperties:  "copy_data_properties",
	HelperNewTypeError:        "new_type_error",
	HelperNewReferenceError:   "new_reference_error",
	HelperStringConstant:      "string_constant",
	HelperAssert:              "assert",
}

func (h HelperID) String() string {
	if int(h) < len(helperNames) && helperNames[h] != "" {
		return helperNames[h]
	}
	return fmt.Sprintf("helper(%d)", h)
}

// Instruction is the single concrete shape every IR node takes,
// regardless of opcode. Only the fields a given Opcode cares about are
// populated; the rest stay zero. This mirrors the flattened-struct style
// the teacher uses for its own instruction set, traded down from its ~200
// opcodes to the couple dozen this domain needs.
type Instruction struct {
	opcode Opcode

	v1, v2, v3 Value
	vs         []Value // variadic operands: OpRuntimeCall args

	imm    uint64 // reinterpreted per opcode: i32/f64-bits/index/flags/funcID
	helper HelperID
	tag    byte // runtime.Tag immediate for OpBoxHeapRef

	blk1, blk2 *BasicBlock // branch targets

	rtype  Type
	result Value

	prev, next *Instruction
	parent     *BasicBlock
}

func (i *Instruction) Opcode() Opcode { return i.opcode }
func (i *Instruction) Return() Value  { return i.result }
func (i *Instruction) Next() *Instruction { return i.next }
func (i *Instruction) Prev() *Instruction { return i.prev }
func (i *Instruction) Block() *BasicBlock { return i.parent }

// Args exposes the fixed operand slots for passes that need to inspect
// or rewrite operands generically (pass/gvn, pass/mem2reg); invalid
// (zero) entries mean the opcode doesn't use that slot.
func (i *Instruction) Args() (Value, Value, Value) { return i.v1, i.v2, i.v3 }
func (i *Instruction) SetArgs(v1, v2, v3 Value)    { i.v1, i.v2, i.v3 = v1, v2, v3 }
func (i *Instruction) VarArgs() []Value            { return i.vs }
func (i *Instruction) SetVarArgs(vs []Value)       { i.vs = vs }
func (i *Instruction) Imm() uint64                  { return i.imm }
func (i *Instruction) Helper() HelperID             { return i.helper }
func (i *Instruction) Tag() byte                    { return i.tag }
func (i *Instruction) Targets() (*BasicBlock, *BasicBlock) { return i.blk1, i.blk2 }
func (i *Instruction) SetTargets(a, b *BasicBlock)  { i.blk1, i.blk2 = a, b }

// RewriteAsFconst turns an already-inserted instruction into a constant
// load of v, keeping its existing result Value (and therefore every
// existing use) intact. Used by pass/instcombine to fold constant
// arithmetic without renumbering values.
func (i *Instruction) RewriteAsFconst(v float64) {
	i.opcode = OpFconst
	i.imm = math.Float64bits(v)
	i.v1, i.v2, i.v3, i.vs = Value{}, Value{}, Value{}, nil
}

// RewriteAsIconst32 is RewriteAsFconst's i32 counterpart.
func (i *Instruction) RewriteAsIconst32(v int32) {
	i.opcode = OpIconst32
	i.imm = uint64(uint32(v))
	i.v1, i.v2, i.v3, i.vs = Value{}, Value{}, Value{}, nil
}

// ReplaceResultUses rewrites every instruction in fn that reads this
// instruction's result to read `with` instead. It leaves the old
// instruction itself in place; mem2reg/gvn, its callers, remove it
// once a redundant box/unbox or duplicate computation has been
// identified.
func ReplaceResultUses(fn *Function, old Value, with Value) {
	if !old.Valid() || old.id == with.id {
		return
	}
	for _, blk := range fn.Blocks() {
		for instr := blk.Root(); instr != nil; instr = instr.next {
			if instr.v1.Valid() && instr.v1.id == old.id {
				instr.v1 = with
			}
			if instr.v2.Valid() && instr.v2.id == old.id {
				instr.v2 = with
			}
			if instr.v3.Valid() && instr.v3.id == old.id {
				instr.v3 = with
			}
			for i, a := range instr.vs {
				if a.Valid() && a.id == old.id {
					instr.vs[i] = with
				}
			}
		}
	}
}

func (i *Instruction) setResult(b *Builder, typ Type) Value {
	v := b.allocValue(typ)
	i.result = v
	i.rtype = typ
	return v
}

// --- constructors (mutate a freshly allocated Instruction, like the
// teacher's AsXxx methods) ------------------------------------------------

func (i *Instruction) AsIconst32(b *Builder, v int32) *Instruction {
	i.opcode = OpIconst32
	i.imm = uint64(uint32(v))
	i.setResult(b, TypeI32)
	return i
}

func (i *Instruction) AsFconst(b *Builder, v float64) *Instruction {
	i.opcode = OpFconst
	i.imm = math.Float64bits(v)
	i.setResult(b, TypeF64)
	return i
}

func (i *Instruction) AsBoxUndefined(b *Builder) *Instruction {
	i.opcode = OpBoxUndefined
	i.setResult(b, TypePtr)
	return i
}

func (i *Instruction) AsBoxNull(b *Builder) *Instruction {
	i.opcode = OpBoxNull
	i.setResult(b, TypePtr)
	return i
}

func (i *Instruction) AsBoxBool(b *Builder, v Value) *Instruction {
	i.opcode = OpBoxBool
	i.v1 = v
	i.setResult(b, TypePtr)
	return i
}

func (i *Instruction) AsBoxNumber(b *Builder, v Value) *Instruction {
	i.opcode = OpBoxNumber
	i.v1 = v
	i.setResult(b, TypePtr)
	return i
}

func (i *Instruction) AsBoxHeapRef(b *Builder, tag byte, holder Value) *Instruction {
	i.opcode = OpBoxHeapRef
	i.tag = tag
	i.v1 = holder
	i.setResult(b, TypePtr)
	return i
}

func (i *Instruction) AsUnboxBool(b *Builder, addr Value) *Instruction {
	i.opcode = OpUnboxBool
	i.v1 = addr
	i.setResult(b, TypeI32)
	return i
}

func (i *Instruction) AsUnboxNumber(b *Builder, addr Value) *Instruction {
	i.opcode = OpUnboxNumber
	i.v1 = addr
	i.setResult(b, TypeF64)
	return i
}

func (i *Instruction) AsUnboxKind(b *Builder, addr Value) *Instruction {
	i.opcode = OpUnboxKind
	i.v1 = addr
	i.setResult(b, TypeI32)
	return i
}

func (i *Instruction) AsUnboxHolder(b *Builder, addr Value) *Instruction {
	i.opcode = OpUnboxHolder
	i.v1 = addr
	i.setResult(b, TypeI64)
	return i
}

func (i *Instruction) AsAlloca(b *Builder) *Instruction {
	i.opcode = OpAlloca
	i.setResult(b, TypePtr)
	return i
}

func (i *Instruction) AsArgAddr(b *Builder, index uint16) *Instruction {
	i.opcode = OpArgAddr
	i.imm = uint64(index)
	i.setResult(b, TypePtr)
	return i
}

func (i *Instruction) AsCaptureAddr(b *Builder, index uint16) *Instruction {
	i.opcode = OpCaptureAddr
	i.imm = uint64(index)
	i.setResult(b, TypePtr)
	return i
}

func (i *Instruction) AsRetvAddr(b *Builder) *Instruction {
	i.opcode = OpRetvAddr
	i.setResult(b, TypePtr)
	return i
}

func (i *Instruction) AsCopyValue(dst, src Value) *Instruction {
	i.opcode = OpCopyValue
	i.v1, i.v2 = dst, src
	return i
}

func (i *Instruction) AsAssignFlags(addr Value, flags uint8, symbol uint32) *Instruction {
	i.opcode = OpAssignFlags
	i.v1 = addr
	i.imm = uint64(flags) | uint64(symbol)<<8
	return i
}

func (i *Instruction) AsLoadI32(b *Builder, addr Value) *Instruction {
	i.opcode = OpLoadI32
	i.v1 = addr
	i.setResult(b, TypeI32)
	return i
}

func (i *Instruction) AsStoreI32(addr, val Value) *Instruction {
	i.opcode = OpStoreI32
	i.v1, i.v2 = addr, val
	return i
}

func binOpCtor(op Opcode, typ Type) func(*Instruction, *Builder, Value, Value) *Instruction {
	return func(i *Instruction, b *Builder, x, y Value) *Instruction {
		i.opcode = op
		i.v1, i.v2 = x, y
		i.setResult(b, typ)
		return i
	}
}

var (
	faddCtor = binOpCtor(OpFAdd, TypeF64)
	fsubCtor = binOpCtor(OpFSub, TypeF64)
	fmulCtor = binOpCtor(OpFMul, TypeF64)
	fdivCtor = binOpCtor(OpFDiv, TypeF64)
	fremCtor = binOpCtor(OpFRem, TypeF64)
)

func (i *Instruction) AsFAdd(b *Builder, x, y Value) *Instruction { return faddCtor(i, b, x, y) }
func (i *Instruction) AsFSub(b *Builder, x, y Value) *Instruction { return fsubCtor(i, b, x, y) }
func (i *Instruction) AsFMul(b *Builder, x, y Value) *Instruction { return fmulCtor(i, b, x, y) }
func (i *Instruction) AsFDiv(b *Builder, x, y Value) *Instruction { return fdivCtor(i, b, x, y) }
func (i *Instruction) AsFRem(b *Builder, x, y Value) *Instruction { return fremCtor(i, b, x, y) }

func (i *Instruction) AsFNeg(b *Builder, x Value) *Instruction {
	i.opcode = OpFNeg
	i.v1 = x
	i.setResult(b, TypeF64)
	return i
}

var (
	bandCtor = binOpCtor(OpBAnd, TypeI32)
	borCtor  = binOpCtor(OpBOr, TypeI32)
	bxorCtor = binOpCtor(OpBXor, TypeI32)
	shlCtor  = binOpCtor(OpShl, TypeI32)
	shrCtor  = binOpCtor(OpShr, TypeI32)
	ushrCtor = binOpCtor(OpUShr, TypeI32)
)

func (i *Instruction) AsBAnd(b *Builder, x, y Value) *Instruction { return bandCtor(i, b, x, y) }
func (i *Instruction) AsBOr(b *Builder, x, y Value) *Instruction  { return borCtor(i, b, x, y) }
func (i *Instruction) AsBXor(b *Builder, x, y Value) *Instruction { return bxorCtor(i, b, x, y) }
func (i *Instruction) AsShl(b *Builder, x, y Value) *Instruction  { return shlCtor(i, b, x, y) }
func (i *Instruction) AsShr(b *Builder, x, y Value) *Instruction  { return shrCtor(i, b, x, y) }
func (i *Instruction) AsUShr(b *Builder, x, y Value) *Instruction { return ushrCtor(i, b, x, y) }

func (i *Instruction) AsBNot(b *Builder, x Value) *Instruction {
	i.opcode = OpBNot
	i.v1 = x
	i.setResult(b, TypeI32)
	return i
}

var (
	ieqCtor = binOpCtor(OpIEq, TypeI32)
	ineCtor = binOpCtor(OpINe, TypeI32)
	iltCtor = binOpCtor(OpILt, TypeI32)
	ileCtor = binOpCtor(OpILe, TypeI32)
	igtCtor = binOpCtor(OpIGt, TypeI32)
	igeCtor = binOpCtor(OpIGe, TypeI32)

	feqCtor = binOpCtor(OpFEq, TypeI32)
	fneCtor = binOpCtor(OpFNe, TypeI32)
	fltCtor = binOpCtor(OpFLt, TypeI32)
	fleCtor = binOpCtor(OpFLe, TypeI32)
	fgtCtor = binOpCtor(OpFGt, TypeI32)
	fgeCtor = binOpCtor(OpFGe, TypeI32)
)

func (i *Instruction) AsIEq(b *Builder, x, y Value) *Instruction { return ieqCtor(i, b, x, y) }
func (i *Instruction) AsINe(b *Builder, x, y Value) *Instruction { return ineCtor(i, b, x, y) }
func (i *Instruction) AsILt(b *Builder, x, y Value) *Instruction { return iltCtor(i, b, x, y) }
func (i *Instruction) AsILe(b *Builder, x, y Value) *Instruction { return ileCtor(i, b, x, y) }
func (i *Instruction) AsIGt(b *Builder, x, y Value) *Instruction { return igtCtor(i, b, x, y) }
func (i *Instruction) AsIGe(b *Builder, x, y Value) *Instruction { return igeCtor(i, b, x, y) }

func (i *Instruction) AsFEq(b *Builder, x, y Value) *Instruction { return feqCtor(i, b, x, y) }
func (i *Instruction) AsFNe(b *Builder, x, y Value) *Instruction { return fneCtor(i, b, x, y) }
func (i *Instruction) AsFLt(b *Builder, x, y Value) *Instruction { return fltCtor(i, b, x, y) }
func (i *Instruction) AsFLe(b *Builder, x, y Value) *Instruction { return fleCtor(i, b, x, y) }
func (i *Instruction) AsFGt(b *Builder, x, y Value) *Instruction { return fgtCtor(i, b, x, y) }
func (i *Instruction) AsFGe(b *Builder, x, y Value) *Instruction { return fgeCtor(i, b, x, y) }

func (i *Instruction) AsRuntimeCall(b *Builder, helper HelperID, resultType Type, args ...Value) *Instruction {
	i.opcode = OpRuntimeCall
	i.helper = helper
	i.vs = args
	if resultType != TypeInvalid {
		i.setResult(b, resultType)
	}
	return i
}

func (i *Instruction) AsFuncRef(b *Builder, funcID uint32) *Instruction {
	i.opcode = OpFuncRef
	i.imm = uint64(funcID)
	i.setResult(b, TypeI32)
	return i
}

func (i *Instruction) AsArgvAlloc(b *Builder, argc uint16) *Instruction {
	i.opcode = OpArgvAlloc
	i.imm = uint64(argc)
	i.setResult(b, TypePtr)
	return i
}

func (i *Instruction) AsArgvStore(argv Value, index uint16, src Value) *Instruction {
	i.opcode = OpArgvStore
	i.v1, i.v2 = argv, src
	i.imm = uint64(index)
	return i
}

func (i *Instruction) AsCall(b *Builder, closure, argv, retv Value, argc uint16) *Instruction {
	i.opcode = OpCall
	i.v1, i.v2, i.v3 = closure, argv, retv
	i.imm = uint64(argc)
	i.setResult(b, TypeI32)
	return i
}

func (i *Instruction) AsStoreCaptureSlot(closure Value, index uint16, capture Value) *Instruction {
	i.opcode = OpStoreCaptureSlot
	i.v1, i.v2 = closure, capture
	i.imm = uint64(index)
	return i
}

func (i *Instruction) AsEscapeCapture(capture Value) *Instruction {
	i.opcode = OpEscapeCapture
	i.v1 = capture
	return i
}

func (i *Instruction) AsJump(target *BasicBlock) *Instruction {
	i.opcode = OpJump
	i.blk1 = target
	return i
}

func (i *Instruction) AsCondBr(cond Value, thenBlk, elseBlk *BasicBlock) *Instruction {
	i.opcode = OpCondBr
	i.v1 = cond
	i.blk1, i.blk2 = thenBlk, elseBlk
	return i
}

func (i *Instruction) AsReturn(status Value) *Instruction {
	i.opcode = OpReturn
	i.v1 = status
	return i
}

func (i *Instruction) AsUnreachable() *Instruction {
	i.opcode = OpUnreachable
	return i
}

// IsTerminator reports whether this instruction ends a basic block.
func (i *Instruction) IsTerminator() bool {
	switch i.opcode {
	case OpJump, OpCondBr, OpReturn, OpUnreachable:
		return true
	default:
		return false
	}
}

// Format renders the instruction the way Function.Format dumps a body:
// "v3 = fadd v1, v2".
func (i *Instruction) Format() string {
	var sb strings.Builder
	if i.result.Valid() {
		fmt.Fprintf(&sb, "%s = ", i.result)
	}
	sb.WriteString(i.opcode.String())
	var operands []string
	switch i.opcode {
	case OpIconst32:
		operands = append(operands, fmt.Sprintf("%d", int32(uint32(i.imm))))
	case OpFconst:
		operands = append(operands, fmt.Sprintf("%g", math.Float64frombits(i.imm)))
	case OpArgAddr, OpCaptureAddr, OpFuncRef, OpArgvAlloc:
		operands = append(operands, fmt.Sprintf("#%d", i.imm))
	case OpArgvStore:
		operands = append(operands, i.v1.String(), fmt.Sprintf("#%d", i.imm), i.v2.String())
	case OpCall:
		operands = append(operands, i.v1.String(), i.v2.String(), i.v3.String(), fmt.Sprintf("argc=%d", i.imm))
	case OpRuntimeCall:
		operands = append(operands, i.helper.String())
		for _, a := range i.vs {
			operands = append(operands, a.String())
		}
	case OpJump:
		operands = append(operands, i.blk1.Name())
	case OpCondBr:
		operands = append(operands, i.v1.String(), i.blk1.Name(), i.blk2.Name())
	case OpBoxHeapRef:
		operands = append(operands, fmt.Sprintf("tag=%d", i.tag), i.v1.String())
	default:
		for _, v := range [...]Value{i.v1, i.v2, i.v3} {
			if v.Valid() {
				operands = append(operands, v.String())
			}
		}
	}
	if len(operands) > 0 {
		sb.WriteString(" ")
		sb.WriteString(strings.Join(operands, ", "))
	}
	return sb.String()
}
