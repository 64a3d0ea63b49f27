package builder

import (
	"github.com/silkjs/corejit/internal/ir"
	"github.com/silkjs/corejit/internal/runtime"
)

// toNumber normalizes it to a raw F64 register, short-circuiting the
// ToNumeric runtime call when the static type is already Number
// (spec.md §4.2 item 4).
func (bld *Builder) toNumber(it Item) ir.Value {
	if it.Kind == ItemNumber {
		return it.Number
	}
	addr := bld.materializeAny(it)
	call := bld.b.AllocateInstruction().AsRuntimeCall(bld.b, ir.HelperToNumeric, ir.TypeF64, addr)
	bld.b.Insert(call)
	return call.Return()
}

// toBooleanRaw is the ToBoolean opcode (spec.md §4.2 item 7): constant
// folds when the static type already answers the question, otherwise
// calls the runtime helper on the boxed value.
func (bld *Builder) toBooleanRaw(it Item) ir.Value {
	switch it.Kind {
	case ItemBoolean:
		return it.Bool
	case ItemUndefined, ItemNull:
		instr := bld.b.AllocateInstruction().AsIconst32(bld.b, 0)
		bld.b.Insert(instr)
		return instr.Return()
	case ItemFunction:
		instr := bld.b.AllocateInstruction().AsIconst32(bld.b, 1)
		bld.b.Insert(instr)
		return instr.Return()
	case ItemNumber:
		zero := bld.b.AllocateInstruction().AsFconst(bld.b, 0)
		bld.b.Insert(zero)
		ne := bld.b.AllocateInstruction().AsFNe(bld.b, it.Number, zero.Return())
		bld.b.Insert(ne)
		return ne.Return()
	default:
		addr := bld.materializeAny(it)
		call := bld.b.AllocateInstruction().AsRuntimeCall(bld.b, ir.HelperToBoolean, ir.TypeI32, addr)
		bld.b.Insert(call)
		return call.Return()
	}
}

// ToBoolean pops an item and pushes its Boolean conversion.
func (bld *Builder) ToBoolean() { bld.push(booleanItem(bld.toBooleanRaw(bld.pop()))) }

func fbin(ctor func(*ir.Instruction, *ir.Builder, ir.Value, ir.Value) *ir.Instruction) func(*Builder) {
	return func(bld *Builder) {
		rhs, lhs := bld.pop(), bld.pop() // stack was LHS, RHS; pop reverses, so swap back below
		x, y := bld.toNumber(lhs), bld.toNumber(rhs)
		instr := bld.b.AllocateInstruction()
		ctor(instr, bld.b, x, y)
		bld.b.Insert(instr)
		bld.push(numberItem(instr.Return()))
	}
}

// Add/Sub/Mul/Div/Rem implement the standard ECMAScript arithmetic
// sequence: dereference both operands, ToNumeric each, emit the typed
// float op, push the Number result.
func (bld *Builder) Add() { fbin((*ir.Instruction).AsFAdd)(bld) }
func (bld *Builder) Sub() { fbin((*ir.Instruction).AsFSub)(bld) }
func (bld *Builder) Mul() { fbin((*ir.Instruction).AsFMul)(bld) }
func (bld *Builder) Div() { fbin((*ir.Instruction).AsFDiv)(bld) }
func (bld *Builder) Rem() { fbin((*ir.Instruction).AsFRem)(bld) }

func (bld *Builder) Neg() {
	it := bld.pop()
	x := bld.toNumber(it)
	instr := bld.b.AllocateInstruction().AsFNeg(bld.b, x)
	bld.b.Insert(instr)
	bld.push(numberItem(instr.Return()))
}

// toInt32/toUint32 convert an already-ToNumeric'd F64 register through
// the corresponding runtime helper, as bitwise operators require.
func (bld *Builder) toInt32(raw ir.Value) ir.Value {
	call := bld.b.AllocateInstruction().AsRuntimeCall(bld.b, ir.HelperToInt32, ir.TypeI32, raw)
	bld.b.Insert(call)
	return call.Return()
}

func (bld *Builder) toUint32(raw ir.Value) ir.Value {
	call := bld.b.AllocateInstruction().AsRuntimeCall(bld.b, ir.HelperToUint32, ir.TypeI32, raw)
	bld.b.Insert(call)
	return call.Return()
}

func (bld *Builder) bitwise(ctor func(*ir.Instruction, *ir.Builder, ir.Value, ir.Value) *ir.Instruction, rhsUnsigned bool) {
	rhs, lhs := bld.pop(), bld.pop()
	xRaw, yRaw := bld.toNumber(lhs), bld.toNumber(rhs)
	x := bld.toInt32(xRaw)
	var y ir.Value
	if rhsUnsigned {
		y = bld.toUint32(yRaw)
	} else {
		y = bld.toInt32(yRaw)
	}
	instr := bld.b.AllocateInstruction()
	ctor(instr, bld.b, x, y)
	bld.b.Insert(instr)
	// Bitwise results are Numbers in ECMAScript, not raw I32 booleans;
	// the I32 result is widened to F64 before it is pushed as a Number.
	bld.push(numberItem(reinterpretI32AsNumberPlaceholder(bld, instr.Return())))
}

// reinterpretI32AsNumberPlaceholder converts a bitwise op's I32 result
// into a proper Number item by round-tripping it through ToNumeric's
// inverse: box it as a Number by first widening to F64. There is no
// dedicated i32->f64 opcode in this IR (bitwise results are always
// subsequently boxed via OpBoxNumber, which only accepts an F64
// register), so the conversion itself is modeled as a runtime helper
// call the same way ToInt32/ToUint32 are.
func reinterpretI32AsNumberPlaceholder(bld *Builder, i32 ir.Value) ir.Value {
	call := bld.b.AllocateInstruction().AsRuntimeCall(bld.b, ir.HelperToNumeric, ir.TypeF64, i32)
	bld.b.Insert(call)
	return call.Return()
}

func (bld *Builder) BAnd() { bld.bitwise((*ir.Instruction).AsBAnd, false) }
func (bld *Builder) BOr()  { bld.bitwise((*ir.Instruction).AsBOr, false) }
func (bld *Builder) BXor() { bld.bitwise((*ir.Instruction).AsBXor, false) }
func (bld *Builder) Shl()  { bld.bitwise((*ir.Instruction).AsShl, false) }
func (bld *Builder) Shr()  { bld.bitwise((*ir.Instruction).AsShr, false) }
func (bld *Builder) UShr() { bld.bitwise((*ir.Instruction).AsUShr, true) }

func fcmp(ctor func(*ir.Instruction, *ir.Builder, ir.Value, ir.Value) *ir.Instruction) func(*Builder) {
	return func(bld *Builder) {
		rhs, lhs := bld.pop(), bld.pop()
		x, y := bld.toNumber(lhs), bld.toNumber(rhs)
		instr := bld.b.AllocateInstruction()
		ctor(instr, bld.b, x, y)
		bld.b.Insert(instr)
		bld.push(booleanItem(instr.Return()))
	}
}

// Lt/Le/Gt/Ge implement relational comparison (spec.md §4.2 item 5):
// identical normalization to arithmetic, result pushed as Boolean.
func (bld *Builder) Lt() { fcmp((*ir.Instruction).AsFLt)(bld) }
func (bld *Builder) Le() { fcmp((*ir.Instruction).AsFLe)(bld) }
func (bld *Builder) Gt() { fcmp((*ir.Instruction).AsFGt)(bld) }
func (bld *Builder) Ge() { fcmp((*ir.Instruction).AsFGe)(bld) }

// staticTag reports the runtime.Tag an item statically carries, or
// (TagNone, false) when it's Any and must be checked at runtime.
func staticTag(it Item) (runtime.Tag, bool) {
	switch it.Kind {
	case ItemUndefined:
		return runtime.TagUndefined, true
	case ItemNull:
		return runtime.TagNull, true
	case ItemBoolean:
		return runtime.TagBoolean, true
	case ItemNumber:
		return runtime.TagNumber, true
	case ItemFunction:
		return runtime.TagClosure, true
	default:
		return runtime.TagNone, false
	}
}

// equality implements `==`/`!=`/`===`/`!==` (spec.md §4.2 item 6):
// strict equality short-circuits to a compile-time false when the two
// operands' static types are known and mismatched (except that Undefined
// and Null are loosely equal to each other), otherwise it delegates to
// the IsLooselyEqual/IsStrictlyEqual runtime helper.
func (bld *Builder) equality(strict, negate bool) {
	rhs, lhs := bld.pop(), bld.pop()
	lt, lok := staticTag(lhs)
	rt, rok := staticTag(rhs)

	if lok && rok && lt != rt {
		looselyNullish := !strict && lt.Nullish() && rt.Nullish()
		result := looselyNullish
		if negate {
			result = !result
		}
		bld.pushConstBool(result)
		return
	}

	helper := ir.HelperIsStrictlyEqual
	if !strict {
		helper = ir.HelperIsLooselyEqual
	}
	a, b := bld.materializeAny(lhs), bld.materializeAny(rhs)
	call := bld.b.AllocateInstruction().AsRuntimeCall(bld.b, helper, ir.TypeI32, a, b)
	bld.b.Insert(call)
	result := call.Return()
	if negate {
		notInstr := bld.b.AllocateInstruction().AsBNot(bld.b, result)
		bld.b.Insert(notInstr)
		result = notInstr.Return()
	}
	bld.push(booleanItem(result))
}

func (bld *Builder) pushConstBool(v bool) {
	imm := int32(0)
	if v {
		imm = 1
	}
	instr := bld.b.AllocateInstruction().AsIconst32(bld.b, imm)
	bld.b.Insert(instr)
	bld.push(booleanItem(instr.Return()))
}

func (bld *Builder) LooseEqual()    { bld.equality(false, false) }
func (bld *Builder) LooseNotEqual() { bld.equality(false, true) }
func (bld *Builder) StrictEqual()   { bld.equality(true, false) }
func (bld *Builder) StrictNotEqual() { bld.equality(true, true) }
