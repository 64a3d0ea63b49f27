// Package ir implements the typed, alloca-based intermediate
// representation that internal/builder emits into and internal/jit
// lowers out of.
//
// Unlike a register-machine SSA form built on block arguments, values
// here are either raw scalar registers (Type I32/I64/F64) produced by
// arithmetic, or Ptr registers addressing a runtime.Value living in
// memory (a stack slot from Alloca, an argv slot, or a Capture's
// current target). Mutable JavaScript bindings are modeled the way an
// LLVM front end models local variables: alloca + load/store, with a
// later mem2reg pass promoting the ones that are never captured and
// never have their address taken beyond a simple store/load pair.
package ir

// Type is the static type of an IR value.
type Type byte

const (
	TypeInvalid Type = iota
	// TypeI32 is a 32-bit integer register: booleans (0/1), Int32/Uint32
	// bitwise-operator results, and the Status/FlowSelector registers.
	TypeI32
	// TypeI64 is a 64-bit integer register, used for the raw Holder bits
	// unboxed out of a runtime.Value.
	TypeI64
	// TypeF64 is a float64 register: ECMAScript Numbers and the operands
	// of arithmetic opcodes.
	TypeF64
	// TypePtr addresses a runtime.Value (or a struct that embeds one,
	// such as a runtime.Variable) in memory. Every Any item on the
	// builder's operand stack is carried as a TypePtr value.
	TypePtr
)

func (t Type) String() string {
	switch t {
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeF64:
		return "f64"
	case TypePtr:
		return "ptr"
	default:
		return "invalid"
	}
}

// Signature describes a Function's calling convention in terms of the
// fixed Lambda ABI (spec.md §6.4): every compiled function has the same
// Go-level signature, so Signature here only records what the frontend
// needs to know about it for diagnostics and the JIT symbol table.
type Signature struct {
	Name      string
	ParamsLen uint16
	// IsCoroutine is true when ctx is a *runtime.CoroutineFrame instead
	// of a *[]*runtime.Capture, i.e. the source function is a
	// generator or async function.
	IsCoroutine bool
}
