package pass

import "github.com/silkjs/corejit/internal/ir"

func isCommutative(op ir.Opcode) bool {
	switch op {
	case ir.OpFAdd, ir.OpFMul, ir.OpBAnd, ir.OpBOr, ir.OpBXor, ir.OpIEq, ir.OpINe, ir.OpFEq, ir.OpFNe:
		return true
	default:
		return false
	}
}

// Reassociate canonicalizes each commutative binary instruction so its
// higher-numbered-ID operand comes second, which lets GVN treat `a+b`
// and `b+a` over the same two values as one expression without trying
// both orderings. Operand order follows value IDs only: a literal
// operand is not moved to a fixed side.
func Reassociate(fn *ir.Function) {
	for _, b := range fn.Blocks() {
		for instr := b.Root(); instr != nil; instr = instr.Next() {
			if !isCommutative(instr.Opcode()) {
				continue
			}
			v1, v2, v3 := instr.Args()
			if v1.ID() > v2.ID() {
				instr.SetArgs(v2, v1, v3)
			}
		}
	}
}
