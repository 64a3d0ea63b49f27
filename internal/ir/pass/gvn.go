package pass

import (
	"fmt"

	"github.com/silkjs/corejit/internal/ir"
)

// isPure reports the set of instructions GVN may dedupe: anything that
// reads or writes through a Ptr operand (memory, runtime calls) could
// observe a mutation between two textually identical instructions, so
// only the side-effect-free scalar opcodes qualify.
func isPure(op ir.Opcode) bool {
	switch op {
	case ir.OpIconst32, ir.OpFconst,
		ir.OpFAdd, ir.OpFSub, ir.OpFMul, ir.OpFDiv, ir.OpFRem, ir.OpFNeg,
		ir.OpBAnd, ir.OpBOr, ir.OpBXor, ir.OpBNot, ir.OpShl, ir.OpShr, ir.OpUShr,
		ir.OpIEq, ir.OpINe, ir.OpILt, ir.OpILe, ir.OpIGt, ir.OpIGe,
		ir.OpFEq, ir.OpFNe, ir.OpFLt, ir.OpFLe, ir.OpFGt, ir.OpFGe:
		return true
	default:
		return false
	}
}

func instrKey(instr *ir.Instruction) string {
	v1, v2, v3 := instr.Args()
	return fmt.Sprintf("%d:%d,%d,%d:%d", instr.Opcode(), v1.ID(), v2.ID(), v3.ID(), instr.Imm())
}

// GVN performs local (single-block) common-subexpression elimination:
// the second occurrence of a textually identical pure instruction in a
// block is replaced by a reference to the first's result, the same
// scope wazero's passRedundantPhiEliminationOpt operates at before a
// full dominance-based value-numbering pass would be worth the
// complexity for an IR this size.
func GVN(fn *ir.Function) {
	for _, b := range fn.Blocks() {
		seen := map[string]ir.Value{}
		var dead []*ir.Instruction
		for instr := b.Root(); instr != nil; instr = instr.Next() {
			if !isPure(instr.Opcode()) || !instr.Return().Valid() {
				continue
			}
			key := instrKey(instr)
			if existing, ok := seen[key]; ok {
				ir.ReplaceResultUses(fn, instr.Return(), existing)
				dead = append(dead, instr)
				continue
			}
			seen[key] = instr.Return()
		}
		for _, d := range dead {
			b.Remove(d)
		}
	}
}
