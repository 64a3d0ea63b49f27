package pass

import "github.com/silkjs/corejit/internal/ir"

// SimplifyCFG is a conservative version of the teacher's
// passDeadBlockEliminationOpt: it walks the block graph reachable from
// Entry via the Locals block and discards everything else. Branch
// folding (CondBr with a constant condition collapsing to Jump) is left
// to InstCombine, which runs before this pass' second call in Run so the
// resulting newly-unreachable blocks still get pruned.
func SimplifyCFG(fn *ir.Function) {
	reachable := map[ir.BasicBlockID]bool{fn.Locals.ID(): true}
	stack := []*ir.BasicBlock{fn.Locals}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range b.Succs() {
			if !reachable[s.ID()] {
				reachable[s.ID()] = true
				stack = append(stack, s)
			}
		}
	}
	fn.PruneBlocks(func(b *ir.BasicBlock) bool { return reachable[b.ID()] })
	fn.RecomputeEdges()
}
