// Package pass implements the optimization pipeline run over a
// internal/ir.Function after internal/builder finishes emitting it,
// grounded on the ordering and style of wazero's ssa.Builder.RunPasses
// (internal/engine/wazevo/ssa/pass.go): cheap structural cleanups first,
// then local data-flow optimizations, then a final dead-code sweep.
package pass

import "github.com/silkjs/corejit/internal/ir"

// Run executes the fixed pipeline spec.md §4.2 describes: eliminate
// unreachable blocks, promote allocas that never escape their block,
// fold constants, reassociate commutative chains, eliminate locally
// redundant computations, then sweep anything the earlier passes left
// dead.
func Run(fn *ir.Function) {
	SimplifyCFG(fn)
	Mem2Reg(fn)
	InstCombine(fn)
	Reassociate(fn)
	GVN(fn)
	SimplifyCFG(fn)
}
