package pass

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silkjs/corejit/internal/ir"
)

func TestInstCombineFoldsConstantArithmetic(t *testing.T) {
	fn := ir.NewFunction(ir.Signature{Name: "f"})
	b := ir.NewBuilder(fn)

	one := b.AllocateInstruction().AsFconst(b, 1)
	b.Insert(one)
	two := b.AllocateInstruction().AsFconst(b, 2)
	b.Insert(two)
	sum := b.AllocateInstruction().AsFAdd(b, one.Return(), two.Return())
	b.Insert(sum)
	b.Insert(b.AllocateInstruction().AsReturn(sum.Return()))

	InstCombine(fn)

	require.Equal(t, ir.OpFconst, sum.Opcode())
}

func TestSimplifyCFGPrunesDeadBlocks(t *testing.T) {
	fn := ir.NewFunction(ir.Signature{Name: "f"})
	b := ir.NewBuilder(fn)
	fn.Locals.InsertInstruction(b.AllocateInstruction().AsJump(fn.Entry))

	zero := b.AllocateInstruction().AsIconst32(b, 0)
	b.Insert(zero)
	b.Insert(b.AllocateInstruction().AsReturn(zero.Return()))

	dead := b.CreateBlock()
	b.SetCurrentBlock(dead)
	b.Insert(b.AllocateInstruction().AsUnreachable())

	before := len(fn.Blocks())
	SimplifyCFG(fn)
	require.Less(t, len(fn.Blocks()), before)
}

func TestGVNDedupesRedundantComputation(t *testing.T) {
	fn := ir.NewFunction(ir.Signature{Name: "f"})
	b := ir.NewBuilder(fn)

	x := b.AllocateInstruction().AsIconst32(b, 7)
	b.Insert(x)
	a := b.AllocateInstruction().AsBAnd(b, x.Return(), x.Return())
	b.Insert(a)
	c := b.AllocateInstruction().AsBAnd(b, x.Return(), x.Return())
	b.Insert(c)
	b.Insert(b.AllocateInstruction().AsReturn(c.Return()))

	GVN(fn)

	seen := 0
	for instr := fn.Entry.Root(); instr != nil; instr = instr.Next() {
		if instr.Opcode() == ir.OpBAnd {
			seen++
		}
	}
	require.Equal(t, 1, seen)
}
