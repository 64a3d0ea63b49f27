package ir

import (
	"strings"

	"github.com/silkjs/corejit/internal/pool"
)

// Function is one compiled JavaScript function body in IR form: a
// signature plus a set of basic blocks reachable from Entry.
type Function struct {
	Signature Signature

	blocks      pool.Pool[BasicBlock]
	blockOrder  []*BasicBlock
	instrs      pool.Pool[Instruction]
	nextValueID uint32

	Entry  *BasicBlock
	Locals *BasicBlock // dedicated block holding every OpAlloca, per spec's locals-block convention
}

// NewFunction allocates an empty Function with its Locals and Entry
// blocks created. The blocks are not linked yet: builder.EndFunction
// inserts the Locals -> Entry jump.
func NewFunction(sig Signature) *Function {
	f := &Function{Signature: sig, blocks: pool.NewPool[BasicBlock](), instrs: pool.NewPool[Instruction]()}
	f.Locals = f.allocBlock()
	f.Entry = f.allocBlock()
	return f
}

func (f *Function) allocBlock() *BasicBlock {
	b := f.blocks.Allocate()
	b.id = BasicBlockID(f.blocks.LastIndex())
	f.blockOrder = append(f.blockOrder, b)
	return b
}

// Blocks returns every block allocated so far, in allocation order.
func (f *Function) Blocks() []*BasicBlock { return f.blockOrder }

func (f *Function) allocValue(typ Type) Value {
	id := f.nextValueID
	f.nextValueID++
	return Value{id: id, typ: typ}
}

// RecomputeEdges rebuilds every block's predecessor/successor lists from
// scratch by re-scanning terminators. Passes that rewrite a terminator
// in place (simplifycfg folding a CondBr to a Jump, say) call this
// afterward rather than patching edges incrementally.
func (f *Function) RecomputeEdges() {
	for _, b := range f.blockOrder {
		b.resetEdges()
	}
	for _, b := range f.blockOrder {
		term := b.Terminator()
		if term == nil {
			continue
		}
		switch term.opcode {
		case OpJump:
			b.linkSucc(term.blk1)
		case OpCondBr:
			b.linkSucc(term.blk1)
			b.linkSucc(term.blk2)
		}
	}
}

// PruneBlocks drops every block for which keep returns false from the
// function's block list. Used by simplifycfg to discard blocks that
// dead-block elimination proved unreachable from Entry.
func (f *Function) PruneBlocks(keep func(*BasicBlock) bool) {
	kept := f.blockOrder[:0]
	for _, b := range f.blockOrder {
		if keep(b) {
			kept = append(kept, b)
		}
	}
	f.blockOrder = kept
}

// Format dumps the function body the way the teacher's ssa.Builder.Format
// does: one line per block header, one indented line per instruction.
func (f *Function) Format() string {
	var sb strings.Builder
	sb.WriteString("function ")
	sb.WriteString(f.Signature.Name)
	sb.WriteString(":\n")
	for _, b := range f.blockOrder {
		sb.WriteString(b.FormatHeader())
		sb.WriteString("\n")
		for instr := b.Root(); instr != nil; instr = instr.Next() {
			sb.WriteString("\t")
			sb.WriteString(instr.Format())
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
