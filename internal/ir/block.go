package ir

import "fmt"

// BasicBlockID uniquely numbers a BasicBlock within its Function.
type BasicBlockID uint32

// BasicBlock is a maximal straight-line instruction sequence. Per the
// usual invariant, only the last instruction in a block may be a
// terminator (OpJump/OpCondBr/OpReturn/OpUnreachable), and every
// reachable block ends with exactly one.
type BasicBlock struct {
	id                      BasicBlockID
	rootInstr, currentInstr *Instruction
	preds                   []*BasicBlock
	succs                   []*BasicBlock
	sealed                  bool
}

func (b *BasicBlock) ID() BasicBlockID { return b.id }
func (b *BasicBlock) Name() string     { return fmt.Sprintf("blk%d", b.id) }
func (b *BasicBlock) Root() *Instruction { return b.rootInstr }
func (b *BasicBlock) Tail() *Instruction { return b.currentInstr }
func (b *BasicBlock) Preds() []*BasicBlock { return b.preds }
func (b *BasicBlock) Succs() []*BasicBlock { return b.succs }

// Terminator returns the block's last instruction, or nil for an
// empty block that has not been closed yet.
func (b *BasicBlock) Terminator() *Instruction {
	if b.currentInstr == nil || !b.currentInstr.IsTerminator() {
		return nil
	}
	return b.currentInstr
}

// InsertInstruction appends instr to the tail of the block, wiring the
// intrusive doubly linked list the same way the teacher's ssa.BasicBlock
// does, and records any branch targets in the predecessor/successor
// edges so later passes (simplifycfg, dominance) don't have to
// recompute them by scanning instructions.
func (b *BasicBlock) InsertInstruction(instr *Instruction) {
	instr.parent = b
	if b.rootInstr == nil {
		b.rootInstr = instr
	} else {
		b.currentInstr.next = instr
		instr.prev = b.currentInstr
	}
	b.currentInstr = instr

	switch instr.opcode {
	case OpJump:
		b.linkSucc(instr.blk1)
	case OpCondBr:
		b.linkSucc(instr.blk1)
		b.linkSucc(instr.blk2)
	}
}

func (b *BasicBlock) linkSucc(target *BasicBlock) {
	b.succs = append(b.succs, target)
	target.preds = append(target.preds, b)
}

// Remove unlinks instr from the block's instruction list. It must not be
// the block's terminator; passes drop dead terminators by rewriting them
// in place (AsJump etc.), not by removing them, since a block always
// needs exactly one.
func (b *BasicBlock) Remove(instr *Instruction) {
	if instr.prev != nil {
		instr.prev.next = instr.next
	} else {
		b.rootInstr = instr.next
	}
	if instr.next != nil {
		instr.next.prev = instr.prev
	} else {
		b.currentInstr = instr.prev
	}
	instr.prev, instr.next, instr.parent = nil, nil, nil
}

// resetEdges clears predecessor/successor lists so a CFG pass can
// recompute them after rewriting terminators.
func (b *BasicBlock) resetEdges() {
	b.preds = b.preds[:0]
	b.succs = b.succs[:0]
}

// FormatHeader renders "blk2: <- blk0, blk1" the way the teacher's dumps
// prefix each block with its predecessor set.
func (b *BasicBlock) FormatHeader() string {
	if len(b.preds) == 0 {
		return b.Name() + ":"
	}
	s := b.Name() + ": <-"
	for _, p := range b.preds {
		s += " " + p.Name()
	}
	return s
}
