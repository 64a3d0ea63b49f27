package pass

import "github.com/silkjs/corejit/internal/ir"

type slotUse struct {
	instr *ir.Instruction
	blk   *ir.BasicBlock
}

// Mem2Reg promotes an Alloca'd slot straight to the raw register it was
// boxed from when every use of that slot is a single store (a
// OpCopyValue writing a freshly boxed value) paired with loads (OpUnbox*)
// that never cross a block boundary. This is a deliberately conservative
// subset of the textbook mem2reg: a slot that escapes into more than one
// block, or whose store and load disagree on type, is left alone rather
// than promoted through block-argument phis, since this IR doesn't have
// phis (see internal/ir package doc). Captured and argument/parameter
// slots never qualify, since their defining instruction isn't OpAlloca.
func Mem2Reg(fn *ir.Function) {
	allocas := map[uint32]*ir.Instruction{}
	for instr := fn.Locals.Root(); instr != nil; instr = instr.Next() {
		if instr.Opcode() == ir.OpAlloca {
			allocas[instr.Return().ID()] = instr
		}
	}
	if len(allocas) == 0 {
		return
	}

	uses := map[uint32][]slotUse{}
	for _, b := range fn.Blocks() {
		for instr := b.Root(); instr != nil; instr = instr.Next() {
			v1, v2, _ := instr.Args()
			if _, ok := allocas[v1.ID()]; ok && v1.Valid() {
				uses[v1.ID()] = append(uses[v1.ID()], slotUse{instr, b})
			}
			if _, ok := allocas[v2.ID()]; ok && v2.Valid() {
				uses[v2.ID()] = append(uses[v2.ID()], slotUse{instr, b})
			}
		}
	}

	for slotID, su := range uses {
		promoteSlot(fn, slotID, su)
	}
}

func promoteSlot(fn *ir.Function, slotID uint32, uses []slotUse) {
	if len(uses) == 0 {
		return
	}
	blk := uses[0].blk
	var store *ir.Instruction
	var loads []*ir.Instruction
	for _, u := range uses {
		if u.blk != blk {
			return // crosses a block boundary; needs real phi insertion, skip
		}
		switch u.instr.Opcode() {
		case ir.OpCopyValue:
			if store != nil {
				return // more than one store; not a simple single-assignment slot
			}
			store = u.instr
		case ir.OpUnboxBool, ir.OpUnboxNumber:
			loads = append(loads, u.instr)
		default:
			return // address escapes into a call/runtime-call/argv store; can't prove no alias
		}
	}
	if store == nil || len(loads) == 0 {
		return
	}

	_, src, _ := store.Args()
	boxInstr := findDef(fn, src)
	if boxInstr == nil {
		return
	}

	var raw ir.Value
	switch boxInstr.Opcode() {
	case ir.OpBoxNumber:
		raw, _, _ = boxInstr.Args()
		if wantsLoadKind(loads, ir.OpUnboxNumber) {
			rewireLoads(fn, loads, raw, ir.OpUnboxNumber)
		}
	case ir.OpBoxBool:
		raw, _, _ = boxInstr.Args()
		if wantsLoadKind(loads, ir.OpUnboxBool) {
			rewireLoads(fn, loads, raw, ir.OpUnboxBool)
		}
	}
	_ = slotID
}

func wantsLoadKind(loads []*ir.Instruction, op ir.Opcode) bool {
	for _, l := range loads {
		if l.Opcode() != op {
			return false
		}
	}
	return true
}

func rewireLoads(fn *ir.Function, loads []*ir.Instruction, raw ir.Value, op ir.Opcode) {
	for _, l := range loads {
		if l.Opcode() != op {
			continue
		}
		ir.ReplaceResultUses(fn, l.Return(), raw)
		if b := l.Block(); b != nil {
			b.Remove(l)
		}
	}
}

func findDef(fn *ir.Function, v ir.Value) *ir.Instruction {
	if !v.Valid() {
		return nil
	}
	for _, b := range fn.Blocks() {
		for instr := b.Root(); instr != nil; instr = instr.Next() {
			if instr.Return().Valid() && instr.Return().ID() == v.ID() {
				return instr
			}
		}
	}
	return nil
}
