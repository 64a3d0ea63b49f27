package ir

// Builder is the low-level IR construction API: given a current
// function and insertion block, it hands out fresh Instructions and
// Values and wires them into the block's instruction list. The
// per-opcode-family frontend (internal/builder) is the one thing that
// actually decides what instructions to emit; this type only knows how
// to allocate and link them, the same division of labor as the
// teacher's ssa.Builder versus its callers in the backend compiler.
type Builder struct {
	fn  *Function
	cur *BasicBlock
}

// NewBuilder starts building fn, with the Entry block as the initial
// insertion point.
func NewBuilder(fn *Function) *Builder {
	return &Builder{fn: fn, cur: fn.Entry}
}

func (b *Builder) Function() *Function  { return b.fn }
func (b *Builder) CurrentBlock() *BasicBlock { return b.cur }

// SetCurrentBlock redirects subsequent Insert calls to blk.
func (b *Builder) SetCurrentBlock(blk *BasicBlock) { b.cur = blk }

// CreateBlock allocates a new, empty, unreachable-until-wired block.
func (b *Builder) CreateBlock() *BasicBlock {
	return b.fn.allocBlock()
}

func (b *Builder) allocValue(typ Type) Value {
	return b.fn.allocValue(typ)
}

// AllocateInstruction returns a zeroed Instruction ready for one of the
// As* constructors in instructions.go. It is not yet linked into any
// block until passed to Insert.
func (b *Builder) AllocateInstruction() *Instruction {
	return b.fn.instrs.Allocate()
}

// Insert appends instr to the current block.
func (b *Builder) Insert(instr *Instruction) {
	b.cur.InsertInstruction(instr)
}

// InsertAlloca emits an OpAlloca into the function's dedicated Locals
// block rather than the current block, matching the LLVM convention the
// spec calls for: every local variable's stack slot is created once, up
// front, regardless of the control-flow path that first assigns it.
func (b *Builder) InsertAlloca() Value {
	instr := b.AllocateInstruction().AsAlloca(b)
	b.fn.Locals.InsertInstruction(instr)
	return instr.Return()
}
