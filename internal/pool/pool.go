// Package pool is a paged bump allocator for internal/ir's two
// highest-churn object kinds, Instruction and BasicBlock: one gets
// minted per opcode or per control-flow edge while a function is being
// built, and internal/jit's Orchestrator compiles many functions across
// a module's lifetime, so handing each one to the Go allocator
// individually would mean a malloc (and eventually a GC scan) per
// instruction instead of per slab.
package pool

// slabSize is the number of T per backing array. internal/ir allocates
// directly against this pool for every Instruction and BasicBlock a
// function owns, so it's sized against a typical function body's
// block/instruction count rather than anything bytecode-grain-sized.
const slabSize = 128

// Pool is a paged bump allocator of T. Allocate hands out individual
// *T backed by fixed-size slabs; View re-derives a pointer from the
// same index Allocate implicitly assigned it (internal/ir.BasicBlockID
// is exactly that index); Reset reclaims every slab for the next function
// compilation without freeing the backing arrays.
type Pool[T any] struct {
	slabs            []*[slabSize]T
	allocated, index int
}

// NewPool returns an empty Pool ready for Allocate.
func NewPool[T any]() Pool[T] {
	var ret Pool[T]
	ret.Reset()
	return ret
}

// Allocated returns how many T have come out of Allocate since the
// last Reset.
func (p *Pool[T]) Allocated() int {
	return p.allocated
}

// Allocate hands out the next T, growing by one slab when the current
// one fills.
func (p *Pool[T]) Allocate() *T {
	if p.index == slabSize {
		if len(p.slabs) == cap(p.slabs) {
			p.slabs = append(p.slabs, new([slabSize]T))
		} else {
			i := len(p.slabs)
			p.slabs = p.slabs[:i+1]
			if p.slabs[i] == nil {
				p.slabs[i] = new([slabSize]T)
			}
		}
		p.index = 0
	}
	ret := &p.slabs[len(p.slabs)-1][p.index]
	p.index++
	p.allocated++
	return ret
}

// LastIndex returns the index Allocate most recently handed out,
// saving a caller from recomputing Allocated()-1 every time it mints an
// ID right after allocating — internal/ir.Function.allocBlock does
// exactly this to assign a fresh BasicBlockID.
func (p *Pool[T]) LastIndex() int {
	return p.allocated - 1
}

// View returns the pointer for the i-th T ever allocated (the index
// LastIndex, or equivalently Allocated()-1, returned at allocation
// time).
func (p *Pool[T]) View(i int) *T {
	slab, index := i/slabSize, i%slabSize
	return &p.slabs[slab][index]
}

// Reset zeroes and reclaims every slab so the next function
// compilation reuses the same backing arrays instead of allocating
// fresh ones.
func (p *Pool[T]) Reset() {
	for _, slab := range p.slabs {
		items := slab[:]
		for i := range items {
			var zero T
			items[i] = zero
		}
	}
	p.slabs = p.slabs[:0]
	p.index = slabSize
	p.allocated = 0
}
