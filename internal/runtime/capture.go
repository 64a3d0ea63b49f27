package runtime

// Capture is a heap-allocated indirection cell that keeps a captured
// local alive after the stack frame that declared it returns.
//
// While the enclosing scope is live, Target points at the stack-resident
// Variable. The builder's EscapeVariable emits an escape_capture into
// the scope's cleanup block; when that runs, Escape copies the current
// value into Escaped and rewrites Target to point at &Escaped.
// Any reader — inner closure or outer scope alike — always dereferences
// through Target, so this rewrite is invisible to emitted code: it never
// needs to know whether a particular read happens before or after the
// owning scope has exited.
type Capture struct {
	Target  *Variable
	Escaped Variable
}

// Escape copies the current value pointed at by Target into Escaped and
// redirects Target to the escaped copy. After Escape returns, the stack
// slot the Capture originally pointed into may be reused or go out of
// scope without affecting readers.
func (c *Capture) Escape() {
	c.Escaped = *c.Target
	c.Target = &c.Escaped
}

// Closure pairs a compiled Lambda with the capture table it closes over.
// CapturesLen is retained for debugging only: emitted code indexes
// Captures with fixed, compile-time-known indices and never needs to
// range over it.
type Closure struct {
	Fn          Lambda
	CapturesLen uint16
	Captures    []*Capture
}

// CoroutineFrame is the heap record backing a generator or async
// function. State records the resume point; internal/builder emits no
// suspend/resume lowering, so no compiled lambda dispatches on it.
// Scratch holds untagged temporaries (e.g. loop counters mid-iteration)
// that must survive a suspend/resume round trip but are never observed
// by the host.
type CoroutineFrame struct {
	Closure    *Closure
	State      uint32
	NumLocals  uint16
	ScopeID    uint16
	ScratchLen uint16
	Locals     []Value
	Scratch    []byte
}
