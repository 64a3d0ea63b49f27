package runtime

// VariableFlag is a bit flag describing a local slot's declaration kind.
type VariableFlag uint8

const (
	// FlagInitialized marks a slot that has been assigned at least once.
	FlagInitialized VariableFlag = 1 << iota
	// FlagDeletable marks a `var`-style binding (deletable in sloppy mode).
	FlagDeletable
	// FlagMutable marks a `let`-style (as opposed to `const`) binding.
	FlagMutable
	// FlagStrict marks a binding declared in strict-mode code.
	FlagStrict
)

// Variable is a local slot: the same 16-byte layout as Value, plus
// bookkeeping the front end and builder need. Variables are allocated on
// the function's stack (the "locals block", see internal/builder) so
// they have a stable address; a Capture may point at that address and,
// on scope exit, redirect to a heap-resident copy (see Capture).
type Variable struct {
	Value
	Flags  VariableFlag
	Symbol uint32
}

// Initialized reports whether the slot has been written at least once.
func (v Variable) Initialized() bool { return v.Flags&FlagInitialized != 0 }

// Mutable reports whether the slot may be reassigned after its first write.
func (v Variable) Mutable() bool { return v.Flags&FlagMutable != 0 }
