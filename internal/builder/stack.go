package builder

import (
	"github.com/silkjs/corejit/internal/ir"
	"github.com/silkjs/corejit/internal/runtime"
)

// ItemKind discriminates what a single operand-stack slot currently
// holds, per spec.md §3/§4.2's typed operand stack.
type ItemKind byte

const (
	ItemUndefined ItemKind = iota
	ItemNull
	ItemBoolean
	ItemNumber
	ItemAny       // a boxed runtime.Value living at a Ptr address
	ItemFunction  // an unrealized function reference (before Closure())
	ItemReference // an L-value descriptor, not yet dereferenced
)

// Reference is a pending L-value: a place Assignment can write to once
// resolved to a concrete address. Built by Reference(), resolved to Addr
// the first time Dereference visits it.
type Reference struct {
	Locator runtime.Locator
	Symbol  uint32
	Addr    ir.Value // valid once resolved
}

// Item is one operand-stack slot. Exactly one payload field is
// meaningful, selected by Kind.
type Item struct {
	Kind ItemKind

	Number ir.Value // TypeF64, when Kind == ItemNumber
	Bool   ir.Value // TypeI32, when Kind == ItemBoolean
	Any    ir.Value // TypePtr, when Kind == ItemAny
	FuncID uint32   // when Kind == ItemFunction
	Ref    *Reference
}

func numberItem(v ir.Value) Item  { return Item{Kind: ItemNumber, Number: v} }
func booleanItem(v ir.Value) Item { return Item{Kind: ItemBoolean, Bool: v} }
func anyItem(v ir.Value) Item     { return Item{Kind: ItemAny, Any: v} }

// push/pop live on Builder itself (builder.go) since they also need
// access to the IR builder for materializing boxed values lazily.
