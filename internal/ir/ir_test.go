package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildAddFunction() *Function {
	fn := NewFunction(Signature{Name: "add", ParamsLen: 2})
	b := NewBuilder(fn)

	slot := b.InsertAlloca()
	b.fn.Locals.InsertInstruction(b.AllocateInstruction().AsJump(fn.Entry))

	one := b.AllocateInstruction().AsFconst(b, 1)
	b.Insert(one)
	two := b.AllocateInstruction().AsFconst(b, 2)
	b.Insert(two)
	sum := b.AllocateInstruction().AsFAdd(b, one.Return(), two.Return())
	b.Insert(sum)

	boxed := b.AllocateInstruction().AsBoxNumber(b, sum.Return())
	b.Insert(boxed)
	b.Insert(b.AllocateInstruction().AsCopyValue(slot, boxed.Return()))

	status := b.AllocateInstruction().AsIconst32(b, 0)
	b.Insert(status)
	b.Insert(b.AllocateInstruction().AsReturn(status.Return()))
	return fn
}

func TestBuilderLinksBlocksAndValues(t *testing.T) {
	fn := buildAddFunction()
	require.NoError(t, Verify(fn))
	require.Len(t, fn.Entry.Preds(), 1)
	require.Same(t, fn.Locals, fn.Entry.Preds()[0])

	dump := fn.Format()
	require.Contains(t, dump, "fadd")
	require.Contains(t, dump, "box_number")
	require.Contains(t, dump, "return")
}

func TestVerifyRejectsMissingTerminator(t *testing.T) {
	fn := NewFunction(Signature{Name: "broken"})
	b := NewBuilder(fn)
	b.Insert(b.AllocateInstruction().AsIconst32(b, 1))
	require.Error(t, Verify(fn))
}

func TestModuleInternStringDedupes(t *testing.T) {
	m := NewModule("m")
	a := m.InternString("hello")
	b := m.InternString("world")
	c := m.InternString("hello")
	require.Equal(t, a, c)
	require.NotEqual(t, a, b)
}
