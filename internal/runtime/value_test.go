package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueRoundTrip(t *testing.T) {
	require.Equal(t, TagUndefined, Undefined().Kind)
	require.Equal(t, TagNull, Null().Kind)

	b := Bool(true)
	require.Equal(t, TagBoolean, b.Kind)
	require.True(t, b.AsBool())

	n := Number(3.5)
	require.Equal(t, TagNumber, n.Kind)
	require.Equal(t, 3.5, n.AsNumber())

	require.Equal(t, 16, ValueLayout.Size)
}

func TestTagNullish(t *testing.T) {
	require.True(t, TagNone.Nullish())
	require.True(t, TagUndefined.Nullish())
	require.True(t, TagNull.Nullish())
	require.False(t, TagBoolean.Nullish())
	require.False(t, TagNumber.Nullish())
}

func TestCaptureEscape(t *testing.T) {
	v := &Variable{Value: Number(1), Flags: FlagInitialized | FlagMutable}
	c := &Capture{Target: v}
	require.Same(t, v, c.Target)

	v.Value = Number(2)
	c.Escape()
	require.NotSame(t, v, c.Target)
	require.Equal(t, 2.0, c.Target.AsNumber())

	// Reassigning the now-dead stack slot must not affect the escaped copy.
	v.Value = Number(99)
	require.Equal(t, 2.0, c.Target.AsNumber())
}

func TestStatusUnsetAndKind(t *testing.T) {
	s := StatusNormal | StatusUnset
	require.Equal(t, StatusNormal, s.Kind())
	require.Equal(t, "Normal", s.Kind().String())

	require.Equal(t, "Exception", StatusException.String())
}

func TestFlowSelector(t *testing.T) {
	f := NewFlowSelector(FlowBreak, 2)
	require.Equal(t, FlowBreak, f.Kind())
	require.Equal(t, uint8(2), f.Depth())
}
