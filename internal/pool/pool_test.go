package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateAcrossPages(t *testing.T) {
	p := NewPool[int]()
	const n = slabSize*2 + 3
	ptrs := make([]*int, n)
	for i := 0; i < n; i++ {
		v := p.Allocate()
		*v = i
		ptrs[i] = v
	}
	require.Equal(t, n, p.Allocated())
	for i := 0; i < n; i++ {
		require.Equal(t, i, *ptrs[i])
		require.Same(t, ptrs[i], p.View(i))
	}
}

func TestResetReusesPages(t *testing.T) {
	p := NewPool[int]()
	first := p.Allocate()
	*first = 42
	p.Reset()
	require.Equal(t, 0, p.Allocated())

	second := p.Allocate()
	require.Equal(t, 0, *second, "Reset must zero recycled slots")
	require.Same(t, first, second, "Reset should reuse the backing page")
}
