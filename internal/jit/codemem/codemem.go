// Package codemem manages page-granular scratch memory for coroutine
// frames. The teacher's own codemem package mmaps PROT_EXEC pages to
// hold freshly assembled machine code; this orchestrator has no native
// codegen tier (internal/jit runs IR directly, see its doc comment), so
// there is nothing to make executable. What remains directly useful is
// the page-granular mmap allocation itself, repurposed here to back
// runtime.CoroutineFrame.Scratch buffers instead of letting every
// suspended generator/async frame allocate its own Go slice.
package codemem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const pageSize = 4096

// Arena hands out zeroed scratch buffers backed by anonymous mmap
// pages, and unmaps everything it handed out on Close.
type Arena struct {
	pages [][]byte
}

// Alloc returns a zeroed slice of length size whose capacity is size
// rounded up to a whole number of pages (one page for size 0).
func (a *Arena) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("codemem: negative alloc size %d", size)
	}
	n := ((size + pageSize - 1) / pageSize) * pageSize
	if n == 0 {
		n = pageSize
	}
	buf, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("codemem: mmap %d bytes: %w", n, err)
	}
	a.pages = append(a.pages, buf)
	return buf[:size:n], nil
}

// Close unmaps every page the arena has handed out. The arena is unusable
// afterward.
func (a *Arena) Close() error {
	for _, p := range a.pages {
		full := p[:cap(p)]
		if err := unix.Munmap(full); err != nil {
			return fmt.Errorf("codemem: munmap: %w", err)
		}
	}
	a.pages = nil
	return nil
}
