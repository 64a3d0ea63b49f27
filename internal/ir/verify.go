package ir

import "fmt"

// Verify checks the structural invariants internal/builder is supposed
// to maintain by construction: every non-empty block not ending in a
// terminator is a bug, and no terminator may appear anywhere but the
// tail.
func Verify(fn *Function) error {
	for _, b := range fn.Blocks() {
		if b.Root() == nil {
			continue // empty stub, e.g. a deadcode block nothing was emitted into; simplifycfg prunes these
		}
		for instr := b.Root(); instr != nil; instr = instr.Next() {
			if instr.IsTerminator() && instr.Next() != nil {
				return fmt.Errorf("ir: %s: terminator %s is not the last instruction", b.Name(), instr.Format())
			}
		}
		if tail := b.Tail(); tail != nil && !tail.IsTerminator() {
			return fmt.Errorf("ir: %s: falls off the end without a terminator", b.Name())
		}
	}
	return nil
}
