package runtime

// LocatorKind identifies where a name reference resolves, as decided by
// the (out of scope) symbol/scope analyzer that produced the opcode
// stream this engine consumes.
type LocatorKind uint8

const (
	LocatorNone LocatorKind = iota
	LocatorArgument
	LocatorLocal
	LocatorCapture
)

// Locator is the front end's answer to "where does this identifier
// live". The IR Builder (internal/builder) turns a Locator into a
// concrete memory address (an argv slot, a stack Variable, or a
// Capture's Target) the first time it is dereferenced.
type Locator struct {
	Kind  LocatorKind
	Index uint16
}
