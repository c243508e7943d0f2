package interp

import "fmt"

// MemoryError reports an out-of-bounds memory access: the interpreter
// aborts the run and reports this rather than panicking (spec §7: "the
// interpreter, on encountering an invalid state ... aborts the run and
// reports a mismatch rather than a crash").
type MemoryError struct {
	Op      string
	Address uint64
	Width   int
	Size    int
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("interp: %s at address %#x width %d exceeds memory of size %d", e.Op, e.Address, e.Width, e.Size)
}

// RegisterError reports a read of a register the active Platform does not
// expose at the requested width.
type RegisterError struct {
	Number int
	Width  int
}

func (e *RegisterError) Error() string {
	return fmt.Sprintf("interp: undefined register read: number=%d width=%d", e.Number, e.Width)
}

// ExecutionLimitError reports that a run exceeded its configured
// instruction-count ceiling without reaching a return from the entry
// frame — almost always a code generator bug (an unresolved backward
// branch loop) rather than a legitimate long-running primitive.
type ExecutionLimitError struct {
	Limit uint64
}

func (e *ExecutionLimitError) Error() string {
	return fmt.Sprintf("interp: execution exceeded %d instructions without returning", e.Limit)
}

// MismatchError reports that a KAT driver's computed output did not equal
// the expected reference output. Callers print the hex diff themselves
// (spec §7's "ok / FAILED ... and a hex diff on mismatch" is a test-driver
// concern, not a core one); this error only carries the two buffers.
type MismatchError struct {
	Got, Want []byte
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("interp: output mismatch: got % x, want % x", e.Got, e.Want)
}

// TestVectorMissingError reports that a KAT driver was asked for a field
// the active test-vector record does not carry (spec §6/§7:
// TestVectorMissing, "surfaced to the test driver, not the core").
type TestVectorMissingError struct {
	Field string
}

func (e *TestVectorMissingError) Error() string {
	return fmt.Sprintf("interp: test vector missing field %q", e.Field)
}

// UnknownOpcodeError reports an instruction the evaluator table has no
// entry for — a code generator emitted something the interpreter was
// never taught.
type UnknownOpcodeError struct {
	Opcode string
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("interp: no evaluator registered for opcode %s", e.Opcode)
}
