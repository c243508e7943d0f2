package codegen

import "fmt"

// AllocationError reports that a register request could not be satisfied
// against the current Platform and allocation state (spec §7's
// AllocationFailure): every flag combination was tried, in order, and
// none yielded enough free, eligible registers.
type AllocationError struct {
	Bits  int
	Flags []string
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocation failure: no free registers for a %d-bit request with flags %v", e.Bits, e.Flags)
}

// NewAllocationError constructs an AllocationError.
func NewAllocationError(bits int, flags []string) *AllocationError {
	return &AllocationError{Bits: bits, Flags: flags}
}

// LabelError reports a branch or call referencing a label that was never
// defined by the time Finalize was called (spec §7's "malformed label").
type LabelError struct {
	Label int
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("label L%d is referenced but never defined", e.Label)
}

// NewLabelError constructs a LabelError.
func NewLabelError(label int) *LabelError {
	return &LabelError{Label: label}
}

// ArgumentError reports a misused argument or operand: declaring an
// argument after the prologue has been issued, operands whose limb
// counts disagree, or an S-box setup or cleanup with no matching table
// or reservation.
type ArgumentError struct {
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument error: %s", e.Reason)
}

// NewArgumentError constructs an ArgumentError.
func NewArgumentError(reason string) *ArgumentError {
	return &ArgumentError{Reason: reason}
}

// FinalisedError reports reentrant use of a Generator after Finalize has
// already run (spec §7's Finalised failure).
type FinalisedError struct {
	Op string
}

func (e *FinalisedError) Error() string {
	return fmt.Sprintf("generator is finalised: %s is no longer legal", e.Op)
}

// NewFinalisedError constructs a FinalisedError.
func NewFinalisedError(op string) *FinalisedError {
	return &FinalisedError{Op: op}
}

// StateError reports an operation invoked while the Generator's state
// machine is not in the phase that operation requires (e.g. allocating
// before any prologue verb, or declaring an argument after one).
type StateError struct {
	Op       string
	State    string
	Expected string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: illegal in state %s (expected %s)", e.Op, e.State, e.Expected)
}

// NewStateError constructs a StateError.
func NewStateError(op, state, expected string) *StateError {
	return &StateError{Op: op, State: state, Expected: expected}
}
