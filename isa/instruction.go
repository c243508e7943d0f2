package isa

import "github.com/gencrypto/gencrypto/reg"

// ShiftKind names the inline shift/rotate modifier a binary instruction's
// second source operand may carry (shift-and-operate platforms) or that a
// standalone shift/rotate instruction performs.
type ShiftKind int

const (
	ShiftNone ShiftKind = iota
	ShiftAsr
	ShiftLsl
	ShiftLsr
	ShiftRor
	ShiftFunnelLeft
	ShiftFunnelRight
)

// Shift bundles a modifier with its immediate count; register shift
// counts are not represented, since no primitive this spec targets
// requires them.
type Shift struct {
	Kind  ShiftKind
	Count uint8
}

// InstOption is a bitmask of per-instruction encoding options.
type InstOption uint8

const (
	OptNone     InstOption = 0
	OptShort    InstOption = 1 << 0
	OptSetCarry InstOption = 1 << 1
)

// Field is a bitmask recording which optional fields of an Instruction are
// populated, mirroring spec §3's "bitmask recording which fields are
// populated" requirement so the Emitter and Interpreter can distinguish
// "operand absent" from "operand is register zero".
type Field uint16

const (
	FieldDest Field = 1 << iota
	FieldSrc1
	FieldSrc2
	FieldImmediate
	FieldShift
	FieldLabel
)

// Instruction is the tagged-union instruction record spec §3 describes.
// It is a value type appended to a function's instruction buffer in
// program order; it carries no behaviour, only data.
type Instruction struct {
	Op Opcode

	Dest reg.SizedRegister
	Src1 reg.SizedRegister
	Src2 reg.SizedRegister

	Immediate uint64 // also used as the label index for branches/lea/label
	Shift     Shift
	Option    InstOption

	// ScheduleHint is a signed displacement the emitter must honour: the
	// instruction is output this many positions earlier (negative) or
	// later (positive) than its position in the buffer. Zero by default.
	ScheduleHint int8

	// SBox carries the payload for an OpSBoxTable pseudo-instruction.
	// Nil for every other opcode.
	SBox *SBoxTable

	Fields Field
}

// HasField reports whether f is populated on this instruction.
func (i Instruction) HasField(f Field) bool {
	return i.Fields&f == f
}

// WithDest returns a copy of i with Dest set and FieldDest marked.
func (i Instruction) WithDest(d reg.SizedRegister) Instruction {
	i.Dest = d
	i.Fields |= FieldDest
	return i
}

// WithSrc1 returns a copy of i with Src1 set and FieldSrc1 marked.
func (i Instruction) WithSrc1(s reg.SizedRegister) Instruction {
	i.Src1 = s
	i.Fields |= FieldSrc1
	return i
}

// WithSrc2 returns a copy of i with Src2 set and FieldSrc2 marked.
func (i Instruction) WithSrc2(s reg.SizedRegister) Instruction {
	i.Src2 = s
	i.Fields |= FieldSrc2
	return i
}

// WithImmediate returns a copy of i with Immediate set and FieldImmediate marked.
func (i Instruction) WithImmediate(v uint64) Instruction {
	i.Immediate = v
	i.Fields |= FieldImmediate
	return i
}

// WithShift returns a copy of i with a shift modifier set and FieldShift marked.
func (i Instruction) WithShift(s Shift) Instruction {
	i.Shift = s
	i.Fields |= FieldShift
	return i
}

// WithLabel returns a copy of i with Immediate used as a label index and
// FieldLabel marked (mutually informative with FieldImmediate: branches
// and LoadEA set both so generic "has an immediate-shaped field" code and
// label-specific code can each find what they need).
func (i Instruction) WithLabel(idx uint64) Instruction {
	i.Immediate = idx
	i.Fields |= FieldLabel | FieldImmediate
	return i
}

// Label is an opaque branch-target identifier. It is assigned by the Code
// Generator, never by this package, and is only meaningful within one
// function's instruction buffer.
type Label int

// SBoxTable is the embedded read-only byte table pseudo-instruction
// described in spec §3: a fixed S-box or round-constant table, carried in
// the instruction stream and referenced from code via its Index.
type SBoxTable struct {
	Index int
	Name  string
	Bytes []byte
}
