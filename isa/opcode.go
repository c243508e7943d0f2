// Package isa defines the tagged instruction record the rest of the
// compiler (codegen, interp, emit) is built around: an Opcode plus the
// operand fields spec §4.B lists. A record carries no semantics beyond
// which fields are populated — semantics are assigned by the interpreter
// (interp) and the emitter lowering tables (platform.Emission).
package isa

// Opcode enumerates every virtual instruction the code generator can
// append to a function's instruction buffer.
type Opcode int

const (
	OpNop Opcode = iota

	// Binary arithmetic.
	OpAdd
	OpSub
	OpAddC // add with carry
	OpSubB // subtract with borrow
	OpRSub // reverse subtract

	// Logical.
	OpAnd
	OpOr
	OpXor
	OpAndNot // "bit-clear"

	// Unary.
	OpNot
	OpNeg
	OpSignExtend
	OpZeroExtend
	OpByteSwap

	// Shifts and rotations (also reachable as a shift modifier on a binary op).
	OpAsr
	OpLsl
	OpLsr
	OpRol
	OpRor
	OpFunnelLeft
	OpFunnelRight

	// Moves.
	OpMove
	OpMoveImmediate
	OpMoveNegImmediate
	OpMoveLow16
	OpMoveHigh16

	// Memory.
	OpLoad
	OpStore
	OpLoadIndexed  // base + index register + immediate
	OpStoreIndexed // base + index register + immediate

	// Stack.
	OpPush
	OpPop

	// Arguments and addressing.
	OpLoadArg // argument slot above the stacked return address
	OpLoadEA  // load effective address of a label

	// Control flow.
	OpBranch
	OpBranchEq
	OpBranchNe
	OpBranchLt
	OpBranchLtU
	OpBranchGe
	OpBranchGeU
	OpCompareBranchEq // fused compare-and-branch
	OpCompareBranchNe
	OpLabel
	OpCall
	OpReturn

	// Diagnostics (interpreter-only).
	OpPrint

	// S-box pseudo-instruction; payload lives in Instruction.SBox.
	OpSBoxTable
)

// String renders the opcode's mnemonic-ish name for diagnostics.
func (o Opcode) String() string {
	if s, ok := opcodeNames[o]; ok {
		return s
	}
	return "unknown"
}

var opcodeNames = map[Opcode]string{
	OpNop:              "nop",
	OpAdd:              "add",
	OpSub:              "sub",
	OpAddC:             "addc",
	OpSubB:             "subb",
	OpRSub:             "rsub",
	OpAnd:              "and",
	OpOr:               "or",
	OpXor:              "xor",
	OpAndNot:           "andnot",
	OpNot:              "not",
	OpNeg:              "neg",
	OpSignExtend:       "sext",
	OpZeroExtend:       "zext",
	OpByteSwap:         "bswap",
	OpAsr:              "asr",
	OpLsl:              "lsl",
	OpLsr:              "lsr",
	OpRol:              "rol",
	OpRor:              "ror",
	OpFunnelLeft:       "fshl",
	OpFunnelRight:      "fshr",
	OpMove:             "mov",
	OpMoveImmediate:    "movi",
	OpMoveNegImmediate: "movni",
	OpMoveLow16:        "movw",
	OpMoveHigh16:       "movt",
	OpLoad:             "ld",
	OpStore:            "st",
	OpLoadIndexed:      "ldx",
	OpStoreIndexed:     "stx",
	OpPush:             "push",
	OpPop:              "pop",
	OpLoadArg:          "ldarg",
	OpLoadEA:           "lea",
	OpBranch:           "br",
	OpBranchEq:         "breq",
	OpBranchNe:         "brne",
	OpBranchLt:         "brlt",
	OpBranchLtU:        "brltu",
	OpBranchGe:         "brge",
	OpBranchGeU:        "brgeu",
	OpCompareBranchEq:  "cbeq",
	OpCompareBranchNe:  "cbne",
	OpLabel:            "label",
	OpCall:             "call",
	OpReturn:           "ret",
	OpPrint:            "print",
	OpSBoxTable:        "sbox",
}
