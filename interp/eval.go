package interp

import (
	"fmt"

	"github.com/gencrypto/gencrypto/isa"
)

// Run executes the instruction buffer from pc 0 until a return from the
// entry frame (the call stack is empty when OpReturn fires) or an error.
// Execution is bounded by maxInstructions (spec §5: "must complete
// synchronously").
func (m *Machine) Run() error {
	for {
		if m.pc < 0 || m.pc >= len(m.buffer) {
			return nil
		}
		if m.maxInstructions > 0 && m.executed >= m.maxInstructions {
			return &ExecutionLimitError{Limit: m.maxInstructions}
		}
		insn := m.buffer[m.pc]
		m.executed++

		done, err := m.step(insn)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// step executes one instruction and reports whether execution has
// returned from the entry frame.
func (m *Machine) step(insn isa.Instruction) (bool, error) {
	width := insn.Dest.Size
	if width == 0 {
		width = insn.Src1.Size
	}

	switch insn.Op {
	case isa.OpNop, isa.OpLabel, isa.OpSBoxTable:
		m.pc++

	case isa.OpAdd:
		m.evalAdd(insn, width, false)
		m.pc++
	case isa.OpAddC:
		m.evalAdd(insn, width, true)
		m.pc++
	case isa.OpSub:
		m.evalSub(insn, width, false, false)
		m.pc++
	case isa.OpSubB:
		m.evalSub(insn, width, true, false)
		m.pc++
	case isa.OpRSub:
		m.evalSub(insn, width, false, true)
		m.pc++

	case isa.OpAnd:
		m.evalLogical(insn, width, func(a, b uint64) uint64 { return a & b })
		m.pc++
	case isa.OpOr:
		m.evalLogical(insn, width, func(a, b uint64) uint64 { return a | b })
		m.pc++
	case isa.OpXor:
		m.evalLogical(insn, width, func(a, b uint64) uint64 { return a ^ b })
		m.pc++
	case isa.OpAndNot:
		m.evalLogical(insn, width, func(a, b uint64) uint64 { return a &^ b })
		m.pc++

	case isa.OpNot:
		src := m.GetReg(insn.Src1)
		m.writeResult(insn, width, ^src&widthMask(width), false, false)
		m.pc++
	case isa.OpNeg:
		src := m.GetReg(insn.Src1)
		res := (^src + 1) & widthMask(width)
		m.writeResult(insn, width, res, false, false)
		m.pc++
	case isa.OpSignExtend:
		m.evalSignExtend(insn, width)
		m.pc++
	case isa.OpZeroExtend:
		src := m.GetReg(insn.Src1)
		m.writeResult(insn, width, src&widthMask(width), false, false)
		m.pc++
	case isa.OpByteSwap:
		m.evalByteSwap(insn, width)
		m.pc++

	case isa.OpAsr:
		m.evalShift(insn, width, shiftAsr)
		m.pc++
	case isa.OpLsl:
		m.evalShift(insn, width, shiftLsl)
		m.pc++
	case isa.OpLsr:
		m.evalShift(insn, width, shiftLsr)
		m.pc++
	case isa.OpRol:
		m.evalShift(insn, width, shiftRol)
		m.pc++
	case isa.OpRor:
		m.evalShift(insn, width, shiftRor)
		m.pc++
	case isa.OpFunnelLeft:
		m.evalFunnel(insn, width, true)
		m.pc++
	case isa.OpFunnelRight:
		m.evalFunnel(insn, width, false)
		m.pc++

	case isa.OpMove:
		m.SetReg(insn.Dest, m.GetReg(insn.Src1))
		m.pc++
	case isa.OpMoveImmediate:
		m.SetReg(insn.Dest, insn.Immediate)
		m.pc++
	case isa.OpMoveNegImmediate:
		m.SetReg(insn.Dest, ^insn.Immediate)
		m.pc++
	case isa.OpMoveLow16:
		m.SetReg(insn.Dest, insn.Immediate&0xFFFF)
		m.pc++
	case isa.OpMoveHigh16:
		cur := m.GetReg(insn.Dest)
		m.SetReg(insn.Dest, (cur&^uint64(0xFFFF0000))|((insn.Immediate&0xFFFF)<<16))
		m.pc++

	case isa.OpLoad:
		return false, m.evalLoad(insn)
	case isa.OpStore:
		return false, m.evalStore(insn)
	case isa.OpLoadIndexed:
		return false, m.evalLoadIndexed(insn)
	case isa.OpStoreIndexed:
		return false, m.evalStoreIndexed(insn)

	case isa.OpPush:
		return false, m.evalPush(insn)
	case isa.OpPop:
		return false, m.evalPop(insn)
	case isa.OpLoadArg:
		return false, m.evalLoadArg(insn)
	case isa.OpLoadEA:
		base, ok := m.sboxBase[int(insn.Immediate)]
		if !ok {
			return false, fmt.Errorf("interp: OpLoadEA references unknown table %d", insn.Immediate)
		}
		m.SetReg(insn.Dest, base)
		m.pc++

	case isa.OpBranch:
		m.pc = m.labelPos[int(insn.Immediate)]
	case isa.OpBranchEq:
		m.branchIf(insn, m.flags.Z)
	case isa.OpBranchNe:
		m.branchIf(insn, !m.flags.Z)
	case isa.OpBranchLt:
		m.branchIf(insn, m.flags.N != m.flags.V)
	case isa.OpBranchGe:
		m.branchIf(insn, m.flags.N == m.flags.V)
	case isa.OpBranchLtU:
		m.branchIf(insn, !m.flags.C)
	case isa.OpBranchGeU:
		m.branchIf(insn, m.flags.C)
	case isa.OpCompareBranchEq:
		m.branchIf(insn, m.GetReg(insn.Src1) == m.GetReg(insn.Src2))
	case isa.OpCompareBranchNe:
		m.branchIf(insn, m.GetReg(insn.Src1) != m.GetReg(insn.Src2))

	case isa.OpCall:
		m.callStack = append(m.callStack, m.pc+1)
		m.pc = m.labelPos[int(insn.Immediate)]
	case isa.OpReturn:
		if len(m.callStack) == 0 {
			return true, nil
		}
		m.pc = m.callStack[len(m.callStack)-1]
		m.callStack = m.callStack[:len(m.callStack)-1]

	case isa.OpPrint:
		m.recordTrace(fmt.Sprintf("print@%d", m.pc))
		m.pc++

	default:
		return false, &UnknownOpcodeError{Opcode: insn.Op.String()}
	}
	return false, nil
}

func (m *Machine) branchIf(insn isa.Instruction, take bool) {
	if take {
		m.pc = m.labelPos[int(insn.Immediate)]
		return
	}
	m.pc++
}

// writeResult stores res into insn.Dest and, when OptSetCarry is
// requested, updates Z/N (and C/V, for arithmetic callers that pass them
// through) — spec §4.F: "update flags only when the set-carry option is
// set."
func (m *Machine) writeResult(insn isa.Instruction, width int, res uint64, carry, overflow bool) {
	m.SetReg(insn.Dest, res)
	if insn.Option&isa.OptSetCarry == 0 {
		return
	}
	signBit := uint64(1) << uint(width-1)
	m.flags = Flags{
		Z: res&widthMask(width) == 0,
		N: res&signBit != 0,
		C: carry,
		V: overflow,
	}
}

func (m *Machine) evalAdd(insn isa.Instruction, width int, withCarry bool) {
	a := m.GetReg(insn.Src1)
	b := m.GetReg(insn.Src2)
	carryIn := uint64(0)
	if withCarry && m.flags.C {
		carryIn = 1
	}
	full := a + b + carryIn
	res := full & widthMask(width)
	carryOut := full>>uint(width) != 0
	overflow := (^(a^b))&(a^res)&(uint64(1)<<uint(width-1)) != 0
	m.writeResult(insn, width, res, carryOut, overflow)
}

// evalSub implements sub/sub-with-borrow/reverse-subtract via the two's-complement
// identity spec §4.F calls out: a - b == a + ^b + 1. withCarry selects
// sub-with-borrow (carry-in taken from the prior C flag, ARM's "C=1 means
// no borrow" convention); reverse reorders the operands for RSB (dest =
// src2 - src1).
func (m *Machine) evalSub(insn isa.Instruction, width int, withCarry, reverse bool) {
	a := m.GetReg(insn.Src1)
	b := m.GetReg(insn.Src2)
	if reverse {
		a, b = b, a
	}
	carryIn := uint64(1)
	if withCarry {
		carryIn = 0
		if m.flags.C {
			carryIn = 1
		}
	}
	bNot := (^b) & widthMask(width)
	full := a + bNot + carryIn
	res := full & widthMask(width)
	carryOut := full>>uint(width) != 0 // no borrow
	overflow := (^(a^bNot))&(a^res)&(uint64(1)<<uint(width-1)) != 0
	m.writeResult(insn, width, res, carryOut, overflow)
}

func (m *Machine) evalLogical(insn isa.Instruction, width int, op func(a, b uint64) uint64) {
	a := m.GetReg(insn.Src1)
	b := m.GetReg(insn.Src2)
	res := op(a, b) & widthMask(width)
	m.writeResult(insn, width, res, false, false)
}

// evalSignExtend implements both of the unary sign-extend usages this
// compiler needs: widening (dest wider than src, low bits copied, high
// bits replicate the sign) and same-width sign-broadcast (dest all-zero
// or all-one, matching src's top bit) — the latter is how rotate.go fills
// a limb vacated by an arithmetic shift.
func (m *Machine) evalSignExtend(insn isa.Instruction, width int) {
	src := m.GetReg(insn.Src1)
	srcWidth := insn.Src1.Size
	signBit := src & (uint64(1) << uint(srcWidth-1))
	if width == srcWidth {
		if signBit != 0 {
			m.writeResult(insn, width, widthMask(width), false, false)
		} else {
			m.writeResult(insn, width, 0, false, false)
		}
		return
	}
	res := src & widthMask(srcWidth)
	if signBit != 0 {
		res |= widthMask(width) &^ widthMask(srcWidth)
	}
	m.writeResult(insn, width, res, false, false)
}

func (m *Machine) evalByteSwap(insn isa.Instruction, width int) {
	src := m.GetReg(insn.Src1)
	n := width / 8
	var res uint64
	for i := 0; i < n; i++ {
		b := (src >> uint(i*8)) & 0xFF
		res |= b << uint((n-1-i)*8)
	}
	m.writeResult(insn, width, res&widthMask(width), false, false)
}

type shiftFn func(v uint64, count, width int) uint64

func shiftLsl(v uint64, count, width int) uint64 {
	if count >= width {
		return 0
	}
	return (v << uint(count)) & widthMask(width)
}

func shiftLsr(v uint64, count, width int) uint64 {
	if count >= width {
		return 0
	}
	return v >> uint(count)
}

func shiftAsr(v uint64, count, width int) uint64 {
	signBit := v & (uint64(1) << uint(width-1))
	if count >= width {
		if signBit != 0 {
			return widthMask(width)
		}
		return 0
	}
	res := v >> uint(count)
	if signBit != 0 {
		res |= widthMask(width) &^ (widthMask(width) >> uint(count))
	}
	return res
}

func shiftRor(v uint64, count, width int) uint64 {
	count %= width
	if count == 0 {
		return v & widthMask(width)
	}
	v &= widthMask(width)
	return ((v >> uint(count)) | (v << uint(width-count))) & widthMask(width)
}

func shiftRol(v uint64, count, width int) uint64 {
	return shiftRor(v, width-(count%width), width)
}

func (m *Machine) evalShift(insn isa.Instruction, width int, fn shiftFn) {
	src := m.GetReg(insn.Src1)
	count := int(insn.Immediate)
	res := fn(src, count, width)
	m.writeResult(insn, width, res, false, false)
}

// evalFunnel implements the funnel-shift identities rotate.go's
// sub-limb-rotate planner relies on: a concatenation of src2 (the more
// significant limb) and src1 (the less significant limb), shifted by
// Shift.Count and truncated back to one limb's width (spec §4.F: "funnel
// shift as concatenation-then-shift").
func (m *Machine) evalFunnel(insn isa.Instruction, width int, left bool) {
	lo := m.GetReg(insn.Src1)
	hi := m.GetReg(insn.Src2)
	count := int(insn.Shift.Count)
	var res uint64
	if count == 0 {
		res = lo
	} else if left {
		res = (lo << uint(count)) | (hi >> uint(width-count))
	} else {
		res = (hi << uint(width-count)) | (lo >> uint(count))
	}
	m.writeResult(insn, width, res&widthMask(width), false, false)
}

func (m *Machine) evalLoad(insn isa.Instruction) error {
	base := m.GetReg(insn.Src1)
	addr := base + insn.Immediate
	v, err := m.ReadMem(addr, insn.Dest.Size)
	if err != nil {
		return err
	}
	m.SetReg(insn.Dest, v)
	m.pc++
	return nil
}

func (m *Machine) evalStore(insn isa.Instruction) error {
	base := m.GetReg(insn.Src2)
	addr := base + insn.Immediate
	v := m.GetReg(insn.Src1)
	if err := m.WriteMem(addr, insn.Src1.Size, v); err != nil {
		return err
	}
	m.pc++
	return nil
}

func (m *Machine) evalLoadIndexed(insn isa.Instruction) error {
	base := m.GetReg(insn.Src1)
	idx := m.GetReg(insn.Src2)
	addr := base + idx + insn.Immediate
	v, err := m.ReadMem(addr, insn.Dest.Size)
	if err != nil {
		return err
	}
	m.SetReg(insn.Dest, v)
	m.pc++
	return nil
}

func (m *Machine) evalStoreIndexed(insn isa.Instruction) error {
	base := m.GetReg(insn.Src1)
	idx := m.GetReg(insn.Src2)
	addr := base + idx + insn.Immediate
	v := m.GetReg(insn.Dest)
	if err := m.WriteMem(addr, insn.Dest.Size, v); err != nil {
		return err
	}
	m.pc++
	return nil
}

func (m *Machine) evalPush(insn isa.Instruction) error {
	sp := m.p.StackPointer()
	spVal := m.GetRegRaw(sp.Number())
	width := insn.Src1.Size
	spVal -= uint64(width / 8)
	if err := m.WriteMem(spVal, width, m.GetReg(insn.Src1)); err != nil {
		return err
	}
	m.SetRegRaw(sp.Number(), spVal)
	m.pc++
	return nil
}

func (m *Machine) evalPop(insn isa.Instruction) error {
	sp := m.p.StackPointer()
	spVal := m.GetRegRaw(sp.Number())
	width := insn.Dest.Size
	v, err := m.ReadMem(spVal, width)
	if err != nil {
		return err
	}
	m.SetReg(insn.Dest, v)
	m.SetRegRaw(sp.Number(), spVal+uint64(width/8))
	m.pc++
	return nil
}

func (m *Machine) evalLoadArg(insn isa.Instruction) error {
	sp := m.p.StackPointer()
	spVal := m.GetRegRaw(sp.Number())
	addr := spVal + uint64(returnAddrSize(m.p)) + insn.Immediate
	v, err := m.ReadMem(addr, insn.Dest.Size)
	if err != nil {
		return err
	}
	m.SetReg(insn.Dest, v)
	m.pc++
	return nil
}
