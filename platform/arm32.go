package platform

import (
	"fmt"
	"io"

	"github.com/gencrypto/gencrypto/isa"
	"github.com/gencrypto/gencrypto/reg"
)

// ThirtyTwoBitLoadStore builds the second platform family spec §1
// describes only "by its platform record": a 32-bit load/store target
// with either two- or three-address encoding (threeAddress selects
// which), restricted immediates via the bitmask-logical/modified
// predicates, and funnel-shift support. Its register inventory, feature
// flags, and Lowering/Emission hooks are implemented to the same contract
// as AVRLike so the Code Generator and Interpreter are exercised against
// two genuinely different targets.
func ThirtyTwoBitLoadStore(threeAddress bool) *Platform {
	mustBasic := func(number int, name string, flags reg.Flag) reg.BasicRegister {
		b, err := reg.NewBasicRegister(number, []int{32}, map[int]string{32: name}, "", flags)
		if err != nil {
			panic(err)
		}
		return b
	}

	var args []reg.BasicRegister
	for n := 0; n < 4; n++ {
		args = append(args, mustBasic(n, fmt.Sprintf("r%d", n), reg.FlagTemporary|reg.FlagData))
	}
	ip := mustBasic(12, "r12", reg.FlagTemporary|reg.FlagData)
	var calleeSaved []reg.BasicRegister
	for n := 4; n <= 11; n++ {
		calleeSaved = append(calleeSaved, mustBasic(n, fmt.Sprintf("r%d", n), reg.FlagCalleeSaved|reg.FlagData))
	}
	lr := mustBasic(14, "lr", reg.FlagCalleeSaved|reg.FlagLinkRegister|reg.FlagData)
	pc := mustBasic(15, "pc", reg.FlagNonAllocatable|reg.FlagProgramCounter)
	sp := mustBasic(13, "sp", reg.FlagStackPointer|reg.FlagAddressCarrier)

	allocOrder := []reg.BasicRegister{ip}
	for i := len(args) - 1; i >= 0; i-- {
		allocOrder = append(allocOrder, args[i])
	}
	allocOrder = append(allocOrder, calleeSaved...)
	allocOrder = append(allocOrder, lr, pc)

	features := FeatureFunnelShift | FeatureShiftAndOperate | FeatureBitClear | FeatureCompareAndBranch
	if threeAddress {
		features |= FeatureThreeAddress
	} else {
		features |= FeatureTwoAddress
	}

	lowering := &arm32Lowering{threeAddress: threeAddress}
	emission := &arm32Emission{}

	name := "thumb32-two-address"
	if threeAddress {
		name = "arm32-three-address"
	}

	return New(Config{
		Name:            name,
		NativeWordSize:  32,
		AddressWordSize: 32,
		Features:        features,
		Registers:       allocOrder,
		ArgRegs:         args,
		StackPointer:    sp,
		ValidateImmediate: func(op isa.Opcode, width int, imm uint64) bool {
			switch op {
			case isa.OpAnd, isa.OpOr, isa.OpXor, isa.OpAndNot:
				return BitmaskLogicalImmediate(uint32(imm))
			default:
				return ModifiedImmediate(uint32(imm))
			}
		},
		Lowering: lowering,
		Emission: emission,
	})
}

type arm32Lowering struct {
	threeAddress bool
}

func (l *arm32Lowering) requireTwoAddress(op, mnemonic string, dest, src1 reg.SizedRegister) error {
	if l.threeAddress {
		return nil
	}
	if !dest.Equal(src1) {
		return NewInstructionError(op, mnemonic+": two-address platform requires dest == src1")
	}
	return nil
}

func (l *arm32Lowering) Unary(op isa.Opcode, dest, src reg.SizedRegister) ([]isa.Instruction, error) {
	if err := l.requireTwoAddress("arm32.Unary", op.String(), dest, src); err != nil {
		return nil, err
	}
	inst := isa.Instruction{Op: op}.WithDest(dest).WithSrc1(src)
	return []isa.Instruction{inst}, nil
}

func (l *arm32Lowering) Binary(op isa.Opcode, dest, src1, src2 reg.SizedRegister, setCarry bool) ([]isa.Instruction, error) {
	if err := l.requireTwoAddress("arm32.Binary", op.String(), dest, src1); err != nil {
		return nil, err
	}
	inst := isa.Instruction{Op: op, Option: optionFor(setCarry)}.WithDest(dest).WithSrc1(src1).WithSrc2(src2)
	return []isa.Instruction{inst}, nil
}

func (l *arm32Lowering) BinaryShifted(op isa.Opcode, dest, src1, src2 reg.SizedRegister, mod isa.Shift, setCarry bool) ([]isa.Instruction, error) {
	if err := l.requireTwoAddress("arm32.BinaryShifted", op.String(), dest, src1); err != nil {
		return nil, err
	}
	inst := isa.Instruction{Op: op, Option: optionFor(setCarry)}.WithDest(dest).WithSrc1(src1).WithSrc2(src2).WithShift(mod)
	return []isa.Instruction{inst}, nil
}

func (l *arm32Lowering) BinaryImmediate(op isa.Opcode, dest, src1 reg.SizedRegister, imm uint64, setCarry bool) ([]isa.Instruction, error) {
	if err := l.requireTwoAddress("arm32.BinaryImmediate", op.String(), dest, src1); err != nil {
		return nil, err
	}
	valid := ModifiedImmediate(uint32(imm))
	if op == isa.OpAnd || op == isa.OpOr || op == isa.OpXor || op == isa.OpAndNot {
		valid = BitmaskLogicalImmediate(uint32(imm))
	}
	if !valid {
		return nil, NewImmediateError(op.String(), dest.Size, imm)
	}
	inst := isa.Instruction{Op: op, Option: optionFor(setCarry)}.WithDest(dest).WithSrc1(src1).WithImmediate(imm)
	return []isa.Instruction{inst}, nil
}

func (l *arm32Lowering) MoveImmediate(dst reg.SizedRegister, imm uint64) ([]isa.Instruction, error) {
	v := uint32(imm)
	if ModifiedImmediate(v) {
		inst := isa.Instruction{Op: isa.OpMoveImmediate}.WithDest(dst).WithImmediate(imm)
		return []isa.Instruction{inst}, nil
	}
	if ModifiedImmediate(^v) {
		inst := isa.Instruction{Op: isa.OpMoveNegImmediate}.WithDest(dst).WithImmediate(uint64(^v))
		return []isa.Instruction{inst}, nil
	}
	low := isa.Instruction{Op: isa.OpMoveLow16}.WithDest(dst).WithImmediate(uint64(v & 0xFFFF))
	if v>>16 == 0 {
		return []isa.Instruction{low}, nil
	}
	high := isa.Instruction{Op: isa.OpMoveHigh16}.WithDest(dst).WithImmediate(uint64(v >> 16))
	return []isa.Instruction{low, high}, nil
}

type arm32Emission struct{}

func (e *arm32Emission) BeginWrite() {}

func (e *arm32Emission) WriteInsn(w io.Writer, insn isa.Instruction) error {
	if insn.Op == isa.OpLabel {
		_, err := fmt.Fprintf(w, "%s:\n", labelText(insn))
		return err
	}
	if insn.Op == isa.OpSBoxTable {
		return writeSBox(w, insn.SBox)
	}
	cond := ""
	mnemonic := insn.Op.String()
	if insn.Option&isa.OptSetCarry != 0 {
		mnemonic += "s"
	}
	if insn.HasField(isa.FieldShift) && insn.Shift.Kind != isa.ShiftNone {
		mnemonic += fmt.Sprintf(".%d", insn.Shift.Kind)
	}
	_, err := fmt.Fprintf(w, "\t%s%s%s\n", mnemonic, cond, operandText(insn))
	return err
}
