package platform

import (
	"fmt"
	"io"

	"github.com/gencrypto/gencrypto/isa"
	"github.com/gencrypto/gencrypto/reg"
)

// AVRLike builds the 8-bit accumulator/pointer-register target spec §1
// names concretely: register-poor, strictly two-address, rotations
// synthesised from shifts, split register classes for S-box indexing via
// a program-memory pointer, and a native/address word size split (8-bit
// data registers, 16-bit address registers assembled conceptually from a
// register pair but modelled here as one physical register supporting
// both widths, matching spec §4.C's "the basic register that is the
// stack pointer" style single-identity register).
func AVRLike() *Platform {
	mustBasic := func(number int, sizes []int, names map[int]string, addr string, flags reg.Flag) reg.BasicRegister {
		b, err := reg.NewBasicRegister(number, sizes, names, addr, flags)
		if err != nil {
			panic(err) // static platform construction; a bad table here is a programming error
		}
		return b
	}

	data8 := func(number int, name string, flags reg.Flag) reg.BasicRegister {
		return mustBasic(number, []int{8}, map[int]string{8: name}, "", flags)
	}
	pointerPair := func(number int, low, high string, flags reg.Flag) reg.BasicRegister {
		return mustBasic(number, []int{8, 16}, map[int]string{8: low, 16: high}, "", flags)
	}

	r0 := data8(0, "r0", FlagTemp0)
	r1 := data8(1, "r1", reg.FlagFixedZero|reg.FlagNonAllocatable|reg.FlagData)

	var calleeSaved []reg.BasicRegister
	for n := 2; n <= 17; n++ {
		calleeSaved = append(calleeSaved, data8(n, fmt.Sprintf("r%d", n), reg.FlagCalleeSaved|reg.FlagData))
	}

	var argAndTemp []reg.BasicRegister
	for n := 18; n <= 25; n++ {
		argAndTemp = append(argAndTemp, data8(n, fmt.Sprintf("r%d", n), reg.FlagTemporary|reg.FlagData))
	}

	x := pointerPair(26, "XL", "X", reg.FlagAddressCarrier|reg.FlagTemporary)
	y := pointerPair(28, "YL", "Y", reg.FlagAddressCarrier|reg.FlagCalleeSaved)
	z := pointerPair(30, "ZL", "Z", reg.FlagAddressCarrier|reg.FlagTemporary)
	sp := mustBasic(32, []int{16}, map[int]string{16: "SP"}, "", reg.FlagStackPointer|reg.FlagAddressCarrier)

	allocOrder := []reg.BasicRegister{r0, z, x}
	for i := len(argAndTemp) - 1; i >= 0; i-- {
		allocOrder = append(allocOrder, argAndTemp[i])
	}
	allocOrder = append(allocOrder, calleeSaved...)
	allocOrder = append(allocOrder, y, r1)

	features := FeatureTwoAddress | FeatureRegisterPoor | FeatureShiftsOnlyNoRotate | FeatureSplitRegisterClasses

	lowering := &avrLowering{}
	emission := &avrEmission{}

	return New(Config{
		Name:            "avr-like",
		NativeWordSize:  8,
		AddressWordSize: 16,
		Features:        features,
		Registers:       allocOrder,
		ArgRegs:         argAndTemp,
		StackPointer:    sp,
		ValidateImmediate: func(op isa.Opcode, width int, imm uint64) bool {
			return ConstrainedSmallImmediate(uint32(imm), 0xFF)
		},
		Lowering: lowering,
		Emission: emission,
	})
}

// FlagTemp0 marks r0, the AVR scratch register conventionally used as the
// destination of table-lookup instructions; it is allocatable storage but
// never callee-saved.
const FlagTemp0 = reg.FlagTemporary | reg.FlagStorageOnly | reg.FlagData

type avrLowering struct{}

func optionFor(setCarry bool) isa.InstOption {
	if setCarry {
		return isa.OptSetCarry
	}
	return isa.OptNone
}

func (l *avrLowering) Unary(op isa.Opcode, dest, src reg.SizedRegister) ([]isa.Instruction, error) {
	if !dest.Equal(src) {
		return nil, NewInstructionError("avr.Unary", "two-address platform requires dest == src")
	}
	inst := isa.Instruction{Op: op}.WithDest(dest).WithSrc1(src)
	return []isa.Instruction{inst}, nil
}

func (l *avrLowering) Binary(op isa.Opcode, dest, src1, src2 reg.SizedRegister, setCarry bool) ([]isa.Instruction, error) {
	if !dest.Equal(src1) {
		return nil, NewInstructionError("avr.Binary", "two-address platform requires dest == src1")
	}
	inst := isa.Instruction{Op: op, Option: optionFor(setCarry)}.WithDest(dest).WithSrc1(src1).WithSrc2(src2)
	return []isa.Instruction{inst}, nil
}

func (l *avrLowering) BinaryShifted(op isa.Opcode, dest, src1, src2 reg.SizedRegister, mod isa.Shift, setCarry bool) ([]isa.Instruction, error) {
	return nil, NewInstructionError("avr.BinaryShifted", "avr-like has no shift-and-operate form")
}

func (l *avrLowering) BinaryImmediate(op isa.Opcode, dest, src1 reg.SizedRegister, imm uint64, setCarry bool) ([]isa.Instruction, error) {
	if !dest.Equal(src1) {
		return nil, NewInstructionError("avr.BinaryImmediate", "two-address platform requires dest == src1")
	}
	if !ConstrainedSmallImmediate(uint32(imm), 0xFF) {
		return nil, NewImmediateError(op.String(), dest.Size, imm)
	}
	inst := isa.Instruction{Op: op, Option: optionFor(setCarry)}.WithDest(dest).WithSrc1(src1).WithImmediate(imm)
	return []isa.Instruction{inst}, nil
}

func (l *avrLowering) MoveImmediate(dst reg.SizedRegister, imm uint64) ([]isa.Instruction, error) {
	if dst.Size == 8 {
		if !ConstrainedSmallImmediate(uint32(imm), 0xFF) {
			return nil, NewImmediateError("movi", dst.Size, imm)
		}
		inst := isa.Instruction{Op: isa.OpMoveImmediate}.WithDest(dst).WithImmediate(imm)
		return []isa.Instruction{inst}, nil
	}
	// 16-bit pointer registers are modelled as one physical register at
	// width 16 (see AVRLike doc comment); a single move suffices.
	inst := isa.Instruction{Op: isa.OpMoveImmediate}.WithDest(dst).WithImmediate(imm)
	return []isa.Instruction{inst}, nil
}

type avrEmission struct {
	wroteDataSection bool
}

func (e *avrEmission) BeginWrite() {
	e.wroteDataSection = false
}

func (e *avrEmission) WriteInsn(w io.Writer, insn isa.Instruction) error {
	if insn.Op == isa.OpLabel {
		_, err := fmt.Fprintf(w, "%s:\n", labelText(insn))
		return err
	}
	if insn.Op == isa.OpSBoxTable {
		return writeSBox(w, insn.SBox)
	}

	mnemonic := avrMnemonic(insn)
	operands := operandText(insn)
	_, err := fmt.Fprintf(w, "\t%s%s\n", mnemonic, operands)
	return err
}

func avrMnemonic(insn isa.Instruction) string {
	base := insn.Op.String()
	if insn.Option&isa.OptSetCarry != 0 {
		return base + "s"
	}
	return base
}

func operandText(insn isa.Instruction) string {
	text := ""
	sep := "\t"
	appendOperand := func(s string) {
		text += sep + s
		sep = ", "
	}
	if insn.HasField(isa.FieldDest) {
		name, _ := insn.Dest.Name()
		appendOperand(name)
	}
	if insn.HasField(isa.FieldSrc1) && !insn.Src1.Equal(insn.Dest) {
		name, _ := insn.Src1.Name()
		appendOperand(name)
	}
	if insn.HasField(isa.FieldSrc2) {
		name, _ := insn.Src2.Name()
		appendOperand(name)
	}
	if insn.HasField(isa.FieldImmediate) && !insn.HasField(isa.FieldLabel) {
		appendOperand(fmt.Sprintf("%#x", insn.Immediate))
	}
	if insn.HasField(isa.FieldLabel) {
		appendOperand(fmt.Sprintf("L%d", insn.Immediate))
	}
	return text
}

func labelText(insn isa.Instruction) string {
	return fmt.Sprintf("L%d", insn.Immediate)
}

func writeSBox(w io.Writer, t *isa.SBoxTable) error {
	if t == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%s:\n", t.Name); err != nil {
		return err
	}
	for i := 0; i < len(t.Bytes); i += 16 {
		end := i + 16
		if end > len(t.Bytes) {
			end = len(t.Bytes)
		}
		if _, err := fmt.Fprint(w, "\t.byte\t"); err != nil {
			return err
		}
		for j := i; j < end; j++ {
			sep := ", "
			if j == i {
				sep = ""
			}
			if _, err := fmt.Fprintf(w, "%s%#x", sep, t.Bytes[j]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
