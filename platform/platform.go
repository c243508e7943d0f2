package platform

import (
	"io"

	"github.com/gencrypto/gencrypto/isa"
	"github.com/gencrypto/gencrypto/reg"
)

// Lowering is the set of hooks a Platform exposes for translating a
// generic architectural intent into concrete Instruction records (spec
// §4.C). Each hook returns an encoding legal for the platform's address
// arity, otherwise an InstructionError; the hooks of both concrete
// platforms leave isa.OptShort unset.
type Lowering interface {
	// Unary lowers a single-operand op (not, neg, sign/zero-extend, byte-swap).
	Unary(op isa.Opcode, dest, src reg.SizedRegister) ([]isa.Instruction, error)

	// Binary lowers a two-source op with no inline shift.
	Binary(op isa.Opcode, dest, src1, src2 reg.SizedRegister, setCarry bool) ([]isa.Instruction, error)

	// BinaryShifted lowers a binary op whose second source is transformed
	// by an inline shift or rotate (shift-and-operate platforms).
	BinaryShifted(op isa.Opcode, dest, src1, src2 reg.SizedRegister, mod isa.Shift, setCarry bool) ([]isa.Instruction, error)

	// BinaryImmediate lowers a binary op against an immediate second operand.
	BinaryImmediate(op isa.Opcode, dest, src1 reg.SizedRegister, imm uint64, setCarry bool) ([]isa.Instruction, error)

	// MoveImmediate decides among a direct move, a negated move, a
	// 16-bit-half move (possibly high-half), or a literal-pool load.
	MoveImmediate(dst reg.SizedRegister, imm uint64) ([]isa.Instruction, error)
}

// Emission is the hook a Platform exposes for rendering one instruction
// to assembly text (spec §4.G). BeginWrite resets any per-function
// auxiliary state (e.g. directive de-duplication) before a function's
// instructions are walked.
type Emission interface {
	BeginWrite()
	WriteInsn(w io.Writer, insn isa.Instruction) error
}

// Platform is the static, per-target description spec §4.C calls for: a
// register inventory, a calling convention, feature flags, and the
// Lowering/Emission hooks. It never mutates after construction.
type Platform struct {
	Name string

	nativeWordSize  int
	addressWordSize int
	features        Feature

	// registers is allocation order: caller-save non-argument registers
	// first, argument registers next (in reverse caller order), callee-save
	// registers last. This order IS the allocation policy (spec §4.D.1).
	registers []reg.BasicRegister

	// argRegs is calling-convention order: the order in which arguments
	// are declared and consumed (spec §4.D.2), NOT the allocation order.
	argRegs []reg.BasicRegister

	stackPointer reg.BasicRegister

	immediateValidator func(op isa.Opcode, width int, imm uint64) bool

	Lowering
	Emission
}

// Config bundles the construction-time facts a Platform needs. Lowering
// and Emission are supplied by the concrete platform (avr.go, arm32.go)
// since their logic is architecture-specific; everything else here is
// pure data.
type Config struct {
	Name               string
	NativeWordSize     int
	AddressWordSize    int
	Features           Feature
	Registers          []reg.BasicRegister
	ArgRegs            []reg.BasicRegister
	StackPointer       reg.BasicRegister
	ValidateImmediate  func(op isa.Opcode, width int, imm uint64) bool
	Lowering           Lowering
	Emission           Emission
}

// New constructs a Platform from cfg.
func New(cfg Config) *Platform {
	regs := make([]reg.BasicRegister, len(cfg.Registers))
	copy(regs, cfg.Registers)
	args := make([]reg.BasicRegister, len(cfg.ArgRegs))
	copy(args, cfg.ArgRegs)

	return &Platform{
		Name:                cfg.Name,
		nativeWordSize:      cfg.NativeWordSize,
		addressWordSize:     cfg.AddressWordSize,
		features:            cfg.Features,
		registers:           regs,
		argRegs:             args,
		stackPointer:        cfg.StackPointer,
		immediateValidator:  cfg.ValidateImmediate,
		Lowering:            cfg.Lowering,
		Emission:            cfg.Emission,
	}
}

// NativeWordSize returns the target's natural register width in bits.
func (p *Platform) NativeWordSize() int { return p.nativeWordSize }

// AddressWordSize returns the width used for address arithmetic, which
// may exceed NativeWordSize (e.g. a 32-on-64 emulation mode where 32-bit
// values travel in 64-bit physical registers but addressing is 64-bit).
func (p *Platform) AddressWordSize() int { return p.addressWordSize }

// Features returns the platform's feature flag set.
func (p *Platform) Features() Feature { return p.features }

// Registers returns the allocation-order register list.
func (p *Platform) Registers() []reg.BasicRegister {
	out := make([]reg.BasicRegister, len(p.registers))
	copy(out, p.registers)
	return out
}

// ArgRegs returns the calling-convention-order argument register list.
func (p *Platform) ArgRegs() []reg.BasicRegister {
	out := make([]reg.BasicRegister, len(p.argRegs))
	copy(out, p.argRegs)
	return out
}

// StackPointer returns the platform's stack-pointer register.
func (p *Platform) StackPointer() reg.BasicRegister { return p.stackPointer }

// ValidateImmediate reports whether imm is a legal literal for op at the
// given operand width. Any literal failing this must be synthesised into
// a scratch register by the code generator before use.
func (p *Platform) ValidateImmediate(op isa.Opcode, width int, imm uint64) bool {
	if p.immediateValidator == nil {
		return true
	}
	return p.immediateValidator(op, width, imm)
}

// LookupByNumber finds a basic register by its platform-unique number.
func (p *Platform) LookupByNumber(number int) (reg.BasicRegister, bool) {
	for _, r := range p.registers {
		if r.Number() == number {
			return r, true
		}
	}
	if p.stackPointer.Number() == number {
		return p.stackPointer, true
	}
	return reg.BasicRegister{}, false
}

// LookupByName finds a basic register by any of its size-specific names
// or its dedicated address-mode name.
func (p *Platform) LookupByName(name string) (reg.BasicRegister, bool) {
	check := func(r reg.BasicRegister) bool {
		if r.AddressName() == name {
			return true
		}
		for _, s := range r.Sizes() {
			if n, _ := r.Name(s); n == name {
				return true
			}
		}
		return false
	}
	for _, r := range p.registers {
		if check(r) {
			return r, true
		}
	}
	if check(p.stackPointer) {
		return p.stackPointer, true
	}
	return reg.BasicRegister{}, false
}
