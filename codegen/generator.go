// Package codegen implements the Code Generator: the component that
// turns the author's structured, register-model-level intent into a
// concrete instruction buffer for one Platform. It owns register
// allocation, argument/frame layout, carry-chained limb lowering,
// rotation planning, S-box embedding, and prologue/epilogue synthesis.
package codegen

import (
	"fmt"

	"github.com/gencrypto/gencrypto/isa"
	"github.com/gencrypto/gencrypto/platform"
	"github.com/gencrypto/gencrypto/reg"
)

// state names the Code Generator's position in the state machine spec
// §4.D describes: open -> prologue-issued -> body -> finalised.
type state int

const (
	stateOpen state = iota
	statePrologueIssued
	stateBody
	stateFinalised
)

func (s state) String() string {
	switch s {
	case stateOpen:
		return "open"
	case statePrologueIssued:
		return "prologue-issued"
	case stateBody:
		return "body"
	case stateFinalised:
		return "finalised"
	default:
		return "unknown"
	}
}

// Option configures a Generator at construction time.
type Option func(*Generator)

// WithLimbWidth overrides the default allocation limb width (otherwise
// the platform's native word size).
func WithLimbWidth(bits int) Option {
	return func(g *Generator) { g.limbWidth = bits }
}

// WithFunctionName sets the name the Emitter will use for the function
// label; defaults to "fn".
func WithFunctionName(name string) Option {
	return func(g *Generator) { g.functionName = name }
}

// loadArgFixup remembers a buffer position holding an OpLoadArg whose
// immediate (a byte offset above the entry stack pointer) must be bumped
// once the final prologue's pushed-register and frame byte counts are
// known.
type loadArgFixup struct {
	index int
}

// Generator is the single-threaded, stateful builder for one function's
// instruction buffer (spec §4.D, §5: not safe for concurrent use).
type Generator struct {
	p     *platform.Platform
	state state

	limbWidth int

	allocated map[int]bool
	everUsed  map[int]bool

	argCursor     int
	stackArgBytes int

	frameSize int

	buffer []isa.Instruction

	labelDefined map[int]int
	labelUsed    map[int]bool
	nextLabelID  int

	sboxes            []*isa.SBoxTable
	nextSBoxIndex     int
	sboxReservations  []sboxReservation

	loadArgFixups []loadArgFixup

	// relaxed holds physical register numbers an algorithm author has
	// temporarily granted allocation access to despite a platform flag
	// that would otherwise exclude them (spec §4.D: "a feature-flag set
	// that algorithm authors can toggle to grant temporary use of
	// otherwise-reserved registers, e.g. letting a scratch zero register
	// or the Y-pointer be clobbered").
	relaxed map[int]bool

	functionName string
}

// New constructs a Generator bound to a Platform. The Generator starts
// in the open state; argument declarations are legal until the first
// prologue verb runs.
func New(p *platform.Platform, opts ...Option) *Generator {
	g := &Generator{
		p:            p,
		state:        stateOpen,
		limbWidth:    p.NativeWordSize(),
		allocated:    make(map[int]bool),
		everUsed:     make(map[int]bool),
		labelDefined: make(map[int]int),
		labelUsed:    make(map[int]bool),
		functionName: "fn",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the function name the Emitter will use for this
// function's label, set via WithFunctionName ("fn" by default).
func (g *Generator) Name() string { return g.functionName }

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func (g *Generator) emit(insn isa.Instruction) {
	g.buffer = append(g.buffer, insn)
}

// --- Register allocation (spec §4.D.1) ---

// tryReserve scans the Platform's register list in allocation order and
// reserves the first count registers that are free, support limbWidth,
// carry every flag in want, and are not non-allocatable.
func (g *Generator) tryReserve(limbWidth, count int, want reg.Flag) ([]reg.BasicRegister, bool) {
	var candidates []reg.BasicRegister
	for _, r := range g.p.Registers() {
		if g.allocated[r.Number()] {
			continue
		}
		if r.HasFlag(reg.FlagNonAllocatable) && !g.relaxed[r.Number()] {
			continue
		}
		if !r.SupportsSize(limbWidth) {
			continue
		}
		if !r.HasFlag(want) {
			continue
		}
		candidates = append(candidates, r)
		if len(candidates) == count {
			return candidates, true
		}
	}
	return nil, false
}

// reserveRegisters implements the four-flag-try allocation algorithm.
// addressCarrier forces the limb width to the platform's address word
// size, per spec §4.D.1.
func (g *Generator) reserveRegisters(bits int, addressCarrier bool, flagTries []reg.Flag) ([]reg.SizedRegister, error) {
	limbWidth := g.limbWidth
	if addressCarrier {
		limbWidth = g.p.AddressWordSize()
	}
	count := ceilDiv(bits, limbWidth)
	if count == 0 {
		count = 1
	}
	for _, want := range flagTries {
		candidates, ok := g.tryReserve(limbWidth, count, want)
		if !ok {
			continue
		}
		limbs := make([]reg.SizedRegister, count)
		for i, c := range candidates {
			g.allocated[c.Number()] = true
			g.everUsed[c.Number()] = true
			sr, err := reg.NewSizedRegister(c, limbWidth)
			if err != nil {
				return nil, err
			}
			limbs[i] = sr
		}
		return limbs, nil
	}
	names := make([]string, len(flagTries))
	for i, f := range flagTries {
		names[i] = fmt.Sprintf("%#x", uint32(f))
	}
	return nil, NewAllocationError(bits, names)
}

// Allocate reserves a fresh Reg of the requested width, trying each flag
// set in flagTries in order until one yields enough eligible registers.
func (g *Generator) Allocate(bits int, flagTries ...reg.Flag) (reg.Reg, error) {
	if g.state != stateBody {
		return reg.Reg{}, NewStateError("Allocate", g.state.String(), "body")
	}
	limbs, err := g.reserveRegisters(bits, false, flagTries)
	if err != nil {
		return reg.Reg{}, err
	}
	return reg.NewReg(limbs, bits, false)
}

// Temporary allocates bits worth of scratch storage, preferring
// registers flagged temporary and falling back to any data register.
func (g *Generator) Temporary(bits int) (reg.Reg, error) {
	return g.Allocate(bits, reg.FlagTemporary, reg.FlagData)
}

// Storage allocates bits worth of persistent working state, preferring
// storage-class registers and falling back to any data register.
func (g *Generator) Storage(bits int) (reg.Reg, error) {
	return g.Allocate(bits, reg.FlagStorageOnly, reg.FlagData)
}

// AllocateAddress reserves a single address-carrier register at the
// platform's address word size.
func (g *Generator) AllocateAddress(flagTries ...reg.Flag) (reg.SizedRegister, error) {
	if g.state != stateBody {
		return reg.SizedRegister{}, NewStateError("AllocateAddress", g.state.String(), "body")
	}
	limbs, err := g.reserveRegisters(g.p.AddressWordSize(), true, flagTries)
	if err != nil {
		return reg.SizedRegister{}, err
	}
	return limbs[0], nil
}

// Release returns every physical register backing r to the free pool.
// Idempotent and safe on a zero-value Reg; the ever-used mask is sticky.
func (g *Generator) Release(r reg.Reg) {
	for _, l := range r.Limbs() {
		delete(g.allocated, l.Base.Number())
	}
}

// Relax grants temporary allocation eligibility to the named physical
// registers, overriding their platform's non-allocatable flag for the
// remainder of the function or until Unrelax is called. Used by
// algorithm authors who know a conventionally-reserved register (a fixed
// zero register, a callee-saved pointer) is safe to clobber in their
// specific round structure.
func (g *Generator) Relax(numbers ...int) {
	if g.relaxed == nil {
		g.relaxed = make(map[int]bool, len(numbers))
	}
	for _, n := range numbers {
		g.relaxed[n] = true
	}
}

// Unrelax withdraws a prior Relax grant.
func (g *Generator) Unrelax(numbers ...int) {
	for _, n := range numbers {
		delete(g.relaxed, n)
	}
}

// --- Argument passing (spec §4.D.2) ---

// ArgKind describes a declared argument's shape: its bit width (ignored
// for pointers, which always take the platform's address word size) and
// whether it is a pointer (address-carrier) argument.
type ArgKind struct {
	Bits    int
	Signed  bool
	Pointer bool
}

func ArgU8() ArgKind       { return ArgKind{Bits: 8} }
func ArgS8() ArgKind       { return ArgKind{Bits: 8, Signed: true} }
func ArgU16() ArgKind      { return ArgKind{Bits: 16} }
func ArgS16() ArgKind      { return ArgKind{Bits: 16, Signed: true} }
func ArgU32() ArgKind      { return ArgKind{Bits: 32} }
func ArgS32() ArgKind      { return ArgKind{Bits: 32, Signed: true} }
func ArgU64() ArgKind      { return ArgKind{Bits: 64} }
func ArgS64() ArgKind      { return ArgKind{Bits: 64, Signed: true} }
func ArgPointer() ArgKind  { return ArgKind{Pointer: true} }

// consumeArgSlot takes the next register from the platform's calling
// convention list that fits width and want; once that list is exhausted
// it allocates a fresh register of the right class and emits an ldarg to
// populate it from the stack frame above the stacked return address.
func (g *Generator) consumeArgSlot(width int, want reg.Flag) (reg.SizedRegister, error) {
	argRegs := g.p.ArgRegs()
	for g.argCursor < len(argRegs) {
		cand := argRegs[g.argCursor]
		g.argCursor++
		if g.allocated[cand.Number()] || !cand.SupportsSize(width) || !cand.HasFlag(want) {
			continue
		}
		sr, err := reg.NewSizedRegister(cand, width)
		if err != nil {
			return reg.SizedRegister{}, err
		}
		g.allocated[cand.Number()] = true
		g.everUsed[cand.Number()] = true
		return sr, nil
	}

	limbs, err := g.reserveRegisters(width, want == reg.FlagAddressCarrier, []reg.Flag{want})
	if err != nil {
		return reg.SizedRegister{}, err
	}
	dst := limbs[0]
	insn := isa.Instruction{Op: isa.OpLoadArg}.WithDest(dst).WithImmediate(uint64(g.stackArgBytes))
	g.loadArgFixups = append(g.loadArgFixups, loadArgFixup{index: len(g.buffer)})
	g.emit(insn)
	g.stackArgBytes += width / 8
	return dst, nil
}

// DeclareArgument declares the next argument of the function, in order,
// and returns the Reg the author should read it from. Legal only before
// the first prologue verb runs.
func (g *Generator) DeclareArgument(kind ArgKind) (reg.Reg, error) {
	if g.state != stateOpen {
		return reg.Reg{}, NewArgumentError("arguments must be declared before the first prologue verb")
	}
	if kind.Pointer {
		sr, err := g.consumeArgSlot(g.p.AddressWordSize(), reg.FlagAddressCarrier)
		if err != nil {
			return reg.Reg{}, err
		}
		return reg.NewReg([]reg.SizedRegister{sr}, g.p.AddressWordSize(), false)
	}

	bits := kind.Bits
	if bits < g.p.NativeWordSize() {
		bits = g.p.NativeWordSize()
	}
	count := ceilDiv(bits, g.limbWidth)
	limbs := make([]reg.SizedRegister, count)
	for i := 0; i < count; i++ {
		sr, err := g.consumeArgSlot(g.limbWidth, reg.FlagData)
		if err != nil {
			return reg.Reg{}, err
		}
		limbs[i] = sr
	}
	if g.p.Features().Has(platform.FeatureBigEndian) {
		for l, r := 0, len(limbs)-1; l < r; l, r = l+1, r-1 {
			limbs[l], limbs[r] = limbs[r], limbs[l]
		}
	}
	return reg.NewReg(limbs, bits, false)
}

// --- Frame layout (spec §4.D.3) ---

// SetupLocals records a locals frame of the given size, rounded up to
// the address word size. Locals are addressed [0, bytes) from the stack
// pointer once the prologue has run.
func (g *Generator) SetupLocals(bytes int) error {
	if g.state == stateFinalised {
		return NewFinalisedError("SetupLocals")
	}
	aw := g.p.AddressWordSize() / 8
	if aw <= 0 {
		aw = 1
	}
	g.frameSize = ceilDiv(bytes, aw) * aw
	return nil
}

// --- State transitions ---

// beginPrologue enforces the single prologue-verb-per-function rule and
// advances open -> prologue-issued -> body.
func (g *Generator) beginPrologue(verb string) error {
	if g.state != stateOpen {
		return NewStateError(verb, g.state.String(), "open")
	}
	g.state = statePrologueIssued
	g.state = stateBody
	return nil
}

// Label allocates a fresh, as-yet-undefined label identifier.
func (g *Generator) Label() isa.Label {
	id := g.nextLabelID
	g.nextLabelID++
	return isa.Label(id)
}

// DefineLabel emits a label pseudo-instruction marking the current
// buffer position as lbl's target.
func (g *Generator) DefineLabel(lbl isa.Label) error {
	if g.state != stateBody {
		return NewStateError("DefineLabel", g.state.String(), "body")
	}
	g.labelDefined[int(lbl)] = len(g.buffer)
	g.emit(isa.Instruction{Op: isa.OpLabel}.WithLabel(uint64(lbl)))
	return nil
}

// Reschedule marks the i-th instruction from the tail of the current
// buffer with a scheduling hint the Emitter must honour (spec §4.D.7).
func (g *Generator) Reschedule(i int, offset int8) error {
	idx := len(g.buffer) - 1 - i
	if idx < 0 || idx >= len(g.buffer) {
		return NewStateError("Reschedule", "out of range", "within buffer")
	}
	g.buffer[idx].ScheduleHint = offset
	return nil
}

// Finalize closes the function: it resolves labels, synthesises the
// prologue (callee-save pushes and frame allocation, now that the
// ever-used mask is complete) and epilogue, patches stack-argument
// offsets for the pushed/frame bytes the prologue adds, and returns the
// completed instruction buffer.
func (g *Generator) Finalize() ([]isa.Instruction, error) {
	if g.state == stateFinalised {
		return nil, NewFinalisedError("Finalize")
	}
	for lbl := range g.labelUsed {
		if _, ok := g.labelDefined[lbl]; !ok {
			return nil, NewLabelError(lbl)
		}
	}

	sp, err := reg.NewSizedRegister(g.p.StackPointer(), g.p.AddressWordSize())
	if err != nil {
		return nil, err
	}

	var pushed []reg.BasicRegister
	for _, r := range g.p.Registers() {
		if g.everUsed[r.Number()] && r.HasFlag(reg.FlagCalleeSaved) {
			pushed = append(pushed, r)
		}
	}
	pushedBytes := 0
	var prologue []isa.Instruction
	for _, r := range pushed {
		width := g.p.NativeWordSize()
		sr, err := reg.NewSizedRegister(r, width)
		if err != nil {
			return nil, err
		}
		prologue = append(prologue, isa.Instruction{Op: isa.OpPush}.WithSrc1(sr))
		pushedBytes += width / 8
	}
	if g.frameSize > 0 {
		sub, err := g.binaryImmediateOrScratch(isa.OpSub, sp, sp, uint64(g.frameSize), false)
		if err != nil {
			return nil, err
		}
		prologue = append(prologue, sub...)
	}

	var epilogue []isa.Instruction
	if g.frameSize > 0 {
		add, err := g.binaryImmediateOrScratch(isa.OpAdd, sp, sp, uint64(g.frameSize), false)
		if err != nil {
			return nil, err
		}
		epilogue = append(epilogue, add...)
	}
	for i := len(pushed) - 1; i >= 0; i-- {
		width := g.p.NativeWordSize()
		sr, err := reg.NewSizedRegister(pushed[i], width)
		if err != nil {
			return nil, err
		}
		epilogue = append(epilogue, isa.Instruction{Op: isa.OpPop}.WithDest(sr))
	}
	epilogue = append(epilogue, isa.Instruction{Op: isa.OpReturn})

	extra := uint64(pushedBytes + g.frameSize)
	fixupSet := make(map[int]bool, len(g.loadArgFixups))
	for _, f := range g.loadArgFixups {
		fixupSet[f.index] = true
	}

	final := make([]isa.Instruction, 0, len(prologue)+len(g.buffer)+len(epilogue)+len(g.sboxes))
	final = append(final, prologue...)
	labelShift := len(prologue)
	for i, insn := range g.buffer {
		if fixupSet[i] {
			insn.Immediate += extra
		}
		final = append(final, insn)
	}
	final = append(final, epilogue...)
	for _, t := range g.sboxes {
		final = append(final, isa.Instruction{Op: isa.OpSBoxTable, SBox: t})
	}

	// Label positions recorded during body construction are not shifted
	// by the prologue length and labelShift is not kept: the Emitter and
	// the interpreter resolve branches by label index, not buffer
	// position.
	_ = labelShift

	g.buffer = final
	g.state = stateFinalised
	return final, nil
}

// binaryImmediateOrScratch lowers a binary-with-immediate operation,
// synthesising the literal into a scratch register first when the
// Platform rejects it directly (spec §4.C's closing rule).
func (g *Generator) binaryImmediateOrScratch(op isa.Opcode, dest, src1 reg.SizedRegister, imm uint64, setCarry bool) ([]isa.Instruction, error) {
	if g.p.ValidateImmediate(op, dest.Size, imm) {
		return g.p.BinaryImmediate(op, dest, src1, imm, setCarry)
	}
	limbs, err := g.reserveRegisters(dest.Size, false, []reg.Flag{reg.FlagTemporary, reg.FlagData})
	if err != nil {
		return nil, err
	}
	scratch := limbs[0]
	mv, err := g.p.MoveImmediate(scratch, imm)
	if err != nil {
		return nil, err
	}
	bin, err := g.p.Binary(op, dest, src1, scratch, setCarry)
	if err != nil {
		return nil, err
	}
	return append(mv, bin...), nil
}
