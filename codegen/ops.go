package codegen

import (
	"github.com/gencrypto/gencrypto/isa"
	"github.com/gencrypto/gencrypto/platform"
	"github.com/gencrypto/gencrypto/reg"
)

// limbCounts returns the limb count shared by regs, failing if any two
// of them disagree.
func limbCounts(regs ...reg.Reg) (int, error) {
	n := -1
	for _, r := range regs {
		if n == -1 {
			n = r.NumLimbs()
			continue
		}
		if r.NumLimbs() != n {
			return 0, NewArgumentError("operands must share the same limb count")
		}
	}
	return n, nil
}

func (g *Generator) requireBody(op string) error {
	if g.state != stateBody {
		return NewStateError(op, g.state.String(), "body")
	}
	return nil
}

// binaryInto lowers dest = src1 OP src2 via the Platform's Binary hook,
// inserting a Move(dest, src1) first when the platform has only
// two-address forms and dest differs from src1 (spec §4.D's boundary
// behaviour: "a binary op whose destination differs from src1 must be
// lowered into a move followed by an in-place op"), mirroring
// orInto/shiftByImmediate in rotate.go.
func (g *Generator) binaryInto(op isa.Opcode, dest, src1, src2 reg.SizedRegister, setCarry bool) error {
	if !g.p.Features().Has(platform.FeatureThreeAddress) && !dest.Equal(src1) {
		g.emit(isa.Instruction{Op: isa.OpMove}.WithDest(dest).WithSrc1(src1))
		src1 = dest
	}
	insns, err := g.p.Binary(op, dest, src1, src2, setCarry)
	if err != nil {
		return err
	}
	for _, insn := range insns {
		g.emit(insn)
	}
	return nil
}

// binaryCarryChain lowers a binary op across limbs, ascending
// significance, with carry chained via plainOp on the first limb and
// carryOp on every subsequent limb (spec §4.D.4). Every limb but the
// last sets the carry flag for the next limb to consume; setCarry
// requests that the final limb set flags as well.
func (g *Generator) binaryCarryChain(plainOp, carryOp isa.Opcode, dest, src1, src2 reg.Reg, setCarry bool) error {
	n, err := limbCounts(dest, src1, src2)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		d, _ := dest.Limb(i)
		s1, _ := src1.Limb(i)
		s2, _ := src2.Limb(i)
		op := carryOp
		if i == 0 {
			op = plainOp
		}
		last := i == n-1
		if err := g.binaryInto(op, d, s1, s2, setCarry || !last); err != nil {
			return err
		}
	}
	return nil
}

// Add computes dest = src1 + src2, chaining carry across limbs.
func (g *Generator) Add(dest, src1, src2 reg.Reg, setCarry bool) error {
	if err := g.requireBody("Add"); err != nil {
		return err
	}
	return g.binaryCarryChain(isa.OpAdd, isa.OpAddC, dest, src1, src2, setCarry)
}

// Sub computes dest = src1 - src2, chaining borrow across limbs.
func (g *Generator) Sub(dest, src1, src2 reg.Reg, setCarry bool) error {
	if err := g.requireBody("Sub"); err != nil {
		return err
	}
	return g.binaryCarryChain(isa.OpSub, isa.OpSubB, dest, src1, src2, setCarry)
}

// logicalParallel lowers a limb-parallel operation with no inter-limb
// carry (spec §4.D.4: "logical operations are limb-parallel with no
// carry").
func (g *Generator) logicalParallel(op isa.Opcode, dest, src1, src2 reg.Reg) error {
	n, err := limbCounts(dest, src1, src2)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		d, _ := dest.Limb(i)
		s1, _ := src1.Limb(i)
		s2, _ := src2.Limb(i)
		if err := g.binaryInto(op, d, s1, s2, false); err != nil {
			return err
		}
	}
	return nil
}

// Xor computes dest = src1 ^ src2.
func (g *Generator) Xor(dest, src1, src2 reg.Reg) error {
	if err := g.requireBody("Xor"); err != nil {
		return err
	}
	return g.logicalParallel(isa.OpXor, dest, src1, src2)
}

// Or computes dest = src1 | src2.
func (g *Generator) Or(dest, src1, src2 reg.Reg) error {
	if err := g.requireBody("Or"); err != nil {
		return err
	}
	return g.logicalParallel(isa.OpOr, dest, src1, src2)
}

// And computes dest = src1 & src2.
func (g *Generator) And(dest, src1, src2 reg.Reg) error {
	if err := g.requireBody("And"); err != nil {
		return err
	}
	return g.logicalParallel(isa.OpAnd, dest, src1, src2)
}

// AndNot computes dest = src1 &^ src2 ("bit-clear").
func (g *Generator) AndNot(dest, src1, src2 reg.Reg) error {
	if err := g.requireBody("AndNot"); err != nil {
		return err
	}
	return g.logicalParallel(isa.OpAndNot, dest, src1, src2)
}

// unaryParallel lowers a per-limb unary operation.
func (g *Generator) unaryParallel(op isa.Opcode, dest, src reg.Reg) error {
	n, err := limbCounts(dest, src)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		d, _ := dest.Limb(i)
		s, _ := src.Limb(i)
		insns, err := g.p.Unary(op, d, s)
		if err != nil {
			return err
		}
		for _, insn := range insns {
			g.emit(insn)
		}
	}
	return nil
}

// Not computes dest = ^src.
func (g *Generator) Not(dest, src reg.Reg) error {
	if err := g.requireBody("Not"); err != nil {
		return err
	}
	return g.unaryParallel(isa.OpNot, dest, src)
}

// Move copies src into dest, limb by limb.
func (g *Generator) Move(dest, src reg.Reg) error {
	if err := g.requireBody("Move"); err != nil {
		return err
	}
	n, err := limbCounts(dest, src)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		d, _ := dest.Limb(i)
		s, _ := src.Limb(i)
		if d.Equal(s) {
			continue
		}
		g.emit(isa.Instruction{Op: isa.OpMove}.WithDest(d).WithSrc1(s))
	}
	return nil
}

// MoveImmediate writes imm into dest, splitting the literal across
// limbs least-significant first and delegating each limb's encoding
// choice to the Platform's MoveImmediate hook.
func (g *Generator) MoveImmediate(dest reg.Reg, imm uint64) error {
	if err := g.requireBody("MoveImmediate"); err != nil {
		return err
	}
	limbSize := dest.LimbSize()
	for i := 0; i < dest.NumLimbs(); i++ {
		d, _ := dest.Limb(i)
		var part uint64
		if limbSize >= 64 {
			part = imm
		} else {
			shift := uint(i * limbSize)
			if shift >= 64 {
				part = 0
			} else {
				mask := uint64(1)<<uint(limbSize) - 1
				part = (imm >> shift) & mask
			}
		}
		insns, err := g.p.MoveImmediate(d, part)
		if err != nil {
			return err
		}
		for _, insn := range insns {
			g.emit(insn)
		}
	}
	return nil
}

// Cmp lowers a comparison as a subtract-without-write that propagates
// borrow from the low limbs: every limb sets flags, and the flags left
// for the caller are the final limb's (spec §4.D.4).
func (g *Generator) Cmp(src1, src2 reg.Reg) error {
	if err := g.requireBody("Cmp"); err != nil {
		return err
	}
	n, err := limbCounts(src1, src2)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		s1, _ := src1.Limb(i)
		s2, _ := src2.Limb(i)
		op := isa.OpSubB
		if i == 0 {
			op = isa.OpSub
		}
		// Cmp never writes back to the caller's registers: each limb's
		// subtract result is routed to a fresh scratch register (its
		// value is unused — only the final limb's flags matter), so
		// src1 is left untouched for the caller to read again. Every
		// limb still executes to propagate borrow correctly into the
		// final limb's flags.
		scratch, err := g.scratchLike(s1.Size)
		if err != nil {
			return err
		}
		if err := g.binaryInto(op, scratch, s1, s2, true); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) branch(op isa.Opcode, lbl isa.Label) error {
	g.labelUsed[int(lbl)] = true
	g.emit(isa.Instruction{Op: op}.WithLabel(uint64(lbl)))
	return nil
}

// Br emits an unconditional branch to lbl.
func (g *Generator) Br(lbl isa.Label) error {
	if err := g.requireBody("Br"); err != nil {
		return err
	}
	return g.branch(isa.OpBranch, lbl)
}

// BrEq branches to lbl when the zero flag is set.
func (g *Generator) BrEq(lbl isa.Label) error {
	if err := g.requireBody("BrEq"); err != nil {
		return err
	}
	return g.branch(isa.OpBranchEq, lbl)
}

// BrNe branches to lbl when the zero flag is clear.
func (g *Generator) BrNe(lbl isa.Label) error {
	if err := g.requireBody("BrNe"); err != nil {
		return err
	}
	return g.branch(isa.OpBranchNe, lbl)
}

// BrLt branches to lbl on signed less-than.
func (g *Generator) BrLt(lbl isa.Label) error {
	if err := g.requireBody("BrLt"); err != nil {
		return err
	}
	return g.branch(isa.OpBranchLt, lbl)
}

// BrLtU branches to lbl on unsigned less-than.
func (g *Generator) BrLtU(lbl isa.Label) error {
	if err := g.requireBody("BrLtU"); err != nil {
		return err
	}
	return g.branch(isa.OpBranchLtU, lbl)
}

// BrGe branches to lbl on signed greater-or-equal.
func (g *Generator) BrGe(lbl isa.Label) error {
	if err := g.requireBody("BrGe"); err != nil {
		return err
	}
	return g.branch(isa.OpBranchGe, lbl)
}

// BrGeU branches to lbl on unsigned greater-or-equal.
func (g *Generator) BrGeU(lbl isa.Label) error {
	if err := g.requireBody("BrGeU"); err != nil {
		return err
	}
	return g.branch(isa.OpBranchGeU, lbl)
}

// CmpBrEq lowers a fused compare-and-branch: src1 == src2 -> lbl,
// without a separate Cmp call (spec §4.B's "fused compare-and-branch
// forms").
func (g *Generator) CmpBrEq(src1, src2 reg.SizedRegister, lbl isa.Label) error {
	if err := g.requireBody("CmpBrEq"); err != nil {
		return err
	}
	g.labelUsed[int(lbl)] = true
	insn := isa.Instruction{Op: isa.OpCompareBranchEq}.WithSrc1(src1).WithSrc2(src2).WithLabel(uint64(lbl))
	g.emit(insn)
	return nil
}

// CmpBrNe lowers a fused compare-and-branch: src1 != src2 -> lbl.
func (g *Generator) CmpBrNe(src1, src2 reg.SizedRegister, lbl isa.Label) error {
	if err := g.requireBody("CmpBrNe"); err != nil {
		return err
	}
	g.labelUsed[int(lbl)] = true
	insn := isa.Instruction{Op: isa.OpCompareBranchNe}.WithSrc1(src1).WithSrc2(src2).WithLabel(uint64(lbl))
	g.emit(insn)
	return nil
}

// Load reads every limb of dest from [base + offset], iterating limbs at
// ascending addresses.
func (g *Generator) Load(dest reg.Reg, base reg.SizedRegister, offset int) error {
	if err := g.requireBody("Load"); err != nil {
		return err
	}
	step := dest.LimbSize() / 8
	for i := 0; i < dest.NumLimbs(); i++ {
		d, _ := dest.Limb(i)
		insn := isa.Instruction{Op: isa.OpLoad}.WithDest(d).WithSrc1(base).WithImmediate(uint64(offset + i*step))
		g.emit(insn)
	}
	return nil
}

// Store writes src to [base + offset], iterating limbs at ascending
// addresses.
func (g *Generator) Store(src reg.Reg, base reg.SizedRegister, offset int) error {
	if err := g.requireBody("Store"); err != nil {
		return err
	}
	step := src.LimbSize() / 8
	for i := 0; i < src.NumLimbs(); i++ {
		s, _ := src.Limb(i)
		insn := isa.Instruction{Op: isa.OpStore}.WithSrc1(s).WithSrc2(base).WithImmediate(uint64(offset + i*step))
		g.emit(insn)
	}
	return nil
}

// Call emits a call to lbl (a subroutine label inside the same
// function's instruction buffer, per the Primitive front-end's
// call/return idiom).
func (g *Generator) Call(lbl isa.Label) error {
	if err := g.requireBody("Call"); err != nil {
		return err
	}
	g.labelUsed[int(lbl)] = true
	g.emit(isa.Instruction{Op: isa.OpCall}.WithLabel(uint64(lbl)))
	return nil
}

// Ret emits a return from the current subroutine/function frame.
func (g *Generator) Ret() error {
	if err := g.requireBody("Ret"); err != nil {
		return err
	}
	g.emit(isa.Instruction{Op: isa.OpReturn})
	return nil
}
