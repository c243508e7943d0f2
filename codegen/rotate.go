package codegen

import (
	"github.com/gencrypto/gencrypto/isa"
	"github.com/gencrypto/gencrypto/platform"
	"github.com/gencrypto/gencrypto/reg"
)

// rotatePlan is the decomposition spec §4.D.5 describes: a rotate by r
// bits over n limbs of width limbWidth becomes a limb renumbering by
// limbShift limbs followed by a sub-limb rotate of subAmount bits,
// leftward when left is set and rightward otherwise.
type rotatePlan struct {
	limbShift int
	subAmount int
	left      bool
}

// nearMultipleWindow bounds how close a sub-limb amount must be to a
// multiple of limbWidth before the generator prefers the complementary,
// smaller-shift representation (spec §4.D.5's "rotate right by 7 = left
// by 1 then byte-shift by 1" example, window chosen as one quarter of
// the limb width so the example itself — 7 out of 8 — is covered).
func nearMultipleWindow(limbWidth int) int {
	w := limbWidth / 4
	if w < 1 {
		w = 1
	}
	return w
}

// planRotateRight decomposes a right-rotation of an n*limbWidth-bit
// value by r bits, preferring the small-shift representation when r mod
// limbWidth sits within nearMultipleWindow of limbWidth.
func planRotateRight(n, limbWidth, r int) rotatePlan {
	total := n * limbWidth
	r = ((r % total) + total) % total
	limbShift := r / limbWidth
	sub := r % limbWidth
	if sub != 0 && sub > limbWidth-nearMultipleWindow(limbWidth) {
		return rotatePlan{limbShift: (limbShift + 1) % n, subAmount: limbWidth - sub, left: true}
	}
	return rotatePlan{limbShift: limbShift, subAmount: sub}
}

func planRotateLeft(n, limbWidth, r int) rotatePlan {
	total := n * limbWidth
	return planRotateRight(n, limbWidth, total-((r%total)+total)%total)
}

// renumberRight returns limbs renumbered as if the whole value had been
// rotated right by shift limbs: output limb i takes the value that was
// at limb (i+shift) mod n. No instructions are emitted — this is pure
// relabelling, legal whenever the platform allows re-labelling physical
// registers (spec §4.D.5's "no code emitted" path, used unconditionally
// here since this codebase never pins a Reg's limbs to fixed argument
// slots after allocation).
func renumberRight(limbs []reg.SizedRegister, shift int) []reg.SizedRegister {
	n := len(limbs)
	out := make([]reg.SizedRegister, n)
	for i := 0; i < n; i++ {
		out[i] = limbs[(i+shift)%n]
	}
	return out
}

// subLimbRotate computes, for each renumbered limb i, the combination of
// limbs[i] and limbs[(i+1)%n] (right rotation) or limbs[i] and
// limbs[(i-1+n)%n] (left rotation) needed to complete a sub_limb-width
// rotate, writing results into freshly allocated scratch registers so
// in-place aliasing between src and dest never corrupts an unread
// operand.
func (g *Generator) subLimbRotate(limbs []reg.SizedRegister, plan rotatePlan) ([]reg.SizedRegister, error) {
	n := len(limbs)
	if plan.subAmount == 0 && plan.limbShift == 0 {
		// A rotation by zero leaves every limb in place: no instructions.
		return limbs, nil
	}
	if plan.subAmount == 0 {
		// A rotation landing on an exact limb multiple needs no sub-limb
		// combination, but the renumbered limbs must still be copied into
		// fresh scratch registers rather than handed back aliased: the
		// caller (moveLimbsInto) writes these into dest limb by limb, and
		// an in-place rotate (dest == src) would otherwise overwrite a
		// limb before a later iteration reads it.
		out := make([]reg.SizedRegister, n)
		for i, l := range limbs {
			dest, err := g.scratchLike(l.Size)
			if err != nil {
				return nil, err
			}
			if err := g.moveInto(dest, l); err != nil {
				return nil, err
			}
			out[i] = dest
		}
		return out, nil
	}
	out := make([]reg.SizedRegister, n)
	width := limbs[0].Size
	funnel := g.p.Features().Has(platform.FeatureFunnelShift)

	for i := 0; i < n; i++ {
		lo := limbs[i]
		var hi reg.SizedRegister
		var count int
		var fkind isa.ShiftKind
		if !plan.left {
			hi = limbs[(i+1)%n]
			count = plan.subAmount
			fkind = isa.ShiftFunnelRight
		} else {
			hi = limbs[(i-1+n)%n]
			count = plan.subAmount
			fkind = isa.ShiftFunnelLeft
		}

		dest, err := g.scratchLike(width)
		if err != nil {
			return nil, err
		}

		if funnel {
			insn := isa.Instruction{Op: opForFunnel(fkind)}.WithDest(dest).WithSrc1(lo).WithSrc2(hi).
				WithShift(isa.Shift{Kind: fkind, Count: uint8(count)})
			g.emit(insn)
			out[i] = dest
			continue
		}

		t1, err := g.scratchLike(width)
		if err != nil {
			return nil, err
		}
		t2, err := g.scratchLike(width)
		if err != nil {
			return nil, err
		}
		shiftLoOp, shiftHiOp := isa.OpLsr, isa.OpLsl
		loCount, hiCount := count, width-count
		if plan.left {
			shiftLoOp, shiftHiOp = isa.OpLsl, isa.OpLsr
		}
		if err := g.shiftByImmediate(shiftLoOp, lo, loCount, t1); err != nil {
			return nil, err
		}
		if err := g.shiftByImmediate(shiftHiOp, hi, hiCount, t2); err != nil {
			return nil, err
		}
		if err := g.orInto(dest, t1, t2); err != nil {
			return nil, err
		}
		out[i] = dest
	}
	return out, nil
}

func opForFunnel(k isa.ShiftKind) isa.Opcode {
	if k == isa.ShiftFunnelLeft {
		return isa.OpFunnelLeft
	}
	return isa.OpFunnelRight
}

// scratchLike reserves one fresh temporary-class register at width bits.
func (g *Generator) scratchLike(width int) (reg.SizedRegister, error) {
	limbs, err := g.reserveRegisters(width, false, []reg.Flag{reg.FlagTemporary, reg.FlagData})
	if err != nil {
		return reg.SizedRegister{}, err
	}
	return limbs[0], nil
}

// shiftByImmediate computes dest = src OP count, respecting the
// platform's address-mode arity (a Move into dest first on strictly
// two-address platforms).
func (g *Generator) shiftByImmediate(op isa.Opcode, src reg.SizedRegister, count int, dest reg.SizedRegister) error {
	if g.p.Features().Has(platform.FeatureThreeAddress) {
		insns, err := g.p.BinaryImmediate(op, dest, src, uint64(count), false)
		if err != nil {
			return err
		}
		for _, insn := range insns {
			g.emit(insn)
		}
		return nil
	}
	if !dest.Equal(src) {
		g.emit(isa.Instruction{Op: isa.OpMove}.WithDest(dest).WithSrc1(src))
	}
	insns, err := g.p.BinaryImmediate(op, dest, dest, uint64(count), false)
	if err != nil {
		return err
	}
	for _, insn := range insns {
		g.emit(insn)
	}
	return nil
}

// orInto computes dest = a | b, respecting two-address arity.
func (g *Generator) orInto(dest, a, b reg.SizedRegister) error {
	if g.p.Features().Has(platform.FeatureThreeAddress) {
		insns, err := g.p.Binary(isa.OpOr, dest, a, b, false)
		if err != nil {
			return err
		}
		for _, insn := range insns {
			g.emit(insn)
		}
		return nil
	}
	if !dest.Equal(a) {
		g.emit(isa.Instruction{Op: isa.OpMove}.WithDest(dest).WithSrc1(a))
	}
	insns, err := g.p.Binary(isa.OpOr, dest, dest, b, false)
	if err != nil {
		return err
	}
	for _, insn := range insns {
		g.emit(insn)
	}
	return nil
}

func (g *Generator) moveLimbsInto(dest reg.Reg, limbs []reg.SizedRegister) error {
	for i := 0; i < dest.NumLimbs(); i++ {
		d, _ := dest.Limb(i)
		if !d.Equal(limbs[i]) {
			g.emit(isa.Instruction{Op: isa.OpMove}.WithDest(d).WithSrc1(limbs[i]))
		}
	}
	return nil
}

// Ror computes dest = src rotated right by amount bits.
func (g *Generator) Ror(dest, src reg.Reg, amount int) error {
	if err := g.requireBody("Ror"); err != nil {
		return err
	}
	n, err := limbCounts(dest, src)
	if err != nil {
		return err
	}
	plan := planRotateRight(n, src.LimbSize(), amount)
	renumbered := renumberRight(src.Limbs(), plan.limbShift)
	result, err := g.subLimbRotate(renumbered, plan)
	if err != nil {
		return err
	}
	return g.moveLimbsInto(dest, result)
}

// Rol computes dest = src rotated left by amount bits.
func (g *Generator) Rol(dest, src reg.Reg, amount int) error {
	if err := g.requireBody("Rol"); err != nil {
		return err
	}
	n, err := limbCounts(dest, src)
	if err != nil {
		return err
	}
	plan := planRotateLeft(n, src.LimbSize(), amount)
	// planRotateLeft expresses a left-rotation as the equivalent
	// right-rotation decomposition; reuse Ror's machinery unchanged.
	renumbered := renumberRight(src.Limbs(), plan.limbShift)
	result, err := g.subLimbRotate(renumbered, plan)
	if err != nil {
		return err
	}
	return g.moveLimbsInto(dest, result)
}

// shiftLimbs decomposes a non-wrapping shift the same way a rotate is
// decomposed, but limbs shifted past either end are dropped (and the
// vacated limbs filled with zero, or the sign for Asr) rather than
// wrapped around.
func (g *Generator) shiftLimbs(dest, src reg.Reg, amount int, left bool, arithmetic bool) error {
	n, err := limbCounts(dest, src)
	if err != nil {
		return err
	}
	limbWidth := src.LimbSize()
	limbShift := amount / limbWidth
	sub := amount % limbWidth
	srcLimbs := src.Limbs()
	result := make([]reg.SizedRegister, n)

	fillWidth := limbWidth
	for i := 0; i < n; i++ {
		var srcIdx int
		if left {
			srcIdx = i - limbShift
		} else {
			srcIdx = i + limbShift
		}
		if srcIdx < 0 || srcIdx >= n {
			zero, err := g.scratchLike(fillWidth)
			if err != nil {
				return err
			}
			if err := g.zeroOrSignFill(zero, srcLimbs[n-1], arithmetic && !left); err != nil {
				return err
			}
			result[i] = zero
			continue
		}
		lo := srcLimbs[srcIdx]
		var hi reg.SizedRegister
		haveHi := false
		if left && srcIdx-1 >= 0 {
			hi = srcLimbs[srcIdx-1]
			haveHi = true
		} else if !left && srcIdx+1 < n {
			hi = srcLimbs[srcIdx+1]
			haveHi = true
		}

		if sub == 0 {
			dst, err := g.scratchLike(limbWidth)
			if err != nil {
				return err
			}
			if err := g.moveInto(dst, lo); err != nil {
				return err
			}
			result[i] = dst
			continue
		}

		mainOp := isa.OpLsl
		if !left {
			mainOp = isa.OpLsr
			if arithmetic && !haveHi {
				mainOp = isa.OpAsr
			}
		}
		t1, err := g.scratchLike(limbWidth)
		if err != nil {
			return err
		}
		if err := g.shiftByImmediate(mainOp, lo, sub, t1); err != nil {
			return err
		}
		if !haveHi {
			result[i] = t1
			continue
		}
		t2, err := g.scratchLike(limbWidth)
		if err != nil {
			return err
		}
		crossOp, crossCount := isa.OpLsl, limbWidth-sub
		if left {
			crossOp = isa.OpLsr
		}
		if err := g.shiftByImmediate(crossOp, hi, crossCount, t2); err != nil {
			return err
		}
		dst, err := g.scratchLike(limbWidth)
		if err != nil {
			return err
		}
		if err := g.orInto(dst, t1, t2); err != nil {
			return err
		}
		result[i] = dst
	}
	return g.moveLimbsInto(dest, result)
}

func (g *Generator) moveInto(dest, src reg.SizedRegister) error {
	if dest.Equal(src) {
		return nil
	}
	g.emit(isa.Instruction{Op: isa.OpMove}.WithDest(dest).WithSrc1(src))
	return nil
}

// zeroOrSignFill sets dest to zero, or to the sign-extension of signSrc
// (all-zero or all-one bits matching signSrc's top bit) when signed is
// true — used to fill limbs vacated by a logical or arithmetic shift.
func (g *Generator) zeroOrSignFill(dest, signSrc reg.SizedRegister, signed bool) error {
	if !signed {
		insns, err := g.p.MoveImmediate(dest, 0)
		if err != nil {
			return err
		}
		for _, insn := range insns {
			g.emit(insn)
		}
		return nil
	}
	insns, err := g.p.Unary(isa.OpSignExtend, dest, signSrc)
	if err != nil {
		return err
	}
	for _, insn := range insns {
		g.emit(insn)
	}
	return nil
}

// Shl computes dest = src << amount, shifting zeros in at the low end.
func (g *Generator) Shl(dest, src reg.Reg, amount int) error {
	if err := g.requireBody("Shl"); err != nil {
		return err
	}
	return g.shiftLimbs(dest, src, amount, true, false)
}

// Shr computes dest = src >> amount (logical), shifting zeros in at the
// high end.
func (g *Generator) Shr(dest, src reg.Reg, amount int) error {
	if err := g.requireBody("Shr"); err != nil {
		return err
	}
	return g.shiftLimbs(dest, src, amount, false, false)
}

// Asr computes dest = src >> amount (arithmetic), sign-extending at the
// high end.
func (g *Generator) Asr(dest, src reg.Reg, amount int) error {
	if err := g.requireBody("Asr"); err != nil {
		return err
	}
	return g.shiftLimbs(dest, src, amount, false, true)
}
