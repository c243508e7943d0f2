// Package primitive is the thin verb layer algorithm authors write
// against: multi-word move, limb shuffle, in-place XOR with memory,
// byte-level table lookup, a bounded counter loop, and call/return for
// subroutines emitted as labels inside one function. Every verb either
// appends instruction records via codegen or manipulates allocator state
// — never both implicitly (spec §4.E).
package primitive

import (
	"fmt"

	"github.com/gencrypto/gencrypto/codegen"
	"github.com/gencrypto/gencrypto/isa"
	"github.com/gencrypto/gencrypto/reg"
)

// MoveWide copies src into dst, limb by limb.
func MoveWide(gen *codegen.Generator, dst, src reg.Reg) error {
	return gen.Move(dst, src)
}

// Shuffle reorders src's limbs according to order (a permutation of
// [0, NumLimbs)), returning a new Reg over the same physical registers.
// No instructions are emitted — this is pure relabelling, the same
// renumbering trick the rotation planner uses, exposed here for authors
// who need an explicit endian flip or byte transposition without
// invoking the rotate verbs.
func Shuffle(src reg.Reg, order []int) (reg.Reg, error) {
	limbs := src.Limbs()
	if len(order) != len(limbs) {
		return reg.Reg{}, fmt.Errorf("primitive: Shuffle order length %d does not match %d limbs", len(order), len(limbs))
	}
	seen := make(map[int]bool, len(order))
	out := make([]reg.SizedRegister, len(order))
	for i, idx := range order {
		if idx < 0 || idx >= len(limbs) {
			return reg.Reg{}, fmt.Errorf("primitive: Shuffle index %d out of range", idx)
		}
		if seen[idx] {
			return reg.Reg{}, fmt.Errorf("primitive: Shuffle order must be a permutation, %d repeated", idx)
		}
		seen[idx] = true
		out[i] = limbs[idx]
	}
	return reg.NewReg(out, src.Size(), src.ZeroFill())
}

// XorInPlace computes dst ^= mem[base+offset : base+offset+len(dst)],
// the idiom every permutation's "absorb" step needs.
func XorInPlace(gen *codegen.Generator, dst reg.Reg, base reg.SizedRegister, offset int) error {
	tmp, err := gen.Allocate(dst.Size(), reg.FlagTemporary, reg.FlagData)
	if err != nil {
		return err
	}
	defer gen.Release(tmp)
	if err := gen.Load(tmp, base, offset); err != nil {
		return err
	}
	return gen.Xor(dst, dst, tmp)
}

// TableLookup performs a byte-level S-box read through ptr (a pointer
// staked out by a prior codegen.SBoxSetup) indexed by idx, returning a
// freshly allocated destination register holding the looked-up byte.
func TableLookup(gen *codegen.Generator, ptr, idx reg.SizedRegister) (reg.SizedRegister, error) {
	dst, err := gen.Temporary(8)
	if err != nil {
		return reg.SizedRegister{}, err
	}
	d, err := dst.Limb(0)
	if err != nil {
		return reg.SizedRegister{}, err
	}
	if err := gen.SBoxLookup(d, ptr, idx); err != nil {
		return reg.SizedRegister{}, err
	}
	return d, nil
}

// BoundedLoop wraps the counter-register loop idiom spec §4.E names:
// it defines a loop label, runs body once, decrements counter, and
// branches back to the loop label while counter != 0 (a do-while shape,
// so the caller must ensure counter is pre-set to at least 1 before the
// loop is entered — the standard "N outer iterations" driver for
// TinyJAMBU and similar round-counted permutations). Returns the loop
// and done labels in case the caller needs to branch around the loop
// entirely for a zero-iteration case.
func BoundedLoop(gen *codegen.Generator, counter reg.Reg, body func() error) (loopLbl, doneLbl isa.Label, err error) {
	loopLbl = gen.Label()
	doneLbl = gen.Label()

	one, err := gen.Allocate(counter.Size(), reg.FlagTemporary, reg.FlagData)
	if err != nil {
		return 0, 0, err
	}
	defer gen.Release(one)
	if err := gen.MoveImmediate(one, 1); err != nil {
		return 0, 0, err
	}

	zero, err := gen.Allocate(counter.Size(), reg.FlagTemporary, reg.FlagData)
	if err != nil {
		return 0, 0, err
	}
	defer gen.Release(zero)
	if err := gen.MoveImmediate(zero, 0); err != nil {
		return 0, 0, err
	}

	if err := gen.DefineLabel(loopLbl); err != nil {
		return 0, 0, err
	}
	if err := body(); err != nil {
		return 0, 0, err
	}
	if err := gen.Sub(counter, counter, one, false); err != nil {
		return 0, 0, err
	}
	c0, err := counter.Limb(0)
	if err != nil {
		return 0, 0, err
	}
	z0, err := zero.Limb(0)
	if err != nil {
		return 0, 0, err
	}
	if err := gen.CmpBrNe(c0, z0, loopLbl); err != nil {
		return 0, 0, err
	}
	if err := gen.DefineLabel(doneLbl); err != nil {
		return 0, 0, err
	}
	return loopLbl, doneLbl, nil
}

// CallSub emits a call to a subroutine label within the same function's
// instruction buffer.
func CallSub(gen *codegen.Generator, lbl isa.Label) error {
	return gen.Call(lbl)
}

// ReturnSub emits a return from the current subroutine frame.
func ReturnSub(gen *codegen.Generator) error {
	return gen.Ret()
}
