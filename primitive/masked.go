package primitive

import (
	"fmt"

	"github.com/gencrypto/gencrypto/codegen"
	"github.com/gencrypto/gencrypto/reg"
)

// XorAndNotShare computes dst ^= (~y) & z over a two-share Boolean
// masking (spec §4.E: "a helper that computes x ^= (~y) & z as the
// four-term share expansion with a scratch share"), where y, z, and
// dst each hold a secret as the XOR of their two entries (y[0]^y[1],
// and so on).
//
// NOT distributes over an XOR-shared value by flipping exactly one
// share: ~(y0^y1) = (~y0)^y1. Substituting into (~y)&z and expanding
// over z's two shares gives four product terms —
// (~y0&z0), (~y0&z1), (y1&z0), (y1&z1) — the "four-term expansion".
// scratch carries one shared random value, combined into both dst
// shares so that dst[0] depends only on (y[0], z, scratch) and dst[1]
// depends only on (y[1], z, scratch): the non-completeness property a
// Trichina-style masked gate needs against first-order leakage. The
// caller is responsible for scratch holding fresh randomness on entry;
// XorAndNotShare only consumes it.
func XorAndNotShare(gen *codegen.Generator, dst, y, z []reg.Reg, scratch reg.Reg) error {
	if len(y) != 2 || len(z) != 2 || len(dst) != 2 {
		return fmt.Errorf("primitive: XorAndNotShare requires exactly two shares, got y=%d z=%d dst=%d", len(y), len(z), len(dst))
	}

	width := scratch.Size()
	t0, err := gen.Allocate(width, reg.FlagTemporary, reg.FlagData)
	if err != nil {
		return err
	}
	defer gen.Release(t0)
	t1, err := gen.Allocate(width, reg.FlagTemporary, reg.FlagData)
	if err != nil {
		return err
	}
	defer gen.Release(t1)

	// dst[0] ^= scratch ^ (~y0 & z0) ^ (~y0 & z1)
	if err := gen.Xor(dst[0], dst[0], scratch); err != nil {
		return err
	}
	if err := gen.AndNot(t0, z[0], y[0]); err != nil {
		return err
	}
	if err := gen.Xor(dst[0], dst[0], t0); err != nil {
		return err
	}
	if err := gen.AndNot(t0, z[1], y[0]); err != nil {
		return err
	}
	if err := gen.Xor(dst[0], dst[0], t0); err != nil {
		return err
	}

	// dst[1] ^= scratch ^ (y1 & z0) ^ (y1 & z1)
	if err := gen.Xor(dst[1], dst[1], scratch); err != nil {
		return err
	}
	if err := gen.And(t1, y[1], z[0]); err != nil {
		return err
	}
	if err := gen.Xor(dst[1], dst[1], t1); err != nil {
		return err
	}
	if err := gen.And(t1, y[1], z[1]); err != nil {
		return err
	}
	if err := gen.Xor(dst[1], dst[1], t1); err != nil {
		return err
	}

	return nil
}

// RefreshShares re-randomizes an n-share representation in place
// without changing the secret it encodes: for each adjacent pair it
// XORs a fresh random limb into one share and the same limb into the
// next, preserving the running XOR while decorrelating each share from
// the values it held on entry. rnd must supply len(shares)-1 fresh
// random Regs, each matching shares[0]'s width — typically drawn from
// the preserved-randomness buffer a masked permutation's driver
// installed (spec §6's "preserved randomness carried out-of-band").
func RefreshShares(gen *codegen.Generator, shares []reg.Reg, rnd []reg.Reg) error {
	if len(shares) < 2 {
		return fmt.Errorf("primitive: RefreshShares requires at least two shares, got %d", len(shares))
	}
	if len(rnd) != len(shares)-1 {
		return fmt.Errorf("primitive: RefreshShares requires %d random limbs for %d shares, got %d", len(shares)-1, len(shares), len(rnd))
	}

	for i := 0; i < len(shares)-1; i++ {
		if err := gen.Xor(shares[i], shares[i], rnd[i]); err != nil {
			return err
		}
		if err := gen.Xor(shares[i+1], shares[i+1], rnd[i]); err != nil {
			return err
		}
	}
	return nil
}
