package codegen

import "github.com/gencrypto/gencrypto/reg"

// Prologue verbs (spec §4.D.8). The author never writes prologue
// instructions directly: each of these declares the standard argument
// shape for one primitive family, issues the single prologue transition
// open -> body, and establishes the locals frame, returning Regs already
// bound to the incoming pointers/counters.

// Permutation establishes the calling convention for a permutation taking
// a single state pointer: Keccak-p, ASCON, TinyJAMBU, Xoodoo.
func (g *Generator) Permutation(frameBytes int) (statePtr reg.Reg, err error) {
	if g.state != stateOpen {
		return reg.Reg{}, NewStateError("Permutation", g.state.String(), "open")
	}
	statePtr, err = g.DeclareArgument(ArgPointer())
	if err != nil {
		return reg.Reg{}, err
	}
	if err = g.beginPrologue("Permutation"); err != nil {
		return reg.Reg{}, err
	}
	if err = g.SetupLocals(frameBytes); err != nil {
		return reg.Reg{}, err
	}
	return statePtr, nil
}

// PermutationWithCount establishes the calling convention for a
// permutation taking a state pointer plus a small round/iteration
// counter, as TinyJAMBU's outer-iteration driver needs.
func (g *Generator) PermutationWithCount(frameBytes int) (statePtr, count reg.Reg, err error) {
	if g.state != stateOpen {
		return reg.Reg{}, reg.Reg{}, NewStateError("PermutationWithCount", g.state.String(), "open")
	}
	statePtr, err = g.DeclareArgument(ArgPointer())
	if err != nil {
		return reg.Reg{}, reg.Reg{}, err
	}
	count, err = g.DeclareArgument(ArgU8())
	if err != nil {
		return reg.Reg{}, reg.Reg{}, err
	}
	if err = g.beginPrologue("PermutationWithCount"); err != nil {
		return reg.Reg{}, reg.Reg{}, err
	}
	if err = g.SetupLocals(frameBytes); err != nil {
		return reg.Reg{}, reg.Reg{}, err
	}
	return statePtr, count, nil
}

// SetupKey establishes the calling convention for a key-schedule
// generator: a key pointer in, a schedule pointer out (AES's
// aes_128/192/256_init).
func (g *Generator) SetupKey(frameBytes int) (keyPtr, schedulePtr reg.Reg, err error) {
	if g.state != stateOpen {
		return reg.Reg{}, reg.Reg{}, NewStateError("SetupKey", g.state.String(), "open")
	}
	keyPtr, err = g.DeclareArgument(ArgPointer())
	if err != nil {
		return reg.Reg{}, reg.Reg{}, err
	}
	schedulePtr, err = g.DeclareArgument(ArgPointer())
	if err != nil {
		return reg.Reg{}, reg.Reg{}, err
	}
	if err = g.beginPrologue("SetupKey"); err != nil {
		return reg.Reg{}, reg.Reg{}, err
	}
	if err = g.SetupLocals(frameBytes); err != nil {
		return reg.Reg{}, reg.Reg{}, err
	}
	return keyPtr, schedulePtr, nil
}

// EncryptBlock establishes the calling convention for a block-cipher
// round function: a schedule pointer, an input-block pointer, and an
// output-block pointer (AES's aes_ecb_encrypt).
func (g *Generator) EncryptBlock(frameBytes int) (schedulePtr, inputPtr, outputPtr reg.Reg, err error) {
	if g.state != stateOpen {
		return reg.Reg{}, reg.Reg{}, reg.Reg{}, NewStateError("EncryptBlock", g.state.String(), "open")
	}
	schedulePtr, err = g.DeclareArgument(ArgPointer())
	if err != nil {
		return reg.Reg{}, reg.Reg{}, reg.Reg{}, err
	}
	inputPtr, err = g.DeclareArgument(ArgPointer())
	if err != nil {
		return reg.Reg{}, reg.Reg{}, reg.Reg{}, err
	}
	outputPtr, err = g.DeclareArgument(ArgPointer())
	if err != nil {
		return reg.Reg{}, reg.Reg{}, reg.Reg{}, err
	}
	if err = g.beginPrologue("EncryptBlock"); err != nil {
		return reg.Reg{}, reg.Reg{}, reg.Reg{}, err
	}
	if err = g.SetupLocals(frameBytes); err != nil {
		return reg.Reg{}, reg.Reg{}, reg.Reg{}, err
	}
	return schedulePtr, inputPtr, outputPtr, nil
}

// MaskedPermutation establishes the calling convention for a masked
// (share-split) permutation: a state pointer, a preserved-randomness
// pointer, and a freshly allocated scratch share of shareBits width for
// the four-term share-expansion helper in package primitive.
func (g *Generator) MaskedPermutation(frameBytes, shareBits int) (statePtr, randPtr reg.Reg, scratchShare reg.Reg, err error) {
	if g.state != stateOpen {
		return reg.Reg{}, reg.Reg{}, reg.Reg{}, NewStateError("MaskedPermutation", g.state.String(), "open")
	}
	statePtr, err = g.DeclareArgument(ArgPointer())
	if err != nil {
		return reg.Reg{}, reg.Reg{}, reg.Reg{}, err
	}
	randPtr, err = g.DeclareArgument(ArgPointer())
	if err != nil {
		return reg.Reg{}, reg.Reg{}, reg.Reg{}, err
	}
	if err = g.beginPrologue("MaskedPermutation"); err != nil {
		return reg.Reg{}, reg.Reg{}, reg.Reg{}, err
	}
	if err = g.SetupLocals(frameBytes); err != nil {
		return reg.Reg{}, reg.Reg{}, reg.Reg{}, err
	}
	scratchShare, err = g.Allocate(shareBits, reg.FlagTemporary, reg.FlagData)
	if err != nil {
		return reg.Reg{}, reg.Reg{}, reg.Reg{}, err
	}
	return statePtr, randPtr, scratchShare, nil
}
