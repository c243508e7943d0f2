package reg

// Reg is a virtual, multi-limb register: an ordered sequence of one or
// more SizedRegisters of identical width, together with the logical bit
// count (size), the total bit capacity (fullSize), and whether the bits
// above size are guaranteed zero (zeroFill). It is the unit the Code
// Generator places values in; the register model itself makes no
// placement decisions.
//
// Reg is immutable after construction: every operation that "changes" a
// Reg (WithSize, Subset, Reverse) returns a new value. This mirrors
// spec §9's re-architecture note — no method here returns a null/zero
// Reg to signal success, only (Reg, error).
type Reg struct {
	limbs    []SizedRegister
	size     int
	fullSize int
	zeroFill bool
}

// NewReg composes limbs (already ordered least-significant first) into a
// Reg with the given logical size and zero-fill flag.
func NewReg(limbs []SizedRegister, size int, zeroFill bool) (Reg, error) {
	if len(limbs) == 0 {
		return Reg{}, newInvalidRegisterError("NewReg", "a Reg requires at least one limb")
	}
	limbSize := limbs[0].Size
	seen := make(map[int]bool, len(limbs))
	for _, l := range limbs {
		if l.Size != limbSize {
			return Reg{}, newInvalidRegisterError("NewReg", "all limbs must share one width")
		}
		if seen[l.Base.Number()] {
			return Reg{}, newInvalidRegisterError("NewReg", "a physical register may not appear twice in one Reg")
		}
		seen[l.Base.Number()] = true
	}
	fullSize := limbSize * len(limbs)
	if size > fullSize || size <= fullSize-limbSize {
		return Reg{}, newInvalidRegisterError("NewReg", "size must be in (full_size - limb_size, full_size]")
	}
	out := make([]SizedRegister, len(limbs))
	copy(out, limbs)
	return Reg{limbs: out, size: size, fullSize: fullSize, zeroFill: zeroFill}, nil
}

// Size returns the significant bit count.
func (r Reg) Size() int { return r.size }

// FullSize returns the total bit capacity across all limbs.
func (r Reg) FullSize() int { return r.fullSize }

// ZeroFill reports whether bits size..full_size are guaranteed zero.
func (r Reg) ZeroFill() bool { return r.zeroFill }

// NumLimbs returns the number of physical limbs composing r.
func (r Reg) NumLimbs() int { return len(r.limbs) }

// LimbSize returns the width of each limb, or 0 for a zero-value Reg.
func (r Reg) LimbSize() int {
	if len(r.limbs) == 0 {
		return 0
	}
	return r.limbs[0].Size
}

// Limb returns the i'th limb, ascending significance (limb 0 is
// least-significant).
func (r Reg) Limb(i int) (SizedRegister, error) {
	if i < 0 || i >= len(r.limbs) {
		return SizedRegister{}, newInvalidRegisterError("Limb", "limb index out of range")
	}
	return r.limbs[i], nil
}

// Limbs returns a defensive copy of the limb slice, ascending significance.
func (r Reg) Limbs() []SizedRegister {
	out := make([]SizedRegister, len(r.limbs))
	copy(out, r.limbs)
	return out
}

// WithSize returns a copy of r with a different logical size, validated
// against the same (full_size - limb_size, full_size] window NewReg uses.
func (r Reg) WithSize(bits int) (Reg, error) {
	limbSize := r.LimbSize()
	if bits > r.fullSize || (limbSize > 0 && bits <= r.fullSize-limbSize) || bits <= 0 {
		return Reg{}, newInvalidRegisterError("WithSize", "size must be in (full_size - limb_size, full_size]")
	}
	out := r
	out.limbs = r.Limbs()
	out.size = bits
	return out, nil
}

// Subset selects the limb range covering [startBit, startBit+sizeBits).
// startBit must be limb-aligned; the returned Reg's limb range is
// half-open, [startLimb, endLimb) — spec §9 flags the source's
// inclusive-upper-bound variant of this loop as a bug, not a behaviour to
// reproduce, and Reg.Subset is the fix.
func (r Reg) Subset(startBit, sizeBits int) (Reg, error) {
	limbSize := r.LimbSize()
	if limbSize == 0 {
		return Reg{}, newInvalidRegisterError("Subset", "cannot subset an empty Reg")
	}
	if startBit%limbSize != 0 {
		return Reg{}, newInvalidRegisterError("Subset", "subset start must be limb-aligned")
	}
	if sizeBits <= 0 {
		return Reg{}, newInvalidRegisterError("Subset", "subset size must be positive")
	}
	startLimb := startBit / limbSize
	limbCount := (sizeBits + limbSize - 1) / limbSize
	endLimb := startLimb + limbCount
	if startLimb < 0 || endLimb > len(r.limbs) {
		return Reg{}, newInvalidRegisterError("Subset", "subset range exceeds register")
	}

	limbs := make([]SizedRegister, limbCount)
	copy(limbs, r.limbs[startLimb:endLimb])
	subFullSize := limbCount * limbSize

	zeroFill := false
	if endLimb == len(r.limbs) {
		zeroFill = r.zeroFill
	}

	return Reg{limbs: limbs, size: sizeBits, fullSize: subFullSize, zeroFill: zeroFill}, nil
}

// Reduce returns a copy of r truncated to the least-significant bits
// bits, dropping any high limbs the smaller size no longer needs. Unlike
// WithSize, which only repositions size within the existing limb set,
// Reduce may shrink NumLimbs; unlike Subset, which selects an arbitrary
// limb-aligned range, Reduce always starts at limb 0.
func (r Reg) Reduce(bits int) (Reg, error) {
	if bits <= 0 {
		return Reg{}, newInvalidRegisterError("Reduce", "reduced size must be positive")
	}
	if bits > r.size {
		return Reg{}, newInvalidRegisterError("Reduce", "reduced size must not exceed the current size")
	}
	return r.Subset(0, bits)
}

// Reverse returns a copy of r with limb order reversed, used to switch
// between little- and big-endian layouts. Only legal when size ==
// full_size: a partial top limb has no well-defined position once the
// limb order is inverted.
func (r Reg) Reverse() (Reg, error) {
	if r.size != r.fullSize {
		return Reg{}, newInvalidRegisterError("Reverse", "cannot reverse a Reg with a partial high limb")
	}
	limbs := make([]SizedRegister, len(r.limbs))
	for i, l := range r.limbs {
		limbs[len(limbs)-1-i] = l
	}
	return Reg{limbs: limbs, size: r.size, fullSize: r.fullSize, zeroFill: r.zeroFill}, nil
}
