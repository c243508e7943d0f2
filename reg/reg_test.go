package reg

import "testing"

func mustReg8(t *testing.T, numbers []int, size int, zeroFill bool) Reg {
	t.Helper()
	limbs := make([]SizedRegister, len(numbers))
	for i, n := range numbers {
		b, err := NewBasicRegister(n, []int{8}, map[int]string{8: "r"}, "", FlagData)
		if err != nil {
			t.Fatalf("NewBasicRegister: %v", err)
		}
		sr, err := NewSizedRegister(b, 8)
		if err != nil {
			t.Fatalf("NewSizedRegister: %v", err)
		}
		limbs[i] = sr
	}
	r, err := NewReg(limbs, size, zeroFill)
	if err != nil {
		t.Fatalf("NewReg: %v", err)
	}
	return r
}

func TestNewRegRejectsMixedLimbWidths(t *testing.T) {
	b8, _ := NewBasicRegister(0, []int{8}, map[int]string{8: "r0"}, "", FlagData)
	b16, _ := NewBasicRegister(1, []int{16}, map[int]string{16: "r1"}, "", FlagData)
	s8, _ := NewSizedRegister(b8, 8)
	s16, _ := NewSizedRegister(b16, 16)

	if _, err := NewReg([]SizedRegister{s8, s16}, 16, false); err == nil {
		t.Error("expected error mixing limb widths")
	}
}

func TestNewRegRejectsDuplicatePhysicalRegister(t *testing.T) {
	b, _ := NewBasicRegister(3, []int{8}, map[int]string{8: "r3"}, "", FlagData)
	s, _ := NewSizedRegister(b, 8)

	if _, err := NewReg([]SizedRegister{s, s}, 16, false); err == nil {
		t.Error("expected error duplicating a physical register")
	}
}

func TestNewRegSizeWindow(t *testing.T) {
	r := mustReg8(t, []int{0, 1}, 16, true)
	if r.FullSize() != 16 || r.Size() != 16 {
		t.Fatalf("unexpected size/full_size: %d/%d", r.Size(), r.FullSize())
	}

	// size == full_size - limb_size is out of range (must be strictly greater).
	b0, _ := NewBasicRegister(0, []int{8}, map[int]string{8: "r0"}, "", FlagData)
	b1, _ := NewBasicRegister(1, []int{8}, map[int]string{8: "r1"}, "", FlagData)
	s0, _ := NewSizedRegister(b0, 8)
	s1, _ := NewSizedRegister(b1, 8)
	if _, err := NewReg([]SizedRegister{s0, s1}, 8, false); err == nil {
		t.Error("expected error: size must exceed full_size - limb_size")
	}
}

func TestSubsetRoundTrip(t *testing.T) {
	r := mustReg8(t, []int{0, 1, 2, 3}, 32, true)

	sub, err := r.Subset(0, r.Size())
	if err != nil {
		t.Fatalf("Subset: %v", err)
	}
	if sub.NumLimbs() != r.NumLimbs() || sub.Size() != r.Size() {
		t.Fatalf("subset(r, 0, size(r)) != r: got limbs=%d size=%d", sub.NumLimbs(), sub.Size())
	}
	for i := 0; i < r.NumLimbs(); i++ {
		a, _ := r.Limb(i)
		b, _ := sub.Limb(i)
		if !a.Equal(b) {
			t.Fatalf("limb %d differs after full-range subset", i)
		}
	}
}

func TestSubsetHalfOpenRange(t *testing.T) {
	r := mustReg8(t, []int{0, 1, 2, 3}, 32, true)

	sub, err := r.Subset(8, 16)
	if err != nil {
		t.Fatalf("Subset: %v", err)
	}
	if sub.NumLimbs() != 2 {
		t.Fatalf("expected 2 limbs for a 16-bit subset of 8-bit limbs, got %d", sub.NumLimbs())
	}
	first, _ := sub.Limb(0)
	orig, _ := r.Limb(1)
	if !first.Equal(orig) {
		t.Fatalf("subset(8,16) should start at limb 1, got register %d", first.Base.Number())
	}
}

func TestSubsetRejectsNonLimbAlignedStart(t *testing.T) {
	r := mustReg8(t, []int{0, 1, 2, 3}, 32, true)
	if _, err := r.Subset(4, 8); err == nil {
		t.Error("expected error for non-limb-aligned subset start")
	}
}

func TestReverseRoundTrip(t *testing.T) {
	r := mustReg8(t, []int{0, 1, 2, 3}, 32, true)

	once, err := r.Reverse()
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	twice, err := once.Reverse()
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	for i := 0; i < r.NumLimbs(); i++ {
		a, _ := r.Limb(i)
		b, _ := twice.Limb(i)
		if !a.Equal(b) {
			t.Fatalf("reversed(reversed(r)) != r at limb %d", i)
		}
	}
}

func TestReverseRejectsPartialHighLimb(t *testing.T) {
	r := mustReg8(t, []int{0, 1}, 12, false)
	if _, err := r.Reverse(); err == nil {
		t.Error("expected error reversing a Reg with size != full_size")
	}
}

func TestReduceDropsUnneededHighLimbs(t *testing.T) {
	r := mustReg8(t, []int{0, 1, 2, 3}, 32, true)

	reduced, err := r.Reduce(16)
	if err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if reduced.NumLimbs() != 2 {
		t.Fatalf("expected 2 limbs for a 16-bit reduction of 8-bit limbs, got %d", reduced.NumLimbs())
	}
	if reduced.Size() != 16 {
		t.Fatalf("expected reduced size 16, got %d", reduced.Size())
	}
	for i := 0; i < reduced.NumLimbs(); i++ {
		a, _ := r.Limb(i)
		b, _ := reduced.Limb(i)
		if !a.Equal(b) {
			t.Fatalf("limb %d differs after Reduce", i)
		}
	}
}

func TestReduceRejectsGrowing(t *testing.T) {
	r := mustReg8(t, []int{0, 1}, 12, false)
	if _, err := r.Reduce(16); err == nil {
		t.Error("expected error: Reduce must not grow past the current size")
	}
}

func TestReduceRejectsNonPositiveSize(t *testing.T) {
	r := mustReg8(t, []int{0, 1}, 12, false)
	if _, err := r.Reduce(0); err == nil {
		t.Error("expected error: reduced size must be positive")
	}
}

func TestWithSizeValidatesWindow(t *testing.T) {
	r := mustReg8(t, []int{0, 1, 2}, 24, true)

	if _, err := r.WithSize(17); err != nil {
		t.Fatalf("WithSize(17): %v", err)
	}
	if _, err := r.WithSize(8); err == nil {
		t.Error("expected error: size 8 <= full_size(24) - limb_size(8)")
	}
	if _, err := r.WithSize(25); err == nil {
		t.Error("expected error: size exceeds full_size")
	}
}
