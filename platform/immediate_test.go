package platform

import "testing"

func TestRotatedByteImmediate(t *testing.T) {
	if !RotatedByteImmediate(0xFF) {
		t.Error("0xFF should be a legal rotated-byte immediate (rotation 0)")
	}
	if !RotatedByteImmediate(0xFF000000) {
		t.Error("0xFF000000 is 0xFF rotated left by 24 (right by 8)")
	}
	if RotatedByteImmediate(0x101) {
		t.Error("0x101 cannot be expressed as an 8-bit value rotated by an even count")
	}
}

func TestConstrainedSmallImmediate(t *testing.T) {
	if !ConstrainedSmallImmediate(0xFF, 0xFF) {
		t.Error("0xFF should fit the 8-bit constrained class")
	}
	if ConstrainedSmallImmediate(0x100, 0xFF) {
		t.Error("0x100 should not fit the 8-bit constrained class")
	}
	if ConstrainedSmallImmediate(0x20, 0x1F) {
		t.Error("a tighter per-opcode limit should still be enforced")
	}
}

func TestModifiedImmediate(t *testing.T) {
	cases := []struct {
		v    uint32
		want bool
	}{
		{0x00120012, true}, // 00XY00XY
		{0x12001200, true}, // XY00XY00
		{0x12121212, true}, // XYXYXYXY
		{0x000000FF, true}, // 8-bit value with its high bit set, rotation 0
		{0x00000001, false},
	}
	for _, c := range cases {
		if got := ModifiedImmediate(c.v); got != c.want {
			t.Errorf("ModifiedImmediate(%#x) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestBitmaskLogicalImmediate(t *testing.T) {
	if !BitmaskLogicalImmediate(0x0000FFFF) {
		t.Error("16 ones then 16 zeros should be a legal bitmask immediate")
	}
	if !BitmaskLogicalImmediate(0x55555555) {
		t.Error("alternating 1010...01 (element size 2) should be legal")
	}
	if BitmaskLogicalImmediate(0xFFFFFFFF) {
		t.Error("all-ones has no zero run and should be rejected (X+Y requires X>0)")
	}
	if BitmaskLogicalImmediate(0x12345678) {
		t.Error("an arbitrary non-tiling pattern should not be a legal bitmask immediate")
	}
}
