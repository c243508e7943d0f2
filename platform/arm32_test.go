package platform

import (
	"testing"

	"github.com/gencrypto/gencrypto/isa"
	"github.com/gencrypto/gencrypto/reg"
)

func TestThirtyTwoBitThreeAddressAllowsDistinctDest(t *testing.T) {
	p := ThirtyTwoBitLoadStore(true)
	r0, _ := p.LookupByNumber(0)
	r1, _ := p.LookupByNumber(1)
	r2, _ := p.LookupByNumber(2)
	d0, _ := reg.NewSizedRegister(r0, 32)
	d1, _ := reg.NewSizedRegister(r1, 32)
	d2, _ := reg.NewSizedRegister(r2, 32)

	insns, err := p.Binary(isa.OpAdd, d0, d1, d2, false)
	if err != nil {
		t.Fatalf("three-address Binary should allow dest != src1: %v", err)
	}
	if len(insns) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(insns))
	}
}

func TestThirtyTwoBitTwoAddressVariantRejectsDistinctDest(t *testing.T) {
	p := ThirtyTwoBitLoadStore(false)
	r0, _ := p.LookupByNumber(0)
	r1, _ := p.LookupByNumber(1)
	d0, _ := reg.NewSizedRegister(r0, 32)
	d1, _ := reg.NewSizedRegister(r1, 32)

	if _, err := p.Binary(isa.OpAdd, d0, d1, d1, false); err == nil {
		t.Error("expected error: two-address variant requires dest == src1")
	}
}

func TestThirtyTwoBitMoveImmediateSynthesisPath(t *testing.T) {
	p := ThirtyTwoBitLoadStore(true)
	r0, _ := p.LookupByNumber(0)
	d0, _ := reg.NewSizedRegister(r0, 32)

	insns, err := p.MoveImmediate(d0, 0x12345678)
	if err != nil {
		t.Fatalf("MoveImmediate: %v", err)
	}
	if len(insns) != 2 || insns[0].Op != isa.OpMoveLow16 || insns[1].Op != isa.OpMoveHigh16 {
		t.Fatalf("expected a low16+high16 pair for a literal outside the modified-immediate set, got %+v", insns)
	}
}

func TestThirtyTwoBitBinaryImmediateValidatesBitmaskForLogicalOps(t *testing.T) {
	p := ThirtyTwoBitLoadStore(true)
	r0, _ := p.LookupByNumber(0)
	d0, _ := reg.NewSizedRegister(r0, 32)

	if _, err := p.BinaryImmediate(isa.OpAnd, d0, d0, 0x00000003, false); err != nil {
		t.Fatalf("0x3 is a legal bitmask-logical immediate: %v", err)
	}
	if _, err := p.BinaryImmediate(isa.OpAnd, d0, d0, 0x12345678, false); err == nil {
		t.Error("expected ImmediateError for a non-bitmask AND immediate")
	}
}
