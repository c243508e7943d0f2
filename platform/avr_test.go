package platform

import (
	"strings"
	"testing"

	"github.com/gencrypto/gencrypto/isa"
	"github.com/gencrypto/gencrypto/reg"
)

func TestAVRLikeRegisterInventory(t *testing.T) {
	p := AVRLike()

	if p.NativeWordSize() != 8 || p.AddressWordSize() != 16 {
		t.Fatalf("unexpected word sizes: native=%d address=%d", p.NativeWordSize(), p.AddressWordSize())
	}
	if !p.Features().Has(FeatureTwoAddress) {
		t.Error("avr-like must declare FeatureTwoAddress")
	}

	z, ok := p.LookupByName("Z")
	if !ok {
		t.Fatal("expected to find the Z pointer register by name")
	}
	if !z.HasFlag(reg.FlagAddressCarrier) {
		t.Error("Z must be an address-carrier register")
	}
	if !z.SupportsSize(16) {
		t.Error("Z must support 16-bit addressing")
	}

	r1, ok := p.LookupByNumber(1)
	if !ok {
		t.Fatal("expected register r1 in the inventory")
	}
	if !r1.HasFlag(reg.FlagNonAllocatable) {
		t.Error("r1 (fixed zero) must be non-allocatable")
	}
}

func TestAVRLikeAllocationOrderPutsArgsBeforeCalleeSaved(t *testing.T) {
	p := AVRLike()
	regs := p.Registers()

	var sawArg, sawCalleeSaved bool
	for _, r := range regs {
		if r.HasFlag(reg.FlagCalleeSaved) {
			sawCalleeSaved = true
		}
		if !r.HasFlag(reg.FlagCalleeSaved) && r.HasFlag(reg.FlagTemporary) && r.HasFlag(reg.FlagData) && !r.HasFlag(reg.FlagAddressCarrier) {
			sawArg = true
			if sawCalleeSaved {
				t.Fatal("argument/temporary registers must be allocated before callee-saved registers")
			}
		}
	}
	if !sawArg {
		t.Fatal("expected at least one temporary/data register in the allocation order")
	}
}

func TestAVRLikeBinaryRequiresTwoAddress(t *testing.T) {
	p := AVRLike()
	r18, _ := p.LookupByNumber(18)
	r19, _ := p.LookupByNumber(19)
	d18, _ := reg.NewSizedRegister(r18, 8)
	d19, _ := reg.NewSizedRegister(r19, 8)

	if _, err := p.Binary(isa.OpAdd, d18, d19, d18, false); err == nil {
		t.Error("expected error: dest != src1 on a strictly two-address platform")
	}
	insns, err := p.Binary(isa.OpAdd, d18, d18, d19, false)
	if err != nil {
		t.Fatalf("Binary: %v", err)
	}
	if len(insns) != 1 || insns[0].Op != isa.OpAdd {
		t.Fatalf("unexpected lowering: %+v", insns)
	}
}

func TestAVREmissionIsDeterministic(t *testing.T) {
	p := AVRLike()
	r18, _ := p.LookupByNumber(18)
	d18, _ := reg.NewSizedRegister(r18, 8)
	insn := isa.Instruction{Op: isa.OpMoveImmediate}.WithDest(d18).WithImmediate(0x2a)

	var b1, b2 strings.Builder
	p.BeginWrite()
	if err := p.WriteInsn(&b1, insn); err != nil {
		t.Fatalf("WriteInsn: %v", err)
	}
	p.BeginWrite()
	if err := p.WriteInsn(&b2, insn); err != nil {
		t.Fatalf("WriteInsn: %v", err)
	}
	if b1.String() != b2.String() {
		t.Fatalf("emission is not deterministic: %q != %q", b1.String(), b2.String())
	}
	if !strings.Contains(b1.String(), "0x2a") {
		t.Errorf("expected immediate in emitted text, got %q", b1.String())
	}
}
