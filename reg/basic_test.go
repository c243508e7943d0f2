package reg

import "testing"

func TestNewBasicRegisterRejectsUnsupportedSize(t *testing.T) {
	if _, err := NewBasicRegister(0, []int{24}, map[int]string{24: "bad"}, "", FlagData); err == nil {
		t.Error("expected error for unsupported size 24")
	}
}

func TestNewBasicRegisterRejectsMissingName(t *testing.T) {
	if _, err := NewBasicRegister(0, []int{8, 16}, map[int]string{8: "r0"}, "", FlagData); err == nil {
		t.Error("expected error for missing name at size 16")
	}
}

func TestBasicRegisterFlagsAndNames(t *testing.T) {
	b, err := NewBasicRegister(2, []int{8, 16}, map[int]string{8: "r2l", 16: "r2"}, "R2", FlagData|FlagCalleeSaved)
	if err != nil {
		t.Fatalf("NewBasicRegister: %v", err)
	}
	if !b.HasFlag(FlagData) || !b.HasFlag(FlagCalleeSaved) {
		t.Error("expected both FlagData and FlagCalleeSaved set")
	}
	if b.HasFlag(FlagTemporary) {
		t.Error("did not expect FlagTemporary")
	}
	name, err := b.Name(8)
	if err != nil || name != "r2l" {
		t.Errorf("Name(8) = %q, %v; want r2l, nil", name, err)
	}
	if b.AddressName() != "R2" {
		t.Errorf("AddressName() = %q; want R2", b.AddressName())
	}
	if !b.SupportsSize(16) || b.SupportsSize(32) {
		t.Error("SupportsSize mismatch")
	}
}
