package reg

import "sort"

// validSizes is the closed set of widths a physical register may support.
var validSizes = map[int]bool{8: true, 16: true, 32: true, 64: true}

// BasicRegister names a single physical register on a target: its number,
// the widths it may be addressed at, a textual name per width, an
// optional dedicated address-mode name, and its flag set.
//
// BasicRegister is a value type and is never mutated after construction —
// platform descriptors hand out the same BasicRegister to many Reg values
// and never need to write through one, so plain copy-on-write by value is
// enough; there is no shared mutable state to protect.
type BasicRegister struct {
	number      int
	sizes       []int // ascending, defensively copied at construction
	names       map[int]string
	addressName string
	flags       Flag
}

// NewBasicRegister constructs a BasicRegister. names must have an entry for
// every width in sizes; addressName may be empty when the register has no
// dedicated addressing-mode name distinct from its per-size names.
func NewBasicRegister(number int, sizes []int, names map[int]string, addressName string, flags Flag) (BasicRegister, error) {
	if len(sizes) == 0 {
		return BasicRegister{}, newInvalidRegisterError("NewBasicRegister", "register must support at least one size")
	}
	sorted := make([]int, len(sizes))
	copy(sorted, sizes)
	sort.Ints(sorted)
	nameCopy := make(map[int]string, len(sorted))
	for _, s := range sorted {
		if !validSizes[s] {
			return BasicRegister{}, newInvalidRegisterError("NewBasicRegister", "size must be one of 8,16,32,64")
		}
		name, ok := names[s]
		if !ok || name == "" {
			return BasicRegister{}, newInvalidRegisterError("NewBasicRegister", "missing name for supported size")
		}
		nameCopy[s] = name
	}
	return BasicRegister{
		number:      number,
		sizes:       sorted,
		names:       nameCopy,
		addressName: addressName,
		flags:       flags,
	}, nil
}

// Number returns the register's platform-unique identifier.
func (b BasicRegister) Number() int { return b.number }

// Flags returns the full flag set of the register.
func (b BasicRegister) Flags() Flag { return b.flags }

// HasFlag reports whether every bit of want is set on this register.
func (b BasicRegister) HasFlag(want Flag) bool { return b.flags.Has(want) }

// SupportsSize reports whether the register may be addressed at bits.
func (b BasicRegister) SupportsSize(bits int) bool {
	for _, s := range b.sizes {
		if s == bits {
			return true
		}
	}
	return false
}

// Sizes returns the supported widths, ascending.
func (b BasicRegister) Sizes() []int {
	out := make([]int, len(b.sizes))
	copy(out, b.sizes)
	return out
}

// Name returns the textual name of the register at the given width.
func (b BasicRegister) Name(bits int) (string, error) {
	name, ok := b.names[bits]
	if !ok {
		return "", newInvalidRegisterError("Name", "register does not support requested size")
	}
	return name, nil
}

// AddressName returns the dedicated address-mode name, or the native-width
// name when the register has no separate address-mode spelling.
func (b BasicRegister) AddressName() string {
	if b.addressName != "" {
		return b.addressName
	}
	if len(b.sizes) == 0 {
		return ""
	}
	name, _ := b.Name(b.sizes[len(b.sizes)-1])
	return name
}
