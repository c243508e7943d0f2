package codegen

import (
	"fmt"

	"github.com/gencrypto/gencrypto/isa"
	"github.com/gencrypto/gencrypto/reg"
)

// sboxReservation tracks the fixed pointer register (and optional
// lookup scratch) an active SBoxSetup call has staked out, so
// SBoxCleanup knows what to release.
type sboxReservation struct {
	pointer reg.SizedRegister
	scratch *reg.SizedRegister
}

// SBoxAdd embeds a read-only byte table, to be emitted after the
// function body, and returns its index for later SBoxSetup calls. A
// function may contain multiple tables (spec §4.D.6).
func (g *Generator) SBoxAdd(name string, bytes []byte) (int, error) {
	if g.state == stateFinalised {
		return 0, NewFinalisedError("SBoxAdd")
	}
	idx := g.nextSBoxIndex
	g.nextSBoxIndex++
	cp := make([]byte, len(bytes))
	copy(cp, bytes)
	if name == "" {
		name = fmt.Sprintf("sbox%d", idx)
	}
	g.sboxes = append(g.sboxes, &isa.SBoxTable{Index: idx, Name: name, Bytes: cp})
	return idx, nil
}

// SBoxSetup stakes an address-carrier register to the base of table
// index and returns that pointer.
func (g *Generator) SBoxSetup(index int) (reg.SizedRegister, error) {
	if err := g.requireBody("SBoxSetup"); err != nil {
		return reg.SizedRegister{}, err
	}
	if index < 0 || index >= len(g.sboxes) {
		return reg.SizedRegister{}, NewArgumentError("SBoxSetup: unknown table index")
	}
	ptr, err := g.AllocateAddress(reg.FlagAddressCarrier)
	if err != nil {
		return reg.SizedRegister{}, err
	}
	insn := isa.Instruction{Op: isa.OpLoadEA}.WithDest(ptr).WithLabel(uint64(index))
	g.emit(insn)

	// Split-register-class platforms (e.g. avr-like) get their lookup
	// scratch from the ordinary Temporary() path at the call site, not
	// from a dedicated field here — SBoxLookup's dst operand already
	// serves that role.
	g.sboxReservations = append(g.sboxReservations, sboxReservation{pointer: ptr})
	return ptr, nil
}

// SBoxLookup emits a byte-indexed load from the active table: dst =
// table[src].
func (g *Generator) SBoxLookup(dst reg.SizedRegister, ptr reg.SizedRegister, src reg.SizedRegister) error {
	if err := g.requireBody("SBoxLookup"); err != nil {
		return err
	}
	insn := isa.Instruction{Op: isa.OpLoadIndexed}.WithDest(dst).WithSrc1(ptr).WithSrc2(src)
	g.emit(insn)
	return nil
}

// SBoxLookupOffset emits a byte-indexed load with a fixed additional
// offset into the active table, for pre-offset sub-tables.
func (g *Generator) SBoxLookupOffset(dst, ptr, src reg.SizedRegister, offset int) error {
	if err := g.requireBody("SBoxLookupOffset"); err != nil {
		return err
	}
	insn := isa.Instruction{Op: isa.OpLoadIndexed}.WithDest(dst).WithSrc1(ptr).WithSrc2(src).WithImmediate(uint64(offset))
	g.emit(insn)
	return nil
}

// SBoxLookupIndexed emits the same byte-indexed load as SBoxLookup,
// dst = table[index], for round-indexed constant lookups where the
// round counter selects the table entry directly.
func (g *Generator) SBoxLookupIndexed(dst, ptr, index reg.SizedRegister) error {
	if err := g.requireBody("SBoxLookupIndexed"); err != nil {
		return err
	}
	insn := isa.Instruction{Op: isa.OpLoadIndexed}.WithDest(dst).WithSrc1(ptr).WithSrc2(index)
	g.emit(insn)
	return nil
}

// SBoxCleanup releases the most recently staked table-pointer
// reservation.
func (g *Generator) SBoxCleanup() error {
	if err := g.requireBody("SBoxCleanup"); err != nil {
		return err
	}
	if len(g.sboxReservations) == 0 {
		return NewArgumentError("SBoxCleanup: no active table reservation")
	}
	last := g.sboxReservations[len(g.sboxReservations)-1]
	g.sboxReservations = g.sboxReservations[:len(g.sboxReservations)-1]
	delete(g.allocated, last.pointer.Base.Number())
	if last.scratch != nil {
		delete(g.allocated, last.scratch.Base.Number())
	}
	return nil
}
