// Package interp implements the bytecode interpreter (spec §4.F): it
// simulates an emitted instruction buffer over a byte-addressable memory
// image and a physical register file, and is the sole mechanism by which
// test vectors are validated. It never emits assembly text and never
// mutates a Platform; it only reads Platform facts (word sizes,
// endianness) to give memory operations and argument placement the right
// shape.
package interp

import (
	"github.com/gencrypto/gencrypto/isa"
	"github.com/gencrypto/gencrypto/platform"
	"github.com/gencrypto/gencrypto/reg"
)

// Flags mirrors the condition-code word spec §4.F describes: zero,
// negative, carry, overflow.
type Flags struct {
	Z, N, C, V bool
}

// Machine is the simulated target: a register file, a flat memory image,
// a program counter indexing into the instruction buffer, and the
// current flags. It is single-use, built fresh per interpreted function
// (spec §5: every mutable datum here is owned by one in-flight
// operation).
type Machine struct {
	p *platform.Platform

	regs map[int]uint64
	mem  []byte

	pc    int
	flags Flags

	buffer   []isa.Instruction
	labelPos map[int]int
	sboxBase map[int]uint64

	callStack []int

	maxInstructions uint64
	executed        uint64

	trace    []string
	traceMax int
}

// returnAddrSize is the byte footprint Finalize's OpLoadArg offsets
// assume a pushed return address occupies above a function's own frame
// (spec §6: "argument slot at offset above the return address"). This
// interpreter never actually pushes one — OpCall/OpReturn are modelled
// with an internal Go-level call stack instead — but argument-offset
// arithmetic must still agree with the Code Generator's accounting, so
// LoadArg reserves the same number of bytes a real push would have used.
func returnAddrSize(p *platform.Platform) int {
	return p.AddressWordSize() / 8
}

// New builds a Machine for buffer over platform p, with memBytes of
// simulated data memory and an instruction-count ceiling (spec §5:
// "bounded by instruction count per function"). initialSP is the stack
// pointer value installed before execution begins; it is the caller's
// responsibility (normally a driver in drivers.go) to leave enough room
// below it for the frame Finalize's prologue will carve out.
func New(p *platform.Platform, buffer []isa.Instruction, memBytes int, initialSP uint64, maxInstructions uint64, traceMax int) *Machine {
	m := &Machine{
		p:               p,
		regs:            make(map[int]uint64),
		mem:             make([]byte, memBytes),
		buffer:          buffer,
		labelPos:        make(map[int]int),
		sboxBase:        make(map[int]uint64),
		maxInstructions: maxInstructions,
		traceMax:        traceMax,
	}
	for i, insn := range buffer {
		if insn.Op == isa.OpLabel {
			m.labelPos[int(insn.Immediate)] = i
		}
	}
	m.layoutSBoxes()
	m.SetRegRaw(p.StackPointer().Number(), initialSP)
	return m
}

// layoutSBoxes appends every OpSBoxTable payload to the tail of the
// memory image (mirroring the Emitter's "S-box tables after the body"
// placement) and records each table's base address so OpLoadEA/indexed
// loads can resolve it.
func (m *Machine) layoutSBoxes() {
	base := uint64(len(m.mem))
	var extra []byte
	for _, insn := range m.buffer {
		if insn.Op != isa.OpSBoxTable || insn.SBox == nil {
			continue
		}
		m.sboxBase[insn.SBox.Index] = base + uint64(len(extra))
		extra = append(extra, insn.SBox.Bytes...)
	}
	if len(extra) > 0 {
		m.mem = append(m.mem, extra...)
	}
}

func widthMask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

// GetReg reads the low sr.Size bits of the named physical register.
func (m *Machine) GetReg(sr reg.SizedRegister) uint64 {
	return m.regs[sr.Base.Number()] & widthMask(sr.Size)
}

// SetReg writes value into the low sr.Size bits of the named physical
// register, preserving any higher bits already stored there (so a
// split-width register, such as the AVR pointer pairs modelled as one
// physical register supporting both 8 and 16 bits, behaves like a real
// register alias rather than an independent storage cell per width).
func (m *Machine) SetReg(sr reg.SizedRegister, value uint64) {
	mask := widthMask(sr.Size)
	m.regs[sr.Base.Number()] = (m.regs[sr.Base.Number()] &^ mask) | (value & mask)
}

// SetRegRaw writes value into register number at its full width, used by
// drivers to install argument and stack-pointer values before a run.
func (m *Machine) SetRegRaw(number int, value uint64) {
	m.regs[number] = value
}

// GetRegRaw reads the full-width stored value of register number.
func (m *Machine) GetRegRaw(number int) uint64 {
	return m.regs[number]
}

func (m *Machine) bigEndian() bool {
	return m.p.Features().Has(platform.FeatureBigEndian)
}

// ReadMem reads a width-bit value at byte address addr, honouring the
// Platform's endianness.
func (m *Machine) ReadMem(addr uint64, width int) (uint64, error) {
	n := width / 8
	if addr > uint64(len(m.mem)) || addr+uint64(n) > uint64(len(m.mem)) {
		return 0, &MemoryError{Op: "read", Address: addr, Width: width, Size: len(m.mem)}
	}
	b := m.mem[addr : addr+uint64(n)]
	var v uint64
	if m.bigEndian() {
		for i := 0; i < n; i++ {
			v = (v << 8) | uint64(b[i])
		}
	} else {
		for i := n - 1; i >= 0; i-- {
			v = (v << 8) | uint64(b[i])
		}
	}
	return v, nil
}

// WriteMem writes the low width bits of value at byte address addr,
// honouring the Platform's endianness.
func (m *Machine) WriteMem(addr uint64, width int, value uint64) error {
	n := width / 8
	if addr > uint64(len(m.mem)) || addr+uint64(n) > uint64(len(m.mem)) {
		return &MemoryError{Op: "write", Address: addr, Width: width, Size: len(m.mem)}
	}
	b := m.mem[addr : addr+uint64(n)]
	if m.bigEndian() {
		for i := n - 1; i >= 0; i-- {
			b[i] = byte(value)
			value >>= 8
		}
	} else {
		for i := 0; i < n; i++ {
			b[i] = byte(value)
			value >>= 8
		}
	}
	return nil
}

// ReadBytes copies n bytes out of the memory image starting at addr, for
// drivers copying a primitive's output buffer back to the caller.
func (m *Machine) ReadBytes(addr uint64, n int) ([]byte, error) {
	if addr > uint64(len(m.mem)) || addr+uint64(n) > uint64(len(m.mem)) {
		return nil, &MemoryError{Op: "read-bytes", Address: addr, Width: n * 8, Size: len(m.mem)}
	}
	out := make([]byte, n)
	copy(out, m.mem[addr:addr+uint64(n)])
	return out, nil
}

// WriteBytes copies data into the memory image starting at addr, for
// drivers installing a primitive's input state/key/schedule.
func (m *Machine) WriteBytes(addr uint64, data []byte) error {
	if addr > uint64(len(m.mem)) || addr+uint64(len(data)) > uint64(len(m.mem)) {
		return &MemoryError{Op: "write-bytes", Address: addr, Width: len(data) * 8, Size: len(m.mem)}
	}
	copy(m.mem[addr:addr+uint64(len(data))], data)
	return nil
}

// Trace returns the bounded trace buffer accumulated during Run, printed
// by callers only on mismatch (spec §7's user-visible "hex diff on
// mismatch", SPEC_FULL.md's ambient-stack trace-buffer note).
func (m *Machine) Trace() []string {
	out := make([]string, len(m.trace))
	copy(out, m.trace)
	return out
}

func (m *Machine) recordTrace(line string) {
	if m.traceMax <= 0 {
		return
	}
	if len(m.trace) >= m.traceMax {
		m.trace = m.trace[1:]
	}
	m.trace = append(m.trace, line)
}
