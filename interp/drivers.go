package interp

import (
	"github.com/gencrypto/gencrypto/config"
	"github.com/gencrypto/gencrypto/isa"
	"github.com/gencrypto/gencrypto/platform"
	"github.com/gencrypto/gencrypto/reg"
)

// RunOptions bundles the interpreter-bounding knobs config.Config carries
// (spec §4.F / §7), so a driver call site reads as "run this with these
// limits" rather than threading four separate numbers through.
type RunOptions struct {
	MemoryBytes     int
	StackBytes      int
	MaxInstructions uint64
	TraceMax        int
}

// RunOptionsFromConfig adapts a loaded config.Config into RunOptions.
func RunOptionsFromConfig(c *config.Config) RunOptions {
	return RunOptions{
		MemoryBytes:     c.Interpreter.MemoryBytes,
		StackBytes:      c.Interpreter.StackBytes,
		MaxInstructions: c.Interpreter.MaxInstructions,
		TraceMax:        c.Trace.MaxEntries,
	}
}

// newDriverMachine builds a Machine with its data memory image grown to
// hold the stack region plus imageBytes of driver-placed input/output,
// and the stack pointer parked at the top of the reserved stack area.
// Drivers place their state/key/schedule images starting at byte 0 of
// the region above the stack (opts.StackBytes), so a function's own
// frame and the driver's buffers never overlap.
func newDriverMachine(p *platform.Platform, buffer []isa.Instruction, opts RunOptions, imageBytes int) *Machine {
	total := opts.StackBytes + imageBytes
	if total < opts.MemoryBytes {
		total = opts.MemoryBytes
	}
	return New(p, buffer, total, uint64(opts.StackBytes), opts.MaxInstructions, opts.TraceMax)
}

// installPointer writes addr into the single limb backing an
// ArgPointer()-declared Reg.
func installPointer(m *Machine, ptr reg.Reg, addr uint64) {
	m.SetReg(ptr.Limbs()[0], addr)
}

// installImmediate writes value into the single limb backing a
// small-width declared Reg (TinyJAMBU's outer-iteration counter).
func installImmediate(m *Machine, r reg.Reg, value uint64) {
	m.SetReg(r.Limbs()[0], value)
}

// ExecPermutation runs a function built with Generator.Permutation: it
// places state at a fresh address above the reserved stack region,
// installs that address into statePtr's backing register, and runs to
// completion. The caller reads the permuted state back out of the
// returned Machine with m.ReadBytes(uint64(opts.StackBytes), len(state)).
func ExecPermutation(p *platform.Platform, buffer []isa.Instruction, opts RunOptions, statePtr reg.Reg, state []byte) (*Machine, error) {
	addr := uint64(opts.StackBytes)
	m := newDriverMachine(p, buffer, opts, len(state))
	if err := m.WriteBytes(addr, state); err != nil {
		return nil, err
	}
	installPointer(m, statePtr, addr)
	if err := m.Run(); err != nil {
		return nil, err
	}
	return m, nil
}

// ExecPermutationWithCount runs a function built with
// Generator.PermutationWithCount, additionally installing an 8-bit outer
// iteration count into count's backing register (TinyJAMBU's calling
// convention).
func ExecPermutationWithCount(p *platform.Platform, buffer []isa.Instruction, opts RunOptions, statePtr, count reg.Reg, state []byte, iterations uint8) (*Machine, error) {
	addr := uint64(opts.StackBytes)
	m := newDriverMachine(p, buffer, opts, len(state))
	if err := m.WriteBytes(addr, state); err != nil {
		return nil, err
	}
	installPointer(m, statePtr, addr)
	installImmediate(m, count, uint64(iterations))
	if err := m.Run(); err != nil {
		return nil, err
	}
	return m, nil
}

// ExecSetupKey runs a function built with Generator.SetupKey: it installs
// key at a fresh address and reserves scheduleBytes of space immediately
// after it for the generator to populate. The caller reads the produced
// schedule back out of the returned Machine with
// m.ReadBytes(keyAddr+len(key), scheduleBytes).
func ExecSetupKey(p *platform.Platform, buffer []isa.Instruction, opts RunOptions, keyPtr, schedulePtr reg.Reg, key []byte, scheduleBytes int) (*Machine, error) {
	keyAddr := uint64(opts.StackBytes)
	scheduleAddr := keyAddr + uint64(len(key))
	m := newDriverMachine(p, buffer, opts, len(key)+scheduleBytes)
	if err := m.WriteBytes(keyAddr, key); err != nil {
		return nil, err
	}
	installPointer(m, keyPtr, keyAddr)
	installPointer(m, schedulePtr, scheduleAddr)
	if err := m.Run(); err != nil {
		return nil, err
	}
	return m, nil
}

// ExecEncryptBlock runs a function built with Generator.EncryptBlock: it
// installs schedule and input at consecutive addresses and reserves
// blockBytes of space after them for the output block. The caller reads
// the produced ciphertext back out of the returned Machine with
// m.ReadBytes(outputAddr, blockBytes), where outputAddr follows
// immediately after schedule and input.
func ExecEncryptBlock(p *platform.Platform, buffer []isa.Instruction, opts RunOptions, schedulePtr, inputPtr, outputPtr reg.Reg, schedule, input []byte, blockBytes int) (*Machine, error) {
	scheduleAddr := uint64(opts.StackBytes)
	inputAddr := scheduleAddr + uint64(len(schedule))
	outputAddr := inputAddr + uint64(len(input))
	m := newDriverMachine(p, buffer, opts, len(schedule)+len(input)+blockBytes)
	if err := m.WriteBytes(scheduleAddr, schedule); err != nil {
		return nil, err
	}
	if err := m.WriteBytes(inputAddr, input); err != nil {
		return nil, err
	}
	installPointer(m, schedulePtr, scheduleAddr)
	installPointer(m, inputPtr, inputAddr)
	installPointer(m, outputPtr, outputAddr)
	if err := m.Run(); err != nil {
		return nil, err
	}
	return m, nil
}

// ExecMaskedPermutation runs a function built with
// Generator.MaskedPermutation: it installs the masked state and the
// preserved-randomness buffer at consecutive addresses, runs to
// completion, and returns the Machine for the caller to read both back
// out of (spec §6's "preserved randomness carried out-of-band in a
// second buffer").
func ExecMaskedPermutation(p *platform.Platform, buffer []isa.Instruction, opts RunOptions, statePtr, randPtr reg.Reg, state, rnd []byte) (*Machine, error) {
	stateAddr := uint64(opts.StackBytes)
	randAddr := stateAddr + uint64(len(state))
	m := newDriverMachine(p, buffer, opts, len(state)+len(rnd))
	if err := m.WriteBytes(stateAddr, state); err != nil {
		return nil, err
	}
	if err := m.WriteBytes(randAddr, rnd); err != nil {
		return nil, err
	}
	installPointer(m, statePtr, stateAddr)
	installPointer(m, randPtr, randAddr)
	if err := m.Run(); err != nil {
		return nil, err
	}
	return m, nil
}
