// Package emit implements the Emitter (spec §4.G): it walks a finalised
// instruction buffer and renders it as target assembly text, honouring
// each instruction's scheduling hint. It performs no optimisation of its
// own — every decision about what to emit was already made by the Code
// Generator; this package only decides what order to print it in and
// wraps it in the function's label and (optionally) a frame-size
// comment, the way the teacher's encoder package wraps an encoded
// instruction stream in section/literal-pool bookkeeping.
package emit

import (
	"fmt"
	"io"
	"sort"

	"github.com/gencrypto/gencrypto/isa"
	"github.com/gencrypto/gencrypto/platform"
)

// FunctionImage bundles everything one Write call renders: the
// finalised instruction buffer (body, S-box tables, and all), the
// function's assembly-visible name, and its frame size in bytes (for
// the optional frame comment; informational only — the prologue/epilogue
// instructions that actually carve out the frame are already in Buffer).
type FunctionImage struct {
	Name      string
	FrameSize int
	Buffer    []isa.Instruction
}

// scheduled pairs an instruction with the buffer position the Emitter
// will actually output it at, after ScheduleHint is applied.
type scheduled struct {
	insn     isa.Instruction
	origIdx  int
	outOrder int
}

// order computes the output sequence for buf, honouring each
// instruction's signed ScheduleHint (spec §4.D.7 / §3: "the instruction
// is output this many positions earlier or later than its position in
// the buffer"). Ties — including every instruction with the default
// zero hint — keep program order, via a stable sort on (outOrder,
// origIdx).
func order(buf []isa.Instruction) []isa.Instruction {
	items := make([]scheduled, len(buf))
	for i, insn := range buf {
		items[i] = scheduled{insn: insn, origIdx: i, outOrder: i + int(insn.ScheduleHint)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].outOrder < items[j].outOrder
	})
	out := make([]isa.Instruction, len(items))
	for i, it := range items {
		out[i] = it.insn
	}
	return out
}

// Write renders fn to w for platform p: a function label, an optional
// frame-size comment, the scheduled instruction stream (via p's
// Emission hook, which also renders embedded S-box tables and labels),
// and a closing GNU-as size directive.
func Write(w io.Writer, p *platform.Platform, fn FunctionImage, emitFrameComment bool) error {
	p.Emission.BeginWrite()

	if _, err := fmt.Fprintf(w, "%s:\n", fn.Name); err != nil {
		return err
	}
	if emitFrameComment {
		if _, err := fmt.Fprintf(w, "\t@ frame: %d bytes, target %s\n", fn.FrameSize, p.Name); err != nil {
			return err
		}
	}

	for _, insn := range order(fn.Buffer) {
		if err := p.Emission.WriteInsn(w, insn); err != nil {
			return fmt.Errorf("emit: writing %s: %w", insn.Op, err)
		}
	}

	_, err := fmt.Fprintf(w, "\t.size\t%s, . - %s\n", fn.Name, fn.Name)
	return err
}
