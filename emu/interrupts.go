package emu

import (
	"github.com/user-none/go-chip-m68k"
)

// Autovector numbers for the two GLUE-generated video interrupts.
const (
	vectorHBL = 26 // autovector level 2
	vectorVBL = 28 // autovector level 4
)

// InterruptArbiter merges the three ST interrupt sources onto the
// CPU's IPL lines. The ST wires HBL to level 2, VBL to level 4 and the
// MFP to level 6; whichever is pending with the highest level wins.
//
// The arbiter pushes the effective level into the CPU on every state
// transition and supplies the vector during the interrupt acknowledge
// cycle. Acknowledging a source clears it and re-arms the arbiter with
// the next highest pending source.
type InterruptArbiter struct {
	cpu *m68k.CPU
	mfp *MFP68901

	hbl     bool
	vbl     bool
	mfpLine bool
}

// NewInterruptArbiter creates an arbiter for the given CPU and MFP.
func NewInterruptArbiter(cpu *m68k.CPU, mfp *MFP68901) *InterruptArbiter {
	return &InterruptArbiter{cpu: cpu, mfp: mfp}
}

// RaiseHBL marks a horizontal blank interrupt pending.
func (ia *InterruptArbiter) RaiseHBL() {
	ia.hbl = true
	ia.update()
}

// RaiseVBL marks a vertical blank interrupt pending.
func (ia *InterruptArbiter) RaiseVBL() {
	ia.vbl = true
	ia.update()
}

// SetMFPLine follows the MFP's IRQ output. The MFP calls this whenever
// its masked pending state changes.
func (ia *InterruptArbiter) SetMFPLine(asserted bool) {
	if ia.mfpLine == asserted {
		return
	}
	ia.mfpLine = asserted
	ia.update()
}

// Reset clears all pending sources and deasserts the CPU IPL lines.
func (ia *InterruptArbiter) Reset() {
	ia.hbl = false
	ia.vbl = false
	ia.mfpLine = false
	ia.cpu.RequestInterrupt(0, nil)
}

// Level returns the effective interrupt level currently presented to
// the CPU.
func (ia *InterruptArbiter) Level() int {
	switch {
	case ia.mfpLine:
		return 6
	case ia.vbl:
		return 4
	case ia.hbl:
		return 2
	}
	return 0
}

func (ia *InterruptArbiter) update() {
	level := ia.Level()
	if level == 0 {
		ia.cpu.RequestInterrupt(0, nil)
		return
	}

	ia.cpu.RequestInterrupt(level, func() uint8 {
		var vec uint8
		switch level {
		case 6:
			vec = ia.mfp.Acknowledge()
		case 4:
			ia.vbl = false
			vec = vectorVBL
		case 2:
			ia.hbl = false
			vec = vectorHBL
		}
		ia.update()
		return vec
	})
}
