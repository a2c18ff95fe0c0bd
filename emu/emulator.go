package emu

import (
	"fmt"
	"log"

	"github.com/user-none/go-chip-m68k"
)

// Master clock and PAL frame layout. A frame is 313 scanlines of 512
// CPU cycles each; the visible 200 lines start after the top border.
const (
	cpuClockHz = 8000000

	cyclesPerLine    = 512
	linesPerFrame    = 313
	firstVisibleLine = 63
)

const framesPerSecond = 50

// Emulator owns every chip of the machine and drives them one frame
// at a time. The UI thread talks to it only through the input
// delegates and the framebuffer accessor.
type Emulator struct {
	cpu     *m68k.CPU
	bus     *STBus
	mfp     *MFP68901
	arbiter *InterruptArbiter
	psg     *YM2149
	fdc     *WD1772
	acia    *ACIA
	shifter *VideoShifter

	debug bool
}

// NewEmulator wires the machine around a TOS image. ramSize selects
// the installed memory and sampleRate the host audio rate.
func NewEmulator(rom []byte, ramSize, sampleRate int) (*Emulator, error) {
	if len(rom) == 0 {
		return nil, fmt.Errorf("empty TOS image")
	}

	mfp := NewMFP68901()
	psg := NewYM2149(sampleRate)
	fdc := NewWD1772(mfp)
	acia := NewACIA(mfp)

	bus := NewSTBus(ramSize, rom, mfp, psg, fdc, acia)
	fdc.SetBus(bus)
	psg.SetDriveSelectHandler(fdc.SelectDrive)

	cpu := m68k.New(bus)

	arbiter := NewInterruptArbiter(cpu, mfp)
	mfp.SetIRQHandler(arbiter.SetMFPLine)

	return &Emulator{
		cpu:     cpu,
		bus:     bus,
		mfp:     mfp,
		arbiter: arbiter,
		psg:     psg,
		fdc:     fdc,
		acia:    acia,
		shifter: NewVideoShifter(bus),
	}, nil
}

// SetDebug enables diagnostic logging across the machine.
func (e *Emulator) SetDebug(enabled bool) {
	e.debug = enabled
	e.bus.SetDebug(enabled)
}

// Reset performs a warm reset: every device returns to power-on state
// and the CPU refetches its reset vectors from the ROM.
func (e *Emulator) Reset() {
	e.mfp.Reset()
	e.psg.Reset()
	e.fdc.Reset()
	e.acia.Reset()
	e.arbiter.Reset()
	e.bus.Reset()

	regs := e.cpu.Registers()
	regs.SSP = e.bus.Read32(0)
	regs.A[7] = regs.SSP
	regs.PC = e.bus.Read32(4)
	regs.SR = 0x2700
	e.cpu.SetState(regs)
}

// RunFrame executes one 313-line PAL frame.
func (e *Emulator) RunFrame() {
	videoCounter := e.bus.VideoBase()

	for line := 0; line < linesPerFrame; line++ {
		e.runCPU(448)
		e.psg.Sync(448)
		e.mfp.Sync(448)

		e.runCPU(64)
		e.psg.Sync(64)
		e.mfp.Sync(64)

		e.arbiter.RaiseHBL()
		e.acia.Sync(cyclesPerLine)

		if line >= firstVisibleLine && line < firstVisibleLine+ScreenHeight {
			e.bus.SetVideoCounter(videoCounter)
			if err := e.shifter.BlitLine(videoCounter, line-firstVisibleLine); err != nil && e.debug {
				log.Printf("shifter: %v", err)
			}
			videoCounter = (videoCounter + 160) & 0xFFFFFF
			e.mfp.EventCountA()
			e.mfp.EventCountB()
		}
	}

	e.arbiter.RaiseVBL()
}

// runCPU executes instructions until the cycle budget is spent. A
// device access that touched an unpopulated region raises a bus error
// exception between instructions.
func (e *Emulator) runCPU(budget int) {
	for budget > 0 {
		consumed := e.cpu.StepCycles(budget)
		if consumed == 0 {
			break
		}
		budget -= consumed

		if fault := e.bus.TakePendingFault(); fault != nil {
			e.commitBusError(fault)
		}
	}
}

// commitBusError pushes a group 0 exception frame and enters the bus
// error handler. A zero vector means the OS has not installed one yet,
// in which case the access is silently dropped.
func (e *Emulator) commitBusError(fault *BusFault) {
	handler := e.bus.Read32(8)
	if handler == 0 {
		if e.debug {
			log.Printf("bus error at %06X with no handler installed", fault.Addr)
		}
		return
	}

	regs := e.cpu.Registers()
	oldSR := regs.SR

	if regs.SR&0x2000 == 0 {
		regs.USP = regs.A[7]
		regs.SR |= 0x2000
		regs.A[7] = regs.SSP
	}

	// Group 0 frame: access info word, fault address, instruction
	// register, status register, program counter.
	access := uint16(0x0005)
	if fault.Read {
		access |= 0x0010
	}

	sp := regs.A[7] - 14
	e.bus.Write16(sp, access)
	e.bus.Write32(sp+2, fault.Addr)
	e.bus.Write16(sp+6, regs.IR)
	e.bus.Write16(sp+8, oldSR)
	e.bus.Write32(sp+10, regs.PC)

	regs.A[7] = sp
	regs.SSP = sp
	regs.PC = handler
	e.cpu.SetState(regs)
}

// GetFramebuffer returns raw RGBA pixel data for the current frame.
func (e *Emulator) GetFramebuffer() []byte {
	return e.shifter.Framebuffer()
}

// GetFramebufferStride returns the bytes per framebuffer row.
func (e *Emulator) GetFramebufferStride() int {
	return e.shifter.Stride()
}

// ReadAudio fills out with mono samples and returns the count written.
func (e *Emulator) ReadAudio(out []float32) int {
	return e.psg.ReadAudio(out)
}

// InsertFloppy loads a disk image into the given drive.
func (e *Emulator) InsertFloppy(drive int, path string) error {
	img, err := LoadFloppyImage(path)
	if err != nil {
		return err
	}
	e.fdc.InsertDisk(drive, img)
	return nil
}

// EjectFloppy removes the disk from the given drive, flushing unsaved
// writes first.
func (e *Emulator) EjectFloppy(drive int) error {
	img := e.fdc.Disk(drive)
	if img == nil {
		return nil
	}
	err := img.Save()
	e.fdc.EjectDisk(drive)
	return err
}

// SaveDisks flushes modified disk images back to their files.
func (e *Emulator) SaveDisks() error {
	for drive := 0; drive < 2; drive++ {
		if img := e.fdc.Disk(drive); img != nil {
			if err := img.Save(); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetMouseSensitivity forwards host mouse scaling to the keyboard
// controller.
func (e *Emulator) SetMouseSensitivity(x, y int) {
	e.acia.SetMouseSensitivity(x, y)
}

// KeyDown forwards a key press to the keyboard controller.
func (e *Emulator) KeyDown(scancode byte) {
	e.acia.KeyDown(scancode)
}

// KeyUp forwards a key release to the keyboard controller.
func (e *Emulator) KeyUp(scancode byte) {
	e.acia.KeyUp(scancode)
}

// MouseMove forwards relative host mouse motion.
func (e *Emulator) MouseMove(dx, dy int) {
	e.acia.MouseMove(dx, dy)
}

// MouseButtons forwards host mouse button state.
func (e *Emulator) MouseButtons(left, right bool) {
	e.acia.MouseButtons(left, right)
}

// Joystick forwards host joystick state for port 1.
func (e *Emulator) Joystick(up, down, left, right, fire bool) {
	e.acia.Joystick(up, down, left, right, fire)
}

// Close flushes disk images. The emulator holds no other external
// resources.
func (e *Emulator) Close() {
	if err := e.SaveDisks(); err != nil {
		log.Printf("flushing disk images: %v", err)
	}
}
