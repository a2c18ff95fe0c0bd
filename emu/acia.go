package emu

import "sync"

// The IKBD serial link runs at 7812.5 baud. With start and stop bits
// that is one byte per 10240 cycles of the 8 MHz system clock.
const aciaCyclesPerByte = 10240

// ACIA status bits.
const (
	aciaRDRF = 0x01 // receive data register full
	aciaTDRE = 0x02 // transmit data register empty
	aciaFE   = 0x10 // framing error
	aciaOVRN = 0x20 // receiver overrun
	aciaIRQ  = 0x80
)

// ACIA models the 6850 between the CPU and the IKBD together with the
// IKBD itself: the serial receive pacing lives here, the command
// parser and event packetizers live in ikbd.go.
//
// The receive path is a queue feeding a single-byte latch. Sync moves
// at most one byte per pacing interval into the latch and stalls
// while the CPU has not read it, so the latch can never be overrun.
//
// One mutex guards all state: the emulation goroutine calls Sync and
// the register accessors, the host UI thread delivers input events.
type ACIA struct {
	mu  sync.Mutex
	mfp *MFP68901

	status  byte
	control byte

	latch           byte
	latched         bool
	rxQueue         []byte
	cyclesUntilNext int

	cmdBuf []byte

	mouseEnabled bool
	joyEnabled   bool
	mouseButtons byte
	hostButtons  byte
	fireDown     bool
	joyState     byte
	sensX        int
	sensY        int
}

// NewACIA creates an ACIA raising received bytes on the given MFP's
// GPIP bit 4.
func NewACIA(mfp *MFP68901) *ACIA {
	a := &ACIA{mfp: mfp, sensX: 2, sensY: 2}
	a.Reset()
	return a
}

// SetMouseSensitivity sets the divisors applied to host mouse motion
// before packetization.
func (a *ACIA) SetMouseSensitivity(x, y int) {
	a.mu.Lock()
	if x < 1 {
		x = 1
	}
	if y < 1 {
		y = 1
	}
	a.sensX = x
	a.sensY = y
	a.mu.Unlock()
}

// Reset performs a full power-on reset of the serial side and the
// IKBD state.
func (a *ACIA) Reset() {
	a.mu.Lock()
	a.masterReset()
	a.cmdBuf = nil
	a.mouseEnabled = false
	a.joyEnabled = false
	a.mouseButtons = 0
	a.hostButtons = 0
	a.fireDown = false
	a.joyState = 0
	a.mu.Unlock()
}

// masterReset clears the serial receive path. Caller holds the lock.
func (a *ACIA) masterReset() {
	a.status = aciaTDRE
	a.latch = 0
	a.latched = false
	a.rxQueue = nil
	a.cyclesUntilNext = 0
	a.mfp.SetGPIPInput(4, true)
}

// ReadStatus returns the ACIA status register.
func (a *ACIA) ReadStatus() byte {
	a.mu.Lock()
	s := a.status
	a.mu.Unlock()
	return s
}

// ReadData returns the latched byte, freeing the latch for the next
// queued byte and releasing the interrupt line.
func (a *ACIA) ReadData() byte {
	a.mu.Lock()
	v := a.latch
	a.latched = false
	a.status &^= aciaRDRF | aciaIRQ | aciaOVRN | aciaFE
	a.mfp.SetGPIPInput(4, true)
	a.mu.Unlock()
	return v
}

// WriteControl writes the control register. Setting both low bits
// performs a master reset.
func (a *ACIA) WriteControl(value byte) {
	a.mu.Lock()
	a.control = value
	if value&0x03 == 0x03 {
		a.masterReset()
	}
	a.mu.Unlock()
}

// Sync advances the receive pacing by the given number of CPU cycles.
// The frame loop calls this once per scanline.
func (a *ACIA) Sync(cpuCycles int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.latched {
		// Back-pressure: the CPU has not consumed the last byte
		return
	}
	if len(a.rxQueue) == 0 {
		a.cyclesUntilNext = 0
		return
	}
	if a.cyclesUntilNext == 0 {
		// A transmission is just starting, charge a full frame
		a.cyclesUntilNext = aciaCyclesPerByte
	}

	a.cyclesUntilNext -= cpuCycles
	if a.cyclesUntilNext <= 0 {
		a.latch = a.rxQueue[0]
		a.rxQueue = a.rxQueue[1:]
		a.latched = true
		a.status |= aciaRDRF | aciaIRQ
		a.mfp.SetGPIPInput(4, false)
		a.cyclesUntilNext = aciaCyclesPerByte
	}
}

// PendingBytes returns the number of queued bytes not yet delivered.
func (a *ACIA) PendingBytes() int {
	a.mu.Lock()
	n := len(a.rxQueue)
	if a.latched {
		n++
	}
	a.mu.Unlock()
	return n
}

// enqueue appends bytes to the IKBD transmit queue. Caller holds the
// lock.
func (a *ACIA) enqueue(bytes ...byte) {
	a.rxQueue = append(a.rxQueue, bytes...)
}
