package emu

// The YM2149 runs its tone, noise and envelope units from the 8 MHz
// system clock divided by 32, a 250 kHz internal tick.
const (
	ymClockDivider = 32
	ymChipRate     = cpuClockHz / ymClockDivider
)

// ymRegMask holds the implemented bits of each register. Unimplemented
// bits read back as zero.
var ymRegMask = [16]byte{
	0xFF, 0x0F, 0xFF, 0x0F, 0xFF, 0x0F, 0x1F, 0xFF,
	0x1F, 0x1F, 0x1F, 0xFF, 0xFF, 0x0F, 0xFF, 0xFF,
}

// YM2149 emulates the ST's programmable sound generator: three square
// wave channels, a shared noise generator and a shared envelope, mixed
// to a mono stream resampled to the host rate.
//
// Port A of the chip doubles as the floppy drive and side select
// lines, forwarded through the driveSelect callback.
type YM2149 struct {
	regs     [16]byte
	selected byte

	toneCnt [3]int
	toneOut [3]byte

	noiseCnt int
	noiseOut byte
	rng      uint32 // 17-bit LFSR

	envCnt int
	envPos int

	cycleFrac uint64

	resampleAcc uint32
	ratio       uint32
	xPrev       float32
	yPrev       float32

	ring     *audioRing
	hostRate int

	driveSelect func(drive, side int)
}

// NewYM2149 creates a PSG resampling to the given host sample rate.
func NewYM2149(hostRate int) *YM2149 {
	y := &YM2149{
		ring:     newAudioRing(hostRate / 4),
		hostRate: hostRate,
		ratio:    uint32(uint64(ymChipRate) << 16 / uint64(hostRate)),
	}
	y.Reset()
	return y
}

// SetDriveSelectHandler registers the callback receiving port A drive
// and side select changes. drive is -1 when no drive is selected.
func (y *YM2149) SetDriveSelectHandler(fn func(drive, side int)) {
	y.driveSelect = fn
}

// Reset returns the chip to its power-on state. Queued audio is
// dropped.
func (y *YM2149) Reset() {
	y.regs = [16]byte{}
	// All tone and noise channels disabled at power-on
	y.regs[7] = 0xFF
	y.selected = 0
	y.toneCnt = [3]int{}
	y.toneOut = [3]byte{}
	y.noiseCnt = 0
	y.noiseOut = 0
	y.rng = 1
	y.envCnt = 0
	y.envPos = 0
	y.cycleFrac = 0
	y.resampleAcc = 0
	y.xPrev = 0
	y.yPrev = 0
	y.ring.Reset()
}

// SelectRegister latches the register number for subsequent data
// accesses.
func (y *YM2149) SelectRegister(value byte) {
	y.selected = value
}

// ReadSelected returns the currently selected register's value.
func (y *YM2149) ReadSelected() byte {
	if y.selected&0xF0 != 0 {
		return 0xFF
	}
	return y.regs[y.selected]
}

// WriteData writes the data register. Writing the envelope shape
// restarts the envelope. Port A writes forward the floppy select
// lines.
func (y *YM2149) WriteData(value byte) {
	if y.selected&0xF0 != 0 {
		return
	}
	reg := y.selected
	y.regs[reg] = value & ymRegMask[reg]

	switch reg {
	case 13:
		y.envPos = 0
		y.envCnt = 0
	case 14:
		y.forwardDriveSelect()
	}
}

// forwardDriveSelect decodes port A: bit 0 is the side select (low
// selects side 1), bits 1 and 2 are active-low drive selects.
func (y *YM2149) forwardDriveSelect() {
	if y.driveSelect == nil {
		return
	}
	porta := y.regs[14]

	drive := -1
	if porta&0x02 == 0 {
		drive = 0
	} else if porta&0x04 == 0 {
		drive = 1
	}

	side := 0
	if porta&0x01 == 0 {
		side = 1
	}

	y.driveSelect(drive, side)
}

// Sync advances the sound generators by the given number of 8 MHz CPU
// cycles.
func (y *YM2149) Sync(cpuCycles uint64) {
	y.cycleFrac += cpuCycles
	for y.cycleFrac >= ymClockDivider {
		y.cycleFrac -= ymClockDivider
		y.tick()
	}
}

// tick advances one 250 kHz chip cycle and feeds the resampler.
func (y *YM2149) tick() {
	for ch := 0; ch < 3; ch++ {
		period := int(y.regs[ch*2]) | int(y.regs[ch*2+1])<<8
		if period == 0 {
			period = 1
		}
		y.toneCnt[ch]++
		if y.toneCnt[ch] >= period {
			y.toneCnt[ch] = 0
			y.toneOut[ch] ^= 1
		}
	}

	noisePeriod := int(y.regs[6])
	if noisePeriod == 0 {
		noisePeriod = 1
	}
	// The noise generator is clocked at half the tone rate
	noisePeriod *= 2
	y.noiseCnt++
	if y.noiseCnt >= noisePeriod {
		y.noiseCnt = 0
		y.noiseOut = byte(y.rng & 1)
		if y.rng&1 != 0 {
			y.rng = y.rng>>1 ^ 0x12000
		} else {
			y.rng >>= 1
		}
	}

	envPeriod := int(y.regs[11]) | int(y.regs[12])<<8
	if envPeriod == 0 {
		envPeriod = 1
	}
	y.envCnt++
	if y.envCnt >= envPeriod {
		y.envCnt = 0
		y.envPos++
		if y.envPos >= 96 {
			y.envPos = 64
		}
	}

	y.resample(y.mix())
}

// mix combines the three channels through the enable register and the
// DAC into one normalized sample.
func (y *YM2149) mix() float32 {
	mixer := y.regs[7]
	var sum float32

	for ch := 0; ch < 3; ch++ {
		// Enable bits are active low
		toneOn := mixer&(1<<ch) == 0
		noiseOn := mixer&(1<<(ch+3)) == 0

		high := (!toneOn || y.toneOut[ch] != 0) &&
			(!noiseOn || y.noiseOut != 0)
		if !high {
			continue
		}

		var level byte
		if y.regs[8+ch]&0x10 != 0 {
			level = ymEnvelopeShapes[y.regs[13]][y.envPos]
		} else {
			level = vol4to5(y.regs[8+ch])
		}
		sum += float32(ymVolumeTable[level])
	}

	return sum / (65535 * 3.5)
}

// resample steps the 16.16 fixed point rate converter and pushes any
// due host samples through the DC filter into the ring.
func (y *YM2149) resample(sample float32) {
	y.resampleAcc += 1 << 16
	for y.resampleAcc >= y.ratio {
		y.resampleAcc -= y.ratio

		// One-pole high-pass removes the DC offset of the unsigned DAC
		out := sample - y.xPrev + 0.995*y.yPrev
		y.xPrev = sample
		y.yPrev = out
		y.ring.Push(out)
	}
}

// ReadAudio fills out with queued host-rate samples, repeating the
// last sample on underrun. Safe to call from the audio callback while
// the emulation goroutine is producing.
func (y *YM2149) ReadAudio(out []float32) int {
	return y.ring.Read(out)
}

// BufferedSamples returns the number of samples queued for the host.
func (y *YM2149) BufferedSamples() int {
	return y.ring.Len()
}
