package emu

import (
	"log"

	"github.com/user-none/go-chip-m68k"
)

// BusFault records a faulting access to a restricted I/O region. The
// frame loop turns it into a group-0 bus error exception at the next
// batch boundary.
type BusFault struct {
	Addr uint32
	Read bool
}

// STBus implements m68k.Bus with the full ST memory map.
//
// Address map (M68K view, 24-bit):
//
//	0x000000-0x000007  ROM mirror (reset SSP/PC vectors)
//	0x000008-ramSize   RAM
//	0xE00000-0xE3FFFF  TOS ROM (256KB images)
//	0xFC0000-0xFEFFFF  TOS ROM (192KB images)
//	0xFF8001           MMU memory configuration
//	0xFF8201/0xFF8203  video base high/mid
//	0xFF8205-0xFF8209  video address counter (read-only)
//	0xFF820A           sync mode
//	0xFF8240-0xFF825F  palette registers (16 words)
//	0xFF8260           shifter resolution
//	0xFF8604-0xFF860D  WD1772 FDC / DMA controller
//	0xFF8800/0xFF8802  YM2149 select/data
//	0xFF8900-0xFF8924  STE DMA sound (not present, bus error)
//	0xFF8A00-0xFF8A3C  blitter (not present, bus error)
//	0xFF9200-0xFF9222  STE joystick ports (not present, bus error)
//	0xFFFA01-0xFFFA25  MFP68901 (odd addresses)
//	0xFFFC00/0xFFFC02  keyboard ACIA status-control/data
//	0xFFFC04/0xFFFC06  MIDI ACIA (stubbed, always ready)
//
// Everything else reads as all-ones and ignores writes.
type STBus struct {
	ram     []byte
	rom     []byte
	romBase uint32

	mfp  *MFP68901
	psg  *YM2149
	fdc  *WD1772
	acia *ACIA

	mmuConfig    byte
	videoBaseHi  byte
	videoBaseMid byte
	videoCounter uint32
	syncMode     byte
	palette      [16]uint16
	resolution   byte

	pendingFault *BusFault
	debug        bool
}

// NewSTBus creates a new STBus with the given RAM size, TOS ROM and
// attached devices. The TOS image placement is derived from its size:
// 192KB images sit at 0xFC0000, 256KB images at 0xE00000.
func NewSTBus(ramSize int, rom []byte, mfp *MFP68901, psg *YM2149, fdc *WD1772, acia *ACIA) *STBus {
	base := uint32(0xFC0000)
	if len(rom) == 0x40000 {
		base = 0xE00000
	}

	return &STBus{
		ram:     make([]byte, ramSize),
		rom:     rom,
		romBase: base,
		mfp:     mfp,
		psg:     psg,
		fdc:     fdc,
		acia:    acia,
	}
}

// SetDebug enables warning output for ignored ROM writes and
// guarded-skip bus errors.
func (b *STBus) SetDebug(debug bool) {
	b.debug = debug
}

// ROMBase returns the address the TOS image is mapped at.
func (b *STBus) ROMBase() uint32 {
	return b.romBase
}

// VideoBase returns the frame start address latched in the video base
// registers. The low byte is always zero on an STF.
func (b *STBus) VideoBase() uint32 {
	return uint32(b.videoBaseHi)<<16 | uint32(b.videoBaseMid)<<8
}

// SetVideoCounter updates the video address counter exposed through
// 0xFF8205/07/09. The frame loop writes it back once per scanline.
func (b *STBus) SetVideoCounter(addr uint32) {
	b.videoCounter = addr & 0xFFFFFF
}

// Resolution returns the shifter resolution register (0=low, 1=medium).
func (b *STBus) Resolution() byte {
	return b.resolution
}

// TakePendingFault returns the oldest unserviced bus fault and clears
// it, or nil when no fault is pending.
func (b *STBus) TakePendingFault() *BusFault {
	f := b.pendingFault
	b.pendingFault = nil
	return f
}

func (b *STBus) scheduleFault(addr uint32, read bool) {
	if b.pendingFault == nil {
		b.pendingFault = &BusFault{Addr: addr, Read: read}
	}
}

// Read implements m68k.Bus.
func (b *STBus) Read(s m68k.Size, addr uint32) uint32 {
	return b.ReadCycle(0, s, addr)
}

// ReadCycle implements m68k.CycleBus.
func (b *STBus) ReadCycle(cycle uint64, s m68k.Size, addr uint32) uint32 {
	addr &= 0xFFFFFF // 24-bit address bus

	switch s {
	case m68k.Byte:
		return b.Read8(addr)
	case m68k.Word:
		return b.Read16(addr)
	case m68k.Long:
		return b.Read32(addr)
	}
	return 0
}

// Write implements m68k.Bus.
func (b *STBus) Write(s m68k.Size, addr uint32, value uint32) {
	b.WriteCycle(0, s, addr, value)
}

// WriteCycle implements m68k.CycleBus.
func (b *STBus) WriteCycle(cycle uint64, s m68k.Size, addr uint32, value uint32) {
	addr &= 0xFFFFFF // 24-bit address bus

	switch s {
	case m68k.Byte:
		b.Write8(addr, byte(value))
	case m68k.Word:
		b.Write16(addr, uint16(value))
	case m68k.Long:
		b.Write32(addr, value)
	}
}

// Reset clears RAM and the latched video and shifter state.
// Implements m68k.Bus.
func (b *STBus) Reset() {
	for i := range b.ram {
		b.ram[i] = 0
	}
	b.mmuConfig = 0
	b.videoBaseHi = 0
	b.videoBaseMid = 0
	b.videoCounter = 0
	b.syncMode = 0
	b.resolution = 0
	b.palette = [16]uint16{}
	b.pendingFault = nil
}

// Read32 reads a big-endian long as two word accesses.
func (b *STBus) Read32(addr uint32) uint32 {
	hi := b.Read16(addr)
	lo := b.Read16((addr + 2) & 0xFFFFFF)
	return hi<<16 | lo
}

// Read16 reads a big-endian word. FDC and DMA registers are
// word-granular and handled here; everything else decomposes onto
// byte reads.
func (b *STBus) Read16(addr uint32) uint32 {
	switch addr {
	case 0xFF8604:
		return uint32(b.fdc.ReadSelected())
	case 0xFF8606:
		return uint32(b.fdc.ReadDMAStatus())
	}
	hi := b.Read8(addr)
	lo := b.Read8((addr + 1) & 0xFFFFFF)
	return hi<<8 | lo
}

// Read8 reads a single byte and is the bottom of the read decode.
func (b *STBus) Read8(addr uint32) uint32 {
	switch {
	case addr < 8:
		// Reset vectors always come from ROM
		return uint32(b.romByte(addr))
	case addr < uint32(len(b.ram)):
		return uint32(b.ram[addr])
	case addr >= b.romBase && addr < b.romBase+uint32(len(b.rom)):
		return uint32(b.rom[addr-b.romBase])
	case addr >= 0xFF8000:
		return b.readIO(addr)
	}
	return 0xFF
}

// Write32 writes a big-endian long as two word accesses.
func (b *STBus) Write32(addr uint32, value uint32) {
	b.Write16(addr, uint16(value>>16))
	b.Write16((addr+2)&0xFFFFFF, uint16(value))
}

// Write16 writes a big-endian word. FDC and DMA registers are
// word-granular and handled here; everything else decomposes onto
// byte writes.
func (b *STBus) Write16(addr uint32, value uint16) {
	switch addr {
	case 0xFF8604:
		b.fdc.WriteSelected(value)
		return
	case 0xFF8606:
		b.fdc.WriteDMAMode(value)
		return
	}
	b.Write8(addr, byte(value>>8))
	b.Write8((addr+1)&0xFFFFFF, byte(value))
}

// Write8 writes a single byte and is the bottom of the write decode.
func (b *STBus) Write8(addr uint32, value byte) {
	switch {
	case addr < uint32(len(b.ram)):
		b.ram[addr] = value
	case addr >= b.romBase && addr < b.romBase+uint32(len(b.rom)):
		if b.debug {
			log.Printf("ignoring write to ROM at %06X", addr)
		}
	case addr >= 0xFF8000:
		b.writeIO(addr, value)
	}
}

// romByte returns a ROM byte by offset, zero when past the image end.
func (b *STBus) romByte(offset uint32) byte {
	if offset < uint32(len(b.rom)) {
		return b.rom[offset]
	}
	return 0
}

func (b *STBus) readIO(addr uint32) uint32 {
	switch {
	case addr == 0xFF8001:
		return uint32(b.mmuConfig)
	case addr == 0xFF8201:
		return uint32(b.videoBaseHi)
	case addr == 0xFF8203:
		return uint32(b.videoBaseMid)
	case addr == 0xFF8205:
		return (b.videoCounter >> 16) & 0xFF
	case addr == 0xFF8207:
		return (b.videoCounter >> 8) & 0xFF
	case addr == 0xFF8209:
		return b.videoCounter & 0xFF
	case addr == 0xFF820A:
		return uint32(b.syncMode)
	case addr >= 0xFF8240 && addr <= 0xFF825F:
		w := b.palette[(addr-0xFF8240)>>1]
		if addr&1 == 0 {
			return uint32(w >> 8)
		}
		return uint32(w & 0xFF)
	case addr == 0xFF8260:
		return uint32(b.resolution)
	case addr >= 0xFF8604 && addr <= 0xFF8607:
		// Byte view of the word-granular FDC registers
		var w uint32
		if addr < 0xFF8606 {
			w = uint32(b.fdc.ReadSelected())
		} else {
			w = uint32(b.fdc.ReadDMAStatus())
		}
		if addr&1 == 0 {
			return w >> 8
		}
		return w & 0xFF
	case addr == 0xFF8609:
		return uint32(b.fdc.DMAAddressByte(2))
	case addr == 0xFF860B:
		return uint32(b.fdc.DMAAddressByte(1))
	case addr == 0xFF860D:
		return uint32(b.fdc.DMAAddressByte(0))
	case addr == 0xFF8800:
		return uint32(b.psg.ReadSelected())
	case addr >= 0xFF8900 && addr <= 0xFF8924,
		addr >= 0xFF8A00 && addr <= 0xFF8A3C,
		addr >= 0xFF9200 && addr <= 0xFF9222:
		// STE DMA sound, blitter and STE joysticks do not exist on an
		// STF. Accessing them raises a bus error.
		b.scheduleFault(addr, true)
		return 0xFF
	case addr >= 0xFFFA01 && addr <= 0xFFFA25 && addr&1 == 1:
		return uint32(b.mfp.ReadRegister(addr))
	case addr == 0xFFFC00:
		return uint32(b.acia.ReadStatus())
	case addr == 0xFFFC02:
		return uint32(b.acia.ReadData())
	case addr == 0xFFFC04:
		// MIDI ACIA stub: transmit always empty, nothing received
		return 0x02
	case addr == 0xFFFC06:
		return 0
	}
	return 0xFF
}

func (b *STBus) writeIO(addr uint32, value byte) {
	switch {
	case addr == 0xFF8001:
		// Stored and read back, never resizes RAM
		b.mmuConfig = value
	case addr == 0xFF8201:
		b.videoBaseHi = value
	case addr == 0xFF8203:
		b.videoBaseMid = value
	case addr >= 0xFF8205 && addr <= 0xFF8209:
		// Video counter is read-only on an STF
	case addr == 0xFF820A:
		b.syncMode = value
	case addr >= 0xFF8240 && addr <= 0xFF825F:
		i := (addr - 0xFF8240) >> 1
		w := b.palette[i]
		if addr&1 == 0 {
			w = uint16(value)<<8 | w&0x00FF
		} else {
			w = w&0xFF00 | uint16(value)
		}
		b.palette[i] = w & 0x0777
	case addr == 0xFF8260:
		b.resolution = value & 0x03
	case addr >= 0xFF8604 && addr <= 0xFF8607:
		// Byte view of the word-granular FDC registers
		if addr&1 == 1 {
			if addr < 0xFF8606 {
				b.fdc.WriteSelected(uint16(value))
			} else {
				b.fdc.WriteDMAMode(uint16(value))
			}
		}
	case addr == 0xFF8609:
		b.fdc.SetDMAAddressByte(2, value)
	case addr == 0xFF860B:
		b.fdc.SetDMAAddressByte(1, value)
	case addr == 0xFF860D:
		b.fdc.SetDMAAddressByte(0, value)
	case addr == 0xFF8800:
		b.psg.SelectRegister(value)
	case addr == 0xFF8802:
		b.psg.WriteData(value)
	case addr >= 0xFF8900 && addr <= 0xFF8924,
		addr >= 0xFF8A00 && addr <= 0xFF8A3C,
		addr >= 0xFF9200 && addr <= 0xFF9222:
		b.scheduleFault(addr, false)
	case addr >= 0xFFFA01 && addr <= 0xFFFA25 && addr&1 == 1:
		b.mfp.WriteRegister(addr, value)
	case addr == 0xFFFC00:
		b.acia.WriteControl(value)
	case addr == 0xFFFC02:
		b.acia.WriteData(value)
	case addr == 0xFFFC04, addr == 0xFFFC06:
		// MIDI ACIA stub, writes discarded
	}
}
