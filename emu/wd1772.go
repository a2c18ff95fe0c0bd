package emu

// FDC status bits. Bits 1, 2 and 4 change meaning between type I and
// type II/III commands.
const (
	fdcBusy           = 0x01
	fdcIndex          = 0x02 // type I
	fdcDRQ            = 0x02 // type II/III
	fdcTrack0         = 0x04 // type I
	fdcLostData       = 0x04 // type II/III
	fdcCRCError       = 0x08
	fdcSeekError      = 0x10 // type I
	fdcRecordNotFound = 0x10 // type II/III
	fdcSpinUp         = 0x20 // type I
	fdcWriteProtect   = 0x40
	fdcMotorOn        = 0x80
)

// DMA mode word bits.
const (
	dmaModeA0          = 0x0002
	dmaModeA1          = 0x0004
	dmaModeHDC         = 0x0008
	dmaModeSectorCount = 0x0010
	dmaModeWrite       = 0x0100
)

// WD1772 couples the floppy disk controller to the ST's DMA circuit.
// All FDC registers are reached through a single word port at
// 0xFF8604, demultiplexed by the DMA mode word. Command execution is
// modeled as instantaneous: a command write performs the whole
// transfer before returning and only the completion interrupt is
// visible to the CPU.
type WD1772 struct {
	bus *STBus
	mfp *MFP68901

	command byte
	track   byte
	sector  byte
	data    byte
	status  byte

	dmaMode     uint16
	sectorCount byte
	dmaAddr     uint32
	dmaError    bool
	drq         bool

	drive     int // -1 when no drive selected
	side      int
	headTrack int
	stepDir   int

	disks [2]*FloppyImage
}

// NewWD1772 creates a controller raising its completion line on the
// given MFP's GPIP bit 5.
func NewWD1772(mfp *MFP68901) *WD1772 {
	w := &WD1772{mfp: mfp}
	w.Reset()
	return w
}

// SetBus attaches the system bus used for DMA transfers. Called after
// bus creation due to the circular construction dependency.
func (w *WD1772) SetBus(bus *STBus) {
	w.bus = bus
}

// Reset returns the controller to its power-on state. Inserted disks
// stay inserted.
func (w *WD1772) Reset() {
	w.command = 0
	w.track = 0
	w.sector = 1
	w.data = 0
	w.status = 0
	w.dmaMode = 0
	w.sectorCount = 0
	w.dmaAddr = 0
	w.dmaError = false
	w.drq = false
	w.drive = -1
	w.side = 0
	w.headTrack = 0
	w.stepDir = 1
}

// InsertDisk loads an image into a drive, replacing any previous one.
func (w *WD1772) InsertDisk(drive int, img *FloppyImage) {
	if drive >= 0 && drive < len(w.disks) {
		w.disks[drive] = img
	}
}

// EjectDisk removes and returns the image in a drive.
func (w *WD1772) EjectDisk(drive int) *FloppyImage {
	if drive < 0 || drive >= len(w.disks) {
		return nil
	}
	img := w.disks[drive]
	w.disks[drive] = nil
	return img
}

// Disk returns the image currently in a drive, or nil.
func (w *WD1772) Disk(drive int) *FloppyImage {
	if drive < 0 || drive >= len(w.disks) {
		return nil
	}
	return w.disks[drive]
}

// SelectDrive follows the PSG port A drive and side select lines.
func (w *WD1772) SelectDrive(drive, side int) {
	w.drive = drive
	w.side = side
}

// currentDisk returns the image in the selected drive, or nil.
func (w *WD1772) currentDisk() *FloppyImage {
	if w.drive < 0 || w.drive >= len(w.disks) {
		return nil
	}
	return w.disks[w.drive]
}

// WriteDMAMode sets the DMA mode word. A direction change clears the
// sector counter and any latched DMA error.
func (w *WD1772) WriteDMAMode(value uint16) {
	if value&dmaModeWrite != w.dmaMode&dmaModeWrite {
		w.sectorCount = 0
		w.dmaError = false
	}
	w.dmaMode = value
}

// ReadDMAStatus returns the 3-bit DMA status word.
func (w *WD1772) ReadDMAStatus() uint16 {
	var s uint16
	if !w.dmaError {
		s |= 0x01
	}
	if w.sectorCount != 0 {
		s |= 0x02
	}
	if w.drq {
		s |= 0x04
	}
	return s
}

// DMAAddressByte returns byte i of the DMA address, 0 being the least
// significant.
func (w *WD1772) DMAAddressByte(i int) byte {
	return byte(w.dmaAddr >> (8 * i))
}

// SetDMAAddressByte stores byte i of the DMA address. Bit 0 of the
// low byte is wired low on the ST.
func (w *WD1772) SetDMAAddressByte(i int, value byte) {
	if i == 0 {
		value &^= 0x01
	}
	shift := uint(8 * i)
	w.dmaAddr = w.dmaAddr&^(0xFF<<shift) | uint32(value)<<shift
	w.dmaAddr &= 0xFFFFFF
}

// ReadSelected reads the register currently addressed by the DMA mode
// word from port 0xFF8604.
func (w *WD1772) ReadSelected() uint16 {
	if w.dmaMode&dmaModeSectorCount != 0 {
		return uint16(w.sectorCount)
	}
	if w.dmaMode&dmaModeHDC != 0 {
		// No hard disk controller attached
		return 0xFF
	}
	switch w.dmaMode & (dmaModeA1 | dmaModeA0) {
	case 0:
		// Status read releases the completion interrupt
		w.mfp.SetGPIPInput(5, true)
		return uint16(w.status)
	case dmaModeA0:
		return uint16(w.track)
	case dmaModeA1:
		return uint16(w.sector)
	default:
		return uint16(w.data)
	}
}

// WriteSelected writes the register currently addressed by the DMA
// mode word through port 0xFF8604.
func (w *WD1772) WriteSelected(value uint16) {
	if w.dmaMode&dmaModeSectorCount != 0 {
		w.sectorCount = byte(value)
		return
	}
	if w.dmaMode&dmaModeHDC != 0 {
		return
	}
	switch w.dmaMode & (dmaModeA1 | dmaModeA0) {
	case 0:
		w.execute(byte(value))
	case dmaModeA0:
		w.track = byte(value)
	case dmaModeA1:
		w.sector = byte(value)
	default:
		w.data = byte(value)
	}
}

// execute decodes and runs a command. Every command except FORCE
// INTERRUPT ends by pulsing the completion line.
func (w *WD1772) execute(cmd byte) {
	w.command = cmd

	switch cmd >> 4 {
	case 0x0: // RESTORE
		w.headTrack = 0
		w.track = 0
		w.stepDir = -1
		w.finishTypeI()
	case 0x1: // SEEK
		w.seekTo(int(w.data))
		w.track = byte(w.headTrack)
		w.finishTypeI()
	case 0x2, 0x3: // STEP
		w.step(w.stepDir, cmd&0x10 != 0)
	case 0x4, 0x5: // STEP-IN
		w.step(1, cmd&0x10 != 0)
	case 0x6, 0x7: // STEP-OUT
		w.step(-1, cmd&0x10 != 0)
	case 0x8: // READ SECTOR
		w.readSectors(false)
	case 0x9: // READ SECTOR multi
		w.readSectors(true)
	case 0xA: // WRITE SECTOR
		w.writeSectors(false)
	case 0xB: // WRITE SECTOR multi
		w.writeSectors(true)
	case 0xC: // READ ADDRESS
		w.readAddress()
	case 0xD: // FORCE INTERRUPT
		w.status &^= fdcBusy
		w.mfp.SetGPIPInput(5, true)
	case 0xE: // READ TRACK
		w.readTrack()
	case 0xF: // WRITE TRACK
		w.writeTrack()
	}
}

// seekTo moves the head, clamping to the disk's track range.
func (w *WD1772) seekTo(track int) {
	if track < 0 {
		track = 0
	}
	if disk := w.currentDisk(); disk != nil {
		_, tracks, _, _ := disk.Geometry()
		if track >= tracks {
			track = tracks - 1
		}
	}
	w.headTrack = track
}

func (w *WD1772) step(dir int, updateTrack bool) {
	w.stepDir = dir
	w.seekTo(w.headTrack + dir)
	if updateTrack {
		w.track = byte(w.headTrack)
	}
	w.finishTypeI()
}

// finishTypeI builds the type I status byte and raises completion.
func (w *WD1772) finishTypeI() {
	s := byte(fdcMotorOn | fdcSpinUp)
	if w.headTrack == 0 {
		s |= fdcTrack0
	}
	if disk := w.currentDisk(); disk != nil {
		s |= fdcIndex
		if disk.WriteProtected() {
			s |= fdcWriteProtect
		}
	}
	w.status = s
	w.complete()
}

// complete pulses the FDC interrupt line low on the MFP's GPIP5.
func (w *WD1772) complete() {
	w.mfp.SetGPIPInput(5, false)
}

// lba computes the linear block address of the current head position
// and sector register. A sector number outside 1..sectors per track
// does not exist on the track and yields -1, which the image rejects.
func (w *WD1772) lba(disk *FloppyImage) int {
	sides, _, spt, _ := disk.Geometry()
	if w.sector < 1 || int(w.sector) > spt {
		return -1
	}
	return (w.headTrack*sides+w.side)*spt + int(w.sector) - 1
}

func (w *WD1772) readSectors(multi bool) {
	disk := w.currentDisk()
	if disk == nil {
		w.status = fdcMotorOn | fdcRecordNotFound
		w.complete()
		return
	}

	n := 1
	if multi {
		n = int(w.sectorCount)
	}

	_, _, spt, _ := disk.Geometry()
	var buf [bytesPerSector]byte
	w.status = fdcMotorOn

	for i := 0; i < n; i++ {
		if !disk.ReadLBA(w.lba(disk), buf[:]) {
			w.status |= fdcRecordNotFound
			w.dmaError = true
			break
		}
		for j := 0; j < bytesPerSector; j++ {
			w.bus.Write8(w.dmaAddr, buf[j])
			w.dmaAddr = (w.dmaAddr + 1) & 0xFFFFFF
		}
		if w.sectorCount > 0 {
			w.sectorCount--
		}
		if multi {
			w.sector++
			if int(w.sector) > spt {
				w.sector = 1
			}
		}
	}

	w.complete()
}

func (w *WD1772) writeSectors(multi bool) {
	disk := w.currentDisk()
	if disk == nil {
		w.status = fdcMotorOn | fdcRecordNotFound
		w.complete()
		return
	}
	if disk.WriteProtected() {
		w.status = fdcMotorOn | fdcWriteProtect
		w.complete()
		return
	}

	n := 1
	if multi {
		n = int(w.sectorCount)
	}

	_, _, spt, _ := disk.Geometry()
	var buf [bytesPerSector]byte
	w.status = fdcMotorOn

	for i := 0; i < n; i++ {
		for j := 0; j < bytesPerSector; j++ {
			buf[j] = byte(w.bus.Read8(w.dmaAddr))
			w.dmaAddr = (w.dmaAddr + 1) & 0xFFFFFF
		}
		if !disk.WriteLBA(w.lba(disk), buf[:]) {
			w.status |= fdcRecordNotFound
			w.dmaError = true
			break
		}
		if w.sectorCount > 0 {
			w.sectorCount--
		}
		if multi {
			w.sector++
			if int(w.sector) > spt {
				w.sector = 1
			}
		}
	}

	w.complete()
}

// readAddress transfers a synthetic 6-byte ID field for the next
// sector under the head.
func (w *WD1772) readAddress() {
	id := [6]byte{
		byte(w.headTrack),
		byte(w.side),
		w.sector,
		2, // size code: 512 bytes
		0,
		0,
	}
	for _, b := range id {
		w.bus.Write8(w.dmaAddr, b)
		w.dmaAddr = (w.dmaAddr + 1) & 0xFFFFFF
	}
	w.status = fdcMotorOn
	w.complete()
}

// readTrack transfers the whole current track. Real hardware delivers
// gap and ID bytes too; this model delivers the sector payloads only.
func (w *WD1772) readTrack() {
	disk := w.currentDisk()
	if disk == nil {
		w.status = fdcMotorOn | fdcRecordNotFound
		w.complete()
		return
	}

	sides, _, spt, _ := disk.Geometry()
	start := (w.headTrack*sides + w.side) * spt
	var buf [bytesPerSector]byte
	w.status = fdcMotorOn

	for s := 0; s < spt; s++ {
		if !disk.ReadLBA(start+s, buf[:]) {
			w.status |= fdcRecordNotFound
			w.dmaError = true
			break
		}
		for j := 0; j < bytesPerSector; j++ {
			w.bus.Write8(w.dmaAddr, buf[j])
			w.dmaAddr = (w.dmaAddr + 1) & 0xFFFFFF
		}
	}

	w.complete()
}

// writeTrack accepts the command for compatibility but does not
// format: the sector layout of the image is fixed.
func (w *WD1772) writeTrack() {
	disk := w.currentDisk()
	switch {
	case disk == nil:
		w.status = fdcMotorOn | fdcRecordNotFound
	case disk.WriteProtected():
		w.status = fdcMotorOn | fdcWriteProtect
	default:
		w.status = fdcMotorOn
	}
	w.complete()
}
