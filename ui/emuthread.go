package ui

import (
	"sync"
	"time"

	"github.com/user-none/emst/emu"
)

// SharedFramebuffer holds pixel data written by the emulation
// goroutine and read by Ebiten's Draw method. Separate write and read
// buffers let the emulation goroutine publish a new frame while Draw
// still uses the previous snapshot.
type SharedFramebuffer struct {
	mu          sync.Mutex
	writePixels []byte
	readPixels  []byte
	fresh       bool
}

// NewSharedFramebuffer creates a pre-allocated framebuffer pair.
func NewSharedFramebuffer() *SharedFramebuffer {
	size := emu.ScreenWidth * emu.ScreenHeight * 4
	return &SharedFramebuffer{
		writePixels: make([]byte, size),
		readPixels:  make([]byte, size),
	}
}

// Update publishes a completed frame from the emulation goroutine.
func (sf *SharedFramebuffer) Update(pixels []byte) {
	sf.mu.Lock()
	copy(sf.writePixels, pixels)
	sf.fresh = true
	sf.mu.Unlock()
}

// Read returns a snapshot of the latest published frame. The returned
// slice is only touched by the caller until the next Read, so it is
// safe to use without holding the lock.
func (sf *SharedFramebuffer) Read() []byte {
	sf.mu.Lock()
	if sf.fresh {
		copy(sf.readPixels, sf.writePixels)
		sf.fresh = false
	}
	pixels := sf.readPixels
	sf.mu.Unlock()
	return pixels
}

// EmuControl coordinates pause and shutdown between the Ebiten thread
// and the emulation goroutine.
type EmuControl struct {
	mu       sync.Mutex
	pauseReq bool
	running  bool
}

// NewEmuControl creates a control in the running state.
func NewEmuControl() *EmuControl {
	return &EmuControl{running: true}
}

// SetPaused requests or releases a pause.
func (ec *EmuControl) SetPaused(paused bool) {
	ec.mu.Lock()
	ec.pauseReq = paused
	ec.mu.Unlock()
}

// Stop signals the emulation goroutine to exit.
func (ec *EmuControl) Stop() {
	ec.mu.Lock()
	ec.running = false
	ec.mu.Unlock()
}

// CheckPause is called by the emulation goroutine between frames. It
// blocks while paused and returns false when the goroutine should
// exit.
func (ec *EmuControl) CheckPause() bool {
	for {
		ec.mu.Lock()
		running, paused := ec.running, ec.pauseReq
		ec.mu.Unlock()

		if !running {
			return false
		}
		if !paused {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
}
