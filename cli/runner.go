// Package cli provides a windowed runner for the emulator: Ebiten
// handles input polling and presentation while the machine runs on a
// dedicated goroutine paced to 50 Hz.
package cli

import (
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/user-none/emst/emu"
	"github.com/user-none/emst/ui"
)

const frameTime = 20 * time.Millisecond

// coarseSleepMargin is how much of the frame budget is left to a
// busy-wait after the coarse sleep, covering scheduler wake-up jitter.
const coarseSleepMargin = 2 * time.Millisecond

// maxFrameSlip clamps how far behind real time the pacer may fall
// before it gives up catching missed frames.
const maxFrameSlip = 100 * time.Millisecond

// Runner wraps the emulator for windowed operation. Input events are
// delivered straight to the core from Ebiten's update thread; the
// frame loop publishes into a shared framebuffer.
type Runner struct {
	emulator *emu.Emulator
	audio    *ui.AudioPlayer

	control  *ui.EmuControl
	shared   *ui.SharedFramebuffer
	emuDone  chan struct{}
	maxSpeed bool

	frameImage *ebiten.Image

	keys               []ebiten.Key
	mouseX, mouseY     int
	mouseSeen          bool
	lastLeft, lastRight bool
}

// NewRunner creates a Runner around the given machine and starts the
// emulation goroutine. Audio initialization failure is non-fatal; the
// runner works without sound.
func NewRunner(e *emu.Emulator, sampleRate int, maxSpeed bool) *Runner {
	player, err := ui.NewAudioPlayer(e, sampleRate, 1.0)
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
	}

	r := &Runner{
		emulator:   e,
		audio:      player,
		control:    ui.NewEmuControl(),
		shared:     ui.NewSharedFramebuffer(),
		emuDone:    make(chan struct{}),
		maxSpeed:   maxSpeed,
		frameImage: ebiten.NewImage(emu.ScreenWidth, emu.ScreenHeight),
	}

	go r.emulationLoop()

	return r
}

// Close stops the emulation goroutine and releases the audio device.
func (r *Runner) Close() {
	r.control.Stop()
	<-r.emuDone

	if r.audio != nil {
		r.audio.Close()
		r.audio = nil
	}
	r.emulator.Close()
}

// emulationLoop runs frames on a dedicated goroutine at 50 Hz. The
// pacer sleeps coarsely while more than a couple of milliseconds
// remain, then busy-waits the rest for a steady cadence.
func (r *Runner) emulationLoop() {
	defer close(r.emuDone)

	next := time.Now()

	for r.control.CheckPause() {
		r.emulator.RunFrame()
		r.shared.Update(r.emulator.GetFramebuffer())

		if r.maxSpeed {
			continue
		}

		next = next.Add(frameTime)
		for {
			remaining := time.Until(next)
			if remaining <= 0 {
				break
			}
			if remaining > coarseSleepMargin {
				time.Sleep(remaining - coarseSleepMargin)
			}
		}
		if time.Since(next) > maxFrameSlip {
			next = time.Now()
		}
	}
}

// Update implements ebiten.Game. It forwards keyboard, mouse and
// joystick events to the keyboard controller.
func (r *Runner) Update() error {
	if !ebiten.IsFocused() {
		r.mouseSeen = false
		return nil
	}

	r.keys = inpututil.AppendJustPressedKeys(r.keys[:0])
	for _, key := range r.keys {
		r.emulator.KeyDown(scancodeFor(key))
	}
	r.keys = inpututil.AppendJustReleasedKeys(r.keys[:0])
	for _, key := range r.keys {
		r.emulator.KeyUp(scancodeFor(key))
	}

	r.pollMouse()
	r.pollJoystick()
	return nil
}

// pollMouse turns cursor position changes into relative motion packets
// and tracks button transitions.
func (r *Runner) pollMouse() {
	x, y := ebiten.CursorPosition()
	if r.mouseSeen {
		dx, dy := x-r.mouseX, y-r.mouseY
		if dx != 0 || dy != 0 {
			r.emulator.MouseMove(dx, dy)
		}
	}
	r.mouseX, r.mouseY = x, y
	r.mouseSeen = true

	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	if left != r.lastLeft || right != r.lastRight {
		r.lastLeft, r.lastRight = left, right
		r.emulator.MouseButtons(left, right)
	}
}

// pollJoystick merges all connected gamepads onto joystick port 1.
func (r *Runner) pollJoystick() {
	var up, down, left, right, fire bool

	for _, id := range ebiten.AppendGamepadIDs(nil) {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}

		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftTop) {
			up = true
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftBottom) {
			down = true
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftLeft) {
			left = true
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftRight) {
			right = true
		}
		if ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightBottom) {
			fire = true
		}

		const deadzone = 0.5
		axisX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
		axisY := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
		if axisX < -deadzone {
			left = true
		}
		if axisX > deadzone {
			right = true
		}
		if axisY < -deadzone {
			up = true
		}
		if axisY > deadzone {
			down = true
		}
	}

	r.emulator.Joystick(up, down, left, right, fire)
}

// Draw implements ebiten.Game. Scanlines are doubled vertically so the
// 640x200 framebuffer fills a square-pixel 640x400 window.
func (r *Runner) Draw(screen *ebiten.Image) {
	r.frameImage.WritePixels(r.shared.Read())

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(1, 2)
	screen.DrawImage(r.frameImage, op)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return emu.ScreenWidth, emu.ScreenHeight * 2
}
