package emu

// ikbdCommandLength maps a command byte to its total length including
// the command byte itself. Commands absent from the table are unknown
// and discard the assembly buffer.
var ikbdCommandLength = map[byte]int{
	0x07: 2, // set mouse button action
	0x08: 1, // relative mouse
	0x09: 5, // absolute mouse
	0x0A: 3, // keycode mouse
	0x0B: 3, // set mouse threshold
	0x0C: 3, // set mouse scale
	0x0D: 1, // interrogate mouse position
	0x0E: 7, // load mouse position
	0x0F: 1, // set Y at bottom
	0x10: 1, // set Y at top
	0x11: 1, // resume
	0x12: 1, // disable mouse
	0x13: 1, // pause output
	0x14: 1, // joystick auto-report
	0x15: 1, // joystick interrogation mode
	0x16: 1, // interrogate joystick
	0x17: 2, // joystick monitoring
	0x18: 1, // fire button monitoring
	0x19: 7, // joystick keycode mode
	0x1A: 1, // disable joysticks
	0x1B: 7, // set clock
	0x1C: 1, // interrogate clock
	0x80: 2, // reset
}

// WriteData feeds one command byte from the CPU to the IKBD. Complete
// commands execute immediately; an unknown leading byte is dropped
// without disturbing later commands.
func (a *ACIA) WriteData(value byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cmdBuf = append(a.cmdBuf, value)

	length, known := ikbdCommandLength[a.cmdBuf[0]]
	if !known {
		a.cmdBuf = a.cmdBuf[:0]
		return
	}
	if len(a.cmdBuf) < length {
		return
	}

	a.runCommand()
	a.cmdBuf = a.cmdBuf[:0]
}

// runCommand executes a fully assembled command. Caller holds the
// lock.
func (a *ACIA) runCommand() {
	switch a.cmdBuf[0] {
	case 0x08:
		a.mouseEnabled = true
	case 0x09, 0x0A:
		// Absolute and keycode modes suppress relative packets
		a.mouseEnabled = false
	case 0x12:
		a.mouseEnabled = false
	case 0x14:
		a.joyEnabled = true
		a.enqueue(0xFF, a.joyState)
	case 0x15:
		a.joyEnabled = false
	case 0x16:
		a.enqueue(0xFD, 0, a.joyState)
	case 0x1A:
		a.joyEnabled = false
	case 0x1C:
		// No battery clock fitted, all fields zero
		a.enqueue(0xFC, 0, 0, 0, 0, 0, 0)
	case 0x80:
		if a.cmdBuf[1] == 0x01 {
			a.enqueue(0xF0, 0xF1)
			a.mouseEnabled = true
			a.joyEnabled = true
		}
	}
	// Everything else in the length table is accepted and ignored
}

// KeyDown queues the make code for an ST scancode.
func (a *ACIA) KeyDown(scancode byte) {
	if scancode == 0 {
		return
	}
	a.mu.Lock()
	a.enqueue(scancode)
	a.mu.Unlock()
}

// KeyUp queues the break code for an ST scancode.
func (a *ACIA) KeyUp(scancode byte) {
	if scancode == 0 {
		return
	}
	a.mu.Lock()
	a.enqueue(scancode | 0x80)
	a.mu.Unlock()
}

// MouseMove queues a relative motion packet for host movement
// (dx, dy), scaled by the configured sensitivity divisors.
func (a *ACIA) MouseMove(dx, dy int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.mouseEnabled {
		return
	}

	dx = clampMouse(dx / a.sensX)
	dy = clampMouse(dy / a.sensY)
	if dx == 0 && dy == 0 {
		return
	}

	a.enqueue(0xF8|a.mouseButtons, byte(dx), byte(dy))
}

func clampMouse(v int) int {
	if v > 127 {
		return 127
	}
	if v < -127 {
		return -127
	}
	return v
}

// MouseButtons updates the host mouse button state. A change queues a
// motionless packet carrying the new buttons.
func (a *ACIA) MouseButtons(left, right bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.hostButtons = 0
	if left {
		a.hostButtons |= 0x02
	}
	if right {
		a.hostButtons |= 0x01
	}
	a.updateButtons()
}

// Joystick updates the host joystick state. Fire is mirrored onto the
// right mouse button, which many titles poll instead of the joystick
// port.
func (a *ACIA) Joystick(up, down, left, right, fire bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var s byte
	if up {
		s |= 0x01
	}
	if down {
		s |= 0x02
	}
	if left {
		s |= 0x04
	}
	if right {
		s |= 0x08
	}
	if fire {
		s |= 0x80
	}

	a.fireDown = fire
	a.updateButtons()

	if s != a.joyState {
		a.joyState = s
		if a.joyEnabled {
			a.enqueue(0xFF, s)
		}
	}
}

// updateButtons merges host mouse buttons with the joystick fire
// routing and queues a packet on change. Caller holds the lock.
func (a *ACIA) updateButtons() {
	b := a.hostButtons
	if a.fireDown {
		b |= 0x01
	}
	if b == a.mouseButtons {
		return
	}
	a.mouseButtons = b
	if a.mouseEnabled {
		a.enqueue(0xF8|b, 0, 0)
	}
}
