package cli

import "github.com/hajimehoshi/ebiten/v2"

// stScancodes maps host keys to the make codes the keyboard controller
// sends. Keys absent from the table map to zero and are dropped. The
// layout follows the US keyboard; Undo and Help sit on Page Up and
// Page Down since modern keyboards lack them.
var stScancodes = map[ebiten.Key]byte{
	ebiten.KeyEscape:       0x01,
	ebiten.KeyDigit1:       0x02,
	ebiten.KeyDigit2:       0x03,
	ebiten.KeyDigit3:       0x04,
	ebiten.KeyDigit4:       0x05,
	ebiten.KeyDigit5:       0x06,
	ebiten.KeyDigit6:       0x07,
	ebiten.KeyDigit7:       0x08,
	ebiten.KeyDigit8:       0x09,
	ebiten.KeyDigit9:       0x0A,
	ebiten.KeyDigit0:       0x0B,
	ebiten.KeyMinus:        0x0C,
	ebiten.KeyEqual:        0x0D,
	ebiten.KeyBackspace:    0x0E,
	ebiten.KeyTab:          0x0F,
	ebiten.KeyQ:            0x10,
	ebiten.KeyW:            0x11,
	ebiten.KeyE:            0x12,
	ebiten.KeyR:            0x13,
	ebiten.KeyT:            0x14,
	ebiten.KeyY:            0x15,
	ebiten.KeyU:            0x16,
	ebiten.KeyI:            0x17,
	ebiten.KeyO:            0x18,
	ebiten.KeyP:            0x19,
	ebiten.KeyBracketLeft:  0x1A,
	ebiten.KeyBracketRight: 0x1B,
	ebiten.KeyEnter:        0x1C,
	ebiten.KeyControlLeft:  0x1D,
	ebiten.KeyControlRight: 0x1D,
	ebiten.KeyA:            0x1E,
	ebiten.KeyS:            0x1F,
	ebiten.KeyD:            0x20,
	ebiten.KeyF:            0x21,
	ebiten.KeyG:            0x22,
	ebiten.KeyH:            0x23,
	ebiten.KeyJ:            0x24,
	ebiten.KeyK:            0x25,
	ebiten.KeyL:            0x26,
	ebiten.KeySemicolon:    0x27,
	ebiten.KeyQuote:        0x28,
	ebiten.KeyBackquote:    0x29,
	ebiten.KeyShiftLeft:    0x2A,
	ebiten.KeyBackslash:    0x2B,
	ebiten.KeyZ:            0x2C,
	ebiten.KeyX:            0x2D,
	ebiten.KeyC:            0x2E,
	ebiten.KeyV:            0x2F,
	ebiten.KeyB:            0x30,
	ebiten.KeyN:            0x31,
	ebiten.KeyM:            0x32,
	ebiten.KeyComma:        0x33,
	ebiten.KeyPeriod:       0x34,
	ebiten.KeySlash:        0x35,
	ebiten.KeyShiftRight:   0x36,
	ebiten.KeyAltLeft:      0x38,
	ebiten.KeyAltRight:     0x38,
	ebiten.KeySpace:        0x39,
	ebiten.KeyCapsLock:     0x3A,
	ebiten.KeyF1:           0x3B,
	ebiten.KeyF2:           0x3C,
	ebiten.KeyF3:           0x3D,
	ebiten.KeyF4:           0x3E,
	ebiten.KeyF5:           0x3F,
	ebiten.KeyF6:           0x40,
	ebiten.KeyF7:           0x41,
	ebiten.KeyF8:           0x42,
	ebiten.KeyF9:           0x43,
	ebiten.KeyF10:          0x44,
	ebiten.KeyHome:         0x47,
	ebiten.KeyArrowUp:      0x48,
	ebiten.KeyArrowLeft:    0x4B,
	ebiten.KeyArrowRight:   0x4D,
	ebiten.KeyArrowDown:    0x50,
	ebiten.KeyInsert:       0x52,
	ebiten.KeyDelete:       0x53,
	ebiten.KeyPageUp:       0x61, // Undo
	ebiten.KeyPageDown:     0x62, // Help
	ebiten.KeyNumpad0:      0x70,
	ebiten.KeyNumpad1:      0x6D,
	ebiten.KeyNumpad2:      0x6E,
	ebiten.KeyNumpad3:      0x6F,
	ebiten.KeyNumpad4:      0x6A,
	ebiten.KeyNumpad5:      0x6B,
	ebiten.KeyNumpad6:      0x6C,
	ebiten.KeyNumpad7:      0x67,
	ebiten.KeyNumpad8:      0x68,
	ebiten.KeyNumpad9:      0x69,
	ebiten.KeyNumpadDecimal:  0x71,
	ebiten.KeyNumpadEnter:    0x72,
	ebiten.KeyNumpadAdd:      0x4E,
	ebiten.KeyNumpadSubtract: 0x4A,
	ebiten.KeyNumpadMultiply: 0x66,
	ebiten.KeyNumpadDivide:   0x65,
}

// scancodeFor returns the ST make code for a host key, zero when the
// key has no ST equivalent.
func scancodeFor(key ebiten.Key) byte {
	return stScancodes[key]
}
