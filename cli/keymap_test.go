package cli

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestScancodeFor(t *testing.T) {
	cases := []struct {
		key  ebiten.Key
		want byte
	}{
		{ebiten.KeyEscape, 0x01},
		{ebiten.KeyA, 0x1E},
		{ebiten.KeySpace, 0x39},
		{ebiten.KeyF10, 0x44},
		{ebiten.KeyArrowLeft, 0x4B},
	}
	for _, c := range cases {
		if got := scancodeFor(c.key); got != c.want {
			t.Errorf("scancodeFor(%v) = 0x%02X, want 0x%02X", c.key, got, c.want)
		}
	}
}

func TestScancodeForUnmapped(t *testing.T) {
	// No ST equivalent, must map to the discard value
	if got := scancodeFor(ebiten.KeyPrintScreen); got != 0 {
		t.Errorf("scancodeFor(PrintScreen) = 0x%02X, want 0", got)
	}
}
