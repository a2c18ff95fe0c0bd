package emu

// ymVolumeTable maps a 5-bit level to a linear amplitude. The YM2149's
// DAC is logarithmic with roughly 1.5 dB per step; these values were
// measured on real hardware by the Hatari project.
var ymVolumeTable = [32]uint16{
	0, 0, 190, 286, 375, 470, 560, 664,
	866, 1130, 1515, 1803, 2253, 2848, 3351, 3862,
	4844, 6058, 7290, 8559, 10474, 12878, 15297, 17787,
	21500, 26172, 30866, 35676, 42664, 50986, 58842, 65535,
}

// vol4to5 maps a 4-bit fixed channel volume onto the 5-bit DAC scale.
// The fixed levels sit between the envelope steps.
func vol4to5(v byte) byte {
	return v&0x0F<<1 | 1
}

// ymEnvelopeShapes holds the 5-bit output level for each of the 16
// envelope shapes over 96 steps: one initial 32-step ramp followed by
// a 64-step continuation. The envelope position wraps from 95 back to
// 64 so the last 32 steps repeat forever.
var ymEnvelopeShapes = buildEnvelopeShapes()

func buildEnvelopeShapes() [16][96]byte {
	var t [16][96]byte

	for shape := 0; shape < 16; shape++ {
		cont := shape&0x08 != 0
		attack := shape&0x04 != 0
		alternate := shape&0x02 != 0
		hold := shape&0x01 != 0

		ramp := func(up bool, i int) byte {
			if up {
				return byte(i)
			}
			return byte(31 - i)
		}

		for i := 0; i < 32; i++ {
			t[shape][i] = ramp(attack, i)
		}

		final := byte(0)
		if attack {
			final = 31
		}

		for i := 0; i < 64; i++ {
			pos := 32 + i
			switch {
			case !cont:
				// Shapes 0-7 drop to zero after the first ramp
				t[shape][pos] = 0
			case hold:
				v := final
				if alternate {
					v = 31 - final
				}
				t[shape][pos] = v
			case alternate:
				// First continuation block runs inverted, the looped
				// block runs in the initial direction
				if i < 32 {
					t[shape][pos] = ramp(!attack, i)
				} else {
					t[shape][pos] = ramp(attack, i-32)
				}
			default:
				// Sawtooth: the initial ramp repeats
				t[shape][pos] = ramp(attack, i%32)
			}
		}
	}

	return t
}
