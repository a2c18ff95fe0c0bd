package emu

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const bytesPerSector = 512

// ErrUnknownGeometry reports a raw image whose size matches no valid
// ST disk layout.
var ErrUnknownGeometry = errors.New("image size matches no known disk geometry")

// FloppyImage is an in-memory sector-ordered disk image. Raw .ST
// images are writable and flushed back to their file on request; .MSA
// images are decompressed on load and kept read-only.
type FloppyImage struct {
	path string
	data []byte

	sides           int
	tracks          int
	sectorsPerTrack int

	writeProtected bool
	dirty          bool
}

// LoadFloppyImage reads a disk image from path. The format is chosen
// by file extension: .msa is decompressed, anything else is treated as
// a raw .ST image.
func LoadFloppyImage(path string) (*FloppyImage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading disk image: %w", err)
	}

	var img *FloppyImage
	if strings.EqualFold(filepath.Ext(path), ".msa") {
		img, err = parseMSA(raw)
	} else {
		img, err = parseST(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	img.path = path
	return img, nil
}

// parseST deduces the geometry of a raw image from its size. The
// search walks sides, then tracks, then sectors per track; the first
// layout whose size matches wins.
func parseST(data []byte) (*FloppyImage, error) {
	for sides := 1; sides <= 2; sides++ {
		for tracks := 79; tracks <= 82; tracks++ {
			for spt := 8; spt <= 12; spt++ {
				if len(data) == sides*tracks*spt*bytesPerSector {
					return &FloppyImage{
						data:            data,
						sides:           sides,
						tracks:          tracks,
						sectorsPerTrack: spt,
					}, nil
				}
			}
		}
	}
	return nil, ErrUnknownGeometry
}

// parseMSA decompresses an MSA archive into a raw sector image.
//
// The 10-byte header is big-endian: magic 0x0E0F, sectors per track,
// sides minus one, start track, end track. Each stored track is
// prefixed with a 16-bit size; a track whose size equals the raw
// track length is stored verbatim, anything else is run-length
// encoded with 0xE5 as the escape byte.
func parseMSA(raw []byte) (*FloppyImage, error) {
	if len(raw) < 10 || raw[0] != 0x0E || raw[1] != 0x0F {
		return nil, errors.New("not an MSA image")
	}

	spt := int(raw[2])<<8 | int(raw[3])
	// The header stores the side count minus one
	sides := (int(raw[4])<<8 | int(raw[5])) + 1
	startTrack := int(raw[6])<<8 | int(raw[7])
	endTrack := int(raw[8])<<8 | int(raw[9])

	if spt == 0 || sides > 2 || endTrack < startTrack {
		return nil, errors.New("malformed MSA header")
	}

	tracks := endTrack - startTrack + 1
	trackLen := spt * bytesPerSector
	data := make([]byte, 0, tracks*sides*trackLen)
	pos := 10

	for t := 0; t < tracks*sides; t++ {
		if pos+2 > len(raw) {
			return nil, fmt.Errorf("MSA truncated at track %d", t)
		}
		size := int(raw[pos])<<8 | int(raw[pos+1])
		pos += 2

		if size == trackLen {
			// Uncompressed track
			end := pos + size
			if end > len(raw) {
				end = len(raw)
			}
			data = append(data, raw[pos:end]...)
			for i := end - pos; i < trackLen; i++ {
				data = append(data, 0)
			}
			pos += size
			continue
		}

		track := decodeMSATrack(raw[pos:min(pos+size, len(raw))], trackLen)
		data = append(data, track...)
		pos += size
	}

	return &FloppyImage{
		data:            data,
		sides:           sides,
		tracks:          tracks,
		sectorsPerTrack: spt,
		writeProtected:  true,
	}, nil
}

// decodeMSATrack expands one RLE track to exactly trackLen bytes.
// 0xE5 escapes a {value, count} run, any other byte is a literal.
// Exhausted input leaves the remainder zero-filled.
func decodeMSATrack(src []byte, trackLen int) []byte {
	out := make([]byte, 0, trackLen)
	i := 0
	for len(out) < trackLen && i < len(src) {
		b := src[i]
		if b != 0xE5 {
			out = append(out, b)
			i++
			continue
		}
		if i+3 >= len(src) {
			break
		}
		value := src[i+1]
		count := int(src[i+2])<<8 | int(src[i+3])
		i += 4
		for ; count > 0 && len(out) < trackLen; count-- {
			out = append(out, value)
		}
	}
	for len(out) < trackLen {
		out = append(out, 0)
	}
	return out
}

// Geometry returns the image layout as (sides, tracks, sectors per
// track, bytes per sector).
func (f *FloppyImage) Geometry() (sides, tracks, spt, bps int) {
	return f.sides, f.tracks, f.sectorsPerTrack, bytesPerSector
}

// WriteProtected reports whether the image rejects sector writes.
func (f *FloppyImage) WriteProtected() bool {
	return f.writeProtected
}

// ReadLBA copies one sector at the given linear block address into
// out. It returns false when the address falls outside the image.
func (f *FloppyImage) ReadLBA(lba int, out []byte) bool {
	off := lba * bytesPerSector
	if lba < 0 || off+bytesPerSector > len(f.data) {
		return false
	}
	copy(out, f.data[off:off+bytesPerSector])
	return true
}

// WriteLBA stores one sector at the given linear block address. It
// returns false when the address falls outside the image or the image
// is write protected.
func (f *FloppyImage) WriteLBA(lba int, in []byte) bool {
	if f.writeProtected {
		return false
	}
	off := lba * bytesPerSector
	if lba < 0 || off+bytesPerSector > len(f.data) {
		return false
	}
	copy(f.data[off:off+bytesPerSector], in)
	f.dirty = true
	return true
}

// Dirty reports whether the image has unsaved sector writes.
func (f *FloppyImage) Dirty() bool {
	return f.dirty
}

// Save flushes a modified image back to its original file. Unmodified
// and write-protected images are left untouched.
func (f *FloppyImage) Save() error {
	if !f.dirty || f.writeProtected || f.path == "" {
		return nil
	}
	if err := os.WriteFile(f.path, f.data, 0644); err != nil {
		return fmt.Errorf("saving disk image: %w", err)
	}
	f.dirty = false
	return nil
}
