package emu

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
)

func writeTempImage(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFloppy_GeometryAutodetect(t *testing.T) {
	// 2 sides, 80 tracks, 9 sectors per track
	path := writeTempImage(t, "blank.st", make([]byte, 2*80*9*512))

	img, err := LoadFloppyImage(path)
	if err != nil {
		t.Fatal(err)
	}

	sides, tracks, spt, bps := img.Geometry()
	got := []int{sides, tracks, spt, bps}
	if diff := deep.Equal(got, []int{2, 80, 9, 512}); diff != nil {
		t.Errorf("geometry mismatch: %v", diff)
	}
	if img.WriteProtected() {
		t.Error("raw image unexpectedly write protected")
	}
}

func TestFloppy_SingleSidedGeometry(t *testing.T) {
	path := writeTempImage(t, "ss.st", make([]byte, 1*80*9*512))

	img, err := LoadFloppyImage(path)
	if err != nil {
		t.Fatal(err)
	}
	sides, tracks, spt, _ := img.Geometry()
	if sides != 1 || tracks != 80 || spt != 9 {
		t.Errorf("expected (1, 80, 9), got (%d, %d, %d)", sides, tracks, spt)
	}
}

func TestFloppy_UnknownGeometry(t *testing.T) {
	path := writeTempImage(t, "bad.st", make([]byte, 12345))

	_, err := LoadFloppyImage(path)
	if !errors.Is(err, ErrUnknownGeometry) {
		t.Errorf("expected ErrUnknownGeometry, got %v", err)
	}
}

func TestFloppy_MSADecode(t *testing.T) {
	// 1 side (header stores sides-1), 9 sectors per track, tracks
	// 0-79. Track 0 is RLE compressed to 8x 0xFF then two literal
	// 0xAA with the remainder zero filled. The other 79 tracks are
	// stored verbatim.
	msa := []byte{0x0E, 0x0F, 0x00, 0x09, 0x00, 0x00, 0x00, 0x00, 0x00, 0x4F}
	msa = append(msa, 0x00, 0x06)
	msa = append(msa, 0xE5, 0xFF, 0x00, 0x08, 0xAA, 0xAA)

	trackLen := 9 * 512
	verbatim := make([]byte, trackLen)
	for i := range verbatim {
		verbatim[i] = 0x11
	}
	for track := 1; track < 80; track++ {
		msa = append(msa, byte(trackLen>>8), byte(trackLen))
		msa = append(msa, verbatim...)
	}

	path := writeTempImage(t, "disk.msa", msa)
	img, err := LoadFloppyImage(path)
	if err != nil {
		t.Fatal(err)
	}

	sides, tracks, spt, _ := img.Geometry()
	if sides != 1 || tracks != 80 || spt != 9 {
		t.Fatalf("expected (1, 80, 9), got (%d, %d, %d)", sides, tracks, spt)
	}
	if !img.WriteProtected() {
		t.Error("MSA image should load write protected")
	}

	sector := make([]byte, 512)
	if !img.ReadLBA(0, sector) {
		t.Fatal("ReadLBA failed on sector 0")
	}
	for i := 0; i < 8; i++ {
		if sector[i] != 0xFF {
			t.Errorf("byte %d = 0x%02X, want 0xFF", i, sector[i])
		}
	}
	if sector[8] != 0xAA || sector[9] != 0xAA {
		t.Errorf("bytes 8-9 = 0x%02X 0x%02X, want literal 0xAA 0xAA", sector[8], sector[9])
	}
	for i := 10; i < 512; i++ {
		if sector[i] != 0 {
			t.Fatalf("byte %d = 0x%02X, want zero fill", i, sector[i])
		}
	}

	// Verbatim track 1 round-tripped
	if !img.ReadLBA(9, sector) {
		t.Fatal("ReadLBA failed on track 1")
	}
	if sector[0] != 0x11 {
		t.Errorf("verbatim track byte = 0x%02X, want 0x11", sector[0])
	}
}

func TestFloppy_MSADoubleSided(t *testing.T) {
	// Sides word 1 means two sides. One cylinder, so two stored
	// tracks: side 0 filled with 0x22, side 1 with 0x33.
	msa := []byte{0x0E, 0x0F, 0x00, 0x09, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}
	trackLen := 9 * 512
	for _, fill := range []byte{0x22, 0x33} {
		msa = append(msa, byte(trackLen>>8), byte(trackLen))
		side := make([]byte, trackLen)
		for i := range side {
			side[i] = fill
		}
		msa = append(msa, side...)
	}

	path := writeTempImage(t, "ds.msa", msa)
	img, err := LoadFloppyImage(path)
	if err != nil {
		t.Fatal(err)
	}

	sides, tracks, spt, _ := img.Geometry()
	if sides != 2 || tracks != 1 || spt != 9 {
		t.Fatalf("expected (2, 1, 9), got (%d, %d, %d)", sides, tracks, spt)
	}

	sector := make([]byte, 512)
	if !img.ReadLBA(0, sector) || sector[0] != 0x22 {
		t.Error("side 0 data not at the start of the image")
	}
	if !img.ReadLBA(9, sector) || sector[0] != 0x33 {
		t.Error("side 1 data not interleaved after side 0")
	}
}

func TestFloppy_MSARejectsBadMagic(t *testing.T) {
	path := writeTempImage(t, "nope.msa", []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09})

	if _, err := LoadFloppyImage(path); err == nil {
		t.Error("expected an error for a bad MSA magic")
	}
}

func TestFloppy_LBABounds(t *testing.T) {
	path := writeTempImage(t, "blank.st", make([]byte, 1*80*9*512))
	img, err := LoadFloppyImage(path)
	if err != nil {
		t.Fatal(err)
	}

	sector := make([]byte, 512)
	if img.ReadLBA(-1, sector) {
		t.Error("negative LBA accepted")
	}
	if img.ReadLBA(80*9, sector) {
		t.Error("LBA past image end accepted")
	}
	if !img.ReadLBA(80*9-1, sector) {
		t.Error("last LBA rejected")
	}
}

func TestFloppy_WriteAndSave(t *testing.T) {
	path := writeTempImage(t, "work.st", make([]byte, 1*80*9*512))
	img, err := LoadFloppyImage(path)
	if err != nil {
		t.Fatal(err)
	}

	sector := make([]byte, 512)
	for i := range sector {
		sector[i] = 0x5A
	}
	if !img.WriteLBA(3, sector) {
		t.Fatal("WriteLBA failed")
	}
	if !img.Dirty() {
		t.Error("image not marked dirty after write")
	}

	if err := img.Save(); err != nil {
		t.Fatal(err)
	}
	if img.Dirty() {
		t.Error("image still dirty after save")
	}

	reloaded, err := LoadFloppyImage(path)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 512)
	reloaded.ReadLBA(3, got)
	if got[0] != 0x5A || got[511] != 0x5A {
		t.Error("written sector did not survive a save/reload cycle")
	}
}

func TestFloppy_WriteProtectedRejectsWrites(t *testing.T) {
	msa := []byte{0x0E, 0x0F, 0x00, 0x09, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	trackLen := 9 * 512
	msa = append(msa, byte(trackLen>>8), byte(trackLen))
	msa = append(msa, make([]byte, trackLen)...)

	path := writeTempImage(t, "ro.msa", msa)
	img, err := LoadFloppyImage(path)
	if err != nil {
		t.Fatal(err)
	}

	if img.WriteLBA(0, make([]byte, 512)) {
		t.Error("write accepted on a protected image")
	}
	if img.Dirty() {
		t.Error("protected image marked dirty")
	}
}
