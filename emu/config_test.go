package emu

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-test/deep"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfig_MissingFileGivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(cfg, DefaultConfig()); diff != nil {
		t.Errorf("config differs from defaults: %v", diff)
	}
}

func TestConfig_CommentsAndTrailingCommas(t *testing.T) {
	path := writeTempConfig(t, `{
	// main machine setup
	"TOSPath": "/roms/tos.img",
	"RAMConfiguration": 3,
	"MaxSpeed": true, // uncapped
}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TOSPath != "/roms/tos.img" {
		t.Errorf("TOSPath = %q", cfg.TOSPath)
	}
	if cfg.RAMConfiguration != 3 || !cfg.MaxSpeed {
		t.Errorf("RAMConfiguration = %d, MaxSpeed = %v", cfg.RAMConfiguration, cfg.MaxSpeed)
	}
	// Fields absent from the file keep their defaults
	if cfg.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want default 48000", cfg.SampleRate)
	}
}

func TestConfig_UnknownKeysIgnored(t *testing.T) {
	path := writeTempConfig(t, `{"NoSuchOption": 7, "SampleRate": 44100}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", cfg.SampleRate)
	}
}

func TestConfig_MalformedFileErrors(t *testing.T) {
	path := writeTempConfig(t, `{"TOSPath": `)

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected an error for a truncated file")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.STModel = ModelSTE
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "STModel") {
		t.Errorf("expected an STModel error, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.RAMConfiguration = 4
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "RAMConfiguration") {
		t.Errorf("expected a RAMConfiguration error, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.SampleRate = 0
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "SampleRate") {
		t.Errorf("expected a SampleRate error, got %v", err)
	}
}

func TestConfig_ValidateClampsMouseDivisors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MouseXSensitivity = 0
	cfg.MouseYSensitivity = -3

	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.MouseXSensitivity != 1 || cfg.MouseYSensitivity != 1 {
		t.Errorf("divisors = (%d, %d), want clamp to (1, 1)",
			cfg.MouseXSensitivity, cfg.MouseYSensitivity)
	}
}

func TestConfig_RAMSize(t *testing.T) {
	sizes := map[int]int{
		0: 0x80000,
		1: 0x100000,
		2: 0x200000,
		3: 0x400000,
	}
	for option, want := range sizes {
		cfg := DefaultConfig()
		cfg.RAMConfiguration = option
		if got := cfg.RAMSize(); got != want {
			t.Errorf("RAMSize(%d) = 0x%X, want 0x%X", option, got, want)
		}
	}
}

func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.TOSPath = "/roms/tos104.img"
	cfg.RAMConfiguration = 2
	cfg.FloppyImagePath = "/disks/game.msa"
	cfg.MouseXSensitivity = 4
	cfg.DebugMode = true

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(loaded, cfg); diff != nil {
		t.Errorf("round trip mismatch: %v", diff)
	}
}
