package emu

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// ST models selectable in the config. Only the STF is emulated.
const (
	ModelST = iota
	ModelMegaST
	ModelSTE
)

// ramSizes maps the RAMConfiguration option to a memory size in bytes.
var ramSizes = [4]int{0x80000, 0x100000, 0x200000, 0x400000}

// Config holds the persisted emulator settings. Unknown keys in the
// file are ignored; line comments and trailing commas are accepted.
type Config struct {
	TOSPath           string
	STModel           int
	RAMConfiguration  int
	MaxSpeed          bool
	FloppyImagePath   string
	MouseXSensitivity int
	MouseYSensitivity int
	SampleRate        int
	DebugMode         bool
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() Config {
	return Config{
		STModel:           ModelST,
		RAMConfiguration:  1,
		MouseXSensitivity: 2,
		MouseYSensitivity: 2,
		SampleRate:        48000,
	}
}

// ConfigPath returns the default config file location under the
// platform application data directory.
func ConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "emst", "config.json"), nil
}

// LoadConfig reads a config file from path. A missing file yields the
// defaults without error; a malformed file is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	std, err := hujson.Standardize(raw)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := json.Unmarshal(std, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks option ranges and clamps the mouse divisors to
// usable values.
func (c *Config) Validate() error {
	if c.STModel != ModelST {
		return fmt.Errorf("STModel %d is not supported, only the ST is emulated", c.STModel)
	}
	if c.RAMConfiguration < 0 || c.RAMConfiguration >= len(ramSizes) {
		return fmt.Errorf("RAMConfiguration %d out of range 0-3", c.RAMConfiguration)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("SampleRate %d must be positive", c.SampleRate)
	}
	if c.MouseXSensitivity < 1 {
		c.MouseXSensitivity = 1
	}
	if c.MouseYSensitivity < 1 {
		c.MouseYSensitivity = 1
	}
	return nil
}

// RAMSize returns the installed memory size selected by the config.
func (c *Config) RAMSize() int {
	return ramSizes[c.RAMConfiguration]
}

// Save writes the config to path, creating parent directories as
// needed.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
