package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/emst/cli"
	"github.com/user-none/emst/emu"
)

func main() {
	tosPath := flag.String("tos", "", "path to TOS ROM image")
	altConfig := flag.String("altconfig", "", "load an alternate config file")
	floppyPath := flag.String("floppy", "", "disk image (.st or .msa) for drive A")
	maxSpeed := flag.Bool("maxspeed", false, "disable 50 Hz pacing")
	mouseSens := flag.String("mouse-sensitivity", "", "mouse divisors as X,Y (default 2,2)")
	debug := flag.Bool("debug", false, "enable diagnostic logging")
	flag.Parse()

	cfgPath := *altConfig
	if cfgPath == "" {
		var err error
		cfgPath, err = emu.ConfigPath()
		if err != nil {
			log.Fatalf("Failed to locate config: %v", err)
		}
	}

	cfg, err := emu.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Command line overrides the config file
	if *tosPath != "" {
		cfg.TOSPath = *tosPath
	}
	if *floppyPath != "" {
		cfg.FloppyImagePath = *floppyPath
	}
	if *maxSpeed {
		cfg.MaxSpeed = true
	}
	if *debug {
		cfg.DebugMode = true
	}
	if *mouseSens != "" {
		x, y, err := parseSensitivity(*mouseSens)
		if err != nil {
			log.Fatalf("Invalid --mouse-sensitivity: %v", err)
		}
		cfg.MouseXSensitivity = x
		cfg.MouseYSensitivity = y
	}

	if cfg.TOSPath == "" {
		log.Fatal("A TOS image is required. Usage: emst --tos <path>")
	}

	rom, err := os.ReadFile(cfg.TOSPath)
	if err != nil {
		log.Fatalf("Failed to load TOS: %v", err)
	}

	e, err := emu.NewEmulator(rom, cfg.RAMSize(), cfg.SampleRate)
	if err != nil {
		log.Fatalf("Failed to initialize emulator: %v", err)
	}

	e.SetDebug(cfg.DebugMode)
	e.SetMouseSensitivity(cfg.MouseXSensitivity, cfg.MouseYSensitivity)
	e.Reset()

	if cfg.FloppyImagePath != "" {
		if err := e.InsertFloppy(0, cfg.FloppyImagePath); err != nil {
			log.Fatalf("Failed to load floppy image: %v", err)
		}
	}

	ebiten.SetWindowSize(emu.ScreenWidth, emu.ScreenHeight*2)
	ebiten.SetWindowTitle("emst")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(320, 200, -1, -1)
	ebiten.SetTPS(50)

	runner := cli.NewRunner(e, cfg.SampleRate, cfg.MaxSpeed)
	defer runner.Close()

	if err := ebiten.RunGame(runner); err != nil {
		log.Fatal(err)
	}
}

// parseSensitivity splits an "X,Y" pair of integer divisors.
func parseSensitivity(s string) (x, y int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want X,Y, got %q", s)
	}
	x, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	y, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	if x < 1 || y < 1 {
		return 0, 0, fmt.Errorf("divisors must be at least 1")
	}
	return x, y, nil
}
