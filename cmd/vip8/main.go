// Package main implements a CHIP-8 emulator
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"

	"vip8"
	"vip8/chip8"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type optionFlags struct {
	config string
	ips    int
	debug  bool
	quiet  bool

	shiftUsesVY    bool
	jumpWithVX     bool
	incrementIndex bool
}

// fileConfig mirrors the optional TOML config file. Explicit flags win over
// file settings.
type fileConfig struct {
	IPS    int `toml:"ips"`
	Quirks struct {
		ShiftUsesVY    bool `toml:"shift_uses_vy"`
		JumpWithVX     bool `toml:"jump_with_vx"`
		IncrementIndex bool `toml:"increment_index"`
	} `toml:"quirks"`
}

func main() {
	options, romPath := readArguments()
	logger := createLogger(options)

	if !options.quiet {
		logger.Info("vip8 - CHIP-8 emulator",
			log.String("version", buildinfo.Version(version, commit, date)))
	}

	if err := run(options, romPath, logger); err != nil {
		logger.Fatal(err.Error())
	}
}

func readArguments() (optionFlags, string) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	options := optionFlags{}

	flags.StringVar(&options.config, "config", "", "path of a TOML config file")
	flags.IntVar(&options.ips, "ips", 0, "instructions per second (default 700)")
	flags.BoolVar(&options.shiftUsesVY, "shift-vy", false, "legacy 8XY6/8XYE: copy VY into VX before shifting")
	flags.BoolVar(&options.jumpWithVX, "jump-vx", false, "legacy BNNN: jump offset from VX instead of V0")
	flags.BoolVar(&options.incrementIndex, "increment-i", false, "legacy FX55/FX65: leave I incremented by X+1")
	flags.BoolVar(&options.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&options.quiet, "q", false, "perform operations quietly")

	err := flags.Parse(os.Args[1:])
	args := flags.Args()

	if err != nil || len(args) == 0 {
		fmt.Printf("usage: vip8 [options] <rom file>\n\n")
		flags.PrintDefaults()
		os.Exit(1)
	}

	return options, args[0]
}

func createLogger(options optionFlags) *log.Logger {
	cfg := log.DefaultConfig()
	if options.debug {
		cfg.Level = log.DebugLevel
	} else if options.quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

func run(options optionFlags, romPath string, logger *log.Logger) error {
	quirks, ips, err := emulatorConfig(options)
	if err != nil {
		return err
	}

	rom, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("reading rom '%s': %w", romPath, err)
	}

	emu := vip8.New(quirks, logger)
	if err := emu.Load(rom); err != nil {
		return fmt.Errorf("loading rom: %w", err)
	}
	if ips > 0 {
		emu.CPU().SetClockRate(time.Second / time.Duration(ips))
	}

	return emu.Run(app.Context())
}

func emulatorConfig(options optionFlags) (chip8.Quirks, int, error) {
	quirks := chip8.Quirks{
		ShiftUsesVY:    options.shiftUsesVY,
		JumpWithVX:     options.jumpWithVX,
		IncrementIndex: options.incrementIndex,
	}
	ips := options.ips

	if options.config == "" {
		return quirks, ips, nil
	}

	var cfg fileConfig
	if _, err := toml.DecodeFile(options.config, &cfg); err != nil {
		return quirks, ips, fmt.Errorf("reading config '%s': %w", options.config, err)
	}

	quirks.ShiftUsesVY = quirks.ShiftUsesVY || cfg.Quirks.ShiftUsesVY
	quirks.JumpWithVX = quirks.JumpWithVX || cfg.Quirks.JumpWithVX
	quirks.IncrementIndex = quirks.IncrementIndex || cfg.Quirks.IncrementIndex
	if ips == 0 {
		ips = cfg.IPS
	}

	return quirks, ips, nil
}
