// Command spectrum48 drives the core headlessly: load a ROM and
// optional tape image, run it for a fixed number of frames, and
// optionally record whatever the emulated machine saves to tape.
// Grounded on cmd/z80opt's cobra root-command-plus-flags structure.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zaynotley/spectrum48core"
)

func main() {
	var cfg spectrum.Config
	var frames int

	rootCmd := &cobra.Command{
		Use:   "spectrum48",
		Short: "ZX Spectrum 48K core driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg, frames)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&cfg.ROMPath, "rom", "", "path to the 16KB 48K BASIC ROM image (required)")
	flags.StringVar(&cfg.TapeInputPath, "tape-in", "", "tape image to load (.tap/.tzx/.wav)")
	flags.StringVar(&cfg.TapeInputFormat, "tape-in-format", "", "tape input format: tap, tzx, wav (inferred from extension if omitted)")
	flags.StringVar(&cfg.RecorderOutputPath, "tape-out", "", "path to write tape saves captured from the MIC line")
	flags.StringVar(&cfg.RecorderOutputFormat, "tape-out-format", "tap", "tape output format: tap or wav")
	flags.BoolVar(&cfg.RecorderAppend, "tape-out-append", false, "append to an existing WAV recording instead of overwriting")
	flags.StringVar(&cfg.AudioDumpPath, "audio-dump", "", "write the beeper output to a WAV file as the machine runs")
	flags.BoolVar(&cfg.TapeDebug, "tape-debug", false, "log tape block boundaries as they are crossed")
	flags.BoolVar(&cfg.BeeperLog, "beeper-log", false, "log beeper level changes as they are queued")
	flags.IntVar(&frames, "frames", 50, "number of 50Hz frames to run before exiting")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "spectrum48:", err)
		os.Exit(1)
	}
}

func run(cfg spectrum.Config, frames int) error {
	if cfg.ROMPath == "" {
		return fmt.Errorf("spectrum48: --rom is required")
	}
	rom, err := os.ReadFile(cfg.ROMPath)
	if err != nil {
		return fmt.Errorf("spectrum48: reading ROM: %w", err)
	}

	if cfg.TapeInputFormat == "" {
		cfg.TapeInputFormat = inferTapeFormat(cfg.TapeInputPath)
	}

	emu, err := spectrum.NewEmulator(cfg, rom)
	if err != nil {
		return fmt.Errorf("spectrum48: %w", err)
	}

	for i := 0; i < frames; i++ {
		if err := emu.RunFrame(spectrum.TStatesPerFrame); err != nil {
			return fmt.Errorf("spectrum48: frame %d: %w", i, err)
		}
	}

	if err := emu.Shutdown(); err != nil {
		return fmt.Errorf("spectrum48: %w", err)
	}
	return nil
}

func inferTapeFormat(path string) string {
	switch {
	case len(path) >= 4 && path[len(path)-4:] == ".tzx":
		return "tzx"
	case len(path) >= 4 && path[len(path)-4:] == ".wav":
		return "wav"
	case len(path) >= 4 && path[len(path)-4:] == ".tap":
		return "tap"
	}
	return ""
}
