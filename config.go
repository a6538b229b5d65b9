// config.go - the emulator's configuration surface (§6): what tape to
// load, what to record and in which format, where to dump captured
// audio, and the two debug toggles. Populated by cmd/spectrum48's cobra
// flags; kept as a plain struct so tests can construct one directly
// without going through the CLI layer.

package spectrum

// Config holds every user-facing knob this core exposes.
type Config struct {
	ROMPath string

	TapeInputPath   string
	TapeInputFormat string // "tap", "tzx", "wav"; empty is read as "tap" (an empty TapeInputPath means no tape loaded)

	RecorderOutputPath   string // empty means recording disabled
	RecorderOutputFormat string // "tap" or "wav"; empty is read as "tap"
	RecorderAppend       bool

	AudioDumpPath string

	TapeDebug bool
	BeeperLog bool
}

// ResolveTapeSource loads whatever tape input Config names, dispatching
// on TapeInputFormat. Returns a zero TapeSource with no error if no tape
// input was configured.
func (cfg *Config) ResolveTapeSource() (TapeSource, error) {
	if cfg.TapeInputPath == "" {
		return TapeSource{}, nil
	}
	switch cfg.TapeInputFormat {
	case "tap", "":
		return LoadTAP(cfg.TapeInputPath)
	case "tzx":
		return LoadTZX(cfg.TapeInputPath)
	case "wav":
		return LoadWAV(cfg.TapeInputPath)
	default:
		return TapeSource{}, &TapeParseError{
			Format: cfg.TapeInputFormat,
			Path:   cfg.TapeInputPath,
			Reason: "unrecognised tape input format",
		}
	}
}

// ResolveRecorderFormat maps Config's string format to the typed enum,
// defaulting to TAP when unset.
func (cfg *Config) ResolveRecorderFormat() RecorderFormat {
	if cfg.RecorderOutputFormat == "wav" {
		return RecorderFormatWAV
	}
	return RecorderFormatTAP
}
