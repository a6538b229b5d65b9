// errors.go - error kinds (§7). File/parse errors are returned to the
// caller; an unknown opcode is modeled as a distinct, inspectable error
// (not a panic) per the §9 design note, so tests can assert on it without
// terminating the process.

package spectrum

import "fmt"

// Sentinel errors for conditions that don't need structured detail.
var (
	// ErrInvalidROM is returned when a ROM image is not exactly ROMSize bytes.
	ErrInvalidROM = fmt.Errorf("spectrum: ROM image must be exactly %d bytes", ROMSize)

	// ErrAudioDeviceUnavailable signals the host could not open an audio
	// device; the emulator continues headless, still maintaining beeper
	// bookkeeping (§7).
	ErrAudioDeviceUnavailable = fmt.Errorf("spectrum: audio device unavailable")

	// ErrTapeStateConflict is returned for invalid tape session transitions:
	// an append request against a non-WAV destination, or a record/playback
	// conflict.
	ErrTapeStateConflict = fmt.Errorf("spectrum: tape state conflict")
)

// UnknownOpcodeError is raised by the CPU core when it decodes a byte
// sequence with no defined behaviour. On real silicon this cannot happen
// (every byte value is defined, including the undocumented instructions
// this core implements); in practice it indicates memory corruption or a
// gap in the decode tables. Production hosts may still choose to abort
// after logging it; this module returns it so tests can assert on it.
type UnknownOpcodeError struct {
	PC     uint16
	Prefix string // "", "CB", "ED", "DD", "FD", "DDCB", "FDCB", or "DD/FD" for an over-long prefix run
	Opcode byte
}

func (e *UnknownOpcodeError) Error() string {
	if e.Prefix == "" {
		return fmt.Sprintf("spectrum: unknown opcode 0x%02X at PC=0x%04X", e.Opcode, e.PC)
	}
	return fmt.Sprintf("spectrum: unknown opcode %s 0x%02X at PC=0x%04X", e.Prefix, e.Opcode, e.PC)
}

// TapeParseError describes a malformed TAP/TZX/WAV file: a truncated
// chunk, an unsupported block ID, or the wrong sample format. Path and
// Offset are best-effort and may be zero when not applicable.
type TapeParseError struct {
	Format string // "TAP", "TZX", "WAV"
	Path   string
	Offset int64
	Reason string
}

func (e *TapeParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("spectrum: %s parse error at offset %d: %s", e.Format, e.Offset, e.Reason)
	}
	return fmt.Sprintf("spectrum: %s parse error in %s at offset %d: %s", e.Format, e.Path, e.Offset, e.Reason)
}

// TapeIOError wraps a filesystem failure encountered while loading or
// saving a tape file.
type TapeIOError struct {
	Path string
	Op   string // "load", "save", "append"
	Err  error
}

func (e *TapeIOError) Error() string {
	return fmt.Sprintf("spectrum: tape %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *TapeIOError) Unwrap() error {
	return e.Err
}
