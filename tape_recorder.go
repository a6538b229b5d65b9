// tape_recorder.go - captures MIC-line transitions from the ULA into
// pulses, finalizes them into blocks when the line goes idle, and writes
// the result out as TAP or WAV depending on configuration (§4.8).

package spectrum

import "os"

// idleFinalizeThreshold is how long the MIC line must stay unchanged
// before the recorder finalizes whatever it has captured into a block
// (§4.8).
const idleFinalizeThreshold = 350000

// TapeRecorder consumes ULA MIC transitions (via SetMicListener) and
// accumulates them into pulses, finalizing a block either when the line
// goes idle for idleFinalizeThreshold T-states or when Stop is called.
type TapeRecorder struct {
	format RecorderFormat
	path   string
	append bool

	capturing   bool
	pulses      []TapePulse
	lastChange  uint64
	lastLevel   bool
	haveLevel   bool

	blocks  []TapeBlock
	samples []int16

	lastNow uint64
}

// NewTapeRecorder returns a recorder that will write to path in the
// given format. append selects WAV append semantics; it is an error
// (ErrTapeStateConflict, surfaced from Flush) to request append with a
// non-WAV format, since TAP has no append representation.
func NewTapeRecorder(path string, format RecorderFormat, appendMode bool) *TapeRecorder {
	return &TapeRecorder{path: path, format: format, append: appendMode}
}

// Start begins a new capture session.
func (r *TapeRecorder) Start() {
	r.capturing = true
	r.haveLevel = false
	r.pulses = nil
}

// Stop ends capture, finalizing any in-flight pulses into a block.
func (r *TapeRecorder) Stop() {
	if !r.capturing {
		return
	}
	r.finalizeBlock()
	r.capturing = false
}

// OnMicTransition is installed as the ULA's mic listener while this
// recorder is active (§4.5/§4.8 wiring).
func (r *TapeRecorder) OnMicTransition(when uint64, level bool) {
	if !r.capturing {
		return
	}
	if r.haveLevel {
		duration := uint32(when - r.lastChange)
		r.pulses = append(r.pulses, TapePulse{Duration: duration, High: r.lastLevel})
		if r.format == RecorderFormatWAV {
			r.emitSamples(r.lastLevel, duration)
		}
	}
	r.lastChange = when
	r.lastLevel = level
	r.haveLevel = true
}

// Tick lets the recorder notice a MIC line that has gone idle (stopped
// transitioning) for longer than idleFinalizeThreshold, finalizing
// whatever was captured into a block without waiting for Stop. Call once
// per frame with the current clock value.
func (r *TapeRecorder) Tick(now uint64) {
	r.lastNow = now
	if !r.capturing || !r.haveLevel {
		return
	}
	if now-r.lastChange >= idleFinalizeThreshold {
		r.finalizeBlock()
		r.haveLevel = false
	}
}

func (r *TapeRecorder) finalizeBlock() {
	if len(r.pulses) == 0 {
		return
	}
	if r.format == RecorderFormatTAP {
		data, err := DecodePulsesToBlock(stripPilotAndSync(r.pulses))
		if err == nil {
			r.blocks = append(r.blocks, TapeBlock{Data: data, UsedBitsInLast: 8})
		}
		// A pulse run too short or ambiguous to be a real data block is
		// silently dropped: it is noise on the MIC line, not a save.
	}
	r.pulses = nil
}

func (r *TapeRecorder) emitSamples(high bool, duration uint32) {
	const samplesPerTState = float64(wavSampleRate) / float64(CPUClockHz)
	n := int(float64(duration) * samplesPerTState)
	var level int16 = -16384
	if high {
		level = 16384
	}
	for i := 0; i < n; i++ {
		r.samples = append(r.samples, level)
	}
}

// Flush writes the captured session to disk in the configured format.
// WAV append mode requires an existing WAV file written by a previous
// session; TAP with append mode returns ErrTapeStateConflict; the other
// combinations overwrite the destination.
func (r *TapeRecorder) Flush() error {
	switch r.format {
	case RecorderFormatTAP:
		if r.append {
			return ErrTapeStateConflict
		}
		if err := os.WriteFile(r.path, EncodeTAP(r.blocks), 0o644); err != nil {
			return &TapeIOError{Path: r.path, Op: "save", Err: err}
		}
		return nil
	case RecorderFormatWAV:
		if r.append {
			return AppendWAV(r.path, r.samples)
		}
		return SaveWAV(r.path, r.samples)
	}
	return nil
}
