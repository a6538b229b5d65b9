// tape.go - shared tape types used by the TAP/TZX readers, the playback
// waveform synthesizer and the recorder (§4.7, §4.8, §6). Format parsing
// itself lives in tape_tap.go/tape_tzx.go/tape_wav.go; the state
// machines live in tape_playback.go/tape_recorder.go.

package spectrum

// TapeBlock is one logical block of tape data: a pilot tone, two sync
// pulses, a stream of data bits each encoded as a pulse pair, and a
// trailing pause. TZX's block 0x10 and every TAP block both reduce to
// this shape; WAV sources skip it entirely and are played back as a
// waveform directly (§4.7).
type TapeBlock struct {
	PilotPulseLen  uint16
	PilotPulses    uint16
	Sync1Len       uint16
	Sync2Len       uint16
	ZeroBitLen     uint16
	OneBitLen      uint16
	UsedBitsInLast uint8 // bits used in the final byte, 1-8
	PauseMillis    uint16
	Data           []byte
}

// Standard ROM loader pulse timings (§6), used both as TAP synthesis
// defaults and as the tolerance-matching targets in the TAP pulse
// decoder (§4.8.1).
const (
	StdPilotPulseLen  = 2168
	StdPilotPulsesHdr = 8063
	StdPilotPulsesDat = 3223
	StdSync1Len       = 667
	StdSync2Len       = 735
	StdZeroBitLen     = 855
	StdOneBitLen      = 1710
)

// NewTAPBlock builds a TapeBlock with standard ROM-loader pulse timings
// around the given raw bytes (a TAP/ROM-format block: flag byte,
// payload, checksum already included in data).
func NewTAPBlock(data []byte) TapeBlock {
	pulses := uint16(StdPilotPulsesDat)
	if len(data) > 0 && data[0] == 0x00 {
		pulses = StdPilotPulsesHdr
	}
	return TapeBlock{
		PilotPulseLen:  StdPilotPulseLen,
		PilotPulses:    pulses,
		Sync1Len:       StdSync1Len,
		Sync2Len:       StdSync2Len,
		ZeroBitLen:     StdZeroBitLen,
		OneBitLen:      StdOneBitLen,
		UsedBitsInLast: 8,
		PauseMillis:    1000,
		Data:           data,
	}
}

// TapePulse is one half-period of the synthesized waveform: the EAR
// level holds at High for Duration T-states before the next pulse.
type TapePulse struct {
	Duration uint32
	High     bool
}

// TapeWaveform is a fully expanded sequence of pulses for one or more
// blocks, the form the playback state machine actually steps through.
// TAP/TZX sources are expanded into this before playback; WAV sources
// are derived into it at load time from zero crossings (§4.7).
type TapeWaveform struct {
	Pulses []TapePulse
}

// RecorderFormat selects the on-disk format the tape recorder writes
// (§6): TAP block framing or 16-bit PCM WAV.
type RecorderFormat int

const (
	RecorderFormatTAP RecorderFormat = iota
	RecorderFormatWAV
)

// TapeSource abstracts "the thing currently feeding TapePlayback a
// waveform", so a TAP file, a TZX file and a WAV file are all played
// back through the same state machine (§4.7). LoadXxx functions each
// return a TapeSource built from their respective format.
type TapeSource struct {
	Waveform TapeWaveform
	// BlockBoundaries holds the pulse index at which each source block
	// begins, for block-by-block rewind/seek (§4.7). A WAV-derived source
	// has exactly one boundary at 0: it has no block structure.
	BlockBoundaries []int
}
