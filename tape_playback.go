// tape_playback.go - waveform synthesis from logical blocks and the
// playback state machine that steps through a TapeSource, driving
// ULA.SetEAR as it goes (§4.7).

package spectrum

// BuildSource expands a list of logical blocks into one continuous
// waveform, recording the pulse index each block starts at so playback
// can rewind to individual block boundaries.
func BuildSource(blocks []TapeBlock) TapeSource {
	var src TapeSource
	level := false // "current pulse level" starts low, per TZX convention
	for _, b := range blocks {
		src.BlockBoundaries = append(src.BlockBoundaries, len(src.Waveform.Pulses))
		appendBlock(&src.Waveform, &level, b)
	}
	return src
}

func appendBlock(w *TapeWaveform, level *bool, b TapeBlock) {
	push := func(duration uint32) {
		w.Pulses = append(w.Pulses, TapePulse{Duration: duration, High: *level})
		*level = !*level
	}

	for i := uint16(0); i < b.PilotPulses; i++ {
		push(uint32(b.PilotPulseLen))
	}
	if b.Sync1Len > 0 {
		push(uint32(b.Sync1Len))
	}
	if b.Sync2Len > 0 {
		push(uint32(b.Sync2Len))
	}
	for byteIdx, by := range b.Data {
		bits := 8
		if byteIdx == len(b.Data)-1 && b.UsedBitsInLast != 0 {
			bits = int(b.UsedBitsInLast)
		}
		for bit := 0; bit < bits; bit++ {
			set := by&(1<<uint(7-bit)) != 0
			length := b.ZeroBitLen
			if set {
				length = b.OneBitLen
			}
			push(uint32(length))
			push(uint32(length))
		}
	}
	if b.PauseMillis > 0 {
		push(uint32(b.PauseMillis) * (CPUClockHz / 1000))
	}
}

// TapePlayback steps through a TapeSource's waveform one pulse at a
// time, driven by the emulator's clock, and reflects the current pulse's
// level onto the ULA's EAR input.
type TapePlayback struct {
	source TapeSource
	ula    *ULA

	index      int // current pulse index
	pulseStart uint64
	playing    bool

	nextBoundary     int // index into source.BlockBoundaries not yet crossed
	boundaryListener func(block, pulseIndex int)
}

// NewTapePlayback wires a playback state machine to the ULA it drives.
func NewTapePlayback(ula *ULA) *TapePlayback {
	return &TapePlayback{ula: ula}
}

// SetBoundaryListener installs fn to be called each time playback reaches
// the start of a new logical block (§6 --tape-debug). Pass nil to disable.
func (p *TapePlayback) SetBoundaryListener(fn func(block, pulseIndex int)) {
	p.boundaryListener = fn
}

// Load installs a new tape source, stopped at the beginning.
func (p *TapePlayback) Load(src TapeSource) {
	p.source = src
	p.index = 0
	p.pulseStart = 0
	p.playing = false
	p.nextBoundary = 0
	p.ula.SetEAR(false)
}

// Start begins (or resumes) playback at the given clock T-state.
func (p *TapePlayback) Start(now uint64) {
	if len(p.source.Waveform.Pulses) == 0 {
		return
	}
	p.playing = true
	p.pulseStart = now
	p.ula.SetEAR(p.source.Waveform.Pulses[p.index].High)
}

// Pause stops advancing playback without losing position.
func (p *TapePlayback) Pause() {
	p.playing = false
}

// Rewind returns playback to the start of the tape.
func (p *TapePlayback) Rewind() {
	p.index = 0
	p.nextBoundary = 0
	p.playing = false
	p.ula.SetEAR(false)
}

// SeekBlock jumps to the start of the nth logical block (0-indexed).
func (p *TapePlayback) SeekBlock(n int) {
	if n < 0 || n >= len(p.source.BlockBoundaries) {
		return
	}
	p.index = p.source.BlockBoundaries[n]
	p.nextBoundary = n
	p.playing = false
}

// checkBoundaryCrossed fires boundaryListener for every block boundary
// index has reached or passed since the last check (§6 --tape-debug).
func (p *TapePlayback) checkBoundaryCrossed() {
	for p.nextBoundary < len(p.source.BlockBoundaries) && p.index >= p.source.BlockBoundaries[p.nextBoundary] {
		if p.boundaryListener != nil {
			p.boundaryListener(p.nextBoundary, p.index)
		}
		p.nextBoundary++
	}
}

// Playing reports whether the tape is currently advancing.
func (p *TapePlayback) Playing() bool {
	return p.playing
}

// Done reports whether playback has run past the final pulse.
func (p *TapePlayback) Done() bool {
	return p.index >= len(p.source.Waveform.Pulses)
}

// Update advances playback to the given clock T-state, crossing as many
// pulse boundaries as now demands and updating the ULA's EAR input to
// match whichever pulse is current at the end. A no-op while paused,
// stopped, or exhausted.
func (p *TapePlayback) Update(now uint64) {
	if !p.playing || p.Done() {
		return
	}
	p.checkBoundaryCrossed()
	for p.index < len(p.source.Waveform.Pulses) {
		cur := p.source.Waveform.Pulses[p.index]
		end := p.pulseStart + uint64(cur.Duration)
		if now < end {
			p.ula.SetEAR(cur.High)
			return
		}
		p.pulseStart = end
		p.index++
		p.checkBoundaryCrossed()
	}
	p.playing = false
	p.ula.SetEAR(false)
}
