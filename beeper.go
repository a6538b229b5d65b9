// beeper.go - the bounded level-change ring buffer bridging the ULA's
// single-threaded port-write processing to one audio consumer thread
// (§4.6). Only this ring buffer crosses a goroutine boundary; everything
// else in the core is single-threaded. Grounded on the producer/consumer
// ring-buffer idiom audio_backend_oto.go uses for its playback queue,
// adapted to carry level-change events instead of PCM samples (actual
// audio device output is out of scope here).

package spectrum

import (
	"sync"
	"time"
)

// BeeperEvent is a single level change: the beeper output (bit 4 of port
// 0xFE) flipped to level at T-state when.
type BeeperEvent struct {
	When  uint64
	Level bool
}

// BeeperRingSize is the minimum capacity required by §4.6; comfortably
// covers a full frame's worth of plausible toggles.
const BeeperRingSize = 8192

// cyclesPerSample converts the host audio sample rate to T-states per
// sample (§4.6 consumer algorithm step 1).
func cyclesPerSample() float64 {
	return float64(CPUClockHz) / float64(wavSampleRate)
}

// rewindToleranceSamples is §4.6's "~8 samples" tolerance before a
// producer timestamp behind playback_position is treated as a rewind
// rather than ordinary reorder jitter.
const rewindToleranceSamples = 8

// idleSamplesThreshold is §4.6's "~512 samples" of queue silence before
// the consumer emits true silence instead of holding the last level.
const idleSamplesThreshold = 512

// beeperThrottleSamples is the latency (in samples) above which the main
// loop should slow down to let the audio consumer catch up (§4.6).
const beeperThrottleSamples = BeeperRingSize / 2

// Beeper is a single-producer single-consumer bounded ring buffer of
// level-change events, plus the consumer-side DC-blocking filter state.
// The producer (ULA.ProcessEvents, called from the emulation thread) and
// the consumer (an audio render thread, out of scope for output but
// modeled here so its pull API exists) never touch the same fields
// without the mutex: pushes and pops are short critical sections, not a
// lock held across any blocking call.
type Beeper struct {
	mu      sync.Mutex
	buf     [BeeperRingSize]BeeperEvent
	head    int // next write index
	tail    int // next read index
	count   int
	overrun uint64

	// writerCursor and playbackPosition are touched by both the producer
	// (Push) and the consumer (NextSample/LatencySamples), so both are
	// held under mu.
	writerCursor     uint64
	playbackPosition uint64

	// Consumer-side DC-blocking filter state, advanced by NextSample and
	// rebased by Push on a rewind; both do so while holding mu.
	filterPrev  float32
	filterYPrev float32
	level       bool
	lastEventAt uint64
	haveEvent   bool

	// pushListener, if set, observes every pushed event for diagnostic
	// logging (§6 --beeper-log); nil costs nothing in the common case.
	pushListener func(when uint64, level bool)
}

// SetPushListener installs fn to be called with every event Push enqueues,
// in enqueue order. Pass nil to disable.
func (b *Beeper) SetPushListener(fn func(when uint64, level bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushListener = fn
}

const dcBlockAlpha = 0.995

// NewBeeper returns an empty beeper event queue.
func NewBeeper() *Beeper {
	return &Beeper{}
}

// Push appends a level-change event. If the ring is full the oldest
// event is dropped to make room (§4.6 overflow policy: drop oldest,
// never block the emulation thread).
//
// Before enqueuing, Push applies §4.6's resynchronization policy: a
// timestamp more than rewindToleranceSamples behind playback_position
// (whether from genuine tape-rewind-style reordering, or because idle
// silence let playback_position run ahead of the last real event) is
// treated as a rewind — the queue is flushed and playback_position/
// writer_cursor and the DC-block filter are rebased to the new event.
func (b *Beeper) Push(when uint64, level bool) {
	b.mu.Lock()

	tolerance := uint64(rewindToleranceSamples * cyclesPerSample())
	if when+tolerance < b.playbackPosition {
		b.head, b.tail, b.count = 0, 0, 0
		b.playbackPosition = when
		b.writerCursor = when
		b.filterPrev, b.filterYPrev = 0, 0
		b.level = level
		b.lastEventAt = when
		b.haveEvent = true
	}
	if when > b.writerCursor {
		b.writerCursor = when
	}

	if b.count == BeeperRingSize {
		b.tail = (b.tail + 1) % BeeperRingSize
		b.count--
		b.overrun++
	}
	b.buf[b.head] = BeeperEvent{When: when, Level: level}
	b.head = (b.head + 1) % BeeperRingSize
	b.count++

	listener := b.pushListener
	b.mu.Unlock()
	if listener != nil {
		listener(when, level)
	}
}

// Pop removes and returns the oldest queued event, if any.
func (b *Beeper) Pop() (BeeperEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return BeeperEvent{}, false
	}
	ev := b.buf[b.tail]
	b.tail = (b.tail + 1) % BeeperRingSize
	b.count--
	return ev, true
}

// PeekDue reports whether the oldest queued event's timestamp is at or
// before now, without consuming it, so a sample-rate consumer can decide
// whether "now" has reached the next pending transition.
func (b *Beeper) PeekDue(now uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return false
	}
	return b.buf[b.tail].When <= now
}

// Overruns returns the number of events dropped due to backpressure.
func (b *Beeper) Overruns() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overrun
}

// Len reports the number of queued, unconsumed events.
func (b *Beeper) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// NextSample advances the consumer's notion of "now" to upTo T-states,
// draining every due event to update the current output level, then
// returns one DC-blocked, amplitude-scaled int16 sample representing
// that level. amplitude sets the raw high/low swing before filtering.
// Per §4.6, once the queue has held no new event for idleSamplesThreshold
// samples the output goes to true silence (zero) rather than holding the
// last level indefinitely.
func (b *Beeper) NextSample(upTo uint64, amplitude int16) int16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.count > 0 && b.buf[b.tail].When <= upTo {
		ev := b.buf[b.tail]
		b.tail = (b.tail + 1) % BeeperRingSize
		b.count--
		b.level = ev.Level
		b.lastEventAt = ev.When
		b.haveEvent = true
	}

	b.playbackPosition = upTo

	idleThreshold := uint64(idleSamplesThreshold * cyclesPerSample())
	idle := b.haveEvent && upTo >= b.lastEventAt && upTo-b.lastEventAt >= idleThreshold

	var raw float32
	switch {
	case idle:
		raw = 0
	case b.level:
		raw = float32(amplitude)
	default:
		raw = -float32(amplitude)
	}

	y := raw - b.filterPrev + dcBlockAlpha*b.filterYPrev
	b.filterPrev = raw
	b.filterYPrev = y

	if y > 32767 {
		y = 32767
	} else if y < -32768 {
		y = -32768
	}
	return int16(y)
}

// LatencySamples estimates the consumer's lag behind the producer, in
// samples: how far writer_cursor is ahead of playback_position (§4.6).
func (b *Beeper) LatencySamples() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writerCursor <= b.playbackPosition {
		return 0
	}
	return float64(b.writerCursor-b.playbackPosition) / cyclesPerSample()
}

// ThrottleDelay reports how long the main loop should sleep to let the
// audio consumer drain the backlog, per §4.6's backpressure policy: zero
// unless estimated latency exceeds beeperThrottleSamples, capped at 8ms.
func (b *Beeper) ThrottleDelay() time.Duration {
	latency := b.LatencySamples()
	if latency <= beeperThrottleSamples {
		return 0
	}
	ms := (latency - beeperThrottleSamples) / float64(wavSampleRate) * 1000
	d := time.Duration(ms * float64(time.Millisecond))
	if d > 8*time.Millisecond {
		d = 8 * time.Millisecond
	}
	return d
}

// Reset clears all queued events and filter state, e.g. on machine reset.
func (b *Beeper) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head, b.tail, b.count = 0, 0, 0
	b.overrun = 0
	b.writerCursor, b.playbackPosition = 0, 0
	b.filterPrev, b.filterYPrev = 0, 0
	b.level = false
	b.lastEventAt, b.haveEvent = 0, false
}
