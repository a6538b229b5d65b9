// emulator.go - owns one of everything (§3 Ownership) and implements
// the main-loop contract (§4.9): run the CPU until a T-state budget is
// exhausted, servicing the interrupt edge once per frame, draining the
// ULA's write queue, and advancing the tape playback/recorder state
// machines in clock order.

package spectrum

import (
	"fmt"
	"os"
	"time"
)

// Emulator is the top-level aggregate: one Memory, one CPU, one Clock,
// one ULA (with its beeper sink), one Keyboard, and the tape playback/
// recorder pair selected by Config.
type Emulator struct {
	Memory   *Memory
	CPU      *CPU
	Clock    *Clock
	Keyboard *Keyboard
	ULA      *ULA
	Beeper   *Beeper
	Bus      *MachineBus
	Ports    *PortBus

	Playback *TapePlayback
	Recorder *TapeRecorder

	cfg Config

	frameInterruptAt uint64 // clock value of the next interrupt edge

	audioDump     []int16
	audioDumpNext uint64 // next T-state to pull a beeper sample at
}

// audioDumpAmplitude is the raw swing fed to Beeper.NextSample for the
// --audio-dump WAV trace; matches the level beeper_test.go exercises.
const audioDumpAmplitude = 10000

// NewEmulator builds a fully wired machine from cfg. rom must be exactly
// ROMSize bytes; tape input, if configured, is loaded immediately.
func NewEmulator(cfg Config, rom []byte) (*Emulator, error) {
	mem := NewMemory()
	if err := mem.LoadROM(rom); err != nil {
		return nil, err
	}

	beeper := NewBeeper()
	ula := NewULA(beeper)
	keyboard := NewKeyboard()
	ports := NewPortBus(keyboard, ula)
	bus := NewMachineBus(mem, ports)
	cpu := NewCPU(bus)
	ports.AttachCPU(cpu)

	e := &Emulator{
		Memory:   mem,
		CPU:      cpu,
		Clock:    NewClock(),
		Keyboard: keyboard,
		ULA:      ula,
		Beeper:   beeper,
		Bus:      bus,
		Ports:    ports,
		Playback: NewTapePlayback(ula),
		cfg:      cfg,
	}

	if cfg.RecorderOutputPath != "" {
		e.Recorder = NewTapeRecorder(cfg.RecorderOutputPath, cfg.ResolveRecorderFormat(), cfg.RecorderAppend)
		ula.SetMicListener(e.Recorder.OnMicTransition)
		e.Recorder.Start()
	}

	if cfg.TapeInputPath != "" {
		src, err := cfg.ResolveTapeSource()
		if err != nil {
			return nil, err
		}
		e.Playback.Load(src)
		e.Playback.Start(0)
	}

	if cfg.TapeDebug {
		e.Playback.SetBoundaryListener(func(block, pulseIndex int) {
			fmt.Fprintf(os.Stderr, "spectrum48: tape playback crossed into block %d at pulse %d\n", block, pulseIndex)
		})
	}
	if cfg.BeeperLog {
		beeper.SetPushListener(func(when uint64, level bool) {
			fmt.Fprintf(os.Stderr, "spectrum48: beeper t=%d level=%v\n", when, level)
		})
	}

	e.frameInterruptAt = TStatesPerFrame
	return e, nil
}

// RunFrame executes instructions until at least budget T-states have
// elapsed since the call began (the final instruction may overshoot
// budget; this core does not split instructions), delivering exactly one
// maskable interrupt at the 50Hz frame boundary it crosses, and keeping
// the ULA, tape playback and tape recorder advanced to the clock's
// current value throughout (§4.9).
func (e *Emulator) RunFrame(budget uint32) error {
	start := e.Clock.Now()
	target := start + uint64(budget)

	for e.Clock.Now() < target {
		now := e.Clock.Now()

		if now >= e.frameInterruptAt {
			e.frameInterruptAt += TStatesPerFrame
			ackCycles := e.CPU.Interrupt(0xFF)
			now = e.Clock.Advance(ackCycles)
			e.ULA.ProcessEvents(now)
		}

		n, err := e.CPU.Step(now)
		if err != nil {
			return err
		}
		newNow := e.Clock.Advance(n)

		e.ULA.ProcessEvents(newNow)
		if e.Playback != nil {
			e.Playback.Update(newNow)
		}
		if e.Recorder != nil {
			e.Recorder.Tick(newNow)
		}
		e.consumeBeeperSamples(newNow)

		if d := e.Beeper.ThrottleDelay(); d > 0 {
			time.Sleep(d)
		}
	}
	return nil
}

// consumeBeeperSamples stands in for §4.6's real-time audio callback: it
// pulls samples from the beeper at the host sample rate up to upTo
// T-states, which is what advances playback_position and keeps
// ThrottleDelay's latency estimate meaningful. Without some consumer
// doing this, writer_cursor would only ever grow and the main loop would
// throttle permanently the first time any program toggled the beeper.
// Samples are kept for --audio-dump; otherwise they're pulled and
// discarded, same as an audio device that isn't being recorded.
func (e *Emulator) consumeBeeperSamples(upTo uint64) {
	step := uint64(cyclesPerSample())
	if step == 0 {
		step = 1
	}
	dump := e.cfg.AudioDumpPath != ""
	for e.audioDumpNext <= upTo {
		s := e.Beeper.NextSample(e.audioDumpNext, audioDumpAmplitude)
		if dump {
			e.audioDump = append(e.audioDump, s)
		}
		e.audioDumpNext += step
	}
}

// Shutdown flushes any in-progress tape recording to disk, stops tape
// playback, and writes the --audio-dump WAV trace if one was requested.
// Safe to call multiple times (§5 cancellation policy).
func (e *Emulator) Shutdown() error {
	if e.Playback != nil {
		e.Playback.Pause()
	}
	if e.Recorder != nil {
		e.Recorder.Stop()
		if err := e.Recorder.Flush(); err != nil {
			return err
		}
	}
	if e.cfg.AudioDumpPath != "" {
		if err := SaveWAV(e.cfg.AudioDumpPath, e.audioDump); err != nil {
			return err
		}
	}
	return nil
}

// Reset restores every owned component to its power-on state, without
// reloading ROM or tape (callers that want a cold boot re-run
// NewEmulator instead).
func (e *Emulator) Reset() {
	e.CPU.Reset()
	e.ULA.Reset()
	e.Beeper.Reset()
	e.Keyboard.Reset()
	e.frameInterruptAt = TStatesPerFrame
}
