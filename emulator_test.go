package spectrum

import (
	"path/filepath"
	"testing"
)

func zeroROM() []byte {
	return make([]byte, ROMSize) // all 0x00 = NOP
}

func TestRunFrameDeliversInterruptAtFrameBoundary(t *testing.T) {
	e, err := NewEmulator(Config{}, zeroROM())
	if err != nil {
		t.Fatalf("NewEmulator: %v", err)
	}
	e.CPU.IFF1 = true
	e.CPU.IFF2 = true
	e.CPU.IM = IM1

	if err := e.RunFrame(TStatesPerFrame + 40); err != nil {
		t.Fatalf("RunFrame: %v", err)
	}
	if e.CPU.PC < 0x38 || e.CPU.PC > 0x38+20 {
		t.Fatalf("PC = 0x%04X, want close to the IM1 interrupt vector 0x0038 (interrupt should have fired once crossing the frame boundary)", e.CPU.PC)
	}
}

func TestRunFrameDoesNotInterruptWithinASingleFrame(t *testing.T) {
	e, err := NewEmulator(Config{}, zeroROM())
	if err != nil {
		t.Fatalf("NewEmulator: %v", err)
	}
	e.CPU.IFF1 = true
	e.CPU.IM = IM1

	if err := e.RunFrame(100); err != nil {
		t.Fatalf("RunFrame: %v", err)
	}
	if e.CPU.PC == 0x38 {
		t.Fatal("interrupt should not fire well before the frame boundary is crossed")
	}
}

func TestEmulatorLDIRCopiesBlockAndClearsBC(t *testing.T) {
	e, err := NewEmulator(Config{}, zeroROM())
	if err != nil {
		t.Fatal(err)
	}
	cpu := e.CPU
	// LD HL,0x8000 / LD DE,0x8100 / LD BC,0x0004 / LDIR
	prog := []byte{0x21, 0x00, 0x80, 0x11, 0x00, 0x81, 0x01, 0x04, 0x00, 0xED, 0xB0}
	for i, b := range prog {
		e.Memory.Write(uint16(0x8200+i), b)
	}
	e.Memory.Write(0x8000, 0x11)
	e.Memory.Write(0x8001, 0x22)
	e.Memory.Write(0x8002, 0x33)
	e.Memory.Write(0x8003, 0x44)
	cpu.PC = 0x8200

	for i := 0; i < 4; i++ {
		if _, err := cpu.Step(0); err != nil {
			t.Fatalf("setup step %d: %v", i, err)
		}
	}
	// LDIR repeats at the same PC until BC == 0; step until it falls through.
	for cpu.BC() != 0 {
		if _, err := cpu.Step(0); err != nil {
			t.Fatalf("LDIR step: %v", err)
		}
	}
	requireEqualU8(t, "copied byte 0", e.Memory.Read(0x8100), 0x11)
	requireEqualU8(t, "copied byte 1", e.Memory.Read(0x8101), 0x22)
	requireEqualU8(t, "copied byte 2", e.Memory.Read(0x8102), 0x33)
	requireEqualU8(t, "copied byte 3", e.Memory.Read(0x8103), 0x44)
	requireFalse(t, "P/V clear once BC exhausted", cpu.Flag(FlagPV))
}

func TestEmulatorBeeperTogglePropagatesThroughOUT(t *testing.T) {
	e, err := NewEmulator(Config{}, zeroROM())
	if err != nil {
		t.Fatal(err)
	}
	cpu := e.CPU
	// LD A,0x10 / OUT (0xFE),A  -- sets beeper bit high
	prog := []byte{0x3E, 0x10, 0xD3, 0xFE}
	for i, b := range prog {
		e.Memory.Write(uint16(0x8000+i), b)
	}
	cpu.PC = 0x8000
	for i := 0; i < 2; i++ {
		if _, err := cpu.Step(0); err != nil {
			t.Fatal(err)
		}
	}
	e.ULA.ProcessEvents(e.Clock.Now() + 1000)
	if e.Beeper.Len() == 0 {
		t.Fatal("expected a beeper event after OUT (0xFE),A with bit 4 set")
	}
}

func TestAudioDumpPathWritesWAVOnShutdown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.wav")
	e, err := NewEmulator(Config{AudioDumpPath: path}, zeroROM())
	if err != nil {
		t.Fatal(err)
	}
	cpu := e.CPU
	// LD A,0x10 / OUT (0xFE),A / LD A,0x00 / OUT (0xFE),A -- queues a
	// beeper high then low event for the dump's sample pulls to consume
	// (both land within one sample period).
	prog := []byte{0x3E, 0x10, 0xD3, 0xFE, 0x3E, 0x00, 0xD3, 0xFE}
	for i, b := range prog {
		e.Memory.Write(uint16(0x8000+i), b)
	}
	cpu.PC = 0x8000

	if err := e.RunFrame(TStatesPerFrame); err != nil {
		t.Fatalf("RunFrame: %v", err)
	}
	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	src, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV(dump): %v", err)
	}
	if len(src.Waveform.Pulses) == 0 {
		t.Fatal("expected the audio dump to contain at least one pulse")
	}
}

func TestShutdownIsSafeToCallTwice(t *testing.T) {
	e, err := NewEmulator(Config{}, zeroROM())
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Shutdown(); err != nil {
		t.Fatalf("first Shutdown: %v", err)
	}
	if err := e.Shutdown(); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
}

func TestResetRestoresInitialCPUState(t *testing.T) {
	e, err := NewEmulator(Config{}, zeroROM())
	if err != nil {
		t.Fatal(err)
	}
	e.CPU.PC = 0x1234
	e.CPU.Halted = true
	e.Reset()
	requireEqualU16(t, "PC after reset", e.CPU.PC, 0)
	requireFalse(t, "Halted cleared after reset", e.CPU.Halted)
}
