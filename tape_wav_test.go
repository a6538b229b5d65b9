package spectrum

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadWAVRoundTripsSampleCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.wav")
	samples := []int16{0, 10000, -10000, 10000, -10000, 0}
	if err := SaveWAV(path, samples); err != nil {
		t.Fatalf("SaveWAV: %v", err)
	}
	src, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}
	if len(src.Waveform.Pulses) == 0 {
		t.Fatal("expected at least one pulse from a non-silent WAV")
	}
	if len(src.BlockBoundaries) != 1 || src.BlockBoundaries[0] != 0 {
		t.Fatalf("BlockBoundaries = %v, want [0]", src.BlockBoundaries)
	}
}

func TestParseWAVRejectsMissingSignature(t *testing.T) {
	_, _, err := parseWAV([]byte("not a wav file"))
	if _, ok := err.(*TapeParseError); !ok {
		t.Fatalf("err = %v (%T), want *TapeParseError", err, err)
	}
}

func TestParseWAVRejectsStereo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stereo.wav")
	if err := SaveWAV(path, []int16{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	raw[22] = 2 // NumChannels -> stereo
	_, _, err = parseWAV(raw)
	if _, ok := err.(*TapeParseError); !ok {
		t.Fatalf("err = %v (%T), want *TapeParseError for stereo input", err, err)
	}
}

func TestAppendWAVRejectsNonWAVFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notwav.bin")
	if err := os.WriteFile(path, []byte("plain bytes, not RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := AppendWAV(path, []int16{1, 2, 3})
	if err == nil {
		t.Fatal("expected an error appending to a non-WAV file")
	}
}

func TestSamplesToPulsesRoundsRatherThanTruncates(t *testing.T) {
	const n = 4000
	data := make([]byte, n+1)
	for i := 0; i < n; i++ {
		data[i] = 0xFF // high run
	}
	data[n] = 0x00 // one low sample to close the run

	pulses := samplesToPulses(data, 8)
	if len(pulses) == 0 {
		t.Fatal("expected at least one pulse")
	}
	want := uint32(317460) // round(4000 * 3500000/44100), not floor(3500000/44100)*4000 = 316000
	if pulses[0].Duration != want {
		t.Fatalf("Duration = %d, want %d (rounded, not truncated)", pulses[0].Duration, want)
	}
}

func TestAppendWAVGrowsDataChunk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grow.wav")
	if err := SaveWAV(path, []int16{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := AppendWAV(path, []int16{5, 6}); err != nil {
		t.Fatalf("AppendWAV: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	samples, bits, err := parseWAV(raw)
	if err != nil {
		t.Fatalf("parseWAV after append: %v", err)
	}
	if bits != 16 {
		t.Fatalf("bitsPerSample = %d, want 16", bits)
	}
	if len(samples) != 12 { // (4+2) samples * 2 bytes
		t.Fatalf("sample byte length = %d, want 12", len(samples))
	}
}
