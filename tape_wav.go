// tape_wav.go - RIFF/WAVE mono 8/16-bit PCM load (derived into a
// TapeSource waveform by zero-crossing detection), and 16-bit PCM save/
// append for the tape recorder's WAV output (§4.7, §4.8, §6).

package spectrum

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/pkg/errors"
)

const wavSampleRate = 44100

// LoadWAV reads a mono 8-bit or 16-bit PCM .wav file and derives a
// TapeSource from its zero crossings: each run of samples on one side of
// the midpoint becomes one pulse, with duration converted from sample
// count to T-states at the nominal CPU clock rate. A WAV-derived source
// has no block structure, so its single boundary is pulse 0.
func LoadWAV(path string) (TapeSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return TapeSource{}, &TapeIOError{Path: path, Op: "load", Err: err}
	}
	samples, bitsPerSample, err := parseWAV(raw)
	if err != nil {
		return TapeSource{}, err
	}
	pulses := samplesToPulses(samples, bitsPerSample)
	return TapeSource{
		Waveform:        TapeWaveform{Pulses: pulses},
		BlockBoundaries: []int{0},
	}, nil
}

type wavFmtChunk struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// parseWAV walks RIFF chunks looking for "fmt " and "data", returning
// the raw sample bytes (still packed per bitsPerSample) and that depth.
func parseWAV(raw []byte) ([]byte, int, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, 0, &TapeParseError{Format: "WAV", Offset: 0, Reason: "missing RIFF/WAVE signature"}
	}
	var fmtChunk wavFmtChunk
	var data []byte
	offset := 12
	for offset+8 <= len(raw) {
		id := string(raw[offset : offset+4])
		size := binary.LittleEndian.Uint32(raw[offset+4 : offset+8])
		bodyStart := offset + 8
		bodyEnd := bodyStart + int(size)
		if bodyEnd > len(raw) {
			return nil, 0, &TapeParseError{Format: "WAV", Offset: int64(offset), Reason: "chunk runs past end of file"}
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, &TapeParseError{Format: "WAV", Offset: int64(offset), Reason: "fmt chunk too small"}
			}
			fmtChunk.AudioFormat = binary.LittleEndian.Uint16(raw[bodyStart : bodyStart+2])
			fmtChunk.NumChannels = binary.LittleEndian.Uint16(raw[bodyStart+2 : bodyStart+4])
			fmtChunk.SampleRate = binary.LittleEndian.Uint32(raw[bodyStart+4 : bodyStart+8])
			fmtChunk.ByteRate = binary.LittleEndian.Uint32(raw[bodyStart+8 : bodyStart+12])
			fmtChunk.BlockAlign = binary.LittleEndian.Uint16(raw[bodyStart+12 : bodyStart+14])
			fmtChunk.BitsPerSample = binary.LittleEndian.Uint16(raw[bodyStart+14 : bodyStart+16])
		case "data":
			data = raw[bodyStart:bodyEnd]
		}
		offset = bodyEnd
		if offset%2 == 1 {
			offset++ // chunks are word-aligned
		}
	}
	if data == nil {
		return nil, 0, &TapeParseError{Format: "WAV", Reason: "no data chunk found"}
	}
	if fmtChunk.BitsPerSample != 8 && fmtChunk.BitsPerSample != 16 {
		return nil, 0, &TapeParseError{Format: "WAV", Reason: "only 8-bit or 16-bit PCM is supported"}
	}
	if fmtChunk.NumChannels != 1 {
		return nil, 0, &TapeParseError{Format: "WAV", Reason: "only mono WAV is supported"}
	}
	return data, int(fmtChunk.BitsPerSample), nil
}

func samplesToPulses(data []byte, bitsPerSample int) []TapePulse {
	var pulses []TapePulse
	runLen := 0
	var runHigh bool
	first := true

	emit := func(samplesInRun int, high bool) {
		if samplesInRun == 0 {
			return
		}
		duration := uint32(math.Round(float64(samplesInRun) * CPUClockHz / wavSampleRate))
		pulses = append(pulses, TapePulse{Duration: duration, High: high})
	}

	step := 1
	if bitsPerSample == 16 {
		step = 2
	}
	for i := 0; i+step <= len(data); i += step {
		var high bool
		if bitsPerSample == 8 {
			high = data[i] >= 0x80
		} else {
			v := int16(binary.LittleEndian.Uint16(data[i : i+2]))
			high = v >= 0
		}
		if first {
			runHigh = high
			first = false
		}
		if high == runHigh {
			runLen++
		} else {
			emit(runLen, runHigh)
			runHigh = high
			runLen = 1
		}
	}
	emit(runLen, runHigh)
	return pulses
}

// SaveWAV writes samples (signed 16-bit PCM, mono, wavSampleRate) as a
// new .wav file, truncating any existing file at path.
func SaveWAV(path string, samples []int16) error {
	buf := encodeWAV(samples)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return &TapeIOError{Path: path, Op: "save", Err: err}
	}
	return nil
}

// AppendWAV appends samples to an existing .wav file written by SaveWAV,
// patching the RIFF and data chunk sizes in place. It is an error to
// append to a file that is not a WAV this recorder could have produced
// (ErrTapeStateConflict), since TAP/TZX destinations have no append
// semantics of their own (§4.8 recorder append-vs-overwrite contract).
func AppendWAV(path string, samples []int16) error {
	existing, err := os.ReadFile(path)
	if err != nil {
		return &TapeIOError{Path: path, Op: "append", Err: err}
	}
	if len(existing) < 44 || string(existing[0:4]) != "RIFF" || string(existing[8:12]) != "WAVE" {
		return errors.WithMessage(ErrTapeStateConflict, "append target is not a WAV file this recorder wrote")
	}
	newData := int16ToLE(samples)
	combined := append(existing, newData...)
	dataSize := binary.LittleEndian.Uint32(existing[40:44]) + uint32(len(newData))
	binary.LittleEndian.PutUint32(combined[40:44], dataSize)
	riffSize := uint32(len(combined)) - 8
	binary.LittleEndian.PutUint32(combined[4:8], riffSize)
	if err := os.WriteFile(path, combined, 0o644); err != nil {
		return &TapeIOError{Path: path, Op: "append", Err: err}
	}
	return nil
}

func encodeWAV(samples []int16) []byte {
	data := int16ToLE(samples)
	const headerSize = 44
	buf := make([]byte, headerSize+len(data))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+len(data)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], wavSampleRate)
	byteRate := uint32(wavSampleRate) * 2
	binary.LittleEndian.PutUint32(buf[28:32], byteRate)
	binary.LittleEndian.PutUint16(buf[32:34], 2) // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(data)))
	copy(buf[44:], data)
	return buf
}

func int16ToLE(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(s))
	}
	return out
}
