// tape_tap.go - the TAP container format: a flat sequence of
// length-prefixed blocks, each played back with standard ROM-loader
// pulse timings (§4.8, §6), plus the tolerance-based pulse-to-bit
// decoder used when turning a captured waveform back into bytes
// (§4.8.1).

package spectrum

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

// LoadTAP reads a .tap file into its logical blocks, then expands them
// into one continuous waveform ready for playback.
func LoadTAP(path string) (TapeSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return TapeSource{}, &TapeIOError{Path: path, Op: "load", Err: err}
	}
	blocks, err := DecodeTAP(raw)
	if err != nil {
		return TapeSource{}, err
	}
	return BuildSource(blocks), nil
}

// DecodeTAP splits a .tap file's byte stream into its logical blocks. A
// TAP block is a 16-bit little-endian length followed by that many data
// bytes (flag byte + payload + checksum); the format has no further
// structure.
func DecodeTAP(raw []byte) ([]TapeBlock, error) {
	var blocks []TapeBlock
	offset := 0
	for offset < len(raw) {
		if offset+2 > len(raw) {
			return nil, &TapeParseError{Format: "TAP", Offset: int64(offset), Reason: "truncated block length"}
		}
		length := binary.LittleEndian.Uint16(raw[offset : offset+2])
		offset += 2
		if offset+int(length) > len(raw) {
			return nil, &TapeParseError{Format: "TAP", Offset: int64(offset), Reason: "truncated block data"}
		}
		data := make([]byte, length)
		copy(data, raw[offset:offset+int(length)])
		offset += int(length)
		blocks = append(blocks, NewTAPBlock(data))
	}
	if len(blocks) == 0 {
		return nil, &TapeParseError{Format: "TAP", Offset: 0, Reason: "no blocks found"}
	}
	return blocks, nil
}

// EncodeTAP serialises blocks back into .tap container bytes, for the
// tape recorder's TAP output format.
func EncodeTAP(blocks []TapeBlock) []byte {
	var out []byte
	var lenBuf [2]byte
	for _, b := range blocks {
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(b.Data)))
		out = append(out, lenBuf[0], lenBuf[1])
		out = append(out, b.Data...)
	}
	return out
}

// bitDecodeTolerance is the slack either side of the standard zero-bit
// and one-bit pulse-pair durations; a captured pair further from both
// than this is rejected as ambiguous rather than guessed at (§4.8.1).
const bitDecodeTolerance = 300

// classifyBitPulse decides whether a pair of half-pulses (first, second,
// each already stripped of level and expressed as a duration in
// T-states) encodes a zero bit or a one bit, by comparing their combined
// duration against the midpoint between twice the standard zero-bit and
// one-bit half-pulse lengths. Ties and out-of-tolerance pairs report ok
// = false so the caller can fail the decode with context instead of
// guessing.
func classifyBitPulse(first, second uint32) (bit bool, ok bool) {
	combined := int(first) + int(second)
	zeroCombined := 2 * StdZeroBitLen
	oneCombined := 2 * StdOneBitLen
	midpoint := (zeroCombined + oneCombined) / 2
	distZero := abs(combined - zeroCombined)
	distOne := abs(combined - oneCombined)
	if distZero > bitDecodeTolerance && distOne > bitDecodeTolerance {
		return false, false
	}
	return combined >= midpoint, true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// pulseTolerance is §4.8.1's per-pulse slack, max(ref/4, 200) T-states.
func pulseTolerance(ref uint32) uint32 {
	t := ref / 4
	if t < 200 {
		t = 200
	}
	return t
}

func withinPulseTolerance(d, ref uint32) bool {
	return uint32(abs(int(d)-int(ref))) <= pulseTolerance(ref)
}

// minPilotPulses is §4.8.1's "require ≥100 pilot pulses to enter sync":
// a shorter run of pilot-length pulses is noise, not a genuine pilot tone.
const minPilotPulses = 100

// stripPilotAndSync consumes a leading pilot tone (individual half-pulses
// within tolerance of StdPilotPulseLen) and the two sync pulses that follow
// it (StdSync1Len, StdSync2Len) from the front of a raw captured pulse run,
// returning the remaining data-phase pulses that DecodePulsesToBlock
// expects. A captured save always begins with thousands of pilot pulses
// and the sync pair before any data bit pulses appear (§4.8, §4.8.1); a
// run lacking a recognizable pilot is returned unchanged, since callers
// may already hand in a pre-stripped data-only run (as the package's
// direct DecodePulsesToBlock tests do).
func stripPilotAndSync(pulses []TapePulse) []TapePulse {
	i := 0
	for i < len(pulses) && withinPulseTolerance(pulses[i].Duration, StdPilotPulseLen) {
		i++
	}
	if i < minPilotPulses {
		return pulses
	}
	if i+1 < len(pulses) &&
		withinPulseTolerance(pulses[i].Duration, StdSync1Len) &&
		withinPulseTolerance(pulses[i+1].Duration, StdSync2Len) {
		i += 2
	}
	return pulses[i:]
}

// DecodePulsesToBlock turns a decoded data-phase pulse train (already
// past pilot/sync, an even number of half-pulses each a (zero|one)-bit
// pair) into bytes, MSB-first per byte, stopping at the last full byte.
// A pulse count below the documented minimum data-block heuristic (at
// least 100 data pulses, i.e. 50 bits) is treated as noise, not a tape
// block (§4.8).
const minDataPulsesForBlock = 100

func DecodePulsesToBlock(pulses []TapePulse) ([]byte, error) {
	if len(pulses) < minDataPulsesForBlock {
		return nil, &TapeParseError{Format: "TAP", Reason: "fewer than the minimum pulse count for a data block"}
	}
	var bytesOut []byte
	var cur byte
	var bitsInCur int
	for i := 0; i+1 < len(pulses); i += 2 {
		bit, ok := classifyBitPulse(pulses[i].Duration, pulses[i+1].Duration)
		if !ok {
			return nil, errors.Errorf("spectrum: ambiguous bit pulse at index %d (durations %d/%d)", i, pulses[i].Duration, pulses[i+1].Duration)
		}
		cur <<= 1
		if bit {
			cur |= 1
		}
		bitsInCur++
		if bitsInCur == 8 {
			bytesOut = append(bytesOut, cur)
			cur = 0
			bitsInCur = 0
		}
	}
	return bytesOut, nil
}
