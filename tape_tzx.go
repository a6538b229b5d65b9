// tape_tzx.go - a TZX reader restricted to the standard-loader block
// (ID 0x10, "Standard Speed Data Block") and the archive-info/text
// description blocks a real-world .tzx commonly carries; anything else
// is a hard parse failure with the offending offset, rather than a best-
// effort skip, per the format-fidelity stance this core takes (§4.8).
// Grounded on the retroio TZX reader's header-then-blocks structure and
// its github.com/pkg/errors wrapping style.

package spectrum

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

var tzxSignature = [7]byte{'Z', 'X', 'T', 'a', 'p', 'e', '!'}

// LoadTZX reads a .tzx file into its logical blocks, then expands them
// into one continuous waveform ready for playback.
func LoadTZX(path string) (TapeSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return TapeSource{}, &TapeIOError{Path: path, Op: "load", Err: err}
	}
	blocks, err := DecodeTZX(raw)
	if err != nil {
		return TapeSource{}, err
	}
	return BuildSource(blocks), nil
}

// DecodeTZX parses a .tzx byte stream into the logical blocks playback
// understands. ID 0x10 blocks become TapeBlocks with the pulse timings
// the block specifies; ID 0x30 (text description) and 0x32 (archive
// info) are skipped since they carry no audio; any other block ID is a
// hard failure, since this core does not attempt to approximate block
// kinds it does not implement exactly (turbo loaders, direct recording,
// generalized data blocks and the rest of the TZX 1.20 block set).
func DecodeTZX(raw []byte) ([]TapeBlock, error) {
	if len(raw) < 10 {
		return nil, &TapeParseError{Format: "TZX", Offset: 0, Reason: "file too short for a TZX header"}
	}
	var sig [7]byte
	copy(sig[:], raw[0:7])
	if sig != tzxSignature {
		return nil, &TapeParseError{Format: "TZX", Offset: 0, Reason: "missing ZXTape! signature"}
	}
	// raw[7] is the 0x1A terminator byte; raw[8]/raw[9] are major/minor
	// version, not validated here: this reader accepts any 1.x stream.
	offset := 10
	var blocks []TapeBlock
	for offset < len(raw) {
		id := raw[offset]
		switch id {
		case 0x10:
			b, next, err := decodeTZXStandardBlock(raw, offset+1)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, b)
			offset = next
		case 0x30:
			if offset+2 > len(raw) {
				return nil, &TapeParseError{Format: "TZX", Offset: int64(offset), Reason: "truncated text description block"}
			}
			length := int(raw[offset+1])
			offset += 2 + length
		case 0x32:
			if offset+5 > len(raw) {
				return nil, &TapeParseError{Format: "TZX", Offset: int64(offset), Reason: "truncated archive info block"}
			}
			length := int(binary.LittleEndian.Uint16(raw[offset+1 : offset+3]))
			offset += 3 + length
		default:
			return nil, &TapeParseError{
				Format: "TZX",
				Offset: int64(offset),
				Reason: errors.Errorf("unsupported block ID 0x%02X", id).Error(),
			}
		}
	}
	return blocks, nil
}

// decodeTZXStandardBlock reads the fixed 4-byte header (pause, length)
// of a TZX ID 0x10 block followed by its data, using standard ROM-loader
// pulse timings (the block carries none of its own).
func decodeTZXStandardBlock(raw []byte, offset int) (TapeBlock, int, error) {
	if offset+4 > len(raw) {
		return TapeBlock{}, 0, &TapeParseError{Format: "TZX", Offset: int64(offset), Reason: "truncated standard speed data block header"}
	}
	pause := binary.LittleEndian.Uint16(raw[offset : offset+2])
	length := int(binary.LittleEndian.Uint16(raw[offset+2 : offset+4]))
	dataStart := offset + 4
	dataEnd := dataStart + length
	if dataEnd > len(raw) {
		return TapeBlock{}, 0, &TapeParseError{Format: "TZX", Offset: int64(dataStart), Reason: "truncated standard speed data block payload"}
	}
	data := make([]byte, length)
	copy(data, raw[dataStart:dataEnd])
	b := NewTAPBlock(data)
	b.PauseMillis = pause
	return b, dataEnd, nil
}
