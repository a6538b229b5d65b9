package spectrum

import "testing"

func TestDecodeEncodeTAPRoundTrip(t *testing.T) {
	raw := []byte{
		0x03, 0x00, 0x00, 0xAA, 0xBB, // block 1: length 3, data {0x00,0xAA,0xBB}
		0x02, 0x00, 0xFF, 0x01, // block 2: length 2, data {0xFF,0x01}
	}
	blocks, err := DecodeTAP(raw)
	if err != nil {
		t.Fatalf("DecodeTAP: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	requireEqualU16(t, "block 1 pilot pulses (header)", blocks[0].PilotPulses, StdPilotPulsesHdr)
	requireEqualU16(t, "block 2 pilot pulses (data)", blocks[1].PilotPulses, StdPilotPulsesDat)

	reencoded := EncodeTAP(blocks)
	if len(reencoded) != len(raw) {
		t.Fatalf("re-encoded length = %d, want %d", len(reencoded), len(raw))
	}
	for i := range raw {
		if reencoded[i] != raw[i] {
			t.Fatalf("byte %d = 0x%02X, want 0x%02X", i, reencoded[i], raw[i])
		}
	}
}

func TestDecodeTAPTruncatedLengthErrors(t *testing.T) {
	_, err := DecodeTAP([]byte{0x05})
	if _, ok := err.(*TapeParseError); !ok {
		t.Fatalf("err = %v (%T), want *TapeParseError", err, err)
	}
}

func TestDecodeTAPTruncatedDataErrors(t *testing.T) {
	_, err := DecodeTAP([]byte{0x10, 0x00, 0x01, 0x02})
	if _, ok := err.(*TapeParseError); !ok {
		t.Fatalf("err = %v (%T), want *TapeParseError", err, err)
	}
}

func TestDecodeTAPEmptyErrors(t *testing.T) {
	_, err := DecodeTAP(nil)
	if _, ok := err.(*TapeParseError); !ok {
		t.Fatalf("err = %v (%T), want *TapeParseError", err, err)
	}
}

func TestClassifyBitPulseDistinguishesZeroAndOne(t *testing.T) {
	bit, ok := classifyBitPulse(StdZeroBitLen, StdZeroBitLen)
	requireTrue(t, "zero pulse classified ok", ok)
	requireFalse(t, "zero pulse classified as zero bit", bit)

	bit, ok = classifyBitPulse(StdOneBitLen, StdOneBitLen)
	requireTrue(t, "one pulse classified ok", ok)
	requireTrue(t, "one pulse classified as one bit", bit)
}

func TestClassifyBitPulseRejectsAmbiguousDuration(t *testing.T) {
	_, ok := classifyBitPulse(1200, 1200)
	requireFalse(t, "wildly mismatched pulse should be ambiguous", ok)
}

func TestDecodePulsesToBlockRejectsShortRuns(t *testing.T) {
	pulses := make([]TapePulse, 4)
	_, err := DecodePulsesToBlock(pulses)
	if _, ok := err.(*TapeParseError); !ok {
		t.Fatalf("err = %v (%T), want *TapeParseError", err, err)
	}
}

func TestDecodePulsesToBlockDecodesBytes(t *testing.T) {
	// Encode the byte 0xA5 = 10100101 as 8 zero/one pulse pairs.
	bitsOf := func(b byte) []bool {
		var bits []bool
		for i := 7; i >= 0; i-- {
			bits = append(bits, b&(1<<uint(i)) != 0)
		}
		return bits
	}
	var pulses []TapePulse
	for _, bit := range bitsOf(0xA5) {
		dur := uint32(StdZeroBitLen)
		if bit {
			dur = StdOneBitLen
		}
		pulses = append(pulses, TapePulse{Duration: dur, High: true}, TapePulse{Duration: dur, High: false})
	}
	// Pad to meet the minimum pulse count for a data block, repeating the
	// same byte so the decode doesn't need to special-case a short tail.
	for len(pulses) < minDataPulsesForBlock {
		for _, bit := range bitsOf(0xA5) {
			dur := uint32(StdZeroBitLen)
			if bit {
				dur = StdOneBitLen
			}
			pulses = append(pulses, TapePulse{Duration: dur, High: true}, TapePulse{Duration: dur, High: false})
		}
	}
	out, err := DecodePulsesToBlock(pulses)
	if err != nil {
		t.Fatalf("DecodePulsesToBlock: %v", err)
	}
	if len(out) == 0 || out[0] != 0xA5 {
		t.Fatalf("first decoded byte = 0x%02X, want 0xA5", out[0])
	}
}
