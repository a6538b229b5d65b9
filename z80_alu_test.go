package spectrum

import "testing"

func TestAdd8SetsHalfCarryAndOverflow(t *testing.T) {
	rig := newCPUTestRig()
	cpu := rig.cpu
	cpu.A = 0x0F
	result := cpu.add8(cpu.A, 0x01, false)
	requireEqualU8(t, "result", result, 0x10)
	requireTrue(t, "H", cpu.Flag(FlagH))
	requireFalse(t, "C", cpu.Flag(FlagC))

	cpu.A = 0x7F
	result = cpu.add8(cpu.A, 0x01, false)
	requireEqualU8(t, "result", result, 0x80)
	requireTrue(t, "P/V (signed overflow)", cpu.Flag(FlagPV))
	requireTrue(t, "S", cpu.Flag(FlagS))
}

func TestSub8BorrowFlags(t *testing.T) {
	rig := newCPUTestRig()
	cpu := rig.cpu
	result := cpu.sub8(0x00, 0x01, false)
	requireEqualU8(t, "result", result, 0xFF)
	requireTrue(t, "C (borrow)", cpu.Flag(FlagC))
	requireTrue(t, "H (half borrow)", cpu.Flag(FlagH))
	requireTrue(t, "N", cpu.Flag(FlagN))
}

func TestIncDecDoNotTouchCarry(t *testing.T) {
	rig := newCPUTestRig()
	cpu := rig.cpu
	cpu.SetFlag(FlagC, true)
	cpu.inc8(0x01)
	requireTrue(t, "C preserved by INC", cpu.Flag(FlagC))
	cpu.SetFlag(FlagC, false)
	cpu.dec8(0x01)
	requireFalse(t, "C preserved by DEC", cpu.Flag(FlagC))
}

func TestIncDetectsOverflowAtOnly0x7F(t *testing.T) {
	rig := newCPUTestRig()
	cpu := rig.cpu
	cpu.inc8(0x7F)
	requireTrue(t, "P/V", cpu.Flag(FlagPV))
	cpu.inc8(0x10)
	requireFalse(t, "P/V", cpu.Flag(FlagPV))
}

func TestDAAAfterBCDAdd(t *testing.T) {
	rig := newCPUTestRig()
	cpu := rig.cpu
	// 0x15 + 0x27 in BCD should read 0x42 after correction.
	cpu.A = cpu.add8(0x15, 0x27, false)
	requireEqualU8(t, "raw sum", cpu.A, 0x3C)
	cpu.daa()
	requireEqualU8(t, "BCD corrected", cpu.A, 0x42)
	requireFalse(t, "C", cpu.Flag(FlagC))
}

func TestRotatesCarryOut(t *testing.T) {
	rig := newCPUTestRig()
	cpu := rig.cpu
	result := cpu.rlc(0x80, true)
	requireEqualU8(t, "result", result, 0x01)
	requireTrue(t, "C", cpu.Flag(FlagC))

	result = cpu.rrc(0x01, true)
	requireEqualU8(t, "result", result, 0x80)
	requireTrue(t, "C", cpu.Flag(FlagC))
}

func TestSLLSetsBit0(t *testing.T) {
	rig := newCPUTestRig()
	cpu := rig.cpu
	result := cpu.sll(0x00)
	requireEqualU8(t, "result", result, 0x01)
}

func TestBitTestSetsZAndParityTogether(t *testing.T) {
	rig := newCPUTestRig()
	cpu := rig.cpu
	cpu.bitTest(3, 0x00)
	requireTrue(t, "Z", cpu.Flag(FlagZ))
	requireTrue(t, "P/V mirrors Z", cpu.Flag(FlagPV))

	cpu.bitTest(3, 0x08)
	requireFalse(t, "Z", cpu.Flag(FlagZ))
	requireFalse(t, "P/V mirrors Z", cpu.Flag(FlagPV))
}

func TestBitTestIndexedUsesAddressHighByteForXY(t *testing.T) {
	rig := newCPUTestRig()
	cpu := rig.cpu
	// Value itself has neither X nor Y bit set, but the supplied address
	// high byte does; X/Y must come from the address, not the value.
	cpu.bitTest(0, 0x00, 0x28)
	requireTrue(t, "X from address high byte", cpu.Flag(FlagX))
	requireTrue(t, "Y from address high byte", cpu.Flag(FlagY))
}

func TestLDIFlagsTakeYFromBit1NotBit5(t *testing.T) {
	rig := newCPUTestRig()
	cpu := rig.cpu
	cpu.A = 0x00
	// transferred=0x02 -> sum=0x02: bit1 set (->Y), bit5 clear, bit3 clear.
	cpu.updateLDIFlags(0x02, 1)
	requireTrue(t, "Y taken from bit 1 of the sum", cpu.Flag(FlagY))
	requireFalse(t, "X", cpu.Flag(FlagX))

	// transferred=0x20 -> sum=0x20: bit5 set but bit1 clear; Y must stay
	// clear since Y comes from bit 1, not bit 5.
	cpu.updateLDIFlags(0x20, 1)
	requireFalse(t, "Y must not be taken from bit 5", cpu.Flag(FlagY))
}

func TestUpdateLDIFlagsParityFromBCNonZero(t *testing.T) {
	rig := newCPUTestRig()
	cpu := rig.cpu
	cpu.updateLDIFlags(0, 0)
	requireFalse(t, "P/V clear when BC reaches zero", cpu.Flag(FlagPV))
	cpu.updateLDIFlags(0, 5)
	requireTrue(t, "P/V set when BC still nonzero", cpu.Flag(FlagPV))
}
