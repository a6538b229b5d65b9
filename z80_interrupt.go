// z80_interrupt.go - maskable interrupt acceptance: mode 0/1/2 vectoring
// for this core's single Z80 target.

package spectrum

// Interrupt delivers a maskable interrupt with the given data-bus byte
// (an RST opcode in IM0, the vector table's low address byte in IM2,
// ignored in IM1) if interrupts are currently enabled, and
// returns the T-states consumed (0 if the interrupt was masked). HALT is
// cleared on acceptance. The EI one-shot delay means an interrupt is
// never accepted in the same Step as the EI that enabled it; callers
// must call Interrupt between Step calls, by which point c.eiDelay has
// already resolved to IFF1=IFF2=true inside Step.
func (c *CPU) Interrupt(dataBus byte) uint32 {
	if !c.IFF1 {
		return 0
	}
	c.IFF1, c.IFF2 = false, false
	c.incrementR()
	if c.Halted {
		c.Halted = false
		c.PC++
	}

	switch c.IM {
	case IM0:
		// In practice the only instruction a Spectrum's interrupt hardware
		// places on the bus is an RST n; its target is encoded in bits 3-5.
		c.push(c.PC)
		c.PC = uint16(dataBus & 0x38)
		return 13
	case IM1:
		c.push(c.PC)
		c.PC = 0x0038
		return 13
	case IM2:
		vectorAddr := uint16(c.I)<<8 | uint16(dataBus)
		lo := c.bus.Read(vectorAddr)
		hi := c.bus.Read(vectorAddr + 1)
		c.push(c.PC)
		c.PC = uint16(lo) | uint16(hi)<<8
		return 19
	}
	return 13
}
