// z80_ops_cb.go - the CB-prefixed grid (rotate/shift, BIT, RES, SET) and
// its DD CB d/FD CB d ("indexed bit") variant. Grounded on cpu_z80.go's
// CB dispatch and its documented register-copy side effect for indexed
// RES/SET/rotate forms (every indexed non-BIT CB opcode also writes the
// result back into one of B/C/D/E/H/L/A, not just memory).

package spectrum

// execCB executes a CB-prefixed opcode (sub has already been fetched,
// ticking 4 T-states for the CB byte itself plus 4 more already ticked
// for the sub-opcode byte by the caller in z80_decode.go).
func (c *CPU) execCB(sub byte) (uint32, error) {
	x := sub >> 6
	y := (sub >> 3) & 7
	z := sub & 7

	if z == 6 {
		addr := c.HL()
		v := c.bus.Read(addr)
		c.tick(4)
		result, write := c.cbOp(x, y, v)
		if write {
			c.bus.Write(addr, result)
			c.tick(3)
		}
		return c.stepProgress, nil
	}

	v := c.readR(z)
	result, write := c.cbOp(x, y, v)
	if write {
		c.writeR(z, result)
	}
	return c.stepProgress, nil
}

// cbOp applies the rotate/shift/BIT/RES/SET selected by (x,y) to v and
// returns the new value (meaningless for BIT) and whether it should be
// written back (false for BIT, which only sets flags). xyFromAddrHigh is
// forwarded to bitTest: the indexed (IX+d)/(IY+d) form sources the
// undocumented X/Y flags from the effective address's high byte rather
// than from v, unlike every other BIT form.
func (c *CPU) cbOp(x, y byte, v byte, xyFromAddrHigh ...byte) (byte, bool) {
	switch x {
	case 0:
		return c.rotateShift(y, v), true
	case 1:
		c.bitTest(uint(y), v, xyFromAddrHigh...)
		return v, false
	case 2:
		return v &^ (1 << y), true
	case 3:
		return v | (1 << y), true
	}
	return v, false
}

func (c *CPU) rotateShift(y byte, v byte) byte {
	switch y {
	case 0:
		return c.rlc(v, true)
	case 1:
		return c.rrc(v, true)
	case 2:
		return c.rl(v, true)
	case 3:
		return c.rr(v, true)
	case 4:
		return c.sla(v)
	case 5:
		return c.sra(v)
	case 6:
		return c.sll(v)
	case 7:
		return c.srl(v)
	}
	return v
}

// execIndexedCB executes a DD CB d xx / FD CB d xx instruction. The
// displacement byte has already been positioned at PC by the caller
// (the CB sub-opcode byte follows it); this function fetches both. Every
// variant computes its result against the memory operand at IX+d/IY+d;
// non-BIT variants additionally copy that result into the register named
// by z, except when z==6 (the "plain" indexed form, copy target is
// memory only).
func (c *CPU) execIndexedCB() (uint32, error) {
	d := c.fetchDisp()
	sub := c.fetchOpcodeNoR()
	addr := uint16(int32(c.indexBase()) + int32(d))

	x := sub >> 6
	y := (sub >> 3) & 7
	z := sub & 7

	v := c.bus.Read(addr)
	c.tick(7)
	result, write := c.cbOp(x, y, v, byte(addr>>8))
	if write {
		c.bus.Write(addr, result)
		c.tick(3)
		if z != 6 {
			c.writeRPlain(z, result)
		}
	}
	return c.stepProgress, nil
}

// fetchOpcodeNoR reads the final opcode byte of a DDCB/FDCB sequence.
// Real hardware fetches this byte as a plain memory read, not an M1
// opcode fetch, so R is not incremented a third time; only DD and the
// embedded CB byte bump R for this instruction.
func (c *CPU) fetchOpcodeNoR() byte {
	v := c.bus.Read(c.PC)
	c.PC++
	c.tick(2)
	return v
}
