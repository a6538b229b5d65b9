// z80_ops_main.go - the unprefixed (and DD/FD-substituted) opcode grid,
// decoded via the standard x/y/z octal fields (opcode = xx yyy zzz)
// rather than a literal 256-entry function-pointer table: the grid is
// regular enough that a table transcribed by hand, unable to be compiled
// or run, is a bigger correctness risk than a decode switch built from
// the documented field layout. Helper naming (readR/writeR, add8/sub8/
// inc8/dec8, rlca-style accumulator rotates) keeps the rest of the
// core's vocabulary.

package spectrum

// execMain executes one unprefixed or DD/FD-substituted instruction
// whose opcode byte has already been fetched (and ticked 4 T-states).
func (c *CPU) execMain(opcode byte) (uint32, error) {
	x := opcode >> 6
	y := (opcode >> 3) & 7
	z := opcode & 7
	p := y >> 1
	q := y & 1

	switch x {
	case 0:
		return c.execMainX0(y, z, p, q)
	case 1:
		return c.execMainX1(y, z)
	case 2:
		return c.execAlu(y, z), nil
	case 3:
		return c.execMainX3(opcode, y, z, p, q)
	}
	return c.stepProgress, &UnknownOpcodeError{Opcode: opcode}
}

func (c *CPU) execMainX0(y, z, p, q byte) (uint32, error) {
	switch z {
	case 0:
		switch {
		case y == 0:
			// NOP
		case y == 1:
			c.ExAF()
		case y == 2:
			d := c.fetchDisp()
			c.B--
			if c.B != 0 {
				c.PC = uint16(int32(c.PC) + int32(d))
				c.tick(5)
			}
			c.tick(1)
		case y == 3:
			d := c.fetchDisp()
			c.PC = uint16(int32(c.PC) + int32(d))
			c.tick(5)
		default:
			d := c.fetchDisp()
			if c.condition(y - 4) {
				c.PC = uint16(int32(c.PC) + int32(d))
				c.tick(5)
			}
		}
	case 1:
		if q == 0 {
			c.setRP16(p, c.fetchWord())
		} else {
			result := c.add16(c.indexedHL(), c.rp16(p))
			c.setIndexedHL(result)
			c.tick(7)
		}
	case 2:
		switch {
		case q == 0 && p == 0:
			c.bus.Write(c.BC(), c.A)
			c.tick(3)
		case q == 0 && p == 1:
			c.bus.Write(c.DE(), c.A)
			c.tick(3)
		case q == 0 && p == 2:
			addr := c.fetchWord()
			c.bus.Write(addr, byte(c.indexedHL()))
			c.bus.Write(addr+1, byte(c.indexedHL()>>8))
			c.tick(6)
		case q == 0 && p == 3:
			addr := c.fetchWord()
			c.bus.Write(addr, c.A)
			c.tick(3)
		case q == 1 && p == 0:
			c.A = c.bus.Read(c.BC())
			c.tick(3)
		case q == 1 && p == 1:
			c.A = c.bus.Read(c.DE())
			c.tick(3)
		case q == 1 && p == 2:
			addr := c.fetchWord()
			lo := c.bus.Read(addr)
			hi := c.bus.Read(addr + 1)
			c.setIndexedHL(uint16(lo) | uint16(hi)<<8)
			c.tick(6)
		case q == 1 && p == 3:
			addr := c.fetchWord()
			c.A = c.bus.Read(addr)
			c.tick(3)
		}
	case 3:
		if q == 0 {
			c.setRP16(p, c.rp16(p)+1)
		} else {
			c.setRP16(p, c.rp16(p)-1)
		}
		c.tick(2)
	case 4:
		c.incDecField(y, true)
	case 5:
		c.incDecField(y, false)
	case 6:
		c.loadImmField(y)
	case 7:
		c.accumulatorOp(y)
	}
	return c.stepProgress, nil
}

func (c *CPU) execMainX1(y, z byte) (uint32, error) {
	if y == 6 && z == 6 {
		c.Halted = true
		c.PC--
		return c.stepProgress, nil
	}
	if y == 6 {
		// LD (HL),r[z] / LD (IX+d),r[z] / LD (IY+d),r[z]
		v := c.readRPlain(z)
		addr := c.effectiveAddr()
		c.bus.Write(addr, v)
		c.tick(3)
		return c.stepProgress, nil
	}
	if z == 6 {
		// LD r[y],(HL) / LD r[y],(IX+d) / LD r[y],(IY+d)
		addr := c.effectiveAddr()
		v := c.bus.Read(addr)
		c.tick(3)
		c.writeRPlain(y, v)
		return c.stepProgress, nil
	}
	c.writeR(y, c.readR(z))
	return c.stepProgress, nil
}

func (c *CPU) execMainX3(opcode, y, z, p, q byte) (uint32, error) {
	switch z {
	case 0:
		c.tick(1)
		if c.condition(y) {
			c.PC = c.pop()
		}
	case 1:
		if q == 0 {
			c.setRP2(p, c.pop())
		} else {
			switch p {
			case 0:
				c.PC = c.pop()
			case 1:
				c.Exx()
			case 2:
				c.PC = c.indexedHL()
			case 3:
				c.SP = c.indexedHL()
				c.tick(2)
			}
		}
	case 2:
		addr := c.fetchWord()
		if c.condition(y) {
			c.PC = addr
		}
	case 3:
		switch y {
		case 0:
			c.PC = c.fetchWord()
		case 1:
			// 0xCB: consumed by the prefix dispatch in Step; unreachable here.
		case 2:
			n := c.fetchByte()
			c.bus.Out(uint16(c.A)<<8|uint16(n), c.A)
			c.tick(4)
		case 3:
			n := c.fetchByte()
			c.A = c.bus.In(uint16(c.A)<<8 | uint16(n))
			c.tick(4)
		case 4:
			lo := c.bus.Read(c.SP)
			hi := c.bus.Read(c.SP + 1)
			v := c.indexedHL()
			c.bus.Write(c.SP, byte(v))
			c.bus.Write(c.SP+1, byte(v>>8))
			c.setIndexedHL(uint16(lo) | uint16(hi)<<8)
			c.tick(15)
		case 5:
			hl := c.indexedHL()
			c.setIndexedHL(c.DE())
			c.SetDE(hl)
		case 6:
			c.IFF1, c.IFF2 = false, false
		case 7:
			c.eiDelay = true
		}
	case 4:
		addr := c.fetchWord()
		if c.condition(y) {
			c.tick(1)
			c.push(c.PC)
			c.PC = addr
		}
	case 5:
		if q == 0 {
			c.tick(1)
			c.push(c.rp2(p))
		} else {
			switch p {
			case 0:
				addr := c.fetchWord()
				c.tick(1)
				c.push(c.PC)
				c.PC = addr
			case 1, 2, 3:
				// DD/ED/FD: consumed by the prefix dispatch in Step; unreachable here.
			}
		}
	case 6:
		n := c.fetchByte()
		c.aluApply(y, n)
	case 7:
		c.tick(1)
		c.push(c.PC)
		c.PC = uint16(y) * 8
	}
	return c.stepProgress, nil
}

// condition evaluates the 3-bit cc field: NZ,Z,NC,C,PO,PE,P,M.
func (c *CPU) condition(cc byte) bool {
	switch cc {
	case 0:
		return !c.Flag(FlagZ)
	case 1:
		return c.Flag(FlagZ)
	case 2:
		return !c.Flag(FlagC)
	case 3:
		return c.Flag(FlagC)
	case 4:
		return !c.Flag(FlagPV)
	case 5:
		return c.Flag(FlagPV)
	case 6:
		return !c.Flag(FlagS)
	case 7:
		return c.Flag(FlagS)
	}
	return false
}

func (c *CPU) incDecField(y byte, inc bool) {
	if y == 6 {
		addr := c.effectiveAddr()
		v := c.bus.Read(addr)
		c.tick(4)
		if inc {
			v = c.inc8(v)
		} else {
			v = c.dec8(v)
		}
		c.bus.Write(addr, v)
		c.tick(3)
		return
	}
	v := c.readR(y)
	if inc {
		v = c.inc8(v)
	} else {
		v = c.dec8(v)
	}
	c.writeR(y, v)
}

func (c *CPU) loadImmField(y byte) {
	if y == 6 {
		addr := c.effectiveAddr()
		n := c.fetchByte()
		c.bus.Write(addr, n)
		c.tick(3)
		return
	}
	c.writeR(y, c.fetchByte())
}

func (c *CPU) accumulatorOp(y byte) {
	switch y {
	case 0:
		c.A = c.rlc(c.A, false)
	case 1:
		c.A = c.rrc(c.A, false)
	case 2:
		c.A = c.rl(c.A, false)
	case 3:
		c.A = c.rr(c.A, false)
	case 4:
		c.daa()
	case 5:
		c.cpl()
	case 6:
		c.scf()
	case 7:
		c.ccf()
	}
}

// execAlu executes ALU[y] against operand r[z] (including the (HL)/
// indexed form), used by the x=2 grid.
func (c *CPU) execAlu(y, z byte) uint32 {
	var operand byte
	if z == 6 {
		addr := c.effectiveAddr()
		operand = c.bus.Read(addr)
		c.tick(3)
	} else {
		operand = c.readR(z)
	}
	c.aluApply(y, operand)
	return c.stepProgress
}

func (c *CPU) aluApply(y byte, operand byte) {
	switch y {
	case 0:
		c.A = c.add8(c.A, operand, false)
	case 1:
		c.A = c.add8(c.A, operand, c.Flag(FlagC))
	case 2:
		c.A = c.sub8(c.A, operand, false)
	case 3:
		c.A = c.sub8(c.A, operand, c.Flag(FlagC))
	case 4:
		c.A = c.and8(c.A, operand)
	case 5:
		c.A = c.xor8(c.A, operand)
	case 6:
		c.A = c.or8(c.A, operand)
	case 7:
		c.cp8(c.A, operand)
	}
}
