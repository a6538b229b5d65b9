// z80_decode.go - instruction fetch, prefix collapsing and the Step/
// Interrupt entry points described by §4.2: a fetch-and-dispatch loop
// that decodes the base, CB, ED and indexed grids by their x/y/z opcode
// fields, since they are too regular to hand-author as 256 literal
// closures without risking a transcription mistake nothing here can
// catch.

package spectrum

// opcodeFunc executes one base (or DD/FD-prefixed) opcode and returns
// the T-states it consumed, or an error for bytes this implementation
// does not decode a behaviour for (reserved ED slots are NOPs, not
// errors, matching real hardware; see z80_ops_ed.go).
type opcodeFunc func(c *CPU) (uint32, error)

// Step executes exactly one instruction starting at base T-states and
// returns the number of T-states it consumed. base becomes the anchor
// for Cursor() for the duration of this call.
func (c *CPU) Step(base uint64) (uint32, error) {
	c.stepBase = base
	c.stepProgress = 0
	c.idx = indexNone

	if c.eiDelay {
		c.IFF1 = true
		c.IFF2 = true
		c.eiDelay = false
	}

	if c.Halted {
		c.incrementR()
		c.tick(4)
		return c.stepProgress, nil
	}

	opcode := c.fetchOpcode()
	prefixBytes := 0
	for opcode == 0xDD || opcode == 0xFD {
		if opcode == 0xDD {
			c.idx = indexIX
		} else {
			c.idx = indexIY
		}
		prefixBytes++
		if prefixBytes > 8 {
			// A pathological run of redundant prefix bytes; real hardware
			// just keeps consuming them. Bail out to avoid spinning forever
			// on a corrupt instruction stream.
			return c.stepProgress, &UnknownOpcodeError{PC: c.PC, Prefix: "DD/FD", Opcode: opcode}
		}
		opcode = c.fetchOpcode()
	}

	switch opcode {
	case 0xCB:
		if c.idx != indexNone {
			return c.execIndexedCB()
		}
		sub := c.fetchOpcode()
		n, err := c.execCB(sub)
		return c.stepProgress, errOrAttach(c, n, err, "CB", sub)
	case 0xED:
		sub := c.fetchOpcode()
		n, err := c.execED(sub)
		return c.stepProgress, errOrAttach(c, n, err, "ED", sub)
	default:
		var prefix string
		switch c.idx {
		case indexIX:
			prefix = "DD"
		case indexIY:
			prefix = "FD"
		}
		n, err := c.execMain(opcode)
		return c.stepProgress, errOrAttach(c, n, err, prefix, opcode)
	}
}

// errOrAttach folds an opcodeFunc's T-state count into the running
// progress counter and, on failure, annotates the error with PC/prefix
// context. n is ignored on error since execMain/execCB/execED already
// ticked whatever partial progress occurred before failing.
func errOrAttach(c *CPU, n uint32, err error, prefix string, opcode byte) error {
	if err != nil {
		if uo, ok := err.(*UnknownOpcodeError); ok {
			uo.PC = c.PC
			if uo.Prefix == "" {
				uo.Prefix = prefix
			}
			uo.Opcode = opcode
		}
		return err
	}
	return nil
}

// fetchOpcode reads the byte at PC, advances PC, bumps R and ticks 4
// T-states: the cost of one M1 opcode-fetch cycle. Used for every byte
// that is itself a prefix or a final opcode (not for operand bytes like
// displacements or immediates, which use fetchByte instead).
func (c *CPU) fetchOpcode() byte {
	v := c.bus.Read(c.PC)
	c.PC++
	c.incrementR()
	c.tick(4)
	return v
}

// fetchByte reads an operand byte at PC, advances PC and ticks 3
// T-states (a plain memory read cycle), without touching R.
func (c *CPU) fetchByte() byte {
	v := c.bus.Read(c.PC)
	c.PC++
	c.tick(3)
	return v
}

// fetchDisp reads a displacement byte for an indexed instruction, as a
// signed 8-bit value. Same timing as fetchByte.
func (c *CPU) fetchDisp() int8 {
	return int8(c.fetchByte())
}

// fetchWord reads a little-endian 16-bit immediate at PC, advancing PC
// by 2 and ticking 6 T-states (two plain memory reads).
func (c *CPU) fetchWord() uint16 {
	lo := c.fetchByte()
	hi := c.fetchByte()
	return uint16(lo) | uint16(hi)<<8
}

// push writes a 16-bit value to the stack, predecrementing SP, ticking
// 6 T-states (two memory writes); the 1 extra T-state of internal
// register handling that PUSH/CALL/RST need is ticked by the caller.
func (c *CPU) push(v uint16) {
	c.SP--
	c.bus.Write(c.SP, byte(v>>8))
	c.SP--
	c.bus.Write(c.SP, byte(v))
	c.tick(6)
}

func (c *CPU) pop() uint16 {
	lo := c.bus.Read(c.SP)
	c.SP++
	hi := c.bus.Read(c.SP)
	c.SP++
	c.tick(6)
	return uint16(lo) | uint16(hi)<<8
}

// effectiveAddr returns the address a (HL)-style operand resolves to under
// the current prefix state: HL itself with no active index, or IX/IY
// plus a freshly-fetched displacement byte when indexed. The 5 extra
// T-states for computing IX+d/IY+d (beyond the displacement fetch
// itself) are ticked here, matching the generic "indexed (HL) access"
// cost used throughout the timing table.
func (c *CPU) effectiveAddr() uint16 {
	if c.idx == indexNone {
		return c.HL()
	}
	d := c.fetchDisp()
	c.tick(5)
	return uint16(int32(c.indexBase()) + int32(d))
}

// readR reads an 8-bit operand by its 3-bit register code (z or y
// field), substituting IXh/IXl/IYh/IYl for H/L when a prefix is active.
// Code 6 ((HL)) is not handled here: callers route that case through
// effectiveAddr and a direct bus.Read, since it requires a cached
// displacement and distinct timing.
func (c *CPU) readR(code byte) byte {
	switch code {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.indexHigh()
	case 5:
		return c.indexLow()
	case 7:
		return c.A
	}
	panic("readR: code 6 must be handled by the caller")
}

func (c *CPU) writeR(code byte, v byte) {
	switch code {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.setIndexHigh(v)
	case 5:
		c.setIndexLow(v)
	case 7:
		c.A = v
	default:
		panic("writeR: code 6 must be handled by the caller")
	}
}

// readRPlain/writeRPlain read/write a register operand by code without
// ever substituting IXh/IXl/IYh/IYl for H/L, even while a prefix is
// active. Used for the non-memory operand of LD (HL)/(IX+d)/(IY+d),r and
// LD r,(HL)/(IX+d)/(IY+d): the indexed-addressing substitution applies
// only to the memory side of those instructions, not to a plain H/L
// register reference appearing alongside it (a documented quirk: LD
// (IX+d),L stores L, not IYL/IXL).
func (c *CPU) readRPlain(code byte) byte {
	switch code {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 7:
		return c.A
	}
	panic("readRPlain: code 6 must be handled by the caller")
}

func (c *CPU) writeRPlain(code byte, v byte) {
	switch code {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 7:
		c.A = v
	default:
		panic("writeRPlain: code 6 must be handled by the caller")
	}
}

func (c *CPU) indexHigh() byte {
	switch c.idx {
	case indexIX:
		return byte(c.IX >> 8)
	case indexIY:
		return byte(c.IY >> 8)
	default:
		return c.H
	}
}

func (c *CPU) indexLow() byte {
	switch c.idx {
	case indexIX:
		return byte(c.IX)
	case indexIY:
		return byte(c.IY)
	default:
		return c.L
	}
}

func (c *CPU) setIndexHigh(v byte) {
	switch c.idx {
	case indexIX:
		c.IX = uint16(v)<<8 | c.IX&0xFF
	case indexIY:
		c.IY = uint16(v)<<8 | c.IY&0xFF
	default:
		c.H = v
	}
}

func (c *CPU) setIndexLow(v byte) {
	switch c.idx {
	case indexIX:
		c.IX = c.IX&0xFF00 | uint16(v)
	case indexIY:
		c.IY = c.IY&0xFF00 | uint16(v)
	default:
		c.L = v
	}
}

// rp16 reads a register-pair operand selected by the 2-bit p field for
// the "rp" table (BC/DE/HL-or-index/SP), used by 16-bit LD/INC/DEC/ADD.
func (c *CPU) rp16(p byte) uint16 {
	switch p {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.indexedHL()
	case 3:
		return c.SP
	}
	panic("rp16: invalid p")
}

func (c *CPU) setRP16(p byte, v uint16) {
	switch p {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.setIndexedHL(v)
	case 3:
		c.SP = v
	}
}

// rp2 reads a register-pair operand selected by p for the "rp2" table
// (BC/DE/HL-or-index/AF), used by PUSH/POP.
func (c *CPU) rp2(p byte) uint16 {
	switch p {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.indexedHL()
	case 3:
		return c.AF()
	}
	panic("rp2: invalid p")
}

func (c *CPU) setRP2(p byte, v uint16) {
	switch p {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.setIndexedHL(v)
	case 3:
		c.SetAF(v)
	}
}

func (c *CPU) indexedHL() uint16 {
	switch c.idx {
	case indexIX:
		return c.IX
	case indexIY:
		return c.IY
	default:
		return c.HL()
	}
}

func (c *CPU) setIndexedHL(v uint16) {
	switch c.idx {
	case indexIX:
		c.IX = v
	case indexIY:
		c.IY = v
	default:
		c.SetHL(v)
	}
}
