package cpu

import "github.com/kestrel-dev/goba/goba/bit"

// executeARM decodes and executes one ARM-state instruction, matching in
// the strict priority order spec.md §4.1 mandates.
func (c *CPU) executeARM(op uint32) int {
	cond := op >> 28
	if !c.checkCondition(cond) {
		return 1
	}

	switch {
	case op&0x0F000000 == 0x0F000000: // SWI
		c.enterSWI(op)
		return 3

	case op&0x0E000000 == 0x0A000000: // B/BL
		c.armBranch(op)
		return 3

	case op&0x0E000000 == 0x08000000: // LDM/STM
		c.armBlockTransfer(op)
		return 4

	case op&0x0FFFFFF0 == 0x012FFF10: // BX
		c.armBranchExchange(op)
		return 3

	case op&0x0FB00FF0 == 0x01000090: // SWP/SWPB
		c.armSwap(op)
		return 4

	case op&0x0F8000F0 == 0x00800090: // long multiply
		c.armLongMultiply(op)
		return 4

	case op&0x0FC000F0 == 0x00000090: // MUL/MLA
		c.armMultiply(op)
		return 2

	case op&0x0E000090 == 0x00000090 && op&0x00000060 != 0: // halfword/signed transfer
		c.armHalfwordTransfer(op)
		return 3

	case op&0x0FBF0FFF == 0x010F0000 || op&0x0FB0F000 == 0x0120F000: // MRS / MSR
		c.armPSRTransfer(op)
		return 1

	case op&0x0C000000 == 0x04000000: // single data transfer
		c.armSingleTransfer(op)
		return 3

	case op&0x0C000000 == 0x00000000: // data processing (bits 27:26 == 00)
		c.armDataProcessing(op)
		return 1

	default:
		// undefined instruction: treated as a no-op extension point.
		return 1
	}
}

func (c *CPU) reg(i uint32) uint32 {
	if i == 15 {
		return c.r[15]
	}
	return c.r[i]
}

func (c *CPU) setReg(i uint32, v uint32) {
	if i == 15 {
		c.branchTo(v &^ 3)
		return
	}
	c.r[i] = v
}

// armBranch implements B/BL: bits 23:0 are a signed word offset (shifted
// left 2), added to PC (already executing_addr+8).
func (c *CPU) armBranch(op uint32) {
	link := bit.IsSet32(24, op)
	offset := bit.SignExtend(op&0xFFFFFF, 24) << 2
	target := uint32(int64(c.r[15]) + int64(offset))
	if link {
		c.r[14] = c.r[15] - 4
	}
	c.branchTo(target)
}

func (c *CPU) armBranchExchange(op uint32) {
	rn := op & 0xF
	target := c.reg(rn)
	c.setFlag(flagT, target&1 == 1)
	c.branchTo(target &^ 1)
}

// operand2 evaluates a data-processing second operand (immediate or
// shifted register), per spec.md §4.1.
func (c *CPU) operand2(op uint32) shiftResult {
	if bit.IsSet32(25, op) {
		rot4 := (op >> 8) & 0xF
		imm8 := op & 0xFF
		return rotateImm8(imm8, rot4, c.C())
	}

	rm := op & 0xF
	shiftType := (op >> 5) & 0x3
	value := c.reg(rm)

	if bit.IsSet32(4, op) { // register-specified shift amount
		rs := (op >> 8) & 0xF
		amount := c.reg(rs) & 0xFF
		if rm == 15 {
			value += 4 // PC reads as +12 instead of +8 when used as a shifted operand here
		}
		return barrelShift(shiftType, value, amount, false, c.C())
	}

	amount := (op >> 7) & 0x1F
	return barrelShift(shiftType, value, amount, true, c.C())
}

var dpMnemonicSetsFlags = map[uint32]bool{
	0x8: true, 0x9: true, 0xA: true, 0xB: true, // TST,TEQ,CMP,CMN always set flags
}

// armDataProcessing implements the 16 data-processing opcodes.
func (c *CPU) armDataProcessing(op uint32) {
	opcode := (op >> 21) & 0xF
	setFlags := bit.IsSet32(20, op) || dpMnemonicSetsFlags[opcode]
	rn := (op >> 16) & 0xF
	rd := (op >> 12) & 0xF

	op2 := c.operand2(op)
	a := c.reg(rn)
	b := op2.value

	var result uint32
	writesResult := true

	switch opcode {
	case 0x0: // AND
		result = a & b
	case 0x1: // EOR
		result = a ^ b
	case 0x2: // SUB
		result = a - b
		if setFlags {
			c.setFlag(flagC, a >= b)
			c.setFlag(flagV, subOverflow(a, b, result))
		}
	case 0x3: // RSB
		result = b - a
		if setFlags {
			c.setFlag(flagC, b >= a)
			c.setFlag(flagV, subOverflow(b, a, result))
		}
	case 0x4: // ADD
		sum := uint64(a) + uint64(b)
		result = uint32(sum)
		if setFlags {
			c.setFlag(flagC, sum > 0xFFFFFFFF)
			c.setFlag(flagV, addOverflow(a, b, result))
		}
	case 0x5: // ADC
		carry := uint64(0)
		if c.C() {
			carry = 1
		}
		sum := uint64(a) + uint64(b) + carry
		result = uint32(sum)
		if setFlags {
			c.setFlag(flagC, sum > 0xFFFFFFFF)
			c.setFlag(flagV, addOverflow(a, b, result))
		}
	case 0x6: // SBC
		borrow := uint64(1)
		if c.C() {
			borrow = 0
		}
		result = uint32(uint64(a) - uint64(b) - borrow)
		if setFlags {
			c.setFlag(flagC, uint64(a) >= uint64(b)+borrow)
			c.setFlag(flagV, subOverflow(a, b, result))
		}
	case 0x7: // RSC
		borrow := uint64(1)
		if c.C() {
			borrow = 0
		}
		result = uint32(uint64(b) - uint64(a) - borrow)
		if setFlags {
			c.setFlag(flagC, uint64(b) >= uint64(a)+borrow)
			c.setFlag(flagV, subOverflow(b, a, result))
		}
	case 0x8: // TST
		result = a & b
		writesResult = false
	case 0x9: // TEQ
		result = a ^ b
		writesResult = false
	case 0xA: // CMP
		result = a - b
		writesResult = false
		c.setFlag(flagC, a >= b)
		c.setFlag(flagV, subOverflow(a, b, result))
	case 0xB: // CMN
		sum := uint64(a) + uint64(b)
		result = uint32(sum)
		writesResult = false
		c.setFlag(flagC, sum > 0xFFFFFFFF)
		c.setFlag(flagV, addOverflow(a, b, result))
	case 0xC: // ORR
		result = a | b
	case 0xD: // MOV
		result = b
	case 0xE: // BIC
		result = a &^ b
	case 0xF: // MVN
		result = ^b
	}

	if isLogical(opcode) && setFlags {
		c.setFlag(flagC, op2.carry)
	}

	if setFlags {
		if rd == 15 {
			// writing flags via a PC-destination S-bit op restores CPSR from SPSR.
			c.cpsr = *c.spsr()
		} else {
			c.setNZ(result)
		}
	}

	if writesResult {
		c.setReg(rd, result)
	}
}

func isLogical(opcode uint32) bool {
	switch opcode {
	case 0x0, 0x1, 0x8, 0x9, 0xC, 0xD, 0xE, 0xF:
		return true
	default:
		return false
	}
}

func addOverflow(a, b, result uint32) bool {
	return (a^result)&(b^result)&0x80000000 != 0
}
func subOverflow(a, b, result uint32) bool {
	return (a^b)&(a^result)&0x80000000 != 0
}

func (c *CPU) armPSRTransfer(op uint32) {
	useSPSR := bit.IsSet32(22, op)
	if op&0x0FBF0FFF == 0x010F0000 { // MRS
		rd := (op >> 12) & 0xF
		if useSPSR {
			c.setReg(rd, *c.spsr())
		} else {
			c.setReg(rd, c.cpsr)
		}
		return
	}

	// MSR
	var value uint32
	var mask uint32
	if bit.IsSet32(16, op) { // full register write, not just flags
		mask = 0xFFFFFFFF
	} else {
		mask = 0xF0000000
	}
	if bit.IsSet32(25, op) {
		rot4 := (op >> 8) & 0xF
		imm8 := op & 0xFF
		value = rotateImm8(imm8, rot4, c.C()).value
	} else {
		value = c.reg(op & 0xF)
	}
	if useSPSR {
		s := c.spsr()
		*s = (*s &^ mask) | (value & mask)
	} else {
		c.cpsr = (c.cpsr &^ mask) | (value & mask)
	}
}

func (c *CPU) armMultiply(op uint32) {
	rd := (op >> 16) & 0xF
	rn := (op >> 12) & 0xF
	rs := (op >> 8) & 0xF
	rm := op & 0xF
	accumulate := bit.IsSet32(21, op)
	setFlags := bit.IsSet32(20, op)

	result := c.reg(rm) * c.reg(rs)
	if accumulate {
		result += c.reg(rn)
	}
	c.setReg(rd, result)
	if setFlags {
		c.setNZ(result)
	}
}

func (c *CPU) armLongMultiply(op uint32) {
	rdHi := (op >> 16) & 0xF
	rdLo := (op >> 12) & 0xF
	rs := (op >> 8) & 0xF
	rm := op & 0xF
	signed := bit.IsSet32(22, op)
	accumulate := bit.IsSet32(21, op)
	setFlags := bit.IsSet32(20, op)

	var result uint64
	if signed {
		result = uint64(int64(int32(c.reg(rm))) * int64(int32(c.reg(rs))))
	} else {
		result = uint64(c.reg(rm)) * uint64(c.reg(rs))
	}
	if accumulate {
		result += uint64(c.reg(rdHi))<<32 | uint64(c.reg(rdLo))
	}
	c.setReg(rdLo, uint32(result))
	c.setReg(rdHi, uint32(result>>32))
	if setFlags {
		c.setFlag(flagZ, result == 0)
		c.setFlag(flagN, result&0x8000000000000000 != 0)
	}
}

func (c *CPU) armSwap(op uint32) {
	rn := (op >> 16) & 0xF
	rd := (op >> 12) & 0xF
	rm := op & 0xF
	byteSwap := bit.IsSet32(22, op)
	addr := c.reg(rn)
	if byteSwap {
		old := c.bus.Read8(addr)
		c.bus.Write8(addr, uint8(c.reg(rm)))
		c.setReg(rd, uint32(old))
	} else {
		old := c.bus.Read32(addr)
		c.bus.Write32(addr, c.reg(rm))
		c.setReg(rd, rotateRead32(old, addr))
	}
}

// rotateRead32 applies the LDR misaligned-address rotate from spec.md
// §4.1's edge cases.
func rotateRead32(value uint32, addr uint32) uint32 {
	rot := (addr & 3) * 8
	if rot == 0 {
		return value
	}
	return (value >> rot) | (value << (32 - rot))
}

func (c *CPU) armSingleTransfer(op uint32) {
	immediate := !bit.IsSet32(25, op)
	preIndex := bit.IsSet32(24, op)
	up := bit.IsSet32(23, op)
	byteAccess := bit.IsSet32(22, op)
	writeBack := bit.IsSet32(21, op)
	load := bit.IsSet32(20, op)
	rn := (op >> 16) & 0xF
	rd := (op >> 12) & 0xF

	var offset uint32
	if immediate {
		offset = op & 0xFFF
	} else {
		rm := op & 0xF
		shiftType := (op >> 5) & 0x3
		amount := (op >> 7) & 0x1F
		offset = barrelShift(shiftType, c.reg(rm), amount, true, c.C()).value
	}

	base := c.reg(rn)
	addr := base
	if preIndex {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	postAddr := base
	if up {
		postAddr += offset
	} else {
		postAddr -= offset
	}
	// post-indexed addressing always writes back; pre-indexed writes back
	// only if W is set.
	finalBase := addr
	if !preIndex {
		finalBase = postAddr
	}
	doWriteback := !preIndex || writeBack

	if load {
		var value uint32
		if byteAccess {
			value = uint32(c.bus.Read8(addr))
		} else {
			value = rotateRead32(c.bus.Read32(addr), addr)
		}
		if doWriteback && rn != 15 {
			c.r[rn] = finalBase
		}
		c.setReg(rd, value)
	} else {
		value := c.reg(rd)
		if rd == 15 {
			value += 4 // "STR with R15 source: store PC + 4 relative to execution"
		}
		if byteAccess {
			c.bus.Write8(addr, uint8(value))
		} else {
			c.bus.Write32(addr, value)
		}
		if doWriteback && rn != 15 {
			c.r[rn] = finalBase
		}
	}
}

func (c *CPU) armHalfwordTransfer(op uint32) {
	preIndex := bit.IsSet32(24, op)
	up := bit.IsSet32(23, op)
	immediateOffset := bit.IsSet32(22, op)
	writeBack := bit.IsSet32(21, op)
	load := bit.IsSet32(20, op)
	rn := (op >> 16) & 0xF
	rd := (op >> 12) & 0xF
	sh := (op >> 5) & 0x3

	var offset uint32
	if immediateOffset {
		offset = ((op >> 4) & 0xF0) | (op & 0xF)
	} else {
		offset = c.reg(op & 0xF)
	}

	base := c.reg(rn)
	addr := base
	if preIndex {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	if load {
		var value uint32
		switch sh {
		case 1: // LDRH
			value = uint32(rotateRead16(c.bus.Read16(addr), addr))
		case 2: // LDRSB
			value = uint32(int32(int8(c.bus.Read8(addr))))
		case 3: // LDRSH
			if addr&1 != 0 {
				value = uint32(int32(int8(c.bus.Read8(addr)))) // misaligned LDRSH degrades to signed-byte load
			} else {
				value = uint32(int32(int16(c.bus.Read16(addr))))
			}
		}
		c.setReg(rd, value)
	} else { // STRH (sh == 1 only is valid for store; others undefined here)
		c.bus.Write16(addr, uint16(c.reg(rd)))
	}

	if !preIndex {
		if up {
			base += offset
		} else {
			base -= offset
		}
		if rn != 15 {
			c.r[rn] = base
		}
	} else if writeBack && rn != 15 {
		c.r[rn] = addr
	}
}

func rotateRead16(value uint16, addr uint32) uint16 {
	if addr&1 == 0 {
		return value
	}
	return (value >> 8) | (value << 8)
}

func (c *CPU) armBlockTransfer(op uint32) {
	preIndex := bit.IsSet32(24, op)
	up := bit.IsSet32(23, op)
	sBit := bit.IsSet32(22, op)
	writeBack := bit.IsSet32(21, op)
	load := bit.IsSet32(20, op)
	rn := (op >> 16) & 0xF
	list := op & 0xFFFF

	base := c.reg(rn)

	if list == 0 {
		// empty list: transfer only R15, advance base by 0x40 (spec.md §4.1 edge case).
		addr := base
		if !up {
			addr -= 0x40
		}
		if load {
			c.setReg(15, c.bus.Read32(addr))
		} else {
			c.bus.Write32(addr, c.r[15]+4)
		}
		if up {
			c.r[rn] = base + 0x40
		} else {
			c.r[rn] = base - 0x40
		}
		return
	}

	count := 0
	for i := 0; i < 16; i++ {
		if list&(1<<i) != 0 {
			count++
		}
	}

	var startAddr uint32
	if up {
		startAddr = base
	} else {
		startAddr = base - uint32(count)*4
	}
	finalBase := base + uint32(count)*4
	if !up {
		finalBase = startAddr
	}

	addr := startAddr
	if preIndex == up {
		addr += 4
	}

	firstReg := true
	baseIsFirstInList := list&(1<<rn) != 0 && (list & ((1 << rn) - 1)) == 0

	for i := 0; i < 16; i++ {
		if list&(1<<i) == 0 {
			continue
		}
		if load {
			value := c.bus.Read32(addr)
			if uint32(i) == 15 {
				if sBit {
					c.returnFromException(value &^ 3)
				} else {
					c.setReg(15, value)
				}
			} else {
				c.r[i] = value
			}
		} else {
			var value uint32
			if uint32(i) == rn && firstReg && baseIsFirstInList {
				value = base // "if base is first register stored, store original base"
			} else if uint32(i) == rn && writeBack {
				value = finalBase // otherwise store updated base
			} else if uint32(i) == 15 {
				value = c.r[15] + 4
			} else {
				value = c.r[i]
			}
			c.bus.Write32(addr, value)
		}
		firstReg = false
		addr += 4
	}

	if writeBack {
		// "For load with base in list, writeback is suppressed."
		if !(load && list&(1<<rn) != 0) {
			c.r[rn] = finalBase
		}
	}
}
