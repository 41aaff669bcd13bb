package cpu

import "github.com/kestrel-dev/goba/goba/bit"

// executeThumb decodes and executes one Thumb-state instruction, matching
// the 19 formats spec.md §4.1 lists, most-specific first.
func (c *CPU) executeThumb(op uint16) int {
	switch {
	case op&0xF800 == 0xF000: // format 19: long branch with link, first half
		c.thumbLongBLFirst(op)
		return 3
	case op&0xF800 == 0xF800: // format 19: long branch with link, second half
		c.thumbLongBLSecond(op)
		return 3
	case op&0xFF00 == 0xDF00: // format 17: SWI
		c.enterSWI(uint32(op))
		return 3
	case op&0xF000 == 0xD000: // format 16: conditional branch
		c.thumbConditionalBranch(op)
		return 2
	case op&0xF800 == 0xE000: // format 18: unconditional branch
		c.thumbUnconditionalBranch(op)
		return 2
	case op&0xF600 == 0xB400: // format 14: push/pop
		c.thumbPushPop(op)
		return 3
	case op&0xFF00 == 0xB000: // format 13: add offset to SP
		c.thumbAddSP(op)
		return 1
	case op&0xF000 == 0xC000: // format 15: multiple load/store
		c.thumbBlockTransfer(op)
		return 4
	case op&0xF000 == 0xA000: // format 12: load address
		c.thumbLoadAddress(op)
		return 1
	case op&0xF000 == 0x9000: // format 11: SP-relative load/store
		c.thumbSPRelative(op)
		return 2
	case op&0xF000 == 0x8000: // format 10: load/store halfword
		c.thumbHalfwordTransfer(op)
		return 2
	case op&0xE000 == 0x6000: // format 9: load/store with immediate offset
		c.thumbImmOffsetTransfer(op)
		return 2
	case op&0xF200 == 0x5200: // format 8: load/store sign-extended byte/halfword
		c.thumbSignExtendedTransfer(op)
		return 2
	case op&0xF200 == 0x5000: // format 7: load/store with register offset
		c.thumbRegOffsetTransfer(op)
		return 2
	case op&0xF800 == 0x4800: // format 6: PC-relative load
		c.thumbPCRelativeLoad(op)
		return 2
	case op&0xFC00 == 0x4400: // format 5: hi register ops / BX
		c.thumbHiRegOps(op)
		return 1
	case op&0xFC00 == 0x4000: // format 4: ALU
		c.thumbALU(op)
		return 1
	case op&0xE000 == 0x2000: // format 3: move/compare/add/subtract immediate
		c.thumbImmediateALU(op)
		return 1
	case op&0xF800 == 0x1800: // format 2: add/subtract
		c.thumbAddSubtract(op)
		return 1
	case op&0xE000 == 0x0000: // format 1: move shifted register
		c.thumbMoveShifted(op)
		return 1
	default:
		return 1
	}
}

func (c *CPU) thumbMoveShifted(op uint16) {
	opc := (op >> 11) & 0x3
	amount := uint32((op >> 6) & 0x1F)
	rs := (op >> 3) & 0x7
	rd := op & 0x7
	value := c.r[rs]
	var res shiftResult
	switch opc {
	case 0:
		res = lsl(value, amount, c.C())
	case 1:
		res = lsr(value, amount, true, c.C())
	case 2:
		res = asr(value, amount, true, c.C())
	}
	c.setFlag(flagC, res.carry)
	c.setNZ(res.value)
	c.r[rd] = res.value
}

func (c *CPU) thumbAddSubtract(op uint16) {
	immediate := bit.IsSet32(10, uint32(op))
	subtract := bit.IsSet32(9, uint32(op))
	rnOrImm := uint32((op >> 6) & 0x7)
	rs := (op >> 3) & 0x7
	rd := op & 0x7

	var operand uint32
	if immediate {
		operand = rnOrImm
	} else {
		operand = c.r[rnOrImm]
	}
	a := c.r[rs]
	var result uint32
	if subtract {
		result = a - operand
		c.setFlag(flagC, a >= operand)
		c.setFlag(flagV, subOverflow(a, operand, result))
	} else {
		sum := uint64(a) + uint64(operand)
		result = uint32(sum)
		c.setFlag(flagC, sum > 0xFFFFFFFF)
		c.setFlag(flagV, addOverflow(a, operand, result))
	}
	c.setNZ(result)
	c.r[rd] = result
}

func (c *CPU) thumbImmediateALU(op uint16) {
	opc := (op >> 11) & 0x3
	rd := (op >> 8) & 0x7
	imm := uint32(op & 0xFF)
	a := c.r[rd]

	switch opc {
	case 0: // MOV
		c.r[rd] = imm
		c.setNZ(imm)
	case 1: // CMP
		result := a - imm
		c.setNZ(result)
		c.setFlag(flagC, a >= imm)
		c.setFlag(flagV, subOverflow(a, imm, result))
	case 2: // ADD
		sum := uint64(a) + uint64(imm)
		result := uint32(sum)
		c.setNZ(result)
		c.setFlag(flagC, sum > 0xFFFFFFFF)
		c.setFlag(flagV, addOverflow(a, imm, result))
		c.r[rd] = result
	case 3: // SUB
		result := a - imm
		c.setNZ(result)
		c.setFlag(flagC, a >= imm)
		c.setFlag(flagV, subOverflow(a, imm, result))
		c.r[rd] = result
	}
}

func (c *CPU) thumbALU(op uint16) {
	opc := (op >> 6) & 0xF
	rs := (op >> 3) & 0x7
	rd := op & 0x7
	a := c.r[rd]
	b := c.r[rs]

	switch opc {
	case 0x0: // AND
		a &= b
		c.setNZ(a)
		c.r[rd] = a
	case 0x1: // EOR
		a ^= b
		c.setNZ(a)
		c.r[rd] = a
	case 0x2: // LSL
		res := lsl(a, b&0xFF, c.C())
		c.setFlag(flagC, res.carry)
		c.setNZ(res.value)
		c.r[rd] = res.value
	case 0x3: // LSR
		res := lsr(a, b&0xFF, false, c.C())
		c.setFlag(flagC, res.carry)
		c.setNZ(res.value)
		c.r[rd] = res.value
	case 0x4: // ASR
		res := asr(a, b&0xFF, false, c.C())
		c.setFlag(flagC, res.carry)
		c.setNZ(res.value)
		c.r[rd] = res.value
	case 0x5: // ADC
		carry := uint64(0)
		if c.C() {
			carry = 1
		}
		sum := uint64(a) + uint64(b) + carry
		result := uint32(sum)
		c.setNZ(result)
		c.setFlag(flagC, sum > 0xFFFFFFFF)
		c.setFlag(flagV, addOverflow(a, b, result))
		c.r[rd] = result
	case 0x6: // SBC
		borrow := uint64(1)
		if c.C() {
			borrow = 0
		}
		result := uint32(uint64(a) - uint64(b) - borrow)
		c.setNZ(result)
		c.setFlag(flagC, uint64(a) >= uint64(b)+borrow)
		c.setFlag(flagV, subOverflow(a, b, result))
		c.r[rd] = result
	case 0x7: // ROR
		res := ror(a, b&0xFF, false, c.C())
		c.setFlag(flagC, res.carry)
		c.setNZ(res.value)
		c.r[rd] = res.value
	case 0x8: // TST
		c.setNZ(a & b)
	case 0x9: // NEG
		result := uint32(0) - b
		c.setNZ(result)
		c.setFlag(flagC, b == 0)
		c.setFlag(flagV, subOverflow(0, b, result))
		c.r[rd] = result
	case 0xA: // CMP
		result := a - b
		c.setNZ(result)
		c.setFlag(flagC, a >= b)
		c.setFlag(flagV, subOverflow(a, b, result))
	case 0xB: // CMN
		sum := uint64(a) + uint64(b)
		result := uint32(sum)
		c.setNZ(result)
		c.setFlag(flagC, sum > 0xFFFFFFFF)
		c.setFlag(flagV, addOverflow(a, b, result))
	case 0xC: // ORR
		a |= b
		c.setNZ(a)
		c.r[rd] = a
	case 0xD: // MUL
		result := a * b
		c.setNZ(result)
		c.r[rd] = result
	case 0xE: // BIC
		a &^= b
		c.setNZ(a)
		c.r[rd] = a
	case 0xF: // MVN
		result := ^b
		c.setNZ(result)
		c.r[rd] = result
	}
}

func (c *CPU) thumbHiRegOps(op uint16) {
	opc := (op >> 8) & 0x3
	h1 := bit.IsSet32(7, uint32(op))
	h2 := bit.IsSet32(6, uint32(op))
	rs := uint32((op >> 3) & 0x7)
	rd := uint32(op & 0x7)
	if h2 {
		rs += 8
	}
	if h1 {
		rd += 8
	}

	switch opc {
	case 0: // ADD
		c.setReg(rd, c.reg(rd)+c.reg(rs))
	case 1: // CMP
		a, b := c.reg(rd), c.reg(rs)
		result := a - b
		c.setNZ(result)
		c.setFlag(flagC, a >= b)
		c.setFlag(flagV, subOverflow(a, b, result))
	case 2: // MOV
		c.setReg(rd, c.reg(rs))
	case 3: // BX (h1 ignored; branches per h2-selected Rs)
		target := c.reg(rs)
		c.setFlag(flagT, target&1 == 1)
		c.branchTo(target &^ 1)
	}
}

func (c *CPU) thumbPCRelativeLoad(op uint16) {
	rd := (op >> 8) & 0x7
	imm := uint32(op&0xFF) * 4
	base := (c.r[15] &^ 3) + imm
	c.r[rd] = c.bus.Read32(base)
}

func (c *CPU) thumbRegOffsetTransfer(op uint16) {
	opc := (op >> 10) & 0x3
	ro := (op >> 6) & 0x7
	rb := (op >> 3) & 0x7
	rd := op & 0x7
	addr := c.r[rb] + c.r[ro]
	switch opc {
	case 0: // STR
		c.bus.Write32(addr, c.r[rd])
	case 1: // STRB
		c.bus.Write8(addr, uint8(c.r[rd]))
	case 2: // LDR
		c.r[rd] = rotateRead32(c.bus.Read32(addr), addr)
	case 3: // LDRB
		c.r[rd] = uint32(c.bus.Read8(addr))
	}
}

func (c *CPU) thumbSignExtendedTransfer(op uint16) {
	opc := (op >> 10) & 0x3
	ro := (op >> 6) & 0x7
	rb := (op >> 3) & 0x7
	rd := op & 0x7
	addr := c.r[rb] + c.r[ro]
	switch opc {
	case 0: // STRH
		c.bus.Write16(addr, uint16(c.r[rd]))
	case 1: // LDSB
		c.r[rd] = uint32(int32(int8(c.bus.Read8(addr))))
	case 2: // LDRH
		c.r[rd] = uint32(rotateRead16(c.bus.Read16(addr), addr))
	case 3: // LDSH (misaligned degrades to signed-byte load)
		if addr&1 != 0 {
			c.r[rd] = uint32(int32(int8(c.bus.Read8(addr))))
		} else {
			c.r[rd] = uint32(int32(int16(c.bus.Read16(addr))))
		}
	}
}

func (c *CPU) thumbImmOffsetTransfer(op uint16) {
	byteAccess := bit.IsSet32(12, uint32(op))
	load := bit.IsSet32(11, uint32(op))
	imm := uint32((op >> 6) & 0x1F)
	rb := (op >> 3) & 0x7
	rd := op & 0x7

	if byteAccess {
		addr := c.r[rb] + imm
		if load {
			c.r[rd] = uint32(c.bus.Read8(addr))
		} else {
			c.bus.Write8(addr, uint8(c.r[rd]))
		}
	} else {
		addr := c.r[rb] + imm*4
		if load {
			c.r[rd] = rotateRead32(c.bus.Read32(addr), addr)
		} else {
			c.bus.Write32(addr, c.r[rd])
		}
	}
}

func (c *CPU) thumbHalfwordTransfer(op uint16) {
	load := bit.IsSet32(11, uint32(op))
	imm := uint32((op>>6)&0x1F) * 2
	rb := (op >> 3) & 0x7
	rd := op & 0x7
	addr := c.r[rb] + imm
	if load {
		c.r[rd] = uint32(rotateRead16(c.bus.Read16(addr), addr))
	} else {
		c.bus.Write16(addr, uint16(c.r[rd]))
	}
}

func (c *CPU) thumbSPRelative(op uint16) {
	load := bit.IsSet32(11, uint32(op))
	rd := (op >> 8) & 0x7
	imm := uint32(op&0xFF) * 4
	addr := c.r[13] + imm
	if load {
		c.r[rd] = rotateRead32(c.bus.Read32(addr), addr)
	} else {
		c.bus.Write32(addr, c.r[rd])
	}
}

func (c *CPU) thumbLoadAddress(op uint16) {
	useSP := bit.IsSet32(11, uint32(op))
	rd := (op >> 8) & 0x7
	imm := uint32(op&0xFF) * 4
	if useSP {
		c.r[rd] = c.r[13] + imm
	} else {
		c.r[rd] = (c.r[15] &^ 3) + imm
	}
}

func (c *CPU) thumbAddSP(op uint16) {
	negative := bit.IsSet32(7, uint32(op))
	imm := uint32(op&0x7F) * 4
	if negative {
		c.r[13] -= imm
	} else {
		c.r[13] += imm
	}
}

func (c *CPU) thumbPushPop(op uint16) {
	load := bit.IsSet32(11, uint32(op))
	includeLRorPC := bit.IsSet32(8, uint32(op))
	list := op & 0xFF

	if load { // POP
		for i := 0; i < 8; i++ {
			if list&(1<<i) != 0 {
				c.r[i] = c.bus.Read32(c.r[13])
				c.r[13] += 4
			}
		}
		if includeLRorPC {
			c.setReg(15, c.bus.Read32(c.r[13])&^1)
			c.r[13] += 4
		}
	} else { // PUSH
		total := popcount8(list)
		if includeLRorPC {
			total++
		}
		c.r[13] -= uint32(total) * 4
		addr := c.r[13]
		for i := 0; i < 8; i++ {
			if list&(1<<i) != 0 {
				c.bus.Write32(addr, c.r[i])
				addr += 4
			}
		}
		if includeLRorPC {
			c.bus.Write32(addr, c.r[14])
		}
	}
}

func popcount8(v uint16) int {
	n := 0
	for i := 0; i < 8; i++ {
		if v&(1<<i) != 0 {
			n++
		}
	}
	return n
}

func (c *CPU) thumbBlockTransfer(op uint16) {
	load := bit.IsSet32(11, uint32(op))
	rb := (op >> 8) & 0x7
	list := op & 0xFF

	if list == 0 {
		// empty-list edge case, per spec.md §4.1: transfer R15, advance base 0x40.
		if load {
			c.setReg(15, c.bus.Read32(c.r[rb])&^1)
		} else {
			c.bus.Write32(c.r[rb], c.r[15]+2)
		}
		c.r[rb] += 0x40
		return
	}

	addr := c.r[rb]
	baseIsFirst := list&(1<<rb) != 0 && (list&((1<<rb)-1)) == 0
	first := true
	for i := 0; i < 8; i++ {
		if list&(1<<i) == 0 {
			continue
		}
		if load {
			c.r[i] = c.bus.Read32(addr)
		} else {
			var v uint32
			if uint16(i) == rb && first && baseIsFirst {
				v = c.r[rb]
			} else {
				v = c.r[i]
			}
			c.bus.Write32(addr, v)
		}
		first = false
		addr += 4
	}
	if !(load && list&(1<<rb) != 0) {
		c.r[rb] = addr
	}
}

func (c *CPU) thumbConditionalBranch(op uint16) {
	cond := uint32((op >> 8) & 0xF)
	if !c.checkCondition(cond) {
		return
	}
	offset := bit.SignExtend(uint32(op&0xFF), 8) << 1
	target := uint32(int64(c.r[15]) + int64(offset))
	c.branchTo(target)
}

func (c *CPU) thumbUnconditionalBranch(op uint16) {
	offset := bit.SignExtend(uint32(op&0x7FF), 11) << 1
	target := uint32(int64(c.r[15]) + int64(offset))
	c.branchTo(target)
}

// thumbLongBLFirst/Second implement the two-halfword BL sequence: the first
// halfword sets LR = PC + (offset<<12); the second computes the final
// target from LR + (offset<<1) and sets LR to the return address with bit 0
// set (Thumb-state marker for the corresponding ARM BLX encoding, unused
// here since this core interprets pure Thumb calls).
func (c *CPU) thumbLongBLFirst(op uint16) {
	offset := bit.SignExtend(uint32(op&0x7FF), 11) << 12
	c.r[14] = uint32(int64(c.r[15]) + int64(offset))
}

func (c *CPU) thumbLongBLSecond(op uint16) {
	offset := uint32(op&0x7FF) << 1
	next := c.r[15] - 2
	target := c.r[14] + offset
	c.r[14] = next | 1
	c.branchTo(target)
}
