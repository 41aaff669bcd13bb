package cpu

// shiftResult is a shifted operand plus the carry-out it produces, per
// spec.md §4.1's barrel shifter contract.
type shiftResult struct {
	value uint32
	carry bool
}

// lsl implements logical-shift-left. With amount 0, value passes through
// unchanged and the returned carry is carryIn (the caller passes the
// current C flag).
func lsl(value uint32, amount uint32, carryIn bool) shiftResult {
	switch {
	case amount == 0:
		return shiftResult{value, carryIn}
	case amount < 32:
		return shiftResult{value << amount, (value>>(32-amount))&1 == 1}
	case amount == 32:
		return shiftResult{0, value&1 == 1}
	default:
		return shiftResult{0, false}
	}
}

// lsr implements logical-shift-right. An immediate amount of 0 is encoded
// by the ARM ISA as a shift of 32 (spec.md §4.1).
func lsr(value uint32, amount uint32, immediate bool, carryIn bool) shiftResult {
	if amount == 0 {
		if immediate {
			amount = 32
		} else {
			return shiftResult{value, carryIn}
		}
	}
	switch {
	case amount < 32:
		return shiftResult{value >> amount, (value>>(amount-1))&1 == 1}
	case amount == 32:
		return shiftResult{0, value&0x80000000 != 0}
	default:
		return shiftResult{0, false}
	}
}

// asr implements arithmetic-shift-right; #0 encodes #32 (sign-fill), per
// spec.md §4.1.
func asr(value uint32, amount uint32, immediate bool, carryIn bool) shiftResult {
	sval := int32(value)
	if amount == 0 {
		if immediate {
			amount = 32
		} else {
			return shiftResult{value, carryIn}
		}
	}
	if amount >= 32 {
		if sval < 0 {
			return shiftResult{0xFFFFFFFF, true}
		}
		return shiftResult{0, false}
	}
	return shiftResult{uint32(sval >> amount), (value>>(amount-1))&1 == 1}
}

// ror implements rotate-right; #0 encodes RRX (rotate through carry), per
// spec.md §4.1.
func ror(value uint32, amount uint32, immediate bool, carryIn bool) shiftResult {
	if amount == 0 {
		if immediate {
			carryOut := value&1 == 1
			result := value >> 1
			if carryIn {
				result |= 0x80000000
			}
			return shiftResult{result, carryOut}
		}
		return shiftResult{value, carryIn}
	}
	amount &= 31
	if amount == 0 {
		return shiftResult{value, value&0x80000000 != 0}
	}
	result := (value >> amount) | (value << (32 - amount))
	return shiftResult{result, result&0x80000000 != 0}
}

// barrelShift applies shiftType (0=LSL,1=LSR,2=ASR,3=ROR) to value by
// amount, honoring the immediate-vs-register #0 distinctions spec.md §4.1
// requires.
func barrelShift(shiftType uint32, value, amount uint32, immediate bool, carryIn bool) shiftResult {
	switch shiftType {
	case 0:
		return lsl(value, amount, carryIn)
	case 1:
		return lsr(value, amount, immediate, carryIn)
	case 2:
		return asr(value, amount, immediate, carryIn)
	default:
		return ror(value, amount, immediate, carryIn)
	}
}

// rotateImm8 implements the data-processing immediate operand: an 8-bit
// value rotated right by 2*rot4, with carry-out from bit 31 of the rotated
// result (carryIn when rot4 is 0), per spec.md §4.1.
func rotateImm8(imm8 uint32, rot4 uint32, carryIn bool) shiftResult {
	if rot4 == 0 {
		return shiftResult{imm8, carryIn}
	}
	amount := rot4 * 2
	result := (imm8 >> amount) | (imm8 << (32 - amount))
	return shiftResult{result, result&0x80000000 != 0}
}
