package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThumbMoveShifted_lsl(t *testing.T) {
	c, _, _ := newTestCPU(0x100)
	c.r[1] = 0x1
	c.executeThumb(0x0049) // LSL R1, R1, #1 -> Rd=R1,Rs=R1,amount=1
	assert.Equal(t, uint32(0x2), c.r[1])
}

func TestThumbAddSubtract_registerAdd(t *testing.T) {
	c, _, _ := newTestCPU(0x100)
	c.r[1] = 5
	c.r[2] = 3
	// format 2: 000110 I Rn/offset Rs Rd, op=0 (ADD reg), Rn=R2, Rs=R1, Rd=R0
	op := uint16(0x1800) | uint16(2<<6) | uint16(1<<3) | 0
	c.executeThumb(op)
	assert.Equal(t, uint32(8), c.r[0])
}

func TestThumbALU_and(t *testing.T) {
	c, _, _ := newTestCPU(0x100)
	c.r[0] = 0xFF
	c.r[1] = 0x0F
	// ALU AND: 010000 0000 Rs Rd
	op := uint16(0x4000) | uint16(1<<3) | 0
	c.executeThumb(op)
	assert.Equal(t, uint32(0x0F), c.r[0])
}

func TestThumbHiRegOps_bx(t *testing.T) {
	c, _, _ := newTestCPU(0x200)
	c.r[8] = 0x14 // high register R8, even => switches to ARM mode
	// BX Rs: 010001 11 0 H2 Rs 000, H2 selects hi register for Rs (R8 = 0b1000, encode with H2 bit and low3=000)
	op := uint16(0x4700) | uint16(1<<6) | uint16(0<<3)
	c.executeThumb(op)
	assert.Equal(t, uint32(0x14), c.PC())
	assert.False(t, c.thumb(), "branching to an even address switches to ARM state")
}

func TestThumbPushPop(t *testing.T) {
	c, _, _ := newTestCPU(0x1000)
	c.r[13] = 0x800
	c.r[0] = 0xAAAA
	c.r[1] = 0xBBBB

	// PUSH {R0,R1}: 1011010 R rlist
	push := uint16(0xB400) | 0x3
	c.executeThumb(push)
	assert.Equal(t, uint32(0x800-8), c.r[13])

	c.r[0] = 0
	c.r[1] = 0
	// POP {R0,R1}
	pop := uint16(0xBC00) | 0x3
	c.executeThumb(pop)
	assert.Equal(t, uint32(0xAAAA), c.r[0])
	assert.Equal(t, uint32(0xBBBB), c.r[1])
	assert.Equal(t, uint32(0x800), c.r[13])
}

func TestThumbConditionalBranch_taken(t *testing.T) {
	c, _, _ := newTestCPU(0x1000)
	c.branchTo(0x100)
	c.setFlag(flagZ, true)
	// BEQ #4 -> PC = PC+4 (PC already reads as addr+4 per thumb PC-relative convention)
	op := uint16(0xD000) | uint16(2) // cond=0000(EQ), offset=2 (*2 =4)
	c.executeThumb(op)
	assert.Equal(t, uint32(0x100+4), c.PC(), "branch target is PC+offset*2")
}

func TestThumbLongBranchLink(t *testing.T) {
	c, _, _ := newTestCPU(0x10000)
	c.branchTo(0x1000)
	pc := c.PC()

	c.executeThumb(0xF000) // first half, offset=0 -> LR = PC
	assert.Equal(t, pc, c.r[14])

	c.executeThumb(0xF801) // second half, offset=1 -> target = LR + 2
	assert.Equal(t, (pc-2)|1, c.r[14], "second half rewrites LR to (next_addr | 1)")
	assert.Equal(t, pc+2, c.PC())
}
