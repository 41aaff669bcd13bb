// Package addr holds the I/O register offset constants and the interrupt
// bit enum shared by every subsystem. Offsets are relative to the I/O
// window base (0x04000000); the bus adds that base when dispatching.
package addr

// Display control / status.
const (
	DISPCNT  uint32 = 0x000
	DISPSTAT uint32 = 0x004
	VCOUNT   uint32 = 0x006
)

// Per-background control, scroll, affine parameters.
const (
	BG0CNT uint32 = 0x008
	BG1CNT uint32 = 0x00A
	BG2CNT uint32 = 0x00C
	BG3CNT uint32 = 0x00E

	BG0HOFS uint32 = 0x010
	BG0VOFS uint32 = 0x012
	BG1HOFS uint32 = 0x014
	BG1VOFS uint32 = 0x016
	BG2HOFS uint32 = 0x018
	BG2VOFS uint32 = 0x01A
	BG3HOFS uint32 = 0x01C
	BG3VOFS uint32 = 0x01E

	BG2PA uint32 = 0x020
	BG2PB uint32 = 0x022
	BG2PC uint32 = 0x024
	BG2PD uint32 = 0x026
	BG2X  uint32 = 0x028 // 32-bit
	BG2Y  uint32 = 0x02C // 32-bit

	BG3PA uint32 = 0x030
	BG3PB uint32 = 0x032
	BG3PC uint32 = 0x034
	BG3PD uint32 = 0x036
	BG3X  uint32 = 0x038
	BG3Y  uint32 = 0x03C
)

// Windows, mosaic, blend.
const (
	WIN0H   uint32 = 0x040
	WIN1H   uint32 = 0x042
	WIN0V   uint32 = 0x044
	WIN1V   uint32 = 0x046
	WININ   uint32 = 0x048
	WINOUT  uint32 = 0x04A
	MOSAIC  uint32 = 0x04C
	BLDCNT  uint32 = 0x050
	BLDALPHA uint32 = 0x052
	BLDY    uint32 = 0x054
)

// Sound registers.
const (
	SOUND1CNT_L uint32 = 0x060
	SOUND1CNT_H uint32 = 0x062
	SOUND1CNT_X uint32 = 0x064
	SOUND2CNT_L uint32 = 0x068
	SOUND2CNT_H uint32 = 0x06C
	SOUND3CNT_L uint32 = 0x070
	SOUND3CNT_H uint32 = 0x072
	SOUND3CNT_X uint32 = 0x074
	SOUND4CNT_L uint32 = 0x078
	SOUND4CNT_H uint32 = 0x07C
	SOUNDCNT_L  uint32 = 0x080
	SOUNDCNT_H  uint32 = 0x082
	SOUNDCNT_X  uint32 = 0x084
	SOUNDBIAS   uint32 = 0x088
	WAVE_RAM0   uint32 = 0x090
	WAVE_RAM_END uint32 = 0x09F
	FIFO_A      uint32 = 0x0A0
	FIFO_B      uint32 = 0x0A4
)

// DMA channels (0-3), four registers each.
const (
	DMA0SAD  uint32 = 0x0B0
	DMA0DAD  uint32 = 0x0B4
	DMA0CNT_L uint32 = 0x0B8
	DMA0CNT_H uint32 = 0x0BA

	DMA1SAD  uint32 = 0x0BC
	DMA1DAD  uint32 = 0x0C0
	DMA1CNT_L uint32 = 0x0C4
	DMA1CNT_H uint32 = 0x0C6

	DMA2SAD  uint32 = 0x0C8
	DMA2DAD  uint32 = 0x0CC
	DMA2CNT_L uint32 = 0x0D0
	DMA2CNT_H uint32 = 0x0D2

	DMA3SAD  uint32 = 0x0D4
	DMA3DAD  uint32 = 0x0D8
	DMA3CNT_L uint32 = 0x0DC
	DMA3CNT_H uint32 = 0x0DE
)

// Timers (0-3), counter/reload + control.
const (
	TM0CNT_L uint32 = 0x100
	TM0CNT_H uint32 = 0x102
	TM1CNT_L uint32 = 0x104
	TM1CNT_H uint32 = 0x106
	TM2CNT_L uint32 = 0x108
	TM2CNT_H uint32 = 0x10A
	TM3CNT_L uint32 = 0x10C
	TM3CNT_H uint32 = 0x10E
)

// Keypad.
const (
	KEYINPUT uint32 = 0x130
	KEYCNT   uint32 = 0x132
)

// Interrupt / system control.
const (
	IE      uint32 = 0x200
	IF      uint32 = 0x202
	WAITCNT uint32 = 0x204
	IME     uint32 = 0x208
	POSTFLG uint32 = 0x300
	HALTCNT uint32 = 0x301
)

// Interrupt is one of the fourteen GBA interrupt sources, as a bit index into
// IE/IF (bit position, not a bitmask — callers shift as needed).
type Interrupt uint8

const (
	IRQVBlank Interrupt = iota
	IRQHBlank
	IRQVCount
	IRQTimer0
	IRQTimer1
	IRQTimer2
	IRQTimer3
	IRQSerial
	IRQDMA0
	IRQDMA1
	IRQDMA2
	IRQDMA3
	IRQKeypad
	IRQGamepak
)

// Bit returns the IE/IF bitmask for this interrupt source.
func (i Interrupt) Bit() uint16 {
	return 1 << uint(i)
}
