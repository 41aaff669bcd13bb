package bus

import (
	"testing"

	"github.com/kestrel-dev/goba/goba/cart"
	"github.com/stretchr/testify/assert"
)

func TestNew_noBIOSFabricatesTrampoline(t *testing.T) {
	b := New(nil, cart.New())
	assert.True(t, b.HLEMode())
	assert.NotEmpty(t, b.bios)
}

func TestNew_realBIOSDisablesHLE(t *testing.T) {
	b := New(make([]byte, biosSize), cart.New())
	assert.False(t, b.HLEMode())
}

func TestEWRAM_readWriteRoundTrip(t *testing.T) {
	b := New(nil, cart.New())
	b.Write32(0x02000000, 0xDEADBEEF)
	assert.Equal(t, uint32(0xDEADBEEF), b.Read32(0x02000000))
	assert.Equal(t, uint8(0xEF), b.Read8(0x02000000))
	assert.Equal(t, uint16(0xDEAD), b.Read16(0x02000002))
}

func TestIWRAM_readWriteRoundTrip(t *testing.T) {
	b := New(nil, cart.New())
	b.Write16(0x03000010, 0x1234)
	assert.Equal(t, uint16(0x1234), b.Read16(0x03000010))
}

func TestPalette_byteWriteDuplicatesIntoHalfword(t *testing.T) {
	b := New(nil, cart.New())
	b.Write8(0x05000000, 0x7F)
	assert.Equal(t, uint16(0x7F7F), b.Read16(0x05000000))
}

func TestVRAM_byteWriteDuplicatesIntoHalfword(t *testing.T) {
	b := New(nil, cart.New())
	b.Write8(0x06000000, 0x55)
	assert.Equal(t, uint16(0x5555), b.Read16(0x06000000))
}

func TestOAM_byteWriteIsDropped(t *testing.T) {
	b := New(nil, cart.New())
	b.Write16(0x07000000, 0xABCD)
	b.Write8(0x07000000, 0xFF)
	assert.Equal(t, uint16(0xABCD), b.Read16(0x07000000), "OAM has no byte-write path on real hardware")
}

func TestBIOS_readProtection(t *testing.T) {
	bios := make([]byte, biosSize)
	putLE32(bios, 0, 0x11223344)
	putLE32(bios, 4, 0x55667788)
	b := New(bios, cart.New())

	b.SetPC(0)
	assert.Equal(t, uint32(0x11223344), b.Read32(0))

	b.SetPC(0x08000000) // outside BIOS
	assert.Equal(t, uint32(0x11223344), b.Read32(4), "outside BIOS, last legitimate read is echoed back")
}

func TestFoldVRAM_mirrorsUpperRegion(t *testing.T) {
	assert.Equal(t, uint32(0), foldVRAM(0))
	assert.Equal(t, uint32(0x10000), foldVRAM(0x18000))
	assert.Equal(t, uint32(0), foldVRAM(0x20000), "wraps every 0x20000 bytes")
}

func TestDecode_regionsByTopByte(t *testing.T) {
	assert.Equal(t, regionBIOS, decode(0x00000000))
	assert.Equal(t, regionOpenBus, decode(0x01000000), "0x01 is unmapped, not a BIOS mirror")
	assert.Equal(t, regionEWRAM, decode(0x02000000))
	assert.Equal(t, regionIWRAM, decode(0x03000000))
	assert.Equal(t, regionIO, decode(0x04000000))
	assert.Equal(t, regionPalette, decode(0x05000000))
	assert.Equal(t, regionVRAM, decode(0x06000000))
	assert.Equal(t, regionOAM, decode(0x07000000))
	assert.Equal(t, regionROM, decode(0x08000000))
	assert.Equal(t, regionSave, decode(0x0E000000))
	assert.Equal(t, regionOpenBus, decode(0x10000000))
}

func TestSubsystemAccessorsAreWired(t *testing.T) {
	b := New(nil, cart.New())
	assert.NotNil(t, b.Interrupts())
	assert.NotNil(t, b.Keypad())
	assert.NotNil(t, b.PPU())
	assert.NotNil(t, b.APU())
	assert.NotNil(t, b.DMA())
	assert.NotNil(t, b.Timers())
	assert.NotNil(t, b.Cartridge())
}
