package cart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSaveKind(t *testing.T) {
	assert.Equal(t, SaveNone, DetectSaveKind([]byte("no magic here")))
	assert.Equal(t, SaveSRAM, DetectSaveKind([]byte("junk SRAM_V110 junk")))
	assert.Equal(t, SaveFlash64, DetectSaveKind([]byte("junk FLASH512_V130 junk")))
	assert.Equal(t, SaveFlash128, DetectSaveKind([]byte("junk FLASH1M_V102 junk")))
	assert.Equal(t, SaveEEPROM, DetectSaveKind([]byte("junk EEPROM_V122 junk")))
}

func makeTestROM(t *testing.T, gameCode string, extra []byte) []byte {
	t.Helper()
	rom := make([]byte, 0xB0)
	copy(rom[0xA0:0xAC], "TEST TITLE")
	copy(rom[0xAC:0xB0], gameCode)
	return append(rom, extra...)
}

func TestLoad_detectsSaveKindAndGameCode(t *testing.T) {
	dir := t.TempDir()
	romPath := filepath.Join(dir, "game.gba")
	rom := makeTestROM(t, "ABCE", []byte("SRAM_V110"))
	assert.NoError(t, os.WriteFile(romPath, rom, 0o644))

	c, err := Load(romPath)
	assert.NoError(t, err)
	assert.Equal(t, SaveSRAM, c.SaveKind())
	assert.Equal(t, "ABCE", c.GameCode())
	assert.Equal(t, "TEST TITLE", c.Title())
}

func TestLoad_rejectsEmptyOrOversizedROM(t *testing.T) {
	dir := t.TempDir()

	emptyPath := filepath.Join(dir, "empty.gba")
	assert.NoError(t, os.WriteFile(emptyPath, nil, 0o644))
	_, err := Load(emptyPath)
	assert.Error(t, err)

	bigPath := filepath.Join(dir, "big.gba")
	assert.NoError(t, os.WriteFile(bigPath, make([]byte, MaxROMSize+1), 0o644))
	_, err = Load(bigPath)
	assert.Error(t, err)
}

func TestReadROM_wrapsPastImageEnd(t *testing.T) {
	c := &Cartridge{rom: []byte{0xAA, 0xBB, 0xCC}}
	assert.Equal(t, uint8(0xAA), c.ReadROM8(3))
	assert.Equal(t, uint16(0xBBAA), c.ReadROM16(0))
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	assert.NoError(t, err)
	assert.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	c := &Cartridge{gameCode: "SAVE", kind: SaveSRAM, save: NewSRAM()}
	c.SaveWrite(0x10, 0x42)

	assert.NoError(t, c.PersistSave())
	assert.FileExists(t, filepath.Join(dir, "saves", "SAVE.sav"))

	c2 := &Cartridge{gameCode: "SAVE", kind: SaveSRAM, save: NewSRAM()}
	assert.NoError(t, c2.LoadSave())
	assert.Equal(t, byte(0x42), c2.SaveRead(0x10))
}

func TestLoadSave_missingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	assert.NoError(t, err)
	assert.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	c := &Cartridge{gameCode: "NONE", kind: SaveSRAM, save: NewSRAM()}
	assert.NoError(t, c.LoadSave())
}

func TestNoneBackend(t *testing.T) {
	c := New()
	assert.Equal(t, SaveNone, c.SaveKind())
	assert.Equal(t, byte(0xFF), c.SaveRead(0))
	assert.NoError(t, c.PersistSave())
	assert.NoError(t, c.LoadSave())
}
