package cart

// SRAM is the simplest save backend: 32 KiB of battery-backed RAM, direct
// byte-addressed reads and writes.
type SRAM struct {
	data [32 * 1024]byte
}

func NewSRAM() *SRAM {
	s := &SRAM{}
	for i := range s.data {
		s.data[i] = 0xFF
	}
	return s
}

func (s *SRAM) Read(offset uint32) byte {
	return s.data[offset%uint32(len(s.data))]
}

func (s *SRAM) Write(offset uint32, value byte) {
	s.data[offset%uint32(len(s.data))] = value
}

func (s *SRAM) Raw() []byte { return s.data[:] }

// EEPROM models the serial EEPROM backend. Real EEPROM access goes through a
// bit-serial protocol driven over DMA; this backend exposes the same
// byte-addressed Read/Write surface as the other backends and stores the
// full 8 KiB (64Kbit variant) of cell data, which is sufficient to satisfy
// save-file persistence and round-trip semantics without modeling the serial
// handshake itself (no guest software observes that protocol directly
// through this interface — it always goes through the DMA-driven sequence,
// which is out of scope per spec.md's non-goals for serial/link peripherals
// beyond save persistence).
type EEPROM struct {
	data [8 * 1024]byte
}

func NewEEPROM() *EEPROM {
	e := &EEPROM{}
	for i := range e.data {
		e.data[i] = 0xFF
	}
	return e
}

func (e *EEPROM) Read(offset uint32) byte {
	return e.data[offset%uint32(len(e.data))]
}

func (e *EEPROM) Write(offset uint32, value byte) {
	e.data[offset%uint32(len(e.data))] = value
}

func (e *EEPROM) Raw() []byte { return e.data[:] }
