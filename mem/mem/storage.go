package mem

import (
	"encoding/binary"
	"fmt"
)

// A Storage keeps the data that the simulated program reads and writes. The
// caches only track tags, so the values themselves live here.
//
// The storage allocates memory in units. Units that are never touched by Read
// and Write are never allocated and read as zero.
type Storage struct {
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity in bytes.
func NewStorage(capacity uint64) *Storage {
	storage := new(Storage)

	storage.unitSize = 4096
	storage.capacity = capacity
	storage.data = make(map[uint64][]byte)

	return storage
}

func (s *Storage) unit(address uint64, create bool) ([]byte, error) {
	if address >= s.capacity {
		return nil, fmt.Errorf(
			"address 0x%x is beyond the storage capacity 0x%x",
			address, s.capacity)
	}

	baseAddr, _ := s.parseAddress(address)

	unit, ok := s.data[baseAddr]
	if !ok && create {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit, nil
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return
}

// Read returns length bytes starting at address.
func (s *Storage) Read(address uint64, length uint64) ([]byte, error) {
	res := make([]byte, length)

	for offset := uint64(0); offset < length; {
		currAddr := address + offset

		unit, err := s.unit(currAddr, false)
		if err != nil {
			return nil, err
		}

		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		n := min(length-offset, baseAddr+s.unitSize-currAddr)

		if unit != nil {
			copy(res[offset:offset+n], unit[inUnitAddr:inUnitAddr+n])
		}

		offset += n
	}

	return res, nil
}

// Write stores data starting at address.
func (s *Storage) Write(address uint64, data []byte) error {
	length := uint64(len(data))

	for offset := uint64(0); offset < length; {
		currAddr := address + offset

		unit, err := s.unit(currAddr, true)
		if err != nil {
			return err
		}

		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		n := min(length-offset, baseAddr+s.unitSize-currAddr)

		copy(unit[inUnitAddr:inUnitAddr+n], data[offset:offset+n])

		offset += n
	}

	return nil
}

// ReadWord reads a little-endian 32-bit word.
func (s *Storage) ReadWord(address uint64) (int32, error) {
	buf, err := s.Read(address, WordSize)
	if err != nil {
		return 0, err
	}

	return int32(binary.LittleEndian.Uint32(buf)), nil
}

// WriteWord writes a little-endian 32-bit word.
func (s *Storage) WriteWord(address uint64, value int32) error {
	buf := make([]byte, WordSize)
	binary.LittleEndian.PutUint32(buf, uint32(value))

	return s.Write(address, buf)
}
