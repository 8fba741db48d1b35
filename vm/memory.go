package vm

import (
	"fmt"
)

// Memory segment layout inside the guest's MaxMemory window
const (
	CodeSegmentStart  = 0x00000000
	CodeSegmentSize   = 0x00100000 // 1MB
	DataSegmentStart  = 0x00100000
	DataSegmentSize   = 0x00100000 // 1MB
	HeapSegmentStart  = 0x00200000
	HeapSegmentSize   = 0x00100000 // 1MB
	StackSegmentStart = 0x00300000
	StackSegmentSize  = 0x00100000 // 1MB
)

// MemoryPermission is a segment access permission bitmask
type MemoryPermission byte

const (
	PermNone    MemoryPermission = 0
	PermRead    MemoryPermission = 1 << 0
	PermWrite   MemoryPermission = 1 << 1
	PermExecute MemoryPermission = 1 << 2
)

// MemorySegment represents a region of guest memory with permissions
type MemorySegment struct {
	Start       uint64
	Size        uint64
	Data        []byte
	Permissions MemoryPermission
	Name        string
}

// GuestMemory is the segmented guest memory the decoder fetches from.
// Instruction fetch goes through ExecuteLoad16/ExecuteLoad32 only; the
// data-side accessors exist for program loading and host tooling.
type GuestMemory struct {
	Segments    []*MemorySegment
	AccessCount uint64
	FetchCount  uint64
}

// NewGuestMemory creates guest memory with the standard segment layout.
// The code segment starts out writable so images can be loaded; callers
// enforce W^X afterwards with MakeCodeReadOnly.
func NewGuestMemory() *GuestMemory {
	m := &GuestMemory{
		Segments: make([]*MemorySegment, 0, 4),
	}

	m.AddSegment("code", CodeSegmentStart, CodeSegmentSize, PermRead|PermWrite|PermExecute)
	m.AddSegment("data", DataSegmentStart, DataSegmentSize, PermRead|PermWrite)
	m.AddSegment("heap", HeapSegmentStart, HeapSegmentSize, PermRead|PermWrite)
	m.AddSegment("stack", StackSegmentStart, StackSegmentSize, PermRead|PermWrite)

	return m
}

// AddSegment adds a new memory segment
func (m *GuestMemory) AddSegment(name string, start, size uint64, permissions MemoryPermission) {
	segment := &MemorySegment{
		Start:       start,
		Size:        size,
		Data:        make([]byte, size),
		Permissions: permissions,
		Name:        name,
	}
	m.Segments = append(m.Segments, segment)
}

// findSegment finds the memory segment containing the given address
func (m *GuestMemory) findSegment(address uint64) (*MemorySegment, uint64, error) {
	if address >= MaxMemory {
		return nil, 0, fmt.Errorf("address 0x%08X: %w", address, ErrMemOutOfBound)
	}
	for _, seg := range m.Segments {
		if address >= seg.Start && address < seg.Start+seg.Size {
			return seg, address - seg.Start, nil
		}
	}
	return nil, 0, fmt.Errorf("address 0x%08X is not mapped: %w", address, ErrMemOutOfBound)
}

// checkAlignment checks if an address is properly aligned for the access size
func (m *GuestMemory) checkAlignment(address uint64, size uint64) error {
	if address&(size-1) != 0 {
		return fmt.Errorf("address 0x%08X (size %d): %w", address, size, ErrMemUnaligned)
	}
	return nil
}

// executeCheck validates an instruction fetch of `size` bytes at address.
func (m *GuestMemory) executeCheck(address, size uint64) (*MemorySegment, uint64, error) {
	if err := m.checkAlignment(address, 2); err != nil {
		return nil, 0, err
	}
	seg, offset, err := m.findSegment(address)
	if err != nil {
		return nil, 0, err
	}
	if seg.Permissions&PermExecute == 0 {
		return nil, 0, fmt.Errorf("segment %q at 0x%08X: %w", seg.Name, address, ErrMemNotExecutable)
	}
	if offset+size > seg.Size {
		return nil, 0, fmt.Errorf("fetch of %d bytes at 0x%08X exceeds segment %q: %w",
			size, address, seg.Name, ErrMemOutOfBound)
	}
	return seg, offset, nil
}

// ExecuteLoad16 fetches a 16-bit halfword from executable memory.
func (m *GuestMemory) ExecuteLoad16(address uint64) (uint16, error) {
	seg, offset, err := m.executeCheck(address, 2)
	if err != nil {
		return 0, err
	}
	m.FetchCount++
	return uint16(seg.Data[offset]) | uint16(seg.Data[offset+1])<<8, nil
}

// ExecuteLoad32 fetches a 32-bit word from executable memory. The fetch is
// halfword-aligned, not word-aligned: a 32-bit instruction may legally sit
// on any even address.
func (m *GuestMemory) ExecuteLoad32(address uint64) (uint32, error) {
	seg, offset, err := m.executeCheck(address, 4)
	if err != nil {
		return 0, err
	}
	m.FetchCount++
	return uint32(seg.Data[offset]) |
		uint32(seg.Data[offset+1])<<8 |
		uint32(seg.Data[offset+2])<<16 |
		uint32(seg.Data[offset+3])<<24, nil
}

// ReadByte reads a single byte from memory
func (m *GuestMemory) ReadByte(address uint64) (byte, error) {
	seg, offset, err := m.findSegment(address)
	if err != nil {
		return 0, err
	}
	if seg.Permissions&PermRead == 0 {
		return 0, fmt.Errorf("read of segment %q at 0x%08X: %w", seg.Name, address, ErrMemPermission)
	}
	m.AccessCount++
	return seg.Data[offset], nil
}

// WriteByte writes a single byte to memory
func (m *GuestMemory) WriteByte(address uint64, value byte) error {
	seg, offset, err := m.findSegment(address)
	if err != nil {
		return err
	}
	if seg.Permissions&PermWrite == 0 {
		return fmt.Errorf("write to segment %q at 0x%08X: %w", seg.Name, address, ErrMemPermission)
	}
	m.AccessCount++
	seg.Data[offset] = value
	return nil
}

// ReadWord reads a 32-bit little-endian word from memory
func (m *GuestMemory) ReadWord(address uint64) (uint32, error) {
	if err := m.checkAlignment(address, 4); err != nil {
		return 0, err
	}
	seg, offset, err := m.findSegment(address)
	if err != nil {
		return 0, err
	}
	if seg.Permissions&PermRead == 0 {
		return 0, fmt.Errorf("read of segment %q at 0x%08X: %w", seg.Name, address, ErrMemPermission)
	}
	if offset+4 > seg.Size {
		return 0, fmt.Errorf("word read at 0x%08X exceeds segment %q: %w", address, seg.Name, ErrMemOutOfBound)
	}
	m.AccessCount++
	return uint32(seg.Data[offset]) |
		uint32(seg.Data[offset+1])<<8 |
		uint32(seg.Data[offset+2])<<16 |
		uint32(seg.Data[offset+3])<<24, nil
}

// WriteWord writes a 32-bit little-endian word to memory
func (m *GuestMemory) WriteWord(address uint64, value uint32) error {
	if err := m.checkAlignment(address, 4); err != nil {
		return err
	}
	seg, offset, err := m.findSegment(address)
	if err != nil {
		return err
	}
	if seg.Permissions&PermWrite == 0 {
		return fmt.Errorf("write to segment %q at 0x%08X: %w", seg.Name, address, ErrMemPermission)
	}
	if offset+4 > seg.Size {
		return fmt.Errorf("word write at 0x%08X exceeds segment %q: %w", address, seg.Name, ErrMemOutOfBound)
	}
	m.AccessCount++
	seg.Data[offset] = byte(value)
	seg.Data[offset+1] = byte(value >> 8)
	seg.Data[offset+2] = byte(value >> 16)
	seg.Data[offset+3] = byte(value >> 24)
	return nil
}

// LoadProgram copies a raw program image into memory at the given address.
// The decoder's instruction cache is not coherent with this write; callers
// owning a Decoder must invoke ResetInstructionsCache afterwards.
func (m *GuestMemory) LoadProgram(image []byte, address uint64) error {
	for i, b := range image {
		if err := m.WriteByte(address+uint64(i), b); err != nil {
			return fmt.Errorf("failed to load byte at offset %d: %w", i, err)
		}
	}
	return nil
}

// MakeCodeReadOnly locks the code segment to R+X after loading, restoring
// the W^X invariant.
func (m *GuestMemory) MakeCodeReadOnly() {
	for _, seg := range m.Segments {
		if seg.Name == "code" {
			seg.Permissions = PermRead | PermExecute
		}
	}
}

// Reset zeroes all segments and counters
func (m *GuestMemory) Reset() {
	for _, seg := range m.Segments {
		clear(seg.Data)
	}
	m.AccessCount = 0
	m.FetchCount = 0
}
