package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/riscv-emulator/vm"
)

func TestExecuteLoadLittleEndian(t *testing.T) {
	m := vm.NewGuestMemory()
	require.NoError(t, m.LoadProgram([]byte{0x93, 0x02, 0x10, 0x00}, 0x1000))

	half, err := m.ExecuteLoad16(0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0293), half)

	word, err := m.ExecuteLoad32(0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00100293), word)
}

func TestExecuteLoadPermissions(t *testing.T) {
	m := vm.NewGuestMemory()
	require.NoError(t, m.WriteWord(vm.DataSegmentStart, 0x00100293))

	_, err := m.ExecuteLoad32(vm.DataSegmentStart)
	assert.ErrorIs(t, err, vm.ErrMemNotExecutable, "data segment must not be executable")

	_, err = m.ExecuteLoad16(vm.StackSegmentStart)
	assert.ErrorIs(t, err, vm.ErrMemNotExecutable)
}

func TestExecuteLoadAlignment(t *testing.T) {
	m := vm.NewGuestMemory()

	_, err := m.ExecuteLoad16(0x1001)
	assert.ErrorIs(t, err, vm.ErrMemUnaligned)

	_, err = m.ExecuteLoad32(0x1003)
	assert.ErrorIs(t, err, vm.ErrMemUnaligned)

	// halfword alignment is enough for a 32-bit fetch
	_, err = m.ExecuteLoad32(0x1002)
	assert.NoError(t, err)
}

func TestMemoryOutOfBounds(t *testing.T) {
	m := vm.NewGuestMemory()

	_, err := m.ExecuteLoad16(vm.MaxMemory)
	assert.ErrorIs(t, err, vm.ErrMemOutOfBound)

	_, err = m.ReadByte(vm.MaxMemory + 4)
	assert.ErrorIs(t, err, vm.ErrMemOutOfBound)

	err = m.WriteByte(vm.MaxMemory, 0xFF)
	assert.ErrorIs(t, err, vm.ErrMemOutOfBound)
}

func TestMakeCodeReadOnly(t *testing.T) {
	m := vm.NewGuestMemory()
	require.NoError(t, m.LoadProgram([]byte{0x93, 0x02, 0x10, 0x00}, 0))

	m.MakeCodeReadOnly()

	err := m.WriteWord(0, 0xDEADBEEF)
	assert.ErrorIs(t, err, vm.ErrMemPermission, "code segment must be locked after MakeCodeReadOnly")

	// execution still allowed
	word, err := m.ExecuteLoad32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00100293), word)
}

func TestLoadProgramRoundTrip(t *testing.T) {
	m := vm.NewGuestMemory()
	image := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	require.NoError(t, m.LoadProgram(image, 0x2000))

	word, err := m.ReadWord(0x2000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), word)

	b, err := m.ReadByte(0x2007)
	require.NoError(t, err)
	assert.Equal(t, byte(0x08), b)
}

func TestMemoryReset(t *testing.T) {
	m := vm.NewGuestMemory()
	require.NoError(t, m.WriteWord(vm.DataSegmentStart, 0xDEADBEEF))

	m.Reset()
	assert.Equal(t, uint64(0), m.AccessCount+m.FetchCount)

	word, err := m.ReadWord(vm.DataSegmentStart)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), word)
}
