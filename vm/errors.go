package vm

import (
	"errors"
	"fmt"
)

// Sentinel faults surfaced by the memory collaborator. The memory and the
// decoder wrap them with address context; callers match on them with
// errors.Is.
var (
	// ErrMemOutOfBound is returned for any access at or beyond MaxMemory,
	// including a PC that would collide with the cache's empty sentinel.
	ErrMemOutOfBound = errors.New("memory access out of bounds")

	// ErrMemNotExecutable is returned when the page lacks the execute bit.
	ErrMemNotExecutable = errors.New("memory not executable")

	// ErrMemPermission is returned when W^X or segment permissions deny
	// the access.
	ErrMemPermission = errors.New("memory access permission denied")

	// ErrMemUnaligned is returned for misaligned halfword/word access.
	ErrMemUnaligned = errors.New("unaligned memory access")
)

// InvalidInstructionError reports raw bits every registered factory
// declined. It carries the fetched word for diagnostics; the executing VM
// typically translates it into a guest trap.
type InvalidInstructionError struct {
	PC   uint64
	Bits uint32
}

func (e *InvalidInstructionError) Error() string {
	return fmt.Sprintf("invalid instruction 0x%08X at 0x%08X", e.Bits, e.PC)
}
