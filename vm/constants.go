package vm

// ============================================================================
// RISC-V Architecture Constants
// ============================================================================
// These values are defined by the RISC-V specification and the machine
// contract; changing them changes guest-visible behaviour

const (
	// Guest memory geometry. MaxMemory doubles as the instruction cache's
	// empty-slot sentinel, so it must stay strictly unreachable as a PC.
	PageSize  = 4096
	MaxMemory = 4 * 1024 * 1024

	PageSizeMask = PageSize - 1

	// Register count
	GeneralRegisterCount = 32

	// Instruction sizes in bytes
	InstructionSizeFull       = 4
	InstructionSizeCompressed = 2
)

// Register aliases per the standard calling convention
const (
	ZERO = 0 // hard-wired zero
	RA   = 1 // return address
	SP   = 2 // stack pointer
	GP   = 3 // global pointer
	TP   = 4 // thread pointer
	T0   = 5
	A0   = 10
	A1   = 11
)

// ISA selection bits. The integer, multiply and compressed subsets are
// always enabled by BuildDecoder; A and B gate their factories; MOP gates
// macro-op fusion independently.
const (
	ISAB   byte = 1 << 0
	ISAA   byte = 1 << 1
	ISAMop byte = 1 << 2
)

// Decoder versions. Each version is a backward-compatible evolution of
// decode behaviour; rules gated on Version2 are off in older modes.
const (
	Version0 uint32 = 0
	Version1 uint32 = 1
	Version2 uint32 = 2
)

// InstructionCacheSize is the number of direct-mapped slots in the
// PC-keyed decoded-instruction cache.
const InstructionCacheSize = 4096
