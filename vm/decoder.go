package vm

import "fmt"

// Memory is the narrow fetch interface the decoder depends on. Both loads
// perform bounds and execute-permission checks; the decoder relies on them
// for W^X enforcement and page-fault semantics and never touches the
// data side.
type Memory interface {
	ExecuteLoad16(address uint64) (uint16, error)
	ExecuteLoad32(address uint64) (uint32, error)
}

// InstructionFactory maps raw instruction bits to an encoded instruction
// for one ISA subset. A factory returns false to decline bits that belong
// to another subset (or no subset at all). Factories may accept different
// encodings per decoder version.
type InstructionFactory func(bits uint32, version uint32) (Instruction, bool)

type cacheEntry struct {
	pc   uint64
	inst Instruction
}

// Decoder translates raw instruction bits at a guest PC into packed
// instruction words, applying macro-op fusion when enabled. A decoder owns
// its factory list and instruction cache exclusively; hosts running
// several guests in parallel give each its own Decoder.
type Decoder struct {
	factories []InstructionFactory
	mop       bool
	version   uint32

	// Direct-mapped cache of decoded instructions keyed by PC. The empty
	// sentinel is MaxMemory, which the bounds check in DecodeRaw keeps
	// unreachable as a legal PC.
	instructionsCache [InstructionCacheSize]cacheEntry

	stats *Statistics
}

// NewDecoder creates a decoder with no factories registered. Fusion is
// applied by Decode iff mop is true.
func NewDecoder(mop bool, version uint32) *Decoder {
	d := &Decoder{
		mop:     mop,
		version: version,
	}
	d.ResetInstructionsCache()
	return d
}

// AddInstructionFactory registers a factory. Registration order is
// significant for overlapping encodings: the compressed factory must run
// before the 32-bit factories, whose encodings assume the low two bits
// are 0b11.
func (d *Decoder) AddInstructionFactory(factory InstructionFactory) {
	d.factories = append(d.factories, factory)
}

// Version returns the decoder behaviour version.
func (d *Decoder) Version() uint32 {
	return d.version
}

// SetStatistics attaches a statistics collector; nil detaches it.
func (d *Decoder) SetStatistics(s *Statistics) {
	d.stats = s
}

// decodeBits loads the raw bits of one instruction at pc.
//
// RISC-V's little-endian layout puts the length discriminator in the first
// byte regardless of total length: the low two bits of the first halfword
// are 0b11 for a 32-bit instruction and anything else for a 16-bit one, so
// a 16-bit load always suffices to classify. When pc is not in the last
// two bytes of a page a single 32-bit load is cheaper and is masked down
// if the instruction turns out compressed; at a page boundary two separate
// 16-bit loads ensure a fault on the next page is only raised when the
// second halfword is genuinely needed.
func (d *Decoder) decodeBits(memory Memory, pc uint64) (uint32, error) {
	if pc&PageSizeMask < PageSizeMask-1 {
		bits, err := memory.ExecuteLoad32(pc)
		if err != nil {
			return 0, err
		}
		if bits&0x3 != 0x3 {
			bits &= 0xFFFF
		}
		return bits, nil
	}
	low, err := memory.ExecuteLoad16(pc)
	if err != nil {
		return 0, err
	}
	bits := uint32(low)
	if bits&0x3 == 0x3 {
		high, err := memory.ExecuteLoad16(pc + 2)
		if err != nil {
			return 0, err
		}
		bits |= uint32(high) << 16
	}
	return bits, nil
}

// cacheIndex mixes an 8-bit local window with a far-PC discriminator.
// Guest code regularly jumps from a hot loop into a remote helper (memcpy,
// the allocator) and back; indexing on the low bits alone would let the
// helper evict the whole loop. The 8/12 split keeps a 512-byte local
// region and a remote region resident at once.
func cacheIndex(pc uint64) uint64 {
	p := pc >> 1 // instruction addresses are halfword aligned
	return (p&0xFF | p>>12<<8) % InstructionCacheSize
}

// DecodeRaw decodes the single instruction at pc without fusion. It is
// the fusion engine's look-ahead primitive and the hot path behind the
// cache: a hit returns without touching guest memory.
func (d *Decoder) DecodeRaw(memory Memory, pc uint64) (Instruction, error) {
	// The cache marks empty slots with MaxMemory, so an out-of-range PC
	// must be rejected before the probe.
	if pc >= MaxMemory {
		return 0, fmt.Errorf("pc 0x%08X: %w", pc, ErrMemOutOfBound)
	}
	key := cacheIndex(pc)
	if cached := d.instructionsCache[key]; cached.pc == pc {
		d.stats.recordCacheHit()
		return cached.inst, nil
	}
	bits, err := d.decodeBits(memory, pc)
	if err != nil {
		return 0, err
	}
	for _, factory := range d.factories {
		if inst, ok := factory(bits, d.version); ok {
			d.instructionsCache[key] = cacheEntry{pc: pc, inst: inst}
			d.stats.recordDecode(inst.Op())
			return inst, nil
		}
	}
	return 0, &InvalidInstructionError{PC: pc, Bits: bits}
}

// Decode returns the instruction at pc, fused when the decoder was built
// with macro-op fusion enabled.
func (d *Decoder) Decode(memory Memory, pc uint64) (Instruction, error) {
	if d.mop {
		return d.decodeFused(memory, pc)
	}
	return d.DecodeRaw(memory, pc)
}

// ResetInstructionsCache drops every cached decode. The cache is not
// coherent with guest memory: hosts call this on every mapping change,
// loader write or self-modification of executable code.
func (d *Decoder) ResetInstructionsCache() {
	for i := range d.instructionsCache {
		d.instructionsCache[i] = cacheEntry{pc: MaxMemory}
	}
}

// BuildDecoder constructs a decoder for the given ISA flag mask and
// version. The integer, multiply and compressed factories are always
// registered; bit-manipulation and atomic are gated by their flags, and
// fusion by the MOP bit.
func BuildDecoder(isa byte, version uint32) *Decoder {
	decoder := NewDecoder(isa&ISAMop != 0, version)
	decoder.AddInstructionFactory(FactoryRVC)
	decoder.AddInstructionFactory(FactoryI)
	decoder.AddInstructionFactory(FactoryM)
	if isa&ISAB != 0 {
		decoder.AddInstructionFactory(FactoryB)
	}
	if isa&ISAA != 0 {
		decoder.AddInstructionFactory(FactoryA)
	}
	return decoder
}
