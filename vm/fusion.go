package vm

import "math"

// Macro-op fusion: recognising a fixed idiomatic instruction sequence at
// decode time and replacing it with one synthetic opcode of equivalent
// architectural effect. Each rule below inspects the instructions following
// the head with DecodeRaw look-aheads and either emits a fused instruction
// whose byte length is the sum of the consumed ones, or declines.
//
// Look-ahead failures (a fault or invalid instruction at a later PC) make
// the rule decline rather than surface the error: fusion is an
// optimisation, and a rejected fusion leaves the head's own fault
// semantics intact. The later instruction will fault by itself if and
// when control actually reaches it.

// decodeFused decodes the instruction at pc and applies the fusion rules
// registered for its opcode. Rules are tried in a fixed order; the first
// success wins, otherwise the unfused head is returned.
func (d *Decoder) decodeFused(memory Memory, pc uint64) (Instruction, error) {
	head, err := d.DecodeRaw(memory, pc)
	if err != nil {
		return 0, err
	}
	var fused Instruction
	var ok bool
	switch head.Op() {
	case OpADD:
		if fused, ok = d.ruleADC(memory, pc, head); !ok {
			if fused, ok = d.ruleADD3(memory, pc, head); !ok {
				fused, ok = d.ruleADCS(memory, pc, head)
			}
		}
	case OpSUB:
		if fused, ok = d.ruleSBB(memory, pc, head); !ok {
			fused, ok = d.ruleSBBS(memory, pc, head)
		}
	case OpLUI:
		fused, ok = d.ruleLUI(memory, pc, head)
	case OpAUIPC:
		fused, ok = d.ruleAUIPC(memory, pc, head)
	case OpMULH:
		fused, ok = d.ruleWidePair(memory, pc, head, OpMUL, OpWideMUL)
	case OpMULHU:
		fused, ok = d.ruleWidePair(memory, pc, head, OpMUL, OpWideMULU)
	case OpMULHSU:
		fused, ok = d.ruleWidePair(memory, pc, head, OpMUL, OpWideMULSU)
	case OpDIV:
		fused, ok = d.ruleWidePair(memory, pc, head, OpREM, OpWideDIV)
	case OpDIVU:
		fused, ok = d.ruleWidePair(memory, pc, head, OpREMU, OpWideDIVU)
	}
	if !ok {
		return head, nil
	}
	d.stats.recordFusion(fused.Op())
	return fused, nil
}

// lookahead decodes the instruction at pc+offset, requiring the
// given opcode. Any decode error reads as a declined match.
func (d *Decoder) lookahead(memory Memory, pc, offset uint64, want Opcode) (Instruction, bool) {
	inst, err := d.DecodeRaw(memory, pc+offset)
	if err != nil || inst.Op() != want {
		return 0, false
	}
	return inst, true
}

// ruleADC folds the five-instruction add-with-carry idiom
//
//	add  a, a, b
//	sltu b, a, b
//	add  a, a, d
//	sltu d, a, d
//	or   b, b, d
//
// into OP_ADC (a, b, d). None of the three written registers may be x0.
func (d *Decoder) ruleADC(memory Memory, pc uint64, head Instruction) (Instruction, bool) {
	if head.Rd() != head.Rs1() || head.Rs1() == head.Rs2() {
		return 0, false
	}
	offset := uint64(head.Length())
	next, ok := d.lookahead(memory, pc, offset, OpSLTU)
	if !ok {
		return 0, false
	}
	if next.Rd() != head.Rs2() || head.Rs2() != next.Rs2() || next.Rs1() != head.Rs1() {
		return 0, false
	}
	offset += uint64(next.Length())
	neck, ok := d.lookahead(memory, pc, offset, OpADD)
	if !ok {
		return 0, false
	}
	if neck.Rd() != neck.Rs1() || neck.Rs1() != next.Rs1() ||
		neck.Rs2() == head.Rs1() || neck.Rs2() == head.Rs2() {
		return 0, false
	}
	offset += uint64(neck.Length())
	body, ok := d.lookahead(memory, pc, offset, OpSLTU)
	if !ok {
		return 0, false
	}
	if body.Rd() != body.Rs2() || body.Rs2() != neck.Rs2() || body.Rs1() != neck.Rs1() {
		return 0, false
	}
	offset += uint64(body.Length())
	tail, ok := d.lookahead(memory, pc, offset, OpOR)
	if !ok {
		return 0, false
	}
	if tail.Rd() != tail.Rs1() || tail.Rs1() != head.Rs2() || tail.Rs2() != body.Rs2() {
		return 0, false
	}
	if head.Rd() == ZERO || next.Rd() == ZERO || body.Rd() == ZERO {
		return 0, false
	}
	size := offset + uint64(tail.Length())
	fused := NewRType(OpADC, head.Rd(), next.Rd(), body.Rd())
	return fused.SetLength(uint(size)), true
}

// ruleADD3 folds add/sltu/add wide-add triples (version 2 and later).
// Three register-aliasing patterns are accepted, each with its own tag so
// the executor can reconstruct which operand carries the carry.
func (d *Decoder) ruleADD3(memory Memory, pc uint64, head Instruction) (Instruction, bool) {
	if d.version < Version2 {
		return 0, false
	}
	i0 := head
	offset := uint64(i0.Length())
	i1, ok := d.lookahead(memory, pc, offset, OpSLTU)
	if !ok {
		return 0, false
	}
	offset += uint64(i1.Length())
	i2, ok := d.lookahead(memory, pc, offset, OpADD)
	if !ok {
		return 0, false
	}
	size := uint(offset + uint64(i2.Length()))

	// add r0, r1, r0
	// sltu r2, r0, r1
	// add r3, r2, r4
	{
		r0 := i0.Rd()
		r1 := i0.Rs1()
		r2 := i1.Rd()
		r3 := i2.Rd()
		r4 := i2.Rs2()
		if i0.Rs2() == r0 &&
			i1.Rs1() == r0 && i1.Rs2() == r1 &&
			i2.Rs1() == r2 &&
			r0 != r1 && r0 != r4 && r2 != r4 &&
			r0 != ZERO && r2 != ZERO {
			return NewR5Type(OpADD3A, r0, r1, r2, r3, r4).SetLength(size), true
		}
	}

	// add r0, r1, r2
	// sltu r1, r0, r1
	// add r3, r1, r4
	{
		r0 := i0.Rd()
		r1 := i0.Rs1()
		r2 := i0.Rs2()
		r3 := i2.Rd()
		r4 := i2.Rs2()
		if i1.Rd() == r1 && i1.Rs1() == r0 && i1.Rs2() == r1 &&
			i2.Rs1() == r1 &&
			r0 != r1 && r0 != r4 && r1 != r4 &&
			r0 != ZERO && r1 != ZERO {
			return NewR5Type(OpADD3B, r0, r1, r2, r3, r4).SetLength(size), true
		}
	}

	// add r0, r1, r2
	// sltu r3, r0, r1
	// add r3, r3, r4
	{
		r0 := i0.Rd()
		r1 := i0.Rs1()
		r2 := i0.Rs2()
		r3 := i1.Rd()
		r4 := i2.Rs2()
		if i1.Rs1() == r0 && i1.Rs2() == r1 &&
			i2.Rd() == r3 && i2.Rs1() == r3 &&
			r0 != r1 && r0 != r4 && r3 != r4 &&
			r0 != ZERO && r3 != ZERO {
			return NewR5Type(OpADD3C, r0, r1, r2, r3, r4).SetLength(size), true
		}
	}
	return 0, false
}

// ruleADCS folds the two-instruction carry idiom (version 2 and later)
//
//	add  r0, r1, r2
//	sltu r3, r0, r1
//
// The add is commutative, so a head whose destination equals its first
// source but not its second (add r0, r0, r2) has its two source operands
// swapped before matching. No other operand order is rewritten.
func (d *Decoder) ruleADCS(memory Memory, pc uint64, head Instruction) (Instruction, bool) {
	if d.version < Version2 {
		return 0, false
	}
	i0 := head
	if i0.Rd() == i0.Rs1() && i0.Rd() != i0.Rs2() {
		i0 = NewRType(i0.Op(), i0.Rd(), i0.Rs2(), i0.Rs1())
	}
	i1, ok := d.lookahead(memory, pc, uint64(head.Length()), OpSLTU)
	if !ok {
		return 0, false
	}
	r0 := i0.Rd()
	r1 := i0.Rs1()
	r2 := i0.Rs2()
	r3 := i1.Rd()
	if i1.Rs1() == r0 && i1.Rs2() == r1 && r0 != r1 && r0 != ZERO {
		size := uint(head.Length() + i1.Length())
		return NewR4Type(OpADCS, r0, r1, r2, r3).SetLength(size), true
	}
	return 0, false
}

// ruleSBB folds the five-instruction subtract-with-borrow idiom into
// OP_SBB. The next-slot rs2 self-comparison below never vetoes;
// tightening it would change which sequences fuse and the instruction
// lengths the executor observes, so it stays as-is.
func (d *Decoder) ruleSBB(memory Memory, pc uint64, head Instruction) (Instruction, bool) {
	if head.Rd() != head.Rs2() || head.Rs1() == head.Rs2() {
		return 0, false
	}
	offset := uint64(head.Length())
	next, ok := d.lookahead(memory, pc, offset, OpSLTU)
	if !ok {
		return 0, false
	}
	if next.Rd() == head.Rs1() || next.Rd() == head.Rs2() ||
		next.Rs1() != head.Rs1() || next.Rs2() != next.Rs2() {
		return 0, false
	}
	offset += uint64(next.Length())
	neck, ok := d.lookahead(memory, pc, offset, OpSUB)
	if !ok {
		return 0, false
	}
	if neck.Rd() != head.Rs1() || neck.Rs1() != head.Rs2() ||
		neck.Rs2() == head.Rs1() || neck.Rs2() == head.Rs2() || neck.Rs2() == next.Rd() {
		return 0, false
	}
	offset += uint64(neck.Length())
	body, ok := d.lookahead(memory, pc, offset, OpSLTU)
	if !ok {
		return 0, false
	}
	if body.Rd() != neck.Rs2() || body.Rs1() != head.Rs2() || body.Rs2() != head.Rs1() {
		return 0, false
	}
	offset += uint64(body.Length())
	tail, ok := d.lookahead(memory, pc, offset, OpOR)
	if !ok {
		return 0, false
	}
	if tail.Rd() != head.Rd() || tail.Rs1() != neck.Rs2() || tail.Rs2() != next.Rd() {
		return 0, false
	}
	if head.Rs1() == ZERO || head.Rs2() == ZERO || neck.Rs2() == ZERO || next.Rd() == ZERO {
		return 0, false
	}
	size := offset + uint64(tail.Length())
	fused := NewR4Type(OpSBB, head.Rs1(), head.Rs2(), neck.Rs2(), next.Rd())
	return fused.SetLength(uint(size)), true
}

// ruleSBBS folds the two-instruction borrow idiom (version 2 and later)
//
//	sub  r0, r1, r2
//	sltu r3, r1, r2
//
// with r0 distinct from both sources.
func (d *Decoder) ruleSBBS(memory Memory, pc uint64, head Instruction) (Instruction, bool) {
	if d.version < Version2 {
		return 0, false
	}
	i1, ok := d.lookahead(memory, pc, uint64(head.Length()), OpSLTU)
	if !ok {
		return 0, false
	}
	r0 := head.Rd()
	r1 := head.Rs1()
	r2 := head.Rs2()
	r3 := i1.Rd()
	if i1.Rs1() == r1 && i1.Rs2() == r2 && r0 != r1 && r0 != r2 {
		size := uint(head.Length() + i1.Length())
		return NewR4Type(OpSBBS, r0, r1, r2, r3).SetLength(size), true
	}
	return 0, false
}

// checkedAddImm adds two signed immediates, declining on signed-32 overflow.
func checkedAddImm(a, b int32) (int32, bool) {
	sum := int64(a) + int64(b)
	if sum > math.MaxInt32 || sum < math.MinInt32 {
		return 0, false
	}
	return int32(sum), true
}

// farJumpCondition matches a version-1 JALR following a LUI/AUIPC head.
// From version 2 on the base register must itself be RA, which keeps the
// unfused sequence's clobber of that register observable.
func (d *Decoder) farJumpCondition(head, next Instruction) bool {
	if d.version >= Version2 {
		return next.Rs1() == head.Rd() && next.Rd() == RA && next.Rs1() == RA
	}
	return next.Rs1() == head.Rd() && next.Rd() == RA
}

// ruleLUI fuses LUI+JALR into a far absolute jump and LUI+ADDIW into a
// synthetic load-immediate.
func (d *Decoder) ruleLUI(memory Memory, pc uint64, head Instruction) (Instruction, bool) {
	next, err := d.DecodeRaw(memory, pc+uint64(head.Length()))
	if err != nil {
		return 0, false
	}
	size := uint(head.Length() + next.Length())
	switch next.Op() {
	case OpJALRVersion1:
		if !d.farJumpCondition(head, next) {
			return 0, false
		}
		var imm int32
		if d.version >= Version2 {
			var ok bool
			if imm, ok = checkedAddImm(head.ImmediateS(), next.ImmediateS()); !ok {
				return 0, false
			}
		} else {
			imm = head.ImmediateS() + next.ImmediateS()
		}
		return NewUType(OpFarJumpAbs, RA, imm).SetLength(size), true
	case OpADDIW:
		if next.Rs1() != next.Rd() || next.Rd() != head.Rd() {
			return 0, false
		}
		imm := head.ImmediateS() + next.ImmediateS()
		return NewUType(OpCustomLoadImm, head.Rd(), imm).SetLength(size), true
	}
	return 0, false
}

// ruleAUIPC fuses AUIPC+JALR into a far relative jump and, from version 2,
// AUIPC+ADDI into a load-immediate with the PC folded in. The version-2
// forms refuse to fuse on any signed-32 overflow so the semantically
// ambiguous cases stay observable as unfused sequences.
func (d *Decoder) ruleAUIPC(memory Memory, pc uint64, head Instruction) (Instruction, bool) {
	next, err := d.DecodeRaw(memory, pc+uint64(head.Length()))
	if err != nil {
		return 0, false
	}
	size := uint(head.Length() + next.Length())
	switch next.Op() {
	case OpJALRVersion1:
		if !d.farJumpCondition(head, next) {
			return 0, false
		}
		var imm int32
		if d.version >= Version2 {
			var ok bool
			if imm, ok = checkedAddImm(head.ImmediateS(), next.ImmediateS()); !ok {
				return 0, false
			}
		} else {
			imm = head.ImmediateS() + next.ImmediateS()
		}
		return NewUType(OpFarJumpRel, RA, imm).SetLength(size), true
	case OpADDI:
		if d.version < Version2 {
			return 0, false
		}
		if next.Rs1() != next.Rd() || next.Rd() != head.Rd() {
			return 0, false
		}
		if pc > math.MaxInt32 {
			return 0, false
		}
		imm, ok := checkedAddImm(head.ImmediateS(), next.ImmediateS())
		if !ok {
			return 0, false
		}
		if imm, ok = checkedAddImm(imm, int32(pc)); !ok {
			return 0, false
		}
		return NewUType(OpCustomLoadImm, head.Rd(), imm).SetLength(size), true
	}
	return 0, false
}

// ruleWidePair fuses the high-half/low-half multiply and divide/remainder
// pairs (mulh+mul, mulhu+mul, mulhsu+mul, div+rem, divu+remu) that share
// both sources. The head's destination must not alias a source or the
// second destination, so the fused executor can write both halves.
func (d *Decoder) ruleWidePair(memory Memory, pc uint64, head Instruction, wantNext Opcode, fusedOp Opcode) (Instruction, bool) {
	next, err := d.DecodeRaw(memory, pc+uint64(head.Length()))
	if err != nil || next.Op() != wantNext {
		return 0, false
	}
	if head.Rd() != head.Rs1() && head.Rd() != head.Rs2() &&
		head.Rs1() == next.Rs1() && head.Rs2() == next.Rs2() &&
		head.Rd() != next.Rd() {
		size := uint(head.Length() + next.Length())
		fused := NewR4Type(fusedOp, head.Rd(), head.Rs1(), head.Rs2(), next.Rd())
		return fused.SetLength(size), true
	}
	return 0, false
}
