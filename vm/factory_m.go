package vm

// FactoryM decodes the M standard extension: the funct7=0000001 rows of
// the OP and OP-32 opcodes.
func FactoryM(bits uint32, version uint32) (Instruction, bool) {
	if funct7(bits) != 0x01 {
		return 0, false
	}
	rd := rdBits(bits)
	rs1 := rs1Bits(bits)
	rs2 := rs2Bits(bits)

	switch opcodeBits(bits) {
	case 0x33:
		switch funct3(bits) {
		case 0x0:
			return NewRType(OpMUL, rd, rs1, rs2), true
		case 0x1:
			return NewRType(OpMULH, rd, rs1, rs2), true
		case 0x2:
			return NewRType(OpMULHSU, rd, rs1, rs2), true
		case 0x3:
			return NewRType(OpMULHU, rd, rs1, rs2), true
		case 0x4:
			return NewRType(OpDIV, rd, rs1, rs2), true
		case 0x5:
			return NewRType(OpDIVU, rd, rs1, rs2), true
		case 0x6:
			return NewRType(OpREM, rd, rs1, rs2), true
		case 0x7:
			return NewRType(OpREMU, rd, rs1, rs2), true
		}
	case 0x3B:
		switch funct3(bits) {
		case 0x0:
			return NewRType(OpMULW, rd, rs1, rs2), true
		case 0x4:
			return NewRType(OpDIVW, rd, rs1, rs2), true
		case 0x5:
			return NewRType(OpDIVUW, rd, rs1, rs2), true
		case 0x6:
			return NewRType(OpREMW, rd, rs1, rs2), true
		case 0x7:
			return NewRType(OpREMUW, rd, rs1, rs2), true
		}
	}
	return 0, false
}
