package vm

// FactoryI decodes the RV64I base integer instruction set. It declines
// the funct7=0000001 rows of OP and OP-32, which belong to the M
// extension, and anything without the 32-bit 0b11 length marker.
func FactoryI(bits uint32, version uint32) (Instruction, bool) {
	rd := rdBits(bits)
	rs1 := rs1Bits(bits)
	rs2 := rs2Bits(bits)

	switch opcodeBits(bits) {
	case 0x37:
		return NewUType(OpLUI, rd, utypeImmediate(bits)), true
	case 0x17:
		return NewUType(OpAUIPC, rd, utypeImmediate(bits)), true
	case 0x6F:
		return NewUType(OpJAL, rd, jtypeImmediate(bits)), true
	case 0x67:
		if funct3(bits) != 0 {
			return 0, false
		}
		// The two JALR tags exist so fusion rules can key on the
		// behaviour revision the executor implements.
		op := OpJALRVersion0
		if version >= Version1 {
			op = OpJALRVersion1
		}
		return NewIType(op, rd, rs1, itypeImmediate(bits)), true
	case 0x63:
		imm := btypeImmediate(bits)
		switch funct3(bits) {
		case 0x0:
			return NewBType(OpBEQ, rs1, rs2, imm), true
		case 0x1:
			return NewBType(OpBNE, rs1, rs2, imm), true
		case 0x4:
			return NewBType(OpBLT, rs1, rs2, imm), true
		case 0x5:
			return NewBType(OpBGE, rs1, rs2, imm), true
		case 0x6:
			return NewBType(OpBLTU, rs1, rs2, imm), true
		case 0x7:
			return NewBType(OpBGEU, rs1, rs2, imm), true
		}
		return 0, false
	case 0x03:
		imm := itypeImmediate(bits)
		switch funct3(bits) {
		case 0x0:
			return NewIType(OpLB, rd, rs1, imm), true
		case 0x1:
			return NewIType(OpLH, rd, rs1, imm), true
		case 0x2:
			return NewIType(OpLW, rd, rs1, imm), true
		case 0x3:
			return NewIType(OpLD, rd, rs1, imm), true
		case 0x4:
			return NewIType(OpLBU, rd, rs1, imm), true
		case 0x5:
			return NewIType(OpLHU, rd, rs1, imm), true
		case 0x6:
			return NewIType(OpLWU, rd, rs1, imm), true
		}
		return 0, false
	case 0x23:
		imm := stypeImmediate(bits)
		switch funct3(bits) {
		case 0x0:
			return NewSType(OpSB, rs1, rs2, imm), true
		case 0x1:
			return NewSType(OpSH, rs1, rs2, imm), true
		case 0x2:
			return NewSType(OpSW, rs1, rs2, imm), true
		case 0x3:
			return NewSType(OpSD, rs1, rs2, imm), true
		}
		return 0, false
	case 0x13:
		switch funct3(bits) {
		case 0x0:
			return NewIType(OpADDI, rd, rs1, itypeImmediate(bits)), true
		case 0x1:
			if bits>>26 != 0 {
				return 0, false
			}
			return NewIType(OpSLLI, rd, rs1, int32(bits>>20&0x3F)), true
		case 0x2:
			return NewIType(OpSLTI, rd, rs1, itypeImmediate(bits)), true
		case 0x3:
			return NewIType(OpSLTIU, rd, rs1, itypeImmediate(bits)), true
		case 0x4:
			return NewIType(OpXORI, rd, rs1, itypeImmediate(bits)), true
		case 0x5:
			shamt := int32(bits >> 20 & 0x3F)
			switch bits >> 26 {
			case 0x00:
				return NewIType(OpSRLI, rd, rs1, shamt), true
			case 0x10:
				return NewIType(OpSRAI, rd, rs1, shamt), true
			}
			return 0, false
		case 0x6:
			return NewIType(OpORI, rd, rs1, itypeImmediate(bits)), true
		case 0x7:
			return NewIType(OpANDI, rd, rs1, itypeImmediate(bits)), true
		}
		return 0, false
	case 0x1B:
		switch funct3(bits) {
		case 0x0:
			return NewIType(OpADDIW, rd, rs1, itypeImmediate(bits)), true
		case 0x1:
			if funct7(bits) != 0x00 {
				return 0, false
			}
			return NewIType(OpSLLIW, rd, rs1, int32(bits>>20&0x1F)), true
		case 0x5:
			shamt := int32(bits >> 20 & 0x1F)
			switch funct7(bits) {
			case 0x00:
				return NewIType(OpSRLIW, rd, rs1, shamt), true
			case 0x20:
				return NewIType(OpSRAIW, rd, rs1, shamt), true
			}
		}
		return 0, false
	case 0x33:
		switch funct7(bits) {
		case 0x00:
			switch funct3(bits) {
			case 0x0:
				return NewRType(OpADD, rd, rs1, rs2), true
			case 0x1:
				return NewRType(OpSLL, rd, rs1, rs2), true
			case 0x2:
				return NewRType(OpSLT, rd, rs1, rs2), true
			case 0x3:
				return NewRType(OpSLTU, rd, rs1, rs2), true
			case 0x4:
				return NewRType(OpXOR, rd, rs1, rs2), true
			case 0x5:
				return NewRType(OpSRL, rd, rs1, rs2), true
			case 0x6:
				return NewRType(OpOR, rd, rs1, rs2), true
			case 0x7:
				return NewRType(OpAND, rd, rs1, rs2), true
			}
		case 0x20:
			switch funct3(bits) {
			case 0x0:
				return NewRType(OpSUB, rd, rs1, rs2), true
			case 0x5:
				return NewRType(OpSRA, rd, rs1, rs2), true
			}
		}
		return 0, false
	case 0x3B:
		switch funct7(bits) {
		case 0x00:
			switch funct3(bits) {
			case 0x0:
				return NewRType(OpADDW, rd, rs1, rs2), true
			case 0x1:
				return NewRType(OpSLLW, rd, rs1, rs2), true
			case 0x5:
				return NewRType(OpSRLW, rd, rs1, rs2), true
			}
		case 0x20:
			switch funct3(bits) {
			case 0x0:
				return NewRType(OpSUBW, rd, rs1, rs2), true
			case 0x5:
				return NewRType(OpSRAW, rd, rs1, rs2), true
			}
		}
		return 0, false
	case 0x0F:
		switch funct3(bits) {
		case 0x0:
			return NewIType(OpFENCE, rd, rs1, itypeImmediate(bits)), true
		case 0x1:
			return NewIType(OpFENCEI, rd, rs1, itypeImmediate(bits)), true
		}
		return 0, false
	case 0x73:
		switch bits {
		case 0x00000073:
			return NewIType(OpECALL, 0, 0, 0), true
		case 0x00100073:
			return NewIType(OpEBREAK, 0, 0, 0), true
		}
		return 0, false
	}
	return 0, false
}
