package vm

// FactoryB decodes the Zba address-generation and Zbb basic
// bit-manipulation subsets of the B extension. Encodings outside the
// subset decline, exactly as an older factory revision would.
func FactoryB(bits uint32, version uint32) (Instruction, bool) {
	rd := rdBits(bits)
	rs1 := rs1Bits(bits)
	rs2 := rs2Bits(bits)

	switch opcodeBits(bits) {
	case 0x33:
		switch funct7(bits) {
		case 0x10: // Zba shift-and-add
			switch funct3(bits) {
			case 0x2:
				return NewRType(OpSH1ADD, rd, rs1, rs2), true
			case 0x4:
				return NewRType(OpSH2ADD, rd, rs1, rs2), true
			case 0x6:
				return NewRType(OpSH3ADD, rd, rs1, rs2), true
			}
		case 0x20: // inverted logic
			switch funct3(bits) {
			case 0x4:
				return NewRType(OpXNOR, rd, rs1, rs2), true
			case 0x6:
				return NewRType(OpORN, rd, rs1, rs2), true
			case 0x7:
				return NewRType(OpANDN, rd, rs1, rs2), true
			}
		case 0x05: // min/max
			switch funct3(bits) {
			case 0x4:
				return NewRType(OpMIN, rd, rs1, rs2), true
			case 0x5:
				return NewRType(OpMINU, rd, rs1, rs2), true
			case 0x6:
				return NewRType(OpMAX, rd, rs1, rs2), true
			case 0x7:
				return NewRType(OpMAXU, rd, rs1, rs2), true
			}
		case 0x30: // rotates
			switch funct3(bits) {
			case 0x1:
				return NewRType(OpROL, rd, rs1, rs2), true
			case 0x5:
				return NewRType(OpROR, rd, rs1, rs2), true
			}
		}
		return 0, false
	case 0x3B:
		switch funct7(bits) {
		case 0x04:
			switch funct3(bits) {
			case 0x0:
				return NewRType(OpADDUW, rd, rs1, rs2), true
			case 0x4:
				if rs2 == 0 {
					return NewRType(OpZEXTH, rd, rs1, 0), true
				}
			}
		case 0x10: // Zba shift-and-add, unsigned word
			switch funct3(bits) {
			case 0x2:
				return NewRType(OpSH1ADDUW, rd, rs1, rs2), true
			case 0x4:
				return NewRType(OpSH2ADDUW, rd, rs1, rs2), true
			case 0x6:
				return NewRType(OpSH3ADDUW, rd, rs1, rs2), true
			}
		case 0x30:
			switch funct3(bits) {
			case 0x1:
				return NewRType(OpROLW, rd, rs1, rs2), true
			case 0x5:
				return NewRType(OpRORW, rd, rs1, rs2), true
			}
		}
		return 0, false
	case 0x13:
		switch funct3(bits) {
		case 0x1:
			if funct7(bits) != 0x30 {
				return 0, false
			}
			// unary count/extend group, selected by the rs2 field
			switch rs2 {
			case 0x0:
				return NewRType(OpCLZ, rd, rs1, 0), true
			case 0x1:
				return NewRType(OpCTZ, rd, rs1, 0), true
			case 0x2:
				return NewRType(OpCPOP, rd, rs1, 0), true
			case 0x4:
				return NewRType(OpSEXTB, rd, rs1, 0), true
			case 0x5:
				return NewRType(OpSEXTH, rd, rs1, 0), true
			}
		case 0x5:
			switch bits >> 20 {
			case 0x287:
				return NewRType(OpORCB, rd, rs1, 0), true
			case 0x6B8:
				return NewRType(OpREV8, rd, rs1, 0), true
			}
			if bits>>26 == 0x18 {
				return NewIType(OpRORI, rd, rs1, int32(bits>>20&0x3F)), true
			}
		}
		return 0, false
	case 0x1B:
		switch funct3(bits) {
		case 0x1:
			if bits>>26 == 0x02 {
				return NewIType(OpSLLIUW, rd, rs1, int32(bits>>20&0x3F)), true
			}
			if funct7(bits) == 0x30 {
				switch rs2 {
				case 0x0:
					return NewRType(OpCLZW, rd, rs1, 0), true
				case 0x1:
					return NewRType(OpCTZW, rd, rs1, 0), true
				case 0x2:
					return NewRType(OpCPOPW, rd, rs1, 0), true
				}
			}
		case 0x5:
			if funct7(bits) == 0x30 {
				return NewIType(OpRORIW, rd, rs1, int32(bits>>20&0x1F)), true
			}
		}
		return 0, false
	}
	return 0, false
}
