package encoder

// Mnemonic-level helpers over the base formats. These cover the
// instructions the decoder's tests and round-trip checks assemble;
// out-of-range immediates panic because a fixture with one is a bug in
// the caller, not a runtime condition.

func must(word uint32, err error) uint32 {
	if err != nil {
		panic(err)
	}
	return word
}

// ADD assembles add rd, rs1, rs2
func ADD(rd, rs1, rs2 uint) uint32 {
	return EncodeRType(0x33, 0x0, 0x00, rd, rs1, rs2)
}

// SUB assembles sub rd, rs1, rs2
func SUB(rd, rs1, rs2 uint) uint32 {
	return EncodeRType(0x33, 0x0, 0x20, rd, rs1, rs2)
}

// SLTU assembles sltu rd, rs1, rs2
func SLTU(rd, rs1, rs2 uint) uint32 {
	return EncodeRType(0x33, 0x3, 0x00, rd, rs1, rs2)
}

// OR assembles or rd, rs1, rs2
func OR(rd, rs1, rs2 uint) uint32 {
	return EncodeRType(0x33, 0x6, 0x00, rd, rs1, rs2)
}

// AND assembles and rd, rs1, rs2
func AND(rd, rs1, rs2 uint) uint32 {
	return EncodeRType(0x33, 0x7, 0x00, rd, rs1, rs2)
}

// XOR assembles xor rd, rs1, rs2
func XOR(rd, rs1, rs2 uint) uint32 {
	return EncodeRType(0x33, 0x4, 0x00, rd, rs1, rs2)
}

// MUL assembles mul rd, rs1, rs2
func MUL(rd, rs1, rs2 uint) uint32 {
	return EncodeRType(0x33, 0x0, 0x01, rd, rs1, rs2)
}

// MULH assembles mulh rd, rs1, rs2
func MULH(rd, rs1, rs2 uint) uint32 {
	return EncodeRType(0x33, 0x1, 0x01, rd, rs1, rs2)
}

// MULHSU assembles mulhsu rd, rs1, rs2
func MULHSU(rd, rs1, rs2 uint) uint32 {
	return EncodeRType(0x33, 0x2, 0x01, rd, rs1, rs2)
}

// MULHU assembles mulhu rd, rs1, rs2
func MULHU(rd, rs1, rs2 uint) uint32 {
	return EncodeRType(0x33, 0x3, 0x01, rd, rs1, rs2)
}

// DIV assembles div rd, rs1, rs2
func DIV(rd, rs1, rs2 uint) uint32 {
	return EncodeRType(0x33, 0x4, 0x01, rd, rs1, rs2)
}

// DIVU assembles divu rd, rs1, rs2
func DIVU(rd, rs1, rs2 uint) uint32 {
	return EncodeRType(0x33, 0x5, 0x01, rd, rs1, rs2)
}

// REM assembles rem rd, rs1, rs2
func REM(rd, rs1, rs2 uint) uint32 {
	return EncodeRType(0x33, 0x6, 0x01, rd, rs1, rs2)
}

// REMU assembles remu rd, rs1, rs2
func REMU(rd, rs1, rs2 uint) uint32 {
	return EncodeRType(0x33, 0x7, 0x01, rd, rs1, rs2)
}

// ADDI assembles addi rd, rs1, imm
func ADDI(rd, rs1 uint, imm int32) uint32 {
	return must(EncodeIType(0x13, 0x0, rd, rs1, imm))
}

// ADDIW assembles addiw rd, rs1, imm
func ADDIW(rd, rs1 uint, imm int32) uint32 {
	return must(EncodeIType(0x1B, 0x0, rd, rs1, imm))
}

// JALR assembles jalr rd, imm(rs1)
func JALR(rd, rs1 uint, imm int32) uint32 {
	return must(EncodeIType(0x67, 0x0, rd, rs1, imm))
}

// LUI assembles lui rd, imm with imm the raw 20-bit field
func LUI(rd uint, imm uint32) uint32 {
	return must(EncodeUType(0x37, rd, imm))
}

// AUIPC assembles auipc rd, imm with imm the raw 20-bit field
func AUIPC(rd uint, imm uint32) uint32 {
	return must(EncodeUType(0x17, rd, imm))
}

// JAL assembles jal rd, offset
func JAL(rd uint, imm int32) uint32 {
	return must(EncodeJType(0x6F, rd, imm))
}

// BEQ assembles beq rs1, rs2, offset
func BEQ(rs1, rs2 uint, imm int32) uint32 {
	return must(EncodeBType(0x63, 0x0, rs1, rs2, imm))
}

// LW assembles lw rd, imm(rs1)
func LW(rd, rs1 uint, imm int32) uint32 {
	return must(EncodeIType(0x03, 0x2, rd, rs1, imm))
}

// SW assembles sw rs2, imm(rs1)
func SW(rs1, rs2 uint, imm int32) uint32 {
	return must(EncodeSType(0x23, 0x2, rs1, rs2, imm))
}

// ECALL assembles the environment call word
func ECALL() uint32 { return 0x00000073 }

// ============================================================================
// Compressed encodings
// ============================================================================

// CADDI assembles c.addi rd, imm (rd read and written, -32 <= imm < 32)
func CADDI(rd uint, imm int32) uint16 {
	if imm < -32 || imm > 31 {
		panic("c.addi immediate out of range")
	}
	i := uint32(imm)
	return uint16(0x1 |
		i&0x1F<<2 |
		uint32(rd&0x1F)<<7 |
		i>>5&0x1<<12)
}

// CADD assembles c.add rd, rs2 (rd += rs2, both nonzero)
func CADD(rd, rs2 uint) uint16 {
	return uint16(0x2 |
		uint32(rs2&0x1F)<<2 |
		uint32(rd&0x1F)<<7 |
		0x1<<12 |
		0x4<<13)
}

// CNOP assembles c.nop
func CNOP() uint16 { return 0x0001 }
