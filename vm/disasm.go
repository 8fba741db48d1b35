package vm

import "fmt"

// opcodeNames maps every tag to its mnemonic. Synthetic fusion opcodes
// use dotted custom names so disassembly output cannot be mistaken for
// architectural RISC-V.
var opcodeNames = map[Opcode]string{
	OpUnknown:      "unknown",
	OpLUI:          "lui",
	OpAUIPC:        "auipc",
	OpJAL:          "jal",
	OpJALRVersion0: "jalr",
	OpJALRVersion1: "jalr",
	OpBEQ:          "beq",
	OpBNE:          "bne",
	OpBLT:          "blt",
	OpBGE:          "bge",
	OpBLTU:         "bltu",
	OpBGEU:         "bgeu",
	OpLB:           "lb",
	OpLH:           "lh",
	OpLW:           "lw",
	OpLD:           "ld",
	OpLBU:          "lbu",
	OpLHU:          "lhu",
	OpLWU:          "lwu",
	OpSB:           "sb",
	OpSH:           "sh",
	OpSW:           "sw",
	OpSD:           "sd",
	OpADDI:         "addi",
	OpSLTI:         "slti",
	OpSLTIU:        "sltiu",
	OpXORI:         "xori",
	OpORI:          "ori",
	OpANDI:         "andi",
	OpSLLI:         "slli",
	OpSRLI:         "srli",
	OpSRAI:         "srai",
	OpADD:          "add",
	OpSUB:          "sub",
	OpSLL:          "sll",
	OpSLT:          "slt",
	OpSLTU:         "sltu",
	OpXOR:          "xor",
	OpSRL:          "srl",
	OpSRA:          "sra",
	OpOR:           "or",
	OpAND:          "and",
	OpFENCE:        "fence",
	OpFENCEI:       "fence.i",
	OpECALL:        "ecall",
	OpEBREAK:       "ebreak",
	OpADDIW:        "addiw",
	OpSLLIW:        "slliw",
	OpSRLIW:        "srliw",
	OpSRAIW:        "sraiw",
	OpADDW:         "addw",
	OpSUBW:         "subw",
	OpSLLW:         "sllw",
	OpSRLW:         "srlw",
	OpSRAW:         "sraw",
	OpMUL:          "mul",
	OpMULH:         "mulh",
	OpMULHSU:       "mulhsu",
	OpMULHU:        "mulhu",
	OpDIV:          "div",
	OpDIVU:         "divu",
	OpREM:          "rem",
	OpREMU:         "remu",
	OpMULW:         "mulw",
	OpDIVW:         "divw",
	OpDIVUW:        "divuw",
	OpREMW:         "remw",
	OpREMUW:        "remuw",
	OpLRW:          "lr.w",
	OpSCW:          "sc.w",
	OpAMOSWAPW:     "amoswap.w",
	OpAMOADDW:      "amoadd.w",
	OpAMOXORW:      "amoxor.w",
	OpAMOANDW:      "amoand.w",
	OpAMOORW:       "amoor.w",
	OpAMOMINW:      "amomin.w",
	OpAMOMAXW:      "amomax.w",
	OpAMOMINUW:     "amominu.w",
	OpAMOMAXUW:     "amomaxu.w",
	OpLRD:          "lr.d",
	OpSCD:          "sc.d",
	OpAMOSWAPD:     "amoswap.d",
	OpAMOADDD:      "amoadd.d",
	OpAMOXORD:      "amoxor.d",
	OpAMOANDD:      "amoand.d",
	OpAMOORD:       "amoor.d",
	OpAMOMIND:      "amomin.d",
	OpAMOMAXD:      "amomax.d",
	OpAMOMINUD:     "amominu.d",
	OpAMOMAXUD:     "amomaxu.d",
	OpADDUW:        "add.uw",
	OpSH1ADD:       "sh1add",
	OpSH2ADD:       "sh2add",
	OpSH3ADD:       "sh3add",
	OpSH1ADDUW:     "sh1add.uw",
	OpSH2ADDUW:     "sh2add.uw",
	OpSH3ADDUW:     "sh3add.uw",
	OpSLLIUW:       "slli.uw",
	OpANDN:         "andn",
	OpORN:          "orn",
	OpXNOR:         "xnor",
	OpCLZ:          "clz",
	OpCTZ:          "ctz",
	OpCPOP:         "cpop",
	OpCLZW:         "clzw",
	OpCTZW:         "ctzw",
	OpCPOPW:        "cpopw",
	OpMAX:          "max",
	OpMAXU:         "maxu",
	OpMIN:          "min",
	OpMINU:         "minu",
	OpSEXTB:        "sext.b",
	OpSEXTH:        "sext.h",
	OpZEXTH:        "zext.h",
	OpROL:          "rol",
	OpROR:          "ror",
	OpRORI:         "rori",
	OpROLW:         "rolw",
	OpRORW:         "rorw",
	OpRORIW:        "roriw",
	OpORCB:         "orc.b",
	OpREV8:         "rev8",

	OpADC:           "fuse.adc",
	OpADD3A:         "fuse.add3a",
	OpADD3B:         "fuse.add3b",
	OpADD3C:         "fuse.add3c",
	OpADCS:          "fuse.adcs",
	OpSBB:           "fuse.sbb",
	OpSBBS:          "fuse.sbbs",
	OpWideMUL:       "fuse.widemul",
	OpWideMULU:      "fuse.widemulu",
	OpWideMULSU:     "fuse.widemulsu",
	OpWideDIV:       "fuse.widediv",
	OpWideDIVU:      "fuse.widedivu",
	OpFarJumpRel:    "fuse.farjump.rel",
	OpFarJumpAbs:    "fuse.farjump.abs",
	OpCustomLoadImm: "fuse.loadimm",
}

// String returns the opcode's mnemonic.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// instruction shapes, used to pick the disassembly projection
type instShape int

const (
	shapeR instShape = iota
	shapeR4
	shapeR5
	shapeI
	shapeLoad
	shapeStore
	shapeBranch
	shapeU
	shapeNone
)

var opcodeShapes = map[Opcode]instShape{
	OpLUI: shapeU, OpAUIPC: shapeU, OpJAL: shapeU,
	OpJALRVersion0: shapeLoad, OpJALRVersion1: shapeLoad,
	OpBEQ: shapeBranch, OpBNE: shapeBranch, OpBLT: shapeBranch,
	OpBGE: shapeBranch, OpBLTU: shapeBranch, OpBGEU: shapeBranch,
	OpLB: shapeLoad, OpLH: shapeLoad, OpLW: shapeLoad, OpLD: shapeLoad,
	OpLBU: shapeLoad, OpLHU: shapeLoad, OpLWU: shapeLoad,
	OpSB: shapeStore, OpSH: shapeStore, OpSW: shapeStore, OpSD: shapeStore,
	OpADDI: shapeI, OpSLTI: shapeI, OpSLTIU: shapeI, OpXORI: shapeI,
	OpORI: shapeI, OpANDI: shapeI, OpSLLI: shapeI, OpSRLI: shapeI,
	OpSRAI: shapeI, OpADDIW: shapeI, OpSLLIW: shapeI, OpSRLIW: shapeI,
	OpSRAIW: shapeI, OpRORI: shapeI, OpRORIW: shapeI, OpSLLIUW: shapeI,
	OpFENCE: shapeNone, OpFENCEI: shapeNone, OpECALL: shapeNone, OpEBREAK: shapeNone,
	OpADC:  shapeR,
	OpADCS: shapeR4, OpSBB: shapeR4, OpSBBS: shapeR4,
	OpWideMUL: shapeR4, OpWideMULU: shapeR4, OpWideMULSU: shapeR4,
	OpWideDIV: shapeR4, OpWideDIVU: shapeR4,
	OpADD3A: shapeR5, OpADD3B: shapeR5, OpADD3C: shapeR5,
	OpFarJumpRel: shapeU, OpFarJumpAbs: shapeU, OpCustomLoadImm: shapeU,
}

func shapeOf(op Opcode) instShape {
	if s, ok := opcodeShapes[op]; ok {
		return s
	}
	return shapeR
}

// String renders the instruction in assembler-like form.
func (i Instruction) String() string {
	op := i.Op()
	switch shapeOf(op) {
	case shapeR:
		return fmt.Sprintf("%s x%d, x%d, x%d", op, i.Rd(), i.Rs1(), i.Rs2())
	case shapeR4:
		return fmt.Sprintf("%s x%d, x%d, x%d, x%d", op, i.Rd(), i.Rs1(), i.Rs2(), i.Rs3())
	case shapeR5:
		return fmt.Sprintf("%s x%d, x%d, x%d, x%d, x%d", op, i.Rd(), i.Rs1(), i.Rs2(), i.Rs3(), i.Rs4())
	case shapeI:
		return fmt.Sprintf("%s x%d, x%d, %d", op, i.Rd(), i.Rs1(), i.ImmediateS())
	case shapeLoad:
		return fmt.Sprintf("%s x%d, %d(x%d)", op, i.Rd(), i.ImmediateS(), i.Rs1())
	case shapeStore:
		return fmt.Sprintf("%s x%d, %d(x%d)", op, i.Rs2(), i.ImmediateS(), i.Rs1())
	case shapeBranch:
		return fmt.Sprintf("%s x%d, x%d, %d", op, i.Rs1(), i.Rs2(), i.ImmediateS())
	case shapeU:
		return fmt.Sprintf("%s x%d, %d", op, i.Rd(), i.ImmediateS())
	default:
		return op.String()
	}
}
