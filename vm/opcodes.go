package vm

// Opcode is the dense 8-bit tag stored in the low byte of every encoded
// instruction. Tags are disjoint across ISA subsets and the synthetic
// fusion opcodes; the executor dispatches on this value alone.
type Opcode uint8

const (
	OpUnknown Opcode = iota

	// RV64I base integer
	OpLUI
	OpAUIPC
	OpJAL
	OpJALRVersion0
	OpJALRVersion1
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpLB
	OpLH
	OpLW
	OpLD
	OpLBU
	OpLHU
	OpLWU
	OpSB
	OpSH
	OpSW
	OpSD
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpFENCE
	OpFENCEI
	OpECALL
	OpEBREAK
	OpADDIW
	OpSLLIW
	OpSRLIW
	OpSRAIW
	OpADDW
	OpSUBW
	OpSLLW
	OpSRLW
	OpSRAW

	// M standard extension
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
	OpMULW
	OpDIVW
	OpDIVUW
	OpREMW
	OpREMUW

	// A standard extension
	OpLRW
	OpSCW
	OpAMOSWAPW
	OpAMOADDW
	OpAMOXORW
	OpAMOANDW
	OpAMOORW
	OpAMOMINW
	OpAMOMAXW
	OpAMOMINUW
	OpAMOMAXUW
	OpLRD
	OpSCD
	OpAMOSWAPD
	OpAMOADDD
	OpAMOXORD
	OpAMOANDD
	OpAMOORD
	OpAMOMIND
	OpAMOMAXD
	OpAMOMINUD
	OpAMOMAXUD

	// B extension (Zba/Zbb)
	OpADDUW
	OpSH1ADD
	OpSH2ADD
	OpSH3ADD
	OpSH1ADDUW
	OpSH2ADDUW
	OpSH3ADDUW
	OpSLLIUW
	OpANDN
	OpORN
	OpXNOR
	OpCLZ
	OpCTZ
	OpCPOP
	OpCLZW
	OpCTZW
	OpCPOPW
	OpMAX
	OpMAXU
	OpMIN
	OpMINU
	OpSEXTB
	OpSEXTH
	OpZEXTH
	OpROL
	OpROR
	OpRORI
	OpROLW
	OpRORW
	OpRORIW
	OpORCB
	OpREV8

	// Synthetic macro-op fusion tags. Their byte length is the sum of the
	// folded instructions' lengths.
	OpADC
	OpADD3A
	OpADD3B
	OpADD3C
	OpADCS
	OpSBB
	OpSBBS
	OpWideMUL
	OpWideMULU
	OpWideMULSU
	OpWideDIV
	OpWideDIVU
	OpFarJumpRel
	OpFarJumpAbs
	OpCustomLoadImm
)

// fusionOpcodeStart marks the first synthetic tag; everything at or above
// it was produced by the fusion engine, never by a factory.
const fusionOpcodeStart = OpADC

// IsFusion reports whether the tag is a synthetic macro-op fusion opcode.
func (op Opcode) IsFusion() bool {
	return op >= fusionOpcodeStart
}
