package vm_test

import (
	"testing"

	"github.com/lookbusy1344/riscv-emulator/encoder"
	"github.com/lookbusy1344/riscv-emulator/vm"
)

// adcProgram assembles the five-instruction add-with-carry idiom on
// x10/x12/x14 that the fusion engine folds into a single synthetic op
func adcProgram() *encoder.Program {
	return encoder.NewProgram().Words(
		encoder.ADD(10, 10, 12),
		encoder.SLTU(12, 10, 12),
		encoder.ADD(10, 10, 14),
		encoder.SLTU(14, 10, 14),
		encoder.OR(12, 12, 14),
	)
}

func fusionDecoder(version uint32) *vm.Decoder {
	return vm.BuildDecoder(vm.ISAMop|vm.ISAA|vm.ISAB, version)
}

func decodeOne(t *testing.T, d *vm.Decoder, image []byte, pc uint64) vm.Instruction {
	t.Helper()
	mem := loadAt(t, image, pc)
	inst, err := d.Decode(mem, pc)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return inst
}

func TestFuseADC(t *testing.T) {
	inst := decodeOne(t, fusionDecoder(vm.Version2), adcProgram().Bytes(), 0x2000)

	if inst.Op() != vm.OpADC {
		t.Fatalf("Op = %v, want fuse.adc", inst.Op())
	}
	if inst.Rd() != 10 || inst.Rs1() != 12 || inst.Rs2() != 14 {
		t.Errorf("operands = (%d, %d, %d), want (10, 12, 14)", inst.Rd(), inst.Rs1(), inst.Rs2())
	}
	if inst.Length() != 20 {
		t.Errorf("Length = %d, want 20 (sum of five 4-byte constituents)", inst.Length())
	}
}

func TestFuseADCDisabled(t *testing.T) {
	d := vm.BuildDecoder(0, vm.Version2) // no MOP
	inst := decodeOne(t, d, adcProgram().Bytes(), 0x2000)

	if inst.Op() != vm.OpADD {
		t.Errorf("Op = %v, want plain add", inst.Op())
	}
	if inst.Rd() != 10 || inst.Rs1() != 10 || inst.Rs2() != 12 {
		t.Errorf("operands = (%d, %d, %d), want (10, 10, 12)", inst.Rd(), inst.Rs1(), inst.Rs2())
	}
	if inst.Length() != 4 {
		t.Errorf("Length = %d, want 4", inst.Length())
	}
}

func TestFuseADCVetoedByZero(t *testing.T) {
	// same shape but writing through x0: every rule must refuse, and no
	// fusion may ever target the zero register
	program := encoder.NewProgram().Words(
		encoder.ADD(0, 0, 12),
		encoder.SLTU(12, 0, 12),
		encoder.ADD(0, 0, 14),
		encoder.SLTU(14, 0, 14),
		encoder.OR(12, 12, 14),
	)
	inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x2000)

	if inst.Op() != vm.OpADD {
		t.Errorf("Op = %v, want unfused add head", inst.Op())
	}
	if inst.Length() != 4 {
		t.Errorf("Length = %d, want 4", inst.Length())
	}
}

func TestFuseADD3PatternB(t *testing.T) {
	program := encoder.NewProgram().Words(
		encoder.ADD(10, 11, 12),
		encoder.SLTU(11, 10, 11),
		encoder.ADD(13, 11, 14),
	)
	inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x2000)

	if inst.Op() != vm.OpADD3B {
		t.Fatalf("Op = %v, want fuse.add3b", inst.Op())
	}
	if inst.Rd() != 10 || inst.Rs1() != 11 || inst.Rs2() != 12 || inst.Rs3() != 13 || inst.Rs4() != 14 {
		t.Errorf("operands = (%d, %d, %d, %d, %d), want (10, 11, 12, 13, 14)",
			inst.Rd(), inst.Rs1(), inst.Rs2(), inst.Rs3(), inst.Rs4())
	}
	if inst.Length() != 12 {
		t.Errorf("Length = %d, want 12", inst.Length())
	}
}

func TestFuseADD3RequiresVersion2(t *testing.T) {
	program := encoder.NewProgram().Words(
		encoder.ADD(10, 11, 12),
		encoder.SLTU(11, 10, 11),
		encoder.ADD(13, 11, 14),
	)
	inst := decodeOne(t, fusionDecoder(vm.Version1), program.Bytes(), 0x2000)

	if inst.Op() != vm.OpADD || inst.Length() != 4 {
		t.Errorf("version 1 decoded %v (len %d), want unfused add", inst.Op(), inst.Length())
	}
}

func TestFuseADCS(t *testing.T) {
	program := encoder.NewProgram().Words(
		encoder.ADD(10, 11, 12),
		encoder.SLTU(13, 10, 11),
		encoder.ECALL(),
	)
	inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x2000)

	if inst.Op() != vm.OpADCS {
		t.Fatalf("Op = %v, want fuse.adcs", inst.Op())
	}
	if inst.Rd() != 10 || inst.Rs1() != 11 || inst.Rs2() != 12 || inst.Rs3() != 13 {
		t.Errorf("operands = (%d, %d, %d, %d), want (10, 11, 12, 13)",
			inst.Rd(), inst.Rs1(), inst.Rs2(), inst.Rs3())
	}
	if inst.Length() != 8 {
		t.Errorf("Length = %d, want 8", inst.Length())
	}
}

func TestFuseADCSCanonicalisesOperands(t *testing.T) {
	// the head reuses its first source as destination; the rule swaps
	// the commutative operands before matching
	program := encoder.NewProgram().Words(
		encoder.ADD(10, 10, 12),
		encoder.SLTU(13, 10, 12),
		encoder.ECALL(),
	)
	inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x2000)

	if inst.Op() != vm.OpADCS {
		t.Fatalf("Op = %v, want fuse.adcs", inst.Op())
	}
	if inst.Rd() != 10 || inst.Rs1() != 12 || inst.Rs2() != 10 || inst.Rs3() != 13 {
		t.Errorf("operands = (%d, %d, %d, %d), want canonicalised (10, 12, 10, 13)",
			inst.Rd(), inst.Rs1(), inst.Rs2(), inst.Rs3())
	}
}

func TestFuseADCSCompressedHead(t *testing.T) {
	// c.add x10, x11 expands to add x10, x10, x11; the fused length is
	// the 2-byte head plus the 4-byte sltu
	program := encoder.NewProgram().
		Half(encoder.CADD(10, 11)).
		Word(encoder.SLTU(13, 10, 11)).
		Word(encoder.ECALL())
	inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x2000)

	if inst.Op() != vm.OpADCS {
		t.Fatalf("Op = %v, want fuse.adcs", inst.Op())
	}
	if inst.Length() != 6 {
		t.Errorf("Length = %d, want 6 (2-byte head + 4-byte tail)", inst.Length())
	}
}

func TestFuseSBB(t *testing.T) {
	program := encoder.NewProgram().Words(
		encoder.SUB(11, 10, 11),
		encoder.SLTU(12, 10, 11),
		encoder.SUB(10, 11, 13),
		encoder.SLTU(13, 11, 10),
		encoder.OR(11, 13, 12),
	)
	inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x2000)

	if inst.Op() != vm.OpSBB {
		t.Fatalf("Op = %v, want fuse.sbb", inst.Op())
	}
	if inst.Rd() != 10 || inst.Rs1() != 11 || inst.Rs2() != 13 || inst.Rs3() != 12 {
		t.Errorf("operands = (%d, %d, %d, %d), want (10, 11, 13, 12)",
			inst.Rd(), inst.Rs1(), inst.Rs2(), inst.Rs3())
	}
	if inst.Length() != 20 {
		t.Errorf("Length = %d, want 20", inst.Length())
	}
}

func TestFuseSBBS(t *testing.T) {
	program := encoder.NewProgram().Words(
		encoder.SUB(10, 11, 12),
		encoder.SLTU(13, 11, 12),
		encoder.ECALL(),
	)
	inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x2000)

	if inst.Op() != vm.OpSBBS {
		t.Fatalf("Op = %v, want fuse.sbbs", inst.Op())
	}
	if inst.Rd() != 10 || inst.Rs1() != 11 || inst.Rs2() != 12 || inst.Rs3() != 13 {
		t.Errorf("operands = (%d, %d, %d, %d), want (10, 11, 12, 13)",
			inst.Rd(), inst.Rs1(), inst.Rs2(), inst.Rs3())
	}
}

func TestFuseSBBSRejectsAliasedDestination(t *testing.T) {
	// r0 == r1 makes the borrow unobservable; the rule must decline
	program := encoder.NewProgram().Words(
		encoder.SUB(11, 11, 12),
		encoder.SLTU(13, 11, 12),
		encoder.ECALL(),
	)
	inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x2000)

	if inst.Op() != vm.OpSUB {
		t.Errorf("Op = %v, want unfused sub", inst.Op())
	}
}

func TestFuseWideMultiply(t *testing.T) {
	tests := []struct {
		name string
		head uint32
		next uint32
		want vm.Opcode
	}{
		{"mulh+mul", encoder.MULH(10, 11, 12), encoder.MUL(13, 11, 12), vm.OpWideMUL},
		{"mulhu+mul", encoder.MULHU(10, 11, 12), encoder.MUL(13, 11, 12), vm.OpWideMULU},
		{"mulhsu+mul", encoder.MULHSU(10, 11, 12), encoder.MUL(13, 11, 12), vm.OpWideMULSU},
		{"div+rem", encoder.DIV(10, 11, 12), encoder.REM(13, 11, 12), vm.OpWideDIV},
		{"divu+remu", encoder.DIVU(10, 11, 12), encoder.REMU(13, 11, 12), vm.OpWideDIVU},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := encoder.NewProgram().Words(tt.head, tt.next)
			inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x2000)

			if inst.Op() != tt.want {
				t.Fatalf("Op = %v, want %v", inst.Op(), tt.want)
			}
			if inst.Rd() != 10 || inst.Rs1() != 11 || inst.Rs2() != 12 || inst.Rs3() != 13 {
				t.Errorf("operands = (%d, %d, %d, %d), want (10, 11, 12, 13)",
					inst.Rd(), inst.Rs1(), inst.Rs2(), inst.Rs3())
			}
			if inst.Length() != 8 {
				t.Errorf("Length = %d, want 8", inst.Length())
			}
		})
	}
}

func TestFuseWideMultiplyAliasVetoes(t *testing.T) {
	tests := []struct {
		name string
		head uint32
		next uint32
	}{
		{"rd aliases rs1", encoder.MULH(11, 11, 12), encoder.MUL(13, 11, 12)},
		{"rd aliases rs2", encoder.MULH(12, 11, 12), encoder.MUL(13, 11, 12)},
		{"sources differ", encoder.MULH(10, 11, 12), encoder.MUL(13, 11, 14)},
		{"same destination", encoder.MULH(10, 11, 12), encoder.MUL(10, 11, 12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := encoder.NewProgram().Words(tt.head, tt.next)
			inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x2000)

			if inst.Op() != vm.OpMULH {
				t.Errorf("Op = %v, want unfused mulh", inst.Op())
			}
		})
	}
}

func TestFuseLoadImmediate(t *testing.T) {
	program := encoder.NewProgram().Words(
		encoder.LUI(5, 0x12345),
		encoder.ADDIW(5, 5, 0x678),
	)
	inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x2000)

	if inst.Op() != vm.OpCustomLoadImm {
		t.Fatalf("Op = %v, want fuse.loadimm", inst.Op())
	}
	if inst.Rd() != 5 {
		t.Errorf("Rd = %d, want 5", inst.Rd())
	}
	if inst.ImmediateS() != 0x12345678 {
		t.Errorf("imm = 0x%X, want 0x12345678", inst.ImmediateS())
	}
	if inst.Length() != 8 {
		t.Errorf("Length = %d, want 8", inst.Length())
	}
}

func TestFuseFarJumpAbsolute(t *testing.T) {
	program := encoder.NewProgram().Words(
		encoder.LUI(1, 0x100),
		encoder.JALR(1, 1, 0x10),
	)
	inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x2000)

	if inst.Op() != vm.OpFarJumpAbs {
		t.Fatalf("Op = %v, want fuse.farjump.abs", inst.Op())
	}
	if inst.Rd() != vm.RA {
		t.Errorf("Rd = %d, want ra", inst.Rd())
	}
	if inst.ImmediateS() != 0x100010 {
		t.Errorf("imm = 0x%X, want 0x100010", inst.ImmediateS())
	}
}

func TestFarJumpVersion2RequiresRABase(t *testing.T) {
	// version 2 additionally requires the base register to be ra itself;
	// lui into x6 fused under version 1 but not version 2
	image := encoder.NewProgram().Words(
		encoder.LUI(6, 0x7FFFF),
		encoder.JALR(1, 6, 0x7FF),
	).Bytes()

	v2 := decodeOne(t, fusionDecoder(vm.Version2), image, 0x2000)
	if v2.Op() != vm.OpLUI {
		t.Errorf("version 2 decoded %v, want unfused lui", v2.Op())
	}

	v1 := decodeOne(t, fusionDecoder(vm.Version1), image, 0x2000)
	if v1.Op() != vm.OpFarJumpAbs {
		t.Errorf("version 1 decoded %v, want fuse.farjump.abs", v1.Op())
	}
}

func TestFuseFarJumpRelative(t *testing.T) {
	program := encoder.NewProgram().Words(
		encoder.AUIPC(1, 0x100),
		encoder.JALR(1, 1, 0x20),
	)
	inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x2000)

	if inst.Op() != vm.OpFarJumpRel {
		t.Fatalf("Op = %v, want fuse.farjump.rel", inst.Op())
	}
	if inst.ImmediateS() != 0x100020 {
		t.Errorf("imm = 0x%X, want 0x100020", inst.ImmediateS())
	}
}

func TestFuseAuipcLoadImmediate(t *testing.T) {
	program := encoder.NewProgram().Words(
		encoder.AUIPC(5, 0x1),
		encoder.ADDI(5, 5, 4),
	)
	inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x3000)

	if inst.Op() != vm.OpCustomLoadImm {
		t.Fatalf("Op = %v, want fuse.loadimm", inst.Op())
	}
	// immediate folds the pc in: 0x1000 + 4 + 0x3000
	if inst.ImmediateS() != 0x4004 {
		t.Errorf("imm = 0x%X, want 0x4004", inst.ImmediateS())
	}
}

func TestFuseAuipcLoadImmediateOverflow(t *testing.T) {
	// 0x7FFFF000 + 2047 + pc exceeds a signed 32-bit value; the checked
	// addition refuses and the head stays unfused
	program := encoder.NewProgram().Words(
		encoder.AUIPC(5, 0x7FFFF),
		encoder.ADDI(5, 5, 2047),
	)
	inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x2000)

	if inst.Op() != vm.OpAUIPC {
		t.Errorf("Op = %v, want unfused auipc", inst.Op())
	}
}

func TestFuseAuipcLoadImmediateRequiresVersion2(t *testing.T) {
	program := encoder.NewProgram().Words(
		encoder.AUIPC(5, 0x1),
		encoder.ADDI(5, 5, 4),
	)
	inst := decodeOne(t, fusionDecoder(vm.Version1), program.Bytes(), 0x3000)

	if inst.Op() != vm.OpAUIPC {
		t.Errorf("Op = %v, want unfused auipc at version 1", inst.Op())
	}
}

func TestFusionSwallowsLookaheadFault(t *testing.T) {
	// head sits in the last word of the executable segment; every
	// look-ahead faults, and the head must come back clean
	pc := uint64(vm.CodeSegmentStart + vm.CodeSegmentSize - 4)
	mem := loadAt(t, encoder.NewProgram().Word(encoder.ADD(5, 5, 6)).Bytes(), pc)
	d := fusionDecoder(vm.Version2)

	inst, err := d.Decode(mem, pc)
	if err != nil {
		t.Fatalf("Decode surfaced a look-ahead fault: %v", err)
	}
	if inst.Op() != vm.OpADD || inst.Length() != 4 {
		t.Errorf("decoded %v (len %d), want the plain add head", inst.Op(), inst.Length())
	}
}

func TestFusionSwallowsLookaheadInvalidInstruction(t *testing.T) {
	program := encoder.NewProgram().
		Word(encoder.MULH(10, 11, 12)).
		Word(0xFFFFFFFF)
	inst := decodeOne(t, fusionDecoder(vm.Version2), program.Bytes(), 0x2000)

	if inst.Op() != vm.OpMULH {
		t.Errorf("Op = %v, want unfused mulh", inst.Op())
	}
}

func TestFusionNeverWritesZeroRegister(t *testing.T) {
	// sweep the fusion corpus: no fused instruction designates x0 as its
	// write target
	programs := [][]byte{
		adcProgram().Bytes(),
		encoder.NewProgram().Words(
			encoder.ADD(10, 11, 12), encoder.SLTU(13, 10, 11), encoder.ECALL()).Bytes(),
		encoder.NewProgram().Words(
			encoder.SUB(10, 11, 12), encoder.SLTU(13, 11, 12), encoder.ECALL()).Bytes(),
		encoder.NewProgram().Words(
			encoder.MULH(10, 11, 12), encoder.MUL(13, 11, 12)).Bytes(),
		encoder.NewProgram().Words(
			encoder.LUI(5, 0x12345), encoder.ADDIW(5, 5, 0x678)).Bytes(),
	}
	for _, image := range programs {
		inst := decodeOne(t, fusionDecoder(vm.Version2), image, 0x2000)
		if inst.Op().IsFusion() && inst.Rd() == vm.ZERO {
			t.Errorf("fusion %v writes x0", inst.Op())
		}
	}
}
