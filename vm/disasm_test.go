package vm

import "testing"

func TestOpcodeNamesComplete(t *testing.T) {
	// every dense tag up to the last fusion opcode has a mnemonic
	for op := OpUnknown; op <= OpCustomLoadImm; op++ {
		if _, ok := opcodeNames[op]; !ok {
			t.Errorf("opcode %d has no mnemonic", op)
		}
	}
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		inst Instruction
		want string
	}{
		{NewRType(OpADD, 5, 6, 7), "add x5, x6, x7"},
		{NewIType(OpADDI, 5, 6, -42), "addi x5, x6, -42"},
		{NewIType(OpLW, 5, 6, 16), "lw x5, 16(x6)"},
		{NewSType(OpSW, 5, 6, -4), "sw x6, -4(x5)"},
		{NewBType(OpBEQ, 5, 6, -8), "beq x5, x6, -8"},
		{NewUType(OpLUI, 5, 0x12345000), "lui x5, 305418240"},
		{NewRType(OpADC, 10, 12, 14), "fuse.adc x10, x12, x14"},
		{NewR4Type(OpWideMUL, 10, 11, 12, 13), "fuse.widemul x10, x11, x12, x13"},
	}
	for _, tt := range tests {
		if got := tt.inst.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestStatisticsSummary(t *testing.T) {
	s := NewStatistics()
	s.recordDecode(OpADD)
	s.recordDecode(OpADD)
	s.recordCacheHit()
	s.recordFusion(OpADC)

	if s.OpcodeCount(OpADD) != 2 {
		t.Errorf("OpcodeCount(add) = %d, want 2", s.OpcodeCount(OpADD))
	}
	if s.FusionCount(OpADC) != 1 {
		t.Errorf("FusionCount(adc) = %d, want 1", s.FusionCount(OpADC))
	}

	summary := s.Summary()
	if summary == "" {
		t.Fatal("empty summary")
	}

	// nil statistics must be safe: the decoder runs without a collector
	var none *Statistics
	none.recordDecode(OpADD)
	none.recordCacheHit()
	none.recordFusion(OpADC)
}
