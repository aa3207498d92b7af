package cil

import "testing"

func TestDecodeLdcI4AndAdd(t *testing.T) {
	// ldc.i4.2; ldc.i4.3; add; ret -- spec.md §8 scenario S1's body.
	code := []byte{byte(LdcI42), byte(LdcI43), byte(Add), byte(Ret)}
	d := NewDecoder()

	inst, next, err := d.Next(code, 0)
	if err != nil {
		t.Fatalf("ldc.i4.2: %v", err)
	}
	if inst.Op != LdcI42 || next != 1 {
		t.Fatalf("got op=%v next=%d, want LdcI42/1", inst.Op, next)
	}

	inst, next, err = d.Next(code, next)
	if err != nil || inst.Op != LdcI43 || next != 2 {
		t.Fatalf("ldc.i4.3 decode wrong: inst=%+v next=%d err=%v", inst, next, err)
	}

	inst, next, err = d.Next(code, next)
	if err != nil || inst.Op != Add || next != 3 {
		t.Fatalf("add decode wrong: inst=%+v next=%d err=%v", inst, next, err)
	}

	inst, next, err = d.Next(code, next)
	if err != nil || inst.Op != Ret || next != 4 {
		t.Fatalf("ret decode wrong: inst=%+v next=%d err=%v", inst, next, err)
	}
}

func TestDecodeLdcI4SOperand(t *testing.T) {
	code := []byte{byte(LdcI4S), 0x7F}
	d := NewDecoder()
	inst, next, err := d.Next(code, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if inst.IntOperand != 127 || next != 2 {
		t.Fatalf("got IntOperand=%d next=%d, want 127/2", inst.IntOperand, next)
	}
}

func TestDecodePrefixedCeq(t *testing.T) {
	code := []byte{prefixByte, 0x01}
	d := NewDecoder()
	inst, next, err := d.Next(code, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if inst.Op != CEq || next != 2 {
		t.Fatalf("got op=%v next=%d, want CEq/2", inst.Op, next)
	}
}

func TestDecodeBranchTargetIsRelativeToNextInstruction(t *testing.T) {
	// br.s +2 at offset 0: next instruction starts at offset 2, target = 4.
	code := []byte{byte(BrS), 0x02, 0x00, 0x00}
	d := NewDecoder()
	inst, next, err := d.Next(code, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if next != 2 {
		t.Fatalf("got next=%d, want 2", next)
	}
	if inst.BranchTarget != 4 {
		t.Fatalf("got BranchTarget=%d, want 4", inst.BranchTarget)
	}
}

func TestDecodeSwitchReadsTargetTable(t *testing.T) {
	code := []byte{
		byte(Switch),
		0x02, 0x00, 0x00, 0x00, // count = 2
		0x01, 0x00, 0x00, 0x00, // target[0] = 1
		0x02, 0x00, 0x00, 0x00, // target[1] = 2
	}
	d := NewDecoder()
	inst, next, err := d.Next(code, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(inst.SwitchTargets) != 2 || inst.SwitchTargets[0] != 1 || inst.SwitchTargets[1] != 2 {
		t.Fatalf("got SwitchTargets=%v, want [1 2]", inst.SwitchTargets)
	}
	if next != len(code) {
		t.Fatalf("got next=%d, want %d", next, len(code))
	}
}

func TestDecodeTruncatedOperandIsBadFormat(t *testing.T) {
	code := []byte{byte(LdcI4S)} // missing the int8 operand byte
	d := NewDecoder()
	if _, _, err := d.Next(code, 0); err == nil {
		t.Fatal("expected an error for a truncated operand, got nil")
	}
}

func TestDecodeUnknownOpcodeIsUnsupported(t *testing.T) {
	code := []byte{0xFF} // 0xFF is not assigned in this decoder's table
	d := NewDecoder()
	if _, _, err := d.Next(code, 0); err == nil {
		t.Fatal("expected an error for an unknown opcode, got nil")
	}
}
