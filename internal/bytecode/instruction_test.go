package bytecode

import (
	"errors"
	"testing"
)

func chunkWithBytes(bytes ...byte) *Chunk {
	return &Chunk{Bytes: bytes}
}

func readOne(t *testing.T, chunk *Chunk) *Instruction {
	t.Helper()
	reader := NewInstructionReader(chunk)
	inst, err := reader.Next()
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if inst == nil {
		t.Fatalf("expected an instruction")
	}
	return inst
}

func TestDecodeRegisterForms(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		check func(t *testing.T, inst *Instruction)
	}{
		{
			"Copy",
			[]byte{byte(OP_COPY), 3, 7},
			func(t *testing.T, inst *Instruction) {
				if inst.Op != OP_COPY || inst.Register != 3 || inst.Source != 7 {
					t.Errorf("unexpected decode: %+v", inst)
				}
			},
		},
		{
			"SetTrue",
			[]byte{byte(OP_SET_TRUE), 9},
			func(t *testing.T, inst *Instruction) {
				if inst.Op != OP_SET_TRUE || inst.Register != 9 {
					t.Errorf("unexpected decode: %+v", inst)
				}
			},
		},
		{
			"LoadNumberShort",
			[]byte{byte(OP_LOAD_NUMBER), 1, 255},
			func(t *testing.T, inst *Instruction) {
				if inst.Constant != 255 {
					t.Errorf("constant = %d, want 255", inst.Constant)
				}
			},
		},
		{
			"LoadNumberLong",
			[]byte{byte(OP_LOAD_NUMBER_LONG), 1, 0x00, 0x01, 0x00, 0x00},
			func(t *testing.T, inst *Instruction) {
				if inst.Constant != 256 {
					t.Errorf("constant = %d, want 256", inst.Constant)
				}
			},
		},
		{
			"Add",
			[]byte{byte(OP_ADD), 0, 1, 2},
			func(t *testing.T, inst *Instruction) {
				if inst.Register != 0 || inst.Source != 1 || inst.Source2 != 2 {
					t.Errorf("unexpected decode: %+v", inst)
				}
			},
		},
		{
			"FunctionHeader",
			[]byte{byte(OP_FUNCTION), 2, 3, 1, 0x00, 0x10},
			func(t *testing.T, inst *Instruction) {
				if inst.ArgCount != 3 || inst.CaptureCount != 1 || inst.Offset != 16 {
					t.Errorf("unexpected decode: %+v", inst)
				}
			},
		},
		{
			"CallChild",
			[]byte{byte(OP_CALL_CHILD), 4, 5, 6, 2},
			func(t *testing.T, inst *Instruction) {
				if inst.Register != 4 || inst.Source != 5 || inst.Source2 != 6 || inst.ArgCount != 2 {
					t.Errorf("unexpected decode: %+v", inst)
				}
			},
		},
		{
			"IteratorNext",
			[]byte{byte(OP_ITERATOR_NEXT), 1, 2, 0x00, 0x08},
			func(t *testing.T, inst *Instruction) {
				if inst.Register != 1 || inst.Source != 2 || inst.Offset != 8 {
					t.Errorf("unexpected decode: %+v", inst)
				}
			},
		},
		{
			"Debug",
			[]byte{byte(OP_DEBUG), 1, 0x2a, 0x00, 0x00, 0x00},
			func(t *testing.T, inst *Instruction) {
				if inst.Constant != 42 {
					t.Errorf("constant = %d, want 42", inst.Constant)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, readOne(t, chunkWithBytes(tt.bytes...)))
		})
	}
}

func TestJumpOffsetBoundary(t *testing.T) {
	// 32767 must encode and decode exactly in both directions
	forward := chunkWithBytes(byte(OP_JUMP), 0x7f, 0xff)
	if inst := readOne(t, forward); inst.Offset != 32767 {
		t.Errorf("forward offset = %d, want 32767", inst.Offset)
	}
	back := chunkWithBytes(byte(OP_JUMP_BACK), 0x7f, 0xff)
	if inst := readOne(t, back); inst.Offset != 32767 {
		t.Errorf("backward offset = %d, want 32767", inst.Offset)
	}
}

func TestTruncatedInput(t *testing.T) {
	tests := [][]byte{
		{byte(OP_COPY)},
		{byte(OP_COPY), 1},
		{byte(OP_JUMP), 0x00},
		{byte(OP_LOAD_NUMBER_LONG), 1, 0x00, 0x01},
		{byte(OP_FUNCTION), 1, 2, 0},
	}
	for _, bytes := range tests {
		reader := NewInstructionReader(chunkWithBytes(bytes...))
		_, err := reader.Next()
		if !errors.Is(err, ErrTruncatedBytecode) {
			t.Errorf("bytes %v: expected truncation error, got %v", bytes, err)
		}
	}
}

func TestUnknownOpcode(t *testing.T) {
	reader := NewInstructionReader(chunkWithBytes(0xfe))
	if _, err := reader.Next(); !errors.Is(err, ErrUnknownOpcode) {
		t.Errorf("expected unknown opcode error, got %v", err)
	}
}

func TestReaderExhaustion(t *testing.T) {
	reader := NewInstructionReader(chunkWithBytes(byte(OP_SET_EMPTY), 0))
	inst, err := reader.Next()
	if err != nil || inst == nil {
		t.Fatalf("expected an instruction, got %v, %v", inst, err)
	}
	inst, err = reader.Next()
	if err != nil || inst != nil {
		t.Errorf("expected a clean end of stream, got %v, %v", inst, err)
	}
}

func TestDisassembly(t *testing.T) {
	builder := NewConstantPoolBuilder()
	builder.AddNumber(42)
	chunk := &Chunk{
		Bytes: []byte{
			byte(OP_LOAD_NUMBER), 0, 0,
			byte(OP_RETURN), 0,
		},
		Constants: builder.Build(),
	}
	out := BytecodeToString(chunk)
	expected := "0\tLoadNumber\tregister: 0\tconstant: 0\n3\tReturn\tregister: 0\n"
	if out != expected {
		t.Errorf("disassembly = %q, want %q", out, expected)
	}
}
