package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrTruncatedBytecode = errors.New("truncated bytecode")
var ErrUnknownOpcode = errors.New("unknown opcode")

// Instruction is one decoded instruction. Operand meaning depends on Op:
//
//	Register - target/output register (condition for conditional jumps,
//	           function register for calls and captures)
//	Source   - first source operand (parent for CallChild, capture slot for
//	           Capture's target)
//	Source2  - second source operand
//	Constant - constant pool index (short or long encoded)
//	ArgCount - call and function-header argument count
//	CaptureCount - function-header capture count
//	Count    - size hints, vec element count, expression index
//	Offset   - jump distance, or function body size for OP_FUNCTION
type Instruction struct {
	Op           Opcode
	Register     byte
	Source       byte
	Source2      byte
	Constant     ConstantIndex
	ArgCount     byte
	CaptureCount byte
	Count        int
	Offset       int
}

// String renders the instruction in the form used by the disassembler
func (i *Instruction) String() string {
	switch i.Op {
	case OP_COPY, OP_DEEP_COPY, OP_MAKE_ITERATOR, OP_NEGATE:
		return fmt.Sprintf("%s\tregister: %d\tsource: %d", i.Op, i.Register, i.Source)
	case OP_SET_EMPTY, OP_SET_TRUE, OP_SET_FALSE, OP_RETURN, OP_RANGE_FULL:
		return fmt.Sprintf("%s\tregister: %d", i.Op, i.Register)
	case OP_LOAD_NUMBER, OP_LOAD_NUMBER_LONG, OP_LOAD_STRING, OP_LOAD_STRING_LONG,
		OP_LOAD_GLOBAL, OP_LOAD_GLOBAL_LONG, OP_DEBUG:
		return fmt.Sprintf("%s\tregister: %d\tconstant: %d", i.Op, i.Register, i.Constant)
	case OP_SET_GLOBAL, OP_SET_GLOBAL_LONG:
		return fmt.Sprintf("%s\tconstant: %d\tsource: %d", i.Op, i.Constant, i.Source)
	case OP_MAKE_LIST, OP_MAKE_LIST_LONG, OP_MAKE_MAP, OP_MAKE_MAP_LONG:
		return fmt.Sprintf("%s\tregister: %d\tsize hint: %d", i.Op, i.Register, i.Count)
	case OP_MAKE_VEC4:
		return fmt.Sprintf("%s\tregister: %d\tcount: %d\tfirst: %d",
			i.Op, i.Register, i.Count, i.Source)
	case OP_FUNCTION, OP_INSTANCE_FUNCTION:
		return fmt.Sprintf("%s\tregister: %d\targs: %d\tcaptures: %d\tsize: %d",
			i.Op, i.Register, i.ArgCount, i.CaptureCount, i.Offset)
	case OP_CAPTURE:
		return fmt.Sprintf("%s\tfunction: %d\ttarget: %d\tsource: %d",
			i.Op, i.Register, i.Source, i.Source2)
	case OP_LOAD_CAPTURE:
		return fmt.Sprintf("%s\tregister: %d\tcapture: %d", i.Op, i.Register, i.Source)
	case OP_SET_CAPTURE:
		return fmt.Sprintf("%s\tcapture: %d\tsource: %d", i.Op, i.Register, i.Source)
	case OP_RANGE, OP_RANGE_INCLUSIVE:
		return fmt.Sprintf("%s\tregister: %d\tstart: %d\tend: %d",
			i.Op, i.Register, i.Source, i.Source2)
	case OP_RANGE_TO, OP_RANGE_TO_INCLUSIVE:
		return fmt.Sprintf("%s\tregister: %d\tend: %d", i.Op, i.Register, i.Source)
	case OP_RANGE_FROM:
		return fmt.Sprintf("%s\tregister: %d\tstart: %d", i.Op, i.Register, i.Source)
	case OP_ADD, OP_SUBTRACT, OP_MULTIPLY, OP_DIVIDE, OP_MODULO,
		OP_LESS, OP_LESS_OR_EQUAL, OP_GREATER, OP_GREATER_OR_EQUAL,
		OP_EQUAL, OP_NOT_EQUAL:
		return fmt.Sprintf("%s\tresult: %d\tlhs: %d\trhs: %d",
			i.Op, i.Register, i.Source, i.Source2)
	case OP_JUMP, OP_JUMP_BACK:
		return fmt.Sprintf("%s\toffset: %d", i.Op, i.Offset)
	case OP_JUMP_TRUE, OP_JUMP_FALSE, OP_JUMP_BACK_FALSE:
		return fmt.Sprintf("%s\tcondition: %d\toffset: %d", i.Op, i.Register, i.Offset)
	case OP_CALL:
		return fmt.Sprintf("%s\tfunction: %d\targ: %d\targs: %d",
			i.Op, i.Register, i.Source, i.ArgCount)
	case OP_CALL_CHILD:
		return fmt.Sprintf("%s\tfunction: %d\tparent: %d\targ: %d\targs: %d",
			i.Op, i.Register, i.Source, i.Source2, i.ArgCount)
	case OP_ITERATOR_NEXT:
		return fmt.Sprintf("%s\toutput: %d\titerator: %d\toffset: %d",
			i.Op, i.Register, i.Source, i.Offset)
	case OP_EXPRESSION_INDEX:
		return fmt.Sprintf("%s\tregister: %d\texpression: %d\tindex: %d",
			i.Op, i.Register, i.Source, i.Count)
	case OP_LIST_PUSH:
		return fmt.Sprintf("%s\tlist: %d\tvalue: %d", i.Op, i.Register, i.Source)
	case OP_LIST_UPDATE:
		return fmt.Sprintf("%s\tlist: %d\tindex: %d\tvalue: %d",
			i.Op, i.Register, i.Source, i.Source2)
	case OP_LIST_INDEX:
		return fmt.Sprintf("%s\tregister: %d\tlist: %d\tindex: %d",
			i.Op, i.Register, i.Source, i.Source2)
	case OP_MAP_INSERT:
		return fmt.Sprintf("%s\tmap: %d\tkey: %d\tvalue: %d",
			i.Op, i.Register, i.Source, i.Source2)
	case OP_MAP_ACCESS:
		return fmt.Sprintf("%s\tregister: %d\tmap: %d\tkey: %d",
			i.Op, i.Register, i.Source, i.Source2)
	default:
		return fmt.Sprintf("Unknown opcode %d", byte(i.Op))
	}
}

// InstructionReader is a forward-only streaming decoder over a chunk's
// bytecode. IP is the offset of the next instruction to decode.
type InstructionReader struct {
	Chunk *Chunk
	IP    int
}

// NewInstructionReader creates a reader positioned at the chunk's start
func NewInstructionReader(chunk *Chunk) *InstructionReader {
	return &InstructionReader{Chunk: chunk}
}

func (r *InstructionReader) readByte() (byte, error) {
	if r.IP >= len(r.Chunk.Bytes) {
		return 0, fmt.Errorf("%w: expected byte at offset %d", ErrTruncatedBytecode, r.IP)
	}
	b := r.Chunk.Bytes[r.IP]
	r.IP++
	return b, nil
}

func (r *InstructionReader) readU16() (int, error) {
	if r.IP+2 > len(r.Chunk.Bytes) {
		return 0, fmt.Errorf("%w: expected 2 bytes at offset %d", ErrTruncatedBytecode, r.IP)
	}
	v := binary.BigEndian.Uint16(r.Chunk.Bytes[r.IP:])
	r.IP += 2
	return int(v), nil
}

func (r *InstructionReader) readU32() (uint32, error) {
	if r.IP+4 > len(r.Chunk.Bytes) {
		return 0, fmt.Errorf("%w: expected 4 bytes at offset %d", ErrTruncatedBytecode, r.IP)
	}
	v := binary.LittleEndian.Uint32(r.Chunk.Bytes[r.IP:])
	r.IP += 4
	return v, nil
}

// Next decodes the next instruction. It returns (nil, nil) when the stream is
// exhausted, and an error when the stream ends inside an instruction.
func (r *InstructionReader) Next() (*Instruction, error) {
	if r.IP >= len(r.Chunk.Bytes) {
		return nil, nil
	}

	op := Opcode(r.Chunk.Bytes[r.IP])
	r.IP++
	inst := &Instruction{Op: op}
	var err error

	readReg := func() byte {
		if err != nil {
			return 0
		}
		var b byte
		b, err = r.readByte()
		return b
	}
	readShortConstant := func() ConstantIndex {
		return ConstantIndex(readReg())
	}
	readLongConstant := func() ConstantIndex {
		if err != nil {
			return 0
		}
		var v uint32
		v, err = r.readU32()
		return ConstantIndex(v)
	}
	readOffset := func() int {
		if err != nil {
			return 0
		}
		var v int
		v, err = r.readU16()
		return v
	}

	switch op {
	case OP_COPY, OP_DEEP_COPY, OP_MAKE_ITERATOR, OP_NEGATE, OP_LOAD_CAPTURE,
		OP_SET_CAPTURE, OP_RANGE_TO, OP_RANGE_TO_INCLUSIVE, OP_RANGE_FROM,
		OP_LIST_PUSH:
		inst.Register = readReg()
		inst.Source = readReg()
	case OP_SET_EMPTY, OP_SET_TRUE, OP_SET_FALSE, OP_RETURN, OP_RANGE_FULL:
		inst.Register = readReg()
	case OP_LOAD_NUMBER, OP_LOAD_STRING, OP_LOAD_GLOBAL:
		inst.Register = readReg()
		inst.Constant = readShortConstant()
	case OP_LOAD_NUMBER_LONG, OP_LOAD_STRING_LONG, OP_LOAD_GLOBAL_LONG:
		inst.Register = readReg()
		inst.Constant = readLongConstant()
	case OP_SET_GLOBAL:
		inst.Constant = readShortConstant()
		inst.Source = readReg()
	case OP_SET_GLOBAL_LONG:
		inst.Constant = readLongConstant()
		inst.Source = readReg()
	case OP_MAKE_LIST, OP_MAKE_MAP:
		inst.Register = readReg()
		inst.Count = int(readReg())
	case OP_MAKE_LIST_LONG, OP_MAKE_MAP_LONG:
		inst.Register = readReg()
		inst.Count = int(readLongConstant())
	case OP_MAKE_VEC4:
		inst.Register = readReg()
		inst.Count = int(readReg())
		inst.Source = readReg()
	case OP_FUNCTION, OP_INSTANCE_FUNCTION:
		inst.Register = readReg()
		inst.ArgCount = readReg()
		inst.CaptureCount = readReg()
		inst.Offset = readOffset()
	case OP_CAPTURE, OP_RANGE, OP_RANGE_INCLUSIVE, OP_ADD, OP_SUBTRACT,
		OP_MULTIPLY, OP_DIVIDE, OP_MODULO, OP_LESS, OP_LESS_OR_EQUAL,
		OP_GREATER, OP_GREATER_OR_EQUAL, OP_EQUAL, OP_NOT_EQUAL,
		OP_LIST_UPDATE, OP_LIST_INDEX, OP_MAP_INSERT, OP_MAP_ACCESS:
		inst.Register = readReg()
		inst.Source = readReg()
		inst.Source2 = readReg()
	case OP_JUMP, OP_JUMP_BACK:
		inst.Offset = readOffset()
	case OP_JUMP_TRUE, OP_JUMP_FALSE, OP_JUMP_BACK_FALSE:
		inst.Register = readReg()
		inst.Offset = readOffset()
	case OP_CALL:
		inst.Register = readReg()
		inst.Source = readReg()
		inst.ArgCount = readReg()
	case OP_CALL_CHILD:
		inst.Register = readReg()
		inst.Source = readReg()
		inst.Source2 = readReg()
		inst.ArgCount = readReg()
	case OP_ITERATOR_NEXT:
		inst.Register = readReg()
		inst.Source = readReg()
		inst.Offset = readOffset()
	case OP_EXPRESSION_INDEX:
		inst.Register = readReg()
		inst.Source = readReg()
		inst.Count = int(readReg())
	case OP_DEBUG:
		inst.Register = readReg()
		inst.Constant = readLongConstant()
	default:
		return nil, fmt.Errorf("%w: %d at offset %d", ErrUnknownOpcode, byte(op), r.IP-1)
	}

	if err != nil {
		return nil, err
	}
	return inst, nil
}
