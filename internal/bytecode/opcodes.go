// Package bytecode implements the compiled form of a script: the opcode set,
// the constant pool, chunks, and a streaming instruction reader.
package bytecode

// Opcode represents a single VM instruction
type Opcode byte

const (
	OP_COPY      Opcode = iota // target, source
	OP_DEEP_COPY               // target, source
	OP_SET_EMPTY               // register
	OP_SET_TRUE                // register
	OP_SET_FALSE               // register
	OP_RETURN                  // register

	// Constants. The long variants carry a 4-byte little-endian index and are
	// emitted when the constant index doesn't fit in a byte.
	OP_LOAD_NUMBER      // register, constant
	OP_LOAD_NUMBER_LONG // register, constant[4]
	OP_LOAD_STRING      // register, constant
	OP_LOAD_STRING_LONG // register, constant[4]
	OP_LOAD_GLOBAL      // register, constant
	OP_LOAD_GLOBAL_LONG // register, constant[4]
	OP_SET_GLOBAL       // constant, source
	OP_SET_GLOBAL_LONG  // constant[4], source

	// Containers
	OP_MAKE_LIST      // register, size hint
	OP_MAKE_LIST_LONG // register, size hint[4]
	OP_MAKE_MAP       // register, size hint
	OP_MAKE_MAP_LONG  // register, size hint[4]
	OP_MAKE_VEC4      // register, element count, first element
	OP_MAKE_ITERATOR  // register, source

	// Functions. The header is followed by capture count OP_CAPTURE
	// instructions, then by the function body (size[2] bytes).
	OP_FUNCTION          // register, arg count, capture count, size[2]
	OP_INSTANCE_FUNCTION // register, arg count, capture count, size[2]
	OP_CAPTURE           // function, target, source
	OP_LOAD_CAPTURE      // register, capture
	OP_SET_CAPTURE       // capture, source

	// Ranges
	OP_RANGE              // register, start, end
	OP_RANGE_INCLUSIVE    // register, start, end
	OP_RANGE_TO           // register, end
	OP_RANGE_TO_INCLUSIVE // register, end
	OP_RANGE_FROM         // register, start
	OP_RANGE_FULL         // register

	// Arithmetic
	OP_NEGATE   // register, source
	OP_ADD      // result, lhs, rhs
	OP_SUBTRACT // result, lhs, rhs
	OP_MULTIPLY // result, lhs, rhs
	OP_DIVIDE   // result, lhs, rhs
	OP_MODULO   // result, lhs, rhs

	// Comparison
	OP_LESS             // result, lhs, rhs
	OP_LESS_OR_EQUAL    // result, lhs, rhs
	OP_GREATER          // result, lhs, rhs
	OP_GREATER_OR_EQUAL // result, lhs, rhs
	OP_EQUAL            // result, lhs, rhs
	OP_NOT_EQUAL        // result, lhs, rhs

	// Control flow. Forward jumps carry an unsigned big-endian 16-bit
	// distance; backward jumps use the dedicated OP_JUMP_BACK* opcodes with
	// an unsigned distance to branch backward.
	OP_JUMP            // offset[2]
	OP_JUMP_TRUE       // condition, offset[2]
	OP_JUMP_FALSE      // condition, offset[2]
	OP_JUMP_BACK       // offset[2]
	OP_JUMP_BACK_FALSE // condition, offset[2]

	// Calls
	OP_CALL          // function, first arg, arg count
	OP_CALL_CHILD    // function, parent, first arg, arg count
	OP_ITERATOR_NEXT // output, iterator, jump offset[2]

	// Composite operations
	OP_EXPRESSION_INDEX // register, multi expression, index
	OP_LIST_PUSH        // list, value
	OP_LIST_UPDATE      // list, index, value
	OP_LIST_INDEX       // register, list, index
	OP_MAP_INSERT       // map, key, value
	OP_MAP_ACCESS       // register, map, key

	OP_DEBUG // register, constant[4]
)

// OpcodeNames maps opcodes to their string names (for disassembly)
var OpcodeNames = map[Opcode]string{
	OP_COPY:      "Copy",
	OP_DEEP_COPY: "DeepCopy",
	OP_SET_EMPTY: "SetEmpty",
	OP_SET_TRUE:  "SetTrue",
	OP_SET_FALSE: "SetFalse",
	OP_RETURN:    "Return",

	OP_LOAD_NUMBER:      "LoadNumber",
	OP_LOAD_NUMBER_LONG: "LoadNumberLong",
	OP_LOAD_STRING:      "LoadString",
	OP_LOAD_STRING_LONG: "LoadStringLong",
	OP_LOAD_GLOBAL:      "LoadGlobal",
	OP_LOAD_GLOBAL_LONG: "LoadGlobalLong",
	OP_SET_GLOBAL:       "SetGlobal",
	OP_SET_GLOBAL_LONG:  "SetGlobalLong",

	OP_MAKE_LIST:      "MakeList",
	OP_MAKE_LIST_LONG: "MakeListLong",
	OP_MAKE_MAP:       "MakeMap",
	OP_MAKE_MAP_LONG:  "MakeMapLong",
	OP_MAKE_VEC4:      "MakeVec4",
	OP_MAKE_ITERATOR:  "MakeIterator",

	OP_FUNCTION:          "Function",
	OP_INSTANCE_FUNCTION: "InstanceFunction",
	OP_CAPTURE:           "Capture",
	OP_LOAD_CAPTURE:      "LoadCapture",
	OP_SET_CAPTURE:       "SetCapture",

	OP_RANGE:              "Range",
	OP_RANGE_INCLUSIVE:    "RangeInclusive",
	OP_RANGE_TO:           "RangeTo",
	OP_RANGE_TO_INCLUSIVE: "RangeToInclusive",
	OP_RANGE_FROM:         "RangeFrom",
	OP_RANGE_FULL:         "RangeFull",

	OP_NEGATE:   "Negate",
	OP_ADD:      "Add",
	OP_SUBTRACT: "Subtract",
	OP_MULTIPLY: "Multiply",
	OP_DIVIDE:   "Divide",
	OP_MODULO:   "Modulo",

	OP_LESS:             "Less",
	OP_LESS_OR_EQUAL:    "LessOrEqual",
	OP_GREATER:          "Greater",
	OP_GREATER_OR_EQUAL: "GreaterOrEqual",
	OP_EQUAL:            "Equal",
	OP_NOT_EQUAL:        "NotEqual",

	OP_JUMP:            "Jump",
	OP_JUMP_TRUE:       "JumpTrue",
	OP_JUMP_FALSE:      "JumpFalse",
	OP_JUMP_BACK:       "JumpBack",
	OP_JUMP_BACK_FALSE: "JumpBackFalse",

	OP_CALL:          "Call",
	OP_CALL_CHILD:    "CallChild",
	OP_ITERATOR_NEXT: "IteratorNext",

	OP_EXPRESSION_INDEX: "ExpressionIndex",
	OP_LIST_PUSH:        "ListPush",
	OP_LIST_UPDATE:      "ListUpdate",
	OP_LIST_INDEX:       "ListIndex",
	OP_MAP_INSERT:       "MapInsert",
	OP_MAP_ACCESS:       "MapAccess",

	OP_DEBUG: "Debug",
}

func (op Opcode) String() string {
	if name, ok := OpcodeNames[op]; ok {
		return name
	}
	return "Unknown"
}
