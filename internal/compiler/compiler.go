// Package compiler lowers a syntax tree to bytecode: registers are
// allocated as a stack per function frame, names resolve to registers,
// captures or globals, and forward jumps are back-patched.
package compiler

import (
	"fmt"

	"github.com/spbots/koto/internal/ast"
	"github.com/spbots/koto/internal/bytecode"
)

// ErrorKind categorizes compilation failures
type ErrorKind uint8

const (
	InternalError ErrorKind = iota
	SyntaxError
	ExpectedIndentation
)

// CompileError is a compilation failure with a source span
type CompileError struct {
	Kind    ErrorKind
	Message string
	Span    ast.Span
}

func (e *CompileError) Error() string {
	switch e.Kind {
	case InternalError:
		return fmt.Sprintf("Internal error %s: %s", e.Span, e.Message)
	case ExpectedIndentation:
		return fmt.Sprintf("Syntax error %s: expected indentation: %s", e.Span, e.Message)
	default:
		return fmt.Sprintf("Syntax error %s: %s", e.Span, e.Message)
	}
}

// local binds a name to a frame register
type local struct {
	name     string
	register byte
}

// capture records where a closed-over value comes from in the enclosing
// frame: a register, or one of the enclosing function's own captures (which
// is loaded into a scratch register before the Capture instruction runs)
type capture struct {
	name         string
	fromRegister int // register in the enclosing frame, or -1
	fromCapture  int // capture index in the enclosing frame, or -1
}

// frame is the compile-time state of one function: its live registers form
// a stack, and names map onto them
type frame struct {
	enclosing     *frame
	locals        []local
	captures      []capture
	registerCount int
}

func (f *frame) pushRegister() (byte, error) {
	if f.registerCount > 255 {
		return 0, fmt.Errorf("function needs too many registers")
	}
	register := byte(f.registerCount)
	f.registerCount++
	return register, nil
}

func (f *frame) popRegister() {
	f.registerCount--
}

// truncateRegisters releases every register at or above the given one
func (f *frame) truncateRegisters(register byte) {
	f.registerCount = int(register)
}

func (f *frame) resolveLocal(name string) (byte, bool) {
	for i := len(f.locals) - 1; i >= 0; i-- {
		if f.locals[i].name == name {
			return f.locals[i].register, true
		}
	}
	return 0, false
}

func (f *frame) addLocal(name string, register byte) {
	f.locals = append(f.locals, local{name: name, register: register})
}

// resolveCapture looks for a name in enclosing frames, recording a capture
// chain along the way. It returns this frame's capture index for the name.
func (f *frame) resolveCapture(name string) (int, bool) {
	if f.enclosing == nil {
		return 0, false
	}

	for i, existing := range f.captures {
		if existing.name == name {
			return i, true
		}
	}

	if register, found := f.enclosing.resolveLocal(name); found {
		f.captures = append(f.captures, capture{
			name:         name,
			fromRegister: int(register),
			fromCapture:  -1,
		})
		return len(f.captures) - 1, true
	}

	if index, found := f.enclosing.resolveCapture(name); found {
		f.captures = append(f.captures, capture{
			name:         name,
			fromRegister: -1,
			fromCapture:  index,
		})
		return len(f.captures) - 1, true
	}

	return 0, false
}

// Compiler holds the emission state while lowering a tree to a chunk
type Compiler struct {
	tree      *ast.Ast
	bytes     []byte
	constants *bytecode.ConstantPoolBuilder
	spans     []bytecode.SpanEntry
	catches   []bytecode.CatchRange
	frame     *frame
	span      ast.Span
	source    string
	path      string
}

// Compile lowers a syntax tree to an immutable chunk. The source text and
// path travel with the chunk for error reporting.
func Compile(tree *ast.Ast, source, path string) (*bytecode.Chunk, error) {
	c := &Compiler{
		tree:      tree,
		constants: bytecode.NewConstantPoolBuilder(),
		frame:     &frame{},
		source:    source,
		path:      path,
	}

	result, err := c.frame.pushRegister()
	if err != nil {
		return nil, c.internalError(err.Error())
	}
	if err := c.compileNode(result, tree.Root()); err != nil {
		return nil, err
	}
	c.emitOp(bytecode.OP_RETURN, result)

	return &bytecode.Chunk{
		Bytes:     c.bytes,
		Constants: c.constants.Build(),
		Spans:     c.spans,
		Catches:   c.catches,
		Source:    source,
		Path:      path,
	}, nil
}

func (c *Compiler) node(index ast.AstIndex) *ast.Node {
	return c.tree.Node(index)
}

func (c *Compiler) internalError(format string, args ...interface{}) error {
	return &CompileError{
		Kind:    InternalError,
		Message: fmt.Sprintf(format, args...),
		Span:    c.span,
	}
}

func (c *Compiler) syntaxError(format string, args ...interface{}) error {
	return &CompileError{
		Kind:    SyntaxError,
		Message: fmt.Sprintf(format, args...),
		Span:    c.span,
	}
}

// emit helpers; every instruction start is annotated with the span of the
// node being compiled

func (c *Compiler) addSpan(offset int) {
	if n := len(c.spans); n > 0 && c.spans[n-1].Span == c.span {
		return
	}
	c.spans = append(c.spans, bytecode.SpanEntry{Offset: offset, Span: c.span})
}

func (c *Compiler) emitOp(op bytecode.Opcode, operands ...byte) {
	c.addSpan(len(c.bytes))
	c.bytes = append(c.bytes, byte(op))
	c.bytes = append(c.bytes, operands...)
}

func (c *Compiler) emitByte(b byte) {
	c.bytes = append(c.bytes, b)
}

func (c *Compiler) emitU16(v int) {
	c.bytes = append(c.bytes, byte(v>>8), byte(v))
}

func (c *Compiler) emitU32(v uint32) {
	c.bytes = append(c.bytes,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// emitConstantOp emits the short form when the constant index fits in a
// byte, the long form otherwise
func (c *Compiler) emitConstantOp(
	short, long bytecode.Opcode, register byte, index bytecode.ConstantIndex,
) {
	if index <= bytecode.MaxShortConstantIndex {
		c.emitOp(short, register, byte(index))
	} else {
		c.emitOp(long, register)
		c.emitU32(uint32(index))
	}
}

// emitJump emits a forward jump with a placeholder offset and returns the
// patch position
func (c *Compiler) emitJump(op bytecode.Opcode, operands ...byte) int {
	c.emitOp(op, operands...)
	position := len(c.bytes)
	c.emitU16(0xffff)
	return position
}

// patchJump back-patches a forward jump to land at the current position
func (c *Compiler) patchJump(position int) error {
	distance := len(c.bytes) - position - 2
	if distance > 0xffff {
		return c.internalError("jump is too far (%d bytes)", distance)
	}
	c.bytes[position] = byte(distance >> 8)
	c.bytes[position+1] = byte(distance)
	return nil
}

// emitJumpBack emits a backward jump to the given loop start
func (c *Compiler) emitJumpBack(loopStart int, condition byte, conditional bool) error {
	op := bytecode.OP_JUMP_BACK
	operandCount := 0
	if conditional {
		op = bytecode.OP_JUMP_BACK_FALSE
		operandCount = 1
	}
	// distance counts back from the ip after the offset operand
	distance := len(c.bytes) + 1 + operandCount + 2 - loopStart
	if distance > 0xffff {
		return c.internalError("loop is too large (%d bytes)", distance)
	}
	if conditional {
		c.emitOp(op, condition)
	} else {
		c.emitOp(op)
	}
	c.emitU16(distance)
	return nil
}
