package compiler

import (
	"github.com/spbots/koto/internal/ast"
	"github.com/spbots/koto/internal/bytecode"
)

// compileNode compiles an expression into the caller-supplied target
// register
func (c *Compiler) compileNode(target byte, index ast.AstIndex) error {
	node := c.node(index)
	c.span = node.Span

	switch node.Type {
	case ast.NodeEmpty:
		c.emitOp(bytecode.OP_SET_EMPTY, target)
	case ast.NodeBool:
		if node.BoolValue {
			c.emitOp(bytecode.OP_SET_TRUE, target)
		} else {
			c.emitOp(bytecode.OP_SET_FALSE, target)
		}
	case ast.NodeNumber:
		constant := c.constants.AddNumber(node.NumberValue)
		c.emitConstantOp(bytecode.OP_LOAD_NUMBER, bytecode.OP_LOAD_NUMBER_LONG, target, constant)
	case ast.NodeStr:
		constant := c.constants.AddString(node.StrValue)
		c.emitConstantOp(bytecode.OP_LOAD_STRING, bytecode.OP_LOAD_STRING_LONG, target, constant)
	case ast.NodeId:
		return c.compileId(target, node.StrValue)
	case ast.NodeList, ast.NodeTuple:
		// Comma-separated expressions build a list; multi-assignment picks
		// the sub-results out with ExpressionIndex
		return c.compileList(target, node)
	case ast.NodeMap:
		return c.compileMap(target, node)
	case ast.NodeRange:
		return c.compileRange(target, node)
	case ast.NodeBlock:
		return c.compileBlock(target, node)
	case ast.NodeFunction:
		return c.compileFunction(target, index)
	case ast.NodeCall:
		return c.compileCall(target, node)
	case ast.NodeAccess:
		return c.compileAccess(target, node)
	case ast.NodeIndex:
		return c.compileIndex(target, node)
	case ast.NodeAssign:
		return c.compileAssign(index, target, true)
	case ast.NodeMultiAssign:
		if err := c.compileMultiAssign(index); err != nil {
			return err
		}
		c.emitOp(bytecode.OP_SET_EMPTY, target)
	case ast.NodeBinaryOp:
		return c.compileBinaryOp(target, node)
	case ast.NodeNegate:
		source, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(source, node.Children[0]); err != nil {
			return err
		}
		c.emitOp(bytecode.OP_NEGATE, target, source)
		c.frame.popRegister()
	case ast.NodeNot:
		return c.compileNot(target, node)
	case ast.NodeIf:
		return c.compileIf(target, node)
	case ast.NodeWhile, ast.NodeUntil:
		return c.compileWhileLoop(target, node)
	case ast.NodeFor:
		return c.compileForLoop(target, node)
	case ast.NodeTry:
		return c.compileTry(target, node)
	case ast.NodeReturn:
		source, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if len(node.Children) > 0 {
			if err := c.compileNode(source, node.Children[0]); err != nil {
				return err
			}
		} else {
			c.emitOp(bytecode.OP_SET_EMPTY, source)
		}
		c.emitOp(bytecode.OP_RETURN, source)
		c.frame.popRegister()
		c.emitOp(bytecode.OP_SET_EMPTY, target)
	case ast.NodeDebug:
		source, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(source, node.Children[0]); err != nil {
			return err
		}
		constant := c.constants.AddString(node.StrValue)
		c.emitOp(bytecode.OP_DEBUG, source)
		c.emitU32(uint32(constant))
		c.frame.popRegister()
		c.emitOp(bytecode.OP_COPY, target, source)
	default:
		return c.internalError("unexpected node type %d", node.Type)
	}
	return nil
}

// compileId loads a name: a frame local, a capture of the current function,
// or a global
func (c *Compiler) compileId(target byte, name string) error {
	if register, found := c.frame.resolveLocal(name); found {
		if register != target {
			c.emitOp(bytecode.OP_COPY, target, register)
		}
		return nil
	}
	if index, found := c.frame.resolveCapture(name); found {
		c.emitOp(bytecode.OP_LOAD_CAPTURE, target, byte(index))
		return nil
	}
	constant := c.constants.AddString(name)
	c.emitConstantOp(bytecode.OP_LOAD_GLOBAL, bytecode.OP_LOAD_GLOBAL_LONG, target, constant)
	return nil
}

func (c *Compiler) compileList(target byte, node *ast.Node) error {
	sizeHint := len(node.Children)
	if sizeHint <= 255 {
		c.emitOp(bytecode.OP_MAKE_LIST, target, byte(sizeHint))
	} else {
		c.emitOp(bytecode.OP_MAKE_LIST_LONG, target)
		c.emitU32(uint32(sizeHint))
	}
	for _, element := range node.Children {
		value, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(value, element); err != nil {
			return err
		}
		c.emitOp(bytecode.OP_LIST_PUSH, target, value)
		c.frame.popRegister()
	}
	return nil
}

func (c *Compiler) compileMap(target byte, node *ast.Node) error {
	sizeHint := len(node.Children) / 2
	if sizeHint <= 255 {
		c.emitOp(bytecode.OP_MAKE_MAP, target, byte(sizeHint))
	} else {
		c.emitOp(bytecode.OP_MAKE_MAP_LONG, target)
		c.emitU32(uint32(sizeHint))
	}
	for i := 0; i+1 < len(node.Children); i += 2 {
		key, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(key, node.Children[i]); err != nil {
			return err
		}
		value, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(value, node.Children[i+1]); err != nil {
			return err
		}
		c.emitOp(bytecode.OP_MAP_INSERT, target, key, value)
		c.frame.popRegister()
		c.frame.popRegister()
	}
	return nil
}

func (c *Compiler) compileRange(target byte, node *ast.Node) error {
	switch {
	case node.HasStart && node.HasEnd:
		start, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(start, node.Children[0]); err != nil {
			return err
		}
		end, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(end, node.Children[1]); err != nil {
			return err
		}
		op := bytecode.OP_RANGE
		if node.BoolValue {
			op = bytecode.OP_RANGE_INCLUSIVE
		}
		c.emitOp(op, target, start, end)
		c.frame.popRegister()
		c.frame.popRegister()
	case node.HasStart:
		start, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(start, node.Children[0]); err != nil {
			return err
		}
		c.emitOp(bytecode.OP_RANGE_FROM, target, start)
		c.frame.popRegister()
	case node.HasEnd:
		end, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(end, node.Children[0]); err != nil {
			return err
		}
		op := bytecode.OP_RANGE_TO
		if node.BoolValue {
			op = bytecode.OP_RANGE_TO_INCLUSIVE
		}
		c.emitOp(op, target, end)
		c.frame.popRegister()
	default:
		c.emitOp(bytecode.OP_RANGE_FULL, target)
	}
	return nil
}

// compileBlock compiles a sequence of expressions; the block's value is the
// last expression's value. The block doesn't release the names bound inside
// it; they stay bound until the enclosing if/while/until/for/try or the
// frame ends.
func (c *Compiler) compileBlock(target byte, node *ast.Node) error {
	if len(node.Children) == 0 {
		c.emitOp(bytecode.OP_SET_EMPTY, target)
		return nil
	}
	for i, child := range node.Children {
		if i == len(node.Children)-1 {
			return c.compileNode(target, child)
		}
		if err := c.compileStatement(child); err != nil {
			return err
		}
	}
	return nil
}

// compileStatement compiles an expression in side-effect position: the
// result register is scratch and released afterwards
func (c *Compiler) compileStatement(index ast.AstIndex) error {
	node := c.node(index)
	switch node.Type {
	case ast.NodeAssign:
		return c.compileAssign(index, 0, false)
	case ast.NodeMultiAssign:
		return c.compileMultiAssign(index)
	default:
		scratch, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(scratch, index); err != nil {
			return err
		}
		c.frame.popRegister()
		return nil
	}
}

func (c *Compiler) compileNot(target byte, node *ast.Node) error {
	operand, err := c.frame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}
	if err := c.compileNode(operand, node.Children[0]); err != nil {
		return err
	}
	falseRegister, err := c.frame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}
	c.emitOp(bytecode.OP_SET_FALSE, falseRegister)
	c.emitOp(bytecode.OP_EQUAL, target, operand, falseRegister)
	c.frame.popRegister()
	c.frame.popRegister()
	return nil
}

var binaryOpcodes = map[ast.BinaryOp]bytecode.Opcode{
	ast.OpAdd:            bytecode.OP_ADD,
	ast.OpSubtract:       bytecode.OP_SUBTRACT,
	ast.OpMultiply:       bytecode.OP_MULTIPLY,
	ast.OpDivide:         bytecode.OP_DIVIDE,
	ast.OpModulo:         bytecode.OP_MODULO,
	ast.OpLess:           bytecode.OP_LESS,
	ast.OpLessOrEqual:    bytecode.OP_LESS_OR_EQUAL,
	ast.OpGreater:        bytecode.OP_GREATER,
	ast.OpGreaterOrEqual: bytecode.OP_GREATER_OR_EQUAL,
	ast.OpEqual:          bytecode.OP_EQUAL,
	ast.OpNotEqual:       bytecode.OP_NOT_EQUAL,
}

func (c *Compiler) compileBinaryOp(target byte, node *ast.Node) error {
	// and/or short-circuit via conditional jumps over the rhs
	if node.Op == ast.OpAnd || node.Op == ast.OpOr {
		if err := c.compileNode(target, node.Children[0]); err != nil {
			return err
		}
		jumpOp := bytecode.OP_JUMP_FALSE
		if node.Op == ast.OpOr {
			jumpOp = bytecode.OP_JUMP_TRUE
		}
		skip := c.emitJump(jumpOp, target)
		if err := c.compileNode(target, node.Children[1]); err != nil {
			return err
		}
		return c.patchJump(skip)
	}

	lhs, err := c.frame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}
	if err := c.compileNode(lhs, node.Children[0]); err != nil {
		return err
	}
	rhs, err := c.frame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}
	if err := c.compileNode(rhs, node.Children[1]); err != nil {
		return err
	}
	c.span = node.Span
	c.emitOp(binaryOpcodes[node.Op], target, lhs, rhs)
	c.frame.popRegister()
	c.frame.popRegister()
	return nil
}

func (c *Compiler) compileIf(target byte, node *ast.Node) error {
	savedLocals := len(c.frame.locals)
	savedRegisters := c.frame.registerCount
	defer func() {
		c.frame.locals = c.frame.locals[:savedLocals]
		c.frame.registerCount = savedRegisters
	}()

	condition, err := c.frame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}
	if err := c.compileNode(condition, node.Children[0]); err != nil {
		return err
	}
	elseJump := c.emitJump(bytecode.OP_JUMP_FALSE, condition)
	c.frame.popRegister()

	if err := c.compileNode(target, node.Children[1]); err != nil {
		return err
	}
	endJump := c.emitJump(bytecode.OP_JUMP)
	if err := c.patchJump(elseJump); err != nil {
		return err
	}

	if len(node.Children) > 2 {
		if err := c.compileNode(target, node.Children[2]); err != nil {
			return err
		}
	} else {
		c.emitOp(bytecode.OP_SET_EMPTY, target)
	}
	return c.patchJump(endJump)
}

func (c *Compiler) compileWhileLoop(target byte, node *ast.Node) error {
	savedLocals := len(c.frame.locals)
	savedRegisters := c.frame.registerCount
	defer func() {
		c.frame.locals = c.frame.locals[:savedLocals]
		c.frame.registerCount = savedRegisters
	}()

	c.emitOp(bytecode.OP_SET_EMPTY, target)
	loopStart := len(c.bytes)

	condition, err := c.frame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}
	if err := c.compileNode(condition, node.Children[0]); err != nil {
		return err
	}
	exitOp := bytecode.OP_JUMP_FALSE
	if node.Type == ast.NodeUntil {
		exitOp = bytecode.OP_JUMP_TRUE
	}
	exitJump := c.emitJump(exitOp, condition)
	c.frame.popRegister()

	if err := c.compileStatement(node.Children[1]); err != nil {
		return err
	}
	if err := c.emitJumpBack(loopStart, 0, false); err != nil {
		return err
	}
	return c.patchJump(exitJump)
}

func (c *Compiler) compileForLoop(target byte, node *ast.Node) error {
	savedLocals := len(c.frame.locals)
	savedRegisters := c.frame.registerCount
	defer func() {
		c.frame.locals = c.frame.locals[:savedLocals]
		c.frame.registerCount = savedRegisters
	}()

	collect := node.BoolValue
	if collect {
		c.emitOp(bytecode.OP_MAKE_LIST, target, 0)
	} else {
		c.emitOp(bytecode.OP_SET_EMPTY, target)
	}

	iterator, err := c.frame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}
	iterable, err := c.frame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}
	if err := c.compileNode(iterable, node.Children[0]); err != nil {
		return err
	}
	c.emitOp(bytecode.OP_MAKE_ITERATOR, iterator, iterable)
	c.frame.popRegister()

	if len(node.Args) == 0 || len(node.Args) > 2 {
		return c.syntaxError("expected one or two loop variables, found %d", len(node.Args))
	}
	loopVars := make([]byte, len(node.Args))
	for i, name := range node.Args {
		register, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		c.frame.addLocal(name, register)
		loopVars[i] = register
	}

	loopStart := len(c.bytes)
	output := loopVars[0]
	if len(loopVars) == 2 {
		// pair-expecting output: the key/value pair unpacks into two
		// adjacent registers
		output |= 0x80
	}
	exitJump := c.emitJump(bytecode.OP_ITERATOR_NEXT, output, iterator)

	if collect {
		body, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(body, node.Children[1]); err != nil {
			return err
		}
		c.emitOp(bytecode.OP_LIST_PUSH, target, body)
		c.frame.popRegister()
	} else {
		if err := c.compileStatement(node.Children[1]); err != nil {
			return err
		}
	}
	if err := c.emitJumpBack(loopStart, 0, false); err != nil {
		return err
	}
	return c.patchJump(exitJump)
}

func (c *Compiler) compileTry(target byte, node *ast.Node) error {
	savedLocals := len(c.frame.locals)
	savedRegisters := c.frame.registerCount
	defer func() {
		c.frame.locals = c.frame.locals[:savedLocals]
		c.frame.registerCount = savedRegisters
	}()

	errorRegister, err := c.frame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}
	c.frame.addLocal(node.StrValue, errorRegister)
	c.emitOp(bytecode.OP_SET_EMPTY, errorRegister)

	guardStart := len(c.bytes)
	if err := c.compileNode(target, node.Children[0]); err != nil {
		return err
	}
	guardEnd := len(c.bytes)
	endJump := c.emitJump(bytecode.OP_JUMP)

	c.catches = append(c.catches, bytecode.CatchRange{
		Start:         guardStart,
		End:           guardEnd,
		Target:        len(c.bytes),
		ErrorRegister: errorRegister,
	})

	if err := c.compileNode(target, node.Children[1]); err != nil {
		return err
	}
	return c.patchJump(endJump)
}
