package compiler

import (
	"github.com/spbots/koto/internal/ast"
	"github.com/spbots/koto/internal/bytecode"
)

// variadicFlag marks a function header's arg count byte as variadic
const variadicFlag = 0x80

// maxFunctionArgs is bounded by the variadic flag bit in the header
const maxFunctionArgs = 127

// compileFunction compiles a function literal. The body is compiled into a
// side buffer so the header can carry the capture count and body size, then
// the stream is assembled as header, capture instructions, body.
func (c *Compiler) compileFunction(target byte, index ast.AstIndex) error {
	node := c.node(index)
	c.span = node.Span

	args := node.Args
	variadic := false
	if n := len(args); n > 0 && len(args[n-1]) > 3 && args[n-1][len(args[n-1])-3:] == "..." {
		variadic = true
		args = append(append([]string{}, args[:n-1]...), args[n-1][:len(args[n-1])-3])
	}
	if len(args) > maxFunctionArgs {
		return c.syntaxError("too many function arguments (max %d)", maxFunctionArgs)
	}

	fnFrame := &frame{enclosing: c.frame}
	for _, name := range args {
		register, err := fnFrame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		fnFrame.addLocal(name, register)
	}

	savedBytes := c.bytes
	savedSpans := c.spans
	savedCatches := c.catches
	savedFrame := c.frame
	savedSpan := c.span
	c.bytes = nil
	c.spans = nil
	c.catches = nil
	c.frame = fnFrame

	result, err := fnFrame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}
	if err := c.compileNode(result, node.Children[0]); err != nil {
		return err
	}
	c.emitOp(bytecode.OP_RETURN, result)

	bodyBytes := c.bytes
	bodySpans := c.spans
	bodyCatches := c.catches
	c.bytes = savedBytes
	c.spans = savedSpans
	c.catches = savedCatches
	c.frame = savedFrame
	c.span = savedSpan

	if len(bodyBytes) > 0xffff {
		return c.internalError("function body is too large (%d bytes)", len(bodyBytes))
	}

	argCountByte := byte(len(args))
	if variadic {
		argCountByte |= variadicFlag
	}
	captureCount := len(fnFrame.captures)
	if captureCount > 255 {
		return c.syntaxError("too many captures in function")
	}

	op := bytecode.OP_FUNCTION
	if node.BoolValue {
		op = bytecode.OP_INSTANCE_FUNCTION
	}
	c.emitOp(op, target, argCountByte, byte(captureCount))
	c.emitU16(len(bodyBytes))

	// Capture instructions run in the enclosing frame as part of function
	// construction. A capture sourced from one of the enclosing function's
	// own captures is staged through a scratch register first.
	for i, captured := range fnFrame.captures {
		if captured.fromRegister >= 0 {
			c.emitOp(bytecode.OP_CAPTURE, target, byte(i), byte(captured.fromRegister))
			continue
		}
		scratch, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		c.emitOp(bytecode.OP_LOAD_CAPTURE, scratch, byte(captured.fromCapture))
		c.emitOp(bytecode.OP_CAPTURE, target, byte(i), scratch)
		c.frame.popRegister()
	}

	delta := len(c.bytes)
	c.bytes = append(c.bytes, bodyBytes...)
	for _, entry := range bodySpans {
		c.spans = append(c.spans, bytecode.SpanEntry{
			Offset: entry.Offset + delta,
			Span:   entry.Span,
		})
	}
	for _, catchRange := range bodyCatches {
		c.catches = append(c.catches, bytecode.CatchRange{
			Start:         catchRange.Start + delta,
			End:           catchRange.End + delta,
			Target:        catchRange.Target + delta,
			ErrorRegister: catchRange.ErrorRegister,
		})
	}
	return nil
}

// compileCall compiles a call expression. A call on a member access becomes
// CallChild with the parent placed before the arguments; the register just
// below the first argument is reserved for it.
func (c *Compiler) compileCall(target byte, node *ast.Node) error {
	callee := c.node(node.Children[0])
	callArgs := node.Children[1:]

	if len(callArgs) > 255 {
		return c.syntaxError("too many call arguments")
	}

	// num4 literals lower to MakeVec4 when the name isn't locally bound
	if callee.Type == ast.NodeId && callee.StrValue == "num4" && len(callArgs) <= 4 {
		if _, bound := c.frame.resolveLocal("num4"); !bound {
			if _, captured := c.frame.resolveCapture("num4"); !captured {
				return c.compileVec4(target, callArgs)
			}
		}
	}

	fn, err := c.frame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}

	if callee.Type == ast.NodeAccess {
		parent, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(parent, callee.Children[0]); err != nil {
			return err
		}
		key, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		constant := c.constants.AddString(callee.StrValue)
		c.emitConstantOp(bytecode.OP_LOAD_STRING, bytecode.OP_LOAD_STRING_LONG, key, constant)
		c.emitOp(bytecode.OP_MAP_ACCESS, fn, parent, key)
		c.frame.popRegister()

		// reserve the slot below the arguments for the parent value
		reserved, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		firstArg := reserved + 1
		for _, arg := range callArgs {
			register, err := c.frame.pushRegister()
			if err != nil {
				return c.internalError(err.Error())
			}
			if err := c.compileNode(register, arg); err != nil {
				return err
			}
		}
		c.span = node.Span
		c.emitOp(bytecode.OP_CALL_CHILD, fn, parent, firstArg, byte(len(callArgs)))
		c.frame.truncateRegisters(reserved)
		c.frame.popRegister() // parent
	} else {
		if err := c.compileNode(fn, node.Children[0]); err != nil {
			return err
		}
		firstArg := byte(c.frame.registerCount)
		for _, arg := range callArgs {
			register, err := c.frame.pushRegister()
			if err != nil {
				return c.internalError(err.Error())
			}
			if err := c.compileNode(register, arg); err != nil {
				return err
			}
		}
		c.span = node.Span
		c.emitOp(bytecode.OP_CALL, fn, firstArg, byte(len(callArgs)))
		c.frame.truncateRegisters(firstArg)
	}

	if fn != target {
		c.emitOp(bytecode.OP_COPY, target, fn)
	}
	c.frame.popRegister() // fn
	return nil
}

func (c *Compiler) compileVec4(target byte, elements []ast.AstIndex) error {
	first := byte(c.frame.registerCount)
	for _, element := range elements {
		register, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(register, element); err != nil {
			return err
		}
	}
	c.emitOp(bytecode.OP_MAKE_VEC4, target, byte(len(elements)), first)
	c.frame.truncateRegisters(first)
	return nil
}

func (c *Compiler) compileAccess(target byte, node *ast.Node) error {
	parent, err := c.frame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}
	if err := c.compileNode(parent, node.Children[0]); err != nil {
		return err
	}
	key, err := c.frame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}
	constant := c.constants.AddString(node.StrValue)
	c.emitConstantOp(bytecode.OP_LOAD_STRING, bytecode.OP_LOAD_STRING_LONG, key, constant)
	c.span = node.Span
	c.emitOp(bytecode.OP_MAP_ACCESS, target, parent, key)
	c.frame.popRegister()
	c.frame.popRegister()
	return nil
}

func (c *Compiler) compileIndex(target byte, node *ast.Node) error {
	parent, err := c.frame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}
	if err := c.compileNode(parent, node.Children[0]); err != nil {
		return err
	}
	indexRegister, err := c.frame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}
	if err := c.compileNode(indexRegister, node.Children[1]); err != nil {
		return err
	}
	c.span = node.Span
	c.emitOp(bytecode.OP_LIST_INDEX, target, parent, indexRegister)
	c.frame.popRegister()
	c.frame.popRegister()
	return nil
}

// compileAssign compiles an assignment. In the script frame, name bindings
// are globals; in function frames they're locals, and assignments to names
// captured from enclosing frames write through SetCapture.
func (c *Compiler) compileAssign(index ast.AstIndex, target byte, wantValue bool) error {
	node := c.node(index)
	c.span = node.Span
	lhs := c.node(node.Children[0])
	rhs := node.Children[1]

	switch lhs.Type {
	case ast.NodeId:
		name := lhs.StrValue
		if register, found := c.frame.resolveLocal(name); found {
			if err := c.compileNode(register, rhs); err != nil {
				return err
			}
			if wantValue && register != target {
				c.emitOp(bytecode.OP_COPY, target, register)
			}
			return nil
		}
		if captureIndex, found := c.frame.resolveCapture(name); found {
			value, err := c.frame.pushRegister()
			if err != nil {
				return c.internalError(err.Error())
			}
			if err := c.compileNode(value, rhs); err != nil {
				return err
			}
			c.emitOp(bytecode.OP_SET_CAPTURE, byte(captureIndex), value)
			if wantValue {
				c.emitOp(bytecode.OP_COPY, target, value)
			}
			c.frame.popRegister()
			return nil
		}
		if c.frame.enclosing == nil {
			// script frame: bindings are globals
			value, err := c.frame.pushRegister()
			if err != nil {
				return c.internalError(err.Error())
			}
			if err := c.compileNode(value, rhs); err != nil {
				return err
			}
			constant := c.constants.AddString(name)
			c.span = node.Span
			if constant <= bytecode.MaxShortConstantIndex {
				c.emitOp(bytecode.OP_SET_GLOBAL, byte(constant), value)
			} else {
				c.emitOp(bytecode.OP_SET_GLOBAL_LONG)
				c.emitU32(uint32(constant))
				c.emitByte(value)
			}
			if wantValue {
				c.emitOp(bytecode.OP_COPY, target, value)
			}
			c.frame.popRegister()
			return nil
		}
		register, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(register, rhs); err != nil {
			return err
		}
		c.frame.addLocal(name, register)
		if wantValue {
			c.emitOp(bytecode.OP_COPY, target, register)
		}
		return nil

	case ast.NodeAccess:
		parent, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(parent, lhs.Children[0]); err != nil {
			return err
		}
		key, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		constant := c.constants.AddString(lhs.StrValue)
		c.emitConstantOp(bytecode.OP_LOAD_STRING, bytecode.OP_LOAD_STRING_LONG, key, constant)
		value, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(value, rhs); err != nil {
			return err
		}
		c.span = node.Span
		c.emitOp(bytecode.OP_MAP_INSERT, parent, key, value)
		if wantValue {
			c.emitOp(bytecode.OP_COPY, target, value)
		}
		c.frame.popRegister()
		c.frame.popRegister()
		c.frame.popRegister()
		return nil

	case ast.NodeIndex:
		parent, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(parent, lhs.Children[0]); err != nil {
			return err
		}
		indexRegister, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(indexRegister, lhs.Children[1]); err != nil {
			return err
		}
		value, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		if err := c.compileNode(value, rhs); err != nil {
			return err
		}
		c.span = node.Span
		c.emitOp(bytecode.OP_LIST_UPDATE, parent, indexRegister, value)
		if wantValue {
			c.emitOp(bytecode.OP_COPY, target, value)
		}
		c.frame.popRegister()
		c.frame.popRegister()
		c.frame.popRegister()
		return nil

	default:
		return c.syntaxError("unexpected assignment target")
	}
}

// compileMultiAssign unpacks a multi-valued expression into a list of name
// targets via ExpressionIndex
func (c *Compiler) compileMultiAssign(index ast.AstIndex) error {
	node := c.node(index)
	c.span = node.Span

	source, err := c.frame.pushRegister()
	if err != nil {
		return c.internalError(err.Error())
	}
	if err := c.compileNode(source, node.Children[0]); err != nil {
		return err
	}

	for i, name := range node.Args {
		if i > 255 {
			return c.syntaxError("too many assignment targets")
		}
		value, err := c.frame.pushRegister()
		if err != nil {
			return c.internalError(err.Error())
		}
		c.emitOp(bytecode.OP_EXPRESSION_INDEX, value, source, byte(i))

		if register, found := c.frame.resolveLocal(name); found {
			c.emitOp(bytecode.OP_COPY, register, value)
			c.frame.popRegister()
		} else if captureIndex, found := c.frame.resolveCapture(name); found {
			c.emitOp(bytecode.OP_SET_CAPTURE, byte(captureIndex), value)
			c.frame.popRegister()
		} else if c.frame.enclosing == nil {
			constant := c.constants.AddString(name)
			if constant <= bytecode.MaxShortConstantIndex {
				c.emitOp(bytecode.OP_SET_GLOBAL, byte(constant), value)
			} else {
				c.emitOp(bytecode.OP_SET_GLOBAL_LONG)
				c.emitU32(uint32(constant))
				c.emitByte(value)
			}
			c.frame.popRegister()
		} else {
			// the unpacked register becomes the local's storage
			c.frame.addLocal(name, value)
		}
	}

	// release the source register; locals allocated above it stay put
	if c.frame.enclosing == nil {
		c.frame.popRegister()
	}
	return nil
}
