package parser

import (
	"fmt"
	"strings"

	"github.com/spbots/koto/internal/ast"
)

// Error is a parse failure with a source span
type Error struct {
	Message string
	Span    ast.Span
}

func (e *Error) Error() string {
	return fmt.Sprintf("Syntax error %s: %s", e.Span, e.Message)
}

type parser struct {
	tokens []token
	pos    int
	tree   *ast.Ast

	// noCall suppresses juxtaposition calls while parsing a control-flow
	// condition or iterable, where `while x (body)` must not parse as a
	// call of x. Nested delimiters re-enable them.
	noCall int
}

// Parse turns source text into a syntax tree
func Parse(source string) (*ast.Ast, error) {
	tokens, err := tokenize(source)
	if err != nil {
		if lexErr, ok := err.(*lexError); ok {
			return nil, &Error{Message: lexErr.message, Span: lexErr.span}
		}
		return nil, err
	}
	p := &parser{tokens: tokens, tree: ast.New()}

	root, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	p.tree.SetRoot(root)
	return p.tree, nil
}

func (p *parser) peek() *token {
	return &p.tokens[p.pos]
}

func (p *parser) previous() *token {
	if p.pos == 0 {
		return &p.tokens[0]
	}
	return &p.tokens[p.pos-1]
}

func (p *parser) advance() *token {
	t := &p.tokens[p.pos]
	if t.typ != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) check(typ tokenType) bool {
	return p.peek().typ == typ
}

func (p *parser) match(typ tokenType) bool {
	if p.check(typ) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(typ tokenType, what string) (*token, error) {
	if p.check(typ) {
		return p.advance(), nil
	}
	return nil, p.errorHere("expected %s", what)
}

func (p *parser) errorHere(format string, args ...interface{}) error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Span:    p.peek().span,
	}
}

func (p *parser) push(node ast.Node) (ast.AstIndex, error) {
	index, err := p.tree.Push(node)
	if err != nil {
		return 0, &Error{Message: err.Error(), Span: node.Span}
	}
	return index, nil
}

func (p *parser) skipNewlines() {
	for p.match(tokenNewline) {
	}
}

func (p *parser) parseProgram() (ast.AstIndex, error) {
	span := p.peek().span
	var items []ast.AstIndex
	p.skipNewlines()
	for !p.check(tokenEOF) {
		item, err := p.parseStatement()
		if err != nil {
			return 0, err
		}
		items = append(items, item)
		if !p.check(tokenEOF) {
			if !p.match(tokenNewline) {
				return 0, p.errorHere("expected a newline between expressions")
			}
			p.skipNewlines()
		}
	}
	return p.push(ast.Node{Type: ast.NodeBlock, Span: span, Children: items})
}

// parseStatement parses one item: an expression, an assignment, or a
// multi-assignment
func (p *parser) parseStatement() (ast.AstIndex, error) {
	span := p.peek().span
	first, err := p.parseExpr()
	if err != nil {
		return 0, err
	}

	if p.check(tokenComma) {
		elements := []ast.AstIndex{first}
		for p.match(tokenComma) {
			element, err := p.parseExpr()
			if err != nil {
				return 0, err
			}
			elements = append(elements, element)
		}
		if p.match(tokenAssign) {
			names := make([]string, len(elements))
			for i, element := range elements {
				node := p.tree.Node(element)
				if node.Type != ast.NodeId {
					return 0, &Error{
						Message: "expected a name in a multi-assignment target",
						Span:    node.Span,
					}
				}
				names[i] = node.StrValue
			}
			rhs, err := p.parseExprList()
			if err != nil {
				return 0, err
			}
			return p.push(ast.Node{
				Type:     ast.NodeMultiAssign,
				Span:     span,
				Args:     names,
				Children: []ast.AstIndex{rhs},
			})
		}
		return p.push(ast.Node{Type: ast.NodeTuple, Span: span, Children: elements})
	}

	if p.match(tokenAssign) {
		target := p.tree.Node(first)
		switch target.Type {
		case ast.NodeId, ast.NodeAccess, ast.NodeIndex:
		default:
			return 0, &Error{Message: "unexpected assignment target", Span: target.Span}
		}
		rhs, err := p.parseExprList()
		if err != nil {
			return 0, err
		}
		return p.push(ast.Node{
			Type:     ast.NodeAssign,
			Span:     span,
			Children: []ast.AstIndex{first, rhs},
		})
	}

	return first, nil
}

// parseExprList parses comma-separated expressions; more than one makes a
// multi-valued expression
func (p *parser) parseExprList() (ast.AstIndex, error) {
	span := p.peek().span
	first, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if !p.check(tokenComma) {
		return first, nil
	}
	elements := []ast.AstIndex{first}
	for p.match(tokenComma) {
		element, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		elements = append(elements, element)
	}
	return p.push(ast.Node{Type: ast.NodeTuple, Span: span, Children: elements})
}

func (p *parser) parseExpr() (ast.AstIndex, error) {
	return p.parseOr()
}

// parseExprNoCall parses an expression with juxtaposition calls disabled
func (p *parser) parseExprNoCall() (ast.AstIndex, error) {
	p.noCall++
	defer func() { p.noCall-- }()
	return p.parseOr()
}

func (p *parser) parseOr() (ast.AstIndex, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return 0, err
	}
	for p.check(tokenOr) {
		span := p.advance().span
		rhs, err := p.parseAnd()
		if err != nil {
			return 0, err
		}
		lhs, err = p.push(ast.Node{
			Type: ast.NodeBinaryOp, Span: span, Op: ast.OpOr,
			Children: []ast.AstIndex{lhs, rhs},
		})
		if err != nil {
			return 0, err
		}
	}
	return lhs, nil
}

func (p *parser) parseAnd() (ast.AstIndex, error) {
	lhs, err := p.parseNot()
	if err != nil {
		return 0, err
	}
	for p.check(tokenAnd) {
		span := p.advance().span
		rhs, err := p.parseNot()
		if err != nil {
			return 0, err
		}
		lhs, err = p.push(ast.Node{
			Type: ast.NodeBinaryOp, Span: span, Op: ast.OpAnd,
			Children: []ast.AstIndex{lhs, rhs},
		})
		if err != nil {
			return 0, err
		}
	}
	return lhs, nil
}

func (p *parser) parseNot() (ast.AstIndex, error) {
	if p.check(tokenNot) {
		span := p.advance().span
		operand, err := p.parseNot()
		if err != nil {
			return 0, err
		}
		return p.push(ast.Node{
			Type: ast.NodeNot, Span: span,
			Children: []ast.AstIndex{operand},
		})
	}
	return p.parseEquality()
}

var equalityOps = map[tokenType]ast.BinaryOp{
	tokenEqual:    ast.OpEqual,
	tokenNotEqual: ast.OpNotEqual,
}

var comparisonOps = map[tokenType]ast.BinaryOp{
	tokenLess:         ast.OpLess,
	tokenLessEqual:    ast.OpLessOrEqual,
	tokenGreater:      ast.OpGreater,
	tokenGreaterEqual: ast.OpGreaterOrEqual,
}

var additiveOps = map[tokenType]ast.BinaryOp{
	tokenPlus:  ast.OpAdd,
	tokenMinus: ast.OpSubtract,
}

var multiplicativeOps = map[tokenType]ast.BinaryOp{
	tokenStar:    ast.OpMultiply,
	tokenSlash:   ast.OpDivide,
	tokenPercent: ast.OpModulo,
}

func (p *parser) parseBinary(
	ops map[tokenType]ast.BinaryOp,
	operand func() (ast.AstIndex, error),
) (ast.AstIndex, error) {
	lhs, err := operand()
	if err != nil {
		return 0, err
	}
	for {
		op, found := ops[p.peek().typ]
		if !found {
			return lhs, nil
		}
		span := p.advance().span
		rhs, err := operand()
		if err != nil {
			return 0, err
		}
		lhs, err = p.push(ast.Node{
			Type: ast.NodeBinaryOp, Span: span, Op: op,
			Children: []ast.AstIndex{lhs, rhs},
		})
		if err != nil {
			return 0, err
		}
	}
}

func (p *parser) parseEquality() (ast.AstIndex, error) {
	return p.parseBinary(equalityOps, p.parseComparison)
}

func (p *parser) parseComparison() (ast.AstIndex, error) {
	return p.parseBinary(comparisonOps, p.parseRange)
}

func (p *parser) parseRange() (ast.AstIndex, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return 0, err
	}
	if p.check(tokenRange) || p.check(tokenRangeInclusive) {
		inclusive := p.peek().typ == tokenRangeInclusive
		span := p.advance().span
		rhs, err := p.parseAdditive()
		if err != nil {
			return 0, err
		}
		return p.push(ast.Node{
			Type: ast.NodeRange, Span: span,
			Children:  []ast.AstIndex{lhs, rhs},
			BoolValue: inclusive,
			HasStart:  true,
			HasEnd:    true,
		})
	}
	return lhs, nil
}

func (p *parser) parseAdditive() (ast.AstIndex, error) {
	return p.parseBinary(additiveOps, p.parseMultiplicative)
}

func (p *parser) parseMultiplicative() (ast.AstIndex, error) {
	return p.parseBinary(multiplicativeOps, p.parseUnary)
}

func (p *parser) parseUnary() (ast.AstIndex, error) {
	if p.check(tokenMinus) {
		span := p.advance().span
		operand, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return p.push(ast.Node{
			Type: ast.NodeNegate, Span: span,
			Children: []ast.AstIndex{operand},
		})
	}
	return p.parsePostfix()
}

// canStartArgument reports whether a token can begin a call argument.
// Minus is excluded: `f -1` would be ambiguous with subtraction.
func canStartArgument(typ tokenType) bool {
	switch typ {
	case tokenNumber, tokenString, tokenId, tokenTrue, tokenFalse,
		tokenParenOpen, tokenBracketOpen, tokenBraceOpen,
		tokenPipe, tokenPipePipe, tokenNot:
		return true
	}
	return false
}

func (p *parser) parsePostfix() (ast.AstIndex, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}

	for {
		switch {
		case p.check(tokenDot):
			span := p.advance().span
			name, err := p.expect(tokenId, "a name after '.'")
			if err != nil {
				return 0, err
			}
			expr, err = p.push(ast.Node{
				Type: ast.NodeAccess, Span: span,
				Children: []ast.AstIndex{expr},
				StrValue: name.text,
			})
			if err != nil {
				return 0, err
			}
		case p.check(tokenBracketOpen) && p.peek().span.Line == p.previous().span.Line:
			span := p.advance().span
			p.skipNewlines()
			saved := p.noCall
			p.noCall = 0
			index, err := p.parseExpr()
			p.noCall = saved
			if err != nil {
				return 0, err
			}
			p.skipNewlines()
			if _, err := p.expect(tokenBracketClose, "']'"); err != nil {
				return 0, err
			}
			expr, err = p.push(ast.Node{
				Type: ast.NodeIndex, Span: span,
				Children: []ast.AstIndex{expr, index},
			})
			if err != nil {
				return 0, err
			}
		case p.check(tokenParenOpen) &&
			p.tokens[p.pos+1].typ == tokenParenClose &&
			p.callableTarget(expr):
			span := p.advance().span
			p.advance()
			expr, err = p.push(ast.Node{
				Type: ast.NodeCall, Span: span,
				Children: []ast.AstIndex{expr},
			})
			if err != nil {
				return 0, err
			}
		case p.noCall == 0 && canStartArgument(p.peek().typ) &&
			p.peek().span.Line == p.previous().span.Line &&
			p.callableTarget(expr):
			span := p.tree.Node(expr).Span
			children := []ast.AstIndex{expr}
			arg, err := p.parseComparison()
			if err != nil {
				return 0, err
			}
			children = append(children, arg)
			for {
				if p.match(tokenComma) {
					arg, err := p.parseComparison()
					if err != nil {
						return 0, err
					}
					children = append(children, arg)
					continue
				}
				if canStartArgument(p.peek().typ) &&
					p.peek().span.Line == p.previous().span.Line {
					arg, err := p.parseComparison()
					if err != nil {
						return 0, err
					}
					children = append(children, arg)
					continue
				}
				break
			}
			expr, err = p.push(ast.Node{
				Type: ast.NodeCall, Span: span, Children: children,
			})
			if err != nil {
				return 0, err
			}
		default:
			return expr, nil
		}
	}
}

// callableTarget restricts juxtaposition calls to names, accesses, and the
// results of other calls
func (p *parser) callableTarget(expr ast.AstIndex) bool {
	switch p.tree.Node(expr).Type {
	case ast.NodeId, ast.NodeAccess, ast.NodeCall:
		return true
	}
	return false
}

func (p *parser) parsePrimary() (ast.AstIndex, error) {
	t := p.peek()
	switch t.typ {
	case tokenNumber:
		p.advance()
		return p.push(ast.Node{Type: ast.NodeNumber, Span: t.span, NumberValue: t.number})
	case tokenString:
		p.advance()
		return p.push(ast.Node{Type: ast.NodeStr, Span: t.span, StrValue: t.text})
	case tokenTrue, tokenFalse:
		p.advance()
		return p.push(ast.Node{
			Type: ast.NodeBool, Span: t.span, BoolValue: t.typ == tokenTrue,
		})
	case tokenId:
		p.advance()
		return p.push(ast.Node{Type: ast.NodeId, Span: t.span, StrValue: t.text})
	case tokenParenOpen:
		return p.parseParens()
	case tokenBracketOpen:
		return p.parseListLiteral()
	case tokenBraceOpen:
		return p.parseMapLiteral()
	case tokenPipe, tokenPipePipe:
		return p.parseFunction()
	case tokenIf:
		return p.parseIf()
	case tokenWhile, tokenUntil:
		return p.parseWhile()
	case tokenFor:
		return p.parseFor()
	case tokenTry:
		return p.parseTry()
	case tokenReturn:
		return p.parseReturn()
	case tokenDebug:
		return p.parseDebug()
	default:
		return 0, p.errorHere("unexpected token")
	}
}

// parseParens handles `()` (the empty value), `(expr)` (grouping), and
// `(e1, e2, ...)` (a block evaluating to its last expression)
func (p *parser) parseParens() (ast.AstIndex, error) {
	saved := p.noCall
	p.noCall = 0
	defer func() { p.noCall = saved }()

	span := p.advance().span
	p.skipNewlines()
	if p.match(tokenParenClose) {
		return p.push(ast.Node{Type: ast.NodeEmpty, Span: span})
	}

	var items []ast.AstIndex
	for {
		item, err := p.parseBlockItem()
		if err != nil {
			return 0, err
		}
		items = append(items, item)
		p.skipNewlines()
		if p.match(tokenComma) {
			p.skipNewlines()
			continue
		}
		break
	}
	if _, err := p.expect(tokenParenClose, "')'"); err != nil {
		return 0, err
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return p.push(ast.Node{Type: ast.NodeBlock, Span: span, Children: items})
}

// parseBlockItem parses one item of a paren block: an expression or an
// assignment (commas separate items, so multi-assignment isn't available
// inside a block)
func (p *parser) parseBlockItem() (ast.AstIndex, error) {
	span := p.peek().span
	first, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.match(tokenAssign) {
		target := p.tree.Node(first)
		switch target.Type {
		case ast.NodeId, ast.NodeAccess, ast.NodeIndex:
		default:
			return 0, &Error{Message: "unexpected assignment target", Span: target.Span}
		}
		rhs, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		return p.push(ast.Node{
			Type:     ast.NodeAssign,
			Span:     span,
			Children: []ast.AstIndex{first, rhs},
		})
	}
	return first, nil
}

func (p *parser) parseListLiteral() (ast.AstIndex, error) {
	saved := p.noCall
	p.noCall = 0
	defer func() { p.noCall = saved }()

	span := p.advance().span
	var elements []ast.AstIndex
	p.skipNewlines()
	for !p.check(tokenBracketClose) {
		element, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		elements = append(elements, element)
		p.skipNewlines()
		if !p.match(tokenComma) {
			break
		}
		p.skipNewlines()
	}
	if _, err := p.expect(tokenBracketClose, "']'"); err != nil {
		return 0, err
	}
	return p.push(ast.Node{Type: ast.NodeList, Span: span, Children: elements})
}

func (p *parser) parseMapLiteral() (ast.AstIndex, error) {
	saved := p.noCall
	p.noCall = 0
	defer func() { p.noCall = saved }()

	span := p.advance().span
	var children []ast.AstIndex
	p.skipNewlines()
	for !p.check(tokenBraceClose) {
		keyToken := p.peek()
		if keyToken.typ != tokenId && keyToken.typ != tokenString {
			return 0, p.errorHere("expected a map key")
		}
		p.advance()
		key, err := p.push(ast.Node{
			Type: ast.NodeStr, Span: keyToken.span, StrValue: keyToken.text,
		})
		if err != nil {
			return 0, err
		}
		if _, err := p.expect(tokenColon, "':' after map key"); err != nil {
			return 0, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		children = append(children, key, value)
		p.skipNewlines()
		if !p.match(tokenComma) {
			break
		}
		p.skipNewlines()
	}
	if _, err := p.expect(tokenBraceClose, "'}'"); err != nil {
		return 0, err
	}
	return p.push(ast.Node{Type: ast.NodeMap, Span: span, Children: children})
}

func (p *parser) parseFunction() (ast.AstIndex, error) {
	span := p.peek().span
	var args []string

	if p.match(tokenPipePipe) {
		// no arguments
	} else {
		p.advance() // opening '|'
		for !p.check(tokenPipe) {
			name, err := p.expect(tokenId, "an argument name")
			if err != nil {
				return 0, err
			}
			argName := name.text
			if p.match(tokenEllipsis) {
				argName += "..."
			}
			args = append(args, argName)
			if !p.match(tokenComma) {
				break
			}
		}
		if _, err := p.expect(tokenPipe, "'|' after function arguments"); err != nil {
			return 0, err
		}
	}

	body, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	instance := len(args) > 0 && args[0] == "self"
	return p.push(ast.Node{
		Type:      ast.NodeFunction,
		Span:      span,
		Args:      args,
		Children:  []ast.AstIndex{body},
		BoolValue: instance,
	})
}

func (p *parser) parseIf() (ast.AstIndex, error) {
	span := p.advance().span
	condition, err := p.parseExprNoCall()
	if err != nil {
		return 0, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	children := []ast.AstIndex{condition, then}

	saved := p.pos
	p.skipNewlines()
	if p.match(tokenElse) {
		elseBranch, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		children = append(children, elseBranch)
	} else {
		p.pos = saved
	}
	return p.push(ast.Node{Type: ast.NodeIf, Span: span, Children: children})
}

func (p *parser) parseWhile() (ast.AstIndex, error) {
	t := p.advance()
	nodeType := ast.NodeWhile
	if t.typ == tokenUntil {
		nodeType = ast.NodeUntil
	}
	condition, err := p.parseExprNoCall()
	if err != nil {
		return 0, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	return p.push(ast.Node{
		Type: nodeType, Span: t.span,
		Children: []ast.AstIndex{condition, body},
	})
}

func (p *parser) parseFor() (ast.AstIndex, error) {
	span := p.advance().span
	var names []string
	for {
		name, err := p.expect(tokenId, "a loop variable name")
		if err != nil {
			return 0, err
		}
		names = append(names, name.text)
		if !p.match(tokenComma) {
			break
		}
	}
	if _, err := p.expect(tokenIn, "'in' after loop variables"); err != nil {
		return 0, err
	}
	iterable, err := p.parseExprNoCall()
	if err != nil {
		return 0, err
	}
	collect := p.match(tokenYield)
	body, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	return p.push(ast.Node{
		Type:      ast.NodeFor,
		Span:      span,
		Args:      names,
		Children:  []ast.AstIndex{iterable, body},
		BoolValue: collect,
	})
}

func (p *parser) parseTry() (ast.AstIndex, error) {
	span := p.advance().span
	body, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipNewlines()
	if _, err := p.expect(tokenCatch, "'catch' after a try expression"); err != nil {
		return 0, err
	}
	name, err := p.expect(tokenId, "an error name after 'catch'")
	if err != nil {
		return 0, err
	}
	catchBody, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	return p.push(ast.Node{
		Type:     ast.NodeTry,
		Span:     span,
		StrValue: name.text,
		Children: []ast.AstIndex{body, catchBody},
	})
}

func (p *parser) parseReturn() (ast.AstIndex, error) {
	t := p.advance()
	var children []ast.AstIndex
	if canStartArgument(p.peek().typ) && p.peek().span.Line == t.span.Line {
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		children = append(children, value)
	}
	return p.push(ast.Node{Type: ast.NodeReturn, Span: t.span, Children: children})
}

func (p *parser) parseDebug() (ast.AstIndex, error) {
	t := p.advance()
	start := p.pos
	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	var texts []string
	for _, tok := range p.tokens[start:p.pos] {
		if tok.text != "" {
			texts = append(texts, tok.text)
		}
	}
	return p.push(ast.Node{
		Type:     ast.NodeDebug,
		Span:     t.span,
		StrValue: strings.Join(texts, " "),
		Children: []ast.AstIndex{value},
	})
}
