// Package parser turns source text into the syntax tree the compiler
// consumes. The full indentation-sensitive surface syntax is handled by an
// external front-end; this parser covers the line- and paren-oriented
// subset used by the CLI and the tests.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spbots/koto/internal/ast"
)

type tokenType uint8

const (
	tokenEOF tokenType = iota
	tokenNewline
	tokenNumber
	tokenString
	tokenId

	tokenTrue
	tokenFalse
	tokenIf
	tokenElse
	tokenWhile
	tokenUntil
	tokenFor
	tokenIn
	tokenTry
	tokenCatch
	tokenReturn
	tokenYield
	tokenNot
	tokenAnd
	tokenOr
	tokenDebug

	tokenAssign         // =
	tokenComma          // ,
	tokenColon          // :
	tokenDot            // .
	tokenEllipsis       // ...
	tokenRange          // ..
	tokenRangeInclusive // ..=
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPercent
	tokenEqual        // ==
	tokenNotEqual     // !=
	tokenLess         // <
	tokenLessEqual    // <=
	tokenGreater      // >
	tokenGreaterEqual // >=
	tokenParenOpen
	tokenParenClose
	tokenBracketOpen
	tokenBracketClose
	tokenBraceOpen
	tokenBraceClose
	tokenPipe       // |
	tokenPipePipe   // ||
)

var keywords = map[string]tokenType{
	"true":   tokenTrue,
	"false":  tokenFalse,
	"if":     tokenIf,
	"else":   tokenElse,
	"while":  tokenWhile,
	"until":  tokenUntil,
	"for":    tokenFor,
	"in":     tokenIn,
	"try":    tokenTry,
	"catch":  tokenCatch,
	"return": tokenReturn,
	"yield":  tokenYield,
	"not":    tokenNot,
	"and":    tokenAnd,
	"or":     tokenOr,
	"debug":  tokenDebug,
}

type token struct {
	typ     tokenType
	text    string
	number  float64
	span    ast.Span
}

type lexError struct {
	message string
	span    ast.Span
}

func (e *lexError) Error() string {
	return fmt.Sprintf("Syntax error %s: %s", e.span, e.message)
}

// tokenize scans the source into a token stream. Newlines are significant
// only outside grouping delimiters.
func tokenize(source string) ([]token, error) {
	var tokens []token
	line, column := 1, 1
	depth := 0

	i := 0
	emit := func(typ tokenType, text string, width int) {
		tokens = append(tokens, token{
			typ:  typ,
			text: text,
			span: ast.Span{Line: line, Column: column},
		})
		column += width
		i += width
	}

	for i < len(source) {
		ch := source[i]
		switch {
		case ch == '\n':
			if depth == 0 {
				if n := len(tokens); n > 0 && tokens[n-1].typ != tokenNewline {
					tokens = append(tokens, token{
						typ:  tokenNewline,
						span: ast.Span{Line: line, Column: column},
					})
				}
			}
			line++
			column = 1
			i++
		case ch == ' ' || ch == '\t' || ch == '\r':
			column++
			i++
		case ch == '#':
			for i < len(source) && source[i] != '\n' {
				i++
				column++
			}
		case ch >= '0' && ch <= '9':
			start := i
			for i < len(source) && (source[i] >= '0' && source[i] <= '9') {
				i++
			}
			if i+1 < len(source) && source[i] == '.' &&
				source[i+1] >= '0' && source[i+1] <= '9' {
				i++
				for i < len(source) && (source[i] >= '0' && source[i] <= '9') {
					i++
				}
			}
			text := source[start:i]
			number, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &lexError{
					message: fmt.Sprintf("invalid number '%s'", text),
					span:    ast.Span{Line: line, Column: column},
				}
			}
			tokens = append(tokens, token{
				typ:    tokenNumber,
				text:   text,
				number: number,
				span:   ast.Span{Line: line, Column: column},
			})
			column += len(text)
		case ch == '"':
			start := i + 1
			j := start
			var sb strings.Builder
			for j < len(source) && source[j] != '"' {
				if source[j] == '\\' && j+1 < len(source) {
					switch source[j+1] {
					case 'n':
						sb.WriteByte('\n')
					case 't':
						sb.WriteByte('\t')
					case '"':
						sb.WriteByte('"')
					case '\\':
						sb.WriteByte('\\')
					default:
						sb.WriteByte(source[j+1])
					}
					j += 2
					continue
				}
				sb.WriteByte(source[j])
				j++
			}
			if j >= len(source) {
				return nil, &lexError{
					message: "unterminated string",
					span:    ast.Span{Line: line, Column: column},
				}
			}
			tokens = append(tokens, token{
				typ:  tokenString,
				text: sb.String(),
				span: ast.Span{Line: line, Column: column},
			})
			column += j + 1 - i
			i = j + 1
		case isIdStart(ch):
			start := i
			for i < len(source) && isIdChar(source[i]) {
				i++
			}
			text := source[start:i]
			typ := tokenId
			if keyword, found := keywords[text]; found {
				typ = keyword
			}
			tokens = append(tokens, token{
				typ:  typ,
				text: text,
				span: ast.Span{Line: line, Column: column},
			})
			column += len(text)
		default:
			two := ""
			if i+1 < len(source) {
				two = source[i : i+2]
			}
			three := ""
			if i+2 < len(source) {
				three = source[i : i+3]
			}
			switch {
			case three == "..=":
				emit(tokenRangeInclusive, three, 3)
			case three == "...":
				emit(tokenEllipsis, three, 3)
			case two == "..":
				emit(tokenRange, two, 2)
			case two == "==":
				emit(tokenEqual, two, 2)
			case two == "!=":
				emit(tokenNotEqual, two, 2)
			case two == "<=":
				emit(tokenLessEqual, two, 2)
			case two == ">=":
				emit(tokenGreaterEqual, two, 2)
			case two == "||":
				emit(tokenPipePipe, two, 2)
			case ch == '=':
				emit(tokenAssign, "=", 1)
			case ch == ',':
				emit(tokenComma, ",", 1)
			case ch == ':':
				emit(tokenColon, ":", 1)
			case ch == '.':
				emit(tokenDot, ".", 1)
			case ch == '+':
				emit(tokenPlus, "+", 1)
			case ch == '-':
				emit(tokenMinus, "-", 1)
			case ch == '*':
				emit(tokenStar, "*", 1)
			case ch == '/':
				emit(tokenSlash, "/", 1)
			case ch == '%':
				emit(tokenPercent, "%", 1)
			case ch == '<':
				emit(tokenLess, "<", 1)
			case ch == '>':
				emit(tokenGreater, ">", 1)
			case ch == '(':
				depth++
				emit(tokenParenOpen, "(", 1)
			case ch == ')':
				depth--
				emit(tokenParenClose, ")", 1)
			case ch == '[':
				depth++
				emit(tokenBracketOpen, "[", 1)
			case ch == ']':
				depth--
				emit(tokenBracketClose, "]", 1)
			case ch == '{':
				depth++
				emit(tokenBraceOpen, "{", 1)
			case ch == '}':
				depth--
				emit(tokenBraceClose, "}", 1)
			case ch == ';':
				if depth == 0 {
					if n := len(tokens); n == 0 || tokens[n-1].typ != tokenNewline {
						tokens = append(tokens, token{
							typ:  tokenNewline,
							span: ast.Span{Line: line, Column: column},
						})
					}
				}
				column++
				i++
			case ch == '|':
				emit(tokenPipe, "|", 1)
			default:
				return nil, &lexError{
					message: fmt.Sprintf("unexpected character '%c'", ch),
					span:    ast.Span{Line: line, Column: column},
				}
			}
		}
	}

	tokens = append(tokens, token{
		typ:  tokenEOF,
		span: ast.Span{Line: line, Column: column},
	})
	return tokens, nil
}

func isIdStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdChar(ch byte) bool {
	return isIdStart(ch) || (ch >= '0' && ch <= '9')
}
