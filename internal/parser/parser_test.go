package parser

import (
	"strings"
	"testing"

	"github.com/spbots/koto/internal/ast"
)

func parse(t *testing.T, source string) *ast.Ast {
	t.Helper()
	tree, err := Parse(source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return tree
}

func rootChildren(t *testing.T, tree *ast.Ast) []ast.AstIndex {
	t.Helper()
	root := tree.Node(tree.Root())
	if root.Type != ast.NodeBlock {
		t.Fatalf("root is not a block")
	}
	return root.Children
}

func TestParseProgramStructure(t *testing.T) {
	tree := parse(t, "x = 1 + 2\nx")
	items := rootChildren(t, tree)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	assign := tree.Node(items[0])
	if assign.Type != ast.NodeAssign {
		t.Errorf("first item should be an assignment, got %d", assign.Type)
	}
	if tree.Node(assign.Children[0]).StrValue != "x" {
		t.Errorf("assignment target should be x")
	}
	rhs := tree.Node(assign.Children[1])
	if rhs.Type != ast.NodeBinaryOp || rhs.Op != ast.OpAdd {
		t.Errorf("rhs should be an addition")
	}
}

func TestParsePrecedence(t *testing.T) {
	tree := parse(t, "1 + 2 * 3")
	items := rootChildren(t, tree)
	add := tree.Node(items[0])
	if add.Op != ast.OpAdd {
		t.Fatalf("top operator should be +")
	}
	mul := tree.Node(add.Children[1])
	if mul.Type != ast.NodeBinaryOp || mul.Op != ast.OpMultiply {
		t.Errorf("* should bind tighter than +")
	}
}

func TestParseFunction(t *testing.T) {
	tree := parse(t, "f = |a, b| a * b")
	assign := tree.Node(rootChildren(t, tree)[0])
	fn := tree.Node(assign.Children[1])
	if fn.Type != ast.NodeFunction {
		t.Fatalf("rhs should be a function, got %d", fn.Type)
	}
	if len(fn.Args) != 2 || fn.Args[0] != "a" || fn.Args[1] != "b" {
		t.Errorf("unexpected args: %v", fn.Args)
	}
	if fn.BoolValue {
		t.Errorf("function should not be marked as an instance function")
	}
}

func TestParseInstanceFunction(t *testing.T) {
	tree := parse(t, "f = |self| self")
	assign := tree.Node(rootChildren(t, tree)[0])
	fn := tree.Node(assign.Children[1])
	if !fn.BoolValue {
		t.Errorf("a function with a self parameter should be an instance function")
	}
}

func TestParseVariadicFunction(t *testing.T) {
	tree := parse(t, "f = |a, rest...| rest")
	assign := tree.Node(rootChildren(t, tree)[0])
	fn := tree.Node(assign.Children[1])
	if len(fn.Args) != 2 || fn.Args[1] != "rest..." {
		t.Errorf("unexpected args: %v", fn.Args)
	}
}

func TestParseJuxtapositionCall(t *testing.T) {
	tree := parse(t, "f 3 4")
	call := tree.Node(rootChildren(t, tree)[0])
	if call.Type != ast.NodeCall {
		t.Fatalf("expected a call, got %d", call.Type)
	}
	if len(call.Children) != 3 {
		t.Errorf("expected callee plus 2 args, got %d children", len(call.Children))
	}
}

func TestParseMethodCall(t *testing.T) {
	tree := parse(t, "l.push 4")
	call := tree.Node(rootChildren(t, tree)[0])
	if call.Type != ast.NodeCall {
		t.Fatalf("expected a call")
	}
	access := tree.Node(call.Children[0])
	if access.Type != ast.NodeAccess || access.StrValue != "push" {
		t.Errorf("callee should be an access of push")
	}
}

func TestParseEmptyParensCall(t *testing.T) {
	tree := parse(t, "f()")
	call := tree.Node(rootChildren(t, tree)[0])
	if call.Type != ast.NodeCall || len(call.Children) != 1 {
		t.Errorf("expected a zero-argument call")
	}
}

func TestParseMapLiteral(t *testing.T) {
	tree := parse(t, "{a: 1, \"b c\": 2}")
	m := tree.Node(rootChildren(t, tree)[0])
	if m.Type != ast.NodeMap || len(m.Children) != 4 {
		t.Fatalf("unexpected map node: %+v", m)
	}
	if tree.Node(m.Children[2]).StrValue != "b c" {
		t.Errorf("string keys should be allowed")
	}
}

func TestParseRanges(t *testing.T) {
	tree := parse(t, "0..3")
	r := tree.Node(rootChildren(t, tree)[0])
	if r.Type != ast.NodeRange || r.BoolValue {
		t.Errorf("expected an exclusive range")
	}

	tree = parse(t, "0..=3")
	r = tree.Node(rootChildren(t, tree)[0])
	if r.Type != ast.NodeRange || !r.BoolValue {
		t.Errorf("expected an inclusive range")
	}
}

func TestParseForLoop(t *testing.T) {
	tree := parse(t, "for k, v in m (k)")
	loop := tree.Node(rootChildren(t, tree)[0])
	if loop.Type != ast.NodeFor {
		t.Fatalf("expected a for loop")
	}
	if len(loop.Args) != 2 || loop.Args[0] != "k" || loop.Args[1] != "v" {
		t.Errorf("unexpected loop vars: %v", loop.Args)
	}
	if loop.BoolValue {
		t.Errorf("a loop without yield should not collect")
	}

	tree = parse(t, "for i in 0..3 yield i")
	loop = tree.Node(rootChildren(t, tree)[0])
	if !loop.BoolValue {
		t.Errorf("a yield loop should collect")
	}
}

func TestParseMultiAssign(t *testing.T) {
	tree := parse(t, "a, b = 1, 2")
	node := tree.Node(rootChildren(t, tree)[0])
	if node.Type != ast.NodeMultiAssign {
		t.Fatalf("expected a multi-assignment")
	}
	if len(node.Args) != 2 || node.Args[0] != "a" || node.Args[1] != "b" {
		t.Errorf("unexpected targets: %v", node.Args)
	}
}

func TestParseTryCatch(t *testing.T) {
	tree := parse(t, "try (f()) catch e (g e)")
	node := tree.Node(rootChildren(t, tree)[0])
	if node.Type != ast.NodeTry || node.StrValue != "e" {
		t.Errorf("unexpected try node: %+v", node)
	}
}

func TestSpansAreRecorded(t *testing.T) {
	tree := parse(t, "x = 1\ny = 2")
	items := rootChildren(t, tree)
	first := tree.Node(items[0])
	second := tree.Node(items[1])
	if first.Span.Line != 1 || second.Span.Line != 2 {
		t.Errorf("spans: %v, %v", first.Span, second.Span)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		source  string
		message string
	}{
		{"(1 + 2", "expected ')'"},
		{"[1, 2", "expected ']'"},
		{"{a 1}", "expected ':'"},
		{"1 = 2", "assignment target"},
		{"\"unterminated", "unterminated string"},
		{"for in x (1)", "loop variable"},
		{"try (1)", "catch"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, err := Parse(tt.source)
			if err == nil {
				t.Fatalf("expected a parse error")
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q should mention %q", err.Error(), tt.message)
			}
		})
	}
}

func TestCommentsAreIgnored(t *testing.T) {
	tree := parse(t, "# a comment\nx = 1 # trailing\nx")
	if len(rootChildren(t, tree)) != 2 {
		t.Errorf("comments should not produce items")
	}
}
