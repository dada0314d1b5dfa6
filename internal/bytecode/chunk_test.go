package bytecode

import (
	"testing"

	"github.com/spbots/koto/internal/ast"
)

func TestSpanForOffset(t *testing.T) {
	chunk := &Chunk{
		Spans: []SpanEntry{
			{Offset: 0, Span: ast.Span{Line: 1, Column: 1}},
			{Offset: 5, Span: ast.Span{Line: 2, Column: 3}},
			{Offset: 12, Span: ast.Span{Line: 4, Column: 1}},
		},
	}

	tests := []struct {
		offset int
		line   int
	}{
		{0, 1},
		{4, 1},
		{5, 2},
		{11, 2},
		{12, 4},
		{100, 4},
	}
	for _, tt := range tests {
		span, ok := chunk.SpanForOffset(tt.offset)
		if !ok {
			t.Fatalf("offset %d: no covering span", tt.offset)
		}
		if span.Line != tt.line {
			t.Errorf("offset %d: line = %d, want %d", tt.offset, span.Line, tt.line)
		}
	}

	if _, ok := (&Chunk{}).SpanForOffset(0); ok {
		t.Errorf("empty span table should report no span")
	}
}

func TestCatchForOffset(t *testing.T) {
	chunk := &Chunk{
		Catches: []CatchRange{
			{Start: 0, End: 20, Target: 30, ErrorRegister: 1},
			{Start: 5, End: 10, Target: 40, ErrorRegister: 2},
		},
	}

	// the innermost guarded range wins
	if catch, ok := chunk.CatchForOffset(7); !ok || catch.Target != 40 {
		t.Errorf("offset 7: got %+v, %v", catch, ok)
	}
	if catch, ok := chunk.CatchForOffset(15); !ok || catch.Target != 30 {
		t.Errorf("offset 15: got %+v, %v", catch, ok)
	}
	if _, ok := chunk.CatchForOffset(25); ok {
		t.Errorf("offset 25 should not be guarded")
	}
}
