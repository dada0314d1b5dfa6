package compiler

import (
	"strings"
	"testing"

	"github.com/spbots/koto/internal/ast"
	"github.com/spbots/koto/internal/bytecode"
	"github.com/spbots/koto/internal/parser"
)

func compileSource(t *testing.T, source string) *bytecode.Chunk {
	t.Helper()
	tree, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	chunk, err := Compile(tree, source, "test")
	if err != nil {
		t.Fatalf("compilation error: %v", err)
	}
	return chunk
}

func decodeAll(t *testing.T, chunk *bytecode.Chunk) []*bytecode.Instruction {
	t.Helper()
	var instructions []*bytecode.Instruction
	reader := bytecode.NewInstructionReader(chunk)
	for {
		inst, err := reader.Next()
		if err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if inst == nil {
			return instructions
		}
		instructions = append(instructions, inst)
	}
}

func TestCompiledChunkDecodesCleanly(t *testing.T) {
	sources := []string{
		"1 + 2",
		"x = 1\nx",
		"f = |a, b| a * b\nf 1 2",
		"l = [1, 2, 3]\nl[0..2]",
		"m = {a: 1}\nm.a",
		"if (true) 1 else 2",
		"i = 0\nwhile (i < 3) (i = i + 1)",
		"for x in [1, 2] yield x",
		"try (1 + 1) catch e 0",
		"a, b = 1, 2",
	}
	for _, source := range sources {
		t.Run(source, func(t *testing.T) {
			instructions := decodeAll(t, compileSource(t, source))
			if len(instructions) == 0 {
				t.Fatalf("no instructions emitted")
			}
			last := instructions[len(instructions)-1]
			if last.Op != bytecode.OP_RETURN {
				t.Errorf("chunk should end with Return, got %s", last.Op)
			}
		})
	}
}

func TestFunctionHeaderCarriesCaptures(t *testing.T) {
	chunk := compileSource(t, "f = |a| ( g = || a, g )")

	captureCount := 0
	functionHeaders := 0
	for _, inst := range decodeAll(t, chunk) {
		switch inst.Op {
		case bytecode.OP_FUNCTION:
			functionHeaders++
		case bytecode.OP_CAPTURE:
			captureCount++
		}
	}
	if functionHeaders != 2 {
		t.Errorf("expected 2 function headers, found %d", functionHeaders)
	}
	if captureCount != 1 {
		t.Errorf("expected 1 capture instruction, found %d", captureCount)
	}
}

func TestFunctionBodySizeSkipsBody(t *testing.T) {
	chunk := compileSource(t, "f = || 42\nf()")
	reader := bytecode.NewInstructionReader(chunk)
	for {
		offset := reader.IP
		inst, err := reader.Next()
		if err != nil {
			t.Fatal(err)
		}
		if inst == nil {
			break
		}
		if inst.Op == bytecode.OP_FUNCTION {
			// the header's size field must land on a decodable boundary
			bodyStart := reader.IP
			bodyEnd := bodyStart + inst.Offset
			if bodyEnd > len(chunk.Bytes) {
				t.Fatalf("function at %d: body size %d overruns the chunk", offset, inst.Offset)
			}
			bodyReader := bytecode.NewInstructionReader(chunk)
			bodyReader.IP = bodyStart
			for bodyReader.IP < bodyEnd {
				if _, err := bodyReader.Next(); err != nil {
					t.Fatalf("function body doesn't decode: %v", err)
				}
			}
			if bodyReader.IP != bodyEnd {
				t.Errorf("function body decodes past its size field")
			}
			return
		}
	}
	t.Fatalf("no function header found")
}

func TestJumpsLandInsideChunk(t *testing.T) {
	chunk := compileSource(t, "i = 0\nwhile (i < 3) (i = i + 1)\nif (i == 3) 1 else 2")
	reader := bytecode.NewInstructionReader(chunk)
	for {
		inst, err := reader.Next()
		if err != nil {
			t.Fatal(err)
		}
		if inst == nil {
			return
		}
		switch inst.Op {
		case bytecode.OP_JUMP, bytecode.OP_JUMP_TRUE, bytecode.OP_JUMP_FALSE,
			bytecode.OP_ITERATOR_NEXT:
			if reader.IP+inst.Offset > len(chunk.Bytes) {
				t.Errorf("forward jump to %d overruns the chunk", reader.IP+inst.Offset)
			}
		case bytecode.OP_JUMP_BACK, bytecode.OP_JUMP_BACK_FALSE:
			if reader.IP-inst.Offset < 0 {
				t.Errorf("backward jump to %d underruns the chunk", reader.IP-inst.Offset)
			}
		}
	}
}

func TestCatchRangesRecorded(t *testing.T) {
	chunk := compileSource(t, "try (1 + 1) catch e 0")
	if len(chunk.Catches) != 1 {
		t.Fatalf("expected 1 catch range, found %d", len(chunk.Catches))
	}
	catch := chunk.Catches[0]
	if catch.Start >= catch.End {
		t.Errorf("empty guarded range: %+v", catch)
	}
	if catch.Target < catch.End {
		t.Errorf("catch target should follow the guarded range: %+v", catch)
	}
}

func TestSpansAreSortedByOffset(t *testing.T) {
	chunk := compileSource(t, "x = 1\ny = 2\nf = |a| ( b = a + 1, b )\nf 1")
	for i := 1; i < len(chunk.Spans); i++ {
		if chunk.Spans[i].Offset < chunk.Spans[i-1].Offset {
			t.Fatalf("span table isn't sorted at entry %d", i)
		}
	}
	if len(chunk.Spans) == 0 || chunk.Spans[0].Offset != 0 {
		t.Errorf("the first instruction should be covered by the span table")
	}
}

func TestCompileErrorFormatting(t *testing.T) {
	err := &CompileError{
		Kind:    SyntaxError,
		Message: "unexpected assignment target",
		Span:    ast.Span{Line: 3, Column: 7},
	}
	if !strings.Contains(err.Error(), "3:7") {
		t.Errorf("compile errors should carry their span: %v", err)
	}
	internal := &CompileError{Kind: InternalError, Message: "boom", Span: ast.Span{Line: 1, Column: 1}}
	if !strings.Contains(internal.Error(), "Internal error") {
		t.Errorf("unexpected formatting: %v", internal)
	}
}

func TestGlobalAssignmentEmitsSetGlobal(t *testing.T) {
	chunk := compileSource(t, "x = 1")
	found := false
	for _, inst := range decodeAll(t, chunk) {
		if inst.Op == bytecode.OP_SET_GLOBAL {
			found = true
			if name := chunk.Constants.GetStr(inst.Constant); name != "x" {
				t.Errorf("SetGlobal constant = %q, want \"x\"", name)
			}
		}
	}
	if !found {
		t.Errorf("top level assignments should emit SetGlobal")
	}
}
