package runtime

import (
	"fmt"
	"strings"

	"github.com/spbots/koto/internal/bytecode"
)

// VmError is a runtime failure attributed to an instruction. The failing
// chunk and instruction offset are kept so the message can point at the
// source via the chunk's span table.
type VmError struct {
	Message     string
	Chunk       *bytecode.Chunk
	Instruction int
}

func (e *VmError) Error() string {
	span, ok := e.Chunk.SpanForOffset(e.Instruction)
	if !ok {
		return e.Message
	}

	path := e.Chunk.Path
	if path == "" {
		path = "script"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s - %s %d:%d", e.Message, path, span.Line, span.Column)

	lines := strings.Split(e.Chunk.Source, "\n")
	if span.Line >= 1 && span.Line <= len(lines) {
		line := lines[span.Line-1]
		sb.WriteString("\n")
		sb.WriteString(line)
		if span.Column >= 1 && span.Column <= len(line)+1 {
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat(" ", span.Column-1))
			sb.WriteString("^")
		}
	}
	return sb.String()
}

// ErrorWithoutLocation is an error raised by a host function before any
// instruction context exists
type ErrorWithoutLocation struct {
	Message string
}

func (e *ErrorWithoutLocation) Error() string { return e.Message }

// ExternalError builds a host-function error
func ExternalError(format string, args ...interface{}) error {
	return &ErrorWithoutLocation{Message: fmt.Sprintf(format, args...)}
}
