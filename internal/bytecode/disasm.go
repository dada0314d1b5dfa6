package bytecode

import (
	"fmt"
	"strings"
)

// BytecodeToString disassembles a chunk, one instruction per line, each
// prefixed with its offset
func BytecodeToString(chunk *Chunk) string {
	var sb strings.Builder
	reader := NewInstructionReader(chunk)
	ip := reader.IP

	for {
		inst, err := reader.Next()
		if err != nil {
			fmt.Fprintf(&sb, "%d\terror: %v\n", ip, err)
			break
		}
		if inst == nil {
			break
		}
		fmt.Fprintf(&sb, "%d\t%s\n", ip, inst.String())
		ip = reader.IP
	}

	return sb.String()
}

// AnnotatedToString disassembles a chunk with source lines interleaved, the
// way the CLI's --show_instructions flag presents it
func AnnotatedToString(chunk *Chunk) string {
	var sb strings.Builder
	sourceLines := strings.Split(chunk.Source, "\n")

	reader := NewInstructionReader(chunk)
	ip := reader.IP
	lastLine := 0

	for {
		inst, err := reader.Next()
		if err != nil {
			fmt.Fprintf(&sb, "%d\terror: %v\n", ip, err)
			break
		}
		if inst == nil {
			break
		}
		if span, ok := chunk.SpanForOffset(ip); ok && span.Line != lastLine {
			lastLine = span.Line
			if lastLine >= 1 && lastLine <= len(sourceLines) {
				fmt.Fprintf(&sb, "|%4d| %s\n", lastLine, sourceLines[lastLine-1])
			}
		}
		fmt.Fprintf(&sb, "%d\t%s\n", ip, inst.String())
		ip = reader.IP
	}

	return sb.String()
}
