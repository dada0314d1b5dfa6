package bytecode

import (
	"sort"

	"github.com/spbots/koto/internal/ast"
)

// SpanEntry associates an instruction offset with the source span of the
// expression it was emitted for. Entries are kept sorted by offset so the
// covering span of a failing instruction can be found with a binary search.
type SpanEntry struct {
	Offset int
	Span   ast.Span
}

// CatchRange is a guarded instruction range: when an error is raised at an
// offset inside [Start, End), execution resumes at Target with the error
// message written to ErrorRegister.
type CatchRange struct {
	Start         int
	End           int
	Target        int
	ErrorRegister byte
}

// Chunk is an immutable compiled unit: bytecode, its constant pool, and the
// span side-table. The source text and path ride along for error reporting.
type Chunk struct {
	Bytes     []byte
	Constants *ConstantPool
	Spans     []SpanEntry
	Catches   []CatchRange
	Source    string
	Path      string
}

// SpanForOffset returns the span covering the instruction at the given
// offset: the entry with the largest offset not greater than the requested
// one. The second result is false when the table is empty.
func (c *Chunk) SpanForOffset(offset int) (ast.Span, bool) {
	if len(c.Spans) == 0 {
		return ast.Span{}, false
	}
	i := sort.Search(len(c.Spans), func(i int) bool {
		return c.Spans[i].Offset > offset
	})
	if i == 0 {
		return c.Spans[0].Span, true
	}
	return c.Spans[i-1].Span, true
}

// CatchForOffset returns the innermost guarded range covering the offset
func (c *Chunk) CatchForOffset(offset int) (CatchRange, bool) {
	found := CatchRange{}
	ok := false
	for _, r := range c.Catches {
		if offset >= r.Start && offset < r.End {
			if !ok || r.Start >= found.Start {
				found = r
				ok = true
			}
		}
	}
	return found, ok
}
