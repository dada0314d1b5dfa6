// Package loader turns source text into compiled chunks, caching compiled
// modules so repeated imports reuse the same chunk.
package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spbots/koto/internal/ast"
	"github.com/spbots/koto/internal/bytecode"
	"github.com/spbots/koto/internal/compiler"
	"github.com/spbots/koto/internal/parser"
)

// SourceFileExt is the extension of the language's script files
const SourceFileExt = ".koto"

// LoaderError means a compilable syntax tree couldn't be obtained
type LoaderError struct {
	Message string
	Span    ast.Span
}

func (e *LoaderError) Error() string { return e.Message }

// ParseFunc is the seam to the parser front-end: given source text, return
// a syntax tree or an error
type ParseFunc func(source string) (*ast.Ast, error)

// Loader compiles scripts and caches compiled modules by path. Chunks with
// identical sources are recognised cheaply by their constant pool hash and
// reused.
type Loader struct {
	parse   ParseFunc
	modules map[string]*bytecode.Chunk
	byHash  map[uint64]*bytecode.Chunk
}

// NewLoader creates a loader backed by the default parser
func NewLoader() *Loader {
	return NewLoaderWithParser(parser.Parse)
}

// NewLoaderWithParser creates a loader with a custom parser front-end
func NewLoaderWithParser(parse ParseFunc) *Loader {
	return &Loader{
		parse:   parse,
		modules: make(map[string]*bytecode.Chunk),
		byHash:  make(map[uint64]*bytecode.Chunk),
	}
}

// CompileScript compiles source text into a chunk. The optional path is
// recorded in the chunk for error reporting.
func (l *Loader) CompileScript(source, path string) (*bytecode.Chunk, error) {
	if path != "" {
		if cached, found := l.modules[path]; found && cached.Source == source {
			return cached, nil
		}
	}

	tree, err := l.parse(source)
	if err != nil {
		if parseErr, ok := err.(*parser.Error); ok {
			return nil, &LoaderError{Message: parseErr.Message, Span: parseErr.Span}
		}
		return nil, &LoaderError{Message: err.Error()}
	}

	chunk, err := compiler.Compile(tree, source, path)
	if err != nil {
		return nil, err
	}

	// identical pools with identical sources mean the same module; reuse
	// the first compiled chunk
	hash := chunk.Constants.Hash()
	if cached, found := l.byHash[hash]; found && cached.Source == chunk.Source {
		chunk = cached
	} else {
		l.byHash[hash] = chunk
	}

	if path != "" {
		l.modules[path] = chunk
	}
	return chunk, nil
}

// CompileModule resolves a module name against a directory and compiles the
// module's source file, reusing the cache on repeated imports
func (l *Loader) CompileModule(name, fromDir string) (*bytecode.Chunk, error) {
	path := filepath.Join(fromDir, name+SourceFileExt)
	if cached, found := l.modules[path]; found {
		return cached, nil
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoaderError{
			Message: fmt.Sprintf("failed to load module '%s': %v", name, err),
		}
	}
	return l.CompileScript(string(source), path)
}

// CachedModules returns the number of cached compiled modules
func (l *Loader) CachedModules() int {
	return len(l.modules)
}
