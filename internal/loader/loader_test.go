package loader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCompileScript(t *testing.T) {
	l := NewLoader()
	chunk, err := l.CompileScript("1 + 2", "")
	if err != nil {
		t.Fatalf("CompileScript failed: %v", err)
	}
	if len(chunk.Bytes) == 0 {
		t.Errorf("compiled chunk is empty")
	}
}

func TestModuleCacheReusesChunks(t *testing.T) {
	l := NewLoader()
	first, err := l.CompileScript("x = 1\nx", "mod.koto")
	if err != nil {
		t.Fatal(err)
	}
	second, err := l.CompileScript("x = 1\nx", "mod.koto")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("identical source at the same path should reuse the cached chunk")
	}

	changed, err := l.CompileScript("x = 2\nx", "mod.koto")
	if err != nil {
		t.Fatal(err)
	}
	if changed == first {
		t.Errorf("changed source should recompile")
	}
}

func TestPoolHashReuseAcrossPaths(t *testing.T) {
	l := NewLoader()
	a, err := l.CompileScript("x = 1\nx", "a.koto")
	if err != nil {
		t.Fatal(err)
	}
	b, err := l.CompileScript("x = 1\nx", "b.koto")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("identical sources should share one compiled chunk via the pool hash")
	}
}

func TestParseFailureIsALoaderError(t *testing.T) {
	l := NewLoader()
	_, err := l.CompileScript("(1 + 2", "")
	if err == nil {
		t.Fatalf("expected an error")
	}
	loaderErr, ok := err.(*LoaderError)
	if !ok {
		t.Fatalf("expected a LoaderError, got %T", err)
	}
	if loaderErr.Span.Line == 0 {
		t.Errorf("loader errors should carry the parse span")
	}
}

func TestCompileModuleFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "util.koto")
	if err := os.WriteFile(path, []byte("21 * 2"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader()
	first, err := l.CompileModule("util", dir)
	if err != nil {
		t.Fatalf("CompileModule failed: %v", err)
	}
	second, err := l.CompileModule("util", dir)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("repeated imports should reuse the cache")
	}
	if l.CachedModules() != 1 {
		t.Errorf("expected 1 cached module, found %d", l.CachedModules())
	}

	if _, err := l.CompileModule("missing", dir); err == nil {
		t.Errorf("missing modules should fail to load")
	}
}
