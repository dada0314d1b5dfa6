package tempfile

import (
	"os"
	"strings"
	"testing"

	"github.com/spbots/koto/internal/runtime"
)

func callFn(t *testing.T, owner *runtime.ValueMap, name string, args ...runtime.Value) runtime.Value {
	t.Helper()
	fn, found := owner.GetStr(name)
	if !found {
		t.Fatalf("function %s not found", name)
	}
	result, err := runtime.New().RunFunction(fn, args)
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	return result
}

func TestTempPath(t *testing.T) {
	module := MakeModule()
	first := callFn(t, module, "temp_path")
	second := callFn(t, module, "temp_path")
	path, ok := first.(runtime.Str)
	if !ok || !strings.Contains(string(path), "koto-") {
		t.Fatalf("temp_path = %v", first)
	}
	if runtime.ValuesEqual(first, second) {
		t.Errorf("temp paths should be unique")
	}
}

func TestTempFileLifecycle(t *testing.T) {
	module := MakeModule()
	file, ok := callFn(t, module, "temp_file").(*runtime.ExternalValue)
	if !ok {
		t.Fatalf("temp_file should return an external value")
	}

	path := string(callFn(t, file.Meta, "path", file).(runtime.Str))
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("temp file should exist at %s: %v", path, err)
	}

	callFn(t, file.Meta, "write_line", file, runtime.Str("hello"))
	contents := callFn(t, file.Meta, "read_to_string", file)
	if !runtime.ValuesEqual(contents, runtime.Str("hello")) {
		t.Errorf("contents = %v, want hello", contents)
	}

	// closing deletes the temporary file; release errors are swallowed
	callFn(t, file.Meta, "close", file)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("temp file should be removed on close")
	}

	// a second close is a no-op
	callFn(t, file.Meta, "close", file)
}
