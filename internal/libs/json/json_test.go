package json

import (
	"strings"
	"testing"

	"github.com/spbots/koto/internal/runtime"
)

func callFn(t *testing.T, module *runtime.ValueMap, name string, args ...runtime.Value) runtime.Value {
	t.Helper()
	fn, found := module.GetStr(name)
	if !found {
		t.Fatalf("module function %s not found", name)
	}
	result, err := runtime.New().RunFunction(fn, args)
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	return result
}

func TestFromString(t *testing.T) {
	module := MakeModule()
	result := callFn(t, module, "from_string",
		runtime.Str(`{"b": 1, "a": [true, null, "x"], "n": 1.5}`))

	m, ok := result.(*runtime.ValueMap)
	if !ok {
		t.Fatalf("expected a Map, got %T", result)
	}

	// document order is preserved
	keys := m.Keys()
	if len(keys) != 3 || keys[0] != runtime.Str("b") || keys[1] != runtime.Str("a") {
		t.Errorf("unexpected key order: %v", keys)
	}

	array, _ := m.GetStr("a")
	list, ok := array.(*runtime.ValueList)
	if !ok || list.Len() != 3 {
		t.Fatalf("expected a 3-element List, got %v", array)
	}
	if !runtime.ValuesEqual(list.Data()[1], runtime.Empty{}) {
		t.Errorf("null should decode to Empty")
	}

	n, _ := m.GetStr("n")
	if !runtime.ValuesEqual(n, runtime.Number(1.5)) {
		t.Errorf("n = %v, want 1.5", n)
	}
}

func TestFromStringError(t *testing.T) {
	module := MakeModule()
	fn, _ := module.GetStr("from_string")
	if _, err := runtime.New().RunFunction(fn, []runtime.Value{runtime.Str("{")}); err == nil {
		t.Errorf("invalid JSON should error")
	}
}

func TestRoundTrip(t *testing.T) {
	module := MakeModule()
	source := `{"a": 1, "b": [1, 2], "c": {"d": true}}`
	decoded := callFn(t, module, "from_string", runtime.Str(source))
	encoded := callFn(t, module, "to_string", decoded)
	reDecoded := callFn(t, module, "from_string", encoded)
	if !runtime.ValuesEqual(decoded, reDecoded) {
		t.Errorf("round trip changed the value: %v vs %v", decoded, reDecoded)
	}
}

func TestToStringRejectsFunctions(t *testing.T) {
	module := MakeModule()
	fn, _ := module.GetStr("to_string")
	badInput := &runtime.ExternalFunction{Name: "f"}
	if _, err := runtime.New().RunFunction(fn, []runtime.Value{badInput}); err == nil {
		t.Errorf("functions should not serialize")
	}
}

func TestToStringEscapes(t *testing.T) {
	module := MakeModule()
	encoded := callFn(t, module, "to_string", runtime.Str("a\"b"))
	if !strings.Contains(encoded.String(), `\"`) {
		t.Errorf("string escaping missing: %v", encoded)
	}
}
