package yaml

import (
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
	source := "b: 1\na:\n  - true\n  - hello\n"
	result := callFn(t, module, "from_string", runtime.Str(source))

	m, ok := result.(*runtime.ValueMap)
	if !ok {
		t.Fatalf("expected a Map, got %T", result)
	}
	keys := m.Keys()
	if len(keys) != 2 || keys[0] != runtime.Str("b") {
		t.Errorf("document order should be preserved: %v", keys)
	}
	sequence, _ := m.GetStr("a")
	list, ok := sequence.(*runtime.ValueList)
	if !ok || list.Len() != 2 {
		t.Fatalf("expected a 2-element List, got %v", sequence)
	}
	if !runtime.ValuesEqual(list.Data()[0], runtime.Bool(true)) {
		t.Errorf("expected a bool, got %v", list.Data()[0])
	}
}

func TestRoundTrip(t *testing.T) {
	module := MakeModule()
	m := runtime.NewValueMap()
	m.Insert(runtime.Str("name"), runtime.Str("koto"))
	m.Insert(runtime.Str("count"), runtime.Number(3))
	nested := runtime.NewValueListWithData([]runtime.Value{runtime.Number(1), runtime.Number(2)})
	m.Insert(runtime.Str("items"), nested)

	encoded := callFn(t, module, "to_string", m)
	decoded := callFn(t, module, "from_string", encoded)
	if !runtime.ValuesEqual(m, decoded) {
		t.Errorf("round trip changed the value: %v vs %v", m, decoded)
	}
}

func TestFromStringError(t *testing.T) {
	module := MakeModule()
	fn, _ := module.GetStr("from_string")
	if _, err := runtime.New().RunFunction(fn, []runtime.Value{runtime.Str("a: [1")}); err == nil {
		t.Errorf("invalid YAML should error")
	}
}
