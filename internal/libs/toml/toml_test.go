package toml

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
	source := "title = \"demo\"\ncount = 3\n\n[owner]\nname = \"koto\"\n"
	result := callFn(t, module, "from_string", runtime.Str(source))

	m, ok := result.(*runtime.ValueMap)
	if !ok {
		t.Fatalf("expected a Map, got %T", result)
	}
	if title, _ := m.GetStr("title"); !runtime.ValuesEqual(title, runtime.Str("demo")) {
		t.Errorf("title = %v", title)
	}
	if count, _ := m.GetStr("count"); !runtime.ValuesEqual(count, runtime.Number(3)) {
		t.Errorf("count = %v", count)
	}
	owner, _ := m.GetStr("owner")
	ownerMap, ok := owner.(*runtime.ValueMap)
	if !ok {
		t.Fatalf("owner should be a Map, got %T", owner)
	}
	if name, _ := ownerMap.GetStr("name"); !runtime.ValuesEqual(name, runtime.Str("koto")) {
		t.Errorf("owner.name = %v", name)
	}
}

func TestRoundTrip(t *testing.T) {
	module := MakeModule()
	m := runtime.NewValueMap()
	m.Insert(runtime.Str("name"), runtime.Str("koto"))
	m.Insert(runtime.Str("count"), runtime.Number(3))

	encoded := callFn(t, module, "to_string", m)
	decoded := callFn(t, module, "from_string", encoded)
	if !runtime.ValuesEqual(m, decoded) {
		t.Errorf("round trip changed the value: %v vs %v", m, decoded)
	}
}

func TestFromStringError(t *testing.T) {
	module := MakeModule()
	fn, _ := module.GetStr("from_string")
	if _, err := runtime.New().RunFunction(fn, []runtime.Value{runtime.Str("= nope")}); err == nil {
		t.Errorf("invalid TOML should error")
	}
}
