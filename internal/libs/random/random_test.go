package random

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

func TestNumberRange(t *testing.T) {
	module := MakeModule()
	for i := 0; i < 10; i++ {
		n, ok := callFn(t, module, "number").(runtime.Number)
		if !ok || n < 0 || n >= 1 {
			t.Fatalf("number() = %v, want [0, 1)", n)
		}
	}
}

func TestSeedDeterminism(t *testing.T) {
	a := MakeModule()
	b := MakeModule()
	callFn(t, a, "seed", runtime.Number(42))
	callFn(t, b, "seed", runtime.Number(42))
	for i := 0; i < 5; i++ {
		x := callFn(t, a, "number")
		y := callFn(t, b, "number")
		if !runtime.ValuesEqual(x, y) {
			t.Fatalf("seeded generators diverged: %v vs %v", x, y)
		}
	}
}

func TestPick(t *testing.T) {
	module := MakeModule()
	list := runtime.NewValueListWithData([]runtime.Value{
		runtime.Number(1), runtime.Number(2), runtime.Number(3),
	})
	for i := 0; i < 10; i++ {
		picked := callFn(t, module, "pick", list)
		if !list.Contains(picked) {
			t.Fatalf("pick returned a value not in the list: %v", picked)
		}
	}

	r := runtime.Range{Start: 5, End: 8}
	picked := callFn(t, module, "pick", r)
	n, ok := picked.(runtime.Number)
	if !ok || n < 5 || n >= 8 {
		t.Errorf("pick from range = %v", picked)
	}

	if !runtime.ValuesEqual(callFn(t, module, "pick", runtime.NewValueList(0)), runtime.Empty{}) {
		t.Errorf("picking from an empty list should produce Empty")
	}
}

func TestUuid(t *testing.T) {
	module := MakeModule()
	first := callFn(t, module, "uuid")
	second := callFn(t, module, "uuid")
	s, ok := first.(runtime.Str)
	if !ok || len(s) != 36 {
		t.Fatalf("uuid() = %v", first)
	}
	if runtime.ValuesEqual(first, second) {
		t.Errorf("uuids should be unique")
	}
}

func TestShuffleKeepsElements(t *testing.T) {
	module := MakeModule()
	list := runtime.NewValueListWithData([]runtime.Value{
		runtime.Number(1), runtime.Number(2), runtime.Number(3), runtime.Number(4),
	})
	callFn(t, module, "shuffle", list)
	if list.Len() != 4 {
		t.Fatalf("shuffle changed the length")
	}
	for i := 1; i <= 4; i++ {
		if !list.Contains(runtime.Number(i)) {
			t.Errorf("shuffle lost element %d", i)
		}
	}
}
