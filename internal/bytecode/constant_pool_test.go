package bytecode

import (
	"math"
	"testing"
)

func TestAddingStrings(t *testing.T) {
	builder := NewConstantPoolBuilder()

	s1 := "test"
	s2 := "test2"

	if index := builder.AddString(s1); index != 0 {
		t.Fatalf("expected index 0, got %d", index)
	}
	if index := builder.AddString(s2); index != 1 {
		t.Fatalf("expected index 1, got %d", index)
	}

	// don't duplicate strings
	if index := builder.AddString(s1); index != 0 {
		t.Fatalf("expected deduplicated index 0, got %d", index)
	}
	if index := builder.AddString(s2); index != 1 {
		t.Fatalf("expected deduplicated index 1, got %d", index)
	}

	pool := builder.Build()

	if got := pool.GetStr(0); got != s1 {
		t.Errorf("GetStr(0) = %q, want %q", got, s1)
	}
	if got := pool.GetStr(1); got != s2 {
		t.Errorf("GetStr(1) = %q, want %q", got, s2)
	}
	if pool.Len() != 2 {
		t.Errorf("pool.Len() = %d, want 2", pool.Len())
	}
}

func TestAddingNumbers(t *testing.T) {
	builder := NewConstantPoolBuilder()

	f1 := 1.23456789
	f2 := 9.87654321

	if index := builder.AddNumber(f1); index != 0 {
		t.Fatalf("expected index 0, got %d", index)
	}
	if index := builder.AddNumber(f2); index != 1 {
		t.Fatalf("expected index 1, got %d", index)
	}

	// don't duplicate numbers
	if index := builder.AddNumber(f1); index != 0 {
		t.Fatalf("expected deduplicated index 0, got %d", index)
	}
	if index := builder.AddNumber(f2); index != 1 {
		t.Fatalf("expected deduplicated index 1, got %d", index)
	}

	pool := builder.Build()

	if got := pool.GetNumber(0); got != f1 {
		t.Errorf("GetNumber(0) = %v, want %v", got, f1)
	}
	if got := pool.GetNumber(1); got != f2 {
		t.Errorf("GetNumber(1) = %v, want %v", got, f2)
	}
	if pool.Len() != 2 {
		t.Errorf("pool.Len() = %d, want 2", pool.Len())
	}
}

func TestNumbersKeyedByBitPattern(t *testing.T) {
	builder := NewConstantPoolBuilder()

	zero := builder.AddNumber(0.0)
	negativeZero := builder.AddNumber(math.Copysign(0, -1))
	if zero == negativeZero {
		t.Errorf("0.0 and -0.0 should be distinct constants")
	}
}

func TestAddingMixedTypes(t *testing.T) {
	builder := NewConstantPoolBuilder()

	f1 := -1.1
	f2 := 99.9
	s1 := "O_o"
	s2 := "^_^"

	if index := builder.AddNumber(f1); index != 0 {
		t.Fatalf("expected index 0, got %d", index)
	}
	if index := builder.AddString(s1); index != 1 {
		t.Fatalf("expected index 1, got %d", index)
	}
	if index := builder.AddNumber(f2); index != 2 {
		t.Fatalf("expected index 2, got %d", index)
	}
	if index := builder.AddString(s2); index != 3 {
		t.Fatalf("expected index 3, got %d", index)
	}

	pool := builder.Build()

	if got := pool.GetNumber(0); got != f1 {
		t.Errorf("GetNumber(0) = %v, want %v", got, f1)
	}
	if got := pool.GetNumber(2); got != f2 {
		t.Errorf("GetNumber(2) = %v, want %v", got, f2)
	}
	if got := pool.GetStr(1); got != s1 {
		t.Errorf("GetStr(1) = %q, want %q", got, s1)
	}
	if got := pool.GetStr(3); got != s2 {
		t.Errorf("GetStr(3) = %q, want %q", got, s2)
	}
	if pool.Len() != 4 {
		t.Errorf("pool.Len() = %d, want 4", pool.Len())
	}
}

func TestIterationOrder(t *testing.T) {
	builder := NewConstantPoolBuilder()
	builder.AddNumber(-1.1)
	builder.AddString("O_o")
	builder.AddNumber(99.9)
	builder.AddString("^_^")

	pool := builder.Build()

	expected := []Constant{
		{Kind: ConstantKindNumber, Number: -1.1},
		{Kind: ConstantKindString, Str: "O_o"},
		{Kind: ConstantKindNumber, Number: 99.9},
		{Kind: ConstantKindString, Str: "^_^"},
	}
	for i, want := range expected {
		got, ok := pool.Get(ConstantIndex(i))
		if !ok {
			t.Fatalf("Get(%d) failed", i)
		}
		if got != want {
			t.Errorf("Get(%d) = %+v, want %+v", i, got, want)
		}
	}
	if _, ok := pool.Get(ConstantIndex(len(expected))); ok {
		t.Errorf("Get past the end should fail")
	}
}

func buildPool(entries []interface{}) *ConstantPool {
	builder := NewConstantPoolBuilder()
	for _, entry := range entries {
		switch v := entry.(type) {
		case float64:
			builder.AddNumber(v)
		case string:
			builder.AddString(v)
		}
	}
	return builder.Build()
}

func TestStableHash(t *testing.T) {
	entries := []interface{}{1.0, "one", 2.0, "two"}

	a := buildPool(entries)
	b := buildPool(entries)

	if a.Hash() != b.Hash() {
		t.Errorf("pools built identically should hash equal: %x != %x", a.Hash(), b.Hash())
	}
	if !a.Equal(b) {
		t.Errorf("pools built identically should be equal")
	}

	reordered := buildPool([]interface{}{"one", 1.0, 2.0, "two"})
	if a.Hash() == reordered.Hash() {
		t.Errorf("insertion order should be part of the pool's hash")
	}
}
