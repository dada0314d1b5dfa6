package runtime

import (
	"math"
	"testing"
)

func TestIsImmutable(t *testing.T) {
	immutable := []Value{
		Empty{},
		Bool(true),
		Number(1.5),
		Str("hello"),
		Range{Start: 0, End: 3},
		Num2{1, 2},
		Num4{1, 2, 3, 4},
		NewTuple([]Value{Number(1), Str("a")}),
	}
	for _, v := range immutable {
		if !IsImmutable(v) {
			t.Errorf("%s should be immutable", TypeAsString(v))
		}
	}

	mutable := []Value{
		NewValueList(0),
		NewValueMap(),
		IteratorWithRange(Range{End: 3}),
		NewTuple([]Value{NewValueList(0)}), // a tuple holding a list isn't keyable
	}
	for _, v := range mutable {
		if IsImmutable(v) {
			t.Errorf("%s should not be immutable", TypeAsString(v))
		}
	}
}

func TestValuesEqual(t *testing.T) {
	listA := NewValueListWithData([]Value{Number(1), Number(2)})
	listB := NewValueListWithData([]Value{Number(1), Number(2)})
	mapA := NewValueMap()
	mapA.Insert(Str("a"), Number(1))
	mapB := NewValueMap()
	mapB.Insert(Str("a"), Number(1))

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"numbers", Number(1), Number(1), true},
		{"numbers differ", Number(1), Number(2), false},
		{"nan is not equal to itself", Number(math.NaN()), Number(math.NaN()), false},
		{"strings", Str("abc"), Str("abc"), true},
		{"different variants", Number(1), Str("1"), false},
		{"lists by contents", listA, listB, true},
		{"maps by contents", mapA, mapB, true},
		{"tuples", NewTuple([]Value{Number(1)}), NewTuple([]Value{Number(1)}), true},
		{"empty", Empty{}, Empty{}, true},
		{"ranges", Range{Start: 1, End: 3}, Range{Start: 1, End: 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValuesEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("ValuesEqual = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeepCopyIndependence(t *testing.T) {
	inner := NewValueListWithData([]Value{Number(1)})
	outer := NewValueListWithData([]Value{inner, Str("x")})

	copied := DeepCopy(outer).(*ValueList)
	if !ValuesEqual(outer, copied) {
		t.Fatalf("deep copy should compare equal to the original")
	}

	copiedInner := copied.data[0].(*ValueList)
	copiedInner.Push(Number(2))
	if inner.Len() != 1 {
		t.Errorf("mutating the copy changed the original")
	}
}

func TestShallowCopySharesElements(t *testing.T) {
	inner := NewValueListWithData([]Value{Number(1)})
	outer := NewValueListWithData([]Value{inner})

	copied := outer.ShallowCopy()
	copied.Push(Number(9))
	if outer.Len() != 1 {
		t.Errorf("top-level mutation of a shallow copy changed the original")
	}

	sharedInner := copied.data[0].(*ValueList)
	sharedInner.Push(Number(2))
	if inner.Len() != 2 {
		t.Errorf("a shallow copy should share nested containers")
	}
}

func TestKeysCompareByBitPattern(t *testing.T) {
	m := NewValueMap()

	nan := Number(math.NaN())
	m.Insert(nan, Str("nan"))
	if value, found := m.Get(nan); !found || value != Str("nan") {
		t.Errorf("a NaN key should round-trip exactly")
	}

	m.Insert(Number(0), Str("zero"))
	negativeZero := Number(math.Copysign(0, -1))
	if _, found := m.Get(negativeZero); found {
		t.Errorf("-0.0 should be a distinct key from 0.0")
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		a, b Value
		want int
	}{
		{Number(1), Number(2), -1},
		{Number(2), Number(1), 1},
		{Number(1), Number(1), 0},
		{Str("a"), Str("b"), -1},
		{Bool(false), Bool(true), -1},
	}
	for _, tt := range tests {
		if got := CompareValues(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareValues(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
