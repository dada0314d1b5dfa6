package runtime

import "testing"

func numbers(values ...float64) *ValueList {
	data := make([]Value, len(values))
	for i, v := range values {
		data[i] = Number(v)
	}
	return NewValueListWithData(data)
}

func TestListPushPop(t *testing.T) {
	l := NewValueList(2)
	l.Push(Number(1))
	l.Push(Number(2))
	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
	if got := l.Pop(); !ValuesEqual(got, Number(2)) {
		t.Errorf("Pop = %v, want 2", got)
	}
	l.Pop()

	// popping an empty list yields Empty, not an error
	if got := l.Pop(); !ValuesEqual(got, Empty{}) {
		t.Errorf("Pop on empty list = %v, want Empty", got)
	}
}

func TestListInsertRemove(t *testing.T) {
	l := numbers(1, 3)
	if !l.Insert(1, Number(2)) {
		t.Fatalf("Insert failed")
	}
	if !ValuesEqual(l, numbers(1, 2, 3)) {
		t.Fatalf("after insert: %s", l)
	}
	removed, ok := l.Remove(0)
	if !ok || !ValuesEqual(removed, Number(1)) {
		t.Fatalf("Remove = %v, %v", removed, ok)
	}
	if !ValuesEqual(l, numbers(2, 3)) {
		t.Errorf("after remove: %s", l)
	}
	if _, ok := l.Remove(5); ok {
		t.Errorf("removing out of bounds should fail")
	}
}

func TestListResize(t *testing.T) {
	l := numbers(1)
	l.Resize(3, Empty{})
	if l.Len() != 3 {
		t.Fatalf("Len = %d, want 3", l.Len())
	}
	l.Resize(1, Empty{})
	if !ValuesEqual(l, numbers(1)) {
		t.Errorf("after shrink: %s", l)
	}
}

func TestListSortIsIdempotent(t *testing.T) {
	l := numbers(3, 1, 2)
	l.Sort()
	if !ValuesEqual(l, numbers(1, 2, 3)) {
		t.Fatalf("after sort: %s", l)
	}
	l.Sort()
	if !ValuesEqual(l, numbers(1, 2, 3)) {
		t.Errorf("sorting twice changed the result: %s", l)
	}
}

func TestListReverse(t *testing.T) {
	l := numbers(1, 2, 3)
	l.Reverse()
	if !ValuesEqual(l, numbers(3, 2, 1)) {
		t.Errorf("after reverse: %s", l)
	}
}

func TestListSliceIsACopy(t *testing.T) {
	l := numbers(1, 2, 3, 4)
	slice, ok := l.Slice(1, 3)
	if !ok || !ValuesEqual(slice, numbers(2, 3)) {
		t.Fatalf("Slice = %v, %v", slice, ok)
	}
	slice.Set(0, Number(99))
	if !ValuesEqual(l, numbers(1, 2, 3, 4)) {
		t.Errorf("mutating a slice changed the source list")
	}
}

func TestListIsEmptyMatchesSize(t *testing.T) {
	l := NewValueList(0)
	if !l.IsEmpty() || l.Len() != 0 {
		t.Errorf("empty list: IsEmpty=%v Len=%d", l.IsEmpty(), l.Len())
	}
	l.Push(Number(1))
	if l.IsEmpty() || l.Len() != 1 {
		t.Errorf("non-empty list: IsEmpty=%v Len=%d", l.IsEmpty(), l.Len())
	}
}
