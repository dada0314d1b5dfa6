package runtime

import "testing"

func drain(t *testing.T, iterator *ValueIterator) []Output {
	t.Helper()
	var outputs []Output
	for {
		out, done, err := iterator.Next()
		if err != nil {
			t.Fatalf("iterator error: %v", err)
		}
		if done {
			return outputs
		}
		outputs = append(outputs, out)
	}
}

func TestRangeIterator(t *testing.T) {
	outputs := drain(t, IteratorWithRange(Range{Start: 0, End: 3}))
	if len(outputs) != 3 {
		t.Fatalf("got %d outputs, want 3", len(outputs))
	}
	for i, out := range outputs {
		if !ValuesEqual(out.Value, Number(i)) {
			t.Errorf("output %d = %v", i, out.Value)
		}
	}

	inclusive := drain(t, IteratorWithRange(Range{Start: 0, End: 3, Inclusive: true}))
	if len(inclusive) != 4 {
		t.Errorf("inclusive range yielded %d outputs, want 4", len(inclusive))
	}
}

func TestMapIteratorEmitsPairs(t *testing.T) {
	m := NewValueMap()
	m.Insert(Str("a"), Number(1))
	m.Insert(Str("b"), Number(2))

	outputs := drain(t, IteratorWithMap(m))
	if len(outputs) != 2 {
		t.Fatalf("got %d outputs, want 2", len(outputs))
	}
	if !outputs[0].IsPair || outputs[0].Value != Str("a") ||
		!ValuesEqual(outputs[0].Second, Number(1)) {
		t.Errorf("first output = %+v", outputs[0])
	}
	if outputs[1].Value != Str("b") {
		t.Errorf("iteration order should match insertion order")
	}
}

func TestIteratorsAreSinglePass(t *testing.T) {
	iterator := IteratorWithRange(Range{Start: 0, End: 2})
	drain(t, iterator)
	if _, done, _ := iterator.Next(); !done {
		t.Errorf("a drained iterator should stay exhausted")
	}
}

func TestCloneContinuesAndSeesMutations(t *testing.T) {
	list := numbers(1, 2, 3)
	iterator := IteratorWithList(list)

	// advance past the first element, then clone
	iterator.Next()
	clone := iterator.Clone()

	// the clone shares the list, so it sees this mutation
	list.Push(Number(4))

	cloned := drain(t, clone)
	if len(cloned) != 3 {
		t.Fatalf("clone yielded %d outputs, want 3", len(cloned))
	}
	if !ValuesEqual(cloned[2].Value, Number(4)) {
		t.Errorf("clone should see mutations of the shared container")
	}

	// the original is unaffected by draining the clone
	rest := drain(t, iterator)
	if len(rest) != 3 {
		t.Errorf("original yielded %d outputs after clone drained, want 3", len(rest))
	}
}

func TestExternalIterator(t *testing.T) {
	n := 0
	iterator := MakeExternal(func() (Output, bool, error) {
		if n >= 2 {
			return Output{}, true, nil
		}
		n++
		return Output{Value: Number(n)}, false, nil
	})
	outputs := drain(t, iterator)
	if len(outputs) != 2 || !ValuesEqual(outputs[1].Value, Number(2)) {
		t.Errorf("unexpected external iterator outputs: %+v", outputs)
	}
}

func TestMakeIterator(t *testing.T) {
	if _, err := MakeIterator(numbers(1)); err != nil {
		t.Errorf("lists should be iterable: %v", err)
	}
	if _, err := MakeIterator(Str("ab")); err != nil {
		t.Errorf("strings should be iterable: %v", err)
	}
	if _, err := MakeIterator(Number(1)); err == nil {
		t.Errorf("numbers should not be iterable")
	}
}

func TestStringIteratorYieldsCharacters(t *testing.T) {
	outputs := drain(t, IteratorWithString(Str("héllo")))
	if len(outputs) != 5 {
		t.Fatalf("got %d outputs, want 5", len(outputs))
	}
	if outputs[1].Value != Str("é") {
		t.Errorf("expected a character, got %v", outputs[1].Value)
	}
}
