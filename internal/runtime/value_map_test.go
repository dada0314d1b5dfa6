package runtime

import "testing"

func TestMapInsertionOrder(t *testing.T) {
	m := NewValueMap()
	m.Insert(Str("a"), Number(1))
	m.Insert(Str("b"), Number(2))
	m.Insert(Str("c"), Number(3))

	// overwriting keeps the key's position
	m.Insert(Str("a"), Number(10))

	keys := m.Keys()
	expected := []string{"a", "b", "c"}
	for i, want := range expected {
		if keys[i] != Str(want) {
			t.Errorf("keys[%d] = %v, want %s", i, keys[i], want)
		}
	}
	if value, _ := m.Get(Str("a")); !ValuesEqual(value, Number(10)) {
		t.Errorf("overwrite lost the new value")
	}
}

func TestMapRemoveKeepsOrder(t *testing.T) {
	m := NewValueMap()
	m.Insert(Str("a"), Number(1))
	m.Insert(Str("b"), Number(2))
	m.Insert(Str("c"), Number(3))

	removed, found := m.Remove(Str("b"))
	if !found || !ValuesEqual(removed, Number(2)) {
		t.Fatalf("Remove = %v, %v", removed, found)
	}
	if m.ContainsKey(Str("b")) {
		t.Fatalf("removed key still present")
	}

	keys := m.Keys()
	if len(keys) != 2 || keys[0] != Str("a") || keys[1] != Str("c") {
		t.Errorf("unexpected order after remove: %v", keys)
	}

	// lookups after removal still find the remaining entries
	if value, found := m.Get(Str("c")); !found || !ValuesEqual(value, Number(3)) {
		t.Errorf("Get(c) after remove = %v, %v", value, found)
	}
}

func TestMapInsertThenRemoveRestoresAbsence(t *testing.T) {
	m := NewValueMap()
	m.Insert(Str("k"), Number(1))
	m.Remove(Str("k"))
	if m.ContainsKey(Str("k")) {
		t.Errorf("ContainsKey should be false after insert+remove")
	}
}

func TestMapGetIndex(t *testing.T) {
	m := NewValueMap()
	m.Insert(Str("a"), Number(1))
	m.Insert(Str("b"), Number(2))

	entry, found := m.GetIndex(1)
	if !found || entry.Key != Str("b") || !ValuesEqual(entry.Value, Number(2)) {
		t.Errorf("GetIndex(1) = %+v, %v", entry, found)
	}
	if _, found := m.GetIndex(5); found {
		t.Errorf("GetIndex out of bounds should fail")
	}
}

func TestMapSortKeys(t *testing.T) {
	m := NewValueMap()
	m.Insert(Str("c"), Number(3))
	m.Insert(Str("a"), Number(1))
	m.Insert(Str("b"), Number(2))
	m.SortKeys()

	keys := m.Keys()
	if keys[0] != Str("a") || keys[1] != Str("b") || keys[2] != Str("c") {
		t.Errorf("unexpected order after SortKeys: %v", keys)
	}
	if value, found := m.Get(Str("c")); !found || !ValuesEqual(value, Number(3)) {
		t.Errorf("lookup after SortKeys = %v, %v", value, found)
	}
}

func TestMapUpdate(t *testing.T) {
	m := NewValueMap()
	increment := func(current Value) (Value, error) {
		return current.(Number) + 1, nil
	}

	if _, err := m.Update(Str("counter"), Number(0), increment); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Update(Str("counter"), Number(0), increment); err != nil {
		t.Fatal(err)
	}
	if value, _ := m.Get(Str("counter")); !ValuesEqual(value, Number(2)) {
		t.Errorf("counter = %v, want 2", value)
	}
}

func TestMapMeta(t *testing.T) {
	m := NewValueMap()
	if m.HasMeta() {
		t.Fatalf("fresh map should have no meta")
	}
	m.SetMeta(MetaSelfHelp, Str("help text"))
	if value, found := m.Meta(MetaSelfHelp); !found || value != Str("help text") {
		t.Errorf("Meta(SelfHelp) = %v, %v", value, found)
	}
	if _, found := m.Meta(MetaAccess); found {
		t.Errorf("unset meta key should be absent")
	}
}

func TestMetaKeyFromName(t *testing.T) {
	tests := []struct {
		name string
		key  MetaKey
		ok   bool
	}{
		{"@access", MetaAccess, true},
		{"@index", MetaIndex, true},
		{"@+", MetaAdd, true},
		{"@nope", 0, false},
	}
	for _, tt := range tests {
		key, ok := MetaKeyFromName(tt.name)
		if ok != tt.ok || (ok && key != tt.key) {
			t.Errorf("MetaKeyFromName(%q) = %v, %v", tt.name, key, ok)
		}
	}
}

func TestMapIsEmptyMatchesSize(t *testing.T) {
	m := NewValueMap()
	if !m.IsEmpty() || m.Len() != 0 {
		t.Errorf("empty map: IsEmpty=%v Len=%d", m.IsEmpty(), m.Len())
	}
	m.Insert(Str("a"), Empty{})
	if m.IsEmpty() || m.Len() != 1 {
		t.Errorf("non-empty map: IsEmpty=%v Len=%d", m.IsEmpty(), m.Len())
	}
}
