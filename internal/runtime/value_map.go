package runtime

import (
	"sort"
	"strings"
)

// MetaKey identifies an entry in a map's meta side-table: language-defined
// hooks consulted by the VM and the help system.
type MetaKey uint8

const (
	MetaSelfHelp MetaKey = iota
	MetaHelp
	MetaAccess // @access
	MetaIndex  // @index
	MetaAdd
	MetaSubtract
	MetaMultiply
	MetaDivide
	MetaModulo
	MetaLess
	MetaGreater
	MetaEqual
	MetaNotEqual
)

var metaKeyNames = map[string]MetaKey{
	"self_help": MetaSelfHelp,
	"help":      MetaHelp,
	"@access":   MetaAccess,
	"@index":    MetaIndex,
	"@+":        MetaAdd,
	"@-":        MetaSubtract,
	"@*":        MetaMultiply,
	"@/":        MetaDivide,
	"@%":        MetaModulo,
	"@<":        MetaLess,
	"@>":        MetaGreater,
	"@==":       MetaEqual,
	"@!=":       MetaNotEqual,
}

// MetaKeyFromName resolves a meta key's source-level name
func MetaKeyFromName(name string) (MetaKey, bool) {
	key, ok := metaKeyNames[name]
	return key, ok
}

// MapEntry is one key/value pair of a ValueMap
type MapEntry struct {
	Key   Value
	Value Value
}

// ValueMap is an insertion-ordered mapping from immutable values to values,
// shared by reference. The order of entries is the order keys were first
// inserted; overwriting an existing key keeps its position, removal doesn't
// reorder the remaining entries.
type ValueMap struct {
	entries []MapEntry
	index   map[uint64][]int
	meta    map[MetaKey]Value
}

// NewValueMap creates an empty map
func NewValueMap() *ValueMap {
	return NewValueMapWithCapacity(0)
}

// NewValueMapWithCapacity creates an empty map with a size hint
func NewValueMapWithCapacity(capacity int) *ValueMap {
	if capacity < 0 {
		capacity = 0
	}
	return &ValueMap{
		entries: make([]MapEntry, 0, capacity),
		index:   make(map[uint64][]int, capacity),
	}
}

func (*ValueMap) TypeName() string { return "Map" }

func (m *ValueMap) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, entry := range m.entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(displayValue(entry.Key))
		sb.WriteString(": ")
		sb.WriteString(displayValue(entry.Value))
	}
	sb.WriteByte('}')
	return sb.String()
}

// Len returns the number of entries
func (m *ValueMap) Len() int { return len(m.entries) }

// IsEmpty returns true when the map has no entries
func (m *ValueMap) IsEmpty() bool { return len(m.entries) == 0 }

func (m *ValueMap) find(key Value) (int, bool) {
	for _, i := range m.index[keyHash(key)] {
		if keysEqual(m.entries[i].Key, key) {
			return i, true
		}
	}
	return 0, false
}

// ContainsKey reports whether the key is present
func (m *ValueMap) ContainsKey(key Value) bool {
	_, found := m.find(key)
	return found
}

// Get returns the value for a key
func (m *ValueMap) Get(key Value) (Value, bool) {
	if i, found := m.find(key); found {
		return m.entries[i].Value, true
	}
	return nil, false
}

// GetStr returns the value for a string key
func (m *ValueMap) GetStr(key string) (Value, bool) {
	return m.Get(Str(key))
}

// Insert sets the value for a key, returning the previous value when the key
// was already present. A new key is appended to the iteration order; an
// existing key keeps its position.
func (m *ValueMap) Insert(key Value, value Value) (Value, bool) {
	if i, found := m.find(key); found {
		old := m.entries[i].Value
		m.entries[i].Value = value
		return old, true
	}
	hash := keyHash(key)
	m.index[hash] = append(m.index[hash], len(m.entries))
	m.entries = append(m.entries, MapEntry{Key: key, Value: value})
	return nil, false
}

// Remove deletes a key, returning its value. The remaining entries keep
// their relative order.
func (m *ValueMap) Remove(key Value) (Value, bool) {
	i, found := m.find(key)
	if !found {
		return nil, false
	}
	removed := m.entries[i].Value
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	for hash, bucket := range m.index {
		filtered := bucket[:0]
		for _, entryIndex := range bucket {
			switch {
			case entryIndex < i:
				filtered = append(filtered, entryIndex)
			case entryIndex > i:
				filtered = append(filtered, entryIndex-1)
			}
		}
		if len(filtered) == 0 {
			delete(m.index, hash)
		} else {
			m.index[hash] = filtered
		}
	}
	return removed, true
}

// GetIndex returns the entry at the given insertion position
func (m *ValueMap) GetIndex(i int) (MapEntry, bool) {
	if i < 0 || i >= len(m.entries) {
		return MapEntry{}, false
	}
	return m.entries[i], true
}

// Entries returns the entries in insertion order; callers must not mutate
// the slice
func (m *ValueMap) Entries() []MapEntry { return m.entries }

// Keys returns the keys in insertion order
func (m *ValueMap) Keys() []Value {
	keys := make([]Value, len(m.entries))
	for i, entry := range m.entries {
		keys[i] = entry.Key
	}
	return keys
}

// Values returns the values in insertion order
func (m *ValueMap) Values() []Value {
	values := make([]Value, len(m.entries))
	for i, entry := range m.entries {
		values[i] = entry.Value
	}
	return values
}

// SortKeys reorders the entries by key
func (m *ValueMap) SortKeys() {
	sort.SliceStable(m.entries, func(i, j int) bool {
		return CompareValues(m.entries[i].Key, m.entries[j].Key) < 0
	})
	m.rebuildIndex()
}

// SortBy reorders the entries with the given comparison. The sort is stable.
func (m *ValueMap) SortBy(less func(a, b MapEntry) bool) {
	sort.SliceStable(m.entries, func(i, j int) bool {
		return less(m.entries[i], m.entries[j])
	})
	m.rebuildIndex()
}

func (m *ValueMap) rebuildIndex() {
	m.index = make(map[uint64][]int, len(m.entries))
	for i, entry := range m.entries {
		hash := keyHash(entry.Key)
		m.index[hash] = append(m.index[hash], i)
	}
}

// Update modifies the value for a key in place: when the key is missing the
// default is inserted first, then f maps the current value to the new one.
func (m *ValueMap) Update(key Value, defaultValue Value, f func(Value) (Value, error)) (Value, error) {
	current, found := m.Get(key)
	if !found {
		current = defaultValue
	}
	updated, err := f(current)
	if err != nil {
		return nil, err
	}
	m.Insert(key, updated)
	return updated, nil
}

// Clear removes all entries
func (m *ValueMap) Clear() {
	m.entries = m.entries[:0]
	m.index = make(map[uint64][]int)
}

// ShallowCopy clones the top-level container only; keys and values are shared
func (m *ValueMap) ShallowCopy() *ValueMap {
	result := NewValueMapWithCapacity(m.Len())
	for _, entry := range m.entries {
		result.Insert(entry.Key, entry.Value)
	}
	for key, value := range m.meta {
		result.SetMeta(key, value)
	}
	return result
}

// Meta returns the hook value for a meta key
func (m *ValueMap) Meta(key MetaKey) (Value, bool) {
	if m.meta == nil {
		return nil, false
	}
	value, ok := m.meta[key]
	return value, ok
}

// SetMeta sets a hook in the map's meta side-table
func (m *ValueMap) SetMeta(key MetaKey, value Value) {
	if m.meta == nil {
		m.meta = make(map[MetaKey]Value)
	}
	m.meta[key] = value
}

// HasMeta reports whether the map carries any meta entries
func (m *ValueMap) HasMeta() bool { return len(m.meta) > 0 }

// AddFn registers an external function under the given name; used by the
// core library and host modules
func (m *ValueMap) AddFn(name string, fn ExternalFn) {
	m.Insert(Str(name), &ExternalFunction{Name: name, Fn: fn})
}

// AddValue registers a plain value under the given name
func (m *ValueMap) AddValue(name string, value Value) {
	m.Insert(Str(name), value)
}

// AddMap registers a nested module map under the given name
func (m *ValueMap) AddMap(name string, module *ValueMap) {
	m.Insert(Str(name), module)
}
