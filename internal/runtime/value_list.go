package runtime

import (
	"sort"
	"strings"
)

// ValueList is a mutable ordered sequence, shared by reference: copies of a
// List value are handles over the same storage. Interior mutation is safe
// only under the VM's single-threaded execution contract.
type ValueList struct {
	data []Value
}

// NewValueList creates an empty list with the given capacity hint
func NewValueList(capacity int) *ValueList {
	if capacity < 0 {
		capacity = 0
	}
	return &ValueList{data: make([]Value, 0, capacity)}
}

// NewValueListWithData creates a list taking ownership of the given slice
func NewValueListWithData(data []Value) *ValueList {
	return &ValueList{data: data}
}

// NewValueListFromSlice creates a list holding a copy of the given slice
func NewValueListFromSlice(data []Value) *ValueList {
	copied := make([]Value, len(data))
	copy(copied, data)
	return &ValueList{data: copied}
}

func (*ValueList) TypeName() string { return "List" }

func (l *ValueList) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range l.data {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(displayValue(v))
	}
	sb.WriteByte(']')
	return sb.String()
}

// Data returns the list's backing slice
func (l *ValueList) Data() []Value { return l.data }

// Len returns the number of elements
func (l *ValueList) Len() int { return len(l.data) }

// IsEmpty returns true when the list has no elements
func (l *ValueList) IsEmpty() bool { return len(l.data) == 0 }

// Get returns the element at the given index
func (l *ValueList) Get(i int) (Value, bool) {
	if i < 0 || i >= len(l.data) {
		return nil, false
	}
	return l.data[i], true
}

// Set overwrites the element at the given index
func (l *ValueList) Set(i int, v Value) bool {
	if i < 0 || i >= len(l.data) {
		return false
	}
	l.data[i] = v
	return true
}

// Push appends a value
func (l *ValueList) Push(v Value) {
	l.data = append(l.data, v)
}

// Pop removes and returns the last element, or Empty when the list is empty
func (l *ValueList) Pop() Value {
	if len(l.data) == 0 {
		return Empty{}
	}
	last := l.data[len(l.data)-1]
	l.data = l.data[:len(l.data)-1]
	return last
}

// Insert places a value at the given index, shifting later elements up
func (l *ValueList) Insert(i int, v Value) bool {
	if i < 0 || i > len(l.data) {
		return false
	}
	l.data = append(l.data, Empty{})
	copy(l.data[i+1:], l.data[i:])
	l.data[i] = v
	return true
}

// Remove deletes and returns the element at the given index
func (l *ValueList) Remove(i int) (Value, bool) {
	if i < 0 || i >= len(l.data) {
		return nil, false
	}
	removed := l.data[i]
	l.data = append(l.data[:i], l.data[i+1:]...)
	return removed, true
}

// Resize grows or shrinks the list, filling new slots with the given value
func (l *ValueList) Resize(size int, fill Value) {
	if size < 0 {
		size = 0
	}
	for len(l.data) < size {
		l.data = append(l.data, fill)
	}
	l.data = l.data[:size]
}

// Sort orders the list in place. The sort is stable.
func (l *ValueList) Sort() {
	sort.SliceStable(l.data, func(i, j int) bool {
		return CompareValues(l.data[i], l.data[j]) < 0
	})
}

// Reverse reverses the list in place
func (l *ValueList) Reverse() {
	for i, j := 0, len(l.data)-1; i < j; i, j = i+1, j-1 {
		l.data[i], l.data[j] = l.data[j], l.data[i]
	}
}

// Contains reports whether any element equals the given value
func (l *ValueList) Contains(v Value) bool {
	for _, element := range l.data {
		if ValuesEqual(element, v) {
			return true
		}
	}
	return false
}

// Slice returns a new list holding a copy of the elements in [start, end)
func (l *ValueList) Slice(start, end int) (*ValueList, bool) {
	if start < 0 || end > len(l.data) || start > end {
		return nil, false
	}
	return NewValueListFromSlice(l.data[start:end]), true
}

// ShallowCopy clones the top-level container only; elements are shared
func (l *ValueList) ShallowCopy() *ValueList {
	return NewValueListFromSlice(l.data)
}
