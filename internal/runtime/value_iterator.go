package runtime

import "fmt"

// Output is one item produced by an iterator: a single value, or a key/value
// pair for map traversal
type Output struct {
	Value  Value
	Second Value
	IsPair bool
}

// ExternalIterFn is a host-supplied pull function: it returns the next
// output, or done=true when the sequence is exhausted
type ExternalIterFn func() (out Output, done bool, err error)

type iteratorKind uint8

const (
	iterRange iteratorKind = iota
	iterList
	iterTuple
	iterMap
	iterString
	iterExternal
)

// ValueIterator is a single-pass handle over a lazy sequence. Iterators are
// not restartable; a clone continues from the clone point and, for list and
// map iterators, sees subsequent mutations of the shared container.
type ValueIterator struct {
	kind     iteratorKind
	cursor   int
	rng      Range
	list     *ValueList
	tuple    *Tuple
	mapValue *ValueMap
	str      []rune
	external ExternalIterFn
}

func (*ValueIterator) TypeName() string { return "Iterator" }
func (i *ValueIterator) String() string { return "Iterator" }

// IteratorWithRange creates an iterator over an integer range
func IteratorWithRange(r Range) *ValueIterator {
	return &ValueIterator{kind: iterRange, rng: r}
}

// IteratorWithList creates an iterator sharing the given list
func IteratorWithList(l *ValueList) *ValueIterator {
	return &ValueIterator{kind: iterList, list: l}
}

// IteratorWithTuple creates an iterator over a tuple's elements
func IteratorWithTuple(t *Tuple) *ValueIterator {
	return &ValueIterator{kind: iterTuple, tuple: t}
}

// IteratorWithMap creates an iterator emitting the map's entries as pairs
func IteratorWithMap(m *ValueMap) *ValueIterator {
	return &ValueIterator{kind: iterMap, mapValue: m}
}

// IteratorWithString creates an iterator over a string's characters
func IteratorWithString(s Str) *ValueIterator {
	return &ValueIterator{kind: iterString, str: []rune(string(s))}
}

// MakeExternal creates an iterator driven by a host-supplied pull function
func MakeExternal(pull ExternalIterFn) *ValueIterator {
	return &ValueIterator{kind: iterExternal, external: pull}
}

// MakeIterator wraps an iterable value in an iterator. Iterators pass
// through unchanged.
func MakeIterator(v Value) (*ValueIterator, error) {
	switch value := v.(type) {
	case Range:
		return IteratorWithRange(value), nil
	case *ValueList:
		return IteratorWithList(value), nil
	case *Tuple:
		return IteratorWithTuple(value), nil
	case *ValueMap:
		return IteratorWithMap(value), nil
	case Str:
		return IteratorWithString(value), nil
	case *ValueIterator:
		return value, nil
	case *ExternalValue:
		if value.Meta != nil {
			if iter, ok := value.Meta.GetStr("iter"); ok {
				if iterator, ok := iter.(*ValueIterator); ok {
					return iterator, nil
				}
			}
		}
		return nil, fmt.Errorf("unable to make an iterator from '%s'", value.TypeName())
	default:
		return nil, fmt.Errorf("unable to make an iterator from '%s'", TypeAsString(v))
	}
}

// Next advances the iterator. done is true when the sequence is exhausted.
func (i *ValueIterator) Next() (out Output, done bool, err error) {
	switch i.kind {
	case iterRange:
		current := i.rng.Start + int64(i.cursor)
		if i.rng.Inclusive {
			if current > i.rng.End {
				return Output{}, true, nil
			}
		} else if current >= i.rng.End {
			return Output{}, true, nil
		}
		i.cursor++
		return Output{Value: Number(current)}, false, nil
	case iterList:
		if i.cursor >= i.list.Len() {
			return Output{}, true, nil
		}
		value := i.list.data[i.cursor]
		i.cursor++
		return Output{Value: value}, false, nil
	case iterTuple:
		if i.cursor >= i.tuple.Len() {
			return Output{}, true, nil
		}
		value := i.tuple.data[i.cursor]
		i.cursor++
		return Output{Value: value}, false, nil
	case iterMap:
		if i.cursor >= i.mapValue.Len() {
			return Output{}, true, nil
		}
		entry := i.mapValue.entries[i.cursor]
		i.cursor++
		return Output{Value: entry.Key, Second: entry.Value, IsPair: true}, false, nil
	case iterString:
		if i.cursor >= len(i.str) {
			return Output{}, true, nil
		}
		value := Str(string(i.str[i.cursor]))
		i.cursor++
		return Output{Value: value}, false, nil
	case iterExternal:
		return i.external()
	default:
		return Output{}, true, nil
	}
}

// Clone copies the iterator's position. The underlying container stays
// shared, so the clone observes later mutations.
func (i *ValueIterator) Clone() *ValueIterator {
	clone := *i
	return &clone
}
