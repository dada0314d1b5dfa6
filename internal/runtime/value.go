// Package runtime implements the value model, the containers, the core
// library, and the register-based virtual machine that executes chunks.
package runtime

import (
	"fmt"
	"math"
	"strings"

	"github.com/spbots/koto/internal/bytecode"
)

// Value is the runtime's tagged union. Variants are either immutable (copies
// are value copies) or reference-shared (copies share identity with the
// original): Empty, Bool, Number, Str, Range, Num2 and Num4 are immutable;
// List, Map, Iterator and function values are shared by reference. Tuples
// share their storage but the contents can't be changed through them.
type Value interface {
	TypeName() string
	String() string
}

// Empty is the unit value
type Empty struct{}

func (Empty) TypeName() string { return "Empty" }
func (Empty) String() string   { return "()" }

// Bool is a boolean value
type Bool bool

func (Bool) TypeName() string { return "Bool" }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Number is a 64-bit float
type Number float64

func (Number) TypeName() string { return "Number" }
func (n Number) String() string { return fmt.Sprintf("%g", float64(n)) }

// Str is an immutable string
type Str string

func (Str) TypeName() string { return "Str" }
func (s Str) String() string { return string(s) }

// Range is an integer range, exclusive or inclusive at the upper end
type Range struct {
	Start     int64
	End       int64
	Inclusive bool
}

func (Range) TypeName() string { return "Range" }
func (r Range) String() string {
	if r.Inclusive {
		return fmt.Sprintf("%d..=%d", r.Start, r.End)
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

// Size returns the number of steps the range covers
func (r Range) Size() int64 {
	size := r.End - r.Start
	if r.Inclusive {
		size++
	}
	if size < 0 {
		return 0
	}
	return size
}

// Num2 is a fixed pair of floats
type Num2 [2]float64

func (Num2) TypeName() string { return "Num2" }
func (n Num2) String() string { return fmt.Sprintf("num2(%g, %g)", n[0], n[1]) }

// Num4 is a fixed quadruple of floats
type Num4 [4]float64

func (Num4) TypeName() string { return "Num4" }
func (n Num4) String() string {
	return fmt.Sprintf("num4(%g, %g, %g, %g)", n[0], n[1], n[2], n[3])
}

// Tuple is an immutable ordered sequence, shared by reference
type Tuple struct {
	data []Value
}

// NewTuple creates a tuple taking ownership of the given slice
func NewTuple(data []Value) *Tuple {
	return &Tuple{data: data}
}

func (*Tuple) TypeName() string { return "Tuple" }

// Data returns the tuple's elements; callers must not mutate the slice
func (t *Tuple) Data() []Value { return t.data }

// Len returns the number of elements
func (t *Tuple) Len() int { return len(t.data) }

// Get returns the element at the given index, or Empty when out of bounds
func (t *Tuple) Get(i int) Value {
	if i < 0 || i >= len(t.data) {
		return Empty{}
	}
	return t.data[i]
}

func (t *Tuple) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, v := range t.data {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(displayValue(v))
	}
	sb.WriteByte(')')
	return sb.String()
}

// RuntimeFunction is a closure record: a reference into a chunk plus the
// values captured when the closure was constructed. Captures live in a
// shared list, so mutation through SetCapture is seen by every holder of
// the closure.
type RuntimeFunction struct {
	Chunk              *bytecode.Chunk
	IP                 int
	EndIP              int
	ArgCount           byte
	CaptureCount       byte
	IsInstanceFunction bool
	IsVariadic         bool
	Captures           *ValueList
}

func (*RuntimeFunction) TypeName() string { return "Function" }
func (f *RuntimeFunction) String() string {
	return fmt.Sprintf("|%d args|", f.ArgCount)
}

// displayValue renders a value for container display: strings are quoted so
// that list and map output is unambiguous
func displayValue(v Value) string {
	if s, ok := v.(Str); ok {
		return fmt.Sprintf("%q", string(s))
	}
	return v.String()
}

// IsImmutable reports whether a value may be used as a map key. Tuples count
// as immutable when every element is.
func IsImmutable(v Value) bool {
	switch value := v.(type) {
	case Empty, Bool, Number, Str, Range, Num2, Num4:
		return true
	case *Tuple:
		for _, element := range value.data {
			if !IsImmutable(element) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// TypeAsString names a value's variant for error messages
func TypeAsString(v Value) string {
	if v == nil {
		return "Empty"
	}
	return v.TypeName()
}

// DeepCopy clones reference-shared composites transitively. Immutable values
// are returned as-is.
func DeepCopy(v Value) Value {
	switch value := v.(type) {
	case *ValueList:
		data := make([]Value, value.Len())
		for i, element := range value.data {
			data[i] = DeepCopy(element)
		}
		return NewValueListWithData(data)
	case *ValueMap:
		result := NewValueMapWithCapacity(value.Len())
		for _, entry := range value.entries {
			result.Insert(entry.Key, DeepCopy(entry.Value))
		}
		for key, metaValue := range value.meta {
			result.SetMeta(key, DeepCopy(metaValue))
		}
		return result
	case *Tuple:
		data := make([]Value, len(value.data))
		for i, element := range value.data {
			data[i] = DeepCopy(element)
		}
		return NewTuple(data)
	case *ValueIterator:
		return value.Clone()
	default:
		return v
	}
}

// ValuesEqual compares two values. Numbers follow IEEE-754, composites
// compare element-wise, functions compare structurally.
func ValuesEqual(a, b Value) bool {
	switch lhs := a.(type) {
	case Empty:
		_, ok := b.(Empty)
		return ok
	case Bool:
		rhs, ok := b.(Bool)
		return ok && lhs == rhs
	case Number:
		rhs, ok := b.(Number)
		return ok && lhs == rhs
	case Str:
		rhs, ok := b.(Str)
		return ok && lhs == rhs
	case Range:
		rhs, ok := b.(Range)
		return ok && lhs == rhs
	case Num2:
		rhs, ok := b.(Num2)
		return ok && lhs == rhs
	case Num4:
		rhs, ok := b.(Num4)
		return ok && lhs == rhs
	case *Tuple:
		rhs, ok := b.(*Tuple)
		if !ok || len(lhs.data) != len(rhs.data) {
			return false
		}
		for i, element := range lhs.data {
			if !ValuesEqual(element, rhs.data[i]) {
				return false
			}
		}
		return true
	case *ValueList:
		rhs, ok := b.(*ValueList)
		if !ok || lhs.Len() != rhs.Len() {
			return false
		}
		for i, element := range lhs.data {
			if !ValuesEqual(element, rhs.data[i]) {
				return false
			}
		}
		return true
	case *ValueMap:
		rhs, ok := b.(*ValueMap)
		if !ok || lhs.Len() != rhs.Len() {
			return false
		}
		for _, entry := range lhs.entries {
			other, found := rhs.Get(entry.Key)
			if !found || !ValuesEqual(entry.Value, other) {
				return false
			}
		}
		return true
	case *RuntimeFunction:
		rhs, ok := b.(*RuntimeFunction)
		if !ok || lhs.Chunk != rhs.Chunk || lhs.IP != rhs.IP {
			return false
		}
		if lhs.Captures == nil || rhs.Captures == nil {
			return lhs.Captures == rhs.Captures
		}
		return ValuesEqual(lhs.Captures, rhs.Captures)
	case *ExternalFunction:
		rhs, ok := b.(*ExternalFunction)
		return ok && lhs == rhs
	case *ExternalValue:
		rhs, ok := b.(*ExternalValue)
		return ok && lhs == rhs
	case *ValueIterator:
		rhs, ok := b.(*ValueIterator)
		return ok && lhs == rhs
	case nil:
		return b == nil
	default:
		return false
	}
}

// keysEqual compares two values for map keying. Unlike ValuesEqual, numbers
// compare by bit pattern so a number used as a key round-trips exactly.
func keysEqual(a, b Value) bool {
	if lhs, ok := a.(Number); ok {
		rhs, ok := b.(Number)
		return ok && math.Float64bits(float64(lhs)) == math.Float64bits(float64(rhs))
	}
	if lhs, ok := a.(*Tuple); ok {
		rhs, ok := b.(*Tuple)
		if !ok || len(lhs.data) != len(rhs.data) {
			return false
		}
		for i, element := range lhs.data {
			if !keysEqual(element, rhs.data[i]) {
				return false
			}
		}
		return true
	}
	return ValuesEqual(a, b)
}

// keyHash hashes an immutable value for the map's bucket index. Numbers hash
// by bit pattern, matching keysEqual.
func keyHash(v Value) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	mix := func(x uint64) {
		for i := 0; i < 8; i++ {
			h ^= x & 0xff
			h *= prime64
			x >>= 8
		}
	}
	switch value := v.(type) {
	case Empty:
		mix(0)
	case Bool:
		if value {
			mix(1)
		} else {
			mix(2)
		}
	case Number:
		mix(3)
		mix(math.Float64bits(float64(value)))
	case Str:
		mix(4)
		for i := 0; i < len(value); i++ {
			h ^= uint64(value[i])
			h *= prime64
		}
	case Range:
		mix(5)
		mix(uint64(value.Start))
		mix(uint64(value.End))
		if value.Inclusive {
			mix(1)
		}
	case Num2:
		mix(6)
		mix(math.Float64bits(value[0]))
		mix(math.Float64bits(value[1]))
	case Num4:
		mix(7)
		for _, f := range value {
			mix(math.Float64bits(f))
		}
	case *Tuple:
		mix(8)
		for _, element := range value.data {
			mix(keyHash(element))
		}
	}
	return h
}

// CompareValues orders two values, used by sorting. Values of different
// variants are grouped by a fixed variant order so sorts are total.
func CompareValues(a, b Value) int {
	rankOf := func(v Value) int {
		switch v.(type) {
		case Empty:
			return 0
		case Bool:
			return 1
		case Number:
			return 2
		case Str:
			return 3
		default:
			return 4
		}
	}
	ra, rb := rankOf(a), rankOf(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch lhs := a.(type) {
	case Bool:
		rhs := b.(Bool)
		if lhs == rhs {
			return 0
		}
		if !lhs {
			return -1
		}
		return 1
	case Number:
		rhs := b.(Number)
		if lhs < rhs {
			return -1
		}
		if lhs > rhs {
			return 1
		}
		return 0
	case Str:
		return strings.Compare(string(lhs), string(b.(Str)))
	default:
		return 0
	}
}
