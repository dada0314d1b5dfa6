package bytecode

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"math"
	"strings"
)

// ConstantIndex addresses a constant within a pool. Instructions encode it in
// short form (one byte) when it fits, otherwise in a 4-byte long form.
type ConstantIndex uint32

// MaxShortConstantIndex is the largest index encodable in short form
const MaxShortConstantIndex = 255

type constantKind uint8

const (
	constantNumber constantKind = iota
	constantString
)

// constantInfo locates a constant in one of the pool's arenas: numbers are
// addressed by position, strings by byte range into the shared string data.
type constantInfo struct {
	kind  constantKind
	index int // number index, or string start
	end   int // string end (unused for numbers)
}

// Constant is a single pool entry, either a number or a string
type Constant struct {
	Kind   ConstantKind
	Number float64
	Str    string
}

// ConstantKind distinguishes the two constant payloads
type ConstantKind uint8

const (
	ConstantKindNumber ConstantKind = iota
	ConstantKindString
)

func (c Constant) String() string {
	if c.Kind == ConstantKindString {
		return fmt.Sprintf("String\t%s", c.Str)
	}
	return fmt.Sprintf("Number\t%g", c.Number)
}

// ConstantPool is the deduplicated, immutable store of a chunk's numbers and
// strings. Pools built from the same constants in the same order are equal
// and share a stable 64-bit hash, which lets identical pools be recognised
// cheaply across modules.
type ConstantPool struct {
	index   []constantInfo
	strings string // constant strings concatenated into one
	numbers []float64
	hash    uint64
}

// Len returns the number of constants in the pool
func (p *ConstantPool) Len() int {
	return len(p.index)
}

// IsEmpty returns true when the pool holds no constants
func (p *ConstantPool) IsEmpty() bool {
	return p.Len() == 0
}

// Get returns the constant at the given index
func (p *ConstantPool) Get(index ConstantIndex) (Constant, bool) {
	if int(index) >= len(p.index) {
		return Constant{}, false
	}
	info := p.index[index]
	if info.kind == constantNumber {
		return Constant{Kind: ConstantKindNumber, Number: p.numbers[info.index]}, true
	}
	return Constant{Kind: ConstantKindString, Str: p.strings[info.index:info.end]}, true
}

// GetStr returns the string at the given index. Bounds are verified when the
// pool is built, so lookups skip the entry check; an index that was never
// handed out by the builder panics.
func (p *ConstantPool) GetStr(index ConstantIndex) string {
	info := p.index[index]
	return p.strings[info.index:info.end]
}

// GetNumber returns the number at the given index
func (p *ConstantPool) GetNumber(index ConstantIndex) float64 {
	return p.numbers[p.index[index].index]
}

// StringData returns the pool's concatenated string storage
func (p *ConstantPool) StringData() string {
	return p.strings
}

// Hash returns the pool's stable 64-bit content hash
func (p *ConstantPool) Hash() uint64 {
	return p.hash
}

// Equal reports whether two pools hold the same constants in the same order
func (p *ConstantPool) Equal(other *ConstantPool) bool {
	if len(p.index) != len(other.index) || p.strings != other.strings {
		return false
	}
	if len(p.numbers) != len(other.numbers) {
		return false
	}
	for i, n := range p.numbers {
		if math.Float64bits(n) != math.Float64bits(other.numbers[i]) {
			return false
		}
	}
	for i, info := range p.index {
		if info != other.index[i] {
			return false
		}
	}
	return true
}

// String renders the pool's constants in insertion order
func (p *ConstantPool) String() string {
	var sb strings.Builder
	for i := 0; i < p.Len(); i++ {
		constant, _ := p.Get(ConstantIndex(i))
		fmt.Fprintf(&sb, "%d\t%s\n", i, constant.String())
	}
	return sb.String()
}

// ConstantPoolBuilder accumulates deduplicated constants and produces an
// immutable ConstantPool. The pool's hash is fed incrementally as constants
// are added, so insertion order is part of a pool's identity.
type ConstantPoolBuilder struct {
	pool      ConstantPool
	strings   strings.Builder
	hasher    hash.Hash64
	stringMap map[string]ConstantIndex
	numberMap map[uint64]ConstantIndex
}

// NewConstantPoolBuilder creates an empty builder
func NewConstantPoolBuilder() *ConstantPoolBuilder {
	return &ConstantPoolBuilder{
		hasher:    fnv.New64a(),
		stringMap: make(map[string]ConstantIndex),
		numberMap: make(map[uint64]ConstantIndex),
	}
}

// AddString interns a string, returning the existing index when the exact
// content has been added before
func (b *ConstantPoolBuilder) AddString(s string) ConstantIndex {
	if index, ok := b.stringMap[s]; ok {
		return index
	}

	start := b.strings.Len()
	b.strings.WriteString(s)
	b.hasher.Write([]byte(s))

	index := ConstantIndex(len(b.pool.index))
	b.pool.index = append(b.pool.index, constantInfo{
		kind:  constantString,
		index: start,
		end:   start + len(s),
	})
	b.stringMap[s] = index
	return index
}

// AddNumber interns a number, keyed by its 8-byte bit pattern so that e.g.
// 0.0 and -0.0 remain distinct constants
func (b *ConstantPoolBuilder) AddNumber(n float64) ConstantIndex {
	bits := math.Float64bits(n)
	if index, ok := b.numberMap[bits]; ok {
		return index
	}

	var bytes [8]byte
	binary.LittleEndian.PutUint64(bytes[:], bits)
	b.hasher.Write(bytes[:])

	numberIndex := len(b.pool.numbers)
	b.pool.numbers = append(b.pool.numbers, n)

	index := ConstantIndex(len(b.pool.index))
	b.pool.index = append(b.pool.index, constantInfo{
		kind:  constantNumber,
		index: numberIndex,
	})
	b.numberMap[bits] = index
	return index
}

// Len returns the number of constants added so far
func (b *ConstantPoolBuilder) Len() int {
	return len(b.pool.index)
}

// Build finalizes the pool: the index vector is folded into the running hash
// and the pool becomes immutable
func (b *ConstantPoolBuilder) Build() *ConstantPool {
	var entry [17]byte
	for _, info := range b.pool.index {
		entry[0] = byte(info.kind)
		binary.LittleEndian.PutUint64(entry[1:9], uint64(info.index))
		binary.LittleEndian.PutUint64(entry[9:17], uint64(info.end))
		b.hasher.Write(entry[:])
	}
	b.pool.strings = b.strings.String()
	b.pool.hash = b.hasher.Sum64()
	pool := b.pool
	return &pool
}
