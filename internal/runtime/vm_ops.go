package runtime

import (
	"fmt"
	"math"

	"github.com/spbots/koto/internal/bytecode"
)

// truthiness evaluates a value in a condition: booleans are themselves,
// Empty counts as false, anything else is a type error
func (vm *VM) truthiness(v Value) (bool, error) {
	switch value := v.(type) {
	case Bool:
		return bool(value), nil
	case Empty:
		return false, nil
	default:
		return false, fmt.Errorf("expected Bool in condition, found '%s'", TypeAsString(v))
	}
}

func (vm *VM) rangeBound(base int, r byte) (int64, error) {
	n, ok := vm.register(base, r).(Number)
	if !ok {
		return 0, fmt.Errorf("expected Number for range bound, found '%s'",
			TypeAsString(vm.register(base, r)))
	}
	return int64(n), nil
}

func (vm *VM) negate(v Value) (Value, error) {
	switch value := v.(type) {
	case Number:
		return -value, nil
	case Num2:
		return Num2{-value[0], -value[1]}, nil
	case Num4:
		return Num4{-value[0], -value[1], -value[2], -value[3]}, nil
	default:
		return nil, fmt.Errorf("unable to negate '%s'", TypeAsString(v))
	}
}

func (vm *VM) makeVec4(base int, first byte, count int) (Value, error) {
	var result Num4
	if count > 4 {
		return nil, fmt.Errorf("num4 accepts at most 4 elements, found %d", count)
	}
	elementOf := func(r byte) (float64, error) {
		if n, ok := vm.register(base, r).(Number); ok {
			return float64(n), nil
		}
		return 0, fmt.Errorf("num4 expects Numbers as arguments, found '%s'",
			TypeAsString(vm.register(base, r)))
	}
	switch count {
	case 0:
	case 1:
		n, err := elementOf(first)
		if err != nil {
			return nil, err
		}
		result = Num4{n, n, n, n}
	default:
		for i := 0; i < count; i++ {
			n, err := elementOf(first + byte(i))
			if err != nil {
				return nil, err
			}
			result[i] = n
		}
	}
	return result, nil
}

var binaryOpNames = map[bytecode.Opcode]string{
	bytecode.OP_ADD:      "add",
	bytecode.OP_SUBTRACT: "subtract",
	bytecode.OP_MULTIPLY: "multiply",
	bytecode.OP_DIVIDE:   "divide",
	bytecode.OP_MODULO:   "modulo",
}

var binaryOpMetaKeys = map[bytecode.Opcode]MetaKey{
	bytecode.OP_ADD:      MetaAdd,
	bytecode.OP_SUBTRACT: MetaSubtract,
	bytecode.OP_MULTIPLY: MetaMultiply,
	bytecode.OP_DIVIDE:   MetaDivide,
	bytecode.OP_MODULO:   MetaModulo,
}

// binaryOp implements the arithmetic opcodes. Operands coerce to Number,
// except Add on matching composite kinds (string/list/tuple concatenation,
// element-wise Num2/Num4), and maps carrying an arithmetic meta overload.
func (vm *VM) binaryOp(op bytecode.Opcode, lhs, rhs Value) (Value, error) {
	if a, ok := lhs.(Number); ok {
		if b, ok := rhs.(Number); ok {
			switch op {
			case bytecode.OP_ADD:
				return a + b, nil
			case bytecode.OP_SUBTRACT:
				return a - b, nil
			case bytecode.OP_MULTIPLY:
				return a * b, nil
			case bytecode.OP_DIVIDE:
				return a / b, nil
			case bytecode.OP_MODULO:
				return Number(math.Mod(float64(a), float64(b))), nil
			}
		}
	}

	if mapValue, ok := lhs.(*ValueMap); ok {
		if overload, found := mapValue.Meta(binaryOpMetaKeys[op]); found {
			return vm.RunFunction(overload, []Value{lhs, rhs})
		}
	}

	if op == bytecode.OP_ADD {
		switch a := lhs.(type) {
		case Str:
			if b, ok := rhs.(Str); ok {
				return a + b, nil
			}
		case *ValueList:
			if b, ok := rhs.(*ValueList); ok {
				data := make([]Value, 0, a.Len()+b.Len())
				data = append(data, a.data...)
				data = append(data, b.data...)
				return NewValueListWithData(data), nil
			}
		case *Tuple:
			if b, ok := rhs.(*Tuple); ok {
				data := make([]Value, 0, len(a.data)+len(b.data))
				data = append(data, a.data...)
				data = append(data, b.data...)
				return NewTuple(data), nil
			}
		case Num2:
			if b, ok := rhs.(Num2); ok {
				return Num2{a[0] + b[0], a[1] + b[1]}, nil
			}
		case Num4:
			if b, ok := rhs.(Num4); ok {
				return Num4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}, nil
			}
		}
	}

	return nil, fmt.Errorf("unable to %s '%s' and '%s'",
		binaryOpNames[op], TypeAsString(lhs), TypeAsString(rhs))
}

// compareOp implements the comparison opcodes. Numbers follow IEEE-754,
// strings compare lexicographically; Equal and NotEqual fall back to
// structural equality for every variant.
func (vm *VM) compareOp(op bytecode.Opcode, lhs, rhs Value) (Value, error) {
	switch op {
	case bytecode.OP_EQUAL:
		if mapValue, ok := lhs.(*ValueMap); ok {
			if overload, found := mapValue.Meta(MetaEqual); found {
				return vm.RunFunction(overload, []Value{lhs, rhs})
			}
		}
		return Bool(ValuesEqual(lhs, rhs)), nil
	case bytecode.OP_NOT_EQUAL:
		if mapValue, ok := lhs.(*ValueMap); ok {
			if overload, found := mapValue.Meta(MetaNotEqual); found {
				return vm.RunFunction(overload, []Value{lhs, rhs})
			}
		}
		return Bool(!ValuesEqual(lhs, rhs)), nil
	}

	if a, ok := lhs.(Number); ok {
		if b, ok := rhs.(Number); ok {
			switch op {
			case bytecode.OP_LESS:
				return Bool(a < b), nil
			case bytecode.OP_LESS_OR_EQUAL:
				return Bool(a <= b), nil
			case bytecode.OP_GREATER:
				return Bool(a > b), nil
			case bytecode.OP_GREATER_OR_EQUAL:
				return Bool(a >= b), nil
			}
		}
	}
	if a, ok := lhs.(Str); ok {
		if b, ok := rhs.(Str); ok {
			switch op {
			case bytecode.OP_LESS:
				return Bool(a < b), nil
			case bytecode.OP_LESS_OR_EQUAL:
				return Bool(a <= b), nil
			case bytecode.OP_GREATER:
				return Bool(a > b), nil
			case bytecode.OP_GREATER_OR_EQUAL:
				return Bool(a >= b), nil
			}
		}
	}
	if mapValue, ok := lhs.(*ValueMap); ok {
		var metaKey MetaKey
		switch op {
		case bytecode.OP_LESS:
			metaKey = MetaLess
		case bytecode.OP_GREATER:
			metaKey = MetaGreater
		default:
			metaKey = MetaKey(0xff)
		}
		if overload, found := mapValue.Meta(metaKey); found {
			return vm.RunFunction(overload, []Value{lhs, rhs})
		}
	}

	return nil, fmt.Errorf("unable to compare '%s' and '%s'",
		TypeAsString(lhs), TypeAsString(rhs))
}

// indexOf converts an index value to a non-negative int
func indexOf(v Value) (int, error) {
	n, ok := v.(Number)
	if !ok {
		return 0, fmt.Errorf("expected Number as index, found '%s'", TypeAsString(v))
	}
	if n < 0 {
		return 0, fmt.Errorf("Negative indices aren't allowed")
	}
	return int(n), nil
}

func (vm *VM) listUpdate(container, index, value Value) error {
	list, ok := container.(*ValueList)
	if !ok {
		return fmt.Errorf("expected List, found '%s'", TypeAsString(container))
	}
	i, err := indexOf(index)
	if err != nil {
		return err
	}
	if !list.Set(i, value) {
		return fmt.Errorf("index out of bounds - the index is %d but the List only has %d elements",
			i, list.Len())
	}
	return nil
}

// sliceBounds resolves a range against a container length. Unbounded ends
// clamp to the length.
func sliceBounds(r Range, length int) (int, int, error) {
	if r.Start < 0 {
		return 0, 0, fmt.Errorf("Negative indices aren't allowed")
	}
	start := int(r.Start)
	end := length
	if r.End != math.MaxInt64 {
		end = int(r.End)
		if r.Inclusive {
			end++
		}
	}
	if end > length {
		end = length
	}
	if start > end {
		start = end
	}
	return start, end, nil
}

// indexValue implements ListIndex: numeric indexing and range slicing over
// lists, tuples and strings, plus keyed access for maps. A range slice of a
// list yields a copy, not a view.
func (vm *VM) indexValue(container, index Value) (Value, error) {
	switch target := container.(type) {
	case *ValueList:
		switch idx := index.(type) {
		case Number:
			i, err := indexOf(idx)
			if err != nil {
				return nil, err
			}
			value, ok := target.Get(i)
			if !ok {
				return nil, fmt.Errorf(
					"index out of bounds - the index is %d but the List only has %d elements",
					i, target.Len())
			}
			return value, nil
		case Range:
			start, end, err := sliceBounds(idx, target.Len())
			if err != nil {
				return nil, err
			}
			slice, _ := target.Slice(start, end)
			return slice, nil
		}
	case *Tuple:
		switch idx := index.(type) {
		case Number:
			i, err := indexOf(idx)
			if err != nil {
				return nil, err
			}
			if i >= target.Len() {
				return nil, fmt.Errorf(
					"index out of bounds - the index is %d but the Tuple only has %d elements",
					i, target.Len())
			}
			return target.data[i], nil
		case Range:
			start, end, err := sliceBounds(idx, target.Len())
			if err != nil {
				return nil, err
			}
			return NewTuple(append([]Value{}, target.data[start:end]...)), nil
		}
	case Str:
		runes := []rune(string(target))
		switch idx := index.(type) {
		case Number:
			i, err := indexOf(idx)
			if err != nil {
				return nil, err
			}
			if i >= len(runes) {
				return nil, fmt.Errorf(
					"index out of bounds - the index is %d but the string only has %d characters",
					i, len(runes))
			}
			return Str(string(runes[i])), nil
		case Range:
			start, end, err := sliceBounds(idx, len(runes))
			if err != nil {
				return nil, err
			}
			return Str(string(runes[start:end])), nil
		}
	case *ValueMap:
		return vm.accessValue(container, index)
	}
	return nil, fmt.Errorf("unable to index '%s' with '%s'",
		TypeAsString(container), TypeAsString(index))
}

// accessValue implements MapAccess. For maps the data entries are consulted
// first, then the @access/@index meta hooks, then the core map module (so
// core operations read as methods); for other variants the lookup goes
// straight to the matching core module, or to an external value's method
// map. A missing map key yields Empty.
func (vm *VM) accessValue(container, key Value) (Value, error) {
	coreLookup := func(module *ValueMap) (Value, error) {
		name, ok := key.(Str)
		if !ok {
			return nil, fmt.Errorf("expected Str as access key for '%s', found '%s'",
				TypeAsString(container), TypeAsString(key))
		}
		if value, found := module.Get(name); found {
			return value, nil
		}
		return nil, fmt.Errorf("'%s' not found in '%s'", name, TypeAsString(container))
	}

	switch target := container.(type) {
	case *ValueMap:
		if value, found := target.Get(key); found {
			return value, nil
		}
		for _, metaKey := range []MetaKey{MetaAccess, MetaIndex} {
			if hook, found := target.Meta(metaKey); found {
				return vm.RunFunction(hook, []Value{container, key})
			}
		}
		if name, ok := key.(Str); ok {
			if value, found := vm.coreLib.Map.Get(name); found {
				return value, nil
			}
		}
		return Empty{}, nil
	case *ValueList:
		return coreLookup(vm.coreLib.List)
	case Str:
		return coreLookup(vm.coreLib.String)
	case Number:
		return coreLookup(vm.coreLib.Number)
	case Range:
		return coreLookup(vm.coreLib.Range)
	case *Tuple:
		return coreLookup(vm.coreLib.Tuple)
	case *ValueIterator:
		return coreLookup(vm.coreLib.Iterator)
	case Num2:
		return coreLookup(vm.coreLib.Num2)
	case Num4:
		return coreLookup(vm.coreLib.Num4)
	case *ExternalValue:
		if target.Meta != nil {
			if name, ok := key.(Str); ok {
				if value, found := target.Meta.Get(name); found {
					return value, nil
				}
			}
		}
		return Empty{}, nil
	}
	return nil, fmt.Errorf("unable to access '%s' with '%s'",
		TypeAsString(container), TypeAsString(key))
}
