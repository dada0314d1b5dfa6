package runtime

func makeIteratorModule() *ValueMap {
	module := NewValueMap()

	expectIterator := func(args []Value, message string) (*ValueIterator, error) {
		if len(args) >= 1 {
			if i, ok := args[0].(*ValueIterator); ok {
				return i, nil
			}
			// Iterables are accepted wherever an iterator is expected
			if iterator, err := MakeIterator(args[0]); err == nil {
				return iterator, nil
			}
		}
		return nil, ExternalError("%s", message)
	}

	outputValue := func(out Output) Value {
		if out.IsPair {
			return NewTuple([]Value{out.Value, out.Second})
		}
		return out.Value
	}

	module.AddFn("next", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		iterator, err := expectIterator(args, "iterator.next: Expected iterator as argument")
		if err != nil {
			return nil, err
		}
		out, done, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if done {
			return Empty{}, nil
		}
		return outputValue(out), nil
	})

	module.AddFn("to_list", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		iterator, err := expectIterator(args, "iterator.to_list: Expected iterator as argument")
		if err != nil {
			return nil, err
		}
		result := NewValueList(0)
		for {
			out, done, err := iterator.Next()
			if err != nil {
				return nil, err
			}
			if done {
				return result, nil
			}
			result.Push(outputValue(out))
		}
	})

	module.AddFn("to_tuple", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		iterator, err := expectIterator(args, "iterator.to_tuple: Expected iterator as argument")
		if err != nil {
			return nil, err
		}
		var data []Value
		for {
			out, done, err := iterator.Next()
			if err != nil {
				return nil, err
			}
			if done {
				return NewTuple(data), nil
			}
			data = append(data, outputValue(out))
		}
	})

	module.AddFn("to_map", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		iterator, err := expectIterator(args, "iterator.to_map: Expected iterator as argument")
		if err != nil {
			return nil, err
		}
		result := NewValueMap()
		for {
			out, done, err := iterator.Next()
			if err != nil {
				return nil, err
			}
			if done {
				return result, nil
			}
			if out.IsPair {
				if !IsImmutable(out.Value) {
					return nil, ExternalError(
						"iterator.to_map: Only immutable values can be used as keys, found '%s'",
						TypeAsString(out.Value))
				}
				result.Insert(out.Value, out.Second)
			} else {
				if !IsImmutable(out.Value) {
					return nil, ExternalError(
						"iterator.to_map: Only immutable values can be used as keys, found '%s'",
						TypeAsString(out.Value))
				}
				result.Insert(out.Value, Empty{})
			}
		}
	})

	module.AddFn("count", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		iterator, err := expectIterator(args, "iterator.count: Expected iterator as argument")
		if err != nil {
			return nil, err
		}
		count := 0
		for {
			_, done, err := iterator.Next()
			if err != nil {
				return nil, err
			}
			if done {
				return Number(count), nil
			}
			count++
		}
	})

	module.AddFn("each", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) != 2 {
			return nil, ExternalError("iterator.each: Expected iterator and function as arguments")
		}
		iterator, err := expectIterator(args, "iterator.each: Expected iterator and function as arguments")
		if err != nil {
			return nil, err
		}
		f := args[1]
		return MakeExternal(func() (Output, bool, error) {
			out, done, err := iterator.Next()
			if err != nil || done {
				return Output{}, done, err
			}
			mapped, err := vm.RunFunction(f, []Value{outputValue(out)})
			if err != nil {
				return Output{}, false, err
			}
			return Output{Value: mapped}, false, nil
		}), nil
	})

	module.AddFn("take", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) != 2 {
			return nil, ExternalError("iterator.take: Expected iterator and count as arguments")
		}
		iterator, err := expectIterator(args, "iterator.take: Expected iterator and count as arguments")
		if err != nil {
			return nil, err
		}
		n, ok := args[1].(Number)
		if !ok || n < 0 {
			return nil, ExternalError("iterator.take: Expected a non-negative count")
		}
		remaining := int(n)
		return MakeExternal(func() (Output, bool, error) {
			if remaining <= 0 {
				return Output{}, true, nil
			}
			remaining--
			return iterator.Next()
		}), nil
	})

	return module
}
