package runtime

func makeListModule() *ValueMap {
	module := NewValueMap()

	module.AddFn("contains", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if l, ok := args[0].(*ValueList); ok {
				return Bool(l.Contains(args[1])), nil
			}
		}
		return nil, ExternalError("list.contains: Expected list and value as arguments")
	})

	module.AddFn("fill", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if l, ok := args[0].(*ValueList); ok {
				for i := range l.data {
					l.data[i] = args[1]
				}
				return Empty{}, nil
			}
		}
		return nil, ExternalError("list.fill: Expected list and value as arguments")
	})

	module.AddFn("first", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if l, ok := args[0].(*ValueList); ok {
				if value, found := l.Get(0); found {
					return value, nil
				}
				return Empty{}, nil
			}
		}
		return nil, ExternalError("list.first: Expected list as argument")
	})

	module.AddFn("get", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if l, ok := args[0].(*ValueList); ok {
				if n, ok := args[1].(Number); ok {
					if n < 0 {
						return nil, ExternalError("list.get: Negative indices aren't allowed")
					}
					if value, found := l.Get(int(n)); found {
						return value, nil
					}
					return Empty{}, nil
				}
			}
		}
		return nil, ExternalError("list.get: Expected list and number as arguments")
	})

	module.AddFn("insert", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 3 {
			if l, ok := args[0].(*ValueList); ok {
				if n, ok := args[1].(Number); ok {
					if n < 0 {
						return nil, ExternalError("list.insert: Negative indices aren't allowed")
					}
					if !l.Insert(int(n), args[2]) {
						return nil, ExternalError("list.insert: Index out of bounds")
					}
					return Empty{}, nil
				}
			}
		}
		return nil, ExternalError("list.insert: Expected list, number, and value as arguments")
	})

	module.AddFn("is_empty", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if l, ok := args[0].(*ValueList); ok {
				return Bool(l.IsEmpty()), nil
			}
		}
		return nil, ExternalError("list.is_empty: Expected list as argument")
	})

	module.AddFn("iter", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if l, ok := args[0].(*ValueList); ok {
				return IteratorWithList(l), nil
			}
		}
		return nil, ExternalError("list.iter: Expected list as argument")
	})

	module.AddFn("last", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if l, ok := args[0].(*ValueList); ok {
				if value, found := l.Get(l.Len() - 1); found {
					return value, nil
				}
				return Empty{}, nil
			}
		}
		return nil, ExternalError("list.last: Expected list as argument")
	})

	module.AddFn("pop", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if l, ok := args[0].(*ValueList); ok {
				return l.Pop(), nil
			}
		}
		return nil, ExternalError("list.pop: Expected list as argument")
	})

	module.AddFn("push", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if l, ok := args[0].(*ValueList); ok {
				l.Push(args[1])
				return Empty{}, nil
			}
		}
		return nil, ExternalError("list.push: Expected list and value as arguments")
	})

	module.AddFn("remove", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if l, ok := args[0].(*ValueList); ok {
				if n, ok := args[1].(Number); ok {
					if n < 0 {
						return nil, ExternalError("list.remove: Negative indices aren't allowed")
					}
					// removing from an empty list yields Empty, like pop
					if l.IsEmpty() {
						return Empty{}, nil
					}
					if removed, found := l.Remove(int(n)); found {
						return removed, nil
					}
					return nil, ExternalError(
						"list.remove: Index out of bounds - the index is %d but the List only has %d elements",
						int(n), l.Len())
				}
			}
		}
		return nil, ExternalError("list.remove: Expected list and index as arguments")
	})

	module.AddFn("resize", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 3 {
			if l, ok := args[0].(*ValueList); ok {
				if n, ok := args[1].(Number); ok {
					if n < 0 {
						return nil, ExternalError("list.resize: Negative sizes aren't allowed")
					}
					l.Resize(int(n), args[2])
					return Empty{}, nil
				}
			}
		}
		return nil, ExternalError("list.resize: Expected list, number, and value as arguments")
	})

	module.AddFn("retain", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) != 2 {
			return nil, ExternalError("list.retain: Expected list and function or value as arguments")
		}
		l, ok := args[0].(*ValueList)
		if !ok {
			return nil, ExternalError("list.retain: Expected list and function or value as arguments")
		}
		switch predicate := args[1].(type) {
		case *RuntimeFunction, *ExternalFunction:
			writeIndex := 0
			for readIndex := 0; readIndex < l.Len(); readIndex++ {
				value := l.data[readIndex]
				result, err := vm.RunFunction(predicate, []Value{value})
				if err != nil {
					return nil, err
				}
				keep, ok := result.(Bool)
				if !ok {
					return nil, ExternalError(
						"list.retain expects a Bool to be returned from the predicate, found '%s'",
						TypeAsString(result))
				}
				if keep {
					l.data[writeIndex] = value
					writeIndex++
				}
			}
			l.Resize(writeIndex, Empty{})
		default:
			writeIndex := 0
			for readIndex := 0; readIndex < l.Len(); readIndex++ {
				if ValuesEqual(l.data[readIndex], predicate) {
					l.data[writeIndex] = l.data[readIndex]
					writeIndex++
				}
			}
			l.Resize(writeIndex, Empty{})
		}
		return Empty{}, nil
	})

	module.AddFn("reverse", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if l, ok := args[0].(*ValueList); ok {
				l.Reverse()
				return Empty{}, nil
			}
		}
		return nil, ExternalError("list.reverse: Expected list as argument")
	})

	module.AddFn("size", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if l, ok := args[0].(*ValueList); ok {
				return Number(l.Len()), nil
			}
		}
		return nil, ExternalError("list.size: Expected list as argument")
	})

	module.AddFn("sort", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if l, ok := args[0].(*ValueList); ok {
				l.Sort()
				return Empty{}, nil
			}
		}
		return nil, ExternalError("list.sort: Expected list as argument")
	})

	module.AddFn("sort_copy", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if l, ok := args[0].(*ValueList); ok {
				result := l.ShallowCopy()
				result.Sort()
				return result, nil
			}
		}
		return nil, ExternalError("list.sort_copy: Expected list as argument")
	})

	module.AddFn("to_tuple", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if l, ok := args[0].(*ValueList); ok {
				return NewTuple(append([]Value{}, l.data...)), nil
			}
		}
		return nil, ExternalError("list.to_tuple expects a list as argument")
	})

	module.AddFn("transform", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if l, ok := args[0].(*ValueList); ok {
				for i, value := range l.data {
					result, err := vm.RunFunction(args[1], []Value{value})
					if err != nil {
						return nil, err
					}
					l.data[i] = result
				}
				return Empty{}, nil
			}
		}
		return nil, ExternalError("list.transform expects a list and function as arguments")
	})

	module.AddFn("with_size", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if n, ok := args[0].(Number); ok {
				if n < 0 {
					return nil, ExternalError("list.with_size: Negative sizes aren't allowed")
				}
				result := NewValueList(int(n))
				result.Resize(int(n), args[1])
				return result, nil
			}
		}
		return nil, ExternalError("list.with_size: Expected number and value as arguments")
	})

	module.AddFn("copy", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if l, ok := args[0].(*ValueList); ok {
				return l.ShallowCopy(), nil
			}
		}
		return nil, ExternalError("list.copy: Expected list as argument")
	})

	module.AddFn("deep_copy", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if _, ok := args[0].(*ValueList); ok {
				return DeepCopy(args[0]), nil
			}
		}
		return nil, ExternalError("list.deep_copy: Expected list as argument")
	})

	return module
}
