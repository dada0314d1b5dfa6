package runtime

func makeMapModule() *ValueMap {
	module := NewValueMap()

	expectMap := func(args []Value, message string) (*ValueMap, error) {
		if len(args) >= 1 {
			if m, ok := args[0].(*ValueMap); ok {
				return m, nil
			}
		}
		return nil, ExternalError("%s", message)
	}

	module.AddFn("clear", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		m, err := expectMap(args, "map.clear: Expected map as argument")
		if err != nil {
			return nil, err
		}
		m.Clear()
		return Empty{}, nil
	})

	module.AddFn("contains_key", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if m, ok := args[0].(*ValueMap); ok && IsImmutable(args[1]) {
				return Bool(m.ContainsKey(args[1])), nil
			}
		}
		if len(args) >= 2 {
			return nil, ExternalError(
				"map.contains_key: Expected map and key as arguments, found '%s' and '%s'",
				TypeAsString(args[0]), TypeAsString(args[1]))
		}
		return nil, ExternalError("map.contains_key: Expected map and key as arguments")
	})

	module.AddFn("copy", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		m, err := expectMap(args, "map.copy: Expected map as argument")
		if err != nil {
			return nil, err
		}
		return m.ShallowCopy(), nil
	})

	module.AddFn("deep_copy", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if _, err := expectMap(args, "map.deep_copy: Expected map as argument"); err != nil {
			return nil, err
		}
		return DeepCopy(args[0]), nil
	})

	module.AddFn("get", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if m, ok := args[0].(*ValueMap); ok {
				if value, found := m.Get(args[1]); found {
					return value, nil
				}
				return Empty{}, nil
			}
			return nil, ExternalError(
				"map.get: Expected map and key as arguments, found '%s' and '%s'",
				TypeAsString(args[0]), TypeAsString(args[1]))
		}
		return nil, ExternalError("map.get: Expected map and key as arguments")
	})

	module.AddFn("get_index", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if m, ok := args[0].(*ValueMap); ok {
				if n, ok := args[1].(Number); ok {
					if n < 0 {
						return nil, ExternalError("map.get_index: Negative indices aren't allowed")
					}
					if entry, found := m.GetIndex(int(n)); found {
						return NewTuple([]Value{entry.Key, entry.Value}), nil
					}
					return Empty{}, nil
				}
			}
		}
		return nil, ExternalError("map.get_index: Expected map and index as arguments")
	})

	module.AddFn("help", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) >= 1 {
			if m, ok := args[0].(*ValueMap); ok {
				if len(args) == 2 {
					if name, ok := args[1].(Str); ok {
						if helpValue, found := m.Meta(MetaHelp); found {
							if helpMap, ok := helpValue.(*ValueMap); ok {
								if entry, found := helpMap.Get(name); found {
									return entry, nil
								}
							}
						}
						return Str("Help not found for '" + string(name) + "'"), nil
					}
				} else {
					if selfHelp, found := m.Meta(MetaSelfHelp); found {
						return selfHelp, nil
					}
					return Str("map.help: No help found"), nil
				}
			}
		}
		return nil, ExternalError("map.help: Expected map and string as arguments")
	})

	module.AddFn("insert", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) >= 2 {
			m, ok := args[0].(*ValueMap)
			if !ok || !IsImmutable(args[1]) {
				return nil, ExternalError(
					"map.insert: Expected map and key as arguments, found '%s' and '%s'",
					TypeAsString(args[0]), TypeAsString(args[1]))
			}
			var value Value = Empty{}
			if len(args) == 3 {
				value = args[2]
			}
			if old, replaced := m.Insert(args[1], value); replaced {
				return old, nil
			}
			return Empty{}, nil
		}
		return nil, ExternalError("map.insert: Expected map and key as arguments")
	})

	module.AddFn("is_empty", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		m, err := expectMap(args, "map.is_empty: Expected map as argument")
		if err != nil {
			return nil, err
		}
		return Bool(m.IsEmpty()), nil
	})

	module.AddFn("iter", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		m, err := expectMap(args, "map.iter: Expected map as argument")
		if err != nil {
			return nil, err
		}
		return IteratorWithMap(m), nil
	})

	module.AddFn("keys", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		m, err := expectMap(args, "map.keys: Expected map as argument")
		if err != nil {
			return nil, err
		}
		return NewValueListWithData(m.Keys()), nil
	})

	module.AddFn("remove", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if m, ok := args[0].(*ValueMap); ok {
				if removed, found := m.Remove(args[1]); found {
					return removed, nil
				}
				return Empty{}, nil
			}
		}
		return nil, ExternalError("map.remove: Expected map and key as arguments")
	})

	module.AddFn("size", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		m, err := expectMap(args, "map.size: Expected map as argument")
		if err != nil {
			return nil, err
		}
		return Number(m.Len()), nil
	})

	module.AddFn("sort_keys", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		m, err := expectMap(args, "map.sort_keys: Expected map as argument")
		if err != nil {
			return nil, err
		}
		m.SortKeys()
		return Empty{}, nil
	})

	module.AddFn("sort_by", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if m, ok := args[0].(*ValueMap); ok {
				var callbackErr error
				m.SortBy(func(a, b MapEntry) bool {
					if callbackErr != nil {
						return false
					}
					result, err := vm.RunFunction(args[1], []Value{
						NewTuple([]Value{a.Key, a.Value}),
						NewTuple([]Value{b.Key, b.Value}),
					})
					if err != nil {
						callbackErr = err
						return false
					}
					less, ok := result.(Bool)
					if !ok {
						callbackErr = ExternalError(
							"map.sort_by expects a Bool to be returned from the comparison, found '%s'",
							TypeAsString(result))
						return false
					}
					return bool(less)
				})
				if callbackErr != nil {
					return nil, callbackErr
				}
				return Empty{}, nil
			}
		}
		return nil, ExternalError("map.sort_by: Expected map and function as arguments")
	})

	module.AddFn("update", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 4 {
			if m, ok := args[0].(*ValueMap); ok && IsImmutable(args[1]) {
				return m.Update(args[1], args[2], func(current Value) (Value, error) {
					return vm.RunFunction(args[3], []Value{current})
				})
			}
		}
		return nil, ExternalError(
			"map.update: Expected map, key, default, and function as arguments")
	})

	module.AddFn("values", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		m, err := expectMap(args, "map.values: Expected map as argument")
		if err != nil {
			return nil, err
		}
		return NewValueListWithData(m.Values()), nil
	})

	return module
}
