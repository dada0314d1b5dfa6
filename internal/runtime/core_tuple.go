package runtime

func makeTupleModule() *ValueMap {
	module := NewValueMap()

	module.AddFn("contains", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if t, ok := args[0].(*Tuple); ok {
				for _, element := range t.Data() {
					if ValuesEqual(element, args[1]) {
						return Bool(true), nil
					}
				}
				return Bool(false), nil
			}
		}
		return nil, ExternalError("tuple.contains: Expected tuple and value as arguments")
	})

	module.AddFn("get", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if t, ok := args[0].(*Tuple); ok {
				if n, ok := args[1].(Number); ok {
					if n < 0 {
						return nil, ExternalError("tuple.get: Negative indices aren't allowed")
					}
					return t.Get(int(n)), nil
				}
			}
		}
		return nil, ExternalError("tuple.get: Expected tuple and number as arguments")
	})

	module.AddFn("iter", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if t, ok := args[0].(*Tuple); ok {
				return IteratorWithTuple(t), nil
			}
		}
		return nil, ExternalError("tuple.iter: Expected tuple as argument")
	})

	module.AddFn("size", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if t, ok := args[0].(*Tuple); ok {
				return Number(t.Len()), nil
			}
		}
		return nil, ExternalError("tuple.size: Expected tuple as argument")
	})

	module.AddFn("to_list", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if t, ok := args[0].(*Tuple); ok {
				return NewValueListFromSlice(t.Data()), nil
			}
		}
		return nil, ExternalError("tuple.to_list: Expected tuple as argument")
	})

	return module
}
