package runtime

func makeNum2Module() *ValueMap {
	module := NewValueMap()

	module.AddFn("make", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		var result Num2
		switch len(args) {
		case 1:
			if n, ok := args[0].(Number); ok {
				result = Num2{float64(n), float64(n)}
				return result, nil
			}
		case 2:
			a, aOk := args[0].(Number)
			b, bOk := args[1].(Number)
			if aOk && bOk {
				return Num2{float64(a), float64(b)}, nil
			}
		}
		return nil, ExternalError("num2.make: Expected one or two numbers as arguments")
	})

	module.AddFn("sum", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if n, ok := args[0].(Num2); ok {
				return Number(n[0] + n[1]), nil
			}
		}
		return nil, ExternalError("num2.sum: Expected num2 as argument")
	})

	module.AddFn("get", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if n, ok := args[0].(Num2); ok {
				if i, ok := args[1].(Number); ok && i >= 0 && int(i) < 2 {
					return Number(n[int(i)]), nil
				}
			}
		}
		return nil, ExternalError("num2.get: Expected num2 and index as arguments")
	})

	return module
}

func makeNum4Module() *ValueMap {
	module := NewValueMap()

	module.AddFn("make", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		var result Num4
		if len(args) == 1 {
			if n, ok := args[0].(Number); ok {
				f := float64(n)
				return Num4{f, f, f, f}, nil
			}
		}
		if len(args) >= 2 && len(args) <= 4 {
			for i, arg := range args {
				n, ok := arg.(Number)
				if !ok {
					return nil, ExternalError("num4.make: Expected numbers as arguments")
				}
				result[i] = float64(n)
			}
			return result, nil
		}
		return nil, ExternalError("num4.make: Expected one to four numbers as arguments")
	})

	module.AddFn("sum", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if n, ok := args[0].(Num4); ok {
				return Number(n[0] + n[1] + n[2] + n[3]), nil
			}
		}
		return nil, ExternalError("num4.sum: Expected num4 as argument")
	})

	module.AddFn("get", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if n, ok := args[0].(Num4); ok {
				if i, ok := args[1].(Number); ok && i >= 0 && int(i) < 4 {
					return Number(n[int(i)]), nil
				}
			}
		}
		return nil, ExternalError("num4.get: Expected num4 and index as arguments")
	})

	return module
}
