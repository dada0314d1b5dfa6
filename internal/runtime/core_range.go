package runtime

import "math"

func makeRangeModule() *ValueMap {
	module := NewValueMap()

	module.AddFn("contains", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if r, ok := args[0].(Range); ok {
				if n, ok := args[1].(Number); ok {
					contained := float64(n) >= float64(r.Start) &&
						math.Ceil(float64(n)) < float64(r.End)
					return Bool(contained), nil
				}
			}
		}
		return nil, ExternalError("range.contains: Expected range and number as arguments")
	})

	module.AddFn("end", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if r, ok := args[0].(Range); ok {
				return Number(r.End), nil
			}
		}
		return nil, ExternalError("range.end: Expected range as argument")
	})

	module.AddFn("iter", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if r, ok := args[0].(Range); ok {
				return IteratorWithRange(r), nil
			}
		}
		return nil, ExternalError("range.iter: Expected range as argument")
	})

	module.AddFn("size", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if r, ok := args[0].(Range); ok {
				return Number(r.End - r.Start), nil
			}
		}
		return nil, ExternalError("range.size: Expected range as argument")
	})

	module.AddFn("start", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if r, ok := args[0].(Range); ok {
				return Number(r.Start), nil
			}
		}
		return nil, ExternalError("range.start: Expected range as argument")
	})

	return module
}
