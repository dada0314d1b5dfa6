package runtime

import "math"

func makeNumberModule() *ValueMap {
	module := NewValueMap()

	unary := func(name string, f func(float64) float64) {
		module.AddFn(name, func(vm *VM, argBase, argCount int) (Value, error) {
			args := vm.GetArgs(argBase, argCount)
			if len(args) == 1 {
				if n, ok := args[0].(Number); ok {
					return Number(f(float64(n))), nil
				}
			}
			return nil, ExternalError("number.%s: Expected number as argument", name)
		})
	}

	binary := func(name string, f func(a, b float64) float64) {
		module.AddFn(name, func(vm *VM, argBase, argCount int) (Value, error) {
			args := vm.GetArgs(argBase, argCount)
			if len(args) == 2 {
				if a, ok := args[0].(Number); ok {
					if b, ok := args[1].(Number); ok {
						return Number(f(float64(a), float64(b))), nil
					}
				}
			}
			return nil, ExternalError("number.%s: Expected two numbers as arguments", name)
		})
	}

	unary("abs", math.Abs)
	unary("ceil", math.Ceil)
	unary("floor", math.Floor)
	unary("round", math.Round)
	unary("sqrt", math.Sqrt)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("ln", math.Log)
	unary("log10", math.Log10)

	binary("max", math.Max)
	binary("min", math.Min)
	binary("pow", math.Pow)

	module.AddFn("is_nan", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if n, ok := args[0].(Number); ok {
				return Bool(math.IsNaN(float64(n))), nil
			}
		}
		return nil, ExternalError("number.is_nan: Expected number as argument")
	})

	module.AddValue("pi", Number(math.Pi))
	module.AddValue("e", Number(math.E))
	module.AddValue("tau", Number(2*math.Pi))
	module.AddValue("infinity", Number(math.Inf(1)))

	return module
}
