// Package random provides the `random` host module
package random

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/spbots/koto/internal/runtime"
)

// MakeModule builds the random module. The generator state is local to the
// module, so independent VMs with their own preludes don't share it.
func MakeModule() *runtime.ValueMap {
	module := runtime.NewValueMap()
	generator := rand.New(rand.NewSource(rand.Int63()))

	module.AddFn("seed", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if n, ok := args[0].(runtime.Number); ok {
				generator = rand.New(rand.NewSource(int64(n)))
				return runtime.Empty{}, nil
			}
		}
		return nil, runtime.ExternalError("random.seed: Expected number as argument")
	})

	module.AddFn("number", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		return runtime.Number(generator.Float64()), nil
	})

	module.AddFn("bool", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		return runtime.Bool(generator.Intn(2) == 1), nil
	})

	module.AddFn("pick", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			switch container := args[0].(type) {
			case *runtime.ValueList:
				if container.IsEmpty() {
					return runtime.Empty{}, nil
				}
				value, _ := container.Get(generator.Intn(container.Len()))
				return value, nil
			case *runtime.Tuple:
				if container.Len() == 0 {
					return runtime.Empty{}, nil
				}
				return container.Get(generator.Intn(container.Len())), nil
			case runtime.Range:
				size := container.Size()
				if size <= 0 {
					return runtime.Empty{}, nil
				}
				return runtime.Number(container.Start + generator.Int63n(size)), nil
			}
		}
		return nil, runtime.ExternalError("random.pick: Expected list, tuple, or range as argument")
	})

	module.AddFn("shuffle", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if list, ok := args[0].(*runtime.ValueList); ok {
				data := list.Data()
				generator.Shuffle(len(data), func(i, j int) {
					data[i], data[j] = data[j], data[i]
				})
				return runtime.Empty{}, nil
			}
		}
		return nil, runtime.ExternalError("random.shuffle: Expected list as argument")
	})

	module.AddFn("uuid", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		return runtime.Str(uuid.NewString()), nil
	})

	return module
}
