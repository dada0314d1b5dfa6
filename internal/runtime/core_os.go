package runtime

import (
	goruntime "runtime"
	"time"
)

func makeOsModule() *ValueMap {
	module := NewValueMap()

	module.AddFn("name", func(vm *VM, argBase, argCount int) (Value, error) {
		return Str(goruntime.GOOS), nil
	})

	module.AddFn("cpu_count", func(vm *VM, argBase, argCount int) (Value, error) {
		return Number(goruntime.NumCPU()), nil
	})

	module.AddFn("time", func(vm *VM, argBase, argCount int) (Value, error) {
		return Number(float64(time.Now().UnixNano()) / 1e9), nil
	})

	return module
}
