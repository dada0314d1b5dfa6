package runtime

type threadResult struct {
	value Value
	err   error
}

// makeThreadModule builds the `thread` module. Each created thread runs an
// independent VM with a deep-copied prelude; values cross the boundary only
// as deep copies, so no mutable state is shared between VMs.
func makeThreadModule() *ValueMap {
	module := NewValueMap()

	module.AddFn("create", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) != 1 {
			return nil, ExternalError("thread.create: Expected function as argument")
		}

		var fn Value
		switch f := args[0].(type) {
		case *RuntimeFunction:
			copied := *f
			copied.Captures = DeepCopy(f.Captures).(*ValueList)
			fn = &copied
		case *ExternalFunction:
			fn = f
		default:
			return nil, ExternalError("thread.create: Expected function as argument, found '%s'",
				TypeAsString(args[0]))
		}

		preludeCopy := DeepCopy(vm.Prelude()).(*ValueMap)
		results := make(chan threadResult, 1)

		go func() {
			child := NewWithPrelude(preludeCopy)
			child.SetOutput(vm.Output())
			if vm.ctx != nil {
				child.SetContext(vm.ctx)
			}
			value, err := child.RunFunction(fn, nil)
			results <- threadResult{value: value, err: err}
		}()

		meta := NewValueMap()
		meta.AddFn("join", func(vm *VM, argBase, argCount int) (Value, error) {
			result := <-results
			if result.err != nil {
				return nil, ExternalError("thread.join: %v", result.err)
			}
			if result.value == nil {
				return Empty{}, nil
			}
			return DeepCopy(result.value), nil
		})

		return NewExternalValue("Thread", results, meta), nil
	})

	module.AddFn("sleep", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if seconds, ok := args[0].(Number); ok && seconds >= 0 {
				sleepSeconds(float64(seconds))
				return Empty{}, nil
			}
		}
		return nil, ExternalError("thread.sleep: Expected non-negative number as argument")
	})

	return module
}
