package runtime

import "time"

func sleepSeconds(seconds float64) {
	time.Sleep(time.Duration(seconds * float64(time.Second)))
}

// makeKotoModule builds the `koto` module: reflection helpers and script
// metadata. The embedder fills in script_dir, script_path and args before
// running a script.
func makeKotoModule() *ValueMap {
	module := NewValueMap()

	module.AddFn("type", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			return Str(TypeAsString(args[0])), nil
		}
		return nil, ExternalError("koto.type: Expected single value as argument")
	})

	module.AddValue("script_dir", Empty{})
	module.AddValue("script_path", Empty{})
	module.AddValue("args", NewValueList(0))

	return module
}
