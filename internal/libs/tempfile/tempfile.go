// Package tempfile provides the `tempfile` host module. Temporary files are
// deleted when their wrapper is released; a finalizer covers wrappers that
// scripts drop without closing. Release errors are swallowed.
package tempfile

import (
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/spbots/koto/internal/runtime"
)

type tempFile struct {
	handle *os.File
	path   string
}

// MakeModule builds the tempfile module
func MakeModule() *runtime.ValueMap {
	module := runtime.NewValueMap()

	module.AddFn("temp_path", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		path := filepath.Join(os.TempDir(), "koto-"+uuid.NewString())
		return runtime.Str(path), nil
	})

	module.AddFn("temp_file", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		handle, err := os.CreateTemp("", "koto-*")
		if err != nil {
			return nil, runtime.ExternalError("tempfile.temp_file: %v", err)
		}
		f := &tempFile{handle: handle, path: handle.Name()}

		meta := runtime.NewValueMap()
		meta.AddFn("path", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
			return runtime.Str(f.path), nil
		})
		meta.AddFn("write_line", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
			args := vm.GetArgs(argBase, argCount)
			if len(args) == 2 {
				if line, ok := args[1].(runtime.Str); ok {
					if _, err := fmt.Fprintln(f.handle, string(line)); err != nil {
						return nil, runtime.ExternalError("file.write_line: %v", err)
					}
					return runtime.Empty{}, nil
				}
			}
			return nil, runtime.ExternalError("file.write_line: Expected string as argument")
		})
		meta.AddFn("read_to_string", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
			if _, err := f.handle.Seek(0, 0); err != nil {
				return nil, runtime.ExternalError("file.read_to_string: %v", err)
			}
			contents, err := os.ReadFile(f.path)
			if err != nil {
				return nil, runtime.ExternalError("file.read_to_string: %v", err)
			}
			return runtime.Str(strings.TrimSuffix(string(contents), "\n")), nil
		})

		value := runtime.NewExternalValue("TempFile", f, meta)
		value.SetRelease(func() {
			f.handle.Close()
			os.Remove(f.path)
		})
		meta.AddFn("close", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
			value.Release()
			return runtime.Empty{}, nil
		})
		goruntime.SetFinalizer(value, func(v *runtime.ExternalValue) {
			v.Release()
		})

		return value, nil
	})

	return module
}
