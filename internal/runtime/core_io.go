package runtime

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// file is the payload of a File external value. When temporary is set, the
// file is deleted when the value is released; release errors are swallowed.
type file struct {
	handle    *os.File
	path      string
	temporary bool
}

func makeFileValue(handle *os.File, path string, temporary bool) *ExternalValue {
	f := &file{handle: handle, path: path, temporary: temporary}

	meta := NewValueMap()
	meta.AddFn("path", func(vm *VM, argBase, argCount int) (Value, error) {
		return Str(f.path), nil
	})
	meta.AddFn("write_line", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if line, ok := args[1].(Str); ok {
				if _, err := fmt.Fprintln(f.handle, string(line)); err != nil {
					return nil, ExternalError("file.write_line: %v", err)
				}
				return Empty{}, nil
			}
		}
		return nil, ExternalError("file.write_line: Expected string as argument")
	})
	meta.AddFn("read_to_string", func(vm *VM, argBase, argCount int) (Value, error) {
		if _, err := f.handle.Seek(0, 0); err != nil {
			return nil, ExternalError("file.read_to_string: %v", err)
		}
		var sb strings.Builder
		scanner := bufio.NewScanner(f.handle)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		first := true
		for scanner.Scan() {
			if !first {
				sb.WriteByte('\n')
			}
			first = false
			sb.WriteString(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, ExternalError("file.read_to_string: %v", err)
		}
		return Str(sb.String()), nil
	})

	value := NewExternalValue("File", f, meta)
	value.SetRelease(func() {
		f.handle.Close()
		if f.temporary {
			os.Remove(f.path)
		}
	})

	meta.AddFn("close", func(vm *VM, argBase, argCount int) (Value, error) {
		value.Release()
		return Empty{}, nil
	})

	return value
}

func makeIoModule() *ValueMap {
	module := NewValueMap()

	module.AddFn("print", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		parts := make([]string, len(args))
		for i, arg := range args {
			parts[i] = arg.String()
		}
		fmt.Fprintln(vm.Output(), strings.Join(parts, " "))
		return Empty{}, nil
	})

	module.AddFn("exists", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if path, ok := args[0].(Str); ok {
				_, err := os.Stat(string(path))
				return Bool(err == nil), nil
			}
		}
		return nil, ExternalError("io.exists: Expected path string as argument")
	})

	module.AddFn("read_to_string", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if path, ok := args[0].(Str); ok {
				contents, err := os.ReadFile(string(path))
				if err != nil {
					return nil, ExternalError("io.read_to_string: Unable to read file '%s'", path)
				}
				return Str(contents), nil
			}
		}
		return nil, ExternalError("io.read_to_string: Expected path string as argument")
	})

	module.AddFn("create", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if path, ok := args[0].(Str); ok {
				handle, err := os.Create(string(path))
				if err != nil {
					return nil, ExternalError("io.create: Error while creating file: %v", err)
				}
				return makeFileValue(handle, string(path), false), nil
			}
		}
		return nil, ExternalError("io.create: Expected path string as argument")
	})

	module.AddFn("open", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if path, ok := args[0].(Str); ok {
				handle, err := os.Open(string(path))
				if err != nil {
					return nil, ExternalError("io.open: Failed to open '%s'", path)
				}
				return makeFileValue(handle, string(path), false), nil
			}
		}
		return nil, ExternalError("io.open: Expected path string as argument")
	})

	module.AddFn("remove_file", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if path, ok := args[0].(Str); ok {
				if err := os.Remove(string(path)); err != nil {
					return nil, ExternalError("io.remove_file: Error while removing file '%s'", path)
				}
				return Empty{}, nil
			}
		}
		return nil, ExternalError("io.remove_file: Expected path string as argument")
	})

	module.AddFn("temp_dir", func(vm *VM, argBase, argCount int) (Value, error) {
		return Str(os.TempDir()), nil
	})

	return module
}
