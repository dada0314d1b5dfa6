package runtime

import (
	"strconv"
	"strings"
)

func makeStringModule() *ValueMap {
	module := NewValueMap()

	expectStr := func(args []Value, message string) (Str, error) {
		if len(args) >= 1 {
			if s, ok := args[0].(Str); ok {
				return s, nil
			}
		}
		return "", ExternalError("%s", message)
	}

	module.AddFn("contains", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if s, ok := args[0].(Str); ok {
				if sub, ok := args[1].(Str); ok {
					return Bool(strings.Contains(string(s), string(sub))), nil
				}
			}
		}
		return nil, ExternalError("string.contains: Expected two strings as arguments")
	})

	module.AddFn("ends_with", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if s, ok := args[0].(Str); ok {
				if suffix, ok := args[1].(Str); ok {
					return Bool(strings.HasSuffix(string(s), string(suffix))), nil
				}
			}
		}
		return nil, ExternalError("string.ends_with: Expected two strings as arguments")
	})

	module.AddFn("escape", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		s, err := expectStr(args, "string.escape: Expected string as argument")
		if err != nil {
			return nil, err
		}
		quoted := strconv.Quote(string(s))
		return Str(quoted[1 : len(quoted)-1]), nil
	})

	module.AddFn("is_empty", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		s, err := expectStr(args, "string.is_empty: Expected string as argument")
		if err != nil {
			return nil, err
		}
		return Bool(len(s) == 0), nil
	})

	module.AddFn("iter", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		s, err := expectStr(args, "string.iter: Expected string as argument")
		if err != nil {
			return nil, err
		}
		return IteratorWithString(s), nil
	})

	module.AddFn("lines", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		s, err := expectStr(args, "string.lines: Expected string as argument")
		if err != nil {
			return nil, err
		}
		split := strings.Split(strings.TrimSuffix(string(s), "\n"), "\n")
		result := NewValueList(len(split))
		for _, line := range split {
			result.Push(Str(strings.TrimSuffix(line, "\r")))
		}
		return result, nil
	})

	module.AddFn("size", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		s, err := expectStr(args, "string.size: Expected string as argument")
		if err != nil {
			return nil, err
		}
		return Number(len([]rune(string(s)))), nil
	})

	module.AddFn("split", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if s, ok := args[0].(Str); ok {
				if separator, ok := args[1].(Str); ok {
					parts := strings.Split(string(s), string(separator))
					result := NewValueList(len(parts))
					for _, part := range parts {
						result.Push(Str(part))
					}
					return result, nil
				}
			}
		}
		return nil, ExternalError("string.split: Expected two strings as arguments")
	})

	module.AddFn("starts_with", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 2 {
			if s, ok := args[0].(Str); ok {
				if prefix, ok := args[1].(Str); ok {
					return Bool(strings.HasPrefix(string(s), string(prefix))), nil
				}
			}
		}
		return nil, ExternalError("string.starts_with: Expected two strings as arguments")
	})

	module.AddFn("to_lowercase", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		s, err := expectStr(args, "string.to_lowercase: Expected string as argument")
		if err != nil {
			return nil, err
		}
		return Str(strings.ToLower(string(s))), nil
	})

	module.AddFn("to_number", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		s, err := expectStr(args, "string.to_number: Expected string as argument")
		if err != nil {
			return nil, err
		}
		n, parseErr := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
		if parseErr != nil {
			return nil, ExternalError("string.to_number: Failed to convert '%s'", string(s))
		}
		return Number(n), nil
	})

	module.AddFn("to_uppercase", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		s, err := expectStr(args, "string.to_uppercase: Expected string as argument")
		if err != nil {
			return nil, err
		}
		return Str(strings.ToUpper(string(s))), nil
	})

	module.AddFn("trim", func(vm *VM, argBase, argCount int) (Value, error) {
		args := vm.GetArgs(argBase, argCount)
		s, err := expectStr(args, "string.trim: Expected string as argument")
		if err != nil {
			return nil, err
		}
		return Str(strings.TrimSpace(string(s))), nil
	})

	return module
}
