// Package toml provides the `toml` host module
package toml

import (
	"bytes"
	"fmt"
	"sort"

	gotoml "github.com/BurntSushi/toml"

	"github.com/spbots/koto/internal/runtime"
)

func interfaceToValue(v interface{}) (runtime.Value, error) {
	switch value := v.(type) {
	case nil:
		return runtime.Empty{}, nil
	case bool:
		return runtime.Bool(value), nil
	case int64:
		return runtime.Number(value), nil
	case float64:
		return runtime.Number(value), nil
	case string:
		return runtime.Str(value), nil
	case []interface{}:
		list := runtime.NewValueList(len(value))
		for _, element := range value {
			converted, err := interfaceToValue(element)
			if err != nil {
				return nil, err
			}
			list.Push(converted)
		}
		return list, nil
	case map[string]interface{}:
		// TOML decoding goes through a Go map, so document order isn't
		// available; keys are sorted for deterministic results
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		result := runtime.NewValueMapWithCapacity(len(keys))
		for _, key := range keys {
			converted, err := interfaceToValue(value[key])
			if err != nil {
				return nil, err
			}
			result.Insert(runtime.Str(key), converted)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported TOML value %T", v)
	}
}

func valueToInterface(v runtime.Value) (interface{}, error) {
	switch value := v.(type) {
	case runtime.Empty:
		return nil, nil
	case runtime.Bool:
		return bool(value), nil
	case runtime.Number:
		return float64(value), nil
	case runtime.Str:
		return string(value), nil
	case *runtime.ValueList:
		result := make([]interface{}, 0, value.Len())
		for _, element := range value.Data() {
			converted, err := valueToInterface(element)
			if err != nil {
				return nil, err
			}
			result = append(result, converted)
		}
		return result, nil
	case *runtime.ValueMap:
		result := make(map[string]interface{}, value.Len())
		for _, entry := range value.Entries() {
			key, ok := entry.Key.(runtime.Str)
			if !ok {
				return nil, fmt.Errorf("unable to serialize '%s' as a table key",
					runtime.TypeAsString(entry.Key))
			}
			converted, err := valueToInterface(entry.Value)
			if err != nil {
				return nil, err
			}
			result[string(key)] = converted
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unable to serialize '%s'", runtime.TypeAsString(v))
	}
}

// MakeModule builds the toml module
func MakeModule() *runtime.ValueMap {
	module := runtime.NewValueMap()

	module.AddFn("from_string", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if s, ok := args[0].(runtime.Str); ok {
				var decoded map[string]interface{}
				if err := gotoml.Unmarshal([]byte(string(s)), &decoded); err != nil {
					return nil, runtime.ExternalError(
						"toml.from_string: Error while parsing input: %v", err)
				}
				return interfaceToValue(decoded)
			}
		}
		return nil, runtime.ExternalError("toml.from_string expects a string as argument")
	})

	module.AddFn("to_string", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			converted, err := valueToInterface(args[0])
			if err != nil {
				return nil, runtime.ExternalError(
					"toml.to_string: Unable to format '%s' as TOML: %v",
					runtime.TypeAsString(args[0]), err)
			}
			var buffer bytes.Buffer
			if err := gotoml.NewEncoder(&buffer).Encode(converted); err != nil {
				return nil, runtime.ExternalError("toml.to_string: %v", err)
			}
			return runtime.Str(buffer.String()), nil
		}
		return nil, runtime.ExternalError("toml.to_string expects a single value as argument")
	})

	return module
}
