// Package json provides the `json` host module: conversion between JSON
// documents and runtime values. Object member order is preserved by
// decoding through the token stream rather than into Go maps.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spbots/koto/internal/runtime"
)

func decodeValue(dec *json.Decoder) (runtime.Value, error) {
	token, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := token.(type) {
	case nil:
		return runtime.Empty{}, nil
	case bool:
		return runtime.Bool(t), nil
	case float64:
		return runtime.Number(t), nil
	case string:
		return runtime.Str(t), nil
	case json.Delim:
		switch t {
		case '[':
			list := runtime.NewValueList(0)
			for dec.More() {
				element, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list.Push(element)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		case '{':
			result := runtime.NewValueMap()
			for dec.More() {
				keyToken, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyToken.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyToken)
				}
				value, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				result.Insert(runtime.Str(key), value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return result, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", token)
}

func encodeValue(buffer *bytes.Buffer, v runtime.Value) error {
	switch value := v.(type) {
	case runtime.Empty:
		buffer.WriteString("null")
	case runtime.Bool:
		fmt.Fprintf(buffer, "%t", bool(value))
	case runtime.Number:
		fmt.Fprintf(buffer, "%g", float64(value))
	case runtime.Str:
		encoded, err := json.Marshal(string(value))
		if err != nil {
			return err
		}
		buffer.Write(encoded)
	case *runtime.ValueList:
		buffer.WriteByte('[')
		for i, element := range value.Data() {
			if i > 0 {
				buffer.WriteByte(',')
			}
			if err := encodeValue(buffer, element); err != nil {
				return err
			}
		}
		buffer.WriteByte(']')
	case *runtime.Tuple:
		buffer.WriteByte('[')
		for i, element := range value.Data() {
			if i > 0 {
				buffer.WriteByte(',')
			}
			if err := encodeValue(buffer, element); err != nil {
				return err
			}
		}
		buffer.WriteByte(']')
	case *runtime.ValueMap:
		buffer.WriteByte('{')
		for i, entry := range value.Entries() {
			if i > 0 {
				buffer.WriteByte(',')
			}
			key, ok := entry.Key.(runtime.Str)
			if !ok {
				return fmt.Errorf("unable to serialize '%s' as an object key",
					runtime.TypeAsString(entry.Key))
			}
			encoded, err := json.Marshal(string(key))
			if err != nil {
				return err
			}
			buffer.Write(encoded)
			buffer.WriteByte(':')
			if err := encodeValue(buffer, entry.Value); err != nil {
				return err
			}
		}
		buffer.WriteByte('}')
	default:
		return fmt.Errorf("unable to serialize '%s'", runtime.TypeAsString(v))
	}
	return nil
}

// MakeModule builds the json module
func MakeModule() *runtime.ValueMap {
	module := runtime.NewValueMap()

	module.AddFn("from_string", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if s, ok := args[0].(runtime.Str); ok {
				dec := json.NewDecoder(strings.NewReader(string(s)))
				value, err := decodeValue(dec)
				if err != nil {
					return nil, runtime.ExternalError(
						"json.from_string: Error while parsing input: %v", err)
				}
				return value, nil
			}
		}
		return nil, runtime.ExternalError("json.from_string expects a string as argument")
	})

	module.AddFn("to_string", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			var buffer bytes.Buffer
			if err := encodeValue(&buffer, args[0]); err != nil {
				return nil, runtime.ExternalError(
					"json.to_string: Unable to format '%s' as JSON: %v",
					runtime.TypeAsString(args[0]), err)
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, buffer.Bytes(), "", "  "); err != nil {
				return runtime.Str(buffer.String()), nil
			}
			return runtime.Str(pretty.String()), nil
		}
		return nil, runtime.ExternalError("json.to_string expects a single value as argument")
	})

	return module
}
