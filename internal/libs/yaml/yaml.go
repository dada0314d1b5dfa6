// Package yaml provides the `yaml` host module. Decoding goes through
// yaml.Node so mapping entries keep the document's order.
package yaml

import (
	"fmt"
	"strconv"

	goyaml "gopkg.in/yaml.v3"

	"github.com/spbots/koto/internal/runtime"
)

func nodeToValue(node *goyaml.Node) (runtime.Value, error) {
	switch node.Kind {
	case goyaml.DocumentNode:
		if len(node.Content) == 0 {
			return runtime.Empty{}, nil
		}
		return nodeToValue(node.Content[0])
	case goyaml.SequenceNode:
		list := runtime.NewValueList(len(node.Content))
		for _, child := range node.Content {
			value, err := nodeToValue(child)
			if err != nil {
				return nil, err
			}
			list.Push(value)
		}
		return list, nil
	case goyaml.MappingNode:
		result := runtime.NewValueMapWithCapacity(len(node.Content) / 2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, err := nodeToValue(node.Content[i])
			if err != nil {
				return nil, err
			}
			if !runtime.IsImmutable(key) {
				return nil, fmt.Errorf("unsupported mapping key at line %d", node.Content[i].Line)
			}
			value, err := nodeToValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			result.Insert(key, value)
		}
		return result, nil
	case goyaml.ScalarNode:
		switch node.Tag {
		case "!!null":
			return runtime.Empty{}, nil
		case "!!bool":
			return runtime.Bool(node.Value == "true" || node.Value == "True"), nil
		case "!!int", "!!float":
			n, err := strconv.ParseFloat(node.Value, 64)
			if err != nil {
				return nil, err
			}
			return runtime.Number(n), nil
		default:
			return runtime.Str(node.Value), nil
		}
	case goyaml.AliasNode:
		return nodeToValue(node.Alias)
	}
	return nil, fmt.Errorf("unsupported YAML node kind %d", node.Kind)
}

func valueToNode(v runtime.Value) (*goyaml.Node, error) {
	switch value := v.(type) {
	case runtime.Empty:
		return &goyaml.Node{Kind: goyaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case runtime.Bool:
		return &goyaml.Node{Kind: goyaml.ScalarNode, Tag: "!!bool", Value: value.String()}, nil
	case runtime.Number:
		return &goyaml.Node{
			Kind:  goyaml.ScalarNode,
			Tag:   "!!float",
			Value: strconv.FormatFloat(float64(value), 'g', -1, 64),
		}, nil
	case runtime.Str:
		return &goyaml.Node{Kind: goyaml.ScalarNode, Tag: "!!str", Value: string(value)}, nil
	case *runtime.ValueList:
		node := &goyaml.Node{Kind: goyaml.SequenceNode}
		for _, element := range value.Data() {
			child, err := valueToNode(element)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case *runtime.Tuple:
		node := &goyaml.Node{Kind: goyaml.SequenceNode}
		for _, element := range value.Data() {
			child, err := valueToNode(element)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case *runtime.ValueMap:
		node := &goyaml.Node{Kind: goyaml.MappingNode}
		for _, entry := range value.Entries() {
			key, err := valueToNode(entry.Key)
			if err != nil {
				return nil, err
			}
			child, err := valueToNode(entry.Value)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, key, child)
		}
		return node, nil
	default:
		return nil, fmt.Errorf("unable to serialize '%s'", runtime.TypeAsString(v))
	}
}

// MakeModule builds the yaml module
func MakeModule() *runtime.ValueMap {
	module := runtime.NewValueMap()

	module.AddFn("from_string", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if s, ok := args[0].(runtime.Str); ok {
				var node goyaml.Node
				if err := goyaml.Unmarshal([]byte(string(s)), &node); err != nil {
					return nil, runtime.ExternalError(
						"yaml.from_string: Error while parsing input: %v", err)
				}
				value, err := nodeToValue(&node)
				if err != nil {
					return nil, runtime.ExternalError(
						"yaml.from_string: Error while parsing input: %v", err)
				}
				return value, nil
			}
		}
		return nil, runtime.ExternalError("yaml.from_string expects a string as argument")
	})

	module.AddFn("to_string", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			node, err := valueToNode(args[0])
			if err != nil {
				return nil, runtime.ExternalError(
					"yaml.to_string: Unable to format '%s' as YAML: %v",
					runtime.TypeAsString(args[0]), err)
			}
			out, err := goyaml.Marshal(node)
			if err != nil {
				return nil, runtime.ExternalError("yaml.to_string: %v", err)
			}
			return runtime.Str(out), nil
		}
		return nil, runtime.ExternalError("yaml.to_string expects a single value as argument")
	})

	return module
}
