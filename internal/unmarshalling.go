package internal

import "gopkg.in/yaml.v3"

// List accepts either a single value or a sequence of values.
type List[T any] []T

func (value *List[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		var single T
		if err := node.Decode(&single); err != nil {
			return err
		}
		*value = []T{single}
		return nil
	}

	var many []T
	if err := node.Decode(&many); err != nil {
		return err
	}

	*value = many
	return nil
}
