package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Option is a single select/checkbox choice. Stored forms may carry either a
// bare string or a {value,label} object; Option accepts both and writes back
// the shape it was read from.
type Option struct {
	Value string
	Label string
	// Bare marks options that serialise as a plain string.
	Bare bool
}

// StringOption builds a bare option whose value doubles as its label.
func StringOption(value string) Option {
	return Option{Value: value, Label: value, Bare: true}
}

// LabeledOption builds a {value,label} option.
func LabeledOption(value, label string) Option {
	return Option{Value: value, Label: label}
}

type optionObject struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// MarshalJSON implements json.Marshaler.
func (o Option) MarshalJSON() ([]byte, error) {
	if o.Bare {
		return json.Marshal(o.Value)
	}
	return json.Marshal(optionObject{Value: o.Value, Label: o.Label})
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Option) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*o = Option{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*o = StringOption(value)
		return nil
	case '{':
		var obj struct {
			Value json.RawMessage `json:"value"`
			Label string          `json:"label"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		value, err := scalarString(obj.Value)
		if err != nil {
			return fmt.Errorf("model: option value: %w", err)
		}
		label := obj.Label
		if label == "" {
			label = value
		}
		*o = Option{Value: value, Label: label}
		return nil
	default:
		value, err := scalarString(trimmed)
		if err != nil {
			return fmt.Errorf("model: option: %w", err)
		}
		*o = StringOption(value)
		return nil
	}
}

// MarshalYAML implements yaml.Marshaler.
func (o Option) MarshalYAML() (any, error) {
	if o.Bare {
		return o.Value, nil
	}
	return optionObject{Value: o.Value, Label: o.Label}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*o = StringOption(node.Value)
		return nil
	case yaml.MappingNode:
		var obj optionObject
		if err := node.Decode(&obj); err != nil {
			return err
		}
		if obj.Label == "" {
			obj.Label = obj.Value
		}
		*o = Option{Value: obj.Value, Label: obj.Label}
		return nil
	default:
		return fmt.Errorf("model: option at line %d must be a string or mapping", node.Line)
	}
}

// scalarString renders JSON strings, numbers and booleans as strings.
func scalarString(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return "", err
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("unsupported option value %s", string(trimmed))
	}
}
