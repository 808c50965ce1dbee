package dates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Field is a single key/value entry of a record's data
type Field struct {
	Key   string
	Value any
}

// Data is an ordered mapping from string keys to displayable values.
//
// Keys iterate the way a browser lists object keys: canonical array-index
// keys ("0", "1", ...) first in ascending order, then every other key in the
// order it was first set.
type Data struct {
	fields []Field
}

// NewData builds Data from fields, applying Set for each one in turn
func NewData(fields ...Field) Data {
	var d Data
	for _, f := range fields {
		d.Set(f.Key, f.Value)
	}
	return d
}

// Len returns the number of keys
func (d Data) Len() int {
	return len(d.fields)
}

// Fields returns a copy of the entries in iteration order
func (d Data) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// Keys returns the keys in iteration order
func (d Data) Keys() []string {
	keys := make([]string, len(d.fields))
	for i, f := range d.fields {
		keys[i] = f.Key
	}
	return keys
}

// Get returns the value stored under key
func (d Data) Get(key string) (any, bool) {
	for _, f := range d.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Set stores value under key. An existing key keeps its position.
func (d *Data) Set(key string, value any) {
	for i := range d.fields {
		if d.fields[i].Key == key {
			d.fields[i].Value = value
			return
		}
	}

	idx, ok := arrayIndex(key)
	if !ok {
		d.fields = append(d.fields, Field{Key: key, Value: value})
		return
	}

	pos := len(d.fields)
	for i, f := range d.fields {
		other, isIndex := arrayIndex(f.Key)
		if !isIndex || other > idx {
			pos = i
			break
		}
	}
	d.fields = append(d.fields, Field{})
	copy(d.fields[pos+1:], d.fields[pos:])
	d.fields[pos] = Field{Key: key, Value: value}
}

// arrayIndex reports whether key is a canonical array index (0 .. 2^32-2)
func arrayIndex(key string) (uint64, bool) {
	if key == "" || len(key) > 10 {
		return 0, false
	}
	if len(key) > 1 && key[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(key, 10, 64)
	if err != nil || n >= 1<<32-1 {
		return 0, false
	}
	return n, true
}

// UnmarshalJSON decodes a JSON object keeping key order. null yields empty Data.
func (d *Data) UnmarshalJSON(b []byte) error {
	d.fields = nil

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("data: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("data: expected key, got %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("data: decode %q: %w", key, err)
		}
		d.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes Data as a JSON object in iteration order
func (d Data) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("data: encode %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalYAML decodes a YAML mapping keeping key order
func (d *Data) UnmarshalYAML(node *yaml.Node) error {
	d.fields = nil

	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("data: expected mapping at line %d", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		var value any
		if err := valueNode.Decode(&value); err != nil {
			return fmt.Errorf("data: decode %q: %w", keyNode.Value, err)
		}
		d.Set(keyNode.Value, stringKeys(value))
	}
	return nil
}

// stringKeys rewrites nested YAML mappings so every key is a string, the
// way object keys are on the JSON side
func stringKeys(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[DisplayText(k)] = stringKeys(e)
		}
		return out
	case map[string]any:
		for k, e := range val {
			val[k] = stringKeys(e)
		}
		return val
	case []any:
		for i, e := range val {
			val[i] = stringKeys(e)
		}
		return val
	}
	return v
}

// MarshalYAML encodes Data as a YAML mapping in iteration order
func (d Data) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range d.fields {
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(yamlValue(f.Value)); err != nil {
			return nil, fmt.Errorf("data: encode %q: %w", f.Key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
			valueNode,
		)
	}
	return node, nil
}

// yamlValue turns json.Number into a native number so YAML does not quote it
func yamlValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = yamlValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = yamlValue(e)
		}
		return out
	}
	return v
}
