// Package dates defines the date records published at /dates and their
// wire formats.
package dates

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrMalformed is returned when a /dates payload is not an array of records
var ErrMalformed = errors.New("malformed dates payload")

// ID identifies a record. It decodes from a JSON string or number.
type ID string

// String returns the display form of the ID
func (id ID) String() string {
	return string(id)
}

// Int returns the numeric value of the ID, if it has one
func (id ID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != string(id) {
		return 0, false
	}
	return n, true
}

// UnmarshalJSON accepts strings verbatim and any other scalar in display form
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*id = ID(DisplayText(v))
	return nil
}

// MarshalJSON writes integer IDs as numbers and everything else as strings
func (id ID) MarshalJSON() ([]byte, error) {
	if n, ok := id.Int(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalYAML reads the scalar text of the node
func (id *ID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("id: expected scalar at line %d", node.Line)
	}
	*id = ID(node.Value)
	return nil
}

// MarshalYAML writes integer IDs as numbers
func (id ID) MarshalYAML() (interface{}, error) {
	if n, ok := id.Int(); ok {
		return n, nil
	}
	return string(id), nil
}

// UndefinedID is what a record without an id displays as
const UndefinedID ID = "undefined"

// DateRecord is one entry of the /dates payload
type DateRecord struct {
	ID   ID   `json:"id" yaml:"id"`
	Data Data `json:"data" yaml:"data"`
}

// UnmarshalJSON decodes a record, leaving ID as UndefinedID when the
// object has no id key
func (r *DateRecord) UnmarshalJSON(b []byte) error {
	type plain DateRecord
	p := plain{ID: UndefinedID}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = DateRecord(p)
	return nil
}

// Decode reads a JSON array of records from r
func Decode(r io.Reader) ([]DateRecord, error) {
	dec := json.NewDecoder(r)

	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected array, got null", ErrMalformed)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after array", ErrMalformed)
	}

	records := make([]DateRecord, 0, len(raw))
	for i, msg := range raw {
		if string(bytes.TrimSpace(msg)) == "null" {
			return nil, fmt.Errorf("%w: record %d is null", ErrMalformed, i)
		}
		var rec DateRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformed, i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
