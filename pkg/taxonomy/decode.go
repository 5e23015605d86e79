package taxonomy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/fieldmatch/pkg/errors"
)

// Decode parses a taxonomy payload. The payload must be a single JSON object
// whose values are arrays of strings; anything else is a *errors.DecodeError.
// Field order follows key order in the document. A key repeated later in the
// document replaces the earlier value list but keeps the earlier position.
func Decode(data []byte, source string) (*Taxonomy, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	fail := func(format string, args ...any) error {
		return errors.NewDecodeError("json", source, fmt.Sprintf(format, args...), nil)
	}
	wrap := func(err error) error {
		return errors.NewDecodeError("json", source, err.Error(), err)
	}

	tok, err := dec.Token()
	if err == io.EOF {
		return nil, fail("empty payload")
	}
	if err != nil {
		return nil, wrap(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fail("top-level value must be an object, got %s", describe(tok))
	}

	t := &Taxonomy{index: make(map[string]int)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, wrap(err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fail("expected field name, got %s", describe(tok))
		}

		values, err := decodeValues(dec, name, fail, wrap)
		if err != nil {
			return nil, err
		}

		if i, dup := t.index[name]; dup {
			t.fields[i].Values = values
			continue
		}
		t.index[name] = len(t.fields)
		t.fields = append(t.fields, Field{Name: name, Values: values})
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, wrap(err)
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, wrap(err)
		}
		return nil, fail("unexpected trailing data %s", describe(tok))
	}

	return t, nil
}

func decodeValues(dec *json.Decoder, field string, fail func(string, ...any) error, wrap func(error) error) ([]string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, wrap(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fail("field %q: value must be an array of strings, got %s", field, describe(tok))
	}

	values := []string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, wrap(err)
		}
		s, ok := tok.(string)
		if !ok {
			return nil, fail("field %q: element %d must be a string, got %s", field, len(values), describe(tok))
		}
		values = append(values, s)
	}

	// closing bracket
	if _, err := dec.Token(); err != nil {
		return nil, wrap(err)
	}
	return values, nil
}

func describe(tok json.Token) string {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return "object"
		case '[':
			return "array"
		default:
			return fmt.Sprintf("%q", v.String())
		}
	case string:
		return "string"
	case float64, json.Number:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", tok)
	}
}

// MarshalJSON encodes the taxonomy as an object, preserving field order.
func (t *Taxonomy) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range t.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		values := f.Values
		if values == nil {
			values = []string{}
		}
		vals, err := json.Marshal(values)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(vals)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the taxonomy as an ordered mapping.
func (t *Taxonomy) MarshalYAML() (any, error) {
	if t == nil {
		return nil, nil
	}
	out := make(yaml.MapSlice, 0, len(t.fields))
	for _, f := range t.fields {
		out = append(out, yaml.MapItem{Key: f.Name, Value: f.Values})
	}
	return out, nil
}
