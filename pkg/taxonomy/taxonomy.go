// Package taxonomy holds the canonical mapping from field names to their
// allowed values. A Taxonomy keeps fields in the order they were declared by
// the source document so that scans over it, and therefore tie-breaks, are
// deterministic. A Taxonomy is immutable once built; accessors hand out copies.
package taxonomy

import (
	"fmt"
	"slices"
)

// Field is one canonical field name and its ordered list of valid values.
type Field struct {
	Name   string   `json:"name" yaml:"name"`
	Values []string `json:"values" yaml:"values"`
}

// Taxonomy is an ordered, immutable collection of fields.
type Taxonomy struct {
	fields []Field
	index  map[string]int
}

// New builds a taxonomy from fields in the given order. Field names must be
// unique. Value lists are copied.
func New(fields ...Field) (*Taxonomy, error) {
	t := &Taxonomy{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if _, dup := t.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		t.index[f.Name] = len(t.fields)
		t.fields = append(t.fields, Field{Name: f.Name, Values: slices.Clone(f.Values)})
	}
	return t, nil
}

// MustNew is like New but panics on duplicate field names.
func MustNew(fields ...Field) *Taxonomy {
	t, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of fields.
func (t *Taxonomy) Len() int {
	if t == nil {
		return 0
	}
	return len(t.fields)
}

// Has reports whether name is a canonical field.
func (t *Taxonomy) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[name]
	return ok
}

// Values returns the candidate list for a field. The returned slice must not
// be modified; it aliases the taxonomy's storage so that matching does not
// copy on every lookup.
func (t *Taxonomy) Values(name string) ([]string, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.fields[i].Values, true
}

// Names returns field names in declaration order.
func (t *Taxonomy) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.fields))
	for i, f := range t.fields {
		names[i] = f.Name
	}
	return names
}

// Fields returns a deep copy of the fields in declaration order.
func (t *Taxonomy) Fields() []Field {
	if t == nil {
		return nil
	}
	out := make([]Field, len(t.fields))
	for i, f := range t.fields {
		out[i] = Field{Name: f.Name, Values: slices.Clone(f.Values)}
	}
	return out
}

// Each calls fn for every field in declaration order until fn returns false.
// The values slice must not be modified.
func (t *Taxonomy) Each(fn func(name string, values []string) bool) {
	if t == nil {
		return
	}
	for _, f := range t.fields {
		if !fn(f.Name, f.Values) {
			return
		}
	}
}

// ValueCount returns the total number of values across all fields.
func (t *Taxonomy) ValueCount() int {
	n := 0
	t.Each(func(_ string, values []string) bool {
		n += len(values)
		return true
	})
	return n
}

// Map returns a plain map copy, losing field order.
func (t *Taxonomy) Map() map[string][]string {
	out := make(map[string][]string, t.Len())
	t.Each(func(name string, values []string) bool {
		out[name] = slices.Clone(values)
		return true
	})
	return out
}
