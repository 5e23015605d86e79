package taxonomy

import (
	"fmt"
	"slices"
	"strings"
)

// FieldUpdate describes the values added to and removed from one field.
type FieldUpdate struct {
	Name    string   `json:"name" yaml:"name"`
	Added   []string `json:"added,omitempty" yaml:"added,omitempty"`
	Removed []string `json:"removed,omitempty" yaml:"removed,omitempty"`
}

// Changeset is the difference between two taxonomies.
type Changeset struct {
	AddedFields   []string      `json:"added_fields,omitempty" yaml:"added_fields,omitempty"`
	RemovedFields []string      `json:"removed_fields,omitempty" yaml:"removed_fields,omitempty"`
	UpdatedFields []FieldUpdate `json:"updated_fields,omitempty" yaml:"updated_fields,omitempty"`
}

// HasChanges returns true if anything differs.
func (c *Changeset) HasChanges() bool {
	return c != nil && len(c.AddedFields)+len(c.RemovedFields)+len(c.UpdatedFields) > 0
}

// String returns a short summary.
func (c *Changeset) String() string {
	if !c.HasChanges() {
		return "no changes"
	}
	var parts []string
	if n := len(c.AddedFields); n > 0 {
		parts = append(parts, fmt.Sprintf("%d fields added", n))
	}
	if n := len(c.RemovedFields); n > 0 {
		parts = append(parts, fmt.Sprintf("%d fields removed", n))
	}
	if n := len(c.UpdatedFields); n > 0 {
		parts = append(parts, fmt.Sprintf("%d fields updated", n))
	}
	return strings.Join(parts, ", ")
}

// Diff compares existing with updated. Names are reported in the order of
// the taxonomy they come from. A nil taxonomy counts as empty. Value order
// and duplicate counts are ignored.
func Diff(existing, updated *Taxonomy) *Changeset {
	cs := &Changeset{}
	updated.Each(func(name string, values []string) bool {
		old, ok := existing.Values(name)
		if !ok {
			cs.AddedFields = append(cs.AddedFields, name)
			return true
		}
		added, removed := setDiff(old, values), setDiff(values, old)
		if len(added) > 0 || len(removed) > 0 {
			cs.UpdatedFields = append(cs.UpdatedFields, FieldUpdate{Name: name, Added: added, Removed: removed})
		}
		return true
	})
	existing.Each(func(name string, _ []string) bool {
		if !updated.Has(name) {
			cs.RemovedFields = append(cs.RemovedFields, name)
		}
		return true
	})
	return cs
}

// setDiff returns the members of b missing from a, in b's order, once each.
func setDiff(a, b []string) []string {
	var out []string
	for _, v := range b {
		if !slices.Contains(a, v) && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
