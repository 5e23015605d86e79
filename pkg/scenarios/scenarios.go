// Package scenarios provides catalogues of raw records, indexed 0..n-1, to
// feed the reconciliation loop. A built-in catalogue ships with the binary;
// others are loaded from YAML, JSON or TOML files.
package scenarios

import (
	"slices"
	"sync"

	"github.com/agentstation/fieldmatch/internal/embedded"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/reconcile"
)

// Catalogue is an immutable, indexed set of records.
type Catalogue struct {
	source  string
	records []reconcile.Record
	// ids maps positions back to the parent catalogue; nil means identity.
	ids []int
}

// New creates a catalogue whose ids are the positions of records.
func New(source string, records ...reconcile.Record) *Catalogue {
	c := &Catalogue{source: source, records: make([]reconcile.Record, len(records))}
	for i, r := range records {
		c.records[i] = slices.Clone(r)
	}
	return c
}

var (
	builtinOnce sync.Once
	builtin     *Catalogue
)

// Builtin returns the catalogue bundled with the binary.
func Builtin() *Catalogue {
	builtinOnce.Do(func() {
		c, err := Parse(embedded.Scenarios, FormatYAML, "builtin")
		if err != nil {
			panic(err)
		}
		builtin = c
	})
	return builtin
}

// Get returns a copy of record id, or an *errors.UnknownScenarioError.
func (c *Catalogue) Get(id int) (reconcile.Record, error) {
	if id < 0 || id >= len(c.records) {
		return nil, errors.NewUnknownScenarioError(id, len(c.records))
	}
	return slices.Clone(c.records[id]), nil
}

// Count returns the number of records.
func (c *Catalogue) Count() int {
	return len(c.records)
}

// IDs returns every valid id in order.
func (c *Catalogue) IDs() []int {
	ids := make([]int, len(c.records))
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// ID returns the scenario id of the record at position i. It differs from i
// only in a catalogue made by Subset.
func (c *Catalogue) ID(i int) int {
	if c.ids == nil || i < 0 || i >= len(c.ids) {
		return i
	}
	return c.ids[i]
}

// Source names where the catalogue came from.
func (c *Catalogue) Source() string {
	return c.source
}

// Subset returns a catalogue holding only the given ids, at positions
// 0..len(ids)-1 in the order given. ID maps each position back to the id it
// was selected by.
func (c *Catalogue) Subset(ids ...int) (*Catalogue, error) {
	records := make([]reconcile.Record, 0, len(ids))
	mapped := make([]int, 0, len(ids))
	for _, id := range ids {
		r, err := c.Get(id)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
		mapped = append(mapped, c.ID(id))
	}
	sub := New(c.source, records...)
	sub.ids = mapped
	return sub, nil
}
