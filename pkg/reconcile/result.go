package reconcile

import (
	"encoding/json"
	"strings"

	"github.com/agentstation/fieldmatch/pkg/matcher"
)

// Pair is one raw (field, value) pair as produced upstream.
type Pair struct {
	Field string `json:"field" yaml:"field" toml:"field"`
	Value string `json:"value" yaml:"value" toml:"value"`
}

// Record is an ordered list of raw pairs. The core never modifies it.
type Record []Pair

// Kind classifies a diagnostic.
type Kind string

const (
	// KindKey reports a field name that was replaced.
	KindKey Kind = "key"
	// KindValue reports a value matched with a score below the threshold.
	KindValue Kind = "value"
	// KindOverwrite reports a later pair replacing an earlier pair's field.
	KindOverwrite Kind = "overwrite"
	// KindFailure reports a pair that could not be resolved and was dropped.
	KindFailure Kind = "failure"
)

// Diagnostic is one human-readable note about a correction.
type Diagnostic struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	Pair    int    `json:"pair" yaml:"pair"`
	Message string `json:"message" yaml:"message"`
}

// String returns the message.
func (d Diagnostic) String() string {
	return d.Message
}

// PairFailure records a pair that was dropped.
type PairFailure struct {
	Index int   `json:"index" yaml:"index"`
	Pair  Pair  `json:"pair" yaml:"pair"`
	Err   error `json:"-" yaml:"-"`
}

// MarshalJSON renders Err as a string.
func (f PairFailure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index int    `json:"index"`
		Pair  Pair   `json:"pair"`
		Error string `json:"error"`
	}{f.Index, f.Pair, errString(f.Err)})
}

// MarshalYAML renders Err as a string.
func (f PairFailure) MarshalYAML() (any, error) {
	return map[string]any{"index": f.Index, "pair": f.Pair, "error": errString(f.Err)}, nil
}

// Match is the resolution of one input pair.
type Match struct {
	Index  int            `json:"index" yaml:"index"`
	Pair   Pair           `json:"pair" yaml:"pair"`
	Result matcher.Result `json:"result" yaml:"result"`
}

// Result is a corrected record and the trail of how it was corrected.
type Result struct {
	// Fields maps canonical field names to canonical values.
	Fields map[string]string `json:"fields" yaml:"fields"`
	// Order lists the keys of Fields in the order they were first resolved.
	Order []string `json:"order" yaml:"order"`
	// Diagnostics in the order they were produced.
	Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	// Matches holds one entry per resolved pair.
	Matches []Match `json:"matches" yaml:"matches"`
	// Failures holds the pairs that were dropped.
	Failures []PairFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

func newResult(n int) *Result {
	return &Result{
		Fields:      make(map[string]string, n),
		Order:       make([]string, 0, n),
		Diagnostics: []Diagnostic{},
		Matches:     make([]Match, 0, n),
	}
}

// Get returns the value resolved for a canonical field.
func (r *Result) Get(field string) (string, bool) {
	v, ok := r.Fields[field]
	return v, ok
}

// HasFailures returns true if any pair was dropped.
func (r *Result) HasFailures() bool {
	return len(r.Failures) > 0
}

// Count returns the number of diagnostics of kind k.
func (r *Result) Count(k Kind) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == k {
			n++
		}
	}
	return n
}

// Messages returns the diagnostic messages in order.
func (r *Result) Messages() []string {
	out := make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		out[i] = d.Message
	}
	return out
}

// Text joins the diagnostics one per line.
func (r *Result) Text() string {
	if len(r.Diagnostics) == 0 {
		return ""
	}
	return strings.Join(r.Messages(), "\n") + "\n"
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
