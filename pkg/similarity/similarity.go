// Package similarity provides the named string-similarity metrics used to
// compare raw values against canonical ones. Every metric returns a score in
// [0, 1] where 1 means identical, and is reflexive: Score(s, s) == 1.
//
// Edit-distance metrics are normalised by the longer input measured in runes,
// so "Stat_X" against "State_1" under levenshtein scores 1 - 2/7.
package similarity

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/cases"

	"github.com/agentstation/fieldmatch/pkg/errors"
)

// Method identifies a similarity metric by name.
type Method string

const (
	// JaroWinkler favours strings sharing a common prefix.
	JaroWinkler Method = "jaro_winkler"
	// Jaro is Jaro similarity without the prefix bonus.
	Jaro Method = "jaro"
	// Levenshtein is 1 - edit distance / longer length.
	Levenshtein Method = "levenshtein"
	// DamerauLevenshtein also counts adjacent transpositions as one edit.
	DamerauLevenshtein Method = "damerau_levenshtein"
	// OSA is optimal string alignment distance, normalised like Levenshtein.
	OSA Method = "osa"
)

// String implements fmt.Stringer.
func (m Method) String() string {
	return string(m)
}

// Metric scores the similarity of two strings.
type Metric interface {
	// Score returns a similarity in [0, 1].
	Score(a, b string) float64
	// Method returns the name the metric was selected by.
	Method() Method
}

// Func adapts a plain function to the Metric interface.
type Func struct {
	Name Method
	Fn   func(a, b string) float64
}

// Score implements Metric.
func (f Func) Score(a, b string) float64 {
	return clamp(f.Fn(a, b))
}

// Method implements Metric.
func (f Func) Method() Method {
	return f.Name
}

var registry = map[Method]func(a, b string) float64{
	JaroWinkler: func(a, b string) float64 {
		if a == b {
			return 1
		}
		return matchr.JaroWinkler(a, b, false)
	},
	Jaro: func(a, b string) float64 {
		if a == b {
			return 1
		}
		return matchr.Jaro(a, b)
	},
	Levenshtein:        normalized(matchr.Levenshtein),
	DamerauLevenshtein: normalized(matchr.DamerauLevenshtein),
	OSA:                normalized(matchr.OSA),
}

// Methods lists the supported metric names in sorted order.
func Methods() []Method {
	methods := make([]Method, 0, len(registry))
	for m := range registry {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}

// ParseMethod validates a metric name. Matching is case-insensitive and
// accepts '-' in place of '_'.
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_"))
	if _, ok := registry[m]; !ok {
		return "", &errors.ValidationError{
			Field:   "method",
			Value:   name,
			Message: fmt.Sprintf("unknown similarity method %q (supported: %s)", name, joinMethods()),
		}
	}
	return m, nil
}

// Options configures metric construction.
type Options struct {
	// CaseInsensitive compares Unicode case-folded strings.
	CaseInsensitive bool
}

// New returns the metric registered under method.
func New(method Method, opts ...Options) (Metric, error) {
	fn, ok := registry[method]
	if !ok {
		_, err := ParseMethod(string(method))
		return nil, err
	}

	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	metric := Func{Name: method, Fn: fn}
	if o.CaseInsensitive {
		return folded{inner: metric}, nil
	}
	return metric, nil
}

// MustNew is like New but panics on an unknown method.
func MustNew(method Method, opts ...Options) Metric {
	m, err := New(method, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// folded wraps a metric with Unicode case folding of both inputs.
type folded struct {
	inner Metric
}

// Score implements Metric. A cases.Caser is stateful, so one is built per call.
func (f folded) Score(a, b string) float64 {
	caser := cases.Fold()
	fa := caser.String(a)
	caser.Reset()
	fb := caser.String(b)
	return f.inner.Score(fa, fb)
}

// Method implements Metric.
func (f folded) Method() Method {
	return f.inner.Method()
}

// normalized turns an edit distance into a similarity.
func normalized(distance func(a, b string) int) func(a, b string) float64 {
	return func(a, b string) float64 {
		if a == b {
			return 1
		}
		longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
		if longest == 0 {
			return 1
		}
		return 1 - float64(distance(a, b))/float64(longest)
	}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func joinMethods() string {
	methods := Methods()
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
