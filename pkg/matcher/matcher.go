// Package matcher resolves a raw (field, value) pair to the closest canonical
// pair in a taxonomy.
//
// Every search is a full scan: each candidate is scored and the highest score
// wins. Ties go to the candidate seen first, in the order the candidate list
// or the taxonomy declares them, which makes results deterministic.
package matcher

import (
	"sort"

	"github.com/agentstation/fieldmatch/pkg/constants"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/similarity"
	"github.com/agentstation/fieldmatch/pkg/taxonomy"
)

// Candidate is one scored canonical value.
type Candidate struct {
	Value string  `json:"value" yaml:"value"`
	Score float64 `json:"score" yaml:"score"`
}

// Result is the outcome of inferring one raw pair.
type Result struct {
	// Field is the canonical field the pair resolved to.
	Field string `json:"field" yaml:"field"`
	// Value is the best canonical value within Field.
	Value string `json:"value" yaml:"value"`
	// Score is the similarity between the raw value and Value.
	Score float64 `json:"score" yaml:"score"`
	// OriginalField holds the raw field name when it was not canonical,
	// and is empty otherwise.
	OriginalField string `json:"original_field,omitempty" yaml:"original_field,omitempty"`
	// LowConfidence is set when Score is below the engine threshold.
	LowConfidence bool `json:"low_confidence" yaml:"low_confidence"`
	// Candidates is the ranked shortlist within Field.
	Candidates []Candidate `json:"candidates,omitempty" yaml:"candidates,omitempty"`
}

// KeyInferred reports whether the field name was replaced.
func (r Result) KeyInferred() bool {
	return r.OriginalField != ""
}

// MatchValue returns the candidate most similar to value and its score.
// Ties resolve to the earliest candidate. An empty candidate list is an
// *errors.CandidateError matching errors.ErrEmptyCandidateSet.
func MatchValue(value string, candidates []string, metric similarity.Metric) (string, float64, error) {
	if len(candidates) == 0 {
		return "", 0, &errors.CandidateError{Value: value, Empty: true}
	}
	best, bestScore := candidates[0], metric.Score(value, candidates[0])
	for _, c := range candidates[1:] {
		if s := metric.Score(value, c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, bestScore, nil
}

// Rank scores every candidate and returns the topK best, highest first.
// Equal scores keep their original relative order, so Rank(...)[0] agrees
// with MatchValue. topK <= 0 returns every candidate.
func Rank(value string, candidates []string, metric similarity.Metric, topK int) ([]Candidate, error) {
	if len(candidates) == 0 {
		return nil, &errors.CandidateError{Value: value, Empty: true}
	}
	ranked := make([]Candidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = Candidate{Value: c, Score: metric.Score(value, c)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if topK > 0 && topK < len(ranked) {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

// Engine infers canonical pairs with a fixed metric and threshold.
// An Engine holds no mutable state and is safe for concurrent use.
type Engine struct {
	metric    similarity.Metric
	threshold float64
	topK      int
}

// Option configures an Engine.
type Option func(*Engine)

// WithThreshold sets the score below which results are flagged low confidence.
func WithThreshold(threshold float64) Option {
	return func(e *Engine) {
		e.threshold = threshold
	}
}

// WithTopK sets the shortlist size kept on each Result. It never changes
// which candidate wins.
func WithTopK(k int) Option {
	return func(e *Engine) {
		e.topK = k
	}
}

// New creates an engine for metric.
func New(metric similarity.Metric, opts ...Option) *Engine {
	e := &Engine{
		metric:    metric,
		threshold: constants.DefaultThreshold,
		topK:      constants.DefaultTopK,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Metric returns the engine's similarity metric.
func (e *Engine) Metric() similarity.Metric { return e.metric }

// Threshold returns the confidence threshold.
func (e *Engine) Threshold() float64 { return e.threshold }

// Infer resolves (field, value) against tax.
//
// When field is canonical, value is matched within that field only and the
// result keeps field unchanged. Otherwise every field is searched in
// taxonomy order; the field whose best value scores highest wins, earlier
// fields winning ties, and OriginalField records the raw name. Fields with
// no values are skipped during that search.
//
// Errors are *errors.CandidateError and match errors.ErrNoCandidates: the
// taxonomy is empty, the named field has no values, or no field has any.
func (e *Engine) Infer(field, value string, tax *taxonomy.Taxonomy) (Result, error) {
	if tax.Len() == 0 {
		return Result{}, &errors.CandidateError{Field: field, Value: value}
	}

	if values, ok := tax.Values(field); ok {
		best, score, err := MatchValue(value, values, e.metric)
		if err != nil {
			return Result{}, &errors.CandidateError{Field: field, Value: value, Empty: true}
		}
		return e.result(field, "", value, best, score, values), nil
	}

	var (
		found     bool
		bestField string
		bestValue string
		bestScore float64
		bestList  []string
	)
	tax.Each(func(name string, values []string) bool {
		if len(values) == 0 {
			return true
		}
		v, s, _ := MatchValue(value, values, e.metric)
		if !found || s > bestScore {
			found = true
			bestField, bestValue, bestScore, bestList = name, v, s, values
		}
		return true
	})
	if !found {
		return Result{}, &errors.CandidateError{Field: field, Value: value}
	}
	return e.result(bestField, field, value, bestValue, bestScore, bestList), nil
}

func (e *Engine) result(field, original, raw, best string, score float64, values []string) Result {
	r := Result{
		Field:         field,
		Value:         best,
		Score:         score,
		OriginalField: original,
		LowConfidence: score < e.threshold,
	}
	if e.topK > 0 {
		// values is non-empty here, so Rank cannot fail.
		r.Candidates, _ = Rank(raw, values, e.metric, e.topK)
	}
	return r
}

// Infer is a one-shot form of Engine.Infer.
func Infer(field, value string, tax *taxonomy.Taxonomy, metric similarity.Metric, threshold float64) (Result, error) {
	return New(metric, WithThreshold(threshold), WithTopK(0)).Infer(field, value, tax)
}
