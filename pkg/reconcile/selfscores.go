package reconcile

import (
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/matcher"
	"github.com/agentstation/fieldmatch/pkg/similarity"
	"github.com/agentstation/fieldmatch/pkg/taxonomy"
)

// SelfScores matches every canonical value against its own field and
// returns the winning score, per field and value. Under any reflexive metric
// every score is 1; a lower score signals a metric that disagrees with
// itself. The table is a calibration aid only and plays no part in Infer.
// Fields without values map to an empty table; an empty taxonomy is an
// error matching errors.ErrNoCandidates.
func SelfScores(tax *taxonomy.Taxonomy, metric similarity.Metric) (map[string]map[string]float64, error) {
	if tax.Len() == 0 {
		return nil, &errors.CandidateError{}
	}
	out := make(map[string]map[string]float64, tax.Len())
	tax.Each(func(name string, values []string) bool {
		scores := make(map[string]float64, len(values))
		for _, v := range values {
			// v is drawn from values, so the list is never empty.
			_, s, _ := matcher.MatchValue(v, values, metric)
			scores[v] = s
		}
		out[name] = scores
		return true
	})
	return out, nil
}
