// Package reconcile turns noisy records into canonical ones.
//
// Each pair of a record is resolved with a match engine and written into the
// corrected record under its canonical field. When two pairs resolve to the
// same field the later one wins and an overwrite diagnostic is recorded. A
// pair that cannot be resolved is dropped and reported; it never aborts the
// rest of the record.
package reconcile

import (
	"context"
	"fmt"

	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/logging"
	"github.com/agentstation/fieldmatch/pkg/matcher"
	"github.com/agentstation/fieldmatch/pkg/taxonomy"
)

// Reconcile corrects one record against tax.
//
// It returns an error only when cfg is invalid or ctx is done before the
// record is finished; in that case no partial Result is returned.
func Reconcile(ctx context.Context, rec Record, tax *taxonomy.Taxonomy, cfg Config) (*Result, error) {
	engine, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	return reconcileWith(ctx, engine, rec, tax)
}

func reconcileWith(ctx context.Context, engine *matcher.Engine, rec Record, tax *taxonomy.Taxonomy) (*Result, error) {
	log := logging.FromContext(ctx)
	res := newResult(len(rec))
	source := make(map[string]int, len(rec))

	for i, p := range rec {
		if err := ctx.Err(); err != nil {
			return nil, canceled(err)
		}

		m, err := engine.Infer(p.Field, p.Value, tax)
		if err != nil {
			log.Error().Err(err).Int("pair", i).Str("field", p.Field).Str("value", p.Value).
				Msg("pair dropped")
			res.Failures = append(res.Failures, PairFailure{Index: i, Pair: p, Err: err})
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Kind:    KindFailure,
				Pair:    i,
				Message: fmt.Sprintf("Dropped pair '%s': %v.", p.Field, err),
			})
			continue
		}

		if prev, ok := res.Fields[m.Field]; ok {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Kind: KindOverwrite,
				Pair: i,
				Message: fmt.Sprintf("Field '%s' from pair %d overwritten: '%s' replaced by '%s'.",
					m.Field, source[m.Field], prev, m.Value),
			})
		} else {
			res.Order = append(res.Order, m.Field)
		}
		res.Fields[m.Field] = m.Value
		source[m.Field] = i
		res.Matches = append(res.Matches, Match{Index: i, Pair: p, Result: m})

		if m.KeyInferred() {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Kind:    KindKey,
				Pair:    i,
				Message: fmt.Sprintf("Inferred key '%s' as '%s'.", m.OriginalField, m.Field),
			})
		}
		if m.LowConfidence {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Kind:    KindValue,
				Pair:    i,
				Message: fmt.Sprintf("Inferred value '%s' as '%s'.", p.Value, m.Value),
			})
		}

		log.Debug().
			Int("pair", i).
			Str("field", p.Field).
			Str("value", p.Value).
			Str("resolved_field", m.Field).
			Str("resolved_value", m.Value).
			Float64("score", m.Score).
			Msg("pair resolved")
	}

	return res, nil
}

func canceled(err error) error {
	if err == context.DeadlineExceeded {
		return errors.Join(errors.ErrTimeout, err)
	}
	return errors.Join(errors.ErrCanceled, err)
}
