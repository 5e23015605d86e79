package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/fieldmatch/pkg/logging"
	"github.com/agentstation/fieldmatch/pkg/matcher"
	"github.com/agentstation/fieldmatch/pkg/taxonomy"
)

// TaxonomyProvider supplies the taxonomy for a batch. *choices.Cache
// implements it.
type TaxonomyProvider interface {
	Get(ctx context.Context) (*taxonomy.Taxonomy, error)
}

// Catalogue is an indexed collection of records, ids 0..Count()-1.
type Catalogue interface {
	Get(id int) (Record, error)
	Count() int
}

// Identifier is implemented by catalogues whose record ids differ from their
// positions, such as a subset of a larger catalogue.
type Identifier interface {
	ID(i int) int
}

// Outcome is the result of one catalogue record. Index is the record's id:
// its position, or what the catalogue's ID method maps the position to.
// Exactly one of Result and Err is set.
type Outcome struct {
	Index  int     `json:"index" yaml:"index"`
	Result *Result `json:"result,omitempty" yaml:"result,omitempty"`
	Err    error   `json:"-" yaml:"-"`
}

// ErrString returns Err as a string, or "".
func (o Outcome) ErrString() string {
	return errString(o.Err)
}

// MarshalJSON includes Err as a string.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index  int     `json:"index"`
		Result *Result `json:"result,omitempty"`
		Error  string  `json:"error,omitempty"`
	}{o.Index, o.Result, o.ErrString()})
}

// MarshalYAML includes Err as a string.
func (o Outcome) MarshalYAML() (any, error) {
	out := map[string]any{"index": o.Index}
	if o.Result != nil {
		out["result"] = o.Result
	}
	if o.Err != nil {
		out["error"] = o.Err.Error()
	}
	return out, nil
}

// ReconcileAll reconciles every record in cat.
//
// The taxonomy is obtained once, before any record is processed; if that
// fails the whole batch fails with the provider's error. Records are then
// processed sequentially, or cfg.Workers at a time, and each outcome is
// written to its own slot so the returned slice is in index order. A failing
// record does not affect the others.
//
// If ctx is done before the batch finishes, records that did not complete
// carry a cancellation error and ReconcileAll returns the outcomes together
// with that error.
func ReconcileAll(ctx context.Context, cat Catalogue, provider TaxonomyProvider, cfg Config) ([]Outcome, error) {
	engine, err := cfg.Engine()
	if err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx)
	tax, err := provider.Get(ctx)
	if err != nil {
		log.Error().Err(err).Msg("taxonomy unavailable, batch aborted")
		return nil, err
	}

	n := cat.Count()
	outcomes := make([]Outcome, n)
	start := time.Now()
	log.Info().Int("records", n).Int("workers", cfg.Workers).Str("method", string(cfg.Method)).
		Msg("reconciling batch")

	run := func(i int) {
		outcomes[i] = reconcileOne(ctx, engine, cat, tax, i)
	}

	if cfg.Workers <= 1 {
		for i := 0; i < n; i++ {
			run(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(cfg.Workers)
		for i := 0; i < n; i++ {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	sum := Summarize(outcomes)
	log.Info().
		Int("succeeded", sum.Succeeded).
		Int("failed", sum.Failed).
		Dur("took", time.Since(start)).
		Msg("batch finished")

	if err := ctx.Err(); err != nil {
		return outcomes, canceled(err)
	}
	return outcomes, nil
}

func reconcileOne(ctx context.Context, engine *matcher.Engine, cat Catalogue, tax *taxonomy.Taxonomy, i int) Outcome {
	id := i
	if ider, ok := cat.(Identifier); ok {
		id = ider.ID(i)
	}
	if err := ctx.Err(); err != nil {
		return Outcome{Index: id, Err: canceled(err)}
	}

	ctx = logging.WithScenario(ctx, id)
	log := logging.FromContext(ctx)

	rec, err := cat.Get(i)
	if err != nil {
		log.Error().Err(err).Msg("record unavailable")
		return Outcome{Index: id, Err: err}
	}

	res, err := reconcileWith(ctx, engine, rec, tax)
	if err != nil {
		log.Error().Err(err).Msg("record not finished")
		return Outcome{Index: id, Err: err}
	}

	log.Info().Fields(map[string]any{"fields": res.Fields}).Msg("record reconciled")
	if text := res.Text(); text != "" {
		log.Debug().Msg(strings.TrimSuffix(text, "\n"))
	}
	return Outcome{Index: id, Result: res}
}

// Summary aggregates a batch.
type Summary struct {
	Records        int `json:"records" yaml:"records"`
	Succeeded      int `json:"succeeded" yaml:"succeeded"`
	Failed         int `json:"failed" yaml:"failed"`
	Pairs          int `json:"pairs" yaml:"pairs"`
	KeyCorrections int `json:"key_corrections" yaml:"key_corrections"`
	LowConfidence  int `json:"low_confidence" yaml:"low_confidence"`
	Overwrites     int `json:"overwrites" yaml:"overwrites"`
	DroppedPairs   int `json:"dropped_pairs" yaml:"dropped_pairs"`
}

// Summarize counts outcomes and their diagnostics.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Records: len(outcomes)}
	for _, o := range outcomes {
		if o.Err != nil || o.Result == nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.Pairs += len(o.Result.Matches) + len(o.Result.Failures)
		s.KeyCorrections += o.Result.Count(KindKey)
		s.LowConfidence += o.Result.Count(KindValue)
		s.Overwrites += o.Result.Count(KindOverwrite)
		s.DroppedPairs += len(o.Result.Failures)
	}
	return s
}

// String returns a one-line summary.
func (s Summary) String() string {
	return fmt.Sprintf("%d records (%d ok, %d failed), %d pairs: %d keys inferred, %d low-confidence values, %d overwrites, %d dropped",
		s.Records, s.Succeeded, s.Failed, s.Pairs, s.KeyCorrections, s.LowConfidence, s.Overwrites, s.DroppedPairs)
}
