package reconcile_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmatch/internal/embedded"
	"github.com/agentstation/fieldmatch/internal/sources"
	"github.com/agentstation/fieldmatch/pkg/choices"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/logging"
	"github.com/agentstation/fieldmatch/pkg/reconcile"
	"github.com/agentstation/fieldmatch/pkg/scenarios"
	"github.com/agentstation/fieldmatch/pkg/taxonomy"
)

func sampleCache() *choices.Cache {
	return choices.New(&sources.StaticSource{Label: "sample", Data: embedded.Choices},
		choices.WithLogger(logging.NewNopLogger()))
}

type failingProvider struct{ err error }

func (p failingProvider) Get(context.Context) (*taxonomy.Taxonomy, error) { return nil, p.err }

// gappyCatalogue reports one record as unavailable.
type gappyCatalogue struct {
	reconcile.Catalogue
	missing int
}

func (c gappyCatalogue) Get(id int) (reconcile.Record, error) {
	if id == c.missing {
		return nil, errors.NewUnknownScenarioError(id, c.Count())
	}
	return c.Catalogue.Get(id)
}

func TestReconcileAll_Sequential(t *testing.T) {
	outcomes, err := reconcile.ReconcileAll(quietContext(), scenarios.Builtin(), sampleCache(), reconcile.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, outcomes, 5)

	for i, o := range outcomes {
		assert.Equal(t, i, o.Index)
		require.NoError(t, o.Err)
		require.NotNil(t, o.Result)
		assert.NotEmpty(t, o.Result.Fields)
	}
	assert.Equal(t, map[string]string{"Chain": "Chain_2", "Region": "Region_14"}, outcomes[4].Result.Fields)
}

func TestReconcileAll_ParallelMatchesSequential(t *testing.T) {
	cache := sampleCache()
	seq, err := reconcile.ReconcileAll(quietContext(), scenarios.Builtin(), cache, reconcile.DefaultConfig())
	require.NoError(t, err)

	cfg := reconcile.DefaultConfig()
	cfg.Workers = 4
	par, err := reconcile.ReconcileAll(quietContext(), scenarios.Builtin(), cache, cfg)
	require.NoError(t, err)

	if diff := cmp.Diff(seq, par, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("parallel run differs (-seq +par):\n%s", diff)
	}
}

func TestReconcileAll_SubsetKeepsScenarioIDs(t *testing.T) {
	sub, err := scenarios.Builtin().Subset(3, 4)
	require.NoError(t, err)

	outcomes, err := reconcile.ReconcileAll(quietContext(), sub, sampleCache(), reconcile.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, 3, outcomes[0].Index)
	assert.Equal(t, "Supplier_1026", outcomes[0].Result.Fields["Supplier"])
	assert.Equal(t, 4, outcomes[1].Index)
	assert.Equal(t, "Chain_2", outcomes[1].Result.Fields["Chain"])
}

func TestOutcome_IsNotAnError(t *testing.T) {
	var v any = reconcile.Outcome{Index: 0, Result: &reconcile.Result{}}
	_, ok := v.(error)
	assert.False(t, ok)
	assert.Equal(t, "boom", reconcile.Outcome{Err: stderrors.New("boom")}.ErrString())
}

func TestReconcileAll_TaxonomyUnavailable(t *testing.T) {
	fetchErr := errors.NewFetchError("http://choices.invalid", "request failed", stderrors.New("dial tcp: no such host"))
	outcomes, err := reconcile.ReconcileAll(quietContext(), scenarios.Builtin(), failingProvider{fetchErr}, reconcile.DefaultConfig())
	require.Error(t, err)
	assert.Nil(t, outcomes, "no silent empty result")
	assert.True(t, errors.IsFetch(err))
}

func TestReconcileAll_DecodeFailureIsFatal(t *testing.T) {
	cache := choices.New(&sources.StaticSource{Data: []byte(`{"State": "State_1"}`)}, choices.WithLogger(logging.NewNopLogger()))
	_, err := reconcile.ReconcileAll(quietContext(), scenarios.Builtin(), cache, reconcile.DefaultConfig())
	assert.True(t, errors.IsDecode(err))
}

func TestReconcileAll_RecordFailureIsIsolated(t *testing.T) {
	cat := gappyCatalogue{Catalogue: scenarios.Builtin(), missing: 2}
	for _, workers := range []int{1, 3} {
		cfg := reconcile.DefaultConfig()
		cfg.Workers = workers

		outcomes, err := reconcile.ReconcileAll(quietContext(), cat, sampleCache(), cfg)
		require.NoError(t, err)
		require.Len(t, outcomes, 5)

		assert.True(t, errors.IsUnknownScenario(outcomes[2].Err))
		assert.Nil(t, outcomes[2].Result)
		for _, i := range []int{0, 1, 3, 4} {
			assert.NoError(t, outcomes[i].Err, "workers=%d record %d", workers, i)
		}

		sum := reconcile.Summarize(outcomes)
		assert.Equal(t, 5, sum.Records)
		assert.Equal(t, 4, sum.Succeeded)
		assert.Equal(t, 1, sum.Failed)
	}
}

func TestReconcileAll_Canceled(t *testing.T) {
	cache := sampleCache()
	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(quietContext())
	cancel()

	outcomes, err := reconcile.ReconcileAll(ctx, scenarios.Builtin(), cache, reconcile.DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.IsCanceled(err))
	require.Len(t, outcomes, 5)
	for _, o := range outcomes {
		assert.Nil(t, o.Result)
		assert.True(t, errors.IsCanceled(o.Err))
	}
}

func TestReconcileAll_InvalidConfig(t *testing.T) {
	cfg := reconcile.DefaultConfig()
	cfg.TopK = 0
	_, err := reconcile.ReconcileAll(quietContext(), scenarios.Builtin(), sampleCache(), cfg)
	assert.True(t, errors.IsValidationError(err))
}

func TestSummary(t *testing.T) {
	outcomes, err := reconcile.ReconcileAll(quietContext(), scenarios.Builtin(), sampleCache(), reconcile.DefaultConfig())
	require.NoError(t, err)

	sum := reconcile.Summarize(outcomes)
	assert.Equal(t, 5, sum.Records)
	assert.Equal(t, 5, sum.Succeeded)
	assert.Equal(t, 12, sum.Pairs)
	assert.Equal(t, 4, sum.KeyCorrections, "SaleChanel, asdaSub_Category_Name, Suplier, Caihn")
	assert.Zero(t, sum.DroppedPairs)
	assert.Contains(t, sum.String(), "5 records (5 ok, 0 failed), 12 pairs: 4 keys inferred")
}

func TestOutcome_JSON(t *testing.T) {
	o := reconcile.Outcome{Index: 3, Err: errors.NewUnknownScenarioError(3, 2)}
	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":3,"error":"scenario 3 is not defined (catalogue has 2)"}`, string(data))

	f := reconcile.PairFailure{Index: 0, Pair: reconcile.Pair{Field: "Area", Value: "x"}, Err: stderrors.New("boom")}
	data, err = json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":0,"pair":{"field":"Area","value":"x"},"error":"boom"}`, string(data))
}
