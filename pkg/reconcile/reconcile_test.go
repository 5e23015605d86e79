package reconcile_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmatch/internal/embedded"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/logging"
	"github.com/agentstation/fieldmatch/pkg/reconcile"
	"github.com/agentstation/fieldmatch/pkg/scenarios"
	"github.com/agentstation/fieldmatch/pkg/similarity"
	"github.com/agentstation/fieldmatch/pkg/taxonomy"
)

func sampleTaxonomy(t *testing.T) *taxonomy.Taxonomy {
	t.Helper()
	tax, err := taxonomy.Decode(embedded.Choices, "sample")
	require.NoError(t, err)
	return tax
}

func stateTaxonomy() *taxonomy.Taxonomy {
	return taxonomy.MustNew(taxonomy.Field{Name: "State", Values: []string{"State_1", "State_2", "State_3"}})
}

func quietContext() context.Context {
	return logging.WithLogger(context.Background(), logging.NewNopLogger())
}

func levenshtein(threshold float64) reconcile.Config {
	cfg := reconcile.DefaultConfig()
	cfg.Method = similarity.Levenshtein
	cfg.Threshold = threshold
	return cfg
}

func TestReconcile_BuiltinScenarios(t *testing.T) {
	tax := sampleTaxonomy(t)
	cat := scenarios.Builtin()
	cfg := reconcile.DefaultConfig()

	tests := []struct {
		id         int
		wantFields map[string]string
		wantKeys   []string
	}{
		{
			id:         3,
			wantFields: map[string]string{"Supplier": "Supplier_1026", "Promotion": "Promotion_2"},
			wantKeys:   []string{"Inferred key 'Suplier' as 'Supplier'."},
		},
		{
			id:         4,
			wantFields: map[string]string{"Chain": "Chain_2", "Region": "Region_14"},
			wantKeys:   []string{"Inferred key 'Caihn' as 'Chain'."},
		},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("scenario_%d", tt.id), func(t *testing.T) {
			rec, err := cat.Get(tt.id)
			require.NoError(t, err)

			res, err := reconcile.Reconcile(quietContext(), rec, tax, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFields, res.Fields)
			assert.Equal(t, tt.wantKeys, res.Messages())
			assert.False(t, res.HasFailures())
		})
	}

	t.Run("misspelt values in known fields", func(t *testing.T) {
		rec, err := cat.Get(0)
		require.NoError(t, err)
		res, err := reconcile.Reconcile(quietContext(), rec, tax, cfg)
		require.NoError(t, err)

		assert.Equal(t, []string{"State", "Pack_Size", "Category_Name"}, res.Order)
		v, _ := res.Get("State")
		assert.Equal(t, "State_7", v)
		v, _ = res.Get("Pack_Size")
		assert.Equal(t, "PackSize_3", v)
		assert.Zero(t, res.Count(reconcile.KindKey))
	})

	t.Run("misspelt key and value", func(t *testing.T) {
		rec, err := cat.Get(2)
		require.NoError(t, err)
		res, err := reconcile.Reconcile(quietContext(), rec, tax, cfg)
		require.NoError(t, err)

		v, _ := res.Get("Sub_Category_Name")
		assert.Equal(t, "Sub_Category_Name_49", v)
		v, _ = res.Get("Store")
		assert.Equal(t, "Store_304", v)
		assert.Contains(t, res.Messages(), "Inferred key 'asdaSub_Category_Name' as 'Sub_Category_Name'.")
	})
}

func TestReconcile_Diagnostics(t *testing.T) {
	t.Run("low confidence value", func(t *testing.T) {
		rec := reconcile.Record{{Field: "State", Value: "Stat_X"}}
		res, err := reconcile.Reconcile(quietContext(), rec, stateTaxonomy(), levenshtein(0.8))
		require.NoError(t, err)

		assert.Equal(t, map[string]string{"State": "State_1"}, res.Fields)
		require.Len(t, res.Diagnostics, 1)
		assert.Equal(t, reconcile.Diagnostic{
			Kind:    reconcile.KindValue,
			Pair:    0,
			Message: "Inferred value 'Stat_X' as 'State_1'.",
		}, res.Diagnostics[0])
		assert.Less(t, res.Matches[0].Result.Score, 0.8)
	})

	t.Run("key then value", func(t *testing.T) {
		rec := reconcile.Record{{Field: "Region", Value: "Stat_X"}}
		res, err := reconcile.Reconcile(quietContext(), rec, stateTaxonomy(), levenshtein(0.8))
		require.NoError(t, err)
		assert.Equal(t, []string{
			"Inferred key 'Region' as 'State'.",
			"Inferred value 'Stat_X' as 'State_1'.",
		}, res.Messages())
		assert.Equal(t, "Inferred key 'Region' as 'State'.\nInferred value 'Stat_X' as 'State_1'.\n", res.Text())
	})

	t.Run("clean record has no diagnostics", func(t *testing.T) {
		rec := reconcile.Record{{Field: "State", Value: "State_2"}}
		res, err := reconcile.Reconcile(quietContext(), rec, stateTaxonomy(), reconcile.DefaultConfig())
		require.NoError(t, err)
		assert.Empty(t, res.Diagnostics)
		assert.Empty(t, res.Text())
	})
}

func TestReconcile_LastWriteWins(t *testing.T) {
	rec := reconcile.Record{
		{Field: "State", Value: "State_1"},
		{Field: "Region", Value: "State_3"},
	}
	res, err := reconcile.Reconcile(quietContext(), rec, stateTaxonomy(), reconcile.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"State": "State_3"}, res.Fields)
	assert.Equal(t, []string{"State"}, res.Order)
	assert.Len(t, res.Matches, 2)
	assert.Equal(t, 1, res.Count(reconcile.KindOverwrite))
	assert.Contains(t, res.Messages(), "Field 'State' from pair 0 overwritten: 'State_1' replaced by 'State_3'.")
}

func TestReconcile_PairFailureIsIsolated(t *testing.T) {
	tax := taxonomy.MustNew(
		taxonomy.Field{Name: "Area"},
		taxonomy.Field{Name: "State", Values: []string{"State_1", "State_2"}},
	)
	rec := reconcile.Record{
		{Field: "Area", Value: "Area_29"},
		{Field: "State", Value: "State_2"},
	}

	res, err := reconcile.Reconcile(quietContext(), rec, tax, reconcile.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"State": "State_2"}, res.Fields)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 0, res.Failures[0].Index)
	assert.ErrorIs(t, res.Failures[0].Err, errors.ErrEmptyCandidateSet)
	assert.Equal(t, 1, res.Count(reconcile.KindFailure))
	assert.True(t, res.HasFailures())
}

func TestReconcile_EmptyTaxonomy(t *testing.T) {
	rec := reconcile.Record{{Field: "State", Value: "State_1"}}
	res, err := reconcile.Reconcile(quietContext(), rec, taxonomy.MustNew(), reconcile.DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, res.Fields)
	require.Len(t, res.Failures, 1)
	assert.True(t, errors.IsNoCandidates(res.Failures[0].Err))
}

func TestReconcile_Idempotent(t *testing.T) {
	tax := sampleTaxonomy(t)
	cfg := reconcile.DefaultConfig()

	for _, id := range scenarios.Builtin().IDs() {
		rec, err := scenarios.Builtin().Get(id)
		require.NoError(t, err)

		first, err := reconcile.Reconcile(quietContext(), rec, tax, cfg)
		require.NoError(t, err)

		again, err := reconcile.Reconcile(quietContext(), rec, tax, cfg)
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Errorf("scenario %d: repeated run differs (-first +again):\n%s", id, diff)
		}

		// A corrected record is a fixed point.
		corrected := make(reconcile.Record, 0, len(first.Order))
		for _, f := range first.Order {
			corrected = append(corrected, reconcile.Pair{Field: f, Value: first.Fields[f]})
		}
		second, err := reconcile.Reconcile(quietContext(), corrected, tax, cfg)
		require.NoError(t, err)
		third, err := reconcile.Reconcile(quietContext(), corrected, tax, cfg)
		require.NoError(t, err)

		assert.Equal(t, first.Fields, second.Fields, "scenario %d", id)
		assert.Empty(t, second.Diagnostics, "scenario %d", id)
		if diff := cmp.Diff(second, third); diff != "" {
			t.Errorf("scenario %d: fixed point not stable:\n%s", id, diff)
		}
	}
}

func TestReconcile_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*reconcile.Config)
	}{
		{name: "unknown method", mutate: func(c *reconcile.Config) { c.Method = "soundex" }},
		{name: "threshold above 1", mutate: func(c *reconcile.Config) { c.Threshold = 1.5 }},
		{name: "negative threshold", mutate: func(c *reconcile.Config) { c.Threshold = -0.1 }},
		{name: "zero top_k", mutate: func(c *reconcile.Config) { c.TopK = 0 }},
		{name: "zero workers", mutate: func(c *reconcile.Config) { c.Workers = 0 }},
		{name: "too many workers", mutate: func(c *reconcile.Config) { c.Workers = 1000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := reconcile.DefaultConfig()
			tt.mutate(&cfg)
			require.True(t, errors.IsValidationError(cfg.Validate()))

			res, err := reconcile.Reconcile(quietContext(), reconcile.Record{}, stateTaxonomy(), cfg)
			assert.Nil(t, res)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestReconcile_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(quietContext())
	cancel()

	rec := reconcile.Record{{Field: "State", Value: "State_1"}}
	res, err := reconcile.Reconcile(ctx, rec, stateTaxonomy(), reconcile.DefaultConfig())
	assert.Nil(t, res, "no half-populated record")
	assert.True(t, errors.IsCanceled(err))
}

func TestReconcile_LogsThroughContext(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	tax := taxonomy.MustNew(taxonomy.Field{Name: "Area"}, taxonomy.Field{Name: "State", Values: []string{"State_1"}})
	rec := reconcile.Record{{Field: "Area", Value: "Area_1"}, {Field: "Stat", Value: "State_1"}}
	_, err := reconcile.Reconcile(ctx, rec, tax, reconcile.DefaultConfig())
	require.NoError(t, err)

	assert.True(t, tl.Contains("pair dropped"))
	assert.True(t, tl.Contains("pair resolved"))
	assert.True(t, tl.Contains(`"resolved_field":"State"`))
}

func TestSelfScores(t *testing.T) {
	tax := sampleTaxonomy(t)
	for _, method := range similarity.Methods() {
		scores, err := reconcile.SelfScores(tax, similarity.MustNew(method))
		require.NoError(t, err)
		require.Len(t, scores, tax.Len())
		for field, values := range scores {
			canonical, _ := tax.Values(field)
			assert.Len(t, values, len(canonical))
			for v, s := range values {
				assert.Equal(t, 1.0, s, "%s %s/%s", method, field, v)
			}
		}
	}

	t.Run("does not alias candidate lists", func(t *testing.T) {
		before := tax.Fields()
		_, err := reconcile.SelfScores(tax, similarity.MustNew(similarity.JaroWinkler))
		require.NoError(t, err)
		assert.Equal(t, before, tax.Fields())
	})

	t.Run("empty field and empty taxonomy", func(t *testing.T) {
		scores, err := reconcile.SelfScores(taxonomy.MustNew(taxonomy.Field{Name: "Area"}), similarity.MustNew(similarity.Jaro))
		require.NoError(t, err)
		assert.Empty(t, scores["Area"])

		_, err = reconcile.SelfScores(taxonomy.MustNew(), similarity.MustNew(similarity.Jaro))
		assert.True(t, errors.IsNoCandidates(err))
	})
}
