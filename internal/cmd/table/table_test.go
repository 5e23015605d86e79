package table

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmatch/internal/cmd/emoji"
	"github.com/agentstation/fieldmatch/pkg/matcher"
	"github.com/agentstation/fieldmatch/pkg/reconcile"
	"github.com/agentstation/fieldmatch/pkg/taxonomy"
)

func TestTaxonomy_TruncatesUnlessWide(t *testing.T) {
	tax := taxonomy.MustNew(
		taxonomy.Field{Name: "Area", Values: []string{"Area_1", "Area_2", "Area_3", "Area_4", "Area_5"}},
		taxonomy.Field{Name: "Zone", Values: nil},
	)

	narrow := Taxonomy(tax, false)
	require.Len(t, narrow.Rows, 2)
	assert.Equal(t, []string{"Area", "5", "Area_1, Area_2, Area_3, Area_4, ..."}, narrow.Rows[0])
	assert.Equal(t, []string{"Zone", "0", ""}, narrow.Rows[1])

	wide := Taxonomy(tax, true)
	assert.Equal(t, "Area_1, Area_2, Area_3, Area_4, Area_5", wide.Rows[0][2])
}

func TestMatch_ShortlistSkipsWinner(t *testing.T) {
	data := Match("Caihn", "Chain_2", matcher.Result{
		Field: "Chain", Value: "Chain_2", Score: 1, OriginalField: "Caihn",
		Candidates: []matcher.Candidate{{Value: "Chain_2", Score: 1}, {Value: "Chain_1", Score: 0.94}},
	})
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"Caihn=Chain_2", "Chain", "Chain_2", "1.000", emoji.Success}, data.Rows[0])
	assert.Equal(t, "Chain_1", data.Rows[1][2])
}

func TestResult_OrdersByIndex(t *testing.T) {
	res := &reconcile.Result{
		Matches: []reconcile.Match{
			{Index: 0, Pair: reconcile.Pair{Field: "Caihn", Value: "Chain_2"}, Result: matcher.Result{Field: "Chain", Value: "Chain_2", Score: 1, OriginalField: "Caihn"}},
			{Index: 2, Pair: reconcile.Pair{Field: "State", Value: "tate_7"}, Result: matcher.Result{Field: "State", Value: "State_7", Score: 0.8, LowConfidence: true}},
		},
		Failures: []reconcile.PairFailure{{Index: 1, Pair: reconcile.Pair{Field: "X", Value: "y"}, Err: errors.New("no candidates")}},
	}

	data := Result(res)
	require.Len(t, data.Rows, 3)
	assert.Equal(t, emoji.Info, data.Rows[0][6])
	assert.Equal(t, emoji.Error, data.Rows[1][6])
	assert.Equal(t, emoji.Warning, data.Rows[2][6])
}

func TestOutcomes_UsesScenarioIDs(t *testing.T) {
	ok := &reconcile.Result{
		Fields: map[string]string{"Chain": "Chain_2"},
		Order:  []string{"Chain"},
		Diagnostics: []reconcile.Diagnostic{
			{Kind: reconcile.KindKey, Message: "Inferred key 'Caihn' as 'Chain'."},
		},
	}
	data := Outcomes([]reconcile.Outcome{
		{Index: 4, Result: ok},
		{Index: 7, Err: errors.New("boom")},
	})

	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"4", "Chain=Chain_2", "1", "0", "0", emoji.Success}, data.Rows[0])
	assert.Equal(t, "7", data.Rows[1][0])
	assert.Equal(t, emoji.Error+" boom", data.Rows[1][5])
}

func TestChangeset(t *testing.T) {
	data := Changeset(&taxonomy.Changeset{
		AddedFields:   []string{"Zone"},
		RemovedFields: []string{"Area"},
		UpdatedFields: []taxonomy.FieldUpdate{{Name: "State", Added: []string{"State_99"}}},
	})
	assert.Equal(t, [][]string{
		{"+ field", "Zone", ""},
		{"- field", "Area", ""},
		{"+ values", "State", "State_99"},
	}, data.Rows)
}
