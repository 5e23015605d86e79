package reconcile

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmatch/internal/cmd/application"
	"github.com/agentstation/fieldmatch/pkg/errors"
	rec "github.com/agentstation/fieldmatch/pkg/reconcile"
)

type outcomeJSON struct {
	Index  int `json:"index"`
	Result *struct {
		Fields      map[string]string `json:"fields"`
		Diagnostics []rec.Diagnostic  `json:"diagnostics"`
	} `json:"result"`
	Error string `json:"error"`
}

type batchJSON struct {
	RunID       string        `json:"run_id"`
	ScenarioIDs []int         `json:"scenario_ids"`
	Summary     rec.Summary   `json:"summary"`
	Outcomes    []outcomeJSON `json:"outcomes"`
}

func execute(t *testing.T, app application.Application, args ...string) error {
	t.Helper()
	cmd := NewCommand(app)
	cmd.SetArgs(append([]string{}, args...))
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd.ExecuteContext(context.Background())
}

func TestReconcile_AllScenarios(t *testing.T) {
	app := application.NewTestMock(t)

	require.NoError(t, execute(t, app))

	var got batchJSON
	require.NoError(t, json.Unmarshal(app.Output.Bytes(), &got))
	assert.Empty(t, got.RunID, "history unavailable, nothing saved")
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got.ScenarioIDs)
	assert.Equal(t, 5, got.Summary.Records)
	assert.Equal(t, 5, got.Summary.Succeeded)
	require.Len(t, got.Outcomes, 5)

	last := got.Outcomes[4]
	require.NotNil(t, last.Result)
	assert.Equal(t, map[string]string{"Chain": "Chain_2", "Region": "Region_14"}, last.Result.Fields)
	require.NotEmpty(t, last.Result.Diagnostics)
	assert.Equal(t, "Inferred key 'Caihn' as 'Chain'.", last.Result.Diagnostics[0].Message)
}

func TestReconcile_SubsetIsSaved(t *testing.T) {
	app := application.NewTestMock(t)
	st := app.WithTempHistory(t)

	require.NoError(t, execute(t, app, "3", "4"))

	var got batchJSON
	require.NoError(t, json.Unmarshal(app.Output.Bytes(), &got))
	assert.Equal(t, []int{3, 4}, got.ScenarioIDs)
	require.NotEmpty(t, got.RunID)
	require.Len(t, got.Outcomes, 2)
	assert.Equal(t, 3, got.Outcomes[0].Index)
	assert.Equal(t, 4, got.Outcomes[1].Index)
	assert.Equal(t, "Supplier_1026", got.Outcomes[0].Result.Fields["Supplier"])

	run, err := st.Run(context.Background(), got.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Summary.Records)
	assert.Equal(t, "sample", run.Source)

	stored, err := st.Outcomes(context.Background(), got.RunID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 3, stored[0].Index)
	assert.Equal(t, "Supplier_1026", stored[0].Fields["Supplier"])
	assert.Equal(t, 4, stored[1].Index)
	assert.Equal(t, "Chain_2", stored[1].Fields["Chain"])
}

func TestReconcile_NoSave(t *testing.T) {
	app := application.NewTestMock(t)
	st := app.WithTempHistory(t)

	require.NoError(t, execute(t, app, "--no-save", "0"))

	runs, err := st.Runs(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestReconcile_TableReport(t *testing.T) {
	app := application.NewTestMock(t)
	app.OutputFormatFunc = func() string { return "table" }

	require.NoError(t, execute(t, app, "4"))

	out := app.Output.String()
	assert.Contains(t, out, "Scenario 4:")
	assert.Contains(t, out, "Inferred key 'Caihn' as 'Chain'.")
	assert.Contains(t, out, "1 records (1 ok, 0 failed)")
}

func TestReconcile_Pairs(t *testing.T) {
	app := application.NewTestMock(t)

	require.NoError(t, execute(t, app, "--pair", "Caihn=Chain_2", "--pair", "Region=Region_14"))

	var got rec.Result
	require.NoError(t, json.Unmarshal(app.Output.Bytes(), &got))
	assert.Equal(t, []string{"Chain", "Region"}, got.Order)
	assert.Equal(t, "Chain_2", got.Fields["Chain"])
	assert.Equal(t, []string{"Inferred key 'Caihn' as 'Chain'."}, got.Messages())
}

func TestReconcile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(error) bool
	}{
		{name: "non-numeric id", args: []string{"x"}, check: errors.IsValidationError},
		{name: "unknown id", args: []string{"99"}, check: errors.IsUnknownScenario},
		{name: "pair with ids", args: []string{"--pair", "A=b", "1"}, check: errors.IsValidationError},
		{name: "malformed pair", args: []string{"--pair", "novalue"}, check: errors.IsValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, application.NewTestMock(t), tt.args...)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %T: %v", err, err)
		})
	}
}

func TestReconcile_ClientError(t *testing.T) {
	err := execute(t, &application.Mock{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no client")
}

func TestParsePairs(t *testing.T) {
	got, err := ParsePairs([]string{"State=tate_7", "Area=", "Note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, rec.Record{
		{Field: "State", Value: "tate_7"},
		{Field: "Area", Value: ""},
		{Field: "Note", Value: "a=b"},
	}, got)

	_, err = ParsePairs([]string{"=value"})
	require.Error(t, err)
}
