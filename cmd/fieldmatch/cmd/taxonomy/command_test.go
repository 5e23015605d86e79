package taxonomy

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmatch/internal/cmd/application"
	"github.com/agentstation/fieldmatch/pkg/errors"
	tax "github.com/agentstation/fieldmatch/pkg/taxonomy"
)

func execute(t *testing.T, app application.Application, args ...string) error {
	t.Helper()
	cmd := NewCommand(app)
	cmd.SetArgs(append([]string{}, args...))
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd.ExecuteContext(context.Background())
}

func TestShow(t *testing.T) {
	app := application.NewTestMock(t)
	require.NoError(t, execute(t, app, "show"))

	got, err := tax.Decode(app.Output.Bytes(), "output")
	require.NoError(t, err)
	assert.Equal(t, 11, got.Len())
	assert.Equal(t, "State", got.Names()[0])
}

func TestShow_RefreshAndTable(t *testing.T) {
	app := application.NewTestMock(t)
	app.OutputFormatFunc = func() string { return "table" }
	require.NoError(t, execute(t, app, "show", "--refresh"))

	out := app.Output.String()
	assert.Contains(t, out, "State_1")
	assert.Contains(t, out, "...")
}

func TestCalibrate(t *testing.T) {
	app := application.NewTestMock(t)
	require.NoError(t, execute(t, app, "calibrate"))

	var scores map[string]map[string]float64
	require.NoError(t, json.Unmarshal(app.Output.Bytes(), &scores))
	require.Len(t, scores, 11)
	for field, values := range scores {
		for value, score := range values {
			assert.Equal(t, 1.0, score, "%s/%s", field, value)
		}
	}
}

func TestDiff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "update.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"State":["State_1","State_99"],"Zone":["Zone_1"]}`), 0o600))

	app := application.NewTestMock(t)
	require.NoError(t, execute(t, app, "diff", path))

	var cs tax.Changeset
	require.NoError(t, json.Unmarshal(app.Output.Bytes(), &cs))
	assert.Equal(t, []string{"Zone"}, cs.AddedFields)
	assert.Len(t, cs.RemovedFields, 10)
	require.Len(t, cs.UpdatedFields, 1)
	assert.Equal(t, "State", cs.UpdatedFields[0].Name)
	assert.Equal(t, []string{"State_99"}, cs.UpdatedFields[0].Added)
}

func TestDiff_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		err := execute(t, application.NewTestMock(t), "diff", filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
		var ioErr *errors.IOError
		assert.True(t, errors.As(err, &ioErr))
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`["State"]`), 0o600))
		err := execute(t, application.NewTestMock(t), "diff", path)
		require.Error(t, err)
		assert.True(t, errors.IsDecode(err))
	})
}
