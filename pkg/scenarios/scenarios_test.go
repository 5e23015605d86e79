package scenarios_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmatch/pkg/constants"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/reconcile"
	"github.com/agentstation/fieldmatch/pkg/scenarios"
)

func TestBuiltin(t *testing.T) {
	cat := scenarios.Builtin()
	require.Equal(t, 5, cat.Count())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, cat.IDs())
	assert.Equal(t, "builtin", cat.Source())

	want := map[int]reconcile.Record{
		0: {{Field: "State", Value: "tate_7"}, {Field: "Pack_Size", Value: "PackSize_3"}, {Field: "Category_Name", Value: "Categor_name_5"}},
		1: {{Field: "Sub_Category_Name", Value: "Sub_Category_Name_45"}, {Field: "Area", Value: "Area_29"}, {Field: "SaleChanel", Value: "SalesChane1"}},
		2: {{Field: "asdaSub_Category_Name", Value: "Sub_Category_Name49"}, {Field: "Store", Value: "Stre_304"}},
		3: {{Field: "Suplier", Value: "Supplier_1026"}, {Field: "Promotion", Value: "Promotion_2"}},
		4: {{Field: "Caihn", Value: "Chain_2"}, {Field: "Region", Value: "Region_14"}},
	}
	for id, rec := range want {
		got, err := cat.Get(id)
		require.NoError(t, err)
		assert.Equal(t, rec, got, "scenario %d", id)
	}
	assert.Same(t, cat, scenarios.Builtin())
}

func TestGet_UnknownScenario(t *testing.T) {
	cat := scenarios.Builtin()
	for _, id := range []int{-1, 5, 100} {
		_, err := cat.Get(id)
		require.Error(t, err)
		assert.True(t, errors.IsUnknownScenario(err))
		assert.True(t, errors.IsNotFound(err))

		var use *errors.UnknownScenarioError
		require.ErrorAs(t, err, &use)
		assert.Equal(t, id, use.ID)
		assert.Equal(t, 5, use.Count)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	cat := scenarios.New("test", reconcile.Record{{Field: "State", Value: "State_1"}})
	rec, err := cat.Get(0)
	require.NoError(t, err)
	rec[0].Value = "mutated"

	again, err := cat.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "State_1", again[0].Value)
}

func TestSubset(t *testing.T) {
	sub, err := scenarios.Builtin().Subset(4, 1)
	require.NoError(t, err)
	require.Equal(t, 2, sub.Count())
	rec, _ := sub.Get(0)
	assert.Equal(t, "Caihn", rec[0].Field)
	assert.Equal(t, 4, sub.ID(0))
	assert.Equal(t, 1, sub.ID(1))

	nested, err := sub.Subset(1)
	require.NoError(t, err)
	assert.Equal(t, 1, nested.ID(0))

	assert.Equal(t, 3, scenarios.Builtin().ID(3))

	_, err = scenarios.Builtin().Subset(9)
	assert.True(t, errors.IsUnknownScenario(err))
}

func TestLoad(t *testing.T) {
	files := map[string]string{
		"cat.yaml": `
scenarios:
  - id: 1
    pairs:
      - {field: Region, value: Region_14}
  - id: 0
    pairs:
      - {field: Caihn, value: Chain_2}
      - {field: Store, value: Stre_304}
`,
		"cat.json": `{"scenarios": [
  {"id": 0, "pairs": [{"field": "Caihn", "value": "Chain_2"}, {"field": "Store", "value": "Stre_304"}]},
  {"id": 1, "pairs": [{"field": "Region", "value": "Region_14"}]}
]}`,
		"cat.toml": `
[[scenarios]]
id = 0

[[scenarios.pairs]]
field = "Caihn"
value = "Chain_2"

[[scenarios.pairs]]
field = "Store"
value = "Stre_304"

[[scenarios]]
id = 1

[[scenarios.pairs]]
field = "Region"
value = "Region_14"
`,
	}

	dir := t.TempDir()
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), constants.FilePermissions))

			cat, err := scenarios.Load(path)
			require.NoError(t, err)
			require.Equal(t, 2, cat.Count())

			first, _ := cat.Get(0)
			assert.Equal(t, reconcile.Record{{Field: "Caihn", Value: "Chain_2"}, {Field: "Store", Value: "Stre_304"}}, first)
			second, _ := cat.Get(1)
			assert.Equal(t, reconcile.Record{{Field: "Region", Value: "Region_14"}}, second)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		format  scenarios.Format
		data    string
		wantMsg string
	}{
		{name: "gap", format: scenarios.FormatYAML, data: "scenarios:\n  - id: 0\n  - id: 2\n", wantMsg: "without gaps"},
		{name: "repeat", format: scenarios.FormatJSON, data: `{"scenarios":[{"id":0},{"id":0}]}`, wantMsg: "found 0 at position 1"},
		{name: "missing id", format: scenarios.FormatJSON, data: `{"scenarios":[{"pairs":[]}]}`, wantMsg: "without id"},
		{name: "unknown key", format: scenarios.FormatJSON, data: `{"records":[]}`},
		{name: "bad yaml", format: scenarios.FormatYAML, data: "scenarios: [\n"},
		{name: "bad toml", format: scenarios.FormatTOML, data: "[[scenarios]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scenarios.Parse([]byte(tt.data), tt.format, "test")
			require.Error(t, err)
			assert.True(t, errors.IsDecode(err), "got %v", err)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := scenarios.Load("catalogue.csv")
	assert.True(t, errors.IsValidationError(err))

	_, err = scenarios.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestParse_Empty(t *testing.T) {
	cat, err := scenarios.Parse([]byte(`{"scenarios": []}`), scenarios.FormatJSON, "empty")
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Count())
	assert.Empty(t, cat.IDs())
}
