package version

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmatch/internal/cmd/application"
)

func TestVersion_Table(t *testing.T) {
	app := &application.Mock{}
	cmd := NewCommand(app)
	cmd.Flags().Bool("verbose", false, "")
	cmd.SetArgs([]string{"--verbose"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	out := app.Output.String()
	assert.Contains(t, out, "fieldmatch dev")
	assert.Contains(t, out, "built by: test")
}

func TestVersion_JSON(t *testing.T) {
	app := &application.Mock{OutputFormatFunc: func() string { return "json" }}
	cmd := NewCommand(app)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	var info Info
	require.NoError(t, json.Unmarshal(app.Output.Bytes(), &info))
	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, "unknown", info.Commit)
	assert.NotEmpty(t, info.Go)
}
