package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/fieldmatch/pkg/logging"
)

func TestContextFunctions(t *testing.T) {
	t.Run("FromContext falls back to default", func(t *testing.T) {
		assert.Equal(t, logging.Default(), logging.FromContext(context.Background()))
	})

	t.Run("WithLogger round trips", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		assert.Equal(t, tl.Logger, logging.FromContext(ctx))
	})

	t.Run("WithRunID tags logger and context", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		ctx = logging.WithRunID(ctx, "run-123")

		assert.Equal(t, "run-123", logging.RunID(ctx))
		logging.FromContext(ctx).Info().Msg("batch started")
		assert.True(t, tl.Contains(`"run_id":"run-123"`))
	})

	t.Run("WithScenario and WithSource add fields", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		ctx = logging.WithScenario(ctx, 3)
		ctx = logging.WithSource(ctx, "https://example.com/choices.json")

		logging.FromContext(ctx).Debug().Msg("pair reconciled")
		assert.True(t, tl.Contains(`"scenario":3`))
		assert.True(t, tl.Contains(`"source":"https://example.com/choices.json"`))
		assert.Len(t, tl.Lines(), 1)
	})

	t.Run("RunID empty without value", func(t *testing.T) {
		assert.Empty(t, logging.RunID(context.Background()))
	})
}
