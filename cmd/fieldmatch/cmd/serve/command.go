// Package serve implements the serve command, which runs the REST API.
package serve

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmatch/internal/cmd/application"
	"github.com/agentstation/fieldmatch/internal/server"
	"github.com/agentstation/fieldmatch/internal/store"
)

// NewCommand creates the serve command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		GroupID: "core",
		Short:   "Start the REST API server",
		Long: `Serve exposes inference, reconciliation, the scenario catalogue and the run
history over HTTP under /api/v1. The OpenAPI document is served at
/api/v1/openapi.json and /api/v1/openapi.yaml.

Setting --api-key (or FIELDMATCH_API_KEY) requires that key on every
request except health checks.`,
		Example: `  fieldmatch serve
  fieldmatch serve --listen 0.0.0.0:9090 --rate-limit 0
  fieldmatch serve --url https://example.com/field_options.json --auto-refresh 10m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noHistory, err := cmd.Flags().GetBool("no-history")
			if err != nil {
				return err
			}
			warm, err := cmd.Flags().GetBool("warm")
			if err != nil {
				return err
			}
			return run(cmd, app, !noHistory, warm)
		},
	}

	cmd.Flags().String("listen", "", "address to listen on (default :8080)")
	cmd.Flags().String("api-key", "", "require this API key")
	cmd.Flags().Int("rate-limit", 0, "requests per minute per client, 0 disables (default 100)")
	cmd.Flags().StringSlice("cors-origins", nil, "enable CORS for these origins (* for any)")
	cmd.Flags().Duration("auto-refresh", 0, "refresh the taxonomy in the background at this interval")
	cmd.Flags().Bool("no-history", false, "do not expose or write the run history")
	cmd.Flags().Bool("warm", false, "fetch the taxonomy before accepting requests")

	return cmd
}

func run(cmd *cobra.Command, app application.Application, withHistory, warm bool) error {
	logger := app.Logger()
	ctx := cmd.Context()

	client, err := app.Client()
	if err != nil {
		return err
	}
	if warm {
		if _, err := client.Taxonomy(ctx); err != nil {
			return err
		}
	}

	cat, err := app.Catalogue()
	if err != nil {
		return err
	}

	var history *store.Store
	if withHistory {
		if history, err = app.History(); err != nil {
			logger.Warn().Err(err).Msg("Run history unavailable")
			history = nil
		}
	}

	srv, err := server.New(client, cat, history, app.ServerConfig(), logger)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}
