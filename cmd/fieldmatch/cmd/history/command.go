// Package history implements the history command: saved batch runs and
// their outcomes.
package history

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmatch/internal/cmd/application"
	"github.com/agentstation/fieldmatch/internal/cmd/output"
	"github.com/agentstation/fieldmatch/internal/cmd/table"
	"github.com/agentstation/fieldmatch/internal/store"
	"github.com/agentstation/fieldmatch/pkg/constants"
	"github.com/agentstation/fieldmatch/pkg/errors"
)

// RunDetail is a run together with its stored outcomes.
type RunDetail struct {
	Run      *store.Run            `json:"run" yaml:"run"`
	Outcomes []store.StoredOutcome `json:"outcomes" yaml:"outcomes"`
}

// NewCommand creates the history command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history [run-id]",
		GroupID: "management",
		Short:   "List saved runs or show one run",
		Example: `  fieldmatch history
  fieldmatch history --limit 5
  fieldmatch history 3f0c2a9e-6b1d-4f7e-9a55-0d2c8e1b7a40`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.History()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return showRun(cmd, app, st, args[0])
			}

			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}
			if limit < 0 {
				return errors.NewValidationError("limit", limit, "must not be negative")
			}
			runs, err := st.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			format := output.DetectFormat(app.OutputFormat())
			return output.Write(app.Out(), format, runs, func() output.Data {
				return table.Runs(runs)
			})
		},
	}
	cmd.Flags().Int("limit", constants.DefaultHistoryLimit, "maximum number of runs to list")
	return cmd
}

func showRun(cmd *cobra.Command, app application.Application, st *store.Store, id string) error {
	run, err := st.Run(cmd.Context(), id)
	if err != nil {
		return err
	}
	outcomes, err := st.Outcomes(cmd.Context(), id)
	if err != nil {
		return err
	}

	format := output.DetectFormat(app.OutputFormat())
	return output.Write(app.Out(), format, RunDetail{Run: &run, Outcomes: outcomes}, func() output.Data {
		return table.StoredOutcomes(outcomes)
	})
}
