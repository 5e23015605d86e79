// Package reconcile implements the reconcile command: correct the scenario
// catalogue, or one ad-hoc record, against the taxonomy.
package reconcile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmatch/internal/cmd/application"
	"github.com/agentstation/fieldmatch/internal/cmd/output"
	"github.com/agentstation/fieldmatch/internal/cmd/table"
	"github.com/agentstation/fieldmatch/internal/store"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/logging"
	rec "github.com/agentstation/fieldmatch/pkg/reconcile"
)

// BatchResult is the machine-readable output of a scenario batch.
type BatchResult struct {
	RunID       string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	ScenarioIDs []int         `json:"scenario_ids" yaml:"scenario_ids"`
	Summary     rec.Summary   `json:"summary" yaml:"summary"`
	Outcomes    []rec.Outcome `json:"outcomes" yaml:"outcomes"`
}

// NewCommand creates the reconcile command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reconcile [scenario-id...]",
		GroupID: "core",
		Short:   "Reconcile scenarios or a record against the taxonomy",
		Long: `Reconcile corrects field names and values against the canonical taxonomy
and reports every correction.

Without arguments every scenario in the catalogue is reconciled. Scenario
ids select a subset. --pair reconciles one ad-hoc record instead.

Batches are saved to the run history unless --no-save is given or --db is
empty.`,
		Example: `  fieldmatch reconcile                                   # All scenarios
  fieldmatch reconcile 3 4                               # Scenarios 3 and 4
  fieldmatch reconcile --pair Caihn=Chain_2 --pair Region=Region_14
  fieldmatch reconcile --workers 4 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := cmd.Flags().GetStringArray("pair")
			if err != nil {
				return err
			}
			if len(pairs) > 0 {
				if len(args) > 0 {
					return errors.NewValidationError("pair", pairs, "cannot combine --pair with scenario ids")
				}
				return reconcileRecord(cmd, app, pairs)
			}

			noSave, err := cmd.Flags().GetBool("no-save")
			if err != nil {
				return err
			}
			return reconcileScenarios(cmd, app, args, !noSave)
		},
	}

	cmd.Flags().StringArray("pair", nil, "raw Field=Value pair of an ad-hoc record (repeatable)")
	cmd.Flags().Bool("no-save", false, "do not save the batch to the run history")

	return cmd
}

func reconcileRecord(cmd *cobra.Command, app application.Application, raw []string) error {
	record, err := ParsePairs(raw)
	if err != nil {
		return err
	}

	client, err := app.Client()
	if err != nil {
		return err
	}
	res, err := client.Reconcile(cmd.Context(), record)
	if err != nil {
		return err
	}

	format := output.DetectFormat(app.OutputFormat())
	if err := output.Write(app.Out(), format, res, func() output.Data { return table.Result(res) }); err != nil {
		return err
	}
	if format.IsTable() {
		_, err = fmt.Fprint(app.Out(), res.Text())
	}
	return err
}

func reconcileScenarios(cmd *cobra.Command, app application.Application, args []string, save bool) error {
	logger := app.Logger()

	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	client, err := app.Client()
	if err != nil {
		return err
	}
	cat, err := app.Catalogue()
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		if cat, err = cat.Subset(ids...); err != nil {
			return err
		}
	} else {
		ids = cat.IDs()
	}

	run := store.NewRun(client.Cache().Source().Name(), cat.Source(), client.Config())
	ctx := logging.WithRunID(cmd.Context(), run.ID)

	outcomes, err := client.ReconcileAll(ctx, cat)
	if err != nil {
		return err
	}
	run.Finish(outcomes)

	result := BatchResult{ScenarioIDs: ids, Summary: run.Summary, Outcomes: outcomes}
	if save {
		if history, err := app.History(); err != nil {
			logger.Debug().Err(err).Msg("Run history unavailable, not saving")
		} else if err := history.SaveRun(ctx, run); err != nil {
			return err
		} else {
			result.RunID = run.ID
		}
	}

	logger.Info().
		Str("run_id", run.ID).
		Int("records", run.Summary.Records).
		Int("failed", run.Summary.Failed).
		Dur("took", run.Duration()).
		Msg("Reconciled scenarios")

	format := output.DetectFormat(app.OutputFormat())
	if err := output.Write(app.Out(), format, result, func() output.Data { return table.Outcomes(outcomes) }); err != nil {
		return err
	}
	if format.IsTable() {
		printReport(app, outcomes, result)
	}
	return nil
}

// printReport writes every diagnostic under its scenario id, then the summary.
func printReport(app application.Application, outcomes []rec.Outcome, result BatchResult) {
	out := app.Out()
	for _, o := range outcomes {
		if o.Result == nil || len(o.Result.Diagnostics) == 0 {
			continue
		}
		fmt.Fprintf(out, "\nScenario %d:\n", o.Index)
		for _, d := range o.Result.Diagnostics {
			fmt.Fprintf(out, "  %s\n", d.Message)
		}
	}
	fmt.Fprintf(out, "\n%s\n", result.Summary)
	if result.RunID != "" {
		fmt.Fprintf(out, "Saved run %s\n", result.RunID)
	}
}

// ParsePairs turns Field=Value arguments into a record, keeping their order.
// The value may be empty; the field may not.
func ParsePairs(raw []string) (rec.Record, error) {
	record := make(rec.Record, 0, len(raw))
	for _, p := range raw {
		field, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(field) == "" {
			return nil, errors.NewValidationError("pair", p, "expected Field=Value")
		}
		record = append(record, rec.Pair{Field: field, Value: value})
	}
	return record, nil
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil {
			return nil, errors.NewValidationError("id", a, "scenario id must be an integer")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
