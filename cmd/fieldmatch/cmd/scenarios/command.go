// Package scenarios implements the scenarios command.
package scenarios

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmatch/internal/cmd/application"
	"github.com/agentstation/fieldmatch/internal/cmd/output"
	"github.com/agentstation/fieldmatch/internal/cmd/table"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/reconcile"
)

// Scenario is one catalogue entry in machine-readable output.
type Scenario struct {
	ID    int              `json:"id" yaml:"id"`
	Pairs reconcile.Record `json:"pairs" yaml:"pairs"`
}

// NewCommand creates the scenarios command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scenarios",
		GroupID: "management",
		Short:   "Inspect the scenario catalogue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newListCommand(app))
	cmd.AddCommand(newShowCommand(app))
	return cmd
}

func newListCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List scenarios",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cat, err := app.Catalogue()
			if err != nil {
				return err
			}
			ids := cat.IDs()
			return render(app, ids, func(id int) (reconcile.Record, error) { return cat.Get(id) })
		},
	}
}

func newShowCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.NewValidationError("id", args[0], "scenario id must be an integer")
			}
			cat, err := app.Catalogue()
			if err != nil {
				return err
			}
			return render(app, []int{id}, func(id int) (reconcile.Record, error) { return cat.Get(id) })
		},
	}
}

func render(app application.Application, ids []int, get func(int) (reconcile.Record, error)) error {
	list := make([]Scenario, 0, len(ids))
	records := make([]reconcile.Record, 0, len(ids))
	for _, id := range ids {
		r, err := get(id)
		if err != nil {
			return err
		}
		list = append(list, Scenario{ID: id, Pairs: r})
		records = append(records, r)
	}

	format := output.DetectFormat(app.OutputFormat())
	return output.Write(app.Out(), format, list, func() output.Data {
		return table.Scenarios(ids, records)
	})
}
