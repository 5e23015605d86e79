// Package infer implements the infer command.
package infer

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmatch/internal/cmd/application"
	"github.com/agentstation/fieldmatch/internal/cmd/output"
	"github.com/agentstation/fieldmatch/internal/cmd/table"
)

// NewCommand creates the infer command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "infer <field> <value>",
		GroupID: "core",
		Short:   "Resolve one raw field/value pair",
		Long: `Infer resolves a single raw pair to the closest canonical field and value.

A canonical field name is kept and only the value is matched. Otherwise
the value is compared against every field's values and the best field wins.`,
		Example: `  fieldmatch infer Caihn Chain_2
  fieldmatch infer State tate_7 --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			field, value := args[0], args[1]
			res, err := client.Infer(cmd.Context(), field, value)
			if err != nil {
				return err
			}

			app.Logger().Debug().
				Str("field", res.Field).
				Str("value", res.Value).
				Float64("score", res.Score).
				Msg("Inferred pair")

			format := output.DetectFormat(app.OutputFormat())
			return output.Write(app.Out(), format, res, func() output.Data {
				return table.Match(field, value, res)
			})
		},
	}
}
