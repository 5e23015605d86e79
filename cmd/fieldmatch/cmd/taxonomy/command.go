// Package taxonomy implements the taxonomy command and its subcommands.
package taxonomy

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmatch/internal/cmd/application"
	"github.com/agentstation/fieldmatch/internal/cmd/output"
	"github.com/agentstation/fieldmatch/internal/cmd/table"
	"github.com/agentstation/fieldmatch/pkg/errors"
	tax "github.com/agentstation/fieldmatch/pkg/taxonomy"
)

// NewCommand creates the taxonomy command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "taxonomy",
		GroupID: "core",
		Short:   "Inspect the canonical taxonomy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newShowCommand(app))
	cmd.AddCommand(newCalibrateCommand(app))
	cmd.AddCommand(newDiffCommand(app))

	return cmd
}

func newShowCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show fields and values",
		Example: `  fieldmatch taxonomy show
  fieldmatch taxonomy show --format wide
  fieldmatch taxonomy show --refresh --url https://example.com/field_options.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			refresh, err := cmd.Flags().GetBool("refresh")
			if err != nil {
				return err
			}

			client, err := app.Client()
			if err != nil {
				return err
			}
			if refresh {
				if _, err := client.Refresh(cmd.Context()); err != nil {
					return err
				}
			}
			t, err := client.Taxonomy(cmd.Context())
			if err != nil {
				return err
			}

			format := output.DetectFormat(app.OutputFormat())
			return output.Write(app.Out(), format, t, func() output.Data {
				return table.Taxonomy(t, format == output.FormatWide)
			})
		},
	}
	cmd.Flags().Bool("refresh", false, "refetch the taxonomy even if it is cached")
	return cmd
}

func newCalibrateCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "calibrate",
		Short: "Score every value against itself",
		Long: `Calibrate scores every canonical value against itself with the configured
metric. Every score should be 1; anything lower means the metric does not
treat identical strings as identical under the current options.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			t, err := client.Taxonomy(cmd.Context())
			if err != nil {
				return err
			}
			scores, err := client.SelfScores(cmd.Context())
			if err != nil {
				return err
			}

			format := output.DetectFormat(app.OutputFormat())
			return output.Write(app.Out(), format, scores, func() output.Data {
				return table.SelfScores(t, scores)
			})
		},
	}
}

func newDiffCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <file>",
		Short: "Compare the taxonomy with a local taxonomy file",
		Example: `  fieldmatch taxonomy diff field_options.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return errors.WrapIO("read", path, err)
			}
			updated, err := tax.Decode(data, path)
			if err != nil {
				return err
			}

			client, err := app.Client()
			if err != nil {
				return err
			}
			current, err := client.Taxonomy(cmd.Context())
			if err != nil {
				return err
			}

			changes := tax.Diff(current, updated)
			format := output.DetectFormat(app.OutputFormat())
			if format.IsTable() && !changes.HasChanges() {
				_, err := fmt.Fprintln(app.Out(), "No changes")
				return err
			}
			return output.Write(app.Out(), format, changes, func() output.Data {
				return table.Changeset(changes)
			})
		},
	}
}
