// Package version implements the version command.
package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmatch/internal/cmd/application"
	"github.com/agentstation/fieldmatch/internal/cmd/output"
)

// Info is the machine-readable version output.
type Info struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
	BuiltBy string `json:"built_by" yaml:"built_by"`
	Go      string `json:"go" yaml:"go"`
}

// NewCommand creates the version command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := Info{
				Version: app.Version(),
				Commit:  app.Commit(),
				Date:    app.Date(),
				BuiltBy: app.BuiltBy(),
				Go:      runtime.Version(),
			}

			format := output.DetectFormat(app.OutputFormat())
			if !format.IsTable() {
				return output.NewFormatter(format).Format(app.Out(), info)
			}

			out := app.Out()
			fmt.Fprintf(out, "fieldmatch %s\n", info.Version)
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				fmt.Fprintf(out, "  commit:   %s\n", info.Commit)
				fmt.Fprintf(out, "  built:    %s\n", info.Date)
				fmt.Fprintf(out, "  built by: %s\n", info.BuiltBy)
				fmt.Fprintf(out, "  go:       %s\n", info.Go)
			}
			return nil
		},
	}
}
