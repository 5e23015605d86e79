package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmatch/cmd/fieldmatch/cmd/history"
	"github.com/agentstation/fieldmatch/cmd/fieldmatch/cmd/infer"
	"github.com/agentstation/fieldmatch/cmd/fieldmatch/cmd/reconcile"
	"github.com/agentstation/fieldmatch/cmd/fieldmatch/cmd/scenarios"
	"github.com/agentstation/fieldmatch/cmd/fieldmatch/cmd/serve"
	"github.com/agentstation/fieldmatch/cmd/fieldmatch/cmd/taxonomy"
	"github.com/agentstation/fieldmatch/cmd/fieldmatch/cmd/version"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(reconcile.NewCommand(a))
	rootCmd.AddCommand(infer.NewCommand(a))
	rootCmd.AddCommand(taxonomy.NewCommand(a))
	rootCmd.AddCommand(serve.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(scenarios.NewCommand(a))
	rootCmd.AddCommand(history.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(version.NewCommand(a))
}
