package app

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/agentstation/fieldmatch/internal/cmd/output"
)

// flagKeys maps flag names to config keys where they differ beyond
// dashes and underscores.
var flagKeys = map[string]string{
	"url":       "choices_url",
	"file":      "choices_file",
	"auth":      "choices_auth",
	"token":     "choices_token",
	"scenarios": "scenarios_file",
}

// Execute runs the fieldmatch CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "fieldmatch",
		Short:   "Reconcile noisy field/value records against a canonical taxonomy",
		Version: a.version,
		Long: `fieldmatch corrects misspelled field names and values by matching them
against a canonical taxonomy with approximate string similarity.

The taxonomy is a JSON object of field names to allowed values, read from
--url or --file. Without either, an embedded sample taxonomy is used.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "management", Title: "Management Commands:"})

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.fieldmatch.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("format", "o", "", "output format: table, json, yaml, wide")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.String("log-file", "", "also write logs to this file, overwritten each run")
	flags.String("log-file-level", "debug", "minimum level written to --log-file")

	flags.String("url", "", "taxonomy URL")
	flags.String("file", "", "taxonomy JSON file (wins over --url)")
	flags.String("auth", "bearer", "taxonomy auth scheme: bearer, header:<name>, query:<param>")
	flags.String("token", "", "taxonomy auth token")
	flags.Duration("cache-ttl", 0, "how long a fetched taxonomy stays valid")
	flags.Duration("fetch-timeout", 0, "timeout for one taxonomy fetch")
	flags.String("method", "", "similarity metric: damerau_levenshtein, jaro, jaro_winkler, levenshtein, osa")
	flags.Float64("threshold", 0, "confidence threshold in [0, 1]")
	flags.Int("top-k", 0, "ranked shortlist size per match")
	flags.Int("workers", 0, "records reconciled at once")
	flags.Bool("case-insensitive", false, "compare case-folded strings")
	flags.String("scenarios", "", "scenario catalogue file (.yaml, .json, .toml)")
	flags.String("db", "", "run history database (empty disables history)")

	rootCmd.SetVersionTemplate("fieldmatch {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs. Flags the user set are
// bound over environment and config file values, then config and logger
// are rebuilt.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed || bindErr != nil {
			return
		}
		bindErr = a.viper.BindPFlag(configKey(f.Name), f)
	})
	if bindErr != nil {
		return bindErr
	}

	if cmd.Flags().Changed("config") {
		if err := readConfigFile(a.viper); err != nil {
			return err
		}
	}

	a.config = configFromViper(a.viper)
	if _, err := output.ParseFormat(a.config.Format); err != nil {
		return err
	}

	logger := NewLogger(a.config)
	a.logger = &logger

	return nil
}

func configKey(flag string) string {
	if key, ok := flagKeys[flag]; ok {
		return key
	}
	return strings.ReplaceAll(flag, "-", "_")
}

// ExitOnError prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
