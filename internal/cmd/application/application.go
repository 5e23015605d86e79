// Package application defines what fieldmatch commands need from the CLI
// application, so commands can be tested against a Mock.
//
// Usage in commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            client, err := app.Client()
//	            if err != nil {
//	                return err
//	            }
//	            tax, err := client.Taxonomy(cmd.Context())
//	            // ...
//	        },
//	    }
//	}
package application

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmatch"
	"github.com/agentstation/fieldmatch/internal/server"
	"github.com/agentstation/fieldmatch/internal/store"
	"github.com/agentstation/fieldmatch/pkg/scenarios"
)

// Application provides the dependencies commands use. All methods must be
// safe for concurrent use.
type Application interface {
	// Client returns the fieldmatch client, creating it on first use.
	Client() (fieldmatch.Client, error)

	// Catalogue returns the configured scenario catalogue, or the built-in one.
	Catalogue() (*scenarios.Catalogue, error)

	// History opens the run history database on first use.
	History() (*store.Store, error)

	// ServerConfig returns server settings from config file and environment.
	// Command flags override them.
	ServerConfig() server.Config

	// Logger returns the configured logger.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format.
	OutputFormat() string

	// Out is where command output is written.
	Out() io.Writer

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
