// Package app provides the application context and dependency management
// for the fieldmatch CLI: configuration, logging, and the lazily created
// client, scenario catalogue and run history shared by all commands.
package app

import (
	"context"
	"io"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/agentstation/fieldmatch"
	"github.com/agentstation/fieldmatch/internal/cmd/application"
	"github.com/agentstation/fieldmatch/internal/embedded"
	"github.com/agentstation/fieldmatch/internal/server"
	"github.com/agentstation/fieldmatch/internal/sources"
	"github.com/agentstation/fieldmatch/internal/store"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/scenarios"
)

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// SampleSource labels the embedded taxonomy used when no source is configured.
const SampleSource = "sample"

// App represents the fieldmatch application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	viper  *viper.Viper
	config *Config
	logger *zerolog.Logger
	out    io.Writer

	// Lazy-initialized dependencies
	mu        sync.Mutex
	client    fieldmatch.Client
	catalogue *scenarios.Catalogue
	history   *store.Store
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		viper:   viper.New(),
		out:     os.Stdout,
	}

	config, err := LoadConfig(app.viper)
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the --format value.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Out returns the command output writer.
func (a *App) Out() io.Writer {
	return a.out
}

// Client returns the fieldmatch client, creating it on first use.
func (a *App) Client() (fieldmatch.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	client, err := fieldmatch.New(a.clientOptions()...)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// clientOptions builds client options from the configuration. A file wins
// over a URL; with neither the embedded sample taxonomy is used.
func (a *App) clientOptions() []fieldmatch.Option {
	c := a.config
	opts := []fieldmatch.Option{
		fieldmatch.WithLogger(a.logger),
		fieldmatch.WithTTL(c.CacheTTL),
		fieldmatch.WithFetchTimeout(c.FetchTimeout),
		fieldmatch.WithAutoRefresh(c.AutoRefresh),
		fieldmatch.WithMethod(c.Method),
		fieldmatch.WithThreshold(c.Threshold),
		fieldmatch.WithTopK(c.TopK),
		fieldmatch.WithWorkers(c.Workers),
		fieldmatch.WithCaseInsensitive(c.CaseInsensitive),
	}

	switch {
	case c.ChoicesFile != "":
		opts = append(opts, fieldmatch.WithFile(c.ChoicesFile))
	case c.ChoicesURL != "":
		opts = append(opts, fieldmatch.WithURL(c.ChoicesURL))
		if c.ChoicesToken != "" {
			opts = append(opts, fieldmatch.WithAuth(c.ChoicesAuth, c.ChoicesToken))
		}
	default:
		a.logger.Debug().Msg("No taxonomy source configured, using the embedded sample")
		opts = append(opts, fieldmatch.WithSource(&sources.StaticSource{
			Label: SampleSource,
			Data:  embedded.Choices,
		}))
	}
	return opts
}

// Catalogue returns the scenario catalogue from --scenarios, or the
// built-in one.
func (a *App) Catalogue() (*scenarios.Catalogue, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.catalogue != nil {
		return a.catalogue, nil
	}
	if a.config.ScenariosFile == "" {
		a.catalogue = scenarios.Builtin()
		return a.catalogue, nil
	}

	cat, err := scenarios.Load(a.config.ScenariosFile)
	if err != nil {
		return nil, err
	}
	a.catalogue = cat
	return cat, nil
}

// History opens the run history database on first use. An empty --db
// disables history.
func (a *App) History() (*store.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.history != nil {
		return a.history, nil
	}
	if a.config.DB == "" {
		return nil, errors.NewConfigError("db", "run history is disabled", nil)
	}

	st, err := store.Open(context.Background(), a.config.DB)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("path", st.Path()).Msg("Opened run history")
	a.history = st
	return st, nil
}

// ServerConfig returns server settings from the configuration.
func (a *App) ServerConfig() server.Config {
	cfg := server.DefaultConfig()
	if host, port, err := net.SplitHostPort(a.config.Listen); err == nil {
		cfg.Host = host
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if a.config.APIKey != "" {
		cfg.AuthEnabled = true
		cfg.APIKey = a.config.APIKey
	}
	cfg.RateLimit = a.config.RateLimit
	if len(a.config.CORSOrigins) > 0 {
		cfg.CORSEnabled = true
		cfg.CORSOrigins = a.config.CORSOrigins
	}
	return cfg
}

// Shutdown stops background refreshes and closes the history database.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	client, history := a.client, a.history
	a.history = nil
	a.mu.Unlock()

	var errs []error
	if client != nil {
		if err := client.AutoRefreshOff(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop auto refresh during shutdown")
			errs = append(errs, err)
		}
	}
	if history != nil {
		if err := history.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom client (useful for testing).
func WithClient(client fieldmatch.Client) Option {
	return func(a *App) error {
		a.client = client
		return nil
	}
}

// WithOutput redirects command output.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}
