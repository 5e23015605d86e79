package application

import (
	"bytes"
	"io"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmatch"
	"github.com/agentstation/fieldmatch/internal/server"
	"github.com/agentstation/fieldmatch/internal/store"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/scenarios"
)

// Mock is an Application whose behaviour is set per test through the
// function fields. Unset fields return zero values.
type Mock struct {
	ClientFunc       func() (fieldmatch.Client, error)
	CatalogueFunc    func() (*scenarios.Catalogue, error)
	HistoryFunc      func() (*store.Store, error)
	ServerConfigFunc func() server.Config
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string

	// Output collects everything commands write to Out.
	Output bytes.Buffer
}

// Client implements Application.
func (m *Mock) Client() (fieldmatch.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc()
	}
	return nil, errors.NewConfigError("mock", "no client", nil)
}

// Catalogue implements Application.
func (m *Mock) Catalogue() (*scenarios.Catalogue, error) {
	if m.CatalogueFunc != nil {
		return m.CatalogueFunc()
	}
	return scenarios.Builtin(), nil
}

// History implements Application.
func (m *Mock) History() (*store.Store, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc()
	}
	return nil, errors.NewConfigError("mock", "history disabled", nil)
}

// ServerConfig implements Application.
func (m *Mock) ServerConfig() server.Config {
	if m.ServerConfigFunc != nil {
		return m.ServerConfigFunc()
	}
	return server.DefaultConfig()
}

// Logger implements Application.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat implements Application.
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Out implements Application.
func (m *Mock) Out() io.Writer {
	return &m.Output
}

// Version implements Application.
func (m *Mock) Version() string { return "dev" }

// Commit implements Application.
func (m *Mock) Commit() string { return "unknown" }

// Date implements Application.
func (m *Mock) Date() string { return "unknown" }

// BuiltBy implements Application.
func (m *Mock) BuiltBy() string { return "test" }

var _ Application = (*Mock)(nil)
