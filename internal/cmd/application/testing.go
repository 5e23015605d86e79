package application

import (
	"path/filepath"
	"testing"

	"github.com/agentstation/fieldmatch"
	"github.com/agentstation/fieldmatch/internal/embedded"
	"github.com/agentstation/fieldmatch/internal/sources"
	"github.com/agentstation/fieldmatch/internal/store"
	"github.com/agentstation/fieldmatch/pkg/logging"
)

// NewTestMock returns a Mock whose client reconciles against the embedded
// sample taxonomy and whose output format is JSON.
func NewTestMock(t testing.TB, opts ...fieldmatch.Option) *Mock {
	t.Helper()

	opts = append([]fieldmatch.Option{
		fieldmatch.WithSource(&sources.StaticSource{Label: "sample", Data: embedded.Choices}),
		fieldmatch.WithLogger(logging.NewNopLogger()),
	}, opts...)
	client, err := fieldmatch.New(opts...)
	if err != nil {
		t.Fatalf("fieldmatch.New() failed: %v", err)
	}
	t.Cleanup(func() { _ = client.AutoRefreshOff() })

	return &Mock{
		ClientFunc:       func() (fieldmatch.Client, error) { return client, nil },
		OutputFormatFunc: func() string { return "json" },
	}
}

// WithTempHistory makes m open a fresh history database under t.TempDir.
func (m *Mock) WithTempHistory(t testing.TB) *store.Store {
	t.Helper()

	st, err := store.Open(t.Context(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	m.HistoryFunc = func() (*store.Store, error) { return st, nil }
	return st
}
