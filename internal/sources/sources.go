// Package sources provides the taxonomy sources behind the choice cache:
// a remote HTTP endpoint, a local file and an in-memory payload. Each source
// only delivers raw bytes; decoding happens in the cache so that fetch and
// decode failures stay distinguishable.
package sources

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/agentstation/fieldmatch/internal/transport"
	"github.com/agentstation/fieldmatch/pkg/constants"
	"github.com/agentstation/fieldmatch/pkg/errors"
)

// HTTPSource fetches the taxonomy document with a GET request.
type HTTPSource struct {
	URL    string
	Client *transport.Client
}

// NewHTTPSource creates an HTTP source using a transport client built from opts.
func NewHTTPSource(url string, opts ...transport.Option) *HTTPSource {
	return &HTTPSource{URL: url, Client: transport.New(opts...)}
}

// Name returns the URL.
func (s *HTTPSource) Name() string {
	return s.URL
}

// Fetch downloads the payload. Non-200 responses, transport errors and
// timeouts are all reported as *errors.FetchError.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = transport.New()
	}

	resp, err := client.Get(ctx, s.URL)
	if err != nil {
		if errors.IsFetch(err) {
			return nil, err
		}
		return nil, errors.NewFetchError(s.URL, "request failed", classify(ctx, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &errors.FetchError{
			Source:     s.URL,
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
		}
	}

	return readCapped(ctx, s.URL, resp.Body)
}

// FileSource reads the taxonomy document from disk.
type FileSource struct {
	Path string
}

// Name returns the path.
func (s *FileSource) Name() string {
	return s.Path
}

// Fetch reads the file.
func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewFetchError(s.Path, "read aborted", classify(ctx, err))
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.NewFetchError(s.Path, "open failed", errors.WrapIO("open", s.Path, err))
	}
	defer func() { _ = f.Close() }()

	return readCapped(ctx, s.Path, f)
}

// StaticSource serves a fixed payload. Useful for embedding and tests.
type StaticSource struct {
	Label string
	Data  []byte
}

// Name returns the label, or "static".
func (s *StaticSource) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

// Fetch returns a copy of the payload.
func (s *StaticSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewFetchError(s.Name(), "read aborted", classify(ctx, err))
	}
	out := make([]byte, len(s.Data))
	copy(out, s.Data)
	return out, nil
}

func readCapped(ctx context.Context, source string, r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, constants.MaxTaxonomyBytes+1))
	if err != nil {
		return nil, errors.NewFetchError(source, "read failed", classify(ctx, err))
	}
	if len(data) > constants.MaxTaxonomyBytes {
		return nil, errors.NewFetchError(source,
			fmt.Sprintf("payload exceeds %d bytes", constants.MaxTaxonomyBytes), nil)
	}
	return data, nil
}

// classify tags deadline and cancellation failures with the matching
// sentinel so callers can test them with errors.IsTimeout / IsCanceled.
func classify(ctx context.Context, err error) error {
	var netErr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded),
		stderrors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", errors.ErrTimeout, err)
	case stderrors.Is(err, context.Canceled), stderrors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %w", errors.ErrCanceled, err)
	default:
		return err
	}
}
