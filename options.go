package fieldmatch

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmatch/internal/sources"
	"github.com/agentstation/fieldmatch/internal/transport"
	"github.com/agentstation/fieldmatch/pkg/choices"
	"github.com/agentstation/fieldmatch/pkg/constants"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/reconcile"
	"github.com/agentstation/fieldmatch/pkg/similarity"
)

// Option configures a Client.
type Option func(*options) error

type options struct {
	source       choices.Source
	url          string
	file         string
	authScheme   string
	authToken    string
	httpClient   *http.Client
	ttl          time.Duration
	fetchTimeout time.Duration
	refresh      time.Duration
	logger       *zerolog.Logger
	reconcile    reconcile.Config
}

func defaults() *options {
	return &options{
		ttl:          constants.DefaultCacheTTL,
		fetchTimeout: constants.DefaultHTTPTimeout,
		reconcile:    reconcile.DefaultConfig(),
	}
}

func (o *options) apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

// buildSource picks the taxonomy source: an explicit source, then a file,
// then a URL.
func (o *options) buildSource() (choices.Source, error) {
	switch {
	case o.source != nil:
		return o.source, nil
	case o.file != "":
		return &sources.FileSource{Path: o.file}, nil
	case o.url != "":
		auth, err := transport.ParseAuth(o.authScheme)
		if err != nil {
			return nil, errors.NewConfigError("choices_auth", err.Error(), err)
		}
		return sources.NewHTTPSource(o.url,
			transport.WithTimeout(o.fetchTimeout),
			transport.WithHTTPClient(o.httpClient),
			transport.WithAuth(auth, o.authToken),
		), nil
	default:
		return nil, errors.NewConfigError("source", "no taxonomy source configured: set a URL, a file or a source", nil)
	}
}

// WithSource uses src for the taxonomy. It takes precedence over WithFile
// and WithURL.
func WithSource(src choices.Source) Option {
	return func(o *options) error {
		o.source = src
		return nil
	}
}

// WithURL fetches the taxonomy over HTTP.
func WithURL(url string) Option {
	return func(o *options) error {
		o.url = url
		return nil
	}
}

// WithAuth sends token with every taxonomy request using scheme, one of
// "bearer", "header:<name>" or "query:<param>".
func WithAuth(scheme, token string) Option {
	return func(o *options) error {
		if _, err := transport.ParseAuth(scheme); err != nil {
			return &errors.ValidationError{Field: "auth", Value: scheme, Message: err.Error()}
		}
		o.authScheme, o.authToken = scheme, token
		return nil
	}
}

// WithHTTPClient replaces the HTTP client used for URL sources.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) error {
		o.httpClient = hc
		return nil
	}
}

// WithFile reads the taxonomy from a local JSON file.
func WithFile(path string) Option {
	return func(o *options) error {
		o.file = path
		return nil
	}
}

// WithTTL sets how long a fetched taxonomy stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) error {
		if ttl <= 0 {
			return &errors.ValidationError{Field: "ttl", Value: ttl, Message: "must be positive"}
		}
		o.ttl = ttl
		return nil
	}
}

// WithFetchTimeout bounds each taxonomy fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return &errors.ValidationError{Field: "fetch_timeout", Value: d, Message: "must be positive"}
		}
		o.fetchTimeout = d
		return nil
	}
}

// WithAutoRefresh refreshes the taxonomy in the background every interval
// once AutoRefreshOn is called. Zero disables it.
func WithAutoRefresh(interval time.Duration) Option {
	return func(o *options) error {
		if interval < 0 {
			return &errors.ValidationError{Field: "auto_refresh", Value: interval, Message: "must not be negative"}
		}
		o.refresh = interval
		return nil
	}
}

// WithMethod selects the similarity metric by name.
func WithMethod(name string) Option {
	return func(o *options) error {
		m, err := similarity.ParseMethod(name)
		if err != nil {
			return err
		}
		o.reconcile.Method = m
		return nil
	}
}

// WithThreshold sets the confidence threshold.
func WithThreshold(threshold float64) Option {
	return func(o *options) error {
		o.reconcile.Threshold = threshold
		return nil
	}
}

// WithTopK sets the ranked shortlist size.
func WithTopK(k int) Option {
	return func(o *options) error {
		o.reconcile.TopK = k
		return nil
	}
}

// WithWorkers sets how many records ReconcileAll processes at once.
func WithWorkers(n int) Option {
	return func(o *options) error {
		o.reconcile.Workers = n
		return nil
	}
}

// WithCaseInsensitive compares case-folded strings.
func WithCaseInsensitive(enabled bool) Option {
	return func(o *options) error {
		o.reconcile.CaseInsensitive = enabled
		return nil
	}
}

// WithConfig replaces the whole reconciliation config.
func WithConfig(cfg reconcile.Config) Option {
	return func(o *options) error {
		o.reconcile = cfg
		return nil
	}
}

// WithLogger sets the logger used by the client and its cache.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
