// Package choices caches the canonical taxonomy fetched from a Source.
//
// A Cache holds at most one Entry. The entry is valid while
// now - FetchedAt <= TTL; once it expires the next Get refetches before
// returning, so a caller never sees a stale taxonomy. Concurrent callers that
// find the entry missing or expired share a single in-flight fetch. A failed
// fetch leaves the previous entry untouched and is not cached, so the next
// call retries. Every successful fetch, whether from Get or Refresh, is
// reported to the update callback together with the last taxonomy seen.
package choices

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/agentstation/fieldmatch/internal/cache"
	"github.com/agentstation/fieldmatch/pkg/constants"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/logging"
	"github.com/agentstation/fieldmatch/pkg/taxonomy"
)

const entryKey = "taxonomy"

// Source delivers the raw taxonomy document.
type Source interface {
	// Fetch returns the JSON payload.
	Fetch(ctx context.Context) ([]byte, error)
	// Name identifies the source in logs and errors.
	Name() string
}

// Entry is one fetched taxonomy and the time it was fetched. Entries are
// never mutated after they are stored.
type Entry struct {
	Taxonomy  *taxonomy.Taxonomy
	FetchedAt time.Time
}

// Age returns how long ago the entry was fetched.
func (e Entry) Age() time.Duration {
	return time.Since(e.FetchedAt)
}

// Cache is a TTL cache over a single taxonomy. It is safe for concurrent use.
type Cache struct {
	src          Source
	ttl          time.Duration
	fetchTimeout time.Duration
	logger       *zerolog.Logger

	store *cache.Cache
	group singleflight.Group
	// last survives expiry and Invalidate; it is the baseline for updates.
	last     atomic.Pointer[Entry]
	onUpdate func(old, updated *taxonomy.Taxonomy)
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long a fetched taxonomy stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithFetchTimeout bounds each fetch, independently of caller contexts.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// WithLogger sets the logger used for refresh events.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOnUpdate registers fn to run after each successful fetch. old is the
// previously fetched taxonomy, expired or not, and nil on the first fetch.
// fn runs before the fetch result is handed to waiting callers.
func WithOnUpdate(fn func(old, updated *taxonomy.Taxonomy)) Option {
	return func(c *Cache) {
		c.onUpdate = fn
	}
}

// New creates a cache over src. Nothing is fetched until the first Get.
func New(src Source, opts ...Option) *Cache {
	c := &Cache{
		src:          src,
		ttl:          constants.DefaultCacheTTL,
		fetchTimeout: constants.DefaultHTTPTimeout,
		logger:       logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	// No janitor: the single entry is replaced, never accumulated.
	c.store = cache.New(c.ttl, 0)
	return c
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Source returns the underlying source.
func (c *Cache) Source() Source {
	return c.src
}

// Entry returns the current entry if one is stored and still valid.
// It never fetches.
func (c *Cache) Entry() (Entry, bool) {
	v, ok := c.store.Get(entryKey)
	if !ok {
		return Entry{}, false
	}
	e := v.(*Entry)
	if time.Since(e.FetchedAt) > c.ttl {
		return Entry{}, false
	}
	return *e, true
}

// Last returns the most recently fetched entry regardless of its age. It is
// unaffected by Invalidate and never fetches.
func (c *Cache) Last() (Entry, bool) {
	e := c.last.Load()
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

// Get returns the cached taxonomy, fetching it first if there is no valid
// entry. Fetch failures are *errors.FetchError and malformed payloads are
// *errors.DecodeError.
func (c *Cache) Get(ctx context.Context) (*taxonomy.Taxonomy, error) {
	if e, ok := c.Entry(); ok {
		return e.Taxonomy, nil
	}
	e, err := c.load(ctx, false)
	if err != nil {
		return nil, err
	}
	return e.Taxonomy, nil
}

// Refresh fetches unconditionally and replaces the entry on success.
func (c *Cache) Refresh(ctx context.Context) (Entry, error) {
	e, err := c.load(ctx, true)
	if err != nil {
		return Entry{}, err
	}
	return *e, nil
}

// Invalidate drops the current entry so the next Get refetches.
func (c *Cache) Invalidate() {
	c.store.Delete(entryKey)
}

// load joins or starts the shared fetch and waits for it, or for ctx.
// Unless forced, a flight that finds a valid entry already stored by an
// earlier flight returns it instead of fetching again.
func (c *Cache) load(ctx context.Context, force bool) (*Entry, error) {
	ch := c.group.DoChan(entryKey, func() (any, error) {
		if !force {
			if e, ok := c.Entry(); ok {
				return &e, nil
			}
		}
		return c.fetch(ctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Entry), nil
	case <-ctx.Done():
		return nil, errors.NewFetchError(c.src.Name(), "wait for taxonomy aborted", ctxErr(ctx))
	}
}

// fetch runs once per flight. It is detached from the cancellation of the
// caller that started it, since other callers may be waiting on it too, and
// is bounded by the fetch timeout instead.
func (c *Cache) fetch(ctx context.Context) (*Entry, error) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
	defer cancel()

	start := time.Now()
	log := c.logger.With().Str("source", c.src.Name()).Logger()
	log.Debug().Msg("fetching taxonomy")

	data, err := c.src.Fetch(fctx)
	if err != nil {
		if fctx.Err() == context.DeadlineExceeded && !errors.IsTimeout(err) {
			err = errors.NewFetchError(c.src.Name(), "fetch timed out", ctxErr(fctx))
		}
		if !errors.IsFetch(err) {
			err = errors.NewFetchError(c.src.Name(), "", err)
		}
		log.Error().Err(err).Msg("taxonomy fetch failed")
		return nil, err
	}

	tax, err := taxonomy.Decode(data, c.src.Name())
	if err != nil {
		log.Error().Err(err).Msg("taxonomy decode failed")
		return nil, err
	}

	e := &Entry{Taxonomy: tax, FetchedAt: time.Now()}
	c.store.Set(entryKey, e)
	prev := c.last.Swap(e)

	log.Info().
		Int("fields", tax.Len()).
		Int("values", tax.ValueCount()).
		Dur("took", time.Since(start)).
		Msg("taxonomy refreshed")

	if c.onUpdate != nil {
		var old *taxonomy.Taxonomy
		if prev != nil {
			old = prev.Taxonomy
		}
		c.onUpdate(old, tax)
	}
	return e, nil
}

func ctxErr(ctx context.Context) error {
	err := ctx.Err()
	if err == context.DeadlineExceeded {
		return errors.Join(errors.ErrTimeout, err)
	}
	return errors.Join(errors.ErrCanceled, err)
}
