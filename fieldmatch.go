// Package fieldmatch reconciles noisy field/value records against a canonical
// taxonomy using approximate string matching.
//
// A Client owns a taxonomy cache and a reconciliation config. The taxonomy is
// fetched lazily on first use and refetched once its TTL has passed; every
// operation sees either the old or the new taxonomy, never a mix.
//
// Example usage:
//
//	fm, err := fieldmatch.New(
//	    fieldmatch.WithURL("https://example.com/field_options.json"),
//	    fieldmatch.WithThreshold(0.85),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer fm.AutoRefreshOff()
//
//	res, err := fm.Reconcile(ctx, reconcile.Record{
//	    {Field: "Caihn", Value: "Chain_2"},
//	    {Field: "Region", Value: "Region_14"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Fields)  // map[Chain:Chain_2 Region:Region_14]
//	fmt.Print(res.Text())    // Inferred key 'Caihn' as 'Chain'.
package fieldmatch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmatch/pkg/choices"
	"github.com/agentstation/fieldmatch/pkg/logging"
	"github.com/agentstation/fieldmatch/pkg/matcher"
	"github.com/agentstation/fieldmatch/pkg/reconcile"
	"github.com/agentstation/fieldmatch/pkg/taxonomy"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Client reconciles records against a cached taxonomy.
type Client interface {
	// Taxonomy returns the current taxonomy, fetching it if needed.
	Taxonomy(ctx context.Context) (*taxonomy.Taxonomy, error)

	// Refresh refetches the taxonomy regardless of its age.
	Refresh(ctx context.Context) (choices.Entry, error)

	// Infer resolves a single raw pair.
	Infer(ctx context.Context, field, value string) (matcher.Result, error)

	// Reconcile corrects one record.
	Reconcile(ctx context.Context, rec reconcile.Record) (*reconcile.Result, error)

	// ReconcileAll corrects every record of a catalogue.
	ReconcileAll(ctx context.Context, cat reconcile.Catalogue) ([]reconcile.Outcome, error)

	// SelfScores returns the calibration table for the current taxonomy.
	SelfScores(ctx context.Context) (map[string]map[string]float64, error)

	// Config returns the reconciliation config.
	Config() reconcile.Config

	// Cache exposes the underlying taxonomy cache.
	Cache() *choices.Cache

	// AutoRefresher controls background refreshes
	AutoRefresher

	// Hooks registers refresh callbacks
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options
	cfg     reconcile.Config
	engine  *matcher.Engine
	cache   *choices.Cache
	logger  *zerolog.Logger

	// auto refresh state
	mu            sync.Mutex
	refreshTicker *time.Ticker
	refreshCancel context.CancelFunc
	refreshDone   chan struct{}

	hooks *hooks
}

// New creates a Client. A taxonomy source is required: WithSource, WithFile
// or WithURL. Nothing is fetched until the first call that needs the
// taxonomy.
func New(opts ...Option) (Client, error) {
	o := defaults()
	if err := o.apply(opts...); err != nil {
		return nil, err
	}

	engine, err := o.reconcile.Engine()
	if err != nil {
		return nil, err
	}

	src, err := o.buildSource()
	if err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = logging.Default()
	}

	c := &client{
		options: o,
		cfg:     o.reconcile,
		engine:  engine,
		logger:  logger,
		hooks:   newHooks(),
	}
	c.cache = choices.New(src,
		choices.WithTTL(o.ttl),
		choices.WithFetchTimeout(o.fetchTimeout),
		choices.WithLogger(logger),
		choices.WithOnUpdate(c.taxonomyUpdated),
	)

	logger.Debug().
		Str("source", src.Name()).
		Str("method", string(o.reconcile.Method)).
		Float64("threshold", o.reconcile.Threshold).
		Dur("ttl", o.ttl).
		Msg("client created")

	if o.refresh > 0 {
		if err := c.AutoRefreshOn(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *client) ctx(ctx context.Context) context.Context {
	if logging.FromContext(ctx) == logging.Default() {
		return logging.WithLogger(ctx, c.logger)
	}
	return ctx
}

// Taxonomy returns the current taxonomy.
func (c *client) Taxonomy(ctx context.Context) (*taxonomy.Taxonomy, error) {
	return c.cache.Get(c.ctx(ctx))
}

// Refresh refetches the taxonomy. Refresh hooks fire when it changed.
func (c *client) Refresh(ctx context.Context) (choices.Entry, error) {
	return c.cache.Refresh(c.ctx(ctx))
}

// taxonomyUpdated runs after every fetch, including TTL refetches.
func (c *client) taxonomyUpdated(old, updated *taxonomy.Taxonomy) {
	if cs := taxonomy.Diff(old, updated); cs.HasChanges() {
		c.logger.Info().Str("changes", cs.String()).Msg("taxonomy changed")
		c.hooks.triggerRefresh(old, updated, cs)
	}
}

// Infer resolves a single raw pair against the current taxonomy.
func (c *client) Infer(ctx context.Context, field, value string) (matcher.Result, error) {
	tax, err := c.Taxonomy(ctx)
	if err != nil {
		return matcher.Result{}, err
	}
	return c.engine.Infer(field, value, tax)
}

// Reconcile corrects one record against the current taxonomy.
func (c *client) Reconcile(ctx context.Context, rec reconcile.Record) (*reconcile.Result, error) {
	ctx = c.ctx(ctx)
	tax, err := c.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return reconcile.Reconcile(ctx, rec, tax, c.cfg)
}

// ReconcileAll corrects every record of cat.
func (c *client) ReconcileAll(ctx context.Context, cat reconcile.Catalogue) ([]reconcile.Outcome, error) {
	return reconcile.ReconcileAll(c.ctx(ctx), cat, c.cache, c.cfg)
}

// SelfScores returns the calibration table for the current taxonomy.
func (c *client) SelfScores(ctx context.Context) (map[string]map[string]float64, error) {
	tax, err := c.Taxonomy(ctx)
	if err != nil {
		return nil, err
	}
	return reconcile.SelfScores(tax, c.engine.Metric())
}

// Config returns the reconciliation config.
func (c *client) Config() reconcile.Config {
	return c.cfg
}

// Cache exposes the underlying taxonomy cache.
func (c *client) Cache() *choices.Cache {
	return c.cache
}
