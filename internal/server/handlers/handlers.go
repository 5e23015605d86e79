package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmatch"
	"github.com/agentstation/fieldmatch/internal/cache"
	"github.com/agentstation/fieldmatch/internal/store"
	"github.com/agentstation/fieldmatch/pkg/constants"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/scenarios"
)

// Handlers holds the dependencies shared by every handler.
type Handlers struct {
	client    fieldmatch.Client
	catalogue *scenarios.Catalogue
	store     *store.Store // nil when history is disabled
	cache     *cache.Cache
	logger    *zerolog.Logger
	startTime time.Time
}

// New creates a Handlers instance. st may be nil.
func New(
	client fieldmatch.Client,
	catalogue *scenarios.Catalogue,
	st *store.Store,
	c *cache.Cache,
	logger *zerolog.Logger,
) *Handlers {
	return &Handlers{
		client:    client,
		catalogue: catalogue,
		store:     st,
		cache:     c,
		logger:    logger,
		startTime: time.Now(),
	}
}

// decodeBody reads a size-limited JSON body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, constants.MaxRequestBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return errors.NewValidationError("body", nil, "request body is empty")
		}
		return errors.NewValidationError("body", nil, fmt.Sprintf("invalid JSON: %v", err))
	}
	if dec.More() {
		return errors.NewValidationError("body", nil, "request body must hold a single JSON value")
	}
	return nil
}
