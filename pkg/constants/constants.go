// Package constants provides shared constants used throughout the fieldmatch codebase.
// This includes timeouts, matching defaults, limits and file permissions that
// should be consistent across the library, the CLI and the HTTP server.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout bounds a single taxonomy fetch
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultCacheTTL is how long a fetched taxonomy stays valid
	DefaultCacheTTL = 3600 * time.Second

	// ShutdownTimeout is how long the server waits for in-flight requests
	ShutdownTimeout = 5 * time.Second

	// ReadHeaderTimeout protects the server against slow clients
	ReadHeaderTimeout = 10 * time.Second
)

// Matching defaults
const (
	// DefaultMethod is the similarity metric used when none is configured
	DefaultMethod = "jaro_winkler"

	// DefaultThreshold is the confidence bar below which a match is flagged
	DefaultThreshold = 0.9

	// DefaultTopK is the size of the ranked shortlist kept per match
	DefaultTopK = 5

	// DefaultWorkers processes records sequentially
	DefaultWorkers = 1
)

// Limit constants define various limits and capacities
const (
	// MaxTaxonomyBytes caps the taxonomy payload read from a source (16 MiB)
	MaxTaxonomyBytes = 16 << 20

	// MaxRequestBytes caps API request bodies (1 MiB)
	MaxRequestBytes = 1 << 20

	// MaxWorkers caps the record fan-out
	MaxWorkers = 64

	// DefaultHistoryLimit is the number of runs listed by the history command
	DefaultHistoryLimit = 20
)

// Server defaults
const (
	// DefaultListen is the default address for the HTTP API
	DefaultListen = ":8080"

	// APIPrefix is the path prefix for versioned API routes
	APIPrefix = "/api/v1"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)
