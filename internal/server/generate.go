// Package server provides the HTTP API of fieldmatch.
//
// The server exposes the taxonomy, single-pair inference, record
// reconciliation, batch runs over the scenario catalogue and, when a history
// store is attached, the persisted runs.
//
// Usage:
//
//	cfg := server.DefaultConfig()
//	cfg.Port = 8080
//
//	srv, err := server.New(client, catalogue, history, cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.ListenAndServe(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

//go:generate gomarkdoc --output README.md .
