// Package handlers provides the HTTP request handlers of the fieldmatch API.
//
// Handlers are organized by resource:
//
//   - health.go: liveness and readiness
//   - taxonomy.go: the canonical taxonomy and its calibration table
//   - reconcile.go: single-pair inference and record reconciliation
//   - scenarios.go: the scenario catalogue and batch runs over it
//   - runs.go: persisted batch history
//   - openapi.go: the OpenAPI document
package handlers

//go:generate gomarkdoc --output README.md .
