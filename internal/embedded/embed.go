// Package embedded bundles the sample taxonomy and the built-in scenario
// catalogue into the binary so the CLI works offline.
package embedded

import (
	_ "embed"
)

// Choices is a sample retail taxonomy in the choices document format.
//
//go:embed data/choices.json
var Choices []byte

// Scenarios is the built-in scenario catalogue.
//
//go:embed data/scenarios.yaml
var Scenarios []byte
