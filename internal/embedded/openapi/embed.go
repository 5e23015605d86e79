// Package openapi embeds the OpenAPI 3.0 document of the fieldmatch HTTP API.
package openapi

import (
	_ "embed"
	"sync"

	"github.com/goccy/go-yaml"
)

// SpecYAML is the OpenAPI document.
// Served at: GET /api/v1/openapi.yaml
//
//go:embed openapi.yaml
var SpecYAML []byte

var specJSON = sync.OnceValues(func() ([]byte, error) {
	return yaml.YAMLToJSON(SpecYAML)
})

// JSON returns the document converted to JSON, converting it once.
// Served at: GET /api/v1/openapi.json
func JSON() ([]byte, error) {
	return specJSON()
}
