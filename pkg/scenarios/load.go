package scenarios

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/reconcile"
)

// Format is a catalogue file format.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// document is the on-disk shape shared by every format.
type document struct {
	Scenarios []scenario `json:"scenarios" yaml:"scenarios" toml:"scenarios"`
}

type scenario struct {
	ID    *int             `json:"id" yaml:"id" toml:"id"`
	Pairs []reconcile.Pair `json:"pairs" yaml:"pairs" toml:"pairs"`
}

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.NewValidationError("scenarios_file", path, "extension must be .yaml, .yml, .json or .toml")
	}
}

// Load reads a catalogue file.
func Load(path string) (*Catalogue, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return Parse(data, format, path)
}

// Parse decodes a catalogue document. Every scenario needs an id, and the
// ids must be exactly 0..n-1 in any order.
func Parse(data []byte, format Format, source string) (*Catalogue, error) {
	var doc document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.UnmarshalWithOptions(data, &doc, yaml.Strict())
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case FormatTOML:
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&doc)
	default:
		return nil, errors.NewValidationError("format", format, "unsupported catalogue format")
	}
	if err != nil {
		return nil, errors.NewDecodeError(string(format), source, err.Error(), err)
	}

	n := len(doc.Scenarios)
	sort.SliceStable(doc.Scenarios, func(i, j int) bool {
		return idOf(doc.Scenarios[i]) < idOf(doc.Scenarios[j])
	})
	records := make([]reconcile.Record, n)
	for i, s := range doc.Scenarios {
		if s.ID == nil {
			return nil, errors.NewDecodeError(string(format), source, "scenario without id", nil)
		}
		if *s.ID != i {
			return nil, errors.NewDecodeError(string(format), source,
				fmt.Sprintf("scenario ids must be 0..%d without gaps or repeats, found %d at position %d", n-1, *s.ID, i), nil)
		}
		records[i] = s.Pairs
	}
	return New(source, records...), nil
}

func idOf(s scenario) int {
	if s.ID == nil {
		return -1
	}
	return *s.ID
}
