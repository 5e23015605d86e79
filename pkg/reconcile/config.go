package reconcile

import (
	"fmt"

	"github.com/agentstation/fieldmatch/pkg/constants"
	"github.com/agentstation/fieldmatch/pkg/errors"
	"github.com/agentstation/fieldmatch/pkg/matcher"
	"github.com/agentstation/fieldmatch/pkg/similarity"
)

// Config controls how records are reconciled.
type Config struct {
	// Method names the similarity metric.
	Method similarity.Method `json:"method" yaml:"method"`
	// Threshold in [0, 1]; matches scoring below it are reported.
	Threshold float64 `json:"threshold" yaml:"threshold"`
	// TopK is the shortlist size kept per match. It never changes the winner.
	TopK int `json:"top_k" yaml:"top_k"`
	// Workers is the number of records reconciled at once. 1 is sequential.
	Workers int `json:"workers" yaml:"workers"`
	// CaseInsensitive compares case-folded strings.
	CaseInsensitive bool `json:"case_insensitive" yaml:"case_insensitive"`
}

// DefaultConfig returns jaro_winkler at 0.9 with a shortlist of 5, sequential.
func DefaultConfig() Config {
	return Config{
		Method:    constants.DefaultMethod,
		Threshold: constants.DefaultThreshold,
		TopK:      constants.DefaultTopK,
		Workers:   constants.DefaultWorkers,
	}
}

// Validate checks every field and returns the first problem as a
// *errors.ValidationError.
func (c Config) Validate() error {
	if _, err := similarity.ParseMethod(string(c.Method)); err != nil {
		return err
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return errors.NewValidationError("threshold", c.Threshold, "must be between 0 and 1")
	}
	if c.TopK < 1 {
		return errors.NewValidationError("top_k", c.TopK, "must be at least 1")
	}
	if c.Workers < 1 || c.Workers > constants.MaxWorkers {
		return errors.NewValidationError("workers", c.Workers,
			fmt.Sprintf("must be between 1 and %d", constants.MaxWorkers))
	}
	return nil
}

// Metric builds the configured similarity metric.
func (c Config) Metric() (similarity.Metric, error) {
	method, err := similarity.ParseMethod(string(c.Method))
	if err != nil {
		return nil, err
	}
	return similarity.New(method, similarity.Options{CaseInsensitive: c.CaseInsensitive})
}

// Engine validates the config and builds a match engine from it.
func (c Config) Engine() (*matcher.Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	metric, err := c.Metric()
	if err != nil {
		return nil, err
	}
	return matcher.New(metric, matcher.WithThreshold(c.Threshold), matcher.WithTopK(c.TopK)), nil
}
