package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/quakelab/etas/pkg/forecast"
	"github.com/quakelab/etas/pkg/inversion"
	"github.com/quakelab/etas/pkg/types"
)

// CatalogConfig locates and frames the input catalog. Region and Window are
// optional; when omitted they are derived from the events.
type CatalogConfig struct {
	Path   string            `json:"path" yaml:"path"`
	Region *types.Region     `json:"region,omitempty" yaml:"region,omitempty"`
	Window *types.TimeWindow `json:"window,omitempty" yaml:"window,omitempty"`

	// Mc is the completeness threshold, supplied by an external estimator.
	Mc     float64 `json:"mc" yaml:"mc"`
	DeltaM float64 `json:"deltaM" yaml:"deltaM"`
}

type OutputConfig struct {
	Dir string `json:"dir" yaml:"dir"`

	// StoreProbs also writes the per-event background probabilities.
	StoreProbs bool `json:"storeProbs" yaml:"storeProbs"`
}

// Config is the immutable run configuration. The engines never read ambient
// state; everything they need arrives through this value.
type Config struct {
	Name      string           `json:"name" yaml:"name"`
	Catalog   CatalogConfig    `json:"catalog" yaml:"catalog"`
	Inversion inversion.Config `json:"inversion" yaml:"inversion"`
	Forecast  forecast.Config  `json:"forecast" yaml:"forecast"`
	Output    OutputConfig     `json:"output" yaml:"output"`
}

// Load reads and validates a YAML run configuration.
func Load(path string) (*Config, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}

	var cfg Config
	if err := yaml.Unmarshal(body, &cfg); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output"
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Catalog.Path == "" {
		return errors.New("config: catalog.path is required")
	}
	if c.Catalog.DeltaM < 0 {
		return errors.Errorf("config: negative deltaM %g", c.Catalog.DeltaM)
	}
	if c.Catalog.Window != nil && c.Catalog.Window.Length() <= 0 {
		return errors.New("config: catalog.window must have positive length")
	}
	switch c.Forecast.Mode {
	case "", forecast.ModeContinuation, forecast.ModeFreshStart:
	default:
		return errors.Errorf("config: unknown forecast mode %q", c.Forecast.Mode)
	}
	return nil
}
