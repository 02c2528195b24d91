package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakelab/etas/pkg/forecast"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "etas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func Test_Load(t *testing.T) {
	path := writeConfig(t, `
name: socal-test
catalog:
  path: catalog.csv
  mc: 3.0
  deltaM: 0.1
  region:
    minX: -50
    maxX: 50
    minY: -50
    maxY: 50
  window:
    start: 0
    end: 365
inversion:
  maxIterations: 40
  tolerance: 0.001
  spatialKernel: powerlaw
forecast:
  mode: continuation
  horizonDays: 30
  ensemble: 100
output:
  dir: runs
  storeProbs: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "socal-test", cfg.Name)
	assert.Equal(t, "catalog.csv", cfg.Catalog.Path)
	assert.Equal(t, 3.0, cfg.Catalog.Mc)
	assert.Equal(t, 0.1, cfg.Catalog.DeltaM)
	require.NotNil(t, cfg.Catalog.Region)
	assert.Equal(t, -50.0, cfg.Catalog.Region.MinX)
	require.NotNil(t, cfg.Catalog.Window)
	assert.Equal(t, 365.0, cfg.Catalog.Window.End)

	assert.Equal(t, 40, cfg.Inversion.MaxIterations)
	assert.Equal(t, forecast.ModeContinuation, cfg.Forecast.Mode)
	assert.Equal(t, 100, cfg.Forecast.Ensemble)
	assert.Equal(t, "runs", cfg.Output.Dir)
	assert.True(t, cfg.Output.StoreProbs)
}

func Test_Load_defaultsOutputDir(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
catalog:
  path: catalog.csv
  mc: 2.5
`))
	require.NoError(t, err)
	assert.Equal(t, "output", cfg.Output.Dir)
}

func Test_Load_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func Test_Validate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing catalog path", `name: x`},
		{"negative deltaM", `
catalog:
  path: c.csv
  deltaM: -0.1
`},
		{"empty window", `
catalog:
  path: c.csv
  window:
    start: 10
    end: 10
`},
		{"unknown forecast mode", `
catalog:
  path: c.csv
forecast:
  mode: oracle
`},
	}
	for _, tt := range tests {
		_, err := Load(writeConfig(t, tt.body))
		assert.Error(t, err, tt.name)
	}
}
