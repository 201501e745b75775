package gopca

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8000, cfg.SelVarGenes)
	assert.Equal(t, 15, cfg.PCPermutations)
	assert.Equal(t, 0.25, cfg.MHGXFrac)
	assert.Equal(t, 5, cfg.MHGXMin)
	assert.Equal(t, 1e-6, cfg.PvalThresh)
	assert.Equal(t, 1e-4, cfg.MFEPvalThresh)
	assert.Equal(t, 2.0, cfg.MFEThresh)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(`{"mHG_X_frac": 0.5, "n_components": 3, "sig_robust": true, "colour": "blue"}`))
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.MHGXFrac)
	assert.Equal(t, 3, cfg.NComponents)
	assert.True(t, cfg.SigRobust)

	// Unset keys keep their defaults.
	assert.Equal(t, 8000, cfg.SelVarGenes)
	assert.Equal(t, 1e-6, cfg.PvalThresh)
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig(strings.NewReader(`{"mHG_X_frac": 0.5,`))
	assert.Error(t, err)

	_, err = ParseConfig(strings.NewReader(`{"mHG_X_frac": "half"}`))
	assert.Error(t, err)

	_, err = ParseConfigFromPath("/nonexistent/gopca.json")
	assert.Error(t, err)
}

func TestParseYAMLConfig(t *testing.T) {
	cfg, err := ParseYAMLConfig(strings.NewReader("mHG_X_frac: 0.5\npval_thresh: 1.0e-8\ndisable_local_filter: true\ncolour: blue\n"))
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.MHGXFrac)
	assert.Equal(t, 1e-8, cfg.PvalThresh)
	assert.True(t, cfg.DisableLocalFilter)
	assert.Equal(t, 8000, cfg.SelVarGenes)

	_, err = ParseYAMLConfig(strings.NewReader("mHG_X_frac: [0.5"))
	assert.Error(t, err)
}

func TestParseConfigFromPath(t *testing.T) {
	cfg, err := ParseConfigFromPath(writeFile(t, "gopca.yml", []byte("n_components: 4\n")))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.NComponents)

	cfg, err = ParseConfigFromPath(writeFile(t, "gopca.json", []byte(`{"n_components": 5}`)))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.NComponents)
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MHGL = 100
	cfg.DisableGlobalFilter = true

	var buf bytes.Buffer
	require.NoError(t, WriteConfig(&buf, cfg))
	assert.Contains(t, buf.String(), `"mHG_L": 100`)

	got, err := ParseConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"negative genes":   func(c *Config) { c.SelVarGenes = -1 },
		"negative pcs":     func(c *Config) { c.NComponents = -1 },
		"one permutation":  func(c *Config) { c.PCPermutations = 1 },
		"empty terms":      func(c *Config) { c.MinTermSize = 0 },
		"inverted sizes":   func(c *Config) { c.MinTermSize, c.MaxTermSize = 10, 5 },
		"fraction":         func(c *Config) { c.MHGXFrac = 1.5 },
		"negative X":       func(c *Config) { c.MHGXMin = -1 },
		"negative L":       func(c *Config) { c.MHGL = -1 },
		"zero pval":        func(c *Config) { c.PvalThresh = 0 },
		"large mfe pval":   func(c *Config) { c.MFEPvalThresh = 2 },
		"depletion":        func(c *Config) { c.MFEThresh = 0.5 },
		"negative workers": func(c *Config) { c.Workers = -2 },
	} {
		cfg := DefaultConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}

	cfg := DefaultConfig()
	cfg.NComponents = 2
	cfg.PCPermutations = 0
	assert.NoError(t, cfg.Validate())

	cfg.MaxTermSize = 0
	assert.NoError(t, cfg.Validate())
}
