package gopca

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sort"
	"strings"

	"github.com/carbocation/pfx"
	"gopkg.in/yaml.v3"
)

// Config holds the parameters of a GO-PCA run.
type Config struct {
	// Number of most variable genes kept before PCA. Zero keeps all genes.
	SelVarGenes int `json:"sel_var_genes" yaml:"sel_var_genes"`

	// Number of principal components to test. Zero estimates it by
	// comparison with permuted data.
	NComponents    int     `json:"n_components" yaml:"n_components"`
	PCPermutations int     `json:"pc_permutations" yaml:"pc_permutations"`
	PCZScoreThresh float64 `json:"pc_zscore_thresh" yaml:"pc_zscore_thresh"`
	PCSeed         int64   `json:"pc_seed" yaml:"pc_seed"`

	MinTermSize int `json:"min_term_size" yaml:"min_term_size"`
	MaxTermSize int `json:"max_term_size" yaml:"max_term_size"`

	MHGXFrac float64 `json:"mHG_X_frac" yaml:"mHG_X_frac"`
	MHGXMin  int     `json:"mHG_X_min" yaml:"mHG_X_min"`
	MHGL     int     `json:"mHG_L" yaml:"mHG_L"` // zero means an eighth of the genes

	PvalThresh    float64 `json:"pval_thresh" yaml:"pval_thresh"`
	MFEPvalThresh float64 `json:"mfe_pval_thresh" yaml:"mfe_pval_thresh"`
	MFEThresh     float64 `json:"mfe_thresh" yaml:"mfe_thresh"`

	DisableLocalFilter  bool `json:"disable_local_filter" yaml:"disable_local_filter"`
	DisableGlobalFilter bool `json:"disable_global_filter" yaml:"disable_global_filter"`

	// Score signatures with the median and MAD instead of mean and SD.
	SigRobust bool `json:"sig_robust" yaml:"sig_robust"`

	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConfig returns the standard GO-PCA parameters.
func DefaultConfig() Config {
	return Config{
		SelVarGenes:    8000,
		NComponents:    0,
		PCPermutations: 15,
		PCZScoreThresh: 2.0,
		MinTermSize:    5,
		MaxTermSize:    1000,
		MHGXFrac:       0.25,
		MHGXMin:        5,
		MHGL:           0,
		PvalThresh:     1e-6,
		MFEPvalThresh:  1e-4,
		MFEThresh:      2.0,
		Workers:        runtime.NumCPU(),
	}
}

// Validate reports the first parameter that is out of range.
func (c Config) Validate() error {
	switch {
	case c.SelVarGenes < 0:
		return fmt.Errorf("sel_var_genes must not be negative, got %d", c.SelVarGenes)
	case c.NComponents < 0:
		return fmt.Errorf("n_components must not be negative, got %d", c.NComponents)
	case c.NComponents == 0 && c.PCPermutations < 2:
		return fmt.Errorf("pc_permutations must be at least 2 to estimate the number of components, got %d", c.PCPermutations)
	case c.MinTermSize < 1:
		return fmt.Errorf("min_term_size must be at least 1, got %d", c.MinTermSize)
	case c.MaxTermSize > 0 && c.MaxTermSize < c.MinTermSize:
		return fmt.Errorf("max_term_size (%d) is smaller than min_term_size (%d)", c.MaxTermSize, c.MinTermSize)
	case c.MHGXFrac < 0 || c.MHGXFrac > 1:
		return fmt.Errorf("mHG_X_frac must lie in [0, 1], got %g", c.MHGXFrac)
	case c.MHGXMin < 0:
		return fmt.Errorf("mHG_X_min must not be negative, got %d", c.MHGXMin)
	case c.MHGL < 0:
		return fmt.Errorf("mHG_L must not be negative, got %d", c.MHGL)
	case c.PvalThresh <= 0 || c.PvalThresh > 1:
		return fmt.Errorf("pval_thresh must lie in (0, 1], got %g", c.PvalThresh)
	case c.MFEPvalThresh <= 0 || c.MFEPvalThresh > 1:
		return fmt.Errorf("mfe_pval_thresh must lie in (0, 1], got %g", c.MFEPvalThresh)
	case c.MFEThresh < 1:
		return fmt.Errorf("mfe_thresh must be at least 1, got %g", c.MFEThresh)
	case c.Workers < 0:
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}

	return nil
}

// configKeys lists the keys of Config.
func configKeys() map[string]struct{} {
	out := make(map[string]struct{})
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		key := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if key != "" && key != "-" {
			out[key] = struct{}{}
		}
	}
	return out
}

func warnUnknownKeys(keys []string) {
	known := configKeys()
	unknown := make([]string, 0)
	for _, key := range keys {
		if _, exists := known[key]; !exists {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		log.Printf("Warning: ignoring unknown configuration key %q\n", key)
	}
}

// ParseConfig reads a JSON configuration on top of the defaults. Keys that
// are not parameters are ignored with a warning.
func ParseConfig(r io.Reader) (Config, error) {
	out := DefaultConfig()

	data, err := io.ReadAll(r)
	if err != nil {
		return out, pfx.Err(err)
	}

	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		if e, ok := err.(*json.SyntaxError); ok {
			log.Printf("syntax error at byte offset %d", e.Offset)
		}
		return out, pfx.Err(err)
	}
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	warnUnknownKeys(keys)

	if err := json.Unmarshal(data, &out); err != nil {
		return out, pfx.Err(err)
	}

	return out, nil
}

// ParseYAMLConfig is ParseConfig for YAML documents, which use the same keys.
func ParseYAMLConfig(r io.Reader) (Config, error) {
	out := DefaultConfig()

	data, err := io.ReadAll(r)
	if err != nil {
		return out, pfx.Err(err)
	}

	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return out, pfx.Err(err)
	}
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	warnUnknownKeys(keys)

	if err := yaml.Unmarshal(data, &out); err != nil {
		return out, pfx.Err(err)
	}

	return out, nil
}

// ParseConfigFromPath reads a configuration file. Files ending in .yaml or
// .yml are read as YAML and everything else as JSON.
func ParseConfigFromPath(path string) (Config, error) {
	f, err := os.Open(ExpandHome(path))
	if err != nil {
		return DefaultConfig(), pfx.Err(err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAMLConfig(f)
	}

	return ParseConfig(f)
}

// WriteConfig writes c as indented JSON.
func WriteConfig(w io.Writer, c Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return pfx.Err(err)
	}

	return nil
}
