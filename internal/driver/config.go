package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Backend selects the target runtime the bytecode generator emits for.
type Backend string

const (
	ACIR    Backend = "acir"
	Brillig Backend = "brillig"
)

// PipelineConfig is the driver's yaml-loaded configuration, following
// ext/config.go's struct-tags + validate() + setDefaults() + FindConfig
// pattern verbatim, adapted from funxy.yaml's Go-FFI dependency list to
// this module's compile-pipeline knobs.
type PipelineConfig struct {
	// Backend names acir (constrained) or brillig (unconstrained); validate
	// rejects any other value and setDefaults fills in acir. Run does not
	// read it: it does not change any function's target.
	Backend Backend `yaml:"backend,omitempty"`

	// ImplSearchBudget bounds recursive trait-impl search (spec.md §4.2);
	// defaults to the spec's stated budget of 10.
	ImplSearchBudget int `yaml:"impl_search_budget,omitempty"`

	// OptimizeConstants is loaded from the config file, but no stage of the
	// pipeline reads it; it does not switch constant hoisting on or off.
	OptimizeConstants bool `yaml:"optimize_constants,omitempty"`

	// ShowBytecode dumps the disassembled bytecode for every function after
	// a successful compile.
	ShowBytecode bool `yaml:"show_bytecode,omitempty"`
}

func DefaultConfig() *PipelineConfig {
	cfg := &PipelineConfig{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a zkmid.yaml file.
func LoadConfig(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses zkmid.yaml content from bytes. path is used only for
// error messages.
func ParseConfig(data []byte, path string) (*PipelineConfig, error) {
	var cfg PipelineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for zkmid.yaml starting from dir and walking up to
// parent directories, mirroring ext/config.go's FindConfig.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range []string{"zkmid.yaml", "zkmid.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *PipelineConfig) validate(path string) error {
	if c.Backend != "" && c.Backend != ACIR && c.Backend != Brillig {
		return fmt.Errorf("%s: backend must be %q or %q, got %q", path, ACIR, Brillig, c.Backend)
	}
	if c.ImplSearchBudget < 0 {
		return fmt.Errorf("%s: impl_search_budget must be non-negative, got %d", path, c.ImplSearchBudget)
	}
	return nil
}

func (c *PipelineConfig) setDefaults() {
	if c.Backend == "" {
		c.Backend = ACIR
	}
	if c.ImplSearchBudget == 0 {
		c.ImplSearchBudget = 10
	}
}
