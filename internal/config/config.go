// Package config loads and validates a pjoin run's configuration: CLI
// flags layered on an optional JSON file, following the same
// Default/Load/Validate split the teacher's configuration package
// uses.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/edulix/pjoin/internal/join"
)

// Config is everything one pjoin invocation needs to run the join.
type Config struct {
	File1        []string `json:"file1"`
	File2        []string `json:"file2"`
	Separator    string   `json:"separator"`
	Field1       int      `json:"field1"`
	Field2       int      `json:"field2"`
	OutputFields string   `json:"output_fields"`
	Output       string   `json:"output"`
	Jobs         int      `json:"jobs"`
	Verbose      bool     `json:"verbose"`
}

// Default returns a Config with every field that has a documented
// default populated; everything else is left zero and must come from
// the JSON file, flags, or it fails validation.
func Default() Config {
	return Config{
		Separator: ",",
		Jobs:      runtime.NumCPU(),
		Verbose:   false,
	}
}

// Load builds a Config starting from Default, applying jsonPath (if
// non-empty) over it, then applying overrides for exactly the field
// names present in explicit — the set of flags the user actually
// passed on the command line. A flag the user did not pass never
// clobbers a value that came from the config file.
func Load(jsonPath string, overrides Config, explicit map[string]bool) (Config, error) {
	cfg := Default()

	if jsonPath != "" {
		b, err := os.ReadFile(jsonPath)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", jsonPath, err)
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", jsonPath, err)
		}
	}

	if explicit["file1"] {
		cfg.File1 = overrides.File1
	}
	if explicit["file2"] {
		cfg.File2 = overrides.File2
	}
	if explicit["separator"] {
		cfg.Separator = overrides.Separator
	}
	if explicit["field1"] {
		cfg.Field1 = overrides.Field1
	}
	if explicit["field2"] {
		cfg.Field2 = overrides.Field2
	}
	if explicit["output-fields"] {
		cfg.OutputFields = overrides.OutputFields
	}
	if explicit["output"] {
		cfg.Output = overrides.Output
	}
	if explicit["jobs"] {
		cfg.Jobs = overrides.Jobs
	}
	if explicit["verbose"] {
		cfg.Verbose = overrides.Verbose
	}

	return cfg, nil
}

// SeparatorByte returns the configured field separator as a single byte.
// Validate must be called first to guarantee this does not panic.
func (c Config) SeparatorByte() byte {
	return c.Separator[0]
}

// OutputSpec parses OutputFields, reusing the joiner's own parser so
// there is exactly one definition of "S.I" syntax in the codebase.
func (c Config) OutputSpec() ([]join.OutputField, error) {
	return join.ParseOutputSpec(c.OutputFields)
}
