package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, ",", cfg.Separator)
	require.Equal(t, runtime.NumCPU(), cfg.Jobs)
	require.False(t, cfg.Verbose)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))
}

func TestLoadFlagsOnly(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	touch(t, a)
	touch(t, b)

	overrides := Config{
		File1:        []string{a},
		File2:        []string{b},
		OutputFields: "1.0",
		Output:       dir,
	}
	explicit := map[string]bool{"file1": true, "file2": true, "output-fields": true, "output": true}

	cfg, err := Load("", overrides, explicit)
	require.NoError(t, err)
	require.Equal(t, []string{a}, cfg.File1)
	require.Equal(t, ",", cfg.Separator) // default preserved
	require.NoError(t, cfg.Validate())
}

func TestLoadJSONWithFlagOverride(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	touch(t, a)
	touch(t, b)

	jsonCfg := Config{
		File1:        []string{a},
		File2:        []string{b},
		Separator:    ";",
		OutputFields: "1.0",
		Output:       dir,
		Jobs:         2,
	}
	data, err := json.Marshal(jsonCfg)
	require.NoError(t, err)
	jsonPath := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(jsonPath, data, 0o644))

	// jobs is explicitly overridden on the command line; separator is not.
	overrides := Config{Jobs: 8}
	explicit := map[string]bool{"jobs": true}

	cfg, err := Load(jsonPath, overrides, explicit)
	require.NoError(t, err)
	require.Equal(t, ";", cfg.Separator)
	require.Equal(t, 8, cfg.Jobs)
	require.Equal(t, []string{a}, cfg.File1)
	require.NoError(t, cfg.Validate())
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := Config{
		File1:        nil,
		File2:        nil,
		Separator:    "ab",
		Field1:       -1,
		OutputFields: "",
		Output:       "",
		Jobs:         0,
	}
	err := cfg.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.GreaterOrEqual(t, len(verr.Errs), 6)
}

func TestValidateRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.File1 = []string{filepath.Join(dir, "missing")}
	cfg.File2 = []string{filepath.Join(dir, "missing2")}
	cfg.OutputFields = "1.0"
	cfg.Output = dir

	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidateRejectsBadOutputSpec(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	touch(t, a)
	touch(t, b)

	cfg := Default()
	cfg.File1 = []string{a}
	cfg.File2 = []string{b}
	cfg.OutputFields = "not-a-spec"
	cfg.Output = dir

	err := cfg.Validate()
	require.Error(t, err)
}

func TestSeparatorByte(t *testing.T) {
	cfg := Default()
	require.Equal(t, byte(','), cfg.SeparatorByte())
}
