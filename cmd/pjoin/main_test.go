package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	out := filepath.Join(dir, "out")
	writeFile(t, a, "1\n2\n3\n4\n")
	writeFile(t, b, "1\n2\n4\n5\n6\n")
	require.NoError(t, os.Mkdir(out, 0o755))

	code := run([]string{
		"-file1", a,
		"-file2", b,
		"-output-fields", "1.0",
		"-output", out,
		"-jobs", "1",
	})
	require.Equal(t, 0, code)

	data, err := os.ReadFile(filepath.Join(out, "0"))
	require.NoError(t, err)
	require.Equal(t, "1\n2\n4\n", string(data))
}

func TestRunRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	code := run([]string{"-output", dir})
	require.NotEqual(t, 0, code)
}

func TestRunMultipleFile1Flags(t *testing.T) {
	dir := t.TempDir()
	a1 := filepath.Join(dir, "a1")
	a2 := filepath.Join(dir, "a2")
	b := filepath.Join(dir, "b")
	out := filepath.Join(dir, "out")
	writeFile(t, a1, "1\n2\n")
	writeFile(t, a2, "3\n4\n")
	writeFile(t, b, "2\n3\n")
	require.NoError(t, os.Mkdir(out, 0o755))

	code := run([]string{
		"-file1", a1,
		"-file1", a2,
		"-file2", b,
		"-output-fields", "1.0",
		"-output", out,
		"-jobs", "1",
	})
	require.Equal(t, 0, code)

	data, err := os.ReadFile(filepath.Join(out, "0"))
	require.NoError(t, err)
	require.Equal(t, "2\n3\n", string(data))
}
