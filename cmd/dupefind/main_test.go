package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func content(n int, seed byte) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*31) ^ seed
	}
	return data
}

// threeFileTree builds a.bin and b.bin as identical copies and c.bin differing in its last byte
func threeFileTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	data := content(5000, 7)
	writeFile(t, dir, "a.bin", data)
	writeFile(t, dir, "b.bin", data)
	other := append([]byte(nil), data...)
	other[len(other)-1] ^= 0xff
	writeFile(t, dir, "c.bin", other)
	return dir
}

func runCLI(t *testing.T, shutdown <-chan struct{}, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"dupefind", "--no-color"}, args...), &stdout, &stderr, shutdown)
	return code, stdout.String(), stderr.String()
}

func TestRun_HumanReport(t *testing.T) {
	dir := threeFileTree(t)

	code, stdout, stderr := runCLI(t, nil, dir)
	require.Equal(t, exitOK, code, stderr)

	assert.Contains(t, stdout, "# Duplicates:")
	assert.Contains(t, stdout, "4.9 KiB")
	assert.Contains(t, stdout, filepath.Join(dir, "a.bin"))
	assert.Contains(t, stdout, filepath.Join(dir, "b.bin"))
	assert.NotContains(t, stdout, filepath.Join(dir, "c.bin"))
	assert.Contains(t, stdout, "There are 1 groups of duplicate files with 2 total number of files in these groups, whereof 1 are duplicates.")
}

func TestRun_EmptyTree(t *testing.T) {
	code, stdout, _ := runCLI(t, nil, t.TempDir())
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "There are 0 groups of duplicate files with 0 total number of files in these groups, whereof 0 are duplicates.")
}

func TestRun_ConfigErrors(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "plain", []byte("x"))

	tests := []struct {
		name string
		args []string
	}{
		{"minsize not below maxsize", []string{"--minsize", "200", "--maxsize", "200", dir}},
		{"missing directory", []string{filepath.Join(dir, "missing")}},
		{"root is a file", []string{file}},
		{"unknown format", []string{"--format", "xml", dir}},
		{"unknown hash", []string{"--hash", "md5", dir}},
		{"bad override", []string{"--override", "colour:blue", dir}},
		{"bad ignore pattern", []string{"--ignore", "([", dir}},
		{"missing config file", []string{"--config", filepath.Join(dir, "none.ini"), dir}},
		{"two directories", []string{dir, dir}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, nil, tt.args...)
			assert.Equal(t, exitConfigError, code)
			assert.Empty(t, stdout)
			assert.True(t, strings.HasPrefix(stderr, "dupefind: "), stderr)
		})
	}
}

func TestRun_Interrupted(t *testing.T) {
	shutdown := make(chan struct{})
	close(shutdown)

	code, _, stderr := runCLI(t, shutdown, threeFileTree(t))
	assert.Equal(t, exitInterrupted, code)
	assert.Contains(t, stderr, "interrupted")
}

func TestRun_JSONAndYAML(t *testing.T) {
	dir := threeFileTree(t)

	code, stdout, stderr := runCLI(t, nil, "--format", "json", "--verify", dir)
	require.Equal(t, exitOK, code, stderr)

	var doc reportDocument
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.True(t, doc.Verified)
	assert.Equal(t, 1, doc.Summary.Groups)
	assert.Equal(t, 1, doc.Summary.Redundant)
	require.Len(t, doc.Groups, 1)
	assert.True(t, doc.Groups[0].Verified)
	assert.NotEmpty(t, doc.Groups[0].Content)

	code, stdout, stderr = runCLI(t, nil, "--format", "yaml", dir)
	require.Equal(t, exitOK, code, stderr)

	var ydoc reportDocument
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &ydoc))
	assert.Equal(t, 2, ydoc.Summary.Files)
	require.Len(t, ydoc.Groups, 1)
	assert.Equal(t, int64(5000), ydoc.Groups[0].Size)
}

func TestRun_Fdupes(t *testing.T) {
	dir := threeFileTree(t)

	code, stdout, stderr := runCLI(t, nil, "--format", "fdupes", dir)
	require.Equal(t, exitOK, code, stderr)
	want := filepath.Join(dir, "a.bin") + "\n" + filepath.Join(dir, "b.bin") + "\n\n"
	assert.Equal(t, want, stdout)
}

func TestRun_Precedence(t *testing.T) {
	dir := threeFileTree(t)
	configPath := writeFile(t, t.TempDir(), "dupefind.ini", []byte("[filter]\nminsize = 10K\n"))

	// config file excludes the 5000 byte files
	code, stdout, _ := runCLI(t, nil, "--config", configPath, dir)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "There are 0 groups")

	// an override beats the config file
	code, stdout, _ = runCLI(t, nil, "--config", configPath, "--override", "minsize:1K", dir)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "There are 1 groups")

	// a flag beats the override
	code, stdout, _ = runCLI(t, nil, "--config", configPath, "--override", "minsize:1K", "--minsize", "6000", dir)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "There are 0 groups")
}

func TestRun_EnvironmentVariables(t *testing.T) {
	dir := threeFileTree(t)
	t.Setenv("DUPEFIND_FORMAT", "fdupes")

	code, stdout, stderr := runCLI(t, nil, dir)
	require.Equal(t, exitOK, code, stderr)
	assert.True(t, strings.HasSuffix(stdout, "\n\n"))
	assert.NotContains(t, stdout, "# Duplicates:")
}

func TestRun_DumpConfig(t *testing.T) {
	code, stdout, _ := runCLI(t, nil, "--dump-config", "--hash", "sha256", t.TempDir())
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "[filehash]")
	assert.Contains(t, stdout, "sha256")
}

func TestRun_IgnoreAndProgress(t *testing.T) {
	dir := threeFileTree(t)
	writeFile(t, dir, "backup/a.bin", content(5000, 7))

	code, stdout, stderr := runCLI(t, nil, "--ignore", "^backup", "--verbose", "1", dir)
	require.Equal(t, exitOK, code, stderr)
	assert.NotContains(t, stdout, filepath.Join(dir, "backup"))
	assert.Contains(t, stderr, "scanning directory")
	assert.Contains(t, stderr, "tail stage")
}

func TestRun_UnreadableFileIsAWarning(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read any file")
	}
	dir := threeFileTree(t)
	locked := writeFile(t, dir, "d.bin", content(5000, 7))
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { os.Chmod(locked, 0644) })

	code, stdout, stderr := runCLI(t, nil, dir)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr, "Warning: ")
	assert.Contains(t, stderr, locked)
	assert.Contains(t, stdout, "There are 1 groups")
}
