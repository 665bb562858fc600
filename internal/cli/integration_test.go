package cli_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "../../testdata/samples/users.json"

func jsontree(args ...string) *exec.Cmd {
	return exec.Command("go", append([]string{"run", "../../main.go"}, args...)...)
}

// TestCLI_FileInputOutput renders a file to an HTML page on disk
func TestCLI_FileInputOutput(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "users.html")

	cmd := jsontree("render", "-i", sample, "-o", outputFile, "--title", "Users")
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "CLI command failed: %s", string(output))
	assert.Contains(t, string(output), "Tree written to")

	page, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	html := string(page)

	assert.Contains(t, html, "<title>Users</title>")
	assert.Contains(t, html, `id="json-tree-users"`)
	assert.Contains(t, html, "Object (7 keys)")
	assert.Contains(t, html, "Array (2 items)")
	assert.Contains(t, html, `json-tree-value json-tree-string"`)
	assert.Contains(t, html, `json-tree-value json-tree-null"`)
	assert.Contains(t, html, `data-node-count="17"`)
}

// TestCLI_StdinStdout renders piped JSON as a text outline
func TestCLI_StdinStdout(t *testing.T) {
	cmd := jsontree("--format", "text")
	cmd.Stdin = strings.NewReader(`{"name": "Jane Smith", "age": 25, "active": true}`)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	require.NoError(t, err, "CLI command failed: %s", stderr.String())

	output := stdout.String()
	assert.Contains(t, output, "Object (3 keys)")
	assert.Contains(t, output, `"name": "Jane Smith"`)
	assert.Contains(t, output, `"age": 25`)
	assert.Contains(t, output, `"active": true`)
}

// TestCLI_Stats reports on a sample file
func TestCLI_Stats(t *testing.T) {
	cmd := jsontree("stats", "-i", sample)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "CLI command failed: %s", string(output))

	assert.Contains(t, string(output), "Nodes:      17")
	assert.Contains(t, string(output), "Depth:      3")
	assert.Contains(t, string(output), "Tree view:  available")
}

// TestCLI_ConfigFile picks settings from an explicit config file
func TestCLI_ConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "jsontree.yml")
	require.NoError(t, os.WriteFile(cfg, []byte("output:\n  title: Configured\n  format: text\n"), 0o644))

	cmd := jsontree("render", "--config", cfg, "--format", "html")
	cmd.Stdin = strings.NewReader(`[1, 2]`)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	require.NoError(t, cmd.Run())
	assert.Contains(t, stdout.String(), "<title>Configured</title>")
}

// TestCLI_InvalidJSON fails with a parse error
func TestCLI_InvalidJSON(t *testing.T) {
	cmd := jsontree()
	cmd.Stdin = strings.NewReader(`{"name": "Invalid JSON, "age": 30}`)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	assert.Error(t, err, "CLI should fail with invalid JSON")
	assert.Contains(t, stderr.String(), "JSON parsing error")
}

// TestCLI_EmptyInput fails on empty stdin
func TestCLI_EmptyInput(t *testing.T) {
	cmd := jsontree()
	cmd.Stdin = strings.NewReader("")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	assert.Error(t, err, "CLI should fail with empty input")
	assert.Contains(t, stderr.String(), "empty input")
}

// TestCLI_TooDeep refuses documents past the depth limit
func TestCLI_TooDeep(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "jsontree.yml")
	require.NoError(t, os.WriteFile(cfg, []byte("limits:\n  max_tree_depth: 3\n"), 0o644))

	cmd := jsontree("--config", cfg)
	cmd.Stdin = strings.NewReader(`[[[[[1]]]]]`)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	assert.Error(t, err)
	assert.Contains(t, stderr.String(), "Tree view disabled: JSON too deeply nested")
}

// TestCLI_Version tests the version flag
func TestCLI_Version(t *testing.T) {
	cmd := jsontree("-v")
	output, err := cmd.CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(output), "jsontree version")
}

// TestCLI_Help tests the help output
func TestCLI_Help(t *testing.T) {
	cmd := jsontree("--help")
	output, err := cmd.CombinedOutput()
	require.NoError(t, err)

	helpOutput := string(output)
	assert.Contains(t, helpOutput, "Usage:")
	assert.Contains(t, helpOutput, "render")
	assert.Contains(t, helpOutput, "serve")
	assert.Contains(t, helpOutput, "view")
	assert.Contains(t, helpOutput, "stats")
	assert.Contains(t, helpOutput, "--config")
}
