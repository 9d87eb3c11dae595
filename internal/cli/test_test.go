package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenariosDir = filepath.Join("..", "harness", "testdata")

// copyScenarios copies the harness scenario and its inputs into a fresh
// directory.
func copyScenarios(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"people.yaml", "mapping.cue", "fixture.sql"} {
		data, err := os.ReadFile(filepath.Join(scenariosDir, name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, _, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandPasses(t *testing.T) {
	out, _, err := execute(t, "test", scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ people")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "test", scenariosDir)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "people", resp.Data.Scenarios[0].Name)
}

func TestTestCommandFilter(t *testing.T) {
	out, _, err := execute(t, "test", "--filter", "orders-*", scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandUpdateAndCompareGolden(t *testing.T) {
	dir := copyScenarios(t)

	out, _, err := execute(t, "test", "--update", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ people")

	written, err := os.ReadFile(filepath.Join(dir, "golden", "people.golden"))
	require.NoError(t, err)
	expected, err := os.ReadFile(filepath.Join(scenariosDir, "golden", "people.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(expected), string(written))

	_, _, err = execute(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "people.golden"), []byte("{}\n"), 0o644))
	out, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ people")
	assert.Contains(t, out, "snapshot does not match golden file")
}

func TestTestCommandReportsFailures(t *testing.T) {
	dir := copyScenarios(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0o644))

	out, _, err := execute(t, "--format", "json", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
}
