package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

const quickScenario = `name: quick_climb
description: "One nudge past the first threshold"
steps:
  - do: modify
    delta: 45
assertions:
  - type: trace_contains
    event: entropy.enter.40
`

const failingScenario = `name: wrong_expectation
description: "Asserts a seizure that never happens"
steps:
  - do: modify
    delta: 12
assertions:
  - type: trace_contains
    event: entropy.seizure
`

func execTest(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func decodeTestResult(t *testing.T, out string) TestResult {
	t.Helper()
	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp.Data
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execTest(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execTest(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := execTest(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := execTest(t, "json", harnessScenarios)
	require.NoError(t, err, out)

	result := decodeTestResult(t, out)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 4, result.Passed)
	assert.Zero(t, result.Failed)

	golden := map[string]bool{}
	for _, s := range result.Scenarios {
		golden[s.Name] = s.Golden
	}
	assert.True(t, golden["threshold_climb"], "golden file found in sibling directory")
	assert.False(t, golden["feed_seed"])
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execTest(t, "json", harnessScenarios, "--filter", "stone_*")
	require.NoError(t, err)

	result := decodeTestResult(t, out)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "stone_sleep", result.Scenarios[0].Name)
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "quick.yaml", quickScenario)
	writeFile(t, dir, "wrong.yaml", failingScenario)

	out, err := execTest(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ quick_climb")
	assert.Contains(t, out, "✗ wrong_expectation")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: broken\nsteps: [\n")

	out, err := execTest(t, "json", dir)
	require.Error(t, err)

	result := decodeTestResult(t, out)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "broken.yaml", result.Scenarios[0].Name)
	assert.Contains(t, result.Scenarios[0].Errors[0], "failed to load scenario")
}

func TestTestCommandUpdateGolden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "quick.yaml", quickScenario)

	out, err := execTest(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ quick_climb (golden updated)")

	goldenPath := filepath.Join(dir, "golden", "quick_climb.golden")
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name": "quick_climb"`)
	assert.Contains(t, string(data), `"event": "entropy.enter.40"`)

	out, err = execTest(t, "json", dir)
	require.NoError(t, err)
	result := decodeTestResult(t, out)
	require.Len(t, result.Scenarios, 1)
	assert.True(t, result.Scenarios[0].Golden)

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"scenario_name": "quick_climb", "trace": []}`), 0o644))
	out, err = execTest(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", quickScenario)
	writeFile(t, dir, "b.yml", quickScenario)
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))
	writeFile(t, filepath.Join(dir, "golden"), "c.yaml", quickScenario)

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yml")}, files)

	files, err = findScenarioFiles(dir, "b")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = findScenarioFiles(dir, "[")
	require.Error(t, err)
}
