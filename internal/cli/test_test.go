package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: follow_once
description: a single follow shows up in both directions
flow:
  - as: alice
    invoke: graph.follow
    args: {target: bob}
assertions:
  - type: query
    invoke: graph.followers
    args: {identity: bob}
    expect: {items: [alice]}
`

const failingScenario = `name: wrong_follower
description: expects a follower that never followed
flow:
  - as: alice
    invoke: graph.follow
    args: {target: bob}
assertions:
  - type: query
    invoke: graph.followers
    args: {identity: bob}
    expect: {items: [carol]}
`

func writeScenarios(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestTestCommand_Passing(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"follow.yaml": passingScenario, "notes.txt": "ignored"})

	out, _, code := cliRun(t, testDB(t), "test", dir)
	assert.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "✓ follow_once")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_FailingJSON(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"a.yaml": passingScenario, "b.yaml": failingScenario})

	out, _, code := cliRun(t, testDB(t), "--format", "json", "test", dir)
	assert.Equal(t, ExitFailure, code)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 2)
	assert.True(t, resp.Data.Scenarios[0].Pass)
	assert.False(t, resp.Data.Scenarios[1].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[1].Errors)
}

func TestTestCommand_Filter(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"follow.yaml": passingScenario, "wrong.yaml": failingScenario})

	out, _, code := cliRun(t, testDB(t), "test", dir, "--filter", "fol*")
	assert.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_GoldenUpdateThenMatch(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"follow.yaml": passingScenario})

	out, _, code := cliRun(t, testDB(t), "test", dir, "--update")
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "(golden updated)")
	assert.FileExists(t, filepath.Join(dir, "golden", "follow.golden"))

	out, _, code = cliRun(t, testDB(t), "test", dir)
	assert.Equal(t, ExitSuccess, code, out)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "follow.golden"), []byte("{}"), 0o644))
	out, _, code = cliRun(t, testDB(t), "test", dir)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_Errors(t *testing.T) {
	out, _, code := cliRun(t, testDB(t), "test", filepath.Join(t.TempDir(), "absent"))
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, out, "scenarios directory not found")

	dir := writeScenarios(t, map[string]string{"bad.yaml": "name: x\n"})
	out, _, code = cliRun(t, testDB(t), "test", dir)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "failed to load scenario")

	out, _, code = cliRun(t, testDB(t), "test", dir, "--filter", "[")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, out, "invalid filter pattern")
}

func TestTestCommand_Empty(t *testing.T) {
	out, _, code := cliRun(t, testDB(t), "test", t.TempDir())
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "No scenarios found.")
}
