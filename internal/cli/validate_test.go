package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execCommand runs the CLI with the given args and captures stdout.
func execCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeResponse unmarshals a JSON CLI envelope.
func decodeResponse(t *testing.T, output string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	return resp
}

func TestValidate_ValidPlan(t *testing.T) {
	out, err := execCommand(t, "validate", "testdata/lamp-problem.yaml", "testdata/lamp-plan-valid.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "VALID")
	assert.Contains(t, out, "4 event(s)")
}

func TestValidate_InvalidPlan(t *testing.T) {
	out, err := execCommand(t, "validate", "testdata/lamp-problem.yaml", "testdata/lamp-plan-invalid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "INVALID")
	assert.Contains(t, out, "CONDITION_FALSE")
}

func TestValidate_JSONOutput(t *testing.T) {
	out, err := execCommand(t, "--format", "json", "validate",
		"testdata/lamp-problem.yaml", "testdata/lamp-plan-valid.yaml")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VALID", data["status"])

	report, ok := data["report"].(map[string]any)
	require.True(t, ok)
	trace, ok := report["trace"].([]any)
	require.True(t, ok)
	assert.Len(t, trace, 4)
}

func TestValidate_SequentialPlan(t *testing.T) {
	out, err := execCommand(t, "validate", "testdata/lamp-problem.yaml", "testdata/lamp-plan-sequential.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "VALID")
}

func TestValidate_MissingProblem(t *testing.T) {
	_, err := execCommand(t, "validate", "testdata/no-such.yaml", "testdata/lamp-plan-valid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// TestValidate_PersistAndInspect round-trips a run through a database and
// inspects it with the runs, trace, and replay commands.
func TestValidate_PersistAndInspect(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	out, err := execCommand(t, "--format", "json", "validate",
		"testdata/lamp-problem.yaml", "testdata/lamp-plan-valid.yaml", "--db", dbPath)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	runID, ok := data["run_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, runID)

	out, err = execCommand(t, "runs", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 run(s)")
	assert.Contains(t, out, runID)

	out, err = execCommand(t, "--format", "json", "trace", "--db", dbPath, "--run", runID)
	require.NoError(t, err)
	resp = decodeResponse(t, out)
	data, ok = resp.Data.(map[string]any)
	require.True(t, ok)
	events, ok := data["events"].([]any)
	require.True(t, ok)
	assert.Len(t, events, 4)

	out, err = execCommand(t, "replay", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "All runs verified")
}

func TestTrace_InstanceFilter(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	out, err := execCommand(t, "--format", "json", "validate",
		"testdata/lamp-problem.yaml", "testdata/lamp-plan-valid.yaml", "--db", dbPath)
	require.NoError(t, err)
	data := decodeResponse(t, out).Data.(map[string]any)
	runID := data["run_id"].(string)

	out, err = execCommand(t, "--format", "json", "trace",
		"--db", dbPath, "--run", runID, "--instance", "switch_on")
	require.NoError(t, err)
	events := decodeResponse(t, out).Data.(map[string]any)["events"].([]any)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, "switch_on", ev.(map[string]any)["instance"])
	}
}

func TestTrace_UnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	// Create an empty database first.
	_, err := execCommand(t, "replay", "--db", dbPath)
	require.NoError(t, err)

	_, err = execCommand(t, "trace", "--db", dbPath, "--run", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplay_EmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	out, err := execCommand(t, "replay", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found.")
}
