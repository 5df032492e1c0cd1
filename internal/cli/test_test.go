package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestCommand_AllPass(t *testing.T) {
	out, err := execCommand(t, "test", "testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ lamp-valid")
	assert.Contains(t, out, "✓ lamp-invalid")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestTestCommand_Filter(t *testing.T) {
	out, err := execCommand(t, "test", "testdata/scenarios", "--filter", "lamp-v*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_FilterMatchesNothing(t *testing.T) {
	out, err := execCommand(t, "test", "testdata/scenarios", "--filter", "zzz-*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_MissingDirectory(t *testing.T) {
	_, err := execCommand(t, "test", "testdata/no-such-dir")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_JSONOutput(t *testing.T) {
	out, err := execCommand(t, "--format", "json", "test", "testdata/scenarios")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), data["passed"])
	assert.Equal(t, float64(0), data["failed"])
}
