package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_ConsistentSTN(t *testing.T) {
	out, err := execCommand(t, "check", "testdata/stn-consistent.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "consistent")
	assert.Contains(t, out, "2 timepoint(s)")
}

func TestCheck_InconsistentSTN(t *testing.T) {
	out, err := execCommand(t, "check", "testdata/stn-inconsistent.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "INCONSISTENT")
	assert.Contains(t, out, "Witness:")
}

// TestCheck_TimeTriggered converts a schedule to a network; the schedule
// satisfies its own constraints by construction.
func TestCheck_TimeTriggered(t *testing.T) {
	out, err := execCommand(t, "check", "testdata/lamp-plan-valid.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "consistent")
}

func TestCheck_JSONOutput(t *testing.T) {
	out, err := execCommand(t, "--format", "json", "check", "testdata/stn-inconsistent.yaml")
	require.Error(t, err)

	resp := decodeResponse(t, out)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["consistent"])
	assert.NotEmpty(t, data["witness_from"])
}

func TestCheck_UnsupportedPlanKind(t *testing.T) {
	_, err := execCommand(t, "check", "testdata/lamp-plan-sequential.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "requires an stn or time-triggered plan")
}

func TestCheck_MissingFile(t *testing.T) {
	_, err := execCommand(t, "check", "testdata/no-such.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
