package v1alpha1

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunStatusTerminal(t *testing.T) {
	require.False(t, RunStatusQueued.Terminal())
	require.False(t, RunStatusRunning.Terminal())
	require.True(t, RunStatusSucceeded.Terminal())
	require.True(t, RunStatusFailed.Terminal())

	require.True(t, RunStatusQueued.Pending())
	require.True(t, RunStatusRunning.Pending())
	require.False(t, RunStatusSucceeded.Pending())
}

func TestRunUnmarshalLegacyRefsKeys(t *testing.T) {
	body := `{
		"id": 3,
		"run_type": "OVERLAY",
		"status": "SUCCEEDED",
		"input_refs_json": {"exposure_version_id": 9},
		"output_refs_json": {"overlay_result_id": 14}
	}`

	var run Run
	require.NoError(t, json.Unmarshal([]byte(body), &run))
	require.Equal(t, RunTypeOverlay, run.RunType)
	require.Equal(t, float64(9), run.InputRefs["exposure_version_id"])
	require.Equal(t, float64(14), run.OutputRefs["overlay_result_id"])
}

func TestRunUnmarshalCurrentKeysWin(t *testing.T) {
	body := `{
		"id": 3,
		"run_type": "OVERLAY",
		"status": "SUCCEEDED",
		"output_refs": {"overlay_result_id": 14},
		"output_refs_json": {"overlay_result_id": 99}
	}`

	var run Run
	require.NoError(t, json.Unmarshal([]byte(body), &run))
	require.Equal(t, float64(14), run.OutputRefs["overlay_result_id"])
}
