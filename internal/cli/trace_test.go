package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apphost/internal/harness"
	"github.com/roach88/apphost/internal/store"
)

// recordScenarios runs scenarios into a fresh database and returns its path.
func recordScenarios(t *testing.T, names ...string) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "trace.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	for _, name := range names {
		s, err := harness.LoadScenario(scenarioPath(name))
		require.NoError(t, err)
		_, err = harness.RunWithOptions(context.Background(), s, harness.Options{Store: st})
		require.NoError(t, err)
	}
	return db
}

func TestTrace_Text(t *testing.T) {
	db := recordScenarios(t, "basic_lifecycle", "input_overflow")

	out, _, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)

	assert.Contains(t, out, "Host: scenario-basic (native-activity)")
	assert.Contains(t, out, "Events: 9 total, 8 delivered, 2 synchronous, 1 dropped")
	assert.Contains(t, out, "Host: input_overflow (native-activity)")
	assert.Contains(t, out, "Events: 4 total, 2 delivered, 0 synchronous, 2 dropped")
	assert.Less(t, strings.Index(out, "scenario-basic"), strings.Index(out, "input_overflow"))
}

func TestTrace_SingleHostJSON(t *testing.T) {
	db := recordScenarios(t, "basic_lifecycle", "ack_timeout")

	out, _, err := execute(t, "--format", "json", "trace", "--db", db, "--host", "scenario-ack-timeout")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   []HostTrace `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)

	trace := resp.Data[0]
	assert.Equal(t, "game-activity", trace.Backend)
	require.Len(t, trace.Timeline, 5)
	assert.Equal(t, "WindowCreated", trace.Timeline[2].Kind)
	assert.Equal(t, "timeout", trace.Timeline[2].Ack)
	assert.True(t, trace.Timeline[2].Sync)
	assert.JSONEq(t, `{"id":4,"kind":"Terminate","reason":"ack_timeout"}`, string(trace.Timeline[3].Payload))
}

func TestTrace_UnknownHost(t *testing.T) {
	db := recordScenarios(t, "game_window")

	out, _, err := execute(t, "trace", "--db", db, "--host", "nobody")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_NOT_FOUND]: host not found: nobody")
}

func TestTrace_EmptyDatabase(t *testing.T) {
	db := recordScenarios(t)

	out, _, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No hosts recorded.\n", out)

	out, _, err = execute(t, "--format", "json", "trace", "--db", db)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":[]}`, out)
}

func TestTrace_MissingDatabase(t *testing.T) {
	_, _, err := execute(t, "trace", "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
