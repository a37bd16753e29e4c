package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apphost/internal/config"
)

func configPath(name string) string {
	return filepath.Join("..", "config", "testdata", name)
}

func TestValidate_Valid(t *testing.T) {
	out, _, err := execute(t, "validate", configPath("game.cue"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "game.cue")
}

func TestValidate_ValidJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "validate", configPath("game.cue"))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, &ConfigView{
		AckTimeout:     "250ms",
		QueueSoftLimit: 64,
		ConfigChanges:  "synchronous",
		Backend:        "game-activity",
		LogLevel:       "debug",
	}, resp.Data.Config)
}

func TestValidate_VerboseShowsResolvedConfig(t *testing.T) {
	_, errOut, err := execute(t, "--verbose", "validate", configPath("game.cue"))
	require.NoError(t, err)
	assert.Contains(t, errOut, "ack_timeout=250ms queue_soft_limit=64")
}

func TestValidate_SchemaError(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "validate", configPath("unknown_field.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotNil(t, resp.Data.Error)
	assert.Equal(t, config.ErrCodeSchema, resp.Data.Error.Code)
	assert.Contains(t, resp.Data.Error.Message, "ack_timout")
}

func TestValidate_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.cue")
	require.NoError(t, os.WriteFile(path, []byte("ack_timeout: \"soon\"\n"), 0o644))

	out, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, config.ErrCodeDuration)
}

func TestValidate_MissingFile(t *testing.T) {
	_, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
