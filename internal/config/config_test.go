package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 4*time.Second, cfg.AckTimeout)
	assert.Equal(t, 256, cfg.QueueSoftLimit)
	assert.Equal(t, ConfigChangesBuffered, cfg.ConfigChanges)
	assert.Equal(t, BackendNativeActivity, cfg.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile("testdata/game.cue")
	require.NoError(t, err)

	assert.Equal(t, Config{
		AckTimeout:     250 * time.Millisecond,
		QueueSoftLimit: 64,
		ConfigChanges:  ConfigChangesSynchronous,
		Backend:        BackendGameActivity,
		LogLevel:       "debug",
	}, cfg)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("testdata/nope.cue")
	require.Error(t, err)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ErrCodeRead, cerr.Code)
}

func TestLoadFile_UnknownField(t *testing.T) {
	_, err := LoadFile("testdata/unknown_field.cue")
	require.Error(t, err)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ErrCodeSchema, cerr.Code)
	assert.Contains(t, cerr.Message, "ack_timout")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"syntax", `backend: `, ErrCodeSyntax},
		{"bad backend", `backend: "uikit"`, ErrCodeSchema},
		{"bad config mode", `config_changes: "sometimes"`, ErrCodeSchema},
		{"zero soft limit", `queue_soft_limit: 0`, ErrCodeSchema},
		{"bad log level", `log_level: "chatty"`, ErrCodeSchema},
		{"unparseable timeout", `ack_timeout: "soon"`, ErrCodeDuration},
		{"negative timeout", `ack_timeout: "-1s"`, ErrCodeDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "inline.cue")
			require.Error(t, err)

			var cerr *Error
			require.True(t, errors.As(err, &cerr), "got %T: %v", err, err)
			assert.Equal(t, tt.code, cerr.Code)
		})
	}
}

func TestParse_PartialUsesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`ack_timeout: "100ms"`), "inline.cue")
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.AckTimeout)
	assert.Equal(t, 256, cfg.QueueSoftLimit)
	assert.Equal(t, BackendNativeActivity, cfg.Backend)
}

func TestErrorFormatting(t *testing.T) {
	err := &Error{Code: ErrCodeRead, Message: "boom"}
	assert.Equal(t, "C001: boom", err.Error())
}
