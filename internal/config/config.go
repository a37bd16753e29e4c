// Package config loads host configuration from CUE files validated against
// an embedded schema.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sync"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSource string

// ConfigChangeMode selects how ConfigChanged events are handed over.
type ConfigChangeMode string

const (
	// ConfigChangesBuffered queues config changes like input; a newer
	// snapshot supersedes a queued one.
	ConfigChangesBuffered ConfigChangeMode = "buffered"

	// ConfigChangesSynchronous blocks the platform until the application
	// acknowledges each config change.
	ConfigChangesSynchronous ConfigChangeMode = "synchronous"
)

// Backend names a platform adapter variant.
type Backend string

const (
	BackendNativeActivity Backend = "native-activity"
	BackendGameActivity   Backend = "game-activity"
)

// Config is the validated host configuration.
type Config struct {
	AckTimeout     time.Duration
	QueueSoftLimit int
	ConfigChanges  ConfigChangeMode
	Backend        Backend
	LogLevel       string
}

// file mirrors #Config for decoding.
type file struct {
	AckTimeout     string `json:"ack_timeout"`
	QueueSoftLimit int    `json:"queue_soft_limit"`
	ConfigChanges  string `json:"config_changes"`
	Backend        string `json:"backend"`
	LogLevel       string `json:"log_level"`
}

// Error codes for configuration failures.
const (
	ErrCodeRead     = "C001" // file could not be read
	ErrCodeSyntax   = "C002" // CUE did not compile
	ErrCodeSchema   = "C003" // value does not satisfy #Config
	ErrCodeDuration = "C004" // ack_timeout is not a positive duration
)

// Error is a configuration error, positioned when CUE knows where it is.
type Error struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return defaultConfig()
}

var defaultConfig = sync.OnceValue(func() Config {
	cfg, err := Parse(nil, "default.cue")
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema defaults invalid: %v", err))
	}
	return cfg
})

// LoadFile reads and parses a CUE config file.
func LoadFile(path string) (Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{Code: ErrCodeRead, Message: err.Error()}
	}
	return Parse(src, path)
}

// Parse compiles src, unifies it with #Config and decodes the result.
// filename is only used in error positions.
func Parse(src []byte, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, cueError(ErrCodeSyntax, err)
	}

	user := ctx.CompileBytes(src, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return Config{}, cueError(ErrCodeSyntax, err)
	}

	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(user)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return Config{}, cueError(ErrCodeSchema, err)
	}

	var f file
	if err := value.Decode(&f); err != nil {
		return Config{}, cueError(ErrCodeSchema, err)
	}

	timeout, err := time.ParseDuration(f.AckTimeout)
	if err != nil || timeout <= 0 {
		return Config{}, &Error{
			Code:    ErrCodeDuration,
			Message: fmt.Sprintf("ack_timeout must be a positive duration, got %q", f.AckTimeout),
			Pos:     value.LookupPath(cue.ParsePath("ack_timeout")).Pos(),
		}
	}

	return Config{
		AckTimeout:     timeout,
		QueueSoftLimit: f.QueueSoftLimit,
		ConfigChanges:  ConfigChangeMode(f.ConfigChanges),
		Backend:        Backend(f.Backend),
		LogLevel:       f.LogLevel,
	}, nil
}

// cueError converts the first CUE error into an *Error with its position.
func cueError(code string, err error) *Error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Code: code, Message: err.Error()}
	}
	first := errs[0]
	return &Error{
		Code:    code,
		Message: first.Error(),
		Pos:     first.Position(),
	}
}
