package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/apphost/internal/config"
	"github.com/roach88/apphost/internal/event"
)

// Scenario is a scripted run of one host.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// HostID is the fixed host ID. Defaults to Name.
	HostID string `yaml:"host_id,omitempty"`

	// Backend selects the callback variant. Defaults to the config's.
	Backend string `yaml:"backend,omitempty"`

	// Config is CUE source overriding the default host config.
	Config string `yaml:"config,omitempty"`

	// Steps are performed in order. Each step is either a UI callback or a
	// native action.
	Steps []Step `yaml:"steps"`

	// Native configures how the native side reacts to events.
	Native NativeSpec `yaml:"native,omitempty"`

	// Expect holds the checks applied to the finished run.
	Expect Expect `yaml:"expect"`
}

// Step is one scenario step. Exactly one of Callback and Native is set.
type Step struct {
	Callback string `yaml:"callback,omitempty"`
	Native   string `yaml:"native,omitempty"`

	// Window labels the window for window_* callbacks.
	Window string `yaml:"window,omitempty"`
	// Queue labels the input queue for input_queue_* callbacks.
	Queue string `yaml:"queue,omitempty"`
	// Rect is the rectangle for content_rect and insets.
	Rect *RectSpec `yaml:"rect,omitempty"`
	// Focused is the new focus for the focus callback.
	Focused bool `yaml:"focused,omitempty"`
	// Config is the new configuration for config_changed.
	Config *ConfigSpec `yaml:"config,omitempty"`
	// SavedState is handed to resume.
	SavedState string `yaml:"saved_state,omitempty"`
	// Keys and Motions size the batch for input.
	Keys    int `yaml:"keys,omitempty"`
	Motions int `yaml:"motions,omitempty"`
}

// RectSpec is a rectangle in window pixels.
type RectSpec struct {
	Left   int32 `yaml:"left"`
	Top    int32 `yaml:"top"`
	Right  int32 `yaml:"right"`
	Bottom int32 `yaml:"bottom"`
}

// ConfigSpec is a device configuration snapshot.
type ConfigSpec struct {
	Orientation       string `yaml:"orientation"`
	Density           int    `yaml:"density"`
	Locale            string `yaml:"locale"`
	ScreenWidthDp     int    `yaml:"screen_width_dp"`
	ScreenHeightDp    int    `yaml:"screen_height_dp"`
	FontScalePermille int    `yaml:"font_scale_permille"`
	NightMode         bool   `yaml:"night_mode"`
}

// NativeSpec configures the native side.
type NativeSpec struct {
	// SaveState is stored in response to SaveState events. Empty stores
	// nothing.
	SaveState string `yaml:"save_state,omitempty"`

	// NoAck lists event kinds the native side receives but never
	// acknowledges.
	NoAck []string `yaml:"no_ack,omitempty"`

	// FinishAfter makes the native side call Finish after handling the
	// first event of this kind.
	FinishAfter string `yaml:"finish_after,omitempty"`

	// MotionAxes are enabled through the host before the first step.
	MotionAxes []string `yaml:"motion_axes,omitempty"`
}

// Expect lists the checks for a finished run. Unset fields are not
// checked, except Errors: a run that reports errors the scenario does not
// list fails.
type Expect struct {
	// Delivered is the kind of every event the native side received, in
	// order.
	Delivered []string `yaml:"delivered"`

	FinalState string  `yaml:"final_state,omitempty"`
	Phase      string  `yaml:"phase,omitempty"`
	SavedState *string `yaml:"saved_state,omitempty"`

	// Errors are the error codes reported during the run, in order.
	Errors []string `yaml:"errors,omitempty"`

	Redraws          *int `yaml:"redraws,omitempty"`
	PlatformFinishes *int `yaml:"platform_finishes,omitempty"`

	// MotionAxes are the axes the platform was asked to read, sorted.
	MotionAxes []string `yaml:"motion_axes,omitempty"`
}

// UI callbacks a step can perform.
const (
	CallbackStart               = "start"
	CallbackResume              = "resume"
	CallbackPause               = "pause"
	CallbackStop                = "stop"
	CallbackDestroy             = "destroy"
	CallbackSaveState           = "save_state"
	CallbackWindowCreated       = "window_created"
	CallbackWindowResized       = "window_resized"
	CallbackRedrawNeeded        = "redraw_needed"
	CallbackWindowDestroyed     = "window_destroyed"
	CallbackFocus               = "focus"
	CallbackContentRect         = "content_rect"
	CallbackInsets              = "insets"
	CallbackConfigChanged       = "config_changed"
	CallbackLowMemory           = "low_memory"
	CallbackInputQueueCreated   = "input_queue_created"
	CallbackInputQueueDestroyed = "input_queue_destroyed"
	CallbackInput               = "input"
)

// Native actions a step can perform.
const (
	NativePoll   = "poll"
	NativeFinish = "finish"
)

// callbackKinds maps each callback to the kind of event it produces.
var callbackKinds = map[string]event.Kind{
	CallbackStart:               event.KindStart,
	CallbackResume:              event.KindResume,
	CallbackPause:               event.KindPause,
	CallbackStop:                event.KindStop,
	CallbackDestroy:             event.KindDestroy,
	CallbackSaveState:           event.KindSaveState,
	CallbackWindowCreated:       event.KindWindowCreated,
	CallbackWindowResized:       event.KindWindowResized,
	CallbackRedrawNeeded:        event.KindRedrawNeeded,
	CallbackWindowDestroyed:     event.KindWindowDestroyed,
	CallbackFocus:               event.KindGainedFocus,
	CallbackContentRect:         event.KindContentRectChanged,
	CallbackInsets:              event.KindInsetsChanged,
	CallbackConfigChanged:       event.KindConfigChanged,
	CallbackLowMemory:           event.KindLowMemory,
	CallbackInputQueueCreated:   event.KindInputQueueCreated,
	CallbackInputQueueDestroyed: event.KindInputQueueDestroyed,
	CallbackInput:               event.KindInputBatch,
}

// kind returns the kind of event the step's callback produces.
func (s Step) kind() event.Kind {
	if s.Callback == CallbackFocus && !s.Focused {
		return event.KindLostFocus
	}
	return callbackKinds[s.Callback]
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.Expect.Delivered == nil {
		return fmt.Errorf("expect.delivered is required")
	}

	switch config.Backend(s.Backend) {
	case "", config.BackendNativeActivity, config.BackendGameActivity:
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for _, k := range s.Native.NoAck {
		if _, err := event.ParseKind(k); err != nil {
			return fmt.Errorf("native.no_ack: %w", err)
		}
	}
	if s.Native.FinishAfter != "" {
		if _, err := event.ParseKind(s.Native.FinishAfter); err != nil {
			return fmt.Errorf("native.finish_after: %w", err)
		}
	}

	for _, a := range s.Native.MotionAxes {
		if _, err := event.ParseAxis(a); err != nil {
			return fmt.Errorf("native.motion_axes: %w", err)
		}
	}

	for i, k := range s.Expect.Delivered {
		if _, err := event.ParseKind(k); err != nil {
			return fmt.Errorf("expect.delivered[%d]: %w", i, err)
		}
	}
	if s.Expect.FinalState != "" {
		if _, err := event.ParseLifecycleState(s.Expect.FinalState); err != nil {
			return fmt.Errorf("expect.final_state: %w", err)
		}
	}
	switch s.Expect.Phase {
	case "", "Idle", "Running", "Finishing", "Terminated":
	default:
		return fmt.Errorf("expect.phase: unknown phase %q", s.Expect.Phase)
	}

	return nil
}

// validateStep validates a single step based on its callback or action.
func validateStep(index int, step Step) error {
	switch {
	case step.Callback == "" && step.Native == "":
		return fmt.Errorf("steps[%d]: callback or native is required", index)
	case step.Callback != "" && step.Native != "":
		return fmt.Errorf("steps[%d]: callback and native are mutually exclusive", index)
	case step.Native != "":
		if step.Native != NativePoll && step.Native != NativeFinish {
			return fmt.Errorf("steps[%d]: unknown native action %q", index, step.Native)
		}
		return nil
	}

	if _, ok := callbackKinds[step.Callback]; !ok {
		return fmt.Errorf("steps[%d]: unknown callback %q", index, step.Callback)
	}

	switch step.Callback {
	case CallbackWindowCreated, CallbackWindowResized, CallbackRedrawNeeded, CallbackWindowDestroyed:
		if step.Window == "" {
			return fmt.Errorf("steps[%d]: window is required for %s", index, step.Callback)
		}
	case CallbackInputQueueCreated, CallbackInputQueueDestroyed:
		if step.Queue == "" {
			return fmt.Errorf("steps[%d]: queue is required for %s", index, step.Callback)
		}
	case CallbackContentRect, CallbackInsets:
		if step.Rect == nil {
			return fmt.Errorf("steps[%d]: rect is required for %s", index, step.Callback)
		}
	case CallbackConfigChanged:
		if step.Config == nil {
			return fmt.Errorf("steps[%d]: config is required for %s", index, step.Callback)
		}
		if _, err := event.ParseOrientation(step.Config.Orientation); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	case CallbackInput:
		if step.Keys < 0 || step.Motions < 0 || step.Keys+step.Motions == 0 {
			return fmt.Errorf("steps[%d]: input needs a positive number of keys or motions", index)
		}
	}

	return nil
}
