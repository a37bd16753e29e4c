package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/apphost/internal/adapter"
	"github.com/roach88/apphost/internal/bridge"
	"github.com/roach88/apphost/internal/config"
	"github.com/roach88/apphost/internal/event"
	"github.com/roach88/apphost/internal/host"
	"github.com/roach88/apphost/internal/lifecycle"
	applog "github.com/roach88/apphost/internal/log"
	"github.com/roach88/apphost/internal/store"
	"github.com/roach88/apphost/internal/testutil"
)

// Error codes reported for callback errors that are not bridge errors.
const (
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeTerminated        = "TERMINATED"
	CodeOther             = "ERROR"
)

// syncPollInterval bounds each native poll while a synchronous callback is
// in progress.
const syncPollInterval = 10 * time.Millisecond

// Options adjusts a scenario run.
type Options struct {
	// Config replaces the default config. A scenario with its own config
	// block uses that instead.
	Config *config.Config

	// Store records the trace. A private in-memory store is used when nil.
	Store *store.Store
}

// turn is the native side's permission to act.
type turn struct {
	action string
	// done is closed once a synchronous callback has returned.
	done chan struct{}
}

const turnSync = "sync"

// runner holds the state of one scenario run.
type runner struct {
	scenario *Scenario
	host     *host.Host
	logger   zerolog.Logger

	turns   chan turn
	turnEnd chan struct{}

	// Native side.
	noAck       map[event.Kind]bool
	finishAfter event.Kind
	finished    bool

	// UI side.
	windows    map[string]uintptr
	queues     map[string]uintptr
	nextHandle uintptr

	mu       sync.Mutex
	pending  []func()
	reported []string

	redraws          int
	platformFinishes int
	motionAxes       map[event.Axis]bool
}

// Run executes a scenario with default options.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithOptions(context.Background(), scenario, Options{})
}

// RunWithOptions executes a scenario and returns the result.
//
// Execution flow:
//  1. Resolve the config and open the trace store
//  2. Build a host with a fixed ID and deterministic clock
//  3. Run the UI and native goroutines until the steps are done
//  4. Read the trace back and evaluate the expectations
func RunWithOptions(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	cfg, err := scenarioConfig(scenario, opts.Config)
	if err != nil {
		return nil, err
	}

	st := opts.Store
	if st == nil {
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}

	hostID := scenario.HostID
	if hostID == "" {
		hostID = scenario.Name
	}
	if err := st.RegisterHost(ctx, hostID, string(cfg.Backend)); err != nil {
		return nil, err
	}
	rec := st.NewRecorder(ctx)

	r := newRunner(scenario)
	dispatcher := adapter.NewDispatcher(r.dispatch, r.redraw, r.platformFinish)
	if cfg.Backend == config.BackendGameActivity {
		dispatcher.SetMotionAxisHandler(r.motionAxis)
	}
	r.host = host.New(host.Context{Platform: dispatcher},
		host.WithConfig(cfg),
		host.WithObserver(rec),
		host.WithIDGenerator(testutil.NewFixedHostID(hostID)),
		host.WithSequencer(testutil.NewDeterministicClock()),
		host.WithErrorHandler(r.report),
		host.WithLogger(applog.WithComponent("host").With().Str(applog.FieldScenario, scenario.Name).Logger()),
	)

	callbacks, err := adapter.New(cfg.Backend, r.host)
	if err != nil {
		return nil, err
	}

	for _, name := range scenario.Native.MotionAxes {
		axis, _ := event.ParseAxis(name)
		r.host.EnableMotionAxis(axis)
	}

	r.logger.Debug().
		Str(applog.FieldHostID, hostID).
		Str(applog.FieldBackend, string(cfg.Backend)).
		Int(applog.FieldCount, len(scenario.Steps)).
		Msg("scenario started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.ui(gctx, callbacks) })
	g.Go(func() error { return r.native(gctx) })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	if err := rec.Err(); err != nil {
		return nil, fmt.Errorf("scenario %s: trace: %w", scenario.Name, err)
	}
	records, err := st.ReadTrace(ctx, hostID)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.HostID = hostID
	for _, rec := range records {
		result.AddTrace(rec)
	}
	result.FinalState = r.host.CurrentState().String()
	result.Phase = r.host.Phase().String()
	result.SavedState = string(r.host.SavedState())
	result.Reported = append([]string{}, r.reported...)
	result.Redraws = r.redraws
	result.PlatformFinishes = r.platformFinishes
	result.MotionAxes = r.enabledAxes()

	for _, msg := range evaluateExpect(result, scenario.Expect) {
		result.AddError(msg)
	}

	r.logger.Debug().
		Bool("pass", result.Pass).
		Int(applog.FieldCount, len(result.Trace)).
		Msg("scenario finished")

	return result, nil
}

// scenarioConfig picks the scenario's config block, else base, else the
// default, then applies the scenario's backend.
func scenarioConfig(scenario *Scenario, base *config.Config) (config.Config, error) {
	cfg := config.Default()
	if base != nil {
		cfg = *base
	}
	if scenario.Config != "" {
		parsed, err := config.Parse([]byte(scenario.Config), scenario.Name+".cue")
		if err != nil {
			return config.Config{}, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		cfg = parsed
	}
	if scenario.Backend != "" {
		cfg.Backend = config.Backend(scenario.Backend)
	}
	return cfg, nil
}

func newRunner(scenario *Scenario) *runner {
	r := &runner{
		scenario:   scenario,
		logger:     applog.WithComponent("harness").With().Str(applog.FieldScenario, scenario.Name).Logger(),
		turns:      make(chan turn),
		turnEnd:    make(chan struct{}),
		noAck:      make(map[event.Kind]bool),
		windows:    make(map[string]uintptr),
		queues:     make(map[string]uintptr),
		nextHandle: 0x1000,
		motionAxes: make(map[event.Axis]bool),
	}
	for _, name := range scenario.Native.NoAck {
		k, _ := event.ParseKind(name)
		r.noAck[k] = true
	}
	if scenario.Native.FinishAfter != "" {
		r.finishAfter, _ = event.ParseKind(scenario.Native.FinishAfter)
	}
	return r
}

// ui performs the steps on the UI goroutine.
func (r *runner) ui(ctx context.Context, cb adapter.Callbacks) error {
	defer close(r.turns)

	for i, step := range r.scenario.Steps {
		var err error
		if step.Native != "" {
			err = r.grant(ctx, turn{action: step.Native})
		} else {
			err = r.perform(ctx, cb, step)
		}
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		r.runPending()
	}

	if err := r.grant(ctx, turn{action: NativePoll}); err != nil {
		return fmt.Errorf("final drain: %w", err)
	}
	r.runPending()
	return nil
}

// perform invokes a callback. A synchronous callback runs while the native
// side holds a turn, so that someone is there to acknowledge it.
func (r *runner) perform(ctx context.Context, cb adapter.Callbacks, step Step) error {
	invoke := r.invoker(cb, step)

	if !r.host.Policy().Synchronous(step.kind()) {
		r.callbackError(invoke())
		return nil
	}

	t := turn{action: turnSync, done: make(chan struct{})}
	select {
	case r.turns <- t:
	case <-ctx.Done():
		return ctx.Err()
	}
	err := invoke()
	close(t.done)
	if err := r.awaitTurnEnd(ctx); err != nil {
		return err
	}
	r.callbackError(err)
	return nil
}

// grant hands the native side a turn and waits for it to finish.
func (r *runner) grant(ctx context.Context, t turn) error {
	select {
	case r.turns <- t:
	case <-ctx.Done():
		return ctx.Err()
	}
	return r.awaitTurnEnd(ctx)
}

func (r *runner) awaitTurnEnd(ctx context.Context) error {
	select {
	case <-r.turnEnd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// invoker binds a step to its callback.
func (r *runner) invoker(cb adapter.Callbacks, step Step) func() error {
	switch step.Callback {
	case CallbackStart:
		return cb.OnStart
	case CallbackResume:
		return func() error { return cb.OnResume([]byte(step.SavedState)) }
	case CallbackPause:
		return cb.OnPause
	case CallbackStop:
		return cb.OnStop
	case CallbackDestroy:
		return cb.OnDestroy
	case CallbackSaveState:
		return func() error {
			_, err := cb.OnSaveInstanceState()
			return err
		}
	case CallbackWindowCreated:
		return func() error { return cb.OnWindowCreated(r.window(step.Window)) }
	case CallbackWindowResized:
		return func() error { return cb.OnWindowResized(r.window(step.Window)) }
	case CallbackRedrawNeeded:
		return func() error { return cb.OnWindowRedrawNeeded(r.window(step.Window)) }
	case CallbackWindowDestroyed:
		return func() error { return cb.OnWindowDestroyed(r.window(step.Window)) }
	case CallbackFocus:
		return func() error { return cb.OnWindowFocusChanged(step.Focused) }
	case CallbackContentRect:
		return func() error { return cb.OnContentRectChanged(step.Rect.rect()) }
	case CallbackInsets:
		return func() error { return cb.OnWindowInsetsChanged(step.Rect.rect()) }
	case CallbackConfigChanged:
		return func() error { return cb.OnConfigurationChanged(step.Config.configuration()) }
	case CallbackLowMemory:
		return cb.OnLowMemory
	case CallbackInputQueueCreated:
		return func() error { return cb.OnInputQueueCreated(r.queue(step.Queue)) }
	case CallbackInputQueueDestroyed:
		return func() error { return cb.OnInputQueueDestroyed(r.queue(step.Queue)) }
	case CallbackInput:
		return func() error { return cb.OnInputAvailable(inputEvents(step.Keys, step.Motions)...) }
	default:
		return func() error { return fmt.Errorf("unknown callback %q", step.Callback) }
	}
}

// native runs the application side: it waits for a turn, takes it and
// reports back.
func (r *runner) native(ctx context.Context) error {
	for {
		select {
		case t, ok := <-r.turns:
			if !ok {
				return nil
			}
			r.take(t)
			select {
			case r.turnEnd <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *runner) take(t turn) {
	switch t.action {
	case NativeFinish:
		r.host.Finish()
	case NativePoll:
		for {
			evs := r.host.Poll(0)
			if len(evs) == 0 {
				return
			}
			r.handle(evs)
		}
	case turnSync:
		for {
			if r.handle(r.host.Poll(syncPollInterval)) {
				return
			}
			select {
			case <-t.done:
				return
			default:
			}
		}
	}
}

// handle reacts to a batch of events the way an application would. It
// reports whether the batch held a synchronous event.
func (r *runner) handle(evs []event.Event) (sawSync bool) {
	for _, ev := range evs {
		switch ev.Kind {
		case event.KindSaveState:
			if r.scenario.Native.SaveState != "" && ev.SaveState != nil {
				ev.SaveState.Store([]byte(r.scenario.Native.SaveState))
			}
		case event.KindRedrawNeeded:
			r.host.RequestRedraw()
		}

		if ev.Synchronous {
			sawSync = true
			if !r.noAck[ev.Kind] {
				r.host.Acknowledge(ev.ID)
			}
		}

		if !r.finished && r.finishAfter != event.KindUnknown && ev.Kind == r.finishAfter {
			r.finished = true
			r.host.Finish()
		}
	}
	return sawSync
}

// dispatch is the UI thread's looper: platform requests made on the native
// side run on the UI goroutine after the current step.
func (r *runner) dispatch(callback func()) {
	r.mu.Lock()
	r.pending = append(r.pending, callback)
	r.mu.Unlock()
}

func (r *runner) runPending() {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

func (r *runner) redraw()         { r.redraws++ }
func (r *runner) platformFinish() { r.platformFinishes++ }

func (r *runner) motionAxis(axis event.Axis, enabled bool) {
	r.motionAxes[axis] = enabled
}

func (r *runner) enabledAxes() []string {
	var names []string
	for axis, enabled := range r.motionAxes {
		if enabled {
			names = append(names, axis.String())
		}
	}
	slices.Sort(names)
	return names
}

// report is the host's error handler.
func (r *runner) report(err error) {
	r.mu.Lock()
	r.reported = append(r.reported, errorCode(err))
	r.mu.Unlock()
}

// callbackError records an error returned by a callback. Acknowledgment
// timeouts are skipped: the host has already reported them.
func (r *runner) callbackError(err error) {
	if err == nil || bridge.IsAckTimeout(err) {
		return
	}
	r.logger.Debug().Err(err).Msg("callback returned error")
	r.report(err)
}

func errorCode(err error) string {
	var bridgeErr *bridge.Error
	switch {
	case errors.Is(err, host.ErrTerminated):
		return CodeTerminated
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.As(err, &bridgeErr):
		return string(bridgeErr.Code)
	default:
		return CodeOther
	}
}

func (r *runner) window(label string) event.WindowHandle {
	return event.NewWindowHandle(r.handleFor(r.windows, label), label)
}

func (r *runner) queue(label string) event.InputQueueHandle {
	return event.NewInputQueueHandle(r.handleFor(r.queues, label), label)
}

// handleFor gives each label a stable fake pointer.
func (r *runner) handleFor(handles map[string]uintptr, label string) uintptr {
	if p, ok := handles[label]; ok {
		return p
	}
	r.nextHandle += 0x10
	handles[label] = r.nextHandle
	return r.nextHandle
}

func (s *RectSpec) rect() event.Rect {
	return event.Rect{Left: s.Left, Top: s.Top, Right: s.Right, Bottom: s.Bottom}
}

func (s *ConfigSpec) configuration() event.Configuration {
	orientation, _ := event.ParseOrientation(s.Orientation)
	return event.Configuration{
		Orientation:       orientation,
		Density:           s.Density,
		Locale:            s.Locale,
		ScreenWidthDp:     s.ScreenWidthDp,
		ScreenHeightDp:    s.ScreenHeightDp,
		FontScalePermille: s.FontScalePermille,
		NightMode:         s.NightMode,
	}
}

// inputEvents builds a batch of synthetic key and touch events.
func inputEvents(keys, motions int) []event.InputEvent {
	evs := make([]event.InputEvent, 0, keys+motions)
	for i := 0; i < keys; i++ {
		evs = append(evs, event.NewKeyInput(event.SourceKeyboard, event.KeyEvent{
			Action:  event.KeyDown,
			KeyCode: int32(29 + i),
		}))
	}
	for i := 0; i < motions; i++ {
		evs = append(evs, event.NewMotionInput(event.SourceTouchscreen, event.MotionMove, event.Pointer{
			X: float32(10 * i),
			Y: float32(20 * i),
		}))
	}
	return evs
}
