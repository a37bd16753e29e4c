// Package harness runs scripted activity scenarios against a real host.
//
// A scenario plays the platform side (UI callbacks, in order) against the
// application side (a native goroutine that polls, acknowledges and
// finishes), records the resulting event trace and checks it against the
// scenario's expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: basic_lifecycle
//	description: "What this scenario validates"
//	host_id: scenario-basic        # optional, defaults to name
//	backend: native-activity       # optional, overrides config
//	config: |                      # optional CUE, see internal/config
//	  ack_timeout: "100ms"
//	steps:
//	  - callback: start
//	  - callback: window_created
//	    window: main
//	  - native: poll
//	native:
//	  save_state: "level=7"
//	  no_ack: [WindowDestroyed]
//	  finish_after: Stop
//	expect:
//	  delivered: [Start, WindowCreated]
//	  final_state: Started
//	  phase: Running
//	  errors: []
//
// # Turns
//
// The two goroutines take turns so that runs are reproducible. Buffered
// callbacks queue up while the native side is idle; the native side only
// polls when a step grants it a turn:
//
//   - a synchronous callback: the native side polls until it has seen the
//     synchronous event (acknowledging it unless its kind is in no_ack)
//     or the callback has returned
//   - native: poll: the native side drains the queue
//   - native: finish: the native side calls Finish
//
// After the last step the native side drains once more.
//
// # Deterministic Testing
//
// Every run uses a fixed host ID (testutil.FixedHostID), a deterministic
// event clock (testutil.DeterministicClock) and, unless the caller passes a
// store, a private in-memory SQLite trace store. The same scenario
// therefore always produces the same trace, which RunWithGolden compares
// against testdata/golden/<name>.golden.
package harness
