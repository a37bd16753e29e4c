// Package store records host event traces in SQLite.
//
// A trace is the list of events one host handled, in the order the
// consumer received them, with how each one settled. Traces are written by
// a Recorder, which plugs into the host as its Observer, and read back by
// the trace command and the scenario tests.
//
// # Ordering
//
// Event IDs and delivery positions are logical sequence numbers, never
// timestamps, so two runs of the same scenario store identical traces.
// Reads order by delivered_seq, then event_id. Events that were never
// delivered (dropped, superseded, withdrawn on timeout) sort last.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
