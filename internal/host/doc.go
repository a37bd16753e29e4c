// Package host implements the application host: the object a native main
// loop polls for lifecycle, window, configuration and input events produced
// by platform callbacks on the UI thread.
//
// # Threads
//
// A Host has exactly two active callers. The platform adapter posts events
// from the UI thread through the producer API (Post and the Produce*
// methods). The application's native thread consumes them through Poll,
// PollEvents and Acknowledge. Accessors such as CurrentState and
// CurrentWindow are safe from any goroutine.
//
// # Synchronous events
//
// Window and input-queue creation and destruction, save-state requests and,
// depending on Policy, configuration changes are synchronous: the producer
// blocks until the consumer calls Acknowledge with the event ID, or the
// acknowledgment timeout elapses. A timeout is fatal for the activity: the
// host enqueues a Terminate event and moves to PhaseFinishing.
//
// # Phases
//
//	Idle --first Poll--> Running --Finish/Destroy/ack timeout--> Finishing
//	Finishing --first empty Poll--> Terminated
//
// Once Terminated, Poll returns nothing and posts fail with ErrTerminated.
package host
