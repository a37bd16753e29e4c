// Package bridge implements the cross-thread handoff between the UI-thread
// producer of platform callbacks and the native main loop that polls them.
//
// A Cell owns a Queue and a logical Clock. Buffered events are posted and
// forgotten; synchronous events block the producer until the consumer
// acknowledges them or a timeout elapses. The Cell knows nothing about
// lifecycle rules: callers gate events through an ApplyFunc that runs under
// the cell lock.
package bridge
