// Package event defines the plain data exchanged between the platform UI
// thread and the native main loop.
//
// An Event is a tagged union: Kind selects which payload fields are
// meaningful. Events are values; the host copies them into its queue and
// hands copies to the consumer, so payloads must never be mutated after
// they are posted.
//
// IDENTITY AND ORDER:
//
// Every posted event is stamped with a monotonic ID from a logical clock
// (never wall time). IDs are strictly increasing in posting order, which is
// also delivery order; gaps appear where an event was coalesced, dropped or
// rejected.
//
// HANDLES:
//
// WindowHandle and InputQueueHandle are opaque references to platform-owned
// objects. The host never dereferences or releases them. A handle must not be
// used once the matching destroy event has been acknowledged.
package event
