package host

import "github.com/roach88/apphost/internal/event"

// Outcome says how an event left the host other than by plain delivery.
type Outcome string

const (
	OutcomeAcked      Outcome = "acked"
	OutcomeTimeout    Outcome = "timeout"
	OutcomeClosed     Outcome = "closed"
	OutcomeDropped    Outcome = "dropped"
	OutcomeSuperseded Outcome = "superseded"
)

// Observer is notified of event traffic. Calls are made outside the host
// lock, from whichever goroutine caused them: EventPosted from the
// producer, EventsDelivered from the consumer, EventSettled from either.
//
// Calls for one event may arrive out of order: a synchronous event is
// reported as posted only after its producer returns, which is after it
// was delivered. Implementations must tolerate that.
type Observer interface {
	EventPosted(hostID string, ev event.Event)
	EventsDelivered(hostID string, evs []event.Event)
	EventSettled(hostID string, id event.ID, outcome Outcome)
}

type nopObserver struct{}

func (nopObserver) EventPosted(string, event.Event) {}
func (nopObserver) EventsDelivered(string, []event.Event) {}
func (nopObserver) EventSettled(string, event.ID, Outcome) {}
