package breaker

import "github.com/vnykmshr/circuitscope/internal/model"

// EventType names one of the six domain events a Breaker dispatches.
type EventType string

const (
	EventOpened           EventType = "opened"
	EventClosed           EventType = "closed"
	EventHalfOpened        EventType = "half_opened"
	EventRequestAttempted EventType = "request_attempted"
	EventRequestSucceeded EventType = "request_succeeded"
	EventRequestFailed    EventType = "request_failed"
)

// Event is the payload delivered to a Listener. Every event carries Name
// and State: for transition events (Opened/Closed/HalfOpened) State is the
// state just entered; for request events it is the state after the
// outcome was recorded (RequestFailed is emitted before any resulting
// transition to Open).
type Event struct {
	Type  EventType
	Name  string
	State model.CircuitState
}

// Listener receives every emitted Event synchronously, in the calling
// goroutine, matching the teacher's OnStateChange callback-as-value
// pattern (Settings.OnStateChange in the original types.go) generalized
// from one callback to a registered list covering all six event kinds.
type Listener func(Event)
