// Package event publishes remediation and traversal progress as typed
// events so an observing tool layer can stream what the engine is doing
// while a call is still in flight.
//
// The bus is in-process fan-out only. Delivery is synchronous and in
// publish order: remediation logs are small and action ordering is part of
// their diagnostic value.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Well-known event types.
const (
	TypeRemediationAction  = "mutation.remediation.action"
	TypeMutationResolved   = "mutation.resolved"
	TypeTraversalVisited   = "traversal.group.visited"
	TypeTraversalSuspended = "traversal.suspended"
)

// Event is an immutable record of something the engine did.
type Event struct {
	// ID is a unique event identifier.
	ID string `json:"id"`

	// Type is the event type, e.g. "mutation.remediation.action".
	Type string `json:"type"`

	// CorrelationID groups events belonging to one mutation or traversal
	// call, typically the remediation attempt ID.
	CorrelationID string `json:"correlation_id,omitempty"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Data is the event payload.
	Data any `json:"data,omitempty"`
}

// New creates an event with a fresh ID and the current time.
func New(eventType, correlationID string, data any) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
		Data:          data,
	}
}

// DataBytes returns the JSON-serialized payload, or nil on failure.
func (e Event) DataBytes() []byte {
	if e.Data == nil {
		return nil
	}
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil
	}
	return data
}

// RemediationAction is the payload of TypeRemediationAction events.
type RemediationAction struct {
	TargetID string `json:"target_id"`
	Category string `json:"category"`
	Action   string `json:"action"`
	Outcome  string `json:"outcome"`
}

// MutationResolved is the payload of TypeMutationResolved events.
type MutationResolved struct {
	TargetID string `json:"target_id"`
	Status   string `json:"status"`
	Actions  int    `json:"actions"`
}

// TraversalProgress is the payload of TypeTraversalVisited events.
type TraversalProgress struct {
	GroupID string `json:"group_id"`
	Depth   int    `json:"depth"`
	Visited int    `json:"visited"`
}

// TraversalSuspension is the payload of TypeTraversalSuspended events.
type TraversalSuspension struct {
	ContinuationToken string `json:"continuation_token"`
	Visited           int    `json:"visited"`
	TimedOut          bool   `json:"timed_out"`
}
