package events

import (
	"time"

	"github.com/spec-kit/glpi-bridge/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventActionPlanned  EventType = "agent_action_planned"
	EventActionExecuted EventType = "agent_action_executed"
	EventActionFailed   EventType = "agent_action_failed"
	EventSessionRenewed EventType = "session_renewed"
)

// Event represents a domain event emitted by the decision engine.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int         `json:"ticket_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ActionPlannedPayload payload.
type ActionPlannedPayload struct {
	Kind     domain.ActionKind `json:"kind"`
	TargetID int               `json:"target_id,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// ActionExecutedPayload payload.
type ActionExecutedPayload struct {
	Kind     domain.ActionKind `json:"kind"`
	TicketID int               `json:"ticket_id,omitempty"`
	Status   string            `json:"status"`
	Message  string            `json:"message,omitempty"`
}

// ActionFailedPayload payload.
type ActionFailedPayload struct {
	Kind    domain.ActionKind `json:"kind"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
}
