package domain

import "time"

// TicketStatus mirrors the upstream GLPI status ordinals.
type TicketStatus int

const (
	TicketStatusNew      TicketStatus = 1
	TicketStatusAssigned TicketStatus = 2
	TicketStatusPlanned  TicketStatus = 3
	TicketStatusPending  TicketStatus = 4
	TicketStatusSolved   TicketStatus = 5
	TicketStatusClosed   TicketStatus = 6
)

// IsTerminal reports whether no further mutation is expected for a ticket
// in this status. Solved and closed both count.
func (s TicketStatus) IsTerminal() bool {
	return s >= TicketStatusSolved
}

// TicketType distinguishes incidents from requests upstream.
type TicketType int

const (
	TicketTypeIncident TicketType = 1
	TicketTypeRequest  TicketType = 2
)

// Ticket is the typed projection of an upstream GLPI ticket. Identity is
// assigned by the upstream system on create.
type Ticket struct {
	ID          int
	Name        string
	Content     string
	CategoryID  int
	Type        TicketType
	Urgency     int
	Impact      int
	Priority    int
	Status      TicketStatus
	EntityID    int
	RequesterID int
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

// TicketFields carries the mutable subset of ticket attributes for create
// and partial-update calls. Nil pointers are omitted from the upstream
// payload.
type TicketFields struct {
	Name        *string
	Content     *string
	CategoryID  *int
	Type        *TicketType
	Urgency     *int
	Impact      *int
	Priority    *int
	Status      *TicketStatus
	EntityID    *int
	RequesterID *int
}

// Followup is an append-only note attached to a ticket.
type Followup struct {
	ID        int
	TicketID  int
	Content   string
	IsPrivate bool
	CreatedAt *time.Time
}

// Solution is a note that transitions the ticket toward a terminal status.
type Solution struct {
	ID          int
	TicketID    int
	Content     string
	StatusAfter TicketStatus
}
