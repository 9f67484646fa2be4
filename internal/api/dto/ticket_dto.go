package dto

import (
	"time"

	"github.com/spec-kit/glpi-bridge/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	CategoryID  *int   `json:"category_id"`
	Type        *int   `json:"type"`
	Urgency     *int   `json:"urgency"`
	Impact      *int   `json:"impact"`
	Priority    *int   `json:"priority"`
	EntityID    *int   `json:"entity_id"`
	RequesterID *int   `json:"requester_id"`
}

// UpdateTicketRequest payload for partial updates.
type UpdateTicketRequest struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	CategoryID *int    `json:"category_id"`
	Status     *int    `json:"status"`
	Urgency    *int    `json:"urgency"`
	Impact     *int    `json:"impact"`
	Priority   *int    `json:"priority"`
}

// FollowupRequest payload.
type FollowupRequest struct {
	Content   string `json:"content"`
	IsPrivate bool   `json:"is_private"`
}

// SolutionRequest payload.
type SolutionRequest struct {
	Content string `json:"content"`
	Status  *int   `json:"status"`
}

// TicketResponse mirrors the upstream ticket shape.
type TicketResponse struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	CategoryID  int        `json:"category_id"`
	Type        int        `json:"type"`
	Urgency     int        `json:"urgency"`
	Impact      int        `json:"impact"`
	Priority    int        `json:"priority"`
	Status      int        `json:"status"`
	StatusLabel string     `json:"status_label"`
	EntityID    int        `json:"entity_id"`
	RequesterID int        `json:"requester_id,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// FollowupResponse payload.
type FollowupResponse struct {
	ID        int    `json:"id"`
	TicketID  int    `json:"ticket_id"`
	Content   string `json:"content"`
	IsPrivate bool   `json:"is_private"`
}

// SolutionResponse payload.
type SolutionResponse struct {
	ID          int    `json:"id"`
	TicketID    int    `json:"ticket_id"`
	Content     string `json:"content"`
	StatusAfter int    `json:"status_after"`
}

var statusLabels = map[domain.TicketStatus]string{
	domain.TicketStatusNew:      "new",
	domain.TicketStatusAssigned: "assigned",
	domain.TicketStatusPlanned:  "planned",
	domain.TicketStatusPending:  "pending",
	domain.TicketStatusSolved:   "solved",
	domain.TicketStatusClosed:   "closed",
}

// StatusLabel returns the human-readable name of a status ordinal.
func StatusLabel(status domain.TicketStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return "unknown"
}

// FromTicket maps a domain ticket to its response shape.
func FromTicket(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Name,
		Content:     ticket.Content,
		CategoryID:  ticket.CategoryID,
		Type:        int(ticket.Type),
		Urgency:     ticket.Urgency,
		Impact:      ticket.Impact,
		Priority:    ticket.Priority,
		Status:      int(ticket.Status),
		StatusLabel: StatusLabel(ticket.Status),
		EntityID:    ticket.EntityID,
		RequesterID: ticket.RequesterID,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}
