package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/glpi-bridge/internal/api/dto"
	"github.com/spec-kit/glpi-bridge/internal/domain"
	"github.com/spec-kit/glpi-bridge/internal/glpi"
	apperrors "github.com/spec-kit/glpi-bridge/pkg/util"
)

// TicketsHandler manages the ticket CRUD endpoints, mirroring the
// upstream contract.
type TicketsHandler struct {
	gateway *glpi.TicketGateway
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(gateway *glpi.TicketGateway) *TicketsHandler {
	return &TicketsHandler{gateway: gateway}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return apperrors.NewValidationError("title and content required", nil)
	}

	fields := domain.TicketFields{
		Name:        &req.Title,
		Content:     &req.Content,
		CategoryID:  req.CategoryID,
		Urgency:     req.Urgency,
		Impact:      req.Impact,
		Priority:    req.Priority,
		EntityID:    req.EntityID,
		RequesterID: req.RequesterID,
	}
	if req.Type != nil {
		ticketType := domain.TicketType(*req.Type)
		fields.Type = &ticketType
	}

	ticket, err := h.gateway.Create(c.UserContext(), fields)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"data":   dto.FromTicket(ticket),
	})
}

// SearchTickets GET /tickets.
func (h *TicketsHandler) SearchTickets(c *fiber.Ctx) error {
	criteria := glpi.SearchCriteria{
		Name:    c.Query("title"),
		Content: c.Query("content"),
		Limit:   parseIntQuery(c.Query("limit"), 10),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			parsed, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return apperrors.NewValidationError("invalid status filter", nil)
			}
			criteria.Statuses = append(criteria.Statuses, domain.TicketStatus(parsed))
		}
	}
	if category := c.Query("category_id"); category != "" {
		parsed, err := strconv.Atoi(category)
		if err != nil {
			return apperrors.NewValidationError("invalid category_id filter", nil)
		}
		criteria.CategoryID = &parsed
	}
	if requester := c.Query("requester_id"); requester != "" {
		parsed, err := strconv.Atoi(requester)
		if err != nil {
			return apperrors.NewValidationError("invalid requester_id filter", nil)
		}
		criteria.RequesterID = &parsed
	}

	tickets, err := h.gateway.Search(c.UserContext(), criteria)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"status": "success", "data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.gateway.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "success", "data": dto.FromTicket(ticket)})
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	fields := domain.TicketFields{
		Name:       req.Title,
		Content:    req.Content,
		CategoryID: req.CategoryID,
		Urgency:    req.Urgency,
		Impact:     req.Impact,
		Priority:   req.Priority,
	}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		fields.Status = &status
	}

	ticket, err := h.gateway.Update(c.UserContext(), id, fields)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "success", "data": dto.FromTicket(ticket)})
}

// AddFollowup POST /tickets/:id/followups.
func (h *TicketsHandler) AddFollowup(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.FollowupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	followup, err := h.gateway.AddFollowup(c.UserContext(), id, req.Content, req.IsPrivate)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"data": dto.FollowupResponse{
			ID:        followup.ID,
			TicketID:  followup.TicketID,
			Content:   followup.Content,
			IsPrivate: followup.IsPrivate,
		},
	})
}

// AddSolution POST /tickets/:id/solutions.
func (h *TicketsHandler) AddSolution(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.SolutionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	statusAfter := domain.TicketStatusSolved
	if req.Status != nil {
		statusAfter = domain.TicketStatus(*req.Status)
	}

	solution, err := h.gateway.AddSolution(c.UserContext(), id, req.Content, statusAfter)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"data": dto.SolutionResponse{
			ID:          solution.ID,
			TicketID:    solution.TicketID,
			Content:     solution.Content,
			StatusAfter: int(solution.StatusAfter),
		},
	})
}

func ticketID(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", nil)
	}
	return id, nil
}

func parseIntQuery(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
