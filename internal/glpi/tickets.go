package glpi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/glpi-bridge/internal/domain"
	"github.com/spec-kit/glpi-bridge/pkg/util"
)

// SearchCriteria narrows a ticket search. Text fields are substring
// matches; the rest are equality filters. Limit bounds the result window.
type SearchCriteria struct {
	Name        string
	Content     string
	Statuses    []domain.TicketStatus
	CategoryID  *int
	RequesterID *int
	Limit       int
}

const defaultSearchLimit = 10

// TicketGateway exposes the typed ticket operations of the upstream API.
type TicketGateway struct {
	client *Client
	cfg    gatewayConfig
	logger *zap.Logger
}

type gatewayConfig struct {
	defaultEntityID int
}

// NewTicketGateway constructs the gateway.
func NewTicketGateway(client *Client, defaultEntityID int, logger *zap.Logger) *TicketGateway {
	return &TicketGateway{
		client: client,
		cfg:    gatewayConfig{defaultEntityID: defaultEntityID},
		logger: logger,
	}
}

// Search returns tickets matching the criteria, in upstream order.
func (g *TicketGateway) Search(ctx context.Context, criteria SearchCriteria) ([]domain.Ticket, error) {
	query := url.Values{}
	if criteria.Name != "" {
		query.Set("searchText[name]", criteria.Name)
	}
	if criteria.Content != "" {
		query.Set("searchText[content]", criteria.Content)
	}
	if len(criteria.Statuses) > 0 {
		parts := make([]string, 0, len(criteria.Statuses))
		for _, status := range criteria.Statuses {
			parts = append(parts, strconv.Itoa(int(status)))
		}
		query.Set("status", strings.Join(parts, ","))
	}
	if criteria.CategoryID != nil {
		query.Set("itilcategories_id", strconv.Itoa(*criteria.CategoryID))
	}
	if criteria.RequesterID != nil {
		query.Set("users_id_recipient", strconv.Itoa(*criteria.RequesterID))
	}
	limit := criteria.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	query.Set("range", fmt.Sprintf("0-%d", limit))

	body, err := g.client.Get(ctx, "Ticket", query)
	if err != nil {
		return nil, err
	}

	var wire []wireTicket
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, util.NewUpstreamError(http.StatusOK, "malformed ticket list payload")
	}
	tickets := make([]domain.Ticket, 0, len(wire))
	for _, w := range wire {
		tickets = append(tickets, w.toDomain())
	}
	if len(tickets) > limit {
		tickets = tickets[:limit]
	}
	return tickets, nil
}

// Get fetches one ticket with dropdowns expanded and logs included.
func (g *TicketGateway) Get(ctx context.Context, id int) (*domain.Ticket, error) {
	query := url.Values{}
	query.Set("expand_dropdowns", "true")
	query.Set("with_logs", "true")

	body, err := g.client.Get(ctx, fmt.Sprintf("Ticket/%d", id), query)
	if err != nil {
		if util.UpstreamStatus(err) == http.StatusNotFound {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, err
	}

	var wire wireTicket
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, util.NewUpstreamError(http.StatusOK, "malformed ticket payload")
	}
	ticket := wire.toDomain()
	return &ticket, nil
}

// Create creates a ticket upstream. Validation runs before any upstream
// call; the configured default entity id is filled in when the caller
// omits one.
func (g *TicketGateway) Create(ctx context.Context, fields domain.TicketFields) (*domain.Ticket, error) {
	if fields.Name == nil || strings.TrimSpace(*fields.Name) == "" {
		return nil, util.NewValidationError("ticket name is required", nil)
	}
	if err := validateScale("urgency", fields.Urgency); err != nil {
		return nil, err
	}
	if err := validateScale("impact", fields.Impact); err != nil {
		return nil, err
	}
	if err := validateScale("priority", fields.Priority); err != nil {
		return nil, err
	}
	if fields.EntityID == nil {
		entity := g.cfg.defaultEntityID
		fields.EntityID = &entity
	}
	if fields.Type == nil {
		ticketType := domain.TicketTypeIncident
		fields.Type = &ticketType
	}

	body, err := g.client.Post(ctx, "Ticket", fieldsPayload(fields))
	if err != nil {
		return nil, err
	}

	var created struct {
		ID flexInt `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.ID == 0 {
		return nil, util.NewUpstreamError(http.StatusOK, "create response missing ticket id")
	}

	ticket := ticketFromFields(int(created.ID), fields)
	g.logger.Info("ticket created", zap.Int("ticket_id", ticket.ID))
	return ticket, nil
}

// Update applies a partial update and returns the refreshed ticket.
func (g *TicketGateway) Update(ctx context.Context, id int, fields domain.TicketFields) (*domain.Ticket, error) {
	if err := validateScale("urgency", fields.Urgency); err != nil {
		return nil, err
	}
	if err := validateScale("impact", fields.Impact); err != nil {
		return nil, err
	}
	if err := validateScale("priority", fields.Priority); err != nil {
		return nil, err
	}

	if _, err := g.client.Put(ctx, fmt.Sprintf("Ticket/%d", id), fieldsPayload(fields)); err != nil {
		if util.UpstreamStatus(err) == http.StatusNotFound {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, err
	}
	g.logger.Info("ticket updated", zap.Int("ticket_id", id))
	return g.Get(ctx, id)
}

// AddFollowup appends a follow-up note to a ticket.
func (g *TicketGateway) AddFollowup(ctx context.Context, id int, content string, isPrivate bool) (*domain.Followup, error) {
	if strings.TrimSpace(content) == "" {
		return nil, util.NewValidationError("followup content is required", nil)
	}
	payload := map[string]any{
		"items_id":   id,
		"itemtype":   "Ticket",
		"content":    content,
		"is_private": boolFlag(isPrivate),
	}
	body, err := g.client.Post(ctx, fmt.Sprintf("Ticket/%d/ITILFollowup", id), payload)
	if err != nil {
		if util.UpstreamStatus(err) == http.StatusNotFound {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, err
	}

	var created struct {
		ID flexInt `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, util.NewUpstreamError(http.StatusOK, "malformed followup response")
	}
	g.logger.Info("followup added", zap.Int("ticket_id", id))
	return &domain.Followup{ID: int(created.ID), TicketID: id, Content: content, IsPrivate: isPrivate}, nil
}

// AddSolution attaches a solution to a ticket, which moves its status to
// statusAfter upstream. A zero statusAfter defaults to solved.
func (g *TicketGateway) AddSolution(ctx context.Context, id int, content string, statusAfter domain.TicketStatus) (*domain.Solution, error) {
	if strings.TrimSpace(content) == "" {
		return nil, util.NewValidationError("solution content is required", nil)
	}
	if statusAfter == 0 {
		statusAfter = domain.TicketStatusSolved
	}
	payload := map[string]any{
		"itemtype": "Ticket",
		"items_id": id,
		"content":  content,
		"status":   int(statusAfter),
	}
	body, err := g.client.Post(ctx, fmt.Sprintf("Ticket/%d/ITILSolution", id), payload)
	if err != nil {
		if util.UpstreamStatus(err) == http.StatusNotFound {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, err
	}

	var created struct {
		ID flexInt `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, util.NewUpstreamError(http.StatusOK, "malformed solution response")
	}
	g.logger.Info("solution added", zap.Int("ticket_id", id), zap.Int("status_after", int(statusAfter)))
	return &domain.Solution{ID: int(created.ID), TicketID: id, Content: content, StatusAfter: statusAfter}, nil
}

func validateScale(field string, value *int) error {
	if value == nil {
		return nil
	}
	if *value < 1 || *value > 5 {
		return util.NewValidationError(
			fmt.Sprintf("%s must be between 1 and 5", field),
			map[string]any{field: *value})
	}
	return nil
}

func boolFlag(v bool) int {
	if v {
		return 1
	}
	return 0
}

func fieldsPayload(fields domain.TicketFields) map[string]any {
	payload := map[string]any{}
	if fields.Name != nil {
		payload["name"] = *fields.Name
	}
	if fields.Content != nil {
		payload["content"] = *fields.Content
	}
	if fields.CategoryID != nil {
		payload["itilcategories_id"] = *fields.CategoryID
	}
	if fields.Type != nil {
		payload["type"] = int(*fields.Type)
	}
	if fields.Urgency != nil {
		payload["urgency"] = *fields.Urgency
	}
	if fields.Impact != nil {
		payload["impact"] = *fields.Impact
	}
	if fields.Priority != nil {
		payload["priority"] = *fields.Priority
	}
	if fields.Status != nil {
		payload["status"] = int(*fields.Status)
	}
	if fields.EntityID != nil {
		payload["entities_id"] = *fields.EntityID
	}
	if fields.RequesterID != nil {
		payload["users_id_recipient"] = *fields.RequesterID
	}
	return payload
}

func ticketFromFields(id int, fields domain.TicketFields) *domain.Ticket {
	ticket := &domain.Ticket{ID: id, Status: domain.TicketStatusNew}
	if fields.Name != nil {
		ticket.Name = *fields.Name
	}
	if fields.Content != nil {
		ticket.Content = *fields.Content
	}
	if fields.CategoryID != nil {
		ticket.CategoryID = *fields.CategoryID
	}
	if fields.Type != nil {
		ticket.Type = *fields.Type
	}
	if fields.Urgency != nil {
		ticket.Urgency = *fields.Urgency
	}
	if fields.Impact != nil {
		ticket.Impact = *fields.Impact
	}
	if fields.Priority != nil {
		ticket.Priority = *fields.Priority
	}
	if fields.EntityID != nil {
		ticket.EntityID = *fields.EntityID
	}
	if fields.RequesterID != nil {
		ticket.RequesterID = *fields.RequesterID
	}
	return ticket
}

// flexInt tolerates upstream fields that arrive either as numbers or as
// numeric strings. With dropdowns expanded the upstream replaces some ids
// with display labels; those decode to zero rather than failing the
// whole payload.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	trimmed := strings.Trim(string(data), `"`)
	if trimmed == "" || trimmed == "null" {
		*f = 0
		return nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(parsed)
	return nil
}

type wireTicket struct {
	ID          flexInt `json:"id"`
	Name        string  `json:"name"`
	Content     string  `json:"content"`
	CategoryID  flexInt `json:"itilcategories_id"`
	Type        flexInt `json:"type"`
	Urgency     flexInt `json:"urgency"`
	Impact      flexInt `json:"impact"`
	Priority    flexInt `json:"priority"`
	Status      flexInt `json:"status"`
	EntityID    flexInt `json:"entities_id"`
	RequesterID flexInt `json:"users_id_recipient"`
	Date        string  `json:"date"`
	DateMod     string  `json:"date_mod"`
}

func (w wireTicket) toDomain() domain.Ticket {
	return domain.Ticket{
		ID:          int(w.ID),
		Name:        w.Name,
		Content:     w.Content,
		CategoryID:  int(w.CategoryID),
		Type:        domain.TicketType(w.Type),
		Urgency:     int(w.Urgency),
		Impact:      int(w.Impact),
		Priority:    int(w.Priority),
		Status:      domain.TicketStatus(w.Status),
		EntityID:    int(w.EntityID),
		RequesterID: int(w.RequesterID),
		CreatedAt:   parseUpstreamTime(w.Date),
		UpdatedAt:   parseUpstreamTime(w.DateMod),
	}
}

func parseUpstreamTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		return nil
	}
	return &parsed
}
