package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/glpi-bridge/internal/agent"
	"github.com/spec-kit/glpi-bridge/internal/api/dto"
	"github.com/spec-kit/glpi-bridge/internal/glpi"
	apperrors "github.com/spec-kit/glpi-bridge/pkg/util"
)

// AgentHandler exposes the decision pipeline: analyze, suggest, decide
// and execute.
type AgentHandler struct {
	engine     *agent.DecisionEngine
	classifier agent.Classifier
	relator    *agent.Relator
	directory  *glpi.CategoryDirectory
}

// NewAgentHandler constructs handler.
func NewAgentHandler(engine *agent.DecisionEngine, classifier agent.Classifier, relator *agent.Relator, directory *glpi.CategoryDirectory) *AgentHandler {
	return &AgentHandler{engine: engine, classifier: classifier, relator: relator, directory: directory}
}

// Analyze POST /agent/analyze.
func (h *AgentHandler) Analyze(c *fiber.Ctx) error {
	req, err := parseAnalyzeRequest(c)
	if err != nil {
		return err
	}
	analysis, err := h.engine.Analyze(c.UserContext(), req.Title, req.Content, req.RequesterID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "success", "data": dto.FromAnalysis(analysis)})
}

// SuggestCategory POST /agent/category.
func (h *AgentHandler) SuggestCategory(c *fiber.Ctx) error {
	req, err := parseAnalyzeRequest(c)
	if err != nil {
		return err
	}
	analysis, err := h.classifier.Analyze(c.UserContext(), req.Title, req.Content)
	if err != nil {
		return err
	}
	category, err := h.directory.Get(c.UserContext(), analysis.SuggestedCategoryID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"category_id": analysis.SuggestedCategoryID,
			"category":    dto.FromCategory(*category),
		},
	})
}

// EvaluatePriority POST /agent/priority.
func (h *AgentHandler) EvaluatePriority(c *fiber.Ctx) error {
	req, err := parseAnalyzeRequest(c)
	if err != nil {
		return err
	}
	analysis, err := h.classifier.Analyze(c.UserContext(), req.Title, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"urgency":  analysis.Urgency,
			"impact":   analysis.Impact,
			"priority": analysis.Priority,
		},
	})
}

// DetermineAction POST /agent/decision.
func (h *AgentHandler) DetermineAction(c *fiber.Ctx) error {
	decision, err := parseDecisionRequest(c)
	if err != nil {
		return err
	}
	plan, err := h.engine.Determine(c.UserContext(), decision)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "success", "data": dto.FromPlan(plan)})
}

// ExecuteAction POST /agent/execute. Determines the plan for the demand
// and executes it in one pass; the execution result carries its own
// status discriminator.
func (h *AgentHandler) ExecuteAction(c *fiber.Ctx) error {
	decision, err := parseDecisionRequest(c)
	if err != nil {
		return err
	}
	plan, err := h.engine.Determine(c.UserContext(), decision)
	if err != nil {
		return err
	}
	result := h.engine.Execute(c.UserContext(), plan)

	status := fiber.StatusOK
	if result.Status == agent.StatusError {
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{
		"status":      result.Status,
		"message":     result.Message,
		"plan":        dto.FromPlan(plan),
		"ticket_id":   zeroOmitted(result.TicketID),
		"followup_id": zeroOmitted(result.FollowupID),
		"solution_id": zeroOmitted(result.SolutionID),
	})
}

// SimilarTickets GET /tickets/:id/similar.
func (h *AgentHandler) SimilarTickets(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return apperrors.NewValidationError("invalid ticket id", nil)
	}
	limit := parseIntQuery(c.Query("limit"), agent.DefaultSolutionLimit)

	tickets, err := h.relator.FindSimilar(c.UserContext(), id, limit)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"status": "success", "data": items})
}

// SearchSolutions GET /solutions.
func (h *AgentHandler) SearchSolutions(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return apperrors.NewValidationError("query required", nil)
	}
	var categoryID *int
	if category := c.Query("category_id"); category != "" {
		parsed, err := strconv.Atoi(category)
		if err != nil {
			return apperrors.NewValidationError("invalid category_id filter", nil)
		}
		categoryID = &parsed
	}
	limit := parseIntQuery(c.Query("limit"), agent.DefaultSolutionLimit)

	tickets, err := h.relator.FindSolutions(c.UserContext(), query, categoryID, limit)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"status": "success", "data": items})
}

func parseAnalyzeRequest(c *fiber.Ctx) (*dto.AnalyzeRequest, error) {
	var req dto.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Content) == "" {
		return nil, apperrors.NewValidationError("title or content required", nil)
	}
	return &req, nil
}

func parseDecisionRequest(c *fiber.Ctx) (agent.DecisionRequest, error) {
	var req dto.DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return agent.DecisionRequest{}, apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TicketID == nil && strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Content) == "" {
		return agent.DecisionRequest{}, apperrors.NewValidationError("ticket_id, title or content required", nil)
	}
	return agent.DecisionRequest{
		TicketID:    req.TicketID,
		Title:       req.Title,
		Content:     req.Content,
		RequesterID: req.RequesterID,
	}, nil
}

func zeroOmitted(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
