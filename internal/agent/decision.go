package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/glpi-bridge/internal/domain"
	"github.com/spec-kit/glpi-bridge/internal/events"
	"github.com/spec-kit/glpi-bridge/internal/glpi"
	"github.com/spec-kit/glpi-bridge/pkg/util"
)

// DecisionEngine turns an unstructured demand into a concrete ticket
// mutation: it classifies the demand, searches for related work and plans
// exactly one of create, update, resolve or none, then executes the plan
// on request through the ticket gateway.
type DecisionEngine struct {
	gateway    *glpi.TicketGateway
	classifier Classifier
	relator    *Relator
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// EngineDependencies bundles collaborators for the decision engine.
type EngineDependencies struct {
	Gateway    *glpi.TicketGateway
	Classifier Classifier
	Relator    *Relator
	Dispatcher events.Dispatcher
}

// NewDecisionEngine constructs the engine.
func NewDecisionEngine(deps EngineDependencies, logger *zap.Logger) *DecisionEngine {
	return &DecisionEngine{
		gateway:    deps.Gateway,
		classifier: deps.Classifier,
		relator:    deps.Relator,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// DecisionRequest describes one demand submitted to the engine.
type DecisionRequest struct {
	TicketID    *int
	Title       string
	Content     string
	RequesterID *int
}

// ExecutionResult is the uniform outcome wrapper for an executed plan.
type ExecutionResult struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	TicketID   int    `json:"ticket_id,omitempty"`
	FollowupID int    `json:"followup_id,omitempty"`
	SolutionID int    `json:"solution_id,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusInfo    = "info"
)

// resolutionTerms signal that the demand reports the problem as solved.
var resolutionTerms = []string{
	"resolvido", "finalizado", "solucionado", "pode fechar",
	"resolved", "fixed", "solved",
}

// Determine produces the action plan for a demand without executing it.
func (e *DecisionEngine) Determine(ctx context.Context, req DecisionRequest) (*domain.ActionPlan, error) {
	plan, err := e.determine(ctx, req)
	if err != nil {
		return nil, err
	}
	e.publish(ctx, events.Event{
		Type:     events.EventActionPlanned,
		TicketID: plan.TargetID,
		Payload: events.ActionPlannedPayload{
			Kind:     plan.Kind,
			TargetID: plan.TargetID,
			Message:  plan.Message,
		},
	})
	return plan, nil
}

func (e *DecisionEngine) determine(ctx context.Context, req DecisionRequest) (*domain.ActionPlan, error) {
	if req.TicketID != nil {
		return e.planForExisting(ctx, *req.TicketID, req.Content)
	}
	return e.planForNew(ctx, req)
}

func (e *DecisionEngine) planForExisting(ctx context.Context, ticketID int, content string) (*domain.ActionPlan, error) {
	ticket, err := e.gateway.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if ticket.Status.IsTerminal() {
		return &domain.ActionPlan{
			Kind:    domain.ActionNone,
			Message: fmt.Sprintf("ticket %d is already closed", ticketID),
		}, nil
	}

	if hasResolutionIntent(content) {
		// Classification is bookkeeping only on this path; a failure
		// must not block resolving the ticket.
		if _, err := e.classifier.Analyze(ctx, ticket.Name, content); err != nil {
			e.logger.Warn("classification skipped on resolve path", zap.Error(err))
		}
		return &domain.ActionPlan{
			Kind:     domain.ActionResolve,
			TargetID: ticketID,
			Content:  content,
		}, nil
	}

	return &domain.ActionPlan{
		Kind:     domain.ActionUpdate,
		TargetID: ticketID,
		Content:  content,
	}, nil
}

func (e *DecisionEngine) planForNew(ctx context.Context, req DecisionRequest) (*domain.ActionPlan, error) {
	keywords := Tokenize(req.Title + " " + req.Content)
	related, err := e.relator.FindRelated(ctx, keywords, req.RequesterID, DefaultRelatedLimit)
	if err != nil {
		return nil, err
	}

	// First non-terminal match wins; upstream ordering is the tie-break.
	for _, ticket := range related {
		if !ticket.Status.IsTerminal() {
			return &domain.ActionPlan{
				Kind:     domain.ActionUpdate,
				TargetID: ticket.ID,
				Content:  req.Content,
			}, nil
		}
	}

	analysis, err := e.classifier.Analyze(ctx, req.Title, req.Content)
	if err != nil {
		return nil, err
	}

	payload := &domain.CreatePayload{
		Title:      req.Title,
		Content:    req.Content,
		CategoryID: analysis.SuggestedCategoryID,
		Urgency:    analysis.Urgency,
		Impact:     analysis.Impact,
		Priority:   analysis.Priority,
	}
	if req.RequesterID != nil {
		payload.RequesterID = *req.RequesterID
	}
	return &domain.ActionPlan{Kind: domain.ActionCreate, Create: payload}, nil
}

// Execute dispatches the plan to the corresponding gateway operation and
// wraps the outcome uniformly. Gateway errors become an error result; the
// engine itself never retries.
func (e *DecisionEngine) Execute(ctx context.Context, plan *domain.ActionPlan) ExecutionResult {
	result, err := e.execute(ctx, plan)
	if err != nil {
		domainErr := util.ToDomainError(err)
		e.logger.Error("action execution failed",
			zap.String("kind", string(plan.Kind)),
			zap.String("code", domainErr.Code),
			zap.Error(domainErr))
		e.publish(ctx, events.Event{
			Type:     events.EventActionFailed,
			TicketID: plan.TargetID,
			Payload: events.ActionFailedPayload{
				Kind:    plan.Kind,
				Code:    domainErr.Code,
				Message: domainErr.Message,
			},
		})
		return ExecutionResult{Status: StatusError, Message: domainErr.Message, TicketID: plan.TargetID}
	}

	e.publish(ctx, events.Event{
		Type:     events.EventActionExecuted,
		TicketID: result.TicketID,
		Payload: events.ActionExecutedPayload{
			Kind:     plan.Kind,
			TicketID: result.TicketID,
			Status:   result.Status,
			Message:  result.Message,
		},
	})
	return result
}

func (e *DecisionEngine) execute(ctx context.Context, plan *domain.ActionPlan) (ExecutionResult, error) {
	if err := validatePlan(plan); err != nil {
		return ExecutionResult{}, err
	}

	switch plan.Kind {
	case domain.ActionCreate:
		fields := createFields(plan.Create)
		ticket, err := e.gateway.Create(ctx, fields)
		if err != nil {
			return ExecutionResult{}, err
		}
		return ExecutionResult{
			Status:   StatusSuccess,
			Message:  fmt.Sprintf("ticket %d created", ticket.ID),
			TicketID: ticket.ID,
		}, nil

	case domain.ActionUpdate:
		followup, err := e.gateway.AddFollowup(ctx, plan.TargetID, plan.Content, false)
		if err != nil {
			return ExecutionResult{}, err
		}
		return ExecutionResult{
			Status:     StatusSuccess,
			Message:    fmt.Sprintf("followup added to ticket %d", plan.TargetID),
			TicketID:   plan.TargetID,
			FollowupID: followup.ID,
		}, nil

	case domain.ActionResolve:
		solution, err := e.gateway.AddSolution(ctx, plan.TargetID, plan.Content, domain.TicketStatusSolved)
		if err != nil {
			return ExecutionResult{}, err
		}
		return ExecutionResult{
			Status:     StatusSuccess,
			Message:    fmt.Sprintf("solution added to ticket %d", plan.TargetID),
			TicketID:   plan.TargetID,
			SolutionID: solution.ID,
		}, nil

	case domain.ActionNone:
		return ExecutionResult{Status: StatusInfo, Message: plan.Message}, nil

	default:
		return ExecutionResult{}, util.NewValidationError(
			fmt.Sprintf("unknown action kind %q", plan.Kind), nil)
	}
}

// Analyze combines classification with a related-ticket lookup, for the
// analyze endpoint of the local API.
func (e *DecisionEngine) Analyze(ctx context.Context, title, content string, requesterID *int) (*domain.Analysis, error) {
	analysis, err := e.classifier.Analyze(ctx, title, content)
	if err != nil {
		return nil, err
	}
	related, err := e.relator.FindRelated(ctx, analysis.Keywords, requesterID, DefaultSolutionLimit)
	if err != nil {
		e.logger.Warn("related ticket lookup failed", zap.Error(err))
		return analysis, nil
	}
	for _, ticket := range related {
		analysis.RelatedTicketIDs = append(analysis.RelatedTicketIDs, ticket.ID)
	}
	return analysis, nil
}

// validatePlan enforces the plan invariant: update and resolve always
// carry a target, create never does.
func validatePlan(plan *domain.ActionPlan) error {
	switch plan.Kind {
	case domain.ActionUpdate, domain.ActionResolve:
		if plan.TargetID <= 0 {
			return util.NewValidationError("plan requires a target ticket id", nil)
		}
	case domain.ActionCreate:
		if plan.TargetID != 0 {
			return util.NewValidationError("create plan must not carry a target ticket id", nil)
		}
		if plan.Create == nil {
			return util.NewValidationError("create plan requires a payload", nil)
		}
	}
	return nil
}

func createFields(payload *domain.CreatePayload) domain.TicketFields {
	fields := domain.TicketFields{
		Name:     &payload.Title,
		Content:  &payload.Content,
		Urgency:  &payload.Urgency,
		Impact:   &payload.Impact,
		Priority: &payload.Priority,
	}
	if payload.CategoryID > 0 {
		fields.CategoryID = &payload.CategoryID
	}
	if payload.RequesterID > 0 {
		fields.RequesterID = &payload.RequesterID
	}
	return fields
}

func hasResolutionIntent(content string) bool {
	lowered := strings.ToLower(content)
	for _, term := range resolutionTerms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}

func (e *DecisionEngine) publish(ctx context.Context, event events.Event) {
	if e.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = e.dispatcher.Publish(ctx, event)
}
