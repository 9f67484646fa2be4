package dto

import "github.com/spec-kit/glpi-bridge/internal/domain"

// AnalyzeRequest payload for content analysis.
type AnalyzeRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	RequesterID *int   `json:"requester_id"`
}

// AnalysisResponse payload.
type AnalysisResponse struct {
	Keywords            []string `json:"keywords"`
	SuggestedCategoryID int      `json:"suggested_category_id"`
	Urgency             int      `json:"urgency"`
	Impact              int      `json:"impact"`
	Priority            int      `json:"priority"`
	RelatedTicketIDs    []int    `json:"related_ticket_ids,omitempty"`
}

// DecisionRequest payload for determine/execute endpoints.
type DecisionRequest struct {
	TicketID    *int   `json:"ticket_id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	RequesterID *int   `json:"requester_id"`
}

// PlanResponse describes the action the engine decided on.
type PlanResponse struct {
	Kind     string                 `json:"kind"`
	TargetID int                    `json:"target_id,omitempty"`
	Content  string                 `json:"content,omitempty"`
	Create   *CreatePayloadResponse `json:"create,omitempty"`
	Message  string                 `json:"message,omitempty"`
}

// CreatePayloadResponse carries the fields of a planned creation.
type CreatePayloadResponse struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	CategoryID  int    `json:"category_id"`
	Urgency     int    `json:"urgency"`
	Impact      int    `json:"impact"`
	Priority    int    `json:"priority"`
	RequesterID int    `json:"requester_id,omitempty"`
}

// FromAnalysis maps an analysis to its response shape.
func FromAnalysis(analysis *domain.Analysis) AnalysisResponse {
	return AnalysisResponse{
		Keywords:            analysis.Keywords,
		SuggestedCategoryID: analysis.SuggestedCategoryID,
		Urgency:             analysis.Urgency,
		Impact:              analysis.Impact,
		Priority:            analysis.Priority,
		RelatedTicketIDs:    analysis.RelatedTicketIDs,
	}
}

// FromPlan maps an action plan to its response shape.
func FromPlan(plan *domain.ActionPlan) PlanResponse {
	resp := PlanResponse{
		Kind:     string(plan.Kind),
		TargetID: plan.TargetID,
		Content:  plan.Content,
		Message:  plan.Message,
	}
	if plan.Create != nil {
		resp.Create = &CreatePayloadResponse{
			Title:       plan.Create.Title,
			Content:     plan.Create.Content,
			CategoryID:  plan.Create.CategoryID,
			Urgency:     plan.Create.Urgency,
			Impact:      plan.Create.Impact,
			Priority:    plan.Create.Priority,
			RequesterID: plan.Create.RequesterID,
		}
	}
	return resp
}
