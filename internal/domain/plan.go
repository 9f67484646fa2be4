package domain

// ActionKind enumerates the mutations the decision engine can plan.
type ActionKind string

const (
	ActionCreate  ActionKind = "create"
	ActionUpdate  ActionKind = "update"
	ActionResolve ActionKind = "resolve"
	ActionNone    ActionKind = "none"
)

// CreatePayload holds the fields for a planned ticket creation.
type CreatePayload struct {
	Title       string
	Content     string
	CategoryID  int
	Urgency     int
	Impact      int
	Priority    int
	RequesterID int
}

// ActionPlan is the transient outcome of one decision pass. Update and
// resolve plans always carry a target ticket id; create never does.
type ActionPlan struct {
	Kind     ActionKind
	TargetID int
	Content  string
	Create   *CreatePayload
	Message  string
}

// Analysis is the transient result of classifying one free-text demand.
type Analysis struct {
	Keywords            []string
	SuggestedCategoryID int
	Urgency             int
	Impact              int
	Priority            int
	RelatedTicketIDs    []int
}
