package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/glpi-bridge/internal/domain"
	"github.com/spec-kit/glpi-bridge/internal/glpi"
)

// Relator finds candidate related tickets and candidate solutions for a
// demand. All lookups are read-only against the upstream platform.
type Relator struct {
	gateway *glpi.TicketGateway
	logger  *zap.Logger
}

// NewRelator constructs the relator.
func NewRelator(gateway *glpi.TicketGateway, logger *zap.Logger) *Relator {
	return &Relator{gateway: gateway, logger: logger}
}

const (
	// DefaultRelatedLimit caps related-ticket lookups.
	DefaultRelatedLimit = 10
	// DefaultSolutionLimit caps solution lookups.
	DefaultSolutionLimit = 5

	maxSearchTerms = 5
)

// FindRelated issues substring searches on title and content for each
// keyword, optionally narrowed by requester. Results keep upstream order,
// deduplicated by id and capped at limit.
func (r *Relator) FindRelated(ctx context.Context, keywords []string, requesterID *int, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	terms := keywords
	if len(terms) > maxSearchTerms {
		terms = terms[:maxSearchTerms]
	}

	seen := make(map[int]struct{})
	related := make([]domain.Ticket, 0, limit)
	for _, term := range terms {
		for _, criteria := range []glpi.SearchCriteria{
			{Content: term, RequesterID: requesterID, Limit: limit},
			{Name: term, RequesterID: requesterID, Limit: limit},
		} {
			tickets, err := r.gateway.Search(ctx, criteria)
			if err != nil {
				return nil, err
			}
			for _, ticket := range tickets {
				if _, ok := seen[ticket.ID]; ok {
					continue
				}
				seen[ticket.ID] = struct{}{}
				related = append(related, ticket)
				if len(related) == limit {
					return related, nil
				}
			}
		}
	}
	r.logger.Debug("related tickets found", zap.Int("count", len(related)))
	return related, nil
}

// FindSimilar finds tickets resembling the reference ticket: same
// category plus content keyword matches, the reference itself excluded.
func (r *Relator) FindSimilar(ctx context.Context, ticketID, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = DefaultSolutionLimit
	}
	reference, err := r.gateway.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	seen := map[int]struct{}{ticketID: {}}
	similar := make([]domain.Ticket, 0, limit)

	appendMatches := func(tickets []domain.Ticket) bool {
		for _, ticket := range tickets {
			if _, ok := seen[ticket.ID]; ok {
				continue
			}
			seen[ticket.ID] = struct{}{}
			similar = append(similar, ticket)
			if len(similar) == limit {
				return true
			}
		}
		return false
	}

	if reference.CategoryID > 0 {
		category := reference.CategoryID
		tickets, err := r.gateway.Search(ctx, glpi.SearchCriteria{CategoryID: &category, Limit: limit + 1})
		if err != nil {
			return nil, err
		}
		if appendMatches(tickets) {
			return similar, nil
		}
	}

	keywords := Tokenize(reference.Name + " " + reference.Content)
	if len(keywords) > maxSearchTerms {
		keywords = keywords[:maxSearchTerms]
	}
	for _, keyword := range keywords {
		tickets, err := r.gateway.Search(ctx, glpi.SearchCriteria{Content: keyword, Limit: limit + 1})
		if err != nil {
			return nil, err
		}
		if appendMatches(tickets) {
			break
		}
	}
	return similar, nil
}

// FindSolutions searches terminal tickets whose content matches the
// query, optionally narrowed by category. Never returns more than limit
// results.
func (r *Relator) FindSolutions(ctx context.Context, query string, categoryID *int, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = DefaultSolutionLimit
	}
	criteria := glpi.SearchCriteria{
		Content:    query,
		Statuses:   []domain.TicketStatus{domain.TicketStatusSolved, domain.TicketStatusClosed},
		CategoryID: categoryID,
		Limit:      limit,
	}
	tickets, err := r.gateway.Search(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if len(tickets) > limit {
		tickets = tickets[:limit]
	}
	r.logger.Debug("solution candidates found", zap.Int("count", len(tickets)))
	return tickets, nil
}
