package dto

import "github.com/spec-kit/glpi-bridge/internal/domain"

// CategoryResponse payload.
type CategoryResponse struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	CompleteName string `json:"complete_name,omitempty"`
	ParentID     *int   `json:"parent_id,omitempty"`
}

// FromCategory maps a domain category to its response shape.
func FromCategory(category domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:           category.ID,
		Name:         category.Name,
		CompleteName: category.CompleteName,
		ParentID:     category.ParentID,
	}
}
