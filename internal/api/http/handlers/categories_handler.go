package handlers

import (
	"sort"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/glpi-bridge/internal/api/dto"
	"github.com/spec-kit/glpi-bridge/internal/glpi"
	apperrors "github.com/spec-kit/glpi-bridge/pkg/util"
)

// CategoriesHandler exposes the cached category taxonomy.
type CategoriesHandler struct {
	directory *glpi.CategoryDirectory
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(directory *glpi.CategoryDirectory) *CategoriesHandler {
	return &CategoriesHandler{directory: directory}
}

// ListCategories GET /categories.
func (h *CategoriesHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.directory.All(c.UserContext())
	if err != nil {
		return err
	}

	items := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		items = append(items, dto.FromCategory(category))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return c.JSON(fiber.Map{"status": "success", "data": items})
}

// GetCategory GET /categories/:id.
func (h *CategoriesHandler) GetCategory(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return apperrors.NewValidationError("invalid category id", nil)
	}
	category, err := h.directory.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "success", "data": dto.FromCategory(*category)})
}
