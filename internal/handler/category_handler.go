package handler

import (
	"net/http"

	"github.com/dafibh/ledger/ledger-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// GetOrCreateCategoryRequest represents the get-or-create request body
type GetOrCreateCategoryRequest struct {
	Title string `json:"title"`
}

// ListCategories handles GET /api/v1/categories
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	categories, err := h.categoryService.List(c.Request().Context())
	if err != nil {
		return respondServiceError(c, err, "Failed to list categories")
	}

	resp := make([]CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		resp = append(resp, toCategoryResponse(cat))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetOrCreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) GetOrCreateCategory(c echo.Context) error {
	var req GetOrCreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.GetOrCreate(c.Request().Context(), req.Title)
	if err != nil {
		return respondServiceError(c, err, "Failed to resolve category")
	}
	return c.JSON(http.StatusOK, toCategoryResponse(category))
}
