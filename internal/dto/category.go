package dto

import (
	"time"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
)

// CreateCategoryRequest defines the data needed to create a category.
type CreateCategoryRequest struct {
	Name             string              `json:"name" binding:"required,max=255"`
	CategoryType     domain.CategoryType `json:"categoryType" binding:"required,oneof=income expense"`
	Icon             string              `json:"icon" binding:"max=50"`
	Color            string              `json:"color" binding:"omitempty,hexcolor"`
	ParentCategoryID *string             `json:"parentCategoryID"`
}

// UpdateCategoryRequest defines updatable category fields. ParentCategoryID
// uses a double-pointer-free convention: nil leaves the parent untouched, a
// pointer to "" moves the category to the root.
type UpdateCategoryRequest struct {
	Name             *string `json:"name"`
	Icon             *string `json:"icon"`
	Color            *string `json:"color"`
	ParentCategoryID *string `json:"parentCategoryID"`
}

// CategoryResponse defines the data returned for a category.
type CategoryResponse struct {
	CategoryID       string              `json:"categoryID"`
	Name             string              `json:"name"`
	CategoryType     domain.CategoryType `json:"categoryType"`
	Icon             string              `json:"icon"`
	Color            string              `json:"color"`
	ParentCategoryID string              `json:"parentCategoryID"`
	CreatedAt        time.Time           `json:"createdAt"`
}

// ToCategoryResponse converts a domain.Category to its response DTO.
func ToCategoryResponse(cat *domain.Category) CategoryResponse {
	return CategoryResponse{
		CategoryID:       cat.CategoryID,
		Name:             cat.Name,
		CategoryType:     cat.CategoryType,
		Icon:             cat.Icon,
		Color:            cat.Color,
		ParentCategoryID: cat.ParentCategoryID,
		CreatedAt:        cat.CreatedAt,
	}
}

// ToListCategoryResponse converts a slice of categories to response DTOs.
func ToListCategoryResponse(categories []domain.Category) []CategoryResponse {
	res := make([]CategoryResponse, len(categories))
	for i, cat := range categories {
		res[i] = ToCategoryResponse(&cat)
	}
	return res
}

// CategoryTreeNode is one node of the nested category tree.
type CategoryTreeNode struct {
	CategoryID   string              `json:"categoryID"`
	Name         string              `json:"name"`
	CategoryType domain.CategoryType `json:"categoryType"`
	Icon         string              `json:"icon"`
	Color        string              `json:"color"`
	Children     []CategoryTreeNode  `json:"children"`
}
