package services

import (
	"context"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/pfinbooks/bookkeeper_app/internal/dto"
)

// CategorySvcFacade owns the income/expense classification forest.
type CategorySvcFacade interface {
	CreateCategory(ctx context.Context, userID string, req dto.CreateCategoryRequest) (*domain.Category, error)
	GetCategoryByID(ctx context.Context, userID, categoryID string) (*domain.Category, error)
	ListCategories(ctx context.Context, userID string, categoryType *domain.CategoryType) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID string, req dto.UpdateCategoryRequest) (*domain.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID string) error
	GetCategoryTree(ctx context.Context, userID string, categoryType *domain.CategoryType) ([]dto.CategoryTreeNode, error)
}
