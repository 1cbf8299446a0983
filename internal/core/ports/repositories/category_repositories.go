package repositories

import (
	"context"
	"time"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
)

// CategoryRepository persists the per-user category classification forest.
type CategoryRepository interface {
	// SaveCategory persists a new category.
	SaveCategory(ctx context.Context, category domain.Category) error

	// FindCategoryByID retrieves a category by id for the user.
	FindCategoryByID(ctx context.Context, userID, categoryID string) (*domain.Category, error)

	// FindCategoryByName retrieves a category by name under the given parent
	// (empty parentID means root level).
	FindCategoryByName(ctx context.Context, userID, parentID, name string) (*domain.Category, error)

	// ListCategories retrieves the user's categories ordered by name, optionally
	// narrowed to one type.
	ListCategories(ctx context.Context, userID string, categoryType *domain.CategoryType) ([]domain.Category, error)

	// UpdateCategory updates mutable fields (name, icon, color).
	UpdateCategory(ctx context.Context, category domain.Category) error

	// ReparentCategory moves a category under a new parent (empty means root).
	// Cycle detection walks ancestors inside the same storage transaction as
	// the update.
	ReparentCategory(ctx context.Context, userID, categoryID, newParentID, updatedBy string, now time.Time) error

	// HasChildCategories reports whether any category names the given one as parent.
	HasChildCategories(ctx context.Context, userID, categoryID string) (bool, error)

	// DeleteCategory removes the category row.
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}
