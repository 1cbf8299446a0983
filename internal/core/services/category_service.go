package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pfinbooks/bookkeeper_app/internal/apperrors"
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	portsrepo "github.com/pfinbooks/bookkeeper_app/internal/core/ports/repositories"
	portssvc "github.com/pfinbooks/bookkeeper_app/internal/core/ports/services"
	"github.com/pfinbooks/bookkeeper_app/internal/dto"
	"github.com/pfinbooks/bookkeeper_app/internal/middleware"
	"github.com/pfinbooks/bookkeeper_app/internal/utils/hierarchy"
)

// categoryService owns the income/expense classification forest.
type categoryService struct {
	categoryRepo portsrepo.CategoryRepository
}

// NewCategoryService creates a new category service.
func NewCategoryService(categoryRepo portsrepo.CategoryRepository) portssvc.CategorySvcFacade {
	return &categoryService{categoryRepo: categoryRepo}
}

var _ portssvc.CategorySvcFacade = (*categoryService)(nil)

// resolveParent verifies the parent exists and carries the same category type.
func (s *categoryService) resolveParent(ctx context.Context, userID, parentID string, categoryType domain.CategoryType) (*domain.Category, error) {
	parent, err := s.categoryRepo.FindCategoryByID(ctx, userID, parentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: category %s", apperrors.ErrParentNotFound, parentID)
		}
		return nil, fmt.Errorf("failed to resolve parent category: %w", err)
	}
	if parent.CategoryType != categoryType {
		return nil, fmt.Errorf("%w: parent is %s, child is %s", apperrors.ErrTypeMismatch, parent.CategoryType, categoryType)
	}
	return parent, nil
}

// checkDuplicateName rejects a second category with the same name under the
// same parent. Siblings must be distinguishable; cousins may share a name.
func (s *categoryService) checkDuplicateName(ctx context.Context, userID, parentID, name, excludeID string) error {
	existing, err := s.categoryRepo.FindCategoryByName(ctx, userID, parentID, name)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to check category name uniqueness: %w", err)
	}
	if existing != nil && existing.CategoryID != excludeID {
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicateName, name)
	}
	return nil
}

// CreateCategory validates and persists a new category.
func (s *categoryService) CreateCategory(ctx context.Context, userID string, req dto.CreateCategoryRequest) (*domain.Category, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	parentID := ""
	if req.ParentCategoryID != nil && *req.ParentCategoryID != "" {
		parent, err := s.resolveParent(ctx, userID, *req.ParentCategoryID, req.CategoryType)
		if err != nil {
			return nil, err
		}
		parentID = parent.CategoryID
	}

	if err := s.checkDuplicateName(ctx, userID, parentID, req.Name, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	category := domain.Category{
		CategoryID:       uuid.NewString(),
		UserID:           userID,
		Name:             req.Name,
		CategoryType:     req.CategoryType,
		Icon:             req.Icon,
		Color:            req.Color,
		ParentCategoryID: parentID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.categoryRepo.SaveCategory(ctx, category); err != nil {
		logger.Error("Failed to save category", slog.String("error", err.Error()), slog.String("name", req.Name))
		return nil, fmt.Errorf("failed to save category: %w", err)
	}
	return &category, nil
}

// GetCategoryByID retrieves one category scoped to the user.
func (s *categoryService) GetCategoryByID(ctx context.Context, userID, categoryID string) (*domain.Category, error) {
	category, err := s.categoryRepo.FindCategoryByID(ctx, userID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find category %s: %w", categoryID, err)
	}
	return category, nil
}

// ListCategories retrieves the user's categories, optionally by type.
func (s *categoryService) ListCategories(ctx context.Context, userID string, categoryType *domain.CategoryType) ([]domain.Category, error) {
	categories, err := s.categoryRepo.ListCategories(ctx, userID, categoryType)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory applies partial updates. The category's type is immutable;
// moving a category is handled here too since the request carries the parent.
func (s *categoryService) UpdateCategory(ctx context.Context, userID, categoryID string, req dto.UpdateCategoryRequest) (*domain.Category, error) {
	category, err := s.categoryRepo.FindCategoryByID(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if req.ParentCategoryID != nil && *req.ParentCategoryID != category.ParentCategoryID {
		newParentID := *req.ParentCategoryID
		if newParentID != "" {
			if newParentID == categoryID {
				return nil, apperrors.ErrSelfParent
			}
			if _, err := s.resolveParent(ctx, userID, newParentID, category.CategoryType); err != nil {
				return nil, err
			}
			lookup := func(ctx context.Context, id string) (string, error) {
				cat, err := s.categoryRepo.FindCategoryByID(ctx, userID, id)
				if err != nil {
					if errors.Is(err, apperrors.ErrNotFound) {
						return "", nil
					}
					return "", err
				}
				return cat.ParentCategoryID, nil
			}
			cycle, err := hierarchy.WouldCreateCycle(ctx, lookup, categoryID, newParentID)
			if err != nil {
				if errors.Is(err, hierarchy.ErrDepthExceeded) {
					return nil, apperrors.ErrCycleDetected
				}
				return nil, fmt.Errorf("failed to walk category ancestors: %w", err)
			}
			if cycle {
				return nil, apperrors.ErrCycleDetected
			}
		}

		name := category.Name
		if req.Name != nil {
			name = *req.Name
		}
		if err := s.checkDuplicateName(ctx, userID, newParentID, name, categoryID); err != nil {
			return nil, err
		}
		if err := s.categoryRepo.ReparentCategory(ctx, userID, categoryID, newParentID, userID, now); err != nil {
			return nil, err
		}
		category.ParentCategoryID = newParentID
	}

	updated := false
	if req.Name != nil && *req.Name != category.Name {
		if err := s.checkDuplicateName(ctx, userID, category.ParentCategoryID, *req.Name, categoryID); err != nil {
			return nil, err
		}
		category.Name = *req.Name
		updated = true
	}
	if req.Icon != nil {
		category.Icon = *req.Icon
		updated = true
	}
	if req.Color != nil {
		category.Color = *req.Color
		updated = true
	}
	if updated {
		category.LastUpdatedAt = now
		category.LastUpdatedBy = userID
		if err := s.categoryRepo.UpdateCategory(ctx, *category); err != nil {
			return nil, fmt.Errorf("failed to update category %s: %w", categoryID, err)
		}
	}
	return category, nil
}

// DeleteCategory removes a category that has no children. Transactions that
// referenced it keep their rows; the reference is cleared by the database.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	if _, err := s.categoryRepo.FindCategoryByID(ctx, userID, categoryID); err != nil {
		return err
	}

	hasChildren, err := s.categoryRepo.HasChildCategories(ctx, userID, categoryID)
	if err != nil {
		return fmt.Errorf("failed to check child categories: %w", err)
	}
	if hasChildren {
		return fmt.Errorf("%w: category %s", apperrors.ErrHasChildren, categoryID)
	}

	return s.categoryRepo.DeleteCategory(ctx, userID, categoryID)
}

// GetCategoryTree returns the user's categories as a forest ordered by name
// at every level, optionally narrowed to one type.
func (s *categoryService) GetCategoryTree(ctx context.Context, userID string, categoryType *domain.CategoryType) ([]dto.CategoryTreeNode, error) {
	categories, err := s.categoryRepo.ListCategories(ctx, userID, categoryType)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories for tree: %w", err)
	}

	byID := make(map[string]domain.Category, len(categories))
	nodes := make([]hierarchy.Node, len(categories))
	for i, cat := range categories {
		byID[cat.CategoryID] = cat
		nodes[i] = hierarchy.Node{ID: cat.CategoryID, ParentID: cat.ParentCategoryID}
	}
	children := hierarchy.ChildIndex(nodes)

	var build func(id string, depth int) dto.CategoryTreeNode
	build = func(id string, depth int) dto.CategoryTreeNode {
		cat := byID[id]
		node := dto.CategoryTreeNode{
			CategoryID:   cat.CategoryID,
			Name:         cat.Name,
			CategoryType: cat.CategoryType,
			Icon:         cat.Icon,
			Color:        cat.Color,
			Children:     []dto.CategoryTreeNode{},
		}
		if depth >= hierarchy.MaxDepth {
			return node
		}
		for _, childID := range children[id] {
			node.Children = append(node.Children, build(childID, depth+1))
		}
		sort.Slice(node.Children, func(i, j int) bool { return node.Children[i].Name < node.Children[j].Name })
		return node
	}

	roots := make([]dto.CategoryTreeNode, 0, len(children[""]))
	for _, rootID := range children[""] {
		roots = append(roots, build(rootID, 0))
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Name < roots[j].Name })
	return roots, nil
}
