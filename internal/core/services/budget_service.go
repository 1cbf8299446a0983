package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pfinbooks/bookkeeper_app/internal/apperrors"
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	portsrepo "github.com/pfinbooks/bookkeeper_app/internal/core/ports/repositories"
	portssvc "github.com/pfinbooks/bookkeeper_app/internal/core/ports/services"
	"github.com/pfinbooks/bookkeeper_app/internal/dto"
	"github.com/pfinbooks/bookkeeper_app/internal/utils/accounting"
)

// budgetService owns period budgets. Progress is derived from posted ledger
// activity at read time; budgets never write to the ledger.
type budgetService struct {
	budgetRepo   portsrepo.BudgetRepository
	accountRepo  portsrepo.AccountRepository
	categoryRepo portsrepo.CategoryRepository
	now          func() time.Time
}

// NewBudgetService creates a new budget service. now is the clock used to pick
// the current budget period; pass time.Now for production.
func NewBudgetService(
	budgetRepo portsrepo.BudgetRepository,
	accountRepo portsrepo.AccountRepository,
	categoryRepo portsrepo.CategoryRepository,
	now func() time.Time,
) portssvc.BudgetSvcFacade {
	return &budgetService{
		budgetRepo:   budgetRepo,
		accountRepo:  accountRepo,
		categoryRepo: categoryRepo,
		now:          now,
	}
}

var _ portssvc.BudgetSvcFacade = (*budgetService)(nil)

// CreateBudget validates references and persists a new budget.
func (s *budgetService) CreateBudget(ctx context.Context, userID string, req dto.CreateBudgetRequest) (*domain.Budget, error) {
	if err := accounting.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", apperrors.ErrValidation)
	}

	if _, err := s.accountRepo.FindAccountByID(ctx, userID, req.AccountID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrInvalidAccountRef, req.AccountID)
		}
		return nil, fmt.Errorf("failed to resolve budget account: %w", err)
	}
	if req.CategoryID != "" {
		if _, err := s.categoryRepo.FindCategoryByID(ctx, userID, req.CategoryID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: category %s", apperrors.ErrValidation, req.CategoryID)
			}
			return nil, fmt.Errorf("failed to resolve budget category: %w", err)
		}
	}

	now := time.Now().UTC()
	budget := domain.Budget{
		BudgetID:   uuid.NewString(),
		UserID:     userID,
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		Period:     req.Period,
		Amount:     req.Amount,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		IsActive:   true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.budgetRepo.SaveBudget(ctx, budget); err != nil {
		return nil, fmt.Errorf("failed to save budget: %w", err)
	}
	return &budget, nil
}

// GetBudgetByID retrieves one budget scoped to the user.
func (s *budgetService) GetBudgetByID(ctx context.Context, userID, budgetID string) (*domain.Budget, error) {
	budget, err := s.budgetRepo.FindBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to find budget %s: %w", budgetID, err)
	}
	return budget, nil
}

// ListBudgets retrieves the user's budgets ordered by start date.
func (s *budgetService) ListBudgets(ctx context.Context, userID string, onlyActive bool) ([]domain.Budget, error) {
	budgets, err := s.budgetRepo.ListBudgets(ctx, userID, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	return budgets, nil
}

// UpdateBudget applies partial updates. The account and category bindings are
// fixed at creation; create a new budget to track something else.
func (s *budgetService) UpdateBudget(ctx context.Context, userID, budgetID string, req dto.UpdateBudgetRequest) (*domain.Budget, error) {
	budget, err := s.budgetRepo.FindBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}

	updated := false
	if req.Amount != nil {
		if err := accounting.ValidateAmount(*req.Amount); err != nil {
			return nil, err
		}
		budget.Amount = *req.Amount
		updated = true
	}
	if req.Period != nil {
		budget.Period = *req.Period
		updated = true
	}
	if req.EndDate != nil {
		if req.EndDate.Before(budget.StartDate) {
			return nil, fmt.Errorf("%w: end date precedes start date", apperrors.ErrValidation)
		}
		budget.EndDate = req.EndDate
		updated = true
	}
	if req.IsActive != nil {
		budget.IsActive = *req.IsActive
		updated = true
	}
	if !updated {
		return budget, nil
	}

	budget.LastUpdatedAt = time.Now().UTC()
	budget.LastUpdatedBy = userID
	if err := s.budgetRepo.UpdateBudget(ctx, *budget); err != nil {
		return nil, fmt.Errorf("failed to update budget %s: %w", budgetID, err)
	}
	return budget, nil
}

// DeleteBudget removes a budget. The ledger is untouched.
func (s *budgetService) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	if _, err := s.budgetRepo.FindBudgetByID(ctx, userID, budgetID); err != nil {
		return err
	}
	return s.budgetRepo.DeleteBudget(ctx, userID, budgetID)
}

// GetBudgetProgress reports budgeted vs. actual posted activity for the period
// containing the current instant. Remaining goes negative when over budget.
func (s *budgetService) GetBudgetProgress(ctx context.Context, userID, budgetID string) (*dto.BudgetProgressResponse, error) {
	budget, err := s.budgetRepo.FindBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}

	asOf := s.now().UTC()
	start, end := budget.PeriodWindow(asOf)
	if budget.EndDate != nil && end.After(*budget.EndDate) {
		end = *budget.EndDate
	}

	actual, err := s.budgetRepo.SumPostedActivity(ctx, userID, budget.AccountID, budget.CategoryID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to sum posted activity: %w", err)
	}

	return &dto.BudgetProgressResponse{
		BudgetID:    budget.BudgetID,
		PeriodStart: start,
		PeriodEnd:   end,
		Budgeted:    budget.Amount,
		Actual:      actual,
		Remaining:   budget.Amount.Sub(actual),
	}, nil
}
