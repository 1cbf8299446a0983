package services

import (
	"context"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/pfinbooks/bookkeeper_app/internal/dto"
)

// BudgetSvcFacade owns period budgets. It reads ledger activity for variance
// and never mutates it.
type BudgetSvcFacade interface {
	CreateBudget(ctx context.Context, userID string, req dto.CreateBudgetRequest) (*domain.Budget, error)
	GetBudgetByID(ctx context.Context, userID, budgetID string) (*domain.Budget, error)
	ListBudgets(ctx context.Context, userID string, onlyActive bool) ([]domain.Budget, error)
	UpdateBudget(ctx context.Context, userID, budgetID string, req dto.UpdateBudgetRequest) (*domain.Budget, error)
	DeleteBudget(ctx context.Context, userID, budgetID string) error
	GetBudgetProgress(ctx context.Context, userID, budgetID string) (*dto.BudgetProgressResponse, error)
}
