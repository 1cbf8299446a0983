package repositories

import (
	"context"
	"time"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BudgetRepository persists budgets and reads ledger activity for variance
// computation. It never writes to the ledger.
type BudgetRepository interface {
	// SaveBudget persists a new budget.
	SaveBudget(ctx context.Context, budget domain.Budget) error

	// FindBudgetByID retrieves a budget by id for the user.
	FindBudgetByID(ctx context.Context, userID, budgetID string) (*domain.Budget, error)

	// ListBudgets retrieves the user's budgets ordered by start date.
	ListBudgets(ctx context.Context, userID string, onlyActive bool) ([]domain.Budget, error)

	// UpdateBudget updates budget fields.
	UpdateBudget(ctx context.Context, budget domain.Budget) error

	// DeleteBudget removes the budget row.
	DeleteBudget(ctx context.Context, userID, budgetID string) error

	// SumPostedActivity sums the signed balance effect of posted transaction
	// lines on the account within [from, to), optionally narrowed to a
	// category. The sign convention matches account balances: a line whose
	// type equals the account's normal balance counts positive.
	SumPostedActivity(ctx context.Context, userID, accountID, categoryID string, from, to time.Time) (decimal.Decimal, error)
}
