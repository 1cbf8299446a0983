package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pfinbooks/bookkeeper_app/internal/apperrors"
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	portsrepo "github.com/pfinbooks/bookkeeper_app/internal/core/ports/repositories"
	"github.com/pfinbooks/bookkeeper_app/internal/models"
)

const budgetColumns = `budget_id, user_id, account_id, category_id, period, amount, start_date, end_date, is_active, created_at, created_by, last_updated_at, last_updated_by`

type PgxBudgetRepository struct {
	BaseRepository
}

// newPgxBudgetRepository creates a new repository for budget data.
func newPgxBudgetRepository(pool *pgxpool.Pool) portsrepo.BudgetRepository {
	return &PgxBudgetRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BudgetRepository = (*PgxBudgetRepository)(nil)

func toModelBudget(d domain.Budget) models.Budget {
	return models.Budget{
		BudgetID:   d.BudgetID,
		UserID:     d.UserID,
		AccountID:  d.AccountID,
		CategoryID: d.CategoryID,
		Period:     string(d.Period),
		Amount:     d.Amount,
		StartDate:  d.StartDate,
		EndDate:    d.EndDate,
		IsActive:   d.IsActive,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainBudget(m models.Budget) domain.Budget {
	return domain.Budget{
		BudgetID:   m.BudgetID,
		UserID:     m.UserID,
		AccountID:  m.AccountID,
		CategoryID: m.CategoryID,
		Period:     domain.BudgetPeriod(m.Period),
		Amount:     m.Amount,
		StartDate:  m.StartDate,
		EndDate:    m.EndDate,
		IsActive:   m.IsActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

func scanBudget(row pgx.Row) (models.Budget, error) {
	var m models.Budget
	var categoryID sql.NullString
	var endDate sql.NullTime
	err := row.Scan(
		&m.BudgetID,
		&m.UserID,
		&m.AccountID,
		&categoryID,
		&m.Period,
		&m.Amount,
		&m.StartDate,
		&endDate,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.Budget{}, err
	}
	m.CategoryID = categoryID.String
	if endDate.Valid {
		t := endDate.Time
		m.EndDate = &t
	}
	return m, nil
}

// SaveBudget inserts a new budget.
func (r *PgxBudgetRepository) SaveBudget(ctx context.Context, budget domain.Budget) error {
	m := toModelBudget(budget)
	query := `
		INSERT INTO budgets (` + budgetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.BudgetID,
		m.UserID,
		m.AccountID,
		nullString(m.CategoryID),
		m.Period,
		m.Amount,
		m.StartDate,
		m.EndDate,
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save budget %s: %w", m.BudgetID, classifyPgError(err))
	}
	return nil
}

// FindBudgetByID retrieves a budget by id for the user.
func (r *PgxBudgetRepository) FindBudgetByID(ctx context.Context, userID, budgetID string) (*domain.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = $1 AND budget_id = $2;`

	m, err := scanBudget(r.Pool.QueryRow(ctx, query, userID, budgetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find budget %s: %w", budgetID, err)
	}
	b := toDomainBudget(m)
	return &b, nil
}

// ListBudgets retrieves the user's budgets ordered by start date.
func (r *PgxBudgetRepository) ListBudgets(ctx context.Context, userID string, onlyActive bool) ([]domain.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = $1`
	if onlyActive {
		query += " AND is_active = TRUE"
	}
	query += " ORDER BY start_date, budget_id;"

	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []domain.Budget
	for rows.Next() {
		m, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget row: %w", err)
		}
		budgets = append(budgets, toDomainBudget(m))
	}
	return budgets, rows.Err()
}

// UpdateBudget updates budget fields.
func (r *PgxBudgetRepository) UpdateBudget(ctx context.Context, budget domain.Budget) error {
	m := toModelBudget(budget)
	query := `
		UPDATE budgets
		SET period = $3, amount = $4, end_date = $5, is_active = $6, last_updated_at = $7, last_updated_by = $8
		WHERE user_id = $1 AND budget_id = $2;
	`
	tag, err := r.Pool.Exec(ctx, query,
		m.UserID, m.BudgetID, m.Period, m.Amount, m.EndDate, m.IsActive, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update budget %s: %w", m.BudgetID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteBudget removes the budget row.
func (r *PgxBudgetRepository) DeleteBudget(ctx context.Context, userID, budgetID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM budgets WHERE user_id = $1 AND budget_id = $2;`, userID, budgetID)
	if err != nil {
		return fmt.Errorf("failed to delete budget %s: %w", budgetID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SumPostedActivity sums the signed balance effect of posted lines on the
// account within [from, to). The sign convention matches account balances: a
// line whose type equals the account's normal balance counts positive.
func (r *PgxBudgetRepository) SumPostedActivity(ctx context.Context, userID, accountID, categoryID string, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE WHEN l.line_type = a.normal_balance THEN l.amount ELSE -l.amount END
		), 0)
		FROM transaction_lines l
		JOIN transactions t ON t.transaction_id = l.transaction_id
		JOIN accounts a ON a.account_id = l.account_id
		WHERE t.user_id = $1
		  AND l.account_id = $2
		  AND t.is_posted = TRUE
		  AND t.txn_date >= $3
		  AND t.txn_date < $4
	`
	args := []interface{}{userID, accountID, from, to}
	if categoryID != "" {
		args = append(args, categoryID)
		query += fmt.Sprintf(" AND t.category_id = $%d", len(args))
	}
	query += ";"

	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum posted activity: %w", err)
	}
	return total, nil
}
