package dto

import (
	"time"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateBudgetRequest defines the data needed to create a budget.
type CreateBudgetRequest struct {
	AccountID  string              `json:"accountID" binding:"required"`
	CategoryID string              `json:"categoryID"`
	Period     domain.BudgetPeriod `json:"period" binding:"required,oneof=monthly quarterly yearly"`
	Amount     decimal.Decimal     `json:"amount" binding:"required"`
	StartDate  time.Time           `json:"startDate" binding:"required" time_format:"2006-01-02"`
	EndDate    *time.Time          `json:"endDate" time_format:"2006-01-02"`
}

// UpdateBudgetRequest defines updatable budget fields.
type UpdateBudgetRequest struct {
	Amount   *decimal.Decimal     `json:"amount"`
	Period   *domain.BudgetPeriod `json:"period" binding:"omitempty,oneof=monthly quarterly yearly"`
	EndDate  *time.Time           `json:"endDate" time_format:"2006-01-02"`
	IsActive *bool                `json:"isActive"`
}

// BudgetResponse is the wire shape of a budget.
type BudgetResponse struct {
	BudgetID   string              `json:"budgetID"`
	AccountID  string              `json:"accountID"`
	CategoryID string              `json:"categoryID"`
	Period     domain.BudgetPeriod `json:"period"`
	Amount     decimal.Decimal     `json:"amount"`
	StartDate  time.Time           `json:"startDate"`
	EndDate    *time.Time          `json:"endDate"`
	IsActive   bool                `json:"isActive"`
}

// ToBudgetResponse converts a domain budget to its DTO.
func ToBudgetResponse(b *domain.Budget) BudgetResponse {
	return BudgetResponse{
		BudgetID:   b.BudgetID,
		AccountID:  b.AccountID,
		CategoryID: b.CategoryID,
		Period:     b.Period,
		Amount:     b.Amount,
		StartDate:  b.StartDate,
		EndDate:    b.EndDate,
		IsActive:   b.IsActive,
	}
}

// BudgetProgressResponse reports budget vs. actual posted activity for the
// period containing asOf.
type BudgetProgressResponse struct {
	BudgetID    string          `json:"budgetID"`
	PeriodStart time.Time       `json:"periodStart"`
	PeriodEnd   time.Time       `json:"periodEnd"` // Exclusive
	Budgeted    decimal.Decimal `json:"budgeted"`
	Actual      decimal.Decimal `json:"actual"`
	Remaining   decimal.Decimal `json:"remaining"` // Budgeted - Actual, negative when over budget
}
