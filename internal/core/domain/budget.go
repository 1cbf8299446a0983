package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod is the cadence a budget amount applies to.
type BudgetPeriod string

const (
	MonthlyBudget   BudgetPeriod = "monthly"
	QuarterlyBudget BudgetPeriod = "quarterly"
	YearlyBudget    BudgetPeriod = "yearly"
)

// Budget caps expected activity on an account (optionally narrowed to a
// category) per period. Budgets are read-only consumers of ledger data: variance
// is derived from posted transactions and never feeds back into balances.
type Budget struct {
	BudgetID   string          `json:"budgetID"` // Primary Key (UUID)
	UserID     string          `json:"userID"`
	AccountID  string          `json:"accountID"`
	CategoryID string          `json:"categoryID"` // Optional narrowing tag
	Period     BudgetPeriod    `json:"period"`
	Amount     decimal.Decimal `json:"amount"` // >= 0
	StartDate  time.Time       `json:"startDate"`
	EndDate    *time.Time      `json:"endDate"`
	IsActive   bool            `json:"isActive"`
	AuditFields
}

// PeriodWindow returns the budget period containing asOf, aligned to the
// budget's start date. The returned end is exclusive.
func (b Budget) PeriodWindow(asOf time.Time) (time.Time, time.Time) {
	months := 1
	switch b.Period {
	case QuarterlyBudget:
		months = 3
	case YearlyBudget:
		months = 12
	}
	start := b.StartDate
	for {
		end := addMonthsClamped(start, months)
		if asOf.Before(end) || start.After(asOf) {
			return start, end
		}
		start = end
	}
}
