package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// NormalBalance indicates on which side an account's balance naturally increases.
// Asset and Expense accounts are debit-normal; Liability, Equity and Revenue
// accounts are credit-normal.
type NormalBalance string

const (
	DebitNormal  NormalBalance = "DEBIT"
	CreditNormal NormalBalance = "CREDIT"
)

// DefaultNormalBalance returns the conventional normal balance for an account type.
func DefaultNormalBalance(t AccountType) NormalBalance {
	switch t {
	case Asset, Expense:
		return DebitNormal
	default:
		return CreditNormal
	}
}

// Account is a node in a user's chart of accounts.
// ParentAccountID is a structural relation resolved by id lookup; the hierarchy
// is never represented by embedded child collections.
type Account struct {
	AccountID       string          `json:"accountID"` // Primary Key (UUID)
	UserID          string          `json:"userID"`    // Owning user
	Code            string          `json:"code"`      // Digits, >= 4 chars, unique per user
	Name            string          `json:"name"`
	AccountType     AccountType     `json:"accountType"`
	NormalBalance   NormalBalance   `json:"normalBalance"`
	Subtype         string          `json:"subtype"`         // Optional grouping label
	Description     string          `json:"description"`     // Nullable
	ParentAccountID string          `json:"parentAccountID"` // Empty for root accounts
	IsActive        bool            `json:"isActive"`
	Balance         decimal.Decimal `json:"balance"` // Mutated only by transaction posting
	AuditFields
}

// AccountTypeSummary aggregates account count and balance for one account type.
type AccountTypeSummary struct {
	AccountType  AccountType     `json:"accountType"`
	Count        int             `json:"count"`
	TotalBalance decimal.Decimal `json:"totalBalance"`
}
