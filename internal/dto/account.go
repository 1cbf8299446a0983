package dto

import (
	"time"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code            string               `json:"code" binding:"required,min=4,max=20,numeric"`
	Name            string               `json:"name" binding:"required,max=255"`
	AccountType     domain.AccountType   `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	NormalBalance   domain.NormalBalance `json:"normalBalance" binding:"required,oneof=DEBIT CREDIT"`
	Subtype         string               `json:"subtype" binding:"max=50"`
	Description     string               `json:"description"`
	ParentAccountID *string              `json:"parentAccountID"` // Optional, use pointer for nullability
}

// UpdateAccountRequest defines the data allowed for updating an account.
// Pointers distinguish zero-value updates from fields not provided.
type UpdateAccountRequest struct {
	Name        *string `json:"name"`
	Subtype     *string `json:"subtype"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

// ReparentAccountRequest moves an account under a new parent. A nil parent
// makes the account a root.
type ReparentAccountRequest struct {
	ParentAccountID *string `json:"parentAccountID"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID       string               `json:"accountID"`
	Code            string               `json:"code"`
	Name            string               `json:"name"`
	AccountType     domain.AccountType   `json:"accountType"`
	NormalBalance   domain.NormalBalance `json:"normalBalance"`
	Subtype         string               `json:"subtype"`
	Description     string               `json:"description"`
	ParentAccountID string               `json:"parentAccountID"` // Empty string if root
	Balance         decimal.Decimal      `json:"balance"`
	IsActive        bool                 `json:"isActive"`
	CreatedAt       time.Time            `json:"createdAt"`
	LastUpdatedAt   time.Time            `json:"lastUpdatedAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:       acc.AccountID,
		Code:            acc.Code,
		Name:            acc.Name,
		AccountType:     acc.AccountType,
		NormalBalance:   acc.NormalBalance,
		Subtype:         acc.Subtype,
		Description:     acc.Description,
		ParentAccountID: acc.ParentAccountID,
		Balance:         acc.Balance,
		IsActive:        acc.IsActive,
		CreatedAt:       acc.CreatedAt,
		LastUpdatedAt:   acc.LastUpdatedAt,
	}
}

// ToListAccountResponse converts a slice of domain.Account to response DTOs.
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i, acc := range accounts {
		res[i] = ToAccountResponse(&acc)
	}
	return res
}

// AccountTreeNode is one node of the nested chart-of-accounts tree. Children
// are ordered by code ascending at every level.
type AccountTreeNode struct {
	AccountID   string             `json:"accountID"`
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	AccountType domain.AccountType `json:"accountType"`
	Balance     decimal.Decimal    `json:"balance"`
	IsActive    bool               `json:"isActive"`
	Children    []AccountTreeNode  `json:"children"`
}

// AccountSummaryResponse aggregates account counts and balances by type.
type AccountSummaryResponse struct {
	TotalAccounts int                               `json:"totalAccounts"`
	ByType        map[domain.AccountType]TypeTotals `json:"byType"`
}

// TypeTotals holds the per-type slice of an account summary.
type TypeTotals struct {
	Count        int             `json:"count"`
	TotalBalance decimal.Decimal `json:"totalBalance"`
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	Type     *domain.AccountType `form:"type"`
	IsActive *bool               `form:"isActive"`
	Search   string              `form:"search"`
	Limit    int                 `form:"limit,default=50"`
	Offset   int                 `form:"offset,default=0"`
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}
