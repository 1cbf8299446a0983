package services

import (
	"context"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/pfinbooks/bookkeeper_app/internal/dto"
)

// AccountSvcFacade owns the chart of accounts: creation, hierarchy moves,
// deletion guards, tree and summary reads. Balances are mutated only through
// the ledger's posting path, never through this facade.
type AccountSvcFacade interface {
	CreateAccount(ctx context.Context, userID string, req dto.CreateAccountRequest) (*domain.Account, error)
	GetAccountByID(ctx context.Context, userID, accountID string) (*domain.Account, error)
	GetAccountsByIDs(ctx context.Context, userID string, accountIDs []string) (map[string]domain.Account, error)
	ListAccounts(ctx context.Context, userID string, params dto.ListAccountsParams) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, userID, accountID string, req dto.UpdateAccountRequest) (*domain.Account, error)
	ReparentAccount(ctx context.Context, userID, accountID string, newParentID *string) (*domain.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) error
	GetAccountTree(ctx context.Context, userID string) ([]dto.AccountTreeNode, error)
	GetAccountSummary(ctx context.Context, userID string) (*dto.AccountSummaryResponse, error)
	SeedDefaultAccounts(ctx context.Context, userID string) error
}
