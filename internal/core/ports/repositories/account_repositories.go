package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ListAccountsFilter narrows account listings.
type ListAccountsFilter struct {
	AccountType *domain.AccountType
	IsActive    *bool
	Search      string // Matches code, name or description
}

// AccountReader defines read operations for account data. Every operation is
// scoped to the owning user.
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, userID, accountID string) (*domain.Account, error)

	// FindAccountByCode retrieves an account by its user-facing code.
	FindAccountByCode(ctx context.Context, userID, code string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs.
	FindAccountsByIDs(ctx context.Context, userID string, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves a filtered, paginated list of accounts ordered by code.
	ListAccounts(ctx context.Context, userID string, filter ListAccountsFilter, limit, offset int) ([]domain.Account, error)

	// ListAllAccounts retrieves every account of the user ordered by code,
	// used for tree construction.
	ListAllAccounts(ctx context.Context, userID string) ([]domain.Account, error)

	// SummarizeAccountsByType aggregates count and balance per account type.
	SummarizeAccountsByType(ctx context.Context, userID string) ([]domain.AccountTypeSummary, error)

	// HasChildAccounts reports whether any account names the given one as parent.
	HasChildAccounts(ctx context.Context, userID, accountID string) (bool, error)

	// HasTransactionLines reports whether any transaction line references the account.
	HasTransactionLines(ctx context.Context, accountID string) (bool, error)
}

// AccountWriter defines write operations for account data.
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates mutable account details (name, subtype, description, active flag).
	UpdateAccount(ctx context.Context, account domain.Account) error

	// ReparentAccount moves an account under a new parent (empty means root).
	// The ancestor walk that guards against cycles runs inside the same storage
	// transaction as the update so a concurrent reparent cannot slip a cycle in.
	ReparentAccount(ctx context.Context, userID, accountID, newParentID, updatedBy string, now time.Time) error

	// DeleteAccount removes the account row. Callers must have verified the
	// account has no children and no transaction lines.
	DeleteAccount(ctx context.Context, userID, accountID string) error
}

// AccountTransactionSupport exposes the balance-delta primitives the ledger
// uses inside its posting transaction. These are the only paths that mutate
// account balances.
type AccountTransactionSupport interface {
	// FindAccountsByIDsForUpdate selects accounts and locks their rows for
	// update within the given transaction.
	FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error)

	// ApplyBalanceDeltasInTx adds each signed delta to the matching account's
	// balance within the given transaction.
	ApplyBalanceDeltasInTx(ctx context.Context, tx pgx.Tx, deltas map[string]decimal.Decimal, userID string, now time.Time) error
}

// AccountRepository combines all account repository interfaces.
type AccountRepository interface {
	AccountReader
	AccountWriter
	AccountTransactionSupport
}
