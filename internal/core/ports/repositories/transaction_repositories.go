package repositories

import (
	"context"
	"time"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ListTransactionsFilter narrows transaction listings.
type ListTransactionsFilter struct {
	DateFrom   *time.Time
	DateTo     *time.Time
	AccountID  string
	CategoryID string
	Type       *domain.TransactionType
}

// TransactionReader defines read operations for transaction data.
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction header by id for the user.
	FindTransactionByID(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)

	// FindLinesByTransactionID retrieves a transaction's lines in insertion order.
	FindLinesByTransactionID(ctx context.Context, transactionID string) ([]domain.TransactionLine, error)

	// ListTransactions retrieves a filtered page of transactions using
	// token-based pagination. It returns the transactions, a token for the
	// next page, and an error.
	ListTransactions(ctx context.Context, userID string, filter ListTransactionsFilter, limit int, nextToken *string) ([]domain.Transaction, *string, error)
}

// TransactionWriter defines the atomic posting operations. Each method commits
// the full unit (header + lines + balance deltas) in one storage transaction or
// nothing at all.
type TransactionWriter interface {
	// SavePosted persists the header and lines and applies the balance deltas
	// to every referenced account, all within one storage transaction with the
	// account rows locked. Serialization failures map to apperrors.ErrSerialization.
	SavePosted(ctx context.Context, txn domain.Transaction, lines []domain.TransactionLine, deltas map[string]decimal.Decimal) error

	// SaveGenerated is SavePosted plus the recurring schedule advance, with the
	// template row locked for the duration and the advance guarded on the
	// observed next_date. A guard miss returns apperrors.ErrConflict and leaves
	// nothing persisted.
	SaveGenerated(ctx context.Context, txn domain.Transaction, lines []domain.TransactionLine, deltas map[string]decimal.Decimal, advance domain.ScheduleAdvance) error

	// VoidTransaction applies the inverse deltas and marks the transaction
	// unposted in one storage transaction. The update is guarded on
	// is_posted = TRUE; a voided transaction surfaces apperrors.ErrAlreadyVoided.
	VoidTransaction(ctx context.Context, userID, transactionID string, inverseDeltas map[string]decimal.Decimal, voidedBy string, now time.Time) error
}

// TransactionRepository combines the transaction repository interfaces.
type TransactionRepository interface {
	TransactionReader
	TransactionWriter
}
