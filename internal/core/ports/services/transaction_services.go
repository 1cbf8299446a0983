package services

import (
	"context"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/pfinbooks/bookkeeper_app/internal/dto"
)

// TransactionSvcFacade is the ledger: it posts balanced transactions, voids
// them, and reads them back. Posting and balance application are one atomic
// unit at the storage layer.
type TransactionSvcFacade interface {
	PostTransaction(ctx context.Context, userID string, req dto.CreateTransactionRequest) (*domain.Transaction, error)
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
	VoidTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)

	// PostGenerated posts a transaction materialized from a recurring template
	// and advances the template's schedule in the same storage transaction.
	PostGenerated(ctx context.Context, userID string, req dto.CreateTransactionRequest, advance domain.ScheduleAdvance) (*domain.Transaction, error)
}
