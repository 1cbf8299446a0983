package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pfinbooks/bookkeeper_app/internal/apperrors"
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	portsrepo "github.com/pfinbooks/bookkeeper_app/internal/core/ports/repositories"
	portssvc "github.com/pfinbooks/bookkeeper_app/internal/core/ports/services"
	"github.com/pfinbooks/bookkeeper_app/internal/dto"
	"github.com/pfinbooks/bookkeeper_app/internal/middleware"
	"github.com/pfinbooks/bookkeeper_app/internal/utils/accounting"
)

// postRetryAttempts bounds how many times a posting unit is retried after the
// database reports a serialization failure or deadlock.
const postRetryAttempts = 3

// transactionService is the ledger. Every write goes through an atomic posting
// unit owned by the repository; the service owns validation and retries.
type transactionService struct {
	txnRepo      portsrepo.TransactionRepository
	accountRepo  portsrepo.AccountRepository
	categoryRepo portsrepo.CategoryRepository
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(
	txnRepo portsrepo.TransactionRepository,
	accountRepo portsrepo.AccountRepository,
	categoryRepo portsrepo.CategoryRepository,
) portssvc.TransactionSvcFacade {
	return &transactionService{
		txnRepo:      txnRepo,
		accountRepo:  accountRepo,
		categoryRepo: categoryRepo,
	}
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

// newTransactionNumber builds a human-scannable reference like TXN-20240131-1A2B3C.
func newTransactionNumber(date time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("TXN-%s-%s", date.Format("20060102"), suffix)
}

// preparedPosting is a fully validated posting unit ready for the repository.
type preparedPosting struct {
	txn    domain.Transaction
	lines  []domain.TransactionLine
	deltas map[string]decimal.Decimal
}

// preparePosting runs the full validation pipeline and assembles the posting
// unit. Validation order is fixed: line amounts, then balance, then account
// references, then account state, then the category reference. The first
// failure wins so callers see stable errors.
func (s *transactionService) preparePosting(ctx context.Context, userID string, req dto.CreateTransactionRequest) (*preparedPosting, error) {
	now := time.Now().UTC()
	txnID := uuid.NewString()

	lines := make([]domain.TransactionLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = domain.TransactionLine{
			LineID:        uuid.NewString(),
			TransactionID: txnID,
			AccountID:     l.AccountID,
			LineType:      l.LineType,
			Amount:        l.Amount,
			Description:   l.Description,
			CreatedAt:     now,
		}
	}

	if err := accounting.ValidateLineAmounts(lines); err != nil {
		return nil, err
	}
	if err := accounting.CheckBalanced(lines); err != nil {
		return nil, err
	}

	accountIDs := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if !seen[line.AccountID] {
			seen[line.AccountID] = true
			accountIDs = append(accountIDs, line.AccountID)
		}
	}

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, userID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve line accounts: %w", err)
	}

	normals := make(map[string]domain.NormalBalance, len(accounts))
	for _, id := range accountIDs {
		account, ok := accounts[id]
		if !ok {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrInvalidAccountRef, id)
		}
		if !account.IsActive {
			return nil, fmt.Errorf("%w: account %s (%s)", apperrors.ErrInactiveAccount, account.Code, account.Name)
		}
		normals[id] = account.NormalBalance
	}

	if req.CategoryID != "" {
		if _, err := s.categoryRepo.FindCategoryByID(ctx, userID, req.CategoryID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: category %s", apperrors.ErrValidation, req.CategoryID)
			}
			return nil, fmt.Errorf("failed to resolve category: %w", err)
		}
	}

	deltas, err := accounting.BalanceDeltas(lines, normals)
	if err != nil {
		return nil, err
	}

	txn := domain.Transaction{
		TransactionID: txnID,
		UserID:        userID,
		Date:          req.Date,
		Type:          req.Type,
		Number:        newTransactionNumber(req.Date),
		Description:   req.Description,
		Reference:     req.Reference,
		Notes:         req.Notes,
		CategoryID:    req.CategoryID,
		RecurringID:   req.RecurringID,
		IsPosted:      true,
		Lines:         lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	return &preparedPosting{txn: txn, lines: lines, deltas: deltas}, nil
}

// withPostRetry runs an atomic posting unit, retrying a bounded number of
// times when the database reports a serialization failure. Exhausting the
// budget surfaces ErrTransient so callers know a clean retry is safe.
func withPostRetry(ctx context.Context, logger *slog.Logger, op func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= postRetryAttempts; attempt++ {
		err = op(ctx)
		if err == nil || !errors.Is(err, apperrors.ErrSerialization) {
			return err
		}
		logger.Warn("Posting unit hit a serialization conflict, retrying",
			slog.Int("attempt", attempt), slog.Int("max_attempts", postRetryAttempts))
	}
	return fmt.Errorf("%w: posting conflicted %d times: %v", apperrors.ErrTransient, postRetryAttempts, err)
}

// PostTransaction validates and atomically posts a balanced transaction,
// applying its balance effect to every referenced account.
func (s *transactionService) PostTransaction(ctx context.Context, userID string, req dto.CreateTransactionRequest) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	prepared, err := s.preparePosting(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	err = withPostRetry(ctx, logger, func(ctx context.Context) error {
		return s.txnRepo.SavePosted(ctx, prepared.txn, prepared.lines, prepared.deltas)
	})
	if err != nil {
		logger.Error("Failed to post transaction", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Transaction posted",
		slog.String("transaction_id", prepared.txn.TransactionID),
		slog.String("number", prepared.txn.Number),
		slog.Int("lines", len(prepared.lines)))
	return &prepared.txn, nil
}

// PostGenerated posts a transaction materialized from a recurring template and
// advances the template schedule in the same storage transaction. A lost race
// on the template's next date surfaces ErrConflict with nothing persisted.
func (s *transactionService) PostGenerated(ctx context.Context, userID string, req dto.CreateTransactionRequest, advance domain.ScheduleAdvance) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	prepared, err := s.preparePosting(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	err = withPostRetry(ctx, logger, func(ctx context.Context) error {
		return s.txnRepo.SaveGenerated(ctx, prepared.txn, prepared.lines, prepared.deltas, advance)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Generated transaction posted",
		slog.String("transaction_id", prepared.txn.TransactionID),
		slog.String("recurring_id", advance.RecurringID))
	return &prepared.txn, nil
}

// GetTransactionByID retrieves a transaction with its lines.
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	lines, err := s.txnRepo.FindLinesByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines for transaction %s: %w", transactionID, err)
	}
	txn.Lines = lines
	return txn, nil
}

// ListTransactions retrieves a filtered page of transactions with lines,
// newest first, using token-based pagination.
func (s *transactionService) ListTransactions(ctx context.Context, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	filter := portsrepo.ListTransactionsFilter{
		DateFrom:   params.DateFrom,
		DateTo:     params.DateTo,
		AccountID:  params.AccountID,
		CategoryID: params.CategoryID,
		Type:       params.Type,
	}

	txns, nextToken, err := s.txnRepo.ListTransactions(ctx, userID, filter, params.Limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	resp := &dto.ListTransactionsResponse{
		Transactions: make([]dto.TransactionResponse, 0, len(txns)),
		NextToken:    nextToken,
	}
	for i := range txns {
		lines, err := s.txnRepo.FindLinesByTransactionID(ctx, txns[i].TransactionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load lines for transaction %s: %w", txns[i].TransactionID, err)
		}
		txns[i].Lines = lines
		resp.Transactions = append(resp.Transactions, dto.ToTransactionResponse(&txns[i]))
	}
	return resp, nil
}

// VoidTransaction reverses a posted transaction: the inverse of every balance
// delta is applied and the transaction is marked unposted, atomically. Voiding
// twice fails with ErrAlreadyVoided and changes nothing.
func (s *transactionService) VoidTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.GetTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}
	if !txn.IsPosted {
		return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrAlreadyVoided, transactionID)
	}

	accountIDs := make([]string, 0, len(txn.Lines))
	seen := make(map[string]bool, len(txn.Lines))
	for _, line := range txn.Lines {
		if !seen[line.AccountID] {
			seen[line.AccountID] = true
			accountIDs = append(accountIDs, line.AccountID)
		}
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, userID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve accounts for void: %w", err)
	}
	normals := make(map[string]domain.NormalBalance, len(accounts))
	for id, account := range accounts {
		normals[id] = account.NormalBalance
	}

	deltas, err := accounting.BalanceDeltas(txn.Lines, normals)
	if err != nil {
		return nil, err
	}
	inverse := accounting.InvertDeltas(deltas)

	now := time.Now().UTC()
	err = withPostRetry(ctx, logger, func(ctx context.Context) error {
		return s.txnRepo.VoidTransaction(ctx, userID, transactionID, inverse, userID, now)
	})
	if err != nil {
		return nil, err
	}

	txn.IsPosted = false
	txn.LastUpdatedAt = now
	txn.LastUpdatedBy = userID
	logger.Info("Transaction voided", slog.String("transaction_id", transactionID))
	return txn, nil
}
