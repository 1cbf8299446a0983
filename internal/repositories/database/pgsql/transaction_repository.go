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
	"github.com/pfinbooks/bookkeeper_app/internal/utils/mapping"
	"github.com/pfinbooks/bookkeeper_app/internal/utils/pagination"
)

const transactionColumns = `transaction_id, user_id, txn_date, txn_type, number, description, reference, notes, category_id, recurring_id, is_posted, created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, transaction_id, account_id, line_type, amount, description, created_at`

type PgxTransactionRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountTransactionSupport
}

// newPgxTransactionRepository creates a new repository for the ledger. The
// account repository contributes the balance primitives used inside posting
// transactions.
func newPgxTransactionRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountTransactionSupport) portsrepo.TransactionRepository {
	return &PgxTransactionRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.TransactionRepository = (*PgxTransactionRepository)(nil)

// scanTransaction scans one header row in transactionColumns order.
func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var m models.Transaction
	var categoryID, recurringID sql.NullString
	err := row.Scan(
		&m.TransactionID,
		&m.UserID,
		&m.TxnDate,
		&m.TxnType,
		&m.Number,
		&m.Description,
		&m.Reference,
		&m.Notes,
		&categoryID,
		&recurringID,
		&m.IsPosted,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.Transaction{}, err
	}
	m.CategoryID = categoryID.String
	m.RecurringID = recurringID.String
	return m, nil
}

// insertPostingUnit writes the header, locks and adjusts the referenced
// accounts, and batch-inserts the lines, all on the given transaction. This is
// the shared core of SavePosted and SaveGenerated.
func (r *PgxTransactionRepository) insertPostingUnit(ctx context.Context, tx pgx.Tx, txn domain.Transaction, lines []domain.TransactionLine, deltas map[string]decimal.Decimal) error {
	m := mapping.ToModelTransaction(txn)

	headerQuery := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := tx.Exec(ctx, headerQuery,
		m.TransactionID,
		m.UserID,
		m.TxnDate,
		m.TxnType,
		m.Number,
		m.Description,
		m.Reference,
		m.Notes,
		nullString(m.CategoryID),
		nullString(m.RecurringID),
		m.IsPosted,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", m.TransactionID, classifyPgError(err))
	}

	// Lock the referenced accounts, then apply the deltas.
	accountIDs := make([]string, 0, len(deltas))
	for accID := range deltas {
		accountIDs = append(accountIDs, accID)
	}
	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs); err != nil {
		return fmt.Errorf("failed to lock accounts for posting: %w", err)
	}
	if err := r.accountRepo.ApplyBalanceDeltasInTx(ctx, tx, deltas, txn.CreatedBy, txn.CreatedAt); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO transaction_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	for _, line := range lines {
		ml := mapping.ToModelTransactionLine(line)
		batch.Queue(lineQuery,
			ml.LineID,
			ml.TransactionID,
			ml.AccountID,
			ml.LineType,
			ml.Amount,
			ml.Description,
			ml.CreatedAt,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert transaction lines for %s: %w", m.TransactionID, classifyPgError(err))
	}
	return nil
}

// SavePosted persists one posting unit atomically: header, account balance
// deltas and lines commit together or not at all.
func (r *PgxTransactionRepository) SavePosted(ctx context.Context, txn domain.Transaction, lines []domain.TransactionLine, deltas map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.insertPostingUnit(ctx, tx, txn, lines, deltas); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// SaveGenerated is SavePosted plus the recurring schedule advance. The template
// row is locked first so only one generator works a template at a time, and the
// advance is guarded on the next date the caller observed: if another generator
// already advanced it, nothing is persisted and ErrConflict is returned.
func (r *PgxTransactionRepository) SaveGenerated(ctx context.Context, txn domain.Transaction, lines []domain.TransactionLine, deltas map[string]decimal.Decimal, advance domain.ScheduleAdvance) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	var observedNext time.Time
	err = tx.QueryRow(ctx,
		`SELECT next_date FROM recurring WHERE recurring_id = $1 FOR UPDATE;`,
		advance.RecurringID,
	).Scan(&observedNext)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: recurring template %s", apperrors.ErrNotFound, advance.RecurringID)
		}
		return fmt.Errorf("failed to lock recurring template %s: %w", advance.RecurringID, classifyPgError(err))
	}
	if !observedNext.Equal(advance.FromNextDate) {
		return fmt.Errorf("%w: recurring template %s already advanced", apperrors.ErrConflict, advance.RecurringID)
	}

	if err := r.insertPostingUnit(ctx, tx, txn, lines, deltas); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE recurring
		SET next_date = $2, last_date = $3, is_active = $4, last_updated_at = $5, last_updated_by = $6
		WHERE recurring_id = $1 AND next_date = $7;
	`,
		advance.RecurringID,
		advance.NextDate,
		advance.LastDate,
		advance.IsActive,
		txn.CreatedAt,
		txn.CreatedBy,
		advance.FromNextDate,
	)
	if err != nil {
		return fmt.Errorf("failed to advance recurring template %s: %w", advance.RecurringID, classifyPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: recurring template %s already advanced", apperrors.ErrConflict, advance.RecurringID)
	}

	return r.Commit(ctx, tx)
}

// VoidTransaction applies the inverse deltas and marks the transaction
// unposted in one storage transaction. The header update is guarded on
// is_posted = TRUE; losing that race means the transaction was already voided.
func (r *PgxTransactionRepository) VoidTransaction(ctx context.Context, userID, transactionID string, inverseDeltas map[string]decimal.Decimal, voidedBy string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	// The guard and the flip are one statement, so a concurrent void cannot
	// apply the inverse deltas twice.
	tag, err := tx.Exec(ctx, `
		UPDATE transactions
		SET is_posted = FALSE, last_updated_at = $3, last_updated_by = $4
		WHERE user_id = $1 AND transaction_id = $2 AND is_posted = TRUE;
	`, userID, transactionID, now, voidedBy)
	if err != nil {
		return fmt.Errorf("failed to void transaction %s: %w", transactionID, classifyPgError(err))
	}
	if tag.RowsAffected() == 0 {
		// Distinguish missing from already voided.
		var exists bool
		if scanErr := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM transactions WHERE user_id = $1 AND transaction_id = $2);`,
			userID, transactionID,
		).Scan(&exists); scanErr != nil {
			return fmt.Errorf("failed to check transaction %s: %w", transactionID, scanErr)
		}
		if !exists {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("%w: transaction %s", apperrors.ErrAlreadyVoided, transactionID)
	}

	accountIDs := make([]string, 0, len(inverseDeltas))
	for accID := range inverseDeltas {
		accountIDs = append(accountIDs, accID)
	}
	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs); err != nil {
		return fmt.Errorf("failed to lock accounts for void: %w", err)
	}
	if err := r.accountRepo.ApplyBalanceDeltasInTx(ctx, tx, inverseDeltas, voidedBy, now); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// FindTransactionByID retrieves a transaction header by id for the user.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND transaction_id = $2;`

	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, userID, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	txn := mapping.ToDomainTransaction(m)
	return &txn, nil
}

// FindLinesByTransactionID retrieves a transaction's lines in insertion order.
func (r *PgxTransactionRepository) FindLinesByTransactionID(ctx context.Context, transactionID string) ([]domain.TransactionLine, error) {
	query := `SELECT ` + lineColumns + ` FROM transaction_lines WHERE transaction_id = $1 ORDER BY created_at, line_id;`

	rows, err := r.Pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.TransactionLine
	for rows.Next() {
		var ml models.TransactionLine
		if err := rows.Scan(&ml.LineID, &ml.TransactionID, &ml.AccountID, &ml.LineType, &ml.Amount, &ml.Description, &ml.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction line: %w", err)
		}
		lines = append(lines, mapping.ToDomainTransactionLine(ml))
	}
	return lines, rows.Err()
}

// ListTransactions retrieves a filtered page of headers, newest first, using a
// (txn_date, created_at) keyset cursor. A full page yields a token for the next.
func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, userID string, filter portsrepo.ListTransactionsFilter, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions t WHERE t.user_id = $1`
	args := []interface{}{userID}

	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		query += fmt.Sprintf(" AND t.txn_date >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		query += fmt.Sprintf(" AND t.txn_date <= $%d", len(args))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(" AND t.category_id = $%d", len(args))
	}
	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		query += fmt.Sprintf(" AND t.txn_type = $%d", len(args))
	}
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM transaction_lines l WHERE l.transaction_id = t.transaction_id AND l.account_id = $%d)", len(args))
	}

	if nextToken != nil && *nextToken != "" {
		txnDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, txnDate)
		dateArg := len(args)
		args = append(args, createdAt)
		createdArg := len(args)
		query += fmt.Sprintf(" AND (t.txn_date, t.created_at) < ($%d, $%d)", dateArg, createdArg)
	}

	// Fetch one extra row to know whether another page exists.
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY t.txn_date DESC, t.created_at DESC LIMIT $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, mapping.ToDomainTransaction(m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read transaction rows: %w", err)
	}

	var token *string
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[len(txns)-1]
		t := pagination.EncodeToken(last.Date, last.CreatedAt)
		token = &t
	}
	return txns, token, nil
}
