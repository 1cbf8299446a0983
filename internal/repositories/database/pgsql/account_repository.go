package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pfinbooks/bookkeeper_app/internal/apperrors"
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	portsrepo "github.com/pfinbooks/bookkeeper_app/internal/core/ports/repositories"
	"github.com/pfinbooks/bookkeeper_app/internal/models"
	"github.com/pfinbooks/bookkeeper_app/internal/utils/hierarchy"
)

const accountColumns = `account_id, user_id, code, name, account_type, normal_balance, subtype, description, parent_account_id, is_active, balance, created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepository = (*PgxAccountRepository)(nil)

// Helper to convert domain.Account to models.Account for DB storage
func toModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:       d.AccountID,
		UserID:          d.UserID,
		Code:            d.Code,
		Name:            d.Name,
		AccountType:     string(d.AccountType),
		NormalBalance:   string(d.NormalBalance),
		Subtype:         d.Subtype,
		Description:     d.Description,
		ParentAccountID: d.ParentAccountID,
		IsActive:        d.IsActive,
		Balance:         d.Balance,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

// Helper to convert models.Account from DB to domain.Account
func toDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:       m.AccountID,
		UserID:          m.UserID,
		Code:            m.Code,
		Name:            m.Name,
		AccountType:     domain.AccountType(m.AccountType),
		NormalBalance:   domain.NormalBalance(m.NormalBalance),
		Subtype:         m.Subtype,
		Description:     m.Description,
		ParentAccountID: m.ParentAccountID,
		IsActive:        m.IsActive,
		Balance:         m.Balance,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// scanAccount scans one account row in accountColumns order.
func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	var parentID sql.NullString
	err := row.Scan(
		&m.AccountID,
		&m.UserID,
		&m.Code,
		&m.Name,
		&m.AccountType,
		&m.NormalBalance,
		&m.Subtype,
		&m.Description,
		&parentID,
		&m.IsActive,
		&m.Balance,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.Account{}, err
	}
	m.ParentAccountID = parentID.String
	return m, nil
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := toModelAccount(account)

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.AccountID,
		m.UserID,
		m.Code,
		m.Name,
		m.AccountType,
		m.NormalBalance,
		m.Subtype,
		m.Description,
		nullString(m.ParentAccountID),
		m.IsActive,
		m.Balance,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// The only unique constraint besides the PK is (user_id, code)
			return fmt.Errorf("%w: code %s", apperrors.ErrDuplicateCode, m.Code)
		}
		return fmt.Errorf("failed to save account %s: %w", m.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID, scoped to the user.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 AND account_id = $2;`

	m, err := scanAccount(r.Pool.QueryRow(ctx, query, userID, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	acc := toDomainAccount(m)
	return &acc, nil
}

// FindAccountByCode retrieves an account by its user-facing code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, userID, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 AND code = $2;`

	m, err := scanAccount(r.Pool.QueryRow(ctx, query, userID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by code %s: %w", code, err)
	}
	acc := toDomainAccount(m)
	return &acc, nil
}

// FindAccountsByIDs retrieves multiple accounts keyed by id. Missing ids are
// simply absent from the map; the caller decides whether that is an error.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, userID string, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 AND account_id = ANY($2);`
	rows, err := r.Pool.Query(ctx, query, userID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by ids: %w", err)
	}
	defer rows.Close()

	result := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		result[m.AccountID] = toDomainAccount(m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read account rows: %w", err)
	}
	return result, nil
}

// ListAccounts retrieves a filtered page of accounts ordered by code.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, userID string, filter portsrepo.ListAccountsFilter, limit, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.AccountType != nil {
		args = append(args, string(*filter.AccountType))
		query += fmt.Sprintf(" AND account_type = $%d", len(args))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		query += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (code ILIKE $%d OR name ILIKE $%d OR description ILIKE $%d)", n, n, n)
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY code LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, toDomainAccount(m))
	}
	return accounts, rows.Err()
}

// ListAllAccounts retrieves every account of the user ordered by code.
func (r *PgxAccountRepository) ListAllAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY code;`

	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, toDomainAccount(m))
	}
	return accounts, rows.Err()
}

// SummarizeAccountsByType aggregates count and balance per account type.
func (r *PgxAccountRepository) SummarizeAccountsByType(ctx context.Context, userID string) ([]domain.AccountTypeSummary, error) {
	query := `
		SELECT account_type, COUNT(*), COALESCE(SUM(balance), 0)
		FROM accounts
		WHERE user_id = $1
		GROUP BY account_type
		ORDER BY account_type;
	`
	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize accounts: %w", err)
	}
	defer rows.Close()

	var summaries []domain.AccountTypeSummary
	for rows.Next() {
		var s domain.AccountTypeSummary
		if err := rows.Scan(&s.AccountType, &s.Count, &s.TotalBalance); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// HasChildAccounts reports whether any account names the given one as parent.
func (r *PgxAccountRepository) HasChildAccounts(ctx context.Context, userID, accountID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE user_id = $1 AND parent_account_id = $2);`
	var exists bool
	if err := r.Pool.QueryRow(ctx, query, userID, accountID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check child accounts: %w", err)
	}
	return exists, nil
}

// HasTransactionLines reports whether any transaction line references the account.
func (r *PgxAccountRepository) HasTransactionLines(ctx context.Context, accountID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM transaction_lines WHERE account_id = $1);`
	var exists bool
	if err := r.Pool.QueryRow(ctx, query, accountID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check transaction lines: %w", err)
	}
	return exists, nil
}

// UpdateAccount updates mutable account details.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	m := toModelAccount(account)
	query := `
		UPDATE accounts
		SET name = $3, subtype = $4, description = $5, is_active = $6, last_updated_at = $7, last_updated_by = $8
		WHERE user_id = $1 AND account_id = $2;
	`
	tag, err := r.Pool.Exec(ctx, query,
		m.UserID, m.AccountID, m.Name, m.Subtype, m.Description, m.IsActive, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", m.AccountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ReparentAccount moves an account under a new parent. The ancestor walk runs
// on the transaction's snapshot with the moved account's row locked, so a
// concurrent reparent of an ancestor cannot slip a cycle past the check.
func (r *PgxAccountRepository) ReparentAccount(ctx context.Context, userID, accountID, newParentID, updatedBy string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	// Lock the moved row first; concurrent moves of the same account serialize here.
	var currentParent sql.NullString
	err = tx.QueryRow(ctx,
		`SELECT parent_account_id FROM accounts WHERE user_id = $1 AND account_id = $2 FOR UPDATE;`,
		userID, accountID,
	).Scan(&currentParent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to lock account %s: %w", accountID, classifyPgError(err))
	}

	if newParentID != "" {
		if newParentID == accountID {
			return apperrors.ErrSelfParent
		}
		lookup := func(ctx context.Context, id string) (string, error) {
			var parent sql.NullString
			err := tx.QueryRow(ctx,
				`SELECT parent_account_id FROM accounts WHERE user_id = $1 AND account_id = $2;`,
				userID, id,
			).Scan(&parent)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return "", apperrors.ErrParentNotFound
				}
				return "", err
			}
			return parent.String, nil
		}
		cycle, err := hierarchy.WouldCreateCycle(ctx, lookup, accountID, newParentID)
		if err != nil {
			if errors.Is(err, hierarchy.ErrDepthExceeded) {
				return apperrors.ErrCycleDetected
			}
			return fmt.Errorf("failed to walk account ancestors: %w", classifyPgError(err))
		}
		if cycle {
			return apperrors.ErrCycleDetected
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET parent_account_id = $3, last_updated_at = $4, last_updated_by = $5 WHERE user_id = $1 AND account_id = $2;`,
		userID, accountID, nullString(newParentID), now, updatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to reparent account %s: %w", accountID, classifyPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return r.Commit(ctx, tx)
}

// DeleteAccount removes the account row.
func (r *PgxAccountRepository) DeleteAccount(ctx context.Context, userID, accountID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM accounts WHERE user_id = $1 AND account_id = $2;`, userID, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindAccountsByIDsForUpdate selects accounts and locks their rows within the
// given transaction. Ids are sorted by the caller's query (ORDER BY account_id)
// so two posting units always lock in the same order.
func (r *PgxAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1) ORDER BY account_id FOR UPDATE;`
	rows, err := tx.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", classifyPgError(err))
	}
	defer rows.Close()

	result := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked account row: %w", err)
		}
		result[m.AccountID] = toDomainAccount(m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read locked account rows: %w", classifyPgError(err))
	}

	for _, id := range accountIDs {
		if _, ok := result[id]; !ok {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
	}
	return result, nil
}

// ApplyBalanceDeltasInTx adds each signed delta to the matching account's
// balance within the given transaction. Callers must have locked the rows.
func (r *PgxAccountRepository) ApplyBalanceDeltasInTx(ctx context.Context, tx pgx.Tx, deltas map[string]decimal.Decimal, userID string, now time.Time) error {
	batch := &pgx.Batch{}
	query := `
		UPDATE accounts
		SET balance = balance + $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`
	for accountID, delta := range deltas {
		batch.Queue(query, accountID, delta, now, userID)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to apply balance deltas: %w", classifyPgError(err))
	}
	return nil
}
