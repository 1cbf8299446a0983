package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pfinbooks/bookkeeper_app/internal/apperrors"
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	portsrepo "github.com/pfinbooks/bookkeeper_app/internal/core/ports/repositories"
	"github.com/pfinbooks/bookkeeper_app/internal/models"
	"github.com/pfinbooks/bookkeeper_app/internal/utils/mapping"
)

const recurringColumns = `recurring_id, user_id, name, txn_type, description, frequency, recur_interval, start_date, end_date, next_date, last_date, category_id, is_active, created_at, created_by, last_updated_at, last_updated_by`

const recurringLineColumns = `line_id, recurring_id, account_id, line_type, amount, description`

type PgxRecurringRepository struct {
	BaseRepository
}

// newPgxRecurringRepository creates a new repository for recurring templates.
func newPgxRecurringRepository(pool *pgxpool.Pool) portsrepo.RecurringRepository {
	return &PgxRecurringRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RecurringRepository = (*PgxRecurringRepository)(nil)

func scanRecurring(row pgx.Row) (models.Recurring, error) {
	var m models.Recurring
	var categoryID sql.NullString
	var endDate, lastDate sql.NullTime
	err := row.Scan(
		&m.RecurringID,
		&m.UserID,
		&m.Name,
		&m.TxnType,
		&m.Description,
		&m.Frequency,
		&m.Interval,
		&m.StartDate,
		&endDate,
		&m.NextDate,
		&lastDate,
		&categoryID,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.Recurring{}, err
	}
	m.CategoryID = categoryID.String
	if endDate.Valid {
		t := endDate.Time
		m.EndDate = &t
	}
	if lastDate.Valid {
		t := lastDate.Time
		m.LastDate = &t
	}
	return m, nil
}

// insertLines batch-inserts template lines on the given transaction.
func insertRecurringLines(ctx context.Context, tx pgx.Tx, lines []domain.RecurringLine) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO recurring_lines (` + recurringLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	for _, line := range lines {
		ml := mapping.ToModelRecurringLine(line)
		batch.Queue(query, ml.LineID, ml.RecurringID, ml.AccountID, ml.LineType, ml.Amount, ml.Description)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert recurring lines: %w", classifyPgError(err))
	}
	return nil
}

// SaveRecurring persists a new template with its lines atomically.
func (r *PgxRecurringRepository) SaveRecurring(ctx context.Context, recurring domain.Recurring, lines []domain.RecurringLine) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelRecurring(recurring)
	query := `
		INSERT INTO recurring (` + recurringColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err = tx.Exec(ctx, query,
		m.RecurringID,
		m.UserID,
		m.Name,
		m.TxnType,
		m.Description,
		m.Frequency,
		m.Interval,
		m.StartDate,
		m.EndDate,
		m.NextDate,
		m.LastDate,
		nullString(m.CategoryID),
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save recurring template %s: %w", m.RecurringID, classifyPgError(err))
	}

	if err := insertRecurringLines(ctx, tx, lines); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// findLines retrieves a template's lines.
func (r *PgxRecurringRepository) findLines(ctx context.Context, recurringID string) ([]domain.RecurringLine, error) {
	query := `SELECT ` + recurringLineColumns + ` FROM recurring_lines WHERE recurring_id = $1 ORDER BY line_id;`
	rows, err := r.Pool.Query(ctx, query, recurringID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.RecurringLine
	for rows.Next() {
		var ml models.RecurringLine
		if err := rows.Scan(&ml.LineID, &ml.RecurringID, &ml.AccountID, &ml.LineType, &ml.Amount, &ml.Description); err != nil {
			return nil, fmt.Errorf("failed to scan recurring line: %w", err)
		}
		lines = append(lines, mapping.ToDomainRecurringLine(ml))
	}
	return lines, rows.Err()
}

// FindRecurringByID retrieves a template with its lines populated.
func (r *PgxRecurringRepository) FindRecurringByID(ctx context.Context, userID, recurringID string) (*domain.Recurring, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring WHERE user_id = $1 AND recurring_id = $2;`

	m, err := scanRecurring(r.Pool.QueryRow(ctx, query, userID, recurringID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find recurring template %s: %w", recurringID, err)
	}

	rec := mapping.ToDomainRecurring(m)
	lines, err := r.findLines(ctx, recurringID)
	if err != nil {
		return nil, err
	}
	rec.Lines = lines
	return &rec, nil
}

// ListRecurring retrieves the user's templates ordered by next run date.
func (r *PgxRecurringRepository) ListRecurring(ctx context.Context, userID string, onlyActive bool, limit, offset int) ([]domain.Recurring, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + recurringColumns + ` FROM recurring WHERE user_id = $1`
	args := []interface{}{userID}
	if onlyActive {
		query += " AND is_active = TRUE"
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY next_date, name LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring templates: %w", err)
	}
	defer rows.Close()

	var templates []domain.Recurring
	for rows.Next() {
		m, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring row: %w", err)
		}
		templates = append(templates, mapping.ToDomainRecurring(m))
	}
	return templates, rows.Err()
}

// FindDueRecurring retrieves active templates whose next_date is on or before
// asOf, lines populated, ordered by next_date. An empty userID scans every
// user's templates.
func (r *PgxRecurringRepository) FindDueRecurring(ctx context.Context, userID string, asOf time.Time) ([]domain.Recurring, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring WHERE is_active = TRUE AND next_date <= $1`
	args := []interface{}{asOf}
	if userID != "" {
		args = append(args, userID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	query += " ORDER BY next_date, recurring_id;"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find due recurring templates: %w", err)
	}
	defer rows.Close()

	var templates []domain.Recurring
	for rows.Next() {
		m, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring row: %w", err)
		}
		templates = append(templates, mapping.ToDomainRecurring(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recurring rows: %w", err)
	}

	for i := range templates {
		lines, err := r.findLines(ctx, templates[i].RecurringID)
		if err != nil {
			return nil, err
		}
		templates[i].Lines = lines
	}
	return templates, nil
}

// UpdateRecurring updates template fields and replaces its lines when lines is
// non-nil, atomically.
func (r *PgxRecurringRepository) UpdateRecurring(ctx context.Context, recurring domain.Recurring, lines []domain.RecurringLine) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelRecurring(recurring)
	query := `
		UPDATE recurring
		SET name = $3, description = $4, frequency = $5, recur_interval = $6, end_date = $7,
		    next_date = $8, last_date = $9, category_id = $10, is_active = $11,
		    last_updated_at = $12, last_updated_by = $13
		WHERE user_id = $1 AND recurring_id = $2;
	`
	tag, err := tx.Exec(ctx, query,
		m.UserID,
		m.RecurringID,
		m.Name,
		m.Description,
		m.Frequency,
		m.Interval,
		m.EndDate,
		m.NextDate,
		m.LastDate,
		nullString(m.CategoryID),
		m.IsActive,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update recurring template %s: %w", m.RecurringID, classifyPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if lines != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM recurring_lines WHERE recurring_id = $1;`, m.RecurringID); err != nil {
			return fmt.Errorf("failed to replace recurring lines: %w", classifyPgError(err))
		}
		if err := insertRecurringLines(ctx, tx, lines); err != nil {
			return err
		}
	}
	return r.Commit(ctx, tx)
}

// DeleteRecurring removes the template; its lines go with it via FK cascade.
func (r *PgxRecurringRepository) DeleteRecurring(ctx context.Context, userID, recurringID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM recurring WHERE user_id = $1 AND recurring_id = $2;`, userID, recurringID)
	if err != nil {
		return fmt.Errorf("failed to delete recurring template %s: %w", recurringID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
