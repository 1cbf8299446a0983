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

	"github.com/pfinbooks/bookkeeper_app/internal/apperrors"
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	portsrepo "github.com/pfinbooks/bookkeeper_app/internal/core/ports/repositories"
	"github.com/pfinbooks/bookkeeper_app/internal/models"
	"github.com/pfinbooks/bookkeeper_app/internal/utils/hierarchy"
)

const categoryColumns = `category_id, user_id, name, category_type, icon, color, parent_category_id, created_at, created_by, last_updated_at, last_updated_by`

type PgxCategoryRepository struct {
	BaseRepository
}

// newPgxCategoryRepository creates a new repository for category data.
func newPgxCategoryRepository(pool *pgxpool.Pool) portsrepo.CategoryRepository {
	return &PgxCategoryRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CategoryRepository = (*PgxCategoryRepository)(nil)

func toModelCategory(d domain.Category) models.Category {
	return models.Category{
		CategoryID:       d.CategoryID,
		UserID:           d.UserID,
		Name:             d.Name,
		CategoryType:     string(d.CategoryType),
		Icon:             d.Icon,
		Color:            d.Color,
		ParentCategoryID: d.ParentCategoryID,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainCategory(m models.Category) domain.Category {
	return domain.Category{
		CategoryID:       m.CategoryID,
		UserID:           m.UserID,
		Name:             m.Name,
		CategoryType:     domain.CategoryType(m.CategoryType),
		Icon:             m.Icon,
		Color:            m.Color,
		ParentCategoryID: m.ParentCategoryID,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

func scanCategory(row pgx.Row) (models.Category, error) {
	var m models.Category
	var parentID sql.NullString
	err := row.Scan(
		&m.CategoryID,
		&m.UserID,
		&m.Name,
		&m.CategoryType,
		&m.Icon,
		&m.Color,
		&parentID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.Category{}, err
	}
	m.ParentCategoryID = parentID.String
	return m, nil
}

// SaveCategory inserts a new category.
func (r *PgxCategoryRepository) SaveCategory(ctx context.Context, category domain.Category) error {
	m := toModelCategory(category)

	query := `
		INSERT INTO categories (` + categoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.CategoryID,
		m.UserID,
		m.Name,
		m.CategoryType,
		m.Icon,
		m.Color,
		nullString(m.ParentCategoryID),
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateName, m.Name)
		}
		return fmt.Errorf("failed to save category %s: %w", m.CategoryID, err)
	}
	return nil
}

// FindCategoryByID retrieves a category by id for the user.
func (r *PgxCategoryRepository) FindCategoryByID(ctx context.Context, userID, categoryID string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 AND category_id = $2;`

	m, err := scanCategory(r.Pool.QueryRow(ctx, query, userID, categoryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find category %s: %w", categoryID, err)
	}
	cat := toDomainCategory(m)
	return &cat, nil
}

// FindCategoryByName retrieves a category by name under the given parent.
func (r *PgxCategoryRepository) FindCategoryByName(ctx context.Context, userID, parentID, name string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1 AND name = $2 AND parent_category_id IS NOT DISTINCT FROM $3;`

	m, err := scanCategory(r.Pool.QueryRow(ctx, query, userID, name, nullString(parentID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find category by name %s: %w", name, err)
	}
	cat := toDomainCategory(m)
	return &cat, nil
}

// ListCategories retrieves the user's categories ordered by name.
func (r *PgxCategoryRepository) ListCategories(ctx context.Context, userID string, categoryType *domain.CategoryType) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1`
	args := []interface{}{userID}

	if categoryType != nil {
		args = append(args, string(*categoryType))
		query += fmt.Sprintf(" AND category_type = $%d", len(args))
	}
	query += " ORDER BY name;"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		m, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, toDomainCategory(m))
	}
	return categories, rows.Err()
}

// UpdateCategory updates mutable fields (name, icon, color).
func (r *PgxCategoryRepository) UpdateCategory(ctx context.Context, category domain.Category) error {
	m := toModelCategory(category)
	query := `
		UPDATE categories
		SET name = $3, icon = $4, color = $5, last_updated_at = $6, last_updated_by = $7
		WHERE user_id = $1 AND category_id = $2;
	`
	tag, err := r.Pool.Exec(ctx, query,
		m.UserID, m.CategoryID, m.Name, m.Icon, m.Color, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateName, m.Name)
		}
		return fmt.Errorf("failed to update category %s: %w", m.CategoryID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ReparentCategory moves a category under a new parent. Like account
// reparenting, the ancestor walk runs on the transaction's snapshot with the
// moved row locked.
func (r *PgxCategoryRepository) ReparentCategory(ctx context.Context, userID, categoryID, newParentID, updatedBy string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	var currentParent sql.NullString
	err = tx.QueryRow(ctx,
		`SELECT parent_category_id FROM categories WHERE user_id = $1 AND category_id = $2 FOR UPDATE;`,
		userID, categoryID,
	).Scan(&currentParent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to lock category %s: %w", categoryID, classifyPgError(err))
	}

	if newParentID != "" {
		if newParentID == categoryID {
			return apperrors.ErrSelfParent
		}
		lookup := func(ctx context.Context, id string) (string, error) {
			var parent sql.NullString
			err := tx.QueryRow(ctx,
				`SELECT parent_category_id FROM categories WHERE user_id = $1 AND category_id = $2;`,
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
		cycle, err := hierarchy.WouldCreateCycle(ctx, lookup, categoryID, newParentID)
		if err != nil {
			if errors.Is(err, hierarchy.ErrDepthExceeded) {
				return apperrors.ErrCycleDetected
			}
			return fmt.Errorf("failed to walk category ancestors: %w", classifyPgError(err))
		}
		if cycle {
			return apperrors.ErrCycleDetected
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE categories SET parent_category_id = $3, last_updated_at = $4, last_updated_by = $5 WHERE user_id = $1 AND category_id = $2;`,
		userID, categoryID, nullString(newParentID), now, updatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrDuplicateName
		}
		return fmt.Errorf("failed to reparent category %s: %w", categoryID, classifyPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return r.Commit(ctx, tx)
}

// HasChildCategories reports whether any category names the given one as parent.
func (r *PgxCategoryRepository) HasChildCategories(ctx context.Context, userID, categoryID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM categories WHERE user_id = $1 AND parent_category_id = $2);`
	var exists bool
	if err := r.Pool.QueryRow(ctx, query, userID, categoryID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check child categories: %w", err)
	}
	return exists, nil
}

// DeleteCategory removes the category row. Transactions that referenced it
// keep their rows; the FK clears the reference via ON DELETE SET NULL.
func (r *PgxCategoryRepository) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM categories WHERE user_id = $1 AND category_id = $2;`, userID, categoryID)
	if err != nil {
		return fmt.Errorf("failed to delete category %s: %w", categoryID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
