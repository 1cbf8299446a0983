package repositories

import (
	"context"
	"time"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
)

// RecurringRepository persists recurring transaction templates and their lines.
type RecurringRepository interface {
	// SaveRecurring persists a new template with its lines.
	SaveRecurring(ctx context.Context, recurring domain.Recurring, lines []domain.RecurringLine) error

	// FindRecurringByID retrieves a template with its lines populated.
	FindRecurringByID(ctx context.Context, userID, recurringID string) (*domain.Recurring, error)

	// ListRecurring retrieves the user's templates ordered by next run date.
	ListRecurring(ctx context.Context, userID string, onlyActive bool, limit, offset int) ([]domain.Recurring, error)

	// FindDueRecurring retrieves active templates whose next_date is on or
	// before asOf, lines populated, ordered by next_date. An empty userID
	// scans every user's templates; otherwise only that user's.
	FindDueRecurring(ctx context.Context, userID string, asOf time.Time) ([]domain.Recurring, error)

	// UpdateRecurring updates template fields and replaces its lines when
	// lines is non-nil.
	UpdateRecurring(ctx context.Context, recurring domain.Recurring, lines []domain.RecurringLine) error

	// DeleteRecurring removes the template and its lines.
	DeleteRecurring(ctx context.Context, userID, recurringID string) error
}
