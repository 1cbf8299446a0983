package services

import (
	"context"

	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/pfinbooks/bookkeeper_app/internal/dto"
)

// RecurringSvcFacade owns recurring templates and the generation tick that
// projects due templates into posted transactions.
type RecurringSvcFacade interface {
	CreateRecurring(ctx context.Context, userID string, req dto.CreateRecurringRequest) (*domain.Recurring, error)
	GetRecurringByID(ctx context.Context, userID, recurringID string) (*domain.Recurring, error)
	ListRecurring(ctx context.Context, userID string, params dto.ListRecurringParams) ([]domain.Recurring, error)
	UpdateRecurring(ctx context.Context, userID, recurringID string, req dto.UpdateRecurringRequest) (*domain.Recurring, error)
	DeleteRecurring(ctx context.Context, userID, recurringID string) error

	// Tick materializes every due template as of the service clock. An empty
	// userID ticks all users (background generator); a non-empty userID
	// restricts the run to that user's templates (on-demand endpoint).
	// Individual template failures are recorded in the result and never
	// abort the batch.
	Tick(ctx context.Context, userID string) (*dto.TickResult, error)
}
