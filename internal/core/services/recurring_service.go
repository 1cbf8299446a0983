package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pfinbooks/bookkeeper_app/internal/apperrors"
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	portsrepo "github.com/pfinbooks/bookkeeper_app/internal/core/ports/repositories"
	portssvc "github.com/pfinbooks/bookkeeper_app/internal/core/ports/services"
	"github.com/pfinbooks/bookkeeper_app/internal/dto"
	"github.com/pfinbooks/bookkeeper_app/internal/middleware"
	"github.com/pfinbooks/bookkeeper_app/internal/utils/accounting"
)

// maxCatchUpPerTick bounds how many occurrences one template can generate in a
// single tick, so a template that sat dormant for years cannot stall the batch.
const maxCatchUpPerTick = 36

// recurringService owns recurring templates and the generation tick.
type recurringService struct {
	recurringRepo portsrepo.RecurringRepository
	accountRepo   portsrepo.AccountRepository
	categoryRepo  portsrepo.CategoryRepository
	txnSvc        portssvc.TransactionSvcFacade
	now           func() time.Time
}

// NewRecurringService creates a new recurring service. now is the clock used
// by Tick; pass time.Now for production.
func NewRecurringService(
	recurringRepo portsrepo.RecurringRepository,
	accountRepo portsrepo.AccountRepository,
	categoryRepo portsrepo.CategoryRepository,
	txnSvc portssvc.TransactionSvcFacade,
	now func() time.Time,
) portssvc.RecurringSvcFacade {
	return &recurringService{
		recurringRepo: recurringRepo,
		accountRepo:   accountRepo,
		categoryRepo:  categoryRepo,
		txnSvc:        txnSvc,
		now:           now,
	}
}

var _ portssvc.RecurringSvcFacade = (*recurringService)(nil)

// asTransactionLines views template lines as transaction lines so the ledger's
// amount and balance checks apply to templates unchanged.
func asTransactionLines(lines []domain.RecurringLine) []domain.TransactionLine {
	out := make([]domain.TransactionLine, len(lines))
	for i, l := range lines {
		out[i] = domain.TransactionLine{
			AccountID: l.AccountID,
			LineType:  l.LineType,
			Amount:    l.Amount,
		}
	}
	return out
}

// validateTemplateLines runs the ledger's validation pipeline against template
// lines: positive fixed-point amounts, exact balance, live account references.
func (s *recurringService) validateTemplateLines(ctx context.Context, userID string, lines []domain.RecurringLine) error {
	asTxn := asTransactionLines(lines)
	if err := accounting.ValidateLineAmounts(asTxn); err != nil {
		return err
	}
	if err := accounting.CheckBalanced(asTxn); err != nil {
		return err
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
		return fmt.Errorf("failed to resolve template accounts: %w", err)
	}
	for _, id := range accountIDs {
		account, ok := accounts[id]
		if !ok {
			return fmt.Errorf("%w: account %s", apperrors.ErrInvalidAccountRef, id)
		}
		if !account.IsActive {
			return fmt.Errorf("%w: account %s (%s)", apperrors.ErrInactiveAccount, account.Code, account.Name)
		}
	}
	return nil
}

// CreateRecurring validates and persists a new template. The first due date is
// the start date itself.
func (s *recurringService) CreateRecurring(ctx context.Context, userID string, req dto.CreateRecurringRequest) (*domain.Recurring, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", apperrors.ErrValidation)
	}
	if req.CategoryID != "" {
		if _, err := s.categoryRepo.FindCategoryByID(ctx, userID, req.CategoryID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: category %s", apperrors.ErrValidation, req.CategoryID)
			}
			return nil, fmt.Errorf("failed to resolve category: %w", err)
		}
	}

	now := time.Now().UTC()
	recurringID := uuid.NewString()
	lines := make([]domain.RecurringLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = domain.RecurringLine{
			LineID:      uuid.NewString(),
			RecurringID: recurringID,
			AccountID:   l.AccountID,
			LineType:    l.LineType,
			Amount:      l.Amount,
			Description: l.Description,
		}
	}
	if err := s.validateTemplateLines(ctx, userID, lines); err != nil {
		return nil, err
	}

	recurring := domain.Recurring{
		RecurringID: recurringID,
		UserID:      userID,
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Frequency:   req.Frequency,
		Interval:    req.Interval,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		NextDate:    req.StartDate,
		CategoryID:  req.CategoryID,
		IsActive:    true,
		Lines:       lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.recurringRepo.SaveRecurring(ctx, recurring, lines); err != nil {
		logger.Error("Failed to save recurring template", slog.String("error", err.Error()), slog.String("name", req.Name))
		return nil, fmt.Errorf("failed to save recurring template: %w", err)
	}
	logger.Info("Recurring template created", slog.String("recurring_id", recurringID), slog.String("name", req.Name))
	return &recurring, nil
}

// GetRecurringByID retrieves one template with its lines.
func (s *recurringService) GetRecurringByID(ctx context.Context, userID, recurringID string) (*domain.Recurring, error) {
	recurring, err := s.recurringRepo.FindRecurringByID(ctx, userID, recurringID)
	if err != nil {
		return nil, fmt.Errorf("failed to find recurring template %s: %w", recurringID, err)
	}
	return recurring, nil
}

// ListRecurring retrieves the user's templates ordered by next run date.
func (s *recurringService) ListRecurring(ctx context.Context, userID string, params dto.ListRecurringParams) ([]domain.Recurring, error) {
	templates, err := s.recurringRepo.ListRecurring(ctx, userID, params.OnlyActive, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring templates: %w", err)
	}
	return templates, nil
}

// UpdateRecurring applies partial updates. Replacing the lines re-runs the
// full template validation; changing the frequency or interval reshapes the
// schedule from the current next date onward, never retroactively.
func (s *recurringService) UpdateRecurring(ctx context.Context, userID, recurringID string, req dto.UpdateRecurringRequest) (*domain.Recurring, error) {
	recurring, err := s.recurringRepo.FindRecurringByID(ctx, userID, recurringID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		recurring.Name = *req.Name
	}
	if req.Description != nil {
		recurring.Description = *req.Description
	}
	if req.Frequency != nil {
		recurring.Frequency = *req.Frequency
	}
	if req.Interval != nil {
		recurring.Interval = *req.Interval
	}
	if req.EndDate != nil {
		if req.EndDate.Before(recurring.StartDate) {
			return nil, fmt.Errorf("%w: end date precedes start date", apperrors.ErrValidation)
		}
		recurring.EndDate = req.EndDate
	}
	if req.CategoryID != nil {
		if *req.CategoryID != "" {
			if _, err := s.categoryRepo.FindCategoryByID(ctx, userID, *req.CategoryID); err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return nil, fmt.Errorf("%w: category %s", apperrors.ErrValidation, *req.CategoryID)
				}
				return nil, fmt.Errorf("failed to resolve category: %w", err)
			}
		}
		recurring.CategoryID = *req.CategoryID
	}
	if req.IsActive != nil {
		recurring.IsActive = *req.IsActive
	}

	var newLines []domain.RecurringLine
	if req.Lines != nil {
		newLines = make([]domain.RecurringLine, len(req.Lines))
		for i, l := range req.Lines {
			newLines[i] = domain.RecurringLine{
				LineID:      uuid.NewString(),
				RecurringID: recurringID,
				AccountID:   l.AccountID,
				LineType:    l.LineType,
				Amount:      l.Amount,
				Description: l.Description,
			}
		}
		if err := s.validateTemplateLines(ctx, userID, newLines); err != nil {
			return nil, err
		}
		recurring.Lines = newLines
	}

	recurring.LastUpdatedAt = time.Now().UTC()
	recurring.LastUpdatedBy = userID

	if err := s.recurringRepo.UpdateRecurring(ctx, *recurring, newLines); err != nil {
		return nil, fmt.Errorf("failed to update recurring template %s: %w", recurringID, err)
	}
	return recurring, nil
}

// DeleteRecurring removes a template. Transactions it generated keep their
// rows and their recurring reference.
func (s *recurringService) DeleteRecurring(ctx context.Context, userID, recurringID string) error {
	if _, err := s.recurringRepo.FindRecurringByID(ctx, userID, recurringID); err != nil {
		return err
	}
	return s.recurringRepo.DeleteRecurring(ctx, userID, recurringID)
}

// Tick materializes every due template as of the service clock, restricted to
// one user's templates when userID is non-empty. Each due occurrence posts one
// transaction and advances the schedule atomically; a template that fails
// validation or loses its schedule race is recorded in the result and skipped,
// never aborting the batch. Running Tick twice for the same instant generates
// nothing extra.
func (s *recurringService) Tick(ctx context.Context, userID string) (*dto.TickResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	asOf := s.now().UTC()

	due, err := s.recurringRepo.FindDueRecurring(ctx, userID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to find due recurring templates: %w", err)
	}

	result := &dto.TickResult{
		AsOf:                  asOf,
		GeneratedTransactions: []string{},
		Failures:              []dto.TickFailure{},
	}

	for _, template := range due {
		generated, err := s.generateDue(ctx, template, asOf)
		result.GeneratedTransactions = append(result.GeneratedTransactions, generated...)
		if err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				// Another generator advanced this template first; its work counts.
				logger.Info("Recurring template advanced concurrently, skipping",
					slog.String("recurring_id", template.RecurringID))
				continue
			}
			logger.Warn("Recurring template skipped",
				slog.String("recurring_id", template.RecurringID),
				slog.String("name", template.Name),
				slog.String("reason", err.Error()))
			result.Failures = append(result.Failures, dto.TickFailure{
				RecurringID: template.RecurringID,
				Name:        template.Name,
				Reason:      err.Error(),
			})
		}
	}

	logger.Info("Recurring tick finished",
		slog.Time("as_of", asOf),
		slog.Int("due", len(due)),
		slog.Int("generated", len(result.GeneratedTransactions)),
		slog.Int("failures", len(result.Failures)))
	return result, nil
}

// generateDue posts one transaction per due occurrence of a single template,
// walking the schedule forward until the next date passes asOf, the template
// deactivates, or the per-tick catch-up bound is hit. It returns the ids
// generated so far even when a later occurrence fails.
func (s *recurringService) generateDue(ctx context.Context, template domain.Recurring, asOf time.Time) ([]string, error) {
	var generated []string

	cur := template.NextDate
	active := template.IsActive
	for i := 0; active && !cur.After(asOf); i++ {
		if i >= maxCatchUpPerTick {
			return generated, fmt.Errorf("%w: catch-up bound of %d occurrences reached", apperrors.ErrConflict, maxCatchUpPerTick)
		}

		next := domain.NextOccurrence(cur, template.Frequency, template.Interval)
		nextActive := true
		if template.EndDate != nil && next.After(*template.EndDate) {
			nextActive = false
		}

		req := dto.CreateTransactionRequest{
			Date:        cur,
			Type:        template.Type,
			Description: template.Description,
			Reference:   template.Name,
			CategoryID:  template.CategoryID,
			RecurringID: template.RecurringID,
			Lines:       make([]dto.CreateTransactionLineRequest, len(template.Lines)),
		}
		for j, l := range template.Lines {
			req.Lines[j] = dto.CreateTransactionLineRequest{
				AccountID:   l.AccountID,
				LineType:    l.LineType,
				Amount:      l.Amount,
				Description: l.Description,
			}
		}

		advance := domain.ScheduleAdvance{
			RecurringID:  template.RecurringID,
			FromNextDate: cur,
			LastDate:     cur,
			NextDate:     next,
			IsActive:     nextActive,
		}

		txn, err := s.txnSvc.PostGenerated(ctx, template.UserID, req, advance)
		if err != nil {
			return generated, err
		}
		generated = append(generated, txn.TransactionID)

		cur = next
		active = nextActive
	}
	return generated, nil
}
