package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pfinbooks/bookkeeper_app/internal/apperrors"
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	"github.com/pfinbooks/bookkeeper_app/internal/middleware"
)

type seedAccount struct {
	code       string
	name       string
	accType    domain.AccountType
	subtype    string
	parentCode string
}

// defaultChart is the starter chart of accounts created for every new user.
// Parent entries precede their children so a single ordered pass resolves
// every parent code.
var defaultChart = []seedAccount{
	{code: "1000", name: "Assets", accType: domain.Asset, subtype: "group"},
	{code: "1100", name: "Cash", accType: domain.Asset, subtype: "cash", parentCode: "1000"},
	{code: "1200", name: "Checking Account", accType: domain.Asset, subtype: "bank", parentCode: "1000"},
	{code: "1300", name: "Savings Account", accType: domain.Asset, subtype: "bank", parentCode: "1000"},
	{code: "1400", name: "Investments", accType: domain.Asset, subtype: "investment", parentCode: "1000"},

	{code: "2000", name: "Liabilities", accType: domain.Liability, subtype: "group"},
	{code: "2100", name: "Credit Card", accType: domain.Liability, subtype: "credit_card", parentCode: "2000"},
	{code: "2200", name: "Loans", accType: domain.Liability, subtype: "loan", parentCode: "2000"},

	{code: "3000", name: "Equity", accType: domain.Equity, subtype: "group"},
	{code: "3100", name: "Opening Balances", accType: domain.Equity, subtype: "opening", parentCode: "3000"},

	{code: "4000", name: "Income", accType: domain.Revenue, subtype: "group"},
	{code: "4100", name: "Salary", accType: domain.Revenue, subtype: "salary", parentCode: "4000"},
	{code: "4200", name: "Interest Income", accType: domain.Revenue, subtype: "interest", parentCode: "4000"},
	{code: "4300", name: "Other Income", accType: domain.Revenue, subtype: "other", parentCode: "4000"},

	{code: "5000", name: "Expenses", accType: domain.Expense, subtype: "group"},
	{code: "5100", name: "Housing", accType: domain.Expense, subtype: "housing", parentCode: "5000"},
	{code: "5200", name: "Groceries", accType: domain.Expense, subtype: "food", parentCode: "5000"},
	{code: "5300", name: "Transportation", accType: domain.Expense, subtype: "transport", parentCode: "5000"},
	{code: "5400", name: "Utilities", accType: domain.Expense, subtype: "utilities", parentCode: "5000"},
	{code: "5500", name: "Healthcare", accType: domain.Expense, subtype: "health", parentCode: "5000"},
	{code: "5600", name: "Entertainment", accType: domain.Expense, subtype: "leisure", parentCode: "5000"},
	{code: "5900", name: "Miscellaneous", accType: domain.Expense, subtype: "other", parentCode: "5000"},
}

// SeedDefaultAccounts creates the starter chart for a user. Codes that
// already exist are skipped, so re-running the seed is harmless.
func (s *accountService) SeedDefaultAccounts(ctx context.Context, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	idByCode := make(map[string]string, len(defaultChart))

	for _, seed := range defaultChart {
		existing, err := s.accountRepo.FindAccountByCode(ctx, userID, seed.code)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("failed to check seed account %s: %w", seed.code, err)
		}
		if existing != nil {
			idByCode[seed.code] = existing.AccountID
			continue
		}

		account := domain.Account{
			AccountID:       uuid.NewString(),
			UserID:          userID,
			Code:            seed.code,
			Name:            seed.name,
			AccountType:     seed.accType,
			NormalBalance:   domain.DefaultNormalBalance(seed.accType),
			Subtype:         seed.subtype,
			ParentAccountID: idByCode[seed.parentCode],
			IsActive:        true,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
			return fmt.Errorf("failed to seed account %s: %w", seed.code, err)
		}
		idByCode[seed.code] = account.AccountID
	}

	logger.Info("Default chart of accounts seeded")
	return nil
}
