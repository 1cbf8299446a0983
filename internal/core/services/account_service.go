package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pfinbooks/bookkeeper_app/internal/apperrors"
	"github.com/pfinbooks/bookkeeper_app/internal/core/domain"
	portsrepo "github.com/pfinbooks/bookkeeper_app/internal/core/ports/repositories"
	portssvc "github.com/pfinbooks/bookkeeper_app/internal/core/ports/services"
	"github.com/pfinbooks/bookkeeper_app/internal/dto"
	"github.com/pfinbooks/bookkeeper_app/internal/middleware"
	"github.com/pfinbooks/bookkeeper_app/internal/utils/hierarchy"
)

const minAccountCodeLen = 4

// accountService owns the chart of accounts.
type accountService struct {
	accountRepo portsrepo.AccountRepository
}

// NewAccountService creates a new account service.
func NewAccountService(accountRepo portsrepo.AccountRepository) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// validateAccountCode enforces the code format: digits only, at least four of them.
func validateAccountCode(code string) error {
	if len(code) < minAccountCodeLen {
		return fmt.Errorf("%w: account code must be at least %d digits", apperrors.ErrValidation, minAccountCodeLen)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: account code must contain only digits", apperrors.ErrValidation)
		}
	}
	return nil
}

// CreateAccount validates and persists a new account. Validation completes
// before any write: a rejected request never leaves a partial row.
func (s *accountService) CreateAccount(ctx context.Context, userID string, req dto.CreateAccountRequest) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := validateAccountCode(req.Code); err != nil {
		return nil, err
	}

	existing, err := s.accountRepo.FindAccountByCode(ctx, userID, req.Code)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check account code uniqueness: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: code %s", apperrors.ErrDuplicateCode, req.Code)
	}

	parentID := ""
	if req.ParentAccountID != nil && *req.ParentAccountID != "" {
		parent, err := s.accountRepo.FindAccountByID(ctx, userID, *req.ParentAccountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: account %s", apperrors.ErrParentNotFound, *req.ParentAccountID)
			}
			return nil, fmt.Errorf("failed to resolve parent account: %w", err)
		}
		parentID = parent.AccountID
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:       uuid.NewString(),
		UserID:          userID,
		Code:            req.Code,
		Name:            req.Name,
		AccountType:     req.AccountType,
		NormalBalance:   req.NormalBalance,
		Subtype:         req.Subtype,
		Description:     req.Description,
		ParentAccountID: parentID,
		IsActive:        true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("code", req.Code))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("code", account.Code))
	return &account, nil
}

// GetAccountByID retrieves one account scoped to the user.
func (s *accountService) GetAccountByID(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	return account, nil
}

// GetAccountsByIDs retrieves a batch of accounts scoped to the user.
func (s *accountService) GetAccountsByIDs(ctx context.Context, userID string, accountIDs []string) (map[string]domain.Account, error) {
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, userID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	return accounts, nil
}

// ListAccounts retrieves a filtered page of the user's accounts.
func (s *accountService) ListAccounts(ctx context.Context, userID string, params dto.ListAccountsParams) ([]domain.Account, error) {
	filter := portsrepo.ListAccountsFilter{
		AccountType: params.Type,
		IsActive:    params.IsActive,
		Search:      params.Search,
	}
	accounts, err := s.accountRepo.ListAccounts(ctx, userID, filter, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount applies partial updates to mutable account fields. The
// account's type and normal balance are immutable once created.
func (s *accountService) UpdateAccount(ctx context.Context, userID, accountID string, req dto.UpdateAccountRequest) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	updated := false
	if req.Name != nil {
		account.Name = *req.Name
		updated = true
	}
	if req.Subtype != nil {
		account.Subtype = *req.Subtype
		updated = true
	}
	if req.Description != nil {
		account.Description = *req.Description
		updated = true
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
		updated = true
	}
	if !updated {
		return account, nil
	}

	account.LastUpdatedAt = time.Now().UTC()
	account.LastUpdatedBy = userID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		return nil, fmt.Errorf("failed to update account %s: %w", accountID, err)
	}
	return account, nil
}

// ReparentAccount moves an account under a new parent. A nil or empty parent
// makes the account a root. Cycle prevention runs twice: a cheap read-path
// check here, and the authoritative walk inside the repository's transaction.
func (s *accountService) ReparentAccount(ctx context.Context, userID, accountID string, newParentID *string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	parentID := ""
	if newParentID != nil {
		parentID = *newParentID
	}

	if parentID != "" {
		if parentID == accountID {
			return nil, apperrors.ErrSelfParent
		}
		if _, err := s.accountRepo.FindAccountByID(ctx, userID, parentID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: account %s", apperrors.ErrParentNotFound, parentID)
			}
			return nil, err
		}

		lookup := func(ctx context.Context, id string) (string, error) {
			acc, err := s.accountRepo.FindAccountByID(ctx, userID, id)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return "", nil // dangling edge terminates the walk
				}
				return "", err
			}
			return acc.ParentAccountID, nil
		}
		cycle, err := hierarchy.WouldCreateCycle(ctx, lookup, accountID, parentID)
		if err != nil {
			if errors.Is(err, hierarchy.ErrDepthExceeded) {
				return nil, apperrors.ErrCycleDetected
			}
			return nil, fmt.Errorf("failed to walk account ancestors: %w", err)
		}
		if cycle {
			return nil, apperrors.ErrCycleDetected
		}
	}

	now := time.Now().UTC()
	if err := s.accountRepo.ReparentAccount(ctx, userID, accountID, parentID, userID, now); err != nil {
		logger.Warn("Reparent rejected", slog.String("account_id", accountID), slog.String("error", err.Error()))
		return nil, err
	}

	account.ParentAccountID = parentID
	account.LastUpdatedAt = now
	account.LastUpdatedBy = userID
	logger.Info("Account reparented", slog.String("account_id", accountID), slog.String("new_parent_id", parentID))
	return account, nil
}

// DeleteAccount removes an account that has no children and no postings.
func (s *accountService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	if _, err := s.accountRepo.FindAccountByID(ctx, userID, accountID); err != nil {
		return err
	}

	hasChildren, err := s.accountRepo.HasChildAccounts(ctx, userID, accountID)
	if err != nil {
		return fmt.Errorf("failed to check child accounts: %w", err)
	}
	if hasChildren {
		return fmt.Errorf("%w: account %s", apperrors.ErrHasChildren, accountID)
	}

	hasLines, err := s.accountRepo.HasTransactionLines(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to check transaction lines: %w", err)
	}
	if hasLines {
		return fmt.Errorf("%w: account %s", apperrors.ErrHasTransactions, accountID)
	}

	return s.accountRepo.DeleteAccount(ctx, userID, accountID)
}

// GetAccountTree returns the user's chart of accounts as a forest, children
// nested and ordered by code at every level. Traversal depth is bounded;
// malformed parent chains render without children instead of looping.
func (s *accountService) GetAccountTree(ctx context.Context, userID string) ([]dto.AccountTreeNode, error) {
	accounts, err := s.accountRepo.ListAllAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts for tree: %w", err)
	}

	byID := make(map[string]domain.Account, len(accounts))
	nodes := make([]hierarchy.Node, len(accounts))
	for i, acc := range accounts {
		byID[acc.AccountID] = acc
		nodes[i] = hierarchy.Node{ID: acc.AccountID, ParentID: acc.ParentAccountID}
	}
	children := hierarchy.ChildIndex(nodes)

	var build func(id string, depth int) dto.AccountTreeNode
	build = func(id string, depth int) dto.AccountTreeNode {
		acc := byID[id]
		node := dto.AccountTreeNode{
			AccountID:   acc.AccountID,
			Code:        acc.Code,
			Name:        acc.Name,
			AccountType: acc.AccountType,
			Balance:     acc.Balance,
			IsActive:    acc.IsActive,
			Children:    []dto.AccountTreeNode{},
		}
		if depth >= hierarchy.MaxDepth {
			return node // fail closed on malformed data
		}
		for _, childID := range children[id] {
			node.Children = append(node.Children, build(childID, depth+1))
		}
		sort.Slice(node.Children, func(i, j int) bool { return node.Children[i].Code < node.Children[j].Code })
		return node
	}

	roots := make([]dto.AccountTreeNode, 0, len(children[""]))
	for _, rootID := range children[""] {
		roots = append(roots, build(rootID, 0))
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].Code < roots[j].Code })
	return roots, nil
}

// GetAccountSummary aggregates account count and balance per type.
func (s *accountService) GetAccountSummary(ctx context.Context, userID string) (*dto.AccountSummaryResponse, error) {
	summaries, err := s.accountRepo.SummarizeAccountsByType(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize accounts: %w", err)
	}

	resp := &dto.AccountSummaryResponse{ByType: make(map[domain.AccountType]dto.TypeTotals, len(summaries))}
	for _, s := range summaries {
		resp.TotalAccounts += s.Count
		resp.ByType[s.AccountType] = dto.TypeTotals{Count: s.Count, TotalBalance: s.TotalBalance}
	}
	return resp, nil
}
