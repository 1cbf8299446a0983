package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/pfinbooks/bookkeeper_app/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every pgsql repository over one pool. The
// transaction repository borrows the account repository's balance primitives
// so posting units stay on a single storage transaction.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	categoryRepo := newPgxCategoryRepository(dbPool)
	transactionRepo := newPgxTransactionRepository(dbPool, accountRepo)
	recurringRepo := newPgxRecurringRepository(dbPool)
	budgetRepo := newPgxBudgetRepository(dbPool)
	userRepo := newPgxUserRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:     accountRepo,
		CategoryRepo:    categoryRepo,
		TransactionRepo: transactionRepo,
		RecurringRepo:   recurringRepo,
		BudgetRepo:      budgetRepo,
		UserRepo:        userRepo,
	}
}
