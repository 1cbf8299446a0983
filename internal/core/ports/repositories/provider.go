package repositories

// RepositoryProvider bundles every repository the services need.
type RepositoryProvider struct {
	AccountRepo     AccountRepository
	CategoryRepo    CategoryRepository
	TransactionRepo TransactionRepository
	RecurringRepo   RecurringRepository
	BudgetRepo      BudgetRepository
	UserRepo        UserRepository
}
