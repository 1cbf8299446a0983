package services

// ServiceContainer bundles every service facade the handlers need.
type ServiceContainer struct {
	Account     AccountSvcFacade
	Category    CategorySvcFacade
	Transaction TransactionSvcFacade
	Recurring   RecurringSvcFacade
	Budget      BudgetSvcFacade
	User        UserSvcFacade
}
