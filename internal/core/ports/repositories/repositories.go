package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	PaymentRepo   PaymentRepositoryFacade
	BudgetRepo    BudgetRepositoryFacade
	BankRepo      BankRepositoryFacade
	MasterLogRepo MasterLogRepositoryFacade
	UndoRepo      UndoRepositoryFacade
	RateRepo      RateRepositoryFacade
	UserRepo      UserRepositoryFacade
	ActivityRepo  ActivityWriter
}
