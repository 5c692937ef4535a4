package services

import (
	portsrepo "github.com/kasapahq/vendorpay/internal/core/ports/repositories"
	portssvc "github.com/kasapahq/vendorpay/internal/core/ports/services"
	"github.com/kasapahq/vendorpay/internal/utils/ratecache"
)

// Container holds all the services and manages their dependencies
type Container struct {
	Finalization portssvc.FinalizationSvcFacade
	Undo         portssvc.UndoSvcFacade
	Rate         portssvc.RateSvcFacade
	Ledger       portssvc.LedgerSvcFacade
	User         portssvc.UserSvcFacade
}

// NewContainer creates a new service container with properly initialized
// dependencies. The rate cache is shared between the rate service and the
// admin invalidation surface.
func NewContainer(repos *portsrepo.RepositoryProvider, cache *ratecache.Cache, taxCfg TaxConfig, undoRetention int) *Container {
	container := &Container{}

	container.Rate = NewRateService(repos.RateRepo, cache)
	container.Undo = NewUndoService(
		repos.UndoRepo,
		repos.BudgetRepo,
		repos.BankRepo,
		repos.MasterLogRepo,
		repos.PaymentRepo,
		undoRetention,
	)
	container.Finalization = NewFinalizationService(repos, container.Rate, container.Undo, taxCfg)
	container.Ledger = NewLedgerService(repos.BudgetRepo, repos.BankRepo)
	container.User = NewUserService(repos.UserRepo)

	return container
}
