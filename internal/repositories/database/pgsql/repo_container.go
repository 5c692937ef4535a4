package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/kasapahq/vendorpay/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	paymentRepo := newPgxPaymentRepository(dbPool)
	budgetRepo := newPgxBudgetRepository(dbPool)
	bankRepo := newPgxBankRepository(dbPool)
	masterLogRepo := newPgxMasterLogRepository(dbPool)
	undoRepo := newPgxUndoRepository(dbPool)
	rateRepo := newPgxRateRepository(dbPool)
	userRepo := newPgxUserRepository(dbPool)
	activityRepo := newPgxActivityRepository(dbPool)

	return portsrepo.RepositoryProvider{
		PaymentRepo:   paymentRepo,
		BudgetRepo:    budgetRepo,
		BankRepo:      bankRepo,
		MasterLogRepo: masterLogRepo,
		UndoRepo:      undoRepo,
		RateRepo:      rateRepo,
		UserRepo:      userRepo,
		ActivityRepo:  activityRepo,
	}
}
