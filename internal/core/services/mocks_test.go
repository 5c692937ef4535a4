package services_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/kasapahq/vendorpay/internal/core/domain"
	portsrepo "github.com/kasapahq/vendorpay/internal/core/ports/repositories"
	portssvc "github.com/kasapahq/vendorpay/internal/core/ports/services"
)

// --- Mock PaymentRepository ---
type MockPaymentRepository struct {
	mock.Mock
}

var _ portsrepo.PaymentRepositoryFacade = (*MockPaymentRepository)(nil)

func (m *MockPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.StagedPayment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StagedPayment), args.Error(1)
}

func (m *MockPaymentRepository) FindPaymentsByIDs(ctx context.Context, paymentIDs []string) (map[string]domain.StagedPayment, error) {
	args := m.Called(ctx, paymentIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.StagedPayment), args.Error(1)
}

func (m *MockPaymentRepository) ApplySettlement(ctx context.Context, paymentID string, amountThisRun decimal.Decimal, batchID string, userID string) (*domain.StagedPayment, error) {
	args := m.Called(ctx, paymentID, amountThisRun, batchID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StagedPayment), args.Error(1)
}

func (m *MockPaymentRepository) OverwriteSettlement(ctx context.Context, paymentID string, paidAmount decimal.Decimal, status domain.PaymentStatus, batchID string, userID string) error {
	args := m.Called(ctx, paymentID, paidAmount, status, batchID, userID)
	return args.Error(0)
}

// --- Mock BudgetRepository ---
type MockBudgetRepository struct {
	mock.Mock
}

var _ portsrepo.BudgetRepositoryFacade = (*MockBudgetRepository)(nil)

func (m *MockBudgetRepository) FindBudgetLineByID(ctx context.Context, budgetLineID string) (*domain.BudgetLine, error) {
	args := m.Called(ctx, budgetLineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BudgetLine), args.Error(1)
}

func (m *MockBudgetRepository) FindBudgetLinesByIDs(ctx context.Context, budgetLineIDs []string) (map[string]domain.BudgetLine, error) {
	args := m.Called(ctx, budgetLineIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.BudgetLine), args.Error(1)
}

func (m *MockBudgetRepository) DebitBudgetLine(ctx context.Context, budgetLineID string, amountUSD decimal.Decimal, userID string) (*domain.BudgetDelta, error) {
	args := m.Called(ctx, budgetLineID, amountUSD, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BudgetDelta), args.Error(1)
}

func (m *MockBudgetRepository) RestoreBudgetLine(ctx context.Context, budgetLineID string, balance, spend decimal.Decimal, userID string) error {
	args := m.Called(ctx, budgetLineID, balance, spend, userID)
	return args.Error(0)
}

// --- Mock BankRepository ---
type MockBankRepository struct {
	mock.Mock
}

var _ portsrepo.BankRepositoryFacade = (*MockBankRepository)(nil)

func (m *MockBankRepository) FindBankAccountByID(ctx context.Context, bankID string) (*domain.BankAccount, error) {
	args := m.Called(ctx, bankID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankAccount), args.Error(1)
}

func (m *MockBankRepository) FindLedgerEntriesByBatchID(ctx context.Context, batchID string) ([]domain.BankLedgerEntry, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankLedgerEntry), args.Error(1)
}

func (m *MockBankRepository) ApplyMovement(ctx context.Context, movement portsrepo.BankMovement) (*domain.BankDelta, error) {
	args := m.Called(ctx, movement)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankDelta), args.Error(1)
}

func (m *MockBankRepository) FlagEntriesReversed(ctx context.Context, batchID string, userID string) (int, error) {
	args := m.Called(ctx, batchID, userID)
	return args.Int(0), args.Error(1)
}

// --- Mock MasterLogRepository ---
type MockMasterLogRepository struct {
	mock.Mock
}

var _ portsrepo.MasterLogRepositoryFacade = (*MockMasterLogRepository)(nil)

func (m *MockMasterLogRepository) AppendEntry(ctx context.Context, entry domain.MasterLogEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

func (m *MockMasterLogRepository) RemoveByTransactionID(ctx context.Context, transactionID string) error {
	args := m.Called(ctx, transactionID)
	return args.Error(0)
}

func (m *MockMasterLogRepository) FindEntriesByBatchID(ctx context.Context, batchID string) ([]domain.MasterLogEntry, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MasterLogEntry), args.Error(1)
}

// --- Mock UndoRepository ---
type MockUndoRepository struct {
	mock.Mock
}

var _ portsrepo.UndoRepositoryFacade = (*MockUndoRepository)(nil)

func (m *MockUndoRepository) SaveSnapshot(ctx context.Context, snapshot domain.UndoSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockUndoRepository) AttachMasterLogIDs(ctx context.Context, batchID string, masterLogIDs []string, userID string) error {
	args := m.Called(ctx, batchID, masterLogIDs, userID)
	return args.Error(0)
}

func (m *MockUndoRepository) MarkUndone(ctx context.Context, batchID string, undoneBy string, undoneAt time.Time) error {
	args := m.Called(ctx, batchID, undoneBy, undoneAt)
	return args.Error(0)
}

func (m *MockUndoRepository) PurgeOldSnapshots(ctx context.Context, keep int) (int, error) {
	args := m.Called(ctx, keep)
	return args.Int(0), args.Error(1)
}

func (m *MockUndoRepository) FindSnapshotByBatchID(ctx context.Context, batchID string) (*domain.UndoSnapshot, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UndoSnapshot), args.Error(1)
}

func (m *MockUndoRepository) ListRecentSnapshots(ctx context.Context, limit int) ([]domain.UndoSnapshot, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UndoSnapshot), args.Error(1)
}

// --- Mock RateRepository ---
type MockRateRepository struct {
	mock.Mock
}

var _ portsrepo.RateRepositoryFacade = (*MockRateRepository)(nil)

func (m *MockRateRepository) FindRegistryRate(ctx context.Context, normalizedType string) (*domain.WhtRate, error) {
	args := m.Called(ctx, normalizedType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WhtRate), args.Error(1)
}

func (m *MockRateRepository) FindValidationRate(ctx context.Context, normalizedType string) (*domain.WhtRate, error) {
	args := m.Called(ctx, normalizedType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WhtRate), args.Error(1)
}

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Mock ActivityWriter ---
type MockActivityWriter struct {
	mock.Mock
}

var _ portsrepo.ActivityWriter = (*MockActivityWriter)(nil)

func (m *MockActivityWriter) AppendActivity(ctx context.Context, record portsrepo.ActivityRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// --- Mock RateService ---
type MockRateService struct {
	mock.Mock
}

var _ portssvc.RateSvcFacade = (*MockRateService)(nil)

func (m *MockRateService) ResolveRate(ctx context.Context, procurementType string) (decimal.Decimal, error) {
	args := m.Called(ctx, procurementType)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockRateService) InvalidateCache() {
	m.Called()
}

// --- Mock UndoService ---
type MockUndoService struct {
	mock.Mock
}

var _ portssvc.UndoSvcFacade = (*MockUndoService)(nil)

func (m *MockUndoService) Capture(ctx context.Context, batchID string, payments []domain.StagedPayment, batchAmounts map[string]decimal.Decimal, userID string) (*domain.UndoSnapshot, error) {
	args := m.Called(ctx, batchID, payments, batchAmounts, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UndoSnapshot), args.Error(1)
}

func (m *MockUndoService) Finalize(ctx context.Context, batchID string, masterLogIDs []string, userID string) error {
	args := m.Called(ctx, batchID, masterLogIDs, userID)
	return args.Error(0)
}

func (m *MockUndoService) Compensate(ctx context.Context, batchID string, userID string) (*domain.CompensationResult, error) {
	args := m.Called(ctx, batchID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CompensationResult), args.Error(1)
}

func (m *MockUndoService) ListRecent(ctx context.Context, limit int) ([]domain.UndoSnapshot, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UndoSnapshot), args.Error(1)
}

func (m *MockUndoService) PurgeOld(ctx context.Context, keep int) (int, error) {
	args := m.Called(ctx, keep)
	return args.Int(0), args.Error(1)
}
