package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kasapahq/vendorpay/internal/apperrors"
	"github.com/kasapahq/vendorpay/internal/core/domain"
	portsrepo "github.com/kasapahq/vendorpay/internal/core/ports/repositories"
	portssvc "github.com/kasapahq/vendorpay/internal/core/ports/services"
	"github.com/kasapahq/vendorpay/internal/core/services"
	"github.com/kasapahq/vendorpay/internal/dto"
)

type FinalizationServiceTestSuite struct {
	suite.Suite
	mockPaymentRepo   *MockPaymentRepository
	mockBudgetRepo    *MockBudgetRepository
	mockBankRepo      *MockBankRepository
	mockMasterLogRepo *MockMasterLogRepository
	mockActivityRepo  *MockActivityWriter
	mockRateSvc       *MockRateService
	mockUndoSvc       *MockUndoService
	service           portssvc.FinalizationSvcFacade
	userID            string
}

func (suite *FinalizationServiceTestSuite) SetupTest() {
	suite.mockPaymentRepo = new(MockPaymentRepository)
	suite.mockBudgetRepo = new(MockBudgetRepository)
	suite.mockBankRepo = new(MockBankRepository)
	suite.mockMasterLogRepo = new(MockMasterLogRepository)
	suite.mockActivityRepo = new(MockActivityWriter)
	suite.mockRateSvc = new(MockRateService)
	suite.mockUndoSvc = new(MockUndoService)

	repos := &portsrepo.RepositoryProvider{
		PaymentRepo:   suite.mockPaymentRepo,
		BudgetRepo:    suite.mockBudgetRepo,
		BankRepo:      suite.mockBankRepo,
		MasterLogRepo: suite.mockMasterLogRepo,
		ActivityRepo:  suite.mockActivityRepo,
	}
	taxCfg := services.TaxConfig{
		LevyRate: decimal.NewFromFloat(0.01),
		VATRate:  decimal.NewFromFloat(0.15),
		MomoRate: decimal.NewFromFloat(0.01),
	}
	suite.service = services.NewFinalizationService(repos, suite.mockRateSvc, suite.mockUndoSvc, taxCfg)
	suite.userID = uuid.NewString()

	// Activity writes are fire-and-forget; they may or may not land before
	// the test finishes.
	suite.mockActivityRepo.On("AppendActivity", mock.Anything, mock.Anything).Return(nil).Maybe()
}

func (suite *FinalizationServiceTestSuite) stagedPayment(id, budgetLineID string) domain.StagedPayment {
	return domain.StagedPayment{
		PaymentID:       id,
		Vendor:          "Acme Supplies",
		Description:     "Office fittings",
		BudgetLineID:    budgetLineID,
		ProcurementType: "goods",
		VATApplies:      true,
		PaymentMode:     "BANK_TRANSFER",
		CurrencyCode:    "USD",
		PreTaxAmount:    decimal.NewFromInt(100),
		NetPayable:      decimal.NewFromFloat(111.15),
		TotalAmount:     decimal.NewFromFloat(111.15),
		PaymentStatus:   domain.PaymentPending,
	}
}

func (suite *FinalizationServiceTestSuite) expectHappyPathPlumbing() {
	suite.mockUndoSvc.On("Capture", mock.Anything, mock.AnythingOfType("string"), mock.Anything, mock.Anything, suite.userID).
		Return(&domain.UndoSnapshot{}, nil).Once()
	suite.mockUndoSvc.On("Finalize", mock.Anything, mock.AnythingOfType("string"), mock.Anything, suite.userID).
		Return(nil).Once()
}

func (suite *FinalizationServiceTestSuite) TestFinalizeBatch_ValidationAbortsBeforeMutation() {
	ctx := context.Background()
	p := suite.stagedPayment("pay-1", "bl-1")
	p.Vendor = "" // Missing vendor fails the whole batch
	suite.mockPaymentRepo.On("FindPaymentsByIDs", ctx, []string{"pay-1"}).
		Return(map[string]domain.StagedPayment{"pay-1": p}, nil).Once()

	req := dto.FinalizeBatchRequest{
		PaymentIDs:          []string{"pay-1"},
		PayingBankByPayment: map[string]string{"pay-1": "bank-1"},
		SheetID:             "sheet-1",
	}
	_, err := suite.service.FinalizeBatch(ctx, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockUndoSvc.AssertNotCalled(suite.T(), "Capture", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockBudgetRepo.AssertNotCalled(suite.T(), "DebitBudgetLine", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *FinalizationServiceTestSuite) TestFinalizeBatch_DuplicatePaymentIDsRejected() {
	ctx := context.Background()
	p := suite.stagedPayment("pay-1", "bl-1")
	suite.mockPaymentRepo.On("FindPaymentsByIDs", ctx, []string{"pay-1", "pay-1"}).
		Return(map[string]domain.StagedPayment{"pay-1": p}, nil).Once()

	req := dto.FinalizeBatchRequest{
		PaymentIDs:          []string{"pay-1", "pay-1"},
		PayingBankByPayment: map[string]string{"pay-1": "bank-1"},
		SheetID:             "sheet-1",
	}
	_, err := suite.service.FinalizeBatch(ctx, req, suite.userID)

	// Listing a payment twice would debit twice but settle once; the whole
	// batch is rejected before anything moves.
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.ErrorContains(err, "listed more than once")
	suite.mockUndoSvc.AssertNotCalled(suite.T(), "Capture", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockBudgetRepo.AssertNotCalled(suite.T(), "DebitBudgetLine", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockBankRepo.AssertNotCalled(suite.T(), "ApplyMovement", mock.Anything, mock.Anything)
}

func (suite *FinalizationServiceTestSuite) TestFinalizeBatch_MissingPaymentFailsValidation() {
	ctx := context.Background()
	suite.mockPaymentRepo.On("FindPaymentsByIDs", ctx, []string{"pay-gone"}).
		Return(map[string]domain.StagedPayment{}, nil).Once()

	req := dto.FinalizeBatchRequest{
		PaymentIDs:          []string{"pay-gone"},
		PayingBankByPayment: map[string]string{"pay-gone": "bank-1"},
		SheetID:             "sheet-1",
	}
	_, err := suite.service.FinalizeBatch(ctx, req, suite.userID)

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *FinalizationServiceTestSuite) TestFinalizeBatch_HappyPath() {
	ctx := context.Background()
	p := suite.stagedPayment("pay-1", "bl-1")
	suite.mockPaymentRepo.On("FindPaymentsByIDs", ctx, []string{"pay-1"}).
		Return(map[string]domain.StagedPayment{"pay-1": p}, nil).Once()
	suite.expectHappyPathPlumbing()

	suite.mockBudgetRepo.On("DebitBudgetLine", ctx, "bl-1", mock.Anything, suite.userID).
		Return(&domain.BudgetDelta{BudgetLineID: "bl-1", Name: "Operations", NewBalance: decimal.NewFromInt(500)}, nil).Once()
	suite.mockRateSvc.On("ResolveRate", ctx, "goods").Return(decimal.NewFromFloat(0.05), nil).Once()
	suite.mockBankRepo.On("ApplyMovement", ctx, mock.MatchedBy(func(m portsrepo.BankMovement) bool {
		return m.BankID == "bank-1" &&
			m.Direction == domain.LedgerDebit &&
			m.Amount.Equal(decimal.NewFromFloat(111.15))
	})).Return(&domain.BankDelta{BankID: "bank-1", NewBalance: decimal.NewFromInt(5000)}, nil).Once()

	settled := p
	settled.PaidAmount = decimal.NewFromFloat(111.15)
	settled.PaymentStatus = domain.PaymentPaid
	suite.mockPaymentRepo.On("ApplySettlement", ctx, "pay-1", mock.Anything, mock.AnythingOfType("string"), suite.userID).
		Return(&settled, nil).Once()
	suite.mockMasterLogRepo.On("AppendEntry", ctx, mock.MatchedBy(func(e domain.MasterLogEntry) bool {
		return e.PaymentID == "pay-1" &&
			e.BudgetLineName == "Operations" &&
			e.WHTAmount.Equal(decimal.NewFromInt(5)) &&
			e.VATAmount.Equal(decimal.NewFromFloat(15.15)) &&
			!e.IsPartial
	})).Return("txn-1", nil).Once()

	req := dto.FinalizeBatchRequest{
		PaymentIDs:          []string{"pay-1"},
		PayingBankByPayment: map[string]string{"pay-1": "bank-1"},
		SheetID:             "sheet-1",
	}
	result, err := suite.service.FinalizeBatch(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.StateCompleted, result.State)
	suite.Equal(1, result.BudgetUpdated)
	suite.Equal(1, result.BankDeductions)
	suite.Equal(1, result.StatusUpdated)
	suite.Equal([]string{"txn-1"}, result.MasterLogIDs)
	suite.Empty(result.Skipped)
	suite.Empty(result.BlockedPayments)
	suite.True(result.TotalAmount.Equal(decimal.NewFromFloat(111.15)))
	suite.mockMasterLogRepo.AssertExpectations(suite.T())
}

func (suite *FinalizationServiceTestSuite) TestFinalizeBatch_GroupsDeductionsPerBank() {
	ctx := context.Background()
	p1 := suite.stagedPayment("pay-1", "bl-1")
	p2 := suite.stagedPayment("pay-2", "bl-2")
	suite.mockPaymentRepo.On("FindPaymentsByIDs", ctx, []string{"pay-1", "pay-2"}).
		Return(map[string]domain.StagedPayment{"pay-1": p1, "pay-2": p2}, nil).Once()
	suite.expectHappyPathPlumbing()

	suite.mockBudgetRepo.On("DebitBudgetLine", ctx, mock.AnythingOfType("string"), mock.Anything, suite.userID).
		Return(&domain.BudgetDelta{NewBalance: decimal.NewFromInt(500)}, nil).Twice()
	suite.mockRateSvc.On("ResolveRate", ctx, "goods").Return(decimal.NewFromFloat(0.05), nil).Twice()

	// Both payments draw from the same bank: exactly one aggregated debit.
	suite.mockBankRepo.On("ApplyMovement", ctx, mock.MatchedBy(func(m portsrepo.BankMovement) bool {
		return m.BankID == "bank-1" && m.Amount.Equal(decimal.NewFromFloat(222.30))
	})).Return(&domain.BankDelta{BankID: "bank-1", NewBalance: decimal.NewFromInt(5000)}, nil).Once()

	suite.mockPaymentRepo.On("ApplySettlement", ctx, mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("string"), suite.userID).
		Return(&p1, nil).Twice()
	suite.mockMasterLogRepo.On("AppendEntry", ctx, mock.Anything).Return("txn-x", nil).Twice()

	req := dto.FinalizeBatchRequest{
		PaymentIDs:          []string{"pay-1", "pay-2"},
		PayingBankByPayment: map[string]string{"pay-1": "bank-1", "pay-2": "bank-1"},
		SheetID:             "sheet-1",
	}
	result, err := suite.service.FinalizeBatch(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(1, result.BankDeductions)
	suite.Equal(2, result.StatusUpdated)
	suite.mockBankRepo.AssertNumberOfCalls(suite.T(), "ApplyMovement", 1)
}

func (suite *FinalizationServiceTestSuite) TestFinalizeBatch_MissingBudgetLineIsSkipRecorded() {
	ctx := context.Background()
	p := suite.stagedPayment("pay-1", "bl-gone")
	suite.mockPaymentRepo.On("FindPaymentsByIDs", ctx, []string{"pay-1"}).
		Return(map[string]domain.StagedPayment{"pay-1": p}, nil).Once()
	suite.expectHappyPathPlumbing()

	suite.mockBudgetRepo.On("DebitBudgetLine", ctx, "bl-gone", mock.Anything, suite.userID).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRateSvc.On("ResolveRate", ctx, "goods").Return(decimal.NewFromFloat(0.05), nil).Once()
	suite.mockBankRepo.On("ApplyMovement", ctx, mock.Anything).
		Return(&domain.BankDelta{NewBalance: decimal.NewFromInt(100)}, nil).Once()
	suite.mockPaymentRepo.On("ApplySettlement", ctx, "pay-1", mock.Anything, mock.AnythingOfType("string"), suite.userID).
		Return(&p, nil).Once()
	suite.mockMasterLogRepo.On("AppendEntry", ctx, mock.Anything).Return("txn-1", nil).Once()

	req := dto.FinalizeBatchRequest{
		PaymentIDs:          []string{"pay-1"},
		PayingBankByPayment: map[string]string{"pay-1": "bank-1"},
		SheetID:             "sheet-1",
	}
	result, err := suite.service.FinalizeBatch(ctx, req, suite.userID)

	// The budget step skipped, everything downstream still ran.
	suite.Require().NoError(err)
	suite.Equal(domain.StatePartiallyCompleted, result.State)
	suite.Equal(0, result.BudgetUpdated)
	suite.Equal(1, result.BankDeductions)
	suite.Len(result.Skipped, 1)
	suite.Equal(string(domain.StateBudgetUpdate), result.Skipped[0].Step)
}

func (suite *FinalizationServiceTestSuite) TestFinalizeBatch_UnconfiguredRateBlocksPayment() {
	ctx := context.Background()
	p := suite.stagedPayment("pay-1", "bl-1")
	p.ProcurementType = "catering"
	suite.mockPaymentRepo.On("FindPaymentsByIDs", ctx, []string{"pay-1"}).
		Return(map[string]domain.StagedPayment{"pay-1": p}, nil).Once()
	suite.expectHappyPathPlumbing()

	suite.mockBudgetRepo.On("DebitBudgetLine", ctx, "bl-1", mock.Anything, suite.userID).
		Return(&domain.BudgetDelta{NewBalance: decimal.NewFromInt(500)}, nil).Once()
	suite.mockRateSvc.On("ResolveRate", ctx, "catering").
		Return(decimal.Zero, apperrors.ErrNotConfigured).Once()

	req := dto.FinalizeBatchRequest{
		PaymentIDs:          []string{"pay-1"},
		PayingBankByPayment: map[string]string{"pay-1": "bank-1"},
		SheetID:             "sheet-1",
	}
	result, err := suite.service.FinalizeBatch(ctx, req, suite.userID)

	// Blocked at tax resolution: no bank deduction, no settlement, no log.
	suite.Require().NoError(err)
	suite.Equal(domain.StatePartiallyCompleted, result.State)
	suite.Len(result.BlockedPayments, 1)
	suite.Equal(0, result.BankDeductions)
	suite.Equal(0, result.StatusUpdated)
	suite.mockBankRepo.AssertNotCalled(suite.T(), "ApplyMovement", mock.Anything, mock.Anything)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "ApplySettlement", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *FinalizationServiceTestSuite) TestFinalizeBatch_AlreadyPaidIsIdempotentNoOp() {
	ctx := context.Background()
	p := suite.stagedPayment("pay-1", "bl-1")
	p.PaymentStatus = domain.PaymentPaid
	p.PaidAmount = p.TotalAmount
	suite.mockPaymentRepo.On("FindPaymentsByIDs", ctx, []string{"pay-1"}).
		Return(map[string]domain.StagedPayment{"pay-1": p}, nil).Once()

	req := dto.FinalizeBatchRequest{
		PaymentIDs:          []string{"pay-1"},
		PayingBankByPayment: map[string]string{"pay-1": "bank-1"},
		SheetID:             "sheet-1",
	}
	result, err := suite.service.FinalizeBatch(ctx, req, suite.userID)

	// Resubmitting a settled sheet deducts nothing and snapshots nothing.
	suite.Require().NoError(err)
	suite.Equal(domain.StateCompleted, result.State)
	suite.Len(result.Skipped, 1)
	suite.Equal(0, result.BankDeductions)
	suite.mockUndoSvc.AssertNotCalled(suite.T(), "Capture", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockBankRepo.AssertNotCalled(suite.T(), "ApplyMovement", mock.Anything, mock.Anything)
}

func (suite *FinalizationServiceTestSuite) TestFinalizeBatch_PartialRunFallsBackToPreTax() {
	ctx := context.Background()
	p := suite.stagedPayment("pay-1", "bl-1")
	p.NetPayable = decimal.Zero // Staging never computed it; pre-tax is the fallback
	p.PreTaxAmount = decimal.NewFromInt(50)
	p.TotalAmount = decimal.NewFromInt(100)
	suite.mockPaymentRepo.On("FindPaymentsByIDs", ctx, []string{"pay-1"}).
		Return(map[string]domain.StagedPayment{"pay-1": p}, nil).Once()
	suite.expectHappyPathPlumbing()

	suite.mockBudgetRepo.On("DebitBudgetLine", ctx, "bl-1", mock.Anything, suite.userID).
		Return(&domain.BudgetDelta{NewBalance: decimal.NewFromInt(500)}, nil).Once()
	suite.mockRateSvc.On("ResolveRate", ctx, "goods").Return(decimal.NewFromFloat(0.05), nil).Once()
	suite.mockBankRepo.On("ApplyMovement", ctx, mock.MatchedBy(func(m portsrepo.BankMovement) bool {
		return m.Amount.Equal(decimal.NewFromInt(50))
	})).Return(&domain.BankDelta{NewBalance: decimal.NewFromInt(100)}, nil).Once()

	settled := p
	settled.PaidAmount = decimal.NewFromInt(50)
	settled.PaymentStatus = domain.PaymentPartial
	suite.mockPaymentRepo.On("ApplySettlement", ctx, "pay-1", mock.Anything, mock.AnythingOfType("string"), suite.userID).
		Return(&settled, nil).Once()
	suite.mockMasterLogRepo.On("AppendEntry", ctx, mock.MatchedBy(func(e domain.MasterLogEntry) bool {
		return e.IsPartial && e.PercentOfTotal.Equal(decimal.NewFromInt(50))
	})).Return("txn-1", nil).Once()

	req := dto.FinalizeBatchRequest{
		PaymentIDs:          []string{"pay-1"},
		PayingBankByPayment: map[string]string{"pay-1": "bank-1"},
		SheetID:             "sheet-1",
	}
	result, err := suite.service.FinalizeBatch(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.StateCompleted, result.State)
	suite.mockMasterLogRepo.AssertExpectations(suite.T())
}

func (suite *FinalizationServiceTestSuite) TestFinalizeBatch_OverdraftWarnsNotBlocks() {
	ctx := context.Background()
	p := suite.stagedPayment("pay-1", "bl-1")
	suite.mockPaymentRepo.On("FindPaymentsByIDs", ctx, []string{"pay-1"}).
		Return(map[string]domain.StagedPayment{"pay-1": p}, nil).Once()
	suite.expectHappyPathPlumbing()

	suite.mockBudgetRepo.On("DebitBudgetLine", ctx, "bl-1", mock.Anything, suite.userID).
		Return(&domain.BudgetDelta{BudgetLineID: "bl-1", NewBalance: decimal.NewFromInt(-40)}, nil).Once()
	suite.mockRateSvc.On("ResolveRate", ctx, "goods").Return(decimal.NewFromFloat(0.05), nil).Once()
	suite.mockBankRepo.On("ApplyMovement", ctx, mock.Anything).
		Return(&domain.BankDelta{NewBalance: decimal.NewFromInt(100)}, nil).Once()
	suite.mockPaymentRepo.On("ApplySettlement", ctx, "pay-1", mock.Anything, mock.AnythingOfType("string"), suite.userID).
		Return(&p, nil).Once()
	suite.mockMasterLogRepo.On("AppendEntry", ctx, mock.Anything).Return("txn-1", nil).Once()

	req := dto.FinalizeBatchRequest{
		PaymentIDs:          []string{"pay-1"},
		PayingBankByPayment: map[string]string{"pay-1": "bank-1"},
		SheetID:             "sheet-1",
	}
	result, err := suite.service.FinalizeBatch(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(1, result.BudgetUpdated)
	suite.Len(result.OverdraftWarning, 1)
}

func (suite *FinalizationServiceTestSuite) TestUndoBatch_DelegatesToUndoService() {
	ctx := context.Background()
	batchID := uuid.NewString()
	compensation := &domain.CompensationResult{BatchID: batchID, FullyCompensated: true}
	suite.mockUndoSvc.On("Compensate", ctx, batchID, suite.userID).Return(compensation, nil).Once()

	result, err := suite.service.UndoBatch(ctx, batchID, suite.userID)

	suite.Require().NoError(err)
	suite.True(result.FullyCompensated)
	suite.mockUndoSvc.AssertExpectations(suite.T())
}

func (suite *FinalizationServiceTestSuite) TestUndoBatch_PropagatesUndoUnavailable() {
	ctx := context.Background()
	batchID := uuid.NewString()
	suite.mockUndoSvc.On("Compensate", ctx, batchID, suite.userID).
		Return(nil, apperrors.ErrUndoUnavailable).Once()

	_, err := suite.service.UndoBatch(ctx, batchID, suite.userID)
	suite.ErrorIs(err, apperrors.ErrUndoUnavailable)
}

func TestFinalizationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FinalizationServiceTestSuite))
}
