package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kasapahq/vendorpay/internal/apperrors"
	"github.com/kasapahq/vendorpay/internal/core/domain"
	portssvc "github.com/kasapahq/vendorpay/internal/core/ports/services"
	"github.com/kasapahq/vendorpay/internal/middleware"
)

// ledgerHandler serves the read-only budget and bank ledger views.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(ledgerService portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{
		ledgerService: ledgerService,
	}
}

// getBudgetLine godoc
// @Summary Get a budget line
// @Description Retrieves a budget line with its current balance and cumulative spend
// @Tags ledgers
// @Produce  json
// @Param   budgetLineID path string true "Budget line ID"
// @Success 200 {object} domain.BudgetLine
// @Failure 404 {object} map[string]string "Budget line not found"
// @Failure 500 {object} map[string]string "Failed to retrieve budget line"
// @Router /budget-lines/{budgetLineID} [get]
func (h *ledgerHandler) getBudgetLine(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	budgetLineID := c.Param("budgetLineID")

	line, err := h.ledgerService.GetBudgetLine(c.Request.Context(), budgetLineID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Budget line not found"})
			return
		}
		logger.Error("Failed to get budget line", slog.String("budget_line_id", budgetLineID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve budget line"})
		return
	}
	c.JSON(http.StatusOK, line)
}

// getBankAccount godoc
// @Summary Get a bank account
// @Description Retrieves a bank account with its current balance
// @Tags ledgers
// @Produce  json
// @Param   bankID path string true "Bank account ID"
// @Success 200 {object} domain.BankAccount
// @Failure 404 {object} map[string]string "Bank account not found"
// @Failure 500 {object} map[string]string "Failed to retrieve bank account"
// @Router /banks/{bankID} [get]
func (h *ledgerHandler) getBankAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	bankID := c.Param("bankID")

	account, err := h.ledgerService.GetBankAccount(c.Request.Context(), bankID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bank account not found"})
			return
		}
		logger.Error("Failed to get bank account", slog.String("bank_id", bankID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve bank account"})
		return
	}
	c.JSON(http.StatusOK, account)
}

// getBankLedger godoc
// @Summary Get a bank account's ledger entries for a batch
// @Description Retrieves the ledger entries a batch wrote against the given bank account
// @Tags ledgers
// @Produce  json
// @Param   bankID path string true "Bank account ID"
// @Param   batchID query string true "Batch ID"
// @Success 200 {array} domain.BankLedgerEntry
// @Failure 400 {object} map[string]string "Missing batchID"
// @Failure 500 {object} map[string]string "Failed to retrieve bank ledger"
// @Router /banks/{bankID}/ledger [get]
func (h *ledgerHandler) getBankLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	bankID := c.Param("bankID")
	batchID := c.Query("batchID")
	if batchID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "batchID query parameter is required"})
		return
	}

	entries, err := h.ledgerService.GetBankLedger(c.Request.Context(), batchID)
	if err != nil {
		logger.Error("Failed to get bank ledger", slog.String("bank_id", bankID), slog.String("batch_id", batchID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve bank ledger"})
		return
	}

	filtered := make([]domain.BankLedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e.BankID == bankID {
			filtered = append(filtered, e)
		}
	}
	c.JSON(http.StatusOK, filtered)
}

// registerLedgerRoutes registers the read-only ledger routes.
func registerLedgerRoutes(group *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	handler := newLedgerHandler(ledgerService)

	group.GET("/budget-lines/:budgetLineID", handler.getBudgetLine)
	banks := group.Group("/banks")
	{
		banks.GET("/:bankID", handler.getBankAccount)
		banks.GET("/:bankID/ledger", handler.getBankLedger)
	}
}
