package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kasapahq/vendorpay/internal/apperrors"
	portssvc "github.com/kasapahq/vendorpay/internal/core/ports/services"
	"github.com/kasapahq/vendorpay/internal/dto"
	"github.com/kasapahq/vendorpay/internal/middleware"
)

// finalizationHandler handles HTTP requests for batch finalization and undo.
type finalizationHandler struct {
	finalizationService portssvc.FinalizationSvcFacade
}

// newFinalizationHandler creates a new finalizationHandler.
func newFinalizationHandler(finalizationService portssvc.FinalizationSvcFacade) *finalizationHandler {
	return &finalizationHandler{
		finalizationService: finalizationService,
	}
}

// finalizeBatch godoc
// @Summary Finalize a batch of staged payments
// @Description Validates, snapshots and commits the selected staged payments as one batch
// @Tags batches
// @Accept  json
// @Produce  json
// @Param   batch body dto.FinalizeBatchRequest true "Payments to finalize"
// @Success 200 {object} dto.FinalizationResult "Per-item finalization report"
// @Failure 400 {object} map[string]string "Validation failed; nothing was written"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to finalize batch"
// @Router /batches/finalize [post]
func (h *finalizationHandler) finalizeBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.FinalizeBatchRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for FinalizeBatch", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	userID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.finalizationService.FinalizeBatch(c.Request.Context(), req, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Batch validation failed", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to finalize batch", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to finalize batch"})
		}
		return
	}

	logger.Info("Batch finalized", slog.String("batch_id", result.BatchID), slog.String("state", string(result.State)))
	c.JSON(http.StatusOK, result)
}

// undoBatch godoc
// @Summary Undo a previously finalized batch
// @Description Best-effort reverses every mutation of the batch using its captured snapshot
// @Tags batches
// @Accept  json
// @Produce  json
// @Param   batchID path string true "Batch ID"
// @Success 200 {object} domain.CompensationResult "Per-step compensation report"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Batch cannot be undone"
// @Failure 500 {object} map[string]string "Failed to undo batch"
// @Router /batches/{batchID}/undo [post]
func (h *finalizationHandler) undoBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	batchID := c.Param("batchID")

	userID, ok := middleware.GetUserIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.finalizationService.UndoBatch(c.Request.Context(), batchID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUndoUnavailable) {
			logger.Warn("Undo unavailable for batch", slog.String("batch_id", batchID), slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to undo batch", slog.String("batch_id", batchID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to undo batch"})
		return
	}

	logger.Info("Batch undone",
		slog.String("batch_id", batchID),
		slog.Bool("fully_compensated", result.FullyCompensated))
	c.JSON(http.StatusOK, result)
}

// listUndoableBatches godoc
// @Summary List recent undoable batches
// @Description Lists the most recently finalized batches that still have an undoable snapshot
// @Tags batches
// @Produce  json
// @Param   limit query int false "Maximum batches to return" default(5)
// @Success 200 {array} dto.UndoableBatchResponse
// @Failure 500 {object} map[string]string "Failed to list undoable batches"
// @Router /batches/undoable [get]
func (h *finalizationHandler) listUndoableBatches(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	limit := 5
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	snapshots, err := h.finalizationService.GetRecentUndoableBatches(c.Request.Context(), limit)
	if err != nil {
		logger.Error("Failed to list undoable batches", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list undoable batches"})
		return
	}

	responses := make([]dto.UndoableBatchResponse, 0, len(snapshots))
	for i := range snapshots {
		responses = append(responses, dto.ToUndoableBatchResponse(&snapshots[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// getBatchLog godoc
// @Summary Get the master-log entries of a batch
// @Description Retrieves every audit entry written when the batch was finalized
// @Tags batches
// @Produce  json
// @Param   batchID path string true "Batch ID"
// @Success 200 {array} domain.MasterLogEntry
// @Failure 500 {object} map[string]string "Failed to retrieve batch log"
// @Router /batches/{batchID}/log [get]
func (h *finalizationHandler) getBatchLog(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	batchID := c.Param("batchID")

	entries, err := h.finalizationService.GetBatchLog(c.Request.Context(), batchID)
	if err != nil {
		logger.Error("Failed to get batch log", slog.String("batch_id", batchID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve batch log"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// registerBatchRoutes registers batch finalization and undo routes.
func registerBatchRoutes(group *gin.RouterGroup, finalizationService portssvc.FinalizationSvcFacade) {
	handler := newFinalizationHandler(finalizationService)

	batches := group.Group("/batches")
	{
		batches.POST("/finalize", handler.finalizeBatch)
		batches.POST("/:batchID/undo", handler.undoBatch)
		batches.GET("/undoable", handler.listUndoableBatches)
		batches.GET("/:batchID/log", handler.getBatchLog)
	}
}
