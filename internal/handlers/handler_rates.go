package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kasapahq/vendorpay/internal/apperrors"
	portssvc "github.com/kasapahq/vendorpay/internal/core/ports/services"
	"github.com/kasapahq/vendorpay/internal/dto"
	"github.com/kasapahq/vendorpay/internal/middleware"
)

// rateHandler exposes the WHT rate resolution probe and the cache admin
// surface.
type rateHandler struct {
	rateService portssvc.RateSvcFacade
}

// newRateHandler creates a new rateHandler.
func newRateHandler(rateService portssvc.RateSvcFacade) *rateHandler {
	return &rateHandler{
		rateService: rateService,
	}
}

// resolveRate godoc
// @Summary Resolve the WHT rate for a procurement type
// @Description Resolves the withholding-tax rate the engine would apply to this procurement type
// @Tags rates
// @Produce  json
// @Param   procurementType path string true "Procurement type"
// @Success 200 {object} dto.RateResponse
// @Failure 404 {object} map[string]string "No rate configured"
// @Failure 500 {object} map[string]string "Failed to resolve rate"
// @Router /rates/{procurementType} [get]
func (h *rateHandler) resolveRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	procurementType := c.Param("procurementType")

	rate, err := h.rateService.ResolveRate(c.Request.Context(), procurementType)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotConfigured) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to resolve rate", slog.String("procurement_type", procurementType), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve rate"})
		return
	}

	c.JSON(http.StatusOK, dto.RateResponse{ProcurementType: procurementType, Rate: rate})
}

// invalidateCache godoc
// @Summary Invalidate the WHT rate cache
// @Description Drops every cached rate resolution so the next lookups hit the registry
// @Tags rates
// @Produce  json
// @Success 200 {object} map[string]string
// @Router /rates/invalidate-cache [post]
func (h *rateHandler) invalidateCache(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	h.rateService.InvalidateCache()
	logger.Info("Rate cache invalidated")
	c.JSON(http.StatusOK, gin.H{"status": "cache invalidated"})
}

// registerRateRoutes registers rate probe and admin routes.
func registerRateRoutes(group *gin.RouterGroup, rateService portssvc.RateSvcFacade) {
	handler := newRateHandler(rateService)

	rates := group.Group("/rates")
	{
		rates.GET("/:procurementType", handler.resolveRate)
		rates.POST("/invalidate-cache", handler.invalidateCache)
	}
}
