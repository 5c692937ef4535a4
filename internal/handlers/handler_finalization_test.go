package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/kasapahq/vendorpay/internal/core/domain"
	"github.com/kasapahq/vendorpay/internal/dto"
)

type mockFinalizationService struct {
	mock.Mock
}

func (m *mockFinalizationService) FinalizeBatch(ctx context.Context, req dto.FinalizeBatchRequest, userID string) (*dto.FinalizationResult, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.FinalizationResult), args.Error(1)
}

func (m *mockFinalizationService) UndoBatch(ctx context.Context, batchID string, userID string) (*domain.CompensationResult, error) {
	args := m.Called(ctx, batchID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CompensationResult), args.Error(1)
}

func (m *mockFinalizationService) GetRecentUndoableBatches(ctx context.Context, limit int) ([]domain.UndoSnapshot, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UndoSnapshot), args.Error(1)
}

func (m *mockFinalizationService) GetBatchLog(ctx context.Context, batchID string) ([]domain.MasterLogEntry, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MasterLogEntry), args.Error(1)
}

func setupBatchRouter(svc *mockFinalizationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	registerBatchRoutes(router.Group("/api/v1"), svc)
	return router
}

func TestListUndoableBatches_DefaultLimitIsFive(t *testing.T) {
	svc := new(mockFinalizationService)
	svc.On("GetRecentUndoableBatches", mock.Anything, 5).
		Return([]domain.UndoSnapshot{}, nil).Once()
	router := setupBatchRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches/undoable", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestListUndoableBatches_ExplicitLimit(t *testing.T) {
	svc := new(mockFinalizationService)
	svc.On("GetRecentUndoableBatches", mock.Anything, 20).
		Return([]domain.UndoSnapshot{}, nil).Once()
	router := setupBatchRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches/undoable?limit=20", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestListUndoableBatches_InvalidLimitRejected(t *testing.T) {
	svc := new(mockFinalizationService)
	router := setupBatchRouter(svc)

	for _, raw := range []string{"abc", "0", "-3"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/batches/undoable?limit="+raw, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", raw)
	}
	svc.AssertNotCalled(t, "GetRecentUndoableBatches", mock.Anything, mock.Anything)
}
