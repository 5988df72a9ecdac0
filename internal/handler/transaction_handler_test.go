package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodefavour/web3event/internal/domain"
	"github.com/bodefavour/web3event/internal/dto"
)

type stubTransactionService struct {
	CreateFunc       func(ctx context.Context, userID uuid.UUID, req *dto.CreateTransactionRequest) (*domain.Transaction, error)
	GetFunc          func(ctx context.Context, id, callerID uuid.UUID) (*domain.Transaction, error)
	ListByUserFunc   func(ctx context.Context, userID uuid.UUID, query *dto.TransactionListQuery) ([]*domain.Transaction, error)
	UpdateStatusFunc func(ctx context.Context, id, callerID uuid.UUID, status domain.TransactionStatus) (*domain.Transaction, error)
}

func (s *stubTransactionService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateTransactionRequest) (*domain.Transaction, error) {
	return s.CreateFunc(ctx, userID, req)
}

func (s *stubTransactionService) Get(ctx context.Context, id, callerID uuid.UUID) (*domain.Transaction, error) {
	return s.GetFunc(ctx, id, callerID)
}

func (s *stubTransactionService) ListByUser(ctx context.Context, userID uuid.UUID, query *dto.TransactionListQuery) ([]*domain.Transaction, error) {
	return s.ListByUserFunc(ctx, userID, query)
}

func (s *stubTransactionService) UpdateStatus(ctx context.Context, id, callerID uuid.UUID, status domain.TransactionStatus) (*domain.Transaction, error) {
	return s.UpdateStatusFunc(ctx, id, callerID, status)
}

func transactionTestRouter(svc *stubTransactionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewTransactionHandler(svc)

	authed := r.Group("/api/transactions", func(c *gin.Context) {
		c.Set("user_id", testUserID)
	})
	authed.PUT("/:id/status", h.UpdateStatus)
	return r
}

func TestTransactionHandler_UpdateStatus(t *testing.T) {
	txnID := uuid.New()

	tests := []struct {
		name       string
		body       interface{}
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "refund accepted",
			body:       map[string]interface{}{"status": "refunded"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "funnel violation",
			body:       map[string]interface{}{"status": "refunded"},
			serviceErr: domain.ErrInvalidStatusChange,
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
		{
			name:       "unknown status",
			body:       map[string]interface{}{"status": "settled"},
			serviceErr: domain.ErrUnknownTransactionStatus,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "unknown transaction",
			body:       map[string]interface{}{"status": "completed"},
			serviceErr: domain.ErrTransactionNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "missing status field",
			body:       map[string]interface{}{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubTransactionService{
				UpdateStatusFunc: func(ctx context.Context, id, callerID uuid.UUID, status domain.TransactionStatus) (*domain.Transaction, error) {
					assert.Equal(t, txnID, id)
					assert.Equal(t, testUserID, callerID)
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &domain.Transaction{ID: id, UserID: callerID, Status: status}, nil
				},
			}

			w, envelope := doJSON(t, transactionTestRouter(svc), http.MethodPut, "/api/transactions/"+txnID.String()+"/status", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode == "" {
				assert.True(t, envelope.Success)
			} else {
				assert.False(t, envelope.Success)
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			}
		})
	}
}
