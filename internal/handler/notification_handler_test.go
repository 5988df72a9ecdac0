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

type stubNotificationService struct {
	CreateFunc func(ctx context.Context, req *dto.CreateNotificationRequest) (*domain.Notification, error)
}

func (s *stubNotificationService) Create(ctx context.Context, req *dto.CreateNotificationRequest) (*domain.Notification, error) {
	return s.CreateFunc(ctx, req)
}

func (s *stubNotificationService) List(ctx context.Context, userID uuid.UUID, query *dto.NotificationListQuery) (*dto.NotificationListResponse, error) {
	return nil, nil
}

func (s *stubNotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return nil
}

func (s *stubNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (s *stubNotificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return nil
}

func notificationTestRouter(svc *stubNotificationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewNotificationHandler(svc)

	authed := r.Group("/api/notifications", func(c *gin.Context) {
		c.Set("user_id", testUserID)
	})
	authed.POST("", h.Create)
	return r
}

func TestNotificationHandler_Create(t *testing.T) {
	recipient := uuid.New()

	tests := []struct {
		name       string
		body       interface{}
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name: "created",
			body: map[string]interface{}{
				"userId":  recipient.String(),
				"type":    "system",
				"title":   "Maintenance window",
				"message": "The venue opens an hour later on Saturday.",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "unknown type rejected by binding",
			body: map[string]interface{}{
				"userId":  recipient.String(),
				"type":    "broadcast",
				"title":   "x",
				"message": "y",
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "missing fields",
			body:       map[string]interface{}{"type": "system"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubNotificationService{
				CreateFunc: func(ctx context.Context, req *dto.CreateNotificationRequest) (*domain.Notification, error) {
					assert.Equal(t, recipient, req.UserID)
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &domain.Notification{
						ID:      uuid.New(),
						UserID:  req.UserID,
						Type:    domain.NotificationType(req.Type),
						Title:   req.Title,
						Message: req.Message,
					}, nil
				},
			}

			w, envelope := doJSON(t, notificationTestRouter(svc), http.MethodPost, "/api/notifications", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode == "" {
				assert.True(t, envelope.Success)
				assert.NotNil(t, envelope.Data)
			} else {
				assert.False(t, envelope.Success)
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			}
		})
	}
}
